package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roam/internal/config"
	"roam/pkg/sdk"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullBridge(t *testing.T) {
	var b Bridge = Null{}

	assert.False(t, b.Live())
	err := b.Invoke(context.Background(), sdk.CmdStartServer, nil, nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	unsubscribe := b.Subscribe(sdk.EventServerLog, func(json.RawMessage) {
		t.Fatal("null bridge must never dispatch")
	})
	unsubscribe()
	assert.NoError(t, b.Close())
}

func eventBackend(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(f))
		}
		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLiveDispatchesEvents(t *testing.T) {
	srv := eventBackend(t,
		`{"event":"server-log","payload":"[Server] Done (3.2s)!"}`,
		`{"event":"player-update","payload":2}`,
	)
	logger, _ := test.NewNullLogger()
	live := NewLive(sdk.NewClient(srv.URL, time.Second), logger)

	logs := make(chan string, 1)
	players := make(chan int, 1)
	live.Subscribe(sdk.EventServerLog, func(p json.RawMessage) {
		var s string
		_ = json.Unmarshal(p, &s)
		logs <- s
	})
	live.Subscribe(sdk.EventPlayerUpdate, func(p json.RawMessage) {
		var n int
		_ = json.Unmarshal(p, &n)
		players <- n
	})

	live.Start(context.Background())
	defer live.Close()

	select {
	case s := <-logs:
		assert.Equal(t, "[Server] Done (3.2s)!", s)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server-log")
	}
	select {
	case n := <-players:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for player-update")
	}
}

func TestLiveUnsubscribe(t *testing.T) {
	logger, _ := test.NewNullLogger()
	live := NewLive(sdk.NewClient("http://127.0.0.1:1", time.Second), logger)

	called := 0
	unsubscribe := live.Subscribe(sdk.EventStatusUpdate, func(json.RawMessage) { called++ })
	live.dispatch(sdk.Event{Name: sdk.EventStatusUpdate, Payload: json.RawMessage(`"Running"`)})
	unsubscribe()
	live.dispatch(sdk.Event{Name: sdk.EventStatusUpdate, Payload: json.RawMessage(`"Offline"`)})

	assert.Equal(t, 1, called)
	assert.NoError(t, live.Close())
}

func TestLiveCloseStopsReconnectLoop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	live := NewLive(sdk.NewClient("http://127.0.0.1:1", time.Second), logger)
	live.reconnectDelay = 10 * time.Millisecond
	live.Start(context.Background())

	done := make(chan struct{})
	go func() {
		_ = live.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
}

func TestDetectHonoursRuntimeMarker(t *testing.T) {
	logger, _ := test.NewNullLogger()
	srv := eventBackend(t)
	cfg := &config.Config{DaemonURL: srv.URL, RequestTimeoutSeconds: 1}

	t.Setenv("ROAM_RUNTIME", "0")
	b := Detect(context.Background(), cfg, logger)
	assert.False(t, b.Live())

	t.Setenv("ROAM_RUNTIME", "1")
	b = Detect(context.Background(), cfg, logger)
	require.True(t, b.Live())
	assert.NoError(t, b.Close())
}

func TestProbeUsesHealthEndpoint(t *testing.T) {
	t.Setenv("ROAM_RUNTIME", "")
	srv := eventBackend(t)

	assert.True(t, Probe(context.Background(), sdk.NewClient(srv.URL, time.Second)))
}
