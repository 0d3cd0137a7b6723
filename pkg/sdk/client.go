package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Invoke runs a named backend command. args is encoded as the JSON parameter object
// and a successful response body is decoded into target when both are non-empty.
func (c *Client) Invoke(ctx context.Context, command string, args interface{}, target interface{}) error {
	if args == nil {
		args = struct{}{}
	}
	jsonData, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("error encoding %s arguments: %w", command, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoke/"+command, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &CommandError{
			Command: command,
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}

	if target == nil {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("error decoding %s result: %w", command, err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed (%d)", resp.StatusCode)
	}
	return nil
}

// Events dials the backend event stream.
func (c *Client) Events(ctx context.Context) (*EventStream, error) {
	wsURL, err := c.GetWebSocketURL("/events")
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("X-Roam-Client", "session-store")

	conn, _, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("error connecting to event stream: %w", err)
	}
	return &EventStream{conn: conn}, nil
}

func (c *Client) GetWebSocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}

type EventStream struct {
	conn *websocket.Conn
}

// Next blocks until the next event frame arrives or the connection fails.
func (s *EventStream) Next() (Event, error) {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil || ev.Name == "" {
			continue
		}
		return ev, nil
	}
}

func (s *EventStream) Close() error {
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}
