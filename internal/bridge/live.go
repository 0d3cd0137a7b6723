package bridge

import (
	"context"
	"sync"
	"time"

	"roam/pkg/sdk"

	log "github.com/sirupsen/logrus"
)

const defaultReconnectDelay = 3 * time.Second

type Live struct {
	client *sdk.Client
	logger log.FieldLogger

	mu       sync.RWMutex
	handlers map[string]map[int]Handler
	nextID   int

	reconnectDelay time.Duration
	cancel         context.CancelFunc
	done           chan struct{}
}

func NewLive(client *sdk.Client, logger log.FieldLogger) *Live {
	return &Live{
		client:         client,
		logger:         logger,
		handlers:       make(map[string]map[int]Handler),
		reconnectDelay: defaultReconnectDelay,
	}
}

// Start launches the event pump. It is safe to call once; Close stops it.
func (l *Live) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx)
}

func (l *Live) Live() bool { return true }

func (l *Live) Invoke(ctx context.Context, command string, args interface{}, out interface{}) error {
	return l.client.Invoke(ctx, command, args, out)
}

func (l *Live) Subscribe(event string, handler Handler) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	if l.handlers[event] == nil {
		l.handlers[event] = make(map[int]Handler)
	}
	l.handlers[event][id] = handler

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.handlers[event], id)
	}
}

func (l *Live) Close() error {
	if l.cancel == nil {
		return nil
	}
	l.cancel()
	<-l.done
	return nil
}

func (l *Live) dispatch(ev sdk.Event) {
	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.handlers[ev.Name]))
	for _, h := range l.handlers[ev.Name] {
		handlers = append(handlers, h)
	}
	l.mu.RUnlock()

	for _, h := range handlers {
		h(ev.Payload)
	}
}

func (l *Live) run(ctx context.Context) {
	defer close(l.done)

	for {
		stream, err := l.client.Events(ctx)
		if err != nil {
			l.logger.Debugf("event stream unavailable: %v", err)
		} else {
			l.pump(ctx, stream)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.reconnectDelay):
		}
	}
}

func (l *Live) pump(ctx context.Context, stream *sdk.EventStream) {
	connDone := make(chan struct{})
	defer close(connDone)

	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-connDone:
			_ = stream.Close()
		}
	}()

	for {
		ev, err := stream.Next()
		if err != nil {
			if ctx.Err() == nil {
				l.logger.Warnf("event stream closed: %v", err)
			}
			return
		}
		l.dispatch(ev)
	}
}

var _ Bridge = (*Live)(nil)
