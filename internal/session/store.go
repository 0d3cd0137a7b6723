// Package session holds the client-visible state of the managed servers: the
// configured collection, the selected server, its live stats and a bounded log.
//
// State only changes through the operations below or through backend events;
// nothing about a server's lifecycle is computed locally. Every failure is
// reported where the user expects it (the log buffer, the console logger or
// both) and is also returned to the caller. A Null bridge turns backend calls
// into silent no-ops so the collection can still be managed offline.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"roam/internal/bridge"
	"roam/internal/domain"
	"roam/pkg/sdk"

	log "github.com/sirupsen/logrus"
)

const DefaultLogCapacity = 500

var (
	ErrIndexOutOfRange = errors.New("server index out of range")
	ErrInvalidServer   = errors.New("invalid server")
)

type Option func(*Store)

func WithLogger(logger log.FieldLogger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithLogCapacity(n int) Option {
	return func(s *Store) { s.logs = NewLogBuffer(n) }
}

type Store struct {
	bridge bridge.Bridge
	repo   domain.ServerRepository
	logger log.FieldLogger

	mu         sync.RWMutex
	servers    []domain.ServerConfig
	active     *domain.ServerConfig
	stats      domain.ServerStats
	players    []domain.PlayerInfo
	worlds     []domain.WorldInfo
	properties domain.ServerProperties
	logs       *LogBuffer

	started     bool
	unsubscribe []func()

	listenersMu  sync.Mutex
	listeners    map[int]func()
	nextListener int
}

func New(b bridge.Bridge, repo domain.ServerRepository, opts ...Option) *Store {
	if b == nil {
		b = bridge.Null{}
	}
	s := &Store{
		bridge:     b,
		repo:       repo,
		logger:     log.StandardLogger(),
		servers:    []domain.ServerConfig{},
		stats:      domain.DefaultStats(),
		properties: domain.ServerProperties{},
		logs:       NewLogBuffer(DefaultLogCapacity),
		listeners:  make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the persisted collection and subscribes to backend events.
// Subscriptions live until Close. Calling Start twice is a no-op.
func (s *Store) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	unsubscribe := []func(){
		s.bridge.Subscribe(sdk.EventServerLog, s.onServerLog),
		s.bridge.Subscribe(sdk.EventPlayerUpdate, s.onPlayerUpdate),
		s.bridge.Subscribe(sdk.EventStatusUpdate, s.onStatusUpdate),
		s.bridge.Subscribe(sdk.EventTunnelStatusUpdate, s.onTunnelStatusUpdate),
	}
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	return s.loadServers()
}

func (s *Store) Close() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	return nil
}

// Live reports whether backend operations reach a managed runtime.
func (s *Store) Live() bool {
	return s.bridge.Live()
}

// OnChange registers fn to run after every state change. fn runs without
// the store lock held and may read the store.
func (s *Store) OnChange(fn func()) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// loadServers replaces the collection with the persisted one. An unreadable
// record leaves the collection empty so the user can rebuild it.
func (s *Store) loadServers() error {
	servers, err := s.repo.LoadServers()
	if err != nil {
		s.logger.Errorf("failed to load servers: %v", err)
		servers = []domain.ServerConfig{}
	}
	if servers == nil {
		servers = []domain.ServerConfig{}
	}

	s.mu.Lock()
	s.servers = servers
	s.mu.Unlock()
	s.notify()
	return nil
}

// saveLocked writes a detached copy of the collection. Caller holds s.mu.
func (s *Store) saveLocked() error {
	snapshot := cloneConfigs(s.servers)
	if err := s.repo.SaveServers(snapshot); err != nil {
		s.logger.Errorf("failed to save servers: %v", err)
		return fmt.Errorf("failed to save servers: %w", err)
	}
	return nil
}

// report logs a backend failure to the console and wraps it for the caller.
// Calls made without a managed runtime are not failures.
func (s *Store) report(err error, msg string) error {
	if err == nil || errors.Is(err, bridge.ErrUnavailable) {
		return nil
	}
	s.logger.Errorf("%s: %v", msg, err)
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *Store) appendLog(line string) {
	s.mu.Lock()
	s.logs.Append(line)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) activePath() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return "", false
	}
	return s.active.Path, true
}

// stillActiveLocked guards pull results that arrive after the selection moved on.
func (s *Store) stillActiveLocked(path string) bool {
	return s.active != nil && s.active.Path == path
}

func (s *Store) onServerLog(payload json.RawMessage) {
	var line string
	if err := json.Unmarshal(payload, &line); err != nil {
		s.logger.Warnf("malformed %s payload: %v", sdk.EventServerLog, err)
		return
	}
	s.appendLog(line)
}

func (s *Store) onPlayerUpdate(payload json.RawMessage) {
	var count int
	if err := json.Unmarshal(payload, &count); err != nil {
		s.logger.Warnf("malformed %s payload: %v", sdk.EventPlayerUpdate, err)
		return
	}
	s.mu.Lock()
	s.stats.PlayerCount = count
	s.mu.Unlock()
	s.notify()
}

func (s *Store) onStatusUpdate(payload json.RawMessage) {
	var status domain.ServerStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		s.logger.Warnf("malformed %s payload: %v", sdk.EventStatusUpdate, err)
		return
	}
	if !status.Valid() {
		s.logger.Warnf("unknown %s value %q", sdk.EventStatusUpdate, status)
		return
	}
	s.mu.Lock()
	s.stats.Status = status
	s.mu.Unlock()
	s.notify()
}

func (s *Store) onTunnelStatusUpdate(payload json.RawMessage) {
	var status domain.TunnelStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		s.logger.Warnf("malformed %s payload: %v", sdk.EventTunnelStatusUpdate, err)
		return
	}
	if !status.Valid() {
		s.logger.Warnf("unknown %s value %q", sdk.EventTunnelStatusUpdate, status)
		return
	}
	s.mu.Lock()
	s.stats.TunnelStatus = status
	s.mu.Unlock()
	s.notify()
}

func cloneConfigs(in []domain.ServerConfig) []domain.ServerConfig {
	out := make([]domain.ServerConfig, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
