package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"roam/internal/bridge"
	"roam/internal/domain"
	"roam/internal/storage"
	"roam/pkg/sdk"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	command string
	args    interface{}
}

type fakeBridge struct {
	mu       sync.Mutex
	live     bool
	calls    []call
	results  map[string]interface{}
	failures map[string]error
	handlers map[string]bridge.Handler
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		live:     true,
		results:  make(map[string]interface{}),
		failures: make(map[string]error),
		handlers: make(map[string]bridge.Handler),
	}
}

func (f *fakeBridge) Live() bool { return f.live }

func (f *fakeBridge) Invoke(ctx context.Context, command string, args interface{}, out interface{}) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{command: command, args: args})
	result, hasResult := f.results[command]
	err := f.failures[command]
	f.mu.Unlock()

	if !f.live {
		return bridge.ErrUnavailable
	}
	if err != nil {
		return err
	}
	if hasResult && out != nil {
		data, _ := json.Marshal(result)
		return json.Unmarshal(data, out)
	}
	return nil
}

func (f *fakeBridge) Subscribe(event string, handler bridge.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, event)
	}
}

func (f *fakeBridge) Close() error { return nil }

func (f *fakeBridge) emit(event string, payload string) {
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h != nil {
		h(json.RawMessage(payload))
	}
}

func (f *fakeBridge) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.command)
	}
	return out
}

func (f *fakeBridge) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

type memRepo struct {
	servers []domain.ServerConfig
	saves   int
	failErr error
	loadErr error
}

func (r *memRepo) LoadServers() ([]domain.ServerConfig, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.servers == nil {
		return []domain.ServerConfig{}, nil
	}
	return r.servers, nil
}

func (r *memRepo) SaveServers(servers []domain.ServerConfig) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.saves++
	r.servers = servers
	return nil
}

func newTestStore(t *testing.T, b bridge.Bridge, repo domain.ServerRepository) (*Store, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	s := New(b, repo, WithLogger(logger))
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Close() })
	return s, hook
}

func named(name, path string) domain.ServerConfig {
	return domain.ServerConfig{Name: &name, Path: path, JarName: "server.jar", MinRAM: "1G", MaxRAM: "2G"}
}

func TestAddServerPersistsAndReloads(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "roam.db")
	gs, err := storage.NewGormStore(dbPath)
	require.NoError(t, err)
	defer gs.Close()

	s, _ := newTestStore(t, bridge.Null{}, gs)
	require.NoError(t, s.AddServer("Survival", "/srv/a", "paper.jar", 4))
	require.NoError(t, s.AddServer("", "/srv/b", "server.jar", 2))
	require.NoError(t, s.AddServer("Dup", "/srv/a", "server.jar", 1))

	servers := s.Servers()
	require.Len(t, servers, 3)
	assert.Equal(t, "1G", servers[0].MinRAM)
	assert.Equal(t, "4G", servers[0].MaxRAM)
	assert.Nil(t, servers[1].Name)

	reloaded, _ := newTestStore(t, bridge.Null{}, gs)
	assert.Equal(t, servers, reloaded.Servers())
}

func TestAddServerValidates(t *testing.T) {
	repo := &memRepo{}
	s, _ := newTestStore(t, newFakeBridge(), repo)

	assert.ErrorIs(t, s.AddServer("x", "", "server.jar", 2), ErrInvalidServer)
	assert.ErrorIs(t, s.AddServer("x", "/srv/x", "server.jar", 0), ErrInvalidServer)
	assert.Zero(t, repo.saves)
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	repo := &memRepo{failErr: errors.New("disk full")}
	s, hook := newTestStore(t, newFakeBridge(), repo)

	err := s.AddServer("A", "/a", "server.jar", 2)
	require.Error(t, err)
	assert.Len(t, s.Servers(), 1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
}

func TestSelectThenDeleteClearsSession(t *testing.T) {
	b := newFakeBridge()
	b.results[sdk.CmdReadProperties] = map[string]string{"motd": "hi"}
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)

	require.NoError(t, s.SelectServer(context.Background(), 0))
	assert.Equal(t, []string{"[System] Selected server: A"}, s.Logs())
	assert.Equal(t, domain.ServerProperties{"motd": "hi"}, s.Properties())
	assert.Equal(t, []string{sdk.CmdSetServerConfig, sdk.CmdReadProperties}, b.commands())

	require.NoError(t, s.DeleteServer(0))
	assert.Nil(t, s.Active())
	assert.Empty(t, s.Logs())
	assert.Empty(t, s.Properties())
	assert.Equal(t, domain.StatusOffline, s.Stats().Status)
	assert.Empty(t, s.Servers())
	assert.NotNil(t, repo.servers)
	assert.Empty(t, repo.servers)
}

func TestDeleteOtherServerKeepsSession(t *testing.T) {
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a"), named("B", "/b")}}
	s, _ := newTestStore(t, newFakeBridge(), repo)

	require.NoError(t, s.SelectServer(context.Background(), 0))
	require.NoError(t, s.DeleteServer(1))

	require.NotNil(t, s.Active())
	assert.Equal(t, "/a", s.Active().Path)
	assert.Equal(t, []string{"[System] Selected server: A"}, s.Logs())
}

func TestIndexOutOfRange(t *testing.T) {
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, newFakeBridge(), repo)

	assert.ErrorIs(t, s.DeleteServer(1), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.DeleteServer(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SelectServer(context.Background(), 5), ErrIndexOutOfRange)
	assert.Len(t, s.Servers(), 1)
	assert.Zero(t, repo.saves)
}

func TestToggleStartsWhenOffline(t *testing.T) {
	b := newFakeBridge()
	b.results[sdk.CmdGetServerStats] = domain.ServerStats{Status: domain.StatusStarting, CoreCount: 8}
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))
	b.reset()

	require.NoError(t, s.ToggleServer(context.Background()))
	assert.Equal(t, []string{sdk.CmdStartServer, sdk.CmdGetServerStats}, b.commands())
	assert.Equal(t, []string{"[System] Initializing startup..."}, s.Logs())
	assert.Equal(t, domain.StatusStarting, s.Stats().Status)
	assert.Equal(t, domain.TunnelOffline, s.Stats().TunnelStatus)
}

func TestToggleStopsWhenRunning(t *testing.T) {
	b := newFakeBridge()
	s, _ := newTestStore(t, b, &memRepo{})
	b.emit(sdk.EventStatusUpdate, `"Running"`)

	require.NoError(t, s.ToggleServer(context.Background()))
	assert.Equal(t, []string{sdk.CmdStopServer, sdk.CmdGetServerStats}, b.commands())
}

func TestToggleWithoutSessionIsNoop(t *testing.T) {
	b := newFakeBridge()
	s, _ := newTestStore(t, b, &memRepo{})

	require.NoError(t, s.ToggleServer(context.Background()))
	assert.Empty(t, b.commands())
}

func TestToggleFailureIsLoggedAndReturned(t *testing.T) {
	b := newFakeBridge()
	b.failures[sdk.CmdStartServer] = errors.New("jar missing")
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, hook := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))
	b.reset()

	err := s.ToggleServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jar missing")
	assert.Equal(t, []string{sdk.CmdStartServer, sdk.CmdGetServerStats}, b.commands())
	assert.Equal(t, "[System] Failed to start server: jar missing", s.Logs()[len(s.Logs())-1])
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
}

func TestTakeOverOrphan(t *testing.T) {
	b := newFakeBridge()
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))
	b.reset()

	require.NoError(t, s.TakeOverOrphan(context.Background()))
	assert.Equal(t, []string{
		sdk.CmdStopServer,
		sdk.CmdGetServerStats,
		sdk.CmdStartServer,
		sdk.CmdGetServerStats,
	}, b.commands())
}

func TestTakeOverOrphanRestartsAfterStatsFailure(t *testing.T) {
	b := newFakeBridge()
	b.failures[sdk.CmdGetServerStats] = errors.New("timeout")
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))
	b.reset()

	err := s.TakeOverOrphan(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, []string{
		sdk.CmdStopServer,
		sdk.CmdGetServerStats,
		sdk.CmdStartServer,
		sdk.CmdGetServerStats,
	}, b.commands())
}

func TestSendCommandRequiresRunning(t *testing.T) {
	b := newFakeBridge()
	s, _ := newTestStore(t, b, &memRepo{})

	for _, status := range []string{"Offline", "Starting", "Stopping"} {
		b.emit(sdk.EventStatusUpdate, fmt.Sprintf("%q", status))
		require.NoError(t, s.SendCommand(context.Background(), "say hi"))
	}
	assert.Empty(t, b.commands())
	assert.Empty(t, s.Logs())
}

func TestSendCommandEchoesInput(t *testing.T) {
	b := newFakeBridge()
	s, _ := newTestStore(t, b, &memRepo{})
	b.emit(sdk.EventStatusUpdate, `"Running"`)

	require.NoError(t, s.SendCommand(context.Background(), "say hi"))
	assert.Equal(t, []string{"[Input] > say hi"}, s.Logs())
	require.Len(t, b.calls, 1)
	assert.Equal(t, sdk.CommandArgs{Command: "say hi"}, b.calls[0].args)
}

func TestSendCommandFailure(t *testing.T) {
	b := newFakeBridge()
	b.failures[sdk.CmdSendServerCommand] = errors.New("stdin closed")
	s, _ := newTestStore(t, b, &memRepo{})
	b.emit(sdk.EventStatusUpdate, `"Running"`)

	assert.Error(t, s.SendCommand(context.Background(), "stop"))
	assert.Equal(t, []string{"[System] Error: stdin closed"}, s.Logs())
}

func TestBackupWorld(t *testing.T) {
	b := newFakeBridge()
	b.results[sdk.CmdBackupWorld] = "world_2026.zip"
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))

	filename, err := s.BackupWorld(context.Background(), "world")
	require.NoError(t, err)
	assert.Equal(t, "world_2026.zip", filename)
	assert.Equal(t, []string{
		"[System] Selected server: A",
		"[System] Starting backup for: world...",
		"[System] Backup successful: world_2026.zip",
	}, s.Logs())

	b.failures[sdk.CmdBackupWorld] = errors.New("world not found")
	_, err = s.BackupWorld(context.Background(), "nether")
	require.Error(t, err)
	assert.Equal(t, "[System] Backup failed: world not found", s.Logs()[len(s.Logs())-1])
}

func TestRefreshKeepsStaleValueOnError(t *testing.T) {
	b := newFakeBridge()
	b.results[sdk.CmdGetWorlds] = []domain.WorldInfo{{Name: "world", SizeMB: 12.5}}
	b.results[sdk.CmdGetPlayersData] = []domain.PlayerInfo{{UUID: "u1", Name: "Steve"}}
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, hook := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))

	require.NoError(t, s.RefreshWorlds(context.Background()))
	require.NoError(t, s.RefreshPlayers(context.Background()))
	logsBefore := s.Logs()

	b.failures[sdk.CmdGetWorlds] = errors.New("io error")
	b.failures[sdk.CmdGetPlayersData] = errors.New("io error")
	assert.Error(t, s.RefreshWorlds(context.Background()))
	assert.Error(t, s.RefreshPlayers(context.Background()))

	assert.Equal(t, []domain.WorldInfo{{Name: "world", SizeMB: 12.5}}, s.Worlds())
	assert.Equal(t, []domain.PlayerInfo{{UUID: "u1", Name: "Steve"}}, s.Players())
	assert.Equal(t, logsBefore, s.Logs())
	assert.Len(t, hook.AllEntries(), 2)
}

func TestSaveProperties(t *testing.T) {
	b := newFakeBridge()
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))

	props := domain.ServerProperties{"max-players": "10"}
	require.NoError(t, s.SaveProperties(context.Background(), props))
	props["max-players"] = "99"
	assert.Equal(t, domain.ServerProperties{"max-players": "10"}, s.Properties())

	b.failures[sdk.CmdWriteProperties] = errors.New("read-only")
	assert.Error(t, s.SaveProperties(context.Background(), domain.ServerProperties{"pvp": "false"}))
	assert.Equal(t, domain.ServerProperties{"max-players": "10"}, s.Properties())
}

func TestUpdateTunnelConfig(t *testing.T) {
	b := newFakeBridge()
	a := named("A", "/a")
	a.Tunnel = &domain.TunnelConfig{Provider: domain.ProviderNgrok, AuthToken: "old", PublicAddress: "x.ngrok.io"}
	other := named("B", "/b")
	repo := &memRepo{servers: []domain.ServerConfig{a, other}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))
	b.reset()

	require.NoError(t, s.UpdateTunnelConfig(context.Background(), domain.ProviderPlayit, "tok123"))

	want := &domain.TunnelConfig{Provider: domain.ProviderPlayit, AuthToken: "tok123", PublicAddress: ""}
	require.Len(t, repo.servers, 2)
	assert.Equal(t, want, repo.servers[0].Tunnel)
	assert.Equal(t, other, repo.servers[1])
	assert.Equal(t, want, s.Active().Tunnel)
	assert.Equal(t, []string{sdk.CmdSetServerConfig}, b.commands())
}

func TestUpdateTunnelConfigOffline(t *testing.T) {
	b := newFakeBridge()
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 0))
	b.live = false
	b.reset()

	require.NoError(t, s.UpdateTunnelConfig(context.Background(), domain.ProviderPlayit, "tok"))
	assert.Empty(t, b.commands())
	assert.Equal(t, domain.ProviderPlayit, repo.servers[0].Tunnel.Provider)
}

func TestDegradedModeIsSilent(t *testing.T) {
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, hook := newTestStore(t, bridge.Null{}, repo)
	ctx := context.Background()

	require.NoError(t, s.SelectServer(ctx, 0))
	require.NoError(t, s.ToggleServer(ctx))
	require.NoError(t, s.TakeOverOrphan(ctx))
	require.NoError(t, s.RefreshStats(ctx))
	require.NoError(t, s.RefreshWorlds(ctx))
	require.NoError(t, s.UpdateTunnelConfig(ctx, domain.ProviderNgrok, "t"))
	name, err := s.BackupWorld(ctx, "world")
	require.NoError(t, err)
	assert.Empty(t, name)
	jar, err := s.SelectJar(ctx)
	require.NoError(t, err)
	assert.Nil(t, jar)

	assert.False(t, s.Snapshot().Live)
	assert.Equal(t, []string{"[System] Selected server: A"}, s.Logs())
	assert.Empty(t, hook.AllEntries())
}

func TestEventsUpdateState(t *testing.T) {
	b := newFakeBridge()
	s, hook := newTestStore(t, b, &memRepo{})

	changes := 0
	stop := s.OnChange(func() { changes++ })

	b.emit(sdk.EventServerLog, `"[Server] Done"`)
	b.emit(sdk.EventPlayerUpdate, `3`)
	b.emit(sdk.EventStatusUpdate, `"Running"`)
	b.emit(sdk.EventTunnelStatusUpdate, `"Online"`)
	b.emit(sdk.EventPlayerUpdate, `"three"`)

	stats := s.Stats()
	assert.Equal(t, []string{"[Server] Done"}, s.Logs())
	assert.Equal(t, 3, stats.PlayerCount)
	assert.Equal(t, domain.StatusRunning, stats.Status)
	assert.Equal(t, domain.TunnelOnline, stats.TunnelStatus)
	assert.Equal(t, 4, changes)
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)

	stop()
	b.emit(sdk.EventServerLog, `"after"`)
	assert.Equal(t, 4, changes)
}

func TestCloseUnsubscribes(t *testing.T) {
	b := newFakeBridge()
	logger, _ := test.NewNullLogger()
	s := New(b, &memRepo{}, WithLogger(logger))
	require.NoError(t, s.Start())
	assert.Len(t, b.handlers, 4)

	require.NoError(t, s.Close())
	assert.Empty(t, b.handlers)
}

func TestLogCapacityOption(t *testing.T) {
	b := newFakeBridge()
	logger, _ := test.NewNullLogger()
	s := New(b, &memRepo{}, WithLogger(logger), WithLogCapacity(3))
	require.NoError(t, s.Start())
	defer s.Close()

	for i := 0; i < 5; i++ {
		b.emit(sdk.EventServerLog, fmt.Sprintf("%q", fmt.Sprint(i)))
	}
	assert.Equal(t, []string{"2", "3", "4"}, s.Logs())
}

func TestResumeSession(t *testing.T) {
	b := newFakeBridge()
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a"), named("B", "/b")}}
	s, _ := newTestStore(t, b, repo)

	assert.False(t, s.ResumeSession("/missing"))
	assert.True(t, s.ResumeSession("/b"))
	assert.Equal(t, "/b", s.Active().Path)
	assert.Empty(t, b.commands())
}

func TestIsInitialized(t *testing.T) {
	b := newFakeBridge()
	b.results[sdk.CmdIsServerInitialized] = true
	s, _ := newTestStore(t, b, &memRepo{})

	ok, err := s.IsInitialized(context.Background(), "/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sdk.PathArgs{Path: "/a"}, b.calls[0].args)

	b.failures[sdk.CmdIsServerInitialized] = errors.New("no such directory")
	_, err = s.IsInitialized(context.Background(), "/missing")
	assert.Error(t, err)
}

func TestCorruptServerListStartsEmpty(t *testing.T) {
	repo := &memRepo{loadErr: errors.New("error decoding mc_servers: invalid character")}
	logger, hook := test.NewNullLogger()
	s := New(newFakeBridge(), repo, WithLogger(logger))
	require.NoError(t, s.Start())
	defer s.Close()

	assert.NotNil(t, s.Servers())
	assert.Empty(t, s.Servers())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)

	repo.loadErr = nil
	require.NoError(t, s.AddServer("A", "/a", "server.jar", 2))
	assert.Len(t, repo.servers, 1)
}

func TestUnknownStatusValuesAreDropped(t *testing.T) {
	b := newFakeBridge()
	s, hook := newTestStore(t, b, &memRepo{})
	b.emit(sdk.EventStatusUpdate, `"Running"`)
	b.emit(sdk.EventTunnelStatusUpdate, `"Online"`)

	b.emit(sdk.EventStatusUpdate, `"Crashed"`)
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	b.emit(sdk.EventTunnelStatusUpdate, `"Flaky"`)

	stats := s.Stats()
	assert.Equal(t, domain.StatusRunning, stats.Status)
	assert.Equal(t, domain.TunnelOnline, stats.TunnelStatus)
	assert.Len(t, hook.AllEntries(), 2)
}

func TestDeleteServerFiles(t *testing.T) {
	b := newFakeBridge()
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a"), named("B", "/b")}}
	s, _ := newTestStore(t, b, repo)
	require.NoError(t, s.SelectServer(context.Background(), 1))
	b.reset()

	require.NoError(t, s.DeleteServerFiles(context.Background(), 1))
	assert.Equal(t, []string{sdk.CmdDeleteDirectory}, b.commands())
	assert.Equal(t, sdk.PathArgs{Path: "/b"}, b.calls[0].args)
	assert.Nil(t, s.Active())
	require.Len(t, repo.servers, 1)
	assert.Equal(t, "/a", repo.servers[0].Path)

	assert.ErrorIs(t, s.DeleteServerFiles(context.Background(), 3), ErrIndexOutOfRange)
}

func TestDeleteServerFilesFailureKeepsConfig(t *testing.T) {
	b := newFakeBridge()
	b.failures[sdk.CmdDeleteDirectory] = errors.New("permission denied")
	repo := &memRepo{servers: []domain.ServerConfig{named("A", "/a")}}
	s, _ := newTestStore(t, b, repo)

	err := s.DeleteServerFiles(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Len(t, s.Servers(), 1)
	assert.Zero(t, repo.saves)

	b.live = false
	b.reset()
	require.NoError(t, s.DeleteServerFiles(context.Background(), 0))
	assert.Empty(t, b.commands())
	assert.Len(t, s.Servers(), 1)
}
