package session

import (
	"context"
	"fmt"
	"slices"

	"roam/internal/domain"
	"roam/pkg/sdk"
)

// AddServer appends a new config and persists the collection. Paths are not
// required to be unique.
func (s *Store) AddServer(name, path, jarName string, ramGB int) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidServer)
	}
	if ramGB <= 0 {
		return fmt.Errorf("%w: ram must be positive, got %d", ErrInvalidServer, ramGB)
	}

	cfg := domain.ServerConfig{
		Path:    path,
		JarName: jarName,
		MinRAM:  "1G",
		MaxRAM:  fmt.Sprintf("%dG", ramGB),
	}
	if name != "" {
		cfg.Name = &name
	}

	s.mu.Lock()
	s.servers = append(s.servers, cfg)
	err := s.saveLocked()
	s.mu.Unlock()

	s.notify()
	return err
}

// DeleteServer removes the config at index. Deleting the active server ends
// the session and drops everything that belonged to it.
func (s *Store) DeleteServer(index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.servers) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	removed := s.servers[index]
	s.servers = slices.Delete(s.servers, index, index+1)
	if s.active != nil && s.active.Path == removed.Path {
		s.clearSessionLocked()
	}
	err := s.saveLocked()
	s.mu.Unlock()

	s.notify()
	return err
}

// DeleteServerFiles has the backend remove the server directory at index and
// then drops the config. The config stays when the directory could not be
// removed.
func (s *Store) DeleteServerFiles(ctx context.Context, index int) error {
	if !s.bridge.Live() {
		return nil
	}

	s.mu.RLock()
	if index < 0 || index >= len(s.servers) {
		s.mu.RUnlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	path := s.servers[index].Path
	s.mu.RUnlock()

	if err := s.bridge.Invoke(ctx, sdk.CmdDeleteDirectory, sdk.PathArgs{Path: path}, nil); err != nil {
		return s.report(err, "failed to delete server files")
	}

	s.mu.RLock()
	index = slices.IndexFunc(s.servers, func(c domain.ServerConfig) bool { return c.Path == path })
	s.mu.RUnlock()
	if index < 0 {
		return nil
	}
	return s.DeleteServer(index)
}

func (s *Store) clearSessionLocked() {
	s.active = nil
	s.stats = domain.DefaultStats()
	s.properties = domain.ServerProperties{}
	s.players = nil
	s.worlds = nil
	s.logs.Reset()
}

// SelectServer makes the config at index the active session, hands it to the
// backend and pulls its properties. The log starts over with a single marker.
func (s *Store) SelectServer(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.servers) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	cfg := s.servers[index].Clone()
	active := cfg.Clone()
	s.active = &active
	s.properties = domain.ServerProperties{}
	s.players = nil
	s.worlds = nil
	s.logs.Reset("[System] Selected server: " + cfg.DisplayName())
	s.mu.Unlock()
	s.notify()

	if err := s.bridge.Invoke(ctx, sdk.CmdSetServerConfig, sdk.ConfigArgs{Config: cfg}, nil); err != nil {
		return s.report(err, "failed to set server config")
	}
	return s.RefreshProperties(ctx)
}

// ResumeSession restores a previously selected session by path without
// contacting the backend or touching the log. It reports whether a config
// with that path exists.
func (s *Store) ResumeSession(path string) bool {
	s.mu.Lock()
	idx := slices.IndexFunc(s.servers, func(c domain.ServerConfig) bool { return c.Path == path })
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	active := s.servers[idx].Clone()
	s.active = &active
	s.mu.Unlock()

	s.notify()
	return true
}

// UpdateTunnelConfig replaces the active server's tunnel block, rewrites every
// collection entry with the same path and persists. The public address is
// always cleared since only the backend can discover it.
func (s *Store) UpdateTunnelConfig(ctx context.Context, provider domain.TunnelProvider, token string) error {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return nil
	}

	cfg := s.active.Clone()
	cfg.Tunnel = &domain.TunnelConfig{
		Provider:      provider,
		AuthToken:     token,
		PublicAddress: "",
	}
	s.active = &cfg
	for i := range s.servers {
		if s.servers[i].Path == cfg.Path {
			s.servers[i] = cfg.Clone()
		}
	}
	err := s.saveLocked()
	s.mu.Unlock()
	s.notify()

	if err != nil {
		return err
	}
	if !s.bridge.Live() {
		return nil
	}

	err = s.bridge.Invoke(ctx, sdk.CmdSetServerConfig, sdk.ConfigArgs{Config: cfg.Clone()}, nil)
	return s.report(err, "failed to push tunnel config")
}

// SelectJar asks the backend to pick a server jar and returns the config it
// proposes, or nil when nothing was picked.
func (s *Store) SelectJar(ctx context.Context) (*domain.ServerConfig, error) {
	var cfg *domain.ServerConfig
	if err := s.bridge.Invoke(ctx, sdk.CmdSelectJarFile, nil, &cfg); err != nil {
		return nil, s.report(err, "failed to select jar")
	}
	return cfg, nil
}

// IsInitialized reports whether the backend has already run the server at path
// once (eula accepted, world generated).
func (s *Store) IsInitialized(ctx context.Context, path string) (bool, error) {
	var initialized bool
	if err := s.bridge.Invoke(ctx, sdk.CmdIsServerInitialized, sdk.PathArgs{Path: path}, &initialized); err != nil {
		return false, s.report(err, "failed to check server initialization")
	}
	return initialized, nil
}
