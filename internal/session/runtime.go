package session

import (
	"context"
	"errors"
	"fmt"

	"roam/internal/bridge"
	"roam/internal/domain"
	"roam/pkg/sdk"
)

// ToggleServer stops a running or starting server, otherwise starts the
// active one. Stats are refreshed after any command is issued.
func (s *Store) ToggleServer(ctx context.Context) error {
	if !s.bridge.Live() {
		return nil
	}

	s.mu.Lock()
	status := s.stats.Status
	var command, verb string
	switch {
	case status.Active():
		command, verb = sdk.CmdStopServer, "stop"
	case s.active != nil:
		command, verb = sdk.CmdStartServer, "start"
		s.logs.Reset("[System] Initializing startup...")
	default:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	s.notify()

	err := s.bridge.Invoke(ctx, command, nil, nil)
	if err != nil {
		s.appendLog(fmt.Sprintf("[System] Failed to %s server: %v", verb, err))
		err = s.report(err, "failed to "+verb+" server")
	}

	if statsErr := s.RefreshStats(ctx); err == nil {
		err = statsErr
	}
	return err
}

// TakeOverOrphan reclaims a server process the backend found running without
// an owner: it is stopped first and then started again under management.
func (s *Store) TakeOverOrphan(ctx context.Context) error {
	if !s.bridge.Live() {
		return nil
	}

	s.appendLog("[System] Taking control of orphaned process...")
	if err := s.bridge.Invoke(ctx, sdk.CmdStopServer, nil, nil); err != nil {
		s.appendLog(fmt.Sprintf("[System] Failed to stop server: %v", err))
		return s.report(err, "failed to stop orphaned server")
	}
	statsErr := s.RefreshStats(ctx)
	if err := s.ToggleServer(ctx); statsErr == nil {
		return err
	}
	return statsErr
}

// SendCommand forwards a console command. It does nothing unless the server
// is Running.
func (s *Store) SendCommand(ctx context.Context, text string) error {
	s.mu.RLock()
	running := s.stats.Status == domain.StatusRunning
	s.mu.RUnlock()
	if !running {
		return nil
	}

	err := s.bridge.Invoke(ctx, sdk.CmdSendServerCommand, sdk.CommandArgs{Command: text}, nil)
	if errors.Is(err, bridge.ErrUnavailable) {
		return nil
	}
	if err != nil {
		s.logger.Errorf("command failed: %v", err)
		s.appendLog(fmt.Sprintf("[System] Error: %v", err))
		return fmt.Errorf("command failed: %w", err)
	}

	s.appendLog("[Input] > " + text)
	return nil
}

// BackupWorld archives a world of the active server and returns the file name
// the backend produced.
func (s *Store) BackupWorld(ctx context.Context, world string) (string, error) {
	if !s.bridge.Live() {
		return "", nil
	}
	path, ok := s.activePath()
	if !ok {
		return "", nil
	}

	s.appendLog(fmt.Sprintf("[System] Starting backup for: %s...", world))

	var filename string
	err := s.bridge.Invoke(ctx, sdk.CmdBackupWorld, sdk.BackupArgs{ServerPath: path, WorldName: world}, &filename)
	if err != nil {
		s.logger.Errorf("backup failed: %v", err)
		s.appendLog(fmt.Sprintf("[System] Backup failed: %v", err))
		return "", fmt.Errorf("backup failed: %w", err)
	}

	s.appendLog("[System] Backup successful: " + filename)
	return filename, nil
}

func (s *Store) RefreshWorlds(ctx context.Context) error {
	path, ok := s.activePath()
	if !ok {
		return nil
	}

	var worlds []domain.WorldInfo
	if err := s.bridge.Invoke(ctx, sdk.CmdGetWorlds, sdk.PathArgs{Path: path}, &worlds); err != nil {
		return s.report(err, "failed to fetch world data")
	}

	s.mu.Lock()
	if s.stillActiveLocked(path) {
		s.worlds = worlds
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) RefreshPlayers(ctx context.Context) error {
	path, ok := s.activePath()
	if !ok {
		return nil
	}

	var players []domain.PlayerInfo
	if err := s.bridge.Invoke(ctx, sdk.CmdGetPlayersData, sdk.PathArgs{Path: path}, &players); err != nil {
		return s.report(err, "failed to fetch player data")
	}

	s.mu.Lock()
	if s.stillActiveLocked(path) {
		s.players = players
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) RefreshProperties(ctx context.Context) error {
	path, ok := s.activePath()
	if !ok {
		return nil
	}

	var props domain.ServerProperties
	if err := s.bridge.Invoke(ctx, sdk.CmdReadProperties, sdk.PathArgs{Path: path}, &props); err != nil {
		return s.report(err, "failed to read properties")
	}
	if props == nil {
		props = domain.ServerProperties{}
	}

	s.mu.Lock()
	if s.stillActiveLocked(path) {
		s.properties = props
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// RefreshStats overwrites the cached stats with the backend's snapshot.
func (s *Store) RefreshStats(ctx context.Context) error {
	var stats domain.ServerStats
	if err := s.bridge.Invoke(ctx, sdk.CmdGetServerStats, nil, &stats); err != nil {
		return s.report(err, "failed to fetch server stats")
	}
	if stats.Status == "" {
		stats.Status = domain.StatusOffline
	}
	if stats.TunnelStatus == "" {
		stats.TunnelStatus = domain.TunnelOffline
	}

	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	s.notify()
	return nil
}

// SaveProperties writes props to the active server and caches them once the
// backend accepted the write.
func (s *Store) SaveProperties(ctx context.Context, props domain.ServerProperties) error {
	path, ok := s.activePath()
	if !ok {
		return nil
	}

	props = props.Clone()
	if err := s.bridge.Invoke(ctx, sdk.CmdWriteProperties, sdk.PropertiesArgs{Path: path, Props: props}, nil); err != nil {
		return s.report(err, "failed to write properties")
	}

	s.mu.Lock()
	if s.stillActiveLocked(path) {
		s.properties = props.Clone()
	}
	s.mu.Unlock()
	s.notify()
	return nil
}
