package session

import "roam/internal/domain"

// Snapshot is a consistent copy of the store taken under a single lock.
type Snapshot struct {
	Live       bool
	Servers    []domain.ServerConfig
	Active     *domain.ServerConfig
	Stats      domain.ServerStats
	Properties domain.ServerProperties
	Players    []domain.PlayerInfo
	Worlds     []domain.WorldInfo
	Logs       []string
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Live:       s.bridge.Live(),
		Servers:    cloneConfigs(s.servers),
		Active:     s.activeLocked(),
		Stats:      s.stats,
		Properties: s.properties.Clone(),
		Players:    append([]domain.PlayerInfo(nil), s.players...),
		Worlds:     append([]domain.WorldInfo(nil), s.worlds...),
		Logs:       s.logs.Snapshot(),
	}
}

func (s *Store) Servers() []domain.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfigs(s.servers)
}

// Active returns a copy of the selected config, or nil.
func (s *Store) Active() *domain.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

func (s *Store) activeLocked() *domain.ServerConfig {
	if s.active == nil {
		return nil
	}
	cfg := s.active.Clone()
	return &cfg
}

func (s *Store) Stats() domain.ServerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Store) Properties() domain.ServerProperties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.properties.Clone()
}

func (s *Store) Players() []domain.PlayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PlayerInfo(nil), s.players...)
}

func (s *Store) Worlds() []domain.WorldInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.WorldInfo(nil), s.worlds...)
}

func (s *Store) Logs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs.Snapshot()
}
