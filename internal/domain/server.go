package domain

type ServerStatus string

const (
	StatusOffline  ServerStatus = "Offline"
	StatusStarting ServerStatus = "Starting"
	StatusRunning  ServerStatus = "Running"
	StatusStopping ServerStatus = "Stopping"
)

// Active reports whether a stop command is the meaningful next action.
func (s ServerStatus) Active() bool {
	return s == StatusRunning || s == StatusStarting
}

func (s ServerStatus) Valid() bool {
	switch s {
	case StatusOffline, StatusStarting, StatusRunning, StatusStopping:
		return true
	}
	return false
}

type TunnelStatus string

const (
	TunnelOffline    TunnelStatus = "Offline"
	TunnelConnecting TunnelStatus = "Connecting"
	TunnelOnline     TunnelStatus = "Online"
	TunnelError      TunnelStatus = "Error"
)

func (s TunnelStatus) Valid() bool {
	switch s {
	case TunnelOffline, TunnelConnecting, TunnelOnline, TunnelError:
		return true
	}
	return false
}

type TunnelProvider string

const (
	ProviderNone   TunnelProvider = "none"
	ProviderPlayit TunnelProvider = "playit"
	ProviderNgrok  TunnelProvider = "ngrok"
)

func ParseTunnelProvider(s string) (TunnelProvider, bool) {
	switch TunnelProvider(s) {
	case ProviderNone, ProviderPlayit, ProviderNgrok:
		return TunnelProvider(s), true
	}
	return "", false
}

type TunnelConfig struct {
	Provider      TunnelProvider `json:"provider"`
	AuthToken     string         `json:"auth_token,omitempty"`
	PublicAddress string         `json:"public_address"`
}

// ServerConfig identifies a server installation. Path is the de-facto key.
type ServerConfig struct {
	Name    *string       `json:"name,omitempty"`
	Path    string        `json:"path"`
	JarName string        `json:"jar_name"`
	MinRAM  string        `json:"min_ram"`
	MaxRAM  string        `json:"max_ram"`
	Tunnel  *TunnelConfig `json:"tunnel,omitempty"`
}

// DisplayName falls back to the path when the config is unnamed.
func (c ServerConfig) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return c.Path
}

// Clone returns a deep copy so callers never share the name or tunnel pointers.
func (c ServerConfig) Clone() ServerConfig {
	out := c
	if c.Name != nil {
		name := *c.Name
		out.Name = &name
	}
	if c.Tunnel != nil {
		t := *c.Tunnel
		out.Tunnel = &t
	}
	return out
}

type ServerStats struct {
	CPU          float64      `json:"cpu"`
	CoreCount    int          `json:"core_count"`
	Memory       uint64       `json:"memory"`
	Status       ServerStatus `json:"status"`
	PlayerCount  int          `json:"player_count"`
	TunnelStatus TunnelStatus `json:"tunnel_status"`
}

func DefaultStats() ServerStats {
	return ServerStats{
		CoreCount:    1,
		Status:       StatusOffline,
		TunnelStatus: TunnelOffline,
	}
}

type ServerProperties map[string]string

func (p ServerProperties) Clone() ServerProperties {
	out := make(ServerProperties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

type PlayerInfo struct {
	UUID       string  `json:"uuid"`
	Name       string  `json:"name"`
	TimePlayed float64 `json:"time_played"`
	Steps      uint64  `json:"steps"`
}

type WorldInfo struct {
	Name         string  `json:"name"`
	SizeMB       float64 `json:"size_mb"`
	LastModified string  `json:"last_modified"`
}
