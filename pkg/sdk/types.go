package sdk

import (
	"encoding/json"
	"fmt"
)

const (
	CmdGetWorlds           = "get_worlds"
	CmdBackupWorld         = "backup_world"
	CmdGetPlayersData      = "get_players_data"
	CmdSetServerConfig     = "set_server_config"
	CmdSelectJarFile       = "select_jar_file"
	CmdStopServer          = "stop_server"
	CmdStartServer         = "start_server"
	CmdReadProperties      = "read_properties"
	CmdWriteProperties     = "write_properties"
	CmdSendServerCommand   = "send_server_command"
	CmdGetServerStats      = "get_server_stats"
	CmdIsServerInitialized = "is_server_initialized"
	CmdDeleteDirectory     = "delete_directory"
)

const (
	EventServerLog          = "server-log"
	EventPlayerUpdate       = "player-update"
	EventStatusUpdate       = "status-update"
	EventTunnelStatusUpdate = "tunnel-status-update"
)

type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type CommandError struct {
	Command string
	Status  int
	Message string
}

func (e *CommandError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed (%d)", e.Command, e.Status)
}

type PathArgs struct {
	Path string `json:"path"`
}

type BackupArgs struct {
	ServerPath string `json:"serverPath"`
	WorldName  string `json:"worldName"`
}

type ConfigArgs struct {
	Config interface{} `json:"config"`
}

type PropertiesArgs struct {
	Path  string            `json:"path"`
	Props map[string]string `json:"props"`
}

type CommandArgs struct {
	Command string `json:"command"`
}
