package domain

type ServerRepository interface {
	LoadServers() ([]ServerConfig, error)
	SaveServers(servers []ServerConfig) error
}

type SettingRepository interface {
	GetSetting(key string) (string, error)
	SetSetting(key string, value string) error
	DeleteSetting(key string) error
}

type Repository interface {
	ServerRepository
	SettingRepository
}
