package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	defaultConfigName     = "config.json"
	defaultDatabaseFile   = "roam.db"
	defaultDaemonURL      = "http://localhost:23008"
	defaultLogLevel       = "info"
	defaultLogHistory     = 500
	defaultRequestTimeout = 30
)

type Config struct {
	DatabasePath          string `json:"database_path"`
	DaemonURL             string `json:"daemon_url"`
	LogLevel              string `json:"log_level"`
	LogHistory            int    `json:"log_history"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func IsDev() bool {
	return os.Getenv("ROAM_ENV") == "dev"
}

// DefaultDir is the per-user directory holding config.json and the database.
func DefaultDir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	appName := "roam"
	if IsDev() {
		appName = "roam-dev"
	}
	return filepath.Join(userConfigDir, appName), nil
}

// RuntimeMarker reads ROAM_RUNTIME. ok is false when the variable is unset or not a bool.
func RuntimeMarker() (live bool, ok bool) {
	v, set := os.LookupEnv("ROAM_RUNTIME")
	if !set {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func LoadConfig(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, defaultConfigName)

	var cfg *Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg, err = createDefaultConfig(configPath, configDir)
		if err != nil {
			return nil, err
		}
	} else {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		cfg = &Config{}
		if err := json.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg, configDir)

	if url := os.Getenv("ROAM_DAEMON_URL"); url != "" {
		cfg.DaemonURL = url
	}

	return cfg, nil
}

func applyDefaults(cfg *Config, configDir string) {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(configDir, defaultDatabaseFile)
	}
	if cfg.DaemonURL == "" {
		cfg.DaemonURL = defaultDaemonURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogHistory <= 0 {
		cfg.LogHistory = defaultLogHistory
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = defaultRequestTimeout
	}
}

func createDefaultConfig(configPath, configDir string) (*Config, error) {
	cfg := Config{
		DatabasePath:          filepath.Join(configDir, defaultDatabaseFile),
		DaemonURL:             defaultDaemonURL,
		LogLevel:              defaultLogLevel,
		LogHistory:            defaultLogHistory,
		RequestTimeoutSeconds: defaultRequestTimeout,
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return nil, err
	}

	return &cfg, nil
}
