package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"roam/internal/bridge"
	"roam/internal/config"
	"roam/internal/session"
	"roam/internal/storage"

	log "github.com/sirupsen/logrus"
)

type Container struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   *storage.GormStore
	Bridge  bridge.Bridge
	Session *session.Store
}

type Options struct {
	ConfigDir string
	DaemonURL string
}

// New loads the configuration, opens the database, probes for the backend
// and starts the session store on top of whatever bridge was found.
func New(ctx context.Context, opts Options) (*Container, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("error getting user config directory: %w", err)
		}
		configDir = dir
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if opts.DaemonURL != "" {
		cfg.DaemonURL = opts.DaemonURL
	}

	logger := NewLogger(cfg)
	logger.Debugf("using database: %s", cfg.DatabasePath)

	store, err := storage.NewGormStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	b := bridge.Detect(ctx, cfg, logger)
	sess := session.New(b, store,
		session.WithLogger(logger),
		session.WithLogCapacity(cfg.LogHistory),
	)
	if err := sess.Start(); err != nil {
		_ = b.Close()
		_ = store.Close()
		return nil, err
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Bridge:  b,
		Session: sess,
	}, nil
}

func NewLogger(cfg *config.Config) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: !config.IsDev()})

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	if config.IsDev() {
		level = log.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}

// ResumeSelection reactivates the server chosen by a previous run.
func (c *Container) ResumeSelection() bool {
	path, err := c.Store.GetSetting(storage.ActiveServerKey)
	if err != nil {
		if !errors.Is(err, storage.ErrSettingNotFound) {
			c.Logger.Warnf("could not read active server: %v", err)
		}
		return false
	}
	if !c.Session.ResumeSession(path) {
		_ = c.Store.DeleteSetting(storage.ActiveServerKey)
		return false
	}
	return true
}

// RememberSelection stores the active server for the next run, or forgets it
// when nothing is selected.
func (c *Container) RememberSelection() error {
	active := c.Session.Active()
	if active == nil {
		return c.Store.DeleteSetting(storage.ActiveServerKey)
	}
	return c.Store.SetSetting(storage.ActiveServerKey, active.Path)
}

func (c *Container) Close() error {
	var errs []error
	if err := c.Session.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Bridge.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
