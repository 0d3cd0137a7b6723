package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"roam/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	// ServersKey holds the JSON-serialised server collection.
	ServersKey = "mc_servers"
	// ActiveServerKey remembers the selected server path between CLI runs.
	ActiveServerKey = "active_server_path"
)

var ErrSettingNotFound = errors.New("setting not found")

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(path string) (*GormStore, error) {
	newLogger := gormlogger.New(
		log.New(os.Stderr, "", log.LstdFlags),
		gormlogger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Error,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) GetSetting(key string) (string, error) {
	var setting Setting
	result := s.db.First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStore) SetSetting(key string, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

func (s *GormStore) DeleteSetting(key string) error {
	return s.db.Delete(&Setting{}, "key = ?", key).Error
}

// LoadServers returns an empty collection when nothing has been saved yet.
func (s *GormStore) LoadServers() ([]domain.ServerConfig, error) {
	raw, err := s.GetSetting(ServersKey)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return []domain.ServerConfig{}, nil
		}
		return nil, err
	}

	servers := []domain.ServerConfig{}
	if err := json.Unmarshal([]byte(raw), &servers); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", ServersKey, err)
	}
	return servers, nil
}

func (s *GormStore) SaveServers(servers []domain.ServerConfig) error {
	if servers == nil {
		servers = []domain.ServerConfig{}
	}
	data, err := json.Marshal(servers)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", ServersKey, err)
	}
	return s.SetSetting(ServersKey, string(data))
}

var _ domain.Repository = (*GormStore)(nil)
