package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("ROAM_DAEMON_URL", "")

	cfg, err := LoadConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "config.json")); os.IsNotExist(err) {
		t.Error("config.json was not created")
	}
	if cfg.DaemonURL != "http://localhost:23008" {
		t.Errorf("Expected default daemon URL, got %s", cfg.DaemonURL)
	}
	if cfg.LogHistory != 500 {
		t.Errorf("Expected log history 500, got %d", cfg.LogHistory)
	}
	if cfg.DatabasePath != filepath.Join(tempDir, "roam.db") {
		t.Errorf("Unexpected database path %s", cfg.DatabasePath)
	}
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("ROAM_DAEMON_URL", "")

	if err := os.WriteFile(filepath.Join(tempDir, "config.json"), []byte(`{"daemon_url":"http://10.0.0.2:9000"}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DaemonURL != "http://10.0.0.2:9000" {
		t.Errorf("Expected file daemon URL, got %s", cfg.DaemonURL)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("Expected default timeout, got %d", cfg.RequestTimeoutSeconds)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ROAM_DAEMON_URL", "http://override:1")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DaemonURL != "http://override:1" {
		t.Errorf("Expected env daemon URL, got %s", cfg.DaemonURL)
	}
}

func TestRuntimeMarker(t *testing.T) {
	t.Setenv("ROAM_RUNTIME", "1")
	if live, ok := RuntimeMarker(); !ok || !live {
		t.Errorf("Expected live marker, got live=%v ok=%v", live, ok)
	}

	t.Setenv("ROAM_RUNTIME", "false")
	if live, ok := RuntimeMarker(); !ok || live {
		t.Errorf("Expected null marker, got live=%v ok=%v", live, ok)
	}

	t.Setenv("ROAM_RUNTIME", "maybe")
	if _, ok := RuntimeMarker(); ok {
		t.Error("Expected unparsable marker to be ignored")
	}
}
