package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Backend.BaseURL != "http://localhost:5000" {
			t.Errorf("expected backend base URL http://localhost:5000, got %s", config.Backend.BaseURL)
		}

		if config.Backend.TimeoutSeconds != 60 {
			t.Errorf("expected backend timeout 60, got %d", config.Backend.TimeoutSeconds)
		}

		if config.Output.PlaylistName != "playlist.m3u" {
			t.Errorf("expected playlist name playlist.m3u, got %s", config.Output.PlaylistName)
		}

		if config.Output.GuideName != "guide.xml" {
			t.Errorf("expected guide name guide.xml, got %s", config.Output.GuideName)
		}

		if config.Database.Path != "m3usift.db" {
			t.Errorf("expected database path m3usift.db, got %s", config.Database.Path)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Backend.BaseURL != defaultConfig.Backend.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[backend]
base_url = "http://iptv.example.net:5000"
timeout_seconds = 30
rate_per_second = 2.0

[output]
dir = "/tmp/exports"
playlist_name = "channels.m3u"
guide_name = "epg.xml"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[logging]
level = "debug"
path = "/tmp/m3usift.log"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.BaseURL != "http://iptv.example.net:5000" {
			t.Errorf("expected base URL http://iptv.example.net:5000, got %s", config.Backend.BaseURL)
		}

		if config.Backend.RatePerSecond != 2.0 {
			t.Errorf("expected rate 2.0, got %f", config.Backend.RatePerSecond)
		}

		if config.Output.Dir != "/tmp/exports" {
			t.Errorf("expected output dir /tmp/exports, got %s", config.Output.Dir)
		}

		if config.Database.MaxOpenConns != 20 {
			t.Errorf("expected max open conns 20, got %d", config.Database.MaxOpenConns)
		}

		if config.Logging.Level != "debug" {
			t.Errorf("expected log level debug, got %s", config.Logging.Level)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig invalid toml", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := os.WriteFile(configPath, []byte("[backend\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid toml")
		}
	})
}
