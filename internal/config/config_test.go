package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "8000")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected sqlite", cfg.Database.Driver)
	}
	if cfg.Client.StorageKey != "problem_reports_v1" {
		t.Errorf("Client.StorageKey = %q, expected problem_reports_v1", cfg.Client.StorageKey)
	}
	if GlobalConfig != cfg {
		t.Error("GlobalConfig should point at the loaded config")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  port: \"9090\"\nclient:\n  timeout: 3s\n  local_driver: sqlite\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, expected 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, expected default", cfg.Server.Host)
	}
	if cfg.Client.Timeout != 3*time.Second {
		t.Errorf("Client.Timeout = %v, expected 3s", cfg.Client.Timeout)
	}
	if cfg.Client.LocalDriver != "sqlite" {
		t.Errorf("Client.LocalDriver = %q, expected sqlite", cfg.Client.LocalDriver)
	}
	if cfg.Admin.Token != "changeme" {
		t.Errorf("Admin.Token = %q, expected default", cfg.Admin.Token)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("ADMIN_TOKEN", "s3cret")
	t.Setenv("PROBLEMPAD_API", "http://reports.internal:8000")
	t.Setenv("DB_DRIVER", "postgres")

	cfg := DefaultConfig()
	cfg.overrideFromEnv()

	if cfg.Admin.Token != "s3cret" {
		t.Errorf("Admin.Token = %q, expected s3cret", cfg.Admin.Token)
	}
	if cfg.Client.APIBaseURL != "http://reports.internal:8000" {
		t.Errorf("Client.APIBaseURL = %q", cfg.Client.APIBaseURL)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected postgres", cfg.Database.Driver)
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://localhost:6379", "localhost:6379", "", 0},
		{"redis://:pass@redis:6379/2", "redis:6379", "pass", 2},
		{"redis://user:pw@10.0.0.1:6380/0", "10.0.0.1:6380", "pw", 0},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.parseRedisURL(tt.url)
		if cfg.Redis.Addr != tt.addr {
			t.Errorf("%s: Addr = %q, expected %q", tt.url, cfg.Redis.Addr, tt.addr)
		}
		if cfg.Redis.Password != tt.password {
			t.Errorf("%s: Password = %q, expected %q", tt.url, cfg.Redis.Password, tt.password)
		}
		if cfg.Redis.DB != tt.db {
			t.Errorf("%s: DB = %d, expected %d", tt.url, cfg.Redis.DB, tt.db)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Export.RebuildCron = "0 3 * * *"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Export.RebuildCron != "0 3 * * *" {
		t.Errorf("Export.RebuildCron = %q", loaded.Export.RebuildCron)
	}
}
