package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ladder.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  ladders_path: "./ladders"
  include_catalog: false
  watch: true
  debounce_interval: "250ms"
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "60s"
records:
  enabled: true
  driver: "sqlite3"
  path: "./records.db"
telemetry:
  logging:
    level: "debug"
    format: "json"
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.LaddersPath != "./ladders" || cfg.Engine.IncludeCatalog || !cfg.Engine.Watch {
		t.Errorf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.Engine.DebounceInterval != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Engine.DebounceInterval)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout 60s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if !cfg.Records.Enabled || cfg.Records.Driver != "sqlite3" {
		t.Errorf("unexpected records config: %+v", cfg.Records)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level debug, got %q", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("empty file should load defaults: %v", err)
	}
	if !cfg.Engine.IncludeCatalog {
		t.Error("expected include_catalog default to survive an empty file")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server:\n  listen_address: [unclosed\n"))
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server:\n  listen_adress: \":80\"\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
records:
  driver: "postgres"
telemetry:
  logging:
    level: "verbose"
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
telemetry:
  logging:
    level: "info"
`)

	t.Setenv("LADDER_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("LADDER_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("LADDER_ENGINE_LADDERS_PATH", "/etc/ladder")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected env listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected env logging level, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Engine.LaddersPath != "/etc/ladder" {
		t.Errorf("expected env ladders path, got %q", cfg.Engine.LaddersPath)
	}
}

func TestLoadConfigWithEnvOverrides_GitSource(t *testing.T) {
	t.Setenv("LADDER_ENGINE_GIT_REPOSITORY", "https://example.com/ladders.git")
	t.Setenv("LADDER_ENGINE_GIT_AUTH_TYPE", "token")
	t.Setenv("LADDER_ENGINE_GIT_AUTH_TOKEN", "secret")
	t.Setenv("LADDER_ENGINE_GIT_POLL_INTERVAL", "1m")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	git := cfg.Engine.Git
	if git.Repository != "https://example.com/ladders.git" || git.Auth.Token != "secret" {
		t.Errorf("git env overrides not applied: %+v", git)
	}
	if git.PollInterval != time.Minute {
		t.Errorf("expected poll interval 1m, got %v", git.PollInterval)
	}
	if git.Branch != DefaultGitBranch {
		t.Errorf("expected default branch, got %q", git.Branch)
	}
}

func TestLoadConfigWithEnvOverrides_TypedValues(t *testing.T) {
	t.Setenv("LADDER_SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("LADDER_ENGINE_MAX_LADDERS", "12")
	t.Setenv("LADDER_RECORDS_ENABLED", "true")
	t.Setenv("LADDER_RECORDS_MAX_RECORDS", "5000")
	t.Setenv("LADDER_TELEMETRY_METRICS_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Engine.MaxLadders != 12 {
		t.Errorf("expected 12, got %d", cfg.Engine.MaxLadders)
	}
	if !cfg.Records.Enabled || cfg.Records.MaxRecords != 5000 {
		t.Errorf("unexpected records config: %+v", cfg.Records)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics disabled by env")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "LADDER_SERVER_READ_TIMEOUT", "soon"},
		{"bad int", "LADDER_ENGINE_MAX_LADDERS", "many"},
		{"bad bool", "LADDER_ENGINE_WATCH", "perhaps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfigWithEnvOverrides("")
			if err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), "parse env") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides_ValidatesResult(t *testing.T) {
	t.Setenv("LADDER_RECORDS_PRUNE_SCHEDULE", "every tuesday")
	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "records.prune_schedule") {
		t.Errorf("expected prune_schedule error, got %v", err)
	}
}
