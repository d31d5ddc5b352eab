package config

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != DefaultListenAddress {
					t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
				}
				if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
					t.Errorf("expected shutdown timeout %v, got %v", DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
				}
				if cfg.Engine.MaxLadders != DefaultMaxLadders {
					t.Errorf("expected max ladders %d, got %d", DefaultMaxLadders, cfg.Engine.MaxLadders)
				}
				if cfg.Engine.DebounceInterval != DefaultDebounceInterval {
					t.Errorf("expected debounce %v, got %v", DefaultDebounceInterval, cfg.Engine.DebounceInterval)
				}
				if cfg.Retry.MaxAttempts != DefaultRetryMaxAttempts {
					t.Errorf("expected max attempts %d, got %d", DefaultRetryMaxAttempts, cfg.Retry.MaxAttempts)
				}
				if cfg.Records.Driver != DefaultRecordsDriver {
					t.Errorf("expected driver %q, got %q", DefaultRecordsDriver, cfg.Records.Driver)
				}
				if cfg.Records.PruneSchedule != DefaultRecordsPruneSchedule {
					t.Errorf("expected prune schedule %q, got %q", DefaultRecordsPruneSchedule, cfg.Records.PruneSchedule)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.Engine.Git.Branch != DefaultGitBranch || cfg.Engine.Git.PollInterval != DefaultGitPollInterval {
					t.Errorf("expected git defaults, got %+v", cfg.Engine.Git)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Server:  ServerConfig{ListenAddress: ":9000", ReadTimeout: time.Second},
				Engine:  EngineConfig{MaxRulesPerLadder: 7},
				Records: RecordsConfig{Driver: "sqlite3", RetentionDays: 2},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != ":9000" {
					t.Errorf("listen address overwritten: %q", cfg.Server.ListenAddress)
				}
				if cfg.Server.ReadTimeout != time.Second {
					t.Errorf("read timeout overwritten: %v", cfg.Server.ReadTimeout)
				}
				if cfg.Engine.MaxRulesPerLadder != 7 {
					t.Errorf("max rules overwritten: %d", cfg.Engine.MaxRulesPerLadder)
				}
				if cfg.Records.Driver != "sqlite3" || cfg.Records.RetentionDays != 2 {
					t.Errorf("records overwritten: %+v", cfg.Records)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	first := Default()
	second := *first
	ApplyDefaults(&second)
	if !reflect.DeepEqual(*first, second) {
		t.Errorf("ApplyDefaults changed an already defaulted config:\n%+v\n%+v", *first, second)
	}
}

func TestDefault_Booleans(t *testing.T) {
	cfg := Default()
	if !cfg.Engine.IncludeCatalog {
		t.Error("expected include_catalog to default to true")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to default to enabled")
	}
	if cfg.Records.Enabled {
		t.Error("expected records to default to disabled")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
