package config

import "time"

// Record store drivers.
const (
	DriverSQLite  = "sqlite"  // modernc.org/sqlite
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3
	DriverMemory  = "memory"
)

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultIncludeCatalog          = true
	DefaultEngineWatch             = false
	DefaultDebounceInterval        = 100 * time.Millisecond
	DefaultMaxLadders              = 100
	DefaultMaxRulesPerLadder       = 200
	DefaultSlowEvaluationThreshold = 10 * time.Millisecond

	// Git source defaults
	DefaultGitBranch       = "main"
	DefaultGitDepth        = 1
	DefaultGitPollInterval = 30 * time.Second
	DefaultGitTimeout      = 30 * time.Second
	DefaultGitAuthType     = "none"

	// Retry defaults
	DefaultRetryMaxAttempts = 10000

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20) // 1MB
	DefaultTLSMinVersion   = "1.2"

	// Records defaults
	DefaultRecordsEnabled       = false
	DefaultRecordsDriver        = DriverSQLite
	DefaultRecordsPath          = "data/records.db"
	DefaultRecordsAsyncBuffer   = 1000
	DefaultRecordsWriteTimeout  = 5 * time.Second
	DefaultRecordsRetentionDays = 30
	DefaultRecordsPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "text"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "ladder"
	DefaultTracingSampler   = "ratio"
	DefaultTracingRatio     = 0.1
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingTimeout   = 10 * time.Second
	DefaultTracingService   = "ladder"
)

// Default returns a configuration with every field set to its default.
// Boolean defaults are only expressible here, so loading starts from this
// value rather than from a zero Config.
func Default() *Config {
	cfg := &Config{
		Engine: EngineConfig{
			IncludeCatalog: DefaultIncludeCatalog,
			Watch:          DefaultEngineWatch,
		},
		Records: RecordsConfig{
			Enabled: DefaultRecordsEnabled,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued non-boolean fields with their defaults.
// Fields already set are left unchanged.
func ApplyDefaults(cfg *Config) {
	applyEngineDefaults(&cfg.Engine)
	applyRetryDefaults(&cfg.Retry)
	applyServerDefaults(&cfg.Server)
	applyRecordsDefaults(&cfg.Records)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
	if cfg.MaxLadders == 0 {
		cfg.MaxLadders = DefaultMaxLadders
	}
	if cfg.MaxRulesPerLadder == 0 {
		cfg.MaxRulesPerLadder = DefaultMaxRulesPerLadder
	}
	if cfg.SlowEvaluationThreshold == 0 {
		cfg.SlowEvaluationThreshold = DefaultSlowEvaluationThreshold
	}
	applyGitDefaults(&cfg.Git)
}

func applyGitDefaults(cfg *GitConfig) {
	if cfg.Branch == "" {
		cfg.Branch = DefaultGitBranch
	}
	if cfg.Depth == 0 {
		cfg.Depth = DefaultGitDepth
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultGitPollInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGitTimeout
	}
	if cfg.Auth.Type == "" {
		cfg.Auth.Type = DefaultGitAuthType
	}
}

func applyRetryDefaults(cfg *RetryConfig) {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultRetryMaxAttempts
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.TLS.MinVersion == "" {
		cfg.TLS.MinVersion = DefaultTLSMinVersion
	}
}

func applyRecordsDefaults(cfg *RecordsConfig) {
	if cfg.Driver == "" {
		cfg.Driver = DefaultRecordsDriver
	}
	if cfg.Path == "" {
		cfg.Path = DefaultRecordsPath
	}
	if cfg.AsyncBuffer == 0 {
		cfg.AsyncBuffer = DefaultRecordsAsyncBuffer
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultRecordsWriteTimeout
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = DefaultRecordsRetentionDays
	}
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = DefaultRecordsPruneSchedule
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 && cfg.Tracing.Sampler == "ratio" {
		cfg.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingService
	}
}
