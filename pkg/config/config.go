package config

import "time"

// Config is the root configuration structure for ladder.
type Config struct {
	// Engine configures ladder loading and evaluation limits.
	Engine EngineConfig `yaml:"engine" envPrefix:"ENGINE_"`

	// Retry configures the retry-until combinator used by the CLI.
	Retry RetryConfig `yaml:"retry" envPrefix:"RETRY_"`

	// Server configures the HTTP evaluation server.
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`

	// Records configures the evaluation audit trail.
	Records RecordsConfig `yaml:"records" envPrefix:"RECORDS_"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// EngineConfig contains configuration for the ladder engine.
type EngineConfig struct {
	// LaddersPath is a ladder file or a directory of ladder files.
	// Empty serves only the built-in catalog.
	LaddersPath string `yaml:"ladders_path" env:"LADDERS_PATH"`

	// IncludeCatalog adds the built-in ladders alongside LaddersPath.
	// Default: true
	IncludeCatalog bool `yaml:"include_catalog" env:"INCLUDE_CATALOG"`

	// Watch enables hot reload of LaddersPath.
	// Default: false
	Watch bool `yaml:"watch" env:"WATCH"`

	// DebounceInterval is the quiet period before a file change reloads.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval" env:"DEBOUNCE_INTERVAL"`

	// StrictMode rejects ladder files with unknown top-level fields.
	// Default: false
	StrictMode bool `yaml:"strict_mode" env:"STRICT_MODE"`

	// MaxLadders is the maximum number of ladders to load.
	// Default: 100
	MaxLadders int `yaml:"max_ladders" env:"MAX_LADDERS"`

	// MaxRulesPerLadder is the maximum number of rules per ladder.
	// Default: 200
	MaxRulesPerLadder int `yaml:"max_rules_per_ladder" env:"MAX_RULES_PER_LADDER"`

	// SlowEvaluationThreshold logs evaluations slower than this.
	// Default: 10ms
	SlowEvaluationThreshold time.Duration `yaml:"slow_evaluation_threshold" env:"SLOW_EVALUATION_THRESHOLD"`

	// Git loads ladders from a Git repository. Disabled when Repository is empty.
	Git GitConfig `yaml:"git" envPrefix:"GIT_"`
}

// GitConfig contains configuration for the Git ladder source.
type GitConfig struct {
	// Repository is the clone URL (https, ssh or a local path).
	Repository string `yaml:"repository" env:"REPOSITORY"`

	// Branch is the branch to track.
	// Default: "main"
	Branch string `yaml:"branch" env:"BRANCH"`

	// Path is the ladder directory inside the repository.
	// Default: "" (repository root)
	Path string `yaml:"path" env:"PATH"`

	// LocalPath is where the repository is cloned.
	// Default: "<tmp>/ladder-git"
	LocalPath string `yaml:"local_path" env:"LOCAL_PATH"`

	// Depth limits clone history. 0 clones everything.
	// Default: 1
	Depth int `yaml:"depth" env:"DEPTH"`

	// PollInterval is how often Watch pulls for new commits.
	// Default: 30s
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`

	// Timeout bounds a single clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	Auth GitAuthConfig `yaml:"auth" envPrefix:"AUTH_"`
}

// GitAuthConfig contains Git authentication settings.
type GitAuthConfig struct {
	// Type is one of none, token, ssh.
	// Default: "none"
	Type string `yaml:"type" env:"TYPE"`

	// Token is a personal access token for HTTPS.
	Token string `yaml:"token" env:"TOKEN"`

	// SSHKeyPath is the private key used for ssh URLs.
	SSHKeyPath string `yaml:"ssh_key_path" env:"SSH_KEY_PATH"`

	// SSHKeyPassphrase unlocks an encrypted SSHKeyPath.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase" env:"SSH_KEY_PASSPHRASE"`
}

// RetryConfig contains configuration for retry loops.
type RetryConfig struct {
	// MaxAttempts caps generator calls. 0 means unbounded.
	// Default: 10000
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address" env:"LISTEN_ADDRESS"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// MaxBodyBytes caps request body size.
	// Default: 1MB
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`

	// APIKeys guards the /v1 routes. Empty leaves them open.
	// Health, version and metrics endpoints are never guarded.
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`

	// RateLimit throttles /v1 requests per client IP.
	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`

	// TLS serves HTTPS when enabled.
	TLS TLSConfig `yaml:"tls" envPrefix:"TLS_"`
}

// RateLimitConfig contains per-client request limits.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. 0 disables limiting.
	// Default: 0
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`

	// Burst is the bucket size. 0 uses RequestsPerSecond rounded up.
	Burst int `yaml:"burst" env:"BURST"`

	// TrustedProxies lists proxy addresses or CIDRs whose
	// X-Forwarded-For header names the client. Requests from any other
	// peer are keyed on the peer address.
	// Default: none
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`
}

// TLSConfig contains server certificate settings.
type TLSConfig struct {
	// Enabled turns on TLS.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// CertFile is the PEM-encoded certificate (chain).
	CertFile string `yaml:"cert_file" env:"CERT_FILE"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file" env:"KEY_FILE"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.2"
	MinVersion string `yaml:"min_version" env:"MIN_VERSION"`
}

// RecordsConfig contains configuration for evaluation records.
type RecordsConfig struct {
	// Enabled turns on recording of evaluations.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Driver selects the SQLite driver: "sqlite" (pure Go) or "sqlite3" (cgo).
	// "memory" keeps records in process memory.
	// Default: "sqlite"
	Driver string `yaml:"driver" env:"DRIVER"`

	// Path is the database file path.
	// Default: "data/records.db"
	Path string `yaml:"path" env:"PATH"`

	// AsyncBuffer is the recorder channel capacity.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer" env:"ASYNC_BUFFER"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// RetentionDays deletes records older than this. 0 keeps forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days" env:"RETENTION_DAYS"`

	// MaxRecords caps the number of stored records. 0 is unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records" env:"MAX_RECORDS"`

	// PruneSchedule is a cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule" env:"PRUNE_SCHEDULE"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format is one of json, text, console.
	// Default: "text"
	Format string `yaml:"format" env:"FORMAT"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source" env:"ADD_SOURCE"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes metrics on the server.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" env:"PATH"`

	// Namespace prefixes every metric name.
	// Default: "ladder"
	Namespace string `yaml:"namespace" env:"NAMESPACE"`

	// Subsystem is inserted between namespace and metric name.
	// Default: ""
	Subsystem string `yaml:"subsystem" env:"SUBSYSTEM"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Sampler is one of always, never, ratio.
	// Default: "ratio"
	Sampler string `yaml:"sampler" env:"SAMPLER"`

	// SampleRatio is the fraction of traces sampled when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure" env:"INSECURE"`

	// Timeout bounds a single export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// ServiceName is reported as service.name.
	// Default: "ladder"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}
