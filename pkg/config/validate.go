package config

import (
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError holds every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All field errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateRetry(&cfg.Retry)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateRecords(&cfg.Records)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.LaddersPath == "" && cfg.Git.Repository == "" && !cfg.IncludeCatalog {
		errs = append(errs, FieldError{"engine.ladders_path", "required when include_catalog is false and engine.git is not set"})
	}
	if cfg.Watch && cfg.LaddersPath == "" && cfg.Git.Repository == "" {
		errs = append(errs, FieldError{"engine.watch", "requires engine.ladders_path or engine.git.repository"})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{"engine.debounce_interval", "must not be negative"})
	}
	if cfg.MaxLadders <= 0 {
		errs = append(errs, FieldError{"engine.max_ladders", "must be positive"})
	}
	if cfg.MaxRulesPerLadder <= 0 {
		errs = append(errs, FieldError{"engine.max_rules_per_ladder", "must be positive"})
	}
	if cfg.SlowEvaluationThreshold < 0 {
		errs = append(errs, FieldError{"engine.slow_evaluation_threshold", "must not be negative"})
	}
	if cfg.Git.Repository != "" {
		errs = append(errs, validateGit(&cfg.Git)...)
	}

	return errs
}

func validateGit(cfg *GitConfig) []FieldError {
	var errs []FieldError

	if cfg.Branch == "" {
		errs = append(errs, FieldError{"engine.git.branch", "must not be empty"})
	}
	if cfg.Depth < 0 {
		errs = append(errs, FieldError{"engine.git.depth", "must not be negative"})
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{"engine.git.poll_interval", "must be positive"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{"engine.git.timeout", "must be positive"})
	}
	switch cfg.Auth.Type {
	case "none":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{"engine.git.auth.token", "required for token auth"})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{"engine.git.auth.ssh_key_path", "required for ssh auth"})
		}
	default:
		errs = append(errs, FieldError{"engine.git.auth.type", fmt.Sprintf("must be one of none, token, ssh (got %q)", cfg.Auth.Type)})
	}

	return errs
}

func validateRetry(cfg *RetryConfig) []FieldError {
	if cfg.MaxAttempts < 0 {
		return []FieldError{{"retry.max_attempts", "must not be negative (0 means unbounded)"}}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, port, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address", fmt.Sprintf("invalid address %q: %v", cfg.ListenAddress, err)})
	} else if port == "" {
		errs = append(errs, FieldError{"server.listen_address", "port is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "must not be negative"})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must be positive"})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{"server.max_body_bytes", "must be positive"})
	}
	for i, key := range cfg.APIKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, FieldError{fmt.Sprintf("server.api_keys[%d]", i), "must not be empty"})
		}
	}
	if cfg.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, FieldError{"server.rate_limit.requests_per_second", "must not be negative"})
	}
	if cfg.RateLimit.Burst < 0 {
		errs = append(errs, FieldError{"server.rate_limit.burst", "must not be negative"})
	}
	for i, proxy := range cfg.RateLimit.TrustedProxies {
		if _, err := ParseProxyPrefix(proxy); err != nil {
			errs = append(errs, FieldError{fmt.Sprintf("server.rate_limit.trusted_proxies[%d]", i), err.Error()})
		}
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{"server.tls.cert_file", "required when TLS is enabled"})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{"server.tls.key_file", "required when TLS is enabled"})
		}
		if cfg.TLS.MinVersion != "1.2" && cfg.TLS.MinVersion != "1.3" {
			errs = append(errs, FieldError{"server.tls.min_version", fmt.Sprintf("must be 1.2 or 1.3 (got %q)", cfg.TLS.MinVersion)})
		}
	}

	return errs
}

func validateRecords(cfg *RecordsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case DriverSQLite, DriverSQLite3, DriverMemory:
	default:
		errs = append(errs, FieldError{"records.driver", fmt.Sprintf("must be one of sqlite, sqlite3, memory (got %q)", cfg.Driver)})
	}
	if cfg.Enabled && cfg.Driver != DriverMemory && cfg.Path == "" {
		errs = append(errs, FieldError{"records.path", "field is required"})
	}
	if cfg.AsyncBuffer <= 0 {
		errs = append(errs, FieldError{"records.async_buffer", "must be positive"})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{"records.retention_days", "must not be negative"})
	}
	if cfg.MaxRecords < 0 {
		errs = append(errs, FieldError{"records.max_records", "must not be negative"})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{"records.prune_schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("must be one of debug, info, warn, error (got %q)", cfg.Logging.Level)})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("must be one of json, text, console (got %q)", cfg.Logging.Format)})
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{"telemetry.tracing.sampler", fmt.Sprintf("must be one of always, never, ratio (got %q)", cfg.Tracing.Sampler)})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{"telemetry.tracing.sample_ratio", "must be between 0.0 and 1.0"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{"telemetry.tracing.endpoint", "field is required when tracing is enabled"})
	}

	return errs
}

// ParseProxyPrefix parses a trusted proxy entry, either a CIDR or a
// single address.
func ParseProxyPrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid CIDR %q", s)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid address %q", s)
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
