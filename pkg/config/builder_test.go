package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig returns a builder seeded with a valid default configuration.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: *Default()}
}

func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

func (b *ConfigBuilder) WithLaddersPath(path string, watch bool) *ConfigBuilder {
	b.cfg.Engine.LaddersPath = path
	b.cfg.Engine.Watch = watch
	return b
}

func (b *ConfigBuilder) WithGit(repository, authType string) *ConfigBuilder {
	b.cfg.Engine.Git.Repository = repository
	b.cfg.Engine.Git.Auth.Type = authType
	return b
}

func (b *ConfigBuilder) WithRecords(driver, path string) *ConfigBuilder {
	b.cfg.Records.Enabled = true
	b.cfg.Records.Driver = driver
	b.cfg.Records.Path = path
	return b
}

func (b *ConfigBuilder) WithPruneSchedule(schedule string) *ConfigBuilder {
	b.cfg.Records.PruneSchedule = schedule
	return b
}

func (b *ConfigBuilder) WithLogging(level, format string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	b.cfg.Telemetry.Logging.Format = format
	return b
}

func (b *ConfigBuilder) WithShutdownTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Server.ShutdownTimeout = d
	return b
}
