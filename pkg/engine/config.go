package engine

import (
	"fmt"
	"time"
)

// EngineConfig contains configuration for the ladder engine.
type EngineConfig struct {
	// MaxLadders is the maximum number of ladders to load.
	// Default: 100.
	MaxLadders int

	// MaxRulesPerLadder is the maximum number of rules in a single ladder.
	// Default: 200.
	MaxRulesPerLadder int

	// SlowEvaluationThreshold logs a warning for evaluations slower than this.
	// Zero disables the warning.
	// Default: 10ms.
	SlowEvaluationThreshold time.Duration

	// Watch enables hot reload from the ladder source.
	// Default: false.
	Watch bool
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		MaxLadders:              100,
		MaxRulesPerLadder:       200,
		SlowEvaluationThreshold: 10 * time.Millisecond,
		Watch:                   false,
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if c.MaxLadders <= 0 {
		return fmt.Errorf("%w: max ladders must be positive", ErrInvalidConfig)
	}
	if c.MaxRulesPerLadder <= 0 {
		return fmt.Errorf("%w: max rules per ladder must be positive", ErrInvalidConfig)
	}
	if c.SlowEvaluationThreshold < 0 {
		return fmt.Errorf("%w: slow evaluation threshold cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// WithMaxLadders sets the maximum number of ladders.
func (c *EngineConfig) WithMaxLadders(max int) *EngineConfig {
	c.MaxLadders = max
	return c
}

// WithMaxRulesPerLadder sets the maximum number of rules per ladder.
func (c *EngineConfig) WithMaxRulesPerLadder(max int) *EngineConfig {
	c.MaxRulesPerLadder = max
	return c
}

// WithSlowEvaluationThreshold sets the slow evaluation warning threshold.
func (c *EngineConfig) WithSlowEvaluationThreshold(d time.Duration) *EngineConfig {
	c.SlowEvaluationThreshold = d
	return c
}

// WithWatch enables or disables hot reload.
func (c *EngineConfig) WithWatch(enabled bool) *EngineConfig {
	c.Watch = enabled
	return c
}
