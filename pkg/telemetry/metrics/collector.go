package metrics

import (
	"sync"
	"time"

	"mercator-hq/ladder/pkg/config"
	"mercator-hq/ladder/pkg/engine"

	"github.com/prometheus/client_golang/prometheus"
)

// otherLabel replaces label values once the cardinality limit is reached.
const otherLabel = "other"

// Collector owns the Prometheus registry and every ladder metric.
// It implements engine.MetricsRecorder.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evaluation  *EvaluationMetrics
	operational *OperationalMetrics

	// Unknown ladder names arrive from clients; cap the label sets.
	cardinalityLimiter *CardinalityLimiter
}

var _ engine.MetricsRecorder = (*Collector)(nil)

// NewCollector creates a collector registering into registry. A nil
// registry gets a fresh one; the process default registry is never used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		evaluation:         NewEvaluationMetrics(cfg, registry),
		operational:        NewOperationalMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// RecordEvaluation records one engine evaluation.
func (c *Collector) RecordEvaluation(ladder, rule string, outcome engine.Outcome, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(ladder + "\x00" + rule) {
		ladder, rule = otherLabel, otherLabel
	}

	c.evaluation.RecordEvaluation(ladder, string(outcome), duration)
	switch outcome {
	case engine.OutcomeMatched:
		c.evaluation.RecordRuleHit(ladder, rule)
	case engine.OutcomeDefault:
		c.evaluation.RecordDefault(ladder)
	}
}

// RecordReload records a ladder reload and the resulting ladder count.
func (c *Collector) RecordReload(success bool, ladders int) {
	if !c.config.Enabled {
		return
	}
	c.operational.RecordReload(success, ladders)
}

// RecordRetryAttempts records how many generator calls a retry loop made.
func (c *Collector) RecordRetryAttempts(attempts int) {
	if !c.config.Enabled {
		return
	}
	c.operational.RecordRetryAttempts(attempts)
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.operational.RecordHTTPRequest(route, status, duration)
}

// RegisterGaugeFunc exposes a value computed at scrape time, such as the
// evaluation recorder's write counters.
func (c *Collector) RegisterGaugeFunc(name, help string, fn func() float64) error {
	return c.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: c.config.Namespace,
		Subsystem: c.config.Subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
