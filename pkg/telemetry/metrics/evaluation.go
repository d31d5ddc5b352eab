package metrics

import (
	"time"

	"mercator-hq/ladder/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics tracks ladder evaluations.
//
// Metrics:
//   - ladder_evaluations_total{ladder,outcome}
//   - ladder_evaluation_duration_seconds{ladder}
//   - ladder_rule_hits_total{ladder,rule}
//   - ladder_defaults_total{ladder}
type EvaluationMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	ruleHitsTotal      *prometheus.CounterVec
	defaultsTotal      *prometheus.CounterVec
}

// NewEvaluationMetrics creates and registers evaluation metrics.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of ladder evaluations by outcome",
			},
			[]string{"ladder", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of ladder evaluation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"ladder"},
		),

		ruleHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_hits_total",
				Help:      "Total number of evaluations answered by each rule",
			},
			[]string{"ladder", "rule"},
		),

		defaultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "defaults_total",
				Help:      "Total number of evaluations that fell through to the default",
			},
			[]string{"ladder"},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.ruleHitsTotal,
		em.defaultsTotal,
	)

	return em
}

// RecordEvaluation counts an evaluation and observes its duration.
func (em *EvaluationMetrics) RecordEvaluation(ladder, outcome string, duration time.Duration) {
	em.evaluationsTotal.WithLabelValues(ladder, outcome).Inc()
	em.evaluationDuration.WithLabelValues(ladder).Observe(duration.Seconds())
}

// RecordRuleHit counts an evaluation answered by rule.
func (em *EvaluationMetrics) RecordRuleHit(ladder, rule string) {
	em.ruleHitsTotal.WithLabelValues(ladder, rule).Inc()
}

// RecordDefault counts an evaluation answered by the default.
func (em *EvaluationMetrics) RecordDefault(ladder string) {
	em.defaultsTotal.WithLabelValues(ladder).Inc()
}
