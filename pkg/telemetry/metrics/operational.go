package metrics

import (
	"strconv"
	"time"

	"mercator-hq/ladder/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationalMetrics tracks everything around evaluation: reloads, retry
// loops and the HTTP surface.
type OperationalMetrics struct {
	reloadsTotal    *prometheus.CounterVec
	laddersLoaded   prometheus.Gauge
	retryAttempts   prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

// NewOperationalMetrics creates and registers operational metrics.
func NewOperationalMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *OperationalMetrics {
	om := &OperationalMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reloads_total",
				Help:      "Total number of ladder reloads by status",
			},
			[]string{"status"},
		),

		laddersLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ladders_loaded",
				Help:      "Number of ladders currently loaded",
			},
		),

		retryAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retry_attempts",
				Help:      "Generator calls made per retry loop",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 14), // 1 to 8192
			},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),

		httpRequestTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(
		om.reloadsTotal,
		om.laddersLoaded,
		om.retryAttempts,
		om.httpRequests,
		om.httpRequestTime,
	)

	return om
}

// RecordReload counts a reload; successful reloads also set the ladder gauge.
func (om *OperationalMetrics) RecordReload(success bool, ladders int) {
	if success {
		om.reloadsTotal.WithLabelValues("success").Inc()
		om.laddersLoaded.Set(float64(ladders))
		return
	}
	om.reloadsTotal.WithLabelValues("failure").Inc()
}

// RecordRetryAttempts observes the attempt count of one retry loop.
func (om *OperationalMetrics) RecordRetryAttempts(attempts int) {
	om.retryAttempts.Observe(float64(attempts))
}

// RecordHTTPRequest counts a request and observes its duration.
func (om *OperationalMetrics) RecordHTTPRequest(route string, status int, duration time.Duration) {
	om.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	om.httpRequestTime.WithLabelValues(route).Observe(duration.Seconds())
}
