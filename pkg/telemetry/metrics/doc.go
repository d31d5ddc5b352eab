// Package metrics exposes ladder metrics to Prometheus.
//
// A Collector owns a private registry and implements
// engine.MetricsRecorder, so it plugs straight into the engine:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	eng.SetMetrics(collector)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Metric names are prefixed with the configured namespace and subsystem,
// e.g. ladder_evaluations_total{ladder="seasons",outcome="matched"}.
package metrics
