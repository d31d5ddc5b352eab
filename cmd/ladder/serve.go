package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/config"
	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/records"
	"mercator-hq/ladder/pkg/records/retention"
	"mercator-hq/ladder/pkg/server"
	"mercator-hq/ladder/pkg/telemetry/health"
	"mercator-hq/ladder/pkg/telemetry/metrics"
	"mercator-hq/ladder/pkg/telemetry/tracing"
)

const (
	healthCheckTimeout = 2 * time.Second
	tracerFlushTimeout = 5 * time.Second
)

type serveOptions struct {
	listenAddress string
	logLevel      string
	watch         bool
	dryRun        bool
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	flags := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ladder evaluation server",
		Long: `Start the HTTP evaluation server with the specified configuration.

The server loads the built-in catalog, engine.ladders_path and
engine.git when configured, evaluates
POST /v1/ladders/{name}/evaluate requests, and exposes health, version
and Prometheus metrics endpoints. With records enabled every evaluation
is written to the audit trail and pruned on the retention schedule.

Examples:
  # Start with defaults
  ladder serve

  # Start with a config file and hot reload
  ladder serve --config /etc/ladder/config.yaml --watch

  # Override listen address
  ladder serve --listen 0.0.0.0:8080

  # Validate config and ladders without starting the server
  ladder serve --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "reload ladders_path and engine.git on change")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate config and ladders without starting the server")

	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, flags *serveOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	if flags.listenAddress != "" {
		cfg.Server.ListenAddress = flags.listenAddress
	}
	if flags.logLevel != "" {
		cfg.Telemetry.Logging.Level = flags.logLevel
	}
	if flags.watch {
		cfg.Engine.Watch = true
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(opts.configPath, err.Error())
	}

	logger, err := opts.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer svc.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Ladders loaded (%d ladders)\n", len(svc.engine.Ladders()))
	if flags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}
	if svc.store != nil {
		fmt.Fprintf(out, "✓ Record store initialized (%s)\n", cfg.Records.Driver)
	}

	ln, err := net.Listen("tcp", cfg.Server.ListenAddress)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("listen on %s: %w", cfg.Server.ListenAddress, err))
	}
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	fmt.Fprintf(out, "✓ Server listening on %s\n", ln.Addr())
	fmt.Fprintf(out, "✓ Health endpoint: %s://%s/healthz\n", scheme, ln.Addr())
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s://%s%s\n", scheme, ln.Addr(), cfg.Telemetry.Metrics.Path)
	}
	if len(cfg.Server.APIKeys) > 0 {
		fmt.Fprintf(out, "✓ API key authentication enabled (%d keys)\n", len(cfg.Server.APIKeys))
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := svc.Run(ctx, ln); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// service is the set of long-running components behind `ladder serve`.
type service struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    *engine.Engine
	collector *metrics.Collector
	tracer    *tracing.Tracer
	checker   *health.Checker
	store     records.Store
	recorder  *records.Recorder
	pruner    *retention.Pruner
	server    *server.Server

	closeRecords func()
}

// newService wires the engine, telemetry, record store and HTTP server.
// On error everything already opened is closed.
func newService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service, error) {
	svc := &service{cfg: cfg, logger: logger}
	ready := false
	defer func() {
		if !ready {
			svc.Close()
		}
	}()

	var err error
	svc.tracer, err = tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	svc.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	src, err := ladderSource(cfg, logger, "")
	if err != nil {
		return nil, err
	}
	watch := cfg.Engine.Watch && (cfg.Engine.LaddersPath != "" || cfg.Engine.Git.Repository != "")
	svc.engine, err = engine.NewEngine(engineConfig(&cfg.Engine, watch), src, logger.With("component", "engine"))
	if err != nil {
		return nil, fmt.Errorf("failed to load ladders: %w", err)
	}
	svc.engine.SetMetrics(svc.collector)
	svc.collector.RecordReload(true, len(svc.engine.Ladders()))

	svc.checker = health.New(healthCheckTimeout)
	svc.checker.Register("engine", func(context.Context) error {
		if len(svc.engine.Ladders()) == 0 {
			return errors.New("no ladders loaded")
		}
		return nil
	})

	if cfg.Records.Enabled {
		svc.recorder, svc.store, svc.closeRecords, err = openRecorder(cfg, logger.With("component", "records"))
		if err != nil {
			return nil, err
		}
		svc.engine.SetRecorder(svc.recorder)
		svc.pruner = retention.NewPruner(svc.store, retentionConfig(&cfg.Records), logger)

		svc.checker.Register("records", func(ctx context.Context) error {
			_, err := svc.store.Count(ctx, nil)
			return err
		})
		if err := svc.registerRecorderGauges(); err != nil {
			return nil, err
		}
	}

	opts := server.Options{
		Logger:  logger.With("component", "server"),
		Tracer:  svc.tracer,
		Health:  svc.checker,
		Version: health.NewVersionInfo(Version, GitCommit, BuildDate),
	}
	if cfg.Telemetry.Metrics.Enabled {
		opts.Metrics = svc.collector
		opts.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	svc.server = server.NewServer(&cfg.Server, svc.engine, opts)

	ready = true
	return svc, nil
}

func (s *service) registerRecorderGauges() error {
	gauges := []struct {
		name, help string
		value      func(records.Stats) int64
	}{
		{"records_written", "Evaluation records written to the store.", func(st records.Stats) int64 { return st.Written }},
		{"records_dropped", "Evaluation records dropped before reaching the store.", func(st records.Stats) int64 { return st.Dropped }},
		{"records_failed", "Evaluation records the store failed to write.", func(st records.Stats) int64 { return st.Failed }},
	}
	for _, g := range gauges {
		value := g.value
		if err := s.collector.RegisterGaugeFunc(g.name, g.help, func() float64 {
			return float64(value(s.recorder.Stats()))
		}); err != nil {
			return fmt.Errorf("failed to register %s gauge: %w", g.name, err)
		}
	}
	return nil
}

// Run serves on ln and runs the retention scheduler until ctx is done or
// one of them fails.
func (s *service) Run(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.server.Serve(gctx, ln)
	})

	if s.pruner != nil {
		g.Go(func() error {
			scheduler := s.pruner.Scheduler()
			if err := scheduler.Start(gctx); err != nil {
				return fmt.Errorf("failed to start retention scheduler: %w", err)
			}
			<-gctx.Done()
			scheduler.Stop()
			return nil
		})
	}

	return g.Wait()
}

// Close stops the engine, drains the recorder and flushes traces.
func (s *service) Close() {
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.logger.Warn("failed to close engine", "error", err)
		}
	}
	if s.closeRecords != nil {
		s.closeRecords()
	}
	if s.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), tracerFlushTimeout)
		defer cancel()
		if err := s.tracer.Shutdown(ctx); err != nil {
			s.logger.Warn("failed to shut down tracer", "error", err)
		}
	}
}
