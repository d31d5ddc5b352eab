package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/config"
	"mercator-hq/ladder/pkg/records"
	"mercator-hq/ladder/pkg/records/retention"
	"mercator-hq/ladder/pkg/records/storage"
)

// openStore opens the record store selected by records.driver.
func openStore(cfg *config.RecordsConfig, logger *slog.Logger) (records.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	case storage.DriverModernc, storage.DriverMattn:
		sqliteConfig := storage.DefaultSQLiteConfig()
		sqliteConfig.Driver = cfg.Driver
		sqliteConfig.Path = cfg.Path
		store, err := storage.NewSQLiteStore(sqliteConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		return store, nil
	default:
		return nil, cli.NewConfigError("records.driver", fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
}

// openRecorder opens the store and starts a recorder on it. The returned
// func drains the recorder and then closes the store.
func openRecorder(cfg *config.Config, logger *slog.Logger) (*records.Recorder, records.Store, func(), error) {
	store, err := openStore(&cfg.Records, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	rec := records.NewRecorder(store, &records.Config{
		AsyncBuffer:  cfg.Records.AsyncBuffer,
		WriteTimeout: cfg.Records.WriteTimeout,
	}, logger)
	closeFn := func() {
		rec.Close()
		if err := store.Close(); err != nil {
			logger.Warn("failed to close record store", "error", err)
		}
	}
	return rec, store, closeFn, nil
}

func retentionConfig(cfg *config.RecordsConfig) *retention.Config {
	return &retention.Config{
		RetentionDays: cfg.RetentionDays,
		MaxRecords:    cfg.MaxRecords,
		PruneSchedule: cfg.PruneSchedule,
	}
}

type recordsOptions struct {
	ladder    string
	rule      string
	defaulted string
	since     string
	until     string
	limit     int
	offset    int
	oldest    bool
}

func newRecordsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Query and prune evaluation records",
		Long: `Query and maintain the evaluation audit trail.

Records are written by 'ladder serve' and 'ladder eval' when
records.enabled is set in the config.

Subcommands:
  query  - List records matching filters
  count  - Count records matching filters
  prune  - Apply the retention policy now

Time filters accept RFC3339 timestamps or a duration before now
(for example 24h).`,
	}

	cmd.AddCommand(
		newRecordsQueryCmd(opts),
		newRecordsCountCmd(opts),
		newRecordsPruneCmd(opts),
	)
	return cmd
}

func addFilterFlags(cmd *cobra.Command, flags *recordsOptions) {
	cmd.Flags().StringVar(&flags.ladder, "ladder", "", "filter by ladder name")
	cmd.Flags().StringVar(&flags.rule, "rule", "", "filter by matched rule name")
	cmd.Flags().StringVar(&flags.defaulted, "defaulted", "", "filter by default use: true or false")
	cmd.Flags().StringVar(&flags.since, "since", "", "only records evaluated at or after this time")
	cmd.Flags().StringVar(&flags.until, "until", "", "only records evaluated at or before this time")
}

func newRecordsQueryCmd(opts *globalOptions) *cobra.Command {
	flags := &recordsOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "List evaluation records",
		Long: `List evaluation records, newest first.

Examples:
  # Last day of seasons evaluations
  ladder records query --ladder seasons --since 24h

  # Evaluations that fell through to the default, as CSV
  ladder records query --defaulted true -o csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsQuery(cmd, opts, flags)
		},
	}
	addFilterFlags(cmd, flags)
	cmd.Flags().IntVar(&flags.limit, "limit", records.DefaultQueryLimit, "maximum records to return")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "records to skip")
	cmd.Flags().BoolVar(&flags.oldest, "oldest", false, "oldest first")
	return cmd
}

func newRecordsCountCmd(opts *globalOptions) *cobra.Command {
	flags := &recordsOptions{}
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count evaluation records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store records.Store) error {
				query, err := flags.query(time.Now())
				if err != nil {
					return err
				}
				n, err := store.Count(cmd.Context(), query)
				if err != nil {
					return cli.NewCommandError("records count", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
				return err
			})
		},
	}
	addFilterFlags(cmd, flags)
	return cmd
}

func newRecordsPruneCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete records outside the retention policy",
		Long: `Delete records older than records.retention_days and the oldest
records beyond records.max_records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(&cfg.Records, logger)
			if err != nil {
				return cli.NewCommandError("records prune", err)
			}
			defer store.Close()

			deleted, err := retention.NewPruner(store, retentionConfig(&cfg.Records), logger).Prune(cmd.Context())
			if err != nil {
				return cli.NewCommandError("records prune", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d record(s)\n", deleted)
			return err
		},
	}
}

// withStore runs fn against the configured store and closes it afterwards.
func withStore(cmd *cobra.Command, opts *globalOptions, fn func(records.Store) error) error {
	cfg, logger, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(&cfg.Records, logger)
	if err != nil {
		return cli.NewCommandError(cmd.Name(), err)
	}
	defer store.Close()
	return fn(store)
}

// recordTable renders records as rows.
type recordTable []*records.Record

func (t recordTable) Header() []string {
	return []string{"ID", "EVALUATED_AT", "LADDER", "INPUT", "RESULT", "RULE", "DEFAULTED", "DURATION"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.ID,
			r.EvaluatedAt.UTC().Format(time.RFC3339),
			r.Ladder,
			r.Input,
			r.Result,
			r.RuleName,
			strconv.FormatBool(r.Defaulted),
			r.Duration.String(),
		})
	}
	return rows
}

func runRecordsQuery(cmd *cobra.Command, opts *globalOptions, flags *recordsOptions) error {
	_, formatter, err := opts.formatter()
	if err != nil {
		return err
	}
	return withStore(cmd, opts, func(store records.Store) error {
		query, err := flags.query(time.Now())
		if err != nil {
			return err
		}
		found, err := store.Query(cmd.Context(), query)
		if err != nil {
			return cli.NewCommandError("records query", err)
		}
		return formatter.FormatTo(cmd.OutOrStdout(), recordTable(found))
	})
}

// query builds a store query from the flags, resolving relative times
// against now.
func (o *recordsOptions) query(now time.Time) (*records.Query, error) {
	q := &records.Query{
		Ladder:   o.ladder,
		RuleName: o.rule,
		Limit:    o.limit,
		Offset:   o.offset,
		Oldest:   o.oldest,
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, cli.Usagef("--limit and --offset must not be negative")
	}

	if o.defaulted != "" {
		b, err := strconv.ParseBool(o.defaulted)
		if err != nil {
			return nil, cli.Usagef("--defaulted must be true or false, got %q", o.defaulted)
		}
		q.Defaulted = &b
	}

	var err error
	if q.Since, err = parseTimeFlag("since", o.since, now); err != nil {
		return nil, err
	}
	if q.Until, err = parseTimeFlag("until", o.until, now); err != nil {
		return nil, err
	}
	if q.Since != nil && q.Until != nil && q.Until.Before(*q.Since) {
		return nil, cli.Usagef("--until is before --since")
	}
	return q, nil
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration before now.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		t := now.Add(-d)
		return &t, nil
	}
	return nil, cli.Usagef("--%s must be an RFC3339 time or a duration, got %q", name, value)
}
