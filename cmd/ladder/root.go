package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/catalog"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/config"
	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/engine/source"
	"mercator-hq/ladder/pkg/telemetry/logging"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
	output     string
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "ladder",
		Short: "Ordered rule evaluation runtime",
		Long: `ladder evaluates ordered rule sets ("ladders"): a list of
condition/result pairs checked top to bottom, where the first match wins
and a mandatory default covers everything else.

It provides:
  - Built-in ladders (grades, seasons, snapple facts, planet weights)
  - Declarative YAML ladders with lint and embedded test cases
  - Loop exercises built on the same library (sum, roll, countdown)
  - An HTTP evaluation server with metrics and an audit trail`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (defaults and LADDER_* env when empty)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text, json, csv")

	cmd.AddCommand(
		newVersionCmd(),
		newCompletionCmd(),
		newEvalCmd(opts),
		newSumCmd(opts),
		newRollCmd(opts),
		newCountdownCmd(),
		newLintCmd(opts),
		newTestCmd(opts),
		newServeCmd(opts),
		newRecordsCmd(opts),
	)

	return cmd
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// loadConfig loads the config file named by --config with LADDER_*
// environment overrides applied.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(o.configPath)
	if err != nil {
		return nil, cli.NewConfigError(o.configPath, err.Error())
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func (o *globalOptions) newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level := cfg.Telemetry.Logging.Level
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger.Slog(), nil
}

func (o *globalOptions) formatter() (cli.OutputFormat, cli.Formatter, error) {
	format, err := cli.ParseOutputFormat(o.output)
	if err != nil {
		return "", nil, err
	}
	return format, cli.NewFormatter(format), nil
}

// setup loads config and logger in one step, the way most commands start.
func (o *globalOptions) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := o.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// ladderSource assembles the engine source. An explicit file replaces the
// configured sources; otherwise the catalog and ladders_path are combined.
func ladderSource(cfg *config.Config, logger *slog.Logger, file string) (engine.LadderSource, error) {
	if file != "" {
		return source.NewFileSource(file, logger).WithStrictMode(cfg.Engine.StrictMode), nil
	}

	var sources []engine.LadderSource
	if cfg.Engine.IncludeCatalog {
		builtin, err := catalog.Source()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in ladders: %w", err)
		}
		sources = append(sources, builtin)
	}
	if cfg.Engine.LaddersPath != "" {
		sources = append(sources, source.NewFileSource(cfg.Engine.LaddersPath, logger).
			WithDebounce(cfg.Engine.DebounceInterval).
			WithStrictMode(cfg.Engine.StrictMode))
	}
	if cfg.Engine.Git.Repository != "" {
		src, err := gitSource(&cfg.Engine, logger)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, cli.NewConfigError("engine.ladders_path", "no ladder source configured")
	}
	return source.NewMultiSource(sources...), nil
}

func gitSource(cfg *config.EngineConfig, logger *slog.Logger) (*source.GitSource, error) {
	git := &cfg.Git
	auth, err := source.GitAuth(git.Auth.Type, git.Auth.Token, git.Auth.SSHKeyPath, git.Auth.SSHKeyPassphrase)
	if err != nil {
		return nil, cli.NewConfigError("engine.git.auth", err.Error())
	}
	src, err := source.NewGitSource(source.GitOptions{
		Repository:   git.Repository,
		Branch:       git.Branch,
		Path:         git.Path,
		LocalPath:    git.LocalPath,
		Depth:        git.Depth,
		PollInterval: git.PollInterval,
		Timeout:      git.Timeout,
		Auth:         auth,
		Strict:       cfg.StrictMode,
	}, logger.With("component", "git"))
	if err != nil {
		return nil, cli.NewConfigError("engine.git", err.Error())
	}
	return src, nil
}

// engineConfig maps the config section onto the engine's own config.
func engineConfig(cfg *config.EngineConfig, watch bool) *engine.EngineConfig {
	return engine.DefaultEngineConfig().
		WithMaxLadders(cfg.MaxLadders).
		WithMaxRulesPerLadder(cfg.MaxRulesPerLadder).
		WithSlowEvaluationThreshold(cfg.SlowEvaluationThreshold).
		WithWatch(watch)
}

// newEngine builds an engine without file watching, for one-shot commands.
func newEngine(cfg *config.Config, logger *slog.Logger, file string) (*engine.Engine, error) {
	src, err := ladderSource(cfg, logger, file)
	if err != nil {
		return nil, err
	}
	eng, err := engine.NewEngine(engineConfig(&cfg.Engine, false), src, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load ladders: %w", err)
	}
	return eng, nil
}
