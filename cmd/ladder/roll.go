package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/rules"
	"mercator-hq/ladder/pkg/telemetry/metrics"
)

const snakeEyes = 2

type rollOptions struct {
	target      int
	maxAttempts int
	seed        uint64
	quiet       bool
	metricsFile string
}

func newRollCmd(opts *globalOptions) *cobra.Command {
	flags := &rollOptions{}
	cmd := &cobra.Command{
		Use:   "roll",
		Short: "Roll two dice until they hit a target",
		Long: `Roll two six-sided dice until their sum equals --target, printing
"Nope" for every miss. The default target 2 is snake eyes.

The number of rolls is capped by --max-attempts (retry.max_attempts in
the config when unset; 0 means no cap). Reaching the cap exits with
status 3.

Examples:
  ladder roll
  ladder roll --target 7 --quiet
  ladder roll --seed 42 -o json
  ladder roll --metrics-file /var/lib/node_exporter/ladder_roll.prom`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoll(cmd, opts, flags)
		},
	}

	cmd.Flags().IntVar(&flags.target, "target", snakeEyes, "dice total to roll for (2-12)")
	cmd.Flags().IntVar(&flags.maxAttempts, "max-attempts", -1, "maximum rolls (default from config, 0 for no cap)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "random seed (0 for a random seed)")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "do not print misses")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write retry metrics to this file in Prometheus text format")

	return cmd
}

// dice is one roll of two dice.
type dice struct {
	First  int `json:"first"`
	Second int `json:"second"`
}

func (d dice) total() int { return d.First + d.Second }

// rollResult is the output of the roll command.
type rollResult struct {
	Target   int  `json:"target"`
	Attempts int  `json:"attempts"`
	Dice     dice `json:"dice"`
}

func (r rollResult) Header() []string { return []string{"TARGET", "ATTEMPTS", "FIRST", "SECOND"} }

func (r rollResult) Rows() [][]string {
	return [][]string{{
		strconv.Itoa(r.Target),
		strconv.Itoa(r.Attempts),
		strconv.Itoa(r.Dice.First),
		strconv.Itoa(r.Dice.Second),
	}}
}

func runRoll(cmd *cobra.Command, opts *globalOptions, flags *rollOptions) error {
	format, formatter, err := opts.formatter()
	if err != nil {
		return err
	}
	if flags.target < 2 || flags.target > 12 {
		return cli.Usagef("--target must be between 2 and 12, got %d", flags.target)
	}

	maxAttempts := flags.maxAttempts
	if maxAttempts < 0 {
		cfg, err := opts.loadConfig()
		if err != nil {
			return err
		}
		maxAttempts = cfg.Retry.MaxAttempts
	}

	out := cmd.OutOrStdout()
	policy := rules.RetryPolicy[dice]{
		MaxAttempts: maxAttempts,
		OnAttempt: func(attempt int, d dice, satisfied bool) {
			if !satisfied && !flags.quiet && format == cli.FormatText {
				fmt.Fprintln(out, "Nope")
			}
		},
	}

	d, attempts, err := policy.Until(cmd.Context(), targetPredicate(flags.target), diceGenerator(newRand(flags.seed)))

	if flags.metricsFile != "" {
		if werr := writeRollMetrics(flags.metricsFile, attempts); werr != nil {
			return cli.NewCommandError("roll", werr)
		}
	}
	if err != nil {
		return cli.NewCommandError("roll", err)
	}

	if format == cli.FormatText {
		if flags.target == snakeEyes {
			_, err = fmt.Fprintln(out, "Snake eyes!")
		} else {
			_, err = fmt.Fprintf(out, "Rolled %d (%d + %d) after %d attempts\n", d.total(), d.First, d.Second, attempts)
		}
		return err
	}
	return formatter.FormatTo(out, rollResult{Target: flags.target, Attempts: attempts, Dice: d})
}

func targetPredicate(target int) rules.Predicate[dice] {
	return rules.Func(func(d dice) bool { return d.total() == target })
}

// diceGenerator rolls two independent dice per call.
func diceGenerator(r *rand.Rand) rules.Generator[dice] {
	return func(ctx context.Context) (dice, error) {
		return dice{First: r.IntN(6) + 1, Second: r.IntN(6) + 1}, nil
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// writeRollMetrics records the attempt count in a fresh registry and
// writes it for a node_exporter textfile collector.
func writeRollMetrics(path string, attempts int) error {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(nil, registry)
	collector.RecordRetryAttempts(attempts)
	return prometheus.WriteToTextfile(path, registry)
}
