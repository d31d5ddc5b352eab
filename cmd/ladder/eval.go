package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/catalog"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/engine"
)

type evalOptions struct {
	file   string
	weight float64
}

func newEvalCmd(opts *globalOptions) *cobra.Command {
	flags := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval <ladder> [input]",
		Short: "Evaluate an input against a ladder",
		Long: `Evaluate one input against a ladder and print the result.

The input is converted according to the ladder's declared input type.
Rules are checked in order; the first match wins and the ladder default
is returned when nothing matches.

snapple-facts picks a random fact when no input is given. planet-weights
multiplies --weight by the matched gravity factor.

Examples:
  # Built-in ladders
  ladder eval high-school-grades 10
  ladder eval seasons 7
  ladder eval snapple-facts
  ladder eval planet-weights 4 --weight 100

  # A ladder from a file
  ladder eval --file ladders/tiers.yaml tiers 250

  # JSON decision
  ladder eval seasons 12 -o json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "ladder file or directory to load instead of the configured sources")
	cmd.Flags().Float64Var(&flags.weight, "weight", 0, "earth weight to convert (planet-weights)")

	return cmd
}

// evalResult is a decision plus the derived planet weight, if any.
type evalResult struct {
	*engine.Decision
	Weight *float64 `json:"weight,omitempty"`
}

func (r evalResult) Header() []string {
	return []string{"ID", "LADDER", "INPUT", "RESULT", "RULE", "DEFAULTED"}
}

func (r evalResult) Rows() [][]string {
	return [][]string{{
		r.ID,
		r.Ladder,
		formatValue(r.Input),
		formatValue(r.Result),
		r.RuleName,
		strconv.FormatBool(r.Defaulted),
	}}
}

func runEval(cmd *cobra.Command, opts *globalOptions, flags *evalOptions, args []string) error {
	format, formatter, err := opts.formatter()
	if err != nil {
		return err
	}
	cfg, logger, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg, logger, flags.file)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	defer eng.Close()

	if cfg.Records.Enabled {
		rec, _, closeRecords, err := openRecorder(cfg, logger)
		if err != nil {
			return cli.NewCommandError("eval", err)
		}
		defer closeRecords()
		eng.SetRecorder(rec)
	}

	name := args[0]
	l, ok := eng.Ladder(name)
	if !ok {
		return cli.NewCommandError("eval", &engine.LadderNotFoundError{Name: name})
	}

	var raw string
	switch {
	case len(args) == 2:
		raw = args[1]
	case name == catalog.SnappleFacts:
		raw = strconv.Itoa(rand.IntN(6))
	default:
		return cli.Usagef("ladder %q needs an input argument", name)
	}

	input, err := engine.ParseInput(raw, l.Definition().Input.Type)
	if err != nil {
		return cli.Usagef("invalid input for %s: %v", name, err)
	}

	decision, err := eng.Evaluate(cmd.Context(), name, input)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	result := evalResult{Decision: decision}
	if cmd.Flags().Changed("weight") {
		if factor, ok := gravityFactor(decision.Result); ok {
			w := flags.weight * factor
			result.Weight = &w
		}
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatText {
		return writeEvalText(out, result, opts.verbose)
	}
	return formatter.FormatTo(out, result)
}

func writeEvalText(w io.Writer, r evalResult, verbose bool) error {
	line := formatValue(r.Result)
	if r.Weight != nil {
		line = fmt.Sprintf("Your weight on %v: %.2f", planetName(r.Result), *r.Weight)
	}
	if verbose {
		rule := r.RuleName
		if r.Defaulted {
			rule = "default"
		}
		line = fmt.Sprintf("%s (rule: %s, %s)", line, rule, r.Duration)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// gravityFactor extracts the factor from a planet-weights result.
func gravityFactor(v interface{}) (float64, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch f := m["factor"].(type) {
	case float64:
		return f, true
	case int:
		return float64(f), true
	default:
		return 0, false
	}
}

func planetName(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m["planet"]
	}
	return v
}

// formatValue renders results for text output. Maps print as sorted
// key=value pairs.
func formatValue(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Sprint(v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}
