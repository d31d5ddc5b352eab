package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/engine"
)

type testOptions struct {
	file   string
	ladder string
}

func newTestCmd(opts *globalOptions) *cobra.Command {
	flags := &testOptions{}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run ladder example cases",
		Long: `Run the example cases embedded in ladder files.

Every ladder may carry a cases list of input/expect pairs. The test
command evaluates each input and compares the result with the
expectation.

Case Format (YAML):
  cases:
    - name: sophomore
      input: 10
      expect: Sophomore

Examples:
  # Test the built-in and configured ladders
  ladder test

  # Test one file or directory
  ladder test --file ladders/

  # Test a single ladder
  ladder test --ladder seasons -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "ladder file or directory to test instead of the configured sources")
	cmd.Flags().StringVarP(&flags.ladder, "ladder", "l", "", "only test this ladder")

	return cmd
}

// caseOutcome is one executed example case.
type caseOutcome struct {
	Ladder   string      `json:"ladder"`
	Case     string      `json:"case"`
	Input    interface{} `json:"input"`
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual,omitempty"`
	Passed   bool        `json:"passed"`
	Error    string      `json:"error,omitempty"`
	Location string      `json:"location,omitempty"`
}

type testReport []caseOutcome

func (r testReport) Header() []string {
	return []string{"LADDER", "CASE", "INPUT", "EXPECTED", "ACTUAL", "PASSED"}
}

func (r testReport) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, c := range r {
		actual := formatValue(c.Actual)
		if c.Error != "" {
			actual = c.Error
		}
		rows = append(rows, []string{
			c.Ladder,
			c.Case,
			formatValue(c.Input),
			formatValue(c.Expected),
			actual,
			strconv.FormatBool(c.Passed),
		})
	}
	return rows
}

func (r testReport) failed() int {
	n := 0
	for _, c := range r {
		if !c.Passed {
			n++
		}
	}
	return n
}

func runTests(cmd *cobra.Command, opts *globalOptions, flags *testOptions) error {
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
		return cli.NewCommandError("test", err)
	}
	defer eng.Close()

	report, err := collectCases(eng, flags.ladder)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatText {
		writeTestText(out, report)
	} else if err := formatter.FormatTo(out, report); err != nil {
		return err
	}

	if n := report.failed(); n > 0 {
		return cli.NewCommandError("test", fmt.Errorf("%d of %d cases failed", n, len(report)))
	}
	return nil
}

func collectCases(eng *engine.Engine, only string) (testReport, error) {
	var report testReport
	found := false
	for _, info := range eng.Ladders() {
		if only != "" && info.Name != only {
			continue
		}
		found = true
		l, ok := eng.Ladder(info.Name)
		if !ok {
			continue
		}
		for _, res := range l.RunCases() {
			c := caseOutcome{
				Ladder:   info.Name,
				Case:     res.Name,
				Input:    res.Input,
				Expected: res.Expected,
				Actual:   res.Actual,
				Passed:   res.Passed,
			}
			if res.Err != nil {
				c.Error = res.Err.Error()
			}
			if res.Location.IsValid() {
				c.Location = res.Location.String()
			}
			report = append(report, c)
		}
	}
	if only != "" && !found {
		return nil, cli.NewCommandError("test", &engine.LadderNotFoundError{Name: only})
	}
	return report, nil
}

func writeTestText(w io.Writer, report testReport) {
	for _, c := range report {
		name := c.Case
		if name == "" {
			name = fmt.Sprintf("input=%s", formatValue(c.Input))
		}
		if c.Passed {
			fmt.Fprintf(w, "✓ PASS %s/%s\n", c.Ladder, name)
			continue
		}
		fmt.Fprintf(w, "✗ FAIL %s/%s", c.Ladder, name)
		if c.Location != "" {
			fmt.Fprintf(w, " (%s)", c.Location)
		}
		fmt.Fprintln(w)
		if c.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", c.Error)
		} else {
			fmt.Fprintf(w, "    expected: %s\n    actual:   %s\n", formatValue(c.Expected), formatValue(c.Actual))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d passed, %d failed\n", len(report)-report.failed(), report.failed())
}
