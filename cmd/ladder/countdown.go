package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/rules"
)

const (
	defaultCountdownFrom = 10
	defaultStarRows      = 24
	newYearMessage       = "Happy New Year! 🥳"
)

type countdownOptions struct {
	from  int
	stars bool
	rows  int
}

func newCountdownCmd() *cobra.Command {
	flags := &countdownOptions{}
	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Count down to the new year or draw a staircase",
		Long: `Count down from --from to 1 and wish a happy new year.

With --stars, print a staircase of asterisks instead: row i holds i
asterisks, each followed by a space, for --rows rows.

Examples:
  ladder countdown
  ladder countdown --from 3
  ladder countdown --stars --rows 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if flags.stars {
				return staircase(out, flags.rows)
			}
			return countdown(out, flags.from)
		},
	}

	cmd.Flags().IntVar(&flags.from, "from", defaultCountdownFrom, "number to count down from")
	cmd.Flags().BoolVar(&flags.stars, "stars", false, "print the asterisk staircase")
	cmd.Flags().IntVar(&flags.rows, "rows", defaultStarRows, "staircase rows")

	return cmd
}

// countdown prints from..1, one per line, then the new year message.
func countdown(w io.Writer, from int) error {
	if from < 1 {
		return cli.Usagef("--from must be at least 1, got %d", from)
	}
	seq, err := rules.Range(from, 0, -1)
	if err != nil {
		return err
	}
	for i := range seq {
		if _, err := fmt.Fprintln(w, i); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w, newYearMessage)
	return err
}

// staircase prints rows lines where line i is "* " repeated i times.
func staircase(w io.Writer, rows int) error {
	if rows < 1 {
		return cli.Usagef("--rows must be at least 1, got %d", rows)
	}
	seq, err := rules.Range(1, rows+1, 1)
	if err != nil {
		return err
	}
	for i := range seq {
		if _, err := fmt.Fprintln(w, strings.Repeat("* ", i)); err != nil {
			return err
		}
	}
	return nil
}
