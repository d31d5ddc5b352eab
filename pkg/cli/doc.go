/*
Package cli provides command-line helpers used by the ladder command.

Output Formatting:

Commands render results as text, JSON or CSV. Results implementing
Tabular print as aligned columns in text mode:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, decision); err != nil {
		return err
	}

Errors and Exit Codes:

ExitCode maps command errors to process exit codes: usage and
configuration errors exit 2, exhausted retry loops exit 3.

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
