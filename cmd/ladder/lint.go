package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"mercator-hq/ladder/pkg/cli"
	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/ladder/parser"
)

type lintOptions struct {
	file   string
	dir    string
	glob   string
	strict bool
}

func newLintCmd(opts *globalOptions) *cobra.Command {
	flags := &lintOptions{}
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate ladder files",
		Long: `Validate ladder files for syntax and semantic errors.

The lint command parses each file and compiles it the way the engine
would:
  - YAML syntax validation
  - Ladder structure (rules, default, input type)
  - Operator and operand validation

Ladders without a description or example cases produce warnings.

Examples:
  # Lint single file
  ladder lint --file ladders/grades.yaml

  # Lint directory (recursively)
  ladder lint --dir ladders/

  # Lint files matching a pattern
  ladder lint --glob 'teams/**/ladders/*.yaml'

  # Strict mode (warnings as errors)
  ladder lint --dir ladders/ --strict

  # JSON output for CI/CD
  ladder lint --dir ladders/ -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "ladder file to validate")
	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "directory of ladder files, searched recursively")
	cmd.Flags().StringVarP(&flags.glob, "glob", "g", "", "glob of ladder files (supports **)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "treat warnings as errors and reject unknown fields")

	return cmd
}

// ValidationResult represents the validation result for a single ladder file.
type ValidationResult struct {
	File     string            `json:"file"`
	Ladder   string            `json:"ladder,omitempty"`
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// ValidationIssue represents a single validation error or warning.
type ValidationIssue struct {
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Type     string `json:"type,omitempty"`
}

// lintReport renders results as one row per issue.
type lintReport []ValidationResult

func (r lintReport) Header() []string {
	return []string{"FILE", "LINE", "COLUMN", "SEVERITY", "TYPE", "MESSAGE"}
}

func (r lintReport) Rows() [][]string {
	var rows [][]string
	for _, res := range r {
		for _, issue := range append(append([]ValidationIssue{}, res.Errors...), res.Warnings...) {
			rows = append(rows, []string{
				res.File,
				strconv.Itoa(issue.Line),
				strconv.Itoa(issue.Column),
				issue.Severity,
				issue.Type,
				issue.Message,
			})
		}
	}
	return rows
}

func runLint(cmd *cobra.Command, opts *globalOptions, flags *lintOptions) error {
	format, formatter, err := opts.formatter()
	if err != nil {
		return err
	}
	if flags.file == "" && flags.dir == "" && flags.glob == "" {
		return cli.Usagef("one of --file, --dir or --glob must be specified")
	}

	files, err := ladderFiles(flags.file, flags.dir, flags.glob)
	if err != nil {
		return err
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateLadderFile(file, flags.strict))
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatText {
		return outputLintText(out, results, flags.strict)
	}
	if err := formatter.FormatTo(out, lintReport(results)); err != nil {
		return err
	}
	return lintVerdict(results, flags.strict)
}

// ladderFiles lists the file, every *.yaml and *.yml file under dir and
// every match of pattern, without duplicates.
func ladderFiles(file, dir, pattern string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(paths ...string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
		}
	}

	if file != "" {
		add(filepath.Clean(file))
	}
	if dir != "" {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, "**", "*.{yaml,yml}"))
		if err != nil {
			return nil, fmt.Errorf("failed to list ladder files: %w", err)
		}
		add(matches...)
	}
	if pattern != "" {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, cli.Usagef("invalid --glob pattern %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to list ladder files: %w", err)
		}
		add(matches...)
	}
	if len(files) == 0 {
		return nil, cli.Usagef("no ladder files found")
	}
	return files, nil
}

func validateLadderFile(path string, strict bool) ValidationResult {
	result := ValidationResult{File: path, Valid: true}

	l, err := parser.NewParser().WithStrictMode(strict).Parse(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, issuesFromError(err)...)
		return result
	}
	result.Ladder = l.Name

	if _, err := engine.Compile(l); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, issuesFromError(err)...)
		return result
	}

	if l.Description == "" {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Message:  "ladder has no description",
			Severity: "warning",
		})
	}
	if len(l.Cases) == 0 {
		result.Warnings = append(result.Warnings, ValidationIssue{
			Message:  "ladder has no example cases; `ladder test` has nothing to run",
			Severity: "warning",
		})
	}

	return result
}

func issuesFromError(err error) []ValidationIssue {
	if list, ok := parser.AsErrorList(err); ok {
		issues := make([]ValidationIssue, 0, len(list.Errors))
		for _, e := range list.Errors {
			issues = append(issues, issueFromParseError(e))
		}
		return issues
	}

	var parseErr *parser.Error
	if errors.As(err, &parseErr) {
		return []ValidationIssue{issueFromParseError(parseErr)}
	}

	var compileErr *engine.CompileError
	if errors.As(err, &compileErr) {
		return []ValidationIssue{{Message: compileErr.Error(), Severity: "error", Type: "semantic"}}
	}

	return []ValidationIssue{{Message: err.Error(), Severity: "error"}}
}

func issueFromParseError(e *parser.Error) ValidationIssue {
	msg := e.Message
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Suggestion)
	}
	return ValidationIssue{
		Line:     e.Location.Line,
		Column:   e.Location.Column,
		Message:  msg,
		Severity: "error",
		Type:     string(e.Type),
	}
}

func outputLintText(w io.Writer, results []ValidationResult, strict bool) error {
	totalErrors := 0
	totalWarnings := 0

	for _, result := range results {
		fmt.Fprintf(w, "Validating %s...\n", result.File)

		if len(result.Errors) == 0 {
			fmt.Fprintln(w, "✓ Syntax valid")
			fmt.Fprintln(w, "✓ All rules compile")
		}

		for _, issue := range result.Errors {
			fmt.Fprintf(w, "✗ Error: %s%s\n", issue.Message, issueSuffix(issue))
			totalErrors++
		}
		for _, issue := range result.Warnings {
			fmt.Fprintf(w, "⚠  Warning: %s%s\n", issue.Message, issueSuffix(issue))
			totalWarnings++
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d error(s), %d warning(s)\n", totalErrors, totalWarnings)
	if strict && totalWarnings > 0 {
		fmt.Fprintln(w, "  Strict mode enabled: treating warnings as errors")
	}

	return lintVerdict(results, strict)
}

func issueSuffix(issue ValidationIssue) string {
	s := ""
	if issue.Line > 0 {
		s = fmt.Sprintf(" (line %d", issue.Line)
		if issue.Column > 0 {
			s += fmt.Sprintf(", col %d", issue.Column)
		}
		s += ")"
	}
	if issue.Type != "" {
		s += fmt.Sprintf(" [%s]", issue.Type)
	}
	return s
}

func lintVerdict(results []ValidationResult, strict bool) error {
	for _, r := range results {
		if len(r.Errors) > 0 || (strict && len(r.Warnings) > 0) {
			return cli.NewCommandError("lint", fmt.Errorf("validation failed"))
		}
	}
	return nil
}
