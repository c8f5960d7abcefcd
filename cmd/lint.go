// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/rktgrade/lint"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// LintCommand creates the "lint" cobra command.
func LintCommand() *cobra.Command {
	var (
		jsonOut  bool
		checks   string
		listAll  bool
		excludes []string
		required []string
		prob     string
	)

	cmd := &cobra.Command{
		Use:   "lint [flags] [files...]",
		Short: "Run static analysis checks on program source files",
		Long: `Run static analysis checks on program source files.

The linter reports likely mistakes in submissions, similar to "go vet" for
Go. Each check is an independent analyzer that examines the parsed program
and reports diagnostics. The linter does not report style issues; use
"rktgrade fmt" for that.

With no files, reads from stdin. With files, analyzes each file and reports
all findings to stderr.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  (define (list x) x) ; nolint:shadowed-builtin

To suppress all checks on a line:
  (define (list x) x) ; nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  rktgrade lint file.rkt                       # Lint a single file
  rktgrade lint ./...                          # Lint every .rkt file below .
  rktgrade lint --json file.rkt                # Output diagnostics as JSON
  rktgrade lint --checks=if-arity file.rkt     # Run only specific checks
  rktgrade lint --problem sum-list file.rkt    # Require the problem's functions
  rktgrade lint --list                         # List available checks
  cat file.rkt | rktgrade lint                 # Lint from stdin`,
		Run: func(cmd *cobra.Command, args []string) {
			if listAll {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return
			}

			analyzers, err := selectAnalyzers(checks)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rktgrade lint: %v\n", err)
				os.Exit(2)
			}
			l := &lint.Linter{Analyzers: analyzers, Required: required}
			if prob != "" {
				e, err := findProblem(cmd.Context(), store.NewMemory(), prob)
				if err != nil {
					fmt.Fprintf(os.Stderr, "rktgrade lint: %v\n", err)
					os.Exit(2)
				}
				l.Required = append(l.Required, e.RequiredFunctions()...)
			}

			var diags []lint.Diagnostic
			if len(args) == 0 {
				diags, err = lintReader(l, cmd.InOrStdin())
			} else {
				diags, err = lintPaths(l, args, excludes)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			if len(diags) == 0 {
				return
			}
			if jsonOut {
				if err := lint.FormatJSON(cmd.OutOrStdout(), diags); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(2)
				}
			} else {
				renderLintDiagnostics(os.Stderr, diags)
			}
			os.Exit(1)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().StringVar(&checks, "checks", "",
		"Comma-separated list of checks to run (default: all).")
	cmd.Flags().BoolVar(&listAll, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
	cmd.Flags().StringSliceVar(&required, "require", nil,
		"Functions every file must define (may be repeated).")
	cmd.Flags().StringVar(&prob, "problem", "",
		"Require the functions of this problem's starter code.")
	return cmd
}

// selectAnalyzers returns the default analyzers named in the comma
// separated list checks, or all of them when checks is empty.
func selectAnalyzers(checks string) ([]*lint.Analyzer, error) {
	analyzers := lint.DefaultAnalyzers()
	if checks == "" {
		return analyzers, nil
	}
	selected := make(map[string]bool)
	for _, name := range strings.Split(checks, ",") {
		selected[strings.TrimSpace(name)] = true
	}
	var filtered []*lint.Analyzer
	for _, a := range analyzers {
		if selected[a.Name] {
			filtered = append(filtered, a)
			delete(selected, a.Name)
		}
	}
	for name := range selected {
		return nil, fmt.Errorf("unknown check: %s", name)
	}
	return filtered, nil
}

func lintReader(l *lint.Linter, r io.Reader) ([]lint.Diagnostic, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	return l.LintFile(src, "<stdin>")
}

func lintPaths(l *lint.Linter, args, excludes []string) ([]lint.Diagnostic, error) {
	expanded, err := expandArgs(args, excludes)
	if err != nil {
		return nil, err
	}
	var all []lint.Diagnostic
	for _, path := range expanded {
		src, err := afero.ReadFile(appFs, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		diags, err := l.LintFile(src, path)
		if err != nil {
			return nil, err
		}
		all = append(all, diags...)
	}
	return all, nil
}

func init() {
	rootCmd.AddCommand(LintCommand())
}
