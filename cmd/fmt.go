// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/rktgrade/formatter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	fmtWrite      bool
	fmtDiff       bool
	fmtList       bool
	fmtIndentSize int
	fmtMaxWidth   int
	fmtExcludes   []string
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] [files...]",
	Short: "Format program source files",
	Long: `Format program source files, similar to gofmt for Go.

Normalizes whitespace and indentation, aligns forms according to Racket
conventions, keeps square brackets where they were written and preserves
comments. The formatter is idempotent.

With no files, reads from stdin and writes to stdout.
With files, prints formatted output to stdout unless -w is given.

Modes:
  (default)   Print formatted code to stdout
  -w          Write result back to source file
  -d          Display a diff of changes
  -l          List files that would be changed

Examples:
  rktgrade fmt file.rkt               Print formatted output
  rktgrade fmt -w file.rkt            Format in place
  rktgrade fmt -w ./...               Format all .rkt files in place
  rktgrade fmt -d file.rkt            Show what would change
  rktgrade fmt -l *.rkt               List files needing formatting
  cat file.rkt | rktgrade fmt         Format from stdin
  rktgrade fmt --indent-size 4 f.rkt  Use 4-space indentation`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := formatter.DefaultConfig()
		cfg.IndentSize = fmtIndentSize
		cfg.MaxWidth = fmtMaxWidth
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			if err := fmtStdin(cmd.InOrStdin(), out, cfg); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}

		expanded, err := expandArgs(args, fmtExcludes)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		exitCode := 0
		for _, path := range expanded {
			changed, err := fmtFile(out, path, cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				exitCode = 1
			} else if fmtList && changed {
				exitCode = 1
			}
		}
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func fmtStdin(in io.Reader, w io.Writer, cfg *formatter.Config) error {
	src, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	out, err := formatter.Format(src, cfg)
	if err != nil {
		return fmt.Errorf("<stdin>: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func fmtFile(w io.Writer, path string, cfg *formatter.Config) (bool, error) {
	src, err := afero.ReadFile(appFs, path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	out, err := formatter.FormatFile(src, path, cfg)
	if err != nil {
		return false, err
	}

	changed := string(src) != string(out)

	if fmtList {
		if changed {
			fmt.Fprintln(w, path)
		}
		return changed, nil
	}

	if fmtDiff {
		if changed {
			printUnifiedDiff(w, path, src, out)
		}
		return changed, nil
	}

	if fmtWrite {
		if !changed {
			return false, nil
		}
		info, err := appFs.Stat(path)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		return true, afero.WriteFile(appFs, path, out, info.Mode().Perm())
	}

	// Default: print to stdout
	_, err = w.Write(out)
	return changed, err
}

func printUnifiedDiff(w io.Writer, path string, original, formatted []byte) {
	// Simple line-by-line diff output
	fmt.Fprintf(w, "--- %s\n", path)
	fmt.Fprintf(w, "+++ %s\n", path)

	origLines := splitLines(original)
	fmtLines := splitLines(formatted)

	i, j := 0, 0
	for i < len(origLines) || j < len(fmtLines) {
		if i < len(origLines) && j < len(fmtLines) && origLines[i] == fmtLines[j] {
			fmt.Fprintf(w, " %s\n", origLines[i])
			i++
			j++
		} else if i < len(origLines) {
			fmt.Fprintf(w, "-%s\n", origLines[i])
			i++
		} else {
			fmt.Fprintf(w, "+%s\n", fmtLines[j])
			j++
		}
	}
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false,
		"Write result to (source) file instead of stdout.")
	fmtCmd.Flags().BoolVarP(&fmtDiff, "diff", "d", false,
		"Display diffs instead of rewriting files.")
	fmtCmd.Flags().BoolVarP(&fmtList, "list", "l", false,
		"List files whose formatting differs from rktgrade fmt's.")
	fmtCmd.Flags().IntVar(&fmtIndentSize, "indent-size", 2,
		"Number of spaces per indentation level.")
	fmtCmd.Flags().IntVar(&fmtMaxWidth, "max-width", 80,
		"Column at which generated code is broken across lines.")
	fmtCmd.Flags().StringArrayVar(&fmtExcludes, "exclude", nil,
		"Glob pattern for files to exclude (may be repeated).")
}
