// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/luthersystems/rktgrade/diagnostic"
	"github.com/luthersystems/rktgrade/formatter"
	"github.com/luthersystems/rktgrade/rewrite"
	"github.com/luthersystems/rktgrade/source"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	expandFlat  bool
	splitSorted bool
)

var expandCmd = &cobra.Command{
	Use:   "expand [file]",
	Short: "Print a program after rewriting",
	Long: `Print a program after define-struct, local and match forms have been
rewritten into the core language the evaluator runs.

Output is pretty printed by the formatter unless --flat is given, which
prints one top-level form per line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, src, err := readProgram(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		nodes, err := rewrite.NewPipeline().RewriteString(name, src)
		if err != nil {
			renderError(os.Stderr, err, diagnostic.Sources{name: src})
			os.Exit(1)
		}
		w := cmd.OutOrStdout()
		if expandFlat {
			for _, n := range nodes {
				fmt.Fprintln(w, n) //nolint:errcheck // best-effort console output
			}
			return nil
		}
		_, err = w.Write(formatter.FormatNodes(nodes, formatter.DefaultConfig()))
		return err
	},
}

var splitCmd = &cobra.Command{
	Use:   "split [file]",
	Short: "Print the top-level forms of a program",
	Long: `Print the top-level forms of a program with their kind and line.

Unbalanced text is dropped, as it is when a program runs.  With --eval-order
the forms are listed in the order they run: definitions first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, src, err := readProgram(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		forms := source.Split(src)
		if splitSorted {
			forms = source.EvalOrder(forms)
		}
		w := cmd.OutOrStdout()
		for _, f := range forms {
			fmt.Fprintf(w, "%d\t%s\t%s\n", f.Line, f.Kind, f.Text) //nolint:errcheck // best-effort console output
		}
		return nil
	},
}

// readProgram returns the name and text of the file in args, or of stdin
// when args is empty.
func readProgram(stdin io.Reader, args []string) (string, string, error) {
	if len(args) == 0 {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return "<stdin>", string(b), nil
	}
	b, err := afero.ReadFile(appFs, args[0])
	if err != nil {
		return "", "", err
	}
	return args[0], string(b), nil
}

func init() {
	rootCmd.AddCommand(expandCmd, splitCmd)

	expandCmd.Flags().BoolVar(&expandFlat, "flat", false,
		"Print one top-level form per line instead of pretty printing.")
	splitCmd.Flags().BoolVar(&splitSorted, "eval-order", false,
		"List definitions before the other forms.")
}
