// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"

	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/lsp"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/cobra"
)

// LSPCommand creates the "lsp" cobra command.
func LSPCommand() *cobra.Command {
	var (
		stdio    bool
		port     int
		prob     string
		required []string
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the Language Server Protocol server",
		Long: `Start an LSP server for program source files.

The language server provides real-time IDE features including diagnostics
from the linter, hover documentation, go-to-definition, completion,
document symbols, folding and formatting.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  rktgrade lsp                           Start with stdio transport
  rktgrade lsp --problem sum-list        Report a missing sum-list definition
  rktgrade lsp --port 7998               Start with TCP on port 7998

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "rktgrade lsp --stdio" for .rkt files.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if prob != "" {
				e, err := findProblem(cmd.Context(), store.NewMemory(), prob)
				if err != nil {
					fmt.Fprintf(os.Stderr, "lsp: %v\n", err)
					os.Exit(2)
				}
				required = append(required, e.RequiredFunctions()...)
			}
			srv := lsp.New(lsp.WithRequired(required...))

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				logging.FromContext(cmd.Context()).Info("LSP server listening", "addr", addr)
				if err := srv.RunTCP(addr); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			} else {
				if err := srv.RunStdio(); err != nil {
					fmt.Fprintf(os.Stderr, "lsp server error: %v\n", err)
					os.Exit(1)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().StringVar(&prob, "problem", "",
		"Require the functions of this problem's starter code.")
	cmd.Flags().StringSliceVar(&required, "require", nil,
		"Functions every document must define.")
	return cmd
}

func init() {
	rootCmd.AddCommand(LSPCommand())
}
