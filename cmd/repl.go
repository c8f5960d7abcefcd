// Copyright © 2018 The ELPS authors

package cmd

import (
	"github.com/luthersystems/rktgrade/repl"
	"github.com/spf13/cobra"
)

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive REPL",
	Long: `Start an interactive read-eval-print loop.

The Racket library is loaded and define-struct, local and match are
available.  Input continues over several lines until its brackets balance.
Line editing, tab completion and command history are supported via
readline.  Use Ctrl-D to exit; Ctrl-C discards a partial input.

Example REPL session:
  rkt> (define (square x) (* x x))
  rkt> (square 5)
  25
  rkt> (define-struct posn (x y))
  rkt> (posn-x (make-posn 3 4))
  3
  rkt> (check-expect (square 2) 4)
  #t`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repl.RunRepl("rkt> ", repl.WithMaxSteps(maxSteps()))
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
