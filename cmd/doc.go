// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/luthersystems/rktgrade/docs"
	"github.com/luthersystems/rktgrade/lint"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/spf13/cobra"
)

var docList bool

var docCmd = &cobra.Command{
	Use:   "doc [name]",
	Short: "Show the language reference or a library function",
	Long: `Show documentation.

With no arguments, prints the language reference.  With a name, prints
whether it is a special form or a library function and the number of
arguments it accepts.

Examples:
  rktgrade doc              Print the language reference
  rktgrade doc foldl        Show the arity of foldl
  rktgrade doc --list       List every special form and library function`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch {
		case docList:
			printGlobals(w)
			return nil
		case len(args) == 0:
			_, err := io.WriteString(w, docs.LangGuide)
			return err
		}
		v, ok := lint.Globals()[args[0]]
		if !ok {
			return fmt.Errorf("no documentation for %q", args[0])
		}
		_, err := io.WriteString(w, describeGlobal(args[0], v)+"\n")
		return err
	},
}

func describeGlobal(name string, v *lisp.LVal) string {
	if v.IsSpecialOp() {
		return name + ": special form"
	}
	fd := v.FunData()
	if fd == nil {
		return name + ": function"
	}
	switch {
	case fd.MaxArgs < 0:
		return fmt.Sprintf("%s: function accepting %d or more arguments", name, fd.MinArgs)
	case fd.MinArgs == fd.MaxArgs:
		return fmt.Sprintf("%s: function accepting %d argument(s)", name, fd.MinArgs)
	default:
		return fmt.Sprintf("%s: function accepting %d to %d arguments", name, fd.MinArgs, fd.MaxArgs)
	}
}

func printGlobals(w io.Writer) {
	globals := lint.Globals()
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, describeGlobal(name, globals[name])) //nolint:errcheck // best-effort console output
	}
}

func init() {
	rootCmd.AddCommand(docCmd)

	docCmd.Flags().BoolVar(&docList, "list", false,
		"List every special form and library function.")
}
