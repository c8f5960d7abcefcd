// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/rktgrade/problem"
	"github.com/luthersystems/rktgrade/store"
	"github.com/muesli/reflow/indent"
	"github.com/spf13/cobra"
)

var problemFilter problem.Filter

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List practice problems",
	Long: `List practice problems with their completion status.

Examples:
  rktgrade problems
  rktgrade problems --difficulty easy --status incomplete
  rktgrade problems show sum-list
  rktgrade problems toggle sum-list`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		c, err := loadProblems(cmd.Context(), st)
		if err != nil {
			return err
		}
		printProblems(cmd.OutOrStdout(), c, problemFilter)
		return nil
	},
}

var problemsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a problem with its examples and code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		e, err := findProblem(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		code, ok, err := st.Get(store.ProblemCode(e.ID))
		if err != nil {
			return err
		}
		if !ok {
			code = e.StarterCode
		}
		printProblem(cmd.OutOrStdout(), e, code)
		return nil
	},
}

var problemsToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Flip a problem's completion status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		c, err := loadProblems(cmd.Context(), st)
		if err != nil {
			return err
		}
		if err := c.Toggle(st, args[0]); err != nil {
			return err
		}
		e, _ := c.Find(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", e.ID, completionText(e.Completed))
		return nil
	},
}

func completionText(done bool) string {
	if done {
		return "completed"
	}
	return "incomplete"
}

func printProblems(w io.Writer, c *problem.Catalog, f problem.Filter) {
	for _, e := range c.Filter(f) {
		mark := " "
		if e.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s] %-20s %-40s %-8s %s\n", mark, e.ID, e.Title, e.Difficulty, e.Category)
	}
	s := c.Stats()
	fmt.Fprintf(w, "\n%d problems, %d completed, %d remaining\n", s.Total, s.Completed, s.Remaining)
}

func printProblem(w io.Writer, e *problem.Entry, code string) {
	fmt.Fprintf(w, "%s [%s", e.Title, e.Difficulty)
	if e.Category != "" {
		fmt.Fprintf(w, ", %s", e.Category)
	}
	fmt.Fprintf(w, "] %s\n\n", completionText(e.Completed))
	if e.Description != "" {
		fmt.Fprintln(w, wrapText(e.Description, 2))
	}
	for i, ex := range e.Examples {
		fmt.Fprintf(w, "\n  Example %d:\n", i+1)
		fmt.Fprintln(w, indent.String("Input:  "+ex.Input, 4))
		fmt.Fprintln(w, indent.String("Output: "+ex.Output, 4))
		if ex.Explanation != "" {
			fmt.Fprintln(w, wrapText(ex.Explanation, 4))
		}
	}
	if code = strings.TrimRight(code, "\n"); code != "" {
		fmt.Fprintf(w, "\n%s\n", code)
	}
}

func init() {
	rootCmd.AddCommand(problemsCmd)
	problemsCmd.AddCommand(problemsShowCmd, problemsToggleCmd)

	problemsCmd.Flags().StringVar(&problemFilter.Difficulty, "difficulty", "",
		"Only list problems of this difficulty.")
	problemsCmd.Flags().StringVar(&problemFilter.Category, "category", "",
		"Only list problems of this category.")
	problemsCmd.Flags().StringVar(&problemFilter.Status, "status", "",
		`Only list "completed" or "incomplete" problems.`)
}
