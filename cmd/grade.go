// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/luthersystems/rktgrade/harness"
	"github.com/luthersystems/rktgrade/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var gradeJSON bool

var gradeCmd = &cobra.Command{
	Use:   "grade --problem ID [file]",
	Short: "Grade a solution against a problem's hidden cases",
	Long: `Grade a solution against the hidden test cases of a problem.

Grading is all or nothing: the solution earns its points only when every
hidden case passes.  Cases run after the solution in the same test
session, so a failing check-expect written in the solution also costs the
points.  A passing solution marks the problem complete.

With no file the solution is read from stdin.

Examples:
  rktgrade grade --problem sum-list solution.rkt
  rktgrade grade --problem sum-list --json < solution.rkt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runProblem == "" {
			return fmt.Errorf("grade: --problem is required")
		}
		src, err := runReadSource(args)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		cat, err := loadProblems(ctx, st)
		if err != nil {
			return err
		}
		e, ok := cat.Find(runProblem)
		if !ok {
			return fmt.Errorf("unknown problem %q", runProblem)
		}

		g := harness.NewGrader()
		g.Timeout = viper.GetDuration(keyTimeout)
		g.MaxSteps = maxSteps()
		res := g.Grade(ctx, harness.Submission{Source: src, HiddenCases: e.HiddenCases})
		if res.Points > 0 && res.Points == res.MaxPoints && !e.Completed {
			if err := cat.SetCompleted(st, e.ID, true); err != nil {
				logging.FromContext(ctx).Warn("Unable to mark problem complete", "problem", e.ID, "error", err)
			}
		}
		if gradeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printGrading(cmd.OutOrStdout(), res)
		return nil
	},
}

func printGrading(w io.Writer, res *harness.GradingResult) {
	if res.Reason != harness.ReasonNone && len(res.Results) == 0 {
		fmt.Fprintf(w, "%s\n", res.Reason)
	}
	for i, c := range res.Results {
		status := "passed"
		if !c.Passed {
			status = "failed"
			if c.Reason != harness.ReasonNone {
				status += " (" + string(c.Reason) + ")"
			}
		}
		fmt.Fprintf(w, "case %d: %s\n", i+1, status)
	}
	fmt.Fprintf(w, "Checks passed: %d (%d hidden cases)\nPoints: %d/%d\n", res.Passed, res.Total, res.Points, res.MaxPoints)
}

func init() {
	rootCmd.AddCommand(gradeCmd)

	gradeCmd.Flags().StringVar(&runProblem, "problem", "",
		"The problem whose hidden cases grade the solution.")
	gradeCmd.Flags().BoolVar(&gradeJSON, "json", false,
		"Print the grading result as JSON.")
}
