// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/rktgrade/exam"
	"github.com/luthersystems/rktgrade/harness"
	"github.com/luthersystems/rktgrade/problem"
	"github.com/luthersystems/rktgrade/store"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	examAnswers string
	examJSON    bool
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "List, show and grade exams",
}

var examListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exams with their status and score",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		entries, err := loadExams(cmd.Context(), st)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, e := range entries {
			status := "not taken"
			if e.Completed {
				status = "completed"
			}
			if e.Score != nil {
				status = fmt.Sprintf("%d/%d (%d%%, %s)", *e.Score, e.TotalPoints, e.Percentage(), exam.LetterGrade(e.Percentage()))
			}
			fmt.Fprintf(w, "%-20s %-40s %-8s %s\n", e.ID, e.Title, e.Time, status)
		}
		return nil
	},
}

var examShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print an exam's content and questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		e, err := findExam(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		printExam(cmd.OutOrStdout(), e.Exam)
		return nil
	},
}

var examGradeCmd = &cobra.Command{
	Use:   "grade ID",
	Short: "Grade an exam",
	Long: `Grade every question of an exam.

Answers are read from the file given with --answers, a JSON or YAML map
from question number to answer, and merged over the answers saved by
earlier runs.  Code questions without an answer are graded with their
starter code.  The answers, the completion flag and the score are saved.

Example answers file:
  "1": {type: text, answer: "42"}
  "2": {type: code, code: "(define (double x) (* 2 x))"}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		e, err := findExam(ctx, st, args[0])
		if err != nil {
			return err
		}
		answers, err := exam.LoadAnswers(st, e.Exam)
		if err != nil {
			return err
		}
		if examAnswers != "" {
			b, err := afero.ReadFile(appFs, examAnswers)
			if err != nil {
				return err
			}
			var given exam.Answers
			if err := problem.Decode(examAnswers, b, &given); err != nil {
				return fmt.Errorf("answers: %w", err)
			}
			for id, a := range given {
				answers[id] = a
			}
		}

		g := exam.NewGrader(st)
		g.Harness = harness.NewGrader()
		g.Harness.Timeout = viper.GetDuration(keyTimeout)
		g.Harness.MaxSteps = maxSteps()
		res, err := g.Grade(ctx, e.Exam, answers)
		if err != nil {
			return err
		}
		if examJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printExamResult(cmd.OutOrStdout(), res)
		return nil
	},
}

func loadExams(ctx context.Context, st store.Store) ([]*exam.Entry, error) {
	dir := viper.GetString(keyExamsDir)
	entries, err := exam.LoadCatalog(ctx, appFs, dir, st)
	if err != nil {
		return nil, fmt.Errorf("exams %s: %w", dir, err)
	}
	return entries, nil
}

func findExam(ctx context.Context, st store.Store, key string) (*exam.Entry, error) {
	entries, err := loadExams(ctx, st)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == key || e.File == key {
			return e, nil
		}
	}
	return nil, fmt.Errorf("unknown exam %q", key)
}

func printExam(w io.Writer, e *exam.Exam) {
	fmt.Fprintf(w, "%s (%s, %d points)\n", e.Title, e.Time, e.TotalPoints)
	if e.Description != "" {
		fmt.Fprintln(w, wrapText(e.Description, 2))
	}
	n := 0
	var walk func(items []exam.Item, depth uint)
	walk = func(items []exam.Item, depth uint) {
		for i := range items {
			it := &items[i]
			switch it.Type {
			case exam.TypeSection:
				fmt.Fprintf(w, "\n%s\n", indent.String(it.Title, depth*2))
				walk(it.Items, depth+1)
			case exam.TypeQuestion:
				n++
				fmt.Fprintf(w, "\n%s\n", indent.String(fmt.Sprintf("Question %d (%d points)", n, it.MaxPoints()), depth*2))
				fmt.Fprintln(w, wrapText(it.Content, depth*2+2))
				if it.StarterCode != "" {
					fmt.Fprintln(w, indent.String(strings.TrimRight(it.StarterCode, "\n"), depth*2+4))
				}
			case exam.TypeCode:
				fmt.Fprintln(w, indent.String(strings.TrimRight(it.Content, "\n"), depth*2+4))
			default:
				fmt.Fprintln(w, wrapText(it.Content, depth*2))
			}
		}
	}
	walk(e.Content, 0)
}

func printExamResult(w io.Writer, res *exam.Result) {
	for _, q := range res.Questions {
		line := fmt.Sprintf("Question %d: %d/%d", q.Number, q.Points, q.MaxPoints)
		if q.Grading != nil {
			line += fmt.Sprintf(" (%d/%d hidden cases", q.Grading.Passed, q.Grading.Total)
			if q.Grading.Reason != harness.ReasonNone {
				line += ", " + string(q.Grading.Reason)
			}
			line += ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Score: %d/%d (%d%%)\nGrade: %s\nCorrect: %d/%d\n",
		res.Score, res.TotalPoints, res.Percentage, res.Grade, res.Correct, len(res.Questions))
}

// wrapText word wraps s at the default width and indents it by n spaces.
func wrapText(s string, n uint) string {
	s = strings.TrimSpace(s)
	width := 80 - int(n)
	if width < 20 {
		width = 20
	}
	return indent.String(wordwrap.String(s, width), n)
}

func init() {
	rootCmd.AddCommand(examCmd)
	examCmd.AddCommand(examListCmd, examShowCmd, examGradeCmd)

	examGradeCmd.Flags().StringVar(&examAnswers, "answers", "",
		"JSON or YAML file of answers keyed by question number.")
	examGradeCmd.Flags().BoolVar(&examJSON, "json", false,
		"Print the result as JSON.")
}
