// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/luthersystems/rktgrade/harness"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/lisp/x/profiler"
	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	runExpression bool
	runProblem    string
	runProfile    string
	runTrace      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] [files...]",
	Short: "Run a program",
	Long: `Run a program supplied via the command line or files.

Files are concatenated into one program.  Definitions run first, then the
remaining forms in order.  The value of every expression that is neither a
definition nor a test is printed, followed by the test summary when the
program contains check-expect or check-within forms.

With --problem the program must define the problem's function and the
problem's hidden cases run after it.  When every hidden case passes the
problem is marked complete in the progress store.

Examples:
  rktgrade run file.rkt
  rktgrade run -e '(define (sq x) (* x x))' '(sq 4)'
  rktgrade run --problem sum-list solution.rkt
  rktgrade run --profile out.callgrind file.rkt
  rktgrade run --trace file.rkt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := runReadSource(args)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		req := harness.RunRequest{Source: src}
		if runProblem != "" {
			e, err := findProblem(ctx, st, runProblem)
			if err != nil {
				return err
			}
			req.Problem = e.Problem
			if err := st.Set(store.ProblemCode(e.ID), src); err != nil {
				logging.FromContext(ctx).Warn("Unable to save code", "problem", e.ID, "error", err)
			}
		}
		report, err := runProgram(ctx, st, req, cmd.OutOrStdout(), os.Stderr)
		if err != nil {
			return err
		}
		if report.Err != nil {
			os.Exit(1)
		}
		return nil
	},
}

func runReadSource(args []string) (string, error) {
	if len(args) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	if runExpression {
		return strings.Join(args, "\n"), nil
	}
	var b strings.Builder
	for _, path := range args {
		data, err := afero.ReadFile(appFs, path)
		if err != nil {
			return "", err
		}
		b.Write(data)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// runProgram runs req and writes the console transcript to stdout and the
// error, if any, to stderr.
func runProgram(ctx context.Context, st store.Store, req harness.RunRequest, stdout, stderr io.Writer) (*harness.RunReport, error) {
	if runProfile != "" && runTrace {
		return nil, errors.New("--profile and --trace cannot be combined")
	}
	runner := harness.NewRunner(st)
	runner.MaxSteps = maxSteps()

	var finish []func() error
	defer func() {
		for _, fn := range finish {
			if err := fn(); err != nil {
				logging.FromContext(ctx).Warn("Unable to finish profile", "error", err)
			}
		}
	}()

	switch {
	case runProfile != "":
		f, err := appFs.Create(runProfile)
		if err != nil {
			return nil, err
		}
		var prof lisp.Profiler
		runner.NewEvaluator = harness.DefaultEvaluator(func(env *lisp.LEnv) *lisp.LVal {
			prof = profiler.NewCallgrindProfiler(env.Runtime, f)
			return lisp.WithProfiler(prof)(env)
		})
		finish = append(finish, func() error {
			if prof == nil {
				return f.Close()
			}
			err := prof.Complete()
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		})
	case runTrace:
		exp := tracetest.NewInMemoryExporter()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		runner.Tracer = tp.Tracer(harness.TracerName)
		runner.NewEvaluator = harness.DefaultEvaluator(func(env *lisp.LEnv) *lisp.LVal {
			return lisp.WithProfiler(profiler.NewOpenTelemetryAnnotator(env.Runtime, ctx))(env)
		})
		finish = append(finish, func() error {
			otel.SetTracerProvider(prev)
			if err := tp.Shutdown(context.Background()); err != nil {
				return err
			}
			printSpans(stderr, exp.GetSpans())
			return nil
		})
	}

	report := runner.Run(ctx, req)
	printReport(stdout, stderr, report)
	return report, nil
}

// printReport writes console messages to stdout.  An evaluation error is
// rendered as a diagnostic on stderr instead of its console message.
func printReport(stdout, stderr io.Writer, report *harness.RunReport) {
	var lerr *lisp.ErrorVal
	evalErr := errors.As(report.Err, &lerr)
	// open is set while program output has not ended its line.
	open := false
	for _, m := range report.Messages {
		if m.Kind == harness.Output {
			fmt.Fprint(stdout, m.Text) //nolint:errcheck // best-effort console output
			open = !strings.HasSuffix(m.Text, "\n")
			continue
		}
		if open {
			fmt.Fprintln(stdout) //nolint:errcheck // best-effort console output
			open = false
		}
		if m.Kind == harness.Error {
			if !evalErr {
				fmt.Fprintln(stderr, m.Text) //nolint:errcheck // best-effort console output
			}
			continue
		}
		fmt.Fprintln(stdout, m.Text) //nolint:errcheck // best-effort console output
	}
	if open {
		fmt.Fprintln(stdout) //nolint:errcheck // best-effort console output
	}
	if evalErr {
		d := lispErrorToDiagnostic(lerr.LVal())
		// Forms are evaluated one at a time so their positions are relative
		// to the form.
		d.Spans = nil
		_ = newRenderer(nil).Render(stderr, d)
	}
}

func printSpans(w io.Writer, spans tracetest.SpanStubs) {
	for _, s := range spans {
		depth := 0
		for p := s.Parent; p.IsValid(); {
			depth++
			found := false
			for _, q := range spans {
				if q.SpanContext.SpanID() == p.SpanID() {
					p = q.Parent
					found = true
					break
				}
			}
			if !found {
				break
			}
		}
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", depth), s.Name, s.EndTime.Sub(s.StartTime).Round(time.Microsecond)) //nolint:errcheck // best-effort trace output
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Here flags for the run command are defined
	runCmd.Flags().BoolVarP(&runExpression, "expression", "e", false,
		"Interpret arguments as expressions")
	runCmd.Flags().StringVar(&runProblem, "problem", "",
		"Run the program against this problem's hidden cases.")
	runCmd.Flags().StringVar(&runProfile, "profile", "",
		"Write a Callgrind profile of the run to this file.")
	runCmd.Flags().BoolVar(&runTrace, "trace", false,
		"Print OpenTelemetry spans for the run and every function call to stderr.")
}
