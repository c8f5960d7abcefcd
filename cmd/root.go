// Copyright © 2018 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/luthersystems/rktgrade/diagnostic"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/store"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys.  Each can be set in the config file, with a flag or
// through an RKTGRADE_ environment variable (RKTGRADE_STORE_PATH for
// store.path).
const (
	keyMaxSteps    = "max-steps"
	keyTimeout     = "timeout"
	keyStorePath   = "store.path"
	keyProblemsDir = "problems.dir"
	keyExamsDir    = "exams.dir"
	keyLogLevel    = "log.level"
	keyLogFormat   = "log.format"
	keyColor       = "color"
)

var cfgFile string

// appFs is the file system problems, exams and the store are read from.
var appFs = afero.NewOsFs()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rktgrade",
	Short: "rktgrade: run and grade Racket-style exercises",
	Long: `rktgrade runs programs written in a teaching subset of Racket and grades
them against hidden test cases.

Getting started:
  rktgrade run file.rkt                 Run a program
  rktgrade run -e '(+ 1 2)'            Evaluate an expression
  rktgrade run --problem sum-list f.rkt Run a solution with the problem's hidden cases
  rktgrade grade --problem sum-list f.rkt
                                        Grade a solution (all or nothing)
  rktgrade problems                     List practice problems
  rktgrade exam list                    List exams
  rktgrade repl                         Start an interactive REPL
  rktgrade lint file.rkt                Run static analysis checks
  rktgrade fmt file.rkt                 Format source code
  rktgrade expand file.rkt              Print a program after struct, local and
                                        match forms are rewritten

Language overview:
  Programs are sequences of definitions, tests and expressions.  Functions
  are defined with (define (name args) body), structures with
  (define-struct name (field ...)).  match, local, cond, let, let* and
  letrec are available, as are check-expect and check-within.

Configuration is read from $HOME/.rktgrade.yaml and RKTGRADE_ environment
variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := diagnostic.ParseColorMode(viper.GetString(keyColor)); err != nil {
			return err
		}
		log := logging.New(viper.GetString(keyLogLevel), viper.GetString(keyLogFormat), os.Stderr)
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logging.WithLogger(ctx, log))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rktgrade.yaml)")
	flags.String(keyColor, "auto", `Control colored output: "auto", "always", or "never".`)
	flags.Int64(keyMaxSteps, lisp.DefaultMaxSteps, "Evaluation step ceiling (0 means unlimited).")
	flags.Duration(keyTimeout, 10*time.Second, "Wall-clock limit for grading one submission.")
	flags.String("store", "", "Progress store file (default is $HOME/.rktgrade/store.json).")
	flags.String("problems", "problems", "Directory holding the problem index and documents.")
	flags.String("exams", "exams", "Directory holding the exam index and documents.")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error.")
	flags.String("log-format", "text", `Log format: "text" or "json".`)

	bind := func(key, flag string) {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	bind(keyColor, keyColor)
	bind(keyMaxSteps, keyMaxSteps)
	bind(keyTimeout, keyTimeout)
	bind(keyStorePath, "store")
	bind(keyProblemsDir, "problems")
	bind(keyExamsDir, "exams")
	bind(keyLogLevel, "log-level")
	bind(keyLogFormat, "log-format")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			// Search config in home directory with name ".rktgrade" (without extension).
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".rktgrade")
	}

	viper.SetEnvPrefix("RKTGRADE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// storePath returns the configured store file.
func storePath() string {
	if p := viper.GetString(keyStorePath); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rktgrade-store.json"
	}
	return filepath.Join(home, ".rktgrade", "store.json")
}

// openStore opens the progress store, creating its directory if needed.
func openStore() (*store.FileStore, error) {
	path := storePath()
	if err := appFs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return store.Open(appFs, path)
}

func maxSteps() int64 {
	return viper.GetInt64(keyMaxSteps)
}
