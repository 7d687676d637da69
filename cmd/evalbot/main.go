// Command evalbot runs JavaScript snippets in a restricted sandbox and reports
// their output over HTTP, Telegram or the terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/xilef-bot/evalbot/internal/dispatch"
	"github.com/xilef-bot/evalbot/internal/infrastructure/config"
	"github.com/xilef-bot/evalbot/internal/infrastructure/logging"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var rootCmd = &cobra.Command{
	Use:           "evalbot",
	Short:         "Run JavaScript snippets in a restricted sandbox.",
	Long:          dispatch.Help,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, runCmd, versionCmd)
	_ = godotenv.Load()
}

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := rootCmd.Execute(); err != nil {
		code := ExitFailure
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(code)
	}
}

// loadConfig reads the environment; flags override it afterwards.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, &exitError{code: ExitUsage, err: err}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
}
