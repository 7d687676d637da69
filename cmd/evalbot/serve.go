package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xilef-bot/evalbot/internal/infrastructure/server"
)

var (
	servePort     string
	serveTelegram bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and, when enabled, the Telegram bot",
	Long: `Serve the debug command over HTTP and Telegram until interrupted.

Configuration is read from the environment (and a .env file):
  PORT, HOST, HTTP_ENABLED            HTTP listener
  SANDBOX_*                           evaluation limits and module surface
  TELEGRAM_ENABLED, TELEGRAM_TOKEN,
  TELEGRAM_OPERATORS                  chat transport
  RATE_LIMIT_*                        per-client limits`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveTelegram, "telegram", false, "enable the Telegram bot (overrides TELEGRAM_ENABLED)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Server.Port = servePort
	}
	if serveTelegram {
		cfg.Telegram.Enabled = true
		if err := cfg.Validate(); err != nil {
			return &exitError{code: ExitUsage, err: err}
		}
	}
	if !cfg.Server.Enabled && !cfg.Telegram.Enabled {
		return &exitError{code: ExitUsage, err: errors.New("nothing to serve: enable HTTP or Telegram")}
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, logger, version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
