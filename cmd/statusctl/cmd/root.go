// Package cmd contains the statusctl commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/statuswatch/statuswatch/internal/logging"
	"github.com/statuswatch/statuswatch/internal/provider"
)

// Version is set at compile time via ldflags.
var Version = "dev"

var (
	providersFile string
	logLevel      string
	logFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "statusctl",
	Short: "Track AI provider status pages",
	Long: `statusctl follows the incident feeds of AI provider status pages.

Examples:
  # Watch the OpenAI feed and print new incidents as they appear
  statusctl track

  # Watch every configured provider with Prometheus metrics on :9464
  statusctl track --all --metrics-addr :9464

  # Build the static status documents once
  statusctl snapshot --out frontend/public/data`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providersFile, "providers-file", os.Getenv("PROVIDERS_FILE"), "YAML provider table (default: built-in providers)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "log format (console, json)")
}

func newLogger() (zerolog.Logger, error) {
	return logging.New(logging.Config{
		Level:   logLevel,
		Format:  logFormat,
		Service: "statusctl",
		Version: Version,
		Output:  os.Stderr,
	})
}

func loadRegistry() (*provider.Registry, error) {
	return provider.LoadOrDefault(providersFile)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
