// Package cmd holds the s3ingest command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3ingest/pkg/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "s3ingest",
	Short: "Ingest bug reports and diagnostic files from an S3 bucket",
	Long: `Discover the JSON objects written to an S3 compatible bucket by monitored sites,
and store their bug reports and diagnostic data in batches that survive restarts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "Configuration file")
	_ = rootCmd.MarkPersistentFlagRequired("config")
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration file given with -f.
func loadConfig() (config.Config, error) {
	cfg, err := config.ReadYamlCnxFile(configFile)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SetupCloseHandler cancels the context on SIGINT/SIGTERM.
func SetupCloseHandler(ctx context.Context, cancelFunc context.CancelFunc, log *slog.Logger) {
	c := make(chan os.Signal, 5)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case s := <-c:
			log.Info("INFO: signal received", slog.String("signal", s.String()))
			cancelFunc()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
}

// initTrace initializes the logger
func initTrace(debugLevel string) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	switch debugLevel {
	case "debug":
		handlerOptions.Level = slog.LevelDebug
		handlerOptions.AddSource = true
	case "info":
		handlerOptions.Level = slog.LevelInfo
	case "warn":
		handlerOptions.Level = slog.LevelWarn
	case "error":
		handlerOptions.Level = slog.LevelError
	}

	// logs go to stderr so command output on stdout stays parseable
	handler := slog.NewTextHandler(os.Stderr, handlerOptions)
	return slog.New(handler)
}

// printJSON writes v indented on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
