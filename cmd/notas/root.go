package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "notas",
	Short: "notas extracts invoices and products from purchase documents",
	Long: `notas reads the CSV and PDF purchase documents in the uploads
directory, extracts invoices and products from them, and serves the
results through a dashboard API.

Run "notas serve" to start the API, "notas analyze" for a one-shot
extraction run, or "notas export" to write the consolidated workbook.`,
	Version: version,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
