package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one extraction pass over the stored documents",
	Long: `Run one extraction pass over the stored documents and replace the
record store with the result. When no document yields an invoice the
store is filled with the demonstration dataset instead.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	deps, err := buildDependencies(logger)
	if err != nil {
		return err
	}

	result, err := deps.analyze.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("mode=%s invoices=%d products=%d\n", result.Mode, len(result.Invoices), len(result.Products))
	return nil
}
