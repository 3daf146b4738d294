package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the consolidated XLSX workbook from the record store",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "notas.xlsx", "output file path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	deps, err := buildDependencies(logger)
	if err != nil {
		return err
	}

	snap, err := deps.store.Read()
	if err != nil {
		return err
	}

	b, err := deps.export.XLSX(snap, nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportOutput, b, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s (%d invoices, %d products)\n", exportOutput, len(snap.Invoices), len(snap.Products))
	return nil
}
