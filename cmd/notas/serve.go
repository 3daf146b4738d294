package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/controlenotas/notas-api/internal/server"
	"github.com/controlenotas/notas-api/pkg/cron"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	Long: `Start the dashboard HTTP API. The server handles document uploads,
extraction runs, record reads, exports, the email report and product
search. When ANALYZE_CRON is set, extraction also re-runs on that
schedule.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	deps, err := buildDependencies(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if spec := deps.cfg.Analyze.CronSpec; spec != "" {
		scheduler := cron.NewScheduler(spec, deps.analyze, logger)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	srv := server.NewServer(deps.cfg, logger, deps.files, deps.store, deps.analyze, deps.export, deps.report, deps.search)
	return srv.Start(ctx)
}
