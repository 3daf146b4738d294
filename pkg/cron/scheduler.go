// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/controlenotas/notas-api/internal/domain/analyze"
)

// Scheduler re-runs the extraction pipeline on a schedule so the record
// store tracks the uploads directory without an operator pressing the
// button.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	analyze *analyze.Service
	logger  *slog.Logger
}

// NewScheduler creates a scheduler running the analyze service on the
// given 5-field cron spec.
func NewScheduler(spec string, analyzeSvc *analyze.Service, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:    c,
		spec:    spec,
		analyze: analyzeSvc,
		logger:  logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runAnalyze)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("spec", s.spec),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers an extraction run.
func (s *Scheduler) RunNow() {
	go s.runAnalyze()
}

func (s *Scheduler) runAnalyze() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting scheduled extraction run")
	result, err := s.analyze.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled extraction run failed", slog.Any("error", err))
		return
	}
	s.logger.Info("scheduled extraction run finished",
		slog.String("mode", string(result.Mode)),
		slog.Int("invoices", len(result.Invoices)),
		slog.Int("products", len(result.Products)),
	)
}
