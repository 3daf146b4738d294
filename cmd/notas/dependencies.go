package main

import (
	"fmt"
	"log/slog"

	"github.com/controlenotas/notas-api/internal/domain/analyze"
	"github.com/controlenotas/notas-api/internal/domain/export"
	"github.com/controlenotas/notas-api/internal/domain/extract"
	"github.com/controlenotas/notas-api/internal/domain/records"
	"github.com/controlenotas/notas-api/internal/domain/report"
	"github.com/controlenotas/notas-api/internal/domain/search"
	"github.com/controlenotas/notas-api/pkg/config"
	"github.com/controlenotas/notas-api/pkg/storage"
)

// dependencies holds every wired service the commands can draw from.
type dependencies struct {
	cfg     *config.Config
	logger  *slog.Logger
	files   storage.Store
	store   *records.Store
	engine  *extract.Engine
	analyze *analyze.Service
	export  *export.Service
	report  *report.Service
	search  *search.ProductIndex
}

func buildDependencies(logger *slog.Logger) (*dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	files, err := storage.NewLocalStore(cfg.Paths.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("open uploads dir: %w", err)
	}

	store, err := records.NewStore(cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	index, err := search.NewProductIndex()
	if err != nil {
		return nil, fmt.Errorf("build product index: %w", err)
	}

	engine := extract.NewEngine(logger)

	return &dependencies{
		cfg:     cfg,
		logger:  logger,
		files:   files,
		store:   store,
		engine:  engine,
		analyze: analyze.NewService(engine, files, store, index, logger),
		export:  export.NewService(logger),
		report:  report.NewService(cfg.Report.ResendAPIKey, cfg.Report.FromEmail, logger),
		search:  index,
	}, nil
}
