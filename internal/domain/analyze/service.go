// Package analyze orchestrates one extraction run end to end: list the
// stored documents, run the engine, replace the record store wholesale and
// rebuild the product search index.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/controlenotas/notas-api/internal/domain/extract"
	"github.com/controlenotas/notas-api/internal/domain/records"
	"github.com/controlenotas/notas-api/internal/domain/search"
	"github.com/controlenotas/notas-api/pkg/storage"
)

// Service wires the engine to its collaborators.
type Service struct {
	engine *extract.Engine
	files  storage.Store
	store  *records.Store
	index  *search.ProductIndex
	logger *slog.Logger
}

func NewService(engine *extract.Engine, files storage.Store, store *records.Store, index *search.ProductIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: engine, files: files, store: store, index: index, logger: logger}
}

// Run executes a full extraction run and persists its result.
func (s *Service) Run(ctx context.Context) (extract.Result, error) {
	start := time.Now()

	locations, err := s.files.Locations(ctx)
	if err != nil {
		return extract.Result{}, fmt.Errorf("list documents: %w", err)
	}

	result := s.engine.Extract(ctx, locations)

	if err := s.store.Replace(result); err != nil {
		return extract.Result{}, fmt.Errorf("persist result: %w", err)
	}
	if s.index != nil {
		if err := s.index.Rebuild(result.Products); err != nil {
			// Search staleness is tolerable; the run itself succeeded.
			s.logger.Warn("search index rebuild failed", slog.Any("error", err))
		}
	}

	observeRun(result, len(locations), time.Since(start))

	s.logger.Info("analyze run persisted",
		slog.String("mode", string(result.Mode)),
		slog.Int("documents", len(locations)),
		slog.Int("invoices", len(result.Invoices)),
		slog.Int("products", len(result.Products)),
		slog.Duration("took", time.Since(start)),
	)
	return result, nil
}
