// Package server exposes the dashboard HTTP API: document upload and
// management, extraction runs, record reads, spreadsheet exports, the email
// report and product search.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/controlenotas/notas-api/internal/domain/analyze"
	"github.com/controlenotas/notas-api/internal/domain/export"
	"github.com/controlenotas/notas-api/internal/domain/records"
	"github.com/controlenotas/notas-api/internal/domain/report"
	"github.com/controlenotas/notas-api/internal/domain/search"
	"github.com/controlenotas/notas-api/pkg/config"
	"github.com/controlenotas/notas-api/pkg/storage"
)

// Server holds the wired services behind the HTTP surface.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	files   storage.Store
	store   *records.Store
	analyze *analyze.Service
	export  *export.Service
	report  *report.Service
	search  *search.ProductIndex

	httpServer *http.Server
}

// NewServer wires the services into a router and returns a ready-to-start
// server.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	files storage.Store,
	store *records.Store,
	analyzeSvc *analyze.Service,
	exportSvc *export.Service,
	reportSvc *report.Service,
	index *search.ProductIndex,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		files:   files,
		store:   store,
		analyze: analyzeSvc,
		export:  exportSvc,
		report:  reportSvc,
		search:  index,
	}
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router with the full route table.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)
	r.Use(rateLimiter(s.cfg.Server.RateLimitPerSecond, s.cfg.Server.RateLimitBurst))

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/files", s.handleListFiles)
		r.Patch("/files/{name}", s.handleRenameFile)
		r.Delete("/files/{name}", s.handleDeleteFile)

		r.Post("/analyze", s.handleAnalyze)

		r.Get("/invoices", s.handleListInvoices)
		r.Get("/products", s.handleListProducts)
		r.Get("/products/search", s.handleSearchProducts)

		r.Get("/export/xlsx", s.handleExportXLSX)
		r.Get("/export/invoices.csv", s.handleExportInvoicesCSV)
		r.Get("/export/products.csv", s.handleExportProductsCSV)

		r.Post("/report", s.handleSendReport)

		r.Post("/user", s.handleUpsertUser)
	})

	return r
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
