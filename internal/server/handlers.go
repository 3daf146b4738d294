package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/controlenotas/notas-api/internal/domain/export"
	"github.com/controlenotas/notas-api/internal/domain/extract"
	"github.com/controlenotas/notas-api/internal/domain/records"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 20 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	info, err := s.files.Save(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	infos, err := s.files.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": infos})
}

func (s *Server) handleRenameFile(w http.ResponseWriter, r *http.Request) {
	from := chi.URLParam(r, "name")
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("body must carry the new name"))
		return
	}
	if err := s.files.Rename(r.Context(), from, body.Name); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": body.Name})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.files.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	result, err := s.analyze.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": snap.Invoices, "suppliers": snap.Suppliers})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": snap.Products})
}

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query parameter q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := s.search.Search(q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sources, err := s.sourceSheets(r)
	if err != nil {
		s.logger.Warn("source sheets skipped", slog.Any("error", err))
	}
	b, err := s.export.XLSX(snap, sources)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="notas.xlsx"`)
	_, _ = w.Write(b)
}

// sourceSheets re-tokenizes each stored CSV so the workbook can echo the
// raw rows next to the consolidated sheets. PDFs are skipped.
func (s *Server) sourceSheets(r *http.Request) ([]export.SourceSheet, error) {
	locations, err := s.files.Locations(r.Context())
	if err != nil {
		return nil, err
	}
	var sheets []export.SourceSheet
	for _, loc := range locations {
		if !strings.EqualFold(filepath.Ext(loc), ".csv") {
			continue
		}
		b, err := os.ReadFile(loc)
		if err != nil {
			continue
		}
		raw := string(b)
		rows := extract.Tokenize(raw, extract.DetectDelimiter(raw))
		sheets = append(sheets, export.SourceSheet{Name: filepath.Base(loc), Rows: rows})
	}
	return sheets, nil
}

func (s *Server) handleExportInvoicesCSV(w http.ResponseWriter, r *http.Request) {
	s.serveCSV(w, "faturas.csv", s.export.InvoicesCSV)
}

func (s *Server) handleExportProductsCSV(w http.ResponseWriter, r *http.Request) {
	s.serveCSV(w, "produtos.csv", s.export.ProductsCSV)
}

func (s *Server) serveCSV(w http.ResponseWriter, filename string, render func(*records.Snapshot) ([]byte, error)) {
	snap, err := s.store.Read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	b, err := render(snap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(b)
}

func (s *Server) handleSendReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("body must carry a destination email"))
		return
	}
	snap, err := s.store.Read()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	outcome := s.report.Send(r.Context(), body.Email, snap)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Email) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("body must carry an email"))
		return
	}
	user, err := s.store.UpsertUser(body.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": user})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
