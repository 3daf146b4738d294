package extract

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Engine is the extraction facade: it classifies each document location by
// extension, dispatches to the delimited-text assembler or the PDF
// heuristics, and aggregates everything into one Result.
//
// Processing is synchronous and document-at-a-time; all lookup state lives
// inside a single Extract call and is discarded with it. One bad document
// never fails the batch: it is logged and skipped, and only a run with no
// extractable invoice at all degrades to the demo dataset.
type Engine struct {
	logger *slog.Logger

	// Read resolves a document location to its raw content. Overridable
	// for tests; defaults to the local filesystem.
	Read func(location string) ([]byte, error)
	// PDF handles every non-CSV document.
	PDF *PDFExtractor
}

// NewEngine creates an engine reading documents from the local filesystem.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger,
		Read:   os.ReadFile,
		PDF:    NewPDFExtractor(),
	}
}

// Extract processes the given document locations. An empty input yields an
// empty ModeLocal result: "nothing submitted" is not a degraded run.
func (e *Engine) Extract(ctx context.Context, locations []string) Result {
	result := Result{
		Invoices: []Invoice{},
		Products: []Product{},
		Mode:     ModeLocal,
	}
	if len(locations) == 0 {
		return result
	}

	asm := NewAssembler()
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("extraction interrupted", slog.Any("error", err))
			break
		}
		if strings.EqualFold(filepath.Ext(loc), ".csv") {
			e.extractDelimited(asm, loc)
		} else {
			e.extractPDF(asm, loc)
		}
	}

	result.Invoices = asm.Invoices()
	result.Products = asm.Products()

	e.logger.Info("extraction finished",
		slog.Int("documents", len(locations)),
		slog.Int("invoices", len(result.Invoices)),
		slog.Int("products", len(result.Products)),
	)

	if len(result.Invoices) == 0 {
		e.logger.Warn("no invoice extracted from any document, falling back to demo dataset")
		return DemoResult(time.Now())
	}
	return result
}

func (e *Engine) extractDelimited(asm *Assembler, loc string) {
	data, err := e.Read(loc)
	if err != nil {
		e.logger.Warn("skipping unreadable document", slog.String("location", loc), slog.Any("error", err))
		return
	}
	raw := string(data)

	rows := Tokenize(raw, DetectDelimiter(raw))
	if len(rows) == 0 {
		return
	}

	if headers, ok := detectHeader(rows[0]); ok {
		normRows := make([]Row, 0, len(rows)-1)
		for _, r := range rows[1:] {
			normRows = append(normRows, NewRow(headers, r))
		}
		resolver := NewEntityResolver(normRows, raw)
		ex := NewHeaderModeExtractor(asm, headers, resolver, loc)
		for _, r := range rows[1:] {
			ex.Consume(r)
		}
		return
	}

	// Positional extraction needs at least three raw columns to have
	// anything to anchor on.
	if len(rows[0]) < 3 {
		e.logger.Warn("document has no usable header and too few columns", slog.String("location", loc))
		return
	}
	ex := NewPositionalModeExtractor(asm, loc)
	for _, r := range rows {
		ex.Consume(r)
	}
}

func (e *Engine) extractPDF(asm *Assembler, loc string) {
	invoices, products, err := e.PDF.Extract(loc, loc)
	if err != nil {
		e.logger.Warn("skipping unparsable document", slog.String("location", loc), slog.Any("error", err))
		return
	}
	asm.Absorb(invoices, products)
}

// detectHeader decides whether the first row is a usable header: at least
// two of its normalized tokens must belong to the synonym vocabulary and
// none of its fields may carry a CNPJ-shaped value (data rows often do).
func detectHeader(first []string) ([]string, bool) {
	hits := 0
	for _, f := range first {
		if cnpjRe.MatchString(f) {
			return nil, false
		}
		if synonymSet[NormalizeHeaderKey(f)] {
			hits++
		}
	}
	if hits < 2 {
		return nil, false
	}
	return first, true
}

var synonymSet = func() map[string]bool {
	set := make(map[string]bool)
	for _, syns := range fieldSynonyms {
		for _, s := range syns {
			set[s] = true
		}
	}
	return set
}()
