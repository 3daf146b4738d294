// Package search maintains an in-memory full-text index over the products
// of the latest extraction run, backing the dashboard search box.
package search

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/controlenotas/notas-api/internal/domain/extract"
)

// Document is the indexed shape of a product.
type Document struct {
	ID        string  `json:"id"`
	InvoiceID string  `json:"invoice_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
}

// Hit is one search result.
type Hit struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// ProductIndex is an in-memory Bleve index, rebuilt wholesale after each
// extraction run to mirror the record store's replace semantics.
type ProductIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	docs  map[string]Document
}

// NewProductIndex creates an empty in-memory index.
func NewProductIndex() (*ProductIndex, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &ProductIndex{index: idx, docs: make(map[string]Document)}, nil
}

func buildMapping() mapping.IndexMapping {
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = simple.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("name", nameField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Rebuild replaces the index contents with the given products.
func (pi *ProductIndex) Rebuild(products []extract.Product) error {
	fresh, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}

	docs := make(map[string]Document, len(products))
	batch := fresh.NewBatch()
	for _, p := range products {
		d := Document{
			ID:        p.ID.String(),
			InvoiceID: p.InvoiceID.String(),
			Name:      p.Name,
			UnitPrice: p.UnitPrice.InexactFloat64(),
		}
		docs[d.ID] = d
		if err := batch.Index(d.ID, d); err != nil {
			return fmt.Errorf("index product: %w", err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		return fmt.Errorf("commit search batch: %w", err)
	}

	pi.mu.Lock()
	old := pi.index
	pi.index = fresh
	pi.docs = docs
	pi.mu.Unlock()

	return old.Close()
}

// Search runs a fuzzy-tolerant match query over product names.
func (pi *ProductIndex) Search(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	pi.mu.RLock()
	defer pi.mu.RUnlock()

	query := bleve.NewMatchQuery(q)
	query.SetField("name")
	query.Fuzziness = 1

	req := bleve.NewSearchRequest(query)
	req.Size = limit

	res, err := pi.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		if doc, ok := pi.docs[h.ID]; ok {
			hits = append(hits, Hit{Document: doc, Score: h.Score})
		}
	}
	return hits, nil
}
