// Package storage provides the document store: a flat uploads directory
// holding the CSV and PDF files submitted for extraction.
package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo describes one stored document.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Location   string    `json:"location"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Store is the file-store contract the extraction pipeline depends on: it
// only ever consumes the location list; upload, rename and deletion belong
// to the dashboard surface.
type Store interface {
	// Save persists an uploaded document under a sanitized name and
	// returns its info.
	Save(ctx context.Context, filename string, r io.Reader) (*FileInfo, error)

	// List returns the stored documents (CSV and PDF only), in name order.
	List(ctx context.Context) ([]*FileInfo, error)

	// Locations returns the location strings of all stored documents,
	// ready to hand to the extraction engine.
	Locations(ctx context.Context) ([]string, error)

	// Rename renames a stored document.
	Rename(ctx context.Context, from, to string) error

	// Delete removes a stored document.
	Delete(ctx context.Context, name string) error
}
