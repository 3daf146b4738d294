package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// LocalStore implements Store on a local directory.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the uploads directory if needed.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

func sanitizeFilename(name string) string {
	return unsafeNameRe.ReplaceAllString(filepath.Base(name), "_")
}

func isDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".pdf":
		return true
	}
	return false
}

// Save persists an uploaded document under a sanitized name.
func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (*FileInfo, error) {
	safe := sanitizeFilename(filename)
	dest := filepath.Join(s.basePath, safe)

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(dest)
		return nil, fmt.Errorf("write file: %w", err)
	}

	st, err := os.Stat(dest)
	if err != nil {
		return nil, err
	}
	return &FileInfo{Name: safe, Size: size, Location: dest, ModifiedAt: st.ModTime()}, nil
}

// List returns the stored CSV and PDF documents in name order.
func (s *LocalStore) List(ctx context.Context) ([]*FileInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("read uploads directory: %w", err)
	}

	var out []*FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, &FileInfo{
			Name:       entry.Name(),
			Size:       info.Size(),
			Location:   filepath.Join(s.basePath, entry.Name()),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Locations returns the location strings of all stored documents.
func (s *LocalStore) Locations(ctx context.Context) ([]string, error) {
	files, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	locs := make([]string, len(files))
	for i, f := range files {
		locs[i] = f.Location
	}
	return locs, nil
}

// Rename renames a stored document.
func (s *LocalStore) Rename(ctx context.Context, from, to string) error {
	src := filepath.Join(s.basePath, sanitizeFilename(from))
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("source file: %w", err)
	}
	return os.Rename(src, filepath.Join(s.basePath, sanitizeFilename(to)))
}

// Delete removes a stored document.
func (s *LocalStore) Delete(ctx context.Context, name string) error {
	target := filepath.Join(s.basePath, sanitizeFilename(name))
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("file: %w", err)
	}
	return os.Remove(target)
}
