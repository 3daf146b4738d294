// Package records persists extraction results as a single on-disk JSON
// document. The store is a wholesale-replacement sink: every write swaps
// the entire prior contents for the new run's output, and an empty result
// clears everything. There is no diffing or merging against history.
package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/controlenotas/notas-api/internal/domain/extract"
)

// Supplier is derived from the run's invoices, keyed by tax id. The
// first-seen name wins; a supplier is never updated after creation.
type Supplier struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	TaxID string    `json:"tax_id"`
}

// User is a captured dashboard visitor, keyed by email.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Snapshot is the full persisted state. Users are upserted independently
// and survive extraction runs; everything else is replaced wholesale.
type Snapshot struct {
	Invoices  []extract.Invoice `json:"invoices"`
	Products  []extract.Product `json:"products"`
	Suppliers []Supplier        `json:"suppliers"`
	Users     []User            `json:"users"`
}

// Store is a mutex-guarded JSON document on disk.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore ensures the data directory and backing file exist.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{path: filepath.Join(dataDir, "db.json")}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.write(emptySnapshot()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Read returns the current snapshot.
func (s *Store) Read() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) read() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read record store: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode record store: %w", err)
	}
	return &snap, nil
}

// Replace swaps the entire store contents for the run's result. An empty
// result clears the store. Suppliers are derived from the invoices.
func (s *Store) Replace(result extract.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	snap := emptySnapshot()
	snap.Users = current.Users
	if len(result.Invoices) > 0 || len(result.Products) > 0 {
		snap.Invoices = result.Invoices
		snap.Products = result.Products
		snap.Suppliers = deriveSuppliers(result.Invoices)
	}
	return s.write(snap)
}

// UpsertUser returns the user registered under the given email, creating
// it on first sight. Existing users are never modified.
func (s *Store) UpsertUser(email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range snap.Users {
		if snap.Users[i].Email == email {
			return &snap.Users[i], nil
		}
	}
	user := User{ID: uuid.New(), Email: email}
	snap.Users = append(snap.Users, user)
	if err := s.write(snap); err != nil {
		return nil, err
	}
	return &user, nil
}

func deriveSuppliers(invoices []extract.Invoice) []Supplier {
	seen := make(map[string]bool)
	suppliers := []Supplier{}
	for _, inv := range invoices {
		if seen[inv.TaxID] {
			continue
		}
		seen[inv.TaxID] = true
		suppliers = append(suppliers, Supplier{
			ID:    uuid.New(),
			Name:  inv.SupplierName,
			TaxID: inv.TaxID,
		})
	}
	return suppliers
}

// write persists atomically: temp file in the same directory, then rename.
func (s *Store) write(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "db-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Invoices:  []extract.Invoice{},
		Products:  []extract.Product{},
		Suppliers: []Supplier{},
		Users:     []User{},
	}
}
