package records_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlenotas/notas-api/internal/domain/extract"
	"github.com/controlenotas/notas-api/internal/domain/records"
)

func testInvoice(supplier, taxID string) extract.Invoice {
	return extract.Invoice{
		ID:           uuid.New(),
		SupplierName: supplier,
		TaxID:        taxID,
		DueDate:      time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Total:        decimal.RequireFromString("100"),
		SourceDoc:    "doc.csv",
	}
}

func TestStoreStartsEmpty(t *testing.T) {
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, snap.Invoices)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Suppliers)
}

func TestReplaceAndRead(t *testing.T) {
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)

	inv := testInvoice("ACME LTDA", "12.345.678/0001-90")
	result := extract.Result{
		Invoices: []extract.Invoice{inv},
		Products: []extract.Product{{
			ID:           uuid.New(),
			InvoiceID:    inv.ID,
			Name:         "Parafuso",
			PurchaseDate: inv.DueDate,
			UnitPrice:    decimal.RequireFromString("25"),
		}},
		Mode: extract.ModeLocal,
	}
	require.NoError(t, store.Replace(result))

	snap, err := store.Read()
	require.NoError(t, err)
	require.Len(t, snap.Invoices, 1)
	assert.Equal(t, "ACME LTDA", snap.Invoices[0].SupplierName)
	assert.True(t, snap.Invoices[0].Total.Equal(decimal.RequireFromString("100")))
	require.Len(t, snap.Products, 1)
	assert.Equal(t, inv.ID, snap.Products[0].InvoiceID)
}

func TestReplaceDerivesSuppliersFirstSeenWins(t *testing.T) {
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)

	result := extract.Result{
		Invoices: []extract.Invoice{
			testInvoice("ACME LTDA", "12.345.678/0001-90"),
			testInvoice("ACME Comercio LTDA", "12.345.678/0001-90"),
			testInvoice("Outra SA", "98.765.432/0001-10"),
		},
		Mode: extract.ModeLocal,
	}
	require.NoError(t, store.Replace(result))

	snap, err := store.Read()
	require.NoError(t, err)
	require.Len(t, snap.Suppliers, 2, "one supplier per tax id")
	assert.Equal(t, "ACME LTDA", snap.Suppliers[0].Name, "first-seen name wins")
	assert.Equal(t, "Outra SA", snap.Suppliers[1].Name)
}

func TestReplaceWithEmptyResultClears(t *testing.T) {
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Replace(extract.Result{
		Invoices: []extract.Invoice{testInvoice("ACME LTDA", "12.345.678/0001-90")},
		Mode:     extract.ModeLocal,
	}))
	require.NoError(t, store.Replace(extract.Result{Mode: extract.ModeLocal}))

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, snap.Invoices)
	assert.Empty(t, snap.Suppliers)
}

func TestUpsertUser(t *testing.T) {
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.UpsertUser("dono@example.com")
	require.NoError(t, err)
	again, err := store.UpsertUser("dono@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "same email resolves to the same user")

	_, err = store.UpsertUser("outro@example.com")
	require.NoError(t, err)

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Len(t, snap.Users, 2)
}

func TestUsersSurviveReplace(t *testing.T) {
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)

	user, err := store.UpsertUser("dono@example.com")
	require.NoError(t, err)

	require.NoError(t, store.Replace(extract.Result{
		Invoices: []extract.Invoice{testInvoice("ACME LTDA", "12.345.678/0001-90")},
		Mode:     extract.ModeLocal,
	}))
	require.NoError(t, store.Replace(extract.Result{Mode: extract.ModeLocal}))

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, snap.Invoices, "runs still replace wholesale")
	require.Len(t, snap.Users, 1, "users are not run-scoped")
	assert.Equal(t, user.ID, snap.Users[0].ID)
}

func TestReplaceIsWholesale(t *testing.T) {
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)

	first := testInvoice("ACME LTDA", "12.345.678/0001-90")
	second := testInvoice("Outra SA", "98.765.432/0001-10")

	require.NoError(t, store.Replace(extract.Result{Invoices: []extract.Invoice{first}, Mode: extract.ModeLocal}))
	require.NoError(t, store.Replace(extract.Result{Invoices: []extract.Invoice{second}, Mode: extract.ModeLocal}))

	snap, err := store.Read()
	require.NoError(t, err)
	require.Len(t, snap.Invoices, 1, "a new run replaces the prior contents entirely")
	assert.Equal(t, "Outra SA", snap.Invoices[0].SupplierName)
}
