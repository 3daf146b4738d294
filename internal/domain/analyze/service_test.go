package analyze_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlenotas/notas-api/internal/domain/analyze"
	"github.com/controlenotas/notas-api/internal/domain/extract"
	"github.com/controlenotas/notas-api/internal/domain/records"
	"github.com/controlenotas/notas-api/internal/domain/search"
	"github.com/controlenotas/notas-api/pkg/storage"
)

func newTestService(t *testing.T) (*analyze.Service, storage.Store, *records.Store, *search.ProductIndex) {
	t.Helper()
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	store, err := records.NewStore(t.TempDir())
	require.NoError(t, err)
	index, err := search.NewProductIndex()
	require.NoError(t, err)
	svc := analyze.NewService(extract.NewEngine(nil), files, store, index, nil)
	return svc, files, store, index
}

func TestRunPersistsAndIndexes(t *testing.T) {
	svc, files, store, index := newTestService(t)
	ctx := context.Background()

	doc := "Fornecedor;CNPJ;Vencimento;Descrição;Valor Total Item\n" +
		"ACME LTDA;12.345.678/0001-90;10/01/2025;Parafuso Sextavado;100,00\n"
	_, err := files.Save(ctx, "compras.csv", strings.NewReader(doc))
	require.NoError(t, err)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, extract.ModeLocal, result.Mode)

	snap, err := store.Read()
	require.NoError(t, err)
	require.Len(t, snap.Invoices, 1)
	assert.Equal(t, "ACME LTDA", snap.Invoices[0].SupplierName)
	require.Len(t, snap.Suppliers, 1)

	hits, err := index.Search("parafuso", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits, "run output is searchable")
}

func TestRunWithNoDocumentsClearsStore(t *testing.T) {
	svc, _, store, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, extract.ModeLocal, result.Mode)

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, snap.Invoices)
}

func TestRunWithUnparsableDocumentsPersistsDemo(t *testing.T) {
	svc, files, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := files.Save(ctx, "lixo.pdf", strings.NewReader("not a pdf at all"))
	require.NoError(t, err)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, extract.ModeDemo, result.Mode)

	snap, err := store.Read()
	require.NoError(t, err)
	assert.Len(t, snap.Invoices, 3)
	assert.Len(t, snap.Products, 4)
}
