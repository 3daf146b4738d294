package extract_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlenotas/notas-api/internal/domain/extract"
)

func testEngine(docs map[string]string) *extract.Engine {
	e := extract.NewEngine(slog.Default())
	e.Read = func(loc string) ([]byte, error) {
		content, ok := docs[loc]
		if !ok {
			return nil, errors.New("no such document")
		}
		return []byte(content), nil
	}
	e.PDF = &extract.PDFExtractor{Text: func(loc string) ([]string, error) {
		return nil, errors.New("unreadable pdf")
	}}
	return e
}

func TestEngineEmptyInputIsLocal(t *testing.T) {
	e := testEngine(nil)
	result := e.Extract(context.Background(), nil)

	assert.Equal(t, extract.ModeLocal, result.Mode, "nothing submitted is not a degraded run")
	assert.Empty(t, result.Invoices)
	assert.Empty(t, result.Products)
}

func TestEngineAllFailuresFallBackToDemo(t *testing.T) {
	e := testEngine(nil)
	result := e.Extract(context.Background(), []string{"missing.csv", "broken.pdf"})

	assert.Equal(t, extract.ModeDemo, result.Mode)
	assert.Len(t, result.Invoices, 3)
	assert.Len(t, result.Products, 4)
}

func TestEngineHeaderModeDocument(t *testing.T) {
	doc := "Fornecedor;CNPJ;Vencimento;Descrição;Valor Total Item\n" +
		"ACME LTDA;12.345.678/0001-90;10/01/2025;Parafuso;100,00\n" +
		"ACME LTDA;12.345.678/0001-90;10/01/2025;Porca;50,00\n"
	e := testEngine(map[string]string{"compras.csv": doc})

	result := e.Extract(context.Background(), []string{"compras.csv"})

	assert.Equal(t, extract.ModeLocal, result.Mode)
	require.Len(t, result.Invoices, 1)
	inv := result.Invoices[0]
	assert.Equal(t, "ACME LTDA", inv.SupplierName)
	assert.Equal(t, "12.345.678/0001-90", inv.TaxID)
	assert.True(t, inv.Total.Equal(mustDecimal(t, "150")))
	assert.Equal(t, "compras.csv", inv.SourceDoc)
	assert.Len(t, result.Products, 2)
}

func TestEnginePositionalModeDocument(t *testing.T) {
	doc := "ACME LTDA;12.345.678/0001-90 05/01/2025;Widget;10;UN;25,00;250,00\n"
	e := testEngine(map[string]string{"dump.csv": doc})

	result := e.Extract(context.Background(), []string{"dump.csv"})

	assert.Equal(t, extract.ModeLocal, result.Mode)
	require.Len(t, result.Invoices, 1)
	inv := result.Invoices[0]
	assert.Equal(t, "ACME LTDA", inv.SupplierName)
	assert.Equal(t, "12.345.678/0001-90", inv.TaxID)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), inv.DueDate)

	require.Len(t, result.Products, 1)
	assert.True(t, result.Products[0].UnitPrice.Equal(mustDecimal(t, "25")))
}

func TestEngineOneBadDocumentDoesNotFailTheBatch(t *testing.T) {
	doc := "Fornecedor;CNPJ;Vencimento;Descrição;Valor Total Item\n" +
		"ACME LTDA;12.345.678/0001-90;10/01/2025;Parafuso;100,00\n"
	e := testEngine(map[string]string{"ok.csv": doc})

	result := e.Extract(context.Background(), []string{"missing.csv", "ok.csv", "broken.pdf"})

	assert.Equal(t, extract.ModeLocal, result.Mode)
	assert.Len(t, result.Invoices, 1)
}

func TestEngineTooNarrowHeaderlessDocumentSkipped(t *testing.T) {
	e := testEngine(map[string]string{"narrow.csv": "a;b\n1;2\n"})
	result := e.Extract(context.Background(), []string{"narrow.csv"})
	assert.Equal(t, extract.ModeDemo, result.Mode, "unusable document degrades the run")
}

func TestDemoResult(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	result := extract.DemoResult(now)

	assert.Equal(t, extract.ModeDemo, result.Mode)
	require.Len(t, result.Invoices, 3)
	require.Len(t, result.Products, 4)

	for _, inv := range result.Invoices {
		assert.True(t, inv.DueDate.After(now), "demo due dates are in the near future")
		assert.True(t, inv.Total.IsPositive())
	}

	ids := make(map[string]bool)
	for _, inv := range result.Invoices {
		ids[inv.ID.String()] = true
	}
	for _, p := range result.Products {
		assert.True(t, ids[p.InvoiceID.String()])
	}
}
