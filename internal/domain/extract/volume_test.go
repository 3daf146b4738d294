package extract_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlenotas/notas-api/internal/domain/extract"
)

// TestHeaderModeVolume ferments the aggregation invariants under a few
// hundred generated rows: one product per row, every product pointing at a
// run invoice, one invoice per supplier/due-date identity.
func TestHeaderModeVolume(t *testing.T) {
	faker := gofakeit.New(42)

	type identity struct {
		supplier string
		taxID    string
	}
	identities := make([]identity, 10)
	for i := range identities {
		identities[i] = identity{
			supplier: faker.Company(),
			taxID:    fmt.Sprintf("%02d.%03d.%03d/0001-%02d",
				faker.Number(10, 99), faker.Number(100, 999), faker.Number(100, 999), faker.Number(10, 99)),
		}
	}
	dates := []string{"10/01/2025", "10/02/2025", "10/03/2025"}

	headers := []string{"Fornecedor", "CNPJ", "Vencimento", "Descrição", "Valor Total Item"}
	var rows [][]string
	for i := 0; i < 300; i++ {
		id := identities[faker.Number(0, len(identities)-1)]
		rows = append(rows, []string{
			id.supplier,
			id.taxID,
			dates[faker.Number(0, len(dates)-1)],
			faker.ProductName(),
			strings.Replace(fmt.Sprintf("%.2f", faker.Float64Range(1, 500)), ".", ",", 1),
		})
	}

	asm := extract.NewAssembler()
	ex := headerExtractor(t, asm, headers, rows)
	for _, r := range rows {
		ex.Consume(r)
	}

	products := asm.Products()
	require.Len(t, products, len(rows), "every row yields exactly one product")

	invoices := asm.Invoices()
	assert.LessOrEqual(t, len(invoices), len(identities)*len(dates),
		"at most one invoice per supplier and due date")

	ids := make(map[uuid.UUID]bool, len(invoices))
	for _, inv := range invoices {
		ids[inv.ID] = true
		assert.True(t, inv.Total.IsPositive())
	}
	for _, p := range products {
		assert.True(t, ids[p.InvoiceID])
	}
}
