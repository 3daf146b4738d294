package extract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DemoResult is the fixed fallback dataset returned when extraction yields
// no invoice at all, so downstream consumers never face an
// empty-but-ambiguous result. The mode tag is how the UI tells simulated
// data apart from a real run.
func DemoResult(now time.Time) Result {
	due := func(days int) time.Time { return now.AddDate(0, 0, days) }

	inv1 := Invoice{
		ID:           uuid.New(),
		SupplierName: "Demo Fornecedor LTDA",
		TaxID:        "12.345.678/0001-90",
		DueDate:      due(7),
		Total:        decimal.RequireFromString("1299.90"),
		SourceDoc:    "/uploads/demo-invoice-1.pdf",
	}
	inv2 := Invoice{
		ID:           uuid.New(),
		SupplierName: "Tech Supplies SA",
		TaxID:        "98.765.432/0001-10",
		DueDate:      due(15),
		Total:        decimal.RequireFromString("249.50"),
		SourceDoc:    "/uploads/demo-invoice-2.pdf",
	}
	inv3 := Invoice{
		ID:           uuid.New(),
		SupplierName: "Alimentos & Cia",
		TaxID:        "11.222.333/0001-44",
		DueDate:      due(30),
		Total:        decimal.RequireFromString("980.00"),
		SourceDoc:    "/uploads/demo-invoice-3.pdf",
	}

	products := []Product{
		{ID: uuid.New(), InvoiceID: inv1.ID, Name: "Notebook 14", PurchaseDate: inv1.DueDate, UnitPrice: decimal.RequireFromString("1299.90")},
		{ID: uuid.New(), InvoiceID: inv2.ID, Name: "Teclado Mecânico", PurchaseDate: inv2.DueDate, UnitPrice: decimal.RequireFromString("249.50")},
		{ID: uuid.New(), InvoiceID: inv3.ID, Name: "Cesta de Alimentos", PurchaseDate: inv3.DueDate, UnitPrice: decimal.RequireFromString("480.00")},
		{ID: uuid.New(), InvoiceID: inv3.ID, Name: "Bebidas", PurchaseDate: inv3.DueDate, UnitPrice: decimal.RequireFromString("500.00")},
	}

	return Result{
		Invoices: []Invoice{inv1, inv2, inv3},
		Products: products,
		Mode:     ModeDemo,
	}
}
