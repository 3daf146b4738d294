// Package extract reconstructs normalized invoices and products from
// loosely structured purchase documents: delimited text exports with unknown
// delimiters and inconsistent headers, and PDF invoices with no tabular
// structure at all.
package extract

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode tags a Result as coming from real extraction or the demo fallback.
type Mode string

const (
	// ModeLocal means the invoices were extracted from the submitted documents.
	// An empty document list also yields ModeLocal: "nothing submitted" is
	// distinct from "submitted but unextractable".
	ModeLocal Mode = "local"
	// ModeDemo means no document yielded an invoice and the fixed demo
	// dataset was returned instead.
	ModeDemo Mode = "demo"
)

// Invoice is a single payable: one per supplier/due-date, or one per
// installment when the source encodes multi-installment billing.
type Invoice struct {
	ID           uuid.UUID       `json:"id" csv:"id"`
	SupplierName string          `json:"supplier_name" csv:"supplier_name"`
	TaxID        string          `json:"tax_id" csv:"tax_id"`
	DueDate      time.Time       `json:"due_date" csv:"due_date"`
	Total        decimal.Decimal `json:"total" csv:"total"`
	SourceDoc    string          `json:"source_document" csv:"source_document"`
	// Installment is the 1-based installment index, 0 when the invoice is
	// not part of an installment plan.
	Installment int `json:"installment,omitempty" csv:"installment"`
}

// Product is one line item. Products are always appended, never merged:
// every source row that looks like an item yields exactly one Product.
type Product struct {
	ID           uuid.UUID       `json:"id" csv:"id"`
	InvoiceID    uuid.UUID       `json:"invoice_id" csv:"invoice_id"`
	Name         string          `json:"name" csv:"name"`
	PurchaseDate time.Time       `json:"purchase_date" csv:"purchase_date"`
	UnitPrice    decimal.Decimal `json:"unit_price" csv:"unit_price"`
}

// Result is the output of one extraction run. Every Product.InvoiceID
// references an Invoice in the same Result.
type Result struct {
	Invoices []Invoice `json:"invoices"`
	Products []Product `json:"products"`
	Mode     Mode      `json:"mode"`
}
