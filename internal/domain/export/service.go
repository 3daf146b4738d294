// Package export renders extraction snapshots as spreadsheet downloads:
// an XLSX workbook for the dashboard and plain CSV for integrations.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/controlenotas/notas-api/internal/domain/records"
)

// SourceSheet carries the raw rows of one source document, echoed into the
// workbook next to the consolidated sheets.
type SourceSheet struct {
	Name string
	Rows [][]string
}

// Service produces XLSX and CSV bytes from a record-store snapshot.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// XLSX builds a workbook with consolidated invoice and product sheets plus
// one sheet per source document.
func (s *Service) XLSX(snap *records.Snapshot, sources []SourceSheet) ([]byte, error) {
	f := excelize.NewFile()

	if err := s.writeInvoiceSheet(f, snap); err != nil {
		return nil, err
	}
	if err := s.writeProductSheet(f, snap); err != nil {
		return nil, err
	}
	for _, src := range sources {
		if err := s.writeSourceSheet(f, src); err != nil {
			return nil, err
		}
	}

	// The default sheet excelize creates is replaced by our first one.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.logger.Debug("default sheet not removed", slog.Any("error", err))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) writeInvoiceSheet(f *excelize.File, snap *records.Snapshot) error {
	const sheet = "Faturas"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Fornecedor", "CNPJ", "Vencimento", "Parcela", "Total", "Arquivo"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, inv := range snap.Invoices {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, inv.SupplierName)
		write(2, inv.TaxID)
		write(3, inv.DueDate.Format("02/01/2006"))
		if inv.Installment > 0 {
			write(4, inv.Installment)
		}
		write(5, FormatBRL(inv.Total))
		write(6, inv.SourceDoc)
		row++
	}
	return nil
}

func (s *Service) writeProductSheet(f *excelize.File, snap *records.Snapshot) error {
	const sheet = "Produtos"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Produto", "Data de Compra", "Valor Unitário", "Fatura"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, p := range snap.Products {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, p.Name)
		write(2, p.PurchaseDate.Format("02/01/2006"))
		write(3, FormatBRL(p.UnitPrice))
		write(4, p.InvoiceID.String())
		row++
	}
	return nil
}

func (s *Service) writeSourceSheet(f *excelize.File, src SourceSheet) error {
	sheet := safeSheetName(src.Name)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for r, fields := range src.Rows {
		for c, v := range fields {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// safeSheetName keeps sheet names within Excel's character and length
// limits.
func safeSheetName(name string) string {
	base := sheetNameReplacer.Replace(name)
	if len(base) > 28 {
		base = base[:28]
	}
	if base == "" {
		base = "Sheet"
	}
	return base
}

// InvoicesCSV marshals the snapshot's invoices.
func (s *Service) InvoicesCSV(snap *records.Snapshot) ([]byte, error) {
	out, err := gocsv.MarshalBytes(&snap.Invoices)
	if err != nil {
		return nil, fmt.Errorf("marshal invoices: %w", err)
	}
	return out, nil
}

// ProductsCSV marshals the snapshot's products.
func (s *Service) ProductsCSV(snap *records.Snapshot) ([]byte, error) {
	out, err := gocsv.MarshalBytes(&snap.Products)
	if err != nil {
		return nil, fmt.Errorf("marshal products: %w", err)
	}
	return out, nil
}

// FormatBRL renders a decimal amount in Brazilian currency notation.
func FormatBRL(d decimal.Decimal) string {
	cents := d.Shift(2).Round(0).IntPart()
	return money.New(cents, money.BRL).Display()
}
