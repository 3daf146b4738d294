package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/shopspring/decimal"
)

// TextSource resolves a document location to its text lines. The default
// implementation reads PDF content streams through pdfcpu; tests feed raw
// text directly.
type TextSource func(path string) ([]string, error)

// PDFExtractor is the degraded-mode sibling of the assembler for documents
// with no tabular structure: a single regex pass over the text produces
// exactly one invoice per document plus a handful of candidate products.
type PDFExtractor struct {
	Text TextSource
}

// NewPDFExtractor returns an extractor backed by pdfcpu text extraction.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{Text: PDFTextLines}
}

var (
	pdfDateRe  = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	// The capture swallows the whole grouped amount ("1.299,90"), leaving
	// the separator disambiguation to ParseAmbiguousNumber.
	pdfTotalRe = regexp.MustCompile(`(?i)Total\s*[:\-]?\s*(\d+(?:[.,]\d{1,3})*)`)
	digitRe    = regexp.MustCompile(`\d`)
	unitQtyRe  = regexp.MustCompile(`(?i)\s*\d+[.,]?\d*\s*(kg|un|g|l)?`)
	numTokenRe = regexp.MustCompile(`\b\d+[.,]?\d*\b`)
)

// maxPDFProducts bounds how many candidate lines become products.
const maxPDFProducts = 5

// Extract scrapes one invoice and its candidate products from the document
// at path. When no line looks like a product, two zero-priced placeholders
// keep the document structurally present downstream.
func (e *PDFExtractor) Extract(path, source string) ([]Invoice, []Product, error) {
	lines, err := e.Text(path)
	if err != nil {
		return nil, nil, err
	}
	text := strings.Join(lines, "\n")

	inv := Invoice{
		ID:           uuid.New(),
		SupplierName: UnknownSupplier,
		TaxID:        cnpjRe.FindString(text),
		DueDate:      ParseAmbiguousDate(pdfDateRe.FindString(text)),
		Total:        decimal.Zero,
		SourceDoc:    source,
	}
	if m := pdfTotalRe.FindStringSubmatch(text); m != nil {
		inv.Total = ParseAmbiguousNumber(m[1])
	}

	var products []Product
	for _, line := range lines {
		if !alphaRe.MatchString(line) || !digitRe.MatchString(line) {
			continue
		}
		name := strings.TrimSpace(unitQtyRe.ReplaceAllString(line, ""))
		if name == "" {
			name = "Item"
		}
		if runes := []rune(name); len(runes) > 60 {
			name = string(runes[:60])
		}
		value := decimal.Zero
		if nums := numTokenRe.FindAllString(line, -1); len(nums) > 0 {
			value = ParseAmbiguousNumber(nums[len(nums)-1])
		}
		products = append(products, Product{
			ID:           uuid.New(),
			InvoiceID:    inv.ID,
			Name:         name,
			PurchaseDate: inv.DueDate,
			UnitPrice:    value,
		})
		if len(products) == maxPDFProducts {
			break
		}
	}

	if len(products) == 0 {
		for _, name := range []string{"Item 1", "Item 2"} {
			products = append(products, Product{
				ID:           uuid.New(),
				InvoiceID:    inv.ID,
				Name:         name,
				PurchaseDate: inv.DueDate,
				UnitPrice:    decimal.Zero,
			})
		}
	}

	return []Invoice{inv}, products, nil
}

// PDFTextLines extracts the text lines of a PDF by scanning each page's
// content stream for text-showing operators.
func PDFTextLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var lines []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil || len(data) == 0 {
			continue
		}
		for _, line := range contentStreamText(data) {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no text content in %s", path)
	}
	return lines, nil
}

var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// contentStreamText pulls the string operands of Tj/TJ/' operators out of a
// raw content stream, one output line per text-showing operator.
func contentStreamText(data []byte) []string {
	var out []string
	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		if !bytes.HasSuffix(raw, []byte("Tj")) &&
			!bytes.HasSuffix(raw, []byte("TJ")) &&
			!bytes.HasSuffix(raw, []byte("'")) {
			continue
		}
		var sb strings.Builder
		for _, m := range pdfStringRe.FindAllSubmatch(raw, -1) {
			sb.WriteString(decodePDFString(m[1]))
		}
		if s := sb.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodePDFString resolves the basic PDF literal-string escapes, including
// octal byte escapes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 == len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c >= '0' && c <= '7' {
				val := int(c - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(c)
			}
		}
	}
	return sb.String()
}
