package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownSupplier is the terminal supplier-name fallback.
const UnknownSupplier = "Fornecedor desconhecido"

// defaultItemName labels products whose row carries no description or code.
const defaultItemName = "Item CSV"

// installmentTolerance is the value distance under which two sightings of
// the same installment are treated as the same value.
var installmentTolerance = decimal.New(1, -2) // 0.01

// RowExtractor consumes raw rows into an Assembler. The two variants are
// the header-resolved path and the positional-heuristics path; either can
// be swapped independently of the aggregation rules.
type RowExtractor interface {
	Consume(fields []string)
}

// Assembler accumulates invoices and products for one extraction run.
// Invoices are created lazily per identity key and mutated in place as
// later rows with the same key arrive; products are append-only.
type Assembler struct {
	invoices []*Invoice
	products []Product
	byKey    map[string]*invoiceState
}

type invoiceState struct {
	inv *Invoice
	// sum is the running line-total accumulation for non-installment
	// invoices; the displayed total prefers the document-level invoice
	// total when present.
	sum decimal.Decimal
}

// NewAssembler creates an empty run accumulator.
func NewAssembler() *Assembler {
	return &Assembler{byKey: make(map[string]*invoiceState)}
}

// Invoices returns the accumulated invoices in creation order.
func (a *Assembler) Invoices() []Invoice {
	out := make([]Invoice, len(a.invoices))
	for i, inv := range a.invoices {
		out[i] = *inv
	}
	return out
}

// Products returns the accumulated products in creation order.
func (a *Assembler) Products() []Product { return a.products }

// Absorb merges externally produced invoices and products (the PDF path)
// into the run, preserving the run-wide key uniqueness: an invoice whose
// key already exists folds into the existing one, keeping the larger total
// and re-pointing its products.
func (a *Assembler) Absorb(invoices []Invoice, products []Product) {
	remap := make(map[uuid.UUID]uuid.UUID)
	for _, inv := range invoices {
		k := a.key(inv.TaxID, inv.SupplierName, inv.DueDate, inv.Installment)
		if st, ok := a.byKey[k]; ok {
			if inv.Total.GreaterThan(st.inv.Total) {
				st.inv.Total = inv.Total
			}
			remap[inv.ID] = st.inv.ID
			continue
		}
		copied := inv
		a.byKey[k] = &invoiceState{inv: &copied, sum: decimal.Zero}
		a.invoices = append(a.invoices, &copied)
	}
	for _, p := range products {
		if id, ok := remap[p.InvoiceID]; ok {
			p.InvoiceID = id
		}
		a.products = append(a.products, p)
	}
}

func (a *Assembler) key(taxID, supplier string, due time.Time, installment int) string {
	k := fmt.Sprintf("%s|%s|%s", taxID, supplier, due.Format("2006-01-02"))
	if installment > 0 {
		k += fmt.Sprintf("|parc%d", installment)
	}
	return k
}

func (a *Assembler) lookup(taxID, supplier string, due time.Time, installment int, source string) (*invoiceState, bool) {
	k := a.key(taxID, supplier, due, installment)
	if st, ok := a.byKey[k]; ok {
		return st, false
	}
	st := &invoiceState{
		inv: &Invoice{
			ID:           uuid.New(),
			SupplierName: supplier,
			TaxID:        taxID,
			DueDate:      due,
			SourceDoc:    source,
			Installment:  installment,
			Total:        decimal.Zero,
		},
		sum: decimal.Zero,
	}
	a.byKey[k] = st
	a.invoices = append(a.invoices, st.inv)
	return st, true
}

func (a *Assembler) addProduct(invoiceID uuid.UUID, name string, date time.Time, unitPrice decimal.Decimal) {
	a.products = append(a.products, Product{
		ID:           uuid.New(),
		InvoiceID:    invoiceID,
		Name:         name,
		PurchaseDate: date,
		UnitPrice:    unitPrice,
	})
}

// HeaderModeExtractor interprets rows through the resolved header
// vocabulary, with the entity resolver supplying supplier/tax-id defaults.
type HeaderModeExtractor struct {
	asm      *Assembler
	headers  []string
	resolver *EntityResolver
	source   string
}

// NewHeaderModeExtractor builds the header-resolved row path.
func NewHeaderModeExtractor(asm *Assembler, headers []string, resolver *EntityResolver, source string) *HeaderModeExtractor {
	return &HeaderModeExtractor{asm: asm, headers: headers, resolver: resolver, source: source}
}

type installment struct {
	index int
	date  string
	value string
}

// Consume applies the header-mode rules to one row: resolve fields, build
// or update the invoice aggregate, emit exactly one product.
func (e *HeaderModeExtractor) Consume(fields []string) {
	if allBlank(fields) {
		return
	}
	row := NewRow(e.headers, fields)

	supplier := row.Get(FieldSupplier)
	taxID := ""
	if m := cnpjRe.FindString(row.Get(FieldTaxID)); m != "" {
		taxID = m
	} else {
		taxID = e.resolver.GlobalTaxID()
	}

	due := ParseAmbiguousDate(row.Get(FieldDueDate))
	emissionRaw := row.Get(FieldEmissionDate)
	purchase := due
	if emissionRaw != "" {
		purchase = ParseAmbiguousDate(emissionRaw)
	}

	invoiceTotal := ParseAmbiguousNumber(row.Get(FieldInvoiceTotal))
	qty := ParseAmbiguousNumber(row.Get(FieldQuantity))
	unit := ParseAmbiguousNumber(row.Get(FieldUnitPrice))
	line := ParseAmbiguousNumber(row.Get(FieldLineTotal))

	name := e.supplierName(supplier, taxID)

	var primary uuid.UUID
	if parts := rowInstallments(row); len(parts) > 0 {
		for _, p := range parts {
			d := ParseAmbiguousDate(p.date)
			val := ParseAmbiguousNumber(p.value)
			st, created := e.asm.lookup(taxID, name, d, p.index, e.source)
			if created {
				if val.IsPositive() {
					st.inv.Total = val
				}
				// An installment's value is that invoice's whole total;
				// items repeated within the same installment are not summed.
			} else if val.IsPositive() {
				diff := st.inv.Total.Sub(val).Abs()
				if diff.Cmp(installmentTolerance) >= 0 && val.GreaterThan(st.inv.Total) {
					st.inv.Total = val
				}
			}
			if primary == uuid.Nil {
				primary = st.inv.ID
			}
		}
	} else {
		st, _ := e.asm.lookup(taxID, name, due, 0, e.source)
		if line.IsPositive() {
			st.sum = st.sum.Add(line)
		} else {
			st.sum = st.sum.Add(unit)
		}
		if invoiceTotal.IsPositive() {
			st.inv.Total = invoiceTotal
		} else {
			st.inv.Total = st.sum
		}
		primary = st.inv.ID
	}

	itemName := row.Get(FieldDescription)
	if itemName == "" {
		itemName = row.Get(FieldItemCode)
	}
	if itemName == "" {
		itemName = defaultItemName
	}

	unitPrice := decimal.Zero
	switch {
	case unit.IsPositive():
		unitPrice = unit
	case line.IsPositive() && qty.IsPositive():
		unitPrice = line.DivRound(qty, 2)
	}

	e.asm.addProduct(primary, itemName, purchase, unitPrice)
}

func (e *HeaderModeExtractor) supplierName(rowSupplier, taxID string) string {
	for _, candidate := range []string{
		rowSupplier,
		e.resolver.SupplierForTaxID(taxID),
		e.resolver.FindNameNearTaxID(taxID),
		e.resolver.GlobalSupplier(),
	} {
		if candidate != "" {
			return candidate
		}
	}
	return UnknownSupplier
}

func rowInstallments(row Row) []installment {
	candidates := []installment{
		{1, row.Get(FieldInstallDate1), row.Get(FieldInstallValue1)},
		{2, row.Get(FieldInstallDate2), row.Get(FieldInstallValue2)},
		{3, row.Get(FieldInstallDate3), row.Get(FieldInstallValue3)},
	}
	var out []installment
	for _, c := range candidates {
		if c.date != "" || c.value != "" {
			out = append(out, c)
		}
	}
	return out
}

// PositionalModeExtractor handles documents with no usable header by
// probing field positions relative to a CNPJ-shaped token. These offsets
// are inherently fragile to format drift, which is why the variant hides
// behind the same RowExtractor seam as the header path.
type PositionalModeExtractor struct {
	asm    *Assembler
	source string
}

// NewPositionalModeExtractor builds the positional-heuristics row path.
func NewPositionalModeExtractor(asm *Assembler, source string) *PositionalModeExtractor {
	return &PositionalModeExtractor{asm: asm, source: source}
}

// Consume applies the positional heuristics to one raw row.
func (e *PositionalModeExtractor) Consume(fields []string) {
	if allBlank(fields) {
		return
	}

	taxID := ""
	taxIdx := -1
	for i, f := range fields {
		if m := cnpjRe.FindString(f); m != "" {
			taxID = m
			taxIdx = i
			break
		}
	}

	supplier := ""
	if taxIdx > 0 {
		supplier = strings.TrimSpace(fields[taxIdx-1])
	}
	if supplier == "" {
		supplier = longestAlpha(fields, UnknownSupplier)
	}

	due := positionalDate(fields, taxIdx)

	name := ""
	for _, off := range []int{5, 4, 6, 3} {
		i := taxIdx + off
		if taxIdx < 0 || i < 0 || i >= len(fields) {
			continue
		}
		if v := strings.TrimSpace(fields[i]); alphaRe.MatchString(v) {
			name = v
			break
		}
	}
	if name == "" {
		name = longestAlpha(fields, defaultItemName)
	}

	unit, line := trailingNumbers(fields)

	st, _ := e.asm.lookup(taxID, supplier, due, 0, e.source)
	if line.IsPositive() {
		st.inv.Total = st.inv.Total.Add(line)
	} else {
		st.inv.Total = st.inv.Total.Add(unit)
	}

	e.asm.addProduct(st.inv.ID, name, due, unit)
}

// positionalDate takes the field right after the tax id when date-shaped,
// else the first date-shaped field anywhere in the row, else now.
func positionalDate(fields []string, taxIdx int) time.Time {
	if taxIdx >= 0 && taxIdx+1 < len(fields) {
		if t, ok := dateShaped(fields[taxIdx+1]); ok {
			return t
		}
	}
	for _, f := range fields {
		if t, ok := dateShaped(f); ok {
			return t
		}
	}
	return time.Now()
}

func dateShaped(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	// A date may share a field with other tokens ("<cnpj> 05/01/2025"), so
	// probe for an embedded dd/mm/yyyy as well as the exact forms.
	if m := embeddedDmyRe.FindString(s); m != "" {
		if t, err := time.Parse("02/01/2006", m); err == nil {
			return t, true
		}
	}
	if m := dmyRe.FindStringSubmatch(s); m != nil && len(m[3]) == 2 {
		if t, err := time.Parse("02/01/2006", m[1]+"/"+m[2]+"/20"+m[3]); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

var embeddedDmyRe = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)

// trailingNumbers picks the second-to-last positive number in the row as
// the unit price and the last as the line total. A single number serves as
// both.
func trailingNumbers(fields []string) (unit, line decimal.Decimal) {
	var nums []decimal.Decimal
	for _, f := range fields {
		if n := ParseAmbiguousNumber(f); n.IsPositive() {
			nums = append(nums, n)
		}
	}
	switch {
	case len(nums) >= 2:
		return nums[len(nums)-2], nums[len(nums)-1]
	case len(nums) == 1:
		return nums[0], nums[0]
	}
	return decimal.Zero, decimal.Zero
}

func longestAlpha(fields []string, fallback string) string {
	best := ""
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if alphaRe.MatchString(f) && len(f) > len(best) {
			best = f
		}
	}
	if best == "" {
		return fallback
	}
	return best
}

func allBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
