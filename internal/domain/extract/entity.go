package extract

import (
	"regexp"
	"strings"
)

// cnpjRe matches a Brazilian CNPJ in formatted (NN.NNN.NNN/NNNN-NN) or
// raw 14-digit form.
var cnpjRe = regexp.MustCompile(`\b\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}\b|\b\d{14}\b`)

var alphaRe = regexp.MustCompile(`[A-Za-zÀ-ÿ]`)

// EntityResolver recovers a document-level supplier name and tax id for
// rows that omit them. All tallies are local to one extraction run; the
// resolver is built per document and discarded with it.
type EntityResolver struct {
	rawLines []string

	supplierGlobal string
	taxIDGlobal    string
	supplierByTax  map[string]string
}

// NewEntityResolver tallies supplier-name and tax-id occurrences across the
// parsed rows. The most frequent value of each becomes the global default,
// and a tax-id -> most frequent co-occurring supplier map is kept for
// per-row preference. When voting finds no tax id at all, the raw text is
// scanned for a CNPJ-shaped token with the supplier name taken from nearby
// lines.
func NewEntityResolver(rows []Row, raw string) *EntityResolver {
	r := &EntityResolver{
		rawLines:      strings.Split(raw, "\n"),
		supplierByTax: make(map[string]string),
	}

	supplierCounts := make(map[string]int)
	taxCounts := make(map[string]int)
	pairCounts := make(map[string]map[string]int)

	for _, row := range rows {
		supplier := row.Get(FieldSupplier)
		if supplier != "" {
			supplierCounts[supplier]++
		}
		if raw := row.Get(FieldTaxID); raw != "" {
			if m := cnpjRe.FindString(raw); m != "" {
				taxCounts[m]++
				if supplier != "" {
					if pairCounts[m] == nil {
						pairCounts[m] = make(map[string]int)
					}
					pairCounts[m][supplier]++
				}
			}
		}
	}

	r.supplierGlobal = mostFrequent(supplierCounts)
	r.taxIDGlobal = mostFrequent(taxCounts)
	for tax, counts := range pairCounts {
		r.supplierByTax[tax] = mostFrequent(counts)
	}

	if r.supplierGlobal == "" || r.taxIDGlobal == "" {
		r.scanRawText()
	}
	return r
}

// GlobalSupplier is the document-level default supplier name.
func (r *EntityResolver) GlobalSupplier() string { return r.supplierGlobal }

// GlobalTaxID is the document-level default tax id.
func (r *EntityResolver) GlobalTaxID() string { return r.taxIDGlobal }

// SupplierForTaxID returns the supplier name most often seen together with
// the given tax id, preferred over the pure global default.
func (r *EntityResolver) SupplierForTaxID(taxID string) string {
	return r.supplierByTax[taxID]
}

// FindNameNearTaxID looks up the first raw-text line containing the given
// tax id and probes the two lines before and after it for the first line
// with alphabetic text longer than five characters. Used as the last
// per-row fallback before "Fornecedor desconhecido".
func (r *EntityResolver) FindNameNearTaxID(taxID string) string {
	if taxID == "" {
		return ""
	}
	for i, line := range r.rawLines {
		if strings.Contains(line, taxID) {
			return r.nameInWindow(i)
		}
	}
	return ""
}

// scanRawText fills missing globals from the raw text: the first
// CNPJ-shaped token becomes the tax id and a nearby alphabetic line the
// supplier name.
func (r *EntityResolver) scanRawText() {
	for i, line := range r.rawLines {
		m := cnpjRe.FindString(line)
		if m == "" {
			continue
		}
		if r.taxIDGlobal == "" {
			r.taxIDGlobal = m
		}
		if r.supplierGlobal == "" {
			if candidate := r.nameInWindow(i); candidate != "" {
				r.supplierGlobal = candidate
			}
		}
		if r.supplierGlobal != "" && r.taxIDGlobal != "" {
			return
		}
	}
}

func (r *EntityResolver) nameInWindow(i int) string {
	for _, j := range []int{i - 2, i - 1, i + 1, i + 2} {
		if j < 0 || j >= len(r.rawLines) {
			continue
		}
		line := r.rawLines[j]
		if alphaRe.MatchString(line) && len(line) > 5 {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func mostFrequent(counts map[string]int) string {
	best := ""
	bestCount := 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && best != "" && v < best) {
			best = v
			bestCount = c
		}
	}
	return best
}
