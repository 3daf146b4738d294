package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a canonical column in the purchase-document vocabulary.
// Source headers vary per exporter; rows are resolved against ordered
// synonym lists instead of fixed column positions, tolerating reordering
// and punctuation/diacritic noise at the cost of occasional false
// positives when two fields share a synonym.
type Field int

const (
	FieldSupplier Field = iota
	FieldTaxID
	FieldDueDate
	FieldEmissionDate
	FieldInvoiceTotal
	FieldItemCode
	FieldDescription
	FieldQuantity
	FieldUnit
	FieldUnitPrice
	FieldLineTotal
	FieldInstallDate1
	FieldInstallValue1
	FieldInstallDate2
	FieldInstallValue2
	FieldInstallDate3
	FieldInstallValue3
)

// fieldSynonyms maps each canonical field to its normalized header
// synonyms, in resolution order.
var fieldSynonyms = map[Field][]string{
	FieldSupplier: {
		"emitente", "fornecedor", "empresa", "nome_emitente", "xnome",
		"razao_social", "razao_social_emitente", "nome", "nome_empresa",
		"fantasia", "nome_fantasia",
	},
	FieldTaxID: {
		"cnpj_emitente", "cnpj", "cnpj_fornecedor", "cnpj_destinatario",
		"cnpj_emit",
	},
	FieldDueDate: {
		"vencimento_duplicata", "vencimento", "data_vencimento",
	},
	FieldEmissionDate: {
		"emissao", "data_emissao", "emissao_nota",
	},
	FieldInvoiceTotal: {
		"valor_total_da_nota", "valor_total", "total",
	},
	FieldItemCode: {
		"codigo_produto", "codigo", "sku",
	},
	FieldDescription: {
		"descricao_do_produto", "descricao", "produto", "item",
	},
	FieldQuantity: {
		"quantidade", "qtd",
	},
	FieldUnit: {
		"unidade", "un",
	},
	FieldUnitPrice: {
		"valor_unitario", "preco", "preco_unitario", "vlr_unitario",
	},
	FieldLineTotal: {
		"valor_total_item", "total_item", "valor_item", "vlr_total_produto",
	},
	FieldInstallDate1:  {"vencimento1", "vencimento_1"},
	FieldInstallValue1: {"valor1", "valor_1"},
	FieldInstallDate2:  {"vencimento2", "vencimento_2"},
	FieldInstallValue2: {"valor2", "valor_2"},
	FieldInstallDate3:  {"vencimento3", "vencimento_3"},
	FieldInstallValue3: {"valor3", "valor_3"},
}

var headerSquashRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeaderKey maps an arbitrary accented, punctuated column header
// to its lookup token: lowercased, accents stripped, every run of
// non-alphanumeric characters collapsed to a single underscore.
// "Vlr. Unitário" becomes "vlr_unitario".
func NormalizeHeaderKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripAccents(s)
	s = headerSquashRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Row is one data row keyed by normalized header token.
type Row map[string]string

// NewRow builds a Row from parallel header and value slices. Extra values
// without a header are dropped; missing values resolve to "".
func NewRow(headers, values []string) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		key := NormalizeHeaderKey(h)
		if key == "" {
			continue
		}
		if i < len(values) {
			row[key] = strings.TrimSpace(values[i])
		} else {
			row[key] = ""
		}
	}
	return row
}

// Get resolves a canonical field: the first synonym with a non-empty value
// wins. When no synonym matches at all, a conservative fuzzy pass catches
// headers that survived normalization with minor spelling drift.
func (r Row) Get(f Field) string {
	syns := fieldSynonyms[f]
	for _, key := range syns {
		if v, ok := r[key]; ok && v != "" {
			return v
		}
	}
	// Fuzzy fallback only fires if no synonym key exists in the row; an
	// existing-but-empty column means the exporter knew the field and left
	// it blank.
	for _, key := range syns {
		if _, ok := r[key]; ok {
			return ""
		}
	}
	keys := make([]string, 0, len(r))
	for existing := range r {
		keys = append(keys, existing)
	}
	sort.Strings(keys)
	// Synonyms outer so the fuzzy pass honors the same precedence as the
	// exact pass; sorted columns inner so resolution is deterministic.
	for _, key := range syns {
		for _, existing := range keys {
			if r[existing] == "" {
				continue
			}
			if len(existing) > 3 && fuzzy.RankMatch(key, existing) == 1 {
				return r[existing]
			}
		}
	}
	return ""
}
