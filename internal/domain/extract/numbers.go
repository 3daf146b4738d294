package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The parse functions below are total: dirty input degrades to a safe
// default (zero, "now") instead of failing the row. See Engine for the
// batch-level consequences of that policy.

var nonNumericRe = regexp.MustCompile(`[^0-9.,-]`)

// ParseAmbiguousNumber parses a numeric string that may use Brazilian
// (1.234,56) or plain (1234.56) notation. Unparseable input yields zero.
func ParseAmbiguousNumber(s string) decimal.Decimal {
	cleaned := strings.Join(strings.Fields(s), "")
	cleaned = strings.TrimSuffix(cleaned, "-")
	cleaned = nonNumericRe.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return decimal.Zero
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		// Brazilian convention: dot is the thousands separator.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasComma:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case hasDot:
		if strings.Count(cleaned, ".") > 1 {
			// All dots but the last are thousands separators.
			last := strings.LastIndex(cleaned, ".")
			cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var dmyRe = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{2,4})$`)

// ParseAmbiguousDate parses dd/mm/yyyy (and the two-digit-year variant,
// mapped into 2000+yy) before falling back to ISO forms. It never fails:
// unparseable input yields the current time.
func ParseAmbiguousDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now()
	}

	if m := dmyRe.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if t, err := time.Parse("02/01/2006", m[1]+"/"+m[2]+"/"+year); err == nil {
			return t
		}
	}

	for _, layout := range []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006/01/02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}
