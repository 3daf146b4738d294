package extract

import "strings"

// Delimiter identifies how a delimited text document separates fields.
type Delimiter string

const (
	DelimComma     Delimiter = ","
	DelimSemicolon Delimiter = ";"
	DelimTab       Delimiter = "\t"
	// DelimTwoSpace is the fixed-ish export convention where runs of two or
	// more spaces separate fields.
	DelimTwoSpace Delimiter = "  "
)

// DetectDelimiter picks the delimiter for a raw text blob by counting
// candidate characters over the first five non-empty lines. The two-space
// convention wins when splitting the first line on space runs yields at
// least three fields while commas and tabs are essentially absent.
func DetectDelimiter(raw string) Delimiter {
	lines := nonEmptyLines(raw)
	if len(lines) == 0 {
		return DelimComma
	}

	first := strings.TrimSpace(lines[0])
	if fields := splitTwoSpaceLine(first); len(fields) >= 3 &&
		strings.Count(first, ",") <= 1 && strings.Count(first, "\t") == 0 {
		return DelimTwoSpace
	}

	sample := lines
	if len(sample) > 5 {
		sample = sample[:5]
	}
	joined := strings.Join(sample, "\n")

	best := DelimComma
	bestCount := -1
	for _, d := range []Delimiter{DelimComma, DelimSemicolon, DelimTab} {
		if c := strings.Count(joined, string(d)); c > bestCount {
			best = d
			bestCount = c
		}
	}
	return best
}

// SplitLine splits one line into trimmed fields for the given delimiter,
// treating double-quoted spans as atomic and un-escaping "" to ".
func SplitLine(line string, delim Delimiter) []string {
	if delim == DelimTwoSpace {
		return splitTwoSpaceLine(line)
	}
	sep := byte(delim[0])

	var out []string
	var buf strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch == '"' {
			if i+1 < len(line) && line[i+1] == '"' {
				buf.WriteByte('"')
				i++
				continue
			}
			inQuote = !inQuote
			continue
		}
		if !inQuote && ch == sep {
			out = append(out, strings.TrimSpace(buf.String()))
			buf.Reset()
			continue
		}
		buf.WriteByte(ch)
	}
	out = append(out, strings.TrimSpace(buf.String()))
	return out
}

// Tokenize splits a raw document into rows of fields, skipping blank lines.
func Tokenize(raw string, delim Delimiter) [][]string {
	lines := nonEmptyLines(raw)
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, SplitLine(line, delim))
	}
	return rows
}

func splitTwoSpaceLine(line string) []string {
	var out []string
	var buf strings.Builder
	inQuote := false
	i := 0
	for i < len(line) {
		ch := line[i]
		if ch == '"' {
			if i+1 < len(line) && line[i+1] == '"' {
				buf.WriteByte('"')
				i += 2
				continue
			}
			inQuote = !inQuote
			i++
			continue
		}
		if !inQuote && ch == ' ' && i+1 < len(line) && line[i+1] == ' ' {
			j := i + 2
			for j < len(line) && line[j] == ' ' {
				j++
			}
			out = append(out, strings.TrimSpace(buf.String()))
			buf.Reset()
			i = j
			continue
		}
		buf.WriteByte(ch)
		i++
	}
	out = append(out, strings.TrimSpace(buf.String()))
	return out
}

func nonEmptyLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
