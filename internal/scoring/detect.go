// Package scoring turns a questionnaire response table into a classified
// analysis result: format detection, answer normalization to 0-100,
// dimension aggregation and risk classification.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/risk-inventory/internal/model"
)

// Format is the answer encoding detected for a response table.
type Format int

// Detected formats.
const (
	FormatUnknown Format = iota
	FormatNumeric
	FormatTextual
)

func (f Format) String() string {
	switch f {
	case FormatNumeric:
		return "numeric"
	case FormatTextual:
		return "textual"
	}
	return "unknown"
}

// Prefix is an accepted item-column naming family.
type Prefix string

// Accepted column prefixes. Order breaks ties between families.
const (
	PrefixP     Prefix = "P"
	PrefixQ     Prefix = "Q"
	PrefixRespQ Prefix = "Resp_Q"
)

var prefixFamilies = []Prefix{PrefixP, PrefixQ, PrefixRespQ}

// ItemColumn is a table column recognized as an item response.
type ItemColumn struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Item  int    `json:"item"`
}

// Detection is the outcome of inspecting a response table.
type Detection struct {
	Format  Format       `json:"format"`
	Prefix  Prefix       `json:"prefix,omitempty"`
	Columns []ItemColumn `json:"columns"`
	Ignored []string     `json:"ignored,omitempty"`
}

// itemNumber parses names like "P7" or "Resp_Q12" under the given family.
func itemNumber(name string, p Prefix) (int, bool) {
	rest, ok := strings.CutPrefix(name, string(p))
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// DetectColumns picks the prefix family with the most matching columns and
// returns its columns in table order. Columns of the other families are
// returned as ignored. Non-item columns (ids, timestamps) are neither.
func DetectColumns(columns []string) (Prefix, []ItemColumn, []string) {
	matches := make(map[Prefix][]ItemColumn, len(prefixFamilies))
	for i, c := range columns {
		for _, p := range prefixFamilies {
			if n, ok := itemNumber(c, p); ok {
				matches[p] = append(matches[p], ItemColumn{Index: i, Name: c, Item: n})
				break
			}
		}
	}

	var best Prefix
	for _, p := range prefixFamilies {
		if len(matches[p]) > len(matches[best]) {
			best = p
		}
	}
	if best == "" {
		return "", nil, nil
	}

	var ignored []string
	for _, p := range prefixFamilies {
		if p == best {
			continue
		}
		for _, c := range matches[p] {
			ignored = append(ignored, c.Name)
		}
	}
	return best, matches[best], ignored
}

// parseNumber accepts dot or comma decimal separators.
func parseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Detect classifies the table's item columns and answer encoding. The
// encoding is decided once, from the first non-empty value of the first
// item column. It never mutates the table.
func Detect(set *model.ResponseSet) Detection {
	prefix, cols, ignored := DetectColumns(set.Columns)
	d := Detection{Format: FormatUnknown, Prefix: prefix, Columns: cols, Ignored: ignored}
	if len(cols) == 0 {
		return d
	}

	first := cols[0].Index
	for row := range set.Rows {
		cell := set.Cell(row, first)
		if model.IsMissing(cell) {
			continue
		}
		if _, ok := parseNumber(cell); ok {
			d.Format = FormatNumeric
		} else {
			d.Format = FormatTextual
		}
		break
	}
	return d
}
