package model

import "strings"

// ResponseSet is a rectangular table of raw answers: one row per respondent,
// one column per field. Cells are kept as the raw strings read from the source.
type ResponseSet struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// TrimColumns strips surrounding whitespace from every column name.
// Calling it more than once has no further effect.
func (s *ResponseSet) TrimColumns() {
	for i, c := range s.Columns {
		s.Columns[i] = strings.TrimSpace(c)
	}
}

// ColumnIndex returns the position of the named column, or -1.
func (s *ResponseSet) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when the row is short.
func (s *ResponseSet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 {
		return ""
	}
	r := s.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// IsMissing reports whether a raw cell carries no answer.
func IsMissing(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "na", "n/a", "nan", "null":
		return true
	}
	return false
}
