package scoring

import (
	"math"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

// CellStatus describes what happened to one raw answer.
type CellStatus int

// Cell outcomes.
const (
	CellOK CellStatus = iota
	CellMissing
	CellExcluded
)

// Column holds one item's normalized answers aligned with the table rows.
// Values[i] is meaningful only when Present[i] is true.
type Column struct {
	Item     int
	Values   []float64
	Present  []bool
	Missing  int
	Excluded int
}

// Ordinal converts a raw cell to an ordinal on the item's scale without
// inversion or rescaling. Out-of-range numbers and unmapped labels are
// excluded rather than clamped.
func Ordinal(cell string, f Format, enc *catalog.Encoding) (float64, CellStatus) {
	if model.IsMissing(cell) {
		return 0, CellMissing
	}
	var v float64
	switch f {
	case FormatNumeric:
		n, ok := parseNumber(cell)
		if !ok {
			return 0, CellExcluded
		}
		v = n
	case FormatTextual:
		n, ok := enc.Lookup(catalog.Fold(cell))
		if !ok {
			return 0, CellExcluded
		}
		v = n
	default:
		return 0, CellExcluded
	}
	if v < enc.Min || v > enc.Max {
		return 0, CellExcluded
	}
	return v, CellOK
}

// Invert mirrors an ordinal around the middle of its scale.
func Invert(v float64, enc *catalog.Encoding) float64 {
	return enc.Min + enc.Max - v
}

// Rescale maps an in-range ordinal to 0-100, inverting it first when asked.
func Rescale(v float64, enc *catalog.Encoding, inverted bool) float64 {
	if inverted {
		v = Invert(v, enc)
	}
	span := enc.Max - enc.Min
	if span <= 0 {
		return 0
	}
	return clamp((v - enc.Min) / span * 100)
}

// Denormalize reconstructs the original ordinal from a 0-100 value produced
// by Rescale with the same inversion flag.
func Denormalize(score float64, enc *catalog.Encoding, inverted bool) float64 {
	v := enc.Min + score/100*(enc.Max-enc.Min)
	if inverted {
		v = Invert(v, enc)
	}
	return v
}

// NormalizeCell converts one raw answer to the 0-100 scale.
func NormalizeCell(cell string, f Format, it catalog.Item) (float64, CellStatus) {
	v, status := Ordinal(cell, f, it.Encoding)
	if status != CellOK {
		return 0, status
	}
	return Rescale(v, it.Encoding, it.Inverted), CellOK
}

// NormalizeColumn converts every cell of one item column.
func NormalizeColumn(set *model.ResponseSet, col ItemColumn, f Format, it catalog.Item) *Column {
	c := &Column{
		Item:    it.Number,
		Values:  make([]float64, len(set.Rows)),
		Present: make([]bool, len(set.Rows)),
	}
	for row := range set.Rows {
		v, status := NormalizeCell(set.Cell(row, col.Index), f, it)
		switch status {
		case CellOK:
			c.Values[row] = v
			c.Present[row] = true
		case CellMissing:
			c.Missing++
		case CellExcluded:
			c.Excluded++
		}
	}
	return c
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
