package scoring

import (
	"fmt"
	"math"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

// Validation limits shared by every questionnaire instrument.
const (
	coverageWarnPct = 50.0
	coverageFailPct = 30.0
	missingWarnPct  = 20.0
	missingFailPct  = 50.0
	excludedWarnPct = 10.0
)

// tableStats summarizes a detected table against an instrument.
type tableStats struct {
	detection   Detection
	mapped      []ItemColumn // detected columns that name an instrument item
	unmapped    []string
	duplicates  []string
	coveragePct float64
	cells       int
	missing     int
	excluded    int
}

func (s tableStats) missingPct() float64 {
	if s.cells == 0 {
		return 0
	}
	return float64(s.missing) / float64(s.cells) * 100
}

func (s tableStats) excludedPct() float64 {
	if s.cells == 0 {
		return 0
	}
	return float64(s.excluded) / float64(s.cells) * 100
}

// inspect maps detected columns onto the instrument and counts cell defects.
func inspect(in *catalog.Instrument, set *model.ResponseSet) tableStats {
	s := tableStats{detection: Detect(set)}

	seen := make(map[int]bool, len(s.detection.Columns))
	for _, c := range s.detection.Columns {
		if _, ok := in.Item(c.Item); !ok {
			s.unmapped = append(s.unmapped, c.Name)
			continue
		}
		if seen[c.Item] {
			s.duplicates = append(s.duplicates, c.Name)
			continue
		}
		seen[c.Item] = true
		s.mapped = append(s.mapped, c)
	}

	covered := 0
	for _, d := range in.Dimensions {
		for _, n := range d.Items {
			if seen[n] {
				covered++
				break
			}
		}
	}
	if len(in.Dimensions) > 0 {
		s.coveragePct = float64(covered) / float64(len(in.Dimensions)) * 100
	}

	for _, c := range s.mapped {
		it, _ := in.Item(c.Item)
		for row := range set.Rows {
			s.cells++
			switch _, status := NormalizeCell(set.Cell(row, c.Index), s.detection.Format, it); status {
			case CellMissing:
				s.missing++
			case CellExcluded:
				s.excluded++
			}
		}
	}
	return s
}

// minItemColumns caps the column requirement at the instrument's size so
// short instruments remain scorable.
func minItemColumns(in *catalog.Instrument) int {
	if n := in.ItemCount(); n < in.MinItemColumns {
		return n
	}
	return in.MinItemColumns
}

// Validate checks a response table against an instrument. Every problem is
// collected; nothing stops at the first failure. Column names are trimmed in
// place before inspection.
func Validate(in *catalog.Instrument, set *model.ResponseSet) model.ValidationResult {
	v := model.ValidationResult{Errors: []string{}, Warnings: []string{}, Suggestions: []string{}}
	if set == nil {
		v.Errors = append(v.Errors, "no response table supplied")
		return v
	}
	set.TrimColumns()

	if len(set.Rows) == 0 {
		v.Errors = append(v.Errors, "response table has no rows")
	} else if len(set.Rows) < in.MinRows {
		v.Errors = append(v.Errors, fmt.Sprintf("too few responses: %d (minimum %d)", len(set.Rows), in.MinRows))
	}

	s := inspect(in, set)
	need := minItemColumns(in)
	switch {
	case len(s.detection.Columns) == 0:
		v.Errors = append(v.Errors, "no item columns found (expected names like P1, Q1 or Resp_Q1)")
		v.Suggestions = append(v.Suggestions, "rename item columns to use one prefix family followed by the item number")
	case len(s.mapped) < need:
		v.Errors = append(v.Errors, fmt.Sprintf("too few item columns: %d (minimum %d)", len(s.mapped), need))
	}
	if len(s.detection.Columns) > 0 && s.detection.Format == FormatUnknown {
		v.Errors = append(v.Errors, "could not determine answer format: first item column has no answers")
	}

	switch {
	case s.coveragePct < coverageFailPct:
		v.Errors = append(v.Errors, fmt.Sprintf("only %.1f%% of %s dimensions have item columns", s.coveragePct, in.Name))
	case s.coveragePct < coverageWarnPct:
		v.Warnings = append(v.Warnings, fmt.Sprintf("low dimension coverage: %.1f%%", s.coveragePct))
		v.Suggestions = append(v.Suggestions, "check that item numbers follow the instrument's item list")
	}

	switch missing := s.missingPct(); {
	case missing > missingFailPct:
		v.Errors = append(v.Errors, fmt.Sprintf("%.1f%% of answers are missing", missing))
	case missing > missingWarnPct:
		v.Warnings = append(v.Warnings, fmt.Sprintf("high share of missing answers: %.1f%%", missing))
		v.Suggestions = append(v.Suggestions, "review incomplete questionnaires before analysis")
	}
	if excluded := s.excludedPct(); excluded > excludedWarnPct {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%.1f%% of answers could not be interpreted and will be excluded", excluded))
	}

	if len(s.detection.Ignored) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d columns of another prefix family ignored", len(s.detection.Ignored)))
	}
	if len(s.unmapped) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d item columns are not part of %s", len(s.unmapped), in.Name))
	}
	if len(s.duplicates) > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("duplicate item columns ignored: %v", s.duplicates))
	}

	v.QualityScore = math.Max(0, 100-s.missingPct()-(100-s.coveragePct)/2)
	v.IsValid = len(v.Errors) == 0
	return v
}
