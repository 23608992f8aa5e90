package absence

import (
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-inventory/internal/model"
)

// Columns names the source columns holding each record field.
type Columns struct {
	Subject string `json:"subject" mapstructure:"subject"`
	Start   string `json:"start" mapstructure:"start"`
	End     string `json:"end" mapstructure:"end"`
}

// DefaultColumns is the layout exported by the HR systems we ingest.
func DefaultColumns() Columns {
	return Columns{Subject: "employee_id", Start: "start_date", End: "end_date"}
}

const (
	missingWarnPct = 20.0
	missingFailPct = 50.0
)

type columnIndex struct {
	subject, start, end int
}

func (c Columns) resolve(set *model.ResponseSet) (columnIndex, []string) {
	idx := columnIndex{
		subject: set.ColumnIndex(c.Subject),
		start:   set.ColumnIndex(c.Start),
		end:     set.ColumnIndex(c.End),
	}
	var missing []string
	for _, f := range []struct {
		name string
		i    int
	}{{c.Subject, idx.subject}, {c.Start, idx.start}, {c.End, idx.end}} {
		if f.i < 0 {
			missing = append(missing, f.name)
		}
	}
	return idx, missing
}

// Validate checks that a source table can be read as absence records.
func Validate(set *model.ResponseSet, cols Columns) model.ValidationResult {
	v := model.ValidationResult{Errors: []string{}, Warnings: []string{}, Suggestions: []string{}}
	if set == nil {
		v.Errors = append(v.Errors, "no absence table supplied")
		return v
	}
	set.TrimColumns()

	if len(set.Rows) == 0 {
		v.Errors = append(v.Errors, "absence table has no rows")
	}
	idx, missing := cols.resolve(set)
	if len(missing) > 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("required columns not found: %v", missing))
		v.Suggestions = append(v.Suggestions, "map the subject, start and end columns explicitly")
		v.IsValid = false
		return v
	}

	cells, empty := 0, 0
	for row := range set.Rows {
		for _, c := range []int{idx.subject, idx.start, idx.end} {
			cells++
			if model.IsMissing(set.Cell(row, c)) {
				empty++
			}
		}
	}
	pct := 0.0
	if cells > 0 {
		pct = float64(empty) / float64(cells) * 100
	}
	switch {
	case pct > missingFailPct:
		v.Errors = append(v.Errors, fmt.Sprintf("%.1f%% of required cells are empty", pct))
	case pct > missingWarnPct:
		v.Warnings = append(v.Warnings, fmt.Sprintf("high share of empty cells: %.1f%%", pct))
	}

	v.QualityScore = math.Max(0, 100-pct)
	v.IsValid = len(v.Errors) == 0
	return v
}

// ReadRecords extracts absence records from a table. Rows with an empty
// subject or an unreadable date are skipped and counted as malformed.
func ReadRecords(set *model.ResponseSet, cols Columns) ([]Record, int, error) {
	set.TrimColumns()
	idx, missing := cols.resolve(set)
	if len(missing) > 0 {
		return nil, 0, eris.Errorf("absence: read records: missing columns %v", missing)
	}

	records := make([]Record, 0, len(set.Rows))
	malformed := 0
	for row := range set.Rows {
		subject := set.Cell(row, idx.subject)
		start, okStart := ParseDate(set.Cell(row, idx.start))
		end, okEnd := ParseDate(set.Cell(row, idx.end))
		if model.IsMissing(subject) || !okStart || !okEnd {
			malformed++
			continue
		}
		records = append(records, Record{Subject: subject, Start: start, End: end})
	}
	return records, malformed, nil
}

// TableInput is an absence table plus its reporting context.
type TableInput struct {
	Set         *model.ResponseSet
	Columns     Columns
	WindowStart time.Time
	WindowEnd   time.Time
	Headcount   int
	Sector      string
}

// ProcessTable validates the table, reads its records and computes the
// analysis. The validation result is always returned; the analysis is nil
// when validation fails.
func (e *Engine) ProcessTable(in TableInput, name string) (*model.AnalysisResult, model.ValidationResult, error) {
	v := Validate(in.Set, in.Columns)
	if !v.IsValid {
		return nil, v, nil
	}
	records, malformed, err := ReadRecords(in.Set, in.Columns)
	if err != nil {
		return nil, v, err
	}
	if malformed > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d row(s) skipped: empty subject or unreadable date", malformed))
	}
	res, err := e.Process(Input{
		Records:     records,
		WindowStart: in.WindowStart,
		WindowEnd:   in.WindowEnd,
		Headcount:   in.Headcount,
		Sector:      in.Sector,
		Malformed:   malformed,
	}, name)
	return res, v, err
}
