package scoring

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

func mustInstrument(t *testing.T, id string) *catalog.Instrument {
	t.Helper()
	in, err := catalog.Lookup(id)
	require.NoError(t, err)
	return in
}

// polarityOf returns the polarity of the dimension holding item n.
func polarityOf(in *catalog.Instrument, n int) catalog.Polarity {
	for _, d := range in.Dimensions {
		for _, i := range d.Items {
			if i == n {
				return d.Polarity
			}
		}
	}
	return catalog.Negative
}

// highRaw reports whether the highest ordinal is the unfavorable answer.
func highRaw(in *catalog.Instrument, n int, unfavorable bool) bool {
	it, ok := in.Item(n)
	inverted := ok && it.Inverted
	negative := polarityOf(in, n) == catalog.Negative
	return (negative != inverted) == unfavorable
}

// table builds a response set with an id column followed by item columns
// P1..Pcols. cell returns the answer for item n.
func table(cols, rows int, cell func(row, n int) string) *model.ResponseSet {
	set := &model.ResponseSet{Columns: []string{"respondent"}}
	for n := 1; n <= cols; n++ {
		set.Columns = append(set.Columns, fmt.Sprintf("P%d", n))
	}
	for r := 0; r < rows; r++ {
		row := []string{strconv.Itoa(r + 1)}
		for n := 1; n <= cols; n++ {
			row = append(row, cell(r, n))
		}
		set.Rows = append(set.Rows, row)
	}
	return set
}

func textTable(in *catalog.Instrument, unfavorable bool) *model.ResponseSet {
	cols := max(40, in.ItemCount())
	return table(cols, 6, func(_, n int) string {
		if highRaw(in, n, unfavorable) {
			return "Sempre"
		}
		return "Nunca"
	})
}

func numericTable(in *catalog.Instrument, rows int, cell func(row, n int) string) *model.ResponseSet {
	return table(in.ItemCount(), rows, cell)
}

func TestDetectColumns(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		columns []string
		prefix  Prefix
		items   []int
		ignored []string
	}{
		{"short form", []string{"id", "P1", "P2", "P10"}, PrefixP, []int{1, 2, 10}, nil},
		{"majority wins", []string{"Q1", "Q2", "P1", "Q3"}, PrefixQ, []int{1, 2, 3}, []string{"P1"}},
		{"long form", []string{"Resp_Q1", "Resp_Q2", "timestamp"}, PrefixRespQ, []int{1, 2}, nil},
		{"tie resolves to P", []string{"Q1", "P1"}, PrefixP, []int{1}, []string{"Q1"}},
		{"case sensitive", []string{"p1", "q2", "resp_q3"}, "", nil, nil},
		{"number required", []string{"P", "Px1", "P1a", "P0"}, "", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prefix, cols, ignored := DetectColumns(tt.columns)
			assert.Equal(t, tt.prefix, prefix)
			var items []int
			for _, c := range cols {
				items = append(items, c.Item)
			}
			assert.Equal(t, tt.items, items)
			assert.Equal(t, tt.ignored, ignored)
		})
	}
}

func TestDetect_Format(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		set   *model.ResponseSet
		want  Format
		ncols int
	}{
		{
			name: "numeric",
			set:  &model.ResponseSet{Columns: []string{"P1", "P2"}, Rows: [][]string{{"", "x"}, {"3", "4"}}},
			want: FormatNumeric, ncols: 2,
		},
		{
			name: "comma decimal is numeric",
			set:  &model.ResponseSet{Columns: []string{"P1"}, Rows: [][]string{{"2,5"}}},
			want: FormatNumeric, ncols: 1,
		},
		{
			name: "textual",
			set:  &model.ResponseSet{Columns: []string{"Q1", "Q2"}, Rows: [][]string{{"NA", "1"}, {"Às vezes", "2"}}},
			want: FormatTextual, ncols: 2,
		},
		{
			name: "no answers in first column",
			set:  &model.ResponseSet{Columns: []string{"P1", "P2"}, Rows: [][]string{{"", "3"}}},
			want: FormatUnknown, ncols: 2,
		},
		{
			name: "no item columns",
			set:  &model.ResponseSet{Columns: []string{"name"}, Rows: [][]string{{"ana"}}},
			want: FormatUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Detect(tt.set)
			assert.Equal(t, tt.want, d.Format)
			assert.Len(t, d.Columns, tt.ncols)
		})
	}
}

func TestNormalizeCell(t *testing.T) {
	t.Parallel()
	plain := catalog.Item{Number: 1, Encoding: catalog.Likert5}
	inverted := catalog.Item{Number: 2, Encoding: catalog.Likert5, Inverted: true}
	tests := []struct {
		name   string
		cell   string
		format Format
		item   catalog.Item
		want   float64
		status CellStatus
	}{
		{"numeric midpoint", "3", FormatNumeric, plain, 50, CellOK},
		{"comma decimal", "3,5", FormatNumeric, plain, 62.5, CellOK},
		{"numeric max", " 5 ", FormatNumeric, plain, 100, CellOK},
		{"inverted max", "5", FormatNumeric, inverted, 0, CellOK},
		{"out of range", "6", FormatNumeric, plain, 0, CellExcluded},
		{"zero out of range", "0", FormatNumeric, plain, 0, CellExcluded},
		{"unparseable", "abc", FormatNumeric, plain, 0, CellExcluded},
		{"blank", "  ", FormatNumeric, plain, 0, CellMissing},
		{"na", "N/A", FormatTextual, plain, 0, CellMissing},
		{"label with accents", "ÀS   VEZES", FormatTextual, plain, 50, CellOK},
		{"english label", "Often", FormatTextual, plain, 75, CellOK},
		{"inverted label", "Sempre", FormatTextual, inverted, 0, CellOK},
		{"unmapped label", "talvez", FormatTextual, plain, 0, CellExcluded},
		{"unknown format", "3", FormatUnknown, plain, 0, CellExcluded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, status := NormalizeCell(tt.cell, tt.format, tt.item)
			assert.Equal(t, tt.status, status)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRescale_RangeAndRoundTrip(t *testing.T) {
	t.Parallel()
	for _, enc := range []*catalog.Encoding{catalog.Likert5, catalog.DUWAS4} {
		for v := enc.Min; v <= enc.Max; v++ {
			for _, inv := range []bool{false, true} {
				score := Rescale(v, enc, inv)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 100.0)
				assert.InDelta(t, v, Denormalize(score, enc, inv), 1e-9, "%s v=%v inv=%v", enc.Name, v, inv)
			}
		}
	}
}

func TestAggregateSample_AbsentDimensionsOmitted(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.COPSOQ3)
	cols := Columns{
		1: {Item: 1, Values: []float64{0, 50}, Present: []bool{true, true}},
		2: {Item: 2, Values: []float64{100, 0}, Present: []bool{true, false}, Missing: 1},
		// Work Pace column present but empty.
		4: {Item: 4, Values: []float64{0, 0}, Present: []bool{false, false}, Missing: 2},
	}

	dims := AggregateSample(in, cols)
	require.Len(t, dims, 1)
	assert.Equal(t, "Quantitative Demands", dims[0].Name)
	assert.InDelta(t, 50.0, dims[0].Value, 1e-9)
	assert.Equal(t, 2, dims[0].ItemsUsed)
	assert.Equal(t, 3, dims[0].ValuesUsed)

	data := ScoreMap(dims)
	_, ok := data["Work Pace"]
	assert.False(t, ok, "empty dimension must be absent, not zero")

	row := AggregateRow(in, cols, 1)
	require.Len(t, row, 1)
	assert.InDelta(t, 50.0, row[0].Value, 1e-9)
	assert.Equal(t, 1, row[0].ValuesUsed)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	psych := mustInstrument(t, catalog.COPSOQ3).Thresholds
	cbi := mustInstrument(t, catalog.Burnout).Thresholds
	duwas := mustInstrument(t, catalog.WorkAddiction).Thresholds
	tests := []struct {
		score float64
		th    catalog.Thresholds
		want  model.RiskLevel
	}{
		{0, psych, model.RiskLow},
		{24.99, psych, model.RiskLow},
		{25, psych, model.RiskModerate},
		{50, psych, model.RiskHigh},
		{74.9, psych, model.RiskHigh},
		{75, psych, model.RiskCritical},
		{100, psych, model.RiskCritical},
		{49.9, cbi, model.RiskLow},
		{50, cbi, model.RiskModerate},
		{75, cbi, model.RiskHigh},
		{33.3, duwas, model.RiskLow},
		{Rescale(2, catalog.DUWAS4, false), duwas, model.RiskModerate},
		{66.6, duwas, model.RiskModerate},
		{Rescale(3, catalog.DUWAS4, false), duwas, model.RiskHigh},
		{100, duwas, model.RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score, tt.th), "score %v", tt.score)
	}
}

func TestRiskOriented(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 80.0, RiskOriented(80, catalog.Negative))
	assert.Equal(t, 20.0, RiskOriented(80, catalog.Positive))
	assert.Equal(t, 20.0, Healthy(80, catalog.Negative))
	assert.Equal(t, 80.0, Healthy(80, catalog.Positive))
}

func TestClassifyInstrument_MeanAndMax(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.COPSOQ3)
	scores := map[string]float64{
		"Stress":           100, // risk 100
		"Horizontal Trust": 100, // risk 0
		"Burnout":          20,  // risk 20
	}

	v, level := ClassifyInstrument(in, scores, catalog.AggregateMean)
	assert.InDelta(t, 40.0, v, 1e-9)
	assert.Equal(t, model.RiskModerate, level)

	v, level = ClassifyInstrument(in, scores, catalog.AggregateMax)
	assert.InDelta(t, 100.0, v, 1e-9)
	assert.Equal(t, model.RiskCritical, level)

	v, level = ClassifyInstrument(in, map[string]float64{}, catalog.AggregateMean)
	assert.Zero(t, v)
	assert.Equal(t, model.RiskLow, level)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	copsoq := mustInstrument(t, catalog.COPSOQ3)
	duwas := mustInstrument(t, catalog.WorkAddiction)
	three := func(int, int) string { return "3" }

	t.Run("complete table", func(t *testing.T) {
		t.Parallel()
		v := Validate(copsoq, numericTable(copsoq, 6, three))
		assert.True(t, v.IsValid, v.Errors)
		assert.Empty(t, v.Errors)
		assert.InDelta(t, 100.0, v.QualityScore, 1e-9)
		assert.Equal(t, model.QualityExcellent, v.Quality())
	})

	t.Run("short instrument needs all its items only", func(t *testing.T) {
		t.Parallel()
		v := Validate(duwas, numericTable(duwas, 5, three))
		assert.True(t, v.IsValid, v.Errors)
	})

	t.Run("too few rows", func(t *testing.T) {
		t.Parallel()
		v := Validate(copsoq, numericTable(copsoq, 3, three))
		assert.False(t, v.IsValid)
		assert.Len(t, v.Errors, 1)
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		set := &model.ResponseSet{Columns: []string{"id", "name"}}
		v := Validate(copsoq, set)
		assert.False(t, v.IsValid)
		// No rows, no item columns, zero coverage.
		assert.Len(t, v.Errors, 3)
		assert.NotEmpty(t, v.Suggestions)
	})

	t.Run("low coverage", func(t *testing.T) {
		t.Parallel()
		v := Validate(copsoq, table(12, 6, three))
		assert.False(t, v.IsValid)
		assert.Contains(t, v.Errors[0], "dimensions")
	})

	t.Run("missing answers warn then fail", func(t *testing.T) {
		t.Parallel()
		warn := numericTable(copsoq, 8, func(row, _ int) string {
			if row >= 6 {
				return ""
			}
			return "3"
		})
		v := Validate(copsoq, warn)
		assert.True(t, v.IsValid, v.Errors)
		assert.Len(t, v.Warnings, 1)
		assert.InDelta(t, 75.0, v.QualityScore, 1e-9)

		fail := numericTable(copsoq, 6, func(row, _ int) string {
			if row >= 2 {
				return "NA"
			}
			return "3"
		})
		v = Validate(copsoq, fail)
		assert.False(t, v.IsValid)
	})

	t.Run("trims column names", func(t *testing.T) {
		t.Parallel()
		set := numericTable(copsoq, 6, three)
		for i := range set.Columns {
			set.Columns[i] = "  " + set.Columns[i] + " "
		}
		v := Validate(copsoq, set)
		assert.True(t, v.IsValid, v.Errors)
		assert.Equal(t, "P1", set.Columns[1])
	})

	t.Run("nil table", func(t *testing.T) {
		t.Parallel()
		assert.False(t, Validate(copsoq, nil).IsValid)
	})
}

func TestScore_RequiresValidation(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.COPSOQ2)
	p := NewProcessor(in)
	set := numericTable(in, 6, func(int, int) string { return "3" })

	_, err := p.Score(set, "team", model.ValidationResult{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotValidated))

	_, err = p.Score(set, "team", model.ValidationResult{IsValid: false, Errors: []string{"x"}})
	assert.True(t, eris.Is(err, ErrNotValidated))

	_, err = p.RespondentScores(set, model.ValidationResult{})
	assert.True(t, eris.Is(err, ErrNotValidated))
}

func TestScore_NothingScorable(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.COPSOQ2)
	p := NewProcessor(in)
	set := numericTable(in, 6, func(int, int) string { return "talvez" })

	v := p.Validate(set)
	require.True(t, v.IsValid, v.Errors)
	assert.NotEmpty(t, v.Warnings)

	_, err := p.Score(set, "team", v)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoScores))
}

func TestProcess_NumericMidpoint(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.COPSOQ2)
	fixed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	p := NewProcessor(in, WithClock(func() time.Time { return fixed }))

	res, v, err := p.Process(numericTable(in, 6, func(int, int) string { return "3" }), "Plant A")
	require.NoError(t, err)
	require.True(t, v.IsValid)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, model.TypeCOPSOQ2, res.Type)
	assert.Equal(t, "Plant A", res.Name)
	assert.Equal(t, fixed, res.CreatedAt)
	assert.Len(t, res.Data, len(in.Dimensions))
	for name, score := range res.Data {
		assert.InDelta(t, 50.0, score, 1e-9, name)
	}
	assert.Equal(t, model.RiskHigh, res.Level())
	assert.Equal(t, model.QualityExcellent, *res.Quality)
	assert.Equal(t, "numeric", res.Metadata["format"])
	assert.Equal(t, 6, res.Metadata["n_responses"])
	overall, ok := res.MetaFloat("overall_score")
	require.True(t, ok)
	assert.InDelta(t, 50.0, overall, 1e-9)
}

func TestProcess_InvalidReturnsValidation(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.COPSOQ3)
	res, v, err := NewProcessor(in).Process(&model.ResponseSet{Columns: []string{"P1"}}, "x")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.False(t, v.IsValid)
}

func TestProcess_StrictUsesWorstDimension(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.COPSOQ3)
	// Favorable everywhere except Stress.
	set := numericTable(in, 6, func(_, n int) string {
		unfavorable := n == 81 || n == 82
		if highRaw(in, n, unfavorable) {
			return "5"
		}
		return "1"
	})

	mean, _, err := NewProcessor(in).Process(set, "mean")
	require.NoError(t, err)
	assert.Equal(t, model.RiskLow, mean.Level())
	assert.Contains(t, mean.Insights[0], "Stress")

	strict, _, err := NewProcessor(in, WithStrict(true)).Process(set, "strict")
	require.NoError(t, err)
	assert.Equal(t, model.RiskCritical, strict.Level())
	assert.Equal(t, "max", strict.Metadata["aggregation"])
}

func TestProcess_WorkAddictionAnswerLevels(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.WorkAddiction)
	tests := []struct {
		answer  string
		overall float64
		want    model.RiskLevel
	}{
		{"(Quase) nunca", 0, model.RiskLow},
		{"Ocasionalmente", 100.0 / 3, model.RiskModerate},
		{"Frequentemente", 200.0 / 3, model.RiskHigh},
		{"(Quase) sempre", 100, model.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			t.Parallel()
			set := numericTable(in, 6, func(_, _ int) string { return tt.answer })
			res, v, err := NewProcessor(in).Process(set, "duwas")
			require.NoError(t, err)
			require.True(t, v.IsValid, v.Errors)
			assert.InDelta(t, tt.overall, res.Metadata["overall_score"], 1e-6)
			assert.Equal(t, tt.want, res.Level())
		})
	}
}

func TestProcess_EndToEndText(t *testing.T) {
	t.Parallel()
	for _, in := range catalog.All() {
		t.Run(in.ID, func(t *testing.T) {
			t.Parallel()
			p := NewProcessor(in)

			good, v, err := p.Process(textTable(in, false), "favorable")
			require.NoError(t, err)
			require.True(t, v.IsValid, v.Errors)
			assert.Equal(t, "textual", good.Metadata["format"])
			assert.Equal(t, model.RiskLow, good.Level())
			assert.Len(t, good.Data, len(in.Dimensions))

			bad, v, err := p.Process(textTable(in, true), "unfavorable")
			require.NoError(t, err)
			require.True(t, v.IsValid, v.Errors)
			assert.Equal(t, in.Thresholds.Top(), bad.Level())
		})
	}
}

func TestRespondentScores(t *testing.T) {
	t.Parallel()
	in := mustInstrument(t, catalog.WorkAddiction)
	set := numericTable(in, 5, func(row, _ int) string {
		if row == 4 {
			return ""
		}
		return strconv.Itoa(row%4 + 1)
	})
	p := NewProcessor(in)
	v := p.Validate(set)
	require.True(t, v.IsValid, v.Errors)

	rows, err := p.RespondentScores(set, v)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.InDelta(t, 0.0, rows[0]["Working Excessively"], 1e-9)
	assert.InDelta(t, 100.0, rows[3]["Working Compulsively"], 1e-9)
	assert.Empty(t, rows[4])
}
