package absence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// January 2024 starts on a Monday; the first four weeks hold 20 working days.
var (
	janStart = day(2024, 1, 1)
	janEnd   = day(2024, 1, 26)
)

func TestWorkingDays(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"single weekday", day(2024, 1, 3), day(2024, 1, 3), 1},
		{"four weeks", janStart, janEnd, 20},
		{"weekend only", day(2024, 1, 6), day(2024, 1, 7), 0},
		{"friday to monday", day(2024, 1, 5), day(2024, 1, 8), 2},
		{"inverted", day(2024, 1, 8), day(2024, 1, 5), 0},
		{"leap february", day(2024, 2, 1), day(2024, 2, 29), 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, WorkingDays(tt.from, tt.to))
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-05", day(2024, 3, 5), true},
		{"05/03/2024", day(2024, 3, 5), true},
		{"5/3/2024", day(2024, 3, 5), true},
		{"05-03-2024", day(2024, 3, 5), true},
		{"05.03.2024", day(2024, 3, 5), true},
		{"05/03/24", day(2024, 3, 5), true},
		{"05/03/2024 14:30", day(2024, 3, 5), true},
		{"2024-03-05T08:00:00Z", day(2024, 3, 5), true},
		{"31/02/2024", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestBradford_SuperLinearInSpells(t *testing.T) {
	t.Parallel()
	// Same total days spread over more spells always scores higher.
	for days := 2; days <= 20; days++ {
		for spells := 1; spells < days; spells++ {
			assert.Greater(t, Bradford(spells+1, days), Bradford(spells, days))
		}
	}
	assert.Equal(t, 10.0, Bradford(1, 10))
	assert.Equal(t, 1000.0, Bradford(10, 10))
}

func TestRateAndTier(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.5, Rate(3, 10, 20), 1e-9)
	assert.Zero(t, Rate(3, 0, 20))
	assert.Zero(t, Rate(3, 10, 0))

	assert.Equal(t, model.RiskHigh, Tier(5.3, 3.5))
	assert.Equal(t, model.RiskModerate, Tier(4.5, 3.5))
	assert.Equal(t, model.RiskLow, Tier(4.0, 3.5))
}

func TestCompute_Fixture(t *testing.T) {
	t.Parallel()
	e := NewEngine(catalog.AbsenceBenchmarks())
	s := e.Compute(Input{
		Records: []Record{
			{Subject: "e1", Start: day(2024, 1, 3), End: day(2024, 1, 3)},
			{Subject: "e1", Start: day(2024, 1, 10), End: day(2024, 1, 10)},
			{Subject: "e1", Start: day(2024, 1, 17), End: day(2024, 1, 17)},
		},
		WindowStart: janStart,
		WindowEnd:   janEnd,
		Headcount:   10,
		Sector:      "services",
	})

	assert.Equal(t, 20, s.WindowDays)
	assert.Equal(t, 3, s.DaysLost)
	assert.Equal(t, 3, s.Episodes)
	assert.Equal(t, 1, s.Subjects)
	assert.Equal(t, 27.0, s.Bradford["e1"])
	assert.InDelta(t, 1.5, s.Rate, 1e-9)
	assert.Equal(t, model.RiskLow, s.Level)
	assert.False(t, s.Degenerate)
}

func TestCompute_ClippingAndDrops(t *testing.T) {
	t.Parallel()
	e := NewEngine(catalog.AbsenceBenchmarks())
	s := e.Compute(Input{
		Records: []Record{
			// Starts before the window: clipped to Jan 1-2.
			{Subject: "a", Start: day(2023, 12, 27), End: day(2024, 1, 2)},
			// End before start.
			{Subject: "b", Start: day(2024, 1, 10), End: day(2024, 1, 9)},
			// Entirely after the window.
			{Subject: "c", Start: day(2024, 2, 5), End: day(2024, 2, 6)},
			// Weekend only.
			{Subject: "d", Start: day(2024, 1, 13), End: day(2024, 1, 14)},
			// Runs past the window end: clipped to Jan 26.
			{Subject: "a", Start: day(2024, 1, 26), End: day(2024, 2, 2)},
		},
		WindowStart: janStart,
		WindowEnd:   janEnd,
		Headcount:   5,
	})

	assert.Equal(t, 3, s.DaysLost)
	assert.Equal(t, 2, s.Episodes)
	assert.Equal(t, 1, s.DroppedInverted)
	assert.Equal(t, 1, s.DroppedOutside)
	assert.Equal(t, 1, s.DroppedNoDays)
	assert.Equal(t, 12.0, s.Bradford["a"])
	assert.InDelta(t, 3.0, s.Rate, 1e-9)
	assert.False(t, s.BenchmarkKnown)
	assert.Equal(t, catalog.DefaultAbsenceBenchmark, s.Benchmark)
}

func TestCompute_Degenerate(t *testing.T) {
	t.Parallel()
	e := NewEngine(catalog.AbsenceBenchmarks())
	recs := []Record{{Subject: "a", Start: day(2024, 1, 3), End: day(2024, 1, 3)}}

	s := e.Compute(Input{Records: recs, WindowStart: janStart, WindowEnd: janEnd, Headcount: 0})
	assert.True(t, s.Degenerate)
	assert.Zero(t, s.Rate)

	// A weekend-only window has no working days.
	s = e.Compute(Input{Records: recs, WindowStart: day(2024, 1, 6), WindowEnd: day(2024, 1, 7), Headcount: 10})
	assert.True(t, s.Degenerate)
	assert.Zero(t, s.Rate)
	assert.Equal(t, model.RiskLow, s.Level)
}

func TestProcess(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	e := NewEngine(catalog.AbsenceBenchmarks()).WithClock(func() time.Time { return fixed })

	var recs []Record
	// Eight one-day spells for one subject: Bradford 64 × 8 = 512.
	for i := 0; i < 8; i++ {
		d := janStart.AddDate(0, 0, i*3)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 2)
		}
		recs = append(recs, Record{Subject: "s1", Start: d, End: d})
	}

	res, err := e.Process(Input{
		Records: recs, WindowStart: janStart, WindowEnd: janEnd,
		Headcount: 2, Sector: "Saúde", Malformed: 2,
	}, "January")
	require.NoError(t, err)

	assert.Equal(t, model.TypeAbsenteeism, res.Type)
	assert.Equal(t, fixed, res.CreatedAt)
	assert.InDelta(t, 20.0, res.Data["absence_rate"], 1e-9)
	assert.Equal(t, 512.0, res.Data["max_bradford"])
	assert.Equal(t, 5.5, res.Data["benchmark"])
	assert.Equal(t, model.RiskHigh, res.Level())
	assert.Equal(t, 2, res.Metadata["dropped_malformed"])
	assert.Equal(t, 1, res.Metadata["subjects_over_alert"])
	assert.Equal(t, []string{"s1"}, res.Metadata["top_subjects"])
	require.Len(t, res.Insights, 3)
	assert.Contains(t, res.Insights[0], "well above")
}

func TestProcess_RequiresWindow(t *testing.T) {
	t.Parallel()
	_, err := NewEngine(catalog.AbsenceBenchmarks()).Process(Input{Headcount: 1}, "x")
	assert.Error(t, err)
}

func TestValidateAndReadRecords(t *testing.T) {
	t.Parallel()
	set := &model.ResponseSet{
		Columns: []string{" employee_id", "start_date ", "end_date"},
		Rows: [][]string{
			{"e1", "03/01/2024", "03/01/2024"},
			{"e2", "2024-01-10", "12/01/2024"},
			{"e3", "not a date", "12/01/2024"},
			{"", "03/01/2024", "03/01/2024"},
		},
	}

	v := Validate(set, DefaultColumns())
	assert.True(t, v.IsValid, v.Errors)

	recs, malformed, err := ReadRecords(set, DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, 2, malformed)
	require.Len(t, recs, 2)
	assert.Equal(t, day(2024, 1, 3), recs[0].Start)
	assert.Equal(t, day(2024, 1, 12), recs[1].End)

	bad := &model.ResponseSet{Columns: []string{"id", "from"}}
	v = Validate(bad, DefaultColumns())
	assert.False(t, v.IsValid)
	assert.Len(t, v.Errors, 2)

	_, _, err = ReadRecords(bad, DefaultColumns())
	assert.Error(t, err)
}

func TestProcessTable(t *testing.T) {
	t.Parallel()
	e := NewEngine(catalog.AbsenceBenchmarks())
	set := &model.ResponseSet{
		Columns: []string{"matricula", "inicio", "fim"},
		Rows: [][]string{
			{"e1", "03/01/2024", "03/01/2024"},
			{"e1", "10/01/2024", "10/01/2024"},
			{"e1", "17/01/2024", "17/01/2024"},
			{"e2", "??", "17/01/2024"},
		},
	}
	cols := Columns{Subject: "matricula", Start: "inicio", End: "fim"}

	res, v, err := e.ProcessTable(TableInput{
		Set: set, Columns: cols, WindowStart: janStart, WindowEnd: janEnd, Headcount: 10, Sector: "services",
	}, "jan")
	require.NoError(t, err)
	assert.True(t, v.IsValid)
	assert.Len(t, v.Warnings, 1)
	assert.InDelta(t, 1.5, res.Data["absence_rate"], 1e-9)
	assert.Equal(t, 1, res.Metadata["dropped_malformed"])

	res, v, err = e.ProcessTable(TableInput{Set: set, Columns: DefaultColumns(), WindowStart: janStart, WindowEnd: janEnd}, "bad")
	require.NoError(t, err)
	assert.False(t, v.IsValid)
	assert.Nil(t, res)
}
