// Package absence measures sickness-absence patterns: the absence rate over
// a reporting window and the per-employee Bradford factor, which weighs
// frequent short spells more heavily than a single long one.
package absence

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

// Bradford factor reference points.
const (
	BradfordAlert    = 200.0
	meanBradfordHigh = 100.0
	meanBradfordMid  = 50.0
)

// Benchmark multipliers for the rate tiers.
const (
	highRateFactor     = 1.5
	moderateRateFactor = 1.2
)

// Record is one absence spell as reported, before clipping.
type Record struct {
	Subject string    `json:"subject"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Input is everything needed for one absence analysis.
type Input struct {
	Records     []Record  `json:"records"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Headcount   int       `json:"headcount"`
	Sector      string    `json:"sector"`
	// Malformed counts rows already dropped while reading the source table.
	Malformed int `json:"malformed,omitempty"`
}

// Summary is the computed absence picture.
type Summary struct {
	Rate           float64            `json:"rate"`
	DaysLost       int                `json:"days_lost"`
	WindowDays     int                `json:"window_days"`
	Episodes       int                `json:"episodes"`
	Subjects       int                `json:"subjects"`
	Bradford       map[string]float64 `json:"bradford"`
	MeanBradford   float64            `json:"mean_bradford"`
	MaxBradford    float64            `json:"max_bradford"`
	OverAlert      int                `json:"over_alert"`
	Benchmark      float64            `json:"benchmark"`
	BenchmarkKnown bool               `json:"benchmark_known"`
	Level          model.RiskLevel    `json:"level"`
	Degenerate     bool               `json:"degenerate"`

	DroppedInverted int `json:"dropped_inverted"`
	DroppedOutside  int `json:"dropped_outside"`
	DroppedNoDays   int `json:"dropped_no_days"`
}

// Bradford returns S² × D for S spells totalling D working days.
func Bradford(spells, days int) float64 {
	s := float64(spells)
	return s * s * float64(days)
}

// Rate returns lost working days as a percentage of available working days.
// A zero denominator yields 0.
func Rate(daysLost, headcount, windowDays int) float64 {
	available := headcount * windowDays
	if available <= 0 {
		return 0
	}
	return float64(daysLost) / float64(available) * 100
}

// Tier compares a rate with its sector benchmark.
func Tier(rate, benchmark float64) model.RiskLevel {
	switch {
	case rate > benchmark*highRateFactor:
		return model.RiskHigh
	case rate > benchmark*moderateRateFactor:
		return model.RiskModerate
	}
	return model.RiskLow
}

// Engine computes absence analyses against a benchmark table.
type Engine struct {
	benchmarks catalog.Benchmarks
	now        func() time.Time
}

// NewEngine returns an engine using the given sector benchmarks.
func NewEngine(b catalog.Benchmarks) *Engine {
	return &Engine{benchmarks: b, now: time.Now}
}

// WithClock overrides the timestamp source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

type subjectTally struct {
	spells int
	days   int
}

// Compute runs the absence rules over in. It never fails: degenerate input
// yields a zero rate flagged as Degenerate.
func (e *Engine) Compute(in Input) Summary {
	winStart, winEnd := civil(in.WindowStart), civil(in.WindowEnd)
	s := Summary{
		WindowDays: WorkingDays(winStart, winEnd),
		Bradford:   map[string]float64{},
	}
	s.Benchmark, s.BenchmarkKnown = e.benchmarks.For(in.Sector)

	tally := map[string]*subjectTally{}
	for _, r := range in.Records {
		start, end := civil(r.Start), civil(r.End)
		if end.Before(start) {
			s.DroppedInverted++
			continue
		}
		if end.Before(winStart) || start.After(winEnd) {
			s.DroppedOutside++
			continue
		}
		start, end = maxTime(start, winStart), minTime(end, winEnd)
		if end.Before(start) {
			s.DroppedOutside++
			continue
		}
		days := WorkingDays(start, end)
		if days == 0 {
			s.DroppedNoDays++
			continue
		}

		t, ok := tally[r.Subject]
		if !ok {
			t = &subjectTally{}
			tally[r.Subject] = t
		}
		t.spells++
		t.days += days
		s.Episodes++
		s.DaysLost += days
	}

	factors := make(stats.Float64Data, 0, len(tally))
	for subject, t := range tally {
		b := Bradford(t.spells, t.days)
		s.Bradford[subject] = b
		factors = append(factors, b)
		if b > BradfordAlert {
			s.OverAlert++
		}
	}
	s.Subjects = len(tally)
	if len(factors) > 0 {
		s.MeanBradford, _ = stats.Mean(factors)
		s.MaxBradford, _ = stats.Max(factors)
	}

	if in.Headcount <= 0 || s.WindowDays == 0 {
		s.Degenerate = true
		zap.L().Warn("absence: degenerate input, rate set to 0",
			zap.Int("headcount", in.Headcount),
			zap.Int("window_working_days", s.WindowDays),
		)
	}
	s.Rate = Rate(s.DaysLost, in.Headcount, s.WindowDays)
	s.Level = Tier(s.Rate, s.Benchmark)
	return s
}

// Process computes the analysis and wraps it in a result.
func (e *Engine) Process(in Input, name string) (*model.AnalysisResult, error) {
	if in.WindowStart.IsZero() || in.WindowEnd.IsZero() {
		return nil, eris.New("absence: process: reporting window is required")
	}
	s := e.Compute(in)

	dropped := in.Malformed + s.DroppedInverted + s.DroppedOutside + s.DroppedNoDays
	if dropped > 0 {
		zap.L().Debug("absence: records dropped",
			zap.Int("malformed", in.Malformed),
			zap.Int("inverted", s.DroppedInverted),
			zap.Int("outside_window", s.DroppedOutside),
			zap.Int("no_working_days", s.DroppedNoDays),
		)
	}

	quality := model.QualityGood
	total := len(in.Records) + in.Malformed
	if total > 0 {
		quality = model.QualityFromScore(100 - float64(dropped)/float64(total)*100)
	}
	if s.Degenerate {
		quality = model.QualityPoor
	}

	return &model.AnalysisResult{
		ID:        uuid.NewString(),
		Type:      model.TypeAbsenteeism,
		Name:      name,
		CreatedAt: e.now().UTC(),
		Data: map[string]float64{
			"absence_rate":        s.Rate,
			"days_lost":           float64(s.DaysLost),
			"episodes":            float64(s.Episodes),
			"subjects":            float64(s.Subjects),
			"mean_bradford":       s.MeanBradford,
			"max_bradford":        s.MaxBradford,
			"window_working_days": float64(s.WindowDays),
			"benchmark":           s.Benchmark,
		},
		Metadata: map[string]any{
			"sector":                 in.Sector,
			"benchmark_known":        s.BenchmarkKnown,
			"headcount":              in.Headcount,
			"window_start":           civil(in.WindowStart).Format(time.DateOnly),
			"window_end":             civil(in.WindowEnd).Format(time.DateOnly),
			"records":                total,
			"dropped_malformed":      in.Malformed,
			"dropped_inverted":       s.DroppedInverted,
			"dropped_outside_window": s.DroppedOutside,
			"dropped_no_working_day": s.DroppedNoDays,
			"degenerate_input":       s.Degenerate,
			"subjects_over_alert":    s.OverAlert,
			"bradford":               s.Bradford,
			"top_subjects":           TopSubjects(s.Bradford, 5),
		},
		Quality:   model.Ptr(quality),
		RiskLevel: model.Ptr(s.Level),
		Insights:  insights(s, in.Sector),
	}, nil
}

func insights(s Summary, sector string) []string {
	var out []string
	if s.Degenerate {
		out = append(out, "Headcount or reporting window is empty; the absence rate could not be measured")
	} else {
		label := sector
		if !s.BenchmarkKnown || label == "" {
			label = "default"
		}
		switch s.Level {
		case model.RiskHigh:
			out = append(out, fmt.Sprintf("Absence rate %.2f%% is well above the %s benchmark of %.2f%%", s.Rate, label, s.Benchmark))
		case model.RiskModerate:
			out = append(out, fmt.Sprintf("Absence rate %.2f%% is above the %s benchmark of %.2f%%", s.Rate, label, s.Benchmark))
		default:
			out = append(out, fmt.Sprintf("Absence rate %.2f%% is within the %s benchmark of %.2f%%", s.Rate, label, s.Benchmark))
		}
	}

	switch {
	case s.MeanBradford > meanBradfordHigh:
		out = append(out, fmt.Sprintf("Mean Bradford factor %.0f indicates a pattern of frequent short absences", s.MeanBradford))
	case s.MeanBradford > meanBradfordMid:
		out = append(out, fmt.Sprintf("Mean Bradford factor %.0f suggests recurring short absences worth monitoring", s.MeanBradford))
	}
	if s.OverAlert > 0 {
		out = append(out, fmt.Sprintf("%d employee(s) exceed a Bradford factor of %.0f", s.OverAlert, BradfordAlert))
	}
	return out
}

// TopSubjects returns up to n subjects ordered by Bradford factor, highest
// first, ties broken by subject.
func TopSubjects(bradford map[string]float64, n int) []string {
	subjects := make([]string, 0, len(bradford))
	for s := range bradford {
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if bradford[subjects[i]] != bradford[subjects[j]] {
			return bradford[subjects[i]] > bradford[subjects[j]]
		}
		return subjects[i] < subjects[j]
	})
	if n >= 0 && len(subjects) > n {
		subjects = subjects[:n]
	}
	return subjects
}
