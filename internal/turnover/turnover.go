// Package turnover computes workforce turnover rates and their financial
// impact for one reporting period.
package turnover

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

// ErrInvalidInput is returned when Process receives input that fails Validate.
var ErrInvalidInput = eris.New("turnover: invalid input")

// Costs holds per-head cost assumptions in local currency.
type Costs struct {
	Separation   float64 `json:"separation" yaml:"separation" mapstructure:"separation"`
	Hiring       float64 `json:"hiring" yaml:"hiring" mapstructure:"hiring"`
	Productivity float64 `json:"productivity" yaml:"productivity" mapstructure:"productivity"`
	// AnnualSalary is the average yearly payroll per head, used only to put
	// the impact in proportion.
	AnnualSalary float64 `json:"annual_salary" yaml:"annual_salary" mapstructure:"annual_salary"`
}

// DefaultCosts returns the default per-head cost assumptions.
func DefaultCosts() Costs {
	return Costs{
		Separation:   2500,
		Hiring:       1800,
		Productivity: 3200,
		AnnualSalary: 12000,
	}
}

// Input describes one reporting period.
type Input struct {
	StartHeadcount int    `json:"start_headcount"`
	EndHeadcount   int    `json:"end_headcount"`
	Hires          int    `json:"hires"`
	Separations    int    `json:"separations"`
	PeriodMonths   int    `json:"period_months"`
	Sector         string `json:"sector"`
	Costs          Costs  `json:"costs"`
}

// Summary holds the computed turnover metrics.
type Summary struct {
	MeanHeadcount    float64         `json:"mean_headcount"`
	PeriodRate       float64         `json:"period_rate"`
	AnnualRate       float64         `json:"annual_rate"`
	MonthlyRate      float64         `json:"monthly_rate"`
	Replacements     int             `json:"replacements"`
	SeparationCost   float64         `json:"separation_cost"`
	HiringCost       float64         `json:"hiring_cost"`
	ProductivityCost float64         `json:"productivity_cost"`
	Impact           float64         `json:"impact"`
	CostPerHead      float64         `json:"cost_per_head"`
	Benchmark        float64         `json:"benchmark"`
	BenchmarkKnown   bool            `json:"benchmark_known"`
	Level            model.RiskLevel `json:"level"`
}

const (
	longPeriodMonths  = 24
	highMovementPct   = 50.0
	warningPenalty    = 10.0
	qualityFloor      = 60.0
	highImpactPayroll = 20.0
	highImpactAmount  = 100000.0
	hiringRatioHigh   = 1.5
	hiringRatioLow    = 0.7
	highRateFactor    = 1.5
	modRateFactor     = 1.3
)

// Replacements is the like-for-like backfill count.
func Replacements(hires, separations int) int {
	return min(hires, separations)
}

// Impact returns the total cost of the period's movement.
func Impact(hires, separations int, c Costs) float64 {
	return float64(separations)*c.Separation +
		float64(hires)*c.Hiring +
		float64(Replacements(hires, separations))*c.Productivity
}

// Tier compares the annualized rate with the annual sector benchmark.
func Tier(annualRate, benchmark float64) model.RiskLevel {
	switch {
	case annualRate > benchmark*highRateFactor:
		return model.RiskHigh
	case annualRate > benchmark*modRateFactor:
		return model.RiskModerate
	}
	return model.RiskLow
}

// Validate checks the input. Inconsistent end headcount is a warning only.
func Validate(in Input) model.ValidationResult {
	v := model.ValidationResult{Errors: []string{}, Warnings: []string{}, Suggestions: []string{}}

	if in.StartHeadcount <= 0 {
		v.Errors = append(v.Errors, "start headcount must be greater than zero")
	}
	if in.EndHeadcount < 0 {
		v.Errors = append(v.Errors, "end headcount cannot be negative")
	}
	if in.Hires < 0 {
		v.Errors = append(v.Errors, "hires cannot be negative")
	}
	if in.Separations < 0 {
		v.Errors = append(v.Errors, "separations cannot be negative")
	}
	switch {
	case in.PeriodMonths <= 0:
		v.Errors = append(v.Errors, "period must be at least one month")
	case in.PeriodMonths > longPeriodMonths:
		v.Warnings = append(v.Warnings, fmt.Sprintf("period longer than %d months; consider yearly analyses", longPeriodMonths))
	}

	if in.StartHeadcount > 0 {
		expected := in.StartHeadcount + in.Hires - in.Separations
		if in.EndHeadcount != expected {
			diff := in.EndHeadcount - expected
			if diff < 0 {
				diff = -diff
			}
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"end headcount %d differs from start + hires - separations (%d) by %d",
				in.EndHeadcount, expected, diff))
		}
		movement := float64(in.Hires+in.Separations) / float64(in.StartHeadcount) * 100
		if movement > highMovementPct {
			v.Warnings = append(v.Warnings, fmt.Sprintf("high movement: %.1f%% of start headcount", movement))
		}
	}
	if in.Hires == 0 && in.Separations == 0 {
		v.Suggestions = append(v.Suggestions, "no movement in the period; check that the data is complete")
	}

	v.IsValid = len(v.Errors) == 0
	if v.IsValid {
		v.QualityScore = math.Max(qualityFloor, 100-warningPenalty*float64(len(v.Warnings)))
	}
	return v
}

// Calculator computes turnover analyses against a benchmark table.
type Calculator struct {
	benchmarks catalog.Benchmarks
	now        func() time.Time
}

// NewCalculator creates a Calculator with the given sector benchmarks.
func NewCalculator(b catalog.Benchmarks) *Calculator {
	return &Calculator{benchmarks: b, now: time.Now}
}

// WithClock overrides the timestamp source.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	c.now = now
	return c
}

// Compute applies the turnover formulas. The caller must have validated in;
// a non-positive period yields zero annualized rates.
func (c *Calculator) Compute(in Input) Summary {
	s := Summary{MeanHeadcount: float64(in.StartHeadcount+in.EndHeadcount) / 2}
	if s.MeanHeadcount > 0 {
		s.PeriodRate = float64(in.Hires+in.Separations) / 2 / s.MeanHeadcount * 100
	}
	if in.PeriodMonths > 0 {
		s.AnnualRate = s.PeriodRate * 12 / float64(in.PeriodMonths)
		s.MonthlyRate = s.PeriodRate / float64(in.PeriodMonths)
	}

	s.Replacements = Replacements(in.Hires, in.Separations)
	s.SeparationCost = float64(in.Separations) * in.Costs.Separation
	s.HiringCost = float64(in.Hires) * in.Costs.Hiring
	s.ProductivityCost = float64(s.Replacements) * in.Costs.Productivity
	s.Impact = s.SeparationCost + s.HiringCost + s.ProductivityCost
	if s.MeanHeadcount > 0 {
		s.CostPerHead = s.Impact / s.MeanHeadcount
	}

	s.Benchmark, s.BenchmarkKnown = c.benchmarks.For(in.Sector)
	s.Level = Tier(s.AnnualRate, s.Benchmark)
	return s
}

// Process validates and computes in one step.
func (c *Calculator) Process(in Input, name string) (*model.AnalysisResult, model.ValidationResult, error) {
	v := Validate(in)
	if !v.IsValid {
		return nil, v, eris.Wrapf(ErrInvalidInput, "turnover: process %q", name)
	}
	s := c.Compute(in)

	return &model.AnalysisResult{
		ID:        uuid.NewString(),
		Type:      model.TypeTurnover,
		Name:      name,
		CreatedAt: c.now().UTC(),
		Data: map[string]float64{
			"period_rate":       s.PeriodRate,
			"annual_rate":       s.AnnualRate,
			"monthly_rate":      s.MonthlyRate,
			"replacements":      float64(s.Replacements),
			"separation_cost":   s.SeparationCost,
			"hiring_cost":       s.HiringCost,
			"productivity_cost": s.ProductivityCost,
			"financial_impact":  s.Impact,
			"cost_per_head":     s.CostPerHead,
		},
		Metadata: map[string]any{
			"start_headcount": in.StartHeadcount,
			"end_headcount":   in.EndHeadcount,
			"mean_headcount":  s.MeanHeadcount,
			"hires":           in.Hires,
			"separations":     in.Separations,
			"period_months":   in.PeriodMonths,
			"sector":          in.Sector,
			"benchmark":       s.Benchmark,
			"benchmark_known": s.BenchmarkKnown,
			"warnings":        v.Warnings,
		},
		Quality:   model.Ptr(v.Quality()),
		RiskLevel: model.Ptr(s.Level),
		Insights:  insights(in, s),
	}, v, nil
}

func insights(in Input, s Summary) []string {
	var out []string

	diff := s.AnnualRate - s.Benchmark
	switch {
	case diff > s.Benchmark*0.5:
		out = append(out, fmt.Sprintf("Critical turnover: annual rate %.2f%% is %.1f points above the sector benchmark (%.1f%%)", s.AnnualRate, diff, s.Benchmark))
	case diff > 0:
		out = append(out, fmt.Sprintf("Annual turnover %.2f%% is %.1f points above the sector benchmark (%.1f%%)", s.AnnualRate, diff, s.Benchmark))
	default:
		out = append(out, "Turnover is within the sector benchmark")
	}

	if s.MeanHeadcount > 0 {
		switch net := in.Hires - in.Separations; {
		case net > 0:
			out = append(out, fmt.Sprintf("Headcount grew by %d (%.1f%%)", net, float64(net)/s.MeanHeadcount*100))
		case net < 0:
			out = append(out, fmt.Sprintf("Headcount shrank by %d (%.1f%%)", -net, float64(-net)/s.MeanHeadcount*100))
		default:
			out = append(out, "Stable headcount: hires and separations balance out")
		}
	}

	if payroll := s.MeanHeadcount * in.Costs.AnnualSalary; payroll > 0 {
		if pct := s.Impact / payroll * 100; pct > highImpactPayroll {
			out = append(out, fmt.Sprintf("High financial impact: %.2f (about %.1f%% of estimated annual payroll)", s.Impact, pct))
		} else if s.Impact > highImpactAmount {
			out = append(out, fmt.Sprintf("Significant financial impact: %.2f", s.Impact))
		}
	}

	if in.Hires > 0 && in.Separations > 0 {
		switch ratio := float64(in.Hires) / float64(in.Separations); {
		case ratio > hiringRatioHigh:
			out = append(out, fmt.Sprintf("Hiring outpaces separations (%d vs %d): expansion or retention difficulty", in.Hires, in.Separations))
		case ratio < hiringRatioLow:
			out = append(out, fmt.Sprintf("Separations outpace hiring (%d vs %d): restructuring or cost reduction", in.Separations, in.Hires))
		}
	}
	return out
}
