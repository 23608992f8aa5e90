// Package inventory consolidates finished analyses for one organizational
// unit into a flat risk inventory with a likelihood × severity matrix.
package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
	"github.com/sells-group/risk-inventory/internal/scoring"
)

// Sentinel errors.
var (
	ErrMissingPsychosocial = eris.New("inventory: psychosocial result is required")
	ErrUnexpectedType      = eris.New("inventory: unexpected result type")
)

// Entry categories.
const (
	CategoryPsychosocial  = "psychosocial"
	CategoryBurnout       = "burnout"
	CategoryWorkAddiction = "work_addiction"
	CategoryIndicator     = "organizational_indicator"
)

// Regulation tags attached to entries.
const (
	RegulationPsychosocial = "NR-1, NR-17"
	RegulationGeneral      = "NR-1"
)

// Fixed cuts used by consolidation.
const (
	HealthyCut          = 40.0
	AbsenceEntryRate    = 5.0
	AbsenceSevereRate   = 10.0
	TurnoverEntryRate   = 15.0
	TurnoverSevereRate  = 25.0
	programRiskCount    = 5
	topRisks            = 5
	indicatorSourceName = "HR indicators"
)

// Entry is one consolidated risk finding. Entries are never merged across
// sources.
type Entry struct {
	Source      string  `json:"source" yaml:"source"`
	Category    string  `json:"category" yaml:"category"`
	Dimension   string  `json:"dimension" yaml:"dimension"`
	Score       float64 `json:"score" yaml:"score"`
	Severity    int     `json:"severity" yaml:"severity"`
	Likelihood  int     `json:"likelihood" yaml:"likelihood"`
	Description string  `json:"description" yaml:"description"`
	Regulation  string  `json:"regulation" yaml:"regulation"`
}

// Input holds the results for one organizational unit. Only Psychosocial is
// required.
type Input struct {
	Psychosocial  *model.AnalysisResult `json:"psychosocial"`
	Burnout       *model.AnalysisResult `json:"burnout,omitempty"`
	WorkAddiction *model.AnalysisResult `json:"work_addiction,omitempty"`
	AbsenceRate   *float64              `json:"absence_rate,omitempty"`
	TurnoverRate  *float64              `json:"turnover_rate,omitempty"`
}

// Summary describes one instrument's contribution.
type Summary struct {
	Instrument  string             `json:"instrument" yaml:"instrument"`
	Type        model.AnalysisType `json:"type" yaml:"type"`
	ResultID    string             `json:"result_id" yaml:"result_id"`
	Respondents int                `json:"respondents" yaml:"respondents"`
	Dimensions  int                `json:"dimensions" yaml:"dimensions"`
	Score       float64            `json:"score" yaml:"score"`
	Level       model.RiskLevel    `json:"level" yaml:"level"`
	Risks       int                `json:"risks" yaml:"risks"`
}

// Indicators echoes the HR rates used.
type Indicators struct {
	AbsenceRate  *float64 `json:"absence_rate,omitempty" yaml:"absence_rate,omitempty"`
	TurnoverRate *float64 `json:"turnover_rate,omitempty" yaml:"turnover_rate,omitempty"`
}

// ExecutiveSummary is the headline view of an inventory.
type ExecutiveSummary struct {
	GeneratedAt        time.Time `json:"generated_at" yaml:"generated_at"`
	InstrumentsApplied int       `json:"instruments_applied" yaml:"instruments_applied"`
	TotalRespondents   int       `json:"total_respondents" yaml:"total_respondents"`
	TotalRisks         int       `json:"total_risks" yaml:"total_risks"`
	OverallLevel       Level     `json:"overall_level" yaml:"overall_level"`
	TopRisks           []Entry   `json:"top_risks" yaml:"top_risks"`
	Recommendations    []string  `json:"recommendations" yaml:"recommendations"`
}

// Inventory is the consolidated output.
type Inventory struct {
	Summaries  []Summary        `json:"summaries" yaml:"summaries"`
	Indicators Indicators       `json:"indicators" yaml:"indicators"`
	Entries    []Entry          `json:"entries" yaml:"entries"`
	Executive  ExecutiveSummary `json:"executive_summary" yaml:"executive_summary"`
	Matrix     Matrix           `json:"matrix" yaml:"matrix"`
}

// SeverityForScore bands a healthy-direction dimension score into 1-5.
// The bands are independent of the instrument thresholds.
func SeverityForScore(healthy float64) int {
	switch {
	case healthy < 20:
		return 5
	case healthy < 30:
		return 4
	case healthy < 40:
		return 3
	}
	return 2
}

// Engine builds inventories.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// WithClock overrides the timestamp source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Consolidate turns the input results into an inventory.
func (e *Engine) Consolidate(in Input) (*Inventory, error) {
	if in.Psychosocial == nil {
		return nil, eris.Wrap(ErrMissingPsychosocial, "inventory: consolidate")
	}
	psych, err := instrumentFor(in.Psychosocial, model.TypeCOPSOQ3, model.TypeCOPSOQ2)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: consolidate psychosocial")
	}

	inv := &Inventory{
		Indicators: Indicators{AbsenceRate: in.AbsenceRate, TurnoverRate: in.TurnoverRate},
		Entries:    []Entry{},
	}

	psychEntries := PsychosocialEntries(psych, in.Psychosocial)
	inv.Entries = append(inv.Entries, psychEntries...)
	inv.Summaries = append(inv.Summaries, summarize(psych, in.Psychosocial, len(psychEntries)))

	for _, opt := range []struct {
		res      *model.AnalysisResult
		typ      model.AnalysisType
		category string
		label    string
	}{
		{in.Burnout, model.TypeBurnout, CategoryBurnout, "Burnout"},
		{in.WorkAddiction, model.TypeWorkAddiction, CategoryWorkAddiction, "Work addiction"},
	} {
		if opt.res == nil {
			continue
		}
		ins, err := instrumentFor(opt.res, opt.typ)
		if err != nil {
			return nil, eris.Wrapf(err, "inventory: consolidate %s", opt.category)
		}
		var entries []Entry
		if entry, ok := LevelEntry(ins, opt.res, opt.category, opt.label); ok {
			entries = append(entries, entry)
		}
		inv.Entries = append(inv.Entries, entries...)
		inv.Summaries = append(inv.Summaries, summarize(ins, opt.res, len(entries)))
	}

	inv.Entries = append(inv.Entries, IndicatorEntries(in.AbsenceRate, in.TurnoverRate)...)
	sort.SliceStable(inv.Entries, func(i, j int) bool {
		return inv.Entries[i].Severity > inv.Entries[j].Severity
	})

	inv.Matrix = BuildMatrix(inv.Entries)
	inv.Executive = e.executive(in, inv)

	zap.L().Debug("inventory: consolidated",
		zap.Int("entries", len(inv.Entries)),
		zap.String("overall_level", string(inv.Executive.OverallLevel)),
	)
	return inv, nil
}

func instrumentFor(res *model.AnalysisResult, allowed ...model.AnalysisType) (*catalog.Instrument, error) {
	for _, t := range allowed {
		if res.Type != t {
			continue
		}
		in, ok := catalog.ByType(t)
		if !ok {
			break
		}
		return in, nil
	}
	return nil, eris.Wrapf(ErrUnexpectedType, "got %q", res.Type)
}

// PsychosocialEntries emits one entry per dimension whose healthy-direction
// score falls below HealthyCut. Dimensions follow catalog order; unknown
// dimensions follow in name order and are read as negative.
func PsychosocialEntries(in *catalog.Instrument, res *model.AnalysisResult) []Entry {
	names := make([]string, 0, len(res.Data))
	for _, d := range in.Dimensions {
		if _, ok := res.Data[d.Name]; ok {
			names = append(names, d.Name)
		}
	}
	var extra []string
	for name := range res.Data {
		if _, ok := in.Dimension(name); !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	var out []Entry
	for _, name := range names {
		healthy := scoring.Healthy(res.Data[name], in.Polarity(name))
		if healthy >= HealthyCut {
			continue
		}
		out = append(out, Entry{
			Source:      in.Name,
			Category:    CategoryPsychosocial,
			Dimension:   name,
			Score:       healthy,
			Severity:    SeverityForScore(healthy),
			Likelihood:  LikelihoodFor(CategoryPsychosocial),
			Description: fmt.Sprintf("Low score in %s: %.1f/100", name, healthy),
			Regulation:  RegulationPsychosocial,
		})
	}
	return out
}

// LevelEntry emits a single entry when an instrument's own level is high or
// worse: severity 4 for critical, 3 otherwise.
func LevelEntry(in *catalog.Instrument, res *model.AnalysisResult, category, label string) (Entry, bool) {
	level := res.Level()
	if !level.AtLeast(model.RiskHigh) {
		return Entry{}, false
	}
	severity := 3
	if level == model.RiskCritical {
		severity = 4
	}
	score, _ := res.MetaFloat("overall_score")
	return Entry{
		Source:      in.Name,
		Category:    category,
		Dimension:   label,
		Score:       score,
		Severity:    severity,
		Likelihood:  LikelihoodFor(category),
		Description: fmt.Sprintf("%s level %s", label, level),
		Regulation:  RegulationGeneral,
	}, true
}

// IndicatorEntries turns HR rates into entries. Nil rates are skipped.
func IndicatorEntries(absence, turnover *float64) []Entry {
	var out []Entry
	if absence != nil && *absence > AbsenceEntryRate {
		sev := 2
		if *absence > AbsenceSevereRate {
			sev = 3
		}
		out = append(out, Entry{
			Source:      indicatorSourceName,
			Category:    CategoryIndicator,
			Dimension:   "Absenteeism",
			Score:       *absence,
			Severity:    sev,
			Likelihood:  LikelihoodFor(CategoryIndicator),
			Description: fmt.Sprintf("High absence rate: %.1f%%", *absence),
			Regulation:  RegulationGeneral,
		})
	}
	if turnover != nil && *turnover > TurnoverEntryRate {
		sev := 2
		if *turnover > TurnoverSevereRate {
			sev = 3
		}
		out = append(out, Entry{
			Source:      indicatorSourceName,
			Category:    CategoryIndicator,
			Dimension:   "Turnover",
			Score:       *turnover,
			Severity:    sev,
			Likelihood:  LikelihoodFor(CategoryIndicator),
			Description: fmt.Sprintf("High turnover rate: %.1f%%", *turnover),
			Regulation:  RegulationGeneral,
		})
	}
	return out
}

func respondents(res *model.AnalysisResult) int {
	n, _ := res.MetaFloat("n_responses")
	return int(n)
}

func summarize(in *catalog.Instrument, res *model.AnalysisResult, risks int) Summary {
	score, ok := res.MetaFloat("overall_score")
	if !ok {
		score, _ = scoring.Overall(in, res.Data, in.Aggregation)
	}
	return Summary{
		Instrument:  in.Name,
		Type:        res.Type,
		ResultID:    res.ID,
		Respondents: respondents(res),
		Dimensions:  len(res.Data),
		Score:       score,
		Level:       res.Level(),
		Risks:       risks,
	}
}

func (e *Engine) executive(in Input, inv *Inventory) ExecutiveSummary {
	applied := len(inv.Summaries)
	if in.AbsenceRate != nil || in.TurnoverRate != nil {
		applied++
	}
	total := 0
	for _, s := range inv.Summaries {
		total += s.Respondents
	}
	top := make([]Entry, min(len(inv.Entries), topRisks))
	copy(top, inv.Entries)
	return ExecutiveSummary{
		GeneratedAt:        e.now().UTC(),
		InstrumentsApplied: applied,
		TotalRespondents:   total,
		TotalRisks:         len(inv.Entries),
		OverallLevel:       OverallLevel(inv.Entries),
		TopRisks:           top,
		Recommendations:    Recommendations(in, inv.Summaries[0].Risks),
	}
}

// Recommendations lists priority actions. There is always at least one.
func Recommendations(in Input, psychosocialRisks int) []string {
	var out []string
	if psychosocialRisks > programRiskCount {
		out = append(out, "Implement a comprehensive psychosocial risk management program")
	}
	if in.Burnout != nil && in.Burnout.Level().AtLeast(model.RiskHigh) {
		out = append(out, "Take urgent burnout prevention and treatment actions")
	}
	if in.WorkAddiction != nil && in.WorkAddiction.Level().AtLeast(model.RiskHigh) {
		out = append(out, "Review workload distribution and working-hours practices")
	}
	if in.AbsenceRate != nil && *in.AbsenceRate > AbsenceEntryRate {
		out = append(out, "Investigate the causes of high absenteeism")
	}
	if in.TurnoverRate != nil && *in.TurnoverRate > TurnoverEntryRate {
		out = append(out, "Review talent retention policies")
	}
	if len(out) == 0 {
		out = append(out, "Keep periodic monitoring of psychosocial risks")
	}
	return out
}

// RateFrom reads an HR rate from a stored absence or turnover result.
func RateFrom(res *model.AnalysisResult) (*float64, error) {
	if res == nil {
		return nil, nil
	}
	var key string
	switch res.Type {
	case model.TypeAbsenteeism:
		key = "absence_rate"
	case model.TypeTurnover:
		key = "annual_rate"
	default:
		return nil, eris.Wrapf(ErrUnexpectedType, "inventory: rate from %q", res.Type)
	}
	v, ok := res.Data[key]
	if !ok {
		return nil, eris.Errorf("inventory: result %s has no %s", res.ID, key)
	}
	return &v, nil
}
