package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

// Sentinel errors returned on API misuse or unscorable input.
var (
	ErrNotValidated = eris.New("scoring: response set has not passed validation")
	ErrNoScores     = eris.New("scoring: no dimension could be scored")
)

// Dimension-level risk cutoffs used for insights.
const (
	criticalRisk  = 75.0
	attentionRisk = 50.0
)

// Processor scores response tables for one instrument. It holds no per-run
// state and is safe for concurrent use.
type Processor struct {
	inst   *catalog.Instrument
	strict bool
	now    func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithStrict makes the overall score the worst dimension instead of the mean.
func WithStrict(strict bool) Option {
	return func(p *Processor) { p.strict = strict }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor returns a processor for the given instrument.
func NewProcessor(in *catalog.Instrument, opts ...Option) *Processor {
	p := &Processor{inst: in, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Instrument returns the instrument this processor scores.
func (p *Processor) Instrument() *catalog.Instrument { return p.inst }

func (p *Processor) aggregation() catalog.Aggregation {
	if p.strict {
		return catalog.AggregateMax
	}
	return p.inst.Aggregation
}

// Validate checks the table; see the package-level Validate.
func (p *Processor) Validate(set *model.ResponseSet) model.ValidationResult {
	return Validate(p.inst, set)
}

// normalize converts every mapped item column of the table.
func (p *Processor) normalize(set *model.ResponseSet, s tableStats) Columns {
	cols := make(Columns, len(s.mapped))
	for _, c := range s.mapped {
		it, _ := p.inst.Item(c.Item)
		cols[c.Item] = NormalizeColumn(set, c, s.detection.Format, it)
	}
	return cols
}

// Score computes the whole-sample analysis. v must be the passing result of
// Validate on the same table.
func (p *Processor) Score(set *model.ResponseSet, name string, v model.ValidationResult) (*model.AnalysisResult, error) {
	if set == nil || !v.IsValid {
		return nil, eris.Wrapf(ErrNotValidated, "scoring: score %s", p.inst.ID)
	}

	s := inspect(p.inst, set)
	cols := p.normalize(set, s)
	dims := AggregateSample(p.inst, cols)
	if len(dims) == 0 {
		return nil, eris.Wrapf(ErrNoScores, "scoring: score %s", p.inst.ID)
	}

	data := ScoreMap(dims)
	mode := p.aggregation()
	overall, level := ClassifyInstrument(p.inst, data, mode)

	var omitted []string
	for _, d := range p.inst.Dimensions {
		if _, ok := data[d.Name]; !ok {
			omitted = append(omitted, d.Name)
		}
	}

	excluded := 0
	for _, c := range cols {
		excluded += c.Excluded
	}
	if excluded > 0 {
		zap.L().Debug("scoring: answers excluded",
			zap.String("instrument", p.inst.ID),
			zap.Int("excluded", excluded),
		)
	}

	aggregation := "mean"
	if mode == catalog.AggregateMax {
		aggregation = "max"
	}

	res := &model.AnalysisResult{
		ID:        uuid.NewString(),
		Type:      p.inst.Type,
		Name:      name,
		CreatedAt: p.now().UTC(),
		Data:      data,
		Metadata: map[string]any{
			"instrument":          p.inst.ID,
			"instrument_name":     p.inst.Name,
			"format":              s.detection.Format.String(),
			"prefix":              string(s.detection.Prefix),
			"n_responses":         len(set.Rows),
			"item_columns":        len(s.mapped),
			"ignored_columns":     len(s.detection.Ignored) + len(s.unmapped) + len(s.duplicates),
			"missing_cells":       s.missing,
			"excluded_cells":      excluded,
			"dimension_coverage":  s.coveragePct,
			"dimensions_scored":   len(dims),
			"dimensions_omitted":  omitted,
			"overall_score":       overall,
			"aggregation":         aggregation,
			"validation_warnings": len(v.Warnings),
		},
		Quality:   model.Ptr(v.Quality()),
		RiskLevel: model.Ptr(level),
		Insights:  p.insights(data, omitted, excluded),
	}
	return res, nil
}

// Process validates and scores in one step. The validation result is always
// returned; the analysis is nil when validation fails.
func (p *Processor) Process(set *model.ResponseSet, name string) (*model.AnalysisResult, model.ValidationResult, error) {
	v := p.Validate(set)
	if !v.IsValid {
		return nil, v, nil
	}
	res, err := p.Score(set, name, v)
	return res, v, err
}

// RespondentScores scores each row separately. Rows with no usable answers
// yield an empty map.
func (p *Processor) RespondentScores(set *model.ResponseSet, v model.ValidationResult) ([]map[string]float64, error) {
	if set == nil || !v.IsValid {
		return nil, eris.Wrapf(ErrNotValidated, "scoring: respondent scores %s", p.inst.ID)
	}
	s := inspect(p.inst, set)
	cols := p.normalize(set, s)
	out := make([]map[string]float64, len(set.Rows))
	for row := range set.Rows {
		out[row] = ScoreMap(AggregateRow(p.inst, cols, row))
	}
	return out, nil
}

func (p *Processor) insights(data map[string]float64, omitted []string, excluded int) []string {
	var critical, attention []string
	for _, d := range p.inst.Dimensions {
		raw, ok := data[d.Name]
		if !ok {
			continue
		}
		switch risk := RiskOriented(raw, d.Polarity); {
		case risk >= criticalRisk:
			critical = append(critical, fmt.Sprintf("Critical: %s (risk %.1f/100)", d.Name, risk))
		case risk >= attentionRisk:
			attention = append(attention, fmt.Sprintf("Attention: %s (risk %.1f/100)", d.Name, risk))
		}
	}
	out := append(critical, attention...)
	if len(critical)+len(attention) == 0 {
		out = append(out, fmt.Sprintf("No %s dimension reached the attention threshold", p.inst.Name))
	}
	if len(omitted) > 0 {
		out = append(out, fmt.Sprintf("%d dimension(s) had no usable answers and were not scored", len(omitted)))
	}
	if excluded > 0 {
		out = append(out, fmt.Sprintf("%d answer(s) could not be interpreted and were excluded", excluded))
	}
	return out
}
