package scoring

import (
	"github.com/montanaflynn/stats"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

// cutoffTolerance absorbs float error for scores rescaled from ordinals, so
// a mean answer of 3 on a 1-4 scale reaches a 200/3 cutoff.
const cutoffTolerance = 1e-9

// Classify places a risk-oriented score on a threshold ladder. Cutoffs are
// inclusive lower bounds checked from the highest down.
func Classify(score float64, t catalog.Thresholds) model.RiskLevel {
	for _, tier := range t.Tiers {
		if score >= tier.Cutoff-cutoffTolerance {
			return tier.Level
		}
	}
	return t.Floor
}

// RiskOriented turns a raw dimension score into one where higher always
// means worse.
func RiskOriented(raw float64, p catalog.Polarity) float64 {
	if p == catalog.Positive {
		return 100 - raw
	}
	return raw
}

// Healthy is the inverse of RiskOriented: higher always means better.
func Healthy(raw float64, p catalog.Polarity) float64 {
	return 100 - RiskOriented(raw, p)
}

// RiskScores returns the risk-oriented score of every scored dimension in
// catalog order.
func RiskScores(in *catalog.Instrument, scores map[string]float64) []float64 {
	out := make([]float64, 0, len(scores))
	for _, d := range in.Dimensions {
		raw, ok := scores[d.Name]
		if !ok {
			continue
		}
		out = append(out, RiskOriented(raw, d.Polarity))
	}
	return out
}

// Overall combines risk-oriented dimension scores with the given mode. The
// boolean is false when no dimension was scored.
func Overall(in *catalog.Instrument, scores map[string]float64, mode catalog.Aggregation) (float64, bool) {
	risks := stats.Float64Data(RiskScores(in, scores))
	if len(risks) == 0 {
		return 0, false
	}
	var (
		v   float64
		err error
	)
	if mode == catalog.AggregateMax {
		v, err = stats.Max(risks)
	} else {
		v, err = stats.Mean(risks)
	}
	if err != nil {
		return 0, false
	}
	return clamp(v), true
}

// ClassifyInstrument returns the overall score and level for a set of
// dimension scores. With nothing scored the floor level is returned.
func ClassifyInstrument(in *catalog.Instrument, scores map[string]float64, mode catalog.Aggregation) (float64, model.RiskLevel) {
	v, ok := Overall(in, scores, mode)
	if !ok {
		return 0, in.Thresholds.Floor
	}
	return v, Classify(v, in.Thresholds)
}
