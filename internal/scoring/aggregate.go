package scoring

import (
	"github.com/montanaflynn/stats"

	"github.com/sells-group/risk-inventory/internal/catalog"
	"github.com/sells-group/risk-inventory/internal/model"
)

// Columns indexes normalized item columns by item number.
type Columns map[int]*Column

// AggregateSample scores every dimension over all rows. Dimensions without a
// single usable value are omitted rather than reported as zero.
func AggregateSample(in *catalog.Instrument, cols Columns) []model.DimensionScore {
	return aggregate(in, cols, -1)
}

// AggregateRow scores every dimension for one respondent.
func AggregateRow(in *catalog.Instrument, cols Columns, row int) []model.DimensionScore {
	return aggregate(in, cols, row)
}

// aggregate restricts to a single row when row >= 0.
func aggregate(in *catalog.Instrument, cols Columns, row int) []model.DimensionScore {
	out := make([]model.DimensionScore, 0, len(in.Dimensions))
	for _, d := range in.Dimensions {
		var (
			values stats.Float64Data
			items  int
		)
		for _, n := range d.Items {
			c, ok := cols[n]
			if !ok {
				continue
			}
			used := 0
			for i, present := range c.Present {
				if !present || (row >= 0 && i != row) {
					continue
				}
				values = append(values, c.Values[i])
				used++
			}
			if used > 0 {
				items++
			}
		}
		if len(values) == 0 {
			continue
		}
		mean, err := stats.Mean(values)
		if err != nil {
			continue
		}
		out = append(out, model.DimensionScore{
			Name:       d.Name,
			Value:      clamp(mean),
			ItemsUsed:  items,
			ValuesUsed: len(values),
		})
	}
	return out
}

// ScoreMap flattens dimension scores into the result data map.
func ScoreMap(scores []model.DimensionScore) map[string]float64 {
	m := make(map[string]float64, len(scores))
	for _, s := range scores {
		m[s.Name] = s.Value
	}
	return m
}
