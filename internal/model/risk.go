package model

// RiskLevel is the discrete risk tier attached to an analysis.
type RiskLevel string

// Risk levels, least to most severe.
const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskModerate: 1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the ordinal position of the level (low = 0). Unknown levels
// rank below low.
func (l RiskLevel) Rank() int {
	r, ok := riskRank[l]
	if !ok {
		return -1
	}
	return r
}

// AtLeast reports whether l is as severe as other or more.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// Valid reports whether l is one of the known levels.
func (l RiskLevel) Valid() bool {
	_, ok := riskRank[l]
	return ok
}

// DataQuality rates the input quality of an analysis.
type DataQuality string

// Data quality ratings.
const (
	QualityExcellent  DataQuality = "excellent"
	QualityGood       DataQuality = "good"
	QualityAcceptable DataQuality = "acceptable"
	QualityPoor       DataQuality = "poor"
	QualityInvalid    DataQuality = "invalid"
)

// qualityBands is ordered from the highest threshold down.
var qualityBands = []struct {
	quality   DataQuality
	threshold float64
}{
	{QualityExcellent, 95},
	{QualityGood, 80},
	{QualityAcceptable, 60},
	{QualityPoor, 40},
}

// QualityFromScore maps a 0-100 quality score to a DataQuality rating.
func QualityFromScore(score float64) DataQuality {
	for _, b := range qualityBands {
		if score >= b.threshold {
			return b.quality
		}
	}
	return QualityInvalid
}
