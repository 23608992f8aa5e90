package model

import "time"

// AnalysisType identifies the instrument or engine that produced a result.
type AnalysisType string

// Analysis types.
const (
	TypeCOPSOQ3       AnalysisType = "copsoq_iii"
	TypeCOPSOQ2       AnalysisType = "copsoq_ii"
	TypeBurnout       AnalysisType = "burnout_cbi"
	TypeWorkAddiction AnalysisType = "work_addiction_duwas"
	TypeAbsenteeism   AnalysisType = "absenteeism"
	TypeTurnover      AnalysisType = "turnover"
)

// SelfReport reports whether results of this type come from a questionnaire
// answered directly by workers, as opposed to an HR indicator.
func (t AnalysisType) SelfReport() bool {
	switch t {
	case TypeCOPSOQ3, TypeCOPSOQ2, TypeBurnout, TypeWorkAddiction:
		return true
	}
	return false
}

// AnalysisResult is the unit exchanged with persistence, presentation and
// consolidation. Data holds dimension scores for questionnaires and named
// sub-metrics for the HR engines.
type AnalysisResult struct {
	ID        string             `json:"id" yaml:"id"`
	Type      AnalysisType       `json:"type" yaml:"type"`
	Name      string             `json:"name" yaml:"name"`
	CreatedAt time.Time          `json:"created_at" yaml:"created_at"`
	Data      map[string]float64 `json:"data" yaml:"data"`
	Metadata  map[string]any     `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Quality   *DataQuality       `json:"quality,omitempty" yaml:"quality,omitempty"`
	RiskLevel *RiskLevel         `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	Insights  []string           `json:"insights,omitempty" yaml:"insights,omitempty"`
}

// Level returns the result's risk level, or low when none was assigned.
func (r *AnalysisResult) Level() RiskLevel {
	if r == nil || r.RiskLevel == nil {
		return RiskLow
	}
	return *r.RiskLevel
}

// MetaFloat reads a numeric metadata value. JSON round trips turn integers
// into float64, so both shapes are accepted.
func (r *AnalysisResult) MetaFloat(key string) (float64, bool) {
	if r == nil || r.Metadata == nil {
		return 0, false
	}
	switch v := r.Metadata[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// DimensionScore is one dimension's aggregated 0-100 value.
type DimensionScore struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	ItemsUsed  int     `json:"items_used"`
	ValuesUsed int     `json:"values_used"`
}

// ValidationResult is produced before scoring. Scoring must not proceed
// unless IsValid is true.
type ValidationResult struct {
	IsValid      bool     `json:"is_valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	Suggestions  []string `json:"suggestions"`
	QualityScore float64  `json:"quality_score"`
}

// Quality maps the quality score to a DataQuality rating.
func (v ValidationResult) Quality() DataQuality {
	return QualityFromScore(v.QualityScore)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
