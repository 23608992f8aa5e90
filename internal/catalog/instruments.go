package catalog

import "github.com/sells-group/risk-inventory/internal/model"

// Instrument IDs.
const (
	COPSOQ3       = "copsoq3"
	COPSOQ2       = "copsoq2"
	Burnout       = "cbi"
	WorkAddiction = "duwas"
)

var (
	frequencyLabels = map[string]float64{
		"nunca": 1, "raramente": 2, "às vezes": 3, "frequentemente": 4, "sempre": 5,
		"never": 1, "rarely": 2, "sometimes": 3, "often": 4, "always": 5,
	}
	intensityLabels = map[string]float64{
		"nada": 1, "um pouco": 2, "moderadamente": 3, "muito": 4, "extremamente": 5,
		"not at all": 1, "a little": 2, "moderately": 3, "very much": 4, "extremely": 5,
	}
	agreementLabels = map[string]float64{
		"discordo totalmente": 1, "discordo parcialmente": 2, "neutro": 3,
		"concordo parcialmente": 4, "concordo totalmente": 5,
		"strongly disagree": 1, "disagree": 2, "neutral": 3, "agree": 4, "strongly agree": 5,
	}
	compoundFrequencyLabels = map[string]float64{
		"nunca / quase nunca": 1, "quase nunca": 1, "nada / quase nada": 1,
		"sempre / quase sempre": 5, "quase sempre": 5,
	}
)

// Likert5 is the five-point ordinal scale shared by the COPSOQ and CBI
// instruments.
var Likert5 = newEncoding("likert5", 1, 5,
	mergeLabels(frequencyLabels, intensityLabels, agreementLabels, compoundFrequencyLabels))

// DUWAS4 is the four-point frequency scale of the work-addiction inventory.
var DUWAS4 = newEncoding("duwas4", 1, 4, map[string]float64{
	"(quase) nunca": 1, "quase nunca": 1, "nunca": 1,
	"ocasionalmente": 2, "as vezes": 2,
	"frequentemente": 3,
	"(quase) sempre": 4, "quase sempre": 4, "sempre": 4,
	"(almost) never": 1, "never": 1, "sometimes": 2, "often": 3, "(almost) always": 4, "always": 4,
})

var (
	psychosocialThresholds = NewThresholds(model.RiskLow,
		Tier{Cutoff: 75, Level: model.RiskCritical},
		Tier{Cutoff: 50, Level: model.RiskHigh},
		Tier{Cutoff: 25, Level: model.RiskModerate},
	)
	burnoutThresholds = NewThresholds(model.RiskLow,
		Tier{Cutoff: 75, Level: model.RiskHigh},
		Tier{Cutoff: 50, Level: model.RiskModerate},
	)
	// Mean answers of 3 ("frequentemente") and 2 ("ocasionalmente") on the
	// 1-4 scale, i.e. raw sums of 24 and 16 over eight items.
	workAddictionThresholds = NewThresholds(model.RiskLow,
		Tier{Cutoff: 200.0 / 3, Level: model.RiskHigh},
		Tier{Cutoff: 100.0 / 3, Level: model.RiskModerate},
	)
)

func neg(name string, items ...int) Dimension {
	return Dimension{Name: name, Items: items, Polarity: Negative}
}

func pos(name string, items ...int) Dimension {
	return Dimension{Name: name, Items: items, Polarity: Positive}
}

func init() {
	register(instrumentDef{
		id:       COPSOQ3,
		name:     "COPSOQ III",
		typ:      model.TypeCOPSOQ3,
		encoding: Likert5,
		inverted: []int{59, 60},
		dimensions: []Dimension{
			neg("Quantitative Demands", span(1, 3)...),
			neg("Work Pace", span(4, 5)...),
			neg("Cognitive Demands", span(6, 9)...),
			neg("Emotional Demands", span(10, 12)...),
			pos("Influence at Work", span(13, 16)...),
			pos("Possibilities for Development", span(17, 19)...),
			pos("Control over Working Time", span(20, 22)...),
			pos("Meaning of Work", span(23, 25)...),
			pos("Commitment to the Workplace", span(26, 27)...),
			pos("Predictability", span(28, 29)...),
			pos("Recognition", span(30, 32)...),
			pos("Role Clarity", span(33, 35)...),
			neg("Role Conflicts", span(36, 38)...),
			pos("Quality of Leadership", span(39, 42)...),
			pos("Social Support from Colleagues", span(43, 45)...),
			pos("Social Support from Supervisors", span(46, 48)...),
			pos("Sense of Community at Work", span(49, 51)...),
			neg("Job Insecurity", span(52, 53)...),
			neg("Insecurity over Working Conditions", span(54, 56)...),
			pos("Quality of Work", 57),
			pos("Horizontal Trust", span(58, 60)...),
			pos("Vertical Trust", span(61, 63)...),
			pos("Organizational Justice", span(64, 67)...),
			neg("Work-Life Conflict", span(68, 70)...),
			pos("Job Satisfaction", span(71, 73)...),
			pos("Self-Rated Health", 74),
			pos("Self-Efficacy", span(75, 76)...),
			neg("Sleeping Troubles", span(77, 78)...),
			neg("Burnout", span(79, 80)...),
			neg("Stress", span(81, 82)...),
			neg("Depressive Symptoms", span(83, 84)...),
		},
		thresholds:  psychosocialThresholds,
		aggregation: AggregateMean,
	})

	register(instrumentDef{
		id:       COPSOQ2,
		name:     "COPSOQ II",
		typ:      model.TypeCOPSOQ2,
		encoding: Likert5,
		dimensions: []Dimension{
			neg("Work Pace", 1, 2),
			neg("Cognitive Demands", 3, 4),
			neg("Emotional Demands", 5, 6),
			pos("Influence", 7, 8),
			pos("Possibilities for Development", 9, 10),
			pos("Meaning of Work", 11, 12),
			pos("Commitment to the Workplace", 13, 14),
			pos("Predictability", 15, 16),
			pos("Role Clarity", 17),
			neg("Role Conflict", 18),
			pos("Quality of Leadership", 19, 20),
			pos("Social Support from Supervisor", 21),
			pos("Social Support from Colleagues", 22),
			pos("Sense of Community", 23),
			neg("Job Insecurity", 24),
			neg("Work-Family Conflict", 25),
			pos("Job Satisfaction", 26),
			pos("General Health", 27),
			neg("Burnout", 28),
			neg("Stress", 29),
			neg("Sleeping Troubles", 30),
			neg("Depressive Symptoms", 31),
			neg("Bullying", 32),
		},
		thresholds:  psychosocialThresholds,
		aggregation: AggregateMean,
	})

	register(instrumentDef{
		id:       Burnout,
		name:     "Copenhagen Burnout Inventory",
		typ:      model.TypeBurnout,
		encoding: Likert5,
		// Energy items ask about the healthy state.
		inverted: []int{4, 12, 19},
		dimensions: []Dimension{
			neg("Personal Burnout", span(1, 6)...),
			neg("Work-Related Burnout", span(7, 13)...),
			neg("Client-Related Burnout", span(14, 19)...),
		},
		thresholds:  burnoutThresholds,
		aggregation: AggregateMean,
	})

	register(instrumentDef{
		id:       WorkAddiction,
		name:     "Dutch Work Addiction Scale",
		typ:      model.TypeWorkAddiction,
		encoding: DUWAS4,
		dimensions: []Dimension{
			neg("Working Excessively", span(1, 4)...),
			neg("Working Compulsively", span(5, 8)...),
		},
		thresholds:  workAddictionThresholds,
		aggregation: AggregateMean,
	})
}
