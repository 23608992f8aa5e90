package catalog

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-inventory/internal/model"
)

func TestRegisteredInstruments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id         string
		typ        model.AnalysisType
		dimensions int
		items      int
		top        model.RiskLevel
	}{
		{COPSOQ3, model.TypeCOPSOQ3, 31, 84, model.RiskCritical},
		{COPSOQ2, model.TypeCOPSOQ2, 23, 32, model.RiskCritical},
		{Burnout, model.TypeBurnout, 3, 19, model.RiskHigh},
		{WorkAddiction, model.TypeWorkAddiction, 2, 8, model.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			in, err := Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, in.Type)
			assert.Len(t, in.Dimensions, tt.dimensions)
			assert.Equal(t, tt.items, in.ItemCount())
			assert.Equal(t, tt.top, in.Thresholds.Top())

			byType, ok := ByType(tt.typ)
			require.True(t, ok)
			assert.Same(t, in, byType)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()
	_, err := Lookup("nope")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownInstrument))
}

func TestCOPSOQ3_InvertedAndPolarity(t *testing.T) {
	t.Parallel()
	in, err := Lookup(COPSOQ3)
	require.NoError(t, err)

	for n := 1; n <= 84; n++ {
		it, ok := in.Item(n)
		require.True(t, ok, "item %d", n)
		assert.Equal(t, n == 59 || n == 60, it.Inverted, "item %d", n)
	}
	assert.Equal(t, Positive, in.Polarity("Horizontal Trust"))
	assert.Equal(t, Negative, in.Polarity("Stress"))
	assert.Equal(t, Negative, in.Polarity("not a dimension"))
}

func TestAll_SortedByID(t *testing.T) {
	t.Parallel()
	all := All()
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestBuild_RejectsBadDefs(t *testing.T) {
	t.Parallel()
	_, err := build(instrumentDef{id: "dup", encoding: Likert5, dimensions: []Dimension{
		neg("A", 1, 2), neg("B", 2, 3),
	}})
	assert.Error(t, err)

	_, err = build(instrumentDef{id: "orphan", encoding: Likert5, inverted: []int{9},
		dimensions: []Dimension{neg("A", 1)}})
	assert.Error(t, err)

	_, err = build(instrumentDef{id: "empty", encoding: Likert5, dimensions: []Dimension{neg("A")}})
	assert.Error(t, err)
}

func TestNewThresholds_SortsDescending(t *testing.T) {
	t.Parallel()
	th := NewThresholds(model.RiskLow,
		Tier{Cutoff: 25, Level: model.RiskModerate},
		Tier{Cutoff: 75, Level: model.RiskCritical},
		Tier{Cutoff: 50, Level: model.RiskHigh},
	)
	require.Len(t, th.Tiers, 3)
	assert.Equal(t, 75.0, th.Tiers[0].Cutoff)
	assert.Equal(t, 25.0, th.Tiers[2].Cutoff)
	assert.Equal(t, model.RiskCritical, th.Top())
	assert.Equal(t, model.RiskLow, NewThresholds(model.RiskLow).Top())
}

func TestFold(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"Às vezes", "as vezes"},
		{"  FREQUENTEMENTE ", "frequentemente"},
		{"Concordo   Totalmente", "concordo totalmente"},
		{"Saúde", "saude"},
		{"Educação", "educacao"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "input %q", tt.in)
	}
}

func TestEncodings(t *testing.T) {
	t.Parallel()
	v, ok := Likert5.Lookup(Fold("Às Vezes"))
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = Likert5.Lookup(Fold("Sempre / Quase Sempre"))
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	v, ok = DUWAS4.Lookup(Fold("(Quase) Sempre"))
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	for label, ord := range Likert5.Labels {
		assert.GreaterOrEqual(t, ord, Likert5.Min, label)
		assert.LessOrEqual(t, ord, Likert5.Max, label)
	}
}

func TestBenchmarks(t *testing.T) {
	t.Parallel()
	abs := AbsenceBenchmarks()

	v, ok := abs.For("Saúde")
	assert.True(t, ok)
	assert.Equal(t, 5.5, v)

	v, ok = abs.For("IT")
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	v, ok = abs.For("mining")
	assert.False(t, ok)
	assert.Equal(t, DefaultAbsenceBenchmark, v)

	v, ok = TurnoverBenchmarks().For("Comércio")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestInstrument_Info(t *testing.T) {
	t.Parallel()
	in, err := Lookup(WorkAddiction)
	require.NoError(t, err)

	info := in.Info()
	assert.Equal(t, WorkAddiction, info.ID)
	assert.Equal(t, model.TypeWorkAddiction, info.Type)
	assert.Equal(t, 8, info.Items)
	assert.Equal(t, "duwas4", info.Scale)
	assert.Len(t, info.Dimensions, 2)
}
