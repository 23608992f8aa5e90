package catalog

// Fallback benchmarks applied when a sector is not recognized. Both values
// come from the product team's sector tables and are pending
// confirmation; override them through configuration rather than editing here.
const (
	DefaultAbsenceBenchmark  = 3.5
	DefaultTurnoverBenchmark = 4.0
)

// Sector keys used by the benchmark tables.
const (
	SectorIndustry  = "industry"
	SectorCommerce  = "commerce"
	SectorServices  = "services"
	SectorHealth    = "health"
	SectorEducation = "education"
	SectorIT        = "it"
	SectorOther     = "other"
)

// sectorAliases maps folded local-language sector names to sector keys.
var sectorAliases = map[string]string{
	"industria": SectorIndustry,
	"comercio":  SectorCommerce,
	"servicos":  SectorServices,
	"saude":     SectorHealth,
	"educacao":  SectorEducation,
	"ti":        SectorIT,
	"outros":    SectorOther,
}

// Benchmarks maps sectors to a reference rate in percent.
type Benchmarks struct {
	BySector map[string]float64 `yaml:"by_sector" mapstructure:"by_sector"`
	Default  float64            `yaml:"default" mapstructure:"default"`
}

// SectorKey canonicalizes a sector name ("Saúde", "health ") to its key.
func SectorKey(sector string) string {
	k := Fold(sector)
	if alias, ok := sectorAliases[k]; ok {
		return alias
	}
	return k
}

// For returns the benchmark for sector and whether the sector was known.
// Unknown sectors get the Default value.
func (b Benchmarks) For(sector string) (float64, bool) {
	key := SectorKey(sector)
	for k, v := range b.BySector {
		if SectorKey(k) == key {
			return v, true
		}
	}
	return b.Default, false
}

// AbsenceBenchmarks returns the reference absence rates per sector.
func AbsenceBenchmarks() Benchmarks {
	return Benchmarks{
		BySector: map[string]float64{
			SectorIndustry:  4.5,
			SectorCommerce:  3.8,
			SectorServices:  3.2,
			SectorHealth:    5.5,
			SectorEducation: 4.0,
			SectorIT:        2.5,
			SectorOther:     3.5,
		},
		Default: DefaultAbsenceBenchmark,
	}
}

// TurnoverBenchmarks returns the reference annual turnover rates per sector.
func TurnoverBenchmarks() Benchmarks {
	return Benchmarks{
		BySector: map[string]float64{
			SectorIndustry:  3.5,
			SectorCommerce:  5.0,
			SectorServices:  4.0,
			SectorHealth:    3.0,
			SectorEducation: 2.5,
			SectorIT:        4.5,
			SectorOther:     4.0,
		},
		Default: DefaultTurnoverBenchmark,
	}
}
