// Package catalog holds the static definitions of every supported
// assessment instrument: dimensions, items, answer encodings, polarity and
// risk thresholds. Definitions are built once at package init and must be
// treated as read-only; they are shared by concurrent analyses.
package catalog

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-inventory/internal/model"
)

// ErrUnknownInstrument is returned when an instrument ID is not registered.
var ErrUnknownInstrument = eris.New("catalog: unknown instrument")

// Polarity tells whether a high raw dimension score is healthy or not.
type Polarity int

const (
	// Negative dimensions are unfavorable when high (e.g. demands, stress).
	Negative Polarity = iota
	// Positive dimensions are favorable when high (e.g. support, trust).
	Positive
)

func (p Polarity) String() string {
	if p == Positive {
		return "positive"
	}
	return "negative"
}

// Aggregation selects how dimension risk scores combine into the overall
// instrument score.
type Aggregation int

const (
	// AggregateMean averages risk-oriented dimension scores.
	AggregateMean Aggregation = iota
	// AggregateMax takes the worst risk-oriented dimension score.
	AggregateMax
)

// Encoding maps raw answers to ordinals on a closed [Min, Max] scale.
// Labels are stored folded (see Fold).
type Encoding struct {
	Name   string
	Min    float64
	Max    float64
	Labels map[string]float64
}

// Lookup returns the ordinal for an already-folded label.
func (e *Encoding) Lookup(folded string) (float64, bool) {
	v, ok := e.Labels[folded]
	return v, ok
}

// Item is a single question of an instrument.
type Item struct {
	Number   int
	Encoding *Encoding
	Inverted bool
}

// Dimension groups items measuring one sub-construct.
type Dimension struct {
	Name     string
	Items    []int
	Polarity Polarity
}

// Tier is one rung of a threshold ladder: scores >= Cutoff get Level.
type Tier struct {
	Cutoff float64
	Level  model.RiskLevel
}

// Thresholds is an ordered ladder of tiers plus the level assigned when no
// cutoff is reached.
type Thresholds struct {
	Tiers []Tier
	Floor model.RiskLevel
}

// NewThresholds returns a ladder sorted from the highest cutoff down.
func NewThresholds(floor model.RiskLevel, tiers ...Tier) Thresholds {
	sorted := append([]Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Cutoff > sorted[j].Cutoff })
	return Thresholds{Tiers: sorted, Floor: floor}
}

// Top returns the most severe level reachable on the ladder.
func (t Thresholds) Top() model.RiskLevel {
	if len(t.Tiers) == 0 {
		return t.Floor
	}
	return t.Tiers[0].Level
}

// Instrument is the immutable definition of one assessment tool version.
type Instrument struct {
	ID             string
	Name           string
	Type           model.AnalysisType
	Dimensions     []Dimension
	Items          map[int]Item
	Thresholds     Thresholds
	Aggregation    Aggregation
	MinItemColumns int
	MinRows        int

	byName map[string]int
}

// Dimension returns the named dimension.
func (in *Instrument) Dimension(name string) (Dimension, bool) {
	i, ok := in.byName[name]
	if !ok {
		return Dimension{}, false
	}
	return in.Dimensions[i], true
}

// Polarity returns the polarity of the named dimension. Unknown dimensions
// are treated as negative, so their raw score is read as risk.
func (in *Instrument) Polarity(name string) Polarity {
	d, ok := in.Dimension(name)
	if !ok {
		return Negative
	}
	return d.Polarity
}

// Item returns the item with the given number.
func (in *Instrument) Item(n int) (Item, bool) {
	it, ok := in.Items[n]
	return it, ok
}

// ItemCount returns the number of items in the instrument.
func (in *Instrument) ItemCount() int {
	return len(in.Items)
}

// Info is the public description of an instrument, as listed by the CLI and API.
type Info struct {
	ID         string             `json:"id" yaml:"id"`
	Name       string             `json:"name" yaml:"name"`
	Type       model.AnalysisType `json:"type" yaml:"type"`
	Items      int                `json:"items" yaml:"items"`
	Scale      string             `json:"scale" yaml:"scale"`
	Dimensions []string           `json:"dimensions" yaml:"dimensions"`
}

// Info describes the instrument.
func (in *Instrument) Info() Info {
	info := Info{
		ID:         in.ID,
		Name:       in.Name,
		Type:       in.Type,
		Items:      in.ItemCount(),
		Dimensions: make([]string, len(in.Dimensions)),
	}
	for i, d := range in.Dimensions {
		info.Dimensions[i] = d.Name
	}
	for _, it := range in.Items {
		info.Scale = it.Encoding.Name
		break
	}
	return info
}

// instrumentDef is the declarative input to build.
type instrumentDef struct {
	id          string
	name        string
	typ         model.AnalysisType
	encoding    *Encoding
	inverted    []int
	dimensions  []Dimension
	thresholds  Thresholds
	aggregation Aggregation
}

func build(s instrumentDef) (*Instrument, error) {
	inv := make(map[int]bool, len(s.inverted))
	for _, n := range s.inverted {
		inv[n] = true
	}

	in := &Instrument{
		ID:             s.id,
		Name:           s.name,
		Type:           s.typ,
		Dimensions:     s.dimensions,
		Items:          make(map[int]Item),
		Thresholds:     s.thresholds,
		Aggregation:    s.aggregation,
		MinItemColumns: 10,
		MinRows:        5,
		byName:         make(map[string]int, len(s.dimensions)),
	}

	for i, d := range s.dimensions {
		if _, dup := in.byName[d.Name]; dup {
			return nil, eris.Errorf("catalog: %s: duplicate dimension %q", s.id, d.Name)
		}
		if len(d.Items) == 0 {
			return nil, eris.Errorf("catalog: %s: dimension %q has no items", s.id, d.Name)
		}
		in.byName[d.Name] = i
		for _, n := range d.Items {
			if _, dup := in.Items[n]; dup {
				return nil, eris.Errorf("catalog: %s: item %d assigned twice", s.id, n)
			}
			in.Items[n] = Item{Number: n, Encoding: s.encoding, Inverted: inv[n]}
		}
	}
	for n := range inv {
		if _, ok := in.Items[n]; !ok {
			return nil, eris.Errorf("catalog: %s: inverted item %d not in any dimension", s.id, n)
		}
	}
	return in, nil
}

var registry = map[string]*Instrument{}

func register(s instrumentDef) {
	in, err := build(s)
	if err != nil {
		panic(err)
	}
	registry[in.ID] = in
}

// Lookup returns the instrument registered under id.
func Lookup(id string) (*Instrument, error) {
	in, ok := registry[id]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownInstrument, "catalog: lookup %q", id)
	}
	return in, nil
}

// ByType returns the instrument producing results of the given type.
func ByType(t model.AnalysisType) (*Instrument, bool) {
	for _, in := range registry {
		if in.Type == t {
			return in, true
		}
	}
	return nil, false
}

// All returns every registered instrument ordered by ID.
func All() []*Instrument {
	out := make([]*Instrument, 0, len(registry))
	for _, in := range registry {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
