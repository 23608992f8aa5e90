package inventory

import (
	"fmt"
	"sort"
)

// Likelihood values assigned by source kind.
const (
	LikelihoodSelfReport = 4
	LikelihoodIndicator  = 3
)

// LikelihoodFor returns the likelihood band of an entry category: 3 for
// organizational indicators, 4 for every self-reported instrument.
func LikelihoodFor(category string) int {
	if category == CategoryIndicator {
		return LikelihoodIndicator
	}
	return LikelihoodSelfReport
}

// Level is the organization-wide risk label.
type Level string

// Organizational levels, least to most severe.
const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Rank orders levels from low (0) to critical (3).
func (l Level) Rank() int {
	switch l {
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	}
	return 0
}

// Cell is one (likelihood, severity) position of the matrix.
type Cell struct {
	Likelihood int `json:"likelihood" yaml:"likelihood"`
	Severity   int `json:"severity" yaml:"severity"`
	Count      int `json:"count" yaml:"count"`
}

// Key returns the cell label, e.g. "P4_S3".
func (c Cell) Key() string {
	return Key(c.Likelihood, c.Severity)
}

// Key formats a likelihood/severity pair as a matrix key.
func Key(likelihood, severity int) string {
	return fmt.Sprintf("P%d_S%d", likelihood, severity)
}

// Matrix counts entries per likelihood and severity.
type Matrix struct {
	Counts map[string]int `json:"counts" yaml:"counts"`
	Cells  []Cell         `json:"cells" yaml:"cells"`
}

// BuildMatrix recomputes the matrix from scratch. The likelihood band comes
// from each entry's category, not from Entry.Likelihood. Cells are ordered
// from the most to the least severe corner.
func BuildMatrix(entries []Entry) Matrix {
	counts := make(map[[2]int]int)
	for _, e := range entries {
		counts[[2]int{LikelihoodFor(e.Category), e.Severity}]++
	}

	m := Matrix{Counts: make(map[string]int, len(counts)), Cells: make([]Cell, 0, len(counts))}
	for k, n := range counts {
		c := Cell{Likelihood: k[0], Severity: k[1], Count: n}
		m.Cells = append(m.Cells, c)
		m.Counts[c.Key()] = n
	}
	sort.Slice(m.Cells, func(i, j int) bool {
		if m.Cells[i].Severity != m.Cells[j].Severity {
			return m.Cells[i].Severity > m.Cells[j].Severity
		}
		return m.Cells[i].Likelihood > m.Cells[j].Likelihood
	})
	return m
}

// OverallLevel labels the organization from its entries: three or more
// entries of severity 4+ is critical; one such entry, or five of severity 3,
// is high; two of severity 3 is medium.
func OverallLevel(entries []Entry) Level {
	severe, elevated := 0, 0
	for _, e := range entries {
		switch {
		case e.Severity >= 4:
			severe++
		case e.Severity == 3:
			elevated++
		}
	}
	switch {
	case severe >= 3:
		return LevelCritical
	case severe >= 1 || elevated >= 5:
		return LevelHigh
	case elevated >= 2:
		return LevelMedium
	}
	return LevelLow
}
