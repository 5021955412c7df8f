// Package bench evaluates presentation attack detection results: it loads
// scored samples and sweeps a decision threshold to compute APCER and BPCER.
package bench

import (
	"math"
	"strings"
)

// Label is the ground-truth class of a sample.
type Label int

const (
	LabelUnknown Label = iota
	Attack
	BonaFide
)

// String returns the label as written in result files.
func (l Label) String() string {
	switch l {
	case Attack:
		return "attack"
	case BonaFide:
		return "real"
	default:
		return "unknown"
	}
}

// ParseLabel accepts "attack" and "real" (or a spelling of "bona fide"), ignoring case.
func ParseLabel(s string) (Label, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "attack":
		return Attack, true
	case "real", "bona fide", "bona-fide", "bonafide":
		return BonaFide, true
	default:
		return LabelUnknown, false
	}
}

// Sample is one scored presentation.
type Sample struct {
	Image  string
	Label  Label
	Score  float64
	TimeMS float64 // NaN when not recorded
}

// HasTime reports whether a processing time was recorded.
func (s Sample) HasTime() bool {
	return !math.IsNaN(s.TimeMS)
}

// Table is a loaded result file.
type Table struct {
	Path    string
	Samples []Sample
	Dropped int // rows excluded for a missing score, the -1 sentinel, or an unknown label
}

// Count returns the number of samples with the given label.
func (t *Table) Count(l Label) int {
	n := 0
	for _, s := range t.Samples {
		if s.Label == l {
			n++
		}
	}
	return n
}
