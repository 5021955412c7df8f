package bench

import (
	"fmt"
	"math"
	"strings"
)

// DefaultThresholdCount is the number of thresholds in a sweep.
const DefaultThresholdCount = 100

// SweepResult holds the error rates for one threshold value.
type SweepResult struct {
	Threshold float64
	Rates
}

// RangeMode selects the span of a threshold sweep.
type RangeMode int

const (
	// RangeFixed sweeps [0, 1].
	RangeFixed RangeMode = iota
	// RangeObserved sweeps [min score, max score].
	RangeObserved
)

func (m RangeMode) String() string {
	if m == RangeObserved {
		return "observed"
	}
	return "fixed"
}

// ParseRangeMode parses "fixed" or "observed".
func ParseRangeMode(s string) (RangeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "":
		return RangeFixed, nil
	case "observed":
		return RangeObserved, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRange, s)
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	step := (hi - lo) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// ScoreRange returns the smallest and largest score. ok is false without samples.
func ScoreRange(samples []Sample) (lo, hi float64, ok bool) {
	for _, s := range samples {
		if math.IsNaN(s.Score) {
			continue
		}
		if !ok {
			lo, hi, ok = s.Score, s.Score, true
			continue
		}
		lo = math.Min(lo, s.Score)
		hi = math.Max(hi, s.Score)
	}
	return lo, hi, ok
}

// Thresholds builds n thresholds for the given range mode. An observed range
// over no samples falls back to [0, 1].
func Thresholds(samples []Sample, n int, mode RangeMode) []float64 {
	if mode == RangeObserved {
		if lo, hi, ok := ScoreRange(samples); ok {
			return Linspace(lo, hi, n)
		}
	}
	return Linspace(0, 1, n)
}

// Sweep evaluates every threshold and returns results in threshold order.
func Sweep(samples []Sample, thresholds []float64) []SweepResult {
	idx := newScoreIndex(samples)

	results := make([]SweepResult, len(thresholds))
	for i, t := range thresholds {
		results[i] = SweepResult{
			Threshold: t,
			Rates:     idx.rates(t),
		}
	}
	return results
}

// APCER returns the APCER curve of a sweep.
func APCER(results []SweepResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.APCER
	}
	return out
}

// BPCER returns the BPCER curve of a sweep.
func BPCER(results []SweepResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.BPCER
	}
	return out
}

// EqualErrorRate returns the result where APCER and BPCER are closest, and
// their mean there. Ties keep the lowest threshold. ok is false for no results.
func EqualErrorRate(results []SweepResult) (best SweepResult, eer float64, ok bool) {
	gap := math.Inf(1)
	for _, r := range results {
		if d := math.Abs(r.APCER - r.BPCER); d < gap {
			gap, best, ok = d, r, true
		}
	}
	if !ok {
		return SweepResult{}, 0, false
	}
	return best, best.ACER(), true
}

// MinACER returns the result with the lowest ACER. Ties keep the lowest threshold.
func MinACER(results []SweepResult) (best SweepResult, ok bool) {
	acer := math.Inf(1)
	for _, r := range results {
		if a := r.ACER(); a < acer {
			acer, best, ok = a, r, true
		}
	}
	return best, ok
}
