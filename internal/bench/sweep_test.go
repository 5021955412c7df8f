package bench

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func TestLinspace(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		n      int
		want   []float64
	}{
		{name: "unit five", lo: 0, hi: 1, n: 5, want: []float64{0, 0.25, 0.5, 0.75, 1}},
		{name: "single", lo: 0.3, hi: 0.9, n: 1, want: []float64{0.3}},
		{name: "zero", lo: 0, hi: 1, n: 0, want: nil},
		{name: "negative", lo: 0, hi: 1, n: -3, want: nil},
		{name: "degenerate range", lo: 0.4, hi: 0.4, n: 3, want: []float64{0.4, 0.4, 0.4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Linspace(tt.lo, tt.hi, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d values, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("value[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLinspace_DefaultCountHitsEndpoints(t *testing.T) {
	got := Linspace(0, 1, DefaultThresholdCount)
	if len(got) != 100 {
		t.Fatalf("got %d thresholds, want 100", len(got))
	}
	if got[0] != 0 || got[99] != 1 {
		t.Errorf("endpoints = %v, %v", got[0], got[99])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("thresholds not increasing at %d", i)
		}
	}
}

func TestScoreRange(t *testing.T) {
	lo, hi, ok := ScoreRange([]Sample{sample(Attack, 0.4), sample(BonaFide, 0.1), sample(Attack, 0.95)})
	if !ok || lo != 0.1 || hi != 0.95 {
		t.Errorf("ScoreRange() = %v, %v, %v", lo, hi, ok)
	}

	if _, _, ok := ScoreRange(nil); ok {
		t.Error("expected ok=false for no samples")
	}
}

func TestThresholds(t *testing.T) {
	samples := []Sample{sample(Attack, 0.2), sample(BonaFide, 0.6)}

	fixed := Thresholds(samples, 3, RangeFixed)
	if !reflect.DeepEqual(fixed, []float64{0, 0.5, 1}) {
		t.Errorf("fixed = %v", fixed)
	}

	observed := Thresholds(samples, 3, RangeObserved)
	if len(observed) != 3 || observed[0] != 0.2 || observed[2] != 0.6 {
		t.Errorf("observed = %v", observed)
	}

	empty := Thresholds(nil, 3, RangeObserved)
	if !reflect.DeepEqual(empty, []float64{0, 0.5, 1}) {
		t.Errorf("observed over no samples = %v, want fixed range", empty)
	}
}

func TestParseRangeMode(t *testing.T) {
	if m, err := ParseRangeMode("Observed"); err != nil || m != RangeObserved {
		t.Errorf("ParseRangeMode(Observed) = %v, %v", m, err)
	}
	if m, err := ParseRangeMode(""); err != nil || m != RangeFixed {
		t.Errorf("ParseRangeMode(\"\") = %v, %v", m, err)
	}
	if _, err := ParseRangeMode("log"); !errors.Is(err, ErrUnknownRange) {
		t.Errorf("expected ErrUnknownRange, got %v", err)
	}
}

func randomSamples(r *rand.Rand, attacks, bonaFide int) []Sample {
	var out []Sample
	for i := 0; i < attacks; i++ {
		out = append(out, sample(Attack, r.Float64()))
	}
	for i := 0; i < bonaFide; i++ {
		out = append(out, sample(BonaFide, r.Float64()))
	}
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// naiveRates is the nested-filter definition.
func naiveRates(samples []Sample, t float64) (apcer, bpcer float64) {
	var attacks, accepted, bona, rejected int
	for _, s := range samples {
		switch s.Label {
		case Attack:
			attacks++
			if s.Score >= t {
				accepted++
			}
		case BonaFide:
			bona++
			if s.Score < t {
				rejected++
			}
		}
	}
	if attacks != 0 {
		apcer = float64(accepted) / float64(attacks)
	}
	if bona != 0 {
		bpcer = float64(rejected) / float64(bona)
	}
	return apcer, bpcer
}

func TestSweep_MatchesNestedFilter(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	samples := randomSamples(r, 137, 211)
	thresholds := Linspace(0, 1, DefaultThresholdCount)

	results := Sweep(samples, thresholds)
	if len(results) != len(thresholds) {
		t.Fatalf("got %d results, want %d", len(results), len(thresholds))
	}
	for i, res := range results {
		apcer, bpcer := naiveRates(samples, thresholds[i])
		if res.Threshold != thresholds[i] || res.APCER != apcer || res.BPCER != bpcer {
			t.Fatalf("threshold %v: got (%v, %v), want (%v, %v)", thresholds[i], res.APCER, res.BPCER, apcer, bpcer)
		}
	}
}

func TestSweep_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	samples := randomSamples(r, 50, 80)
	results := Sweep(samples, Linspace(0, 1, DefaultThresholdCount))

	for i, res := range results {
		if res.APCER < 0 || res.APCER > 1 || res.BPCER < 0 || res.BPCER > 1 {
			t.Fatalf("rates out of [0,1] at %v: %+v", res.Threshold, res.Rates)
		}
		if i == 0 {
			continue
		}
		prev := results[i-1]
		if res.APCER > prev.APCER {
			t.Errorf("APCER increased from %v to %v at %v", prev.APCER, res.APCER, res.Threshold)
		}
		if res.BPCER < prev.BPCER {
			t.Errorf("BPCER decreased from %v to %v at %v", prev.BPCER, res.BPCER, res.Threshold)
		}
	}
}

func TestSweep_EmptyClasses(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	thresholds := Linspace(0, 1, 20)

	for _, res := range Sweep(randomSamples(r, 0, 30), thresholds) {
		if res.APCER != 0 {
			t.Fatalf("APCER = %v with no attacks", res.APCER)
		}
	}
	for _, res := range Sweep(randomSamples(r, 30, 0), thresholds) {
		if res.BPCER != 0 {
			t.Fatalf("BPCER = %v with no bona fide", res.BPCER)
		}
	}
}

func TestSweep_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	samples := randomSamples(r, 40, 40)
	thresholds := Linspace(0, 1, DefaultThresholdCount)

	a := Sweep(samples, thresholds)
	b := Sweep(samples, thresholds)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs gave different results")
	}
}

func TestSweep_DoesNotReorderInput(t *testing.T) {
	samples := []Sample{sample(Attack, 0.9), sample(BonaFide, 0.1), sample(Attack, 0.2)}
	before := append([]Sample(nil), samples...)

	Sweep(samples, []float64{0.5})
	if !reflect.DeepEqual(samples, before) {
		t.Errorf("input modified: %v", samples)
	}
}

func TestCurves(t *testing.T) {
	results := Sweep([]Sample{sample(Attack, 0.9), sample(BonaFide, 0.1)}, []float64{0, 0.5, 1})
	if got := APCER(results); !reflect.DeepEqual(got, []float64{1, 1, 0}) {
		t.Errorf("APCER() = %v", got)
	}
	if got := BPCER(results); !reflect.DeepEqual(got, []float64{0, 1, 1}) {
		t.Errorf("BPCER() = %v", got)
	}
}

func TestEqualErrorRate(t *testing.T) {
	samples := []Sample{
		sample(Attack, 0.1), sample(Attack, 0.2), sample(Attack, 0.6),
		sample(BonaFide, 0.45), sample(BonaFide, 0.8), sample(BonaFide, 0.9),
	}
	results := Sweep(samples, Linspace(0, 1, 11))

	best, eer, ok := EqualErrorRate(results)
	if !ok {
		t.Fatal("expected a result")
	}
	// at t in (0.45, 0.6]: one attack accepted, one bona fide rejected
	if best.APCER != best.BPCER {
		t.Errorf("APCER %v != BPCER %v at %v", best.APCER, best.BPCER, best.Threshold)
	}
	if math.Abs(eer-1.0/3) > 1e-12 {
		t.Errorf("EER = %v, want 1/3", eer)
	}
	if math.Abs(best.Threshold-0.5) > 1e-12 {
		t.Errorf("EER threshold = %v, want 0.5", best.Threshold)
	}

	if _, _, ok := EqualErrorRate(nil); ok {
		t.Error("expected ok=false for no results")
	}
}

func TestMinACER(t *testing.T) {
	samples := []Sample{sample(Attack, 0.1), sample(Attack, 0.2), sample(BonaFide, 0.8)}
	results := Sweep(samples, []float64{0, 0.5, 0.9})

	best, ok := MinACER(results)
	if !ok || best.Threshold != 0.5 || best.ACER() != 0 {
		t.Errorf("MinACER() = %+v, %v", best, ok)
	}

	if _, ok := MinACER(nil); ok {
		t.Error("expected ok=false for no results")
	}
}
