package bench

import (
	"math"
	"slices"
	"sort"

	"github.com/samber/lo"
)

// Rates holds the error rates at one threshold, with the counts behind them.
type Rates struct {
	APCER float64 // attacks accepted as bona fide / attacks
	BPCER float64 // bona fide rejected as attacks / bona fide

	AttacksAccepted  int
	Attacks          int
	BonaFideRejected int
	BonaFide         int
}

// ACER is the average classification error rate, (APCER + BPCER) / 2.
func (r Rates) ACER() float64 {
	return (r.APCER + r.BPCER) / 2
}

// Evaluate computes APCER and BPCER at threshold t. An attack is accepted when
// its score is >= t; a bona-fide sample is rejected when its score is < t.
// An empty class yields a rate of 0.
func Evaluate(samples []Sample, t float64) Rates {
	return newScoreIndex(samples).rates(t)
}

// scoreIndex keeps each class's scores sorted so a threshold is answered with
// two binary searches.
type scoreIndex struct {
	attacks  []float64
	bonaFide []float64
}

func newScoreIndex(samples []Sample) scoreIndex {
	return scoreIndex{
		attacks:  sortedScores(samples, Attack),
		bonaFide: sortedScores(samples, BonaFide),
	}
}

func sortedScores(samples []Sample, l Label) []float64 {
	scores := lo.FilterMap(samples, func(s Sample, _ int) (float64, bool) {
		return s.Score, s.Label == l && !math.IsNaN(s.Score)
	})
	slices.Sort(scores)
	return scores
}

func (x scoreIndex) rates(t float64) Rates {
	r := Rates{
		Attacks:  len(x.attacks),
		BonaFide: len(x.bonaFide),
	}
	// SearchFloat64s returns the first index with score >= t.
	r.AttacksAccepted = len(x.attacks) - sort.SearchFloat64s(x.attacks, t)
	r.BonaFideRejected = sort.SearchFloat64s(x.bonaFide, t)

	if r.Attacks > 0 {
		r.APCER = float64(r.AttacksAccepted) / float64(r.Attacks)
	}
	if r.BonaFide > 0 {
		r.BPCER = float64(r.BonaFideRejected) / float64(r.BonaFide)
	}
	return r
}

// Summary reproduces the producer's console statistics for a decision threshold.
type Summary struct {
	Decision float64

	Attacks         int
	AttacksCorrect  int // score < Decision
	BonaFide        int
	BonaFideCorrect int // score >= Decision

	Accuracy   float64 // correct / total, 0 for no samples
	MeanTimeMS float64 // over samples with a recorded time
	Timed      int
}

// AttackErrors is the number of attacks classified as bona fide.
func (s Summary) AttackErrors() int { return s.Attacks - s.AttacksCorrect }

// BonaFideErrors is the number of bona-fide samples classified as attacks.
func (s Summary) BonaFideErrors() int { return s.BonaFide - s.BonaFideCorrect }

// Summarize counts correct decisions per class at the decision threshold.
func Summarize(samples []Sample, decision float64) Summary {
	s := Summary{Decision: decision}

	s.Attacks = lo.CountBy(samples, func(x Sample) bool { return x.Label == Attack })
	s.BonaFide = lo.CountBy(samples, func(x Sample) bool { return x.Label == BonaFide })
	s.AttacksCorrect = lo.CountBy(samples, func(x Sample) bool {
		return x.Label == Attack && x.Score < decision
	})
	s.BonaFideCorrect = lo.CountBy(samples, func(x Sample) bool {
		return x.Label == BonaFide && x.Score >= decision
	})

	if total := s.Attacks + s.BonaFide; total > 0 {
		s.Accuracy = float64(s.AttacksCorrect+s.BonaFideCorrect) / float64(total)
	}

	times := TimingSeries(samples)
	s.Timed = len(times)
	if s.Timed > 0 {
		s.MeanTimeMS = lo.Sum(times) / float64(s.Timed)
	}

	return s
}

// TimingSeries returns recorded processing times in file order.
func TimingSeries(samples []Sample) []float64 {
	return lo.FilterMap(samples, func(s Sample, _ int) (float64, bool) {
		return s.TimeMS, s.HasTime()
	})
}
