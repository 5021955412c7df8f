//go:build ignore

// Generate a synthetic labeled result log for exercising pad-bench without a
// model or an image set. Attack scores cluster low and bona-fide scores high,
// with enough overlap that the error-rate curves cross.
// Usage: go run ./scripts/gen-results.go
package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/jamesainslie/go-liveness/internal/bench"
	"github.com/jamesainslie/go-liveness/internal/scan"
)

const (
	outFile   = "testdata/synthetic/liveness_results.csv"
	attacks   = 1000
	bonaFide  = 1000
	decision  = 0.8
	failEvery = 250
)

func main() {
	rng := rand.New(rand.NewPCG(1, 2))

	var rows []scan.Row
	rows = append(rows, generate(rng, "attack", bench.Attack, attacks, 0.3, 0.18)...)
	rows = append(rows, generate(rng, "real", bench.BonaFide, bonaFide, 0.85, 0.12)...)

	if err := scan.WriteFile(outFile, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outFile, err)
		os.Exit(1)
	}

	abs, _ := filepath.Abs(outFile)
	fmt.Printf("Wrote %d rows to %s\n", len(rows), abs)
	fmt.Printf("Try: pad-bench sweep %s\n", outFile)
}

func generate(rng *rand.Rand, prefix string, label bench.Label, n int, mean, stddev float64) []scan.Row {
	rows := make([]scan.Row, 0, n)
	for i := range n {
		row := scan.Row{
			Image:  fmt.Sprintf("%s_%04d.jpg", prefix, i),
			Label:  label,
			TimeMS: 40 + math.Abs(rng.NormFloat64()*8),
		}

		// Some rows carry the failure sentinel so the loader's drop path
		// shows up in the report.
		if i > 0 && i%failEvery == 0 {
			row.Score = bench.NoMeasurement
			row.Decision = scan.DecisionError
			rows = append(rows, row)
			continue
		}

		row.Score = clamp(mean + rng.NormFloat64()*stddev)
		row.Decision = scan.DecisionAttack
		if row.Score >= decision {
			row.Decision = scan.DecisionReal
		}
		rows = append(rows, row)
	}
	return rows
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
