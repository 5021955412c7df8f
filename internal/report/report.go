// Package report turns a threshold sweep into a run report and writes it in
// several formats.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/go-liveness/internal/bench"
)

// ErrUnknownKind is returned for an unsupported report kind.
var ErrUnknownKind = errors.New("report: unknown kind")

// Kind selects a report encoding.
type Kind string

const (
	KindTable Kind = "table"
	KindCSV   Kind = "csv"
	KindJSON  Kind = "json"
	KindYAML  Kind = "yaml"
	KindProto Kind = "pb"
)

// ParseKind parses a report kind. "yml" and "proto" are accepted aliases.
func ParseKind(s string) (Kind, error) {
	switch k := strings.ToLower(strings.TrimSpace(s)); k {
	case "table", "":
		return KindTable, nil
	case "csv":
		return KindCSV, nil
	case "json":
		return KindJSON, nil
	case "yaml", "yml":
		return KindYAML, nil
	case "pb", "proto", "protobuf":
		return KindProto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Point is one row of the sweep.
type Point struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	APCER     float64 `json:"apcer" yaml:"apcer"`
	BPCER     float64 `json:"bpcer" yaml:"bpcer"`
}

// OperatingPoint is a notable threshold of the sweep.
type OperatingPoint struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	APCER     float64 `json:"apcer" yaml:"apcer"`
	BPCER     float64 `json:"bpcer" yaml:"bpcer"`
	ACER      float64 `json:"acer" yaml:"acer"`
}

// Decision is the accuracy at the producer's decision threshold.
type Decision struct {
	Threshold       float64 `json:"threshold" yaml:"threshold"`
	AttacksCorrect  int     `json:"attacks_correct" yaml:"attacks_correct"`
	BonaFideCorrect int     `json:"bona_fide_correct" yaml:"bona_fide_correct"`
	Accuracy        float64 `json:"accuracy" yaml:"accuracy"`
	MeanTimeMS      float64 `json:"mean_time_ms,omitempty" yaml:"mean_time_ms,omitempty"`
}

// Report describes one evaluated dataset.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Dataset   string    `json:"dataset" yaml:"dataset"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Layout    string    `json:"layout" yaml:"layout"`

	Samples  int `json:"samples" yaml:"samples"`
	Attacks  int `json:"attacks" yaml:"attacks"`
	BonaFide int `json:"bona_fide" yaml:"bona_fide"`
	Dropped  int `json:"dropped" yaml:"dropped"`

	EER      *OperatingPoint `json:"eer,omitempty" yaml:"eer,omitempty"`
	MinACER  *OperatingPoint `json:"min_acer,omitempty" yaml:"min_acer,omitempty"`
	Decision Decision        `json:"decision" yaml:"decision"`

	Points []Point `json:"points" yaml:"points"`
}

// Input is what New needs to build a report.
type Input struct {
	Dataset  string
	Layout   bench.Layout
	Table    *bench.Table
	Results  []bench.SweepResult
	Decision float64
}

// New builds a report with a fresh run ID.
func New(in Input) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Dataset:   in.Dataset,
		Layout:    in.Layout.String(),
	}

	var samples []bench.Sample
	if in.Table != nil {
		samples = in.Table.Samples
		r.Source = in.Table.Path
		r.Dropped = in.Table.Dropped
		r.Attacks = in.Table.Count(bench.Attack)
		r.BonaFide = in.Table.Count(bench.BonaFide)
		r.Samples = len(samples)
	}

	if best, _, ok := bench.EqualErrorRate(in.Results); ok {
		r.EER = operatingPoint(best)
	}
	if best, ok := bench.MinACER(in.Results); ok {
		r.MinACER = operatingPoint(best)
	}

	s := bench.Summarize(samples, in.Decision)
	r.Decision = Decision{
		Threshold:       s.Decision,
		AttacksCorrect:  s.AttacksCorrect,
		BonaFideCorrect: s.BonaFideCorrect,
		Accuracy:        s.Accuracy,
		MeanTimeMS:      s.MeanTimeMS,
	}

	r.Points = make([]Point, len(in.Results))
	for i, res := range in.Results {
		r.Points[i] = Point{Threshold: res.Threshold, APCER: res.APCER, BPCER: res.BPCER}
	}
	return r
}

func operatingPoint(r bench.SweepResult) *OperatingPoint {
	return &OperatingPoint{
		Threshold: r.Threshold,
		APCER:     r.APCER,
		BPCER:     r.BPCER,
		ACER:      r.ACER(),
	}
}

// Write encodes r to w in the given kind.
func Write(w io.Writer, r *Report, k Kind) error {
	switch k {
	case KindTable:
		_, err := io.WriteString(w, RenderTable(r)+"\n")
		return err
	case KindCSV:
		return WriteCSV(w, r)
	case KindJSON:
		return WriteJSON(w, r)
	case KindYAML:
		return WriteYAML(w, r)
	case KindProto:
		return WriteProto(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
}
