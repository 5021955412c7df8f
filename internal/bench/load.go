package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// NoMeasurement is the score a producer writes when an image could not be scored.
const NoMeasurement = -1

// DefaultSplitIndex is the bona-fide/attack boundary of the positional result files.
const DefaultSplitIndex = 3363

// Layout selects how sample labels are determined.
type Layout int

const (
	// LayoutLabeled reads the label from a column.
	LayoutLabeled Layout = iota
	// LayoutSplit labels the first SplitIndex data rows bona fide and the rest attack.
	LayoutSplit
)

func (l Layout) String() string {
	if l == LayoutSplit {
		return "split"
	}
	return "labeled"
}

// ParseLayout parses "labeled" or "split".
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "labeled", "labelled", "":
		return LayoutLabeled, nil
	case "split":
		return LayoutSplit, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
	}
}

// Format describes the columns of a result file.
type Format struct {
	Layout      Layout
	LabelColumn string // LayoutLabeled only
	ScoreColumn string
	TimeColumn  string // optional
	ImageColumn string // optional
	SplitIndex  int    // LayoutSplit only

	// Log receives a debug entry per dropped row. Nil disables logging.
	Log logrus.FieldLogger
}

// LabeledFormat is the Image,Result,Confidence,Time(ms) layout.
func LabeledFormat() Format {
	return Format{
		Layout:      LayoutLabeled,
		LabelColumn: "Result",
		ScoreColumn: "Confidence",
		TimeColumn:  "Time(ms)",
		ImageColumn: "Image",
	}
}

// SplitFormat is the Image Name,Result,Liveness Score layout with a positional split.
func SplitFormat() Format {
	return Format{
		Layout:      LayoutSplit,
		ScoreColumn: "Liveness Score",
		ImageColumn: "Image Name",
		SplitIndex:  DefaultSplitIndex,
	}
}

// Load reads a result file.
func Load(path string, f Format) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer func() { _ = file.Close() }()

	t, err := Read(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// LoadLabeled reads a result file with LabeledFormat.
func LoadLabeled(path string) (*Table, error) {
	return Load(path, LabeledFormat())
}

// LoadSplit reads a result file with SplitFormat and the given split index.
func LoadSplit(path string, splitIndex int) (*Table, error) {
	f := SplitFormat()
	f.SplitIndex = splitIndex
	return Load(path, f)
}

// Read parses CSV result rows. Rows with a non-numeric score, the -1 sentinel,
// an unknown label or too few fields are dropped and counted, never fatal.
func Read(r io.Reader, f Format) (*Table, error) {
	if f.Layout == LayoutSplit && f.SplitIndex < 0 {
		return nil, ErrSplitIndex
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)

	scoreIdx, err := requireColumn(cols, f.ScoreColumn)
	if err != nil {
		return nil, err
	}
	labelIdx := -1
	if f.Layout == LayoutLabeled {
		if labelIdx, err = requireColumn(cols, f.LabelColumn); err != nil {
			return nil, err
		}
	}
	timeIdx := optionalColumn(cols, f.TimeColumn)
	imageIdx := optionalColumn(cols, f.ImageColumn)

	t := &Table{}
	for pos := 0; ; pos++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		s, reason := parseRow(rec, pos, f, labelIdx, scoreIdx, timeIdx, imageIdx)
		if reason != "" {
			t.Dropped++
			if f.Log != nil {
				f.Log.WithFields(logrus.Fields{
					"row":    pos,
					"reason": reason,
				}).Debug("result row dropped")
			}
			continue
		}
		t.Samples = append(t.Samples, s)
	}

	return t, nil
}

func parseRow(rec []string, pos int, f Format, labelIdx, scoreIdx, timeIdx, imageIdx int) (Sample, string) {
	s := Sample{TimeMS: math.NaN()}

	if f.Layout == LayoutSplit {
		s.Label = Attack
		if pos < f.SplitIndex {
			s.Label = BonaFide
		}
	} else {
		if labelIdx >= len(rec) {
			return s, "short row"
		}
		l, ok := ParseLabel(rec[labelIdx])
		if !ok {
			return s, "unknown label"
		}
		s.Label = l
	}

	if scoreIdx >= len(rec) {
		return s, "short row"
	}
	score, ok := parseNumber(rec[scoreIdx])
	if !ok {
		return s, "non-numeric score"
	}
	if score == NoMeasurement {
		return s, "no measurement"
	}
	s.Score = score

	if timeIdx >= 0 && timeIdx < len(rec) {
		if ms, ok := parseNumber(rec[timeIdx]); ok {
			s.TimeMS = ms
		}
	}
	if imageIdx >= 0 && imageIdx < len(rec) {
		s.Image = rec[imageIdx]
	}

	return s, ""
}

func parseNumber(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func requireColumn(cols map[string]int, name string) (int, error) {
	i, ok := cols[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return i, nil
}

func optionalColumn(cols map[string]int, name string) int {
	if name == "" {
		return -1
	}
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}
