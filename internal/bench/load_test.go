package bench

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Labeled(t *testing.T) {
	in := strings.Join([]string{
		"Image,Result,Confidence,Time(ms)",
		"a.jpg,attack,0.91,12.5",
		"b.jpg,real,0.12,9",
		"c.jpg,attack,-1,4",
		"d.jpg,real,n/a,4",
		"e.jpg,spoof,0.5,4",
		"f.jpg,Real,0.7,",
	}, "\n")

	tbl, err := Read(strings.NewReader(in), LabeledFormat())
	require.NoError(t, err)

	require.Len(t, tbl.Samples, 3)
	assert.Equal(t, 3, tbl.Dropped)

	assert.Equal(t, Sample{Image: "a.jpg", Label: Attack, Score: 0.91, TimeMS: 12.5}, tbl.Samples[0])
	assert.Equal(t, BonaFide, tbl.Samples[1].Label)
	assert.Equal(t, 9.0, tbl.Samples[1].TimeMS)

	last := tbl.Samples[2]
	assert.Equal(t, BonaFide, last.Label)
	assert.Equal(t, 0.7, last.Score)
	assert.False(t, last.HasTime())

	assert.Equal(t, 1, tbl.Count(Attack))
	assert.Equal(t, 2, tbl.Count(BonaFide))
}

func TestRead_Split(t *testing.T) {
	in := strings.Join([]string{
		"Image Name,Result,Liveness Score",
		"r0.jpg,Real,0.9",
		"r1.jpg,Real,-1",
		"a0.jpg,Real,0.4",
		"a1.jpg,Fake,0.3",
	}, "\n")

	f := SplitFormat()
	f.SplitIndex = 2

	tbl, err := Read(strings.NewReader(in), f)
	require.NoError(t, err)

	// labels follow raw row position, so the dropped sentinel row still counts
	require.Len(t, tbl.Samples, 3)
	assert.Equal(t, 1, tbl.Dropped)
	assert.Equal(t, BonaFide, tbl.Samples[0].Label)
	assert.Equal(t, Attack, tbl.Samples[1].Label)
	assert.Equal(t, "a0.jpg", tbl.Samples[1].Image)
	assert.Equal(t, Attack, tbl.Samples[2].Label)
}

func TestRead_SplitBeyondRows(t *testing.T) {
	in := "Liveness Score\n0.1\n0.2\n"

	tbl, err := Read(strings.NewReader(in), SplitFormat())
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Count(BonaFide))
	assert.Equal(t, 0, tbl.Count(Attack))
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		format  Format
		wantErr error
	}{
		{
			name:    "empty input",
			input:   "",
			format:  LabeledFormat(),
			wantErr: ErrNoHeader,
		},
		{
			name:    "missing score column",
			input:   "Image,Result,Score\na,real,0.1\n",
			format:  LabeledFormat(),
			wantErr: ErrMissingColumn,
		},
		{
			name:    "missing label column",
			input:   "Image,Confidence\na,0.1\n",
			format:  LabeledFormat(),
			wantErr: ErrMissingColumn,
		},
		{
			name:    "negative split",
			input:   "Liveness Score\n0.1\n",
			format:  Format{Layout: LayoutSplit, ScoreColumn: "Liveness Score", SplitIndex: -1},
			wantErr: ErrSplitIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRead_ShortRowsAndBOM(t *testing.T) {
	in := "\ufeffImage,Result,Confidence\na.jpg,attack\nb.jpg,attack,0.6\nc.jpg\n"

	tbl, err := Read(strings.NewReader(in), LabeledFormat())
	require.NoError(t, err)

	require.Len(t, tbl.Samples, 1)
	assert.Equal(t, 2, tbl.Dropped)
	assert.Equal(t, "b.jpg", tbl.Samples[0].Image)
}

func TestRead_RejectsNonFiniteScores(t *testing.T) {
	in := "Result,Confidence\nattack,NaN\nattack,+Inf\nreal,0.2\n"

	tbl, err := Read(strings.NewReader(in), LabeledFormat())
	require.NoError(t, err)

	require.Len(t, tbl.Samples, 1)
	assert.Equal(t, 2, tbl.Dropped)
	assert.False(t, math.IsNaN(tbl.Samples[0].Score))
}

func TestRead_LogsDroppedRows(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)

	f := LabeledFormat()
	f.Log = log

	_, err := Read(strings.NewReader("Result,Confidence\nattack,-1\n"), f)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "result row dropped")
	assert.Contains(t, buf.String(), "no measurement")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("Image,Result,Confidence,Time(ms)\nx.png,real,0.95,3\n"), 0o600))

	tbl, err := LoadLabeled(path)
	require.NoError(t, err)
	assert.Equal(t, path, tbl.Path)
	assert.Len(t, tbl.Samples, 1)

	_, err = LoadLabeled(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadSplit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "split.csv")
	require.NoError(t, os.WriteFile(path, []byte("Image Name,Liveness Score\na,0.1\nb,0.9\n"), 0o600))

	tbl, err := LoadSplit(path, 1)
	require.NoError(t, err)
	require.Len(t, tbl.Samples, 2)
	assert.Equal(t, BonaFide, tbl.Samples[0].Label)
	assert.Equal(t, Attack, tbl.Samples[1].Label)
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("SPLIT")
	require.NoError(t, err)
	assert.Equal(t, LayoutSplit, l)

	_, err = ParseLayout("columnar")
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestParseLabel(t *testing.T) {
	for _, s := range []string{"real", " Bona Fide ", "bona-fide", "BONAFIDE"} {
		l, ok := ParseLabel(s)
		assert.True(t, ok, s)
		assert.Equal(t, BonaFide, l, s)
	}
	l, ok := ParseLabel("Attack")
	assert.True(t, ok)
	assert.Equal(t, Attack, l)

	_, ok = ParseLabel("fake")
	assert.False(t, ok)
}
