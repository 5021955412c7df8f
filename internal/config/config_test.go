package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/go-liveness/internal/bench"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pad-bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.Thresholds)
	assert.Equal(t, 0.8, cfg.Decision)
	assert.Equal(t, bench.RangeFixed, cfg.RangeMode())
	require.Len(t, cfg.Datasets, 4)

	f, err := cfg.Datasets[2].Format()
	require.NoError(t, err)
	assert.Equal(t, bench.LayoutSplit, f.Layout)
	assert.Equal(t, 3363, f.SplitIndex)
	assert.Equal(t, "Liveness Score", f.ScoreColumn)

	m, err := cfg.Datasets[3].RangeMode(bench.RangeFixed)
	require.NoError(t, err)
	assert.Equal(t, bench.RangeObserved, m)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Thresholds, cfg.Thresholds)
	assert.Len(t, cfg.Datasets, 4)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
thresholds: 50
range: observed
decision: 0.65
chart_format: svg
datasets:
  - name: lab
    path: results/lab.csv
    layout: split
    split_index: 10
    score_column: Score
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Thresholds)
	assert.Equal(t, bench.RangeObserved, cfg.RangeMode())
	assert.Equal(t, 0.65, cfg.Decision)
	assert.Equal(t, "svg", cfg.ChartFormat)
	assert.Equal(t, "out", cfg.OutputDir)

	require.Len(t, cfg.Datasets, 1)
	d := cfg.Datasets[0]
	assert.Equal(t, "lab", d.Title())

	f, err := d.Format()
	require.NoError(t, err)
	assert.Equal(t, 10, f.SplitIndex)
	assert.Equal(t, "Score", f.ScoreColumn)
	assert.Equal(t, "Image Name", f.ImageColumn)

	m, err := d.RangeMode(bench.RangeFixed)
	require.NoError(t, err)
	assert.Equal(t, bench.RangeFixed, m)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LIVENESS_DECISION", "0.7")
	t.Setenv("LIVENESS_THRESHOLDS", "25")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Decision)
	assert.Equal(t, 25, cfg.Thresholds)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "no thresholds", mutate: func(c *Config) { c.Thresholds = 0 }},
		{name: "decision above one", mutate: func(c *Config) { c.Decision = 1.5 }},
		{name: "bad range", mutate: func(c *Config) { c.Range = "log" }},
		{name: "bad chart format", mutate: func(c *Config) { c.ChartFormat = "gif" }},
		{name: "dataset without path", mutate: func(c *Config) { c.Datasets[0].Path = "" }},
		{name: "dataset bad layout", mutate: func(c *Config) { c.Datasets[0].Layout = "columnar" }},
		{name: "dataset bad range", mutate: func(c *Config) { c.Datasets[0].Range = "wide" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestDatasetFormat_SplitIndex(t *testing.T) {
	f, err := Dataset{Path: "x.csv", Layout: "split", SplitIndex: SplitIndex(0)}.Format()
	require.NoError(t, err)
	assert.Equal(t, 0, f.SplitIndex, "an explicit zero labels every row as an attack")

	f, err = Dataset{Path: "x.csv", Layout: "split"}.Format()
	require.NoError(t, err)
	assert.Equal(t, bench.DefaultSplitIndex, f.SplitIndex)

	_, err = Dataset{Path: "x.csv", Layout: "split", SplitIndex: SplitIndex(-5)}.Format()
	assert.ErrorIs(t, err, bench.ErrSplitIndex)
}

func TestLoad_SplitIndex(t *testing.T) {
	path := writeConfig(t, `
datasets:
  - path: zero.csv
    layout: split
    split_index: 0
  - path: unset.csv
    layout: split
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Datasets, 2)

	f, err := cfg.Datasets[0].Format()
	require.NoError(t, err)
	assert.Equal(t, 0, f.SplitIndex)

	f, err = cfg.Datasets[1].Format()
	require.NoError(t, err)
	assert.Equal(t, bench.DefaultSplitIndex, f.SplitIndex)

	_, err = Load(writeConfig(t, `
datasets:
  - path: bad.csv
    layout: split
    split_index: -1
`))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, bench.ErrSplitIndex)
}

func TestDatasetTitle(t *testing.T) {
	assert.Equal(t, "named", Dataset{Name: "named", Path: "x.csv"}.Title())
	assert.Equal(t, "liveness_results", Dataset{Path: "data/liveness_results.csv"}.Title())
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "runs.db"), expandPath("~/runs.db"))
	assert.Equal(t, "rel/path", expandPath("rel/path"))
	assert.Equal(t, "", expandPath(""))
}
