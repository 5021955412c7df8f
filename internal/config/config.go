// Package config loads pad-bench settings from a YAML file, .env files and
// LIVENESS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jamesainslie/go-liveness/internal/bench"
	"github.com/jamesainslie/go-liveness/internal/chart"
)

// EnvPrefix prefixes environment overrides, e.g. LIVENESS_DECISION.
const EnvPrefix = "LIVENESS"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Dataset is one result file to evaluate.
type Dataset struct {
	Name        string `mapstructure:"name"`
	Path        string `mapstructure:"path"`
	Layout      string `mapstructure:"layout"`
	SplitIndex  *int   `mapstructure:"split_index"` // nil means bench.DefaultSplitIndex
	LabelColumn string `mapstructure:"label_column"`
	ScoreColumn string `mapstructure:"score_column"`
	TimeColumn  string `mapstructure:"time_column"`
	ImageColumn string `mapstructure:"image_column"`
	Range       string `mapstructure:"range"`
}

// Format builds the loader format, filling unset columns and an unset split
// index from the layout defaults.
func (d Dataset) Format() (bench.Format, error) {
	layout, err := bench.ParseLayout(d.Layout)
	if err != nil {
		return bench.Format{}, err
	}

	f := bench.LabeledFormat()
	if layout == bench.LayoutSplit {
		f = bench.SplitFormat()
		if d.SplitIndex != nil {
			if *d.SplitIndex < 0 {
				return bench.Format{}, fmt.Errorf("%w: %d", bench.ErrSplitIndex, *d.SplitIndex)
			}
			f.SplitIndex = *d.SplitIndex
		}
	}
	if d.LabelColumn != "" {
		f.LabelColumn = d.LabelColumn
	}
	if d.ScoreColumn != "" {
		f.ScoreColumn = d.ScoreColumn
	}
	if d.TimeColumn != "" {
		f.TimeColumn = d.TimeColumn
	}
	if d.ImageColumn != "" {
		f.ImageColumn = d.ImageColumn
	}
	return f, nil
}

// RangeMode returns the dataset's range, or fallback when it has none.
func (d Dataset) RangeMode(fallback bench.RangeMode) (bench.RangeMode, error) {
	if strings.TrimSpace(d.Range) == "" {
		return fallback, nil
	}
	return bench.ParseRangeMode(d.Range)
}

// SplitIndex returns a pointer for Dataset.SplitIndex.
func SplitIndex(i int) *int { return &i }

// Title is the dataset's display name.
func (d Dataset) Title() string {
	if d.Name != "" {
		return d.Name
	}
	return strings.TrimSuffix(filepath.Base(d.Path), filepath.Ext(d.Path))
}

// Config holds all settings.
type Config struct {
	Thresholds  int       `mapstructure:"thresholds"`
	Range       string    `mapstructure:"range"`
	Decision    float64   `mapstructure:"decision"`
	OutputDir   string    `mapstructure:"output_dir"`
	ChartFormat string    `mapstructure:"chart_format"`
	HistoryPath string    `mapstructure:"history_path"`
	LogLevel    string    `mapstructure:"log_level"`
	Datasets    []Dataset `mapstructure:"datasets"`
}

// Default returns the built-in configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Thresholds:  bench.DefaultThresholdCount,
		Range:       bench.RangeFixed.String(),
		Decision:    0.8,
		OutputDir:   "out",
		ChartFormat: string(chart.PNG),
		HistoryPath: filepath.Join(homeDir, ".go-liveness", "history.db"),
		LogLevel:    "info",
		Datasets: []Dataset{
			{Name: "2d_light, version 3", Path: "2d_light_version_3.csv", Layout: "labeled", Range: "fixed"},
			{Name: "Liveness Detection", Path: "liveness_results.csv", Layout: "labeled", Range: "fixed"},
			{Name: "test_2d_light_v3", Path: "test_2d_light_v3.csv", Layout: "split", SplitIndex: SplitIndex(bench.DefaultSplitIndex), Range: "observed"},
			{Name: "Liveness_Detection", Path: "Liveness_Detection.csv", Layout: "split", SplitIndex: SplitIndex(bench.DefaultSplitIndex), Range: "observed"},
		},
	}
}

// Load reads configuration. An explicit path must exist; otherwise
// $HOME/.go-liveness.yaml and then ./config/defaults.yaml are tried, and a
// missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("thresholds", cfg.Thresholds)
	v.SetDefault("range", cfg.Range)
	v.SetDefault("decision", cfg.Decision)
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("chart_format", cfg.ChartFormat)
	v.SetDefault("history_path", cfg.HistoryPath)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("datasets", cfg.Datasets)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfig(v, path); err != nil {
		return nil, err
	}

	// decode into a zero value so a configured dataset list replaces the defaults
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.OutputDir = expandPath(cfg.OutputDir)
	cfg.HistoryPath = expandPath(cfg.HistoryPath)
	for i := range cfg.Datasets {
		cfg.Datasets[i].Path = expandPath(cfg.Datasets[i].Path)
	}

	return cfg, cfg.Validate()
}

func readConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	homeDir, _ := os.UserHomeDir()
	v.AddConfigPath(homeDir)
	v.AddConfigPath("./config")

	notFound := &viper.ConfigFileNotFoundError{}

	v.SetConfigName(".go-liveness")
	err := v.ReadInConfig()
	if err != nil && errors.As(err, notFound) {
		v.SetConfigName("defaults")
		err = v.ReadInConfig()
	}
	if err != nil && !errors.As(err, notFound) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Thresholds < 1 {
		return fmt.Errorf("%w: thresholds must be at least 1, got %d", ErrInvalid, c.Thresholds)
	}
	if c.Decision < 0 || c.Decision > 1 {
		return fmt.Errorf("%w: decision must be within [0, 1], got %v", ErrInvalid, c.Decision)
	}
	if _, err := bench.ParseRangeMode(c.Range); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := chart.ParseFormat(c.ChartFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for _, d := range c.Datasets {
		if d.Path == "" {
			return fmt.Errorf("%w: dataset %q has no path", ErrInvalid, d.Name)
		}
		if _, err := d.Format(); err != nil {
			return fmt.Errorf("%w: dataset %q: %w", ErrInvalid, d.Title(), err)
		}
		if _, err := d.RangeMode(bench.RangeFixed); err != nil {
			return fmt.Errorf("%w: dataset %q: %v", ErrInvalid, d.Title(), err)
		}
	}
	return nil
}

// RangeMode parses the global range setting.
func (c *Config) RangeMode() bench.RangeMode {
	m, _ := bench.ParseRangeMode(c.Range)
	return m
}

// loadEnvFiles loads .env files; variables already set win.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, path[1:])
}
