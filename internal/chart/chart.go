// Package chart renders evaluation results as line charts.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/jamesainslie/go-liveness/internal/bench"
)

var (
	// ErrNoData is returned when a chart has nothing to draw.
	ErrNoData = errors.New("chart: no data")

	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("chart: unknown format")
)

// Chart size, matching a 10x6 inch figure.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

// Format is a chart file format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
	PDF Format = "pdf"
)

// ParseFormat accepts png, svg or pdf, with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case PNG, SVG, PDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

var (
	red    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	blue   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	green  = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	purple = color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff}
	orange = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	brown  = color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff}

	dashed = []vg.Length{vg.Points(6), vg.Points(3)}
)

// timingStyles cycles for Timing series: green dashed, purple solid, then the rest.
var timingStyles = []draw.LineStyle{
	{Color: green, Width: vg.Points(1.5), Dashes: dashed},
	{Color: purple, Width: vg.Points(1.5)},
	{Color: orange, Width: vg.Points(1.5), Dashes: dashed},
	{Color: brown, Width: vg.Points(1.5)},
	{Color: red, Width: vg.Points(1.5), Dashes: dashed},
	{Color: blue, Width: vg.Points(1.5)},
}

// ErrorRates plots APCER (red, dashed) and BPCER (blue, solid) against the threshold.
func ErrorRates(title string, results []bench.SweepResult) (*plot.Plot, error) {
	if len(results) == 0 {
		return nil, ErrNoData
	}

	apcer := make(plotter.XYs, len(results))
	bpcer := make(plotter.XYs, len(results))
	for i, r := range results {
		apcer[i] = plotter.XY{X: r.Threshold, Y: r.APCER}
		bpcer[i] = plotter.XY{X: r.Threshold, Y: r.BPCER}
	}

	p := newPlot(title, "Confidence", "APCER / BPCER")
	p.Y.Min, p.Y.Max = 0, 1

	if err := addLine(p, "APCER", apcer, draw.LineStyle{Color: red, Width: vg.Points(1.5), Dashes: dashed}); err != nil {
		return nil, err
	}
	if err := addLine(p, "BPCER", bpcer, draw.LineStyle{Color: blue, Width: vg.Points(1.5)}); err != nil {
		return nil, err
	}
	return p, nil
}

// Series is one dataset's processing times in file order.
type Series struct {
	Name    string
	TimesMS []float64
}

// Timing plots processing time against image number, one line per series.
// Series without times are skipped.
func Timing(title string, series ...Series) (*plot.Plot, error) {
	p := newPlot(title, "Image Number", "Time (ms)")

	drawn := 0
	for _, s := range series {
		if len(s.TimesMS) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.TimesMS))
		for i, ms := range s.TimesMS {
			xys[i] = plotter.XY{X: float64(i), Y: ms}
		}
		if err := addLine(p, s.Name, xys, timingStyles[drawn%len(timingStyles)]); err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
		drawn++
	}
	if drawn == 0 {
		return nil, ErrNoData
	}
	return p, nil
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, name string, xys plotter.XYs, style draw.LineStyle) error {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("line %s: %w", name, err)
	}
	l.LineStyle = style
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

// Write renders p to w in the given format.
func Write(w io.Writer, p *plot.Plot, f Format) error {
	wt, err := p.WriterTo(Width, Height, string(f))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// Save renders p to path, choosing the format from the file extension.
// Missing parent directories are created.
func Save(p *plot.Plot, path string) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := Write(file, p, f); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// FileName returns a file name for a chart of the named dataset.
func FileName(name, kind string, f Format) string {
	return Slug(name) + "_" + kind + "." + string(f)
}

// Slug lowercases name and replaces anything outside [a-z0-9_-] with '_'.
func Slug(name string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, strings.TrimSpace(name))
	if base == "" {
		return "dataset"
	}
	return base
}
