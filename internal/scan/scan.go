// Package scan scores folders of attack and bona-fide images and writes the
// result log that the bench package evaluates.
package scan

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	liveness "github.com/jamesainslie/go-liveness"
	"github.com/jamesainslie/go-liveness/internal/bench"
	"github.com/jamesainslie/go-liveness/internal/imaging"
)

// Decisions written to the Decision column.
const (
	DecisionReal   = "real"
	DecisionAttack = "attack"
	DecisionError  = "error"
)

var (
	// ErrNoImages is returned when neither folder holds a matching image.
	ErrNoImages = errors.New("scan: no images found")

	// ErrInputConflict is returned when one class has both a folder and a list.
	ErrInputConflict = errors.New("scan: give a folder or a list per class, not both")
)

var (
	defaultAttackExtensions   = []string{".jpg"}
	defaultBonaFideExtensions = []string{".jpg", ".png"}
)

// Config selects the images to score.
type Config struct {
	AttackDir   string
	BonaFideDir string

	// AttackList and BonaFideList name text files with one image path per
	// line, relative to the list's own directory. A list takes the place of
	// its class's folder and is not filtered by Extensions.
	AttackList   string
	BonaFideList string

	// BonaFideFirst scores and writes bona-fide images before attacks, the
	// order the split layout expects.
	BonaFideFirst bool

	// Extensions filters both folders. When empty, attacks match .jpg and
	// bona-fide images match .jpg and .png.
	Extensions []string

	// Decision is the score at or above which an image is judged real.
	// Nil means liveness.DefaultThreshold.
	Decision *float64

	// Workers bounds concurrent scoring. Zero means runtime.NumCPU().
	Workers int

	Log logrus.FieldLogger
}

// Row is one scored image.
type Row struct {
	Image    string
	Label    bench.Label
	Score    float64 // bench.NoMeasurement when scoring failed
	TimeMS   float64
	Decision string
	Err      error
}

type job struct {
	path  string
	name  string
	label bench.Label
}

type source struct {
	dir   string
	list  string
	label bench.Label
	exts  []string
}

// Run scores every matching image, attacks first unless BonaFideFirst is set,
// each folder in name order and each list in file order.
// A failed image yields a row with Score -1 and Decision "error"; only
// listing errors and cancellation abort the run.
func Run(ctx context.Context, cfg Config, scorer liveness.Scorer) ([]Row, error) {
	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	decision := liveness.DefaultThreshold
	if cfg.Decision != nil {
		decision = *cfg.Decision
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	sources := []source{
		{cfg.AttackDir, cfg.AttackList, bench.Attack, defaultAttackExtensions},
		{cfg.BonaFideDir, cfg.BonaFideList, bench.BonaFide, defaultBonaFideExtensions},
	}
	if cfg.BonaFideFirst {
		sources[0], sources[1] = sources[1], sources[0]
	}

	var jobs []job
	for _, src := range sources {
		if src.dir == "" && src.list == "" {
			continue
		}
		if len(cfg.Extensions) > 0 {
			src.exts = cfg.Extensions
		}
		found, err := src.jobs()
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"dir":    src.dir,
			"list":   src.list,
			"label":  src.label.String(),
			"images": len(found),
		}).Info("images listed")
		jobs = append(jobs, found...)
	}
	if len(jobs) == 0 {
		return nil, ErrNoImages
	}

	rows := make([]Row, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = scoreOne(gctx, scorer, j, decision)
			if rows[i].Err != nil {
				if errors.Is(rows[i].Err, context.Canceled) || errors.Is(rows[i].Err, context.DeadlineExceeded) {
					return rows[i].Err
				}
				log.WithFields(logrus.Fields{
					"image": j.path,
					"error": rows[i].Err,
				}).Warn("image not scored")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return rows, nil
}

func scoreOne(ctx context.Context, scorer liveness.Scorer, j job, decision float64) Row {
	row := Row{Image: j.name, Label: j.label}

	start := time.Now()
	img, err := imaging.Decode(j.path)
	if err == nil {
		row.Score, err = scorer.Score(ctx, img)
	}
	row.TimeMS = float64(time.Since(start).Microseconds()) / 1000

	switch {
	case err != nil:
		row.Score = bench.NoMeasurement
		row.Decision = DecisionError
		row.Err = err
	case row.Score >= decision:
		row.Decision = DecisionReal
	default:
		row.Decision = DecisionAttack
	}
	return row
}

func (s source) jobs() ([]job, error) {
	var (
		paths []string
		err   error
	)
	switch {
	case s.dir != "" && s.list != "":
		return nil, fmt.Errorf("%w: %s", ErrInputConflict, s.label)
	case s.list != "":
		paths, err = readList(s.list)
	default:
		paths, err = listImages(s.dir, s.exts)
	}
	if err != nil {
		return nil, err
	}

	jobs := make([]job, len(paths))
	for i, p := range paths {
		name := filepath.Base(p)
		if s.list != "" {
			rel, relErr := filepath.Rel(filepath.Dir(s.list), p)
			if relErr == nil && !strings.HasPrefix(rel, "..") {
				name = filepath.ToSlash(rel)
			}
		}
		jobs[i] = job{path: p, name: name, label: s.label}
	}
	return jobs, nil
}

// readList reads one image path per line. Blank lines are skipped and
// relative paths resolve against the list's directory.
func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read image list: %w", err)
	}
	defer func() { _ = f.Close() }()

	base := filepath.Dir(path)
	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read image list: %w", err)
	}
	return paths, nil
}

func listImages(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if slices.Contains(exts, ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// Header is the column layout written by WriteCSV.
var Header = []string{"Image", "Result", "Confidence", "Time(ms)", "Decision"}

// WriteCSV writes rows in the labeled result layout. Result holds the
// ground-truth class, Decision the scorer's verdict.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Image,
			r.Label.String(),
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			strconv.FormatFloat(r.TimeMS, 'f', 3, 64),
			r.Decision,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path, creating parent directories.
func WriteFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Samples converts scored rows to bench samples, skipping failures.
func Samples(rows []Row) []bench.Sample {
	out := make([]bench.Sample, 0, len(rows))
	for _, r := range rows {
		if r.Err != nil || r.Score == bench.NoMeasurement {
			continue
		}
		out = append(out, bench.Sample{Image: r.Image, Label: r.Label, Score: r.Score, TimeMS: r.TimeMS})
	}
	return out
}
