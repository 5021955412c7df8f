package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-liveness/internal/bench"
	"github.com/jamesainslie/go-liveness/internal/chart"
	"github.com/jamesainslie/go-liveness/internal/config"
	"github.com/jamesainslie/go-liveness/internal/history"
	"github.com/jamesainslie/go-liveness/internal/report"
)

type sweepOptions struct {
	layout      string
	splitIndex  int
	thresholds  int
	rangeMode   string
	labelColumn string
	scoreColumn string
	timeColumn  string
	decision    float64
	outDir      string
	chartFormat string
	open        bool
	report      string
	reportFile  string
	points      int
	noHistory   bool
}

func newSweepCmd(a *app) *cobra.Command {
	o := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep [FILE...]",
		Short: "Compute APCER and BPCER over a threshold sweep and chart them",
		Long: "Load one or more result logs, sweep the decision threshold, and write an\n" +
			"APCER/BPCER chart per file. Without arguments the configured datasets are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, a, o, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.layout, "layout", "labeled", "Result layout: labeled or split")
	f.IntVar(&o.splitIndex, "split-index", bench.DefaultSplitIndex, "Rows before this position are bona fide (split layout)")
	f.IntVar(&o.thresholds, "thresholds", bench.DefaultThresholdCount, "Number of thresholds in the sweep")
	f.StringVar(&o.rangeMode, "range", "fixed", "Threshold range: fixed [0,1] or observed [min,max]")
	f.StringVar(&o.labelColumn, "label-column", "", "Label column (labeled layout)")
	f.StringVar(&o.scoreColumn, "score-column", "", "Score column")
	f.StringVar(&o.timeColumn, "time-column", "", "Processing time column")
	f.Float64Var(&o.decision, "decision", 0.8, "Decision threshold for the accuracy summary")
	f.StringVar(&o.outDir, "out", "", "Chart output directory (default from config)")
	f.StringVar(&o.chartFormat, "chart-format", "", "Chart format: png, svg or pdf (default from config)")
	f.BoolVar(&o.open, "open", false, "Open each chart in the system viewer")
	f.StringVar(&o.report, "report", "table", "Report format: table, csv, json, yaml or pb")
	f.StringVar(&o.reportFile, "report-file", "", "Write the report to this file instead of stdout")
	f.IntVar(&o.points, "points", 0, "With --report table, also list every Nth sweep point")
	f.BoolVar(&o.noHistory, "no-history", false, "Do not record the run in the history database")

	return cmd
}

func runSweep(cmd *cobra.Command, a *app, o *sweepOptions, args []string) error {
	flags := cmd.Flags()

	kind, err := report.ParseKind(o.report)
	if err != nil {
		return err
	}
	if flags.Changed("thresholds") {
		a.cfg.Thresholds = o.thresholds
	}
	if flags.Changed("range") {
		a.cfg.Range = o.rangeMode
	}
	if flags.Changed("decision") {
		a.cfg.Decision = o.decision
	}
	if o.outDir != "" {
		a.cfg.OutputDir = o.outDir
	}
	if o.chartFormat != "" {
		a.cfg.ChartFormat = o.chartFormat
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	format, err := chart.ParseFormat(a.cfg.ChartFormat)
	if err != nil {
		return err
	}

	datasets := a.cfg.Datasets
	if len(args) > 0 {
		datasets = make([]config.Dataset, len(args))
		for i, path := range args {
			datasets[i] = config.Dataset{Path: path, Layout: o.layout, SplitIndex: config.SplitIndex(o.splitIndex)}
		}
	}
	for i := range datasets {
		d := &datasets[i]
		if flags.Changed("layout") {
			d.Layout = o.layout
		}
		if flags.Changed("split-index") {
			d.SplitIndex = config.SplitIndex(o.splitIndex)
		}
		if flags.Changed("range") {
			d.Range = o.rangeMode
		}
		if o.labelColumn != "" {
			d.LabelColumn = o.labelColumn
		}
		if o.scoreColumn != "" {
			d.ScoreColumn = o.scoreColumn
		}
		if o.timeColumn != "" {
			d.TimeColumn = o.timeColumn
		}
	}
	if len(datasets) == 0 {
		return errors.New("no result files given and none configured")
	}

	var store *history.Store
	if !o.noHistory {
		if store, err = history.Open(a.cfg.HistoryPath); err != nil {
			a.log.WithError(err).Warn("history disabled")
		} else {
			defer func() { _ = store.Close() }()
		}
	}

	var errs []error
	for _, d := range datasets {
		rep, chartPath, err := evaluate(a, d, format)
		if err != nil {
			a.log.WithError(err).WithField("dataset", d.Title()).Error("evaluation failed")
			errs = append(errs, fmt.Errorf("%s: %w", d.Title(), err))
			continue
		}

		if err := writeReport(a.out, rep, kind, o, len(datasets) > 1); err != nil {
			errs = append(errs, err)
			continue
		}

		if store != nil {
			if err := store.Record(history.FromReport(rep)); err != nil {
				a.log.WithError(err).Warn("run not recorded")
			}
		}
		if o.open {
			if err := browser.OpenFile(chartPath); err != nil {
				a.log.WithError(err).WithField("chart", chartPath).Warn("cannot open chart")
			}
		}
	}
	return errors.Join(errs...)
}

// evaluate loads one dataset, sweeps it and saves its chart.
func evaluate(a *app, d config.Dataset, format chart.Format) (*report.Report, string, error) {
	f, err := d.Format()
	if err != nil {
		return nil, "", err
	}
	f.Log = a.log
	mode, err := d.RangeMode(a.cfg.RangeMode())
	if err != nil {
		return nil, "", err
	}

	tbl, err := bench.Load(d.Path, f)
	if err != nil {
		return nil, "", err
	}
	thresholds := bench.Thresholds(tbl.Samples, a.cfg.Thresholds, mode)
	results := bench.Sweep(tbl.Samples, thresholds)

	a.log.WithFields(logrus.Fields{
		"dataset":   d.Title(),
		"attacks":   tbl.Count(bench.Attack),
		"bona_fide": tbl.Count(bench.BonaFide),
		"dropped":   tbl.Dropped,
		"range":     mode.String(),
	}).Info("sweep complete")

	p, err := chart.ErrorRates(d.Title(), results)
	if err != nil {
		return nil, "", err
	}
	chartPath := filepath.Join(a.cfg.OutputDir, chart.FileName(d.Title(), "rates", format))
	if err := chart.Save(p, chartPath); err != nil {
		return nil, "", err
	}
	a.log.WithField("chart", chartPath).Info("chart written")

	rep := report.New(report.Input{
		Dataset:  d.Title(),
		Layout:   f.Layout,
		Table:    tbl,
		Results:  results,
		Decision: a.cfg.Decision,
	})
	return rep, chartPath, nil
}

func writeReport(stdout io.Writer, rep *report.Report, kind report.Kind, o *sweepOptions, multi bool) (err error) {
	w := stdout
	if o.reportFile != "" {
		path := o.reportFile
		if multi {
			ext := filepath.Ext(path)
			path = strings.TrimSuffix(path, ext) + "_" + chart.Slug(rep.Dataset) + ext
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
		file, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("create report: %w", createErr)
		}
		defer closeInto(file, &err, "report")
		w = file
	}

	return renderReport(w, rep, kind, o.points)
}

func renderReport(w io.Writer, rep *report.Report, kind report.Kind, points int) error {
	if err := report.Write(w, rep, kind); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if kind == report.KindTable && points > 0 {
		if _, err := fmt.Fprintln(w, report.RenderPoints(rep, points)); err != nil {
			return err
		}
	}
	return nil
}

// closeInto closes c and stores its error in *errp unless an earlier error is there.
func closeInto(c io.Closer, errp *error, what string) {
	if cerr := c.Close(); cerr != nil && *errp == nil {
		*errp = fmt.Errorf("close %s: %w", what, cerr)
	}
}
