package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-liveness/internal/bench"
	"github.com/jamesainslie/go-liveness/internal/chart"
	"github.com/jamesainslie/go-liveness/internal/config"
	"github.com/jamesainslie/go-liveness/internal/ui"
)

func newTimingCmd(a *app) *cobra.Command {
	var (
		title      string
		timeColumn string
		outDir     string
		format     string
		open       bool
	)

	cmd := &cobra.Command{
		Use:   "timing [FILE...]",
		Short: "Chart per-image processing time of labeled result logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" {
				a.cfg.OutputDir = outDir
			}
			if format != "" {
				a.cfg.ChartFormat = format
			}
			f, err := chart.ParseFormat(a.cfg.ChartFormat)
			if err != nil {
				return err
			}

			datasets := a.cfg.Datasets
			if len(args) > 0 {
				datasets = make([]config.Dataset, len(args))
				for i, path := range args {
					datasets[i] = config.Dataset{Path: path, Layout: bench.LayoutLabeled.String()}
				}
			}

			var series []chart.Series
			for _, d := range datasets {
				if timeColumn != "" {
					d.TimeColumn = timeColumn
				}
				s, err := loadTiming(a, d)
				if err != nil {
					return fmt.Errorf("%s: %w", d.Title(), err)
				}
				if len(s.TimesMS) == 0 {
					a.log.WithField("dataset", d.Title()).Debug("no processing times")
					continue
				}
				series = append(series, s)

				fmt.Fprintln(a.out, ui.KeyValue(s.Name, fmt.Sprintf("%d images, mean %.2f ms", len(s.TimesMS), lo.Mean(s.TimesMS))))
			}
			if len(series) == 0 {
				return errors.New("no dataset has processing times")
			}

			p, err := chart.Timing(title, series...)
			if err != nil {
				return err
			}
			path := filepath.Join(a.cfg.OutputDir, chart.FileName(title, "timing", f))
			if err := chart.Save(p, path); err != nil {
				return err
			}
			a.log.WithField("chart", path).Info("chart written")

			if open {
				if err := browser.OpenFile(path); err != nil {
					a.log.WithError(err).Warn("cannot open chart")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "Processing time", "Chart title")
	cmd.Flags().StringVar(&timeColumn, "time-column", "", "Processing time column")
	cmd.Flags().StringVar(&outDir, "out", "", "Chart output directory (default from config)")
	cmd.Flags().StringVar(&format, "chart-format", "", "Chart format: png, svg or pdf (default from config)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the chart in the system viewer")
	return cmd
}

func loadTiming(a *app, d config.Dataset) (chart.Series, error) {
	f, err := d.Format()
	if err != nil {
		return chart.Series{}, err
	}
	f.Log = a.log

	tbl, err := bench.Load(d.Path, f)
	if err != nil {
		return chart.Series{}, err
	}
	times := bench.TimingSeries(tbl.Samples)
	a.log.WithFields(logrus.Fields{
		"dataset": d.Title(),
		"timed":   len(times),
	}).Debug("timing loaded")

	return chart.Series{Name: d.Title(), TimesMS: times}, nil
}
