package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	liveness "github.com/jamesainslie/go-liveness"
	"github.com/jamesainslie/go-liveness/internal/bench"
	"github.com/jamesainslie/go-liveness/internal/scan"
	"github.com/jamesainslie/go-liveness/internal/ui"
)

type scanOptions struct {
	attackDir     string
	bonaFideDir   string
	attackList    string
	bonaFideList  string
	bonaFideFirst bool
	output        string
	scorer        string
	model         string
	workers       int
	decision      float64
	decisionSet   bool
	extensions    []string
}

func newScanCmd(a *app) *cobra.Command {
	o := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Score attack and bona-fide image folders and write a result log",
		Long: "Score every image in the attack and bona-fide folders (or image lists) and write\n" +
			"Image,Result,Confidence,Time(ms),Decision rows, ready for `pad-bench sweep`.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.decisionSet = cmd.Flags().Changed("decision")
			return runScan(cmd.Context(), a, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.attackDir, "attack", "", "Folder of attack images")
	f.StringVar(&o.bonaFideDir, "bona-fide", "", "Folder of bona-fide images")
	f.StringVar(&o.attackList, "attack-list", "", "File listing attack images, one per line, relative to the file")
	f.StringVar(&o.bonaFideList, "bona-fide-list", "", "File listing bona-fide images, one per line, relative to the file")
	f.BoolVar(&o.bonaFideFirst, "bona-fide-first", false, "Write bona-fide rows before attacks (split layout order)")
	f.StringVarP(&o.output, "output", "o", "", "Result log path (default <out>/liveness_results.csv)")
	f.StringVar(&o.scorer, "scorer", "heuristic", "Scorer: heuristic, lbp or onnx")
	f.StringVar(&o.model, "model", "", "ONNX model file (onnx scorer)")
	f.IntVar(&o.workers, "workers", 0, "Concurrent images (default number of CPUs)")
	f.Float64Var(&o.decision, "decision", 0.8, "Decision threshold (default from config)")
	f.StringSliceVar(&o.extensions, "ext", nil, "Image extensions to include, e.g. .jpg,.png")
	cmd.MarkFlagsMutuallyExclusive("attack", "attack-list")
	cmd.MarkFlagsMutuallyExclusive("bona-fide", "bona-fide-list")

	return cmd
}

func runScan(ctx context.Context, a *app, o *scanOptions) error {
	if o.attackDir == "" && o.bonaFideDir == "" && o.attackList == "" && o.bonaFideList == "" {
		return errors.New("at least one of --attack, --bona-fide, --attack-list or --bona-fide-list is required")
	}
	decision := a.cfg.Decision
	if o.decisionSet {
		decision = o.decision
	}
	if decision < 0 || decision > 1 {
		return fmt.Errorf("decision must be within [0, 1], got %v", decision)
	}

	scorer, closeScorer, err := newScorer(a, o, decision)
	if err != nil {
		return err
	}
	defer closeScorer()

	start := time.Now()
	rows, err := scan.Run(ctx, scan.Config{
		AttackDir:     o.attackDir,
		BonaFideDir:   o.bonaFideDir,
		AttackList:    o.attackList,
		BonaFideList:  o.bonaFideList,
		BonaFideFirst: o.bonaFideFirst,
		Extensions:    o.extensions,
		Decision:      &decision,
		Workers:       o.workers,
		Log:           a.log,
	}, scorer)
	if err != nil {
		return err
	}

	output := o.output
	if output == "" {
		output = filepath.Join(a.cfg.OutputDir, "liveness_results.csv")
	}
	if err := scan.WriteFile(output, rows); err != nil {
		return err
	}
	a.log.WithField("results", output).Info("result log written")

	printScanSummary(a, rows, decision, time.Since(start))
	return nil
}

func newScorer(a *app, o *scanOptions, decision float64) (liveness.Scorer, func(), error) {
	switch o.scorer {
	case "heuristic":
		return liveness.Heuristic{}.WithThreshold(decision), func() {}, nil
	case "lbp":
		return liveness.LBP{}.WithThreshold(decision), func() {}, nil
	case "onnx":
		if o.model == "" {
			return nil, nil, errors.New("--model is required for the onnx scorer")
		}
		level := slog.LevelInfo
		if a.verbose {
			level = slog.LevelDebug
		}
		opts := []liveness.Option{
			liveness.WithThreshold(float32(decision)),
			liveness.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))),
		}
		if o.workers > 0 {
			opts = append(opts, liveness.WithPoolSize(o.workers))
		}
		est, err := liveness.New(o.model, opts...)
		if err != nil {
			return nil, nil, err
		}
		return est, func() { _ = est.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown scorer %q (want heuristic, lbp or onnx)", o.scorer)
	}
}

func printScanSummary(a *app, rows []scan.Row, decision float64, elapsed time.Duration) {
	failed := len(rows) - len(scan.Samples(rows))
	s := bench.Summarize(scan.Samples(rows), decision)

	fmt.Fprintln(a.out, ui.Title.Render("Scan summary"))
	fmt.Fprintln(a.out, ui.KeyValue("Attacks", fmt.Sprintf("%d (%s %d correct, %s %d accepted)",
		s.Attacks, ui.CheckMark(), s.AttacksCorrect, ui.CrossMark(), s.AttackErrors())))
	fmt.Fprintln(a.out, ui.KeyValue("Bona fide", fmt.Sprintf("%d (%s %d correct, %s %d rejected)",
		s.BonaFide, ui.CheckMark(), s.BonaFideCorrect, ui.CrossMark(), s.BonaFideErrors())))
	fmt.Fprintln(a.out, ui.KeyValue("Accuracy", fmt.Sprintf("%.2f%% @ %.2f", s.Accuracy*100, decision)))
	fmt.Fprintln(a.out, ui.KeyValue("Mean time", fmt.Sprintf("%.2f ms", s.MeanTimeMS)))
	if failed > 0 {
		fmt.Fprintln(a.out, ui.WarnMark()+" "+ui.Warning.Render(fmt.Sprintf("%d images could not be scored", failed)))
	}
	fmt.Fprintln(a.out, ui.Dim.Render(fmt.Sprintf("%d images in %s", len(rows), elapsed.Round(time.Millisecond))))
}
