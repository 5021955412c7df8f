package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	liveness "github.com/jamesainslie/go-liveness"
	"github.com/jamesainslie/go-liveness/internal/imaging"
	"github.com/jamesainslie/go-liveness/internal/ui"
)

// estimator is what both scorers offer.
type estimator interface {
	Estimate(ctx context.Context, path string) (liveness.Result, error)
	Close() error
}

type onnxEstimator struct{ *liveness.Estimator }

func (e onnxEstimator) Estimate(ctx context.Context, path string) (liveness.Result, error) {
	return e.EstimateFile(ctx, path)
}

// textureEstimator adapts the in-process scorers, which work on decoded images.
type textureEstimator struct {
	scorer interface {
		Estimate(ctx context.Context, img image.Image) (liveness.Result, error)
	}
}

func (t textureEstimator) Estimate(ctx context.Context, path string) (liveness.Result, error) {
	img, err := imaging.Decode(path)
	if err != nil {
		return liveness.Result{}, fmt.Errorf("%w: %w", liveness.ErrDecode, err)
	}
	return t.scorer.Estimate(ctx, img)
}

func (textureEstimator) Close() error { return nil }

func newRootCmd() *cobra.Command {
	var (
		modelPath string
		heuristic bool
		lbp       bool
		threshold float64
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:          "liveness-cli [--model FILE | --heuristic | --lbp] IMAGE...",
		Short:        "Score face images for liveness",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			log.SetOutput(cmd.ErrOrStderr())
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			est, err := newEstimator(modelPath, heuristic, lbp, threshold)
			if err != nil {
				return err
			}
			defer func() { _ = est.Close() }()

			return scoreImages(cmd.Context(), cmd.OutOrStdout(), log, est, args)
		},
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "ONNX model file")
	cmd.Flags().BoolVar(&heuristic, "heuristic", false, "Use the GLCM texture heuristic instead of a model")
	cmd.Flags().BoolVar(&lbp, "lbp", false, "Use the LBP texture heuristic instead of a model")
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", liveness.DefaultThreshold, "Decision threshold")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("model", "heuristic", "lbp")

	return cmd
}

func newEstimator(modelPath string, heuristic, lbp bool, threshold float64) (estimator, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be within [0, 1], got %v", threshold)
	}
	switch {
	case lbp:
		return textureEstimator{liveness.LBP{}.WithThreshold(threshold)}, nil
	case heuristic || modelPath == "":
		return textureEstimator{liveness.Heuristic{}.WithThreshold(threshold)}, nil
	}
	e, err := liveness.New(modelPath, liveness.WithThreshold(float32(threshold)))
	if err != nil {
		return nil, err
	}
	return onnxEstimator{e}, nil
}

func scoreImages(ctx context.Context, w io.Writer, log logrus.FieldLogger, est estimator, paths []string) error {
	var failed int
	for _, path := range paths {
		start := time.Now()
		res, err := est.Estimate(ctx, path)
		elapsed := time.Since(start)
		if err != nil {
			failed++
			log.WithError(err).WithField("image", path).Error("cannot score image")
			fmt.Fprintf(w, "%s %s\n", ui.CrossMark(), path)
			continue
		}

		verdict := ui.Error.Render("SPOOF")
		if res.Live {
			verdict = ui.Success.Render("LIVE")
		}
		fmt.Fprintf(w, "%s  score %.4f  %s  %s\n", verdict, res.Score, ui.Dim.Render(elapsed.Round(time.Microsecond).String()), path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be scored", failed, len(paths))
	}
	return nil
}
