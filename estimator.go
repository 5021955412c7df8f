package liveness

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"

	"github.com/jamesainslie/go-liveness/inference"
	"github.com/jamesainslie/go-liveness/internal/imaging"
)

// Scorer produces a liveness score in [0,1] for a face image.
type Scorer interface {
	Score(ctx context.Context, img image.Image) (float64, error)
}

// Result is a scored decision for one image.
type Result struct {
	Live  bool
	Score float32
}

// Estimator scores face images with an ONNX liveness classifier.
// It is safe for concurrent use.
type Estimator struct {
	pool      *inference.Pool
	threshold float32
	width     int
	height    int
	liveClass int
	norm      imaging.Normalization
	logger    *slog.Logger
}

// New creates an Estimator from an ONNX model file.
func New(modelPath string, opts ...Option) (*Estimator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	pool, err := inference.NewPool(modelPath, cfg.poolSize, cfg.io)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	cfg.logger.Debug("liveness model loaded",
		slog.String("model", modelPath),
		slog.Int("pool", pool.Size()),
		slog.Int("width", cfg.width),
		slog.Int("height", cfg.height))

	return &Estimator{
		pool:      pool,
		threshold: cfg.threshold,
		width:     cfg.width,
		height:    cfg.height,
		liveClass: cfg.liveClass,
		norm:      cfg.norm,
		logger:    cfg.logger,
	}, nil
}

// Estimate scores img and applies the decision threshold.
func (e *Estimator) Estimate(ctx context.Context, img image.Image) (Result, error) {
	input, err := imaging.Tensor(img, e.width, e.height, e.norm)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoFace, err)
	}

	shape := []int64{1, 3, int64(e.height), int64(e.width)}
	out, err := e.pool.Infer(ctx, input, shape)
	if err != nil {
		return Result{}, err
	}

	score, err := scoreFromOutput(out, e.liveClass)
	if err != nil {
		return Result{}, err
	}

	return Result{Live: score >= e.threshold, Score: score}, nil
}

// EstimateFile decodes the image at path and scores it.
func (e *Estimator) EstimateFile(ctx context.Context, path string) (Result, error) {
	img, err := imaging.Decode(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return e.Estimate(ctx, img)
}

// Score implements Scorer.
func (e *Estimator) Score(ctx context.Context, img image.Image) (float64, error) {
	res, err := e.Estimate(ctx, img)
	if err != nil {
		return 0, err
	}
	return float64(res.Score), nil
}

// Threshold returns the decision threshold.
func (e *Estimator) Threshold() float32 {
	return e.threshold
}

// Close releases all resources.
func (e *Estimator) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}

// scoreFromOutput maps raw model output to a live probability. A single value
// is a logit; two or more values are class logits.
func scoreFromOutput(out []float32, liveClass int) (float32, error) {
	switch {
	case len(out) == 0:
		return 0, fmt.Errorf("%w: empty output", ErrUnexpectedOutput)
	case len(out) == 1:
		return sigmoid(out[0]), nil
	case liveClass >= len(out):
		return 0, fmt.Errorf("%w: live class %d out of %d", ErrUnexpectedOutput, liveClass, len(out))
	default:
		return softmax(out)[liveClass], nil
	}
}

func sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(float64(-x))))
}

func softmax(xs []float32) []float32 {
	peak := xs[0]
	for _, x := range xs[1:] {
		peak = max(peak, x)
	}
	var sum float64
	exps := make([]float64, len(xs))
	for i, x := range xs {
		exps[i] = math.Exp(float64(x - peak))
		sum += exps[i]
	}
	out := make([]float32, len(xs))
	for i := range exps {
		out[i] = float32(exps[i] / sum)
	}
	return out
}
