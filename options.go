package liveness

import (
	"log/slog"
	"runtime"

	"github.com/jamesainslie/go-liveness/inference"
	"github.com/jamesainslie/go-liveness/internal/imaging"
)

// DefaultThreshold is the decision threshold: scores at or above it are live.
const DefaultThreshold = 0.8

// Option configures an Estimator.
type Option func(*config)

type config struct {
	threshold float32
	poolSize  int
	width     int
	height    int
	io        inference.IO
	liveClass int
	norm      imaging.Normalization
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		threshold: DefaultThreshold,
		poolSize:  runtime.NumCPU(),
		width:     224,
		height:    224,
		io:        inference.DefaultIO,
		liveClass: 1,
		norm:      imaging.ImageNet,
		logger:    slog.Default(),
	}
}

// WithThreshold sets the decision threshold (default: 0.8).
func WithThreshold(t float32) Option {
	return func(c *config) {
		c.threshold = t
	}
}

// WithPoolSize sets the ONNX session pool size (default: runtime.NumCPU()).
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithInputSize sets the model input resolution (default: 224x224).
func WithInputSize(w, h int) Option {
	return func(c *config) {
		if w > 0 && h > 0 {
			c.width, c.height = w, h
		}
	}
}

// WithIONames sets the model's input and output tensor names (default: "input", "output").
func WithIONames(input, output string) Option {
	return func(c *config) {
		if input != "" {
			c.io.Input = input
		}
		if output != "" {
			c.io.Output = output
		}
	}
}

// WithLiveClass sets the index of the live class in multi-class outputs (default: 1).
func WithLiveClass(i int) Option {
	return func(c *config) {
		if i >= 0 {
			c.liveClass = i
		}
	}
}

// WithMeanStd sets per-channel RGB normalization (default: ImageNet statistics).
func WithMeanStd(mean, std [3]float32) Option {
	return func(c *config) {
		c.norm = imaging.Normalization{Mean: mean, Std: std}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
