package liveness

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/jamesainslie/go-liveness/internal/imaging"
)

// Heuristic component weights.
const (
	textureWeight    = 0.4
	edgeWeight       = 0.2
	contrastWeight   = 0.3
	brightnessWeight = 0.1
)

// defaultWindow is the side of the square face window the texture scorers use.
const defaultWindow = 100

// cutoff is a decision threshold that stays DefaultThreshold until set,
// so an explicit zero is kept.
type cutoff struct {
	t   float64
	set bool
}

func (c cutoff) value() float64 {
	if !c.set {
		return DefaultThreshold
	}
	return c.t
}

func windowOrDefault(w int) int {
	if w <= 0 {
		return defaultWindow
	}
	return w
}

// Heuristic scores an image from hand-crafted statistics of the brightest
// Window×Window region: GLCM texture, horizontal Sobel response, luma
// standard deviation and mean brightness. The zero value uses a 100 pixel
// window and DefaultThreshold.
type Heuristic struct {
	Window int

	cutoff cutoff
}

// WithThreshold returns a copy of h that decides live at scores >= t.
func (h Heuristic) WithThreshold(t float64) Heuristic {
	h.cutoff = cutoff{t: t, set: true}
	return h
}

// Threshold returns the decision threshold.
func (h Heuristic) Threshold() float64 {
	return h.cutoff.value()
}

// Score implements Scorer.
func (h Heuristic) Score(ctx context.Context, img image.Image) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	g, err := faceWindow(img, h.Window)
	if err != nil {
		return 0, err
	}

	score := textureScore(g)*textureWeight +
		edgeScore(g)*edgeWeight +
		contrastScore(g)*contrastWeight +
		brightnessScore(g)*brightnessWeight

	return math.Min(score, 1), nil
}

// Estimate scores img and applies the decision threshold.
func (h Heuristic) Estimate(ctx context.Context, img image.Image) (Result, error) {
	s, err := h.Score(ctx, img)
	if err != nil {
		return Result{}, err
	}
	return Result{Live: s >= h.Threshold(), Score: float32(s)}, nil
}

// faceWindow crops the square window around the brightest pixel and
// converts it to luma. It stands in for a face detector.
func faceWindow(img image.Image, window int) (*image.Gray, error) {
	w := windowOrDefault(window)
	r, err := imaging.BrightestWindow(img, w, w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFace, err)
	}
	return imaging.Gray(imaging.Crop(img, r)), nil
}

// textureScore derives a score from the horizontal-neighbour grey-level
// co-occurrence matrix: clamp((entropy + contrast + energy) / 15).
func textureScore(g *image.Gray) float64 {
	b := g.Bounds()
	rows, cols := b.Dy(), b.Dx()
	if rows < 2 || cols < 2 {
		return 0
	}

	var glcm [256 * 256]float64
	for y := 0; y < rows-1; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+cols]
		for x := 0; x < cols-1; x++ {
			glcm[int(row[x])*256+int(row[x+1])]++
		}
	}
	total := float64((rows - 1) * (cols - 1))

	var contrast, energy, entropy float64
	for idx, n := range glcm {
		if n == 0 {
			continue
		}
		p := n / total
		d := float64(idx/256 - idx%256)
		contrast += p * d * d
		energy += p * p
		entropy -= p * math.Log(p)
	}

	return clamp01((entropy + contrast + energy) / 15)
}

// edgeScore is clamp(10 × mean horizontal Sobel derivative), borders reflected.
func edgeScore(g *image.Gray) float64 {
	b := g.Bounds()
	rows, cols := b.Dy(), b.Dx()
	if rows == 0 || cols == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(g.Pix[reflect101(y, rows)*g.Stride+reflect101(x, cols)])
	}

	var sum float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			sum += at(x+1, y-1) - at(x-1, y-1) +
				2*(at(x+1, y)-at(x-1, y)) +
				at(x+1, y+1) - at(x-1, y+1)
		}
	}
	return clamp01(sum / float64(rows*cols) * 10)
}

// contrastScore is clamp(stddev / 64).
func contrastScore(g *image.Gray) float64 {
	_, std := meanStd(g)
	return clamp01(std / 64)
}

// brightnessScore is mean luma / 255.
func brightnessScore(g *image.Gray) float64 {
	mean, _ := meanStd(g)
	return clamp01(mean / 255)
}

func meanStd(g *image.Gray) (mean, std float64) {
	b := g.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}
	var sum, sq float64
	for y := 0; y < b.Dy(); y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+b.Dx()] {
			f := float64(v)
			sum += f
			sq += f * f
		}
	}
	mean = sum / n
	return mean, math.Sqrt(math.Max(sq/n-mean*mean, 0))
}

// reflect101 mirrors p into [0,n) without repeating the edge pixel.
func reflect101(p, n int) int {
	if n == 1 {
		return 0
	}
	for p < 0 || p >= n {
		if p < 0 {
			p = -p
		} else {
			p = 2*n - 2 - p
		}
	}
	return p
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
