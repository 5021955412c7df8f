package liveness

import (
	"context"
	"image"
	"math"
)

const (
	lbpRadius    = 3
	lbpNeighbors = 24
	lbpWeight    = 0.25
)

// lbpOffsets are the sampling points of the radius-3 ring, floored to the
// pixel grid. Rounding noise next to a whole number does not cross it.
var lbpOffsets = func() [lbpNeighbors]image.Point {
	var pts [lbpNeighbors]image.Point
	for n := range pts {
		a := 2 * math.Pi * float64(n) / lbpNeighbors
		pts[n] = image.Point{
			X: int(math.Floor(lbpRadius*math.Cos(a) + 0.5e-12)),
			Y: int(math.Floor(lbpRadius*math.Sin(a) + 0.5e-12)),
		}
	}
	return pts
}()

// LBP scores an image from four equally weighted statistics of the brightest
// Window×Window region: Sobel gradient magnitude, luma standard deviation
// read twice at different scales, and one minus the local binary pattern
// uniformity. The zero value uses a 100 pixel window and DefaultThreshold.
type LBP struct {
	Window int

	cutoff cutoff
}

// WithThreshold returns a copy of l that decides live at scores >= t.
func (l LBP) WithThreshold(t float64) LBP {
	l.cutoff = cutoff{t: t, set: true}
	return l
}

// Threshold returns the decision threshold.
func (l LBP) Threshold() float64 {
	return l.cutoff.value()
}

// Score implements Scorer.
func (l LBP) Score(ctx context.Context, img image.Image) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	g, err := faceWindow(img, l.Window)
	if err != nil {
		return 0, err
	}

	_, std := meanStd(g)
	score := gradientScore(g)*lbpWeight +
		std/64*lbpWeight +
		std/50*lbpWeight +
		(1-lbpUniformity(g))*lbpWeight

	return math.Min(score, 1), nil
}

// Estimate scores img and applies the decision threshold.
func (l LBP) Estimate(ctx context.Context, img image.Image) (Result, error) {
	s, err := l.Score(ctx, img)
	if err != nil {
		return Result{}, err
	}
	return Result{Live: s >= l.Threshold(), Score: float32(s)}, nil
}

// gradientScore is the mean 3×3 Sobel gradient magnitude over 255, borders reflected.
func gradientScore(g *image.Gray) float64 {
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
			gx := at(x+1, y-1) - at(x-1, y-1) +
				2*(at(x+1, y)-at(x-1, y)) +
				at(x+1, y+1) - at(x-1, y+1)
			gy := at(x-1, y+1) - at(x-1, y-1) +
				2*(at(x, y+1)-at(x, y-1)) +
				at(x+1, y+1) - at(x+1, y-1)
			sum += math.Hypot(gx, gy)
		}
	}
	return sum / float64(rows*cols) / 255
}

// lbpUniformity is the number of distinct 24-neighbour LBP codes, each bin
// weighted n/(n+1e-6), over the pixel count. Pixels within the radius of the
// border keep code 0.
func lbpUniformity(g *image.Gray) float64 {
	b := g.Bounds()
	rows, cols := b.Dy(), b.Dx()
	if rows == 0 || cols == 0 {
		return 0
	}

	hist := make(map[uint32]int)
	interior := 0
	for y := lbpRadius; y < rows-lbpRadius; y++ {
		for x := lbpRadius; x < cols-lbpRadius; x++ {
			center := g.Pix[y*g.Stride+x]
			var code uint32
			for n, d := range lbpOffsets {
				if g.Pix[(y+d.Y)*g.Stride+x+d.X] > center {
					code |= 1 << n
				}
			}
			hist[code]++
			interior++
		}
	}
	if border := rows*cols - interior; border > 0 {
		hist[0] += border
	}

	var u float64
	for _, n := range hist {
		u += float64(n) / (float64(n) + 1e-6)
	}
	return u / float64(rows*cols)
}
