package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// Normalization is applied per RGB channel after scaling pixels to [0,1].
type Normalization struct {
	Mean [3]float32
	Std  [3]float32
}

// ImageNet is the normalization most image backbones are trained with.
var ImageNet = Normalization{
	Mean: [3]float32{0.485, 0.456, 0.406},
	Std:  [3]float32{0.229, 0.224, 0.225},
}

// Unit leaves pixels in [0,1].
var Unit = Normalization{
	Mean: [3]float32{0, 0, 0},
	Std:  [3]float32{1, 1, 1},
}

// Tensor resizes img to w×h and returns it as a CHW float32 slice (RGB planes).
func Tensor(img image.Image, w, h int, norm Normalization) ([]float32, error) {
	if img.Bounds().Empty() || w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	plane := w * h
	out := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*dst.Stride + x*4
			p := y*w + x
			for c := 0; c < 3; c++ {
				v := float32(dst.Pix[i+c]) / 255
				std := norm.Std[c]
				if std == 0 {
					std = 1
				}
				out[c*plane+p] = (v - norm.Mean[c]) / std
			}
		}
	}
	return out, nil
}
