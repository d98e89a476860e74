// Package sampler reduces a block of pixels to one representative colour.
package sampler

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultWindowSize is the edge length of the square sampling window.
const DefaultWindowSize = 5

var (
	// ErrInvalidSize is returned when the sampling window size is not positive.
	ErrInvalidSize = errors.New("sampling window size must be positive")

	// ErrOutOfBounds is returned when the sampling window does not fit inside the frame.
	ErrOutOfBounds = errors.New("sampling window out of frame bounds")
)

// Sample is a single pixel. Alpha is never carried.
type Sample struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// SampledColor is the averaged colour of a region.
type SampledColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the colour as #rrggbb.
func (c SampledColor) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Region is a rectangular block of samples stored row-major.
type Region struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Samples []Sample `json:"samples"`
}

// NewUniformRegion returns a width x height region filled with s.
func NewUniformRegion(width, height int, s Sample) Region {
	samples := make([]Sample, width*height)
	for i := range samples {
		samples[i] = s
	}
	return Region{Width: width, Height: height, Samples: samples}
}

// Average returns the per-channel mean of r, each channel rounded half-up.
// It panics if r holds no samples or if Samples does not hold exactly
// Width x Height entries.
func Average(r Region) SampledColor {
	n := len(r.Samples)
	if n == 0 {
		panic("sampler: average of empty region")
	}
	if n != r.Width*r.Height {
		panic(fmt.Sprintf("sampler: region is %dx%d but holds %d samples", r.Width, r.Height, n))
	}

	rs := make([]float64, n)
	gs := make([]float64, n)
	bs := make([]float64, n)
	for i, s := range r.Samples {
		rs[i] = float64(s.R)
		gs[i] = float64(s.G)
		bs[i] = float64(s.B)
	}

	return SampledColor{
		R: roundChannel(stat.Mean(rs, nil)),
		G: roundChannel(stat.Mean(gs, nil)),
		B: roundChannel(stat.Mean(bs, nil)),
	}
}

// roundChannel rounds half away from zero, which is half-up for channel values.
func roundChannel(v float64) uint8 {
	return uint8(math.Round(v))
}

// Center returns the centre pixel of bounds, rounding down.
func Center(bounds image.Rectangle) image.Point {
	return image.Pt(bounds.Min.X+bounds.Dx()/2, bounds.Min.Y+bounds.Dy()/2)
}

// WindowRect returns the size x size rectangle centred on center.
// For odd sizes the centre pixel sits exactly in the middle.
func WindowRect(center image.Point, size int) image.Rectangle {
	minPt := center.Sub(image.Pt(size/2, size/2))
	return image.Rectangle{Min: minPt, Max: minPt.Add(image.Pt(size, size))}
}

// Window reads the size x size block of img centred on center.
// The window must lie entirely inside img.Bounds(); it is never clamped.
func Window(img image.Image, center image.Point, size int) (Region, error) {
	if size <= 0 {
		return Region{}, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	rect := WindowRect(center, size)
	if !rect.In(img.Bounds()) {
		return Region{}, fmt.Errorf("%w: window %v, frame %v", ErrOutOfBounds, rect, img.Bounds())
	}

	region := Region{
		Width:   size,
		Height:  size,
		Samples: make([]Sample, 0, size*size),
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			region.Samples = append(region.Samples, Sample{R: c.R, G: c.G, B: c.B})
		}
	}

	return region, nil
}
