package sampler

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestAverage(t *testing.T) {
	halfAndHalf := Region{Width: 5, Height: 5}
	for i := 0; i < 25; i++ {
		if i < 12 {
			halfAndHalf.Samples = append(halfAndHalf.Samples, Sample{})
		} else {
			halfAndHalf.Samples = append(halfAndHalf.Samples, Sample{R: 255, G: 255, B: 255})
		}
	}

	tests := []struct {
		name   string
		region Region
		want   SampledColor
	}{
		{
			name:   "uniform block",
			region: NewUniformRegion(5, 5, Sample{R: 10, G: 20, B: 30}),
			want:   SampledColor{R: 10, G: 20, B: 30},
		},
		{
			name:   "12 black and 13 white samples",
			region: halfAndHalf,
			want:   SampledColor{R: 133, G: 133, B: 133},
		},
		{
			name: "exact half rounds up",
			region: Region{Width: 2, Height: 1, Samples: []Sample{
				{R: 127, G: 0, B: 1},
				{R: 128, G: 1, B: 2},
			}},
			want: SampledColor{R: 128, G: 1, B: 2},
		},
		{
			name: "fraction above half rounds up rather than truncating",
			region: Region{Width: 3, Height: 1, Samples: []Sample{
				{R: 0, G: 0, B: 0},
				{R: 1, G: 1, B: 0},
				{R: 1, G: 0, B: 0},
			}},
			want: SampledColor{R: 1, G: 0, B: 0},
		},
		{
			name:   "single sample",
			region: NewUniformRegion(1, 1, Sample{R: 255, G: 0, B: 7}),
			want:   SampledColor{R: 255, G: 0, B: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Average(tt.region); got != tt.want {
				t.Errorf("Average() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAveragePanics(t *testing.T) {
	tests := []struct {
		name   string
		region Region
	}{
		{"empty", Region{}},
		{"fewer samples than declared", Region{Width: 3, Height: 3, Samples: make([]Sample, 8)}},
		{"more samples than declared", Region{Width: 2, Height: 2, Samples: make([]Sample, 5)}},
		{"samples without dimensions", Region{Samples: make([]Sample, 4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("Average should panic")
				}
			}()
			Average(tt.region)
		})
	}
}

func TestCenter(t *testing.T) {
	tests := []struct {
		bounds image.Rectangle
		want   image.Point
	}{
		{image.Rect(0, 0, 640, 480), image.Pt(320, 240)},
		{image.Rect(0, 0, 5, 5), image.Pt(2, 2)},
		{image.Rect(10, 20, 15, 26), image.Pt(12, 23)},
	}
	for _, tt := range tests {
		if got := Center(tt.bounds); got != tt.want {
			t.Errorf("Center(%v) = %v, want %v", tt.bounds, got, tt.want)
		}
	}
}

func TestWindowRect(t *testing.T) {
	got := WindowRect(image.Pt(10, 10), 5)
	want := image.Rect(8, 8, 13, 13)
	if got != want {
		t.Errorf("WindowRect() = %v, want %v", got, want)
	}
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func TestWindow(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 9, 9))
	fill(img, color.RGBA{R: 1, G: 1, B: 1, A: 255})
	// Mark the 5x5 block centred at (4,4); everything outside must be ignored.
	for y := 2; y < 7; y++ {
		for x := 2; x < 7; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 76, G: 175, B: 80, A: 255})
		}
	}

	region, err := Window(img, Center(img.Bounds()), 5)
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if region.Width != 5 || region.Height != 5 || len(region.Samples) != 25 {
		t.Fatalf("Window() region = %dx%d with %d samples", region.Width, region.Height, len(region.Samples))
	}
	if got := Average(region); got != (SampledColor{R: 76, G: 175, B: 80}) {
		t.Errorf("Average(Window()) = %+v", got)
	}
}

func TestWindowRowMajor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(y*3 + x), A: 255})
		}
	}
	region, err := Window(img, image.Pt(1, 1), 3)
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	for i, s := range region.Samples {
		if int(s.R) != i {
			t.Fatalf("sample %d has R=%d, want row-major order", i, s.R)
		}
	}
}

func TestWindowIgnoresAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
		}
	}
	region, err := Window(img, image.Pt(2, 2), 5)
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if got := Average(region); got != (SampledColor{R: 200, G: 100, B: 50}) {
		t.Errorf("Average() = %+v, want alpha ignored", got)
	}
}

func TestWindowNonZeroOrigin(t *testing.T) {
	img := image.NewRGBA(image.Rect(100, 100, 105, 105))
	fill(img, color.RGBA{R: 9, G: 8, B: 7, A: 255})
	region, err := Window(img, Center(img.Bounds()), 5)
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if got := Average(region); got != (SampledColor{R: 9, G: 8, B: 7}) {
		t.Errorf("Average() = %+v", got)
	}
}

func TestWindowErrors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	tests := []struct {
		name   string
		center image.Point
		size   int
		want   error
	}{
		{"zero size", image.Pt(2, 2), 0, ErrInvalidSize},
		{"negative size", image.Pt(2, 2), -3, ErrInvalidSize},
		{"frame smaller than window", image.Pt(2, 2), 5, ErrOutOfBounds},
		{"window past left edge", image.Pt(0, 2), 3, ErrOutOfBounds},
		{"window past bottom edge", image.Pt(2, 3), 3, ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Window(img, tt.center, tt.size)
			if !errors.Is(err, tt.want) {
				t.Errorf("Window() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSampledColorHex(t *testing.T) {
	if got := (SampledColor{R: 255, G: 10, B: 0}).Hex(); got != "#ff0a00" {
		t.Errorf("Hex() = %s", got)
	}
}
