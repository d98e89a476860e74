package meter

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/phscale"
	"github.com/charlie0129/phmeter/pkg/sampler"
)

func uniform(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name      string
		color     color.RGBA
		wantPH    int
		wantLabel phscale.Label
	}{
		{"neutral", color.RGBA{R: 76, G: 175, B: 80, A: 255}, 7, phscale.LabelNeutral},
		{"strong acid", color.RGBA{R: 230, G: 27, B: 35, A: 255}, 0, phscale.LabelStrongAcid},
		{"strong base", color.RGBA{R: 68, G: 31, B: 96, A: 255}, 14, phscale.LabelStrongBase},
	}

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	m := New(0, classifier.MetricRGB)
	m.now = func() time.Time { return fixed }

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Measure(uniform(64, 48, tt.color))
			if err != nil {
				t.Fatalf("Measure() error = %v", err)
			}
			if got.Result.Point.PH != tt.wantPH || got.Result.Point.Label != tt.wantLabel {
				t.Errorf("Measure() = pH %d %s, want pH %d %s",
					got.Result.Point.PH, got.Result.Point.Label, tt.wantPH, tt.wantLabel)
			}
			if got.Center != image.Pt(32, 24) {
				t.Errorf("Center = %v, want (32,24)", got.Center)
			}
			if got.WindowSize != sampler.DefaultWindowSize {
				t.Errorf("WindowSize = %d, want %d", got.WindowSize, sampler.DefaultWindowSize)
			}
			if !got.Time.Equal(fixed) {
				t.Errorf("Time = %v, want %v", got.Time, fixed)
			}
			if got.ID == "" {
				t.Errorf("ID should be set")
			}
		})
	}
}

func TestMeasureUniqueIDs(t *testing.T) {
	m := New(3, classifier.MetricRGB)
	img := uniform(8, 8, color.RGBA{A: 255})
	a, err := m.Measure(img)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Measure(img)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("two measurements share ID %s", a.ID)
	}
}

func TestMeasureAtOutOfBounds(t *testing.T) {
	m := New(5, classifier.MetricRGB)
	_, err := m.Measure(uniform(4, 4, color.RGBA{A: 255}))
	if !errors.Is(err, sampler.ErrOutOfBounds) {
		t.Fatalf("Measure() on a 4x4 frame error = %v, want %v", err, sampler.ErrOutOfBounds)
	}

	_, err = m.MeasureAt(uniform(20, 20, color.RGBA{A: 255}), image.Pt(19, 10))
	if !errors.Is(err, sampler.ErrOutOfBounds) {
		t.Fatalf("MeasureAt() near the edge error = %v, want %v", err, sampler.ErrOutOfBounds)
	}
}

func TestMeasureAtInvalidSize(t *testing.T) {
	m := New(-1, classifier.MetricRGB)
	_, err := m.Measure(uniform(10, 10, color.RGBA{A: 255}))
	if !errors.Is(err, sampler.ErrInvalidSize) {
		t.Fatalf("Measure() error = %v, want %v", err, sampler.ErrInvalidSize)
	}
}

func TestMeasureAtSamplesOnlyWindow(t *testing.T) {
	img := uniform(30, 30, color.RGBA{R: 230, G: 27, B: 35, A: 255})
	for y := 3; y < 8; y++ {
		for x := 3; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 68, G: 31, B: 96, A: 255})
		}
	}

	m := New(5, classifier.MetricRGB)
	got, err := m.MeasureAt(img, image.Pt(5, 5))
	if err != nil {
		t.Fatalf("MeasureAt() error = %v", err)
	}
	if got.Result.Point.PH != 14 {
		t.Errorf("MeasureAt() = pH %d, want 14", got.Result.Point.PH)
	}
	if got.Result.Sampled != (sampler.SampledColor{R: 68, G: 31, B: 96}) {
		t.Errorf("Sampled = %+v", got.Result.Sampled)
	}
}
