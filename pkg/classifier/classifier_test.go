package classifier

import (
	"math"
	"testing"

	"github.com/charlie0129/phmeter/pkg/phscale"
	"github.com/charlie0129/phmeter/pkg/sampler"
)

func TestClassifyScenarios(t *testing.T) {
	tests := []struct {
		name      string
		sample    sampler.Sample
		wantPH    int
		wantLabel phscale.Label
	}{
		{"neutral", sampler.Sample{R: 76, G: 175, B: 80}, 7, phscale.LabelNeutral},
		{"strong acid", sampler.Sample{R: 230, G: 27, B: 35}, 0, phscale.LabelStrongAcid},
		{"strong base", sampler.Sample{R: 68, G: 31, B: 96}, 14, phscale.LabelStrongBase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampler.Average(sampler.NewUniformRegion(5, 5, tt.sample))
			got := Classify(c)
			if got.Point.PH != tt.wantPH || got.Point.Label != tt.wantLabel {
				t.Errorf("Classify(%+v) = pH %d %s, want pH %d %s", c, got.Point.PH, got.Point.Label, tt.wantPH, tt.wantLabel)
			}
			if got.Sampled != c {
				t.Errorf("Classify() sampled = %+v, want %+v", got.Sampled, c)
			}
			if got.Distance != 0 {
				t.Errorf("Classify() distance = %v, want 0", got.Distance)
			}
		})
	}
}

func TestClassifyExactMatch(t *testing.T) {
	for _, metric := range []Metric{MetricRGB, MetricLab} {
		c := New(metric)
		for _, p := range phscale.Points() {
			got := c.Classify(sampler.SampledColor{R: p.R, G: p.G, B: p.B})
			if got.Point != p {
				t.Errorf("[%s] Classify(%s) = pH %d, want pH %d", metric, p.Hex(), got.Point.PH, p.PH)
			}
			if got.Position != phscale.Position(p.PH) {
				t.Errorf("[%s] Position = %v, want %v", metric, got.Position, phscale.Position(p.PH))
			}
		}
	}
}

func TestClassifyTotal(t *testing.T) {
	// Stride keeps the run short while still covering both ends of every channel.
	values := []int{}
	for v := 0; v <= 255; v += 15 {
		values = append(values, v)
	}
	values = append(values, 1, 127, 128, 254)

	for _, r := range values {
		for _, g := range values {
			for _, b := range values {
				got := Classify(sampler.SampledColor{R: uint8(r), G: uint8(g), B: uint8(b)})
				if _, ok := phscale.Lookup(got.Point.PH); !ok {
					t.Fatalf("Classify(%d,%d,%d) returned pH %d outside the scale", r, g, b, got.Point.PH)
				}
				if got.Distance < 0 || math.IsNaN(got.Distance) {
					t.Fatalf("Classify(%d,%d,%d) distance = %v", r, g, b, got.Distance)
				}
			}
		}
	}
}

func TestClassifyAdjacentInterpolation(t *testing.T) {
	points := phscale.Points()
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		for k := 0; k <= 100; k++ {
			f := float64(k) / 100
			c := sampler.SampledColor{
				R: lerp(a.R, b.R, f),
				G: lerp(a.G, b.G, f),
				B: lerp(a.B, b.B, f),
			}
			got := Classify(c).Point.PH
			if got != a.PH && got != b.PH {
				t.Errorf("colour %+v between pH %d and %d classified as pH %d", c, a.PH, b.PH, got)
			}
		}
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

func TestNearestTieBreak(t *testing.T) {
	low := phscale.CalibrationPoint{PH: 3, R: 0, G: 0, B: 0, Label: phscale.LabelAcid}
	high := phscale.CalibrationPoint{PH: 5, R: 2, G: 0, B: 0, Label: phscale.LabelWeakAcid}
	probe := sampler.SampledColor{R: 1, G: 0, B: 0}

	if SquaredDistance(probe, low) != SquaredDistance(probe, high) {
		t.Fatalf("test points are not equidistant")
	}

	orders := [][]phscale.CalibrationPoint{
		{low, high},
		{high, low},
	}
	for _, points := range orders {
		for i := 0; i < 10; i++ {
			if got := Nearest(probe, points); got.PH != low.PH {
				t.Fatalf("Nearest() = pH %d, want lower pH %d", got.PH, low.PH)
			}
			if got := NewWithPoints(points, MetricLab).Classify(probe); got.Point.PH != low.PH {
				t.Fatalf("lab Classify() = pH %d, want lower pH %d", got.Point.PH, low.PH)
			}
		}
	}
}

func TestNearestTieOnReferenceScale(t *testing.T) {
	// (150,6,69) is at squared distance 7997 from both pH 0 and pH 13.
	probe := sampler.SampledColor{R: 150, G: 6, B: 69}
	p0, _ := phscale.Lookup(0)
	p13, _ := phscale.Lookup(13)
	if d0, d13 := SquaredDistance(probe, p0), SquaredDistance(probe, p13); d0 != 7997 || d13 != 7997 {
		t.Fatalf("squared distances = %d, %d, want 7997 for both", d0, d13)
	}

	for i := 0; i < 10; i++ {
		if got := Classify(probe).Point.PH; got != 0 {
			t.Fatalf("Classify(%+v) = pH %d, want pH 0", probe, got)
		}
	}

	reversed := phscale.Points()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	if got := Nearest(probe, reversed); got.PH != 0 {
		t.Errorf("Nearest() over reversed scale = pH %d, want pH 0", got.PH)
	}
}

func TestNearestEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Nearest with no points should panic")
		}
	}()
	Nearest(sampler.SampledColor{}, nil)
}

func TestClassifyDistance(t *testing.T) {
	got := Classify(sampler.SampledColor{R: 79, G: 179, B: 80})
	if got.Point.PH != 7 {
		t.Fatalf("Classify() = pH %d, want 7", got.Point.PH)
	}
	if got.Distance != 5 {
		t.Errorf("Distance = %v, want 5", got.Distance)
	}
	if got.Metric != MetricRGB {
		t.Errorf("Metric = %s, want %s", got.Metric, MetricRGB)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"", MetricRGB, false},
		{"rgb", MetricRGB, false},
		{"lab", MetricLab, false},
		{"hsv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMetric(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMetric(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
