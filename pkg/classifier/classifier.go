// Package classifier maps a sampled colour to the nearest point of the pH scale.
package classifier

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/charlie0129/phmeter/pkg/phscale"
	"github.com/charlie0129/phmeter/pkg/sampler"
)

// Metric selects the colour distance used to rank calibration points.
type Metric string

const (
	// MetricRGB is Euclidean distance in 8-bit RGB space.
	MetricRGB Metric = "rgb"
	// MetricLab is Euclidean distance in CIE L*a*b* space.
	MetricLab Metric = "lab"
)

// ParseMetric parses a metric name. An empty string selects MetricRGB.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "", MetricRGB:
		return MetricRGB, nil
	case MetricLab:
		return MetricLab, nil
	default:
		return "", fmt.Errorf("unknown metric %q, must be one of %s, %s", s, MetricRGB, MetricLab)
	}
}

// Result is the outcome of one classification.
type Result struct {
	Point    phscale.CalibrationPoint `json:"point"`
	Sampled  sampler.SampledColor     `json:"sampled"`
	Metric   Metric                   `json:"metric"`
	Distance float64                  `json:"distance"`
	// Position is Point.PH / 14, the marker position on the scale gradient.
	Position float64 `json:"position"`
}

// Classifier classifies colours against a fixed set of calibration points.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	points []phscale.CalibrationPoint
	metric Metric
}

// New returns a Classifier over the reference scale.
func New(metric Metric) *Classifier {
	return NewWithPoints(phscale.Points(), metric)
}

// NewWithPoints returns a Classifier over points. It panics if points is empty.
func NewWithPoints(points []phscale.CalibrationPoint, metric Metric) *Classifier {
	if len(points) == 0 {
		panic("classifier: no calibration points")
	}
	if metric == "" {
		metric = MetricRGB
	}
	p := make([]phscale.CalibrationPoint, len(points))
	copy(p, points)
	return &Classifier{points: p, metric: metric}
}

// Metric returns the distance metric in use.
func (c *Classifier) Metric() Metric {
	return c.metric
}

// Classify returns the calibration point nearest to s.
func (c *Classifier) Classify(s sampler.SampledColor) Result {
	var best phscale.CalibrationPoint
	var dist float64
	switch c.metric {
	case MetricLab:
		best, dist = nearestLab(s, c.points)
	default:
		var sq int
		best, sq = nearestRGB(s, c.points)
		dist = math.Sqrt(float64(sq))
	}

	return Result{
		Point:    best,
		Sampled:  s,
		Metric:   c.metric,
		Distance: dist,
		Position: phscale.Position(best.PH),
	}
}

// Classify returns the point of the reference scale nearest to s in RGB space.
func Classify(s sampler.SampledColor) Result {
	return defaultClassifier.Classify(s)
}

var defaultClassifier = New(MetricRGB)

// Nearest returns the point nearest to s by RGB Euclidean distance.
// Equidistant points resolve to the lower pH, so the answer does not depend
// on the order of points. It panics if points is empty.
func Nearest(s sampler.SampledColor, points []phscale.CalibrationPoint) phscale.CalibrationPoint {
	if len(points) == 0 {
		panic("classifier: no calibration points")
	}
	p, _ := nearestRGB(s, points)
	return p
}

// SquaredDistance is the squared RGB Euclidean distance between s and p.
func SquaredDistance(s sampler.SampledColor, p phscale.CalibrationPoint) int {
	dr := int(s.R) - int(p.R)
	dg := int(s.G) - int(p.G)
	db := int(s.B) - int(p.B)
	return dr*dr + dg*dg + db*db
}

func nearestRGB(s sampler.SampledColor, points []phscale.CalibrationPoint) (phscale.CalibrationPoint, int) {
	best := points[0]
	bestDist := SquaredDistance(s, best)
	for _, p := range points[1:] {
		d := SquaredDistance(s, p)
		if d < bestDist || (d == bestDist && p.PH < best.PH) {
			best, bestDist = p, d
		}
	}
	return best, bestDist
}

func nearestLab(s sampler.SampledColor, points []phscale.CalibrationPoint) (phscale.CalibrationPoint, float64) {
	sc := toColorful(s.R, s.G, s.B)
	best := points[0]
	bestDist := sc.DistanceLab(toColorful(best.R, best.G, best.B))
	for _, p := range points[1:] {
		d := sc.DistanceLab(toColorful(p.R, p.G, p.B))
		if d < bestDist || (d == bestDist && p.PH < best.PH) {
			best, bestDist = p, d
		}
	}
	return best, bestDist
}

func toColorful(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
