// Package meter runs one pH measurement: sample a window of a frame, average
// it, and classify the result against the reference scale.
package meter

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/sampler"
)

// Measurement is the result of one measurement request.
type Measurement struct {
	ID         string            `json:"id"`
	Time       time.Time         `json:"time"`
	Center     image.Point       `json:"center"`
	WindowSize int               `json:"windowSize"`
	Result     classifier.Result `json:"result"`
}

// Meter measures frames with a fixed window size and metric.
type Meter struct {
	WindowSize int
	classifier *classifier.Classifier

	now func() time.Time
}

// New returns a Meter. A windowSize of 0 selects sampler.DefaultWindowSize.
func New(windowSize int, metric classifier.Metric) *Meter {
	if windowSize == 0 {
		windowSize = sampler.DefaultWindowSize
	}
	return &Meter{
		WindowSize: windowSize,
		classifier: classifier.New(metric),
		now:        time.Now,
	}
}

// Metric returns the distance metric used for classification.
func (m *Meter) Metric() classifier.Metric {
	return m.classifier.Metric()
}

// Measure samples the window at the centre of img.
func (m *Meter) Measure(img image.Image) (Measurement, error) {
	return m.MeasureAt(img, sampler.Center(img.Bounds()))
}

// MeasureAt samples the window centred on center. The window must lie inside
// img; sampler.ErrOutOfBounds and sampler.ErrInvalidSize are returned as is.
func (m *Meter) MeasureAt(img image.Image, center image.Point) (Measurement, error) {
	region, err := sampler.Window(img, center, m.WindowSize)
	if err != nil {
		return Measurement{}, err
	}

	return Measurement{
		ID:         uuid.New().String(),
		Time:       m.now(),
		Center:     center,
		WindowSize: m.WindowSize,
		Result:     m.classifier.Classify(sampler.Average(region)),
	}, nil
}

// Classify classifies an already averaged colour without sampling a frame.
func (m *Meter) Classify(c sampler.SampledColor) classifier.Result {
	return m.classifier.Classify(c)
}
