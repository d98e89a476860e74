package daemon

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/phmeter/pkg/events"
	"github.com/charlie0129/phmeter/pkg/frame"
	"github.com/charlie0129/phmeter/pkg/meter"
)

// ErrNoSource is returned by capture when no frame source is configured.
var ErrNoSource = errors.New("no frame source configured")

var captureTimeout = 10 * time.Second

// sourceManager keeps the configured frame source open between captures and
// reopens it when the configured spec changes.
type sourceManager struct {
	mu   sync.Mutex
	spec string
	src  frame.Source
	open func(spec string) (frame.Source, error)
}

func newSourceManager(open func(spec string) (frame.Source, error)) *sourceManager {
	return &sourceManager{open: open}
}

// Frame returns a frame from the source described by spec.
func (m *sourceManager) Frame(ctx context.Context, spec string) (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec == "" {
		m.closeLocked()
		return nil, ErrNoSource
	}

	if m.src == nil || m.spec != spec {
		m.closeLocked()
		src, err := m.open(spec)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to open frame source %s", spec)
		}
		m.src, m.spec = src, spec
		logrus.WithField("source", src.String()).Info("frame source opened")
	}

	return m.src.Frame(ctx)
}

func (m *sourceManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *sourceManager) closeLocked() {
	if m.src == nil {
		return
	}
	if err := m.src.Close(); err != nil {
		logrus.Errorf("failed to close frame source %s: %v", m.src.String(), err)
	}
	m.src, m.spec = nil, ""
}

// newMeter builds a meter from the current config.
func newMeter() *meter.Meter {
	return meter.New(conf.WindowSize(), conf.Metric())
}

// recordMeasurement makes m the latest result and notifies subscribers.
func recordMeasurement(m meter.Measurement) {
	results.Set(m)
	sseHub.Publish(events.Measurement, m)

	logrus.WithFields(logrus.Fields{
		"id":      m.ID,
		"ph":      m.Result.Point.PH,
		"label":   m.Result.Point.Label,
		"sampled": m.Result.Sampled.Hex(),
		"metric":  m.Result.Metric,
	}).Info("measurement taken")
}

// capture measures the centre of a frame from the configured source.
func capture(ctx context.Context) (meter.Measurement, error) {
	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	img, err := sources.Frame(ctx, conf.Source())
	if err != nil {
		return meter.Measurement{}, err
	}

	m, err := newMeter().Measure(img)
	if err != nil {
		return meter.Measurement{}, err
	}

	recordMeasurement(m)
	return m, nil
}

// captureTask is run by the scheduler.
func captureTask() error {
	_, err := capture(context.Background())
	return err
}

// sourceConfigured is the scheduler precheck.
func sourceConfigured() error {
	if conf.Source() == "" {
		return ErrNoSource
	}
	return nil
}

func onScheduleUpcoming(data any) {
	at, _ := data.(time.Time)
	sseHub.Publish(events.ScheduleUpcoming, events.ScheduleEvent{
		At: at.Unix(),
		Ts: time.Now().Unix(),
	})
}

func onScheduleError(data any) {
	err, _ := data.(error)
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	logrus.Errorf("scheduled capture: %s", msg)
	sseHub.Publish(events.ScheduleError, events.ScheduleEvent{
		Message: msg,
		Ts:      time.Now().Unix(),
	})
}

// applySchedule (re)configures the capture scheduler from the config.
func applySchedule() error {
	if captureScheduler == nil {
		return nil
	}
	expr := conf.Schedule()
	if expr == "" {
		captureScheduler.Unschedule()
		logrus.Info("scheduled capture disabled")
		return nil
	}
	if err := captureScheduler.Schedule(expr); err != nil {
		return pkgerrors.Wrapf(err, "invalid schedule %q", expr)
	}
	next, _ := captureScheduler.Status()
	logrus.WithFields(logrus.Fields{
		"schedule": expr,
		"nextRun":  next.Format(time.DateTime),
	}).Info("scheduled capture enabled")
	return nil
}
