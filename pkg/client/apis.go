package client

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/config"
	"github.com/charlie0129/phmeter/pkg/meter"
	"github.com/charlie0129/phmeter/pkg/phscale"
	"github.com/charlie0129/phmeter/pkg/types"
)

func (c *Client) GetScale() ([]phscale.CalibrationPoint, error) {
	ret, err := c.Get("/scale")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get scale")
	}

	var points []phscale.CalibrationPoint
	if err := json.Unmarshal([]byte(ret), &points); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal scale")
	}
	return points, nil
}

// Classify classifies an already averaged colour.
func (c *Client) Classify(r, g, b int) (*classifier.Result, error) {
	payload, err := json.Marshal(types.NewColorRequest(r, g, b))
	if err != nil {
		return nil, err
	}

	ret, err := c.Post("/classify", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to classify colour")
	}

	var res classifier.Result
	if err := json.Unmarshal([]byte(ret), &res); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal classification")
	}
	return &res, nil
}

// Measure uploads an encoded frame. A nil at measures the centre of the frame.
func (c *Client) Measure(frame []byte, at *image.Point) (*meter.Measurement, error) {
	path := "/measure"
	if at != nil {
		path += fmt.Sprintf("?x=%d&y=%d", at.X, at.Y)
	}

	ret, err := c.Post(path, string(frame))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to measure frame")
	}
	return parseMeasurement(ret)
}

// Capture asks the daemon to measure a frame from its configured source.
func (c *Client) Capture() (*meter.Measurement, error) {
	ret, err := c.Post("/capture", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to capture frame")
	}
	return parseMeasurement(ret)
}

// GetResult returns the latest measurement. It returns an error wrapping
// ErrNotFound if nothing has been measured yet.
func (c *Client) GetResult() (*meter.Measurement, error) {
	ret, err := c.Get("/result")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get latest result")
	}
	return parseMeasurement(ret)
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) SetWindowSize(size int) (string, error) {
	return c.Put("/window-size", strconv.Itoa(size))
}

func (c *Client) SetMetric(m classifier.Metric) (string, error) {
	return c.putString("/metric", string(m))
}

// SetSource sets the frame source. An empty spec clears it.
func (c *Client) SetSource(spec string) (string, error) {
	return c.putString("/source", spec)
}

// SetSchedule sets the capture schedule. An empty expression disables it.
func (c *Client) SetSchedule(expr string) (string, error) {
	return c.putString("/schedule", expr)
}

func (c *Client) GetSchedule() (*types.ScheduleStatus, error) {
	ret, err := c.Get("/schedule")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get schedule")
	}

	var status types.ScheduleStatus
	if err := json.Unmarshal([]byte(ret), &status); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule")
	}
	return &status, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return parseStringResponse(ret)
}

func (c *Client) putString(path, s string) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return c.Put(path, string(payload))
}

func parseMeasurement(resp string) (*meter.Measurement, error) {
	var m meter.Measurement
	if err := json.Unmarshal([]byte(resp), &m); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal measurement")
	}
	return &m, nil
}

// parseStringResponse decodes a JSON string body, which is what the daemon
// returns for plain messages.
func parseStringResponse(resp string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(resp), &s); err != nil {
		return "", pkgerrors.Wrapf(err, "unexpected response: %s", resp)
	}
	return s, nil
}

// SkipSchedule skips the next scheduled capture.
func (c *Client) SkipSchedule() (*types.ScheduleStatus, error) {
	ret, err := c.Post("/schedule/skip", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to skip scheduled capture")
	}

	var status types.ScheduleStatus
	if err := json.Unmarshal([]byte(ret), &status); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule")
	}
	return &status, nil
}
