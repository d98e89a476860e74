package daemon

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/phmeter/pkg/classifier"
	"github.com/charlie0129/phmeter/pkg/config"
	"github.com/charlie0129/phmeter/pkg/frame"
	"github.com/charlie0129/phmeter/pkg/phscale"
	"github.com/charlie0129/phmeter/pkg/sampler"
	"github.com/charlie0129/phmeter/pkg/types"
	"github.com/charlie0129/phmeter/pkg/version"
)

// maxFrameBytes limits the size of an uploaded frame.
const maxFrameBytes = 32 << 20

var sseKeepAlive = 30 * time.Second

func abortWithError(c *gin.Context, code int, err error) {
	c.IndentedJSON(code, err.Error())
	_ = c.AbortWithError(code, err)
}

func getScale(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, phscale.Points())
}

func classify(c *gin.Context) {
	var req types.ColorRequest
	if err := c.BindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	s := sampler.SampledColor{R: uint8(*req.R), G: uint8(*req.G), B: uint8(*req.B)}
	c.IndentedJSON(http.StatusOK, newMeter().Classify(s))
}

// parsePoint reads the optional x/y query parameters. Both or neither must be set.
func parsePoint(c *gin.Context) (image.Point, bool, error) {
	xs, hasX := c.GetQuery("x")
	ys, hasY := c.GetQuery("y")
	if !hasX && !hasY {
		return image.Point{}, false, nil
	}
	if hasX != hasY {
		return image.Point{}, false, errors.New("x and y must be given together")
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return image.Point{}, false, fmt.Errorf("invalid x: %v", err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return image.Point{}, false, fmt.Errorf("invalid y: %v", err)
	}
	return image.Pt(x, y), true, nil
}

func measure(c *gin.Context) {
	pt, hasPoint, err := parsePoint(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	img, format, err := frame.Decode(http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"format": format,
		"bounds": img.Bounds().String(),
	}).Debug("received frame")

	m := newMeter()
	if !hasPoint {
		pt = sampler.Center(img.Bounds())
	}
	result, err := m.MeasureAt(img, pt)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	recordMeasurement(result)
	c.IndentedJSON(http.StatusCreated, result)
}

func captureFrame(c *gin.Context) {
	result, err := capture(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSource):
			abortWithError(c, http.StatusConflict, err)
		case errors.Is(err, sampler.ErrOutOfBounds), errors.Is(err, sampler.ErrInvalidSize):
			abortWithError(c, http.StatusUnprocessableEntity, err)
		default:
			logrus.Errorf("capture failed: %v", err)
			abortWithError(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.IndentedJSON(http.StatusCreated, result)
}

func getResult(c *gin.Context) {
	m, ok := results.Get()
	if !ok {
		abortWithError(c, http.StatusNotFound, errors.New("no measurement taken yet"))
		return
	}
	c.IndentedJSON(http.StatusOK, m)
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func saveConfig(c *gin.Context) bool {
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, err)
		return false
	}
	return true
}

func setWindowSize(c *gin.Context) {
	var size int
	if err := c.BindJSON(&size); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if err := config.ValidateWindowSize(size); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	conf.SetWindowSize(size)
	if !saveConfig(c) {
		return
	}

	logrus.Infof("set window size to %d", size)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set sampling window to %dx%d", size, size))
}

func setMetric(c *gin.Context) {
	var s string
	if err := c.BindJSON(&s); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	metric, err := classifier.ParseMetric(s)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	conf.SetMetric(metric)
	if !saveConfig(c) {
		return
	}

	logrus.Infof("set metric to %s", metric)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set metric to %s", metric))
}

func setSource(c *gin.Context) {
	var spec string
	if err := c.BindJSON(&spec); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if err := frame.ValidateSpec(spec); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	conf.SetSource(spec)
	if !saveConfig(c) {
		return
	}

	if spec == "" {
		sources.Close()
		logrus.Info("frame source cleared")
		c.IndentedJSON(http.StatusCreated, "frame source cleared")
		return
	}

	logrus.Infof("set frame source to %s", spec)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set frame source to %s", spec))
}

func setSchedule(c *gin.Context) {
	var expr string
	if err := c.BindJSON(&expr); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	if expr != "" {
		if err := config.ValidateSchedule(expr); err != nil {
			abortWithError(c, http.StatusBadRequest, err)
			return
		}
	}

	conf.SetSchedule(expr)
	if !saveConfig(c) {
		return
	}

	if err := applySchedule(); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if expr == "" {
		c.IndentedJSON(http.StatusCreated, "scheduled capture disabled")
		return
	}

	msg := fmt.Sprintf("scheduled capture set to %q", expr)
	if conf.Source() == "" {
		msg += ". No frame source is configured yet, so scheduled captures will fail until one is set."
	}
	c.IndentedJSON(http.StatusCreated, msg)
}

func getSchedule(c *gin.Context) {
	status := types.ScheduleStatus{Schedule: conf.Schedule()}
	if captureScheduler != nil {
		next, running := captureScheduler.Status()
		status.Running = running
		if !next.IsZero() {
			status.NextRun = &next
		}
	}
	c.IndentedJSON(http.StatusOK, status)
}

func skipSchedule(c *gin.Context) {
	if captureScheduler == nil {
		abortWithError(c, http.StatusConflict, errors.New("scheduler is not running"))
		return
	}
	if err := captureScheduler.Skip(); err != nil {
		abortWithError(c, http.StatusConflict, err)
		return
	}

	next, _ := captureScheduler.Status()
	logrus.WithField("nextRun", next.Format(time.DateTime)).Info("skipped next scheduled capture")

	c.IndentedJSON(http.StatusCreated, types.ScheduleStatus{
		Schedule: conf.Schedule(),
		NextRun:  &next,
	})
}

func streamEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-ticker.C:
			c.SSEvent("ping", strconv.FormatInt(time.Now().Unix(), 10))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
