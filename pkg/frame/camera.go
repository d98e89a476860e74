//go:build gocv

package frame

import (
	"context"
	"fmt"
	"image"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// CameraSource grabs frames from a video capture device through OpenCV.
type CameraSource struct {
	index int

	mu  sync.Mutex
	cap *gocv.VideoCapture
	mat gocv.Mat
}

var _ Source = &CameraSource{}

// OpenCamera opens the video capture device with the given index.
func OpenCamera(index int) (Source, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open camera %d", index)
	}
	logrus.WithField("index", index).Info("camera opened")

	return &CameraSource{
		index: index,
		cap:   vc,
		mat:   gocv.NewMat(),
	}, nil
}

func (c *CameraSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap == nil {
		return nil, pkgerrors.Errorf("camera %d is closed", c.index)
	}
	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, pkgerrors.Errorf("failed to read frame from camera %d", c.index)
	}

	img, err := c.mat.ToImage()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to convert frame from camera %d", c.index)
	}
	return img, nil
}

func (c *CameraSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap == nil {
		return nil
	}
	if err := c.mat.Close(); err != nil {
		logrus.Warnf("failed to release frame buffer of camera %d: %v", c.index, err)
	}
	err := c.cap.Close()
	c.cap = nil
	return err
}

func (c *CameraSource) String() string {
	return fmt.Sprintf("camera:%d", c.index)
}
