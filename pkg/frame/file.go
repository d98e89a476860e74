package frame

import (
	"context"
	"image"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileSource reads a frame from an image file. The file is re-read on every
// call so an external process can keep replacing it.
type FileSource struct {
	path string
}

var _ Source = &FileSource{}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fp, err := os.Open(f.path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open file %s", f.path)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.path)
		}
	}(fp)

	img, format, err := Decode(fp)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "file %s", f.path)
	}

	logrus.WithFields(logrus.Fields{
		"path":   f.path,
		"format": format,
		"bounds": img.Bounds().String(),
	}).Debug("read frame")

	return img, nil
}

func (f *FileSource) Close() error {
	return nil
}

func (f *FileSource) String() string {
	return "file:" + f.path
}
