//go:build !gocv

package frame

import (
	pkgerrors "github.com/pkg/errors"
)

// OpenCamera is only available when built with the gocv tag.
func OpenCamera(index int) (Source, error) {
	return nil, pkgerrors.Wrapf(ErrUnsupported, "camera %d requires building with -tags gocv", index)
}
