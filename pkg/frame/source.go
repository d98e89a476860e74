// Package frame provides the pixel sources a measurement can be taken from.
package frame

import (
	"context"
	"errors"
	"image"
	"io"
	"strconv"
	"strings"

	// Decoders available to Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	pkgerrors "github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned when a source kind is not available in this build.
var ErrUnsupported = errors.New("frame source not supported in this build")

// Source produces frames on demand.
type Source interface {
	// Frame returns the current frame.
	Frame(ctx context.Context) (image.Image, error)
	// Close releases the source.
	Close() error
	// String describes the source for logs.
	String() string
}

// Decode decodes an encoded image. It returns the format name reported by the
// decoder.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "failed to decode image")
	}
	return img, format, nil
}

// Open parses a source spec and opens it. Supported specs are
// "file:<path>" and "camera:<index>".
func Open(spec string) (Source, error) {
	kind, arg, index, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}
	if kind == "camera" {
		return OpenCamera(index)
	}
	return NewFileSource(arg), nil
}

// ValidateSpec reports whether spec is well formed without opening it.
// An empty spec is valid and means no source is configured.
func ValidateSpec(spec string) error {
	if spec == "" {
		return nil
	}
	_, _, _, err := parseSpec(spec)
	return err
}

// parseSpec splits spec into its kind and argument. index is set for cameras.
func parseSpec(spec string) (kind, arg string, index int, err error) {
	kind, arg, ok := strings.Cut(spec, ":")
	if !ok || arg == "" {
		return "", "", 0, pkgerrors.Errorf("invalid frame source %q, expected file:<path> or camera:<index>", spec)
	}

	switch kind {
	case "file":
		return kind, arg, 0, nil
	case "camera":
		index, err = strconv.Atoi(arg)
		if err != nil {
			return "", "", 0, pkgerrors.Wrapf(err, "invalid camera index %q", arg)
		}
		return kind, arg, index, nil
	default:
		return "", "", 0, pkgerrors.Errorf("unknown frame source kind %q", kind)
	}
}
