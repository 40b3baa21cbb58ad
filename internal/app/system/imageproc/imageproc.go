// Package imageproc normalizes uploaded images before they are stored:
// EXIF auto-orientation, a bounding-box resize, and re-encoding.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Defaults.
const (
	DefaultMaxDimension = 2560
	DefaultJPEGQuality  = 82
)

// ErrUnsupported is returned for content types the transform does not handle.
var ErrUnsupported = errors.New("imageproc: unsupported image type")

// Options controls the transform.
type Options struct {
	MaxDimension int
	JPEGQuality  int
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = DefaultJPEGQuality
	}
	return o
}

// Result is the transformed image.
type Result struct {
	Data     []byte
	MimeType string
	Ext      string
	Width    int
	Height   int
}

// Handles reports whether mimeType is one of the image types accepted for upload.
func Handles(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}

// Transform re-encodes data according to mimeType:
//
//	image/jpeg  oriented, fitted, JPEG at opts.JPEGQuality
//	image/png   oriented, fitted, PNG
//	image/webp  fitted, then PNG when it has transparency, otherwise JPEG
//	image/gif   returned unchanged (animation would be lost)
func Transform(data []byte, mimeType string, opts Options) (Result, error) {
	opts = opts.withDefaults()

	if mimeType == "image/gif" {
		w, h, err := Dimensions(data)
		if err != nil {
			return Result{}, err
		}
		return Result{Data: data, MimeType: mimeType, Ext: ".gif", Width: w, Height: h}, nil
	}
	if !Handles(mimeType) {
		return Result{}, ErrUnsupported
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("imageproc: decode: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}

	format, outType, ext := imaging.JPEG, "image/jpeg", ".jpg"
	switch mimeType {
	case "image/png":
		format, outType, ext = imaging.PNG, "image/png", ".png"
	case "image/webp":
		if hasAlpha(img) {
			format, outType, ext = imaging.PNG, "image/png", ".png"
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(opts.JPEGQuality)); err != nil {
		return Result{}, fmt.Errorf("imageproc: encode: %w", err)
	}

	nb := img.Bounds()
	return Result{
		Data:     buf.Bytes(),
		MimeType: outType,
		Ext:      ext,
		Width:    nb.Dx(),
		Height:   nb.Dy(),
	}, nil
}

// Dimensions reads width and height from the image header without decoding
// pixel data.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("imageproc: read dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
