// Package image loads raster files into OpenCV matrices.
package image

import (
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/zerr"
	"gocv.io/x/gocv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupported is returned for file extensions outside SupportedFormats.
	ErrUnsupported = zerr.New("unsupported image format")
	// ErrDecode is returned when a file cannot be decoded.
	ErrDecode = zerr.New("failed to decode image")
	// ErrEmpty is returned when a decoded image has no pixels.
	ErrEmpty = zerr.New("empty image")
)

// nativeFormats are decoded directly by OpenCV; the rest go through image.Decode.
var nativeFormats = []string{".png", ".jpg", ".jpeg"}

// Load reads the file at path as a 3-channel BGR matrix.
// The caller owns the returned Mat.
func Load(path string) (gocv.Mat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupportedFormat(path) {
		return gocv.Mat{}, zerr.With(ErrUnsupported, "path", path)
	}

	if slices.Contains(nativeFormats, ext) {
		mat := gocv.IMRead(path, gocv.IMReadColor)
		if !mat.Empty() {
			return mat, nil
		}
		mat.Close()
		// Fall through: some encoders produce files OpenCV refuses but Go decodes.
	}

	file, err := os.Open(path)
	if err != nil {
		return gocv.Mat{}, zerr.With(zerr.Wrap(err, "failed to open image"), "path", path)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return gocv.Mat{}, errors.Join(ErrDecode, zerr.With(zerr.Wrap(err, "image.Decode"), "path", path))
	}
	mat, err := FromImage(img)
	if err != nil {
		return gocv.Mat{}, zerr.With(err, "path", path)
	}
	return mat, nil
}

// FromImage converts a Go image into a BGR matrix.
func FromImage(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.Mat{}, ErrEmpty
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, errors.Join(ErrDecode, zerr.Wrap(err, "gocv.ImageToMatRGB"))
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, ErrEmpty
	}
	return mat, nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedFormats(), ext)
}
