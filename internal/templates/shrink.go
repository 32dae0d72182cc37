package templates

import (
	"image"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
	"gocv.io/x/gocv"

	"map-helper/internal/logging"
)

// ShrinkSize is the edge length templates are normalized to.
const ShrinkSize = 256

// Shrink resizes every PNG or JPEG under root to size x size in place with
// area interpolation, skipping images already at that size and files that
// fail to decode. It returns the number of files rewritten.
func Shrink(root string, size int, logger *slog.Logger) (int, error) {
	logger = logging.NewComponentLogger(logger, "templates")

	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !shrinkable(path) {
			return nil
		}

		img := gocv.IMRead(path, gocv.IMReadColor)
		defer img.Close()
		if img.Empty() {
			logger.Warn("skipping unreadable template", "path", path)
			return nil
		}
		if img.Rows() == size && img.Cols() == size {
			return nil
		}

		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(img, &resized, image.Point{X: size, Y: size}, 0, 0, gocv.InterpolationArea)
		if !gocv.IMWrite(path, resized) {
			logger.Warn("failed to write template", "path", path)
			return nil
		}
		logger.Info("template resized", "path", path)
		count++
		return nil
	})
	if err != nil {
		return count, zerr.With(zerr.Wrap(err, "failed to walk templates"), "root", root)
	}
	return count, nil
}

func shrinkable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
