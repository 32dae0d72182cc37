package match

import "gocv.io/x/gocv"

// Rotations are the cell orientations tried against every template, in
// search order.
var Rotations = [...]int{0, 90, 180, 270}

// Rotate rotates an image clockwise by 90, 180, or 270 degrees. Any other
// angle returns a copy. The caller owns the result.
func Rotate(img gocv.Mat, degrees int) gocv.Mat {
	dst := gocv.NewMat()

	switch degrees {
	case 90:
		gocv.Rotate(img, &dst, gocv.Rotate90Clockwise)
	case 180:
		gocv.Rotate(img, &dst, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(img, &dst, gocv.Rotate90CounterClockwise)
	default:
		img.CopyTo(&dst)
	}

	return dst
}
