package match

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Preprocessing selects how images are prepared before keypoint extraction.
type Preprocessing string

const (
	// Enhanced sharpens local contrast so structural edges dominate.
	Enhanced Preprocessing = "enhanced"
	// Structural keeps only edges and corner responses, suppressing
	// uniform grid overlays.
	Structural Preprocessing = "structural"
)

const (
	structuralMaxCorners = 500
	structuralQuality    = 0.01
	structuralMinDist    = 3
)

// toGray returns a single channel copy of img.
func toGray(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	switch img.Channels() {
	case 3:
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(img, &gray, gocv.ColorBGRAToGray)
	default:
		img.CopyTo(&gray)
	}
	return gray
}

// blurAndEqualize applies a 3x3 Gaussian blur followed by CLAHE.
func blurAndEqualize(img gocv.Mat, clipLimit float64) gocv.Mat {
	gray := toGray(img)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{3, 3}, 0, 0, gocv.BorderDefault)

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Point{8, 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(blurred, &enhanced)
	return enhanced
}

// enhance is the default path: blur, CLAHE(3.0), then a 3x3 sharpening kernel.
func enhance(img gocv.Mat) gocv.Mat {
	enhanced := blurAndEqualize(img, 3.0)
	defer enhanced.Close()

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			kernel.SetFloatAt(r, c, -1)
		}
	}
	kernel.SetFloatAt(1, 1, 9)

	sharpened := gocv.NewMat()
	gocv.Filter2D(enhanced, &sharpened, -1, kernel, image.Point{-1, -1}, 0, gocv.BorderDefault)
	return sharpened
}

// structural returns a binary map of Canny edges combined with strong
// corner responses.
func structural(img gocv.Mat) gocv.Mat {
	enhanced := blurAndEqualize(img, 2.0)
	defer enhanced.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(enhanced, &edges, 50, 150)

	corners := gocv.NewMat()
	defer corners.Close()
	gocv.GoodFeaturesToTrack(enhanced, &corners, structuralMaxCorners, structuralQuality, structuralMinDist)

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), enhanced.Rows(), enhanced.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	white := color.RGBA{R: 255, G: 255, B: 255}
	for i := 0; i < corners.Rows(); i++ {
		v := corners.GetVecfAt(i, 0)
		if len(v) < 2 {
			continue
		}
		gocv.Circle(&mask, image.Point{X: int(v[0]), Y: int(v[1])}, 2, white, -1)
	}

	out := gocv.NewMat()
	gocv.BitwiseOr(mask, edges, &out)
	return out
}

func (p Preprocessing) apply(img gocv.Mat) gocv.Mat {
	if p == Structural {
		return structural(img)
	}
	return enhance(img)
}
