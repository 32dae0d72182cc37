// Package match scores a grid cell against a template image.
//
// Stage A (Geometric) counts RANSAC homography inliers between ORB
// keypoints of the rotated cell and the template. Stage B (Appearance)
// compares per-channel colour histograms and is meant as a fallback for
// cells without enough texture for Stage A. Neither stage returns errors:
// any failure along the way scores zero.
package match

import (
	"image"
	"math"
	"math/rand/v2"

	"gocv.io/x/gocv"

	"map-helper/pkg/geometry"
)

const (
	// DefaultFeatures caps the ORB keypoints extracted per image.
	DefaultFeatures = 6000
	// DefaultRatio is the Lowe ratio used by the enhanced path.
	DefaultRatio = 0.75
	// DefaultMinInliers is the Stage A floor used by the per-cell search.
	DefaultMinInliers = 5
	// DefaultReprojThreshold is the RANSAC inlier distance in pixels.
	DefaultReprojThreshold = 5.0

	minDescriptors           = 8
	structuralRatio          = 0.80
	structuralMinDescriptors = 5

	histogramSize = 200
	histogramBins = 32
)

// Options configures a Matcher.
type Options struct {
	Features        int
	RatioTest       float64
	MinInliers      int
	Preprocessing   Preprocessing
	ReprojThreshold float64
	// Seed makes RANSAC sampling reproducible.
	Seed uint64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Features:        DefaultFeatures,
		RatioTest:       DefaultRatio,
		MinInliers:      DefaultMinInliers,
		Preprocessing:   Enhanced,
		ReprojThreshold: DefaultReprojThreshold,
		Seed:            1,
	}
}

// Matcher scores (cell, template, rotation) triples. It holds no mutable
// state and is safe for concurrent use.
type Matcher struct {
	opts Options
}

// New creates a Matcher. Zero fields fall back to their defaults.
func New(opts Options) *Matcher {
	def := DefaultOptions()
	if opts.Features <= 0 {
		opts.Features = def.Features
	}
	if opts.RatioTest <= 0 || opts.RatioTest >= 1 {
		opts.RatioTest = def.RatioTest
	}
	if opts.MinInliers <= 0 {
		opts.MinInliers = def.MinInliers
	}
	if opts.Preprocessing == "" {
		opts.Preprocessing = def.Preprocessing
	}
	if opts.ReprojThreshold <= 0 {
		opts.ReprojThreshold = def.ReprojThreshold
	}
	return &Matcher{opts: opts}
}

// Options returns the effective options.
func (m *Matcher) Options() Options { return m.opts }

// Geometric rotates cell by rotation and returns the number of homography
// inliers against tpl, or 0 when either image lacks descriptors, too few
// matches survive the ratio test, or no homography fits.
func (m *Matcher) Geometric(cell, tpl gocv.Mat, rotation int) int {
	if cell.Empty() || tpl.Empty() {
		return 0
	}

	b := m.Extract(tpl)
	defer b.Close()
	return m.GeometricFeatures(cell, b, rotation)
}

// GeometricFeatures is Geometric against descriptors extracted once with
// Extract, so a template can be scored against many cells.
func (m *Matcher) GeometricFeatures(cell gocv.Mat, tpl Features, rotation int) int {
	if cell.Empty() || tpl.count() == 0 {
		return 0
	}

	rotated := Rotate(cell, rotation)
	defer rotated.Close()

	a := m.Extract(rotated)
	defer a.Close()

	return m.inliers(a, tpl)
}

// Appearance rotates cell by rotation and returns its histogram
// correlation with tpl on a 0..100 scale.
func (m *Matcher) Appearance(cell, tpl gocv.Mat, rotation int) float64 {
	if cell.Empty() || tpl.Empty() {
		return 0
	}

	rotated := Rotate(cell, rotation)
	defer rotated.Close()

	return HistogramCorrelation(rotated, tpl)
}

// Features are the ORB keypoints and descriptors of one preprocessed image.
// The caller closes them.
type Features struct {
	keypoints   []gocv.KeyPoint
	descriptors gocv.Mat
	// set is false for the zero value, whose Mat must not be touched.
	set bool
}

// Close releases the descriptors.
func (f Features) Close() {
	if f.set {
		f.descriptors.Close()
	}
}

// Len returns the number of descriptors.
func (f Features) Len() int { return f.count() }

func (f Features) count() int {
	if !f.set || f.descriptors.Empty() {
		return 0
	}
	return f.descriptors.Rows()
}

// Extract preprocesses img and computes its ORB features. An empty image
// yields empty Features.
func (m *Matcher) Extract(img gocv.Mat) Features {
	if img.Empty() {
		return Features{}
	}
	prepared := m.opts.Preprocessing.apply(img)
	defer prepared.Close()

	orb := gocv.NewORBWithParams(m.opts.Features, 1.2, 8, 15, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	kps, desc := orb.DetectAndCompute(prepared, mask)
	return Features{keypoints: kps, descriptors: desc, set: true}
}

func (m *Matcher) ratioAndFloor() (float64, int) {
	if m.opts.Preprocessing == Structural {
		return structuralRatio, structuralMinDescriptors
	}
	return m.opts.RatioTest, minDescriptors
}

func (m *Matcher) inliers(a, b Features) int {
	ratio, floor := m.ratioAndFloor()
	if a.count() < floor || b.count() < floor {
		return 0
	}

	bf := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	defer bf.Close()

	var src, dst []geometry.Point2D
	for _, pair := range bf.KnnMatch(a.descriptors, b.descriptors, 2) {
		if len(pair) < 2 || pair[0].Distance >= ratio*pair[1].Distance {
			continue
		}
		q, t := pair[0].QueryIdx, pair[0].TrainIdx
		if q < 0 || q >= len(a.keypoints) || t < 0 || t >= len(b.keypoints) {
			continue
		}
		src = append(src, geometry.NewPoint2D(a.keypoints[q].X, a.keypoints[q].Y))
		dst = append(dst, geometry.NewPoint2D(b.keypoints[t].X, b.keypoints[t].Y))
	}
	if len(src) < m.opts.MinInliers {
		return 0
	}

	rng := rand.New(rand.NewPCG(m.opts.Seed, uint64(len(src))))
	_, mask, err := FindHomography(src, dst, m.opts.ReprojThreshold, rng)
	if err != nil {
		return 0
	}

	n := CountMask(mask)
	if n < m.opts.MinInliers {
		return 0
	}
	return n
}

// HistogramCorrelation resizes both images to 200x200 and averages the
// correlation of their min-max normalized 32-bin per-channel histograms,
// scaled to 0..100 and truncated. Uncorrelated images may score below 0.
func HistogramCorrelation(a, b gocv.Mat) float64 {
	ra := canonical(a)
	defer ra.Close()
	rb := canonical(b)
	defer rb.Close()

	var total float64
	for ch := 0; ch < 3; ch++ {
		ha := channelHistogram(ra, ch)
		hb := channelHistogram(rb, ch)
		total += float64(gocv.CompareHist(ha, hb, gocv.HistCmpCorrel))
		ha.Close()
		hb.Close()
	}

	score := math.Trunc(total / 3 * 100)
	if math.IsNaN(score) {
		return 0
	}
	return score
}

// canonical returns a 3-channel BGR copy resized to the histogram size.
func canonical(img gocv.Mat) gocv.Mat {
	bgr := gocv.NewMat()
	defer bgr.Close()
	switch img.Channels() {
	case 1:
		gocv.CvtColor(img, &bgr, gocv.ColorGrayToBGR)
	case 4:
		gocv.CvtColor(img, &bgr, gocv.ColorBGRAToBGR)
	default:
		img.CopyTo(&bgr)
	}

	out := gocv.NewMat()
	gocv.Resize(bgr, &out, image.Point{X: histogramSize, Y: histogramSize}, 0, 0, gocv.InterpolationLinear)
	return out
}

func channelHistogram(img gocv.Mat, ch int) gocv.Mat {
	mask := gocv.NewMat()
	defer mask.Close()

	hist := gocv.NewMat()
	gocv.CalcHist([]gocv.Mat{img}, []int{ch}, mask, &hist, []int{histogramBins}, []float64{0, 256}, false)
	gocv.Normalize(hist, &hist, 0, 1, gocv.NormMinMax)
	return hist
}
