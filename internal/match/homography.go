package match

import (
	"math"
	"math/rand/v2"
	"slices"

	"go.trai.ch/zerr"
	"gonum.org/v1/gonum/mat"

	"map-helper/pkg/geometry"
)

var (
	// ErrTooFewPoints is returned when fewer than four correspondences are given.
	ErrTooFewPoints = zerr.New("too few correspondences for homography")
	// ErrDegenerate is returned when no non-degenerate model could be fitted.
	ErrDegenerate = zerr.New("degenerate homography")
)

const (
	homographySample = 4
	ransacConfidence = 0.995
	ransacMaxIter    = 2000
	// twice the triangle area, in square pixels
	collinearEps = 1.0
)

// FindHomography fits a planar homography mapping src onto dst with RANSAC.
// A correspondence is an inlier when its reprojection error is at most
// threshold pixels. The returned mask marks the inliers of the final model,
// which is refitted by least squares over all inliers of the best sample.
func FindHomography(src, dst []geometry.Point2D, threshold float64, rng *rand.Rand) (geometry.Homography, []bool, error) {
	n := len(src)
	if n != len(dst) || n < homographySample {
		return geometry.Homography{}, nil, zerr.With(ErrTooFewPoints, "points", n)
	}

	var (
		bestH     geometry.Homography
		bestMask  []bool
		bestCount int
	)

	idx := make([]int, homographySample)
	ps := make([]geometry.Point2D, homographySample)
	pd := make([]geometry.Point2D, homographySample)

	iterations := ransacMaxIter
	for iter := 0; iter < iterations; iter++ {
		sampleIndices(rng, n, idx)
		for i, k := range idx {
			ps[i] = src[k]
			pd[i] = dst[k]
		}
		if geometry.Collinear(ps, collinearEps) || geometry.Collinear(pd, collinearEps) {
			continue
		}

		h, err := fitHomography(ps, pd)
		if err != nil {
			continue
		}

		mask, count := countInliers(h, src, dst, threshold)
		if count > bestCount {
			bestH, bestMask, bestCount = h, mask, count
			iterations = min(iterations, requiredIterations(count, n))
		}
	}

	if bestCount < homographySample {
		return geometry.Homography{}, nil, zerr.With(ErrDegenerate, "inliers", bestCount)
	}

	// Refit on every inlier of the best model
	inSrc := make([]geometry.Point2D, 0, bestCount)
	inDst := make([]geometry.Point2D, 0, bestCount)
	for i, ok := range bestMask {
		if ok {
			inSrc = append(inSrc, src[i])
			inDst = append(inDst, dst[i])
		}
	}
	if refined, err := fitHomography(inSrc, inDst); err == nil {
		if mask, count := countInliers(refined, src, dst, threshold); count >= bestCount {
			bestH, bestMask = refined, mask
		}
	}

	return bestH, bestMask, nil
}

// CountMask returns the number of true entries in an inlier mask.
func CountMask(mask []bool) int {
	n := 0
	for _, ok := range mask {
		if ok {
			n++
		}
	}
	return n
}

func sampleIndices(rng *rand.Rand, n int, out []int) {
	for i := range out {
		for {
			k := rng.IntN(n)
			if !slices.Contains(out[:i], k) {
				out[i] = k
				break
			}
		}
	}
}

func countInliers(h geometry.Homography, src, dst []geometry.Point2D, threshold float64) ([]bool, int) {
	mask := make([]bool, len(src))
	count := 0
	for i := range src {
		p, ok := h.Apply(src[i])
		if ok && p.Distance(dst[i]) <= threshold {
			mask[i] = true
			count++
		}
	}
	return mask, count
}

// requiredIterations is the standard adaptive RANSAC bound for the current
// inlier ratio.
func requiredIterations(inliers, n int) int {
	w := float64(inliers) / float64(n)
	den := math.Log(1 - math.Pow(w, homographySample))
	if den >= 0 || math.IsNaN(den) {
		return ransacMaxIter
	}
	k := math.Ceil(math.Log(1-ransacConfidence) / den)
	if math.IsInf(k, 0) || k > ransacMaxIter {
		return ransacMaxIter
	}
	return max(int(k), 1)
}

// fitHomography solves the DLT system with h8 fixed to 1 over Hartley
// normalized coordinates. Four points give an exact solve, more give a
// least-squares fit.
func fitHomography(src, dst []geometry.Point2D) (geometry.Homography, error) {
	n := len(src)
	if n < homographySample {
		return geometry.Homography{}, ErrTooFewPoints
	}

	ns, ts := normalizePoints(src)
	nd, td := normalizePoints(dst)

	a := mat.NewDense(2*n, 8, nil)
	b := mat.NewVecDense(2*n, nil)
	for i := 0; i < n; i++ {
		x, y := ns[i].X, ns[i].Y
		u, v := nd[i].X, nd[i].Y

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b.SetVec(2*i, u)

		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(2*i+1, v)
	}

	var qr mat.QR
	qr.Factorize(a)

	var p mat.VecDense
	if err := qr.SolveVecTo(&p, false, b); err != nil {
		return geometry.Homography{}, zerr.Wrap(err, "failed to solve homography")
	}

	hn := mat.NewDense(3, 3, []float64{
		p.AtVec(0), p.AtVec(1), p.AtVec(2),
		p.AtVec(3), p.AtVec(4), p.AtVec(5),
		p.AtVec(6), p.AtVec(7), 1,
	})

	// H = Td^-1 * Hn * Ts
	var tdInv mat.Dense
	if err := tdInv.Inverse(td); err != nil {
		return geometry.Homography{}, zerr.Wrap(err, "failed to invert normalization")
	}
	var tmp, h mat.Dense
	tmp.Mul(&tdInv, hn)
	h.Mul(&tmp, ts)

	scale := h.At(2, 2)
	if math.Abs(scale) < 1e-12 {
		return geometry.Homography{}, ErrDegenerate
	}

	var out geometry.Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := h.At(r, c) / scale
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return geometry.Homography{}, ErrDegenerate
			}
			out[r*3+c] = v
		}
	}
	if math.Abs(out.Determinant()) < 1e-12 {
		return geometry.Homography{}, ErrDegenerate
	}
	return out, nil
}

// normalizePoints moves the centroid to the origin and scales the mean
// distance from it to sqrt(2).
func normalizePoints(points []geometry.Point2D) ([]geometry.Point2D, *mat.Dense) {
	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(points))
	cy /= float64(len(points))

	center := geometry.NewPoint2D(cx, cy)
	var mean float64
	for _, p := range points {
		mean += p.Distance(center)
	}
	mean /= float64(len(points))

	s := 1.0
	if mean > 1e-12 {
		s = math.Sqrt2 / mean
	}

	out := make([]geometry.Point2D, len(points))
	for i, p := range points {
		out[i] = geometry.NewPoint2D(s*(p.X-cx), s*(p.Y-cy))
	}
	t := mat.NewDense(3, 3, []float64{
		s, 0, -s * cx,
		0, s, -s * cy,
		0, 0, 1,
	})
	return out, t
}
