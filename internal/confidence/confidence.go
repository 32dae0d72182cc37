// Package confidence maps heterogeneous raw match scores onto a unified 0-100 scale.
package confidence

import (
	"math"
	"strings"
)

// Kind identifies which scoring method produced a raw score.
type Kind int

const (
	KindUnknown Kind = iota
	Geometric        // inlier count from homography fitting
	Appearance       // histogram correlation, 0-100
)

func (k Kind) String() string {
	switch k {
	case Geometric:
		return "geometric"
	case Appearance:
		return "appearance"
	default:
		return "unknown"
	}
}

// ParseKind accepts the canonical names and the legacy "orb"/"color" spellings.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geometric", "orb":
		return Geometric
	case "appearance", "color":
		return Appearance
	default:
		return KindUnknown
	}
}

// Anchor points of the geometric mapping.
const (
	GeometricFloor   = 5  // fewer inliers than this is no match
	GeometricCeiling = 50 // this many inliers or more maps to MaxGeometric
	MinGeometric     = 50
	MaxGeometric     = 95
	appearanceWeight = 0.8
)

// AcceptFloor is the lowest confidence accepted as a match, for a single
// cell and for a map's mean alike.
const AcceptFloor = 40

// Score is a raw match score tagged with the method that produced it.
// The two kinds are not comparable until normalized.
type Score struct {
	kind    Kind
	inliers int
	percent float64
}

// GeometricScore wraps an inlier count.
func GeometricScore(inliers int) Score {
	return Score{kind: Geometric, inliers: inliers}
}

// AppearanceScore wraps a correlation percentage (0-100).
func AppearanceScore(percent float64) Score {
	return Score{kind: Appearance, percent: percent}
}

// Kind returns the scoring method.
func (s Score) Kind() Kind { return s.kind }

// Raw returns the untransformed value.
func (s Score) Raw() float64 {
	if s.kind == Geometric {
		return float64(s.inliers)
	}
	return s.percent
}

// Inliers returns the inlier count of a geometric score, zero otherwise.
func (s Score) Inliers() int {
	if s.kind != Geometric {
		return 0
	}
	return s.inliers
}

// Normalize returns the confidence of the score.
func (s Score) Normalize() int {
	return Normalize(s.Raw(), s.kind)
}

// Normalize maps a raw score of the given kind to an integer in [0,100].
//
// Geometric: 0 below 5 inliers, 95 at 50 or more, else 50 + floor((raw-5)*35/25)
// capped at 95 (the slope reaches the ceiling from 38 inliers on).
// Appearance: floor(raw*0.8), so colour-only matches top out at 80.
// Anything else is truncated and clamped.
func Normalize(raw float64, kind Kind) int {
	switch kind {
	case Geometric:
		if raw < GeometricFloor {
			return 0
		}
		if raw >= GeometricCeiling {
			return MaxGeometric
		}
		return min(MinGeometric+int((raw-GeometricFloor)*35/25), MaxGeometric)
	case Appearance:
		return clamp(int(math.Floor(raw * appearanceWeight)))
	default:
		return clamp(int(raw))
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
