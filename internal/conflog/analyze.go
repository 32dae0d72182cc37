package conflog

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"map-helper/internal/confidence"
)

// Stats summarizes a set of confidences.
type Stats struct {
	Count  int
	Min    int
	Max    int
	Mean   int
	P25    int
	Median int
	P75    int
	P90    int
}

// Thresholds are the tunable settings the analysis comments on.
type Thresholds struct {
	EarlyStop          int
	MinCacheConfidence int
}

// Report is the result of Analyze.
type Report struct {
	Overall Stats
	ByKind  map[string]Stats
	ByMap   map[string]Stats
	// Suggested is P75 for early stop and P25 for cache reuse.
	Suggested Thresholds
	Warnings  []string
}

// Summarize computes Stats over values. Quantiles are empirical, i.e. always
// one of the observed values.
func Summarize(values []int) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	x := make([]float64, len(values))
	for i, v := range values {
		x[i] = float64(v)
	}
	slices.Sort(x)

	q := func(p float64) int {
		return int(stat.Quantile(p, stat.Empirical, x, nil))
	}
	return Stats{
		Count:  len(x),
		Min:    int(x[0]),
		Max:    int(x[len(x)-1]),
		Mean:   int(floats.Sum(x)) / len(x),
		P25:    q(0.25),
		Median: q(0.5),
		P75:    q(0.75),
		P90:    q(0.9),
	}
}

// Analyze summarizes samples overall, per score kind and per map, and
// compares the suggested thresholds with the current ones.
func Analyze(samples []Sample, current Thresholds) Report {
	r := Report{
		ByKind: map[string]Stats{},
		ByMap:  map[string]Stats{},
	}
	if len(samples) == 0 {
		return r
	}

	var all []int
	byKind := map[string][]int{}
	byMap := map[string][]int{}
	for _, s := range samples {
		all = append(all, s.Confidence)
		byKind[s.Kind.String()] = append(byKind[s.Kind.String()], s.Confidence)
		byMap[s.Map] = append(byMap[s.Map], s.Confidence)
	}

	r.Overall = Summarize(all)
	for k, v := range byKind {
		r.ByKind[k] = Summarize(v)
	}
	for m, v := range byMap {
		r.ByMap[m] = Summarize(v)
	}

	r.Suggested = Thresholds{
		EarlyStop:          r.Overall.P75,
		MinCacheConfidence: r.Overall.P25,
	}

	if r.Suggested.EarlyStop < current.EarlyStop {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"early_stop_threshold %d is too high: most matches are below it, consider %d",
			current.EarlyStop, r.Suggested.EarlyStop))
	}
	switch {
	case r.Suggested.MinCacheConfidence > current.MinCacheConfidence:
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"min_cache_confidence %d is too low: many weak matches are reused, consider %d",
			current.MinCacheConfidence, r.Suggested.MinCacheConfidence))
	case r.Suggested.MinCacheConfidence < confidence.AcceptFloor:
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"min_cache_confidence %d may be too high: P25 is %d",
			current.MinCacheConfidence, r.Suggested.MinCacheConfidence))
	}
	return r
}

// Keys returns the keys of a per-group stats map in sorted order.
func Keys(m map[string]Stats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
