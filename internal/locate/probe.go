package locate

import (
	"cmp"
	"context"
	"slices"

	"gocv.io/x/gocv"

	"map-helper/internal/grid"
	"map-helper/internal/maps"
	"map-helper/internal/workpool"
)

// Candidate is the first-cell probe result for one map.
type Candidate struct {
	Map        string
	Confidence int
	// Grid is the map's grid, ready to seed a full pass.
	Grid     grid.Config
	Location string
	Rotation int
}

// Probe matches only cell 0 of every map and ranks the maps whose cell 0
// was accepted by that cell's confidence, best first, ties by name. It is
// a cheap hint and never reads or writes the session cache. A missing
// maps root yields no candidates.
func (i *Identifier) Probe(ctx context.Context, frame gocv.Mat) ([]Candidate, error) {
	folders, err := maps.List(i.opts.MapsRoot)
	if err != nil {
		i.logger.Warn("no candidate maps", "root", i.opts.MapsRoot, "error", err)
		return nil, nil
	}

	out := make([]Candidate, len(folders))
	ok := make([]bool, len(folders))
	units := make([]workpool.Unit, len(folders))
	for k, f := range folders {
		units[k] = func(context.Context) {
			out[k], ok[k] = i.probeOne(frame, f)
		}
	}
	runErr := i.opts.Runner.Run(ctx, units)

	var ranked []Candidate
	for k := range out {
		if ok[k] {
			ranked = append(ranked, out[k])
		}
	}
	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(a.Map, b.Map)
	})
	return ranked, runErr
}

// probeOne reports false when the map could not be probed or its cell 0
// had no acceptable match.
func (i *Identifier) probeOne(frame gocv.Mat, f maps.Folder) (Candidate, bool) {
	tpls, err := i.opts.Templates.Load(f.Path)
	if err != nil {
		i.logger.Warn("skipping map", "map", f.Name, "error", err)
		return Candidate{}, false
	}

	cfg := maps.LoadGrid(f.Path)
	cell, ok := grid.First(frame, cfg)
	if !ok {
		return Candidate{}, false
	}
	defer cell.Image.Close()

	r, matched := i.search(f.Name, tpls, nil).run(cell)
	if !matched {
		return Candidate{}, false
	}
	return Candidate{
		Map:        f.Name,
		Confidence: r.Confidence,
		Grid:       cfg,
		Location:   r.Location,
		Rotation:   r.Rotation,
	}, true
}
