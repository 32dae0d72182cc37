package locate

import (
	"time"

	"map-helper/internal/confidence"
	"map-helper/internal/conflog"
	"map-helper/internal/grid"
	"map-helper/internal/match"
	"map-helper/internal/session"
	"map-helper/internal/templates"
)

// cellSearch matches single cells of one map against its templates.
type cellSearch struct {
	mapName   string
	scorer    PairScorer
	templates []templates.Template
	earlyStop int
	minCache  int
	// cache is nil during a full search: nothing is read or written.
	cache *session.Session
	sink  SampleSink
	now   func() time.Time
}

// cached returns a cached result trusted enough to skip the search.
func (s *cellSearch) cached(idx int) (session.CellResult, bool) {
	if s.cache == nil {
		return session.CellResult{}, false
	}
	r, ok := s.cache.Cell(idx)
	if !ok || r.Confidence < s.minCache {
		return session.CellResult{}, false
	}
	return r, true
}

// run returns the accepted result for cell, reusing a trusted cached one.
// A newly accepted result is written to the cache and recorded.
func (s *cellSearch) run(cell grid.Cell) (session.CellResult, bool) {
	if r, ok := s.cached(cell.Index); ok {
		return r, true
	}

	best, ok := s.search(cell)
	if !ok || best.Confidence < confidence.AcceptFloor {
		return session.CellResult{}, false
	}

	if s.cache != nil {
		s.cache.Store(cell.Index, best)
	}
	if s.sink != nil {
		s.sink.Record(conflog.Sample{
			Time:       s.now(),
			Map:        s.mapName,
			Cell:       cell.Index,
			Location:   best.Location,
			Rotation:   best.Rotation,
			Confidence: best.Confidence,
			Kind:       best.Kind,
		})
	}
	return best, true
}

// search walks templates in order and, per template, the four rotations.
// It stops at the first pair whose confidence reaches the early stop
// threshold. Stage B only runs when no pair reached the geometric floor.
func (s *cellSearch) search(cell grid.Cell) (session.CellResult, bool) {
	if len(s.templates) == 0 {
		return session.CellResult{}, false
	}

	best := session.CellResult{Confidence: -1}
	bestRaw := 0
	for _, tpl := range s.templates {
		for _, rot := range match.Rotations {
			score := confidence.GeometricScore(s.scorer.Geometric(cell, tpl, rot))
			bestRaw = max(bestRaw, score.Inliers())

			if conf := score.Normalize(); conf > best.Confidence {
				best = session.CellResult{Location: tpl.Location, Rotation: rot, Confidence: conf, Kind: confidence.Geometric}
				if conf >= s.earlyStop {
					return best, true
				}
			}
		}
	}

	if bestRaw >= confidence.GeometricFloor {
		return best, true
	}

	for _, tpl := range s.templates {
		for _, rot := range match.Rotations {
			score := confidence.AppearanceScore(s.scorer.Appearance(cell, tpl, rot))
			if conf := score.Normalize(); conf > best.Confidence {
				best = session.CellResult{Location: tpl.Location, Rotation: rot, Confidence: conf, Kind: confidence.Appearance}
			}
		}
	}
	return best, true
}
