package locate

import (
	"sync"

	"map-helper/internal/conflog"
	"map-helper/internal/grid"
	"map-helper/internal/match"
	"map-helper/internal/templates"
)

//go:generate mockgen -destination=mocks/mock_locate.go -package=mocks map-helper/internal/locate PairScorer,TemplateSource,SampleSink

// PairScorer scores one (cell, template, rotation) triple with either
// stage of the feature matcher. Implementations must be safe for
// concurrent use and must not fail: an unusable pair scores zero.
type PairScorer interface {
	// Geometric returns the Stage A inlier count.
	Geometric(cell grid.Cell, tpl templates.Template, rotation int) int
	// Appearance returns the Stage B histogram score on a 0..100 scale.
	Appearance(cell grid.Cell, tpl templates.Template, rotation int) float64
}

// TemplateSource provides the templates of a map folder, sorted by
// location name.
type TemplateSource interface {
	Load(folder string) ([]templates.Template, error)
}

// SampleSink receives accepted results. Record must not block for long
// and must swallow its own failures.
type SampleSink interface {
	Record(conflog.Sample)
}

// MatchScorer adapts a match.Matcher to PairScorer. Template descriptors
// are extracted once per template ID and kept until Close.
type MatchScorer struct {
	m *match.Matcher

	mu       sync.Mutex
	features map[uint64]*featureEntry
}

// featureEntry guards a single extraction so concurrent cells share it.
type featureEntry struct {
	once     sync.Once
	features match.Features
}

// MatcherScorer returns a MatchScorer around m.
func MatcherScorer(m *match.Matcher) *MatchScorer {
	return &MatchScorer{m: m, features: make(map[uint64]*featureEntry)}
}

// Geometric returns the Stage A inlier count.
func (s *MatchScorer) Geometric(cell grid.Cell, tpl templates.Template, rotation int) int {
	if tpl.ID == 0 {
		return s.m.Geometric(cell.Image, tpl.Image, rotation)
	}
	return s.m.GeometricFeatures(cell.Image, s.templateFeatures(tpl), rotation)
}

// Appearance returns the Stage B histogram score.
func (s *MatchScorer) Appearance(cell grid.Cell, tpl templates.Template, rotation int) float64 {
	return s.m.Appearance(cell.Image, tpl.Image, rotation)
}

// Cached returns the number of templates whose descriptors are held.
func (s *MatchScorer) Cached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.features)
}

// Close releases every cached descriptor set. It must not be called while
// a pass is still scoring.
func (s *MatchScorer) Close() {
	s.mu.Lock()
	entries := s.features
	s.features = make(map[uint64]*featureEntry)
	s.mu.Unlock()
	for _, e := range entries {
		e.once.Do(func() {})
		e.features.Close()
	}
}

func (s *MatchScorer) templateFeatures(tpl templates.Template) match.Features {
	s.mu.Lock()
	e, ok := s.features[tpl.ID]
	if !ok {
		e = &featureEntry{}
		s.features[tpl.ID] = e
	}
	s.mu.Unlock()

	e.once.Do(func() {
		e.features = s.m.Extract(tpl.Image)
	})
	return e.features
}
