// Package session holds the per-session identification state: the identified
// map, when it was identified, and the trusted per-cell results.
package session

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"map-helper/internal/confidence"
)

// CellResult is the accepted match of one grid cell.
type CellResult struct {
	Location   string
	Rotation   int
	Confidence int
	Kind       confidence.Kind
}

// Session is one identification context. It is safe for concurrent use.
// Resetting never mutates a Session; the owner replaces it with New().
type Session struct {
	id string

	mu           sync.RWMutex
	mapName      string
	identifiedAt time.Time
	cells        map[int]CellResult
}

// New returns an empty, unidentified session.
func New() *Session {
	return &Session{
		id:    uuid.NewString(),
		cells: make(map[int]CellResult),
	}
}

// NewIdentified returns an empty session already bound to mapName.
func NewIdentified(mapName string, at time.Time) *Session {
	s := New()
	s.mapName = mapName
	s.identifiedAt = at
	return s
}

// ID returns the session identifier used to correlate log records.
func (s *Session) ID() string { return s.id }

// Identified returns the identified map, if any.
func (s *Session) Identified() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapName, s.mapName != ""
}

// IdentifiedAt returns the identification time; zero when unidentified.
func (s *Session) IdentifiedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identifiedAt
}

// Expired reports whether the session was identified more than ttl before now.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identifiedAt.IsZero() {
		return false
	}
	return now.Sub(s.identifiedAt) > ttl
}

// Cell returns the cached result for idx.
func (s *Session) Cell(idx int) (CellResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.cells[idx]
	return r, ok
}

// Store inserts or replaces the result for idx.
func (s *Session) Store(idx int, r CellResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells[idx] = r
}

// Snapshot returns a copy of all cached cell results.
func (s *Session) Snapshot() map[int]CellResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.cells)
}

// Len returns the number of cached cells.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}
