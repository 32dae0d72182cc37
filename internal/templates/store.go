// Package templates loads and caches the labeled reference tiles of each map.
package templates

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.trai.ch/zerr"
	"gocv.io/x/gocv"

	"map-helper/internal/image"
	"map-helper/internal/logging"
)

// ErrNoTemplates is returned when a folder yields no decodable tiles.
var ErrNoTemplates = zerr.New("no templates in map folder")

// Template is one labeled reference image. It is owned by the Store and
// must not be closed or mutated by callers.
type Template struct {
	// ID is unique per decoded image for the life of the process, so a
	// reloaded file gets a new one. Zero means the template is not managed
	// by a Store.
	ID       uint64
	Location string
	Image    gocv.Mat
}

var lastID atomic.Uint64

// entry guards a single folder load so concurrent callers decode once.
type entry struct {
	once      sync.Once
	templates []Template
	err       error
}

// Store caches templates per folder path.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
}

// NewStore creates an empty store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		entries: make(map[string]*entry),
		logger:  logging.NewComponentLogger(logger, "templates"),
	}
}

// Load returns the templates of folder sorted by location name. Repeated
// calls return the cached set. Files that fail to decode are skipped.
func (s *Store) Load(folder string) ([]Template, error) {
	key := filepath.Clean(folder)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	s.mu.Unlock()

	e.once.Do(func() {
		e.templates, e.err = s.decodeFolder(key)
	})
	if e.err != nil {
		// Do not pin failures; the folder may be populated later.
		s.mu.Lock()
		if s.entries[key] == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}
	return e.templates, e.err
}

func (s *Store) decodeFolder(folder string) ([]Template, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read map folder"), "folder", folder)
	}

	var templates []Template
	for _, de := range entries {
		if de.IsDir() || !image.IsSupportedFormat(de.Name()) {
			continue
		}
		path := filepath.Join(folder, de.Name())
		mat, err := image.Load(path)
		if err != nil {
			s.logger.Warn("skipping template", "path", path, "error", err)
			continue
		}
		templates = append(templates, Template{
			ID:       lastID.Add(1),
			Location: strings.TrimSuffix(de.Name(), filepath.Ext(de.Name())),
			Image:    mat,
		})
	}

	if len(templates) == 0 {
		return nil, zerr.With(ErrNoTemplates, "folder", folder)
	}

	sort.SliceStable(templates, func(i, j int) bool {
		return templates[i].Location < templates[j].Location
	})
	s.logger.Debug("templates loaded", "folder", folder, "count", len(templates))
	return templates, nil
}

// Invalidate drops the cached templates of folder so the next Load re-reads it.
// It must not be called while a matching pass still uses that folder.
func (s *Store) Invalidate(folder string) {
	key := filepath.Clean(folder)
	s.mu.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	if ok {
		closeEntry(e)
	}
}

// Close releases every cached template.
func (s *Store) Close() {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
	for _, e := range entries {
		closeEntry(e)
	}
}

func closeEntry(e *entry) {
	// Wait for an in-flight load before releasing its Mats.
	e.once.Do(func() {})
	for i := range e.templates {
		e.templates[i].Image.Close()
	}
	e.templates = nil
}
