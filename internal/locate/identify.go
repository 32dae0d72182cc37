// Package locate identifies which map a captured frame belongs to and
// which template location each grid cell shows.
//
// An Identifier owns the session cache. Once a map is identified, later
// frames take the fast path: only the known map is searched and trusted
// per-cell results are reused. A full search over every map never touches
// the cache. Expiry is reported by IsExpired but never acted upon; callers
// decide when to Reset.
package locate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"gocv.io/x/gocv"

	"map-helper/internal/confidence"
	"map-helper/internal/config"
	"map-helper/internal/grid"
	"map-helper/internal/logging"
	"map-helper/internal/maps"
	"map-helper/internal/match"
	"map-helper/internal/session"
	"map-helper/internal/templates"
	"map-helper/internal/workpool"
)

// Options configures an Identifier. Start from DefaultOptions or
// OptionsFromConfig: EarlyStop and MinCacheConfidence are used as given,
// so 0 is a real threshold. Other zero values take the defaults of
// config.Default; a nil Scorer uses the feature matcher with its defaults.
type Options struct {
	MapsRoot           string
	EarlyStop          int
	MinCacheConfidence int
	TTL                time.Duration
	// UpdateInterval is the number of completed cells between progress
	// events of Detect.
	UpdateInterval int

	Runner    workpool.Runner
	Scorer    PairScorer
	Templates TemplateSource
	Samples   SampleSink
	Clock     clockwork.Clock
	Logger    *slog.Logger
}

// DefaultOptions returns the engine settings of config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig copies the engine settings of cfg. Collaborators are
// left for the caller to fill in.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		MapsRoot:           cfg.MapsRoot,
		EarlyStop:          cfg.EarlyStopThreshold,
		MinCacheConfidence: cfg.MinCacheConfidence,
		TTL:                cfg.CacheDuration(),
		UpdateInterval:     cfg.UpdateIntervalCells,
		Runner:             workpool.New(cfg.Workers()),
	}
}

// Identification is the outcome of Identify.
type Identification struct {
	Map string
	// Confidence is the integer mean over matched cells, 0 when none matched.
	Confidence int
	Grid       grid.Config
	Cells      map[int]session.CellResult
	// Identified is false when even the best map fell below the floor;
	// the remaining fields then describe that best candidate.
	Identified bool
	FastPath   bool
}

// Location is a display-ready cell result.
type Location struct {
	Name     string
	Rotation int
}

// Locations maps cell indices to display names and rotations.
func (id Identification) Locations(names maps.Names) map[int]Location {
	out := make(map[int]Location, len(id.Cells))
	for idx, r := range id.Cells {
		out[idx] = Location{Name: names.Display(r.Location), Rotation: r.Rotation}
	}
	return out
}

// Identifier is the map identification state machine. All methods are safe
// for concurrent use, but passes are expected to be issued one at a time.
type Identifier struct {
	opts    Options
	logger  *slog.Logger
	current atomic.Pointer[session.Session]
}

// NewIdentifier returns an unidentified Identifier.
func NewIdentifier(opts Options) *Identifier {
	def := config.Default()
	if opts.MapsRoot == "" {
		opts.MapsRoot = def.MapsRoot
	}
	if opts.TTL <= 0 {
		opts.TTL = def.CacheDuration()
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = def.UpdateIntervalCells
	}
	if opts.Runner == nil {
		opts.Runner = workpool.New(def.Workers())
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Scorer == nil {
		opts.Scorer = MatcherScorer(match.New(match.DefaultOptions()))
	}
	if opts.Templates == nil {
		opts.Templates = templates.NewStore(opts.Logger)
	}

	i := &Identifier{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "locate"),
	}
	i.current.Store(session.New())
	return i
}

// Session returns the current session.
func (i *Identifier) Session() *session.Session {
	return i.current.Load()
}

// Reset discards the identified map, its timestamp and every cached cell
// result in one step.
func (i *Identifier) Reset() {
	old := i.current.Swap(session.New())
	i.logger.Debug("session reset", "session", old.ID())
}

// IsExpired reports whether the identification is older than the TTL.
func (i *Identifier) IsExpired() bool {
	return i.current.Load().Expired(i.opts.Clock.Now(), i.opts.TTL)
}

// Identify locates frame. With a map already identified the fast path runs
// first; a rejected fast path, or no identification, falls through to a
// full search over every map. Cancellation returns ctx.Err() with whatever
// the interrupted pass had produced.
func (i *Identifier) Identify(ctx context.Context, frame gocv.Mat) (Identification, error) {
	sess := i.current.Load()
	if mapName, ok := sess.Identified(); ok {
		id, accepted, err := i.fastPath(ctx, frame, sess, mapName)
		if err != nil {
			return id, err
		}
		if accepted {
			return id, nil
		}
		i.logger.Info("fast path rejected", "map", mapName, "confidence", id.Confidence, "session", sess.ID())
	}
	return i.fullSearch(ctx, frame)
}

func (i *Identifier) fastPath(ctx context.Context, frame gocv.Mat, sess *session.Session, mapName string) (Identification, bool, error) {
	folder, err := maps.Find(i.opts.MapsRoot, mapName)
	if err != nil {
		i.logger.Warn("identified map is gone", "map", mapName, "error", err)
		return Identification{}, false, nil
	}
	tpls, err := i.opts.Templates.Load(folder.Path)
	if err != nil {
		i.logger.Warn("failed to load templates", "map", mapName, "error", err)
		return Identification{}, false, nil
	}

	cfg := maps.LoadGrid(folder.Path)
	results, err := i.pass(ctx, frame, cfg, i.search(mapName, tpls, sess))
	id := Identification{
		Map:        mapName,
		Confidence: meanConfidence(results),
		Grid:       cfg,
		Cells:      results,
		FastPath:   true,
	}
	if err != nil {
		return id, false, err
	}
	id.Identified = id.Confidence >= confidence.AcceptFloor
	return id, id.Identified, nil
}

func (i *Identifier) fullSearch(ctx context.Context, frame gocv.Mat) (Identification, error) {
	folders, err := maps.List(i.opts.MapsRoot)
	if err != nil {
		i.logger.Warn("no candidate maps", "root", i.opts.MapsRoot, "error", err)
		return Identification{}, nil
	}

	best := Identification{Confidence: -1}
	for _, f := range folders {
		if err := ctx.Err(); err != nil {
			return sanitize(best), err
		}

		tpls, err := i.opts.Templates.Load(f.Path)
		if err != nil {
			i.logger.Warn("skipping map", "map", f.Name, "error", err)
			continue
		}

		cfg := maps.LoadGrid(f.Path)
		results, err := i.pass(ctx, frame, cfg, i.search(f.Name, tpls, nil))
		if err != nil {
			return sanitize(best), err
		}

		mean := meanConfidence(results)
		i.logger.Debug("map scored", "map", f.Name, "confidence", mean, "matched", len(results), "cells", cfg.Count())
		if mean > best.Confidence {
			best = Identification{Map: f.Name, Confidence: mean, Grid: cfg, Cells: results}
		}
	}

	best = sanitize(best)
	if best.Map == "" || best.Confidence < confidence.AcceptFloor {
		return best, nil
	}

	best.Identified = true
	i.accept(best.Map)
	return best, nil
}

// accept keeps the current session when it already names mapName, and
// otherwise installs a fresh session identified with mapName now.
func (i *Identifier) accept(mapName string) {
	sess := i.current.Load()
	if name, ok := sess.Identified(); ok && name == mapName {
		return
	}
	next := session.NewIdentified(mapName, i.opts.Clock.Now())
	i.current.Store(next)
	i.logger.Info("map identified", "map", mapName, "session", next.ID())
}

func sanitize(id Identification) Identification {
	if id.Confidence < 0 {
		return Identification{}
	}
	return id
}

func (i *Identifier) search(mapName string, tpls []templates.Template, cache *session.Session) *cellSearch {
	return &cellSearch{
		mapName:   mapName,
		scorer:    i.opts.Scorer,
		templates: tpls,
		earlyStop: i.opts.EarlyStop,
		minCache:  i.opts.MinCacheConfidence,
		cache:     cache,
		sink:      i.opts.Samples,
		now:       i.opts.Clock.Now,
	}
}

// pass runs the per-cell search over every cell of frame on the worker
// pool and collects the accepted results.
func (i *Identifier) pass(ctx context.Context, frame gocv.Mat, cfg grid.Config, s *cellSearch) (map[int]session.CellResult, error) {
	cells := grid.Split(frame, cfg)
	defer grid.Close(cells)

	found := make([]*session.CellResult, len(cells))
	units := make([]workpool.Unit, len(cells))
	for k, cell := range cells {
		units[k] = func(context.Context) {
			if r, ok := s.run(cell); ok {
				found[k] = &r
			}
		}
	}
	err := i.opts.Runner.Run(ctx, units)

	results := make(map[int]session.CellResult)
	for k, r := range found {
		if r != nil {
			results[cells[k].Index] = *r
		}
	}
	return results, err
}

// meanConfidence is the truncated mean over matched cells, 0 if none.
func meanConfidence(results map[int]session.CellResult) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += r.Confidence
	}
	return sum / len(results)
}
