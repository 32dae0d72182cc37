package locate

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"gocv.io/x/gocv"

	"map-helper/internal/grid"
	mapdir "map-helper/internal/maps"
	"map-helper/internal/session"
	"map-helper/internal/workpool"
)

// EventKind tells what an Event reports.
type EventKind int

const (
	// EventCellMatched carries one accepted cell result.
	EventCellMatched EventKind = iota + 1
	// EventProgress carries a "[Detecting] k/N cells" status.
	EventProgress
	// EventComplete is the terminal event of a finished pass.
	EventComplete
	// EventCancelled is the terminal event of a cancelled pass.
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventCellMatched:
		return "matched"
	case EventProgress:
		return "progress"
	case EventComplete:
		return "complete"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is one progress notification of Detect.
type Event struct {
	Kind   EventKind
	Cell   int
	Result session.CellResult
	Status string
	// Done and Total count completed cells.
	Done  int
	Total int
	// Snapshot holds every matched cell so far; set on terminal events.
	Snapshot map[int]session.CellResult
}

// Detect runs the per-cell search of a known map over frame in the
// background and reports progress on the returned channel, which is closed
// after the terminal event. Accepted results go to the session cache as
// soon as they are found, so a cancelled pass leaves valid partial
// results. If mapName is not the identified map, a fresh session
// identified with it is installed first. frame must stay open until the
// channel is closed.
func (i *Identifier) Detect(ctx context.Context, frame gocv.Mat, mapName string) (<-chan Event, error) {
	folder, err := mapdir.Find(i.opts.MapsRoot, mapName)
	if err != nil {
		return nil, err
	}
	tpls, err := i.opts.Templates.Load(folder.Path)
	if err != nil {
		return nil, err
	}

	sess := i.current.Load()
	if name, ok := sess.Identified(); !ok || name != mapName {
		sess = session.NewIdentified(mapName, i.opts.Clock.Now())
		i.current.Store(sess)
	}

	cells := grid.Split(frame, mapdir.LoadGrid(folder.Path))
	events := make(chan Event, 2*len(cells)+4)

	go func() {
		defer close(events)
		defer grid.Close(cells)
		i.detect(ctx, cells, i.search(mapName, tpls, sess), events)
	}()
	return events, nil
}

func (i *Identifier) detect(ctx context.Context, cells []grid.Cell, s *cellSearch, events chan<- Event) {
	total := len(cells)
	var (
		mu      sync.Mutex
		done    int
		matched = make(map[int]session.CellResult)
	)

	complete := func(idx int, r session.CellResult, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if ok {
			matched[idx] = r
			events <- Event{Kind: EventCellMatched, Cell: idx, Result: r, Done: done, Total: total}
		}
		if done%i.opts.UpdateInterval == 0 || done == total {
			events <- Event{
				Kind:   EventProgress,
				Status: fmt.Sprintf("[Detecting] %d/%d cells", done, total),
				Done:   done,
				Total:  total,
			}
		}
	}

	// trusted cached results are reported before any search starts
	var units []workpool.Unit
	for _, cell := range cells {
		if r, ok := s.cached(cell.Index); ok {
			complete(cell.Index, r, true)
			continue
		}
		units = append(units, func(context.Context) {
			r, ok := s.run(cell)
			complete(cell.Index, r, ok)
		})
	}

	err := i.opts.Runner.Run(ctx, units)

	mu.Lock()
	defer mu.Unlock()
	final := Event{Done: done, Total: total, Snapshot: maps.Clone(matched)}
	if err != nil {
		final.Kind = EventCancelled
		final.Status = "[Cancelled] Detection stopped"
		i.logger.Info("detection cancelled", "map", s.mapName, "done", done, "cells", total)
	} else {
		final.Kind = EventComplete
		final.Status = fmt.Sprintf("[Complete] %d/%d locations found", len(matched), total)
	}
	events <- final
}
