package locate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"map-helper/internal/grid"
	"map-helper/internal/templates"
	"map-helper/internal/workpool"
)

type pairKey struct {
	cell     int
	location string
	rotation int
}

// fakeScorer answers from fixed tables; unknown pairs score zero.
type fakeScorer struct {
	mu         sync.Mutex
	geometric  map[pairKey]int
	appearance map[pairKey]float64
	geoCalls   int
	appCalls   int
	onCall     func()
}

func newFakeScorer() *fakeScorer {
	return &fakeScorer{geometric: map[pairKey]int{}, appearance: map[pairKey]float64{}}
}

func (f *fakeScorer) setGeometric(cell int, loc string, rot, raw int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geometric[pairKey{cell, loc, rot}] = raw
}

func (f *fakeScorer) setAppearance(cell int, loc string, rot int, raw float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appearance[pairKey{cell, loc, rot}] = raw
}

func (f *fakeScorer) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geometric = map[pairKey]int{}
	f.appearance = map[pairKey]float64{}
}

func (f *fakeScorer) Geometric(cell grid.Cell, tpl templates.Template, rotation int) int {
	f.mu.Lock()
	f.geoCalls++
	raw := f.geometric[pairKey{cell.Index, tpl.Location, rotation}]
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return raw
}

func (f *fakeScorer) Appearance(cell grid.Cell, tpl templates.Template, rotation int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appCalls++
	return f.appearance[pairKey{cell.Index, tpl.Location, rotation}]
}

func (f *fakeScorer) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geoCalls, f.appCalls
}

// fakeTemplates serves image-less templates by folder base name.
type fakeTemplates map[string][]string

func (f fakeTemplates) Load(folder string) ([]templates.Template, error) {
	names, ok := f[filepath.Base(folder)]
	if !ok {
		return nil, templates.ErrNoTemplates
	}
	out := make([]templates.Template, len(names))
	for i, n := range names {
		out[i] = templates.Template{Location: n}
	}
	return out, nil
}

func tpls(names ...string) []templates.Template {
	out := make([]templates.Template, len(names))
	for i, n := range names {
		out[i] = templates.Template{Location: n}
	}
	return out
}

// mapsRoot creates one folder per name, each with a rows x cols grid.json.
func mapsRoot(t *testing.T, rows, cols int, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, n := range names {
		dir := filepath.Join(root, n)
		require.NoError(t, os.Mkdir(dir, 0o755))
		data, err := json.Marshal(grid.Config{Rows: rows, Cols: cols})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "grid.json"), data, 0o644))
	}
	return root
}

func testFrame(t *testing.T) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })
	return frame
}

func sequential() workpool.Runner { return workpool.Sequential{} }
