package locate

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"map-helper/internal/confidence"
	"map-helper/internal/grid"
	"map-helper/internal/match"
	"map-helper/internal/templates"
)

const tile = 240

// paint draws the same textured tile at the top-left of img for a seed.
func paint(img *gocv.Mat, seed uint64) {
	gocv.Rectangle(img, image.Rect(0, 0, tile, tile), color.RGBA{R: 30, G: 30, B: 30}, -1)
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := 0; i < 60; i++ {
		c := color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))}
		x, y := rng.IntN(tile-40), rng.IntN(tile-40)
		w, h := 6+rng.IntN(30), 6+rng.IntN(30)
		gocv.Rectangle(img, image.Rect(x, y, x+w, y+h), c, -1)
	}
}

func TestIdentifyWithFeatureMatcher(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "harbor")
	require.NoError(t, os.Mkdir(dir, 0o755))
	data, err := json.Marshal(grid.Config{Rows: 2, Cols: 2})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grid.json"), data, 0o644))

	tpl := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), tile, tile, gocv.MatTypeCV8UC3)
	defer tpl.Close()
	paint(&tpl, 11)
	require.True(t, gocv.IMWrite(filepath.Join(dir, "A.png"), tpl))

	// cell 0 shows template A, cells 1-3 are flat grey
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(128, 128, 128, 0), 2*tile, 2*tile, gocv.MatTypeCV8UC3)
	defer frame.Close()
	paint(&frame, 11)

	store := templates.NewStore(nil)
	defer store.Close()

	opts := DefaultOptions()
	opts.MapsRoot = root
	opts.Runner = sequential()
	scorer := MatcherScorer(match.New(match.DefaultOptions()))
	defer scorer.Close()
	opts.Scorer = scorer
	opts.Templates = store
	id := NewIdentifier(opts)

	got, err := id.Identify(context.Background(), frame)
	require.NoError(t, err)
	require.True(t, got.Identified)
	assert.Equal(t, "harbor", got.Map)
	require.Len(t, got.Cells, 1)

	cell := got.Cells[0]
	assert.Equal(t, "A", cell.Location)
	assert.Equal(t, 0, cell.Rotation)
	assert.Equal(t, confidence.Geometric, cell.Kind)
	assert.GreaterOrEqual(t, cell.Confidence, 59)
	assert.Equal(t, cell.Confidence, got.Confidence)
	// one template, extracted once for all four cells
	assert.Equal(t, 1, scorer.Cached())
}
