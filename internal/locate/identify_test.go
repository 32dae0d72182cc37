package locate

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"map-helper/internal/confidence"
	"map-helper/internal/grid"
	"map-helper/internal/maps"
	"map-helper/internal/session"
	"map-helper/internal/workpool"
)

type fixture struct {
	scorer *fakeScorer
	clock  *clockwork.FakeClock
	id     *Identifier
}

func newFixture(t *testing.T, runner workpool.Runner) *fixture {
	t.Helper()
	f := &fixture{
		scorer: newFakeScorer(),
		clock:  clockwork.NewFakeClockAt(fixedNow),
	}
	opts := DefaultOptions()
	opts.MapsRoot = mapsRoot(t, 2, 2, "alpha", "beta")
	opts.TTL = 15 * time.Minute
	opts.Runner = runner
	opts.Scorer = f.scorer
	opts.Templates = fakeTemplates{"alpha": {"A", "A2"}, "beta": {"B"}}
	opts.Clock = f.clock
	f.id = NewIdentifier(opts)
	return f
}

func TestFullSearchIdentifiesMap(t *testing.T) {
	for name, runner := range map[string]workpool.Runner{
		"sequential": sequential(),
		"parallel":   workpool.New(4),
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, runner)
			f.scorer.setGeometric(0, "A", 0, 12)

			id, err := f.id.Identify(context.Background(), testFrame(t))
			require.NoError(t, err)

			assert.True(t, id.Identified)
			assert.False(t, id.FastPath)
			assert.Equal(t, "alpha", id.Map)
			assert.Equal(t, grid.Config{Rows: 2, Cols: 2}, id.Grid)
			// only matched cells count towards the mean
			assert.Equal(t, 59, id.Confidence)
			assert.Equal(t, map[int]session.CellResult{
				0: {Location: "A", Rotation: 0, Confidence: 59, Kind: confidence.Geometric},
			}, id.Cells)

			name, ok := f.id.Session().Identified()
			assert.True(t, ok)
			assert.Equal(t, "alpha", name)
			assert.Equal(t, fixedNow, f.id.Session().IdentifiedAt())
			assert.Zero(t, f.id.Session().Len(), "full search must not fill the cache")
		})
	}
}

func TestFastPathUsesCache(t *testing.T) {
	f := newFixture(t, sequential())
	f.scorer.setGeometric(0, "A", 0, 30)
	frame := testFrame(t)

	_, err := f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	sessID := f.id.Session().ID()

	id, err := f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	assert.True(t, id.FastPath)
	assert.True(t, id.Identified)
	assert.Equal(t, 85, id.Confidence)
	assert.Equal(t, sessID, f.id.Session().ID())
	assert.Equal(t, 1, f.id.Session().Len())

	// a third pass reuses cell 0 without scoring it
	geoBefore, _ := f.scorer.calls()
	_, err = f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	geoAfter, _ := f.scorer.calls()
	// cells 1-3 are searched again: 4 rotations x 2 templates each
	assert.Equal(t, 3*8, geoAfter-geoBefore)
}

func TestRejectedFastPathFallsThrough(t *testing.T) {
	f := newFixture(t, sequential())
	f.scorer.setGeometric(0, "A", 0, 30)
	frame := testFrame(t)

	_, err := f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	_, err = f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	first := f.id.Session()
	require.Equal(t, 1, first.Len())

	// the view moved to another map
	f.scorer.clear()
	f.id.Reset()
	f.id.current.Store(session.NewIdentified("alpha", fixedNow))
	f.scorer.setGeometric(3, "B", 90, 20)
	f.clock.Advance(time.Minute)

	id, err := f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	assert.True(t, id.Identified)
	assert.False(t, id.FastPath)
	assert.Equal(t, "beta", id.Map)
	assert.Equal(t, 71, id.Confidence)

	name, _ := f.id.Session().Identified()
	assert.Equal(t, "beta", name)
	assert.Equal(t, fixedNow.Add(time.Minute), f.id.Session().IdentifiedAt())
	assert.Zero(t, f.id.Session().Len())
}

func TestReacceptingSameMapKeepsTimestamp(t *testing.T) {
	f := newFixture(t, sequential())
	f.scorer.setGeometric(0, "A", 0, 30)
	frame := testFrame(t)

	_, err := f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	sess := f.id.Session()

	f.clock.Advance(5 * time.Minute)
	id, err := f.id.fullSearch(context.Background(), frame)
	require.NoError(t, err)
	require.True(t, id.Identified)
	assert.Same(t, sess, f.id.Session())
	assert.Equal(t, fixedNow, f.id.Session().IdentifiedAt())
}

func TestBelowFloorStaysUnidentified(t *testing.T) {
	f := newFixture(t, sequential())
	f.scorer.setAppearance(0, "B", 0, 45)

	id, err := f.id.Identify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.False(t, id.Identified)
	_, ok := f.id.Session().Identified()
	assert.False(t, ok)
}

func TestBestCandidateReportedBelowFloor(t *testing.T) {
	f := newFixture(t, sequential())

	id, err := f.id.Identify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.False(t, id.Identified)
	// equal means keep the earlier map
	assert.Equal(t, "alpha", id.Map)
	assert.Zero(t, id.Confidence)
	assert.Empty(t, id.Cells)
}

func TestResetClearsEverything(t *testing.T) {
	f := newFixture(t, sequential())
	f.scorer.setGeometric(0, "A", 0, 30)
	frame := testFrame(t)

	_, err := f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	_, err = f.id.Identify(context.Background(), frame)
	require.NoError(t, err)
	before := f.id.Session()

	f.id.Reset()

	after := f.id.Session()
	assert.NotEqual(t, before.ID(), after.ID())
	_, ok := after.Identified()
	assert.False(t, ok)
	assert.True(t, after.IdentifiedAt().IsZero())
	assert.Zero(t, after.Len())
	assert.False(t, f.id.IsExpired())
}

func TestExpiry(t *testing.T) {
	f := newFixture(t, sequential())
	f.scorer.setGeometric(0, "A", 0, 30)

	assert.False(t, f.id.IsExpired(), "unidentified sessions never expire")

	_, err := f.id.Identify(context.Background(), testFrame(t))
	require.NoError(t, err)

	f.clock.Advance(15 * time.Minute)
	assert.False(t, f.id.IsExpired())

	f.clock.Advance(time.Second)
	assert.True(t, f.id.IsExpired())

	// expiry is reported, never acted upon
	name, ok := f.id.Session().Identified()
	assert.True(t, ok)
	assert.Equal(t, "alpha", name)
}

func TestNoMaps(t *testing.T) {
	opts := DefaultOptions()
	opts.MapsRoot = t.TempDir()
	opts.Runner = sequential()
	opts.Scorer = newFakeScorer()
	opts.Templates = fakeTemplates{}
	id := NewIdentifier(opts)
	got, err := id.Identify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.Equal(t, Identification{}, got)
}

func TestMapWithoutTemplatesIsSkipped(t *testing.T) {
	f := newFixture(t, sequential())
	f.id.opts.Templates = fakeTemplates{"beta": {"B"}}
	f.scorer.setGeometric(1, "B", 0, 12)

	id, err := f.id.Identify(context.Background(), testFrame(t))
	require.NoError(t, err)
	assert.Equal(t, "beta", id.Map)
	assert.True(t, id.Identified)
}

func TestCancelledIdentify(t *testing.T) {
	f := newFixture(t, sequential())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.id.Identify(ctx, testFrame(t))
	require.ErrorIs(t, err, context.Canceled)
	_, ok := f.id.Session().Identified()
	assert.False(t, ok)
}

func TestLocations(t *testing.T) {
	id := Identification{Cells: map[int]session.CellResult{
		0: {Location: "north_gate", Rotation: 90},
		3: {Location: "pier", Rotation: 0},
	}}
	got := id.Locations(maps.Names{"north_gate": "North Gate"})
	assert.Equal(t, map[int]Location{
		0: {Name: "North Gate", Rotation: 90},
		3: {Name: "pier", Rotation: 0},
	}, got)
}

func TestMeanConfidence(t *testing.T) {
	assert.Zero(t, meanConfidence(nil))
	assert.Equal(t, 66, meanConfidence(map[int]session.CellResult{
		0: {Confidence: 59}, 1: {Confidence: 74},
	}))
}
