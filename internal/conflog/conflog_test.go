package conflog_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"map-helper/internal/confidence"
	"map-helper/internal/conflog"
)

func sample(conf int) conflog.Sample {
	return conflog.Sample{
		Time:       time.Date(2025, 3, 4, 10, 11, 12, 0, time.Local),
		Map:        "harbor",
		Cell:       3,
		Location:   "north_gate",
		Rotation:   90,
		Confidence: conf,
		Kind:       confidence.Geometric,
	}
}

func TestSampleLine(t *testing.T) {
	assert.Equal(t,
		"2025-03-04 10:11:12 | harbor | cell_3 | north_gate | 90° | 82% | geometric",
		sample(82).String())
}

func TestParseLine(t *testing.T) {
	want := sample(82)
	s, err := conflog.ParseLine(want.String())
	require.NoError(t, err)
	assert.True(t, want.Time.Equal(s.Time))
	s.Time = want.Time
	assert.Equal(t, want, s)

	legacy, err := conflog.ParseLine("2024-12-01 08:00:00 | m | cell_0 | loc | 270° | 41% | color")
	require.NoError(t, err)
	assert.Equal(t, confidence.Appearance, legacy.Kind)
	assert.Equal(t, 270, legacy.Rotation)
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"garbage",
		"2025-03-04 10:11:12 | m | 3 | loc | 90° | 82% | geometric",
		"2025-03-04 10:11:12 | m | cell_3 | loc | x° | 82% | geometric",
		"2025-03-04 10:11:12 | m | cell_3 | loc | 90° | 82% | sift",
		"yesterday | m | cell_3 | loc | 90° | 82% | geometric",
	} {
		_, err := conflog.ParseLine(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestParseSkipsMalformed(t *testing.T) {
	in := strings.Join([]string{
		sample(60).String(),
		"not a sample",
		"",
		sample(70).String(),
	}, "\n")

	samples, skipped, err := conflog.Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, samples, 2)
	assert.Equal(t, 1, skipped)
}

func TestWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "confidence_log.txt")
	w := conflog.NewWriter(path, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Record(sample(50 + i))
		}()
	}
	wg.Wait()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	samples, skipped, err := conflog.Parse(f)
	require.NoError(t, err)
	assert.Len(t, samples, 10)
	assert.Zero(t, skipped)
}

func TestNilWriterIsNoop(t *testing.T) {
	var w *conflog.Writer
	assert.NotPanics(t, func() { w.Record(sample(80)) })
	assert.Nil(t, conflog.NewWriter("", nil))
	assert.Empty(t, w.Path())
}

func TestWriterSwallowsErrors(t *testing.T) {
	dir := t.TempDir()
	// a directory where the log file should be makes every append fail
	path := filepath.Join(dir, "log")
	require.NoError(t, os.Mkdir(path, 0o755))

	w := conflog.NewWriter(path, nil)
	assert.NotPanics(t, func() { w.Record(sample(80)) })
}

func TestSummarize(t *testing.T) {
	st := conflog.Summarize([]int{100, 10, 90, 20, 80, 30, 70, 40, 60, 50})
	assert.Equal(t, 10, st.Count)
	assert.Equal(t, 10, st.Min)
	assert.Equal(t, 100, st.Max)
	assert.Equal(t, 55, st.Mean)
	assert.Equal(t, 30, st.P25)
	assert.Equal(t, 80, st.P75)

	assert.Equal(t, conflog.Stats{}, conflog.Summarize(nil))
}

func TestAnalyze(t *testing.T) {
	var samples []conflog.Sample
	for i := 1; i <= 10; i++ {
		s := sample(i * 10)
		if i%2 == 0 {
			s.Map = "cavern"
			s.Kind = confidence.Appearance
		}
		samples = append(samples, s)
	}

	r := conflog.Analyze(samples, conflog.Thresholds{EarlyStop: 90, MinCacheConfidence: 20})
	assert.Equal(t, 10, r.Overall.Count)
	assert.Equal(t, conflog.Thresholds{EarlyStop: 80, MinCacheConfidence: 30}, r.Suggested)
	assert.Equal(t, []string{"cavern", "harbor"}, conflog.Keys(r.ByMap))
	assert.Equal(t, []string{"appearance", "geometric"}, conflog.Keys(r.ByKind))
	assert.Equal(t, 5, r.ByMap["cavern"].Count)
	require.Len(t, r.Warnings, 2)
	assert.Contains(t, r.Warnings[0], "early_stop_threshold 90 is too high")
	assert.Contains(t, r.Warnings[1], "min_cache_confidence 20 is too low")
}

func TestAnalyzeEmpty(t *testing.T) {
	r := conflog.Analyze(nil, conflog.Thresholds{EarlyStop: 75, MinCacheConfidence: 60})
	assert.Zero(t, r.Overall.Count)
	assert.Empty(t, r.Warnings)
}
