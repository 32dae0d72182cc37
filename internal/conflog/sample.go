// Package conflog records accepted cell matches to an append-only text log
// and analyses that log to suggest confidence thresholds.
//
// One line per sample:
//
//	2025-01-02 15:04:05 | map | cell_3 | location | 90° | 82% | geometric
package conflog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/zerr"

	"map-helper/internal/confidence"
)

// TimeLayout is the timestamp format of a log line.
const TimeLayout = "2006-01-02 15:04:05"

const fieldCount = 7

// ErrMalformed is returned by ParseLine for lines that do not follow the schema.
var ErrMalformed = zerr.New("malformed confidence sample")

// Sample is one accepted cell result.
type Sample struct {
	Time       time.Time
	Map        string
	Cell       int
	Location   string
	Rotation   int
	Confidence int
	Kind       confidence.Kind
}

// String formats the sample as a log line without the trailing newline.
func (s Sample) String() string {
	return fmt.Sprintf("%s | %s | cell_%d | %s | %d° | %d%% | %s",
		s.Time.Format(TimeLayout), s.Map, s.Cell, s.Location, s.Rotation, s.Confidence, s.Kind)
}

// ParseLine parses one log line. Timestamps are read in local time.
func ParseLine(line string) (Sample, error) {
	parts := strings.Split(strings.TrimSpace(line), " | ")
	if len(parts) != fieldCount {
		return Sample{}, zerr.With(ErrMalformed, "fields", len(parts))
	}

	var (
		s   Sample
		err error
	)
	if s.Time, err = time.ParseInLocation(TimeLayout, parts[0], time.Local); err != nil {
		return Sample{}, zerr.With(ErrMalformed, "time", parts[0])
	}
	s.Map = parts[1]
	if s.Cell, err = strconv.Atoi(strings.TrimPrefix(parts[2], "cell_")); err != nil || !strings.HasPrefix(parts[2], "cell_") {
		return Sample{}, zerr.With(ErrMalformed, "cell", parts[2])
	}
	s.Location = parts[3]
	if s.Rotation, err = strconv.Atoi(strings.TrimSuffix(parts[4], "°")); err != nil {
		return Sample{}, zerr.With(ErrMalformed, "rotation", parts[4])
	}
	if s.Confidence, err = strconv.Atoi(strings.TrimSuffix(parts[5], "%")); err != nil {
		return Sample{}, zerr.With(ErrMalformed, "confidence", parts[5])
	}
	if s.Kind = confidence.ParseKind(parts[6]); s.Kind == confidence.KindUnknown {
		return Sample{}, zerr.With(ErrMalformed, "kind", parts[6])
	}
	return s, nil
}

// Parse reads every well-formed sample from r. Malformed lines are skipped
// and counted.
func Parse(r io.Reader) ([]Sample, int, error) {
	var (
		samples []Sample
		skipped int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := ParseLine(line)
		if err != nil {
			skipped++
			continue
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return samples, skipped, zerr.Wrap(err, "failed to read confidence log")
	}
	return samples, skipped, nil
}
