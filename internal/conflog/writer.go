package conflog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"map-helper/internal/logging"
)

// Writer appends samples to a log file. Appends from several processes are
// serialized through an advisory lock next to the log. A nil *Writer
// discards everything.
type Writer struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	logger *slog.Logger
}

// NewWriter returns a Writer for path, or nil when path is empty.
func NewWriter(path string, logger *slog.Logger) *Writer {
	if path == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the log file path.
func (w *Writer) Path() string {
	if w == nil {
		return ""
	}
	return w.path
}

// Record appends one sample. Failures are logged at debug level and
// otherwise ignored so that logging never changes a match outcome.
func (w *Writer) Record(s Sample) {
	if w == nil {
		return
	}
	if err := w.append(s); err != nil {
		w.logger.Debug("confidence sample dropped", "path", w.path, "error", err)
	}
}

func (w *Writer) append(s Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := w.lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = w.lock.Unlock() }()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, s.String()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
