// Package grid partitions a captured region into a row-major sequence of cells.
package grid

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultRows and DefaultCols are used when a map carries no grid descriptor.
const (
	DefaultRows = 5
	DefaultCols = 5
)

// Config holds the grid dimensions of a map.
type Config struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Default returns the 5x5 grid.
func Default() Config {
	return Config{Rows: DefaultRows, Cols: DefaultCols}
}

// Valid reports whether both dimensions are at least one.
func (c Config) Valid() bool {
	return c.Rows >= 1 && c.Cols >= 1
}

// Count returns the number of cells in the grid.
func (c Config) Count() int {
	return c.Rows * c.Cols
}

func (c Config) String() string {
	return fmt.Sprintf("%dx%d", c.Rows, c.Cols)
}

// Layout computes the cell rectangles for an image of the given size.
// Cells are row-major. Every cell is floor(h/rows) x floor(w/cols) except
// the last row and column, which absorb the remainder, so the rectangles
// tile the image exactly.
func Layout(width, height int, cfg Config) []image.Rectangle {
	if !cfg.Valid() || width < 0 || height < 0 {
		return nil
	}

	cellH := height / cfg.Rows
	cellW := width / cfg.Cols

	rects := make([]image.Rectangle, 0, cfg.Count())
	for r := 0; r < cfg.Rows; r++ {
		y0 := r * cellH
		y1 := y0 + cellH
		if r == cfg.Rows-1 {
			y1 = height
		}
		for c := 0; c < cfg.Cols; c++ {
			x0 := c * cellW
			x1 := x0 + cellW
			if c == cfg.Cols-1 {
				x1 = width
			}
			rects = append(rects, image.Rect(x0, y0, x1, y1))
		}
	}
	return rects
}

// Cell is one rectangle of the partitioned frame. Image is a view into the
// frame and is only valid while the frame is alive.
type Cell struct {
	Index  int
	Bounds image.Rectangle
	Image  gocv.Mat
}

// Split partitions frame into cells. The returned cells must be released
// with Close once the pass is over.
func Split(frame gocv.Mat, cfg Config) []Cell {
	if frame.Empty() {
		return nil
	}
	rects := Layout(frame.Cols(), frame.Rows(), cfg)
	cells := make([]Cell, len(rects))
	for i, rect := range rects {
		cells[i] = Cell{Index: i, Bounds: rect}
		if rect.Empty() {
			cells[i].Image = gocv.NewMat()
			continue
		}
		cells[i].Image = frame.Region(rect)
	}
	return cells
}

// First returns only cell 0 of the partition, used by the first-cell probe.
func First(frame gocv.Mat, cfg Config) (Cell, bool) {
	if frame.Empty() || !cfg.Valid() {
		return Cell{}, false
	}
	rects := Layout(frame.Cols(), frame.Rows(), cfg)
	if len(rects) == 0 || rects[0].Empty() {
		return Cell{}, false
	}
	return Cell{Index: 0, Bounds: rects[0], Image: frame.Region(rects[0])}, true
}

// Close releases the cell views.
func Close(cells []Cell) {
	for i := range cells {
		cells[i].Image.Close()
	}
}
