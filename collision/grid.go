package collision

import (
	"math"
)

const (
	// DefaultCellSize is the bucket size in pixels, about the size of a typical label.
	DefaultCellSize = 64
	// maxCellsPerBox is the number of cells above which a box goes to the oversize list
	// instead of being registered in every cell it spans.
	maxCellsPerBox = 256
	// cells beyond this are clamped, keeping far away boxes in the border cells
	maxCell = 1 << 30
)

type cellKey struct {
	x, y int32
}

// GridIndex buckets boxes in a uniform grid of square cells. Each box is registered in every cell
// it spans, so a query only looks at the boxes sharing a cell with it.
type GridIndex struct {
	cellSize float64
	boxes    []Box
	cells    map[cellKey][]int32
	oversize []int32
}

// NewGridIndex returns an empty GridIndex. A cellSize <= 0 means DefaultCellSize.
func NewGridIndex(cellSize float64) *GridIndex {
	if !(cellSize > 0) || math.IsInf(cellSize, 1) {
		cellSize = DefaultCellSize
	}
	return &GridIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int32),
	}
}

func (ix *GridIndex) CellSize() float64 {
	return ix.cellSize
}

func (ix *GridIndex) cell(v float64) int32 {
	c := math.Floor(v / ix.cellSize)
	if c < -maxCell {
		return -maxCell
	}
	if c > maxCell {
		return maxCell
	}
	return int32(c)
}

// cellRange returns the inclusive cell range of b and the number of cells in it.
func (ix *GridIndex) cellRange(b Box) (x0, y0, x1, y1 int32, n int64) {
	x0, y0 = ix.cell(b[0]), ix.cell(b[1])
	x1, y1 = ix.cell(b[2]), ix.cell(b[3])
	n = (int64(x1) - int64(x0) + 1) * (int64(y1) - int64(y0) + 1)
	return
}

func (ix *GridIndex) Insert(b Box) {
	b = b.normalize()
	if !b.IsFinite() {
		return
	}
	id := int32(len(ix.boxes))
	ix.boxes = append(ix.boxes, b)
	x0, y0, x1, y1, n := ix.cellRange(b)
	if n > maxCellsPerBox {
		ix.oversize = append(ix.oversize, id)
		return
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			k := cellKey{x, y}
			ix.cells[k] = append(ix.cells[k], id)
		}
	}
}

func (ix *GridIndex) BulkInsert(bs []Box) {
	for _, b := range bs {
		ix.Insert(b)
	}
}

func (ix *GridIndex) Collides(b Box) bool {
	b = b.normalize()
	if !b.IsFinite() {
		return false
	}
	x0, y0, x1, y1, n := ix.cellRange(b)
	if n > int64(len(ix.boxes)) {
		// cheaper to look at every box
		for _, o := range ix.boxes {
			if b.Overlaps(o) {
				return true
			}
		}
		return false
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			for _, id := range ix.cells[cellKey{x, y}] {
				if b.Overlaps(ix.boxes[id]) {
					return true
				}
			}
		}
	}
	for _, id := range ix.oversize {
		if b.Overlaps(ix.boxes[id]) {
			return true
		}
	}
	return false
}

// Clear empties the index. Buckets used since the previous Clear are kept for the next frame,
// buckets that stayed empty for a whole frame are dropped, so the map only holds the cells of
// the last two frames.
func (ix *GridIndex) Clear() {
	for k, ids := range ix.cells {
		if len(ids) == 0 {
			delete(ix.cells, k)
			continue
		}
		ix.cells[k] = ids[:0]
	}
	ix.boxes = ix.boxes[:0]
	ix.oversize = ix.oversize[:0]
}

func (ix *GridIndex) Len() int {
	return len(ix.boxes)
}
