package collision

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50
)

type treeEntry struct {
	box  Box
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *treeEntry) Bounds() rtreego.Rect {
	return e.rect
}

// TreeIndex keeps the boxes in an R-tree. It does better than GridIndex when box sizes vary a lot,
// e.g. a few huge boxes among many small ones.
type TreeIndex struct {
	tree *rtreego.Rtree
	n    int
}

func NewTreeIndex() *TreeIndex {
	return &TreeIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

// rect returns the R-tree rectangle of a finite, normalized box.
func rect(b Box) rtreego.Rect {
	r, err := rtreego.NewRect(rtreego.Point{b[0], b[1]}, []float64{side(b[0], b.Width()), side(b[1], b.Height())})
	if err != nil {
		// side never returns a length <= 0
		panic(err)
	}
	return r
}

// side pads a zero length, which the R-tree does not accept. The tree only preselects candidates,
// the overlap itself is tested on the boxes.
func side(at, length float64) float64 {
	if length > 0 {
		return length
	}
	return 1e-9 * math.Max(1, math.Abs(at))
}

func (ix *TreeIndex) Insert(b Box) {
	b = b.normalize()
	if !b.IsFinite() {
		return
	}
	ix.tree.Insert(&treeEntry{box: b, rect: rect(b)})
	ix.n++
}

// BulkInsert loads the boxes in one go when the index is empty, which gives a better balanced tree.
func (ix *TreeIndex) BulkInsert(bs []Box) {
	if ix.n > 0 {
		for _, b := range bs {
			ix.Insert(b)
		}
		return
	}
	entries := make([]rtreego.Spatial, 0, len(bs))
	for _, b := range bs {
		b = b.normalize()
		if !b.IsFinite() {
			continue
		}
		entries = append(entries, &treeEntry{box: b, rect: rect(b)})
	}
	ix.tree = rtreego.NewTree(dimensions, minChildren, maxChildren, entries...)
	ix.n = len(entries)
}

func (ix *TreeIndex) Collides(b Box) bool {
	b = b.normalize()
	if !b.IsFinite() || ix.n == 0 {
		return false
	}
	for _, s := range ix.tree.SearchIntersect(rect(b)) {
		if b.Overlaps(s.(*treeEntry).box) {
			return true
		}
	}
	return false
}

func (ix *TreeIndex) Clear() {
	ix.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	ix.n = 0
}

func (ix *TreeIndex) Len() int {
	return ix.n
}
