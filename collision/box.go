// Package collision answers "does this screen box overlap anything placed so far" while a frame
// is laid out, so labels and markers that would cover each other can be skipped.
// Indexes are rebuilt every frame and are not safe for concurrent use.
package collision

import (
	"fmt"
	"math"
)

// Box is a screen-space rectangle: xmin, ymin, xmax, ymax in pixels.
type Box [4]float64

// NewBox returns a box with its bounds in order.
func NewBox(xmin, ymin, xmax, ymax float64) Box {
	return Box{xmin, ymin, xmax, ymax}.normalize()
}

func (b Box) normalize() Box {
	if b[0] > b[2] {
		b[0], b[2] = b[2], b[0]
	}
	if b[1] > b[3] {
		b[1], b[3] = b[3], b[1]
	}
	return b
}

// IsFinite reports whether all bounds are finite. Other boxes are never indexed and never collide.
func (b Box) IsFinite() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Overlaps reports whether the interiors of b and o intersect. Boxes that only touch do not overlap.
func (b Box) Overlaps(o Box) bool {
	return b[0] < o[2] && b[2] > o[0] && b[1] < o[3] && b[3] > o[1]
}

// Buffer grows the box by d pixels on every side.
func (b Box) Buffer(d float64) Box {
	return NewBox(b[0]-d, b[1]-d, b[2]+d, b[3]+d)
}

func (b Box) Width() float64 {
	return b[2] - b[0]
}

func (b Box) Height() float64 {
	return b[3] - b[1]
}

func (b Box) String() string {
	return fmt.Sprintf("[%v %v %v %v]", b[0], b[1], b[2], b[3])
}
