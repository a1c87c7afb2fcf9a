package spatialref

import (
	"fmt"
	"math"
	"sort"

	"github.com/pdok/maptile/geo"
)

// Ladder is the resolution (projected units per pixel) of every zoom level, zoom 0 first.
// Resolutions strictly decrease with zoom. A Ladder is immutable.
type Ladder struct {
	resolutions []float64
}

// NewLadder validates and copies resolutions.
func NewLadder(resolutions []float64) (Ladder, error) {
	if len(resolutions) == 0 {
		return Ladder{}, fmt.Errorf("%w: empty resolution ladder", ErrInvalidConfig)
	}
	rs := make([]float64, len(resolutions))
	for z, r := range resolutions {
		if !geo.IsFinite(r) || r <= 0 {
			return Ladder{}, fmt.Errorf("%w: resolution %v of zoom %d is not a positive number", ErrInvalidConfig, r, z)
		}
		if z > 0 && r >= rs[z-1] {
			return Ladder{}, fmt.Errorf("%w: resolutions should strictly decrease, zoom %d (%v) >= zoom %d (%v)",
				ErrInvalidConfig, z, r, z-1, rs[z-1])
		}
		rs[z] = r
	}
	return Ladder{resolutions: rs}, nil
}

// MustLadder is NewLadder that panics on an invalid ladder.
func MustLadder(resolutions []float64) Ladder {
	l, err := NewLadder(resolutions)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Ladder) Len() int {
	return len(l.resolutions)
}

func (l Ladder) MinZoom() int {
	return 0
}

func (l Ladder) MaxZoom() int {
	return len(l.resolutions) - 1
}

// Resolutions returns a copy of the ladder.
func (l Ladder) Resolutions() []float64 {
	return append([]float64(nil), l.resolutions...)
}

// ResolutionAt returns the resolution of an integer zoom level.
func (l Ladder) ResolutionAt(zoom int) (float64, error) {
	if zoom < l.MinZoom() || zoom > l.MaxZoom() {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrZoomOutOfRange, zoom, l.MinZoom(), l.MaxZoom())
	}
	return l.resolutions[zoom], nil
}

// ResolutionAtFractional interpolates linearly between the two neighbouring levels of a
// fractional zoom, as used while zooming continuously.
func (l Ladder) ResolutionAtFractional(zoom float64) (float64, error) {
	if !geo.IsFinite(zoom) || zoom < float64(l.MinZoom()) || zoom > float64(l.MaxZoom()) {
		return 0, fmt.Errorf("%w: %v not in [%d, %d]", ErrZoomOutOfRange, zoom, l.MinZoom(), l.MaxZoom())
	}
	z := int(math.Floor(zoom))
	if z == l.MaxZoom() {
		return l.resolutions[z], nil
	}
	r0, r1 := l.resolutions[z], l.resolutions[z+1]
	return r0 + (r1-r0)*(zoom-float64(z)), nil
}

// ZoomForResolution returns the zoom level whose resolution is closest to res.
// On an exact tie between two levels the coarser (smaller) zoom wins.
// Resolutions outside the ladder map to its nearest end.
func (l Ladder) ZoomForResolution(res float64) (int, error) {
	i, err := l.bracket(res)
	if err != nil || i == l.MaxZoom() || res >= l.resolutions[i] {
		return i, err
	}
	if res-l.resolutions[i+1] < l.resolutions[i]-res {
		return i + 1, nil
	}
	return i, nil
}

// FractionalZoomForResolution is the inverse of ResolutionAtFractional, clamped to the ladder.
func (l Ladder) FractionalZoomForResolution(res float64) (float64, error) {
	i, err := l.bracket(res)
	if err != nil || i == l.MaxZoom() || res >= l.resolutions[i] {
		return float64(i), err
	}
	r0, r1 := l.resolutions[i], l.resolutions[i+1]
	return float64(i) + (r0-res)/(r0-r1), nil
}

// bracket returns the largest zoom i with resolutions[i] >= res, or 0 when res is coarser
// than the whole ladder.
func (l Ladder) bracket(res float64) (int, error) {
	if !geo.IsFinite(res) || res <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidResolution, res)
	}
	// first zoom that is finer than res
	finer := sort.Search(len(l.resolutions), func(i int) bool {
		return l.resolutions[i] < res
	})
	if finer == 0 {
		return 0, nil
	}
	return finer - 1, nil
}

func (l Ladder) equals(o Ladder) bool {
	if len(l.resolutions) != len(o.resolutions) {
		return false
	}
	for i := range l.resolutions {
		if l.resolutions[i] != o.resolutions[i] {
			return false
		}
	}
	return true
}
