// Package geo holds the value types shared by projections, spatial references and tile math:
// a Coordinate (x, y pair) and an axis-aligned Extent.
//
// Both are immutable values. Arithmetic returns new values, the only in-place operation is
// (*Coordinate).Translate.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-spatial/geom"
)

var (
	// ErrNotFinite is returned when a coordinate or bound is NaN or infinite.
	ErrNotFinite = errors.New("not a finite number")
	// ErrOutOfDomain is returned by projections for coordinates outside their valid domain.
	ErrOutOfDomain = errors.New("coordinate out of projection domain")
)

// Coordinate is a (x, y) pair in either geographic (x = longitude, y = latitude)
// or projected space.
type Coordinate struct {
	X float64
	Y float64
}

// NewCoordinate returns a Coordinate, rejecting NaN and infinite components.
func NewCoordinate(x, y float64) (Coordinate, error) {
	if !IsFinite(x) || !IsFinite(y) {
		return Coordinate{}, fmt.Errorf("coordinate (%v, %v): %w", x, y, ErrNotFinite)
	}
	return Coordinate{X: x, Y: y}, nil
}

// MustCoordinate is NewCoordinate that panics on non-finite input.
func MustCoordinate(x, y float64) Coordinate {
	c, err := NewCoordinate(x, y)
	if err != nil {
		panic(err)
	}
	return c
}

// FromGeomPoint converts a go-spatial point.
func FromGeomPoint(p geom.Point) (Coordinate, error) {
	return NewCoordinate(p.X(), p.Y())
}

func (c Coordinate) ToGeomPoint() geom.Point {
	return geom.Point{c.X, c.Y}
}

// IsFinite reports whether both components are finite.
func (c Coordinate) IsFinite() bool {
	return IsFinite(c.X) && IsFinite(c.Y)
}

// Validate returns ErrNotFinite (wrapped) for a non-finite coordinate.
func (c Coordinate) Validate() error {
	if !c.IsFinite() {
		return fmt.Errorf("coordinate (%v, %v): %w", c.X, c.Y, ErrNotFinite)
	}
	return nil
}

func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{c.X + o.X, c.Y + o.Y}
}

func (c Coordinate) Sub(o Coordinate) Coordinate {
	return Coordinate{c.X - o.X, c.Y - o.Y}
}

// Multi scales both components by f.
func (c Coordinate) Multi(f float64) Coordinate {
	return Coordinate{c.X * f, c.Y * f}
}

// Translate moves c in place.
func (c *Coordinate) Translate(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// Equals compares exactly.
func (c Coordinate) Equals(o Coordinate) bool {
	return c.X == o.X && c.Y == o.Y
}

// ApproxEquals compares with an absolute tolerance per component.
func (c Coordinate) ApproxEquals(o Coordinate, tolerance float64) bool {
	return math.Abs(c.X-o.X) <= tolerance && math.Abs(c.Y-o.Y) <= tolerance
}

// DistanceTo is the planar (Euclidean) distance, regardless of the space c lives in.
func (c Coordinate) DistanceTo(o Coordinate) float64 {
	return math.Hypot(o.X-c.X, o.Y-c.Y)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%v, %v)", c.X, c.Y)
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
