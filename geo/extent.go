package geo

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
)

// Projector is the part of a projection an Extent needs to convert itself.
// projection.Projection satisfies it.
type Projector interface {
	Code() string
	Project(Coordinate) (Coordinate, error)
	Unproject(Coordinate) (Coordinate, error)
}

// Extent is an axis-aligned rectangle.
// The zero value is empty (invalid), which is different from a valid extent with zero area.
type Extent struct {
	XMin, YMin, XMax, YMax float64
	// Projection optionally names the projection the bounds are interpreted with.
	Projection Projector
	valid      bool
}

// NewExtent creates a valid extent. Bounds given in reversed order (max < min) on either axis
// are swapped, so "top < bottom" style configurations are accepted.
func NewExtent(xmin, ymin, xmax, ymax float64) (Extent, error) {
	for _, v := range [4]float64{xmin, ymin, xmax, ymax} {
		if !IsFinite(v) {
			return Extent{}, fmt.Errorf("extent [%v %v %v %v]: %w", xmin, ymin, xmax, ymax, ErrNotFinite)
		}
	}
	if xmin > xmax {
		xmin, xmax = xmax, xmin
	}
	if ymin > ymax {
		ymin, ymax = ymax, ymin
	}
	return Extent{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax, valid: true}, nil
}

// MustExtent is NewExtent that panics on non-finite bounds.
func MustExtent(xmin, ymin, xmax, ymax float64) Extent {
	e, err := NewExtent(xmin, ymin, xmax, ymax)
	if err != nil {
		panic(err)
	}
	return e
}

// ExtentFromCoordinates returns the extent spanned by two corners in any order.
func ExtentFromCoordinates(a, b Coordinate) (Extent, error) {
	return NewExtent(a.X, a.Y, b.X, b.Y)
}

// EmptyExtent returns the explicit empty extent.
func EmptyExtent() Extent {
	return Extent{XMin: math.NaN(), YMin: math.NaN(), XMax: math.NaN(), YMax: math.NaN()}
}

// FromGeomExtent converts a go-spatial extent.
func FromGeomExtent(e geom.Extent) (Extent, error) {
	return NewExtent(e.MinX(), e.MinY(), e.MaxX(), e.MaxY())
}

// WithProjection returns a copy of e tagged with p.
func (e Extent) WithProjection(p Projector) Extent {
	e.Projection = p
	return e
}

func (e Extent) IsValid() bool {
	return e.valid
}

func (e Extent) Width() float64 {
	if !e.valid {
		return 0
	}
	return e.XMax - e.XMin
}

func (e Extent) Height() float64 {
	if !e.valid {
		return 0
	}
	return e.YMax - e.YMin
}

func (e Extent) Area() float64 {
	return e.Width() * e.Height()
}

// Min is the (XMin, YMin) corner.
func (e Extent) Min() Coordinate {
	return Coordinate{e.XMin, e.YMin}
}

// Max is the (XMax, YMax) corner.
func (e Extent) Max() Coordinate {
	return Coordinate{e.XMax, e.YMax}
}

func (e Extent) Center() Coordinate {
	return Coordinate{(e.XMin + e.XMax) / 2, (e.YMin + e.YMax) / 2}
}

// Contains reports whether c lies inside e, edges included.
func (e Extent) Contains(c Coordinate) bool {
	return e.valid && e.XMin <= c.X && c.X <= e.XMax && e.YMin <= c.Y && c.Y <= e.YMax
}

// ContainsExtent reports whether o lies completely inside e.
func (e Extent) ContainsExtent(o Extent) bool {
	return e.valid && o.valid &&
		e.XMin <= o.XMin && o.XMax <= e.XMax && e.YMin <= o.YMin && o.YMax <= e.YMax
}

// Intersects reports whether e and o share at least one point (touching counts).
func (e Extent) Intersects(o Extent) bool {
	return e.valid && o.valid &&
		e.XMin <= o.XMax && o.XMin <= e.XMax && e.YMin <= o.YMax && o.YMin <= e.YMax
}

// Intersection returns the shared part of e and o, or the empty extent.
func (e Extent) Intersection(o Extent) Extent {
	if !e.Intersects(o) {
		return EmptyExtent()
	}
	r := Extent{
		XMin:       math.Max(e.XMin, o.XMin),
		YMin:       math.Max(e.YMin, o.YMin),
		XMax:       math.Min(e.XMax, o.XMax),
		YMax:       math.Min(e.YMax, o.YMax),
		Projection: e.Projection,
		valid:      true,
	}
	return r
}

// Combine returns the smallest extent containing both. Empty operands are ignored.
func (e Extent) Combine(o Extent) Extent {
	switch {
	case !e.valid:
		return o
	case !o.valid:
		return e
	}
	return Extent{
		XMin:       math.Min(e.XMin, o.XMin),
		YMin:       math.Min(e.YMin, o.YMin),
		XMax:       math.Max(e.XMax, o.XMax),
		YMax:       math.Max(e.YMax, o.YMax),
		Projection: e.Projection,
		valid:      true,
	}
}

// Expand grows e by d on every side. A negative d shrinks it, collapsing to the center.
func (e Extent) Expand(d float64) Extent {
	if !e.valid {
		return e
	}
	c := e.Center()
	r := e
	r.XMin = math.Min(e.XMin-d, c.X)
	r.XMax = math.Max(e.XMax+d, c.X)
	r.YMin = math.Min(e.YMin-d, c.Y)
	r.YMax = math.Max(e.YMax+d, c.Y)
	return r
}

// Equals compares the bounds and validity, not the projection.
func (e Extent) Equals(o Extent) bool {
	if !e.valid || !o.valid {
		return e.valid == o.valid
	}
	return e.XMin == o.XMin && e.YMin == o.YMin && e.XMax == o.XMax && e.YMax == o.YMax
}

// Project converts a geographic extent to projected space by projecting its corners.
func (e Extent) Project(p Projector) (Extent, error) {
	return e.convert(p, p.Project)
}

// Unproject converts a projected extent to geographic space by unprojecting its corners.
func (e Extent) Unproject(p Projector) (Extent, error) {
	return e.convert(p, p.Unproject)
}

func (e Extent) convert(p Projector, f func(Coordinate) (Coordinate, error)) (Extent, error) {
	if !e.valid {
		return e, nil
	}
	lo, err := f(e.Min())
	if err != nil {
		return Extent{}, err
	}
	hi, err := f(e.Max())
	if err != nil {
		return Extent{}, err
	}
	r, err := ExtentFromCoordinates(lo, hi)
	if err != nil {
		return Extent{}, err
	}
	return r.WithProjection(p), nil
}

func (e Extent) ToGeomExtent() geom.Extent {
	return geom.Extent{e.XMin, e.YMin, e.XMax, e.YMax}
}

// String returns the extent as a WKT polygon, or EMPTY.
func (e Extent) String() string {
	if !e.valid {
		return "POLYGON EMPTY"
	}
	s, err := wkt.EncodeString(e.ToGeomExtent())
	if err != nil {
		return fmt.Sprintf("[%v %v %v %v]", e.XMin, e.YMin, e.XMax, e.YMax)
	}
	return s
}
