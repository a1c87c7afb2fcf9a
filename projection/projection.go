// Package projection maps geographic coordinates (longitude, latitude in degrees) to a planar
// projected space and back, and measures lengths and areas consistently with that space.
//
// Projections are stateless values and safe for concurrent use.
package projection

import (
	"errors"
	"fmt"

	"github.com/pdok/maptile/geo"
)

// ErrUnknown is returned for a projection code that is not registered.
var ErrUnknown = errors.New("unknown projection")

// Measurer measures in the coordinate space of its projection's geographic side.
type Measurer interface {
	// Distance between two coordinates, in metres for geographic measurers.
	Distance(a, b geo.Coordinate) float64
	// Area enclosed by a ring. The ring may or may not be closed.
	Area(ring []geo.Coordinate) float64
	// Locate returns the coordinate dx east and dy north of c.
	Locate(c geo.Coordinate, dx, dy float64) (geo.Coordinate, error)
}

// Projection is a forward/inverse mapping between geographic and projected coordinates.
// Project(Unproject(c)) equals c within floating point tolerance for all c inside the domain.
type Projection interface {
	geo.Projector
	Measurer
}

// ProjectAll projects every coordinate, stopping at the first error.
func ProjectAll(p Projection, cs []geo.Coordinate) ([]geo.Coordinate, error) {
	return convertAll(cs, p.Project)
}

// UnprojectAll unprojects every coordinate, stopping at the first error.
func UnprojectAll(p Projection, cs []geo.Coordinate) ([]geo.Coordinate, error) {
	return convertAll(cs, p.Unproject)
}

func convertAll(cs []geo.Coordinate, f func(geo.Coordinate) (geo.Coordinate, error)) ([]geo.Coordinate, error) {
	out := make([]geo.Coordinate, len(cs))
	for i, c := range cs {
		var err error
		if out[i], err = f(c); err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
	}
	return out, nil
}

func checkLonLat(c geo.Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.X < -180 || c.X > 180 || c.Y < -90 || c.Y > 90 {
		return fmt.Errorf("longitude/latitude %v: %w", c, geo.ErrOutOfDomain)
	}
	return nil
}
