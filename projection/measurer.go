package projection

import (
	"math"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/geomhelp"
	"github.com/pdok/maptile/mathhelp"
)

// WGS84SphereRadius is the radius used by the geographic measurer, in metres.
const WGS84SphereRadius = 6378137.0

// Sphere measures lon/lat coordinates on a sphere.
type Sphere struct {
	Radius float64
}

var WGS84Sphere = Sphere{Radius: WGS84SphereRadius}

func (s Sphere) Distance(a, b geo.Coordinate) float64 {
	return geomhelp.Haversine(a.X, a.Y, b.X, b.Y, s.Radius)
}

func (s Sphere) Area(ring []geo.Coordinate) float64 {
	return geomhelp.SphericalRingArea(toPoints(ring), s.Radius)
}

// Locate moves dx metres along the parallel and dy metres along the meridian.
func (s Sphere) Locate(c geo.Coordinate, dx, dy float64) (geo.Coordinate, error) {
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, err
	}
	lat := c.Y + mathhelp.ToDegrees(dy/s.Radius)
	cos := math.Cos(mathhelp.ToRadians(c.Y))
	lon := c.X
	if cos > 1e-12 {
		lon += mathhelp.ToDegrees(dx / (s.Radius * cos))
	}
	return geo.NewCoordinate(lon, lat)
}

// Planar measures in a Cartesian plane, in the unit of the coordinates.
type Planar struct{}

func (Planar) Distance(a, b geo.Coordinate) float64 {
	return a.DistanceTo(b)
}

func (Planar) Area(ring []geo.Coordinate) float64 {
	return geomhelp.Shoelace(toPoints(ring))
}

func (Planar) Locate(c geo.Coordinate, dx, dy float64) (geo.Coordinate, error) {
	return geo.NewCoordinate(c.X+dx, c.Y+dy)
}

func toPoints(ring []geo.Coordinate) [][2]float64 {
	pts := make([][2]float64, len(ring))
	for i, c := range ring {
		pts[i] = [2]float64{c.X, c.Y}
	}
	return pts
}
