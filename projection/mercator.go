package projection

import (
	"math"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/mathhelp"
)

const (
	EPSG3857 = "EPSG:3857"

	// MercatorRadius is the sphere radius of web mercator, in metres.
	MercatorRadius = 6378137.0
	// MercatorMaxLatitude is the latitude at which web mercator becomes square.
	MercatorMaxLatitude = 85.0511287798
	// MercatorOriginShift is half the projected width of the world.
	MercatorOriginShift = math.Pi * MercatorRadius
)

// SphericalMercator is EPSG:3857.
//
// Domain policy: longitudes outside [-180, 180] and latitudes outside [-90, 90] are rejected
// with geo.ErrOutOfDomain. Latitudes between MercatorMaxLatitude and the pole are clamped to
// ±MercatorMaxLatitude, so the round trip only holds within ±MercatorMaxLatitude.
// Unproject does not clamp.
type SphericalMercator struct {
	Sphere
}

func NewSphericalMercator() SphericalMercator {
	return SphericalMercator{Sphere: WGS84Sphere}
}

func (SphericalMercator) Code() string {
	return EPSG3857
}

func (SphericalMercator) Project(c geo.Coordinate) (geo.Coordinate, error) {
	if err := checkLonLat(c); err != nil {
		return geo.Coordinate{}, err
	}
	lat := mathhelp.Clamp(c.Y, -MercatorMaxLatitude, MercatorMaxLatitude)
	x := MercatorRadius * mathhelp.ToRadians(c.X)
	y := MercatorRadius * math.Log(math.Tan(math.Pi/4+mathhelp.ToRadians(lat)/2))
	return geo.Coordinate{X: x, Y: y}, nil
}

func (SphericalMercator) Unproject(c geo.Coordinate) (geo.Coordinate, error) {
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, err
	}
	lon := mathhelp.ToDegrees(c.X / MercatorRadius)
	lat := mathhelp.ToDegrees(2*math.Atan(math.Exp(c.Y/MercatorRadius)) - math.Pi/2)
	return geo.Coordinate{X: lon, Y: lat}, nil
}
