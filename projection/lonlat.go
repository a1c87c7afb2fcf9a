package projection

import (
	"github.com/pdok/maptile/geo"
)

const (
	EPSG4326 = "EPSG:4326"
	// EPSG4490 is CGCS2000, treated like WGS84 at map scale.
	EPSG4490 = "EPSG:4490"
)

// LonLat is a geographic "projection": projected coordinates are longitude and latitude.
// Coordinates outside [-180, 180] x [-90, 90] are rejected with geo.ErrOutOfDomain in both
// directions.
type LonLat struct {
	Sphere
	code string
}

func NewWGS84() LonLat {
	return LonLat{Sphere: WGS84Sphere, code: EPSG4326}
}

func NewCGCS2000() LonLat {
	return LonLat{Sphere: WGS84Sphere, code: EPSG4490}
}

func (p LonLat) Code() string {
	return p.code
}

func (LonLat) Project(c geo.Coordinate) (geo.Coordinate, error) {
	if err := checkLonLat(c); err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}

func (LonLat) Unproject(c geo.Coordinate) (geo.Coordinate, error) {
	if err := checkLonLat(c); err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}
