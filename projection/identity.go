package projection

import (
	"github.com/pdok/maptile/geo"
)

const Identity = "IDENTITY"

// IdentityProjection leaves coordinates untouched and measures them in a plane.
// Every finite coordinate is inside its domain.
type IdentityProjection struct {
	Planar
}

func (IdentityProjection) Code() string {
	return Identity
}

func (IdentityProjection) Project(c geo.Coordinate) (geo.Coordinate, error) {
	return c, c.Validate()
}

func (IdentityProjection) Unproject(c geo.Coordinate) (geo.Coordinate, error) {
	return c, c.Validate()
}
