// Package geomhelp has the length and area formulas used by the projection measurers,
// plus WKT helpers for debugging output.
package geomhelp

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"

	"github.com/pdok/maptile/mathhelp"
)

// https://en.wikipedia.org/wiki/Shoelace_formula
func Shoelace(pts [][2]float64) float64 {
	sum := 0.
	if len(pts) == 0 {
		return 0.
	}

	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[1]*p1[0] - p0[0]*p1[1]
		p0 = p1
	}
	return math.Abs(sum / 2)
}

// Haversine returns the great-circle distance between two lon/lat points (degrees)
// on a sphere with the given radius. The result has the unit of the radius.
func Haversine(lon1, lat1, lon2, lat2, radius float64) float64 {
	phi1 := mathhelp.ToRadians(lat1)
	phi2 := mathhelp.ToRadians(lat2)
	dPhi := phi2 - phi1
	dLambda := mathhelp.ToRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radius * c
}

// SphericalRingArea returns the area enclosed by a lon/lat ring (degrees) on a sphere.
// The ring may or may not repeat its first point at the end.
// See "Some Algorithms for Polygons on a Sphere", Chamberlain & Duquette, JPL 2007.
func SphericalRingArea(pts [][2]float64, radius float64) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.
	for i := 0; i < n; i++ {
		p1 := pts[i]
		p2 := pts[(i+1)%n]
		sum += mathhelp.ToRadians(p2[0]-p1[0]) *
			(2 + math.Sin(mathhelp.ToRadians(p1[1])) + math.Sin(mathhelp.ToRadians(p2[1])))
	}
	return math.Abs(sum * radius * radius / 2)
}

// WktMustEncode encodes g as WKT, truncated to maxLen runes (0 means no limit).
func WktMustEncode(g geom.Geometry, maxLen uint) string {
	if maxLen == 0 {
		return wkt.MustEncode(g)
	}
	return truncate.StringWithTail(wkt.MustEncode(g), maxLen, "...")
}

// WktMustEncodeExtents encodes every extent on its own line.
func WktMustEncodeExtents(extents []geom.Extent, maxLen uint) string {
	s := ""
	for i := range extents {
		s += WktMustEncode(extents[i], maxLen) + "\n"
	}
	return s
}
