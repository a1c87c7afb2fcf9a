package mathhelp

import (
	"math"

	"golang.org/x/exp/constraints"
)

// snapTolerance is the relative distance to an integer below which a float counts as that integer,
// with a floor of 1e-9 in absolute terms.
// Tile math divides large projected spans by small tile spans, which leaves results like
// 6465.000000000001 for extents that lie exactly on a tile boundary.
const snapTolerance = 1e-12

// SnapToInt returns the nearest integer when f is within tolerance of it, else f.
func SnapToInt(f float64) float64 {
	r := math.Round(f)
	if math.Abs(f-r) <= snapTolerance*math.Max(1e3, math.Abs(f)) {
		return r
	}
	return f
}

// FloorSnapped is math.Floor after SnapToInt.
func FloorSnapped(f float64) int {
	return int(math.Floor(SnapToInt(f)))
}

// CeilSnapped is math.Ceil after SnapToInt.
func CeilSnapped(f float64) int {
	return int(math.Ceil(SnapToInt(f)))
}

// EuclidianMod is a modulo whose result has the sign of m.
func EuclidianMod[T constraints.Integer](d, m T) T {
	r := d % m
	if (r < 0 && m > 0) || (r > 0 && m < 0) {
		return r + m
	}
	return r
}

func Pow2(n uint) uint {
	return 1 << n
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// ToRadians converts degrees.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
