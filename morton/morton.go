// Package morton encodes tile column/row offsets as Z-order codes,
// so that tiles that are close on the grid are also close in iteration order.
package morton

import (
	"fmt"
	"math"
)

type Z = uint64

var (
	masks = [...]uint64{
		0x5555555555555555,
		0x3333333333333333,
		0x0F0F0F0F0F0F0F0F,
		0x00FF00FF00FF00FF,
		0x0000FFFF0000FFFF,
		0x00000000FFFFFFFF,
	}
	shifts = [...]uint{1, 2, 4, 8, 16}
)

// spread inserts a zero bit before every bit of the lower 32 bits of v.
func spread(v uint64) uint64 {
	v &= masks[5]
	for i := len(shifts) - 1; i >= 0; i-- {
		v = (v | (v << shifts[i])) & masks[i]
	}
	return v
}

// compact is the inverse of spread: it collects every other bit.
func compact(v uint64) uint64 {
	v &= masks[0]
	for i := 0; i < len(shifts); i++ {
		v = (v | (v >> shifts[i])) & masks[i+1]
	}
	return v
}

// ToZ interleaves x (even bits) and y (odd bits). ok is false if either does not fit in 32 bits.
func ToZ(x, y uint64) (z Z, ok bool) {
	ok = x <= math.MaxUint32 && y <= math.MaxUint32
	return spread(x) | spread(y)<<1, ok
}

func MustToZ(x, y uint64) Z {
	z, ok := ToZ(x, y)
	if !ok {
		panic(fmt.Errorf(`cannot make Z out of %v and %v`, x, y))
	}
	return z
}

func FromZ(z Z) (x, y uint64) {
	return compact(z), compact(z >> 1)
}
