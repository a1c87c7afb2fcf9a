package tileconfig

import (
	"fmt"
	"slices"

	"github.com/pdok/maptile/morton"
)

// TileRange is an inclusive range of tile indices. A range with MaxCol < MinCol or
// MaxRow < MinRow is empty.
type TileRange struct {
	MinCol, MinRow, MaxCol, MaxRow int
}

func EmptyRange() TileRange {
	return TileRange{MinCol: 0, MinRow: 0, MaxCol: -1, MaxRow: -1}
}

func (r TileRange) IsEmpty() bool {
	return r.MaxCol < r.MinCol || r.MaxRow < r.MinRow
}

func (r TileRange) Cols() int {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxCol - r.MinCol + 1
}

func (r TileRange) Rows() int {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxRow - r.MinRow + 1
}

// Count is the number of tiles in the range.
func (r TileRange) Count() int {
	return r.Cols() * r.Rows()
}

func (r TileRange) Contains(i TileIndex) bool {
	return r.MinCol <= i.Col && i.Col <= r.MaxCol && r.MinRow <= i.Row && i.Row <= r.MaxRow
}

// Intersect returns the tiles in both ranges.
func (r TileRange) Intersect(o TileRange) TileRange {
	if r.IsEmpty() || o.IsEmpty() {
		return EmptyRange()
	}
	i := TileRange{
		MinCol: max(r.MinCol, o.MinCol),
		MinRow: max(r.MinRow, o.MinRow),
		MaxCol: min(r.MaxCol, o.MaxCol),
		MaxRow: min(r.MaxRow, o.MaxRow),
	}
	if i.IsEmpty() {
		return EmptyRange()
	}
	return i
}

// Tiles lists every tile of the range in Z-order of its offset to (MinCol, MinRow), so tiles
// that are close on the grid follow each other.
func (r TileRange) Tiles() []TileIndex {
	if r.IsEmpty() {
		return nil
	}
	type keyed struct {
		z morton.Z
		i TileIndex
	}
	tiles := make([]keyed, 0, r.Count())
	for row := r.MinRow; row <= r.MaxRow; row++ {
		for col := r.MinCol; col <= r.MaxCol; col++ {
			z := morton.MustToZ(uint64(col-r.MinCol), uint64(row-r.MinRow))
			tiles = append(tiles, keyed{z: z, i: TileIndex{Col: col, Row: row}})
		}
	}
	slices.SortFunc(tiles, func(a, b keyed) int {
		switch {
		case a.z < b.z:
			return -1
		case a.z > b.z:
			return 1
		}
		return 0
	})
	result := make([]TileIndex, len(tiles))
	for n, t := range tiles {
		result[n] = t.i
	}
	return result
}

// String formats the range as minCol,minRow,maxCol,maxRow.
func (r TileRange) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.MinCol, r.MinRow, r.MaxCol, r.MaxRow)
}
