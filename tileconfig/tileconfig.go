// Package tileconfig maps between projected coordinates and tile indices for a tile system,
// a full extent and a tile size. The tile span at a zoom level is size * resolution.
package tileconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-spatial/geom/slippy"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/mathhelp"
	"github.com/pdok/maptile/projection"
	"github.com/pdok/maptile/spatialref"
)

var (
	// ErrInvalidConfig is returned by constructors for an inconsistent tile configuration.
	ErrInvalidConfig = errors.New("invalid tile configuration")
	// ErrInvalidResolution is returned for a resolution that is not a positive finite number.
	ErrInvalidResolution = errors.New("invalid resolution")
)

// Size is the size of a tile in pixels.
type Size struct {
	Width  uint `json:"width"`
	Height uint `json:"height"`
}

// DefaultSize is the common 256x256 tile.
var DefaultSize = Size{Width: 256, Height: 256}

// UnmarshalJSON accepts {"width": w, "height": h}, [w, h] or a single number for square tiles.
func (s *Size) UnmarshalJSON(data []byte) error {
	var side uint
	if err := json.Unmarshal(data, &side); err == nil {
		*s = Size{Width: side, Height: side}
		return nil
	}
	var wh []uint
	if err := json.Unmarshal(data, &wh); err == nil {
		if len(wh) != 2 {
			return fmt.Errorf("%w: tile size should be [width, height], got %v", ErrInvalidConfig, wh)
		}
		*s = Size{Width: wh[0], Height: wh[1]}
		return nil
	}
	type plain Size // no methods, prevents recursion
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("%w: tile size: %w", ErrInvalidConfig, err)
	}
	*s = Size(p)
	return nil
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// TileIndex addresses a tile. Indices can be negative or beyond the full index, for instance
// for repeated worlds. See TileConfig.Wrap.
type TileIndex struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (i TileIndex) String() string {
	return fmt.Sprintf("%d,%d", i.Col, i.Row)
}

// TileConfig is immutable and safe for concurrent use.
type TileConfig struct {
	tileSystem TileSystem
	fullExtent geo.Extent
	size       Size
}

// New validates the configuration. On error nothing is returned.
func New(ts TileSystem, fullExtent geo.Extent, size Size) (*TileConfig, error) {
	if err := ts.Validate(); err != nil {
		return nil, err
	}
	if size.Width == 0 || size.Height == 0 {
		return nil, fmt.Errorf("%w: tile size %v", ErrInvalidConfig, size)
	}
	if !fullExtent.IsValid() {
		return nil, fmt.Errorf("%w: invalid full extent", ErrInvalidConfig)
	}
	return &TileConfig{tileSystem: ts, fullExtent: fullExtent, size: size}, nil
}

// ForSpatialReference builds a TileConfig over the full extent of sr.
func ForSpatialReference(sr *spatialref.SpatialReference, ts TileSystem, size Size) (*TileConfig, error) {
	if sr == nil {
		return nil, fmt.Errorf("%w: no spatial reference", ErrInvalidConfig)
	}
	return New(ts, sr.FullExtent(), size)
}

func (tc *TileConfig) TileSystem() TileSystem {
	return tc.tileSystem
}

func (tc *TileConfig) FullExtent() geo.Extent {
	return tc.fullExtent
}

func (tc *TileConfig) Size() Size {
	return tc.size
}

// span returns the projected width and height of one tile at res.
func (tc *TileConfig) span(res float64) (float64, float64, error) {
	if !geo.IsFinite(res) || res <= 0 {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidResolution, res)
	}
	return float64(tc.size.Width) * res, float64(tc.size.Height) * res, nil
}

// TilePrjExtent returns the projected extent of a tile at res.
func (tc *TileConfig) TilePrjExtent(col, row int, res float64) (geo.Extent, error) {
	w, h, err := tc.span(res)
	if err != nil {
		return geo.Extent{}, err
	}
	ts := tc.tileSystem
	e, err := geo.NewExtent(
		edge(ts.XSign, ts.OriginX, col, w), edge(ts.YSign, ts.OriginY, row, h),
		edge(ts.XSign, ts.OriginX, col+1, w), edge(ts.YSign, ts.OriginY, row+1, h))
	if err != nil {
		return geo.Extent{}, err
	}
	return e.WithProjection(tc.fullExtent.Projection), nil
}

// TileIndex returns the tile containing a projected point at res. A point on a tile edge belongs to
// the tile that starts there. The edges are the ones TilePrjExtent returns, so the tile extent of
// the result always contains p.
func (tc *TileConfig) TileIndex(p geo.Coordinate, res float64) (TileIndex, error) {
	w, h, err := tc.span(res)
	if err != nil {
		return TileIndex{}, err
	}
	if err = p.Validate(); err != nil {
		return TileIndex{}, err
	}
	ts := tc.tileSystem
	return TileIndex{
		Col: axisIndex(ts.XSign, ts.OriginX, p.X, w),
		Row: axisIndex(ts.YSign, ts.OriginY, p.Y, h),
	}, nil
}

// edge is where tile i starts along one axis. Neighbouring tiles share it bit for bit.
func edge(sign, origin float64, i int, span float64) float64 {
	return origin + sign*float64(i)*span
}

// axisIndex returns the i with edge(i) <= v < edge(i+1), comparing in the direction of sign.
// The division can land one tile off near an edge, the comparisons against edge settle it.
func axisIndex(sign, origin, v, span float64) int {
	i := int(math.Floor(sign * (v - origin) / span))
	for sign*v < sign*edge(sign, origin, i, span) {
		i--
	}
	for sign*v >= sign*edge(sign, origin, i+1, span) {
		i++
	}
	return i
}

// FullIndexAt returns the range of tiles covering the full extent at res.
func (tc *TileConfig) FullIndexAt(res float64) (TileRange, error) {
	return tc.indexRange(tc.fullExtent, res)
}

// RangeFor returns the tiles covering a projected extent at res, clipped to the full index.
// The range is empty when the extent is outside the full extent.
func (tc *TileConfig) RangeFor(extent geo.Extent, res float64) (TileRange, error) {
	full, err := tc.FullIndexAt(res)
	if err != nil {
		return EmptyRange(), err
	}
	if !extent.Intersects(tc.fullExtent) {
		return EmptyRange(), nil
	}
	r, err := tc.indexRange(extent, res)
	if err != nil {
		return EmptyRange(), err
	}
	return r.Intersect(full), nil
}

// indexRange converts a projected extent to tile indices. Tiles are half-open: an extent edge
// that falls exactly on a tile boundary does not add the tile beyond it.
func (tc *TileConfig) indexRange(e geo.Extent, res float64) (TileRange, error) {
	w, h, err := tc.span(res)
	if err != nil {
		return EmptyRange(), err
	}
	if !e.IsValid() {
		return EmptyRange(), nil
	}
	ts := tc.tileSystem
	minCol, maxCol := axisRange(ts.XSign, ts.OriginX, e.XMin, e.XMax, w)
	minRow, maxRow := axisRange(ts.YSign, ts.OriginY, e.YMin, e.YMax, h)
	return TileRange{MinCol: minCol, MinRow: minRow, MaxCol: maxCol, MaxRow: maxRow}, nil
}

func axisRange(sign, origin, a, b, span float64) (int, int) {
	ia := sign * (a - origin) / span
	ib := sign * (b - origin) / span
	lo, hi := math.Min(ia, ib), math.Max(ia, ib)
	first := mathhelp.FloorSnapped(lo)
	last := mathhelp.CeilSnapped(hi) - 1
	if last < first {
		// zero width on a boundary
		last = first
	}
	return first, last
}

// slippyTolerance absorbs the rounded world edge (20037508.34) of the slippy grid.
const slippyTolerance = 1e-2

// Slippy returns the z/x/y slippy tile for i when tc tiles EPSG:3857 the way slippy maps do and
// the slippy tile covers the same ground as TilePrjExtent(i, res). Any other grid, zoom or index
// has no slippy tile.
func (tc *TileConfig) Slippy(i TileIndex, z uint, res float64) (*slippy.Tile, bool) {
	if p := tc.fullExtent.Projection; p == nil || p.Code() != projection.EPSG3857 {
		return nil, false
	}
	if i.Col < 0 || i.Row < 0 {
		return nil, false
	}
	grid, err := slippy.NewGrid(3857)
	if err != nil {
		return nil, false
	}
	t := slippy.NewTile(z, uint(i.Col), uint(i.Row))
	ext, ok := slippy.Extent(grid, t)
	if !ok {
		return nil, false
	}
	e, err := tc.TilePrjExtent(i.Col, i.Row, res)
	if err != nil {
		return nil, false
	}
	near := func(a, b float64) bool { return math.Abs(a-b) <= slippyTolerance }
	if !near(ext.MinX(), e.XMin) || !near(ext.MinY(), e.YMin) || !near(ext.MaxX(), e.XMax) || !near(ext.MaxY(), e.YMax) {
		return nil, false
	}
	return t, true
}

// Wrap maps an index into the full index at res, repeating the world in both directions.
func (tc *TileConfig) Wrap(i TileIndex, res float64) (TileIndex, error) {
	full, err := tc.FullIndexAt(res)
	if err != nil {
		return TileIndex{}, err
	}
	return TileIndex{
		Col: full.MinCol + mathhelp.EuclidianMod(i.Col-full.MinCol, full.Cols()),
		Row: full.MinRow + mathhelp.EuclidianMod(i.Row-full.MinRow, full.Rows()),
	}, nil
}

func (tc *TileConfig) String() string {
	return fmt.Sprintf("tile system %v, size %v, full extent %v", tc.tileSystem, tc.size, tc.fullExtent)
}
