package tileconfig

import (
	"fmt"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/spatialref"
)

// Binding ties a tile system and tile size to whatever spatial reference a map currently uses.
// The derived TileConfig is rebuilt only when it is handed a spatial reference with another
// version. The tile system and size are fixed at construction, so a cached TileConfig always
// matches them. A Binding belongs to one consumer and is not safe for concurrent use.
type Binding struct {
	tileSystem TileSystem
	size       Size

	config  *TileConfig
	version uint64
}

// NewBinding returns a Binding for ts and size. A zero size means DefaultSize.
func NewBinding(ts TileSystem, size Size) *Binding {
	if size == (Size{}) {
		size = DefaultSize
	}
	return &Binding{tileSystem: ts, size: size}
}

func (b *Binding) TileSystem() TileSystem {
	return b.tileSystem
}

func (b *Binding) Size() Size {
	return b.size
}

// Resolve returns the TileConfig for sr, rebuilding it when sr is not the spatial reference the
// current one was built from.
func (b *Binding) Resolve(sr *spatialref.SpatialReference) (*TileConfig, error) {
	if sr == nil {
		return nil, fmt.Errorf("%w: no spatial reference", ErrInvalidConfig)
	}
	if b.config != nil && b.version == sr.Version() {
		return b.config, nil
	}
	tc, err := ForSpatialReference(sr, b.tileSystem, b.size)
	if err != nil {
		b.config, b.version = nil, 0
		return nil, err
	}
	b.config, b.version = tc, sr.Version()
	return tc, nil
}

// Version is the version of the spatial reference the current TileConfig was built from,
// 0 if there is none.
func (b *Binding) Version() uint64 {
	return b.version
}

// Range returns the tiles covering a projected view extent at a zoom level of sr.
func (b *Binding) Range(sr *spatialref.SpatialReference, view geo.Extent, zoom int) (TileRange, error) {
	tc, err := b.Resolve(sr)
	if err != nil {
		return EmptyRange(), err
	}
	res, err := sr.ResolutionAt(zoom)
	if err != nil {
		return EmptyRange(), err
	}
	return tc.RangeFor(view, res)
}
