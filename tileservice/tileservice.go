// Package tileservice turns the metadata of a tile service into the spatial reference, tile system
// and tile size needed to address its tiles.
package tileservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"

	"github.com/pdok/maptile/projection"
	"github.com/pdok/maptile/spatialref"
	"github.com/pdok/maptile/tileconfig"
	"github.com/pdok/maptile/tms20"
)

// ErrUnsupported is returned for service metadata that cannot be described by a single tile grid.
var ErrUnsupported = errors.New("unsupported tile service")

// Descriptor is the tile grid of a service, in configuration form.
type Descriptor struct {
	SpatialReference spatialref.Config    `json:"spatialReference"`
	TileSystem       tileconfig.TileSystem `json:"tileSystem"`
	TileSize         tileconfig.Size       `json:"tileSize"`
}

// Build creates the spatial reference and the tile configuration over its full extent.
func (d Descriptor) Build() (*spatialref.SpatialReference, *tileconfig.TileConfig, error) {
	sr, err := spatialref.FromConfig(d.SpatialReference)
	if err != nil {
		return nil, nil, err
	}
	tc, err := tileconfig.ForSpatialReference(sr, d.TileSystem, d.TileSize)
	if err != nil {
		return nil, nil, err
	}
	return sr, tc, nil
}

// Binding returns a tile binding for the descriptor's tile system and size.
func (d Descriptor) Binding() *tileconfig.Binding {
	return tileconfig.NewBinding(d.TileSystem, d.TileSize)
}

// ProjectionFor returns the code of the registered projection for an authority code.
// Codes without a registered projection fall back to IDENTITY, so the grid can still be
// addressed in plain projected coordinates.
func ProjectionFor(code string) string {
	p, err := projection.Get(code)
	if err != nil {
		return projection.Identity
	}
	return p.Code()
}

// FromTileMatrixSet describes an OGC tile matrix set. Its tile matrices should form one uniform grid.
func FromTileMatrixSet(tms tms20.TileMatrixSet) (Descriptor, error) {
	if err := tms.CheckUniformGrid(); err != nil {
		return Descriptor{}, fmt.Errorf("%w: tile matrix set %s: %w", ErrUnsupported, tms.ID, err)
	}
	extent, err := tms.Extent()
	if err != nil {
		return Descriptor{}, err
	}
	tm, _ := tms.TileMatrix(0)
	ts, err := tileconfig.NewTileSystem(1, tm.YSign(), tm.PointOfOrigin[0], tm.PointOfOrigin[1])
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		SpatialReference: spatialref.Config{
			Projection:  ProjectionFor(tms.ProjectionCode()),
			Resolutions: tms.CellSizes(),
			FullExtent:  spatialref.NewExtentConfig(extent),
		},
		TileSystem: ts,
		TileSize:   tileconfig.Size{Width: tm.TileWidth, Height: tm.TileHeight},
	}, nil
}

// Load reads a descriptor from a file, which can hold ArcGIS REST service metadata, an OGC tile
// matrix set or a descriptor itself. An embedded tile matrix set can be named instead of a file.
func Load(pathOrID string) (Descriptor, error) {
	data, err := os.ReadFile(pathOrID)
	if err != nil {
		tms, embeddedErr := tms20.LoadEmbeddedTileMatrixSet(pathOrID)
		if embeddedErr != nil {
			return Descriptor{}, err
		}
		return FromTileMatrixSet(tms)
	}
	return Parse(data)
}

// Parse tells the kind of metadata by its keys.
func Parse(data []byte) (Descriptor, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return Descriptor{}, err
	}
	switch {
	case keys["tileInfo"] != nil:
		return ParseArcGIS(data)
	case keys["tileMatrices"] != nil:
		tms, err := tms20.Parse(data)
		if err != nil {
			return Descriptor{}, err
		}
		return FromTileMatrixSet(tms)
	case keys["spatialReference"] != nil || keys["tileSystem"] != nil:
		d := Descriptor{TileSize: tileconfig.DefaultSize}
		if err := defaults.Set(&d.SpatialReference); err != nil {
			return Descriptor{}, err
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return Descriptor{}, err
		}
		if keys["tileSystem"] == nil {
			d.TileSystem = tileconfig.DefaultTileSystem(d.SpatialReference.Projection)
		}
		return d, nil
	default:
		return Descriptor{}, fmt.Errorf("%w: not ArcGIS metadata, a tile matrix set or a descriptor", ErrUnsupported)
	}
}
