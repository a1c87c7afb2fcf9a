// Package spatialref composes a projection with a resolution ladder and the full extent of the
// projected space. A SpatialReference is the single source of truth for how many projected units
// one pixel covers at a zoom level, and for the valid coordinate domain.
package spatialref

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/projection"
)

var (
	// ErrInvalidConfig is returned by constructors for an inconsistent or malformed configuration.
	ErrInvalidConfig = errors.New("invalid spatial reference configuration")
	// ErrZoomOutOfRange is returned for a zoom level outside the resolution ladder.
	ErrZoomOutOfRange = errors.New("zoom out of range")
	// ErrInvalidResolution is returned for a resolution that is not a positive finite number.
	ErrInvalidResolution = errors.New("invalid resolution")
)

// maxPixels bounds the number of pixels the full extent may span at the finest resolution,
// so that every tile index derived from it is exact in a float64.
const maxPixels = 1 << 53

var versions atomic.Uint64

// SpatialReference is immutable and safe for concurrent use.
type SpatialReference struct {
	projection projection.Projection
	ladder     Ladder
	fullExtent geo.Extent
	version    uint64
}

// New validates the combination and returns a SpatialReference. On error nothing is returned.
func New(p projection.Projection, ladder Ladder, fullExtent geo.Extent) (*SpatialReference, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no projection", ErrInvalidConfig)
	}
	if ladder.Len() == 0 {
		return nil, fmt.Errorf("%w: empty resolution ladder", ErrInvalidConfig)
	}
	if !fullExtent.IsValid() {
		return nil, fmt.Errorf("%w: invalid full extent", ErrInvalidConfig)
	}
	if fullExtent.Width() <= 0 || fullExtent.Height() <= 0 {
		return nil, fmt.Errorf("%w: full extent %v has no area", ErrInvalidConfig, fullExtent)
	}
	span := math.Max(fullExtent.Width(), fullExtent.Height())
	finest, _ := ladder.ResolutionAt(ladder.MaxZoom())
	if pixels := span / finest; !geo.IsFinite(pixels) || pixels > maxPixels {
		return nil, fmt.Errorf("%w: full extent %v spans %v pixels at resolution %v",
			ErrInvalidConfig, fullExtent, pixels, finest)
	}
	return &SpatialReference{
		projection: p,
		ladder:     ladder,
		fullExtent: fullExtent.WithProjection(p),
		version:    versions.Add(1),
	}, nil
}

func (sr *SpatialReference) Projection() projection.Projection {
	return sr.projection
}

func (sr *SpatialReference) Ladder() Ladder {
	return sr.ladder
}

// FullExtent is in projected space.
func (sr *SpatialReference) FullExtent() geo.Extent {
	return sr.fullExtent
}

// Version identifies this instance. Every SpatialReference gets a new token, so consumers that
// derived state from one can tell when they are handed another.
func (sr *SpatialReference) Version() uint64 {
	return sr.version
}

func (sr *SpatialReference) ResolutionAt(zoom int) (float64, error) {
	return sr.ladder.ResolutionAt(zoom)
}

func (sr *SpatialReference) ZoomForResolution(res float64) (int, error) {
	return sr.ladder.ZoomForResolution(res)
}

func (sr *SpatialReference) MinZoom() int {
	return sr.ladder.MinZoom()
}

func (sr *SpatialReference) MaxZoom() int {
	return sr.ladder.MaxZoom()
}

// FitZoom returns the deepest zoom at which a projected extent fits in a viewport of
// width x height pixels, or the minimum zoom if it does not fit at all.
func (sr *SpatialReference) FitZoom(extent geo.Extent, width, height float64) (int, error) {
	if !extent.IsValid() {
		return 0, fmt.Errorf("cannot fit an empty extent")
	}
	if !geo.IsFinite(width) || !geo.IsFinite(height) || width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid viewport size %vx%v", width, height)
	}
	needed := math.Max(extent.Width()/width, extent.Height()/height)
	for z := sr.ladder.MaxZoom(); z > sr.ladder.MinZoom(); z-- {
		if sr.ladder.resolutions[z] >= needed {
			return z, nil
		}
	}
	return sr.ladder.MinZoom(), nil
}

// Project projects a geographic coordinate and checks it against the full extent.
func (sr *SpatialReference) Project(c geo.Coordinate) (geo.Coordinate, bool, error) {
	p, err := sr.projection.Project(c)
	if err != nil {
		return geo.Coordinate{}, false, err
	}
	return p, sr.fullExtent.Contains(p), nil
}

// Equals compares projection code, ladder and full extent, not the version.
func (sr *SpatialReference) Equals(o *SpatialReference) bool {
	if sr == nil || o == nil {
		return sr == o
	}
	return sr.projection.Code() == o.projection.Code() &&
		sr.ladder.equals(o.ladder) &&
		sr.fullExtent.Equals(o.fullExtent)
}

func (sr *SpatialReference) String() string {
	return fmt.Sprintf("%s zoom %d-%d %v", sr.projection.Code(), sr.MinZoom(), sr.MaxZoom(), sr.fullExtent)
}
