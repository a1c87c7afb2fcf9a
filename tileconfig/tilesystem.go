package tileconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/mapslicehelp"
	"github.com/pdok/maptile/projection"
)

// TileSystem says where tile (0, 0) starts and in which direction indices grow.
// A sign of 1 means indices grow with the projected axis, -1 means against it
// (e.g. rows counting down from a top-left origin).
type TileSystem struct {
	XSign, YSign     float64
	OriginX, OriginY float64
}

// Named tile systems.
const (
	WebMercator       = "web-mercator"
	TMSGlobalMercator = "tms-global-mercator"
	TMSGlobalGeodetic = "tms-global-geodetic"
	IdentitySystem    = "identity"
	BaiduSystem       = "baidu"
)

var namedTileSystems = func() *orderedmap.OrderedMap[string, TileSystem] {
	s := projection.MercatorOriginShift
	m := orderedmap.New[string, TileSystem]()
	m.Set(WebMercator, TileSystem{XSign: 1, YSign: -1, OriginX: -s, OriginY: s})
	m.Set(TMSGlobalMercator, TileSystem{XSign: 1, YSign: 1, OriginX: -s, OriginY: -s})
	m.Set(TMSGlobalGeodetic, TileSystem{XSign: 1, YSign: 1, OriginX: -180, OriginY: -90})
	m.Set(IdentitySystem, TileSystem{XSign: 1, YSign: -1, OriginX: 0, OriginY: 0})
	m.Set(BaiduSystem, TileSystem{XSign: 1, YSign: 1, OriginX: 0, OriginY: 0})
	return m
}()

// NewTileSystem validates the signs and origin.
func NewTileSystem(xsign, ysign, originX, originY float64) (TileSystem, error) {
	ts := TileSystem{XSign: xsign, YSign: ysign, OriginX: originX, OriginY: originY}
	return ts, ts.Validate()
}

func (ts TileSystem) Validate() error {
	if (ts.XSign != 1 && ts.XSign != -1) || (ts.YSign != 1 && ts.YSign != -1) {
		return fmt.Errorf("%w: tile system signs should be 1 or -1, got %v, %v", ErrInvalidConfig, ts.XSign, ts.YSign)
	}
	if !geo.IsFinite(ts.OriginX) || !geo.IsFinite(ts.OriginY) {
		return fmt.Errorf("%w: tile system origin %v, %v is not finite", ErrInvalidConfig, ts.OriginX, ts.OriginY)
	}
	return nil
}

// Origin is the projected corner of tile (0, 0).
func (ts TileSystem) Origin() geo.Coordinate {
	return geo.Coordinate{X: ts.OriginX, Y: ts.OriginY}
}

// NamedTileSystem returns one of the well-known tile systems.
func NamedTileSystem(name string) (TileSystem, bool) {
	return namedTileSystems.Get(strings.ToLower(name))
}

// TileSystemNames lists the well-known tile systems.
func TileSystemNames() []string {
	return mapslicehelp.OrderedMapKeys(namedTileSystems)
}

// DefaultTileSystem returns the tile system commonly used with a projection:
// the TMS geodetic grid for geographic projections, the identity grid for IDENTITY, the
// bottom-left grid at the origin for BAIDU and the web mercator (top-left origin) grid for
// everything else.
func DefaultTileSystem(code string) TileSystem {
	var name string
	switch strings.ToUpper(code) {
	case projection.EPSG4326, projection.EPSG4490:
		name = TMSGlobalGeodetic
	case projection.Identity:
		name = IdentitySystem
	case projection.Baidu:
		name = BaiduSystem
	default:
		name = WebMercator
	}
	ts, _ := NamedTileSystem(name)
	return ts
}

// MarshalJSON writes the [xsign, ysign, originX, originY] array.
func (ts TileSystem) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{ts.XSign, ts.YSign, ts.OriginX, ts.OriginY})
}

// UnmarshalJSON reads a [xsign, ysign, originX, originY] array or the name of a well-known
// tile system.
func (ts *TileSystem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		named, ok := NamedTileSystem(name)
		if !ok {
			return fmt.Errorf("%w: unknown tile system %q", ErrInvalidConfig, name)
		}
		*ts = named
		return nil
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("%w: tile system should be an array of 4 numbers: %w", ErrInvalidConfig, err)
	}
	if len(values) != 4 {
		return fmt.Errorf("%w: tile system should have 4 numbers, got %d", ErrInvalidConfig, len(values))
	}
	parsed, err := NewTileSystem(values[0], values[1], values[2], values[3])
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

func (ts TileSystem) String() string {
	return fmt.Sprintf("[%v, %v, %v, %v]", ts.XSign, ts.YSign, ts.OriginX, ts.OriginY)
}
