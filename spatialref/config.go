package spatialref

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/projection"
)

// Config is the host supplied description of a spatial reference, usually read from a
// tile service descriptor. Omitted resolutions or full extent fall back to the defaults of
// the projection (see Defaults).
type Config struct {
	// Projection code, e.g. EPSG:3857
	Projection string `default:"EPSG:3857" validate:"required" json:"projection"`
	// Resolution per zoom level, zoom 0 first
	Resolutions []float64 `validate:"omitempty,dive,gt=0" json:"resolutions,omitempty"`
	// Full extent in projected coordinates
	FullExtent *ExtentConfig `json:"-"`
}

func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config // no methods, prevents recursion
	return json.Marshal(struct {
		plain
		SpecialFullExtent *ExtentConfig `json:"fullExtent,omitempty"`
	}{
		plain:             plain(c),
		SpecialFullExtent: c.FullExtent,
	})
}

func (c *Config) UnmarshalJSON(data []byte) error {
	err := defaults.Set(c)
	if err != nil {
		return err
	}

	specials, err := marshmallow.Unmarshal(data, c, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	if rawFullExtent, ok := specials["fullExtent"]; ok && rawFullExtent != nil {
		var e ExtentConfig
		if err = e.UnmarshalJSONFromMap(rawFullExtent); err != nil {
			return fmt.Errorf(`"fullExtent": %w`, err)
		}
		c.FullExtent = &e
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

// ExtentConfig accepts both left/bottom/right/top and xmin/ymin/xmax/ymax keys.
// The bounds may be given in reversed order on either axis ("top < bottom").
type ExtentConfig struct {
	Left   *float64 `validate:"required" json:"left"`
	Bottom *float64 `validate:"required" json:"bottom"`
	Right  *float64 `validate:"required" json:"right"`
	Top    *float64 `validate:"required" json:"top"`
}

func NewExtentConfig(e geo.Extent) *ExtentConfig {
	return &ExtentConfig{Left: &e.XMin, Bottom: &e.YMin, Right: &e.XMax, Top: &e.YMax}
}

func (e *ExtentConfig) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONMapUsingUnmarshalJSONFromMap(e, data)
}

func (e *ExtentConfig) UnmarshalJSONFromMap(data interface{}) error {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf(`data is not a map but a %T`, data)
	}
	targets := []struct {
		keys   [2]string
		target **float64
	}{
		{[2]string{"left", "xmin"}, &e.Left},
		{[2]string{"bottom", "ymin"}, &e.Bottom},
		{[2]string{"right", "xmax"}, &e.Right},
		{[2]string{"top", "ymax"}, &e.Top},
	}
	for _, t := range targets {
		for _, key := range t.keys {
			raw, ok := dataMap[key]
			if !ok {
				continue
			}
			f, ok := raw.(float64)
			if !ok {
				return fmt.Errorf(`%s property is not a number but a %T`, key, raw)
			}
			*t.target = &f
			break
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(e)
}

// Extent normalizes the configured bounds into a valid extent.
func (e *ExtentConfig) Extent() (geo.Extent, error) {
	return geo.NewExtent(*e.Left, *e.Bottom, *e.Right, *e.Top)
}

// ParseConfig decodes a JSON spatial reference configuration.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

// FromConfig builds a SpatialReference, completing the configuration with the defaults of
// its projection where needed.
func FromConfig(c Config) (*SpatialReference, error) {
	p, err := projection.Get(c.Projection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	resolutions := c.Resolutions
	extentConfig := c.FullExtent
	if len(resolutions) == 0 || extentConfig == nil {
		d, err := Defaults(p.Code())
		if err != nil {
			return nil, err
		}
		if len(resolutions) == 0 {
			resolutions = d.Resolutions
		}
		if extentConfig == nil {
			extentConfig = d.FullExtent
		}
	}
	ladder, err := NewLadder(resolutions)
	if err != nil {
		return nil, err
	}
	fullExtent, err := extentConfig.Extent()
	if err != nil {
		return nil, fmt.Errorf("%w: full extent: %w", ErrInvalidConfig, err)
	}
	return New(p, ladder, fullExtent)
}

// Load parses a JSON configuration and builds the SpatialReference.
func Load(data []byte) (*SpatialReference, error) {
	c, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return FromConfig(c)
}

// Config returns the configuration that rebuilds sr.
func (sr *SpatialReference) Config() Config {
	return Config{
		Projection:  sr.projection.Code(),
		Resolutions: sr.ladder.Resolutions(),
		FullExtent:  NewExtentConfig(sr.fullExtent),
	}
}

// Defaults returns the built-in configuration of a registered projection.
func Defaults(code string) (Config, error) {
	switch p, err := projection.Get(code); {
	case err != nil:
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	case p.Code() == projection.EPSG3857:
		const levels = 23
		resolutions := make([]float64, levels)
		for z := range resolutions {
			resolutions[z] = 2 * projection.MercatorOriginShift / (256 * math.Pow(2, float64(z)))
		}
		s := projection.MercatorOriginShift
		return Config{Projection: p.Code(), Resolutions: resolutions, FullExtent: NewExtentConfig(geo.MustExtent(-s, -s, s, s))}, nil
	case p.Code() == projection.EPSG4326 || p.Code() == projection.EPSG4490:
		const levels = 20
		resolutions := make([]float64, levels)
		for z := range resolutions {
			resolutions[z] = 180 / (128 * math.Pow(2, float64(z)))
		}
		return Config{Projection: p.Code(), Resolutions: resolutions, FullExtent: NewExtentConfig(geo.MustExtent(-180, -90, 180, 90))}, nil
	case p.Code() == projection.Identity:
		const levels = 18
		resolutions := make([]float64, levels)
		for z := range resolutions {
			resolutions[z] = math.Pow(2, float64(8-z))
		}
		return Config{Projection: p.Code(), Resolutions: resolutions, FullExtent: NewExtentConfig(geo.MustExtent(-200000, -200000, 200000, 200000))}, nil
	case p.Code() == projection.Baidu:
		const levels = 20
		resolutions := make([]float64, levels)
		for z := range resolutions {
			resolutions[z] = math.Pow(2, float64(18-z))
		}
		return Config{Projection: p.Code(), Resolutions: resolutions, FullExtent: NewExtentConfig(geo.MustExtent(-33554432, -33554954, 33554432, 33554954))}, nil
	default:
		return Config{}, fmt.Errorf("%w: no default resolutions or full extent for projection %s", ErrInvalidConfig, p.Code())
	}
}

// Default builds the default SpatialReference of a registered projection.
func Default(code string) (*SpatialReference, error) {
	c, err := Defaults(code)
	if err != nil {
		return nil, err
	}
	return FromConfig(c)
}

// UnmarshalJSONMapUsingUnmarshalJSONFromMap decodes data into a map and hands it to target.
func UnmarshalJSONMapUsingUnmarshalJSONFromMap(target marshmallow.UnmarshalerFromJSONMap, data []byte) error {
	var dataMap map[string]interface{}
	err := json.Unmarshal(data, &dataMap)
	if err != nil {
		return err
	}
	return target.UnmarshalJSONFromMap(dataMap)
}
