// Package tms20 reads OGC Tile Matrix Set (v2.0) definitions.
// See https://www.ogc.org/standard/tms/
package tms20

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/maptile/geo"
)

var (
	//go:embed tilematrixsets/*.json
	embeddedTileMatrixSetsJSONFS embed.FS
	embeddedTileMatrixSetsCache  = make(map[string]TileMatrixSet)
	embeddedTileMatrixSetsMu     sync.Mutex
)

// TMID is the index of a tile matrix, its zoom level.
type TMID = int

// EmbeddedIDs lists the tile matrix sets that ship with this package.
func EmbeddedIDs() []string {
	matches, _ := fs.Glob(embeddedTileMatrixSetsJSONFS, "tilematrixsets/*.json")
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, strings.TrimSuffix(path.Base(m), ".json"))
	}
	slices.Sort(ids)
	return ids
}

func LoadEmbeddedTileMatrixSet(id string) (TileMatrixSet, error) {
	embeddedTileMatrixSetsMu.Lock()
	defer embeddedTileMatrixSetsMu.Unlock()
	if cached, ok := embeddedTileMatrixSetsCache[id]; ok {
		return cached, nil
	}
	tmsJSON, err := embeddedTileMatrixSetsJSONFS.ReadFile("tilematrixsets/" + id + ".json")
	if err != nil {
		return TileMatrixSet{}, err
	}
	tms, err := Parse(tmsJSON)
	if err != nil {
		return TileMatrixSet{}, fmt.Errorf("embedded tile matrix set %s: %w", id, err)
	}
	embeddedTileMatrixSetsCache[id] = tms
	return tms, nil
}

func LoadJSONTileMatrixSet(filePath string) (TileMatrixSet, error) {
	tmsJSON, err := os.ReadFile(filePath)
	if err != nil {
		return TileMatrixSet{}, err
	}
	return Parse(tmsJSON)
}

func Parse(data []byte) (TileMatrixSet, error) {
	var tms TileMatrixSet
	err := json.Unmarshal(data, &tms)
	return tms, err
}

// TileMatrixSet is a definition of a tile matrix set following the Tile Matrix Set standard.
// Only the parts needed to derive a tile grid are kept.
type TileMatrixSet struct {
	// Tile matrix set identifier
	ID string `json:"id,omitempty"`
	// Title of this tile matrix set, normally used for display to a human
	Title string `json:"title,omitempty"`
	// Reference to an official source for this TileMatrixSet
	URI         string   `validate:"omitempty,uri" json:"uri,omitempty"`
	OrderedAxes []string `validate:"omitempty,len=2" json:"orderedAxes,omitempty"`
	// Coordinate Reference System (CRS)
	CRS CRS `json:"-"`
	// Reference to a well-known scale set
	WellKnownScaleSet string `validate:"omitempty,uri" json:"wellKnownScaleSet,omitempty"`
	// Minimum bounding rectangle surrounding the tile matrix set, in the supported CRS
	BoundingBox *TwoDBoundingBox `json:"-"`
	// Tile matrices ordered by id, which runs from 0 without gaps
	TileMatrices []TileMatrix `validate:"required,min=1,dive" json:"-"`
}

func (tms *TileMatrixSet) UnmarshalJSON(data []byte) error {
	err := defaults.Set(tms)
	if err != nil {
		return err
	}

	specials, err := marshmallow.Unmarshal(data, tms, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	rawCrs, ok := specials["crs"]
	if !ok {
		return fmt.Errorf(`missing key "crs"`)
	}
	tms.CRS, err = unmarshalCRS(rawCrs)
	if err != nil {
		return err
	}

	if rawBoundingBox, ok := specials["boundingBox"]; ok && rawBoundingBox != nil {
		var bb TwoDBoundingBox
		if err = bb.UnmarshalJSONFromMap(rawBoundingBox); err != nil {
			return fmt.Errorf(`"boundingBox": %w`, err)
		}
		tms.BoundingBox = &bb
	}

	rawTileMatrices, ok := specials["tileMatrices"]
	if !ok {
		return fmt.Errorf(`missing key "tileMatrices"`)
	}
	tms.TileMatrices, err = unmarshalTileMatrices(rawTileMatrices)
	if err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(tms)
}

func unmarshalTileMatrices(rawTileMatrices interface{}) ([]TileMatrix, error) {
	rawTileMatricesList, ok := rawTileMatrices.([]interface{})
	if !ok {
		return nil, fmt.Errorf(`"tileMatrices" should be an array`)
	}
	tileMatrices := make([]TileMatrix, 0, len(rawTileMatricesList))
	for _, rawTileMatrix := range rawTileMatricesList {
		var tileMatrix TileMatrix
		if err := tileMatrix.UnmarshalJSONFromMap(rawTileMatrix); err != nil {
			return nil, err
		}
		tileMatrices = append(tileMatrices, tileMatrix)
	}
	ids := make([]TMID, len(tileMatrices))
	for i, tm := range tileMatrices {
		id, err := strconv.Atoi(tm.ID)
		if err != nil {
			return nil, fmt.Errorf("only integer-like ids are supported for tile matrices: %w", err)
		}
		ids[i] = id
	}
	order := make([]int, len(tileMatrices))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return ids[a] - ids[b] })
	sorted := make([]TileMatrix, len(tileMatrices))
	for i, o := range order {
		if ids[o] != i {
			return nil, errors.New("tile matrix IDs should be a range with step 1 starting with 0")
		}
		sorted[i] = tileMatrices[o]
	}
	return sorted, nil
}

// TileMatrix returns the matrix of a zoom level.
func (tms *TileMatrixSet) TileMatrix(id TMID) (TileMatrix, bool) {
	if id < 0 || id >= len(tms.TileMatrices) {
		return TileMatrix{}, false
	}
	return tms.TileMatrices[id], true
}

// CellSizes returns the cell size of every tile matrix, zoom 0 first.
func (tms *TileMatrixSet) CellSizes() []float64 {
	sizes := make([]float64, len(tms.TileMatrices))
	for i, tm := range tms.TileMatrices {
		sizes[i] = tm.CellSize
	}
	return sizes
}

// Extent is the bounding box if there is one, otherwise the extent of the first tile matrix.
func (tms *TileMatrixSet) Extent() (geo.Extent, error) {
	if tms.BoundingBox != nil {
		return tms.BoundingBox.Extent()
	}
	return tms.TileMatrices[0].Extent()
}

// CheckUniformGrid checks that all tile matrices share the origin, the corner of origin and the
// tile size, and that cells get smaller with every level. Only then the set can be described
// by one tile system and a resolution per zoom level.
func (tms *TileMatrixSet) CheckUniformGrid() error {
	for i, tm := range tms.TileMatrices {
		if len(tm.VariableMatrixWidths) != 0 {
			return errors.New("variable matrix widths are not supported: " + tm.ID)
		}
		if i == 0 {
			continue
		}
		previous := tms.TileMatrices[i-1]
		if tm.PointOfOrigin != previous.PointOfOrigin {
			return errors.New("tile matrixes should have the same point of origin: " + tm.ID)
		}
		if tm.CornerOfOrigin != previous.CornerOfOrigin {
			return errors.New("tile matrixes should have the same corner of origin: " + tm.ID)
		}
		if tm.TileWidth != previous.TileWidth || tm.TileHeight != previous.TileHeight {
			return errors.New("tile matrixes should have the same tile size: " + tm.ID)
		}
		if tm.CellSize >= previous.CellSize {
			return errors.New("cell size should decrease with every tile matrix: " + tm.ID)
		}
	}
	return nil
}

// ProjectionCode returns the CRS as an AUTHORITY:CODE string, e.g. EPSG:3857.
// OGC CRS84 is reported as EPSG:4326, with which it shares the lon/lat projection.
func (tms *TileMatrixSet) ProjectionCode() string {
	return tms.CRS.ProjectionCode()
}

var (
	crsURIRegexURL = regexp.MustCompile("https?://.+/def/crs/(?P<authority>[^/]+)/[^/]+/(?P<code>[^/]+)$")
	crsURIRegexURN = regexp.MustCompile("^urn:ogc:def:crs:(?P<authority>[^:]+):[^:]*:(?P<code>[^:]+)$")
)

// CRS is a coordinate reference system given by a URI or by a ProjJSON object with an id.
type CRS struct {
	Description   string
	URI           string
	AuthorityName string `validate:"required"`
	AuthorityCode string `validate:"required"`
}

func (crs CRS) ProjectionCode() string {
	name := strings.ToUpper(crs.AuthorityName)
	if name == "OGC" && strings.ToUpper(crs.AuthorityCode) == "CRS84" {
		return "EPSG:4326"
	}
	return name + ":" + crs.AuthorityCode
}

func unmarshalCRS(rawCrs interface{}) (CRS, error) {
	var crs CRS
	var rawCrsMap map[string]interface{}
	switch c := rawCrs.(type) {
	case string:
		rawCrsMap = map[string]interface{}{"uri": c}
	case map[string]interface{}:
		rawCrsMap = c
	default:
		return crs, fmt.Errorf(`wrong type key "crs": %T`, rawCrs)
	}

	if rawDescription, ok := rawCrsMap["description"]; ok {
		if crs.Description, ok = rawDescription.(string); !ok {
			return crs, fmt.Errorf(`description property is not a string but a %T`, rawDescription)
		}
	}

	switch {
	case rawCrsMap["uri"] != nil:
		uri, ok := rawCrsMap["uri"].(string)
		if !ok {
			return crs, fmt.Errorf(`uri property is not a string but a %T`, rawCrsMap["uri"])
		}
		uriParts := crsURIRegexURL.FindStringSubmatch(uri)
		if uriParts == nil {
			uriParts = crsURIRegexURN.FindStringSubmatch(uri)
		}
		if uriParts == nil {
			return crs, fmt.Errorf(`could not parse crs uri "%v"`, uri)
		}
		crs.URI, crs.AuthorityName, crs.AuthorityCode = uri, uriParts[1], uriParts[2]
	case rawCrsMap["wkt"] != nil:
		wkt, ok := rawCrsMap["wkt"].(map[string]interface{})
		if !ok {
			return crs, fmt.Errorf(`wkt property is not an object but a %T`, rawCrsMap["wkt"])
		}
		id, ok := wkt["id"].(map[string]interface{})
		if !ok {
			return crs, fmt.Errorf(`wkt has no id object, cannot tell the crs`)
		}
		crs.AuthorityName = fmt.Sprint(id["authority"])
		switch code := id["code"].(type) {
		case string:
			crs.AuthorityCode = code
		case float64:
			crs.AuthorityCode = strconv.FormatFloat(code, 'f', -1, 64)
		default:
			return crs, fmt.Errorf(`wkt id code is not a string or number but a %T`, code)
		}
	default:
		return crs, fmt.Errorf(`crs should have an uri or a wkt, referenceSystem is not supported`)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return crs, validate.Struct(crs)
}

// Minimum bounding rectangle surrounding a 2D resource in the CRS indicated elsewhere
type TwoDBoundingBox struct {
	LowerLeft   TwoDPoint `validate:"required" json:"lowerLeft"`
	UpperRight  TwoDPoint `validate:"required" json:"upperRight"`
	OrderedAxes []string  `validate:"omitempty,len=2" json:"orderedAxes,omitempty"`
}

func (bb *TwoDBoundingBox) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONMapUsingUnmarshalJSONFromMap(bb, data)
}

func (bb *TwoDBoundingBox) UnmarshalJSONFromMap(data interface{}) error {
	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf(`data is not a map but a %T`, data)
	}
	// the crs of a bounding box is informative, the one of the set is used
	_, err := marshmallow.UnmarshalFromJSONMap(dataMap, bb, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(bb)
}

func (bb *TwoDBoundingBox) Extent() (geo.Extent, error) {
	return geo.NewExtent(bb.LowerLeft[0], bb.LowerLeft[1], bb.UpperRight[0], bb.UpperRight[1])
}

// A 2D Point in the CRS indicated elsewhere
type TwoDPoint [2]float64

// A tile matrix, usually corresponding to a particular zoom level of a TileMatrixSet.
type TileMatrix struct {
	// Identifier selecting one of the scales defined in the TileMatrixSet
	ID string `validate:"required" json:"id"`
	// Scale denominator of this tile matrix
	ScaleDenominator float64 `validate:"required,gt=0" json:"scaleDenominator"`
	// Cell size of this tile matrix, in CRS units per pixel
	CellSize float64 `validate:"required,gt=0" json:"cellSize"`
	// The corner of the tile matrix (topLeft or bottomLeft) used as the origin for numbering tile rows and columns.
	CornerOfOrigin CornerOfOrigin `default:"topLeft" validate:"oneof=topLeft bottomLeft" json:"cornerOfOrigin,omitempty"`
	// Position in CRS coordinates of the corner of origin. This position is also a corner of the (0, 0) tile.
	PointOfOrigin TwoDPoint `validate:"required" json:"pointOfOrigin"`
	TileWidth     uint      `validate:"required,min=1" json:"tileWidth"`
	TileHeight    uint      `validate:"required,min=1" json:"tileHeight"`
	// Number of tiles in width
	MatrixWidth uint `validate:"required,min=1" json:"matrixWidth"`
	// Number of tiles in height
	MatrixHeight uint `validate:"required,min=1" json:"matrixHeight"`
	// Describes the rows that have variable matrix width
	VariableMatrixWidths []VariableMatrixWidth `json:"variableMatrixWidths,omitempty"`
}

func (tm *TileMatrix) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONMapUsingUnmarshalJSONFromMap(tm, data)
}

func (tm *TileMatrix) UnmarshalJSONFromMap(data interface{}) error {
	err := defaults.Set(tm)
	if err != nil {
		return err
	}

	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf(`data is not a map but a %T`, data)
	}

	_, err = marshmallow.UnmarshalFromJSONMap(dataMap, tm, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(tm)
}

// YSign is -1 when rows count down from the top, 1 when they count up from the bottom.
func (tm *TileMatrix) YSign() float64 {
	if tm.CornerOfOrigin == BottomLeft {
		return 1
	}
	return -1
}

// Extent is the area covered by all tiles of the matrix.
func (tm *TileMatrix) Extent() (geo.Extent, error) {
	width := float64(tm.MatrixWidth*tm.TileWidth) * tm.CellSize
	height := float64(tm.MatrixHeight*tm.TileHeight) * tm.CellSize
	ox, oy := tm.PointOfOrigin[0], tm.PointOfOrigin[1]
	return geo.NewExtent(ox, oy, ox+width, oy+tm.YSign()*height)
}

type CornerOfOrigin string

const (
	TopLeft    CornerOfOrigin = "topLeft"
	BottomLeft CornerOfOrigin = "bottomLeft"
)

func (c *CornerOfOrigin) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return c.UnmarshalJSONFromMap(s)
}

func (c *CornerOfOrigin) UnmarshalJSONFromMap(data interface{}) error {
	dataString, ok := data.(string)
	if !ok {
		return fmt.Errorf(`CornerOfOrigin data is not a string but a %T`, data)
	}
	switch dataString {
	case "", string(TopLeft):
		*c = TopLeft
	case string(BottomLeft):
		*c = BottomLeft
	default:
		return fmt.Errorf(`unknown CornerOfOrigin: %v`, data)
	}
	return nil
}

// Variable Matrix Width data structure
type VariableMatrixWidth struct {
	// Number of tiles in width that coalesce in a single tile for these rows
	Coalesce uint `validate:"required,min=2" json:"coalesce"`
	// First tile row where the coalescence factor applies for this tilematrix
	MinTileRow uint `json:"minTileRow"`
	// Last tile row where the coalescence factor applies for this tilematrix
	MaxTileRow uint `json:"maxTileRow"`
}

func UnmarshalJSONMapUsingUnmarshalJSONFromMap(target marshmallow.UnmarshalerFromJSONMap, data []byte) error {
	var dataMap map[string]interface{}
	err := json.Unmarshal(data, &dataMap)
	if err != nil {
		return err
	}
	return target.UnmarshalJSONFromMap(dataMap)
}
