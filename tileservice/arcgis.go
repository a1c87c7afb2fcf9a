package tileservice

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/projection"
	"github.com/pdok/maptile/spatialref"
	"github.com/pdok/maptile/tileconfig"
)

// ArcGISService is the part of ArcGIS REST MapServer/ImageServer metadata that describes its tile cache.
type ArcGISService struct {
	SpatialReference *ArcGISSpatialReference `json:"spatialReference"`
	FullExtent       ArcGISExtent            `validate:"required" json:"fullExtent"`
	TileInfo         ArcGISTileInfo          `validate:"required" json:"tileInfo"`
}

type ArcGISSpatialReference struct {
	WKID       int `json:"wkid"`
	LatestWKID int `json:"latestWkid"`
}

type ArcGISExtent struct {
	XMin             *float64                `validate:"required" json:"xmin"`
	YMin             *float64                `validate:"required" json:"ymin"`
	XMax             *float64                `validate:"required" json:"xmax"`
	YMax             *float64                `validate:"required" json:"ymax"`
	SpatialReference *ArcGISSpatialReference `json:"spatialReference"`
}

type ArcGISTileInfo struct {
	Rows             uint                    `validate:"required,min=1" json:"rows"`
	Cols             uint                    `validate:"required,min=1" json:"cols"`
	Origin           ArcGISPoint             `validate:"required" json:"origin"`
	LODs             []ArcGISLOD             `validate:"required,min=1,dive" json:"lods"`
	SpatialReference *ArcGISSpatialReference `json:"spatialReference"`
}

type ArcGISPoint struct {
	X *float64 `validate:"required" json:"x"`
	Y *float64 `validate:"required" json:"y"`
}

// ArcGISLOD is a level of detail.
type ArcGISLOD struct {
	Level      int     `validate:"min=0" json:"level"`
	Resolution float64 `validate:"gt=0" json:"resolution"`
	Scale      float64 `json:"scale"`
}

// ParseArcGIS reads the tile cache of ArcGIS REST service metadata. Tile rows count down from the
// top left origin of tileInfo, which gives tile system [1, -1, origin.x, origin.y].
func ParseArcGIS(data []byte) (Descriptor, error) {
	var svc ArcGISService
	if _, err := marshmallow.Unmarshal(data, &svc); err != nil {
		return Descriptor{}, fmt.Errorf("arcgis service: %w", err)
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&svc); err != nil {
		return Descriptor{}, fmt.Errorf("arcgis service: %w", err)
	}
	return svc.Descriptor()
}

func (svc *ArcGISService) Descriptor() (Descriptor, error) {
	lods := slices.Clone(svc.TileInfo.LODs)
	slices.SortStableFunc(lods, func(a, b ArcGISLOD) int { return a.Level - b.Level })
	resolutions := make([]float64, len(lods))
	for i, lod := range lods {
		resolutions[i] = lod.Resolution
	}

	e := svc.FullExtent
	fullExtent, err := geo.NewExtent(*e.XMin, *e.YMin, *e.XMax, *e.YMax)
	if err != nil {
		return Descriptor{}, fmt.Errorf("arcgis full extent: %w", err)
	}
	ts, err := tileconfig.NewTileSystem(1, -1, *svc.TileInfo.Origin.X, *svc.TileInfo.Origin.Y)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		SpatialReference: spatialref.Config{
			Projection:  svc.projection(),
			Resolutions: resolutions,
			FullExtent:  spatialref.NewExtentConfig(fullExtent),
		},
		TileSystem: ts,
		TileSize:   tileconfig.Size{Width: svc.TileInfo.Cols, Height: svc.TileInfo.Rows},
	}, nil
}

// projection picks the spatial reference of the tile cache, then of the service, then of the
// full extent.
func (svc *ArcGISService) projection() string {
	for _, sr := range []*ArcGISSpatialReference{svc.TileInfo.SpatialReference, svc.SpatialReference, svc.FullExtent.SpatialReference} {
		if sr != nil && (sr.LatestWKID != 0 || sr.WKID != 0) {
			return sr.ProjectionCode()
		}
	}
	return projection.Identity
}

// ProjectionCode maps a well-known id to a registered projection. Esri's own ids for web mercator
// are recognised, others that are not registered become IDENTITY.
func (sr ArcGISSpatialReference) ProjectionCode() string {
	wkid := sr.LatestWKID
	if wkid == 0 {
		wkid = sr.WKID
	}
	switch wkid {
	case 3857, 102100, 102113, 900913:
		return projection.EPSG3857
	}
	return ProjectionFor(fmt.Sprintf("EPSG:%d", wkid))
}
