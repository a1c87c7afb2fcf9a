package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/pdok/maptile/collision"
	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/geomhelp"
	"github.com/pdok/maptile/projection"
	"github.com/pdok/maptile/spatialref"
	"github.com/pdok/maptile/tileconfig"
	"github.com/pdok/maptile/tileservice"
	"github.com/pdok/maptile/tms20"
)

const SERVICE string = `service`
const WKTLENGTH string = `wktlength`
const ZOOM string = `zoom`
const X string = `x`
const Y string = `y`
const GEOGRAPHIC string = `geographic`
const COL string = `col`
const ROW string = `row`
const BBOX string = `bbox`
const TILES string = `tiles`
const BOXES string = `boxes`
const INDEX string = `index`
const CELLSIZE string = `cellsize`
const BUFFER string = `buffer`

const (
	gridIndex = "grid"
	treeIndex = "tree"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

//nolint:funlen
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "maptile"
	app.Usage = "Inspect tile grids and place labels without collisions"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    SERVICE,
			Aliases: []string{"s"},
			Usage: `Tile service metadata file (ArcGIS REST JSON, OGC tile matrix set or descriptor), ` +
				`or the ID of a built-in tile matrix set. E.g.: NetherlandsRDNewQuad`,
			Value:   "WebMercatorQuad",
			EnvVars: []string{strcase.ToScreamingSnake(SERVICE)},
		},
		&cli.UintFlag{
			Name:    WKTLENGTH,
			Usage:   "Truncate WKT output to this many characters, 0 means no limit",
			EnvVars: []string{strcase.ToScreamingSnake(WKTLENGTH)},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:   "info",
			Usage:  "Show the spatial reference and tile grid of the service",
			Action: infoAction,
		},
		{
			Name:  "tile",
			Usage: "Find the tile containing a point",
			Flags: []cli.Flag{
				zoomFlag(),
				&cli.Float64Flag{Name: X, Usage: "X or longitude", Required: true},
				&cli.Float64Flag{Name: Y, Usage: "Y or latitude", Required: true},
				&cli.BoolFlag{
					Name:    GEOGRAPHIC,
					Aliases: []string{"g"},
					Usage:   "The point is lon/lat and is projected first",
				},
			},
			Action: tileAction,
		},
		{
			Name:  "extent",
			Usage: "Show the extent of a tile",
			Flags: []cli.Flag{
				zoomFlag(),
				&cli.IntFlag{Name: COL, Usage: "Tile column", Required: true},
				&cli.IntFlag{Name: ROW, Usage: "Tile row", Required: true},
			},
			Action: extentAction,
		},
		{
			Name:  "fullindex",
			Usage: "Show the range of tiles covering the full extent, or a bounding box",
			Flags: []cli.Flag{
				zoomFlag(),
				&cli.StringFlag{
					Name:  BBOX,
					Usage: "Projected bounding box xmin,ymin,xmax,ymax to cover instead of the full extent",
				},
				&cli.BoolFlag{Name: TILES, Usage: "List the tiles of the range in Z-order"},
			},
			Action: fullIndexAction,
		},
		{
			Name:  "place",
			Usage: "Place boxes greedily, skipping boxes that collide with ones placed before",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     BOXES,
					Aliases:  []string{"b"},
					Usage:    "JSON file with an array of [xmin, ymin, xmax, ymax] boxes, - for stdin",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(BOXES)},
				},
				&cli.StringFlag{
					Name:    INDEX,
					Usage:   "Collision index: grid or tree",
					Value:   gridIndex,
					EnvVars: []string{strcase.ToScreamingSnake(INDEX)},
				},
				&cli.Float64Flag{
					Name:    CELLSIZE,
					Usage:   "Cell size of the grid index",
					Value:   collision.DefaultCellSize,
					EnvVars: []string{strcase.ToScreamingSnake(CELLSIZE)},
				},
				&cli.Float64Flag{
					Name:    BUFFER,
					Usage:   "Grow every box by this margin before placing",
					EnvVars: []string{strcase.ToScreamingSnake(BUFFER)},
				},
			},
			Action: placeAction,
		},
	}
	return app
}

func zoomFlag() cli.Flag {
	return &cli.IntFlag{
		Name:     ZOOM,
		Aliases:  []string{"z"},
		Usage:    "Zoom level",
		Required: true,
		EnvVars:  []string{strcase.ToScreamingSnake(ZOOM)},
	}
}

// loadGrid builds the spatial reference and tile configuration of the service flag.
func loadGrid(c *cli.Context) (*spatialref.SpatialReference, *tileconfig.TileConfig, error) {
	d, err := tileservice.Load(c.String(SERVICE))
	if err != nil {
		return nil, nil, fmt.Errorf("could not load tile service %s: %w", c.String(SERVICE), err)
	}
	return d.Build()
}

func infoAction(c *cli.Context) error {
	d, err := tileservice.Load(c.String(SERVICE))
	if err != nil {
		return err
	}
	sr, tc, err := d.Build()
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "projection:  %s\n", sr.Projection().Code())
	fmt.Fprintf(w, "zoom levels: %d-%d\n", sr.MinZoom(), sr.MaxZoom())
	fmt.Fprintf(w, "tile system: %v\n", tc.TileSystem())
	fmt.Fprintf(w, "tile size:   %v\n", tc.Size())
	fmt.Fprintf(w, "full extent: %s\n", geomhelp.WktMustEncode(sr.FullExtent().ToGeomExtent(), c.Uint(WKTLENGTH)))
	for z, res := range sr.Ladder().Resolutions() {
		full, err := tc.FullIndexAt(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  zoom %2d  resolution %-22v tiles %v (%d)\n", z, res, full, full.Count())
	}
	descriptor, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "descriptor:\n%s\n", descriptor)
	fmt.Fprintf(w, "built-in tile matrix sets: %s\n", strings.Join(tms20.EmbeddedIDs(), ", "))
	fmt.Fprintf(w, "projections: %s\n", strings.Join(projection.Codes(), ", "))
	fmt.Fprintf(w, "tile systems: %s\n", strings.Join(tileconfig.TileSystemNames(), ", "))
	return nil
}

func tileAction(c *cli.Context) error {
	sr, tc, err := loadGrid(c)
	if err != nil {
		return err
	}
	res, err := sr.ResolutionAt(c.Int(ZOOM))
	if err != nil {
		return err
	}
	p, err := geo.NewCoordinate(c.Float64(X), c.Float64(Y))
	if err != nil {
		return err
	}
	if c.Bool(GEOGRAPHIC) {
		var inside bool
		p, inside, err = sr.Project(p)
		if err != nil {
			return err
		}
		if !inside {
			log.Printf("%v is outside the full extent", p)
		}
	}
	i, err := tc.TileIndex(p, res)
	if err != nil {
		return err
	}
	return printTile(c, tc, i, res)
}

func extentAction(c *cli.Context) error {
	sr, tc, err := loadGrid(c)
	if err != nil {
		return err
	}
	res, err := sr.ResolutionAt(c.Int(ZOOM))
	if err != nil {
		return err
	}
	return printTile(c, tc, tileconfig.TileIndex{Col: c.Int(COL), Row: c.Int(ROW)}, res)
}

func printTile(c *cli.Context, tc *tileconfig.TileConfig, i tileconfig.TileIndex, res float64) error {
	e, err := tc.TilePrjExtent(i.Col, i.Row, res)
	if err != nil {
		return err
	}
	w := c.App.Writer
	zoom := c.Int(ZOOM)
	fmt.Fprintf(w, "tile:      %v\n", i)
	if full, err := tc.FullIndexAt(res); err == nil && !full.Contains(i) {
		wrapped, err := tc.Wrap(i, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "wrapped:   %v\n", wrapped)
	}
	if t, ok := tc.Slippy(i, uint(zoom), res); ok {
		fmt.Fprintf(w, "slippy:    %d/%d/%d\n", t.Z, t.X, t.Y)
	}
	fmt.Fprintf(w, "extent:    %s\n", geomhelp.WktMustEncode(e.ToGeomExtent(), c.Uint(WKTLENGTH)))
	if p := e.Projection; p != nil && p.Code() != projection.Identity {
		if lonlat, err := e.Unproject(p); err == nil {
			fmt.Fprintf(w, "lon/lat:   %s\n", geomhelp.WktMustEncode(lonlat.ToGeomExtent(), c.Uint(WKTLENGTH)))
		}
	}
	return nil
}

func fullIndexAction(c *cli.Context) error {
	sr, tc, err := loadGrid(c)
	if err != nil {
		return err
	}
	res, err := sr.ResolutionAt(c.Int(ZOOM))
	if err != nil {
		return err
	}
	var r tileconfig.TileRange
	if c.IsSet(BBOX) {
		bbox, err := parseBBox(c.String(BBOX))
		if err != nil {
			return err
		}
		r, err = tc.RangeFor(bbox, res)
		if err != nil {
			return err
		}
	} else {
		r, err = tc.FullIndexAt(res)
		if err != nil {
			return err
		}
	}
	w := c.App.Writer
	fmt.Fprintf(w, "%v (%dx%d, %d tiles)\n", r, r.Cols(), r.Rows(), r.Count())
	if c.Bool(TILES) {
		for _, i := range r.Tiles() {
			fmt.Fprintln(w, i)
		}
	}
	return nil
}

func placeAction(c *cli.Context) error {
	ix, err := newIndex(c.String(INDEX), c.Float64(CELLSIZE))
	if err != nil {
		return err
	}
	var r io.Reader = os.Stdin
	if path := c.String(BOXES); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	boxes, err := readBoxes(r)
	if err != nil {
		return err
	}
	if buffer := c.Float64(BUFFER); buffer != 0 {
		for i := range boxes {
			boxes[i] = boxes[i].Buffer(buffer)
		}
	}

	placed := collision.Place(ix, boxes)
	log.Printf("placed %d of %d boxes", ix.Len(), len(boxes))
	return json.NewEncoder(c.App.Writer).Encode(placed)
}

func newIndex(kind string, cellSize float64) (collision.Index, error) {
	switch strings.ToLower(kind) {
	case gridIndex:
		return collision.NewGridIndex(cellSize), nil
	case treeIndex:
		return collision.NewTreeIndex(), nil
	}
	return nil, fmt.Errorf("unknown collision index %q, expected %s or %s", kind, gridIndex, treeIndex)
}

func readBoxes(r io.Reader) ([]collision.Box, error) {
	var boxes []collision.Box
	if err := json.NewDecoder(r).Decode(&boxes); err != nil {
		return nil, fmt.Errorf("could not read boxes: %w", err)
	}
	return boxes, nil
}

// parseBBox reads "xmin,ymin,xmax,ymax".
func parseBBox(s string) (geo.Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Extent{}, fmt.Errorf("bbox should be xmin,ymin,xmax,ymax, got %q", s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geo.Extent{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	return geo.NewExtent(v[0], v[1], v[2], v[3])
}
