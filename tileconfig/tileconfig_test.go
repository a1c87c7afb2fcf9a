package tileconfig

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	"github.com/go-spatial/geom/slippy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/maptile/geo"
	"github.com/pdok/maptile/projection"
	"github.com/pdok/maptile/spatialref"
)

const shift = projection.MercatorOriginShift

func webMercatorConfig(t *testing.T) (*spatialref.SpatialReference, *TileConfig) {
	t.Helper()
	sr, err := spatialref.Default(projection.EPSG3857)
	require.NoError(t, err)
	tc, err := ForSpatialReference(sr, DefaultTileSystem(projection.EPSG3857), DefaultSize)
	require.NoError(t, err)
	return sr, tc
}

func TestTileConfig_FullIndexAt(t *testing.T) {
	tests := []struct {
		name       string
		ts         TileSystem
		fullExtent geo.Extent
		res        float64
		want       string
	}{
		{
			name:       "partial extent",
			ts:         TileSystem{XSign: 1, YSign: 1, OriginX: -20037508.34, OriginY: -20037508.34},
			fullExtent: geo.MustExtent(11581589.65334464, 3574191.5907699764, 11588412.424935361, 3579213.587178574),
			res:        19.109257071294063,
			want:       "6463,4826,6464,4827",
		},
		{
			name:       "world at zoom 0",
			ts:         DefaultTileSystem(projection.EPSG3857),
			fullExtent: geo.MustExtent(-shift, -shift, shift, shift),
			res:        2 * shift / 256,
			want:       "0,0,0,0",
		},
		{
			name:       "world at zoom 3",
			ts:         DefaultTileSystem(projection.EPSG3857),
			fullExtent: geo.MustExtent(-shift, -shift, shift, shift),
			res:        2 * shift / (256 * 8),
			want:       "0,0,7,7",
		},
		{
			name:       "tms origin",
			ts:         TileSystem{XSign: 1, YSign: 1, OriginX: -shift, OriginY: -shift},
			fullExtent: geo.MustExtent(-shift, -shift, shift, shift),
			res:        2 * shift / (256 * 4),
			want:       "0,0,3,3",
		},
		{
			name:       "origin inside the extent",
			ts:         identityTileSystem(),
			fullExtent: geo.MustExtent(-1024, -1024, 1024, 1024),
			res:        4,
			want:       "-1,-1,0,0",
		},
		{
			name:       "zero width extent on a boundary",
			ts:         identityTileSystem(),
			fullExtent: geo.MustExtent(256, -256, 256, 0),
			res:        1,
			want:       "1,0,1,0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := New(tt.ts, tt.fullExtent, DefaultSize)
			require.NoError(t, err)
			got, err := tc.FullIndexAt(tt.res)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func identityTileSystem() TileSystem {
	ts, _ := NamedTileSystem(IdentitySystem)
	return ts
}

func TestTileConfig_TilePrjExtent(t *testing.T) {
	sr, tc := webMercatorConfig(t)
	res, err := sr.ResolutionAt(0)
	require.NoError(t, err)
	e, err := tc.TilePrjExtent(0, 0, res)
	require.NoError(t, err)
	assert.InDelta(t, -shift, e.XMin, 1e-6)
	assert.InDelta(t, -shift, e.YMin, 1e-6)
	assert.InDelta(t, shift, e.XMax, 1e-6)
	assert.InDelta(t, shift, e.YMax, 1e-6)
	assert.Equal(t, projection.EPSG3857, e.Projection.Code())

	// rows count down from the top
	res, err = sr.ResolutionAt(1)
	require.NoError(t, err)
	e, err = tc.TilePrjExtent(0, 1, res)
	require.NoError(t, err)
	assert.InDelta(t, -shift, e.YMin, 1e-6)
	assert.InDelta(t, 0, e.YMax, 1e-6)
}

func TestTileConfig_tiling(t *testing.T) {
	sr, tc := webMercatorConfig(t)
	for _, zoom := range []int{0, 3, 11, 18} {
		res, err := sr.ResolutionAt(zoom)
		require.NoError(t, err)
		full, err := tc.FullIndexAt(res)
		require.NoError(t, err)
		assert.Equal(t, 1<<zoom, full.Cols())
		assert.Equal(t, 1<<zoom, full.Rows())

		step := full.Cols()/500 + 1
		for i := 0; i < full.Cols(); i += step {
			e, err := tc.TilePrjExtent(i, full.MaxRow/2, res)
			require.NoError(t, err)
			right, err := tc.TilePrjExtent(i+1, full.MaxRow/2, res)
			require.NoError(t, err)
			e2, err := tc.TilePrjExtent(full.MaxCol/3, i, res)
			require.NoError(t, err)
			below, err := tc.TilePrjExtent(full.MaxCol/3, i+1, res)
			require.NoError(t, err)

			// neighbours share their edge exactly, no gap and no overlap
			require.Equal(t, e.XMax, right.XMin, "zoom %d col %d", zoom, i)
			require.Equal(t, e2.YMin, below.YMax, "zoom %d row %d", zoom, i)
			assert.InDelta(t, 256*res, e.Width(), res*1e-6)
			assert.InDelta(t, 256*res, e2.Height(), res*1e-6)

			// and the shared edge belongs to the tile that starts there
			got, err := tc.TileIndex(geo.Coordinate{X: right.XMin, Y: e.YMax}, res)
			require.NoError(t, err)
			require.Equal(t, TileIndex{Col: i + 1, Row: full.MaxRow / 2}, got)
			got, err = tc.TileIndex(geo.Coordinate{X: e2.XMin, Y: below.YMax}, res)
			require.NoError(t, err)
			require.Equal(t, TileIndex{Col: full.MaxCol / 3, Row: i + 1}, got)
		}
	}
}

func TestTileConfig_TileIndex(t *testing.T) {
	sr, tc := webMercatorConfig(t)
	r := rand.New(rand.NewSource(42))
	for _, zoom := range []int{1, 7, 15} {
		res, err := sr.ResolutionAt(zoom)
		require.NoError(t, err)
		for n := 0; n < 50; n++ {
			want := TileIndex{Col: r.Intn(1 << zoom), Row: r.Intn(1 << zoom)}
			e, err := tc.TilePrjExtent(want.Col, want.Row, res)
			require.NoError(t, err)

			// strictly inside the tile
			p := geo.Coordinate{
				X: e.XMin + e.Width()*(0.01+0.98*r.Float64()),
				Y: e.YMin + e.Height()*(0.01+0.98*r.Float64()),
			}
			got, err := tc.TileIndex(p, res)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// the corner where the tile starts belongs to it
			got, err = tc.TileIndex(geo.Coordinate{X: e.XMin, Y: e.YMax}, res)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}

	_, err := tc.TileIndex(geo.Coordinate{X: math.NaN(), Y: 0}, 1)
	require.ErrorIs(t, err, geo.ErrNotFinite)
}

func TestTileConfig_TileIndex_farEdge(t *testing.T) {
	ts, ok := NamedTileSystem(BaiduSystem)
	require.True(t, ok)
	tc, err := New(ts, geo.MustExtent(0, 0, 1<<24, 1<<24), DefaultSize)
	require.NoError(t, err)
	// 6464 * 256 = 1654784
	got, err := tc.TileIndex(geo.Coordinate{X: 1654783.999999, Y: 1654783.999999}, 1)
	require.NoError(t, err)
	assert.Equal(t, TileIndex{Col: 6463, Row: 6463}, got)
	got, err = tc.TileIndex(geo.Coordinate{X: 1654784, Y: 1654784}, 1)
	require.NoError(t, err)
	assert.Equal(t, TileIndex{Col: 6464, Row: 6464}, got)

	// a hair inside the far corner of a top-left grid
	sr, wm := webMercatorConfig(t)
	r := rand.New(rand.NewSource(7))
	for _, zoom := range []int{2, 9, 15, 20} {
		res, err := sr.ResolutionAt(zoom)
		require.NoError(t, err)
		for n := 0; n < 50; n++ {
			want := TileIndex{Col: r.Intn(1 << zoom), Row: r.Intn(1 << zoom)}
			e, err := wm.TilePrjExtent(want.Col, want.Row, res)
			require.NoError(t, err)
			d := e.Width() * 1e-9
			got, err := wm.TileIndex(geo.Coordinate{X: e.XMax - d, Y: e.YMin + d}, res)
			require.NoError(t, err)
			assert.Equal(t, want, got, "zoom %d", zoom)
		}
	}
}

func TestTileConfig_baidu(t *testing.T) {
	sr, err := spatialref.Default(projection.Baidu)
	require.NoError(t, err)
	tc, err := ForSpatialReference(sr, DefaultTileSystem(projection.Baidu), DefaultSize)
	require.NoError(t, err)
	res, err := sr.ResolutionAt(13)
	require.NoError(t, err)
	assert.Equal(t, 32.0, res)

	p, err := projection.NewBaiduMercator().Project(geo.Coordinate{X: 121, Y: 30.996})
	require.NoError(t, err)
	e, err := tc.TilePrjExtent(1644, 440, res)
	require.NoError(t, err)
	assert.Equal(t, projection.Baidu, e.Projection.Code())
	assert.True(t, e.XMin <= p.X && p.X < e.XMax, "x %v outside %v", p.X, e)
	assert.True(t, e.YMin <= p.Y && p.Y < e.YMax, "y %v outside %v", p.Y, e)

	got, err := tc.TileIndex(p, res)
	require.NoError(t, err)
	assert.Equal(t, TileIndex{Col: 1644, Row: 440}, got)
}

func TestTileConfig_invalidResolution(t *testing.T) {
	_, tc := webMercatorConfig(t)
	for _, res := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := tc.TilePrjExtent(0, 0, res)
		require.ErrorIs(t, err, ErrInvalidResolution)
		_, err = tc.TileIndex(geo.Coordinate{}, res)
		require.ErrorIs(t, err, ErrInvalidResolution)
		_, err = tc.FullIndexAt(res)
		require.ErrorIs(t, err, ErrInvalidResolution)
		_, err = tc.RangeFor(geo.MustExtent(0, 0, 1, 1), res)
		require.ErrorIs(t, err, ErrInvalidResolution)
	}
}

func TestNew(t *testing.T) {
	valid := geo.MustExtent(0, 0, 10, 10)
	tests := []struct {
		name       string
		ts         TileSystem
		fullExtent geo.Extent
		size       Size
		wantErr    bool
	}{
		{name: "valid", ts: identityTileSystem(), fullExtent: valid, size: DefaultSize},
		{name: "rectangular tiles", ts: identityTileSystem(), fullExtent: valid, size: Size{Width: 512, Height: 256}},
		{name: "zero width", ts: identityTileSystem(), fullExtent: valid, size: Size{Width: 0, Height: 256}, wantErr: true},
		{name: "zero height", ts: identityTileSystem(), fullExtent: valid, size: Size{Width: 256}, wantErr: true},
		{name: "bad sign", ts: TileSystem{XSign: 2, YSign: 1}, fullExtent: valid, size: DefaultSize, wantErr: true},
		{name: "zero sign", ts: TileSystem{XSign: 1}, fullExtent: valid, size: DefaultSize, wantErr: true},
		{name: "infinite origin", ts: TileSystem{XSign: 1, YSign: 1, OriginX: math.Inf(-1)}, fullExtent: valid, size: DefaultSize, wantErr: true},
		{name: "empty extent", ts: identityTileSystem(), fullExtent: geo.EmptyExtent(), size: DefaultSize, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := New(tt.ts, tt.fullExtent, tt.size)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				assert.Nil(t, tc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, tc.Size())
		})
	}
}

func TestTileConfig_RangeFor(t *testing.T) {
	sr, tc := webMercatorConfig(t)
	res, err := sr.ResolutionAt(1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		extent geo.Extent
		want   string
		empty  bool
	}{
		{name: "around the origin", extent: geo.MustExtent(-1, -1, 1, 1), want: "0,0,1,1"},
		{name: "north east quadrant", extent: geo.MustExtent(1, 1, shift/2, shift/2), want: "1,0,1,0"},
		{name: "clipped", extent: geo.MustExtent(-3*shift, 1, -shift/2, 3*shift), want: "0,0,0,0"},
		{name: "outside", extent: geo.MustExtent(3*shift, 3*shift, 4*shift, 4*shift), empty: true},
		{name: "empty", extent: geo.EmptyExtent(), empty: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tc.RangeFor(tt.extent, res)
			require.NoError(t, err)
			if tt.empty {
				assert.True(t, got.IsEmpty())
				assert.Equal(t, 0, got.Count())
				return
			}
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTileConfig_Wrap(t *testing.T) {
	sr, tc := webMercatorConfig(t)
	res, err := sr.ResolutionAt(1)
	require.NoError(t, err)
	tests := []struct {
		in, want TileIndex
	}{
		{in: TileIndex{Col: 0, Row: 0}, want: TileIndex{Col: 0, Row: 0}},
		{in: TileIndex{Col: -1, Row: 2}, want: TileIndex{Col: 1, Row: 0}},
		{in: TileIndex{Col: 5, Row: -3}, want: TileIndex{Col: 1, Row: 1}},
		{in: TileIndex{Col: -4, Row: 1}, want: TileIndex{Col: 0, Row: 1}},
	}
	for _, tt := range tests {
		got, err := tc.Wrap(tt.in, res)
		require.NoError(t, err)
		assert.Equalf(t, tt.want, got, "Wrap(%v)", tt.in)
	}
}

func TestTileRange(t *testing.T) {
	r := TileRange{MinCol: 10, MinRow: 20, MaxCol: 11, MaxRow: 21}
	assert.False(t, r.IsEmpty())
	assert.Equal(t, 4, r.Count())
	assert.True(t, r.Contains(TileIndex{Col: 11, Row: 20}))
	assert.False(t, r.Contains(TileIndex{Col: 12, Row: 20}))
	assert.Equal(t, []TileIndex{{10, 20}, {11, 20}, {10, 21}, {11, 21}}, r.Tiles())

	assert.Equal(t, "11,21,11,21", r.Intersect(TileRange{MinCol: 11, MinRow: 21, MaxCol: 30, MaxRow: 30}).String())
	assert.True(t, r.Intersect(TileRange{MinCol: 12, MinRow: 20, MaxCol: 13, MaxRow: 21}).IsEmpty())
	assert.True(t, r.Intersect(EmptyRange()).IsEmpty())
	assert.Nil(t, EmptyRange().Tiles())
	assert.False(t, EmptyRange().Contains(TileIndex{}))

	big := TileRange{MinCol: -2, MinRow: -2, MaxCol: 5, MaxRow: 5}
	tiles := big.Tiles()
	assert.Len(t, tiles, big.Count())
	seen := make(map[TileIndex]bool)
	for _, i := range tiles {
		assert.True(t, big.Contains(i))
		seen[i] = true
	}
	assert.Len(t, seen, big.Count())
	// the first quadrant of a Z-order walk comes first
	for _, i := range tiles[:16] {
		assert.Less(t, i.Col, 2)
		assert.Less(t, i.Row, 2)
	}
}

func TestTileConfig_Slippy(t *testing.T) {
	sr, tc := webMercatorConfig(t)
	res, err := sr.ResolutionAt(4)
	require.NoError(t, err)
	tile, ok := tc.Slippy(TileIndex{Col: 3, Row: 5}, 4, res)
	require.True(t, ok)
	assert.Equal(t, slippy.NewTile(4, 3, 5), tile)

	grid, err := slippy.NewGrid(3857)
	require.NoError(t, err)
	ext, ok := slippy.Extent(grid, tile)
	require.True(t, ok)
	e, err := tc.TilePrjExtent(3, 5, res)
	require.NoError(t, err)
	assert.InDelta(t, e.XMin, ext.MinX(), 1e-2)
	assert.InDelta(t, e.YMax, ext.MaxY(), 1e-2)

	tms, ok := NamedTileSystem(TMSGlobalMercator)
	require.True(t, ok)
	bottomUp, err := ForSpatialReference(sr, tms, DefaultSize)
	require.NoError(t, err)
	baidu, err := spatialref.Default(projection.Baidu)
	require.NoError(t, err)
	other, err := ForSpatialReference(baidu, DefaultTileSystem(projection.Baidu), DefaultSize)
	require.NoError(t, err)

	tests := []struct {
		name string
		tc   *TileConfig
		i    TileIndex
		z    uint
	}{
		{name: "negative", tc: tc, i: TileIndex{Col: -1, Row: 5}, z: 4},
		{name: "beyond the world", tc: tc, i: TileIndex{Col: 16, Row: 5}, z: 4},
		{name: "zoom does not match", tc: tc, i: TileIndex{Col: 3, Row: 5}, z: 5},
		{name: "rows count up", tc: bottomUp, i: TileIndex{Col: 3, Row: 5}, z: 4},
		{name: "not EPSG:3857", tc: other, i: TileIndex{Col: 3, Row: 5}, z: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.tc.Slippy(tt.i, tt.z, res)
			assert.False(t, ok)
		})
	}
}

func TestTileSystem_JSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    TileSystem
		wantErr bool
	}{
		{name: "array", json: `[1, -1, -180, 90]`, want: TileSystem{XSign: 1, YSign: -1, OriginX: -180, OriginY: 90}},
		{name: "name", json: `"tms-global-geodetic"`, want: TileSystem{XSign: 1, YSign: 1, OriginX: -180, OriginY: -90}},
		{name: "unknown name", json: `"bogus"`, wantErr: true},
		{name: "too short", json: `[1, -1, 0]`, wantErr: true},
		{name: "bad sign", json: `[0, -1, 0, 0]`, wantErr: true},
		{name: "object", json: `{"x": 1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts TileSystem
			err := json.Unmarshal([]byte(tt.json), &ts)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts)

			data, err := json.Marshal(ts)
			require.NoError(t, err)
			var again TileSystem
			require.NoError(t, json.Unmarshal(data, &again))
			assert.Equal(t, ts, again)
		})
	}
}

func TestDefaultTileSystem(t *testing.T) {
	assert.Equal(t, TileSystem{XSign: 1, YSign: -1, OriginX: -shift, OriginY: shift}, DefaultTileSystem(projection.EPSG3857))
	assert.Equal(t, TileSystem{XSign: 1, YSign: 1, OriginX: -180, OriginY: -90}, DefaultTileSystem("epsg:4490"))
	assert.Equal(t, identityTileSystem(), DefaultTileSystem(projection.Identity))
	assert.Equal(t, DefaultTileSystem(projection.EPSG3857), DefaultTileSystem("EPSG:28992"))
	assert.Equal(t, TileSystem{XSign: 1, YSign: 1, OriginX: 0, OriginY: 0}, DefaultTileSystem("baidu"))
	assert.Equal(t, []string{WebMercator, TMSGlobalMercator, TMSGlobalGeodetic, IdentitySystem, BaiduSystem}, TileSystemNames())
}

func TestBinding_Resolve(t *testing.T) {
	b := NewBinding(DefaultTileSystem(projection.EPSG3857), Size{})
	assert.Equal(t, DefaultSize, b.Size())
	assert.Equal(t, DefaultTileSystem(projection.EPSG3857), b.TileSystem())
	assert.Equal(t, uint64(0), b.Version())

	sr, err := spatialref.Default(projection.EPSG3857)
	require.NoError(t, err)
	first, err := b.Resolve(sr)
	require.NoError(t, err)
	again, err := b.Resolve(sr)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, sr.Version(), b.Version())
	assert.Equal(t, b.TileSystem(), first.TileSystem())
	assert.Equal(t, b.Size(), first.Size())

	// equal content, new version
	other, err := spatialref.Default(projection.EPSG3857)
	require.NoError(t, err)
	rebuilt, err := b.Resolve(other)
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)
	assert.Equal(t, other.Version(), b.Version())

	_, err = b.Resolve(nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBinding_Range(t *testing.T) {
	sr, err := spatialref.Default(projection.EPSG3857)
	require.NoError(t, err)
	b := NewBinding(DefaultTileSystem(projection.EPSG3857), DefaultSize)
	got, err := b.Range(sr, sr.FullExtent(), 2)
	require.NoError(t, err)
	assert.Equal(t, "0,0,3,3", got.String())

	_, err = b.Range(sr, sr.FullExtent(), sr.MaxZoom()+1)
	require.ErrorIs(t, err, spatialref.ErrZoomOutOfRange)
}
