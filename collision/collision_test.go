package collision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var indexes = []struct {
	name string
	new  func() Index
}{
	{name: "grid", new: func() Index { return NewGridIndex(0) }},
	{name: "small grid", new: func() Index { return NewGridIndex(4) }},
	{name: "tree", new: func() Index { return NewTreeIndex() }},
}

func TestBox_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want bool
	}{
		{name: "same", a: Box{0, 0, 10, 10}, b: Box{0, 0, 10, 10}, want: true},
		{name: "inside", a: Box{0, 0, 10, 10}, b: Box{2, 2, 3, 3}, want: true},
		{name: "crossing", a: Box{0, 0, 10, 10}, b: Box{5, -5, 6, 15}, want: true},
		{name: "touching edge", a: Box{0, 0, 10, 10}, b: Box{10, 0, 20, 10}, want: false},
		{name: "touching corner", a: Box{0, 0, 10, 10}, b: Box{10, 10, 20, 20}, want: false},
		{name: "apart", a: Box{0, 0, 10, 10}, b: Box{11, 0, 20, 10}, want: false},
		{name: "zero width through", a: Box{0, 0, 10, 10}, b: Box{5, -1, 5, 11}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestBox(t *testing.T) {
	b := NewBox(10, 20, 0, 5)
	assert.Equal(t, Box{0, 5, 10, 20}, b)
	assert.Equal(t, 10., b.Width())
	assert.Equal(t, 15., b.Height())
	assert.Equal(t, Box{-2, 3, 12, 22}, b.Buffer(2))
	assert.True(t, b.IsFinite())
	assert.False(t, Box{0, math.NaN(), 1, 1}.IsFinite())
	assert.False(t, Box{0, 0, math.Inf(1), 1}.IsFinite())
}

func TestIndex(t *testing.T) {
	for _, ixf := range indexes {
		t.Run(ixf.name, func(t *testing.T) {
			t.Run("empty", func(t *testing.T) {
				ix := ixf.new()
				assert.False(t, ix.Collides(Box{0, 0, 100, 100}))
				assert.Equal(t, 0, ix.Len())
			})
			t.Run("self overlap", func(t *testing.T) {
				ix := ixf.new()
				ix.Insert(Box{10, 10, 20, 20})
				assert.True(t, ix.Collides(Box{10, 10, 20, 20}))
				assert.True(t, ix.Collides(Box{15, 15, 16, 16}))
				assert.True(t, ix.Collides(Box{0, 0, 1000, 1000}))
			})
			t.Run("touching and disjoint", func(t *testing.T) {
				ix := ixf.new()
				ix.Insert(Box{10, 10, 20, 20})
				assert.False(t, ix.Collides(Box{20, 10, 30, 20}))
				assert.False(t, ix.Collides(Box{0, 0, 10, 10}))
				assert.False(t, ix.Collides(Box{21, 21, 30, 30}))
				assert.False(t, ix.Collides(Box{-100, -100, -50, -50}))
			})
			t.Run("reversed bounds", func(t *testing.T) {
				ix := ixf.new()
				ix.Insert(Box{20, 20, 10, 10})
				assert.True(t, ix.Collides(Box{16, 16, 14, 14}))
			})
			t.Run("degenerate boxes", func(t *testing.T) {
				ix := ixf.new()
				ix.Insert(Box{5, 0, 5, 100})
				assert.Equal(t, 1, ix.Len())
				assert.True(t, ix.Collides(Box{0, 40, 10, 50}))
				assert.False(t, ix.Collides(Box{5, 40, 10, 50}))
			})
			t.Run("non-finite", func(t *testing.T) {
				ix := ixf.new()
				ix.Insert(Box{math.NaN(), 0, 10, 10})
				ix.Insert(Box{0, 0, math.Inf(1), 10})
				assert.Equal(t, 0, ix.Len())
				ix.Insert(Box{0, 0, 10, 10})
				assert.False(t, ix.Collides(Box{math.NaN(), 0, 10, 10}))
				assert.False(t, ix.Collides(Box{math.Inf(-1), math.Inf(-1), math.Inf(1), math.Inf(1)}))
			})
			t.Run("collides does not insert", func(t *testing.T) {
				ix := ixf.new()
				assert.False(t, ix.Collides(Box{0, 0, 10, 10}))
				assert.False(t, ix.Collides(Box{0, 0, 10, 10}))
				assert.Equal(t, 0, ix.Len())
			})
			t.Run("clear", func(t *testing.T) {
				ix := ixf.new()
				ix.BulkInsert([]Box{{0, 0, 10, 10}, {50, 50, 60, 60}, {-1e6, -1e6, 1e6, 1e6}})
				require.Equal(t, 3, ix.Len())
				ix.Clear()
				assert.Equal(t, 0, ix.Len())
				assert.False(t, ix.Collides(Box{0, 0, 10, 10}))
				ix.Insert(Box{50, 50, 60, 60})
				assert.True(t, ix.Collides(Box{55, 55, 56, 56}))
				assert.False(t, ix.Collides(Box{0, 0, 10, 10}))
			})
			t.Run("huge boxes", func(t *testing.T) {
				ix := ixf.new()
				ix.Insert(Box{-1e9, -1e9, 1e9, 1e9})
				assert.True(t, ix.Collides(Box{3, 3, 4, 4}))
				ix.Clear()
				ix.Insert(Box{3, 3, 4, 4})
				assert.True(t, ix.Collides(Box{-1e9, -1e9, 1e9, 1e9}))
				assert.True(t, ix.Collides(Box{-1e30, 3.5, 1e30, 3.6}))
			})
		})
	}
}

func randomBoxes(r *rand.Rand, n int) []Box {
	boxes := make([]Box, n)
	for i := range boxes {
		x, y := r.Float64()*2000-500, r.Float64()*1500-500
		w, h := r.Float64()*80, r.Float64()*30
		if r.Intn(50) == 0 {
			// the odd very large box
			w, h = r.Float64()*3000, r.Float64()*3000
		}
		// snap some to whole pixels, so touching edges occur
		if r.Intn(2) == 0 {
			x, y, w, h = math.Round(x), math.Round(y), math.Round(w), math.Round(h)
		}
		boxes[i] = Box{x, y, x + w, y + h}
	}
	return boxes
}

func bruteForceCollides(placed []Box, b Box) bool {
	for _, o := range placed {
		if b.Overlaps(o) {
			return true
		}
	}
	return false
}

func TestIndex_againstBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	boxes := randomBoxes(r, 500)
	queries := randomBoxes(r, 500)
	for _, ixf := range indexes {
		t.Run(ixf.name, func(t *testing.T) {
			inserted := ixf.new()
			inserted.BulkInsert(boxes)
			oneByOne := ixf.new()
			for _, b := range boxes {
				oneByOne.Insert(b)
			}
			assert.Equal(t, len(boxes), inserted.Len())
			for _, q := range queries {
				want := bruteForceCollides(boxes, q)
				assert.Equalf(t, want, inserted.Collides(q), "bulk %v", q)
				assert.Equalf(t, want, oneByOne.Collides(q), "one by one %v", q)
			}
		})
	}
}

func TestPlace(t *testing.T) {
	candidates := []Box{
		{0, 0, 10, 10},
		{5, 5, 15, 15},  // overlaps the first
		{10, 0, 20, 10}, // touches the first
		{15, 5, 25, 15}, // overlaps the third
		{math.NaN(), 0, 1, 1},
		{30, 30, 20, 20}, // reversed
	}
	want := []bool{true, false, true, false, false, true}
	for _, ixf := range indexes {
		t.Run(ixf.name, func(t *testing.T) {
			ix := ixf.new()
			assert.Equal(t, want, Place(ix, candidates))
			assert.Equal(t, 3, ix.Len())
		})
	}
}

func TestPlace_gridAndTreeAgree(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	candidates := randomBoxes(r, 1000)
	grid := Place(NewGridIndex(32), candidates)
	tree := Place(NewTreeIndex(), candidates)
	assert.Equal(t, grid, tree)

	// placed boxes never overlap each other
	var placed []Box
	for i, ok := range grid {
		if ok {
			assert.False(t, bruteForceCollides(placed, candidates[i]))
			placed = append(placed, candidates[i])
		}
	}
}

func TestGridIndex_cellSize(t *testing.T) {
	assert.Equal(t, float64(DefaultCellSize), NewGridIndex(-3).CellSize())
	assert.Equal(t, float64(DefaultCellSize), NewGridIndex(math.NaN()).CellSize())
	assert.Equal(t, 16., NewGridIndex(16).CellSize())
}

func TestGridIndex_Clear(t *testing.T) {
	ix := NewGridIndex(10)
	ix.Insert(Box{1, 1, 2, 2})
	ix.Clear()
	assert.Len(t, ix.cells, 1)
	assert.False(t, ix.Collides(Box{0, 0, 5, 5}))

	// a panning view moves to other cells every frame
	for frame := 1; frame <= 100; frame++ {
		x := float64(frame * 100)
		ix.Insert(Box{x + 1, 1, x + 2, 2})
		assert.True(t, ix.Collides(Box{x, 0, x + 5, 5}))
		assert.False(t, ix.Collides(Box{x - 100, 0, x - 95, 5}))
		ix.Clear()
		assert.Len(t, ix.cells, 1)
	}
	ix.Clear()
	assert.Empty(t, ix.cells)
	assert.Equal(t, 0, ix.Len())
}

func BenchmarkGridIndex_Place(b *testing.B) {
	candidates := randomBoxes(rand.New(rand.NewSource(1)), 5000)
	ix := NewGridIndex(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Clear()
		Place(ix, candidates)
	}
}

func BenchmarkTreeIndex_Place(b *testing.B) {
	candidates := randomBoxes(rand.New(rand.NewSource(1)), 5000)
	ix := NewTreeIndex()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Clear()
		Place(ix, candidates)
	}
}
