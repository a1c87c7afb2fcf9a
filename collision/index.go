package collision

// Index holds the boxes placed in the current frame.
type Index interface {
	// Insert adds a box. Non-finite boxes are ignored.
	Insert(b Box)
	// BulkInsert adds boxes, equivalent to inserting them one by one.
	BulkInsert(bs []Box)
	// Collides reports whether b overlaps any box in the index. It never inserts.
	Collides(b Box) bool
	// Clear removes all boxes.
	Clear()
	// Len is the number of boxes in the index.
	Len() int
}

// Place lays out candidates in order: a box is placed, and inserted, when it does not collide with
// anything already in ix. The result tells per candidate whether it was placed.
func Place(ix Index, candidates []Box) []bool {
	placed := make([]bool, len(candidates))
	for i, b := range candidates {
		b = b.normalize()
		if !b.IsFinite() || ix.Collides(b) {
			continue
		}
		ix.Insert(b)
		placed[i] = true
	}
	return placed
}
