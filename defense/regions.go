package defense

import "github.com/nstehr/rampart/rampart-core/model"

// NumRegions is the number of reinforcement regions on our half.
const NumRegions = 4

// regionWidth is how many columns each region spans.
const regionWidth = model.ArenaSize / NumRegions

// Region is one of the column blocks of the friendly half: 0-6, 7-13,
// 14-20 and 21-27. Each block keeps every in-bounds cell of its columns,
// so the blocks narrow toward the bottom corners.
type Region int

var regionCells [NumRegions][]model.Location

func init() {
	for c := range model.ArenaSize {
		lo := model.HalfArena - 1 - c
		if c >= model.HalfArena {
			lo = c - model.HalfArena
		}
		r := c / regionWidth
		for y := lo; y < model.HalfArena; y++ {
			regionCells[r] = append(regionCells[r], model.Loc(c, y))
		}
	}
}

// RegionOf returns the region holding l. Cells off our half belong to none.
func RegionOf(l model.Location) (Region, bool) {
	if !l.InBounds() || !l.Friendly() {
		return 0, false
	}
	return Region(l.X / regionWidth), true
}

// Cells returns the region's cells. The slice is shared; do not modify it.
func (r Region) Cells() []model.Location { return regionCells[r] }

// Columns returns the region's first and last column.
func (r Region) Columns() (lo, hi int) {
	lo = int(r) * regionWidth
	return lo, lo + regionWidth - 1
}

// columnSequence walks outward from x inside the region, alternating
// right and left: x, x+1, x-1, x+2, ...
func (r Region) columnSequence(x int) []int {
	lo, hi := r.Columns()
	out := make([]int, 0, regionWidth)
	if x >= lo && x <= hi {
		out = append(out, x)
	}
	for d := 1; len(out) < regionWidth && d < model.ArenaSize; d++ {
		if c := x + d; c >= lo && c <= hi {
			out = append(out, c)
		}
		if c := x - d; c >= lo && c <= hi {
			out = append(out, c)
		}
	}
	return out
}
