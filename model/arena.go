package model

import (
	"fmt"
	"math"
)

// The arena is a 28x28 diamond. Row y of the bottom half spans
// x in [13-y, 14+y]; the top half mirrors it.
const (
	ArenaSize = 28
	HalfArena = ArenaSize / 2
)

// Location is a cell coordinate. (0,0) is the bottom-left corner of the
// bounding square, which lies outside the diamond.
type Location struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Loc is shorthand for building a Location.
func Loc(x, y int) Location { return Location{X: x, Y: y} }

func (l Location) String() string { return fmt.Sprintf("[%d,%d]", l.X, l.Y) }

// InBounds reports whether l lies inside the diamond.
func (l Location) InBounds() bool {
	if l.Y < 0 || l.Y >= ArenaSize {
		return false
	}
	if l.Y < HalfArena {
		return l.X >= HalfArena-1-l.Y && l.X <= HalfArena+l.Y
	}
	top := ArenaSize - 1 - l.Y
	return l.X >= HalfArena-1-top && l.X <= HalfArena+top
}

// Friendly reports whether l is on the bottom (player 0) half.
func (l Location) Friendly() bool { return l.Y < HalfArena }

// Distance is the Euclidean distance used for every range check.
func Distance(a, b Location) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Manhattan is the grid-step distance between two cells.
func Manhattan(a, b Location) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// LocationsInRange returns every in-bounds cell within radius of center,
// using the engine's half-cell tolerance.
func LocationsInRange(center Location, radius float64) []Location {
	var out []Location
	r := int(math.Ceil(radius))
	for x := center.X - r; x <= center.X+r; x++ {
		for y := center.Y - r; y <= center.Y+r; y++ {
			l := Location{x, y}
			if l.InBounds() && Distance(center, l) < radius+0.51 {
				out = append(out, l)
			}
		}
	}
	return out
}

// Neighbors returns the four orthogonal neighbours in the order the engine
// visits them: up, down, right, left.
func (l Location) Neighbors() [4]Location {
	return [4]Location{
		{l.X, l.Y + 1},
		{l.X, l.Y - 1},
		{l.X + 1, l.Y},
		{l.X - 1, l.Y},
	}
}

// Edge identifies one of the four diagonal borders of the diamond.
type Edge int

const (
	TopRight Edge = iota
	TopLeft
	BottomLeft
	BottomRight
)

var edgeNames = [...]string{"top_right", "top_left", "bottom_left", "bottom_right"}

func (e Edge) String() string {
	if e < TopRight || e > BottomRight {
		return fmt.Sprintf("edge(%d)", int(e))
	}
	return edgeNames[e]
}

var edgeCells [4][]Location

func init() {
	for i := 0; i < HalfArena; i++ {
		edgeCells[TopRight] = append(edgeCells[TopRight], Location{HalfArena + i, ArenaSize - 1 - i})
		edgeCells[TopLeft] = append(edgeCells[TopLeft], Location{HalfArena - 1 - i, ArenaSize - 1 - i})
		edgeCells[BottomLeft] = append(edgeCells[BottomLeft], Location{HalfArena - 1 - i, i})
		edgeCells[BottomRight] = append(edgeCells[BottomRight], Location{HalfArena + i, i})
	}
}

// Cells returns the edge's cells. The slice is shared; do not modify it.
func (e Edge) Cells() []Location { return edgeCells[e] }

// Contains reports whether l lies on the edge.
func (e Edge) Contains(l Location) bool {
	switch e {
	case TopRight:
		return l.X >= HalfArena && l.X+l.Y == ArenaSize-1+HalfArena
	case TopLeft:
		return l.X < HalfArena && l.Y-l.X == HalfArena
	case BottomLeft:
		return l.X < HalfArena && l.X+l.Y == HalfArena-1
	case BottomRight:
		return l.X >= HalfArena && l.X-l.Y == HalfArena
	}
	return false
}

// Direction returns the unit step (+1/-1 per axis) pointing toward the edge.
func (e Edge) Direction() (dx, dy int) {
	switch e {
	case TopRight:
		return 1, 1
	case TopLeft:
		return -1, 1
	case BottomLeft:
		return -1, -1
	default:
		return 1, -1
	}
}

// TargetEdge is the edge a mobile unit spawned at start walks toward:
// the one diagonally opposite its quadrant.
func TargetEdge(start Location) Edge {
	left := start.X < HalfArena
	bottom := start.Y < HalfArena
	switch {
	case left && bottom:
		return TopRight
	case left:
		return BottomRight
	case bottom:
		return TopLeft
	default:
		return BottomLeft
	}
}

// DeployCells lists the friendly edge cells in the order the engine
// numbers them: [i,13-i] then [14+i,i] for each i.
func DeployCells() []Location {
	out := make([]Location, 0, ArenaSize)
	for i := 0; i < HalfArena; i++ {
		out = append(out, Location{i, HalfArena - 1 - i}, Location{HalfArena + i, i})
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
