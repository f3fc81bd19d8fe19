// Package nav predicts the route a mobile unit walks to its target edge,
// following the engine's movement law: head for the most "ideal" reachable
// cell, take a shortest path there, and zig-zag between axes on ties.
package nav

import (
	"math"

	"github.com/nstehr/rampart/rampart-core/model"
)

type axis int

const (
	none axis = iota
	horizontal
	vertical
)

type node struct {
	seenIdeal    bool
	seenValidate bool
	blocked      bool
	pathLength   int
}

// Pathfinder is stateless; one value can serve concurrent callers.
type Pathfinder struct{}

// Route returns the cells from start to the end of the walk, start
// included. It is empty when start itself is blocked.
func (Pathfinder) Route(board *model.Board, start model.Location, edge model.Edge) []model.Location {
	if !start.InBounds() || board.Occupied(start) {
		return nil
	}
	var grid [model.ArenaSize][model.ArenaSize]node
	for l := range board.All() {
		grid[l.X][l.Y].blocked = true
	}
	for x := range model.ArenaSize {
		for y := range model.ArenaSize {
			grid[x][y].pathLength = -1
		}
	}

	w := walker{grid: &grid, edge: edge}
	ideal := w.idealnessSearch(start)
	w.validate(ideal)
	return w.path(start)
}

type walker struct {
	grid *[model.ArenaSize][model.ArenaSize]node
	edge model.Edge
}

func (w *walker) at(l model.Location) *node { return &w.grid[l.X][l.Y] }

func (w *walker) open(l model.Location) bool {
	return l.InBounds() && !w.at(l).blocked
}

func (w *walker) idealness(l model.Location) int {
	if w.edge.Contains(l) {
		return math.MaxInt
	}
	dx, dy := w.edge.Direction()
	v := 0
	if dy == 1 {
		v += model.ArenaSize * l.Y
	} else {
		v += model.ArenaSize * (model.ArenaSize - 1 - l.Y)
	}
	if dx == 1 {
		v += l.X
	} else {
		v += model.ArenaSize - 1 - l.X
	}
	return v
}

// idealnessSearch floods the reachable region from start and returns its
// most ideal cell.
func (w *walker) idealnessSearch(start model.Location) model.Location {
	queue := []model.Location{start}
	best := w.idealness(start)
	most := start
	w.at(start).seenIdeal = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if !w.open(n) {
				continue
			}
			if v := w.idealness(n); v > best {
				best = v
				most = n
			}
			if !w.at(n).seenIdeal {
				w.at(n).seenIdeal = true
				queue = append(queue, n)
			}
		}
	}
	return most
}

// validate labels every cell with its step distance to the ideal target.
// When the ideal cell is on the edge, every open edge cell is a target.
func (w *walker) validate(ideal model.Location) {
	var queue []model.Location
	if w.edge.Contains(ideal) {
		for _, l := range w.edge.Cells() {
			if !w.open(l) {
				continue
			}
			w.at(l).pathLength = 0
			w.at(l).seenValidate = true
			queue = append(queue, l)
		}
	} else {
		w.at(ideal).pathLength = 0
		w.at(ideal).seenValidate = true
		queue = append(queue, ideal)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if !w.open(n) || w.at(n).seenValidate {
				continue
			}
			w.at(n).pathLength = w.at(cur).pathLength + 1
			w.at(n).seenValidate = true
			queue = append(queue, n)
		}
	}
}

func (w *walker) path(start model.Location) []model.Location {
	route := []model.Location{start}
	cur := start
	dir := none
	for w.at(cur).pathLength > 0 {
		next := w.nextMove(cur, dir)
		if next == cur {
			break
		}
		if next.X == cur.X {
			dir = vertical
		} else {
			dir = horizontal
		}
		route = append(route, next)
		cur = next
	}
	return route
}

func (w *walker) nextMove(cur model.Location, prev axis) model.Location {
	best := cur
	bestLen := w.at(cur).pathLength
	for _, n := range cur.Neighbors() {
		if !w.open(n) {
			continue
		}
		l := w.at(n).pathLength
		if l < 0 || l > bestLen {
			continue
		}
		if l == bestLen && !w.betterDirection(cur, n, best, prev) {
			continue
		}
		best = n
		bestLen = l
	}
	return best
}

// betterDirection breaks a path-length tie between candidate and the
// current best: change axis from the previous move, otherwise head toward
// the target edge.
func (w *walker) betterDirection(from, candidate, best model.Location, prev axis) bool {
	if prev == horizontal && candidate.X != best.X {
		return from.Y != candidate.Y
	}
	if prev == vertical && candidate.Y != best.Y {
		return from.X != candidate.X
	}
	if prev == none {
		return from.Y != candidate.Y
	}
	dx, dy := w.edge.Direction()
	if candidate.Y == best.Y {
		return (dx == 1 && candidate.X > best.X) || (dx == -1 && candidate.X < best.X)
	}
	if candidate.X == best.X {
		return (dy == 1 && candidate.Y > best.Y) || (dy == -1 && candidate.Y < best.Y)
	}
	return true
}
