package model

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrOutOfBounds = errors.New("location out of bounds")
	ErrOccupied    = errors.New("location already holds a structure")
)

// Player indexes a side. Self is always the bottom half.
type Player int

const (
	Self Player = iota
	Opponent
)

func (p Player) Other() Player { return 1 - p }

func (p Player) String() string {
	if p == Self {
		return "self"
	}
	return "opponent"
}

// Structure is a stationary unit on the board.
type Structure struct {
	Type           UnitType
	Owner          Player
	Upgraded       bool
	Health         float64
	MaxHealth      float64
	PendingRemoval bool
}

// HealthFraction is Health/MaxHealth, or 0 for a zero max.
func (s Structure) HealthFraction() float64 {
	if s.MaxHealth <= 0 {
		return 0
	}
	return s.Health / s.MaxHealth
}

type slot struct {
	s  Structure
	ok bool
}

// Board is a fixed-size arena of structure slots. It holds no pointers, so
// assigning a Board copies it; simulations work on such copies.
type Board struct {
	cells [ArenaSize][ArenaSize]slot
}

// Clone returns an independent copy of b.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// At returns the structure at l, if any.
func (b *Board) At(l Location) (Structure, bool) {
	if !l.InBounds() {
		return Structure{}, false
	}
	c := b.cells[l.X][l.Y]
	return c.s, c.ok
}

// Occupied reports whether a structure stands at l.
func (b *Board) Occupied(l Location) bool {
	_, ok := b.At(l)
	return ok
}

// Place puts s at l. A cell holds at most one structure.
func (b *Board) Place(l Location, s Structure) error {
	if !l.InBounds() {
		return fmt.Errorf("place %s at %s: %w", s.Type, l, ErrOutOfBounds)
	}
	if b.cells[l.X][l.Y].ok {
		return fmt.Errorf("place %s at %s: %w", s.Type, l, ErrOccupied)
	}
	b.cells[l.X][l.Y] = slot{s: s, ok: true}
	return nil
}

// Remove clears l and reports whether anything was there.
func (b *Board) Remove(l Location) bool {
	if !l.InBounds() || !b.cells[l.X][l.Y].ok {
		return false
	}
	b.cells[l.X][l.Y] = slot{}
	return true
}

// Update applies fn to the structure at l in place.
func (b *Board) Update(l Location, fn func(*Structure)) bool {
	if !l.InBounds() || !b.cells[l.X][l.Y].ok {
		return false
	}
	fn(&b.cells[l.X][l.Y].s)
	return true
}

// Damage subtracts amount from the structure at l, removing it once its
// health reaches zero. It returns the damage actually absorbed and whether
// the structure was destroyed.
func (b *Board) Damage(l Location, amount float64) (absorbed float64, destroyed bool) {
	if !l.InBounds() || !b.cells[l.X][l.Y].ok {
		return 0, false
	}
	s := &b.cells[l.X][l.Y].s
	if s.Health <= amount {
		absorbed = s.Health
		b.cells[l.X][l.Y] = slot{}
		return absorbed, true
	}
	s.Health -= amount
	return amount, false
}

// All yields every structure, column by column.
func (b *Board) All() iter.Seq2[Location, Structure] {
	return func(yield func(Location, Structure) bool) {
		for x := range ArenaSize {
			for y := range ArenaSize {
				c := b.cells[x][y]
				if !c.ok {
					continue
				}
				if !yield(Location{x, y}, c.s) {
					return
				}
			}
		}
	}
}

// Owned yields the structures belonging to p.
func (b *Board) Owned(p Player) iter.Seq2[Location, Structure] {
	return func(yield func(Location, Structure) bool) {
		for l, s := range b.All() {
			if s.Owner != p {
				continue
			}
			if !yield(l, s) {
				return
			}
		}
	}
}

// Count returns how many structures p owns.
func (b *Board) Count(p Player) int {
	n := 0
	for range b.Owned(p) {
		n++
	}
	return n
}
