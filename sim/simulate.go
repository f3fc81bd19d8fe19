// Package sim predicts how a wave of identical mobile units fares against a
// board. It never touches live state: every run works on its own copy.
package sim

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/nstehr/rampart/rampart-core/model"
)

var ErrOutOfBounds = errors.New("deploy cell out of bounds")

//go:generate go tool mockgen -destination=mocks/router_mock.go -package=mocks . Router

// Router returns the cells a unit at start walks toward edge.
type Router interface {
	Route(board *model.Board, start model.Location, edge model.Edge) []model.Location
}

// Wave is a group of identical mobile units released from one cell.
type Wave struct {
	Start model.Location
	Size  int
	Unit  model.UnitType
}

// Damage is the damage the wave dealt, per structure category.
type Damage struct {
	Walls    float64
	Turrets  float64
	Supports float64
}

func (d Damage) Total() float64 { return d.Walls + d.Turrets + d.Supports }

func (d *Damage) add(t model.UnitType, amount float64) {
	switch t {
	case model.Wall:
		d.Walls += amount
	case model.Turret:
		d.Turrets += amount
	case model.Support:
		d.Supports += amount
	}
}

// Outcome is the prediction for one wave.
type Outcome struct {
	Wave        Wave
	Survivors   int
	DamageTaken float64
	Dealt       Damage
	Route       []model.Location // terminal route after any recomputation
	Attackers   []model.Location // structures that fired on the wave, sorted
	Recomputes  int
	Steps       int
}

// Disjoint reports whether o and other were fired on by different structures.
func (o Outcome) Disjoint(other Outcome) bool {
	for _, a := range o.Attackers {
		if _, found := slices.BinarySearchFunc(other.Attackers, a, compareLoc); found {
			return false
		}
	}
	return true
}

// Simulator replays a wave step by step along its predicted route.
type Simulator struct {
	Catalog *model.Catalog
	Router  Router
	// Side is the player releasing the wave.
	Side model.Player
}

// maxSteps bounds a single run. A route never revisits a cell between
// recomputations, so this only trips on a misbehaving Router.
const maxSteps = 4 * model.ArenaSize * model.ArenaSize

// Run simulates w against board. board is cloned first, so callers may pass
// the live snapshot. An empty or dead-ended route yields zero survivors.
func (s *Simulator) Run(board *model.Board, w Wave) (Outcome, error) {
	if !w.Start.InBounds() {
		return Outcome{}, fmt.Errorf("simulate %s: %w", w.Start, ErrOutOfBounds)
	}
	if w.Unit.Stationary() || !w.Unit.Valid() {
		return Outcome{}, fmt.Errorf("simulate %s wave: %w", w.Unit, model.ErrUnknownUnit)
	}
	out := Outcome{Wave: w}
	if w.Size <= 0 {
		return out, nil
	}

	b := board.Clone()
	unit := s.Catalog.Stats(w.Unit, false)
	ticks := framesPerCell(unit.Speed)
	edge := model.TargetEdge(w.Start)
	route := s.Router.Route(b, w.Start, edge)
	supports := s.supports(b)
	attackers := make(map[model.Location]struct{})

	dead := 0
	shield := 0.0
	hp := unit.Health

	for i := 0; i < len(route) && dead < w.Size && out.Steps < maxSteps; i++ {
		cell := route[i]
		out.Steps++

		// Shields land before this step's damage.
		if amt, ok := s.shieldAt(b, supports, cell); ok {
			shield = math.Max(shield, amt)
			hp = math.Min(hp+amt, unit.Health+shield)
		}

		// Both sides fire once per frame spent on the cell.
		rerouted := false
		for range ticks {
			threats := s.attackersOf(b, cell)
			if s.strike(b, cell, w.Size-dead, unit, &out.Dealt) {
				rerouted = true
			}
			for _, t := range threats {
				attackers[t.loc] = struct{}{}
				out.DamageTaken += math.Min(t.damage, math.Max(hp, 0))
				hp -= t.damage
				if hp <= 0 {
					dead++
					hp = unit.Health + shield
					if dead >= w.Size {
						break
					}
				}
			}
			if dead >= w.Size {
				break
			}
		}

		if rerouted {
			route = s.Router.Route(b, cell, edge)
			out.Recomputes++
			// The new route starts at this cell; finish the step here.
			i = 0
			if len(route) == 0 {
				break
			}
		}
	}

	out.Route = route
	out.Survivors = w.Size - dead
	if len(route) == 0 || !edge.Contains(route[len(route)-1]) {
		out.Survivors = 0
	}
	out.Attackers = make([]model.Location, 0, len(attackers))
	for l := range attackers {
		out.Attackers = append(out.Attackers, l)
	}
	slices.SortFunc(out.Attackers, compareLoc)
	return out, nil
}

// framesPerCell is how many frames a unit of the given speed spends on
// each cell of its path.
func framesPerCell(speed float64) int {
	if speed <= 0 {
		return 1
	}
	return max(1, int(math.Round(1/speed)))
}

type threat struct {
	loc    model.Location
	damage float64
}

// attackersOf lists the enemy structures able to fire on cell, in board order.
func (s *Simulator) attackersOf(b *model.Board, cell model.Location) []threat {
	var out []threat
	for l, st := range b.Owned(s.Side.Other()) {
		stats := s.Catalog.Stats(st.Type, st.Upgraded)
		if stats.DamageToMobile <= 0 {
			continue
		}
		if model.Distance(cell, l) <= stats.Range {
			out = append(out, threat{loc: l, damage: stats.DamageToMobile})
		}
	}
	return out
}

// strike lets the living units fire on the structures in range of cell.
// Each destroyed target uses up only the units needed to finish it; the
// rest keep firing. It reports whether any structure was destroyed.
func (s *Simulator) strike(b *model.Board, cell model.Location, alive int, unit model.Stats, dealt *Damage) bool {
	perUnit := unit.DamageToStructures
	if perUnit <= 0 {
		return false
	}
	destroyed := false
	for alive > 0 {
		target, st, ok := s.target(b, cell, unit.Range)
		if !ok {
			break
		}
		firepower := float64(alive) * perUnit
		if st.Health <= firepower {
			dealt.add(st.Type, st.Health)
			b.Remove(target)
			destroyed = true
			alive -= int(math.Ceil(st.Health / perUnit))
			continue
		}
		b.Damage(target, firepower)
		dealt.add(st.Type, firepower)
		break
	}
	return destroyed
}

// target picks the structure the wave would shoot from cell: nearest,
// then weakest, then deepest on the attacker's side, then furthest from
// the centre line.
func (s *Simulator) target(b *model.Board, cell model.Location, rng float64) (model.Location, model.Structure, bool) {
	var (
		best   model.Location
		bestSt model.Structure
		found  bool
	)
	for _, l := range model.LocationsInRange(cell, rng) {
		st, ok := b.At(l)
		if !ok || st.Owner == s.Side {
			continue
		}
		if !found || s.preferTarget(cell, l, st, best, bestSt) {
			best, bestSt, found = l, st, true
		}
	}
	return best, bestSt, found
}

func (s *Simulator) preferTarget(cell, l model.Location, st model.Structure, best model.Location, bestSt model.Structure) bool {
	if d, bd := model.Distance(cell, l), model.Distance(cell, best); d != bd {
		return d < bd
	}
	if st.Health != bestSt.Health {
		return st.Health < bestSt.Health
	}
	if l.Y != best.Y {
		if s.Side == model.Self {
			return l.Y < best.Y
		}
		return l.Y > best.Y
	}
	return centreOffset(l) > centreOffset(best)
}

func centreOffset(l model.Location) float64 {
	return math.Abs(float64(model.HalfArena) - 0.5 - float64(l.X))
}

type support struct {
	loc    model.Location
	rng    float64
	amount float64
}

func (s *Simulator) supports(b *model.Board) []support {
	var out []support
	for l, st := range b.Owned(s.Side) {
		if st.Type != model.Support {
			continue
		}
		stats := s.Catalog.Stats(model.Support, st.Upgraded)
		amt := stats.ShieldPerUnit + stats.ShieldBonusPerY*float64(l.Y)
		if amt <= 0 {
			continue
		}
		out = append(out, support{loc: l, rng: stats.ShieldRange, amount: amt})
	}
	return out
}

// shieldAt returns the shield of the first support still standing in range.
func (s *Simulator) shieldAt(b *model.Board, supports []support, cell model.Location) (float64, bool) {
	for _, sp := range supports {
		if !b.Occupied(sp.loc) {
			continue
		}
		if float64(model.Manhattan(cell, sp.loc)) <= sp.rng {
			return sp.amount, true
		}
	}
	return 0, false
}

func compareLoc(a, b model.Location) int {
	if a.X != b.X {
		return a.X - b.X
	}
	return a.Y - b.Y
}
