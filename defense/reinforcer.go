// Package defense decides how to spend structure points: it keeps a fixed
// turret and wall layout standing, repairs what is failing, upgrades what
// is taking damage, and late in the match seals the front row behind a
// single choke with a funnel beneath it.
package defense

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/nstehr/rampart/rampart-core/model"
)

// Builder is the slice of the turn queue the heuristic acts through.
type Builder interface {
	State() *model.GameState
	Catalog() *model.Catalog
	CanSpawn(t model.UnitType, l model.Location, n int) bool
	Spawn(t model.UnitType, l model.Location, n int) int
	SpawnAll(t model.UnitType, locs []model.Location) int
	CanUpgrade(l model.Location) bool
	Upgrade(l model.Location) bool
	Remove(l model.Location) bool
	Refund(l model.Location) float64
}

type ActionKind int

const (
	Repair ActionKind = iota
	Fill
	Upgrade
	SecondRow
	Seal
	Funnel
)

func (k ActionKind) String() string {
	switch k {
	case Repair:
		return "repair"
	case Fill:
		return "fill"
	case Upgrade:
		return "upgrade"
	case SecondRow:
		return "second-row"
	case Seal:
		return "seal"
	case Funnel:
		return "funnel"
	}
	return "unknown"
}

// Action records the single change one Improve call made. Refund is the
// SP a repair gets back next turn.
type Action struct {
	Kind   ActionKind
	Unit   model.UnitType
	Loc    model.Location
	Refund float64
}

// Config tunes the heuristic.
type Config struct {
	Layout  `yaml:",inline"`
	Weights Weights `yaml:"weights"`
	// RepairBelow is the health fraction under which a structure is
	// removed so it can be rebuilt fresh.
	RepairBelow    float64 `yaml:"repair_below"`
	SecondRowMinSP float64 `yaml:"second_row_min_sp"`
	SealTurn       int     `yaml:"seal_turn"`
	FunnelTurn     int     `yaml:"funnel_turn"`
	FunnelLayers   int     `yaml:"funnel_layers"`
}

func DefaultConfig() Config {
	return Config{
		Layout:         DefaultLayout(),
		Weights:        DefaultWeights(),
		RepairBelow:    0.25,
		SecondRowMinSP: 6,
		SealTurn:       15,
		FunnelTurn:     20,
		FunnelLayers:   3,
	}
}

// Hints carries what the session has learned about the opponent.
type Hints struct {
	// Breaches counts opponent scoring hits per region.
	Breaches [NumRegions]int
	// Damage is recent damage taken per friendly cell.
	Damage map[model.Location]float64
	// Open lists cells that must stay empty this turn.
	Open []model.Location
}

type Reinforcer struct {
	cfg Config
}

func NewReinforcer(cfg Config) *Reinforcer {
	return &Reinforcer{cfg: cfg}
}

func (r *Reinforcer) Config() Config { return r.cfg }

// Improve makes at most one change to b and reports whether it did. Calling
// it again on an unchanged board with unchanged resources makes the same
// decision, so callers can loop it until it returns false.
func (r *Reinforcer) Improve(b Builder, h Hints) (Action, bool) {
	gs := b.State()
	order := r.cfg.Weights.Weakest(Survey(&gs.Board), h.Breaches)
	for _, reg := range order {
		if a, ok := r.improveRegion(b, reg, h); ok {
			slog.Debug("reinforce", "region", int(reg), "action", a.Kind, "unit", a.Unit, "loc", a.Loc)
			return a, true
		}
	}
	if a, ok := r.seal(b, h.Open); ok {
		slog.Debug("reinforce", "action", a.Kind, "unit", a.Unit, "loc", a.Loc)
		return a, true
	}
	if a, ok := r.funnel(b); ok {
		slog.Debug("reinforce", "action", a.Kind, "unit", a.Unit, "loc", a.Loc)
		return a, true
	}
	return Action{}, false
}

func (r *Reinforcer) improveRegion(b Builder, reg Region, h Hints) (Action, bool) {
	if a, ok := r.repair(b, reg); ok {
		return a, true
	}
	if a, ok := r.fill(b, reg); ok {
		return a, true
	}
	if a, ok := r.upgrade(b, reg, h); ok {
		return a, true
	}
	return r.secondRow(b, reg)
}

func (r *Reinforcer) repair(b Builder, reg Region) (Action, bool) {
	board := &b.State().Board
	for _, l := range reg.Cells() {
		s, ok := board.At(l)
		if !ok || s.Owner != model.Self || s.PendingRemoval {
			continue
		}
		if s.HealthFraction() < r.cfg.RepairBelow && b.Remove(l) {
			return Action{Kind: Repair, Unit: s.Type, Loc: l, Refund: b.Refund(l)}, true
		}
	}
	return Action{}, false
}

// fill builds missing anchor walls first. A turret only goes up behind a
// standing wall.
func (r *Reinforcer) fill(b Builder, reg Region) (Action, bool) {
	anchors := r.cfg.AnchorsIn(reg)
	for _, a := range anchors {
		if spawn(b, model.Wall, a.Wall) {
			return Action{Kind: Fill, Unit: model.Wall, Loc: a.Wall}, true
		}
	}
	board := &b.State().Board
	for _, a := range anchors {
		w, ok := board.At(a.Wall)
		if !ok || w.Owner != model.Self {
			continue
		}
		if spawn(b, model.Turret, a.Turret) {
			return Action{Kind: Fill, Unit: model.Turret, Loc: a.Turret}, true
		}
	}
	return Action{}, false
}

// upgrade works through the region's anchor cells, most damaged first.
func (r *Reinforcer) upgrade(b Builder, reg Region, h Hints) (Action, bool) {
	var cells []model.Location
	for _, a := range r.cfg.AnchorsIn(reg) {
		cells = append(cells, a.Wall, a.Turret)
	}
	slices.SortStableFunc(cells, func(x, y model.Location) int {
		return cmp.Compare(h.Damage[y], h.Damage[x])
	})
	for _, l := range cells {
		if b.Upgrade(l) {
			s, _ := b.State().Board.At(l)
			return Action{Kind: Upgrade, Unit: s.Type, Loc: l}, true
		}
	}
	return Action{}, false
}

// secondRow adds turrets one row behind the anchors, under cells that
// already hold one of our structures.
func (r *Reinforcer) secondRow(b Builder, reg Region) (Action, bool) {
	if b.State().Me().SP < r.cfg.SecondRowMinSP {
		return Action{}, false
	}
	board := &b.State().Board
	for _, a := range r.cfg.AnchorsIn(reg) {
		y := a.Turret.Y - 1
		for _, x := range reg.columnSequence(a.Turret.X) {
			if !ownedBySelf(board, model.Loc(x, y+1)) && !ownedBySelf(board, model.Loc(x, y+2)) {
				continue
			}
			l := model.Loc(x, y)
			if spawn(b, model.Turret, l) {
				return Action{Kind: SecondRow, Unit: model.Turret, Loc: l}, true
			}
		}
	}
	return Action{}, false
}

// seal closes the front row except for the choke and any open cells,
// clearing the choke first if something of ours stands on it.
func (r *Reinforcer) seal(b Builder, open []model.Location) (Action, bool) {
	gs := b.State()
	if gs.Turn < r.cfg.SealTurn {
		return Action{}, false
	}
	choke := r.cfg.Choke
	if s, ok := gs.Board.At(choke); ok && s.Owner == model.Self && !s.PendingRemoval {
		if b.Remove(choke) {
			return Action{Kind: Seal, Unit: s.Type, Loc: choke}, true
		}
	}
	y := r.cfg.FrontRow()
	for x := range model.ArenaSize {
		l := model.Loc(x, y)
		if l == choke || !l.InBounds() || slices.Contains(open, l) {
			continue
		}
		if spawn(b, model.Wall, l) {
			return Action{Kind: Seal, Unit: model.Wall, Loc: l}, true
		}
	}
	return Action{}, false
}

// funnel lays walls and turrets in a widening V under the choke, one more
// layer for every turn past FunnelTurn. The choke column stays open.
func (r *Reinforcer) funnel(b Builder) (Action, bool) {
	turn := b.State().Turn
	if turn < r.cfg.FunnelTurn || r.cfg.FunnelLayers < 1 {
		return Action{}, false
	}
	c := r.cfg.Choke
	deepest := min(turn-r.cfg.FunnelTurn, r.cfg.FunnelLayers-1)
	for layer := 0; layer <= deepest; layer++ {
		for _, d := range []int{-1, 1} {
			l := model.Loc(c.X+d*(1+layer), c.Y-2-layer)
			if spawn(b, model.Wall, l) {
				return Action{Kind: Funnel, Unit: model.Wall, Loc: l}, true
			}
		}
		for _, d := range []int{-1, 1} {
			l := model.Loc(c.X+d*(2+layer), c.Y-3-layer)
			if spawn(b, model.Turret, l) {
				return Action{Kind: Funnel, Unit: model.Turret, Loc: l}, true
			}
		}
	}
	return Action{}, false
}

// Opening places the whole anchor layout, turrets first, as far as the
// pool allows. It returns how many structures went down.
func (r *Reinforcer) Opening(b Builder) int {
	turrets := make([]model.Location, len(r.cfg.Anchors))
	walls := make([]model.Location, len(r.cfg.Anchors))
	for i, a := range r.cfg.Anchors {
		turrets[i], walls[i] = a.Turret, a.Wall
	}
	return b.SpawnAll(model.Turret, turrets) + b.SpawnAll(model.Wall, walls)
}

// FarWalls keeps the corner walls standing, skipping the open cells.
func (r *Reinforcer) FarWalls(b Builder, open []model.Location) int {
	walls := slices.DeleteFunc(slices.Clone(r.cfg.FarWalls), func(l model.Location) bool {
		return slices.Contains(open, l)
	})
	return b.SpawnAll(model.Wall, walls)
}

func spawn(b Builder, t model.UnitType, l model.Location) bool {
	return b.CanSpawn(t, l, 1) && b.Spawn(t, l, 1) == 1
}

func ownedBySelf(board *model.Board, l model.Location) bool {
	s, ok := board.At(l)
	return ok && s.Owner == model.Self
}
