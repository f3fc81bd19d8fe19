// Package orders stages one turn's actions against a working copy of the
// game state. Every primitive checks legality and cost locally, mutates the
// copy and debits the pool in the same call, and queues the wire command.
// Illegal requests are no-ops that report false.
package orders

import (
	"log/slog"

	"github.com/nstehr/rampart/rampart-core/ipc"
	"github.com/nstehr/rampart/rampart-core/model"
)

// Queue is the per-turn action buffer. It is not safe for concurrent use.
type Queue struct {
	state   model.GameState
	catalog *model.Catalog
	build   []ipc.Command
	deploy  []ipc.Command
}

// New starts a turn from gs. gs is copied.
func New(gs *model.GameState, cat *model.Catalog) *Queue {
	return &Queue{state: gs.Clone(), catalog: cat}
}

// State exposes the working copy, including actions staged so far.
func (q *Queue) State() *model.GameState { return &q.state }

func (q *Queue) Catalog() *model.Catalog { return q.catalog }

func (q *Queue) me() *model.PlayerState { return q.state.Me() }

func (q *Queue) affordable(sp, mp float64, n int) bool {
	return q.me().SP >= sp*float64(n) && q.me().MP >= mp*float64(n)
}

// CanSpawn reports whether n units of t could be placed at l right now.
func (q *Queue) CanSpawn(t model.UnitType, l model.Location, n int) bool {
	if !t.Valid() || n < 1 || !l.InBounds() {
		return false
	}
	cost := q.catalog.Stats(t, false)
	if !q.affordable(cost.CostSP, cost.CostMP, n) {
		return false
	}
	if q.state.Board.Occupied(l) {
		return false
	}
	if t.Stationary() {
		return n == 1 && l.Friendly()
	}
	return model.BottomLeft.Contains(l) || model.BottomRight.Contains(l)
}

// Spawn places up to n units of t at l and returns how many were placed.
func (q *Queue) Spawn(t model.UnitType, l model.Location, n int) int {
	if t.Stationary() {
		n = min(n, 1)
	}
	placed := 0
	for placed < n && q.CanSpawn(t, l, 1) {
		cost := q.catalog.Stats(t, false)
		q.me().SP -= cost.CostSP
		q.me().MP -= cost.CostMP
		cmd := ipc.Command{Shorthand: t.Shorthand(), X: l.X, Y: l.Y}
		if t.Stationary() {
			q.state.Board.Place(l, model.Structure{
				Type:      t,
				Owner:     model.Self,
				Health:    cost.Health,
				MaxHealth: cost.Health,
			})
			q.build = append(q.build, cmd)
		} else {
			q.deploy = append(q.deploy, cmd)
		}
		placed++
	}
	if placed < n {
		slog.Debug("spawn short", "unit", t, "loc", l, "requested", n, "placed", placed)
	}
	return placed
}

// SpawnAll tries t at every location and returns how many were placed.
func (q *Queue) SpawnAll(t model.UnitType, locs []model.Location) int {
	n := 0
	for _, l := range locs {
		n += q.Spawn(t, l, 1)
	}
	return n
}

// CanUpgrade reports whether the friendly structure at l can be upgraded.
func (q *Queue) CanUpgrade(l model.Location) bool {
	s, ok := q.state.Board.At(l)
	if !ok || s.Owner != model.Self || s.Upgraded || s.PendingRemoval {
		return false
	}
	info := q.catalog.Info(s.Type)
	return q.affordable(info.UpgradeSP, info.UpgradeMP, 1)
}

// Upgrade upgrades the friendly structure at l. Lost health stays lost.
func (q *Queue) Upgrade(l model.Location) bool {
	if !q.CanUpgrade(l) {
		return false
	}
	s, _ := q.state.Board.At(l)
	info := q.catalog.Info(s.Type)
	q.me().SP -= info.UpgradeSP
	q.me().MP -= info.UpgradeMP
	q.state.Board.Update(l, func(s *model.Structure) {
		s.Upgraded = true
		s.MaxHealth = q.catalog.Stats(s.Type, true).Health
	})
	q.build = append(q.build, ipc.Command{Shorthand: model.ShorthandUpgrade, X: l.X, Y: l.Y})
	return true
}

// Remove schedules the friendly structure at l for removal. The engine
// takes it off the board and refunds it at the end of the turn, so the
// cell stays occupied here.
func (q *Queue) Remove(l model.Location) bool {
	s, ok := q.state.Board.At(l)
	if !ok || s.Owner != model.Self || s.PendingRemoval {
		return false
	}
	q.state.Board.Update(l, func(s *model.Structure) { s.PendingRemoval = true })
	q.build = append(q.build, ipc.Command{Shorthand: model.ShorthandRemove, X: l.X, Y: l.Y})
	return true
}

// Refund estimates what removing the structure at l returns next turn.
func (q *Queue) Refund(l model.Location) float64 {
	s, ok := q.state.Board.At(l)
	if !ok {
		return 0
	}
	info := q.catalog.Info(s.Type)
	spent := info.Base.CostSP
	if s.Upgraded {
		spent += info.UpgradeSP
	}
	return spent * info.RefundFraction * s.HealthFraction()
}

// Submission returns the staged build and deploy stacks.
func (q *Queue) Submission() ipc.Submission {
	return ipc.Submission{Build: q.build, Deploy: q.deploy}
}
