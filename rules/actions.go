package rules

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/nstehr/rampart/rampart-core/defense"
	"github.com/nstehr/rampart/rampart-core/model"
	"github.com/nstehr/rampart/rampart-core/nav"
	"github.com/nstehr/rampart/rampart-core/orders"
)

// ActionOpening lays the whole defensive layout on the first turn.
func ActionOpening(env RuleEnv, q *orders.Queue) error {
	n := env.Defense.Opening(q)
	n += env.Defense.FarWalls(q, nil)
	slog.Info("opening placed", "structures", n, "sp", q.State().Me().SP)
	return nil
}

// ActionLaunchWave spends the forecast wave at the chosen deploy cell.
func ActionLaunchWave(env RuleEnv, q *orders.Queue) error {
	c := env.Forecast
	loc := c.Location()
	unit := c.Outcome.Wave.Unit
	n := q.Spawn(unit, loc, c.Outcome.Wave.Size)
	if n == 0 {
		return fmt.Errorf("launch %s wave at %s: nothing placed", unit, loc)
	}
	env.Memory[memLaunchTurn] = env.Turn()
	env.Memory[memLaunchLoc] = loc
	env.Memory[memLaunchRoute] = c.Outcome.Route
	slog.Info("wave launched",
		"turn", env.Turn(),
		"loc", loc,
		"units", n,
		"survivors", c.Survivors(),
		"diversified", c.Diversified,
		"degraded", c.Degraded,
	)
	return nil
}

func ActionHoldFire(env RuleEnv, q *orders.Queue) error {
	slog.Info("holding fire",
		"turn", env.Turn(),
		"mp", env.MP(),
		"floor", env.HoldFloor(),
		"wave", env.WaveSize(),
		"survivors", env.Survivors(),
	)
	return nil
}

// ActionFarSideWalls keeps the corner walls built and upgraded, except in
// a gap the last resort is holding open.
func ActionFarSideWalls(env RuleEnv, q *orders.Queue) error {
	open := env.openCells()
	placed := env.Defense.FarWalls(q, open)
	upgraded := 0
	for _, l := range env.Defense.Config().FarWalls {
		if slices.Contains(open, l) {
			continue
		}
		if q.Upgrade(l) {
			upgraded++
		}
	}
	if placed > 0 || upgraded > 0 {
		slog.Debug("far-side walls", "placed", placed, "upgraded", upgraded)
	}
	return nil
}

// ActionBrace upgrades anchor walls, most damaged first, when the opponent
// has enough MP for a wave it launched before.
func ActionBrace(env RuleEnv, q *orders.Queue) error {
	h := env.hints()
	var walls []model.Location
	for _, a := range env.Defense.Config().Anchors {
		walls = append(walls, a.Wall)
	}
	slices.SortStableFunc(walls, func(a, b model.Location) int {
		return cmp.Compare(h.Damage[b], h.Damage[a])
	})
	n := 0
	for _, l := range walls {
		if q.Upgrade(l) {
			n++
		}
	}
	if n > 0 {
		slog.Info("bracing for a wave", "upgraded", n, "threshold", env.OpponentThreshold(), "enemyMP", env.EnemyMP())
	}
	return nil
}

// Reinforce loops the reinforcement heuristic until it runs out of work,
// the pool drops below minSP or the cheapest structure, or maxIter actions
// have been taken.
func Reinforce(maxIter int, minSP float64) ActionFunc {
	return func(env RuleEnv, q *orders.Queue) error {
		floor := max(minSP, q.Catalog().MinStructureCost())
		h := env.hints()
		var taken []defense.Action
		refund := 0.0
		for range maxIter {
			if q.State().Me().SP < floor {
				break
			}
			a, ok := env.Defense.Improve(q, h)
			if !ok {
				break
			}
			taken = append(taken, a)
			refund += a.Refund
		}
		if len(taken) > 0 {
			slog.Debug("reinforced", "actions", len(taken), "sp", q.State().Me().SP, "refund", refund)
		}
		return nil
	}
}

// ManageSupports keeps up to max supports shielding the route of this
// turn's wave and removes the ones that no longer reach it.
func ManageSupports(max int) ActionFunc {
	return func(env RuleEnv, q *orders.Queue) error {
		loc, ok := env.Memory[memLaunchLoc].(model.Location)
		if !ok {
			return nil
		}
		route, _ := env.Memory[memLaunchRoute].([]model.Location)
		rep := defense.Shields{Max: max}.Reinforce(q, loc, route)
		if rep != (defense.ShieldReport{}) {
			slog.Debug("supports",
				"placed", rep.Placed,
				"upgraded", rep.Upgraded,
				"removed", rep.Removed,
				"refund", rep.Refund,
				"loc", loc,
			)
		}
		return nil
	}
}

// LastResort gives up on forecast waves and pushes down the opponent's
// weaker flank, picked once per match. While MP covers interceptors plus
// scouts the flank's far-wall gap is held open; once the gap is clear the
// interceptors go out at the rim and every remaining MP follows as scouts.
func LastResort(interceptors, scouts int) ActionFunc {
	return func(env RuleEnv, q *orders.Queue) error {
		flank, ok := env.Memory[memResortFlank].(defense.Flank)
		if !ok {
			flank = defense.WeakerFlank(&q.State().Board)
			env.Memory[memResortFlank] = flank
			slog.Info("last resort", "turn", env.Turn(), "flank", flank, "health", env.MyHealth())
		}
		plan := defense.DefaultFlanks()[flank]

		cat := q.Catalog()
		scoutCost := cat.Stats(model.Scout, false).CostMP
		if scoutCost <= 0 {
			scoutCost = 1
		}
		need := float64(interceptors)*cat.Stats(model.Interceptor, false).CostMP + float64(scouts)*scoutCost
		if env.MP() < need {
			slog.Debug("last resort waiting", "turn", env.Turn(), "mp", env.MP(), "need", need)
			return nil
		}

		env.Memory[memGapTurn] = env.Turn()
		if removed, refund := plan.OpenGap(q); removed > 0 {
			slog.Info("opening flank gap", "flank", flank, "removed", removed, "refund", refund)
		}
		if !plan.GapClear(&q.State().Board) {
			return nil
		}

		ni := q.Spawn(model.Interceptor, plan.Interceptor, interceptors)
		ns := q.Spawn(model.Scout, plan.Scout, int(math.Floor(q.State().Me().MP/scoutCost)))
		if ni+ns == 0 {
			return fmt.Errorf("last resort on the %s flank: nothing placed", flank)
		}
		board := &q.State().Board
		env.Memory[memLaunchTurn] = env.Turn()
		env.Memory[memLaunchLoc] = plan.Scout
		env.Memory[memLaunchRoute] = nav.Pathfinder{}.Route(board, plan.Scout, model.TargetEdge(plan.Scout))
		slog.Info("last resort launched",
			"turn", env.Turn(),
			"flank", flank,
			"interceptors", ni,
			"scouts", ns,
		)
		return nil
	}
}
