package rules

import (
	"log/slog"
	"maps"
	"math"

	"github.com/nstehr/rampart/rampart-core/defense"
	"github.com/nstehr/rampart/rampart-core/model"
)

// damageDecay is applied to the damage ledger at every new turn so older
// hits count for less.
const damageDecay = 0.5

// Intel is what one match has taught us about the opponent. It is created
// with the session and dropped with it. It is not safe for concurrent use.
type Intel struct {
	breaches  [defense.NumRegions]int
	breachLog []model.Location
	damage    map[model.Location]float64
	lost      int

	// The opponent is believed to launch once its MP reaches a level in
	// (lower, upper].
	lower, upper float64
	spendMin     float64
	enemyMP      float64
	turnMP       float64
	turnSeen     bool
}

// NewIntel returns empty intel. spendMin is the smallest MP drop within a
// turn that counts as the opponent attacking.
func NewIntel(spendMin float64) *Intel {
	return &Intel{
		damage:   make(map[model.Location]float64),
		upper:    math.Inf(1),
		spendMin: spendMin,
	}
}

// RecordBreach notes an opponent unit scoring at l on our edge.
func (in *Intel) RecordBreach(l model.Location) {
	in.breachLog = append(in.breachLog, l)
	if r, ok := defense.RegionOf(l); ok {
		in.breaches[r]++
	}
}

// RecordDamage adds amount to the ledger entry for l.
func (in *Intel) RecordDamage(l model.Location, amount float64) {
	in.damage[l] += amount
}

// RecordLoss counts one of our structures destroyed at l.
func (in *Intel) RecordLoss(l model.Location, maxHealth float64) {
	in.lost++
	in.damage[l] += maxHealth
}

// StartTurn ages the damage ledger and remembers the opponent's MP before
// it acts this turn.
func (in *Intel) StartTurn(enemyMP float64) {
	for l, v := range in.damage {
		if v *= damageDecay; v < 0.5 {
			delete(in.damage, l)
			continue
		}
		in.damage[l] = v
	}
	in.turnMP = enemyMP
	in.enemyMP = enemyMP
	in.turnSeen = false
}

// ObserveSpend takes the opponent's MP once its deploys for the turn have
// resolved and narrows the attack threshold. Only the first call per turn
// counts.
func (in *Intel) ObserveSpend(enemyMP float64) {
	if in.turnSeen {
		return
	}
	in.turnSeen = true
	level := in.turnMP
	if level-enemyMP >= in.spendMin {
		if level <= in.lower {
			// It attacked below a level it once held at; start over.
			in.lower = 0
		}
		in.upper = min(in.upper, level)
		slog.Debug("opponent attacked", "mp", level, "lower", in.lower, "upper", in.upper)
		return
	}
	if level >= in.upper {
		in.upper = math.Inf(1)
	}
	in.lower = max(in.lower, level)
}

// Threshold returns the lowest MP level the opponent has attacked at, or
// 0 if it has not attacked yet.
func (in *Intel) Threshold() float64 {
	if math.IsInf(in.upper, 1) {
		return 0
	}
	return in.upper
}

// LikelyToAttack reports whether the opponent's current MP has reached a
// level it attacked at before.
func (in *Intel) LikelyToAttack() bool {
	return !math.IsInf(in.upper, 1) && in.enemyMP >= in.upper
}

func (in *Intel) Breaches() int {
	return len(in.breachLog)
}

func (in *Intel) Lost() int {
	return in.lost
}

// Hints snapshots the intel the reinforcement heuristic consumes.
func (in *Intel) Hints() defense.Hints {
	return defense.Hints{Breaches: in.breaches, Damage: maps.Clone(in.damage)}
}
