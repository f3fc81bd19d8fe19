package rules

import (
	"math"

	"github.com/nstehr/rampart/rampart-core/attack"
	"github.com/nstehr/rampart/rampart-core/defense"
	"github.com/nstehr/rampart/rampart-core/model"
)

// RuleEnv wraps the turn's working state and exposes helper methods
// callable from expr expressions. State points at the order queue's copy,
// so conditions see what earlier rules already spent.
type RuleEnv struct {
	State    *model.GameState
	Forecast *attack.Choice
	Intel    *Intel
	Doctrine *Doctrine
	Defense  *defense.Reinforcer
	Memory   map[string]any
}

func (e RuleEnv) Turn() int { return e.State.Turn }

func (e RuleEnv) MP() float64 { return e.State.Me().MP }
func (e RuleEnv) SP() float64 { return e.State.Me().SP }

func (e RuleEnv) MyHealth() float64    { return e.State.Me().Health }
func (e RuleEnv) EnemyHealth() float64 { return e.State.Enemy().Health }
func (e RuleEnv) EnemyMP() float64     { return e.State.Enemy().MP }

// HasForecast reports whether a wave was simulated this turn.
func (e RuleEnv) HasForecast() bool {
	return e.Forecast != nil && e.Forecast.Outcome.Wave.Size > 0
}

// WaveSize is the forecast wave: the whole MP pool in whole units.
func (e RuleEnv) WaveSize() int {
	if e.Forecast == nil {
		return 0
	}
	return e.Forecast.Outcome.Wave.Size
}

func (e RuleEnv) Survivors() int {
	if e.Forecast == nil {
		return 0
	}
	return e.Forecast.Survivors()
}

// Degraded reports whether the forecast was cut short by the turn budget.
func (e RuleEnv) Degraded() bool {
	return e.Forecast != nil && e.Forecast.Degraded
}

// HoldFloor is the MP level below which waves are held back this turn.
func (e RuleEnv) HoldFloor() float64 {
	return e.Doctrine.HoldFloorMP + math.Floor(float64(e.Turn())/float64(e.Doctrine.HoldFloorTurns))
}

// Launched reports whether a wave went out this turn.
func (e RuleEnv) Launched() bool {
	t, ok := e.Memory[memLaunchTurn].(int)
	return ok && t == e.Turn()
}

func (e RuleEnv) OpponentThreshold() float64 {
	if e.Intel == nil {
		return 0
	}
	return e.Intel.Threshold()
}

func (e RuleEnv) OpponentLikelyToAttack() bool {
	return e.Intel != nil && e.Intel.LikelyToAttack()
}

// Structures counts our standing structures of the named type.
func (e RuleEnv) Structures(name string) int {
	t, err := model.ParseUnitType(name)
	if err != nil {
		return 0
	}
	n := 0
	for _, s := range e.State.Board.Owned(model.Self) {
		if s.Type == t && !s.PendingRemoval {
			n++
		}
	}
	return n
}

func (e RuleEnv) hints() defense.Hints {
	var h defense.Hints
	if e.Intel != nil {
		h = e.Intel.Hints()
	}
	h.Open = e.openCells()
	return h
}

// openCells lists the flank gap cells the last resort holds open this turn.
func (e RuleEnv) openCells() []model.Location {
	t, ok := e.Memory[memGapTurn].(int)
	if !ok || t != e.Turn() {
		return nil
	}
	f, ok := e.Memory[memResortFlank].(defense.Flank)
	if !ok {
		return nil
	}
	return defense.DefaultFlanks()[f].Gap
}
