package defense

import (
	"cmp"
	"slices"

	"github.com/nstehr/rampart/rampart-core/model"
)

// Weights turn a region's tally into a scalar strength.
type Weights struct {
	Wall           float64 `yaml:"wall"`
	UpgradedWall   float64 `yaml:"upgraded_wall"`
	Turret         float64 `yaml:"turret"`
	UpgradedTurret float64 `yaml:"upgraded_turret"`
	// BreachPenalty divides a region's score by 1+penalty per breach
	// recorded there, pulling reinforcement toward leaky regions.
	BreachPenalty float64 `yaml:"breach_penalty"`
}

func DefaultWeights() Weights {
	return Weights{Wall: 1, UpgradedWall: 3, Turret: 6, UpgradedTurret: 8, BreachPenalty: 0.5}
}

// Tally is a health-weighted structure count for one region. A structure
// at half health counts as half.
type Tally struct {
	Wall           float64
	UpgradedWall   float64
	Turret         float64
	UpgradedTurret float64
}

func (t *Tally) add(s model.Structure) {
	f := s.HealthFraction()
	switch {
	case s.Type == model.Wall && s.Upgraded:
		t.UpgradedWall += f
	case s.Type == model.Wall:
		t.Wall += f
	case s.Type == model.Turret && s.Upgraded:
		t.UpgradedTurret += f
	case s.Type == model.Turret:
		t.Turret += f
	}
}

// Survey tallies our structures per region.
func Survey(b *model.Board) [NumRegions]Tally {
	var out [NumRegions]Tally
	for l, s := range b.Owned(model.Self) {
		if r, ok := RegionOf(l); ok {
			out[r].add(s)
		}
	}
	return out
}

// Score is the region's strength. It is halved while the region has less
// than one whole upgraded wall.
func (w Weights) Score(t Tally) float64 {
	v := t.UpgradedTurret*w.UpgradedTurret + t.Turret*w.Turret + t.UpgradedWall*w.UpgradedWall + t.Wall*w.Wall
	if t.UpgradedWall < 1 {
		v /= 2
	}
	return v
}

// Weakest orders regions by ascending score, biased by breach counts.
// Ties keep region order.
func (w Weights) Weakest(tallies [NumRegions]Tally, breaches [NumRegions]int) []Region {
	var scores [NumRegions]float64
	for r, t := range tallies {
		scores[r] = w.Score(t) / (1 + w.BreachPenalty*float64(breaches[r]))
	}
	order := make([]Region, NumRegions)
	for i := range order {
		order[i] = Region(i)
	}
	slices.SortStableFunc(order, func(a, b Region) int {
		return cmp.Compare(scores[a], scores[b])
	})
	return order
}
