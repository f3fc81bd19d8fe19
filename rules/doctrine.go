package rules

import (
	"fmt"
	"os"

	"github.com/nstehr/rampart/rampart-core/attack"
	"github.com/nstehr/rampart/rampart-core/defense"
	"github.com/nstehr/rampart/rampart-core/model"
	"gopkg.in/yaml.v3"
)

// Doctrine holds every tunable threshold. The compiler turns it into rule
// conditions; the rest is handed to the attack and defense packages.
type Doctrine struct {
	Name      string `yaml:"name"`
	Rationale string `yaml:"rationale"`

	// All-in: MP >= AllInMinMP, enemy health <= AllInEnemyHealth and the
	// forecast clears the enemy's health by more than AllInMargin.
	AllInMinMP       float64 `yaml:"all_in_min_mp"`
	AllInEnemyHealth float64 `yaml:"all_in_enemy_health"`
	AllInMargin      float64 `yaml:"all_in_margin"`

	// Hold fire while MP < HoldFloorMP + turn/HoldFloorTurns, unless the
	// forecast keeps MinSurvival of the wave alive and MP >= HoldMinMP.
	HoldFloorMP    float64 `yaml:"hold_floor_mp"`
	HoldFloorTurns int     `yaml:"hold_floor_turns"`
	HoldMinMP      float64 `yaml:"hold_min_mp"`
	MinSurvival    float64 `yaml:"min_survival"`

	Tolerance attack.Tolerance `yaml:"tolerance"`
	// WaveUnit is the mobile unit forecast waves are made of.
	WaveUnit model.UnitType `yaml:"wave_unit"`

	Defense         defense.Config `yaml:"defense"`
	MaxImprovements int            `yaml:"max_improvements"`
	MinReinforceSP  float64        `yaml:"min_reinforce_sp"`

	SupportTurn int `yaml:"support_turn"`
	MaxSupports int `yaml:"max_supports"`

	// BraceTurn is the first turn walls are upgraded ahead of an expected
	// opponent wave.
	BraceTurn int `yaml:"brace_turn"`
	// OpponentSpendMin is the MP drop that counts as an opponent attack.
	OpponentSpendMin float64 `yaml:"opponent_spend_min"`

	// From ResortTurn on, with our health at or below ResortHealth, stop
	// forecasting waves and push through a gap on the opponent's weaker
	// flank. The push waits for enough MP for ResortInterceptors
	// interceptors and ResortScouts scouts. Zero ResortTurn turns it off.
	ResortTurn         int     `yaml:"resort_turn"`
	ResortHealth       float64 `yaml:"resort_health"`
	ResortInterceptors int     `yaml:"resort_interceptors"`
	ResortScouts       int     `yaml:"resort_scouts"`
}

// DefaultDoctrine returns the baseline thresholds.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:             "Rampart",
		Rationale:        "Turtle behind a sealed front and strike with full waves",
		AllInMinMP:       8,
		AllInEnemyHealth: 7,
		AllInMargin:      3,
		HoldFloorMP:      15,
		HoldFloorTurns:   10,
		HoldMinMP:        8,
		MinSurvival:      0.6,
		Tolerance:        attack.DefaultTolerance(),
		WaveUnit:         model.Scout,
		Defense:          defense.DefaultConfig(),
		MaxImprovements:  15,
		MinReinforceSP:   2,
		SupportTurn:      5,
		MaxSupports:      2,
		BraceTurn:        3,
		OpponentSpendMin: 5,

		ResortHealth:       30,
		ResortInterceptors: 3,
		ResortScouts:       7,
	}
}

// LoadDoctrine reads a YAML doctrine from path over the defaults.
func LoadDoctrine(path string) (Doctrine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Doctrine{}, fmt.Errorf("read doctrine: %w", err)
	}
	return ParseDoctrine(data)
}

// ParseDoctrine decodes YAML over DefaultDoctrine and validates the result.
// Fields missing from data keep their defaults.
func ParseDoctrine(data []byte) (Doctrine, error) {
	d := DefaultDoctrine()
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Doctrine{}, fmt.Errorf("parse doctrine: %w", err)
	}
	d.Validate()
	return d, nil
}

// Validate clamps all thresholds to their valid ranges.
func (d *Doctrine) Validate() {
	d.AllInMinMP = clamp(d.AllInMinMP, 1, 100)
	d.AllInEnemyHealth = clamp(d.AllInEnemyHealth, 0, 100)
	d.AllInMargin = clamp(d.AllInMargin, 0, 100)
	d.HoldFloorMP = clamp(d.HoldFloorMP, 0, 100)
	d.HoldFloorTurns = clampInt(d.HoldFloorTurns, 1, 100)
	d.HoldMinMP = clamp(d.HoldMinMP, 0, 100)
	d.MinSurvival = clamp(d.MinSurvival, 0, 1)

	d.Tolerance.Survivors = clamp(d.Tolerance.Survivors, 0, 1)
	d.Tolerance.Support = clamp(d.Tolerance.Support, 0, 1)
	d.Tolerance.Window = clampInt(d.Tolerance.Window, 1, 28)
	d.Tolerance.RunnerUps = clampInt(d.Tolerance.RunnerUps, 1, 28)
	if !d.WaveUnit.Valid() || d.WaveUnit.Stationary() {
		d.WaveUnit = model.Scout
	}

	d.Defense.RepairBelow = clamp(d.Defense.RepairBelow, 0, 1)
	d.Defense.SecondRowMinSP = clamp(d.Defense.SecondRowMinSP, 0, 1000)
	d.Defense.SealTurn = clampInt(d.Defense.SealTurn, 0, 1000)
	d.Defense.FunnelTurn = clampInt(d.Defense.FunnelTurn, 0, 1000)
	d.Defense.FunnelLayers = clampInt(d.Defense.FunnelLayers, 0, 10)
	d.MaxImprovements = clampInt(d.MaxImprovements, 1, 100)
	d.MinReinforceSP = clamp(d.MinReinforceSP, 0, 100)

	d.SupportTurn = clampInt(d.SupportTurn, 0, 1000)
	d.MaxSupports = clampInt(d.MaxSupports, 0, 20)
	d.BraceTurn = clampInt(d.BraceTurn, 0, 1000)
	d.OpponentSpendMin = clamp(d.OpponentSpendMin, 1, 100)

	d.ResortTurn = clampInt(d.ResortTurn, 0, 1000)
	d.ResortHealth = clamp(d.ResortHealth, 0, 100)
	d.ResortInterceptors = clampInt(d.ResortInterceptors, 0, 20)
	d.ResortScouts = clampInt(d.ResortScouts, 0, 100)
}

// clampInt restricts v to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
