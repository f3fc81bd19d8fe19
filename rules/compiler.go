package rules

import "fmt"

// CompileDoctrine generates the complete rule set from a doctrine's
// thresholds. All conditions are built via fmt.Sprintf with interpolated
// values, so the compiler never generates invalid expr.
func CompileDoctrine(d Doctrine) []*Rule {
	d.Validate()
	var rules []*Rule

	rules = append(rules, &Rule{
		Name:         "opening",
		Priority:     1000,
		Category:     "setup",
		Exclusive:    true,
		ConditionSrc: `Turn() == 0`,
		Action:       ActionOpening,
	})

	// --- Attack: exactly one of these fires per turn ---

	if d.ResortTurn > 0 {
		rules = append(rules, &Rule{
			Name:         "last-resort",
			Priority:     950,
			Category:     "attack",
			Exclusive:    true,
			ConditionSrc: fmt.Sprintf(`Turn() >= %d && MyHealth() <= %g`, d.ResortTurn, d.ResortHealth),
			Action:       LastResort(d.ResortInterceptors, d.ResortScouts),
		})
	}

	rules = append(rules, &Rule{
		Name:      "all-in",
		Priority:  900,
		Category:  "attack",
		Exclusive: true,
		ConditionSrc: fmt.Sprintf(`HasForecast() && MP() >= %g && EnemyHealth() <= %g && EnemyHealth() - Survivors() < -%g`,
			d.AllInMinMP, d.AllInEnemyHealth, d.AllInMargin),
		Action: ActionLaunchWave,
	})

	rules = append(rules, &Rule{
		Name:      "hold-fire",
		Priority:  850,
		Category:  "attack",
		Exclusive: true,
		// A forecast cut short before any trial finished predicts nothing.
		ConditionSrc: fmt.Sprintf(`!HasForecast() || (Degraded() && Survivors() == 0) || `+
			`(MP() < %g + int(Turn() / %d) && (Survivors() <= %g * WaveSize() || MP() < %g))`,
			d.HoldFloorMP, d.HoldFloorTurns, d.MinSurvival, d.HoldMinMP),
		Action: ActionHoldFire,
	})

	rules = append(rules, &Rule{
		Name:         "launch-wave",
		Priority:     800,
		Category:     "attack",
		Exclusive:    true,
		ConditionSrc: `HasForecast() && WaveSize() > 0`,
		Action:       ActionLaunchWave,
	})

	// --- Supports follow the wave that just launched ---

	if d.MaxSupports > 0 {
		rules = append(rules, &Rule{
			Name:         "manage-support",
			Priority:     700,
			Category:     "support",
			Exclusive:    true,
			ConditionSrc: fmt.Sprintf(`Turn() >= %d && Launched()`, d.SupportTurn),
			Action:       ManageSupports(d.MaxSupports),
		})
	}

	// --- Defense ---

	rules = append(rules, &Rule{
		Name:         "far-side-walls",
		Priority:     650,
		Category:     "defense",
		Exclusive:    false,
		ConditionSrc: `Turn() > 0 && SP() >= 1`,
		Action:       ActionFarSideWalls,
	})

	rules = append(rules, &Rule{
		Name:         "brace",
		Priority:     620,
		Category:     "defense",
		Exclusive:    false,
		ConditionSrc: fmt.Sprintf(`Turn() >= %d && OpponentLikelyToAttack() && SP() >= 1 && Structures("FF") > 0`, d.BraceTurn),
		Action:       ActionBrace,
	})

	rules = append(rules, &Rule{
		Name:         "reinforce",
		Priority:     600,
		Category:     "defense",
		Exclusive:    false,
		ConditionSrc: fmt.Sprintf(`SP() >= %g`, d.MinReinforceSP),
		Action:       Reinforce(d.MaxImprovements, d.MinReinforceSP),
	})

	return rules
}
