package rules

import (
	"strings"
	"testing"

	"github.com/expr-lang/expr"
)

func TestCompileDoctrineDefault(t *testing.T) {
	rules := CompileDoctrine(DefaultDoctrine())
	if len(rules) == 0 {
		t.Fatal("CompileDoctrine returned no rules")
	}

	// Verify all rules compile with expr
	for _, r := range rules {
		_, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			t.Errorf("rule %q failed to compile: %v\ncondition: %s", r.Name, err, r.ConditionSrc)
		}
	}

	want := map[string]bool{
		"opening":        false,
		"all-in":         false,
		"hold-fire":      false,
		"launch-wave":    false,
		"manage-support": false,
		"far-side-walls": false,
		"brace":          false,
		"reinforce":      false,
	}
	for _, r := range rules {
		if _, ok := want[r.Name]; ok {
			want[r.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("rule %q missing from compiled doctrine", name)
		}
	}
}

func TestCompileDoctrineInterpolatesThresholds(t *testing.T) {
	d := DefaultDoctrine()
	d.HoldFloorMP = 12
	d.HoldFloorTurns = 5
	d.MinSurvival = 0.75
	d.AllInMargin = 2.5

	conds := make(map[string]string)
	for _, r := range CompileDoctrine(d) {
		conds[r.Name] = r.ConditionSrc
	}
	for _, frag := range []string{"MP() < 12", "Turn() / 5", "0.75 * WaveSize()"} {
		if !strings.Contains(conds["hold-fire"], frag) {
			t.Errorf("hold-fire condition %q missing %q", conds["hold-fire"], frag)
		}
	}
	if !strings.Contains(conds["all-in"], "< -2.5") {
		t.Errorf("all-in condition %q missing margin", conds["all-in"])
	}
}

func TestCompileDoctrineWithoutSupports(t *testing.T) {
	d := DefaultDoctrine()
	d.MaxSupports = 0
	for _, r := range CompileDoctrine(d) {
		if r.Name == "manage-support" {
			t.Error("manage-support compiled with MaxSupports=0")
		}
	}
}

func TestAttackRulesAreExclusive(t *testing.T) {
	for _, r := range CompileDoctrine(DefaultDoctrine()) {
		if r.Category == "attack" && !r.Exclusive {
			t.Errorf("attack rule %q is not exclusive", r.Name)
		}
	}
}

func TestHoldFireCondition(t *testing.T) {
	var hold *Rule
	for _, r := range CompileDoctrine(DefaultDoctrine()) {
		if r.Name == "hold-fire" {
			hold = r
		}
	}
	prog, err := expr.Compile(hold.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
	if err != nil {
		t.Fatalf("compile hold-fire: %v", err)
	}
	d := DefaultDoctrine()

	tests := []struct {
		name      string
		turn      int
		mp        float64
		size      int
		survivors int
		degraded  bool
		want      bool
	}{
		{"majority survives", 0, 10, 10, 7, false, false},
		{"exactly the fraction holds", 0, 10, 10, 6, false, true},
		{"under the small floor", 0, 7, 7, 7, false, true},
		{"over the turn floor", 30, 18, 18, 0, false, false},
		{"under the turn floor", 30, 17, 17, 0, false, true},
		{"cut short with no result", 30, 20, 20, 0, true, true},
		{"cut short after a result", 30, 20, 20, 4, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := newTurn(tc.turn, 0, tc.mp, 30)
			f := forecast(tc.size, tc.survivors)
			f.Degraded = tc.degraded
			env := RuleEnv{State: q.State(), Forecast: f, Doctrine: &d}
			got, err := expr.Run(prog, env)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if got != tc.want {
				t.Errorf("hold-fire = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCompileDoctrineLastResort(t *testing.T) {
	d := DefaultDoctrine()
	for _, r := range CompileDoctrine(d) {
		if r.Name == "last-resort" {
			t.Error("last-resort compiled with ResortTurn=0")
		}
	}

	d.ResortTurn = 6
	d.ResortHealth = 12.5
	var resort *Rule
	for _, r := range CompileDoctrine(d) {
		if r.Name == "last-resort" {
			resort = r
		}
	}
	if resort == nil {
		t.Fatal("last-resort missing")
	}
	if resort.Category != "attack" || !resort.Exclusive {
		t.Errorf("last-resort category = %q exclusive %v", resort.Category, resort.Exclusive)
	}
	if want := "Turn() >= 6 && MyHealth() <= 12.5"; resort.ConditionSrc != want {
		t.Errorf("condition = %q, want %q", resort.ConditionSrc, want)
	}
}
