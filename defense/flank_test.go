package defense

import (
	"testing"

	"github.com/nstehr/rampart/rampart-core/model"
)

func enemyAt(t model.UnitType, upgraded bool) model.Structure {
	return model.Structure{Type: t, Owner: model.Opponent, Upgraded: upgraded, Health: 1, MaxHealth: 1}
}

func TestWeakerFlank(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *model.Board)
		want  Flank
	}{
		{"empty board goes right", func(b *model.Board) {}, RightFlank},
		{"turret outweighs a wall", func(b *model.Board) {
			b.Place(model.Loc(3, 16), enemyAt(model.Wall, false))
			b.Place(model.Loc(24, 16), enemyAt(model.Turret, false))
		}, LeftFlank},
		{"upgrades count extra", func(b *model.Board) {
			b.Place(model.Loc(3, 16), enemyAt(model.Turret, true))
			b.Place(model.Loc(24, 16), enemyAt(model.Turret, false))
		}, RightFlank},
		{"supports do not count", func(b *model.Board) {
			b.Place(model.Loc(3, 16), enemyAt(model.Wall, false))
			b.Place(model.Loc(20, 16), enemyAt(model.Support, true))
			b.Place(model.Loc(21, 16), enemyAt(model.Support, true))
		}, RightFlank},
		{"our half is ignored", func(b *model.Board) {
			b.Place(model.Loc(3, 16), enemyAt(model.Wall, false))
			b.Place(model.Loc(20, 10), own(model.Turret, true))
		}, RightFlank},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var b model.Board
			tc.setup(&b)
			if got := WeakerFlank(&b); got != tc.want {
				t.Errorf("WeakerFlank = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestOpenGap(t *testing.T) {
	plan := DefaultFlanks()[LeftFlank]
	q := newBuilder(8, 0, func(b *model.Board) {
		b.Place(model.Loc(0, 13), own(model.Wall, false))
		b.Place(model.Loc(1, 13), own(model.Wall, true))
	})
	if plan.GapClear(&q.State().Board) {
		t.Fatal("gap reported clear with walls standing")
	}

	removed, refund := plan.OpenGap(q)
	if removed != 2 {
		t.Errorf("removed %d, want 2", removed)
	}
	// One SP plus two SP for the upgraded wall, at three quarters.
	if refund != 0.75+1.5 {
		t.Errorf("refund = %v, want 2.25", refund)
	}
	// The engine clears the cells at the end of the turn.
	if plan.GapClear(&q.State().Board) {
		t.Error("gap reported clear while removals are pending")
	}
	if removed, _ := plan.OpenGap(q); removed != 0 {
		t.Errorf("second OpenGap removed %d", removed)
	}

	var empty model.Board
	if !plan.GapClear(&empty) {
		t.Error("empty gap reported blocked")
	}
}
