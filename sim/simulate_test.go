package sim

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nstehr/rampart/rampart-core/model"
	"github.com/nstehr/rampart/rampart-core/nav"
	"github.com/nstehr/rampart/rampart-core/sim/mocks"
	"go.uber.org/mock/gomock"
)

func enemy(t model.UnitType, health float64) model.Structure {
	return model.Structure{Type: t, Owner: model.Opponent, Health: health, MaxHealth: health}
}

// exitRoute runs from the bottom-left deploy cell straight to a top-right
// exit, with a single cell in front of the exit.
var exitRoute = []model.Location{model.Loc(13, 0), model.Loc(14, 26), model.Loc(14, 27)}

func shortRangeCatalog(turretDamage float64) *model.Catalog {
	c := model.DefaultCatalog()
	c.Units[model.Turret].Base.DamageToMobile = turretDamage
	c.Units[model.Turret].Base.Range = 1
	c.Units[model.Support].Base.ShieldBonusPerY = 0
	return &c
}

func TestSingleTurretBeforeExit(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockRouter(ctrl)
	router.EXPECT().Route(gomock.Any(), model.Loc(13, 0), model.TopRight).Return(exitRoute).Times(1)

	var b model.Board
	b.Place(model.Loc(15, 26), enemy(model.Turret, 1000))

	s := &Simulator{Catalog: shortRangeCatalog(2), Router: router}
	out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: 10, Unit: model.Scout})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Survivors != 10 {
		t.Errorf("Survivors = %d, want 10", out.Survivors)
	}
	if out.DamageTaken != 2 {
		t.Errorf("DamageTaken = %f, want 2 (one shot)", out.DamageTaken)
	}
	if want := []model.Location{model.Loc(15, 26)}; !reflect.DeepEqual(out.Attackers, want) {
		t.Errorf("Attackers = %v, want %v", out.Attackers, want)
	}
	// Two steps within scout range of the turret, 10 scouts x 2 damage each.
	if out.Dealt.Turrets != 40 {
		t.Errorf("Dealt.Turrets = %f, want 40", out.Dealt.Turrets)
	}
	if s, _ := b.At(model.Loc(15, 26)); s.Health != 1000 {
		t.Errorf("input board was mutated: turret health %f", s.Health)
	}
}

func TestDestroyedBlockerRecomputesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockRouter(ctrl)

	blocked := []model.Location{model.Loc(13, 0), model.Loc(13, 1), model.Loc(13, 2)}
	open := []model.Location{model.Loc(13, 2), model.Loc(14, 26), model.Loc(14, 27)}
	router.EXPECT().Route(gomock.Any(), model.Loc(13, 0), model.TopRight).Return(blocked).Times(1)
	router.EXPECT().Route(gomock.Any(), model.Loc(13, 2), model.TopRight).
		DoAndReturn(func(b *model.Board, _ model.Location, _ model.Edge) []model.Location {
			if b.Occupied(model.Loc(13, 5)) {
				t.Error("route recomputed before the destroyed wall was removed")
			}
			return open
		}).Times(1)

	var b model.Board
	b.Place(model.Loc(13, 5), enemy(model.Wall, 10))

	s := &Simulator{Catalog: shortRangeCatalog(2), Router: router}
	out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: 10, Unit: model.Scout})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Recomputes != 1 {
		t.Errorf("Recomputes = %d, want 1", out.Recomputes)
	}
	if out.Survivors != 10 {
		t.Errorf("Survivors = %d, want 10", out.Survivors)
	}
	if out.Dealt.Walls != 10 {
		t.Errorf("Dealt.Walls = %f, want 10", out.Dealt.Walls)
	}
	// Three steps on the first route, then two past the current cell.
	if out.Steps != 5 {
		t.Errorf("Steps = %d, want 5", out.Steps)
	}
	if out.Route[0] != model.Loc(13, 2) {
		t.Errorf("terminal route starts at %s, want the cell where the wall fell", out.Route[0])
	}
}

func TestShieldBeforeDamage(t *testing.T) {
	run := func(withSupport bool) Outcome {
		ctrl := gomock.NewController(t)
		router := mocks.NewMockRouter(ctrl)
		router.EXPECT().Route(gomock.Any(), gomock.Any(), gomock.Any()).Return(exitRoute)

		var b model.Board
		b.Place(model.Loc(15, 26), enemy(model.Turret, 1000))
		if withSupport {
			b.Place(model.Loc(14, 25), model.Structure{Type: model.Support, Owner: model.Self, Health: 30, MaxHealth: 30})
		}
		s := &Simulator{Catalog: shortRangeCatalog(16), Router: router}
		out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: 1, Unit: model.Scout})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return out
	}

	if out := run(false); out.Survivors != 0 {
		t.Errorf("unshielded Survivors = %d, want 0", out.Survivors)
	}
	if out := run(true); out.Survivors != 1 {
		t.Errorf("shielded Survivors = %d, want 1", out.Survivors)
	}
}

func TestEmptyRouteYieldsNoSurvivors(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockRouter(ctrl)
	router.EXPECT().Route(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	var b model.Board
	s := &Simulator{Catalog: shortRangeCatalog(2), Router: router}
	out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: 5, Unit: model.Scout})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Survivors != 0 {
		t.Errorf("Survivors = %d, want 0", out.Survivors)
	}
}

func TestDeadEndRouteYieldsNoSurvivors(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockRouter(ctrl)
	deadEnd := []model.Location{model.Loc(13, 0), model.Loc(13, 1), model.Loc(13, 2)}
	router.EXPECT().Route(gomock.Any(), model.Loc(13, 0), model.TopRight).Return(deadEnd).Times(1)

	var b model.Board
	s := &Simulator{Catalog: shortRangeCatalog(2), Router: router}
	out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: 5, Unit: model.Scout})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Survivors != 0 {
		t.Errorf("Survivors = %d, want 0 for a route that never reaches the edge", out.Survivors)
	}
	if out.Steps != 3 {
		t.Errorf("Steps = %d, want 3", out.Steps)
	}
}

func TestKillsUseUpOnlyTheUnitsNeeded(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		walls     map[model.Location]float64
		wantDealt float64
	}{
		{
			// Two scouts finish the first wall, three the second, and the
			// five left over hit the third.
			name: "two kills in one step",
			size: 10,
			walls: map[model.Location]float64{
				model.Loc(13, 1): 4,
				model.Loc(14, 1): 6,
				model.Loc(12, 1): 1000,
			},
			wantDealt: 4 + 6 + 10,
		},
		{
			name:      "firepower equal to health destroys",
			size:      5,
			walls:     map[model.Location]float64{model.Loc(13, 1): 10},
			wantDealt: 10,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			router := mocks.NewMockRouter(ctrl)
			router.EXPECT().Route(gomock.Any(), model.Loc(13, 0), model.TopRight).Return(exitRoute).Times(2)

			var b model.Board
			for l, hp := range tc.walls {
				b.Place(l, enemy(model.Wall, hp))
			}
			s := &Simulator{Catalog: shortRangeCatalog(2), Router: router}
			out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: tc.size, Unit: model.Scout})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if out.Dealt.Walls != tc.wantDealt {
				t.Errorf("Dealt.Walls = %v, want %v", out.Dealt.Walls, tc.wantDealt)
			}
			if out.Recomputes != 1 {
				t.Errorf("Recomputes = %d, want 1", out.Recomputes)
			}
			if out.Survivors != tc.size {
				t.Errorf("Survivors = %d, want %d", out.Survivors, tc.size)
			}
		})
	}
}

func TestSlowUnitsTradeMoreShots(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockRouter(ctrl)
	router.EXPECT().Route(gomock.Any(), model.Loc(13, 0), model.TopRight).Return(exitRoute).Times(1)

	var b model.Board
	b.Place(model.Loc(15, 26), enemy(model.Turret, 1000))

	// A demolisher spends two frames per cell.
	s := &Simulator{Catalog: shortRangeCatalog(2), Router: router}
	out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: 1, Unit: model.Demolisher})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Survivors != 1 {
		t.Errorf("Survivors = %d, want 1", out.Survivors)
	}
	if out.DamageTaken != 4 {
		t.Errorf("DamageTaken = %v, want 4 (two shots)", out.DamageTaken)
	}
	// Two cells in range of the turret, two volleys of 8 on each.
	if out.Dealt.Turrets != 32 {
		t.Errorf("Dealt.Turrets = %v, want 32", out.Dealt.Turrets)
	}
}

func TestFramesPerCell(t *testing.T) {
	tests := []struct {
		speed float64
		want  int
	}{
		{1, 1},
		{0.5, 2},
		{0.25, 4},
		{2, 1},
		{0, 1},
	}
	for _, tc := range tests {
		if got := framesPerCell(tc.speed); got != tc.want {
			t.Errorf("framesPerCell(%v) = %d, want %d", tc.speed, got, tc.want)
		}
	}
}

func TestShieldReachIsManhattan(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockRouter(ctrl)
	router.EXPECT().Route(gomock.Any(), gomock.Any(), gomock.Any()).Return(exitRoute)

	var b model.Board
	b.Place(model.Loc(15, 26), enemy(model.Turret, 1000))
	// [11,25] is 3.2 from [14,26] in a straight line but 4 cells away on
	// the grid, outside a 3.5 reach.
	b.Place(model.Loc(11, 25), model.Structure{Type: model.Support, Owner: model.Self, Health: 30, MaxHealth: 30})

	s := &Simulator{Catalog: shortRangeCatalog(16), Router: router}
	out, err := s.Run(&b, Wave{Start: model.Loc(13, 0), Size: 1, Unit: model.Scout})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Survivors != 0 {
		t.Errorf("Survivors = %d, want 0 with no support in Manhattan reach", out.Survivors)
	}
}

func TestOutOfBoundsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := mocks.NewMockRouter(ctrl)

	var b model.Board
	s := &Simulator{Catalog: shortRangeCatalog(2), Router: router}
	_, err := s.Run(&b, Wave{Start: model.Loc(0, 0), Size: 5, Unit: model.Scout})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Run error = %v, want ErrOutOfBounds", err)
	}
}

func TestEmptyBoardEveryDeployCell(t *testing.T) {
	c := model.DefaultCatalog()
	s := &Simulator{Catalog: &c, Router: nav.Pathfinder{}}
	var b model.Board
	for _, cell := range model.DeployCells() {
		out, err := s.Run(&b, Wave{Start: cell, Size: 7, Unit: model.Scout})
		if err != nil {
			t.Fatalf("Run(%s): %v", cell, err)
		}
		if out.Survivors != 7 {
			t.Errorf("Run(%s).Survivors = %d, want 7", cell, out.Survivors)
		}
		if out.Dealt.Total() != 0 {
			t.Errorf("Run(%s) dealt %f damage on an empty board", cell, out.Dealt.Total())
		}
	}
}

func TestSurvivorsBounded(t *testing.T) {
	c := model.DefaultCatalog()
	s := &Simulator{Catalog: &c, Router: nav.Pathfinder{}}

	var b model.Board
	for x := 4; x < 24; x += 3 {
		b.Place(model.Loc(x, 15), enemy(model.Turret, 75))
		b.Place(model.Loc(x+1, 16), enemy(model.Wall, 60))
	}
	before := b.Count(model.Opponent)

	for n := range 25 {
		for _, start := range []model.Location{model.Loc(13, 0), model.Loc(3, 10), model.Loc(22, 8)} {
			out, err := s.Run(&b, Wave{Start: start, Size: n, Unit: model.Scout})
			if err != nil {
				t.Fatalf("Run(%s, %d): %v", start, n, err)
			}
			if out.Survivors < 0 || out.Survivors > n {
				t.Errorf("Run(%s, %d).Survivors = %d, out of [0, %d]", start, n, out.Survivors, n)
			}
		}
	}
	if after := b.Count(model.Opponent); after != before {
		t.Errorf("simulation changed the caller's board: %d structures, want %d", after, before)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	c := model.DefaultCatalog()
	s := &Simulator{Catalog: &c, Router: nav.Pathfinder{}}

	var b model.Board
	b.Place(model.Loc(13, 15), enemy(model.Turret, 75))
	b.Place(model.Loc(14, 15), enemy(model.Turret, 75))
	b.Place(model.Loc(12, 16), enemy(model.Support, 30))

	w := Wave{Start: model.Loc(5, 8), Size: 12, Unit: model.Scout}
	first, err := s.Run(&b, w)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Run(&b, w)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\n%+v\n%+v", first, second)
	}
}

func TestDisjoint(t *testing.T) {
	a := Outcome{Attackers: []model.Location{model.Loc(1, 14), model.Loc(3, 14)}}
	b := Outcome{Attackers: []model.Location{model.Loc(2, 14)}}
	c := Outcome{Attackers: []model.Location{model.Loc(3, 14)}}
	if !a.Disjoint(b) {
		t.Error("a and b share no attackers")
	}
	if a.Disjoint(c) {
		t.Error("a and c share [3,14]")
	}
}
