package defense

import (
	"slices"
	"testing"

	"github.com/nstehr/rampart/rampart-core/model"
)

func TestRegionsPartitionOurHalf(t *testing.T) {
	seen := make(map[model.Location]int)
	for r := range Region(NumRegions) {
		for _, l := range r.Cells() {
			seen[l]++
			got, ok := RegionOf(l)
			if !ok || got != r {
				t.Errorf("RegionOf(%s) = %d, %v, want %d", l, got, ok, r)
			}
		}
	}
	want := 0
	for x := range model.ArenaSize {
		for y := range model.HalfArena {
			l := model.Loc(x, y)
			if !l.InBounds() {
				continue
			}
			want++
			if seen[l] != 1 {
				t.Errorf("cell %s covered %d times, want once", l, seen[l])
			}
		}
	}
	if len(seen) != want {
		t.Errorf("regions hold %d cells, want %d", len(seen), want)
	}
}

func TestRegionOfEnemyHalf(t *testing.T) {
	for _, l := range []model.Location{model.Loc(13, 14), model.Loc(0, 0), model.Loc(-1, 13)} {
		if _, ok := RegionOf(l); ok {
			t.Errorf("RegionOf(%s) reported a region", l)
		}
	}
}

func TestColumnSequence(t *testing.T) {
	tests := []struct {
		r    Region
		x    int
		want []int
	}{
		{0, 2, []int{2, 3, 1, 4, 0, 5, 6}},
		{3, 25, []int{25, 26, 24, 27, 23, 22, 21}},
		{1, 11, []int{11, 12, 10, 13, 9, 8, 7}},
	}
	for _, tc := range tests {
		if got := tc.r.columnSequence(tc.x); !slices.Equal(got, tc.want) {
			t.Errorf("region %d columnSequence(%d) = %v, want %v", tc.r, tc.x, got, tc.want)
		}
	}
}

func TestScore(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name  string
		tally Tally
		want  float64
	}{
		{"empty", Tally{}, 0},
		{"walls only are halved", Tally{Wall: 4}, 2},
		{"one upgraded wall lifts the halving", Tally{UpgradedWall: 1, Turret: 1}, 9},
		{"damaged upgraded wall still halves", Tally{UpgradedWall: 0.5, UpgradedTurret: 1}, 4.75},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.Score(tc.tally); got != tc.want {
				t.Errorf("Score(%+v) = %v, want %v", tc.tally, got, tc.want)
			}
		})
	}
}

func TestSurveyWeighsHealth(t *testing.T) {
	var b model.Board
	b.Place(model.Loc(2, 12), model.Structure{Type: model.Turret, Owner: model.Self, Health: 37.5, MaxHealth: 75})
	b.Place(model.Loc(20, 13), model.Structure{Type: model.Wall, Owner: model.Self, Upgraded: true, Health: 120, MaxHealth: 120})
	b.Place(model.Loc(20, 14), model.Structure{Type: model.Turret, Owner: model.Opponent, Health: 75, MaxHealth: 75})

	got := Survey(&b)
	if got[0].Turret != 0.5 {
		t.Errorf("region 0 turret tally = %v, want 0.5", got[0].Turret)
	}
	if got[2].UpgradedWall != 1 || got[2].Turret != 0 {
		t.Errorf("region 2 tally = %+v, want one upgraded wall and no turrets", got[2])
	}
}

func TestWeakestFollowsBreaches(t *testing.T) {
	w := DefaultWeights()
	tallies := [NumRegions]Tally{
		{UpgradedWall: 1, Turret: 1},
		{UpgradedWall: 1, Turret: 1},
		{UpgradedWall: 1, Turret: 1},
		{UpgradedWall: 1},
	}
	if got := w.Weakest(tallies, [NumRegions]int{}); got[0] != 3 {
		t.Errorf("weakest without breaches = %d, want 3", got[0])
	}
	// Region 1 at 9/(1+0.5*4) = 3 now ties region 3 and wins on order.
	got := w.Weakest(tallies, [NumRegions]int{1: 4})
	if !slices.Equal(got, []Region{1, 3, 0, 2}) {
		t.Errorf("order with breaches = %v, want [1 3 0 2]", got)
	}
}

func TestWeakestKeepsRegionOrderOnTies(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name    string
		tallies [NumRegions]Tally
		want    []Region
	}{
		{"empty half", [NumRegions]Tally{}, []Region{0, 1, 2, 3}},
		{"two tied pairs", [NumRegions]Tally{
			{UpgradedWall: 1, Turret: 1},
			{UpgradedWall: 1},
			{UpgradedWall: 1, Turret: 1},
			{UpgradedWall: 1},
		}, []Region{1, 3, 0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 20 {
				if got := w.Weakest(tt.tallies, [NumRegions]int{}); !slices.Equal(got, tt.want) {
					t.Fatalf("Weakest = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestScoreIgnoresWhichStructureIsHurt(t *testing.T) {
	build := func(h1, h2 float64) float64 {
		var b model.Board
		b.Place(model.Loc(2, 12), model.Structure{Type: model.Turret, Owner: model.Self, Health: h1, MaxHealth: 75})
		b.Place(model.Loc(5, 12), model.Structure{Type: model.Turret, Owner: model.Self, Health: h2, MaxHealth: 75})
		b.Place(model.Loc(2, 13), model.Structure{Type: model.Wall, Owner: model.Self, Upgraded: true, Health: 120, MaxHealth: 120})
		return DefaultWeights().Score(Survey(&b)[0])
	}
	a, b := build(75, 37.5), build(37.5, 75)
	if a != b {
		t.Errorf("Score = %v with the first turret hurt, %v with the second", a, b)
	}
	if a != 12 {
		t.Errorf("Score = %v, want 12", a)
	}
}
