package defense

import "github.com/nstehr/rampart/rampart-core/model"

// Anchor is one canonical defensive post: a turret with a wall directly in
// front of it.
type Anchor struct {
	Turret model.Location `yaml:"turret"`
	Wall   model.Location `yaml:"wall"`
}

// Layout is the fixed defensive shape the heuristic builds toward.
type Layout struct {
	Anchors []Anchor `yaml:"anchors"`
	// Choke is the front-row cell kept open once the front is sealed.
	Choke    model.Location   `yaml:"choke"`
	FarWalls []model.Location `yaml:"far_walls"`
}

// DefaultLayout puts two turret posts in each region with the choke left
// open just right of centre.
func DefaultLayout() Layout {
	var anchors []Anchor
	for _, x := range []int{2, 5, 8, 11, 17, 20, 23, 25} {
		anchors = append(anchors, Anchor{Turret: model.Loc(x, 12), Wall: model.Loc(x, 13)})
	}
	return Layout{
		Anchors: anchors,
		Choke:   model.Loc(14, 13),
		FarWalls: []model.Location{
			model.Loc(0, 13), model.Loc(1, 13), model.Loc(2, 13),
			model.Loc(25, 13), model.Loc(26, 13), model.Loc(27, 13),
		},
	}
}

// AnchorsIn returns the anchors whose turret lies in r.
func (l *Layout) AnchorsIn(r Region) []Anchor {
	var out []Anchor
	for _, a := range l.Anchors {
		if ar, ok := RegionOf(a.Turret); ok && ar == r {
			out = append(out, a)
		}
	}
	return out
}

// FrontRow is the row the choke sits on.
func (l *Layout) FrontRow() int { return l.Choke.Y }
