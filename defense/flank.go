package defense

import (
	"log/slog"

	"github.com/nstehr/rampart/rampart-core/model"
)

// Flank is one side of the arena, seen from our half.
type Flank int

const (
	LeftFlank Flank = iota
	RightFlank
)

func (f Flank) String() string {
	if f == LeftFlank {
		return "left"
	}
	return "right"
}

// FlankPlan is the geometry of a last-resort push along one flank: the
// far-wall cells opened as a gap, where interceptors clear the rim, and
// where scouts enter so their path runs out through the gap.
type FlankPlan struct {
	Gap         []model.Location
	Interceptor model.Location
	Scout       model.Location
}

// DefaultFlanks pairs each flank with its gap and deploy cells.
func DefaultFlanks() [2]FlankPlan {
	return [2]FlankPlan{
		LeftFlank: {
			Gap:         []model.Location{model.Loc(0, 13), model.Loc(1, 13)},
			Interceptor: model.Loc(3, 10),
			Scout:       model.Loc(14, 0),
		},
		RightFlank: {
			Gap:         []model.Location{model.Loc(26, 13), model.Loc(27, 13)},
			Interceptor: model.Loc(24, 10),
			Scout:       model.Loc(13, 0),
		},
	}
}

// flankWeight scores one opponent structure. Supports do not count.
func flankWeight(s model.Structure) float64 {
	switch {
	case s.Type == model.Wall && s.Upgraded:
		return 1.5
	case s.Type == model.Wall:
		return 1
	case s.Type == model.Turret && s.Upgraded:
		return 3
	case s.Type == model.Turret:
		return 2
	}
	return 0
}

// WeakerFlank weighs the opponent's walls and turrets on each half of
// their side and returns the lighter one. Ties go right.
func WeakerFlank(board *model.Board) Flank {
	var left, right float64
	for l, s := range board.Owned(model.Opponent) {
		if l.Friendly() {
			continue
		}
		if l.X < model.HalfArena {
			left += flankWeight(s)
		} else {
			right += flankWeight(s)
		}
	}
	slog.Debug("opponent flank weight", "left", left, "right", right)
	if left < right {
		return LeftFlank
	}
	return RightFlank
}

// OpenGap schedules our structures in the gap for removal. It returns how
// many were scheduled and the SP they will refund.
func (p FlankPlan) OpenGap(b Builder) (removed int, refund float64) {
	for _, l := range p.Gap {
		if b.Remove(l) {
			removed++
			refund += b.Refund(l)
		}
	}
	return removed, refund
}

// GapClear reports whether nothing stands in the gap, pending removals
// included.
func (p FlankPlan) GapClear(board *model.Board) bool {
	for _, l := range p.Gap {
		if board.Occupied(l) {
			return false
		}
	}
	return true
}
