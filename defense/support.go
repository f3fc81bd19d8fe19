package defense

import (
	"cmp"
	"slices"

	"github.com/nstehr/rampart/rampart-core/model"
)

// supportReach is how far from the launch cell new supports are placed.
const supportReach = 4.5

// Shields keeps support structures next to our attack lane.
type Shields struct {
	// Max is how many supports may cover one lane.
	Max int
}

// ShieldReport counts what one Reinforce call changed.
type ShieldReport struct {
	Placed   int
	Upgraded int
	Removed  int
	// Refund is the SP the removed supports return next turn.
	Refund float64
}

// split partitions our standing supports by whether their shield reaches
// some cell of route.
func (sh Shields) split(b Builder, route []model.Location) (covering, idle []model.Location) {
	cat := b.Catalog()
	for l, s := range b.State().Board.Owned(model.Self) {
		if s.Type != model.Support || s.PendingRemoval {
			continue
		}
		reach := cat.Stats(model.Support, s.Upgraded).ShieldRange
		if slices.ContainsFunc(route, func(r model.Location) bool {
			return float64(model.Manhattan(l, r)) <= reach
		}) {
			covering = append(covering, l)
		} else {
			idle = append(idle, l)
		}
	}
	return covering, idle
}

// Reinforce removes supports that no longer reach route, then tops up and
// upgrades the ones that do. New supports go around launch but never on
// the route itself or on a deploy edge.
func (sh Shields) Reinforce(b Builder, launch model.Location, route []model.Location) ShieldReport {
	var rep ShieldReport
	covering, idle := sh.split(b, route)
	for _, l := range idle {
		if b.Remove(l) {
			rep.Removed++
			rep.Refund += b.Refund(l)
		}
	}
	onRoute := make(map[model.Location]bool, len(route))
	for _, l := range route {
		onRoute[l] = true
	}

	if len(covering) < sh.Max {
		var spots []model.Location
		for _, l := range model.LocationsInRange(launch, supportReach) {
			if !l.InBounds() || !l.Friendly() || onRoute[l] {
				continue
			}
			if model.BottomLeft.Contains(l) || model.BottomRight.Contains(l) {
				continue
			}
			spots = append(spots, l)
		}
		slices.SortStableFunc(spots, func(a, c model.Location) int {
			if d := cmp.Compare(model.Distance(a, launch), model.Distance(c, launch)); d != 0 {
				return d
			}
			if d := cmp.Compare(c.Y, a.Y); d != 0 {
				return d
			}
			return cmp.Compare(a.X, c.X)
		})
		for _, l := range spots {
			if len(covering) >= sh.Max {
				break
			}
			if spawn(b, model.Support, l) {
				covering = append(covering, l)
				rep.Placed++
			}
		}
	}

	for _, l := range covering {
		if b.Upgrade(l) {
			rep.Upgraded++
		}
	}
	return rep
}
