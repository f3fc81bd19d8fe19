package agent

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nstehr/rampart/rampart-core/model"
	"github.com/nstehr/rampart/rampart-core/rules"
)

// EventKind identifies something that changed on our side between the
// state we submitted and the next turn's state.
type EventKind string

const (
	EventStructureLost    EventKind = "structure_lost"
	EventStructureDamaged EventKind = "structure_damaged"
	EventHealthLost       EventKind = "health_lost"
)

// Event is one detected change. Amount is damage for structures and lost
// points for health.
type Event struct {
	Kind   EventKind
	Turn   int
	Loc    model.Location
	Type   model.UnitType
	Amount float64
}

func (e Event) String() string {
	switch e.Kind {
	case EventHealthLost:
		return fmt.Sprintf("%s %.0f", e.Kind, e.Amount)
	default:
		return fmt.Sprintf("%s %s at %s (%.1f)", e.Kind, e.Type, e.Loc, e.Amount)
	}
}

// stateSnapshot captures the diffable fields of the state as we left it at
// the end of a turn, including what we built and scheduled for removal.
type stateSnapshot struct {
	turn       int
	structures map[model.Location]model.Structure
	health     float64
}

// takeSnapshot records our standing structures. Ones already pending
// removal are skipped so our own removals never read as losses.
func takeSnapshot(gs *model.GameState) stateSnapshot {
	snap := stateSnapshot{
		turn:       gs.Turn,
		structures: make(map[model.Location]model.Structure),
		health:     gs.Me().Health,
	}
	for l, s := range gs.Board.Owned(model.Self) {
		if !s.PendingRemoval {
			snap.structures[l] = s
		}
	}
	return snap
}

// detectEvents diffs gs against the previous snapshot. A nil prev yields
// no events.
func detectEvents(gs *model.GameState, prev *stateSnapshot) []Event {
	if prev == nil {
		return nil
	}
	var events []Event
	for l, was := range prev.structures {
		now, ok := gs.Board.At(l)
		if !ok || now.Owner != model.Self || now.Type != was.Type {
			events = append(events, Event{Kind: EventStructureLost, Turn: gs.Turn, Loc: l, Type: was.Type, Amount: was.MaxHealth})
			continue
		}
		if d := was.Health - now.Health; d > 0 {
			events = append(events, Event{Kind: EventStructureDamaged, Turn: gs.Turn, Loc: l, Type: now.Type, Amount: d})
		}
	}
	if d := prev.health - gs.Me().Health; d > 0 {
		events = append(events, Event{Kind: EventHealthLost, Turn: gs.Turn, Amount: d})
	}
	return events
}

// applyEvents feeds structure events into the damage ledger.
func applyEvents(intel *rules.Intel, events []Event) {
	for _, e := range events {
		switch e.Kind {
		case EventStructureLost:
			intel.RecordLoss(e.Loc, e.Amount)
		case EventStructureDamaged:
			intel.RecordDamage(e.Loc, e.Amount)
		}
	}
}

// logEvents writes a one-line summary of the turn's events.
func logEvents(log *slog.Logger, turn int, events []Event) {
	if len(events) == 0 {
		return
	}
	counts := make(map[EventKind]int)
	parts := make([]string, 0, len(events))
	for _, e := range events {
		counts[e.Kind]++
		if e.Kind != EventStructureDamaged {
			parts = append(parts, e.String())
		}
	}
	log.Info("since last turn",
		"turn", turn,
		"lost", counts[EventStructureLost],
		"damaged", counts[EventStructureDamaged],
		"detail", strings.Join(parts, "; "),
	)
}
