package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/nstehr/rampart/rampart-core/model"
)

// Envelope types. The engine does not tag its lines; Classify derives these.
const (
	TypeConfig      = "config"
	TypeTurn        = "turn"
	TypeActionFrame = "action_frame"
	TypeEndGame     = "end_game"
)

// ConfigMessage is the first line of a match.
type ConfigMessage struct {
	UnitInformation json.RawMessage `json:"unitInformation"`
}

// FrameMessage is a turn-start, action or end-of-game frame.
type FrameMessage struct {
	TurnInfo []int           `json:"turnInfo"`
	P1Stats  []float64       `json:"p1Stats"`
	P2Stats  []float64       `json:"p2Stats"`
	P1Units  [][]UnitEntry   `json:"p1Units"`
	P2Units  [][]UnitEntry   `json:"p2Units"`
	Events   Events          `json:"events"`
	EndStats json.RawMessage `json:"endStats,omitempty"`
}

func (f *FrameMessage) Phase() int { return f.at(0) }
func (f *FrameMessage) Turn() int { return f.at(1) }
func (f *FrameMessage) Frame() int { return f.at(2) }

func (f *FrameMessage) at(i int) int {
	if i < len(f.TurnInfo) {
		return f.TurnInfo[i]
	}
	return 0
}

// UnitEntry is [x, y, health, id].
type UnitEntry struct {
	X, Y   int
	Health float64
	ID     string
}

func (u *UnitEntry) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) < 3 {
		return fmt.Errorf("unit entry has %d fields, want at least 3", len(raw))
	}
	var x, y float64
	if err := json.Unmarshal(raw[0], &x); err != nil {
		return fmt.Errorf("unit x: %w", err)
	}
	if err := json.Unmarshal(raw[1], &y); err != nil {
		return fmt.Errorf("unit y: %w", err)
	}
	if err := json.Unmarshal(raw[2], &u.Health); err != nil {
		return fmt.Errorf("unit health: %w", err)
	}
	u.X, u.Y = int(x), int(y)
	if len(raw) > 3 {
		id, err := decodeID(raw[3])
		if err != nil {
			return fmt.Errorf("unit id: %w", err)
		}
		u.ID = id
	}
	return nil
}

// decodeID reads a unit id. Ids arrive as strings, occasionally as numbers.
func decodeID(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("neither string nor number: %s", raw)
	}
	return fmt.Sprintf("%.0f", n), nil
}

// Events carries the per-frame event lists the agent uses.
type Events struct {
	Breach []BreachEvent `json:"breach"`
}

// BreachEvent is [[x, y], damage, unitType, id, owner]. Owner is 1 for
// our units and 2 for the opponent's.
type BreachEvent struct {
	Loc      model.Location
	Damage   float64
	UnitType int
	ID       string
	Owner    int
}

func (e *BreachEvent) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) < 5 {
		return fmt.Errorf("breach event has %d fields, want 5", len(raw))
	}
	var xy []int
	if err := json.Unmarshal(raw[0], &xy); err != nil || len(xy) != 2 {
		return fmt.Errorf("breach location: %s", raw[0])
	}
	e.Loc = model.Loc(xy[0], xy[1])
	if err := json.Unmarshal(raw[1], &e.Damage); err != nil {
		return fmt.Errorf("breach damage: %w", err)
	}
	var ut float64
	if err := json.Unmarshal(raw[2], &ut); err != nil {
		return fmt.Errorf("breach unit type: %w", err)
	}
	e.UnitType = int(ut)
	id, err := decodeID(raw[3])
	if err != nil {
		return fmt.Errorf("breach id: %w", err)
	}
	e.ID = id
	var owner float64
	if err := json.Unmarshal(raw[4], &owner); err != nil {
		return fmt.Errorf("breach owner: %w", err)
	}
	e.Owner = int(owner)
	return nil
}

// ByOpponent reports whether an opponent unit scored on our edge.
func (e BreachEvent) ByOpponent() bool { return e.Owner != 1 }

// Unit list indices past the real unit types.
const (
	listRemove  = model.NumUnitTypes
	listUpgrade = model.NumUnitTypes + 1
)

// GameState decodes the frame into the model, sizing structures from cat.
func (f *FrameMessage) GameState(cat *model.Catalog) (model.GameState, error) {
	gs := model.GameState{Turn: f.Turn(), Frame: f.Frame()}
	for i, stats := range [][]float64{f.P1Stats, f.P2Stats} {
		if len(stats) < 3 {
			return model.GameState{}, fmt.Errorf("p%dStats has %d fields, want at least 3", i+1, len(stats))
		}
		p := &gs.Players[i]
		p.Health, p.SP, p.MP = stats[0], stats[1], stats[2]
		if len(stats) > 3 {
			p.TimeMS = stats[3]
		}
	}
	for i, lists := range [][][]UnitEntry{f.P1Units, f.P2Units} {
		if err := decodeUnits(&gs, model.Player(i), lists, cat); err != nil {
			return model.GameState{}, fmt.Errorf("p%dUnits: %w", i+1, err)
		}
	}
	return gs, nil
}

func decodeUnits(gs *model.GameState, owner model.Player, lists [][]UnitEntry, cat *model.Catalog) error {
	for t := 0; t < len(lists) && t < model.NumUnitTypes; t++ {
		ut := model.UnitType(t)
		for _, u := range lists[t] {
			// Mobile units are in flight; decisions only read structures.
			if !ut.Stationary() {
				continue
			}
			loc := model.Loc(u.X, u.Y)
			s := model.Structure{
				Type:      ut,
				Owner:     owner,
				Health:    u.Health,
				MaxHealth: cat.Stats(ut, false).Health,
			}
			if err := gs.Board.Place(loc, s); err != nil {
				return err
			}
		}
	}
	if len(lists) > listUpgrade {
		for _, u := range lists[listUpgrade] {
			gs.Board.Update(model.Loc(u.X, u.Y), func(s *model.Structure) {
				s.Upgraded = true
				s.MaxHealth = cat.Stats(s.Type, true).Health
			})
		}
	}
	if len(lists) > listRemove {
		for _, u := range lists[listRemove] {
			gs.Board.Update(model.Loc(u.X, u.Y), func(s *model.Structure) {
				s.PendingRemoval = true
			})
		}
	}
	return nil
}
