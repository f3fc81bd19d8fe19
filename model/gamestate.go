package model

// PlayerState holds one side's health and resource pools.
type PlayerState struct {
	Health float64
	SP     float64
	MP     float64
	TimeMS float64
}

// GameState is one turn's view of the match.
type GameState struct {
	Turn    int
	Frame   int
	Board   Board
	Players [2]PlayerState
}

func (g *GameState) Me() *PlayerState    { return &g.Players[Self] }
func (g *GameState) Enemy() *PlayerState { return &g.Players[Opponent] }

// Clone returns a copy that shares nothing with g. Like Board, a
// GameState holds no pointers.
func (g *GameState) Clone() GameState {
	return *g
}
