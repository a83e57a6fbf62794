package game

import (
	"time"

	"github.com/lanewar/lanewar-go/internal/game/rules"
)

// SideState is the public view of one side's resources.
type SideState struct {
	Side      rules.Side
	Name      string
	Health    int
	Mana      int
	HandSize  int
	DrawPile  int
	Discarded int
}

// MatchState is a read-only snapshot of a match. Units are ordered by side,
// lane, depth and ID.
type MatchState struct {
	MatchID   string
	Layout    string
	Lanes     int
	Depth     int
	Turn      rules.TurnState
	Lines     rules.FrontLines
	Sides     map[rules.Side]SideState
	Units     []rules.Unit
	Ended     bool
	Winner    rules.Side
	Timestamp time.Time
}

// Side returns the snapshot of side s.
func (s MatchState) Side(side rules.Side) SideState {
	return s.Sides[side]
}
