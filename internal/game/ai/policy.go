package ai

import (
	"fmt"

	"github.com/lanewar/lanewar-go/internal/game/rules"
)

// ActionKind distinguishes the decisions a policy can make.
type ActionKind int

const (
	ActionEndTurn ActionKind = iota
	ActionPlayCard
)

func (k ActionKind) String() string {
	switch k {
	case ActionEndTurn:
		return "END_TURN"
	case ActionPlayCard:
		return "PLAY_CARD"
	default:
		return fmt.Sprintf("ACTION_%d", int(k))
	}
}

// Action is a single policy decision.
type Action struct {
	Kind     ActionKind
	CardID   string
	Position rules.Position
}

// EndTurn signals the policy is done for this turn.
func EndTurn() Action {
	return Action{Kind: ActionEndTurn}
}

// PlayCard asks for cardID to be placed at pos.
func PlayCard(cardID string, pos rules.Position) Action {
	return Action{Kind: ActionPlayCard, CardID: cardID, Position: pos}
}

// View is everything a policy may look at when deciding.
type View struct {
	Side  rules.Side
	Hand  []rules.Card
	Mana  int
	Lanes int
	Depth int
	Lines rules.FrontLines
	Units []rules.Unit
}

// Occupied reports whether any living unit stands on pos.
func (v View) Occupied(pos rules.Position) bool {
	for _, u := range v.Units {
		if u.Alive && u.Position == pos {
			return true
		}
	}
	return false
}

// Policy chooses what the side in view does next. Implementations must not
// mutate the view.
type Policy interface {
	ChooseAction(view View) Action
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(view View) Action

func (f PolicyFunc) ChooseAction(view View) Action {
	return f(view)
}
