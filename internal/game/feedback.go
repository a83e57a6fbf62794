package game

import (
	"github.com/lanewar/lanewar-go/internal/game/rules"
)

// Feedback receives the visual cues a presentation layer renders. Calls are
// made synchronously while the match is locked, so implementations must not
// call back into the Match.
type Feedback interface {
	OnPlacementAccepted(unit rules.Unit)
	OnPlacementRejected(side rules.Side, err error)
	OnFrontLineMoved(side rules.Side, depth int)
	OnTurnChanged(active rules.Side, turn int)
	OnMatchEnded(loser rules.Side)
}

// NopFeedback ignores every cue.
type NopFeedback struct{}

func (NopFeedback) OnPlacementAccepted(rules.Unit)        {}
func (NopFeedback) OnPlacementRejected(rules.Side, error) {}
func (NopFeedback) OnFrontLineMoved(rules.Side, int)      {}
func (NopFeedback) OnTurnChanged(rules.Side, int)         {}
func (NopFeedback) OnMatchEnded(rules.Side)               {}

// subscribeFeedback forwards bus events to fb and returns the subscription handle.
func subscribeFeedback(bus *rules.EventBus, fb Feedback) int {
	return bus.Subscribe(func(event rules.Event) {
		switch event.Type {
		case rules.EventPlacementAccepted:
			fb.OnPlacementAccepted(event.Unit)
		case rules.EventPlacementRejected:
			fb.OnPlacementRejected(event.Side, event.Err)
		case rules.EventFrontLineMoved:
			fb.OnFrontLineMoved(event.Side, event.Amount)
		case rules.EventTurnChanged:
			fb.OnTurnChanged(event.Side, event.TurnNumber)
		case rules.EventMatchEnded:
			fb.OnMatchEnded(event.Side)
		}
	})
}
