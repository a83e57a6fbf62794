package watchers

import (
	"github.com/lanewar/lanewar-go/internal/game/rules"
)

// Keys of the standard watchers.
const (
	KeyUnitsPlaced      = "UnitsPlacedWatcher"
	KeyUnitsLost        = "UnitsLostWatcher"
	KeyUnitsScored      = "UnitsScoredWatcher"
	KeyDamageTaken      = "DamageTakenWatcher"
	KeyRetreats         = "RetreatsWatcher"
	KeyRejectedThisTurn = "RejectedThisTurnWatcher"
)

// SideCounter tallies one event type per side. Each matching event adds its
// weight, which is 1 unless a weigh function is set.
type SideCounter struct {
	*rules.BaseWatcher
	eventType rules.EventType
	weigh     func(rules.Event) int
	counts    map[rules.Side]int
}

func newSideCounter(scope rules.WatcherScope, key string, eventType rules.EventType, weigh func(rules.Event) int) *SideCounter {
	return &SideCounter{
		BaseWatcher: rules.NewBaseWatcher(scope, key),
		eventType:   eventType,
		weigh:       weigh,
		counts:      make(map[rules.Side]int),
	}
}

// NewUnitsPlacedWatcher counts accepted placements.
func NewUnitsPlacedWatcher() *SideCounter {
	return newSideCounter(rules.WatcherScopeMatch, KeyUnitsPlaced, rules.EventPlacementAccepted, nil)
}

// NewUnitsLostWatcher counts units destroyed in engagements, by owner.
func NewUnitsLostWatcher() *SideCounter {
	return newSideCounter(rules.WatcherScopeMatch, KeyUnitsLost, rules.EventUnitDestroyed, nil)
}

// NewUnitsScoredWatcher counts units that reached the enemy baseline, by owner.
func NewUnitsScoredWatcher() *SideCounter {
	return newSideCounter(rules.WatcherScopeMatch, KeyUnitsScored, rules.EventUnitScored, nil)
}

// NewDamageTakenWatcher sums the damage each side has taken.
func NewDamageTakenWatcher() *SideCounter {
	return newSideCounter(rules.WatcherScopeMatch, KeyDamageTaken, rules.EventSideDamaged,
		func(e rules.Event) int { return e.Amount })
}

// NewRetreatsWatcher counts front-line retreats per side.
func NewRetreatsWatcher() *SideCounter {
	return newSideCounter(rules.WatcherScopeMatch, KeyRetreats, rules.EventFrontLineMoved, nil)
}

// NewRejectedThisTurnWatcher counts rejected placements in the current turn.
func NewRejectedThisTurnWatcher() *SideCounter {
	return newSideCounter(rules.WatcherScopeTurn, KeyRejectedThisTurn, rules.EventPlacementRejected, nil)
}

// Watch implements the Watcher interface.
func (w *SideCounter) Watch(event rules.Event) {
	if event.Type != w.eventType {
		return
	}
	weight := 1
	if w.weigh != nil {
		weight = w.weigh(event)
	}
	w.counts[event.Side] += weight
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *SideCounter) Reset() {
	w.BaseWatcher.Reset()
	w.counts = make(map[rules.Side]int)
}

// Count returns the tally for side.
func (w *SideCounter) Count(side rules.Side) int {
	return w.counts[side]
}

// SideStats summarises one side's match so far.
type SideStats struct {
	Placed           int
	Lost             int
	Scored           int
	DamageTaken      int
	Retreats         int
	RejectedThisTurn int
}

// NewStandardRegistry returns a registry holding every standard watcher.
func NewStandardRegistry() *rules.WatcherRegistry {
	registry := rules.NewWatcherRegistry()
	registry.AddWatcher(NewUnitsPlacedWatcher())
	registry.AddWatcher(NewUnitsLostWatcher())
	registry.AddWatcher(NewUnitsScoredWatcher())
	registry.AddWatcher(NewDamageTakenWatcher())
	registry.AddWatcher(NewRetreatsWatcher())
	registry.AddWatcher(NewRejectedThisTurnWatcher())
	return registry
}

// Collect reads the standard watchers of registry. Missing watchers count
// as zero.
func Collect(registry *rules.WatcherRegistry) map[rules.Side]SideStats {
	count := func(key string, side rules.Side) int {
		if w, ok := registry.GetWatcher(key).(*SideCounter); ok {
			return w.Count(side)
		}
		return 0
	}

	stats := make(map[rules.Side]SideStats, 2)
	for _, side := range rules.Sides() {
		stats[side] = SideStats{
			Placed:           count(KeyUnitsPlaced, side),
			Lost:             count(KeyUnitsLost, side),
			Scored:           count(KeyUnitsScored, side),
			DamageTaken:      count(KeyDamageTaken, side),
			Retreats:         count(KeyRetreats, side),
			RejectedThisTurn: count(KeyRejectedThisTurn, side),
		}
	}
	return stats
}
