package rules

import (
	"testing"
)

// countingWatcher counts placements.
type countingWatcher struct {
	*BaseWatcher
	count int
}

func (w *countingWatcher) Watch(event Event) {
	if event.Type == EventPlacementAccepted {
		w.count++
		w.SetCondition(true)
	}
}

func (w *countingWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.count = 0
}

func TestWatcherRegistry(t *testing.T) {
	registry := NewWatcherRegistry()
	match := &countingWatcher{BaseWatcher: NewBaseWatcher(WatcherScopeMatch, "match")}
	turn := &countingWatcher{BaseWatcher: NewBaseWatcher(WatcherScopeTurn, "turn")}
	registry.AddWatcher(match)
	registry.AddWatcher(turn)
	registry.AddWatcher(nil)

	if registry.GetWatcher("match") == nil {
		t.Fatal("should retrieve match watcher")
	}
	if got := len(registry.GetWatchersByScope(WatcherScopeTurn)); got != 1 {
		t.Fatalf("expected 1 turn watcher, got %d", got)
	}

	registry.NotifyWatchers(NewEvent(EventPlacementAccepted, SidePlayer, 1))
	registry.NotifyWatchers(NewEvent(EventTurnChanged, SideOpponent, 2))
	if match.count != 1 || turn.count != 1 {
		t.Fatalf("expected both watchers to count 1, got %d and %d", match.count, turn.count)
	}
	if !turn.ConditionMet() {
		t.Fatal("turn watcher should have condition met")
	}

	registry.ResetWatchersByScope(WatcherScopeTurn)
	if turn.count != 0 || turn.ConditionMet() {
		t.Fatal("turn watcher should be cleared")
	}
	if match.count != 1 {
		t.Fatal("match watcher should keep its tally")
	}
}

func TestWatcherScopeString(t *testing.T) {
	if WatcherScopeMatch.String() != "MATCH" || WatcherScopeTurn.String() != "TURN" {
		t.Fatal("unexpected scope names")
	}
	if WatcherScope(9).String() != "UNKNOWN" {
		t.Fatal("unknown scope should render as UNKNOWN")
	}
}
