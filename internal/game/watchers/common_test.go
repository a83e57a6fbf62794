package watchers

import (
	"testing"

	"github.com/lanewar/lanewar-go/internal/game/rules"
)

func TestUnitsPlacedWatcher(t *testing.T) {
	watcher := NewUnitsPlacedWatcher()

	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met initially")
	}

	watcher.Watch(rules.NewEvent(rules.EventPlacementAccepted, rules.SidePlayer, 1))
	watcher.Watch(rules.NewEvent(rules.EventPlacementAccepted, rules.SidePlayer, 1))
	watcher.Watch(rules.NewEvent(rules.EventPlacementAccepted, rules.SideOpponent, 2))
	watcher.Watch(rules.NewEvent(rules.EventPlacementRejected, rules.SideOpponent, 2))

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after a placement")
	}
	if got := watcher.Count(rules.SidePlayer); got != 2 {
		t.Fatalf("expected 2 player placements, got %d", got)
	}
	if got := watcher.Count(rules.SideOpponent); got != 1 {
		t.Fatalf("expected 1 opponent placement, got %d", got)
	}

	watcher.Reset()
	if watcher.ConditionMet() || watcher.Count(rules.SidePlayer) != 0 {
		t.Fatal("watcher should be empty after reset")
	}
}

func TestDamageTakenWatcherSumsAmounts(t *testing.T) {
	watcher := NewDamageTakenWatcher()

	for _, amount := range []int{3, 4} {
		event := rules.NewEvent(rules.EventSideDamaged, rules.SideOpponent, 1)
		event.Amount = amount
		watcher.Watch(event)
	}

	if got := watcher.Count(rules.SideOpponent); got != 7 {
		t.Fatalf("expected 7 damage, got %d", got)
	}
	if got := watcher.Count(rules.SidePlayer); got != 0 {
		t.Fatalf("expected no player damage, got %d", got)
	}
}

func TestStandardRegistryCollect(t *testing.T) {
	registry := NewStandardRegistry()

	events := []rules.Event{
		rules.NewEvent(rules.EventPlacementAccepted, rules.SidePlayer, 1),
		rules.NewEvent(rules.EventPlacementRejected, rules.SidePlayer, 1),
		rules.NewEvent(rules.EventUnitDestroyed, rules.SideOpponent, 1),
		rules.NewEvent(rules.EventUnitScored, rules.SidePlayer, 1),
		rules.NewEvent(rules.EventFrontLineMoved, rules.SideOpponent, 1),
	}
	damage := rules.NewEvent(rules.EventSideDamaged, rules.SideOpponent, 1)
	damage.Amount = 5
	events = append(events, damage)
	for _, e := range events {
		registry.NotifyWatchers(e)
	}

	stats := Collect(registry)
	want := map[rules.Side]SideStats{
		rules.SidePlayer:   {Placed: 1, Scored: 1, RejectedThisTurn: 1},
		rules.SideOpponent: {Lost: 1, DamageTaken: 5, Retreats: 1},
	}
	for side, expected := range want {
		if stats[side] != expected {
			t.Fatalf("%s: expected %+v, got %+v", side, expected, stats[side])
		}
	}

	registry.ResetWatchersByScope(rules.WatcherScopeTurn)
	if got := Collect(registry)[rules.SidePlayer]; got.RejectedThisTurn != 0 || got.Placed != 1 {
		t.Fatalf("turn reset should only clear turn watchers, got %+v", got)
	}
}

func TestCollectWithoutWatchers(t *testing.T) {
	stats := Collect(rules.NewWatcherRegistry())
	if stats[rules.SidePlayer] != (SideStats{}) {
		t.Fatalf("expected zero stats, got %+v", stats[rules.SidePlayer])
	}
}
