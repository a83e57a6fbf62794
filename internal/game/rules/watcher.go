package rules

import (
	"sync"
)

// WatcherScope defines how long a watcher's tally lives.
type WatcherScope int

const (
	// WatcherScopeMatch tracks events for the whole match.
	WatcherScopeMatch WatcherScope = iota
	// WatcherScopeTurn is cleared whenever a new turn starts.
	WatcherScopeTurn
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeMatch:
		return "MATCH"
	case WatcherScopeTurn:
		return "TURN"
	default:
		return "UNKNOWN"
	}
}

// Watcher observes match events and keeps a tally.
type Watcher interface {
	// Watch is called for every published event; watchers filter internally.
	Watch(event Event)
	// Reset clears the tally.
	Reset()
	Scope() WatcherScope
	// Key identifies the watcher in a registry.
	Key() string
}

// BaseWatcher provides the scope, key and condition flag shared by watchers.
type BaseWatcher struct {
	scope     WatcherScope
	key       string
	condition bool
}

// NewBaseWatcher creates a new base watcher.
func NewBaseWatcher(scope WatcherScope, key string) *BaseWatcher {
	return &BaseWatcher{scope: scope, key: key}
}

func (bw *BaseWatcher) Scope() WatcherScope { return bw.scope }

func (bw *BaseWatcher) Key() string { return bw.key }

// ConditionMet reports whether the watcher has seen a matching event since
// the last reset.
func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

// Reset clears the condition.
func (bw *BaseWatcher) Reset() {
	bw.condition = false
}

// WatcherRegistry manages the watchers of a match. Watchers are notified in
// registration order.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	order    []string
}

// NewWatcherRegistry creates a new watcher registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
	}
}

// AddWatcher registers watcher, replacing any watcher with the same key.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.Key()
	if _, exists := wr.watchers[key]; !exists {
		wr.order = append(wr.order, key)
	}
	wr.watchers[key] = watcher
}

// GetWatcher retrieves a watcher by key.
func (wr *WatcherRegistry) GetWatcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// GetWatchersByScope returns all watchers for a given scope.
func (wr *WatcherRegistry) GetWatchersByScope(scope WatcherScope) []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	var result []Watcher
	for _, key := range wr.order {
		if w := wr.watchers[key]; w.Scope() == scope {
			result = append(result, w)
		}
	}
	return result
}

// ResetWatchersByScope resets all watchers for a given scope.
func (wr *WatcherRegistry) ResetWatchersByScope(scope WatcherScope) {
	for _, watcher := range wr.GetWatchersByScope(scope) {
		watcher.Reset()
	}
}

// NotifyWatchers passes event to every watcher.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	wr.mu.RLock()
	watchers := make([]Watcher, 0, len(wr.order))
	for _, key := range wr.order {
		watchers = append(watchers, wr.watchers[key])
	}
	wr.mu.RUnlock()

	for _, watcher := range watchers {
		watcher.Watch(event)
	}
}
