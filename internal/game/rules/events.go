package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a match event.
type EventType string

const (
	EventPlacementAccepted EventType = "PLACEMENT_ACCEPTED"
	EventPlacementRejected EventType = "PLACEMENT_REJECTED"
	EventFrontLineMoved    EventType = "FRONT_LINE_MOVED"
	EventTurnChanged       EventType = "TURN_CHANGED"
	EventMatchEnded        EventType = "MATCH_ENDED"
	EventCardDrawn         EventType = "CARD_DRAWN"
	EventCardDiscarded     EventType = "CARD_DISCARDED"
	EventUnitDestroyed     EventType = "UNIT_DESTROYED"
	EventUnitScored        EventType = "UNIT_SCORED"
	EventSideDamaged       EventType = "SIDE_DAMAGED"
	EventResolved          EventType = "RESOLVED"
)

// Event represents a state change that presentation layers may react to.
type Event struct {
	Type       EventType
	Side       Side
	TurnNumber int
	Amount     int // damage, new front-line depth, card cost
	Unit       Unit
	CardID     string
	Position   Position
	Err        error // rejection reason
	Timestamp  time.Time
	Metadata   map[string]string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with type filtering.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	order          []int
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	bus.order = append(bus.order, handle)
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, ok := bus.listeners[handle]; ok {
		delete(bus.listeners, handle)
		for i, h := range bus.order {
			if h == handle {
				bus.order = append(bus.order[:i], bus.order[i+1:]...)
				break
			}
		}
	}
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously, in
// subscription order.
func (bus *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	bus.mu.RLock()
	all := make([]Listener, 0, len(bus.order))
	for _, h := range bus.order {
		all = append(all, bus.listeners[h])
	}
	typed := append([]TypedListener(nil), bus.typedListeners[event.Type]...)
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, side Side, turnNumber int) Event {
	return Event{
		Type:       eventType,
		Side:       side,
		TurnNumber: turnNumber,
		Timestamp:  time.Now(),
		Metadata:   make(map[string]string),
	}
}
