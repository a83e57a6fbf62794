package rules

import (
	"fmt"
	"sync"
)

// Phase is the coarse state of the turn machine.
type Phase int

const (
	PhaseAwaitingAction Phase = iota
	PhaseResolving
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseAwaitingAction: "AWAITING_ACTION",
	PhaseResolving:      "RESOLVING",
	PhaseEnded:          "ENDED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// TurnState is an immutable view of the turn machine.
type TurnState struct {
	Active Side
	Number int
	Phase  Phase
}

// TurnManager tracks the active side, the turn number and the phase.
// It is the only place the active side or phase may change.
type TurnManager struct {
	mu         sync.RWMutex
	turnNumber int
	active     Side
	phase      Phase
}

// NewTurnManager creates a turn manager at turn 1 awaiting an action from first.
func NewTurnManager(first Side) *TurnManager {
	return &TurnManager{
		turnNumber: 1,
		active:     first,
		phase:      PhaseAwaitingAction,
	}
}

// State returns a snapshot of the current turn state.
func (tm *TurnManager) State() TurnState {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return TurnState{Active: tm.active, Number: tm.turnNumber, Phase: tm.phase}
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.turnNumber
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.phase
}

// Accepts reports whether side may act right now.
func (tm *TurnManager) Accepts(side Side) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.phase == PhaseAwaitingAction && tm.active == side
}

// BeginResolving moves AwaitingAction to Resolving.
func (tm *TurnManager) BeginResolving() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.phase != PhaseAwaitingAction {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseTransition, tm.phase, PhaseResolving)
	}
	tm.phase = PhaseResolving
	return nil
}

// Advance moves Resolving to AwaitingAction for the other side and increments
// the turn number.
func (tm *TurnManager) Advance() (TurnState, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.phase != PhaseResolving {
		return TurnState{}, fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseTransition, tm.phase, PhaseAwaitingAction)
	}
	tm.turnNumber++
	tm.active = tm.active.Opponent()
	tm.phase = PhaseAwaitingAction
	return TurnState{Active: tm.active, Number: tm.turnNumber, Phase: tm.phase}, nil
}

// End moves the machine into the terminal phase. Ending twice is a no-op.
func (tm *TurnManager) End() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.phase = PhaseEnded
}
