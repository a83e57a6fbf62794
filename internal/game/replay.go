package game

import (
	"sync"

	"go.uber.org/zap"
)

// Replay is the ordered list of snapshots taken during a match, one per state
// change, with a cursor for stepping through them.
type Replay struct {
	MatchID      string
	States       []MatchState
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay for a match.
func NewReplay(matchID string) *Replay {
	return &Replay{
		MatchID: matchID,
		States:  make([]MatchState, 0),
	}
}

// RecordState appends a snapshot.
func (r *Replay) RecordState(state MatchState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, state)
}

// Start rewinds the cursor.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state under the cursor and moves past it.
func (r *Replay) Next() (MatchState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		state := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return state, true
	}
	return MatchState{}, false
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// Copy returns an independent replay with the same states and a rewound cursor.
func (r *Replay) Copy() *Replay {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &Replay{
		MatchID: r.MatchID,
		States:  append([]MatchState(nil), r.States...),
	}
}

// ReplayRecorder records match snapshots while enabled.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replay  *Replay
	enabled bool
	limit   int
}

// NewReplayRecorder creates a recorder keeping at most limit states
// (0 keeps everything).
func NewReplayRecorder(matchID string, limit int, logger *zap.Logger) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replay:  NewReplay(matchID),
		enabled: true,
		limit:   limit,
	}
}

// SetEnabled turns recording on or off.
func (rr *ReplayRecorder) SetEnabled(enabled bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled = enabled
}

// IsRecording reports whether recording is enabled, letting callers skip
// building a snapshot nobody will keep.
func (rr *ReplayRecorder) IsRecording() bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled
}

// RecordState records a snapshot if recording is enabled.
func (rr *ReplayRecorder) RecordState(state MatchState) {
	rr.mu.RLock()
	enabled := rr.enabled
	limit := rr.limit
	rr.mu.RUnlock()

	if !enabled {
		return
	}
	if limit > 0 && rr.replay.Size() >= limit {
		rr.logger.Debug("replay limit reached, state dropped",
			zap.String("match_id", rr.replay.MatchID),
			zap.Int("limit", limit),
		)
		return
	}

	rr.replay.RecordState(state)
	rr.logger.Debug("recorded replay state",
		zap.String("match_id", rr.replay.MatchID),
		zap.Int("turn", state.Turn.Number),
		zap.Int("state_count", rr.replay.Size()),
	)
}

// Replay returns a copy of the recording.
func (rr *ReplayRecorder) Replay() *Replay {
	return rr.replay.Copy()
}
