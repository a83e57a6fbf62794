package game

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lanewar/lanewar-go/internal/game/ai"
	"github.com/lanewar/lanewar-go/internal/game/board"
	"github.com/lanewar/lanewar-go/internal/game/combat"
	"github.com/lanewar/lanewar-go/internal/game/placement"
	"github.com/lanewar/lanewar-go/internal/game/roster"
	"github.com/lanewar/lanewar-go/internal/game/rules"
	"github.com/lanewar/lanewar-go/internal/game/watchers"
	"go.uber.org/zap"
)

// aiSide is the side driven by the match's policy.
const aiSide = rules.SideOpponent

// MatchConfig describes everything needed to set up a match.
type MatchConfig struct {
	ID          string // derived from Seed when empty
	Seed        uint64
	FirstSide   rules.Side
	Layout      board.Layout
	TileSize    float64
	Combat      combat.Config
	Rosters     map[rules.Side]roster.Config
	Deck        []roster.DeckEntry
	ReplayLimit int
	// DisableReplay turns off snapshot recording.
	DisableReplay bool
}

// Match coordinates one game between the player and the automated opponent.
// Turns run AwaitingAction -> Resolving -> AwaitingAction for the other
// side until one side runs out of health. The opponent's turns are played
// synchronously by the policy as soon as they begin.
//
// All methods are safe for concurrent use.
type Match struct {
	id     string
	logger *zap.Logger

	mu        sync.Mutex
	grid      *board.Grid
	rosters   map[rules.Side]*roster.Roster
	validator *placement.Validator
	resolver  *combat.Resolver
	turns     *rules.TurnManager
	bus       *rules.EventBus
	policy    ai.Policy
	recorder  *ReplayRecorder
	stats     *rules.WatcherRegistry
	winner    rules.Side
	last      combat.Report
	feedback  int // bus handle of the feedback bridge
}

// NewMatch builds the board and both rosters, deals the opening hands and
// starts the first turn. A nil policy plays the opponent greedily; a nil
// feedback discards all cues.
func NewMatch(cfg MatchConfig, policy ai.Policy, feedback Feedback, logger *zap.Logger) (*Match, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = ai.NewGreedy()
	}
	if feedback == nil {
		feedback = NopFeedback{}
	}

	grid, err := board.NewGrid(cfg.Layout, cfg.TileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("match|"+strconv.FormatUint(cfg.Seed, 10))).String()
	}
	logger = logger.With(zap.String("match_id", id))

	rosters := make(map[rules.Side]*roster.Roster, 2)
	for _, side := range rules.Sides() {
		deck := roster.BuildDeck(side, cfg.Deck, cfg.Seed)
		r := roster.New(side, cfg.Rosters[side], deck, logger)
		r.Deal()
		rosters[side] = r
	}

	m := &Match{
		id:        id,
		logger:    logger,
		grid:      grid,
		rosters:   rosters,
		validator: placement.NewValidator(grid, rosters, logger),
		resolver:  combat.NewResolver(cfg.Combat, logger),
		turns:     rules.NewTurnManager(cfg.FirstSide),
		bus:       rules.NewEventBus(),
		policy:    policy,
		recorder:  NewReplayRecorder(id, cfg.ReplayLimit, logger),
		stats:     watchers.NewStandardRegistry(),
	}
	m.recorder.SetEnabled(!cfg.DisableReplay)
	m.bus.Subscribe(m.stats.NotifyWatchers)
	m.feedback = subscribeFeedback(m.bus, feedback)

	m.logger.Info("match created",
		zap.String("layout", grid.LayoutName()),
		zap.Int("lanes", grid.Lanes()),
		zap.Int("depth", grid.Depth()),
		zap.String("first_side", cfg.FirstSide.String()),
		zap.Uint64("seed", cfg.Seed),
	)

	m.mu.Lock()
	m.startTurn()
	m.mu.Unlock()
	return m, nil
}

// ID returns the match identifier.
func (m *Match) ID() string { return m.id }

// Events exposes the match event bus for additional subscribers.
func (m *Match) Events() *rules.EventBus { return m.bus }

// Geometry returns the board the match is played on.
func (m *Match) Geometry() board.Geometry { return m.grid }

// PlaceCard places a card from the player's hand at pos.
func (m *Match) PlaceCard(cardID string, pos rules.Position) (rules.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.admit(rules.SidePlayer); err != nil {
		m.reject(rules.SidePlayer, cardID, pos, err)
		return rules.Unit{}, err
	}
	return m.place(rules.SidePlayer, cardID, pos)
}

// BeginPlacement reserves a tile and a card for the player without paying.
func (m *Match) BeginPlacement(cardID string, pos rules.Position) (placement.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.admit(rules.SidePlayer); err != nil {
		m.reject(rules.SidePlayer, cardID, pos, err)
		return placement.Reservation{}, err
	}
	res, err := m.validator.Begin(rules.SidePlayer, cardID, pos)
	if err != nil {
		m.reject(rules.SidePlayer, cardID, pos, err)
		return placement.Reservation{}, err
	}
	return *res, nil
}

// CommitPlacement completes a reservation made by BeginPlacement.
func (m *Match) CommitPlacement(reservationID string) (rules.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, _ := m.validator.Reservation(reservationID)
	if err := m.admit(rules.SidePlayer); err != nil {
		m.reject(rules.SidePlayer, res.Card.ID, res.Position, err)
		return rules.Unit{}, err
	}
	unit, err := m.validator.Commit(reservationID)
	if err != nil {
		m.reject(rules.SidePlayer, res.Card.ID, res.Position, err)
		return rules.Unit{}, err
	}
	m.accept(unit)
	return unit, nil
}

// RollbackPlacement releases a reservation without changing any state.
func (m *Match) RollbackPlacement(reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.admit(rules.SidePlayer); err != nil {
		return err
	}
	return m.validator.Rollback(reservationID)
}

// EndTurn ends the player's turn. The board is resolved and, unless the
// match is over, the opponent plays its whole turn before EndTurn returns.
func (m *Match) EndTurn() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.endTurn(rules.SidePlayer)
}

// State returns a snapshot of the match.
func (m *Match) State() MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshot()
}

// Hand returns a copy of side's hand.
func (m *Match) Hand(side rules.Side) []rules.Card {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.rosters[side].Hand()
}

// View returns what a policy playing side may see.
func (m *Match) View(side rules.Side) ai.View {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.view(side)
}

// Winner returns the winning side once the match has ended.
func (m *Match) Winner() (rules.Side, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.turns.CurrentPhase() != rules.PhaseEnded {
		return 0, false
	}
	return m.winner, true
}

// LastReport returns the outcome of the most recent resolution.
func (m *Match) LastReport() combat.Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.last
}

// Stats returns per-side tallies gathered from match events.
func (m *Match) Stats() map[rules.Side]watchers.SideStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return watchers.Collect(m.stats)
}

// Replay returns a copy of every recorded state so far.
func (m *Match) Replay() *Replay {
	return m.recorder.Replay()
}

// Checksum returns a deterministic digest of the current state.
func (m *Match) Checksum() (string, error) {
	sum, err := m.State().ComputeChecksum()
	if err != nil {
		return "", err
	}
	return sum.Hash, nil
}

// admit returns nil when side may act now.
func (m *Match) admit(side rules.Side) error {
	state := m.turns.State()
	if state.Phase == rules.PhaseEnded {
		return fmt.Errorf("%s acting after turn %d: %w: %w",
			side, state.Number, rules.ErrNotYourTurn, rules.ErrMatchEnded)
	}
	if !m.turns.Accepts(side) {
		return fmt.Errorf("%s acting on turn %d (%s, %s): %w",
			side, state.Number, state.Active, state.Phase, rules.ErrNotYourTurn)
	}
	return nil
}

func (m *Match) place(side rules.Side, cardID string, pos rules.Position) (rules.Unit, error) {
	unit, err := m.validator.TryPlace(side, cardID, pos)
	if err != nil {
		m.reject(side, cardID, pos, err)
		return rules.Unit{}, err
	}
	m.accept(unit)
	return unit, nil
}

func (m *Match) accept(unit rules.Unit) {
	event := rules.NewEvent(rules.EventPlacementAccepted, unit.Side, m.turns.TurnNumber())
	event.Unit = unit
	event.CardID = unit.CardID
	event.Position = unit.Position
	m.bus.Publish(event)
	m.record()
}

func (m *Match) reject(side rules.Side, cardID string, pos rules.Position, err error) {
	m.logger.Info("placement rejected",
		zap.String("side", side.String()),
		zap.String("card_id", cardID),
		zap.Int("lane", pos.Lane),
		zap.Int("depth", pos.Depth),
		zap.Error(err),
	)
	event := rules.NewEvent(rules.EventPlacementRejected, side, m.turns.TurnNumber())
	event.CardID = cardID
	event.Position = pos
	event.Err = err
	m.bus.Publish(event)
}

// startTurn runs the entry actions of AwaitingAction for the active side.
func (m *Match) startTurn() {
	state := m.turns.State()
	r := m.rosters[state.Active]
	m.stats.ResetWatchersByScope(rules.WatcherScopeTurn)

	mana := r.RefillTurnResources()
	card, drawn := r.DrawCard()
	switch {
	case drawn:
		event := rules.NewEvent(rules.EventCardDrawn, state.Active, state.Number)
		event.CardID = card.ID
		m.bus.Publish(event)
	case card.ID != "":
		event := rules.NewEvent(rules.EventCardDiscarded, state.Active, state.Number)
		event.CardID = card.ID
		event.Err = rules.ErrHandFull
		m.bus.Publish(event)
	}

	m.logger.Info("turn started",
		zap.Int("turn", state.Number),
		zap.String("side", state.Active.String()),
		zap.Int("mana", mana),
		zap.Int("hand", len(r.Hand())),
	)
	m.bus.Publish(rules.NewEvent(rules.EventTurnChanged, state.Active, state.Number))
	m.record()

	if state.Active == aiSide {
		m.playPolicyTurn(state.Active)
	}
}

// playPolicyTurn lets the policy place cards until it ends its turn. The
// loop is bounded by the hand size; an illegal choice ends the turn.
func (m *Match) playPolicyTurn(side rules.Side) {
	limit := len(m.rosters[side].Hand()) + 1
	for i := 0; i < limit; i++ {
		action := m.policy.ChooseAction(m.view(side))
		if action.Kind != ai.ActionPlayCard {
			break
		}
		if _, err := m.place(side, action.CardID, action.Position); err != nil {
			m.logger.Warn("policy chose an illegal placement, ending turn",
				zap.String("side", side.String()),
				zap.String("card_id", action.CardID),
				zap.Stringer("position", action.Position),
				zap.Error(err),
			)
			break
		}
	}

	if err := m.endTurn(side); err != nil {
		m.logger.Error("failed to end policy turn", zap.String("side", side.String()), zap.Error(err))
	}
}

// endTurn resolves the board and either ends the match or hands the turn over.
func (m *Match) endTurn(side rules.Side) error {
	if err := m.admit(side); err != nil {
		return err
	}
	if dropped := m.validator.Reset(); dropped > 0 {
		m.logger.Debug("dropped pending reservations", zap.Int("count", dropped))
	}
	if err := m.turns.BeginResolving(); err != nil {
		return err
	}
	turn := m.turns.TurnNumber()

	health := make(map[rules.Side]int, 2)
	for _, s := range rules.Sides() {
		health[s] = m.rosters[s].Health()
	}

	report := m.resolver.Resolve(m.grid)
	m.last = report

	for _, u := range report.Destroyed {
		event := rules.NewEvent(rules.EventUnitDestroyed, u.Side, turn)
		event.Unit = u
		event.Position = u.Position
		m.bus.Publish(event)
	}
	for _, u := range report.Scored {
		event := rules.NewEvent(rules.EventUnitScored, u.Side, turn)
		event.Unit = u
		event.Position = u.Position
		event.Amount = u.Strength
		m.bus.Publish(event)
	}
	for _, move := range report.Moves {
		event := rules.NewEvent(rules.EventFrontLineMoved, move.Side, turn)
		event.Amount = move.To
		event.Metadata["from"] = strconv.Itoa(move.From)
		m.bus.Publish(event)
	}
	for _, s := range rules.Sides() {
		damage := report.DamageTo[s]
		if damage <= 0 {
			continue
		}
		health[s] -= damage
		left := m.rosters[s].ApplyDamage(damage)
		event := rules.NewEvent(rules.EventSideDamaged, s, turn)
		event.Amount = damage
		event.Metadata["health"] = strconv.Itoa(left)
		m.bus.Publish(event)
	}
	m.bus.Publish(rules.NewEvent(rules.EventResolved, side, turn))

	if loser, over := decideLoser(health, side); over {
		m.finish(loser, turn)
		return nil
	}

	next, err := m.turns.Advance()
	if err != nil {
		return err
	}
	m.logger.Debug("turn handed over",
		zap.Int("turn", next.Number),
		zap.String("side", next.Active.String()),
	)
	m.startTurn()
	return nil
}

func (m *Match) finish(loser rules.Side, turn int) {
	m.turns.End()
	m.winner = loser.Opponent()
	m.logger.Info("match ended",
		zap.String("loser", loser.String()),
		zap.Int("turn", turn),
		zap.Int("player_health", m.rosters[rules.SidePlayer].Health()),
		zap.Int("opponent_health", m.rosters[rules.SideOpponent].Health()),
	)
	event := rules.NewEvent(rules.EventMatchEnded, loser, turn)
	event.Metadata["winner"] = m.winner.String()
	m.bus.Publish(event)
	m.record()
	// Nothing is published after the end; release the presentation layer.
	m.bus.Unsubscribe(m.feedback)
}

func (m *Match) record() {
	if m.recorder.IsRecording() {
		m.recorder.RecordState(m.snapshot())
	}
}

// decideLoser picks the defeated side from post-damage health, which may be
// negative. When both sides are out the lower health loses, and on a tie the
// side that just ended its turn loses.
func decideLoser(health map[rules.Side]int, ender rules.Side) (rules.Side, bool) {
	p, o := health[rules.SidePlayer], health[rules.SideOpponent]
	switch {
	case p > 0 && o > 0:
		return 0, false
	case o > 0:
		return rules.SidePlayer, true
	case p > 0:
		return rules.SideOpponent, true
	case p < o:
		return rules.SidePlayer, true
	case o < p:
		return rules.SideOpponent, true
	default:
		return ender, true
	}
}

func (m *Match) snapshot() MatchState {
	state := MatchState{
		MatchID:   m.id,
		Layout:    m.grid.LayoutName(),
		Lanes:     m.grid.Lanes(),
		Depth:     m.grid.Depth(),
		Turn:      m.turns.State(),
		Lines:     m.grid.FrontLines(),
		Sides:     make(map[rules.Side]SideState, 2),
		Units:     m.grid.Units(),
		Timestamp: time.Now(),
	}
	if state.Turn.Phase == rules.PhaseEnded {
		state.Ended = true
		state.Winner = m.winner
	}
	for _, side := range rules.Sides() {
		r := m.rosters[side]
		state.Sides[side] = SideState{
			Side:      side,
			Name:      r.Name(),
			Health:    r.Health(),
			Mana:      r.Mana(),
			HandSize:  len(r.Hand()),
			DrawPile:  r.DrawPileSize(),
			Discarded: len(r.Discarded()),
		}
	}
	return state
}

func (m *Match) view(side rules.Side) ai.View {
	r := m.rosters[side]
	return ai.View{
		Side:  side,
		Hand:  r.Hand(),
		Mana:  r.Mana(),
		Lanes: m.grid.Lanes(),
		Depth: m.grid.Depth(),
		Lines: m.grid.FrontLines(),
		Units: m.grid.Units(),
	}
}

// IsGameOver reports whether err means the match can no longer be played.
func IsGameOver(err error) bool {
	return errors.Is(err, rules.ErrMatchEnded)
}
