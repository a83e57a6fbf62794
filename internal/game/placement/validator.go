package placement

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lanewar/lanewar-go/internal/game/board"
	"github.com/lanewar/lanewar-go/internal/game/roster"
	"github.com/lanewar/lanewar-go/internal/game/rules"
	"go.uber.org/zap"
)

// Reservation is a pending placement holding a tile lock and the card's cost.
type Reservation struct {
	ID        string
	Side      rules.Side
	Card      rules.Card
	Position  rules.Position
	CreatedAt time.Time
}

// Validator decides whether placements are legal and turns accepted ones
// into units. Placement is two-phase: Begin locks the tile and holds the
// card, Commit pays and registers the unit, Rollback releases everything.
type Validator struct {
	grid    *board.Grid
	rosters map[rules.Side]*roster.Roster
	logger  *zap.Logger

	mu           sync.Mutex
	reservations map[string]*Reservation
	tileLocks    map[rules.Position]string
	cardHolds    map[string]string
	manaHeld     map[rules.Side]int
	serial       uint64
}

// NewValidator creates a validator over grid paying from the given rosters.
func NewValidator(grid *board.Grid, rosters map[rules.Side]*roster.Roster, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		grid:         grid,
		rosters:      rosters,
		logger:       logger,
		reservations: make(map[string]*Reservation),
		tileLocks:    make(map[rules.Position]string),
		cardHolds:    make(map[string]string),
		manaHeld:     make(map[rules.Side]int),
	}
}

// Check runs the legality checks without reserving anything.
func (v *Validator) Check(side rules.Side, cardID string, pos rules.Position) (rules.Card, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.check(side, cardID, pos)
}

// Begin validates a placement and reserves its tile and card.
func (v *Validator) Begin(side rules.Side, cardID string, pos rules.Position) (*Reservation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	card, err := v.check(side, cardID, pos)
	if err != nil {
		return nil, err
	}

	v.serial++
	seed := fmt.Sprintf("%s|reservation|%s|%s|%d", side, cardID, pos, v.serial)
	res := &Reservation{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String(),
		Side:      side,
		Card:      card,
		Position:  pos,
		CreatedAt: time.Now(),
	}
	v.reservations[res.ID] = res
	v.tileLocks[pos] = res.ID
	v.cardHolds[cardID] = res.ID
	v.manaHeld[side] += card.Cost

	v.logger.Debug("placement reserved",
		zap.String("reservation_id", res.ID),
		zap.String("side", side.String()),
		zap.String("card_id", cardID),
		zap.Int("lane", pos.Lane),
		zap.Int("depth", pos.Depth),
	)
	return res, nil
}

// Commit pays for a reserved placement and registers the unit on the board.
// The reservation is released whether or not the commit succeeds.
func (v *Validator) Commit(reservationID string) (rules.Unit, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, ok := v.reservations[reservationID]
	if !ok {
		return rules.Unit{}, fmt.Errorf("commit %s: %w", reservationID, rules.ErrUnknownReservation)
	}
	v.release(res)

	card, err := v.rosters[res.Side].Spend(res.Card.ID)
	if err != nil {
		return rules.Unit{}, err
	}

	unit := rules.Unit{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte("unit|"+card.ID)).String(),
		CardID:      card.ID,
		Name:        card.Archetype.Name,
		Side:        res.Side,
		Position:    res.Position,
		Strength:    card.Archetype.Strength,
		AdvanceRate: card.Archetype.AdvanceRate,
		Alive:       true,
	}
	if err := v.grid.AddUnit(unit); err != nil {
		// Unreachable while the tile lock is honoured; surface it rather than lose the card silently.
		return rules.Unit{}, fmt.Errorf("register unit for card %s: %w", card.ID, err)
	}

	v.logger.Info("unit placed",
		zap.String("side", unit.Side.String()),
		zap.String("unit_id", unit.ID),
		zap.String("archetype", unit.Name),
		zap.Int("lane", unit.Position.Lane),
		zap.Int("depth", unit.Position.Depth),
		zap.Int("cost", card.Cost),
	)
	return unit, nil
}

// Rollback abandons a reservation with no state change.
func (v *Validator) Rollback(reservationID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, ok := v.reservations[reservationID]
	if !ok {
		return fmt.Errorf("rollback %s: %w", reservationID, rules.ErrUnknownReservation)
	}
	v.release(res)
	v.logger.Debug("placement rolled back", zap.String("reservation_id", reservationID))
	return nil
}

// TryPlace validates and commits a placement in one step.
func (v *Validator) TryPlace(side rules.Side, cardID string, pos rules.Position) (rules.Unit, error) {
	res, err := v.Begin(side, cardID, pos)
	if err != nil {
		return rules.Unit{}, err
	}
	return v.Commit(res.ID)
}

// Reservation returns a pending reservation by id.
func (v *Validator) Reservation(reservationID string) (Reservation, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	res, ok := v.reservations[reservationID]
	if !ok {
		return Reservation{}, false
	}
	return *res, true
}

// Reset drops every open reservation and returns how many were dropped.
func (v *Validator) Reset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := len(v.reservations)
	for _, res := range v.reservations {
		v.release(res)
	}
	return n
}

func (v *Validator) check(side rules.Side, cardID string, pos rules.Position) (rules.Card, error) {
	if !v.grid.IsWithinBounds(pos) ||
		!rules.InZone(side, pos.Depth, v.grid.FrontLines(), v.grid.Depth()) {
		return rules.Card{}, fmt.Errorf("%s at %s: %w", side, pos, rules.ErrOutOfZone)
	}
	if rules.Outflanked(side, pos, v.grid.UnitsOf(side.Opponent())) {
		return rules.Card{}, fmt.Errorf("%s at %s: behind an enemy unit: %w", side, pos, rules.ErrOutOfZone)
	}

	if v.grid.IsOccupied(pos) {
		return rules.Card{}, fmt.Errorf("%s at %s: %w", side, pos, rules.ErrTileOccupied)
	}
	if _, locked := v.tileLocks[pos]; locked {
		return rules.Card{}, fmt.Errorf("%s at %s: pending placement: %w", side, pos, rules.ErrTileOccupied)
	}

	r, ok := v.rosters[side]
	if !ok {
		return rules.Card{}, fmt.Errorf("no roster for %s", side)
	}
	card, ok := r.Card(cardID)
	if !ok {
		return rules.Card{}, fmt.Errorf("%s card %s: %w", side, cardID, rules.ErrInvalidCard)
	}
	if _, held := v.cardHolds[cardID]; held {
		return rules.Card{}, fmt.Errorf("%s card %s already pending: %w", side, cardID, rules.ErrInvalidCard)
	}
	if !r.Affordable(card.Cost, v.manaHeld[side]) {
		return rules.Card{}, fmt.Errorf("%s card %s costs %d, mana %d, held %d: %w",
			side, cardID, card.Cost, r.Mana(), v.manaHeld[side], rules.ErrInsufficientResources)
	}
	return card, nil
}

func (v *Validator) release(res *Reservation) {
	delete(v.reservations, res.ID)
	if v.tileLocks[res.Position] == res.ID {
		delete(v.tileLocks, res.Position)
	}
	if v.cardHolds[res.Card.ID] == res.ID {
		delete(v.cardHolds, res.Card.ID)
	}
	v.manaHeld[res.Side] -= res.Card.Cost
	if v.manaHeld[res.Side] <= 0 {
		delete(v.manaHeld, res.Side)
	}
}
