package roster

import (
	"fmt"
	"sync"

	"github.com/lanewar/lanewar-go/internal/game/rules"
	"go.uber.org/zap"
)

// RefillMode selects how mana is granted at the start of a side's turn.
type RefillMode string

const (
	// RefillIncrement adds the per-turn grant on top of the balance, up to the cap.
	RefillIncrement RefillMode = "increment"
	// RefillReset replaces the balance with the per-turn grant.
	RefillReset RefillMode = "reset"
)

// Config holds the per-side resource rules.
type Config struct {
	Name           string
	StartingHealth int
	StartingMana   int
	ManaPerTurn    int
	ManaCap        int
	RefillMode     RefillMode
	MaxHand        int
	InitialHand    int
}

// Roster owns one side's health, mana, hand, draw pile and discard pile.
type Roster struct {
	mu       sync.RWMutex
	side     rules.Side
	cfg      Config
	health   int
	pool     *ManaPool
	hand     []rules.Card
	drawPile []rules.Card
	discard  []rules.Card
	logger   *zap.Logger
}

// New creates a roster for side drawing from deck (top of the pile first).
// The initial hand is not dealt; call Deal.
func New(side rules.Side, cfg Config, deck []rules.Card, logger *zap.Logger) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = side.String()
	}
	return &Roster{
		side:     side,
		cfg:      cfg,
		health:   cfg.StartingHealth,
		pool:     NewManaPool(cfg.StartingMana),
		hand:     make([]rules.Card, 0, cfg.MaxHand),
		drawPile: append([]rules.Card(nil), deck...),
		discard:  make([]rules.Card, 0),
		logger:   logger.With(zap.String("side", side.String())),
	}
}

func (r *Roster) Side() rules.Side { return r.side }

func (r *Roster) Name() string { return r.cfg.Name }

// Health returns the remaining health points.
func (r *Roster) Health() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.health
}

// Mana returns the current mana balance.
func (r *Roster) Mana() int {
	return r.pool.Available()
}

// Hand returns a copy of the hand in draw order.
func (r *Roster) Hand() []rules.Card {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]rules.Card(nil), r.hand...)
}

// DrawPileSize returns the number of cards left to draw.
func (r *Roster) DrawPileSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drawPile)
}

// Discarded returns a copy of the discard pile.
func (r *Roster) Discarded() []rules.Card {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]rules.Card(nil), r.discard...)
}

// Card looks a card up in the hand.
func (r *Roster) Card(cardID string) (rules.Card, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := r.indexOf(cardID)
	if idx < 0 {
		return rules.Card{}, false
	}
	return r.hand[idx], true
}

// Affordable reports whether cost can be paid while held mana stays reserved.
func (r *Roster) Affordable(cost, held int) bool {
	return cost+held <= r.pool.Available()
}

// DrawCard moves the top card of the draw pile into the hand. It returns the
// card and whether it reached the hand. An empty pile has no effect; a full
// hand discards the drawn card.
func (r *Roster) DrawCard() (rules.Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.drawPile) == 0 {
		r.logger.Debug("draw pile empty")
		return rules.Card{}, false
	}
	card := r.drawPile[0]
	r.drawPile = r.drawPile[1:]

	if r.cfg.MaxHand > 0 && len(r.hand) >= r.cfg.MaxHand {
		r.discard = append(r.discard, card)
		r.logger.Info("drawn card discarded",
			zap.String("card_id", card.ID),
			zap.String("archetype", card.Archetype.Name),
			zap.NamedError("reason", rules.ErrHandFull),
		)
		return card, false
	}

	r.hand = append(r.hand, card)
	return card, true
}

// Deal draws the configured initial hand.
func (r *Roster) Deal() {
	for i := 0; i < r.cfg.InitialHand; i++ {
		r.DrawCard()
	}
}

// Spend pays for a card in hand and removes it, handing ownership to the caller.
func (r *Roster) Spend(cardID string) (rules.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(cardID)
	if idx < 0 {
		return rules.Card{}, fmt.Errorf("spend %s: %w", cardID, rules.ErrInvalidCard)
	}
	card := r.hand[idx]
	if !r.pool.Spend(card.Cost) {
		return rules.Card{}, fmt.Errorf("spend %s: cost %d, mana %d: %w",
			cardID, card.Cost, r.pool.Available(), rules.ErrInsufficientResources)
	}
	r.hand = append(r.hand[:idx:idx], r.hand[idx+1:]...)
	return card, nil
}

// RefillTurnResources applies the per-turn mana grant and returns the new balance.
func (r *Roster) RefillTurnResources() int {
	switch r.cfg.RefillMode {
	case RefillReset:
		r.pool.Set(r.cfg.ManaPerTurn)
	default:
		r.pool.Add(r.cfg.ManaPerTurn, r.cfg.ManaCap)
	}
	return r.pool.Available()
}

// ApplyDamage lowers health by amount, never below zero, and returns what is left.
func (r *Roster) ApplyDamage(amount int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if amount > 0 {
		r.health -= amount
		if r.health < 0 {
			r.health = 0
		}
	}
	return r.health
}

// Defeated reports whether the side has no health left.
func (r *Roster) Defeated() bool {
	return r.Health() <= 0
}

func (r *Roster) indexOf(cardID string) int {
	for i, card := range r.hand {
		if card.ID == cardID {
			return i
		}
	}
	return -1
}
