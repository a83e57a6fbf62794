package rules

import "fmt"

// Side identifies one of the two opposing camps of a match.
type Side int

const (
	SidePlayer Side = iota
	SideOpponent
)

var sideNames = map[Side]string{
	SidePlayer:   "PLAYER",
	SideOpponent: "OPPONENT",
}

func (s Side) String() string {
	if name, ok := sideNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SIDE_%d", int(s))
}

// Opponent returns the side facing s.
func (s Side) Opponent() Side {
	if s == SidePlayer {
		return SideOpponent
	}
	return SidePlayer
}

// Forward is the depth direction units of this side advance in.
func (s Side) Forward() int {
	if s == SidePlayer {
		return 1
	}
	return -1
}

// Sides lists both sides in turn order.
func Sides() []Side {
	return []Side{SidePlayer, SideOpponent}
}

// Position addresses a tile by lane (column) and depth (row).
// Depth 0 is the player's baseline.
type Position struct {
	Lane  int
	Depth int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Lane, p.Depth)
}

// Archetype is the static profile a card turns into when played.
type Archetype struct {
	Name        string
	Strength    int
	AdvanceRate int
}

// Card is an immutable playable unit card.
type Card struct {
	ID        string
	Cost      int
	Archetype Archetype
}

// StrengthPerCost is used to rank cards; free cards rank by raw strength.
func (c Card) StrengthPerCost() float64 {
	if c.Cost <= 0 {
		return float64(c.Archetype.Strength)
	}
	return float64(c.Archetype.Strength) / float64(c.Cost)
}

// Unit is a card placed on the board.
type Unit struct {
	ID          string
	CardID      string
	Name        string
	Side        Side
	Position    Position
	Strength    int
	AdvanceRate int
	Alive       bool
}
