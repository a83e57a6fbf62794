package ai

import (
	"sort"

	"github.com/lanewar/lanewar-go/internal/game/rules"
)

// Greedy plays the best value affordable card into the lane where the enemy
// is weakest, just behind its own front line. It keeps no state between calls.
type Greedy struct{}

// NewGreedy returns the default greedy policy.
func NewGreedy() *Greedy {
	return &Greedy{}
}

// ChooseAction implements Policy.
func (g *Greedy) ChooseAction(view View) Action {
	lanes := g.laneOrder(view)
	for _, card := range rankHand(view.Hand) {
		if card.Cost > view.Mana {
			continue
		}
		for _, lane := range lanes {
			if pos, ok := g.slotIn(view, lane); ok {
				return PlayCard(card.ID, pos)
			}
		}
	}
	return EndTurn()
}

// rankHand orders cards by strength per cost, then strength, then cheaper
// first, keeping hand order for full ties.
func rankHand(hand []rules.Card) []rules.Card {
	ranked := append([]rules.Card(nil), hand...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.StrengthPerCost() != b.StrengthPerCost() {
			return a.StrengthPerCost() > b.StrengthPerCost()
		}
		if a.Archetype.Strength != b.Archetype.Strength {
			return a.Archetype.Strength > b.Archetype.Strength
		}
		return a.Cost < b.Cost
	})
	return ranked
}

// laneOrder ranks lanes by enemy presence, weakest first. A unit weighs in
// full on its own lane and at half on each neighbour. Ties go to the lane
// nearest the centre, then the lower index.
func (g *Greedy) laneOrder(view View) []int {
	presence := make([]int, view.Lanes)
	enemy := view.Side.Opponent()
	for _, u := range view.Units {
		if !u.Alive || u.Side != enemy {
			continue
		}
		for l := u.Position.Lane - 1; l <= u.Position.Lane+1; l++ {
			if l < 0 || l >= view.Lanes {
				continue
			}
			if l == u.Position.Lane {
				presence[l] += 2 * u.Strength
			} else {
				presence[l] += u.Strength
			}
		}
	}

	lanes := make([]int, view.Lanes)
	for i := range lanes {
		lanes[i] = i
	}
	centre2 := view.Lanes - 1 // twice the centre index
	sort.SliceStable(lanes, func(i, j int) bool {
		a, b := lanes[i], lanes[j]
		if presence[a] != presence[b] {
			return presence[a] < presence[b]
		}
		da, db := abs(2*a-centre2), abs(2*b-centre2)
		if da != db {
			return da < db
		}
		return a < b
	})
	return lanes
}

// slotIn finds the free legal tile nearest to the side's front line in lane.
func (g *Greedy) slotIn(view View, lane int) (rules.Position, bool) {
	side := view.Side
	back := -side.Forward()
	start := view.Lines.For(side) + back
	for d := start; d >= 0 && d < view.Depth; d += back {
		pos := rules.Position{Lane: lane, Depth: d}
		if !rules.InZone(side, d, view.Lines, view.Depth) {
			continue
		}
		if view.Occupied(pos) || rules.Outflanked(side, pos, view.Units) {
			continue
		}
		return pos, true
	}
	return rules.Position{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
