package roster

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lanewar/lanewar-go/internal/game/rules"
	"golang.org/x/exp/rand"
)

// DeckEntry describes how many copies of a card a deck holds.
type DeckEntry struct {
	Cost      int
	Archetype rules.Archetype
	Copies    int
}

// CardID derives a stable card id from the owning side, archetype and serial.
func CardID(side rules.Side, archetype string, serial int) string {
	seed := fmt.Sprintf("%s|card|%s|%d", side, archetype, serial)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// BuildDeck expands entries into cards and shuffles them with seed. The same
// entries and seed always yield the same deck.
func BuildDeck(side rules.Side, entries []DeckEntry, seed uint64) []rules.Card {
	cards := make([]rules.Card, 0)
	serial := 0
	for _, entry := range entries {
		for i := 0; i < entry.Copies; i++ {
			cards = append(cards, rules.Card{
				ID:        CardID(side, entry.Archetype.Name, serial),
				Cost:      entry.Cost,
				Archetype: entry.Archetype,
			})
			serial++
		}
	}

	rng := rand.New(rand.NewSource(seed + uint64(side)))
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
