package game

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/lanewar/lanewar-go/internal/game/rules"
	"golang.org/x/crypto/blake2b"
)

const checksumVersion = 2

// StateChecksum is a deterministic digest of a match snapshot.
type StateChecksum struct {
	Hash    string // BLAKE2b-256 of the canonical representation
	Version int
}

// ComputeChecksum hashes the canonical representation of the snapshot.
// Timestamps are excluded, so two matches that reached the same position by
// different routes hash the same.
func (s MatchState) ComputeChecksum() (*StateChecksum, error) {
	hash, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash: %w", err)
	}
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	return &StateChecksum{
		Hash:    hex.EncodeToString(hash.Sum(nil)),
		Version: checksumVersion,
	}, nil
}

// canonical renders the snapshot independent of map iteration and unit order.
func (s MatchState) canonical() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "MATCH:%s|%s|%dx%d|%s|%d|%s|%t|%s\n",
		s.MatchID,
		s.Layout,
		s.Lanes,
		s.Depth,
		s.Turn.Active,
		s.Turn.Number,
		s.Turn.Phase,
		s.Ended,
		s.Winner,
	)
	fmt.Fprintf(&buf, "LINES:%d|%d\n", s.Lines.Player, s.Lines.Opponent)

	for _, side := range rules.Sides() {
		st, ok := s.Sides[side]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "SIDE:%s|%s|%d|%d|%d|%d|%d\n",
			side, st.Name, st.Health, st.Mana, st.HandSize, st.DrawPile, st.Discarded)
	}

	units := append([]rules.Unit(nil), s.Units...)
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	for _, u := range units {
		fmt.Fprintf(&buf, "UNIT:%s|%s|%s|%d|%d|%d|%t\n",
			u.ID, u.Side, u.Name, u.Position.Lane, u.Position.Depth, u.Strength, u.Alive)
	}

	return buf.String()
}
