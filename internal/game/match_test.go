package game

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lanewar/lanewar-go/internal/game/ai"
	"github.com/lanewar/lanewar-go/internal/game/board"
	"github.com/lanewar/lanewar-go/internal/game/combat"
	"github.com/lanewar/lanewar-go/internal/game/roster"
	"github.com/lanewar/lanewar-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	soldier = rules.Archetype{Name: "Soldier", Strength: 2, AdvanceRate: 1}
	runner  = rules.Archetype{Name: "Runner", Strength: 2, AdvanceRate: 5}
)

func testConfig(archetype rules.Archetype) MatchConfig {
	side := roster.Config{
		StartingHealth: 20,
		StartingMana:   0,
		ManaPerTurn:    2,
		ManaCap:        6,
		RefillMode:     roster.RefillIncrement,
		MaxHand:        5,
		InitialHand:    3,
	}
	return MatchConfig{
		Seed:      42,
		FirstSide: rules.SidePlayer,
		Layout:    board.DefaultLayouts()["S"],
		TileSize:  1,
		Combat:    combat.DefaultConfig(),
		Rosters:   map[rules.Side]roster.Config{rules.SidePlayer: side, rules.SideOpponent: side},
		Deck:      []roster.DeckEntry{{Cost: 1, Archetype: archetype, Copies: 12}},
	}
}

// passive never places anything.
var passive = ai.PolicyFunc(func(ai.View) ai.Action { return ai.EndTurn() })

type recordingFeedback struct {
	mu       sync.Mutex
	cues     []string
	rejected []error
	loser    *rules.Side
}

func (f *recordingFeedback) add(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append(f.cues, fmt.Sprintf(format, args...))
}

func (f *recordingFeedback) OnPlacementAccepted(unit rules.Unit) {
	f.add("placed:%s:%s", unit.Side, unit.Position)
}

func (f *recordingFeedback) OnPlacementRejected(side rules.Side, err error) {
	f.mu.Lock()
	f.rejected = append(f.rejected, err)
	f.mu.Unlock()
	f.add("rejected:%s", side)
}

func (f *recordingFeedback) OnFrontLineMoved(side rules.Side, depth int) {
	f.add("line:%s:%d", side, depth)
}

func (f *recordingFeedback) OnTurnChanged(active rules.Side, turn int) {
	f.add("turn:%s:%d", active, turn)
}

func (f *recordingFeedback) OnMatchEnded(loser rules.Side) {
	f.mu.Lock()
	f.loser = &loser
	f.mu.Unlock()
	f.add("ended:%s", loser)
}

func (f *recordingFeedback) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cues...)
}

func newTestMatch(t *testing.T, cfg MatchConfig, policy ai.Policy) (*Match, *recordingFeedback) {
	t.Helper()
	fb := &recordingFeedback{}
	m, err := NewMatch(cfg, policy, fb, zaptest.NewLogger(t))
	require.NoError(t, err)
	return m, fb
}

func TestNewMatchStartsPlayerTurn(t *testing.T) {
	m, fb := newTestMatch(t, testConfig(soldier), passive)

	state := m.State()
	assert.Equal(t, rules.TurnState{Active: rules.SidePlayer, Number: 1, Phase: rules.PhaseAwaitingAction}, state.Turn)
	assert.Equal(t, rules.FrontLines{Player: 2, Opponent: 2}, state.Lines)
	assert.Equal(t, 2, state.Side(rules.SidePlayer).Mana)
	assert.Equal(t, 4, state.Side(rules.SidePlayer).HandSize)
	assert.Equal(t, 3, state.Side(rules.SideOpponent).HandSize)
	assert.Equal(t, []string{"turn:PLAYER:1"}, fb.snapshot())
	assert.NotEmpty(t, m.ID())
}

func TestNewMatchRejectsBadLayout(t *testing.T) {
	cfg := testConfig(soldier)
	cfg.Layout = board.Layout{Rows: []string{"LD"}}

	_, err := NewMatch(cfg, passive, nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestPlaceCardAcceptsAndPays(t *testing.T) {
	m, fb := newTestMatch(t, testConfig(soldier), passive)
	card := m.Hand(rules.SidePlayer)[0]

	unit, err := m.PlaceCard(card.ID, rules.Position{Lane: 1, Depth: 1})
	require.NoError(t, err)

	assert.Equal(t, card.ID, unit.CardID)
	state := m.State()
	assert.Equal(t, 1, state.Side(rules.SidePlayer).Mana)
	assert.Equal(t, 3, state.Side(rules.SidePlayer).HandSize)
	require.Len(t, state.Units, 1)
	assert.Contains(t, fb.snapshot(), "placed:PLAYER:(1,1)")
}

func TestPlaceCardRejectionChangesNothing(t *testing.T) {
	m, fb := newTestMatch(t, testConfig(soldier), passive)
	card := m.Hand(rules.SidePlayer)[0]
	before, err := m.Checksum()
	require.NoError(t, err)

	_, err = m.PlaceCard(card.ID, rules.Position{Lane: 1, Depth: 3})
	assert.True(t, errors.Is(err, rules.ErrOutOfZone))

	_, err = m.PlaceCard("missing", rules.Position{Lane: 1, Depth: 0})
	assert.True(t, errors.Is(err, rules.ErrInvalidCard))

	after, err := m.Checksum()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, fb.rejected, 2)
}

func TestPlaceCardOutsideTurnIsRejected(t *testing.T) {
	m, _ := newTestMatch(t, testConfig(soldier), passive)
	card := m.Hand(rules.SidePlayer)[0]
	require.NoError(t, m.turns.BeginResolving())

	_, err := m.PlaceCard(card.ID, rules.Position{Lane: 0, Depth: 0})
	assert.True(t, errors.Is(err, rules.ErrNotYourTurn))
	assert.True(t, errors.Is(m.EndTurn(), rules.ErrNotYourTurn))
	_, err = m.BeginPlacement(card.ID, rules.Position{Lane: 0, Depth: 0})
	assert.True(t, errors.Is(err, rules.ErrNotYourTurn))
	assert.Empty(t, m.State().Units)
}

func TestEndTurnPlaysOpponentTurn(t *testing.T) {
	m, fb := newTestMatch(t, testConfig(soldier), ai.NewGreedy())

	require.NoError(t, m.EndTurn())

	state := m.State()
	assert.Equal(t, rules.TurnState{Active: rules.SidePlayer, Number: 3, Phase: rules.PhaseAwaitingAction}, state.Turn)

	// The opponent spent its two mana on two soldiers stacked in the centre
	// lane; after resolution they advanced one tile and pushed the player back.
	var opponents []rules.Unit
	for _, u := range state.Units {
		if u.Side == rules.SideOpponent {
			opponents = append(opponents, u)
		}
	}
	require.Len(t, opponents, 2)
	assert.Equal(t, rules.Position{Lane: 2, Depth: 2}, opponents[0].Position)
	assert.Equal(t, rules.Position{Lane: 2, Depth: 3}, opponents[1].Position)
	assert.Equal(t, 1, state.Lines.Player)
	assert.Equal(t, 0, state.Side(rules.SideOpponent).Mana)

	assert.Equal(t, []string{
		"turn:PLAYER:1",
		"turn:OPPONENT:2",
		"placed:OPPONENT:(2,3)",
		"placed:OPPONENT:(2,4)",
		"line:PLAYER:1",
		"turn:PLAYER:3",
	}, fb.snapshot())

	report := m.LastReport()
	assert.Equal(t, -4, report.NetPressure)

	stats := m.Stats()
	assert.Equal(t, 2, stats[rules.SideOpponent].Placed)
	assert.Equal(t, 1, stats[rules.SidePlayer].Retreats)
}

func TestPlayerCanOnlyPlaceBehindRetreatedLine(t *testing.T) {
	m, _ := newTestMatch(t, testConfig(soldier), ai.NewGreedy())
	require.NoError(t, m.EndTurn())
	card := m.Hand(rules.SidePlayer)[0]

	_, err := m.PlaceCard(card.ID, rules.Position{Lane: 0, Depth: 1})
	assert.True(t, errors.Is(err, rules.ErrOutOfZone))
	_, err = m.PlaceCard(card.ID, rules.Position{Lane: 0, Depth: 0})
	assert.NoError(t, err)
}

func TestMatchEndsWhenHealthDepleted(t *testing.T) {
	cfg := testConfig(runner)
	opp := cfg.Rosters[rules.SideOpponent]
	opp.StartingHealth = 2
	cfg.Rosters = map[rules.Side]roster.Config{rules.SidePlayer: cfg.Rosters[rules.SidePlayer], rules.SideOpponent: opp}
	m, fb := newTestMatch(t, cfg, passive)

	card := m.Hand(rules.SidePlayer)[0]
	_, err := m.PlaceCard(card.ID, rules.Position{Lane: 0, Depth: 1})
	require.NoError(t, err)
	require.NoError(t, m.EndTurn())

	winner, ended := m.Winner()
	require.True(t, ended)
	assert.Equal(t, rules.SidePlayer, winner)

	state := m.State()
	assert.True(t, state.Ended)
	assert.Equal(t, rules.PhaseEnded, state.Turn.Phase)
	assert.Equal(t, 0, state.Side(rules.SideOpponent).Health)
	assert.Empty(t, state.Units)
	require.NotNil(t, fb.loser)
	assert.Equal(t, rules.SideOpponent, *fb.loser)

	_, err = m.PlaceCard(m.Hand(rules.SidePlayer)[0].ID, rules.Position{Lane: 1, Depth: 0})
	assert.True(t, IsGameOver(err))
	assert.True(t, errors.Is(err, rules.ErrNotYourTurn))
	endErr := m.EndTurn()
	assert.True(t, errors.Is(endErr, rules.ErrMatchEnded))
	assert.True(t, errors.Is(endErr, rules.ErrNotYourTurn))
	_, err = m.BeginPlacement(m.Hand(rules.SidePlayer)[0].ID, rules.Position{Lane: 1, Depth: 0})
	assert.True(t, errors.Is(err, rules.ErrNotYourTurn))
	assert.True(t, IsGameOver(err))

	replay := m.Replay()
	require.NotZero(t, replay.Size())
	assert.True(t, replay.States[replay.Size()-1].Ended)

	stats := m.Stats()
	assert.Equal(t, 1, stats[rules.SidePlayer].Placed)
	assert.Equal(t, 1, stats[rules.SidePlayer].Scored)
	assert.Equal(t, 2, stats[rules.SideOpponent].DamageTaken)
	assert.Equal(t, 1, stats[rules.SideOpponent].Retreats)

	// Feedback is detached once the match is over.
	cues := len(fb.snapshot())
	m.Events().Publish(rules.NewEvent(rules.EventTurnChanged, rules.SidePlayer, 99))
	assert.Len(t, fb.snapshot(), cues)
}

func TestDisabledReplayRecordsNothing(t *testing.T) {
	cfg := testConfig(soldier)
	cfg.DisableReplay = true
	m, _ := newTestMatch(t, cfg, ai.NewGreedy())

	_, err := m.PlaceCard(m.Hand(rules.SidePlayer)[0].ID, rules.Position{Lane: 0, Depth: 0})
	require.NoError(t, err)
	require.NoError(t, m.EndTurn())

	assert.Zero(t, m.Replay().Size())
	_, err = m.Checksum()
	assert.NoError(t, err)
}

func TestDecideLoser(t *testing.T) {
	cases := []struct {
		name   string
		player int
		opp    int
		ender  rules.Side
		loser  rules.Side
		over   bool
	}{
		{"both alive", 3, 4, rules.SidePlayer, 0, false},
		{"player out", 0, 4, rules.SideOpponent, rules.SidePlayer, true},
		{"opponent out", 1, -2, rules.SidePlayer, rules.SideOpponent, true},
		{"double knockout lower loses", -3, -1, rules.SideOpponent, rules.SidePlayer, true},
		{"double knockout opponent lower", 0, -1, rules.SidePlayer, rules.SideOpponent, true},
		{"double knockout tie ender loses", -2, -2, rules.SideOpponent, rules.SideOpponent, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loser, over := decideLoser(map[rules.Side]int{rules.SidePlayer: tc.player, rules.SideOpponent: tc.opp}, tc.ender)
			assert.Equal(t, tc.over, over)
			if tc.over {
				assert.Equal(t, tc.loser, loser)
			}
		})
	}
}

func TestTwoPhasePlacement(t *testing.T) {
	m, _ := newTestMatch(t, testConfig(soldier), passive)
	hand := m.Hand(rules.SidePlayer)
	pos := rules.Position{Lane: 3, Depth: 1}
	before, err := m.Checksum()
	require.NoError(t, err)

	res, err := m.BeginPlacement(hand[0].ID, pos)
	require.NoError(t, err)

	_, err = m.PlaceCard(hand[1].ID, pos)
	assert.True(t, errors.Is(err, rules.ErrTileOccupied))

	require.NoError(t, m.RollbackPlacement(res.ID))
	after, err := m.Checksum()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	res, err = m.BeginPlacement(hand[0].ID, pos)
	require.NoError(t, err)
	unit, err := m.CommitPlacement(res.ID)
	require.NoError(t, err)
	assert.Equal(t, pos, unit.Position)

	_, err = m.CommitPlacement(res.ID)
	assert.True(t, errors.Is(err, rules.ErrUnknownReservation))
}

func TestEndTurnDropsPendingReservations(t *testing.T) {
	m, _ := newTestMatch(t, testConfig(soldier), passive)
	res, err := m.BeginPlacement(m.Hand(rules.SidePlayer)[0].ID, rules.Position{Lane: 0, Depth: 0})
	require.NoError(t, err)

	require.NoError(t, m.EndTurn())

	_, err = m.CommitPlacement(res.ID)
	assert.True(t, errors.Is(err, rules.ErrUnknownReservation))
	assert.Empty(t, m.State().Units)
}

func TestConcurrentPlacementsOnOneTile(t *testing.T) {
	m, _ := newTestMatch(t, testConfig(soldier), passive)
	hand := m.Hand(rules.SidePlayer)
	pos := rules.Position{Lane: 2, Depth: 0}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.PlaceCard(hand[i].ID, pos)
		}(i)
	}
	wg.Wait()

	var ok, occupied int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, rules.ErrTileOccupied):
			occupied++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, occupied)
	assert.Len(t, m.State().Units, 1)
}

func TestPlacementOrderDoesNotChangeOutcome(t *testing.T) {
	play := func(order []int) string {
		m, _ := newTestMatch(t, testConfig(soldier), ai.NewGreedy())
		hand := m.Hand(rules.SidePlayer)
		spots := []rules.Position{{Lane: 0, Depth: 1}, {Lane: 4, Depth: 0}}
		for _, i := range order {
			_, err := m.PlaceCard(hand[i].ID, spots[i])
			require.NoError(t, err)
		}
		require.NoError(t, m.EndTurn())
		sum, err := m.Checksum()
		require.NoError(t, err)
		return sum
	}

	assert.Equal(t, play([]int{0, 1}), play([]int{1, 0}))
}

func TestReplayRecordsEveryStep(t *testing.T) {
	m, _ := newTestMatch(t, testConfig(soldier), ai.NewGreedy())
	_, err := m.PlaceCard(m.Hand(rules.SidePlayer)[0].ID, rules.Position{Lane: 0, Depth: 0})
	require.NoError(t, err)
	require.NoError(t, m.EndTurn())

	replay := m.Replay()
	// turn 1 start, player placement, turn 2 start, two opponent
	// placements, turn 3 start
	require.Equal(t, 6, replay.Size())

	first, ok := replay.Next()
	require.True(t, ok)
	assert.Equal(t, 1, first.Turn.Number)
	assert.Empty(t, first.Units)

	assert.Equal(t, 3, replay.States[5].Turn.Number)
}
