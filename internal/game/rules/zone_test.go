package rules

import "testing"

func TestInitialFrontLines(t *testing.T) {
	lines := InitialFrontLines(5)
	if lines.Player != 2 || lines.Opponent != 2 {
		t.Fatalf("expected 2/2 on a 5-deep board, got %+v", lines)
	}

	lines = InitialFrontLines(6)
	if lines.Player != 3 || lines.Opponent != 2 {
		t.Fatalf("expected 3/2 on a 6-deep board, got %+v", lines)
	}
}

func TestInZone(t *testing.T) {
	lines := InitialFrontLines(5)

	cases := []struct {
		side  Side
		depth int
		want  bool
	}{
		{SidePlayer, 0, true},
		{SidePlayer, 1, true},
		{SidePlayer, 2, false},
		{SidePlayer, -1, false},
		{SideOpponent, 2, false},
		{SideOpponent, 3, true},
		{SideOpponent, 4, true},
		{SideOpponent, 5, false},
	}
	for _, tc := range cases {
		if got := InZone(tc.side, tc.depth, lines, 5); got != tc.want {
			t.Errorf("InZone(%s, %d) = %v, want %v", tc.side, tc.depth, got, tc.want)
		}
	}
}

func TestInZoneNeverPastEnemyLine(t *testing.T) {
	// Player pushed forward past the opponent's line: contested rows are closed to both.
	lines := FrontLines{Player: 4, Opponent: 2}
	if InZone(SidePlayer, 3, lines, 5) {
		t.Error("player must not place beyond the opponent front line")
	}
	if !InZone(SidePlayer, 2, lines, 5) {
		t.Error("player should place on the opponent front line row when behind its own")
	}
	if InZone(SideOpponent, 3, lines, 5) {
		t.Error("opponent must not place beyond the player front line")
	}
}

func TestClampFrontLine(t *testing.T) {
	if got := ClampFrontLine(SidePlayer, 0, 5); got != 1 {
		t.Errorf("player line clamped to %d, want 1", got)
	}
	if got := ClampFrontLine(SidePlayer, 9, 5); got != 4 {
		t.Errorf("player line clamped to %d, want 4", got)
	}
	if got := ClampFrontLine(SideOpponent, 4, 5); got != 3 {
		t.Errorf("opponent line clamped to %d, want 3", got)
	}
	if got := ClampFrontLine(SideOpponent, -2, 5); got != 0 {
		t.Errorf("opponent line clamped to %d, want 0", got)
	}
}

func TestOutflanked(t *testing.T) {
	units := []Unit{
		{ID: "p", Side: SidePlayer, Position: Position{Lane: 0, Depth: 5}, Alive: true},
		{ID: "o", Side: SideOpponent, Position: Position{Lane: 1, Depth: 1}, Alive: true},
		{ID: "dead", Side: SideOpponent, Position: Position{Lane: 2, Depth: 0}},
	}
	cases := []struct {
		side Side
		pos  Position
		want bool
	}{
		{SideOpponent, Position{Lane: 0, Depth: 4}, true},
		{SideOpponent, Position{Lane: 0, Depth: 6}, false},
		{SideOpponent, Position{Lane: 1, Depth: 4}, false},
		{SidePlayer, Position{Lane: 1, Depth: 2}, true},
		{SidePlayer, Position{Lane: 1, Depth: 0}, false},
		{SidePlayer, Position{Lane: 2, Depth: 1}, false},
	}
	for _, tc := range cases {
		if got := Outflanked(tc.side, tc.pos, units); got != tc.want {
			t.Errorf("Outflanked(%s, %s) = %v, want %v", tc.side, tc.pos, got, tc.want)
		}
	}
}
