package rules

// FrontLines holds the current front-line depth of each side.
type FrontLines struct {
	Player   int
	Opponent int
}

// For returns the front line of side.
func (f FrontLines) For(side Side) int {
	if side == SidePlayer {
		return f.Player
	}
	return f.Opponent
}

// InitialFrontLines splits a board of the given depth into two halves with a
// neutral middle row when the depth is odd.
func InitialFrontLines(depth int) FrontLines {
	half := depth / 2
	return FrontLines{Player: half, Opponent: depth - 1 - half}
}

// ClampFrontLine keeps a front line inside the range where its side still owns
// its baseline row and never reaches beyond the enemy baseline.
func ClampFrontLine(side Side, line, depth int) int {
	lo, hi := 1, depth-1
	if side == SideOpponent {
		lo, hi = 0, depth-2
	}
	if line < lo {
		return lo
	}
	if line > hi {
		return hi
	}
	return line
}

// InZone reports whether side may place a new unit at the given depth.
// A side places strictly behind its own front line and never beyond the
// enemy's front line.
func InZone(side Side, d int, lines FrontLines, depth int) bool {
	if d < 0 || d >= depth {
		return false
	}
	if side == SidePlayer {
		return d < lines.Player && d <= lines.Opponent
	}
	return d > lines.Opponent && d >= lines.Player
}

// Outflanked reports whether a living enemy unit stands between pos and
// side's own baseline in the same lane. A unit placed there would start past
// an enemy it has never met.
func Outflanked(side Side, pos Position, units []Unit) bool {
	for _, u := range units {
		if !u.Alive || u.Side == side || u.Position.Lane != pos.Lane {
			continue
		}
		if (u.Position.Depth-pos.Depth)*side.Forward() < 0 {
			return true
		}
	}
	return false
}

// Baseline returns the depth of side's own baseline row.
func Baseline(side Side, depth int) int {
	if side == SidePlayer {
		return 0
	}
	return depth - 1
}
