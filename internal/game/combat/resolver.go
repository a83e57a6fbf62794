package combat

import (
	"sort"

	"github.com/lanewar/lanewar-go/internal/game/board"
	"github.com/lanewar/lanewar-go/internal/game/rules"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config tunes front-line pressure and movement.
type Config struct {
	// StrengthPerStep is the pressure differential worth one front-line step.
	StrengthPerStep int
	// MaxStep caps front-line movement per tick.
	MaxStep int
	// AdjacentLaneWeight is the percentage of a unit's strength that presses
	// on the lanes next to its own.
	AdjacentLaneWeight int
	// TerrainModifiers scales unit pressure by the terrain it stands on, in
	// percent. Terrains without an entry count at 100.
	TerrainModifiers map[board.Terrain]int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		StrengthPerStep:    5,
		MaxStep:            2,
		AdjacentLaneWeight: 50,
		TerrainModifiers: map[board.Terrain]int{
			board.TerrainLight: 100,
			board.TerrainDark:  100,
		},
	}
}

// Snapshot is the frozen board a tick is computed from.
type Snapshot struct {
	Lanes   int
	Depth   int
	Lines   rules.FrontLines
	Terrain [][]board.Terrain // [depth][lane]
	Units   []rules.Unit
}

// TakeSnapshot copies everything a tick needs from the grid.
func TakeSnapshot(grid *board.Grid) Snapshot {
	terrain := make([][]board.Terrain, grid.Depth())
	for d := range terrain {
		terrain[d] = make([]board.Terrain, grid.Lanes())
		for l := range terrain[d] {
			tile, _ := grid.TileAt(l, d)
			terrain[d][l] = tile.Terrain
		}
	}
	return Snapshot{
		Lanes:   grid.Lanes(),
		Depth:   grid.Depth(),
		Lines:   grid.FrontLines(),
		Terrain: terrain,
		Units:   grid.Units(),
	}
}

// LaneOutcome summarises one lane of a tick.
// StrengthBefore == Attrition + Damage + Retained always holds.
type LaneOutcome struct {
	Lane             int
	PlayerPressure   int
	OpponentPressure int
	StrengthBefore   int
	Attrition        int
	Damage           int
	Retained         int
	Engagements      int
}

// FrontLineMove records a front line that changed during a tick.
type FrontLineMove struct {
	Side rules.Side
	From int
	To   int
}

// Report is the full outcome of one tick.
type Report struct {
	Lanes       []LaneOutcome
	NetPressure int // player minus opponent over the whole board
	Moves       []FrontLineMove
	Lines       rules.FrontLines
	DamageTo    map[rules.Side]int
	Survivors   []rules.Unit
	Destroyed   []rules.Unit
	Scored      []rules.Unit
}

// Resolver advances units, settles engagements and shifts front lines once
// per turn boundary.
type Resolver struct {
	cfg    Config
	logger *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(cfg Config, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StrengthPerStep <= 0 {
		cfg.StrengthPerStep = 1
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = 1
	}
	return &Resolver{cfg: cfg, logger: logger}
}

// Resolve runs one tick against the grid and applies the result.
func (r *Resolver) Resolve(grid *board.Grid) Report {
	report := r.Plan(TakeSnapshot(grid))
	if err := Apply(grid, report); err != nil {
		r.logger.Error("failed to apply resolution", zap.Error(err))
	}

	r.logger.Info("resolution tick",
		zap.Int("net_pressure", report.NetPressure),
		zap.Int("player_line", report.Lines.Player),
		zap.Int("opponent_line", report.Lines.Opponent),
		zap.Int("damage_to_player", report.DamageTo[rules.SidePlayer]),
		zap.Int("damage_to_opponent", report.DamageTo[rules.SideOpponent]),
		zap.Int("destroyed", len(report.Destroyed)),
		zap.Int("scored", len(report.Scored)),
	)
	return report
}

// Plan computes a tick from a snapshot without touching any board. Every lane
// reads only the snapshot, so the result does not depend on lane order or on
// the order units are listed in.
func (r *Resolver) Plan(snap Snapshot) Report {
	report := Report{
		Lanes:    make([]LaneOutcome, snap.Lanes),
		DamageTo: map[rules.Side]int{rules.SidePlayer: 0, rules.SideOpponent: 0},
	}

	byLane := make([][]rules.Unit, snap.Lanes)
	for _, u := range snap.Units {
		if !u.Alive || u.Strength <= 0 || u.Position.Lane < 0 || u.Position.Lane >= snap.Lanes {
			continue
		}
		byLane[u.Position.Lane] = append(byLane[u.Position.Lane], u)
	}

	for lane := 0; lane < snap.Lanes; lane++ {
		outcome := &report.Lanes[lane]
		outcome.Lane = lane
		outcome.PlayerPressure = r.pressure(snap, byLane, lane, rules.SidePlayer)
		outcome.OpponentPressure = r.pressure(snap, byLane, lane, rules.SideOpponent)

		res := resolveLane(byLane[lane], snap.Depth)
		outcome.StrengthBefore = res.before
		outcome.Attrition = res.attrition
		outcome.Engagements = res.engagements
		for _, u := range res.scored {
			outcome.Damage += u.Strength
			report.DamageTo[u.Side.Opponent()] += u.Strength
		}
		for _, u := range res.survivors {
			outcome.Retained += u.Strength
		}
		report.Survivors = append(report.Survivors, res.survivors...)
		report.Destroyed = append(report.Destroyed, res.destroyed...)
		report.Scored = append(report.Scored, res.scored...)
	}

	report.NetPressure = r.netPressure(snap, byLane)
	report.Lines = snap.Lines
	if report.NetPressure != 0 {
		loser := rules.SidePlayer
		diff := -report.NetPressure
		if report.NetPressure > 0 {
			loser = rules.SideOpponent
			diff = report.NetPressure
		}
		step := diff / r.cfg.StrengthPerStep
		if step < 1 {
			step = 1
		}
		if step > r.cfg.MaxStep {
			step = r.cfg.MaxStep
		}

		from := snap.Lines.For(loser)
		// Retreating means moving back toward the side's own baseline.
		to := rules.ClampFrontLine(loser, from-loser.Forward()*step, snap.Depth)
		if to != from {
			report.Moves = append(report.Moves, FrontLineMove{Side: loser, From: from, To: to})
			if loser == rules.SidePlayer {
				report.Lines.Player = to
			} else {
				report.Lines.Opponent = to
			}
		}
	}
	return report
}

// Apply writes a planned tick onto the grid. Destroyed and scored units
// leave first; survivors then move front-most first so nobody steps onto a
// tile that is still being vacated.
func Apply(grid *board.Grid, report Report) error {
	for _, u := range report.Destroyed {
		grid.RemoveUnit(u.ID)
	}
	for _, u := range report.Scored {
		grid.RemoveUnit(u.ID)
	}

	survivors := append([]rules.Unit(nil), report.Survivors...)
	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i], survivors[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		// Further along the side's forward direction goes first.
		return a.Position.Depth*a.Side.Forward() > b.Position.Depth*b.Side.Forward()
	})

	var err error
	for _, u := range survivors {
		err = multierr.Append(err, grid.UpdateUnit(u.ID, u.Position, u.Strength))
	}
	for _, move := range report.Moves {
		grid.SetFrontLine(move.Side, move.To)
	}
	return err
}

// pressure is the presence of side in lane: its own units at full weight and
// units of the neighbouring lanes at AdjacentLaneWeight.
func (r *Resolver) pressure(snap Snapshot, byLane [][]rules.Unit, lane int, side rules.Side) int {
	total := 0
	for l := lane - 1; l <= lane+1; l++ {
		if l < 0 || l >= len(byLane) {
			continue
		}
		weight := 100
		if l != lane {
			weight = r.cfg.AdjacentLaneWeight
		}
		for _, u := range byLane[l] {
			if u.Side != side {
				continue
			}
			total += u.Strength * r.terrainModifier(snap, u.Position) * weight
		}
	}
	return total / 10000
}

// netPressure is the board-wide differential, player minus opponent. A unit's
// lane pressure shares are normalised to sum to its terrain-weighted strength,
// so an edge unit pushes exactly as hard as a centre unit. The shares are
// summed exactly and rounded once.
func (r *Resolver) netPressure(snap Snapshot, byLane [][]rules.Unit) int {
	scaled := 0
	for _, units := range byLane {
		for _, u := range units {
			v := u.Strength * r.terrainModifier(snap, u.Position)
			if u.Side == rules.SidePlayer {
				scaled += v
			} else {
				scaled -= v
			}
		}
	}
	return scaled / 100
}

func (r *Resolver) terrainModifier(snap Snapshot, pos rules.Position) int {
	if pos.Depth < 0 || pos.Depth >= len(snap.Terrain) || pos.Lane < 0 || pos.Lane >= len(snap.Terrain[pos.Depth]) {
		return 100
	}
	if mod, ok := r.cfg.TerrainModifiers[snap.Terrain[pos.Depth][pos.Lane]]; ok {
		return mod
	}
	return 100
}

type laneResult struct {
	before      int
	attrition   int
	engagements int
	survivors   []rules.Unit
	destroyed   []rules.Unit
	scored      []rules.Unit
}

// resolveLane moves, fights and scores the units of a single lane.
func resolveLane(units []rules.Unit, depth int) laneResult {
	var res laneResult
	if len(units) == 0 {
		return res
	}

	// Order by depth so neighbours are adjacent in the slice.
	cur := append([]rules.Unit(nil), units...)
	sort.Slice(cur, func(i, j int) bool {
		if cur[i].Position.Depth != cur[j].Position.Depth {
			return cur[i].Position.Depth < cur[j].Position.Depth
		}
		return cur[i].ID < cur[j].ID
	})
	for _, u := range cur {
		res.before += u.Strength
	}

	// An opponent unit directly below a player unit has already met it. The
	// pair fights where it stands and neither moves this tick.
	held := make([]bool, len(cur))
	for i := 0; i+1 < len(cur); i++ {
		o, p := &cur[i], &cur[i+1]
		if o.Side != rules.SideOpponent || p.Side != rules.SidePlayer || held[i] {
			continue
		}
		res.attrition += fight(p, o)
		res.engagements++
		held[i], held[i+1] = true, true
	}
	if res.engagements > 0 {
		standing := cur[:0]
		stillHeld := held[:0]
		for i, u := range cur {
			if u.Strength <= 0 {
				u.Alive = false
				res.destroyed = append(res.destroyed, u)
				continue
			}
			standing = append(standing, u)
			stillHeld = append(stillHeld, held[i])
		}
		cur, held = standing, stillHeld
	}

	// Movement. target[i] is the new depth of cur[i]. Player units are
	// processed top-down and opponent units bottom-up so a unit ahead of a
	// same-side unit always has its target computed first.
	target := make([]int, len(cur))
	for i := range cur {
		if held[i] {
			target[i] = cur[i].Position.Depth
		}
	}
	for i := len(cur) - 1; i >= 0; i-- {
		if cur[i].Side == rules.SidePlayer && !held[i] {
			target[i] = advance(cur, target, i, depth)
		}
	}
	for i := 0; i < len(cur); i++ {
		if cur[i].Side == rules.SideOpponent && !held[i] {
			target[i] = advance(cur, target, i, depth)
		}
	}
	for i := range cur {
		cur[i].Position.Depth = target[i]
	}

	// Engagement: a player unit directly facing an opponent unit with at most
	// one empty tile between them.
	for i := 0; i+1 < len(cur); i++ {
		p, o := &cur[i], &cur[i+1]
		if p.Side != rules.SidePlayer || o.Side != rules.SideOpponent || held[i] || held[i+1] {
			continue
		}
		if o.Position.Depth-p.Position.Depth-1 > 1 {
			continue
		}
		res.attrition += fight(p, o)
		res.engagements++
	}

	for _, u := range cur {
		switch {
		case u.Strength <= 0:
			u.Alive = false
			res.destroyed = append(res.destroyed, u)
		case u.Position.Depth == rules.Baseline(u.Side.Opponent(), depth):
			u.Alive = false
			res.scored = append(res.scored, u)
		default:
			res.survivors = append(res.survivors, u)
		}
	}
	return res
}

// fight trades strength between two facing units and returns the total lost.
func fight(a, b *rules.Unit) int {
	loss := min(a.Strength, b.Strength)
	a.Strength -= loss
	b.Strength -= loss
	return 2 * loss
}

// advance returns the depth cur[i] reaches this tick. Units stop behind a
// same-side unit ahead and close at most half the gap to an enemy ahead.
func advance(cur []rules.Unit, target []int, i, depth int) int {
	u := cur[i]
	dir := u.Side.Forward()
	from := u.Position.Depth
	limit := rules.Baseline(u.Side.Opponent(), depth)

	if j := i + dir; j >= 0 && j < len(cur) {
		ahead := cur[j]
		if ahead.Side == u.Side {
			limit = target[j] - dir
		} else {
			gap := abs(ahead.Position.Depth-from) - 1
			limit = from + dir*(gap/2)
		}
	}

	rate := u.AdvanceRate
	if rate < 0 {
		rate = 0
	}
	to := from + dir*rate
	if dir > 0 && to > limit {
		to = limit
	}
	if dir < 0 && to < limit {
		to = limit
	}
	// Never step backwards, even when the unit ahead is already adjacent.
	if (to-from)*dir < 0 {
		to = from
	}
	return to
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
