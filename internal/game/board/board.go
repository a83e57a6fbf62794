package board

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lanewar/lanewar-go/internal/game/rules"
)

// Tile is a single board cell with its terrain and absolute scene position.
type Tile struct {
	Lane    int
	Depth   int
	Terrain Terrain
	X       float64
	Z       float64
}

// Geometry is the read-only board surface consumed by the engine.
type Geometry interface {
	TileAt(lane, depth int) (Tile, bool)
	FrontLinePosition(side rules.Side) int
	IsWithinBounds(pos rules.Position) bool
	Lanes() int
	Depth() int
}

// Grid is the owned board state: tiles, the two front lines and the living
// units indexed by position. At most one unit occupies a tile.
type Grid struct {
	mu        sync.RWMutex
	layout    string
	lanes     int
	depth     int
	tiles     [][]Tile // [depth][lane]
	lines     rules.FrontLines
	units     map[string]*rules.Unit
	occupancy map[rules.Position]string
}

// NewGrid builds a grid from a layout. tileSize scales absolute positions,
// which are centred on the board middle.
func NewGrid(layout Layout, tileSize float64) (*Grid, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if tileSize <= 0 {
		tileSize = 1
	}

	depth := len(layout.Rows)
	lanes := len(layout.Rows[0])
	tiles := make([][]Tile, depth)
	for d, row := range layout.Rows {
		tiles[d] = make([]Tile, lanes)
		for l, r := range row {
			tiles[d][l] = Tile{
				Lane:    l,
				Depth:   d,
				Terrain: Terrain(string(r)),
				X:       (float64(l) - float64(lanes-1)/2) * tileSize,
				Z:       (float64(d) - float64(depth-1)/2) * tileSize,
			}
		}
	}

	return &Grid{
		layout:    layout.Name,
		lanes:     lanes,
		depth:     depth,
		tiles:     tiles,
		lines:     rules.InitialFrontLines(depth),
		units:     make(map[string]*rules.Unit),
		occupancy: make(map[rules.Position]string),
	}, nil
}

// LayoutName returns the name of the layout the grid was built from.
func (g *Grid) LayoutName() string {
	return g.layout
}

func (g *Grid) Lanes() int { return g.lanes }

func (g *Grid) Depth() int { return g.depth }

// TileAt returns the tile at lane/depth, or false when out of bounds.
func (g *Grid) TileAt(lane, depth int) (Tile, bool) {
	if !g.IsWithinBounds(rules.Position{Lane: lane, Depth: depth}) {
		return Tile{}, false
	}
	return g.tiles[depth][lane], true
}

// IsWithinBounds reports whether pos addresses a tile of the grid.
func (g *Grid) IsWithinBounds(pos rules.Position) bool {
	return pos.Lane >= 0 && pos.Lane < g.lanes && pos.Depth >= 0 && pos.Depth < g.depth
}

// FrontLinePosition returns side's current front-line depth.
func (g *Grid) FrontLinePosition(side rules.Side) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lines.For(side)
}

// FrontLines returns both front lines.
func (g *Grid) FrontLines() rules.FrontLines {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lines
}

// SetFrontLine moves side's front line, clamped to its legal range, and
// returns the depth actually applied.
func (g *Grid) SetFrontLine(side rules.Side, depth int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	depth = rules.ClampFrontLine(side, depth, g.depth)
	if side == rules.SidePlayer {
		g.lines.Player = depth
	} else {
		g.lines.Opponent = depth
	}
	return depth
}

// IsOccupied reports whether a living unit of either side stands on pos.
func (g *Grid) IsOccupied(pos rules.Position) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.occupancy[pos]
	return ok
}

// AddUnit registers a living unit on its position.
func (g *Grid) AddUnit(unit rules.Unit) error {
	if !g.IsWithinBounds(unit.Position) {
		return fmt.Errorf("unit %s at %s: %w", unit.ID, unit.Position, rules.ErrOutOfZone)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.units[unit.ID]; exists {
		return fmt.Errorf("unit %s already on the board", unit.ID)
	}
	if _, taken := g.occupancy[unit.Position]; taken {
		return fmt.Errorf("unit %s at %s: %w", unit.ID, unit.Position, rules.ErrTileOccupied)
	}
	unit.Alive = true
	g.units[unit.ID] = &unit
	g.occupancy[unit.Position] = unit.ID
	return nil
}

// RemoveUnit takes a unit off the board. Unknown ids are ignored.
func (g *Grid) RemoveUnit(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	unit, ok := g.units[id]
	if !ok {
		return
	}
	if g.occupancy[unit.Position] == id {
		delete(g.occupancy, unit.Position)
	}
	delete(g.units, id)
}

// UpdateUnit moves a unit and sets its strength.
func (g *Grid) UpdateUnit(id string, pos rules.Position, strength int) error {
	if !g.IsWithinBounds(pos) {
		return fmt.Errorf("unit %s to %s: %w", id, pos, rules.ErrOutOfZone)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	unit, ok := g.units[id]
	if !ok {
		return fmt.Errorf("unit %s not on the board", id)
	}
	if other, taken := g.occupancy[pos]; taken && other != id {
		return fmt.Errorf("unit %s to %s: %w", id, pos, rules.ErrTileOccupied)
	}
	if g.occupancy[unit.Position] == id {
		delete(g.occupancy, unit.Position)
	}
	unit.Position = pos
	unit.Strength = strength
	g.occupancy[pos] = id
	return nil
}

// Unit returns a copy of the unit with the given id.
func (g *Grid) Unit(id string) (rules.Unit, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	unit, ok := g.units[id]
	if !ok {
		return rules.Unit{}, false
	}
	return *unit, true
}

// Units returns a copy of every living unit ordered by side, lane, depth and id.
func (g *Grid) Units() []rules.Unit {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]rules.Unit, 0, len(g.units))
	for _, unit := range g.units {
		out = append(out, *unit)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		if a.Position.Lane != b.Position.Lane {
			return a.Position.Lane < b.Position.Lane
		}
		if a.Position.Depth != b.Position.Depth {
			return a.Position.Depth < b.Position.Depth
		}
		return a.ID < b.ID
	})
	return out
}

// UnitsOf returns the living units of one side.
func (g *Grid) UnitsOf(side rules.Side) []rules.Unit {
	all := g.Units()
	out := all[:0]
	for _, unit := range all {
		if unit.Side == side {
			out = append(out, unit)
		}
	}
	return out
}
