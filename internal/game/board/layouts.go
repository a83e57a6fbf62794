package board

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed layouts.yaml
var defaultLayoutsYAML []byte

// Terrain is the ground type of a tile.
type Terrain string

const (
	TerrainLight Terrain = "L"
	TerrainDark  Terrain = "D"
)

// Layout is a named terrain grid. Rows are indexed by depth, letters by lane.
type Layout struct {
	Name       string   `yaml:"-"`
	LightColor string   `yaml:"light_color"`
	DarkColor  string   `yaml:"dark_color"`
	Rows       []string `yaml:"rows"`
}

type layoutFile struct {
	Layouts map[string]Layout `yaml:"layouts"`
}

// Validate checks the grid is rectangular, deep enough for two halves and
// uses known terrain letters only.
func (l Layout) Validate() error {
	if len(l.Rows) < 3 {
		return fmt.Errorf("layout %q: need at least 3 rows, got %d", l.Name, len(l.Rows))
	}
	width := len(l.Rows[0])
	if width == 0 {
		return fmt.Errorf("layout %q: empty row", l.Name)
	}
	for depth, row := range l.Rows {
		if len(row) != width {
			return fmt.Errorf("layout %q: row %d has %d lanes, expected %d", l.Name, depth, len(row), width)
		}
		for lane, r := range row {
			switch Terrain(string(r)) {
			case TerrainLight, TerrainDark:
			default:
				return fmt.Errorf("layout %q: unknown terrain %q at (%d,%d)", l.Name, r, lane, depth)
			}
		}
	}
	return nil
}

// ParseLayouts decodes a YAML layouts document.
func ParseLayouts(data []byte) (map[string]Layout, error) {
	var file layoutFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode layouts: %w", err)
	}
	out := make(map[string]Layout, len(file.Layouts))
	for name, layout := range file.Layouts {
		layout.Name = name
		if err := layout.Validate(); err != nil {
			return nil, err
		}
		out[name] = layout
	}
	return out, nil
}

// DefaultLayouts returns the built-in layouts.
func DefaultLayouts() map[string]Layout {
	layouts, err := ParseLayouts(defaultLayoutsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded layouts are invalid: %v", err))
	}
	return layouts
}

// LoadLayouts returns the built-in layouts merged with those found in path.
// Layouts from the file override built-ins of the same name. An empty path
// returns the built-ins only.
func LoadLayouts(path string) (map[string]Layout, error) {
	layouts := DefaultLayouts()
	if path == "" {
		return layouts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layouts file: %w", err)
	}
	extra, err := ParseLayouts(data)
	if err != nil {
		return nil, err
	}
	for name, layout := range extra {
		layouts[name] = layout
	}
	return layouts, nil
}

// LayoutNames returns the layout names in sorted order.
func LayoutNames(layouts map[string]Layout) []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
