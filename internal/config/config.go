package config

import (
	"fmt"
	"strings"

	"github.com/lanewar/lanewar-go/internal/game"
	"github.com/lanewar/lanewar-go/internal/game/board"
	"github.com/lanewar/lanewar-go/internal/game/combat"
	"github.com/lanewar/lanewar-go/internal/game/roster"
	"github.com/lanewar/lanewar-go/internal/game/rules"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix prefixes environment overrides, e.g. LANEWAR_MATCH_SEED.
const EnvPrefix = "LANEWAR"

// Config is the root configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Match   MatchConfig   `mapstructure:"match"`
	Board   BoardConfig   `mapstructure:"board"`
	Combat  CombatConfig  `mapstructure:"combat"`
	Sides   SidesConfig   `mapstructure:"sides"`
	Deck    []CardConfig  `mapstructure:"deck"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// MatchConfig holds match-wide settings.
type MatchConfig struct {
	Seed        uint64 `mapstructure:"seed"`
	FirstSide   string `mapstructure:"first_side"`
	MaxTurns    int    `mapstructure:"max_turns"`
	ReplayLimit  int    `mapstructure:"replay_limit"`
	RecordReplay bool   `mapstructure:"record_replay"`
}

// BoardConfig picks the layout. LayoutFile adds layouts on top of the
// built-in ones.
type BoardConfig struct {
	Layout     string  `mapstructure:"layout"`
	LayoutFile string  `mapstructure:"layout_file"`
	TileSize   float64 `mapstructure:"tile_size"`
}

// CombatConfig tunes the resolver. Terrain modifiers are percentages keyed
// by terrain letter.
type CombatConfig struct {
	StrengthPerStep    int            `mapstructure:"strength_per_step"`
	MaxStep            int            `mapstructure:"max_step"`
	AdjacentLaneWeight int            `mapstructure:"adjacent_lane_weight"`
	TerrainModifiers   map[string]int `mapstructure:"terrain_modifiers"`
}

// SidesConfig holds the resource rules of both sides.
type SidesConfig struct {
	Player   SideConfig `mapstructure:"player"`
	Opponent SideConfig `mapstructure:"opponent"`
}

// SideConfig holds one side's resource rules.
type SideConfig struct {
	Name           string `mapstructure:"name"`
	StartingHealth int    `mapstructure:"starting_health"`
	StartingMana   int    `mapstructure:"starting_mana"`
	ManaPerTurn    int    `mapstructure:"mana_per_turn"`
	ManaCap        int    `mapstructure:"mana_cap"`
	RefillMode     string `mapstructure:"refill_mode"`
	MaxHand        int    `mapstructure:"max_hand"`
	InitialHand    int    `mapstructure:"initial_hand"`
}

// CardConfig is one deck entry.
type CardConfig struct {
	Name        string `mapstructure:"name"`
	Cost        int    `mapstructure:"cost"`
	Strength    int    `mapstructure:"strength"`
	AdvanceRate int    `mapstructure:"advance_rate"`
	Copies      int    `mapstructure:"copies"`
}

// Load reads the YAML file at path, applies LANEWAR_ environment overrides
// and validates the result. An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("match.seed", 1)
	v.SetDefault("match.first_side", "player")
	v.SetDefault("match.max_turns", 60)
	v.SetDefault("match.replay_limit", 0)
	v.SetDefault("match.record_replay", true)

	v.SetDefault("board.layout", "S")
	v.SetDefault("board.layout_file", "")
	v.SetDefault("board.tile_size", 1.0)

	defaults := combat.DefaultConfig()
	v.SetDefault("combat.strength_per_step", defaults.StrengthPerStep)
	v.SetDefault("combat.max_step", defaults.MaxStep)
	v.SetDefault("combat.adjacent_lane_weight", defaults.AdjacentLaneWeight)
	v.SetDefault("combat.terrain_modifiers", map[string]int{
		string(board.TerrainLight): defaults.TerrainModifiers[board.TerrainLight],
		string(board.TerrainDark):  defaults.TerrainModifiers[board.TerrainDark],
	})

	for side, name := range map[string]string{"player": "YOU", "opponent": "ENEMY"} {
		prefix := "sides." + side + "."
		v.SetDefault(prefix+"name", name)
		v.SetDefault(prefix+"starting_health", 10)
		v.SetDefault(prefix+"starting_mana", 0)
		v.SetDefault(prefix+"mana_per_turn", 2)
		v.SetDefault(prefix+"mana_cap", 10)
		v.SetDefault(prefix+"refill_mode", string(roster.RefillIncrement))
		v.SetDefault(prefix+"max_hand", 6)
		v.SetDefault(prefix+"initial_hand", 4)
	}

	v.SetDefault("deck", []map[string]interface{}{
		{"name": "Soldier", "cost": 1, "strength": 2, "advance_rate": 1, "copies": 8},
		{"name": "Pikeman", "cost": 2, "strength": 4, "advance_rate": 1, "copies": 6},
		{"name": "Scout", "cost": 2, "strength": 2, "advance_rate": 2, "copies": 4},
		{"name": "Knight", "cost": 3, "strength": 6, "advance_rate": 2, "copies": 4},
	})
}

// Validate reports every nonsensical setting at once.
func (c *Config) Validate() error {
	var err error

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		err = multierr.Append(err, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}

	if _, perr := ParseSide(c.Match.FirstSide); perr != nil {
		err = multierr.Append(err, fmt.Errorf("match.first_side: %w", perr))
	}
	if c.Match.MaxTurns < 0 {
		err = multierr.Append(err, fmt.Errorf("match.max_turns must not be negative"))
	}
	if c.Match.ReplayLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("match.replay_limit must not be negative"))
	}

	if c.Board.Layout == "" {
		err = multierr.Append(err, fmt.Errorf("board.layout is required"))
	}
	if c.Board.TileSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("board.tile_size must be positive"))
	}

	if c.Combat.StrengthPerStep <= 0 {
		err = multierr.Append(err, fmt.Errorf("combat.strength_per_step must be positive"))
	}
	if c.Combat.MaxStep <= 0 {
		err = multierr.Append(err, fmt.Errorf("combat.max_step must be positive"))
	}
	if c.Combat.AdjacentLaneWeight < 0 || c.Combat.AdjacentLaneWeight > 100 {
		err = multierr.Append(err, fmt.Errorf("combat.adjacent_lane_weight must be within 0..100"))
	}
	for terrain, mod := range c.Combat.TerrainModifiers {
		t := board.Terrain(strings.ToUpper(terrain))
		if t != board.TerrainLight && t != board.TerrainDark {
			err = multierr.Append(err, fmt.Errorf("combat.terrain_modifiers: unknown terrain %q", terrain))
		}
		if mod < 0 {
			err = multierr.Append(err, fmt.Errorf("combat.terrain_modifiers.%s must not be negative", terrain))
		}
	}

	err = multierr.Append(err, c.Sides.Player.validate("sides.player"))
	err = multierr.Append(err, c.Sides.Opponent.validate("sides.opponent"))

	if len(c.Deck) == 0 {
		err = multierr.Append(err, fmt.Errorf("deck must contain at least one card"))
	}
	seen := make(map[string]bool, len(c.Deck))
	for i, card := range c.Deck {
		if card.Name == "" {
			err = multierr.Append(err, fmt.Errorf("deck[%d].name is required", i))
		} else if seen[card.Name] {
			err = multierr.Append(err, fmt.Errorf("deck[%d]: duplicate card %q", i, card.Name))
		}
		seen[card.Name] = true
		if card.Cost < 0 || card.Strength <= 0 || card.AdvanceRate < 0 || card.Copies <= 0 {
			err = multierr.Append(err, fmt.Errorf("deck[%d] %q: cost and advance rate must be >= 0, strength and copies > 0", i, card.Name))
		}
	}
	return err
}

func (s SideConfig) validate(key string) error {
	var err error
	if s.StartingHealth <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.starting_health must be positive", key))
	}
	if s.StartingMana < 0 || s.ManaPerTurn < 0 || s.ManaCap < 0 {
		err = multierr.Append(err, fmt.Errorf("%s: mana settings must not be negative", key))
	}
	if s.ManaCap > 0 && s.StartingMana > s.ManaCap {
		err = multierr.Append(err, fmt.Errorf("%s.starting_mana %d exceeds mana_cap %d", key, s.StartingMana, s.ManaCap))
	}
	switch roster.RefillMode(s.RefillMode) {
	case roster.RefillIncrement, roster.RefillReset:
	default:
		err = multierr.Append(err, fmt.Errorf("%s.refill_mode %q must be increment or reset", key, s.RefillMode))
	}
	if s.MaxHand <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.max_hand must be positive", key))
	}
	if s.InitialHand < 0 || s.InitialHand > s.MaxHand {
		err = multierr.Append(err, fmt.Errorf("%s.initial_hand must be within 0..max_hand", key))
	}
	return err
}

// ParseSide accepts "player" or "opponent" in any case.
func ParseSide(name string) (rules.Side, error) {
	switch strings.ToLower(name) {
	case "player":
		return rules.SidePlayer, nil
	case "opponent":
		return rules.SideOpponent, nil
	}
	return 0, fmt.Errorf("unknown side %q", name)
}

// Roster converts the side settings.
func (s SideConfig) Roster() roster.Config {
	return roster.Config{
		Name:           s.Name,
		StartingHealth: s.StartingHealth,
		StartingMana:   s.StartingMana,
		ManaPerTurn:    s.ManaPerTurn,
		ManaCap:        s.ManaCap,
		RefillMode:     roster.RefillMode(s.RefillMode),
		MaxHand:        s.MaxHand,
		InitialHand:    s.InitialHand,
	}
}

// Resolver converts the combat settings.
func (c CombatConfig) Resolver() combat.Config {
	cfg := combat.Config{
		StrengthPerStep:    c.StrengthPerStep,
		MaxStep:            c.MaxStep,
		AdjacentLaneWeight: c.AdjacentLaneWeight,
		TerrainModifiers:   make(map[board.Terrain]int, len(c.TerrainModifiers)),
	}
	for terrain, mod := range c.TerrainModifiers {
		cfg.TerrainModifiers[board.Terrain(strings.ToUpper(terrain))] = mod
	}
	return cfg
}

// DeckEntries converts the deck list.
func (c *Config) DeckEntries() []roster.DeckEntry {
	entries := make([]roster.DeckEntry, 0, len(c.Deck))
	for _, card := range c.Deck {
		entries = append(entries, roster.DeckEntry{
			Cost:      card.Cost,
			Archetype: rules.Archetype{Name: card.Name, Strength: card.Strength, AdvanceRate: card.AdvanceRate},
			Copies:    card.Copies,
		})
	}
	return entries
}

// Layout resolves the configured layout, loading LayoutFile when set.
func (c *Config) Layout() (board.Layout, error) {
	layouts := board.DefaultLayouts()
	if c.Board.LayoutFile != "" {
		loaded, err := board.LoadLayouts(c.Board.LayoutFile)
		if err != nil {
			return board.Layout{}, err
		}
		layouts = loaded
	}
	layout, ok := layouts[c.Board.Layout]
	if !ok {
		return board.Layout{}, fmt.Errorf("unknown layout %q (have %s)",
			c.Board.Layout, strings.Join(board.LayoutNames(layouts), ", "))
	}
	return layout, nil
}

// MatchSetup builds the settings for a new match.
func (c *Config) MatchSetup() (game.MatchConfig, error) {
	first, err := ParseSide(c.Match.FirstSide)
	if err != nil {
		return game.MatchConfig{}, err
	}
	layout, err := c.Layout()
	if err != nil {
		return game.MatchConfig{}, err
	}
	return game.MatchConfig{
		Seed:      c.Match.Seed,
		FirstSide: first,
		Layout:    layout,
		TileSize:  c.Board.TileSize,
		Combat:    c.Combat.Resolver(),
		Rosters: map[rules.Side]roster.Config{
			rules.SidePlayer:   c.Sides.Player.Roster(),
			rules.SideOpponent: c.Sides.Opponent.Roster(),
		},
		Deck:          c.DeckEntries(),
		ReplayLimit:   c.Match.ReplayLimit,
		DisableReplay: !c.Match.RecordReplay,
	}, nil
}
