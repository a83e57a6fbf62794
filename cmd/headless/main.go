package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lanewar/lanewar-go/internal/config"
	"github.com/lanewar/lanewar-go/internal/game"
	"github.com/lanewar/lanewar-go/internal/game/ai"
	"github.com/lanewar/lanewar-go/internal/game/rules"
	"github.com/lanewar/lanewar-go/internal/game/watchers"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	showReplay = flag.Bool("replay", false, "log every recorded state once the match is over")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting headless match",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("match failed", zap.Error(err))
	}
	if *showReplay {
		logReplay(summary.Replay, logger)
	}

	fields := []zap.Field{
		zap.String("match_id", summary.MatchID),
		zap.Int("turns", summary.Turns),
		zap.Int("player_health", summary.PlayerHealth),
		zap.Int("opponent_health", summary.OpponentHealth),
		zap.Int("replay_states", summary.ReplayStates),
		zap.String("checksum", summary.Checksum),
	}
	if summary.Ended {
		fields = append(fields, zap.String("winner", summary.Winner.String()))
	} else {
		fields = append(fields, zap.Bool("turn_limit_reached", true))
	}
	logger.Info("headless match finished", fields...)

	for _, side := range rules.Sides() {
		stats := summary.Stats[side]
		logger.Info("side statistics",
			zap.String("side", side.String()),
			zap.Int("placed", stats.Placed),
			zap.Int("lost", stats.Lost),
			zap.Int("scored", stats.Scored),
			zap.Int("damage_taken", stats.DamageTaken),
			zap.Int("retreats", stats.Retreats),
		)
	}
}

// summary describes how a headless match finished.
type summary struct {
	MatchID        string
	Turns          int
	Ended          bool
	Winner         rules.Side
	PlayerHealth   int
	OpponentHealth int
	ReplayStates   int
	Checksum       string
	Stats          map[rules.Side]watchers.SideStats
	Replay         *game.Replay
}

// run plays a full match with the greedy policy on both sides. The player
// side is driven through the same public calls a human client would use.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (summary, error) {
	setup, err := cfg.MatchSetup()
	if err != nil {
		return summary{}, err
	}

	match, err := game.NewMatch(setup, ai.NewGreedy(), &logFeedback{logger: logger}, logger)
	if err != nil {
		return summary{}, err
	}

	autopilot := ai.NewGreedy()
	for !match.State().Ended {
		if err := ctx.Err(); err != nil {
			logger.Warn("match interrupted", zap.Error(err))
			break
		}
		if cfg.Match.MaxTurns > 0 && match.State().Turn.Number > cfg.Match.MaxTurns {
			logger.Info("turn limit reached", zap.Int("max_turns", cfg.Match.MaxTurns))
			break
		}
		if err := playTurn(match, autopilot, logger); err != nil {
			return summary{}, err
		}
	}

	state := match.State()
	checksum, err := match.Checksum()
	if err != nil {
		return summary{}, err
	}
	replay := match.Replay()
	return summary{
		MatchID:        state.MatchID,
		Turns:          state.Turn.Number,
		Ended:          state.Ended,
		Winner:         state.Winner,
		PlayerHealth:   state.Side(rules.SidePlayer).Health,
		OpponentHealth: state.Side(rules.SideOpponent).Health,
		ReplayStates:   replay.Size(),
		Checksum:       checksum,
		Stats:          match.Stats(),
		Replay:         replay,
	}, nil
}

// logReplay walks the recording from the first state and returns how many
// states it logged.
func logReplay(replay *game.Replay, logger *zap.Logger) int {
	replay.Start()
	n := 0
	for {
		state, ok := replay.Next()
		if !ok {
			return n
		}
		logger.Info("replay state",
			zap.Int("index", n),
			zap.Int("turn", state.Turn.Number),
			zap.String("active", state.Turn.Active.String()),
			zap.Int("player_line", state.Lines.Player),
			zap.Int("opponent_line", state.Lines.Opponent),
			zap.Int("player_health", state.Side(rules.SidePlayer).Health),
			zap.Int("opponent_health", state.Side(rules.SideOpponent).Health),
			zap.Int("units", len(state.Units)),
		)
		n++
	}
}

// playTurn places cards for the player until the policy ends the turn.
func playTurn(match *game.Match, policy ai.Policy, logger *zap.Logger) error {
	limit := len(match.Hand(rules.SidePlayer)) + 1
	for i := 0; i < limit; i++ {
		action := policy.ChooseAction(match.View(rules.SidePlayer))
		if action.Kind != ai.ActionPlayCard {
			break
		}
		if _, err := match.PlaceCard(action.CardID, action.Position); err != nil {
			logger.Warn("autopilot placement rejected", zap.Error(err))
			break
		}
	}
	if err := match.EndTurn(); err != nil && !game.IsGameOver(err) {
		return fmt.Errorf("failed to end turn: %w", err)
	}
	return nil
}

// logFeedback renders feedback cues as log lines.
type logFeedback struct {
	logger *zap.Logger
}

func (f *logFeedback) OnPlacementAccepted(unit rules.Unit) {
	f.logger.Debug("unit placed",
		zap.String("side", unit.Side.String()),
		zap.String("unit", unit.Name),
		zap.Stringer("position", unit.Position),
	)
}

func (f *logFeedback) OnPlacementRejected(side rules.Side, err error) {
	f.logger.Debug("placement rejected", zap.String("side", side.String()), zap.Error(err))
}

func (f *logFeedback) OnFrontLineMoved(side rules.Side, depth int) {
	f.logger.Info("front line moved", zap.String("side", side.String()), zap.Int("depth", depth))
}

func (f *logFeedback) OnTurnChanged(active rules.Side, turn int) {
	f.logger.Debug("turn changed", zap.String("side", active.String()), zap.Int("turn", turn))
}

func (f *logFeedback) OnMatchEnded(loser rules.Side) {
	f.logger.Info("side defeated", zap.String("loser", loser.String()))
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
