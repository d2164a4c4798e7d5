package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orrery/config"
	"github.com/pthm-cable/orrery/game"
	"github.com/pthm-cable/orrery/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	metricsListen := flag.String("metrics-listen", "", "Address for the Prometheus /metrics endpoint (empty = use config)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *telemetry.Metrics
	addr := cfg.Telemetry.MetricsListen
	if *metricsListen != "" {
		addr = *metricsListen
	}
	if addr != "" {
		metrics = telemetry.NewMetrics()
		go func() {
			if err := metrics.Serve(ctx, addr, logger); err != nil {
				logger.Error("metrics endpoint failed", "addr", addr, "error", err)
			}
		}()
	}

	opts := game.Options{
		Config:         cfg,
		Logger:         logger,
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		Metrics:        metrics,
	}

	var err error
	if *headless {
		err = runHeadless(ctx, opts, *maxTicks)
	} else {
		err = runWindowed(ctx, opts, *maxTicks)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("simulation stopped", "error", err)
		os.Exit(1)
	}
}

// runHeadless is a pure CPU simulation, no raylib window needed.
func runHeadless(ctx context.Context, opts game.Options, maxTicks int) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Close()

	opts.Logger.Info("starting headless simulation",
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.UpdateHeadless(); err != nil {
			return err
		}
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			opts.Logger.Info("max ticks reached", "tick", g.Tick(), "rebases", g.Origin().Events())
			return nil
		}
	}
}

func runWindowed(ctx context.Context, opts game.Options, maxTicks int) error {
	cfg := opts.Config
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Orrery")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Close()

	for !rl.WindowShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.Update(); err != nil {
			return err
		}
		g.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
	return nil
}
