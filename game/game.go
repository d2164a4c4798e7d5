// Package game wires the body system, dynamic actors, trajectory predictor,
// floating origin and terrain streamers into one simulation.
package game

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orrery/camera"
	"github.com/pthm-cable/orrery/components"
	"github.com/pthm-cable/orrery/config"
	"github.com/pthm-cable/orrery/heightfield"
	"github.com/pthm-cable/orrery/nbody"
	"github.com/pthm-cable/orrery/origin"
	"github.com/pthm-cable/orrery/predict"
	"github.com/pthm-cable/orrery/renderer"
	"github.com/pthm-cable/orrery/systems"
	"github.com/pthm-cable/orrery/telemetry"
	"github.com/pthm-cable/orrery/terrain"
	"github.com/pthm-cable/orrery/ui"
)

// Options configures a Game.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Logger         *slog.Logger   // nil uses slog.Default()
	LogStats       bool
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	Metrics        *telemetry.Metrics

	// Evaluators replaces the noise evaluator of the named bodies.
	Evaluators map[string]terrain.HeightFieldEvaluator
}

// Planet pairs a body with its terrain.
type Planet struct {
	Body     *nbody.Body
	Streamer *terrain.Streamer

	noise *heightfield.Noise
}

type actorMapper = ecs.Map4[components.Position, components.Velocity, components.Actor, components.Thrust]

// Game holds the complete simulation state.
type Game struct {
	cfg    *config.Config
	logger *slog.Logger

	bodies    *nbody.System
	world     *ecs.World
	actors    *actorMapper
	gravity   *systems.GravitySystem
	player    ecs.Entity
	probes    []ecs.Entity
	predictor *predict.Predictor
	origin    *origin.Controller
	planets   []*Planet
	camera    *camera.Camera
	viewer    *renderer.Viewer
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	perfWidth int32

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	metrics   *telemetry.Metrics
	lastStats telemetry.WindowStats
	lastPerf  telemetry.PerfStats

	// State
	tick           int64
	accumulator    float64
	droppedTime    float64
	paused         bool
	view           viewFlags
	stepsPerUpdate int
	logStats       bool
	lastResyncs    int
	lastBodySyncs  int
}

// NewGameWithOptions builds the body system and everything that depends on
// it from the configuration.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:            cfg,
		logger:         logger,
		stepsPerUpdate: steps,
		logStats:       opts.LogStats,
		metrics:        opts.Metrics,
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.TimeStep),
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
	}

	if err := g.setupBodies(); err != nil {
		return nil, err
	}
	g.setupActors()
	if err := g.setupPredictor(); err != nil {
		return nil, err
	}
	g.setupPlanets(opts.Evaluators)

	if !opts.Headless {
		g.camera = camera.New(
			float64(cfg.Screen.Width), float64(cfg.Screen.Height),
			cfg.Camera.Distance, cfg.Camera.MinDistance, cfg.Camera.MaxDistance, cfg.Camera.Pitch,
		)
		g.camera.Follow(g.PlayerPosition())
		g.viewer = renderer.NewViewer(int32(cfg.Screen.Width), int32(cfg.Screen.Height))
		g.hud = ui.NewHUD()
		g.perfWidth = 260
		g.perfPanel = ui.NewPerfPanel(int32(cfg.Screen.Width)-g.perfWidth-10, 10, g.perfWidth)
	}
	g.setupOrigin()

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		g.output.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	logger.Info("game created",
		"bodies", len(g.bodies.Bodies()),
		"planets", len(g.planets),
		"probes", len(g.probes),
		"start", cfg.Actor.Start,
		"origin_targets", g.origin.Targets(),
	)
	return g, nil
}

func (g *Game) setupBodies() error {
	cfg := g.cfg
	g.bodies = nbody.NewSystem(cfg.Physics.G, cfg.Physics.TimeStep, cfg.Physics.MinSeparation)
	for _, bc := range cfg.Bodies {
		typ, err := nbody.ParseBodyType(bc.Type)
		if err != nil {
			return fmt.Errorf("body %s: %w", bc.Name, err)
		}
		b := nbody.NewBody(bc.Name, typ, cfg.Physics.G, bc.Radius, bc.SurfaceGravity)
		b.Position = vec(bc.Position)
		b.Velocity = vec(bc.Velocity)
		b.RotationPerSecond = bc.RotationPerSecond
		b.PlayerGravityMultiplier = bc.PlayerMultiplier()
		g.bodies.Add(b)
	}
	return nil
}

func (g *Game) setupActors() {
	cfg := g.cfg
	g.world = ecs.NewWorld()
	g.actors = ecs.NewMap4[components.Position, components.Velocity, components.Actor, components.Thrust](g.world)
	g.gravity = systems.NewGravitySystem(g.world, g.bodies)

	pos := components.Position{P: vec(cfg.Actor.Position)}
	vel := components.Velocity{V: vec(cfg.Actor.Velocity)}
	ref := -1
	if cfg.Actor.Start == config.StartOnBody {
		ref = cfg.Derived.BodyIndex[cfg.Actor.StartBody]
		pos.P, vel.V = systems.PlaceAbove(g.bodies.Body(ref))
	} else if b, _ := g.bodies.NearestSurface(pos.P); b != nil {
		ref = b.ID
	}
	actor := components.Actor{Name: cfg.Actor.Name, Tracked: true, ReferenceBody: ref}
	thrust := components.Thrust{Max: cfg.Actor.MaxThrust}
	g.player = g.actors.NewEntity(&pos, &vel, &actor, &thrust)

	for _, pc := range cfg.Probes {
		g.probes = append(g.probes, g.actors.NewEntity(
			&components.Position{P: vec(pc.Position)},
			&components.Velocity{V: vec(pc.Velocity)},
			&components.Actor{Name: pc.Name, ReferenceBody: -1},
			&components.Thrust{},
		))
	}
}

func (g *Game) setupPredictor() error {
	if !g.cfg.Path.Enabled {
		return nil
	}
	p, err := predict.New(predict.Config{
		NumSteps:        g.cfg.Path.NumSteps,
		StepMultiplier:  g.cfg.Path.StepMultiplier,
		ResyncTolerance: g.cfg.Path.ResyncTolerance,
		ResyncInterval:  g.cfg.Path.ResyncInterval,
	}, g.bodies, g.actorState(), g.logger)
	if err != nil {
		return fmt.Errorf("creating predictor: %w", err)
	}
	g.predictor = p
	return nil
}

func (g *Game) setupPlanets(overrides map[string]terrain.HeightFieldEvaluator) {
	for i, bc := range g.cfg.Bodies {
		b := g.bodies.Body(i)
		if b.Type == nbody.Sun {
			continue
		}
		p := &Planet{Body: b}
		var eval terrain.HeightFieldEvaluator
		if ov, ok := overrides[b.Name]; ok {
			eval = ov
		} else {
			p.noise = heightfield.New()
			p.noise.Configure(bc.Shape, bc.Shading)
			eval = p.noise
		}
		p.Streamer = terrain.NewStreamer(b.Name, g.cfg.Terrain, b.Radius(), eval, g.logger)
		g.planets = append(g.planets, p)
	}
}

// setupOrigin registers every holder of world positions. Registration order
// is shift order.
func (g *Game) setupOrigin() {
	g.origin = origin.NewController(g.cfg.Origin.DistanceThreshold, g.logger)
	g.origin.Register("bodies", g.bodies)
	g.origin.Register("actors", systems.NewPositionShifter(g.world))
	if g.predictor != nil {
		g.origin.Register("path", g.predictor)
	}
	for _, p := range g.planets {
		g.origin.Register("terrain:"+p.Body.Name, p.Streamer)
	}
	if g.camera != nil {
		g.origin.Register("camera", g.camera)
	}
	g.origin.OnShift(func(ev origin.Event) {
		g.collector.RecordRebase(ev.Offset.Len())
		g.metrics.RecordRebase()
	})
}

// Tick returns the number of physics ticks run.
func (g *Game) Tick() int64 { return g.tick }

// Bodies returns the body system.
func (g *Game) Bodies() *nbody.System { return g.bodies }

// Origin returns the floating origin controller.
func (g *Game) Origin() *origin.Controller { return g.origin }

// Predictor returns the trajectory predictor, nil when disabled.
func (g *Game) Predictor() *predict.Predictor { return g.predictor }

// Planets returns every body with streamed terrain.
func (g *Game) Planets() []*Planet { return g.planets }

// Planet returns the planet with the given body name, or nil.
func (g *Game) Planet(name string) *Planet {
	for _, p := range g.planets {
		if p.Body.Name == name {
			return p
		}
	}
	return nil
}

// Camera returns the orbit camera, nil in headless mode.
func (g *Game) Camera() *camera.Camera { return g.camera }

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// PlayerPosition returns the tracked actor's position.
func (g *Game) PlayerPosition() mgl64.Vec3 {
	pos, _, _, _ := g.actors.Get(g.player)
	return pos.P
}

// PlayerVelocity returns the tracked actor's velocity.
func (g *Game) PlayerVelocity() mgl64.Vec3 {
	_, vel, _, _ := g.actors.Get(g.player)
	return vel.V
}

// Player returns the tracked actor's gravity state.
func (g *Game) Player() components.Actor {
	_, _, a, _ := g.actors.Get(g.player)
	return *a
}

// SetThrust sets the tracked actor's thrust input.
func (g *Game) SetThrust(input mgl64.Vec3) {
	_, _, _, t := g.actors.Get(g.player)
	t.Input = input
}

// ProbePositions returns the positions of the passive actors.
func (g *Game) ProbePositions() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(g.probes))
	for i, e := range g.probes {
		pos, _, _, _ := g.actors.Get(e)
		out[i] = pos.P
	}
	return out
}

// Path returns the predicted trajectory relative to the reference body, or
// nil when prediction is disabled.
func (g *Game) Path() []mgl64.Vec3 {
	if g.predictor == nil {
		return nil
	}
	return g.predictor.Path()
}

// Reconfigure replaces a planet's terrain parameters. Every patch of that
// planet is rebuilt on the next frame.
func (g *Game) Reconfigure(name string, shape heightfield.Shape, shading heightfield.Shading) error {
	p := g.Planet(name)
	if p == nil {
		return fmt.Errorf("no planet named %q", name)
	}
	if p.noise == nil {
		return fmt.Errorf("planet %s uses an external evaluator", name)
	}
	p.noise.Configure(shape, shading)
	return nil
}

// Close flushes output files and releases rendering resources.
func (g *Game) Close() error {
	if g.viewer != nil {
		g.viewer.Unload()
	}
	return g.output.Close()
}

func (g *Game) actorState() predict.ActorState {
	pos, vel, a, _ := g.actors.Get(g.player)
	return predict.ActorState{Position: pos.P, Velocity: vel.V, ReferenceBody: a.ReferenceBody}
}

func vec(a [3]float64) mgl64.Vec3 {
	return mgl64.Vec3{a[0], a[1], a[2]}
}
