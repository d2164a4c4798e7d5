// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/orrery/heightfield"
	"github.com/pthm-cable/orrery/terrain"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig     `yaml:"screen"`
	Physics   PhysicsConfig    `yaml:"physics"`
	Origin    OriginConfig     `yaml:"origin"`
	Path      PathConfig       `yaml:"path"`
	Terrain   terrain.Settings `yaml:"terrain"`
	Bodies    []BodyConfig     `yaml:"bodies"`
	Actor     ActorConfig      `yaml:"actor"`
	Probes    []ProbeConfig    `yaml:"probes"`
	Camera    CameraConfig     `yaml:"camera"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds integrator parameters.
type PhysicsConfig struct {
	G             float64 `yaml:"gravitational_constant"`
	TimeStep      float64 `yaml:"time_step"`
	MinSeparation float64 `yaml:"min_separation"`
	MaxSubSteps   int     `yaml:"max_sub_steps"` // fixed ticks allowed per frame before dropping time
}

// OriginConfig holds floating origin parameters.
type OriginConfig struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

// PathConfig holds trajectory prediction parameters.
type PathConfig struct {
	Enabled         bool    `yaml:"enabled"`
	NumSteps        int     `yaml:"num_steps"`
	StepMultiplier  int     `yaml:"step_multiplier"`
	ResyncTolerance float64 `yaml:"resync_tolerance"`
	ResyncInterval  int     `yaml:"resync_interval"`
}

// BodyConfig describes one celestial body.
type BodyConfig struct {
	Name                    string              `yaml:"name"`
	Type                    string              `yaml:"type"` // planet, moon or sun
	Radius                  float64             `yaml:"radius"`
	SurfaceGravity          float64             `yaml:"surface_gravity"`
	Position                [3]float64          `yaml:"position"`
	Velocity                [3]float64          `yaml:"velocity"`
	RotationPerSecond       float64             `yaml:"rotation_per_second"`
	PlayerGravityMultiplier *float64            `yaml:"player_gravity_multiplier,omitempty"` // nil means 1
	Shape                   heightfield.Shape   `yaml:"shape"`
	Shading                 heightfield.Shading `yaml:"shading"`
}

// PlayerMultiplier returns the body's pull factor on the tracked actor.
// An unset multiplier is 1; an explicit 0 switches the pull off.
func (b BodyConfig) PlayerMultiplier() float64 {
	if b.PlayerGravityMultiplier == nil {
		return 1
	}
	return *b.PlayerGravityMultiplier
}

// Start conditions for the tracked actor.
const (
	StartInShip = "in_ship"
	StartOnBody = "on_body"
)

// ActorConfig describes the tracked actor.
type ActorConfig struct {
	Name      string     `yaml:"name"`
	Start     string     `yaml:"start"`      // in_ship or on_body
	StartBody string     `yaml:"start_body"` // body name for on_body
	Position  [3]float64 `yaml:"position"`
	Velocity  [3]float64 `yaml:"velocity"`
	MaxThrust float64    `yaml:"max_thrust"`
}

// ProbeConfig describes a passive dynamic actor.
type ProbeConfig struct {
	Name     string     `yaml:"name"`
	Position [3]float64 `yaml:"position"`
	Velocity [3]float64 `yaml:"velocity"`
}

// CameraConfig holds orbit camera parameters.
type CameraConfig struct {
	Distance    float64 `yaml:"distance"`
	MinDistance float64 `yaml:"min_distance"`
	MaxDistance float64 `yaml:"max_distance"`
	Pitch       float64 `yaml:"pitch"` // degrees
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow   float64 `yaml:"stats_window"`   // seconds of simulated time per window
	PerfWindow    int     `yaml:"perf_window"`    // updates averaged by the perf collector
	MetricsListen string  `yaml:"metrics_listen"` // empty disables the /metrics endpoint
	BodySnapshots bool    `yaml:"body_snapshots"` // write bodies.csv each window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BodyIndex      map[string]int
	TicksPerWindow int32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path (or defaults if empty).
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit loads configuration and panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config not initialized: call config.Init() first")
	}
	return global
}

// Load reads configuration from a YAML file, using embedded defaults as base.
// If path is empty, returns defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only fields present in the file are overwritten. Lists such as
		// bodies replace the default list entirely.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived fills defaults and validates cross-field constraints.
func (c *Config) computeDerived() error {
	if c.Physics.G <= 0 {
		return fmt.Errorf("physics.gravitational_constant must be positive, got %v", c.Physics.G)
	}
	if c.Physics.TimeStep <= 0 {
		return fmt.Errorf("physics.time_step must be positive, got %v", c.Physics.TimeStep)
	}
	if c.Physics.MaxSubSteps < 1 {
		c.Physics.MaxSubSteps = 1
	}
	if c.Path.StepMultiplier < 1 {
		c.Path.StepMultiplier = 1
	}
	if c.Path.NumSteps < 2 {
		c.Path.NumSteps = 2
	}

	c.Derived.BodyIndex = make(map[string]int, len(c.Bodies))
	for i := range c.Bodies {
		b := &c.Bodies[i]
		if b.Name == "" {
			return fmt.Errorf("bodies[%d]: name is required", i)
		}
		if _, dup := c.Derived.BodyIndex[b.Name]; dup {
			return fmt.Errorf("bodies[%d]: duplicate name %q", i, b.Name)
		}
		if b.Radius <= 0 {
			return fmt.Errorf("body %s: radius must be positive", b.Name)
		}
		if m := b.PlayerMultiplier(); m < 0 {
			return fmt.Errorf("body %s: player_gravity_multiplier must not be negative, got %v", b.Name, m)
		}
		c.Derived.BodyIndex[b.Name] = i
	}

	switch c.Actor.Start {
	case "", StartInShip:
		c.Actor.Start = StartInShip
	case StartOnBody:
		if _, ok := c.Derived.BodyIndex[c.Actor.StartBody]; !ok {
			return fmt.Errorf("actor.start_body %q is not a configured body", c.Actor.StartBody)
		}
	default:
		return fmt.Errorf("actor.start %q: want %s or %s", c.Actor.Start, StartInShip, StartOnBody)
	}

	ticks := int32(c.Telemetry.StatsWindow / c.Physics.TimeStep)
	if ticks < 1 {
		ticks = 1
	}
	c.Derived.TicksPerWindow = ticks
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
