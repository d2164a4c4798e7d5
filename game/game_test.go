package game

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/config"
	"github.com/pthm-cable/orrery/heightfield"
	"github.com/pthm-cable/orrery/terrain"
)

const planetConfig = `
physics:
  gravitational_constant: 0.0001
  time_step: 0.25
  max_sub_steps: 4
path:
  enabled: true
  num_steps: 16
  resync_interval: 50
terrain:
  patch_resolution: 8
  max_subdivision: 2
telemetry:
  stats_window: 1
  perf_window: 4
  body_snapshots: true
bodies:
  - name: sun
    type: sun
    radius: 50
    surface_gravity: 5
    position: [0, 0, 0]
  - name: terra
    type: planet
    radius: 120
    surface_gravity: 10
    position: [6000, 0, 0]
    velocity: [0, 0, 12]
    rotation_per_second: 1.5
    shape:
      seed: 1
      octaves: 3
      strength: 0.04
    shading:
      seed: 11
actor:
  start: on_body
  start_body: terra
probes: []
`

// soloConfig places an actor just past the rebase threshold of a lone sun.
const soloConfig = `
physics:
  gravitational_constant: 0.0001
  time_step: 0.25
  max_sub_steps: 4
origin:
  distance_threshold: 1000
path:
  enabled: true
  num_steps: 8
bodies:
  - name: sun
    type: sun
    radius: 10
    surface_gravity: 1
    position: [0, 0, 0]
actor:
  start: in_ship
  position: [1001, 0, 0]
  velocity: [0, 0, 0]
probes: []
`

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	opts.Config = cfg
	opts.Headless = true
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestNewGameOnBodyStart(t *testing.T) {
	g := newTestGame(t, loadConfig(t, planetConfig), Options{})

	terra := g.Planet("terra")
	if terra == nil {
		t.Fatal("terra has no terrain")
	}
	if g.Planet("sun") != nil {
		t.Error("sun should not stream terrain")
	}

	want := terra.Body.Position.Add(mgl64.Vec3{0, 1.5*120 + 20, 0})
	if got := g.PlayerPosition(); !vecNear(got, want, 1e-12) {
		t.Errorf("PlayerPosition() = %v, want %v", got, want)
	}
	if got := g.PlayerVelocity(); got != terra.Body.Velocity {
		t.Errorf("PlayerVelocity() = %v, want %v", got, terra.Body.Velocity)
	}
	if got := g.Player().ReferenceBody; got != terra.Body.ID {
		t.Errorf("ReferenceBody = %d, want %d", got, terra.Body.ID)
	}
}

func TestOriginTargetOrder(t *testing.T) {
	g := newTestGame(t, loadConfig(t, planetConfig), Options{})
	want := []string{"bodies", "actors", "path", "terrain:terra"}
	got := g.Origin().Targets()
	if len(got) != len(want) {
		t.Fatalf("Targets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Targets()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStepRebasesAfterIntegration(t *testing.T) {
	g := newTestGame(t, loadConfig(t, soloConfig), Options{})

	if err := g.Step(); err != nil {
		t.Fatal(err)
	}
	if g.Origin().Events() != 1 {
		t.Fatalf("Events() = %d, want 1", g.Origin().Events())
	}
	offset := g.Origin().Last().Offset
	if offset.Len() <= 1000 {
		t.Errorf("offset %v should exceed the threshold", offset)
	}
	if got := g.PlayerPosition(); got.Len() != 0 {
		t.Errorf("PlayerPosition() = %v, want origin", got)
	}
	sun := g.Bodies().Body(0)
	if !vecNear(sun.Position, offset.Mul(-1), 1e-12) {
		t.Errorf("sun = %v, want %v", sun.Position, offset.Mul(-1))
	}
	if g.Tick() != 1 {
		t.Errorf("Tick() = %d, want 1", g.Tick())
	}
}

func TestRebasingPreservesRelativeMotion(t *testing.T) {
	base := loadConfig(t, soloConfig)
	base.Actor.Velocity = [3]float64{300, 40, -20}
	rebased := newTestGame(t, base, Options{})

	fixed := loadConfig(t, soloConfig)
	fixed.Actor.Velocity = base.Actor.Velocity
	fixed.Origin.DistanceThreshold = 1e12
	reference := newTestGame(t, fixed, Options{})

	for i := 0; i < 60; i++ {
		if err := rebased.Step(); err != nil {
			t.Fatal(err)
		}
		if err := reference.Step(); err != nil {
			t.Fatal(err)
		}
		if d := rebased.PlayerPosition().Len(); d > 1000 {
			t.Fatalf("tick %d: player %v past threshold after rebase", i, d)
		}
	}
	if rebased.Origin().Events() < 2 {
		t.Fatalf("Events() = %d, want several rebases", rebased.Origin().Events())
	}
	if reference.Origin().Events() != 0 {
		t.Fatalf("reference rebased %d times", reference.Origin().Events())
	}

	relA := rebased.PlayerPosition().Sub(rebased.Bodies().Body(0).Position)
	relB := reference.PlayerPosition().Sub(reference.Bodies().Body(0).Position)
	if !vecNear(relA, relB, 1e-6) {
		t.Errorf("relative position = %v, want %v", relA, relB)
	}
	if !vecNear(rebased.PlayerVelocity(), reference.PlayerVelocity(), 1e-9) {
		t.Errorf("velocity = %v, want %v", rebased.PlayerVelocity(), reference.PlayerVelocity())
	}
}

func TestAdvanceClampsAccumulator(t *testing.T) {
	g := newTestGame(t, loadConfig(t, soloConfig), Options{})

	steps, err := g.Advance(0.6)
	if err != nil {
		t.Fatal(err)
	}
	if steps != 2 {
		t.Errorf("Advance(0.6) steps = %d, want 2", steps)
	}

	// 0.1 carried plus 10 requested, limited to 4 ticks of 0.25.
	steps, err = g.Advance(10)
	if err != nil {
		t.Fatal(err)
	}
	if steps != 4 {
		t.Errorf("Advance(10) steps = %d, want 4", steps)
	}
	if got := g.DroppedTime(); math.Abs(got-9.1) > 1e-9 {
		t.Errorf("DroppedTime() = %v, want 9.1", got)
	}
	if g.Tick() != 6 {
		t.Errorf("Tick() = %d, want 6", g.Tick())
	}
}

func TestUpdateHeadlessStreamsTerrain(t *testing.T) {
	g := newTestGame(t, loadConfig(t, planetConfig), Options{StepsPerUpdate: 2})

	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	if g.Tick() != 2 {
		t.Errorf("Tick() = %d, want 2", g.Tick())
	}
	st := g.Planet("terra").Streamer.Stats()
	if st.Visible == 0 || st.Built == 0 {
		t.Errorf("stats = %+v, want visible and built patches", st)
	}
	if st.BuildFailures != 0 {
		t.Errorf("BuildFailures = %d, want 0", st.BuildFailures)
	}
}

func TestPerfCountsPhysicsTicks(t *testing.T) {
	g := newTestGame(t, loadConfig(t, planetConfig), Options{StepsPerUpdate: 5})
	for i := 0; i < 3; i++ {
		if err := g.UpdateHeadless(); err != nil {
			t.Fatal(err)
		}
	}
	s := g.perf.Stats()
	if s.Updates != 3 {
		t.Errorf("Updates = %d, want 3", s.Updates)
	}
	if s.StepsPerUpdate != 5 {
		t.Errorf("StepsPerUpdate = %v, want 5", s.StepsPerUpdate)
	}
	if s.AvgTickDuration > s.AvgUpdateDuration {
		t.Errorf("AvgTickDuration %v exceeds AvgUpdateDuration %v", s.AvgTickDuration, s.AvgUpdateDuration)
	}
}

func TestReconfigureRebuildsTerrain(t *testing.T) {
	g := newTestGame(t, loadConfig(t, planetConfig), Options{})
	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}

	shape := heightfield.Shape{Seed: 99, Octaves: 2, Strength: 0.02}
	if err := g.Reconfigure("terra", shape, heightfield.Shading{Seed: 5}); err != nil {
		t.Fatal(err)
	}
	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	st := g.Planet("terra").Streamer.Stats()
	if st.Visible == 0 || st.Built < st.Visible {
		t.Errorf("after reconfigure stats = %+v, want every visible patch rebuilt", st)
	}

	if err := g.Reconfigure("nowhere", shape, heightfield.Shading{}); err == nil {
		t.Error("Reconfigure(nowhere) succeeded")
	}
}

type failingEvaluator struct{}

var errNoTerrain = errors.New("no terrain")

func (failingEvaluator) Evaluate([]mgl64.Vec3, []float64, []mgl64.Vec4) error { return errNoTerrain }
func (failingEvaluator) Version() uint64                                      { return 1 }

func TestEvaluatorOverride(t *testing.T) {
	g := newTestGame(t, loadConfig(t, planetConfig), Options{
		Evaluators: map[string]terrain.HeightFieldEvaluator{"terra": failingEvaluator{}},
	})
	if err := g.UpdateHeadless(); err != nil {
		t.Fatalf("terrain failure must not stop the simulation: %v", err)
	}
	st := g.Planet("terra").Streamer.Stats()
	if st.BuildFailures == 0 {
		t.Errorf("BuildFailures = 0, want failures from the evaluator")
	}
	if err := g.Reconfigure("terra", heightfield.Shape{}, heightfield.Shading{}); err == nil {
		t.Error("Reconfigure on an external evaluator succeeded")
	}
}

func TestTelemetryWindowAndOutput(t *testing.T) {
	dir := t.TempDir()
	g := newTestGame(t, loadConfig(t, planetConfig), Options{OutputDir: dir, StepsPerUpdate: 4})

	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	stats := g.LastStats()
	if stats.WindowEndTick != 4 {
		t.Errorf("WindowEndTick = %d, want 4", stats.WindowEndTick)
	}
	if stats.ReferenceBody != "terra" {
		t.Errorf("ReferenceBody = %q, want terra", stats.ReferenceBody)
	}
	if stats.Rebases == 0 {
		t.Error("start far from the origin should rebase in the first window")
	}

	if err := g.Close(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "bodies.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

// vecNear compares per component with tol, scaled by magnitude above 1.
func vecNear(a, b mgl64.Vec3, tol float64) bool {
	for i := range a {
		scale := math.Max(1, math.Abs(a[i])+math.Abs(b[i]))
		if math.Abs(a[i]-b[i]) > tol*scale {
			return false
		}
	}
	return true
}
