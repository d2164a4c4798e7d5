package game

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/telemetry"
)

const (
	orbitDegPerSec  = 90.0
	mouseOrbitScale = 0.3
	zoomStep        = 1.15
	maxStepsPerUpd  = 10
)

// viewFlags are debug toggles for the graphical view.
type viewFlags struct {
	path     bool
	wire     bool
	collider bool
	perf     bool
}

// Update runs one graphical frame: input, fixed ticks for the elapsed time,
// then terrain streaming from the camera.
func (g *Game) Update() error {
	start := time.Now()
	g.handleInput()

	frameDt := float64(rl.GetFrameTime())
	g.perf.BeginUpdate()
	defer g.perf.EndUpdate()
	if !g.paused {
		if _, err := g.Advance(frameDt * float64(g.stepsPerUpdate)); err != nil {
			return err
		}
	} else {
		frameDt = 0
	}

	g.camera.Follow(g.PlayerPosition())
	g.perf.StartPhase(telemetry.PhaseTerrain)
	g.Frame(frameDt, g.camera.Eye())
	g.metrics.ObserveUpdate(time.Since(start))
	return nil
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxStepsPerUpd {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyP) {
		g.view.path = !g.view.path
	}
	if rl.IsKeyPressed(rl.KeyF) {
		g.view.wire = !g.view.wire
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.view.collider = !g.view.collider
	}
	if rl.IsKeyPressed(rl.KeyT) {
		g.view.perf = !g.view.perf
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.reseedReference()
	}

	g.handleCameraInput()
	g.handleThrustInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	g.camera.Resize(float64(w), float64(h))
	g.viewer.Resize(int32(w), int32(h))
}

// handleCameraInput orbits with the arrow keys or right-drag and zooms with
// the wheel.
func (g *Game) handleCameraInput() {
	dt := float64(rl.GetFrameTime())
	var yaw, pitch float64
	if rl.IsKeyDown(rl.KeyLeft) {
		yaw -= orbitDegPerSec * dt
	}
	if rl.IsKeyDown(rl.KeyRight) {
		yaw += orbitDegPerSec * dt
	}
	if rl.IsKeyDown(rl.KeyUp) {
		pitch += orbitDegPerSec * dt
	}
	if rl.IsKeyDown(rl.KeyDown) {
		pitch -= orbitDegPerSec * dt
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		d := rl.GetMouseDelta()
		yaw += float64(d.X) * mouseOrbitScale
		pitch -= float64(d.Y) * mouseOrbitScale
	}
	if yaw != 0 || pitch != 0 {
		g.camera.Orbit(yaw, pitch)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		if wheel > 0 {
			g.camera.ZoomBy(1 / zoomStep)
		} else {
			g.camera.ZoomBy(zoomStep)
		}
	}
	if rl.IsKeyPressed(rl.KeyEqual) {
		g.camera.ZoomBy(1 / zoomStep)
	}
	if rl.IsKeyPressed(rl.KeyMinus) {
		g.camera.ZoomBy(zoomStep)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleThrustInput maps WASD/QE to thrust in the camera's frame.
func (g *Game) handleThrustInput() {
	forward := g.camera.Forward()
	up := mgl64.Vec3{0, 1, 0}
	right := forward.Cross(up)
	if right.Len() < 1e-9 {
		right = mgl64.Vec3{1, 0, 0}
	}
	right = right.Normalize()

	var in mgl64.Vec3
	if rl.IsKeyDown(rl.KeyW) {
		in = in.Add(forward)
	}
	if rl.IsKeyDown(rl.KeyS) {
		in = in.Sub(forward)
	}
	if rl.IsKeyDown(rl.KeyD) {
		in = in.Add(right)
	}
	if rl.IsKeyDown(rl.KeyA) {
		in = in.Sub(right)
	}
	if rl.IsKeyDown(rl.KeyE) {
		in = in.Add(up)
	}
	if rl.IsKeyDown(rl.KeyQ) {
		in = in.Sub(up)
	}
	g.SetThrust(in)
}

// reseedReference gives the actor's reference planet new terrain seeds.
func (g *Game) reseedReference() {
	ref := g.bodies.Body(g.Player().ReferenceBody)
	if ref == nil {
		return
	}
	p := g.Planet(ref.Name)
	if p == nil || p.noise == nil {
		return
	}
	shape, shading := p.noise.Params()
	shape.Seed++
	shading.Seed++
	if err := g.Reconfigure(ref.Name, shape, shading); err != nil {
		g.logger.Warn("reseed failed", "body", ref.Name, "error", err)
		return
	}
	g.logger.Info("terrain reseeded", "body", ref.Name, "seed", shape.Seed)
}
