package game

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/telemetry"
	"github.com/pthm-cable/orrery/terrain"
)

// Step runs one physics tick: integrate bodies, advance actors, advance the
// predictor, then re-base the origin. Nothing writes positions after the
// rebase within a tick.
func (g *Game) Step() error {
	g.perf.StartPhase(telemetry.PhaseIntegrate)
	if err := g.bodies.Step(); err != nil {
		return fmt.Errorf("tick %d: integrate: %w", g.tick, err)
	}

	g.perf.StartPhase(telemetry.PhaseActors)
	if err := g.gravity.Update(g.bodies.TimeStep); err != nil {
		return fmt.Errorf("tick %d: actors: %w", g.tick, err)
	}

	g.perf.StartPhase(telemetry.PhasePredict)
	if g.predictor != nil {
		if err := g.predictor.Tick(g.actorState()); err != nil {
			return fmt.Errorf("tick %d: predict: %w", g.tick, err)
		}
		resyncs, bodySyncs := g.predictor.Resyncs(), g.predictor.BodyResyncs()
		g.collector.RecordResyncs(resyncs-g.lastResyncs, bodySyncs-g.lastBodySyncs)
		g.metrics.RecordResyncs(resyncs-g.lastResyncs, bodySyncs-g.lastBodySyncs)
		g.lastResyncs, g.lastBodySyncs = resyncs, bodySyncs
	}

	g.perf.StartPhase(telemetry.PhaseOrigin)
	g.origin.Update(g.PlayerPosition())

	g.tick++
	g.metrics.RecordTick()
	g.perf.RecordStep()
	g.sampleActor()

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	return nil
}

// Advance runs as many fixed ticks as frameDt allows. Time beyond
// MaxSubSteps ticks is dropped so a slow frame cannot snowball.
func (g *Game) Advance(frameDt float64) (int, error) {
	dt := g.bodies.TimeStep
	g.accumulator += frameDt
	if limit := dt * float64(g.cfg.Physics.MaxSubSteps); g.accumulator > limit {
		g.droppedTime += g.accumulator - limit
		g.accumulator = limit
	}

	steps := 0
	for g.accumulator >= dt {
		if err := g.Step(); err != nil {
			return steps, err
		}
		g.accumulator -= dt
		steps++
	}
	return steps, nil
}

// DroppedTime returns the simulated seconds discarded by Advance.
func (g *Game) DroppedTime() float64 { return g.droppedTime }

// UpdateHeadless runs StepsPerUpdate ticks followed by one visual frame seen
// from the tracked actor.
func (g *Game) UpdateHeadless() error {
	start := time.Now()
	g.perf.BeginUpdate()
	defer g.perf.EndUpdate()
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.Step(); err != nil {
			return err
		}
	}
	g.perf.StartPhase(telemetry.PhaseTerrain)
	g.Frame(g.bodies.TimeStep*float64(g.stepsPerUpdate), g.PlayerPosition())
	g.metrics.ObserveUpdate(time.Since(start))
	return nil
}

// Frame is the visual step: spin the bodies and stream every planet's
// terrain for a viewer at cam.
func (g *Game) Frame(dt float64, cam mgl64.Vec3) {
	g.bodies.Rotate(dt)

	pos := g.PlayerPosition()
	player := g.Player()
	for _, p := range g.planets {
		tf := terrain.Transform{
			Center:   p.Body.Position,
			Rotation: p.Body.Orientation,
			Radius:   p.Body.Radius(),
		}
		view := terrain.View{
			Camera: cam,
			Actor:  &terrain.ActorView{Position: pos, OnBody: player.ReferenceBody == p.Body.ID},
		}
		st := p.Streamer.Update(tf, view)
		g.collector.RecordTerrainFrame(st.Visible, st.Built, st.BuildFailures, st.ColliderSwitches > 0)
		g.metrics.RecordTerrain(p.Body.Name, st.Visible, st.Built, st.BuildFailures, st.InUse)
	}
	g.perf.RecordFrame()
}

// sampleActor records the tracked actor's speed relative to its reference
// body and its altitude.
func (g *Game) sampleActor() {
	player := g.Player()
	vel := g.PlayerVelocity()
	if ref := g.bodies.Body(player.ReferenceBody); ref != nil {
		vel = vel.Sub(ref.Velocity)
	}
	g.collector.RecordActor(vel.Len(), player.NearestSurfaceDst)
}
