// Package predict forward-simulates the bodies and the tracked actor to draw
// a trajectory preview.
package predict

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/nbody"
)

// Config controls the predictor.
type Config struct {
	NumSteps        int     // samples per buffer, including "now"
	StepMultiplier  int     // physics ticks per predicted sample
	ResyncTolerance float64 // actor divergence that forces a full actor resimulation
	ResyncInterval  int     // samples between body resyncs, 0 disables
}

// ActorState is the authoritative state of the tracked actor.
type ActorState struct {
	Position      mgl64.Vec3
	Velocity      mgl64.Vec3
	ReferenceBody int // body ID, -1 for none
}

type virtualBody struct {
	mass      float64
	velocity  mgl64.Vec3
	positions *RingBuffer[mgl64.Vec3]
}

// Predictor keeps ring buffers of future positions for every body and the
// actor. Sample 0 is "now"; sample i lies i*step seconds ahead.
type Predictor struct {
	cfg    Config
	sys    *nbody.System
	step   float64
	logger *slog.Logger

	bodies   []virtualBody
	actor    *RingBuffer[mgl64.Vec3]
	actorVel mgl64.Vec3
	refBody  int

	ticks       int
	samples     int
	resyncs     int
	bodyResyncs int

	path      []mgl64.Vec3
	pathValid bool
}

// New builds a predictor from the current body and actor state and fills
// every buffer.
func New(cfg Config, sys *nbody.System, actor ActorState, logger *slog.Logger) (*Predictor, error) {
	if cfg.NumSteps < 2 {
		return nil, fmt.Errorf("predict: num steps %d, need at least 2", cfg.NumSteps)
	}
	if cfg.StepMultiplier < 1 {
		cfg.StepMultiplier = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Predictor{
		cfg:    cfg,
		sys:    sys,
		step:   sys.TimeStep * float64(cfg.StepMultiplier),
		logger: logger,
		actor:  NewRingBuffer[mgl64.Vec3](cfg.NumSteps),
		path:   make([]mgl64.Vec3, cfg.NumSteps),
	}
	p.bodies = make([]virtualBody, len(sys.Bodies()))
	for i := range p.bodies {
		p.bodies[i].positions = NewRingBuffer[mgl64.Vec3](cfg.NumSteps)
	}
	if err := p.resyncBodies(); err != nil {
		return nil, err
	}
	if err := p.resyncActor(actor); err != nil {
		return nil, err
	}
	return p, nil
}

// Step returns the predicted time between samples.
func (p *Predictor) Step() float64 { return p.step }

// Resyncs returns how many times the actor path was resimulated.
func (p *Predictor) Resyncs() int { return p.resyncs }

// BodyResyncs returns how many times body shadows were reset.
func (p *Predictor) BodyResyncs() int { return p.bodyResyncs }

// Body returns the position buffer of a body.
func (p *Predictor) Body(id int) *RingBuffer[mgl64.Vec3] { return p.bodies[id].positions }

// Actor returns the actor position buffer.
func (p *Predictor) Actor() *RingBuffer[mgl64.Vec3] { return p.actor }

// Tick is called once per physics tick after bodies and actors have moved.
// Every StepMultiplier ticks the buffers advance by one sample.
func (p *Predictor) Tick(actor ActorState) error {
	p.ticks++
	if p.ticks%p.cfg.StepMultiplier != 0 {
		return nil
	}
	p.pathValid = false
	p.samples++

	if p.cfg.ResyncInterval > 0 && p.samples%p.cfg.ResyncInterval == 0 {
		if err := p.resyncBodies(); err != nil {
			return err
		}
		p.bodyResyncs++
		return p.resyncActor(actor)
	}

	if err := p.advance(); err != nil {
		return err
	}

	drift := actor.Position.Sub(p.actor.Get(0)).Len()
	if drift > p.cfg.ResyncTolerance || actor.ReferenceBody != p.refBody {
		p.logger.Debug("actor path resync",
			"drift", drift,
			"reference_body", actor.ReferenceBody,
			"previous_reference", p.refBody,
		)
		p.resyncs++
		return p.resyncActor(actor)
	}
	return nil
}

// advance simulates one new sample for every body and the actor.
func (p *Predictor) advance() error {
	if err := p.simulateBodies(1); err != nil {
		return err
	}
	// Actors move after the bodies, so they feel the post-step positions.
	a, err := p.actorAccel(p.actor.Last(), func(j int) mgl64.Vec3 {
		return p.bodies[j].positions.Last()
	})
	if err != nil {
		return err
	}
	p.actorVel = p.actorVel.Add(a.Mul(p.step))
	p.actor.Add(p.actor.Last().Add(p.actorVel.Mul(p.step)))
	return nil
}

func (p *Predictor) simulateBodies(steps int) error {
	g, minSep := p.sys.G, p.sys.MinSeparation
	for s := 0; s < steps; s++ {
		for i := range p.bodies {
			var a mgl64.Vec3
			pi := p.bodies[i].positions.Last()
			for j := range p.bodies {
				if i == j {
					continue
				}
				da, err := nbody.GravityAccel(g, p.bodies[j].mass, pi, p.bodies[j].positions.Last(), minSep)
				if err != nil {
					return fmt.Errorf("predicting body %d: %w", i, err)
				}
				a = a.Add(da)
			}
			p.bodies[i].velocity = p.bodies[i].velocity.Add(a.Mul(p.step))
		}
		for i := range p.bodies {
			vb := &p.bodies[i]
			vb.positions.Add(vb.positions.Last().Add(vb.velocity.Mul(p.step)))
		}
	}
	return nil
}

func (p *Predictor) actorAccel(point mgl64.Vec3, bodyPos func(j int) mgl64.Vec3) (mgl64.Vec3, error) {
	var a mgl64.Vec3
	for j, b := range p.sys.Bodies() {
		da, err := nbody.GravityAccel(p.sys.G, p.bodies[j].mass, point, bodyPos(j), p.sys.MinSeparation)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("predicting actor near %s: %w", b.Name, err)
		}
		a = a.Add(da.Mul(b.PlayerGravityMultiplier))
	}
	return a, nil
}

// resyncBodies resets every body shadow from authoritative state and refills
// its buffer.
func (p *Predictor) resyncBodies() error {
	for i, b := range p.sys.Bodies() {
		vb := &p.bodies[i]
		vb.mass = b.Mass()
		vb.velocity = b.Velocity
		vb.positions.Reset()
		vb.positions.Add(b.Position)
	}
	return p.simulateBodies(p.cfg.NumSteps - 1)
}

// resyncActor discards the actor path and resimulates it against the
// current body buffers.
func (p *Predictor) resyncActor(actor ActorState) error {
	p.actor.Reset()
	p.actor.Add(actor.Position)
	p.actorVel = actor.Velocity
	p.refBody = actor.ReferenceBody
	p.pathValid = false

	pos := actor.Position
	for i := 0; i < p.cfg.NumSteps-1; i++ {
		next := i + 1
		a, err := p.actorAccel(pos, func(j int) mgl64.Vec3 {
			return p.bodies[j].positions.Get(next)
		})
		if err != nil {
			return err
		}
		p.actorVel = p.actorVel.Add(a.Mul(p.step))
		pos = pos.Add(p.actorVel.Mul(p.step))
		p.actor.Add(pos)
	}
	return nil
}

// Path returns the predicted actor trajectory relative to its reference
// body: path[i] = actor[i] + ref[0] - ref[i]. The slice is reused between
// calls and recomputed only after the buffers change.
func (p *Predictor) Path() []mgl64.Vec3 {
	if p.pathValid {
		return p.path
	}
	var ref *RingBuffer[mgl64.Vec3]
	if p.refBody >= 0 && p.refBody < len(p.bodies) {
		ref = p.bodies[p.refBody].positions
	}
	for i := range p.path {
		pt := p.actor.Get(i)
		if ref != nil {
			pt = pt.Add(ref.Get(0)).Sub(ref.Get(i))
		}
		p.path[i] = pt
	}
	p.pathValid = true
	return p.path
}

// ShiftOrigin subtracts offset from every buffered sample.
func (p *Predictor) ShiftOrigin(offset mgl64.Vec3) {
	sub := func(v mgl64.Vec3) mgl64.Vec3 { return v.Sub(offset) }
	for i := range p.bodies {
		p.bodies[i].positions.Update(sub)
	}
	p.actor.Update(sub)
	p.pathValid = false
}
