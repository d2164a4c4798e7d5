// Package systems contains ECS systems for dynamic actors.
package systems

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orrery/components"
	"github.com/pthm-cable/orrery/nbody"
)

// GravitySystem advances every actor under the gravity of the body system.
type GravitySystem struct {
	filter *ecs.Filter4[components.Position, components.Velocity, components.Actor, components.Thrust]
	bodies *nbody.System
}

// NewGravitySystem creates a new gravity system.
func NewGravitySystem(w *ecs.World, bodies *nbody.System) *GravitySystem {
	return &GravitySystem{
		filter: ecs.NewFilter4[components.Position, components.Velocity, components.Actor, components.Thrust](w),
		bodies: bodies,
	}
}

// Update integrates every actor by one step of dt. The tracked actor feels
// each body's PlayerGravityMultiplier; probes feel plain gravity.
func (s *GravitySystem) Update(dt float64) error {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, actor, thrust := query.Get()

		acc, ref, dst, err := s.accel(pos.P, actor.Tracked)
		if err != nil {
			query.Close()
			return fmt.Errorf("actor %s: %w", actor.Name, err)
		}
		actor.ReferenceBody = ref
		actor.NearestSurfaceDst = dst

		acc = acc.Add(thrust.Accel())
		vel.V = vel.V.Add(acc.Mul(dt))
		pos.P = pos.P.Add(vel.V.Mul(dt))

		actor.Grounded = s.resolveContact(pos, vel, ref)
	}
	return nil
}

// resolveContact keeps an actor out of its reference body's surface sphere,
// removing the inward part of its velocity relative to the body.
func (s *GravitySystem) resolveContact(pos *components.Position, vel *components.Velocity, ref int) bool {
	b := s.bodies.Body(ref)
	if b == nil {
		return false
	}
	rel := pos.P.Sub(b.Position)
	d := rel.Len()
	if d >= b.Radius() || d == 0 {
		return false
	}
	n := rel.Mul(1 / d)
	pos.P = b.Position.Add(n.Mul(b.Radius()))
	if vn := vel.V.Sub(b.Velocity).Dot(n); vn < 0 {
		vel.V = vel.V.Sub(n.Mul(vn))
	}
	return true
}

// accel sums gravity at p and finds the body with the nearest surface.
func (s *GravitySystem) accel(p mgl64.Vec3, tracked bool) (mgl64.Vec3, int, float64, error) {
	var acc mgl64.Vec3
	ref := -1
	nearest := math.Inf(1)
	for i, b := range s.bodies.Bodies() {
		a, err := nbody.GravityAccel(s.bodies.G, b.Mass(), p, b.Position, s.bodies.MinSeparation)
		if err != nil {
			return mgl64.Vec3{}, -1, 0, fmt.Errorf("body %s: %w", b.Name, err)
		}
		if tracked {
			a = a.Mul(b.PlayerGravityMultiplier)
		}
		acc = acc.Add(a)
		if d := b.SurfaceDistance(p); d < nearest {
			nearest = d
			ref = i
		}
	}
	return acc, ref, nearest, nil
}

// PositionShifter re-bases every entity with a Position.
type PositionShifter struct {
	filter *ecs.Filter1[components.Position]
}

// NewPositionShifter creates a shifter over the world.
func NewPositionShifter(w *ecs.World) *PositionShifter {
	return &PositionShifter{filter: ecs.NewFilter1[components.Position](w)}
}

// ShiftOrigin subtracts offset from every entity position.
func (s *PositionShifter) ShiftOrigin(offset mgl64.Vec3) {
	query := s.filter.Query()
	for query.Next() {
		pos := query.Get()
		pos.P = pos.P.Sub(offset)
	}
}

// PlaceAbove returns the on-body start state: 1.5 radii plus 20 units above
// the body centre along +Y, moving with the body.
func PlaceAbove(b *nbody.Body) (pos, vel mgl64.Vec3) {
	up := mgl64.Vec3{0, 1, 0}
	return b.Position.Add(up.Mul(b.Radius()*1.5 + 20)), b.Velocity
}
