// Package components defines ECS components for dynamic actors.
package components

import "github.com/go-gl/mathgl/mgl64"

// Position represents an entity's world position.
type Position struct {
	P mgl64.Vec3
}

// Velocity represents an entity's velocity.
type Velocity struct {
	V mgl64.Vec3
}

// Actor holds per-actor gravity state.
type Actor struct {
	Name    string
	Tracked bool // the single actor followed by the camera, predictor and origin

	// Updated by the gravity system every tick.
	ReferenceBody     int // index of the body with the nearest surface, -1 if none
	NearestSurfaceDst float64
	Grounded          bool // resting on the reference body's surface sphere
}

// Thrust is a controllable acceleration applied on top of gravity.
type Thrust struct {
	Input mgl64.Vec3 // desired direction, components in [-1, 1]
	Max   float64    // acceleration at full input
}

// Accel returns the thrust acceleration, clamping the input to unit length.
func (t Thrust) Accel() mgl64.Vec3 {
	in := t.Input
	if l := in.Len(); l > 1 {
		in = in.Mul(1 / l)
	}
	return in.Mul(t.Max)
}
