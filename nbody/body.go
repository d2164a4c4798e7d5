// Package nbody integrates celestial bodies under mutual Newtonian gravity.
package nbody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType tags a celestial body.
type BodyType uint8

const (
	Planet BodyType = iota
	Moon
	Sun
)

func (t BodyType) String() string {
	switch t {
	case Planet:
		return "planet"
	case Moon:
		return "moon"
	case Sun:
		return "sun"
	}
	return fmt.Sprintf("BodyType(%d)", uint8(t))
}

// ParseBodyType converts a config name into a BodyType.
func ParseBodyType(s string) (BodyType, error) {
	switch s {
	case "planet", "":
		return Planet, nil
	case "moon":
		return Moon, nil
	case "sun":
		return Sun, nil
	}
	return 0, fmt.Errorf("unknown body type %q", s)
}

// Body is one gravitating celestial object.
//
// Mass is derived from surface gravity and radius and cannot be set directly.
type Body struct {
	ID   int
	Name string
	Type BodyType

	Position mgl64.Vec3
	Velocity mgl64.Vec3

	// Orientation is the visual spin of the body. It does not affect gravity.
	Orientation       mgl64.Quat
	RotationPerSecond float64 // degrees about local +Y

	// PlayerGravityMultiplier scales this body's pull on the tracked actor only.
	PlayerGravityMultiplier float64

	g              float64
	radius         float64
	surfaceGravity float64
	mass           float64
}

// NewBody creates a body and derives its mass using gravitational constant g.
func NewBody(name string, typ BodyType, g, radius, surfaceGravity float64) *Body {
	b := &Body{
		Name:                    name,
		Type:                    typ,
		Orientation:             mgl64.QuatIdent(),
		PlayerGravityMultiplier: 1,
		g:                       g,
		radius:                  radius,
		surfaceGravity:          surfaceGravity,
	}
	b.recomputeMass()
	return b
}

func (b *Body) recomputeMass() {
	b.mass = b.surfaceGravity * b.radius * b.radius / b.g
}

// Mass returns surfaceGravity * radius² / G.
func (b *Body) Mass() float64 { return b.mass }

// Radius returns the body's surface radius.
func (b *Body) Radius() float64 { return b.radius }

// SurfaceGravity returns the acceleration at the body's surface.
func (b *Body) SurfaceGravity() float64 { return b.surfaceGravity }

// SetRadius changes the radius and recomputes mass.
func (b *Body) SetRadius(r float64) {
	b.radius = r
	b.recomputeMass()
}

// SetSurfaceGravity changes surface gravity and recomputes mass.
func (b *Body) SetSurfaceGravity(g float64) {
	b.surfaceGravity = g
	b.recomputeMass()
}

// Rotate advances the visual spin by dt seconds.
func (b *Body) Rotate(dt float64) {
	if b.RotationPerSecond == 0 {
		return
	}
	step := mgl64.QuatRotate(mgl64.DegToRad(b.RotationPerSecond*dt), mgl64.Vec3{0, 1, 0})
	b.Orientation = b.Orientation.Mul(step).Normalize()
}

// SurfaceDistance returns the distance from p to the body's surface.
// Negative inside the body.
func (b *Body) SurfaceDistance(p mgl64.Vec3) float64 {
	return p.Sub(b.Position).Len() - b.radius
}
