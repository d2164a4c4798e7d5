package nbody

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrCoincident is returned when two gravitating points are closer than
	// the configured minimum separation.
	ErrCoincident = errors.New("nbody: coincident bodies")
	// ErrNonFinite is returned when integration produced NaN or Inf state.
	ErrNonFinite = errors.New("nbody: non-finite state")
)

// DefaultMinSeparation is used when a System is built with a zero minimum.
const DefaultMinSeparation = 1e-6

// GravityAccel returns the acceleration at point due to a mass at source:
// G*m*(source-point)/|source-point|³.
func GravityAccel(g, mass float64, point, source mgl64.Vec3, minSeparation float64) (mgl64.Vec3, error) {
	d := source.Sub(point)
	sqr := d.Dot(d)
	if sqr < minSeparation*minSeparation {
		return mgl64.Vec3{}, ErrCoincident
	}
	dist := math.Sqrt(sqr)
	return d.Mul(g * mass / (sqr * dist)), nil
}

// System owns the bodies of one simulation and advances them with a fixed
// timestep.
type System struct {
	G             float64
	TimeStep      float64
	MinSeparation float64

	bodies []*Body
	accel  []mgl64.Vec3
	vel    []mgl64.Vec3
	pos    []mgl64.Vec3
	ticks  int64
}

// NewSystem creates an empty system.
func NewSystem(g, timeStep, minSeparation float64) *System {
	if minSeparation <= 0 {
		minSeparation = DefaultMinSeparation
	}
	return &System{G: g, TimeStep: timeStep, MinSeparation: minSeparation}
}

// Add registers a body and assigns its stable ID.
func (s *System) Add(b *Body) int {
	b.ID = len(s.bodies)
	s.bodies = append(s.bodies, b)
	s.accel = append(s.accel, mgl64.Vec3{})
	s.vel = append(s.vel, mgl64.Vec3{})
	s.pos = append(s.pos, mgl64.Vec3{})
	return b.ID
}

// Bodies returns the registered bodies indexed by ID.
func (s *System) Bodies() []*Body { return s.bodies }

// Body returns the body with the given ID, or nil.
func (s *System) Body(id int) *Body {
	if id < 0 || id >= len(s.bodies) {
		return nil
	}
	return s.bodies[id]
}

// Ticks returns the number of completed steps.
func (s *System) Ticks() int64 { return s.ticks }

// CalculateAcceleration sums the pull of every body on point, skipping
// exclude when it is non-nil.
func (s *System) CalculateAcceleration(point mgl64.Vec3, exclude *Body) (mgl64.Vec3, error) {
	var a mgl64.Vec3
	for _, b := range s.bodies {
		if b == exclude {
			continue
		}
		da, err := GravityAccel(s.G, b.mass, point, b.Position, s.MinSeparation)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("acceleration from %s: %w", b.Name, err)
		}
		a = a.Add(da)
	}
	return a, nil
}

// Step advances every body by one timestep.
//
// All accelerations are computed from pre-step positions and applied to
// velocities before any position moves. The new state is staged and only
// committed when every body stays finite, so a failed step leaves the
// system untouched.
func (s *System) Step() error {
	dt := s.TimeStep
	for i, b := range s.bodies {
		a, err := s.CalculateAcceleration(b.Position, b)
		if err != nil {
			return fmt.Errorf("step %d body %s: %w", s.ticks, b.Name, err)
		}
		s.accel[i] = a
	}
	for i, b := range s.bodies {
		s.vel[i] = b.Velocity.Add(s.accel[i].Mul(dt))
		s.pos[i] = b.Position.Add(s.vel[i].Mul(dt))
		if !finite(s.pos[i]) || !finite(s.vel[i]) {
			return fmt.Errorf("step %d body %s: %w", s.ticks, b.Name, ErrNonFinite)
		}
	}
	for i, b := range s.bodies {
		b.Velocity = s.vel[i]
		b.Position = s.pos[i]
	}
	s.ticks++
	return nil
}

// Rotate advances the visual spin of every body.
func (s *System) Rotate(dt float64) {
	for _, b := range s.bodies {
		b.Rotate(dt)
	}
}

// ShiftOrigin subtracts offset from every body position. Velocities are
// frame-independent and untouched.
func (s *System) ShiftOrigin(offset mgl64.Vec3) {
	for _, b := range s.bodies {
		b.Position = b.Position.Sub(offset)
	}
}

// NearestSurface returns the body whose surface is closest to p.
func (s *System) NearestSurface(p mgl64.Vec3) (*Body, float64) {
	var best *Body
	bestDst := math.Inf(1)
	for _, b := range s.bodies {
		if d := b.SurfaceDistance(p); d < bestDst {
			best, bestDst = b, d
		}
	}
	return best, bestDst
}

// KineticEnergy returns Σ ½mv².
func (s *System) KineticEnergy() float64 {
	var e float64
	for _, b := range s.bodies {
		e += 0.5 * b.mass * b.Velocity.Dot(b.Velocity)
	}
	return e
}

// PotentialEnergy returns -Σ G·mi·mj/rij over unordered pairs.
func (s *System) PotentialEnergy() float64 {
	var e float64
	for i := 0; i < len(s.bodies); i++ {
		for j := i + 1; j < len(s.bodies); j++ {
			r := s.bodies[j].Position.Sub(s.bodies[i].Position).Len()
			if r > 0 {
				e -= s.G * s.bodies[i].mass * s.bodies[j].mass / r
			}
		}
	}
	return e
}

// Momentum returns Σ mv.
func (s *System) Momentum() mgl64.Vec3 {
	var p mgl64.Vec3
	for _, b := range s.bodies {
		p = p.Add(b.Velocity.Mul(b.mass))
	}
	return p
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
