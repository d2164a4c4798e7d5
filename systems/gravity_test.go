package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/orrery/components"
	"github.com/pthm-cable/orrery/nbody"
)

func newTestWorld(t *testing.T) (*ecs.World, *nbody.System, *ecs.Map4[components.Position, components.Velocity, components.Actor, components.Thrust]) {
	t.Helper()
	sys := nbody.NewSystem(1, 0.1, 0)
	sun := nbody.NewBody("sun", nbody.Sun, 1, 1, 1) // mass 1
	sun.PlayerGravityMultiplier = 2
	sys.Add(sun)
	w := ecs.NewWorld()
	return w, sys, ecs.NewMap4[components.Position, components.Velocity, components.Actor, components.Thrust](w)
}

func TestGravitySystemUpdate(t *testing.T) {
	tests := []struct {
		name    string
		tracked bool
		thrust  components.Thrust
		wantVel mgl64.Vec3
	}{
		{"probe", false, components.Thrust{}, mgl64.Vec3{-0.001, 0, 0}},
		{"tracked uses multiplier", true, components.Thrust{}, mgl64.Vec3{-0.002, 0, 0}},
		{"thrust clamped to unit input", false, components.Thrust{Input: mgl64.Vec3{0, 2, 0}, Max: 3}, mgl64.Vec3{-0.001, 0.3, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, sys, mapper := newTestWorld(t)
			gs := NewGravitySystem(w, sys)

			pos := components.Position{P: mgl64.Vec3{10, 0, 0}}
			vel := components.Velocity{}
			actor := components.Actor{Name: "a", Tracked: tt.tracked, ReferenceBody: -1}
			e := mapper.NewEntity(&pos, &vel, &actor, &tt.thrust)

			if err := gs.Update(0.1); err != nil {
				t.Fatal(err)
			}
			p, v, a, _ := mapper.Get(e)
			if !vecNear(v.V, tt.wantVel, 1e-12) {
				t.Errorf("velocity = %v, want %v", v.V, tt.wantVel)
			}
			// Position uses the updated velocity.
			wantPos := mgl64.Vec3{10, 0, 0}.Add(tt.wantVel.Mul(0.1))
			if !vecNear(p.P, wantPos, 1e-12) {
				t.Errorf("position = %v, want %v", p.P, wantPos)
			}
			if a.ReferenceBody != 0 || math.Abs(a.NearestSurfaceDst-9) > 1e-12 {
				t.Errorf("reference = %d dst = %v, want 0 9", a.ReferenceBody, a.NearestSurfaceDst)
			}
		})
	}
}

func TestGravitySystemNearestSurface(t *testing.T) {
	w, sys, mapper := newTestWorld(t)
	big := nbody.NewBody("big", nbody.Planet, 1, 50, 1)
	big.Position = mgl64.Vec3{100, 0, 0}
	sys.Add(big)
	gs := NewGravitySystem(w, sys)

	// Closer to the sun's centre but nearer the big body's surface.
	pos := components.Position{P: mgl64.Vec3{40, 0, 0}}
	e := mapper.NewEntity(&pos, &components.Velocity{}, &components.Actor{}, &components.Thrust{})
	if err := gs.Update(0.01); err != nil {
		t.Fatal(err)
	}
	_, _, a, _ := mapper.Get(e)
	if a.ReferenceBody != 1 {
		t.Errorf("ReferenceBody = %d, want 1", a.ReferenceBody)
	}
}

func TestGravitySystemCoincident(t *testing.T) {
	w, sys, mapper := newTestWorld(t)
	gs := NewGravitySystem(w, sys)
	mapper.NewEntity(&components.Position{}, &components.Velocity{}, &components.Actor{Name: "inside"}, &components.Thrust{})
	if err := gs.Update(0.1); !errors.Is(err, nbody.ErrCoincident) {
		t.Errorf("err = %v, want ErrCoincident", err)
	}
}

func TestPositionShifter(t *testing.T) {
	w, _, mapper := newTestWorld(t)
	a := mapper.NewEntity(&components.Position{P: mgl64.Vec3{1500, 0, 0}}, &components.Velocity{V: mgl64.Vec3{0, 5, 0}}, &components.Actor{}, &components.Thrust{})
	b := mapper.NewEntity(&components.Position{P: mgl64.Vec3{1400, 10, 0}}, &components.Velocity{}, &components.Actor{}, &components.Thrust{})

	NewPositionShifter(w).ShiftOrigin(mgl64.Vec3{1500, 0, 0})

	pa, va, _, _ := mapper.Get(a)
	pb, _, _, _ := mapper.Get(b)
	if pa.P != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("a = %v, want origin", pa.P)
	}
	if pb.P.Sub(pa.P) != (mgl64.Vec3{-100, 10, 0}) {
		t.Errorf("relative vector changed: %v", pb.P.Sub(pa.P))
	}
	if va.V != (mgl64.Vec3{0, 5, 0}) {
		t.Errorf("velocity changed: %v", va.V)
	}
}

func TestPlaceAbove(t *testing.T) {
	b := nbody.NewBody("terra", nbody.Planet, 1, 100, 1)
	b.Position = mgl64.Vec3{10, 20, 30}
	b.Velocity = mgl64.Vec3{0, 0, 7}
	pos, vel := PlaceAbove(b)
	if pos != (mgl64.Vec3{10, 190, 30}) {
		t.Errorf("pos = %v, want {10 190 30}", pos)
	}
	if vel != b.Velocity {
		t.Errorf("vel = %v, want %v", vel, b.Velocity)
	}
}

func TestGravitySystemGroundContact(t *testing.T) {
	w, sys, mapper := newTestWorld(t)
	planet := nbody.NewBody("terra", nbody.Planet, 1, 10, 1)
	planet.Position = mgl64.Vec3{1000, 0, 0}
	planet.Velocity = mgl64.Vec3{0, 0, 3}
	sys.Add(planet)
	gs := NewGravitySystem(w, sys)

	// Just above the surface, falling inward and sliding sideways.
	pos := components.Position{P: mgl64.Vec3{1000, 10.01, 0}}
	vel := components.Velocity{V: mgl64.Vec3{1, -5, 3}}
	e := mapper.NewEntity(&pos, &vel, &components.Actor{Name: "lander"}, &components.Thrust{})
	if err := gs.Update(0.1); err != nil {
		t.Fatal(err)
	}
	p, v, a, _ := mapper.Get(e)
	if !a.Grounded {
		t.Fatal("actor not grounded after hitting the surface")
	}
	if got := p.P.Sub(planet.Position).Len(); math.Abs(got-10) > 1e-9 {
		t.Errorf("distance from centre = %v, want radius 10", got)
	}
	up := p.P.Sub(planet.Position).Normalize()
	if vn := v.V.Sub(planet.Velocity).Dot(up); vn < -1e-9 {
		t.Errorf("inward relative velocity %v survived contact", vn)
	}
}

func TestResolveContactKeepsTangential(t *testing.T) {
	tests := []struct {
		name   string
		offset mgl64.Vec3
		vel    mgl64.Vec3
	}{
		{"falling off-axis", mgl64.Vec3{2, 8, 4}, mgl64.Vec3{1, -5, 3}},
		{"rising inside", mgl64.Vec3{2, 8, 4}, mgl64.Vec3{0, 6, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, sys, _ := newTestWorld(t)
			planet := nbody.NewBody("terra", nbody.Planet, 1, 10, 1)
			planet.Position = mgl64.Vec3{1000, 0, 0}
			planet.Velocity = mgl64.Vec3{0, 0, 3}
			ref := sys.Add(planet)
			gs := NewGravitySystem(w, sys)

			pos := components.Position{P: planet.Position.Add(tt.offset)}
			vel := components.Velocity{V: tt.vel}
			n := tt.offset.Normalize()
			relBefore := tt.vel.Sub(planet.Velocity)
			tangential := relBefore.Sub(n.Mul(relBefore.Dot(n)))

			if !gs.resolveContact(&pos, &vel, ref) {
				t.Fatal("resolveContact() = false inside the surface")
			}
			if got := pos.P.Sub(planet.Position); !vecNear(got, n.Mul(10), 1e-12) {
				t.Errorf("contact point = %v, want %v", got, n.Mul(10))
			}
			rel := vel.V.Sub(planet.Velocity)
			if got := rel.Sub(n.Mul(rel.Dot(n))); !vecNear(got, tangential, 1e-12) {
				t.Errorf("tangential velocity = %v, want %v", got, tangential)
			}
			wantNormal := math.Max(relBefore.Dot(n), 0)
			if got := rel.Dot(n); math.Abs(got-wantNormal) > 1e-12 {
				t.Errorf("normal velocity = %v, want %v", got, wantNormal)
			}
		})
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
