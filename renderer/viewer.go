// Package renderer draws a debug view of the simulation with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/nbody"
	"github.com/pthm-cable/orrery/terrain"
)

// BodyView is one body to draw.
type BodyView struct {
	Name   string
	Type   nbody.BodyType
	Center mgl64.Vec3
	Radius float64
	Meshed bool // terrain patches replace the sphere
}

// TerrainView is one planet's streamed terrain.
type TerrainView struct {
	Transform terrain.Transform
	Patches   []*terrain.Patch
	Triangles []uint32
}

// Scene is everything drawn in one frame, in world coordinates.
type Scene struct {
	Eye, Target mgl64.Vec3
	FovY        float64

	Bodies  []BodyView
	Terrain []TerrainView
	Player  mgl64.Vec3
	Probes  []mgl64.Vec3
	Path    []mgl64.Vec3

	ShowPath     bool
	ShowWire     bool
	ShowCollider bool

	// Overlay draws 2D elements after the 3D pass.
	Overlay func()
}

// farLimit is the largest camera-relative distance drawn unscaled. raylib's
// default far plane sits at 1000.
const farLimit = 900

// Viewer renders scenes relative to the camera so float32 vertices stay
// precise however far the world extends. When bodies lie beyond the far
// plane the whole scene is scaled about the eye, which leaves the projected
// image unchanged.
type Viewer struct {
	width, height int32
	lightDir      mgl64.Vec3
	scale         float64
	stars         *BackgroundRenderer
}

// NewViewer creates a viewer. The raylib window must already be open.
func NewViewer(width, height int32) *Viewer {
	return &Viewer{
		width:    width,
		height:   height,
		lightDir: mgl64.Vec3{-0.5, 0.8, 0.3}.Normalize(),
		scale:    1,
		stars:    NewBackgroundRenderer(1500, 7),
	}
}

// Resize updates the viewport.
func (v *Viewer) Resize(width, height int32) {
	v.width, v.height = width, height
}

// Unload releases resources.
func (v *Viewer) Unload() {
	v.stars.Unload()
}

// fitScale returns the factor that brings the farthest body inside the far
// plane.
func fitScale(s Scene) float64 {
	far := s.Target.Sub(s.Eye).Len()
	for _, b := range s.Bodies {
		if d := b.Center.Sub(s.Eye).Len() + b.Radius; d > far {
			far = d
		}
	}
	if far <= farLimit {
		return 1
	}
	return farLimit / far
}

// Draw renders one frame.
func (v *Viewer) Draw(s Scene) {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 6, G: 8, B: 16, A: 255})
	v.scale = fitScale(s)

	cam := rl.Camera3D{
		Position:   rl.Vector3{},
		Target:     v.local(s.Target, s.Eye),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       float32(s.FovY),
		Projection: rl.CameraPerspective,
	}
	rl.BeginMode3D(cam)
	v.stars.Draw()

	for _, b := range s.Bodies {
		if b.Meshed {
			continue
		}
		rl.DrawSphere(v.local(b.Center, s.Eye), float32(b.Radius*v.scale), bodyColor(b.Type))
	}
	for _, t := range s.Terrain {
		v.drawTerrain(t, s)
	}
	if s.ShowPath {
		v.drawPath(s.Path, s.Eye)
	}
	for _, p := range s.Probes {
		rl.DrawSphere(v.local(p, s.Eye), float32(2*v.scale), rl.SkyBlue)
	}
	rl.DrawSphere(v.local(s.Player, s.Eye), float32(1.5*v.scale), rl.Orange)

	rl.EndMode3D()

	if s.Overlay != nil {
		s.Overlay()
	}
	rl.EndDrawing()
}

func (v *Viewer) drawTerrain(t TerrainView, s Scene) {
	for _, p := range t.Patches {
		if len(p.Positions) == 0 {
			continue
		}
		tint := rl.Color{R: 90, G: 140, B: 80, A: 255}
		if s.ShowCollider && p.ColliderEnabled() {
			tint = rl.Color{R: 220, G: 80, B: 60, A: 255}
		}
		for i := 0; i+2 < len(t.Triangles); i += 3 {
			i0, i1, i2 := t.Triangles[i], t.Triangles[i+1], t.Triangles[i+2]
			a := v.local(t.Transform.ToWorld(p.Positions[i0]), s.Eye)
			b := v.local(t.Transform.ToWorld(p.Positions[i1]), s.Eye)
			c := v.local(t.Transform.ToWorld(p.Positions[i2]), s.Eye)
			if s.ShowWire {
				rl.DrawLine3D(a, b, tint)
				rl.DrawLine3D(b, c, tint)
				rl.DrawLine3D(c, a, tint)
				continue
			}
			n := t.Transform.Rotation.Rotate(p.Normals[i0])
			rl.DrawTriangle3D(a, b, c, v.shade(tint, n, p.Shading[i0][3]))
		}
	}
}

func (v *Viewer) drawPath(path []mgl64.Vec3, eye mgl64.Vec3) {
	for i := 1; i < len(path); i++ {
		rl.DrawLine3D(v.local(path[i-1], eye), v.local(path[i], eye), rl.Yellow)
	}
}

// shade applies a Lambert term and darkens low elevations.
func (v *Viewer) shade(c rl.Color, normal mgl64.Vec3, elevation float64) rl.Color {
	light := 0.25 + 0.75*mgl64.Clamp(normal.Dot(v.lightDir), 0, 1)
	light *= 0.8 + 0.2*mgl64.Clamp(elevation+0.5, 0, 1)
	return rl.Color{
		R: uint8(float64(c.R) * light),
		G: uint8(float64(c.G) * light),
		B: uint8(float64(c.B) * light),
		A: c.A,
	}
}

// local converts a world point to scaled camera-relative float32
// coordinates.
func (v *Viewer) local(p, eye mgl64.Vec3) rl.Vector3 {
	d := p.Sub(eye).Mul(v.scale)
	return rl.Vector3{X: float32(d[0]), Y: float32(d[1]), Z: float32(d[2])}
}

func bodyColor(t nbody.BodyType) rl.Color {
	switch t {
	case nbody.Sun:
		return rl.Color{R: 255, G: 210, B: 120, A: 255}
	case nbody.Moon:
		return rl.Color{R: 170, G: 170, B: 175, A: 255}
	default:
		return rl.Color{R: 80, G: 120, B: 200, A: 255}
	}
}
