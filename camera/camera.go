// Package camera provides an orbit camera around a tracked point.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// maxPitch keeps the eye off the poles where the up vector degenerates.
const maxPitch = 89.0

// Camera orbits Target at Distance, steered by yaw and pitch in degrees.
type Camera struct {
	// Target is the world point the camera looks at
	Target mgl64.Vec3

	Yaw, Pitch float64

	Distance                 float64
	MinDistance, MaxDistance float64

	// Vertical field of view in degrees
	FovY float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	defaultDistance, defaultPitch float64
}

// New creates a camera looking at the origin.
func New(viewportW, viewportH, distance, minDistance, maxDistance, pitch float64) *Camera {
	if minDistance <= 0 {
		minDistance = 1
	}
	if maxDistance < minDistance {
		maxDistance = minDistance
	}
	c := &Camera{
		FovY:            60,
		ViewportW:       viewportW,
		ViewportH:       viewportH,
		MinDistance:     minDistance,
		MaxDistance:     maxDistance,
		defaultDistance: distance,
		defaultPitch:    pitch,
	}
	c.Reset()
	return c
}

// Eye returns the camera position in world coordinates.
func (c *Camera) Eye() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	pitch := mgl64.DegToRad(c.Pitch)
	dir := mgl64.Vec3{
		math.Cos(pitch) * math.Sin(yaw),
		math.Sin(pitch),
		math.Cos(pitch) * math.Cos(yaw),
	}
	return c.Target.Add(dir.Mul(c.Distance))
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl64.Vec3 {
	return c.Target.Sub(c.Eye()).Normalize()
}

// Orbit rotates the eye around the target.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = mgl64.Clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy multiplies the current distance by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetDistance(c.Distance * factor)
}

// Follow moves the orbit target.
func (c *Camera) Follow(target mgl64.Vec3) {
	c.Target = target
}

// ShiftOrigin re-bases the target with the rest of the world.
func (c *Camera) ShiftOrigin(offset mgl64.Vec3) {
	c.Target = c.Target.Sub(offset)
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Reset returns the camera to the configured distance and pitch.
func (c *Camera) Reset() {
	c.Yaw = 0
	c.Pitch = mgl64.Clamp(c.defaultPitch, -maxPitch, maxPitch)
	c.SetDistance(c.defaultDistance)
}

// View returns the world-to-view matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix. Near and far scale with the
// orbit distance so both close surfaces and distant bodies fit.
func (c *Camera) Projection() mgl64.Mat4 {
	aspect := 1.0
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	near := math.Max(c.Distance*0.01, 0.01)
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, near, c.Distance*1e4)
}

// WorldToScreen projects a world point to screen pixels. ok is false for
// points behind the camera.
func (c *Camera) WorldToScreen(p mgl64.Vec3) (sx, sy float64, ok bool) {
	clip := c.Projection().Mul4(c.View()).Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	sx = (ndcX + 1) / 2 * c.ViewportW
	sy = (1 - ndcY) / 2 * c.ViewportH
	return sx, sy, true
}
