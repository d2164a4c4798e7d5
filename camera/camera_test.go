package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 400, 5, 50000, 20)

	if cam.Distance != 400 || cam.Pitch != 20 || cam.Yaw != 0 {
		t.Errorf("got distance %v pitch %v yaw %v", cam.Distance, cam.Pitch, cam.Yaw)
	}
	if got := cam.Eye().Sub(cam.Target).Len(); math.Abs(got-400) > 1e-9 {
		t.Errorf("eye distance = %v, want 400", got)
	}
}

func TestEyeDirections(t *testing.T) {
	tests := []struct {
		name       string
		yaw, pitch float64
		want       mgl64.Vec3
	}{
		{"front", 0, 0, mgl64.Vec3{0, 0, 10}},
		{"right", 90, 0, mgl64.Vec3{10, 0, 0}},
		{"above", 0, 89, mgl64.Vec3{0, 10 * math.Sin(mgl64.DegToRad(89)), 10 * math.Cos(mgl64.DegToRad(89))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := New(800, 600, 10, 1, 100, 0)
			cam.Yaw, cam.Pitch = tt.yaw, tt.pitch
			if got := cam.Eye(); !vecNear(got, tt.want, 1e-9) {
				t.Errorf("Eye() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	cam := New(800, 600, 10, 1, 100, 0)
	cam.Orbit(370, 200)
	if cam.Pitch != maxPitch {
		t.Errorf("Pitch = %v, want %v", cam.Pitch, maxPitch)
	}
	if math.Abs(cam.Yaw-10) > 1e-9 {
		t.Errorf("Yaw = %v, want 10", cam.Yaw)
	}
	cam.Orbit(0, -500)
	if cam.Pitch != -maxPitch {
		t.Errorf("Pitch = %v, want %v", cam.Pitch, -maxPitch)
	}
}

func TestZoomClamps(t *testing.T) {
	cam := New(800, 600, 10, 5, 20, 0)
	cam.ZoomBy(0.1)
	if cam.Distance != 5 {
		t.Errorf("Distance = %v, want 5", cam.Distance)
	}
	cam.ZoomBy(100)
	if cam.Distance != 20 {
		t.Errorf("Distance = %v, want 20", cam.Distance)
	}
	cam.Reset()
	if cam.Distance != 10 {
		t.Errorf("Distance after Reset = %v, want 10", cam.Distance)
	}
}

func TestFollowAndShift(t *testing.T) {
	cam := New(800, 600, 10, 1, 100, 30)
	cam.Follow(mgl64.Vec3{2000, 0, 0})
	before := cam.Eye().Sub(cam.Target)
	cam.ShiftOrigin(mgl64.Vec3{2000, 0, 0})
	if cam.Target != (mgl64.Vec3{}) {
		t.Errorf("Target = %v, want origin", cam.Target)
	}
	if after := cam.Eye().Sub(cam.Target); !vecNear(after, before, 1e-9) {
		t.Errorf("eye offset changed: %v -> %v", before, after)
	}
}

func TestWorldToScreen(t *testing.T) {
	cam := New(1280, 720, 100, 1, 1000, 0)

	// The target maps to the screen centre.
	sx, sy, ok := cam.WorldToScreen(cam.Target)
	if !ok || math.Abs(sx-640) > 0.01 || math.Abs(sy-360) > 0.01 {
		t.Errorf("target -> (%v, %v, %v), want (640, 360, true)", sx, sy, ok)
	}

	// A point above the target is above the centre on screen.
	_, sy, ok = cam.WorldToScreen(mgl64.Vec3{0, 10, 0})
	if !ok || sy >= 360 {
		t.Errorf("point above target at sy = %v", sy)
	}

	// Behind the eye is not visible.
	if _, _, ok := cam.WorldToScreen(mgl64.Vec3{0, 0, 300}); ok {
		t.Error("point behind camera reported visible")
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
