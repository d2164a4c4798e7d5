package origin

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type points struct {
	p []mgl64.Vec3
	v []mgl64.Vec3
}

func (s *points) ShiftOrigin(offset mgl64.Vec3) {
	for i := range s.p {
		s.p[i] = s.p[i].Sub(offset)
	}
}

func TestThresholdScenario(t *testing.T) {
	tests := []struct {
		name      string
		viewpoint mgl64.Vec3
		want      bool
	}{
		{"over threshold", mgl64.Vec3{1001, 0, 0}, true},
		{"under threshold", mgl64.Vec3{999, 0, 0}, false},
		{"exactly threshold", mgl64.Vec3{0, 1000, 0}, false},
		{"diagonal over", mgl64.Vec3{600, 600, 600}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(1000, nil)
			_, shifted := c.Update(tt.viewpoint)
			if shifted != tt.want {
				t.Errorf("Update(%v) shifted = %v, want %v", tt.viewpoint, shifted, tt.want)
			}
			want := 0
			if tt.want {
				want = 1
			}
			if c.Events() != want {
				t.Errorf("Events() = %d, want %d", c.Events(), want)
			}
		})
	}
}

func TestOneEventPerTickWhileOver(t *testing.T) {
	c := NewController(1000, nil)
	for tick := 1; tick <= 5; tick++ {
		if _, ok := c.Update(mgl64.Vec3{1001, 0, 0}); !ok {
			t.Fatalf("tick %d: expected rebase", tick)
		}
		if c.Events() != tick {
			t.Fatalf("tick %d: Events() = %d", tick, c.Events())
		}
	}
	for tick := 0; tick < 5; tick++ {
		c.Update(mgl64.Vec3{10, 0, 0})
	}
	if c.Events() != 5 {
		t.Errorf("Events() = %d after under-threshold ticks, want 5", c.Events())
	}
}

func TestRelativeGeometryPreserved(t *testing.T) {
	a := &points{p: []mgl64.Vec3{{1500, 20, -3}, {1200, 400, 7}}, v: []mgl64.Vec3{{1, 2, 3}, {4, 5, 6}}}
	b := &points{p: []mgl64.Vec3{{-50, 1, 9}}}

	c := NewController(1000, nil)
	c.Register("a", a)
	c.Register("b", b)

	before := []mgl64.Vec3{
		a.p[0].Sub(a.p[1]),
		a.p[0].Sub(b.p[0]),
		a.p[1].Sub(b.p[0]),
	}

	ev, ok := c.Update(a.p[0])
	if !ok {
		t.Fatal("expected rebase")
	}
	if ev.Offset != (mgl64.Vec3{1500, 20, -3}) {
		t.Errorf("offset = %v", ev.Offset)
	}
	if a.p[0] != (mgl64.Vec3{}) {
		t.Errorf("viewpoint not at origin after shift: %v", a.p[0])
	}

	after := []mgl64.Vec3{
		a.p[0].Sub(a.p[1]),
		a.p[0].Sub(b.p[0]),
		a.p[1].Sub(b.p[0]),
	}
	for i := range before {
		if !vecNear(before[i], after[i], 1e-9) {
			t.Errorf("relative vector %d changed: %v -> %v", i, before[i], after[i])
		}
	}
	if a.v[0] != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("velocity modified: %v", a.v[0])
	}
}

func TestOffsetCapturedOnce(t *testing.T) {
	// The first target moves the viewpoint itself; later targets must still
	// see the original offset.
	view := mgl64.Vec3{2000, 0, 0}
	var seen []mgl64.Vec3
	c := NewController(1000, nil)
	c.Register("view", ShiftFunc(func(o mgl64.Vec3) {
		view = view.Sub(o)
		seen = append(seen, o)
	}))
	c.Register("other", ShiftFunc(func(o mgl64.Vec3) { seen = append(seen, o) }))

	var listened Event
	c.OnShift(func(ev Event) { listened = ev })

	c.Update(view)
	if len(seen) != 2 || seen[0] != seen[1] {
		t.Fatalf("targets saw different offsets: %v", seen)
	}
	if listened.Offset != seen[0] {
		t.Errorf("listener offset = %v, want %v", listened.Offset, seen[0])
	}
	if got := c.Targets(); len(got) != 2 || got[0] != "view" || got[1] != "other" {
		t.Errorf("Targets() = %v", got)
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
