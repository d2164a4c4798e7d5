package heightfield

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/cubesphere"
)

func testShape() Shape {
	return Shape{Seed: 3, Octaves: 4, Frequency: 1.5, Lacunarity: 2, Persistence: 0.5, Strength: 0.05, OceanDepth: 0.2}
}

func TestEvaluateBeforeConfigure(t *testing.T) {
	n := New()
	err := n.Evaluate([]mgl64.Vec3{{1, 0, 0}}, make([]float64, 1), make([]mgl64.Vec4, 1))
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestConfigureBumpsVersion(t *testing.T) {
	n := New()
	if n.Version() != 0 {
		t.Fatalf("initial Version() = %d", n.Version())
	}
	n.Configure(testShape(), Shading{Seed: 1})
	n.Configure(testShape(), Shading{Seed: 2})
	if n.Version() != 2 {
		t.Errorf("Version() = %d, want 2", n.Version())
	}
}

func TestParamsAppliesDefaults(t *testing.T) {
	n := New()
	n.Configure(Shape{Seed: 9}, Shading{Seed: 4})
	shape, shading := n.Params()
	if shape.Seed != 9 || shape.Octaves != 1 || shape.Lacunarity != 2 || shape.Persistence != 0.5 || shape.Frequency != 1 {
		t.Errorf("shape = %+v, want seed 9 with defaults filled", shape)
	}
	if shading.Seed != 4 || shading.Frequency != 1 {
		t.Errorf("shading = %+v, want seed 4 frequency 1", shading)
	}
}

func TestEvaluateBounds(t *testing.T) {
	n := New()
	shape := testShape()
	n.Configure(shape, Shading{Seed: 9, Frequency: 4})

	var dirs []mgl64.Vec3
	for face := 0; face < cubesphere.NumFaces; face++ {
		for i := 0; i <= 8; i++ {
			for j := 0; j <= 8; j++ {
				dirs = append(dirs, cubesphere.CubeToSphere(face, float64(i)/8, float64(j)/8))
			}
		}
	}
	heights := make([]float64, len(dirs))
	shading := make([]mgl64.Vec4, len(dirs))
	if err := n.Evaluate(dirs, heights, shading); err != nil {
		t.Fatal(err)
	}
	lo := 1 - shape.Strength*shape.OceanDepth
	hi := 1 + shape.Strength
	for i, h := range heights {
		if h < lo-1e-12 || h > hi+1e-12 {
			t.Errorf("height[%d] = %v, outside [%v, %v]", i, h, lo, hi)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	a, b := New(), New()
	a.Configure(testShape(), Shading{Seed: 5})
	b.Configure(testShape(), Shading{Seed: 5})

	dirs := []mgl64.Vec3{{1, 2, 3}, {-4, 0.5, 1}, {0, 0, -1}}
	ha, hb := make([]float64, 3), make([]float64, 3)
	sa, sb := make([]mgl64.Vec4, 3), make([]mgl64.Vec4, 3)
	if err := a.Evaluate(dirs, ha, sa); err != nil {
		t.Fatal(err)
	}
	if err := b.Evaluate(dirs, hb, sb); err != nil {
		t.Fatal(err)
	}
	for i := range dirs {
		if ha[i] != hb[i] || sa[i] != sb[i] {
			t.Errorf("dir %d: evaluators disagree", i)
		}
	}

	// Unnormalised directions give the same result as their unit vector.
	hn := make([]float64, 1)
	sn := make([]mgl64.Vec4, 1)
	if err := a.Evaluate([]mgl64.Vec3{dirs[0].Normalize()}, hn, sn); err != nil {
		t.Fatal(err)
	}
	if d := hn[0] - ha[0]; d > 1e-12 || d < -1e-12 {
		t.Errorf("normalised height %v != %v", hn[0], ha[0])
	}
}

func TestEvaluateErrors(t *testing.T) {
	n := New()
	n.Configure(testShape(), Shading{})

	tests := []struct {
		name    string
		dirs    []mgl64.Vec3
		heights int
		shading int
		want    error
	}{
		{"zero direction", []mgl64.Vec3{{1, 0, 0}, {}}, 2, 2, cubesphere.ErrZeroDirection},
		{"short heights", []mgl64.Vec3{{1, 0, 0}}, 0, 1, ErrLengthMismatch},
		{"short shading", []mgl64.Vec3{{1, 0, 0}}, 1, 0, ErrLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := n.Evaluate(tt.dirs, make([]float64, tt.heights), make([]mgl64.Vec4, tt.shading))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
