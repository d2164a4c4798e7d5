// Package heightfield provides a CPU height and shading evaluator for
// quad-sphere terrain built from OpenSimplex fractal noise.
package heightfield

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/orrery/cubesphere"
)

var (
	// ErrNotConfigured is returned by Evaluate before Configure was called.
	ErrNotConfigured = errors.New("heightfield: shape not configured")
	// ErrLengthMismatch is returned when output slices differ in length from
	// the input directions.
	ErrLengthMismatch = errors.New("heightfield: output length mismatch")
)

// Shape parameterises the elevation fBm.
type Shape struct {
	Seed        int64   `yaml:"seed"`
	Octaves     int     `yaml:"octaves"`
	Frequency   float64 `yaml:"frequency"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Persistence float64 `yaml:"persistence"`
	Strength    float64 `yaml:"strength"`    // height as a fraction of the radius
	OceanDepth  float64 `yaml:"ocean_depth"` // floor for negative noise
}

// Shading parameterises the per-vertex shading channels.
type Shading struct {
	Seed      int64   `yaml:"seed"`
	Frequency float64 `yaml:"frequency"`
}

// Noise evaluates unit-radius heights and shading vectors.
type Noise struct {
	shape   Shape
	shading Shading

	elevation opensimplex.Noise
	detail    [3]opensimplex.Noise

	configured bool
	version    uint64
}

// New returns an unconfigured evaluator.
func New() *Noise {
	return &Noise{}
}

// Configure replaces the parameters and bumps the version so terrain built
// from older parameters is regenerated.
func (n *Noise) Configure(shape Shape, shading Shading) {
	if shape.Octaves < 1 {
		shape.Octaves = 1
	}
	if shape.Lacunarity == 0 {
		shape.Lacunarity = 2
	}
	if shape.Persistence == 0 {
		shape.Persistence = 0.5
	}
	if shape.Frequency == 0 {
		shape.Frequency = 1
	}
	if shading.Frequency == 0 {
		shading.Frequency = 1
	}
	n.shape = shape
	n.shading = shading
	n.elevation = opensimplex.New(shape.Seed)
	for i := range n.detail {
		n.detail[i] = opensimplex.New(shading.Seed + int64(i)*7919)
	}
	n.configured = true
	n.version++
}

// Params returns the parameters last passed to Configure, after defaults.
func (n *Noise) Params() (Shape, Shading) { return n.shape, n.shading }

// Version changes every time Configure is called.
func (n *Noise) Version() uint64 { return n.version }

// Evaluate fills heights and shading for each direction. Heights are
// multiples of the planet radius, 1 being the base sphere.
func (n *Noise) Evaluate(dirs []mgl64.Vec3, heights []float64, shading []mgl64.Vec4) error {
	if !n.configured {
		return ErrNotConfigured
	}
	if len(heights) != len(dirs) || len(shading) != len(dirs) {
		return fmt.Errorf("%w: %d directions, %d heights, %d shading", ErrLengthMismatch, len(dirs), len(heights), len(shading))
	}
	for i, d := range dirs {
		l := d.Len()
		if l == 0 || math.IsNaN(l) {
			return fmt.Errorf("direction %d: %w", i, cubesphere.ErrZeroDirection)
		}
		d = d.Mul(1 / l)

		e := n.fbm(d)
		if e < -n.shape.OceanDepth {
			e = -n.shape.OceanDepth
		}
		h := 1 + n.shape.Strength*e
		heights[i] = h

		f := n.shading.Frequency
		shading[i] = mgl64.Vec4{
			n.detail[0].Eval3(d[0]*f, d[1]*f, d[2]*f),
			n.detail[1].Eval3(d[0]*f, d[1]*f, d[2]*f),
			n.detail[2].Eval3(d[0]*f, d[1]*f, d[2]*f),
			e,
		}
	}
	return nil
}

// fbm sums octaves of noise, normalised to roughly [-1, 1].
func (n *Noise) fbm(d mgl64.Vec3) float64 {
	var sum, norm float64
	amp := 1.0
	freq := n.shape.Frequency
	for o := 0; o < n.shape.Octaves; o++ {
		sum += amp * n.elevation.Eval3(d[0]*freq, d[1]*freq, d[2]*freq)
		norm += amp
		amp *= n.shape.Persistence
		freq *= n.shape.Lacunarity
	}
	return sum / norm
}
