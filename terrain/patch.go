package terrain

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/cubesphere"
)

// HeightFieldEvaluator samples terrain for a batch of unit directions.
// heights and shading have the same length as dirs. Version changes whenever
// the evaluator's parameters change so built meshes can be invalidated.
type HeightFieldEvaluator interface {
	Evaluate(dirs []mgl64.Vec3, heights []float64, shading []mgl64.Vec4) error
	Version() uint64
}

// ErrNoEvaluator is returned when a streamer has no height field to sample.
var ErrNoEvaluator = errors.New("terrain: no height field evaluator")

// Patch is one renderable terrain tile. Positions are in the planet's local
// frame at unit radius.
type Patch struct {
	Key PatchKey

	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	Shading   []mgl64.Vec4

	dirs    []mgl64.Vec3
	heights []float64

	visible  bool
	collider bool
	dirty    bool
	built    bool

	localCenter mgl64.Vec3
	worldCenter mgl64.Vec3
}

// Visible reports whether the patch is drawn this frame.
func (p *Patch) Visible() bool { return p.visible }

// ColliderEnabled reports whether this patch carries the planet's collider.
func (p *Patch) ColliderEnabled() bool { return p.collider }

// Dirty reports whether the mesh must be regenerated.
func (p *Patch) Dirty() bool { return p.dirty }

// Built reports whether the patch holds a mesh, possibly a stale one.
func (p *Patch) Built() bool { return p.built }

// LocalCenter is the mesh centroid at unit radius.
func (p *Patch) LocalCenter() mgl64.Vec3 { return p.localCenter }

// WorldCenter is the cached world-space centre from the last update.
func (p *Patch) WorldCenter() mgl64.Vec3 { return p.worldCenter }

// configure resets the patch for a new key.
func (p *Patch) configure(key PatchKey) {
	p.Key = key
	p.visible = false
	p.collider = false
	p.dirty = true
	p.built = false
	u0, v0, size := key.Rect()
	p.localCenter = cubesphere.CubeToSphere(key.Face, u0+size/2, v0+size/2)
	p.worldCenter = mgl64.Vec3{}
}

func (p *Patch) reset() {
	p.visible = false
	p.collider = false
	p.dirty = false
	p.built = false
}

// build regenerates the mesh from eval. On failure the previous mesh, if
// any, is left untouched.
func (p *Patch) build(eval HeightFieldEvaluator, res int, tris []uint32) error {
	if eval == nil {
		return ErrNoEvaluator
	}
	n := res + 1
	count := n * n
	if cap(p.dirs) < count {
		p.dirs = make([]mgl64.Vec3, count)
		p.heights = make([]float64, count)
	}
	dirs := p.dirs[:count]
	heights := p.heights[:count]
	shading := make([]mgl64.Vec4, count)

	u0, v0, size := p.Key.Rect()
	for j := 0; j < n; j++ {
		v := v0 + size*float64(j)/float64(res)
		for i := 0; i < n; i++ {
			u := u0 + size*float64(i)/float64(res)
			dirs[j*n+i] = cubesphere.CubeToSphere(p.Key.Face, u, v)
		}
	}

	if err := eval.Evaluate(dirs, heights, shading); err != nil {
		return fmt.Errorf("building patch %s: %w", p.Key, err)
	}

	if cap(p.Positions) < count {
		p.Positions = make([]mgl64.Vec3, count)
		p.Normals = make([]mgl64.Vec3, count)
	}
	p.Positions = p.Positions[:count]
	p.Normals = p.Normals[:count]
	p.Shading = shading

	var sum mgl64.Vec3
	for k, d := range dirs {
		p.Positions[k] = d.Mul(heights[k])
		sum = sum.Add(p.Positions[k])
	}
	computeNormals(p.Positions, tris, p.Normals)

	centroid := sum.Mul(1 / float64(count))
	if centroid.Len() > 1e-9 {
		p.localCenter = centroid
	}
	p.dirty = false
	p.built = true
	return nil
}

// triangleTemplate returns the index list shared by every patch of a given
// resolution. Each quad emits (i0, i1, i2) and (i1, i3, i2), which winds
// counter-clockwise when seen from outside on every face.
func triangleTemplate(res int) []uint32 {
	n := res + 1
	tris := make([]uint32, 0, res*res*6)
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			i0 := uint32(y*n + x)
			i1 := i0 + 1
			i2 := i0 + uint32(n)
			i3 := i2 + 1
			tris = append(tris, i0, i1, i2, i1, i3, i2)
		}
	}
	return tris
}

// computeNormals writes area-weighted vertex normals into out.
func computeNormals(pos []mgl64.Vec3, tris []uint32, out []mgl64.Vec3) {
	for i := range out {
		out[i] = mgl64.Vec3{}
	}
	for t := 0; t+2 < len(tris); t += 3 {
		a, b, c := tris[t], tris[t+1], tris[t+2]
		n := pos[b].Sub(pos[a]).Cross(pos[c].Sub(pos[a]))
		out[a] = out[a].Add(n)
		out[b] = out[b].Add(n)
		out[c] = out[c].Add(n)
	}
	for i, n := range out {
		if l := n.Len(); l > 0 {
			out[i] = n.Mul(1 / l)
		} else {
			out[i] = pos[i].Normalize()
		}
	}
}
