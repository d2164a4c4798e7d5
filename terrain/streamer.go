// Package terrain streams quad-sphere terrain patches for a planet with
// distance-based level of detail.
package terrain

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/orrery/cubesphere"
)

// Transform places a planet in the world.
type Transform struct {
	Center   mgl64.Vec3
	Rotation mgl64.Quat
	Radius   float64
}

// ToWorld maps a unit-radius local point to world space.
func (t Transform) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.Center.Add(t.Rotation.Rotate(local.Mul(t.Radius)))
}

// ToLocal maps a world point into the planet's frame, keeping world units.
func (t Transform) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Inverse().Rotate(world.Sub(t.Center))
}

// ActorView is the tracked actor as seen by one planet.
type ActorView struct {
	Position mgl64.Vec3
	OnBody   bool // the actor's reference body is this planet
}

// View is the per-frame input to a streamer.
type View struct {
	Camera mgl64.Vec3
	Actor  *ActorView
}

// FrameStats summarises one Update.
type FrameStats struct {
	Visible          int
	Built            int
	BuildFailures    int
	PoolSize         int
	InUse            int
	Collider         PatchKey
	HasCollider      bool
	ColliderSwitches int
}

// LogValue implements slog.LogValuer.
func (s FrameStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("visible", s.Visible),
		slog.Int("built", s.Built),
		slog.Int("build_failures", s.BuildFailures),
		slog.Int("pool", s.PoolSize),
		slog.Int("in_use", s.InUse),
	}
	if s.HasCollider {
		attrs = append(attrs, slog.String("collider", s.Collider.String()))
	}
	return slog.GroupValue(attrs...)
}

type node struct {
	patch    PatchID
	children *[4]*node
}

// frame holds per-update values shared by the recursive walk.
type frame struct {
	camDir mgl64.Vec3
	camOK  bool
	camAlt float64

	actorOn   bool
	actorDir  mgl64.Vec3
	actorAlt  float64
	actorFace int
	actorU    float64
	actorV    float64
}

// Streamer owns the six face quad-trees of one planet.
type Streamer struct {
	Name string

	settings Settings
	eval     HeightFieldEvaluator
	logger   *slog.Logger

	pool  *Pool
	roots [cubesphere.NumFaces]*node
	tris  []uint32

	tf       Transform
	visible  []PatchID
	collider PatchID

	evalVersion uint64
	evalFailed  bool
	stats       FrameStats
}

// NewStreamer creates a streamer with six level-0 leaves. A nil logger uses
// slog.Default().
func NewStreamer(name string, settings Settings, radius float64, eval HeightFieldEvaluator, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	settings = settings.Normalize(radius)
	s := &Streamer{
		Name:     name,
		settings: settings,
		eval:     eval,
		logger:   logger.With("planet", name),
		pool:     NewPool(cubesphere.NumFaces * 5),
		tris:     triangleTemplate(settings.PatchResolution),
		collider: NoPatch,
		tf:       Transform{Rotation: mgl64.QuatIdent(), Radius: radius},
	}
	if eval != nil {
		s.evalVersion = eval.Version()
	}
	for f := range s.roots {
		id := s.pool.Acquire()
		s.pool.Get(id).configure(PatchKey{Face: f})
		s.roots[f] = &node{patch: id}
	}
	return s
}

// Settings returns the normalised settings.
func (s *Streamer) Settings() Settings { return s.settings }

// Triangles returns the shared index template.
func (s *Streamer) Triangles() []uint32 { return s.tris }

// Transform returns the transform used by the last Update.
func (s *Streamer) Transform() Transform { return s.tf }

// Pool exposes the patch arena.
func (s *Streamer) Pool() *Pool { return s.pool }

// Stats returns the last frame's statistics.
func (s *Streamer) Stats() FrameStats { return s.stats }

// VisiblePatches returns the patches drawn this frame.
func (s *Streamer) VisiblePatches() []*Patch {
	out := make([]*Patch, len(s.visible))
	for i, id := range s.visible {
		out[i] = s.pool.Get(id)
	}
	return out
}

// ColliderPatch returns the patch carrying the collider, or nil.
func (s *Streamer) ColliderPatch() *Patch {
	if s.collider == NoPatch {
		return nil
	}
	return s.pool.Get(s.collider)
}

// Leaves returns the keys of every leaf node on a face, visible or culled.
func (s *Streamer) Leaves(face int) []PatchKey {
	var out []PatchKey
	var walk func(n *node)
	walk = func(n *node) {
		if n.children == nil {
			out = append(out, s.pool.Get(n.patch).Key)
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(s.roots[face])
	return out
}

// ShiftOrigin moves the cached transform and patch centres.
func (s *Streamer) ShiftOrigin(offset mgl64.Vec3) {
	s.tf.Center = s.tf.Center.Sub(offset)
	s.pool.Each(func(_ PatchID, p *Patch) {
		p.worldCenter = p.worldCenter.Sub(offset)
	})
}

// Update walks all six trees for one visual frame and picks the collider
// patch.
func (s *Streamer) Update(tf Transform, view View) FrameStats {
	s.tf = tf
	s.stats = FrameStats{}

	if s.eval != nil {
		if v := s.eval.Version(); v != s.evalVersion {
			s.evalVersion = v
			s.pool.Each(func(_ PatchID, p *Patch) { p.dirty = true })
		}
	}

	fr := s.frameFor(view)
	s.visible = s.visible[:0]
	for _, root := range s.roots {
		s.evaluate(root, &fr)
	}
	s.updateCollider(&fr)

	s.stats.Visible = len(s.visible)
	s.stats.PoolSize = s.pool.Len()
	s.stats.InUse = s.pool.InUse()
	if s.collider != NoPatch {
		s.stats.HasCollider = true
		s.stats.Collider = s.pool.Get(s.collider).Key
	}
	return s.stats
}

func (s *Streamer) frameFor(view View) frame {
	var fr frame
	radius := s.tf.Radius

	camLocal := s.tf.ToLocal(view.Camera)
	if l := camLocal.Len(); l > 1e-2 {
		fr.camDir = camLocal.Mul(1 / l)
		fr.camOK = true
		fr.camAlt = math.Max(0, l-radius)
	} else {
		fr.camDir = mgl64.Vec3{0, 1, 0}
		fr.camAlt = math.Inf(1)
	}

	if view.Actor != nil && view.Actor.OnBody {
		local := s.tf.ToLocal(view.Actor.Position)
		if l := local.Len(); l > 0 {
			fr.actorOn = true
			fr.actorDir = local.Mul(1 / l)
			fr.actorAlt = l - radius
			fr.actorFace, fr.actorU, fr.actorV, _ = cubesphere.DirectionToFaceUV(fr.actorDir)
		}
	}
	return fr
}

// evaluate decides the state of n for this frame. It reports false when the
// subtree could not produce any mesh to show.
func (s *Streamer) evaluate(n *node, fr *frame) bool {
	p := s.pool.Get(n.patch)
	p.worldCenter = s.tf.ToWorld(p.localCenter)
	centerDir := p.localCenter.Normalize()

	if fr.camOK && centerDir.Dot(fr.camDir) < s.settings.BacksideCullDot {
		p.visible = false
		s.releaseChildren(n)
		return true
	}

	if s.shouldSplit(p, centerDir, fr) && p.Key.Level < s.settings.MaxSubdivision {
		mark := len(s.visible)
		s.ensureChildren(n)
		ok := true
		for _, c := range n.children {
			if !s.evaluate(c, fr) {
				ok = false
				break
			}
		}
		if ok {
			p.visible = false
			return true
		}
		// A child had nothing to show; keep the coarser parent instead.
		s.visible = s.visible[:mark]
		s.releaseChildren(n)
	} else {
		s.releaseChildren(n)
	}
	return s.show(n.patch, p)
}

func (s *Streamer) shouldSplit(p *Patch, centerDir mgl64.Vec3, fr *frame) bool {
	radius := math.Max(s.tf.Radius, 1)
	if fr.camOK {
		angle := math.Acos(mgl64.Clamp(centerDir.Dot(fr.camDir), -1, 1))
		arc := angle * radius
		dist := math.Sqrt(arc*arc + fr.camAlt*fr.camAlt)
		if dist < s.settings.LODDistance(p.Key.Level, s.tf.Radius) {
			return true
		}
	}
	return fr.actorOn &&
		fr.actorAlt <= s.settings.PlayerCloseRange &&
		p.Key.Level < s.settings.ColliderSubdivision &&
		p.Key.Contains(fr.actorFace, fr.actorU, fr.actorV)
}

// show builds the patch if needed and marks it visible. A patch whose build
// fails keeps its previous mesh when it has one.
func (s *Streamer) show(id PatchID, p *Patch) bool {
	if p.dirty || !p.built {
		if err := p.build(s.eval, s.settings.PatchResolution, s.tris); err != nil {
			s.stats.BuildFailures++
			if !s.evalFailed {
				s.evalFailed = true
				s.logger.Warn("terrain generation failed", "patch", p.Key.String(), "error", err)
			}
			if !p.built {
				p.visible = false
				return false
			}
		} else {
			s.stats.Built++
			if s.evalFailed {
				s.evalFailed = false
				s.logger.Info("terrain generation recovered", "patch", p.Key.String())
			}
			p.worldCenter = s.tf.ToWorld(p.localCenter)
		}
	}
	p.visible = true
	s.visible = append(s.visible, id)
	return true
}

func (s *Streamer) ensureChildren(n *node) {
	if n.children != nil {
		return
	}
	keys := s.pool.Get(n.patch).Key.Children()
	var children [4]*node
	for i, k := range keys {
		id := s.pool.Acquire()
		child := s.pool.Get(id)
		child.configure(k)
		child.worldCenter = s.tf.ToWorld(child.localCenter)
		children[i] = &node{patch: id}
	}
	n.children = &children
}

// releaseChildren returns the whole subtree below n to the pool, deepest
// first.
func (s *Streamer) releaseChildren(n *node) {
	if n.children == nil {
		return
	}
	for _, c := range n.children {
		s.releaseChildren(c)
		if c.patch == s.collider {
			s.collider = NoPatch
		}
		s.pool.Release(c.patch)
	}
	n.children = nil
}

func (s *Streamer) updateCollider(fr *frame) {
	var (
		dir     mgl64.Vec3
		alt     float64
		face    int
		u, v    float64
		hasDirn bool
	)
	switch {
	case fr.actorOn:
		dir, alt = fr.actorDir, fr.actorAlt
		face, u, v = fr.actorFace, fr.actorU, fr.actorV
		hasDirn = true
	case fr.camOK:
		dir, alt = fr.camDir, fr.camAlt
		var err error
		face, u, v, err = cubesphere.DirectionToFaceUV(dir)
		hasDirn = err == nil
	}

	best := NoPatch
	if hasDirn && alt <= s.settings.ColliderActivationDistance {
		bestLevel := -1
		for _, id := range s.visible {
			p := s.pool.Get(id)
			if p.Key.Level > bestLevel && p.Key.Contains(face, u, v) {
				best, bestLevel = id, p.Key.Level
			}
		}
	}
	s.setCollider(best)
}

func (s *Streamer) setCollider(id PatchID) {
	if id == s.collider {
		return
	}
	if s.collider != NoPatch && s.pool.Live(s.collider) {
		s.pool.Get(s.collider).collider = false
	}
	if id != NoPatch {
		s.pool.Get(id).collider = true
	}
	s.collider = id
	s.stats.ColliderSwitches++
}
