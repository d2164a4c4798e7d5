package renderer

import (
	"math"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

// starDistance keeps the star shell inside raylib's default far plane.
const starDistance = 950

// BackgroundRenderer draws a fixed star field at infinity.
type BackgroundRenderer struct {
	dirs        []rl.Vector3
	colors      []rl.Color
	count       int
	seed        int64
	initialized bool
}

// NewBackgroundRenderer creates a star field with count stars.
func NewBackgroundRenderer(count int, seed int64) *BackgroundRenderer {
	return &BackgroundRenderer{count: count, seed: seed}
}

// Init places the stars uniformly on the sky.
func (b *BackgroundRenderer) Init() {
	if b.initialized {
		return
	}
	rng := rand.New(rand.NewSource(b.seed))
	b.dirs = make([]rl.Vector3, b.count)
	b.colors = make([]rl.Color, b.count)
	for i := range b.dirs {
		z := 2*rng.Float64() - 1
		phi := 2 * math.Pi * rng.Float64()
		r := math.Sqrt(1 - z*z)
		d := mgl64.Vec3{r * math.Cos(phi), r * math.Sin(phi), z}.Mul(starDistance)
		b.dirs[i] = rl.Vector3{X: float32(d[0]), Y: float32(d[1]), Z: float32(d[2])}

		lum := uint8(120 + rng.Intn(136))
		b.colors[i] = rl.Color{R: lum, G: lum, B: uint8(min(255, int(lum)+20)), A: 255}
	}
	b.initialized = true
}

// Draw renders the stars. Must be called inside camera-relative 3D mode.
func (b *BackgroundRenderer) Draw() {
	if !b.initialized {
		b.Init()
	}
	for i, d := range b.dirs {
		rl.DrawPoint3D(d, b.colors[i])
	}
}

// Unload frees resources.
func (b *BackgroundRenderer) Unload() {
	b.dirs, b.colors = nil, nil
	b.initialized = false
}
