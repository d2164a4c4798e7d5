package terrain

import (
	"fmt"

	"github.com/pthm-cable/orrery/cubesphere"
)

// PatchKey addresses one quad-tree node on a cube face. X and Y lie in
// [0, 2^Level).
type PatchKey struct {
	Face  int
	Level int
	X, Y  int
}

func (k PatchKey) String() string {
	return fmt.Sprintf("f%d/L%d/%d,%d", k.Face, k.Level, k.X, k.Y)
}

// Children returns the four keys one level down in (x, y) order
// (0,0) (1,0) (0,1) (1,1).
func (k PatchKey) Children() [4]PatchKey {
	l := k.Level + 1
	x, y := k.X*2, k.Y*2
	return [4]PatchKey{
		{k.Face, l, x, y},
		{k.Face, l, x + 1, y},
		{k.Face, l, x, y + 1},
		{k.Face, l, x + 1, y + 1},
	}
}

// Rect returns the UV origin and edge length of the key on its face.
func (k PatchKey) Rect() (u0, v0, size float64) {
	size = 1 / float64(int(1)<<k.Level)
	return float64(k.X) * size, float64(k.Y) * size, size
}

// Contains reports whether the face UV point belongs to this patch under the
// half-open cell rule of cubesphere.Cell.
func (k PatchKey) Contains(face int, u, v float64) bool {
	if face != k.Face {
		return false
	}
	x, y := cubesphere.Cell(u, v, k.Level)
	return x == k.X && y == k.Y
}

// Valid reports whether the key lies inside its face.
func (k PatchKey) Valid() bool {
	if k.Face < 0 || k.Face >= cubesphere.NumFaces || k.Level < 0 {
		return false
	}
	n := 1 << k.Level
	return k.X >= 0 && k.X < n && k.Y >= 0 && k.Y < n
}
