// Package cubesphere maps between unit-sphere directions and cube face
// coordinates.
//
// Face order is +X, -X, +Y, -Y, +Z, -Z. Each face is parameterised by
// (u, v) in [0,1]²; x = 2u-1 and y = 2v-1 are placed on the face before the
// point is projected onto the unit sphere.
package cubesphere

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NumFaces is the number of cube faces.
const NumFaces = 6

// Face indices.
const (
	PosX = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

// ErrZeroDirection is returned when a direction has no length to project.
var ErrZeroDirection = errors.New("cubesphere: zero-length direction")

var faceNormals = [NumFaces]mgl64.Vec3{
	{1, 0, 0},
	{-1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
}

// FaceNormal returns the outward axis of a face.
func FaceNormal(face int) mgl64.Vec3 {
	return faceNormals[face]
}

// CubePoint returns the unnormalised point on the [-1,1]³ cube surface.
func CubePoint(face int, u, v float64) mgl64.Vec3 {
	x := u*2 - 1
	y := v*2 - 1
	switch face {
	case PosX:
		return mgl64.Vec3{1, y, -x}
	case NegX:
		return mgl64.Vec3{-1, y, x}
	case PosY:
		return mgl64.Vec3{x, 1, -y}
	case NegY:
		return mgl64.Vec3{x, -1, y}
	case PosZ:
		return mgl64.Vec3{x, y, 1}
	default:
		return mgl64.Vec3{-x, y, -1}
	}
}

// CubeToSphere maps a face UV to a unit direction.
func CubeToSphere(face int, u, v float64) mgl64.Vec3 {
	return CubePoint(face, u, v).Normalize()
}

// DirectionToFaceUV is the inverse of CubeToSphere. The direction need not be
// normalised. Ties between axes of equal magnitude resolve to X, then Y,
// then Z so every direction lands on exactly one face.
func DirectionToFaceUV(dir mgl64.Vec3) (face int, u, v float64, err error) {
	ax, ay, az := math.Abs(dir[0]), math.Abs(dir[1]), math.Abs(dir[2])
	if ax == 0 && ay == 0 && az == 0 {
		return 0, 0, 0, ErrZeroDirection
	}
	if math.IsNaN(ax) || math.IsNaN(ay) || math.IsNaN(az) {
		return 0, 0, 0, ErrZeroDirection
	}

	var x, y float64
	switch {
	case ax >= ay && ax >= az:
		if dir[0] >= 0 {
			face, x, y = PosX, -dir[2]/ax, dir[1]/ax
		} else {
			face, x, y = NegX, dir[2]/ax, dir[1]/ax
		}
	case ay >= az:
		if dir[1] >= 0 {
			face, x, y = PosY, dir[0]/ay, -dir[2]/ay
		} else {
			face, x, y = NegY, dir[0]/ay, dir[2]/ay
		}
	default:
		if dir[2] >= 0 {
			face, x, y = PosZ, dir[0]/az, dir[1]/az
		} else {
			face, x, y = NegZ, -dir[0]/az, dir[1]/az
		}
	}
	return face, x*0.5 + 0.5, y*0.5 + 0.5, nil
}

// Cell returns the quad-tree cell at the given level that owns (u, v).
// Cells are half-open [x/n, (x+1)/n) except the last one on each axis, which
// also owns the closing edge u = 1.
func Cell(u, v float64, level int) (x, y int) {
	n := 1 << level
	return cellIndex(u, n), cellIndex(v, n)
}

func cellIndex(t float64, n int) int {
	i := int(math.Floor(t * float64(n)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
