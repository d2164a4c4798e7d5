package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/orrery/heightfield"
)

// elevationMap is an equirectangular sampling of a height field.
type elevationMap struct {
	width, height int
	heights       []float64
	shading       []mgl64.Vec4
	min, max      float64
}

// sampleMap evaluates the height field at the centre of every map pixel.
// Row 0 is the north pole.
func sampleMap(eval *heightfield.Noise, width, height int) (elevationMap, error) {
	dirs := make([]mgl64.Vec3, 0, width*height)
	for y := 0; y < height; y++ {
		lat := math.Pi/2 - (float64(y)+0.5)/float64(height)*math.Pi
		for x := 0; x < width; x++ {
			lon := (float64(x)+0.5)/float64(width)*2*math.Pi - math.Pi
			dirs = append(dirs, latLonDir(lat, lon))
		}
	}

	m := elevationMap{
		width:   width,
		height:  height,
		heights: make([]float64, len(dirs)),
		shading: make([]mgl64.Vec4, len(dirs)),
	}
	if err := eval.Evaluate(dirs, m.heights, m.shading); err != nil {
		return elevationMap{}, err
	}
	m.min, m.max = math.Inf(1), math.Inf(-1)
	for _, h := range m.heights {
		m.min = math.Min(m.min, h)
		m.max = math.Max(m.max, h)
	}
	return m, nil
}

// latLonDir returns the unit direction with +Y as north.
func latLonDir(lat, lon float64) mgl64.Vec3 {
	c := math.Cos(lat)
	return mgl64.Vec3{c * math.Cos(lon), math.Sin(lat), c * math.Sin(lon)}
}

// shapeYAML renders a shape as the body config snippet it came from.
func shapeYAML(shape heightfield.Shape) (string, error) {
	out, err := yaml.Marshal(map[string]heightfield.Shape{"shape": shape})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
