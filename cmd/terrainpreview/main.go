// Terrain preview tool - interactive height field map with sliders.
//
// Usage: go run ./cmd/terrainpreview [-config config.yaml] [-body terra]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orrery/config"
	"github.com/pthm-cable/orrery/heightfield"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	mapWidth     = 512
	mapHeight    = 256
	previewScale = 2
	panelX       = 20
	panelWidth   = windowWidth - 40
)

// slider is one labelled parameter control.
type slider struct {
	label    string
	min, max float32
	get      func(*heightfield.Shape) float32
	set      func(*heightfield.Shape, float32)
}

var sliders = []slider{
	{"Octaves", 1, 10,
		func(s *heightfield.Shape) float32 { return float32(s.Octaves) },
		func(s *heightfield.Shape, v float32) { s.Octaves = int(v) }},
	{"Frequency", 0.2, 8,
		func(s *heightfield.Shape) float32 { return float32(s.Frequency) },
		func(s *heightfield.Shape, v float32) { s.Frequency = float64(v) }},
	{"Lacunarity", 1.5, 4,
		func(s *heightfield.Shape) float32 { return float32(s.Lacunarity) },
		func(s *heightfield.Shape, v float32) { s.Lacunarity = float64(v) }},
	{"Persistence", 0.2, 0.9,
		func(s *heightfield.Shape) float32 { return float32(s.Persistence) },
		func(s *heightfield.Shape, v float32) { s.Persistence = float64(v) }},
	{"Strength", 0, 0.2,
		func(s *heightfield.Shape) float32 { return float32(s.Strength) },
		func(s *heightfield.Shape, v float32) { s.Strength = float64(v) }},
	{"Ocean depth", 0, 1,
		func(s *heightfield.Shape) float32 { return float32(s.OceanDepth) },
		func(s *heightfield.Shape, v float32) { s.OceanDepth = float64(v) }},
	{"Seed", 0, 9999,
		func(s *heightfield.Shape) float32 { return float32(s.Seed) },
		func(s *heightfield.Shape, v float32) { s.Seed = int64(v) }},
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	bodyName := flag.String("body", "terra", "Body whose shape is edited")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	idx, ok := cfg.Derived.BodyIndex[*bodyName]
	if !ok {
		log.Fatalf("no body named %q", *bodyName)
	}
	initial := cfg.Bodies[idx]
	shape, shading := initial.Shape, initial.Shading

	rl.InitWindow(windowWidth, windowHeight, "Terrain Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	img := rl.GenImageColor(mapWidth, mapHeight, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	noise := heightfield.New()
	var m elevationMap
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			noise.Configure(shape, shading)
			if m, err = sampleMap(noise, mapWidth, mapHeight); err != nil {
				log.Printf("sampling failed: %v", err)
			} else {
				rl.UpdateTexture(texture, m.pixels(shape.OceanDepth))
			}
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTextureEx(texture, rl.Vector2{X: panelX, Y: 10}, 0, previewScale, rl.White)
		rl.DrawRectangleLines(panelX, 10, mapWidth*previewScale, mapHeight*previewScale, rl.DarkGray)

		statsY := int32(mapHeight*previewScale + 20)
		rl.DrawText(fmt.Sprintf("%s  min %.4f  max %.4f  (radius multiples)", *bodyName, m.min, m.max), panelX, statsY, 16, rl.DarkGray)

		y := float32(statsY + 30)
		for _, s := range sliders {
			rl.DrawText(s.label, panelX, int32(y+3), 14, rl.Gray)
			cur := s.get(&shape)
			next := gui.SliderBar(
				rl.Rectangle{X: panelX + 110, Y: y, Width: 300, Height: 20},
				"", "",
				cur, s.min, s.max,
			)
			rl.DrawText(fmt.Sprintf("%.3f", next), panelX+420, int32(y+3), 14, rl.DarkGray)
			if next != cur {
				s.set(&shape, next)
				needsRegen = true
			}
			y += 26
		}

		if gui.Button(rl.Rectangle{X: panelX + 520, Y: float32(statsY + 30), Width: 120, Height: 30}, "Random Seed") {
			shape.Seed = int64(rl.GetRandomValue(0, 9999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 650, Y: float32(statsY + 30), Width: 120, Height: 30}, "Reset") {
			shape, shading = initial.Shape, initial.Shading
			needsRegen = true
		}

		rl.DrawText("Press C to copy the shape YAML to clipboard", panelX+520, int32(statsY+80), 12, rl.Gray)
		if rl.IsKeyPressed(rl.KeyC) {
			if text, err := shapeYAML(shape); err == nil {
				rl.SetClipboardText(text)
			}
		}

		rl.EndDrawing()
	}
}

// pixels maps heights to a sea-to-snow gradient.
func (m elevationMap) pixels(oceanDepth float64) []color.RGBA {
	out := make([]color.RGBA, len(m.heights))
	span := m.max - m.min
	if span == 0 {
		span = 1
	}
	for i, h := range m.heights {
		out[i] = elevationColor((h-m.min)/span, m.shading[i][3] <= -oceanDepth)
	}
	return out
}

func elevationColor(t float64, sea bool) color.RGBA {
	if sea {
		return color.RGBA{R: 20, G: uint8(40 + 60*t), B: uint8(110 + 80*t), A: 255}
	}
	switch {
	case t < 0.5:
		k := t / 0.5
		return color.RGBA{R: uint8(50 + 90*k), G: uint8(120 + 40*k), B: uint8(50 + 20*k), A: 255}
	case t < 0.85:
		k := (t - 0.5) / 0.35
		return color.RGBA{R: uint8(140 - 30*k), G: uint8(160 - 70*k), B: uint8(70 + 10*k), A: 255}
	default:
		k := (t - 0.85) / 0.15
		return color.RGBA{R: uint8(110 + 145*k), G: uint8(90 + 165*k), B: uint8(80 + 175*k), A: 255}
	}
}
