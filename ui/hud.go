// Package ui draws the 2D overlays on top of the 3D view.
package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orrery/telemetry"
)

// Controls is the key legend shown at the bottom of the screen.
const Controls = "Arrows/RMB: orbit | Wheel: zoom | WASD QE: thrust | Space: pause | ,/.: speed | P: path | F: wire | C: collider | R: reseed | T: perf"

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Tick      int64
	Speed     int
	FPS       int32
	Paused    bool
	Reference string
	Altitude  float64
	RelSpeed  float64
	Grounded  bool
	Visible   int
	Rebases   int
	Collider  string
}

// Lines returns the HUD text, one entry per row.
func (d HUDData) Lines() []string {
	status := "Running"
	if d.Paused {
		status = "PAUSED"
	}
	ground := ""
	if d.Grounded {
		ground = " | landed"
	}
	collider := d.Collider
	if collider == "" {
		collider = "none"
	}
	return []string{
		fmt.Sprintf("Tick: %d | Speed: %dx | FPS: %d | %s", d.Tick, d.Speed, d.FPS, status),
		fmt.Sprintf("Reference: %s | Altitude: %.1f | Speed: %.2f%s", d.Reference, d.Altitude, d.RelSpeed, ground),
		fmt.Sprintf("Patches: %d | Collider: %s | Rebases: %d", d.Visible, collider, d.Rebases),
	}
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	y := int32(35)
	for i, line := range data.Lines() {
		c := rl.LightGray
		if i == 0 && data.Paused {
			c = rl.Yellow
		}
		rl.DrawText(line, 10, y, 16, c)
		y += 20
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32) {
	rl.DrawText(Controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfRow is one phase line of the performance panel.
type PerfRow struct {
	Phase string
	Avg   time.Duration
	Pct   float64
}

// PerfRows orders the phase breakdown by execution order.
func PerfRows(stats telemetry.PerfStats) []PerfRow {
	rows := make([]PerfRow, 0, len(telemetry.Phases))
	for _, p := range telemetry.Phases {
		rows = append(rows, PerfRow{Phase: p, Avg: stats.PhaseAvg[p], Pct: stats.PhasePct[p]})
	}
	return rows
}

// PerfPanel renders the per-phase performance panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	rows := PerfRows(stats)
	height := r.Theme.Padding*2 + r.Theme.LineHeight*5 + int32(len(rows))*(r.Theme.LineHeight+2)
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + r.Theme.Padding
	y := r.DrawSectionHeader(x, p.y+r.Theme.Padding, "Performance")
	y = r.DrawLabelValue(x, y, "Tick", stats.AvgTickDuration.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Ticks/s", fmt.Sprintf("%.0f", stats.TicksPerSecond))
	y = r.DrawLabelValue(x, y, "Update", stats.AvgUpdateDuration.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Ticks/upd", fmt.Sprintf("%.1f", stats.StepsPerUpdate))
	for _, row := range rows {
		y = r.DrawBar(x, y, row.Phase, row.Pct, p.width-2*r.Theme.Padding)
	}
}
