package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/orrery/renderer"
	"github.com/pthm-cable/orrery/ui"
)

// Draw renders the game state.
func (g *Game) Draw() {
	s := g.scene()
	s.Overlay = g.drawOverlay
	g.viewer.Draw(s)
}

// scene collects the current frame's drawables in world coordinates.
func (g *Game) scene() renderer.Scene {
	s := renderer.Scene{
		Eye:          g.camera.Eye(),
		Target:       g.camera.Target,
		FovY:         g.camera.FovY,
		Player:       g.PlayerPosition(),
		Probes:       g.ProbePositions(),
		Path:         g.Path(),
		ShowPath:     g.view.path,
		ShowWire:     g.view.wire,
		ShowCollider: g.view.collider,
	}

	meshed := make(map[int]bool, len(g.planets))
	for _, p := range g.planets {
		patches := p.Streamer.VisiblePatches()
		if len(patches) == 0 {
			continue
		}
		meshed[p.Body.ID] = true
		s.Terrain = append(s.Terrain, renderer.TerrainView{
			Transform: p.Streamer.Transform(),
			Patches:   patches,
			Triangles: p.Streamer.Triangles(),
		})
	}
	for _, b := range g.bodies.Bodies() {
		s.Bodies = append(s.Bodies, renderer.BodyView{
			Name:   b.Name,
			Type:   b.Type,
			Center: b.Position,
			Radius: b.Radius(),
			Meshed: meshed[b.ID],
		})
	}
	return s
}

func (g *Game) drawOverlay() {
	g.hud.Draw(g.hudData())
	g.hud.DrawControls(int32(rl.GetScreenHeight()))
	if g.view.perf {
		g.perfPanel.SetPosition(int32(rl.GetScreenWidth())-g.perfWidth-10, 10)
		g.perfPanel.Draw(g.lastPerf)
	}
}

// hudData summarises the tracked actor and the streamers.
func (g *Game) hudData() ui.HUDData {
	player := g.Player()
	data := ui.HUDData{
		Title:     "Orrery",
		Tick:      g.tick,
		Speed:     g.stepsPerUpdate,
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
		Reference: "none",
		Altitude:  player.NearestSurfaceDst,
		Grounded:  player.Grounded,
		Rebases:   g.origin.Events(),
	}
	vel := g.PlayerVelocity()
	if ref := g.bodies.Body(player.ReferenceBody); ref != nil {
		data.Reference = ref.Name
		vel = vel.Sub(ref.Velocity)
	}
	data.RelSpeed = vel.Len()
	for _, p := range g.planets {
		st := p.Streamer.Stats()
		data.Visible += st.Visible
		if st.HasCollider {
			data.Collider = p.Body.Name + " " + st.Collider.String()
		}
	}
	return data
}
