package game

import (
	"github.com/pthm-cable/orrery/telemetry"
)

// flushTelemetry closes the stats window when it is due and writes every
// enabled output.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	energy := g.bodies.KineticEnergy() + g.bodies.PotentialEnergy()
	summary := telemetry.BodySummary{
		TotalEnergy: energy,
		Momentum:    g.bodies.Momentum().Len(),
	}
	if ref := g.bodies.Body(g.Player().ReferenceBody); ref != nil {
		summary.ReferenceBody = ref.Name
	}

	stats := g.collector.Flush(g.tick, summary)
	perfStats := g.perf.Stats()
	g.lastStats = stats
	g.lastPerf = perfStats
	g.metrics.SetEnergy(energy)

	if g.logStats {
		stats.LogStats(g.logger)
		perfStats.LogStats(g.logger)
	}

	if g.output == nil {
		return
	}
	if err := g.output.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}
	if g.cfg.Telemetry.BodySnapshots {
		if err := g.output.WriteBodies(g.bodySnapshots()); err != nil {
			g.logger.Error("failed to write bodies", "error", err)
		}
	}
}

// bodySnapshots captures every body at the current tick.
func (g *Game) bodySnapshots() []telemetry.BodySnapshot {
	bodies := g.bodies.Bodies()
	rows := make([]telemetry.BodySnapshot, len(bodies))
	for i, b := range bodies {
		rows[i] = telemetry.BodySnapshot{
			Tick:   g.tick,
			Name:   b.Name,
			Type:   b.Type.String(),
			PosX:   b.Position[0],
			PosY:   b.Position[1],
			PosZ:   b.Position[2],
			VelX:   b.Velocity[0],
			VelY:   b.Velocity[1],
			VelZ:   b.Velocity[2],
			Mass:   b.Mass(),
			Radius: b.Radius(),
		}
	}
	return rows
}
