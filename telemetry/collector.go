package telemetry

import "math"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64

	windowStartTick int64

	// Event counters for the current window
	rebases          int
	maxRebaseOffset  float64
	pathResyncs      int
	bodyResyncs      int
	patchBuilds      int
	buildFailures    int
	colliderSwitches int

	// Per-frame and per-tick samples
	visible   []float64
	speeds    []float64
	altitudes []float64

	baselineEnergy float64
	haveBaseline   bool
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordRebase records one floating origin shift of the given length.
func (c *Collector) RecordRebase(offset float64) {
	c.rebases++
	c.maxRebaseOffset = math.Max(c.maxRebaseOffset, offset)
}

// RecordResyncs adds resync counts observed since the last call.
func (c *Collector) RecordResyncs(path, bodies int) {
	c.pathResyncs += path
	c.bodyResyncs += bodies
}

// RecordTerrainFrame records one streamer update.
func (c *Collector) RecordTerrainFrame(visible, built, failures int, colliderSwitched bool) {
	c.visible = append(c.visible, float64(visible))
	c.patchBuilds += built
	c.buildFailures += failures
	if colliderSwitched {
		c.colliderSwitches++
	}
}

// RecordActor samples the tracked actor's speed and altitude above its
// reference body.
func (c *Collector) RecordActor(speed, altitude float64) {
	c.speeds = append(c.speeds, speed)
	c.altitudes = append(c.altitudes, altitude)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// BodySummary holds body system totals sampled at flush time.
type BodySummary struct {
	TotalEnergy   float64
	Momentum      float64
	ReferenceBody string
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int64, bodies BodySummary) WindowStats {
	if !c.haveBaseline {
		c.baselineEnergy = bodies.TotalEnergy
		c.haveBaseline = true
	}
	var drift float64
	if c.baselineEnergy != 0 {
		drift = (bodies.TotalEnergy - c.baselineEnergy) / math.Abs(c.baselineEnergy)
	}

	visibleMean, _ := ComputeSpread(c.visible)
	var visibleMax float64
	for _, v := range c.visible {
		visibleMax = math.Max(visibleMax, v)
	}
	speedMean, speedStd := ComputeSpread(c.speeds)
	altP10, altP50, altP90 := ComputePercentiles(c.altitudes)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Rebases:         c.rebases,
		MaxRebaseOffset: c.maxRebaseOffset,

		PathResyncs: c.pathResyncs,
		BodyResyncs: c.bodyResyncs,

		PatchBuilds:      c.patchBuilds,
		BuildFailures:    c.buildFailures,
		ColliderSwitches: c.colliderSwitches,
		VisibleMean:      visibleMean,
		VisibleMax:       int(visibleMax),

		SpeedMean:     speedMean,
		SpeedStd:      speedStd,
		AltitudeP10:   altP10,
		AltitudeP50:   altP50,
		AltitudeP90:   altP90,
		ReferenceBody: bodies.ReferenceBody,

		TotalEnergy: bodies.TotalEnergy,
		EnergyDrift: drift,
		Momentum:    bodies.Momentum,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.rebases = 0
	c.maxRebaseOffset = 0
	c.pathResyncs = 0
	c.bodyResyncs = 0
	c.patchBuilds = 0
	c.buildFailures = 0
	c.colliderSwitches = 0
	c.visible = c.visible[:0]
	c.speeds = c.speeds[:0]
	c.altitudes = c.altitudes[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
