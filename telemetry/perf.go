package telemetry

import (
	"log/slog"
	"time"
)

// Phase names. The first five run once per physics tick, terrain runs once
// per update.
const (
	PhaseIntegrate = "integrate"
	PhaseActors    = "actors"
	PhasePredict   = "predict"
	PhaseOrigin    = "origin"
	PhaseTelemetry = "telemetry"
	PhaseTerrain   = "terrain"
)

// Phases lists every phase in execution order.
var Phases = []string{
	PhaseIntegrate, PhaseActors, PhasePredict, PhaseOrigin, PhaseTelemetry, PhaseTerrain,
}

// tickPhases are the phases whose cost scales with the number of ticks.
var tickPhases = Phases[:5]

// updateSample is one update: some number of physics ticks plus one
// terrain frame.
type updateSample struct {
	duration time.Duration
	steps    int
	phases   map[string]time.Duration
}

// PerfCollector times updates over a rolling window. An update wraps zero
// or more physics ticks (RecordStep) and one terrain frame, so tick cost and
// update cost are reported separately.
type PerfCollector struct {
	now func() time.Time

	windowSize  int
	samples     []updateSample
	writeIndex  int
	sampleCount int

	current     updateSample
	inUpdate    bool
	updateStart time.Time
	phaseStart  time.Time
	lastPhase   string

	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize updates.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		now:        time.Now,
		windowSize: windowSize,
		samples:    make([]updateSample, windowSize),
	}
}

// BeginUpdate starts timing an update.
func (p *PerfCollector) BeginUpdate() {
	p.updateStart = p.now()
	p.current = updateSample{phases: make(map[string]time.Duration)}
	p.inUpdate = true
	p.lastPhase = ""
}

// StartPhase closes the running phase and opens another. Outside an update
// it does nothing.
func (p *PerfCollector) StartPhase(phase string) {
	if !p.inUpdate {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.lastPhase = phase
}

// RecordStep counts one physics tick in the running update.
func (p *PerfCollector) RecordStep() {
	if p.inUpdate {
		p.current.steps++
	}
}

// EndUpdate closes the running update and adds it to the window.
func (p *PerfCollector) EndUpdate() {
	if !p.inUpdate {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.current.duration = now.Sub(p.updateStart)
	p.inUpdate = false

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.lastPhase != "" {
		p.current.phases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}
}

// RecordFrame marks a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats aggregates the window.
type PerfStats struct {
	// AvgTickDuration is the per-tick phase time divided by ticks run.
	AvgTickDuration time.Duration
	// TicksPerSecond is physics ticks per second of update wall time.
	TicksPerSecond float64

	AvgUpdateDuration time.Duration
	MaxUpdateDuration time.Duration
	StepsPerUpdate    float64
	Updates           int

	// Average phase time per update and its share of update time.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes the window aggregates.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
		Updates:       p.sampleCount,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	steps := 0
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		u := p.samples[i]
		total += u.duration
		steps += u.steps
		if u.duration > s.MaxUpdateDuration {
			s.MaxUpdateDuration = u.duration
		}
		for phase, d := range u.phases {
			phaseSum[phase] += d
		}
	}

	n := time.Duration(p.sampleCount)
	s.AvgUpdateDuration = total / n
	s.StepsPerUpdate = float64(steps) / float64(p.sampleCount)
	for phase, sum := range phaseSum {
		s.PhaseAvg[phase] = sum / n
		if total > 0 {
			s.PhasePct[phase] = float64(sum) / float64(total) * 100
		}
	}

	if steps > 0 {
		var tickTime time.Duration
		for _, phase := range tickPhases {
			tickTime += phaseSum[phase]
		}
		s.AvgTickDuration = tickTime / time.Duration(steps)
		if total > 0 {
			s.TicksPerSecond = float64(steps) / total.Seconds()
		}
	}
	return s
}

// LogStats logs the window aggregates.
func (s PerfStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Int64("avg_update_us", s.AvgUpdateDuration.Microseconds()),
		slog.Float64("steps_per_update", s.StepsPerUpdate),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is the perf.csv row.
type PerfStatsCSV struct {
	WindowEnd      int64   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	AvgUpdateUS    int64   `csv:"avg_update_us"`
	MaxUpdateUS    int64   `csv:"max_update_us"`
	StepsPerUpdate float64 `csv:"steps_per_update"`
	FPS            float64 `csv:"fps"`
	IntegratePct   float64 `csv:"integrate_pct"`
	ActorsPct      float64 `csv:"actors_pct"`
	PredictPct     float64 `csv:"predict_pct"`
	OriginPct      float64 `csv:"origin_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
	TerrainPct     float64 `csv:"terrain_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.AvgTickDuration.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		AvgUpdateUS:    s.AvgUpdateDuration.Microseconds(),
		MaxUpdateUS:    s.MaxUpdateDuration.Microseconds(),
		StepsPerUpdate: s.StepsPerUpdate,
		FPS:            s.FPS,
		IntegratePct:   s.PhasePct[PhaseIntegrate],
		ActorsPct:      s.PhasePct[PhaseActors],
		PredictPct:     s.PhasePct[PhasePredict],
		OriginPct:      s.PhasePct[PhaseOrigin],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
		TerrainPct:     s.PhasePct[PhaseTerrain],
	}
}
