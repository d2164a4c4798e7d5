package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Floating origin
	Rebases         int     `csv:"rebases"`
	MaxRebaseOffset float64 `csv:"max_rebase_offset"`

	// Path prediction
	PathResyncs int `csv:"path_resyncs"`
	BodyResyncs int `csv:"body_resyncs"`

	// Terrain streaming, summed over frames and planets
	PatchBuilds      int     `csv:"patch_builds"`
	BuildFailures    int     `csv:"build_failures"`
	ColliderSwitches int     `csv:"collider_switches"`
	VisibleMean      float64 `csv:"visible_mean"`
	VisibleMax       int     `csv:"visible_max"`

	// Tracked actor (sampled once per tick)
	SpeedMean     float64 `csv:"speed_mean"`
	SpeedStd      float64 `csv:"speed_std"`
	AltitudeP10   float64 `csv:"altitude_p10"`
	AltitudeP50   float64 `csv:"altitude_p50"`
	AltitudeP90   float64 `csv:"altitude_p90"`
	ReferenceBody string  `csv:"reference_body"`

	// Conservation of the body system at window end
	TotalEnergy float64 `csv:"total_energy"`
	EnergyDrift float64 `csv:"energy_drift"` // relative to the first flushed window
	Momentum    float64 `csv:"momentum"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpread calculates mean and sample standard deviation.
func ComputeSpread(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// ComputePercentiles returns the 10th, 50th and 90th percentiles.
func ComputePercentiles(values []float64) (p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("rebases", s.Rebases),
		slog.Float64("max_rebase_offset", s.MaxRebaseOffset),
		slog.Int("path_resyncs", s.PathResyncs),
		slog.Int("body_resyncs", s.BodyResyncs),
		slog.Int("patch_builds", s.PatchBuilds),
		slog.Int("build_failures", s.BuildFailures),
		slog.Int("collider_switches", s.ColliderSwitches),
		slog.Float64("visible_mean", s.VisibleMean),
		slog.Int("visible_max", s.VisibleMax),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("altitude_p50", s.AltitudeP50),
		slog.String("reference_body", s.ReferenceBody),
		slog.Float64("total_energy", s.TotalEnergy),
		slog.Float64("energy_drift", s.EnergyDrift),
		slog.Float64("momentum", s.Momentum),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("stats", "window", s)
}
