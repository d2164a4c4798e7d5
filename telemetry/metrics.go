package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes simulation counters on a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	ticks          prometheus.Counter
	rebases        prometheus.Counter
	resyncs        *prometheus.CounterVec
	patchBuilds    *prometheus.CounterVec
	buildFailures  *prometheus.CounterVec
	visiblePatches *prometheus.GaugeVec
	poolInUse      *prometheus.GaugeVec
	tickDuration   prometheus.Histogram
	totalEnergy    prometheus.Gauge
}

// NewMetrics creates and registers the simulation metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_ticks_total",
			Help: "Physics ticks simulated",
		}),
		rebases: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orrery_origin_rebases_total",
			Help: "Floating origin shifts",
		}),
		resyncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_path_resyncs_total",
				Help: "Trajectory predictor resimulations",
			},
			[]string{"kind"},
		),
		patchBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_patch_builds_total",
				Help: "Terrain patch meshes built",
			},
			[]string{"body"},
		),
		buildFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_patch_build_failures_total",
				Help: "Terrain patch builds skipped because the evaluator failed",
			},
			[]string{"body"},
		),
		visiblePatches: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orrery_visible_patches",
				Help: "Patches rendered in the last frame",
			},
			[]string{"body"},
		),
		poolInUse: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orrery_patch_pool_in_use",
				Help: "Patch pool slots currently acquired",
			},
			[]string{"body"},
		),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "orrery_tick_duration_seconds",
			Help:    "Wall time spent per simulation update",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
		}),
		totalEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "orrery_total_energy",
			Help: "Kinetic plus potential energy of the body system",
		}),
	}

	m.registry.MustRegister(
		m.ticks, m.rebases, m.resyncs,
		m.patchBuilds, m.buildFailures, m.visiblePatches, m.poolInUse,
		m.tickDuration, m.totalEnergy,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordTick counts one physics tick.
func (m *Metrics) RecordTick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

// RecordRebase counts one origin shift.
func (m *Metrics) RecordRebase() {
	if m == nil {
		return
	}
	m.rebases.Inc()
}

// RecordResyncs adds actor path and body buffer resyncs.
func (m *Metrics) RecordResyncs(path, bodies int) {
	if m == nil {
		return
	}
	if path > 0 {
		m.resyncs.WithLabelValues("actor").Add(float64(path))
	}
	if bodies > 0 {
		m.resyncs.WithLabelValues("bodies").Add(float64(bodies))
	}
}

// RecordTerrain records one streamer frame for a body.
func (m *Metrics) RecordTerrain(body string, visible, built, failures, inUse int) {
	if m == nil {
		return
	}
	m.visiblePatches.WithLabelValues(body).Set(float64(visible))
	m.poolInUse.WithLabelValues(body).Set(float64(inUse))
	if built > 0 {
		m.patchBuilds.WithLabelValues(body).Add(float64(built))
	}
	if failures > 0 {
		m.buildFailures.WithLabelValues(body).Add(float64(failures))
	}
}

// ObserveUpdate records the wall time of one update.
func (m *Metrics) ObserveUpdate(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}

// SetEnergy publishes the body system's total energy.
func (m *Metrics) SetEnergy(e float64) {
	if m == nil {
		return
	}
	m.totalEnergy.Set(e)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
