package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Nil manager methods are no-ops.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteBodies([]BodySnapshot{{Name: "x"}}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesHeadersOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(1); i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 100, Rebases: int(i)}); err != nil {
			t.Fatal(err)
		}
		if err := om.WritePerf(PerfStats{}, i*100); err != nil {
			t.Fatal(err)
		}
	}
	rows := []BodySnapshot{{Tick: 1, Name: "sun", Type: "sun"}, {Tick: 1, Name: "terra", Type: "planet"}}
	if err := om.WriteBodies(rows); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if err := om.WriteTelemetry(WindowStats{}); err == nil {
		t.Error("WriteTelemetry after Close succeeded")
	}

	tests := []struct {
		file   string
		header string
		lines  int
	}{
		{"telemetry.csv", "window_end,sim_time,rebases", 4},
		{"perf.csv", "window_end,avg_tick_us", 4},
		{"bodies.csv", "tick,name,type,pos_x", 3},
	}
	for _, tt := range tests {
		data, err := os.ReadFile(filepath.Join(dir, tt.file))
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != tt.lines {
			t.Errorf("%s has %d lines, want %d", tt.file, len(lines), tt.lines)
		}
		if !strings.HasPrefix(lines[0], tt.header) {
			t.Errorf("%s header = %q, want prefix %q", tt.file, lines[0], tt.header)
		}
		if strings.Count(string(data), tt.header) != 1 {
			t.Errorf("%s repeats its header", tt.file)
		}
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordTick()
	m.RecordTick()
	m.RecordRebase()
	m.RecordResyncs(3, 0)
	m.RecordTerrain("terra", 12, 4, 1, 20)
	m.RecordTerrain("terra", 8, 0, 0, 16)
	m.SetEnergy(-42)

	if got := testutil.ToFloat64(m.ticks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rebases); got != 1 {
		t.Errorf("rebases = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.resyncs.WithLabelValues("actor")); got != 3 {
		t.Errorf("actor resyncs = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.visiblePatches.WithLabelValues("terra")); got != 8 {
		t.Errorf("visible gauge = %v, want last frame 8", got)
	}
	if got := testutil.ToFloat64(m.patchBuilds.WithLabelValues("terra")); got != 4 {
		t.Errorf("patch builds = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.totalEnergy); got != -42 {
		t.Errorf("energy = %v, want -42", got)
	}

	var nilMetrics *Metrics
	nilMetrics.RecordTick()
	nilMetrics.RecordTerrain("x", 1, 1, 1, 1)
}
