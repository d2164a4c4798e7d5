package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/orrery/telemetry"
)

func TestHUDLines(t *testing.T) {
	tests := []struct {
		name string
		data HUDData
		want []string
	}{
		{
			"running in flight",
			HUDData{Tick: 42, Speed: 2, FPS: 60, Reference: "terra", Altitude: 80, RelSpeed: 1.5, Visible: 12, Rebases: 3},
			[]string{"Tick: 42 | Speed: 2x | FPS: 60 | Running", "Altitude: 80.0", "Collider: none", "Rebases: 3"},
		},
		{
			"paused and landed",
			HUDData{Paused: true, Grounded: true, Reference: "luna", Collider: "f2/L3/(1,4)"},
			[]string{"PAUSED", "| landed", "Collider: f2/L3/(1,4)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Join(tt.data.Lines(), "\n")
			for _, w := range tt.want {
				if !strings.Contains(text, w) {
					t.Errorf("Lines() = %q, missing %q", text, w)
				}
			}
		})
	}
}

func TestPerfRowsFollowTickOrder(t *testing.T) {
	stats := telemetry.PerfStats{
		PhaseAvg: map[string]time.Duration{telemetry.PhaseTerrain: 3 * time.Millisecond},
		PhasePct: map[string]float64{telemetry.PhaseTerrain: 75},
	}
	rows := PerfRows(stats)
	if len(rows) != len(telemetry.Phases) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(telemetry.Phases))
	}
	for i, row := range rows {
		if row.Phase != telemetry.Phases[i] {
			t.Errorf("rows[%d].Phase = %q, want %q", i, row.Phase, telemetry.Phases[i])
		}
		if row.Phase == telemetry.PhaseTerrain && (row.Pct != 75 || row.Avg != 3*time.Millisecond) {
			t.Errorf("terrain row = %+v", row)
		}
	}
}

func TestClamp01(t *testing.T) {
	for _, tt := range []struct{ in, want float64 }{{-1, 0}, {0.4, 0.4}, {2, 1}} {
		if got := clamp01(tt.in); got != tt.want {
			t.Errorf("clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
