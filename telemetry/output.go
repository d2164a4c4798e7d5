package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/orrery/config"
)

// BodySnapshot is one row of bodies.csv.
type BodySnapshot struct {
	Tick   int64   `csv:"tick"`
	Name   string  `csv:"name"`
	Type   string  `csv:"type"`
	PosX   float64 `csv:"pos_x"`
	PosY   float64 `csv:"pos_y"`
	PosZ   float64 `csv:"pos_z"`
	VelX   float64 `csv:"vel_x"`
	VelY   float64 `csv:"vel_y"`
	VelZ   float64 `csv:"vel_z"`
	Mass   float64 `csv:"mass"`
	Radius float64 `csv:"radius"`
}

// csvStream appends records to one CSV file, writing the header once.
type csvStream struct {
	file          *os.File
	headerWritten bool
}

func openStream(dir, name string) (*csvStream, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream{file: f}, nil
}

// errClosed is returned for writes after Close.
var errClosed = errors.New("telemetry: output closed")

func (s *csvStream) write(records any) error {
	if s == nil {
		return errClosed
	}
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, s.file)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvStream
	perf      *csvStream
	bodies    *csvStream
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.telemetry, err = openStream(dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = openStream(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.bodies, err = openStream(dir, "bodies.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBodies appends one row per body to bodies.csv.
func (om *OutputManager) WriteBodies(rows []BodySnapshot) error {
	if om == nil || len(rows) == 0 {
		return nil
	}
	if err := om.bodies.write(rows); err != nil {
		return fmt.Errorf("writing bodies: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvStream{om.telemetry, om.perf, om.bodies} {
		if s == nil {
			continue
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	om.telemetry, om.perf, om.bodies = nil, nil, nil
	return firstErr
}
