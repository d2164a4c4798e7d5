// Package origin keeps the simulation near the coordinate origin by
// periodically re-basing every registered spatial system.
package origin

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// Shifter is anything holding world-space positions.
type Shifter interface {
	// ShiftOrigin subtracts offset from every position the implementation
	// holds. Velocities must not change.
	ShiftOrigin(offset mgl64.Vec3)
}

// ShiftFunc adapts a plain function to Shifter.
type ShiftFunc func(offset mgl64.Vec3)

// ShiftOrigin calls f(offset).
func (f ShiftFunc) ShiftOrigin(offset mgl64.Vec3) { f(offset) }

// Event describes one rebase.
type Event struct {
	Tick   int64
	Offset mgl64.Vec3
}

type target struct {
	name    string
	shifter Shifter
}

// Controller re-bases registered targets when the tracked viewpoint drifts
// beyond Threshold from the origin.
type Controller struct {
	Threshold float64

	targets   []target
	listeners []func(Event)
	tick      int64
	events    int
	last      Event
	logger    *slog.Logger
}

// NewController creates a controller. A nil logger uses slog.Default().
func NewController(threshold float64, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{Threshold: threshold, logger: logger}
}

// Register adds a target. Targets are shifted in registration order.
func (c *Controller) Register(name string, s Shifter) {
	c.targets = append(c.targets, target{name: name, shifter: s})
}

// OnShift adds a listener run after every target has been shifted.
func (c *Controller) OnShift(fn func(Event)) {
	c.listeners = append(c.listeners, fn)
}

// Update checks the viewpoint once and, if it lies beyond the threshold,
// shifts every target by that same offset. It must run after all other
// position writes of the tick.
func (c *Controller) Update(viewpoint mgl64.Vec3) (Event, bool) {
	c.tick++
	offset := viewpoint
	if offset.Len() <= c.Threshold {
		return Event{}, false
	}

	for _, t := range c.targets {
		t.shifter.ShiftOrigin(offset)
	}

	ev := Event{Tick: c.tick, Offset: offset}
	c.events++
	c.last = ev
	c.logger.Debug("origin shifted",
		"tick", ev.Tick,
		"offset_x", offset[0], "offset_y", offset[1], "offset_z", offset[2],
		"targets", len(c.targets),
	)
	for _, fn := range c.listeners {
		fn(ev)
	}
	return ev, true
}

// Events returns the number of rebases so far.
func (c *Controller) Events() int { return c.events }

// Last returns the most recent rebase.
func (c *Controller) Last() Event { return c.last }

// Targets returns the registered target names in application order.
func (c *Controller) Targets() []string {
	names := make([]string, len(c.targets))
	for i, t := range c.targets {
		names[i] = t.name
	}
	return names
}
