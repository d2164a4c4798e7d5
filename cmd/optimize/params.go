// Package main provides CMA-ES tuning of initial body velocities for stable
// orbits.
package main

import (
	"math"

	"github.com/pthm-cable/orrery/config"
)

// ParamSpec defines a single optimizable parameter: the initial speed of one
// body along its configured direction of travel.
type ParamSpec struct {
	Name    string  // Human-readable name
	Body    string  // Config body name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates one speed parameter per moving body. Bodies at
// rest have no direction to scale and are left alone.
func NewParamVector(cfg *config.Config, spread float64) *ParamVector {
	pv := &ParamVector{}
	for _, b := range cfg.Bodies {
		speed := norm(b.Velocity)
		if speed == 0 {
			continue
		}
		pv.Specs = append(pv.Specs, ParamSpec{
			Name:    b.Name + "_speed",
			Body:    b.Name,
			Min:     speed * (1 - spread),
			Max:     speed * (1 + spread),
			Default: speed,
		})
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig rescales each tuned body's velocity to the given speed.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		idx, ok := cfg.Derived.BodyIndex[spec.Body]
		if !ok {
			continue
		}
		b := &cfg.Bodies[idx]
		speed := norm(b.Velocity)
		if speed == 0 {
			continue
		}
		k := clamped[i] / speed
		b.Velocity = [3]float64{b.Velocity[0] * k, b.Velocity[1] * k, b.Velocity[2] * k}
	}
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
