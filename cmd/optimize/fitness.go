package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/orrery/config"
	"github.com/pthm-cable/orrery/game"
	"github.com/pthm-cable/orrery/nbody"
)

// failedFitness is returned for runs that could not be simulated.
const failedFitness = 1e9

// FitnessEvaluator runs headless simulations and scores orbit stability.
type FitnessEvaluator struct {
	params      *ParamVector
	ticks       int
	sampleEvery int
	baseConfig  *config.Config

	mu          sync.Mutex
	bestFitness float64
	lastResult  runResult
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, baseCfg *config.Config) *FitnessEvaluator {
	sample := ticks / 200
	if sample < 1 {
		sample = 1
	}
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		sampleEvery: sample,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// LastResult returns the most recent evaluation's breakdown.
func (fe *FitnessEvaluator) LastResult() runResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

// runResult holds the results from a single simulation run.
type runResult struct {
	spread      map[string]float64 // relative std of distance to parent, per body
	energyDrift float64
	rebases     int
}

// fitness is the summed orbit spread plus the absolute energy drift.
// Lower is better.
func (r runResult) fitness() float64 {
	f := math.Abs(r.energyDrift)
	for _, s := range r.spread {
		f += s
	}
	return f
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result, err := fe.runSimulation(cfg)
	fitness := failedFitness
	if err == nil {
		fitness = result.fitness()
	}

	fe.mu.Lock()
	fe.lastResult = result
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
	}
	fe.mu.Unlock()
	return fitness
}

// copyConfig returns a config whose body list may be modified freely.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Bodies = append([]config.BodyConfig(nil), fe.baseConfig.Bodies...)
	cfg.Probes = nil
	cfg.Path.Enabled = false
	return &cfg
}

// runSimulation steps the game and samples each body's distance to its
// parent, the nearest more massive body at the start.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config) (runResult, error) {
	g, err := game.NewGameWithOptions(game.Options{
		Config:   cfg,
		Logger:   slog.New(slog.DiscardHandler),
		Headless: true,
	})
	if err != nil {
		return runResult{}, err
	}
	defer g.Close()

	bodies := g.Bodies().Bodies()
	parents := findParents(bodies)
	samples := make([][]float64, len(bodies))

	for t := 1; t <= fe.ticks; t++ {
		if err := g.Step(); err != nil {
			return runResult{}, err
		}
		if t%fe.sampleEvery != 0 {
			continue
		}
		for i, p := range parents {
			if p < 0 {
				continue
			}
			samples[i] = append(samples[i], bodies[i].Position.Sub(bodies[p].Position).Len())
		}
	}

	res := runResult{
		spread:      make(map[string]float64),
		energyDrift: g.LastStats().EnergyDrift,
		rebases:     g.Origin().Events(),
	}
	for i, s := range samples {
		if len(s) < 2 {
			continue
		}
		mean, std := stat.MeanStdDev(s, nil)
		if mean > 0 {
			res.spread[bodies[i].Name] = std / mean
		}
	}
	return res, nil
}

// findParents returns, for each body, the index of the nearest body with a
// larger mass, or -1.
func findParents(bodies []*nbody.Body) []int {
	parents := make([]int, len(bodies))
	for i, b := range bodies {
		parents[i] = -1
		best := math.Inf(1)
		for j, o := range bodies {
			if j == i || o.Mass() <= b.Mass() {
				continue
			}
			if d := distance(b.Position, o.Position); d < best {
				best, parents[i] = d, j
			}
		}
	}
	return parents
}

func distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}
