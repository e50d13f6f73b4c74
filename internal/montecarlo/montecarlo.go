// Package montecarlo runs independent replications of the model and
// aggregates their recorded paths. Replications share no state: each one
// builds its own population and engine from the same spec records with its
// own derived seed, which is also the safe boundary for running them in
// parallel if ever needed.
package montecarlo

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/talgya/chainflow/internal/agent"
	"github.com/talgya/chainflow/internal/engine"
	"github.com/talgya/chainflow/internal/population"
	"github.com/talgya/chainflow/internal/recorder"
)

// Config describes a Monte Carlo experiment.
type Config struct {
	Specs        []population.AgentSpec
	Steps        int
	Replications int
	BaseSeed     int64 // replication i runs with BaseSeed+i
	Engine       engine.Config

	WcapFinancing bool
	SCFinancing   bool
	Shuffle       bool
	Disruption    bool
}

// Replication is one completed run.
type Replication struct {
	RunID    uuid.UUID
	Seed     int64
	Recorder *recorder.Recorder
}

// Result aggregates an experiment.
type Result struct {
	Replications []Replication

	// MeanWcapPath is the across-replication mean working-capital path
	// per agent, indexed by step (0 = pre-run snapshot).
	MeanWcapPath map[agent.ID][]float64
}

// Run executes the experiment sequentially and aggregates mean paths.
func Run(cfg Config) (*Result, error) {
	if cfg.Replications <= 0 {
		return nil, fmt.Errorf("montecarlo: replications must be positive, got %d", cfg.Replications)
	}
	if cfg.Steps <= 0 {
		return nil, fmt.Errorf("montecarlo: steps must be positive, got %d", cfg.Steps)
	}

	result := &Result{MeanWcapPath: make(map[agent.ID][]float64)}

	for i := 0; i < cfg.Replications; i++ {
		seed := cfg.BaseSeed + int64(i)

		pop, err := population.Build(cfg.Specs)
		if err != nil {
			return nil, fmt.Errorf("montecarlo: replication %d: %w", i, err)
		}

		engCfg := cfg.Engine
		engCfg.Seed = seed
		eng := engine.New(pop, engCfg)
		if cfg.WcapFinancing {
			eng.ActivateWcapFinancing()
		}
		if cfg.SCFinancing {
			eng.ActivateSCFinancing()
		}
		if cfg.Shuffle {
			eng.AlwaysShuffle()
		}
		if cfg.Disruption {
			eng.ActivateRandomNodeLevelDisruption()
		}

		eng.Proceed(cfg.Steps)

		rep := Replication{RunID: uuid.New(), Seed: seed, Recorder: eng.Recorder()}
		result.Replications = append(result.Replications, rep)

		slog.Info("replication finished",
			"run_id", rep.RunID.String(),
			"seed", seed,
			"replication", i+1,
			"of", cfg.Replications,
			"bankruptcies", rep.Recorder.Bankruptcies,
		)
	}

	result.aggregate()
	return result, nil
}

// aggregate computes the mean working-capital path per agent across
// replications.
func (r *Result) aggregate() {
	if len(r.Replications) == 0 {
		return
	}

	first := r.Replications[0].Recorder
	for _, id := range first.AgentIDs() {
		series, ok := first.SeriesFor(id)
		if !ok {
			continue
		}
		steps := len(series.WorkingCapital)
		mean := make([]float64, steps)
		sample := make([]float64, 0, len(r.Replications))

		for step := 0; step < steps; step++ {
			sample = sample[:0]
			for _, rep := range r.Replications {
				s, ok := rep.Recorder.SeriesFor(id)
				if !ok || step >= len(s.WorkingCapital) {
					continue
				}
				sample = append(sample, s.WorkingCapital[step])
			}
			if len(sample) > 0 {
				mean[step] = stat.Mean(sample, nil)
			}
		}
		r.MeanWcapPath[id] = mean
	}
}
