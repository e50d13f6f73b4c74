package montecarlo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/chainflow/internal/engine"
	"github.com/talgya/chainflow/internal/population"
)

func smallConfig() Config {
	return Config{
		Specs:        population.GenerateSpecs(population.GenConfig{Retailers: 2, Manufacturers: 2, Suppliers: 2, Seed: 7}),
		Steps:        15,
		Replications: 3,
		BaseSeed:     99,
		Engine:       engine.DefaultConfig(),
		Shuffle:      true,
	}
}

func TestRunValidation(t *testing.T) {
	cfg := smallConfig()
	cfg.Replications = 0
	_, err := Run(cfg)
	assert.Error(t, err)

	cfg = smallConfig()
	cfg.Steps = 0
	_, err = Run(cfg)
	assert.Error(t, err)
}

func TestRunProducesIndependentReplications(t *testing.T) {
	result, err := Run(smallConfig())
	require.NoError(t, err)
	require.Len(t, result.Replications, 3)

	seen := make(map[string]bool)
	for i, rep := range result.Replications {
		assert.Equal(t, int64(99+i), rep.Seed)
		assert.False(t, seen[rep.RunID.String()], "run IDs must be unique")
		seen[rep.RunID.String()] = true
		assert.Equal(t, 15, rep.Recorder.Steps())
	}
}

func TestRunIsDeterministicPerSeed(t *testing.T) {
	first, err := Run(smallConfig())
	require.NoError(t, err)
	second, err := Run(smallConfig())
	require.NoError(t, err)

	for i := range first.Replications {
		fa := first.Replications[i].Recorder
		fb := second.Replications[i].Recorder
		require.Equal(t, fa.OrdersCreated, fb.OrdersCreated)
		for _, id := range fa.AgentIDs() {
			sa, _ := fa.SeriesFor(id)
			sb, _ := fb.SeriesFor(id)
			assert.Equal(t, sa.WorkingCapital, sb.WorkingCapital, "agent %d", id)
		}
	}

	assert.Equal(t, first.MeanWcapPath, second.MeanWcapPath)
}

func TestMeanPathAggregation(t *testing.T) {
	result, err := Run(smallConfig())
	require.NoError(t, err)

	first := result.Replications[0].Recorder
	for _, id := range first.AgentIDs() {
		path, ok := result.MeanWcapPath[id]
		require.True(t, ok)
		require.Len(t, path, 16) // snapshot plus 15 steps

		// The mean of the replication values at each step.
		for step := range path {
			sum := 0.0
			for _, rep := range result.Replications {
				s, _ := rep.Recorder.SeriesFor(id)
				sum += s.WorkingCapital[step]
			}
			assert.InDelta(t, sum/float64(len(result.Replications)), path[step], 1e-9)
		}
	}
}
