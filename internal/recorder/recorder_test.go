package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/chainflow/internal/agent"
)

func twoAgents(t *testing.T) []*agent.Agent {
	t.Helper()
	cfg := agent.Defaults()
	cfg.WorkingCapital = 100
	cfg.FixedAssets = 50
	ret, err := agent.New(1, agent.Retailer, cfg)
	require.NoError(t, err)
	man, err := agent.New(2, agent.Manufacturer, cfg)
	require.NoError(t, err)
	return []*agent.Agent{ret, man}
}

func TestNewTakesSnapshot(t *testing.T) {
	agents := twoAgents(t)
	r := New(agents)

	assert.Equal(t, []agent.ID{1, 2}, r.AgentIDs())
	assert.Zero(t, r.Steps())

	s, ok := r.SeriesFor(1)
	require.True(t, ok)
	assert.Equal(t, "retailer", s.Role)
	require.Len(t, s.WorkingCapital, 1)
	assert.Equal(t, 100.0, s.WorkingCapital[0])
	assert.Equal(t, 150.0, s.TotalAssets[0])
	assert.Equal(t, 150.0, s.Equity[0])
	assert.Equal(t, 0.0, s.Financing[0])
}

func TestAppendExtendsAllSeries(t *testing.T) {
	agents := twoAgents(t)
	r := New(agents)

	agents[0].WorkingCapital = 90
	agents[0].TotalAssets = 140
	agents[0].Equity = 140
	r.Append(1, agents, map[agent.ID]float64{1: 25})

	assert.Equal(t, 1, r.Steps())
	s, ok := r.SeriesFor(1)
	require.True(t, ok)
	require.Len(t, s.WorkingCapital, 2)
	assert.Equal(t, 90.0, s.WorkingCapital[1])
	assert.Equal(t, 25.0, s.Financing[1])

	// No draw for the other agent this step.
	other, _ := r.SeriesFor(2)
	assert.Equal(t, 0.0, other.Financing[1])
}

func TestStepProfit(t *testing.T) {
	agents := twoAgents(t)
	r := New(agents)

	agents[0].WorkingCapital = 110
	r.Append(1, agents, nil)
	agents[0].WorkingCapital = 95
	r.Append(2, agents, nil)

	profit := r.StepProfit(1)
	require.Len(t, profit, 2)
	assert.InDelta(t, 10, profit[0], 1e-9)
	assert.InDelta(t, -15, profit[1], 1e-9)

	assert.InDelta(t, -2.5, r.AverageProfit(1), 1e-9)
}

func TestStepProfitUnknownAgent(t *testing.T) {
	r := New(twoAgents(t))
	assert.Nil(t, r.StepProfit(99))
	assert.Zero(t, r.AverageProfit(99))

	_, ok := r.SeriesFor(99)
	assert.False(t, ok)
}
