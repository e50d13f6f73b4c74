package population

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/chainflow/internal/agent"
)

func mustAgent(t *testing.T, id agent.ID, role agent.Role) *agent.Agent {
	t.Helper()
	a, err := agent.New(id, role, agent.Defaults())
	require.NoError(t, err)
	return a
}

func threeTiers(t *testing.T) []*agent.Agent {
	t.Helper()
	return []*agent.Agent{
		mustAgent(t, 1, agent.Retailer),
		mustAgent(t, 2, agent.Manufacturer),
		mustAgent(t, 3, agent.Supplier),
	}
}

func TestNewBuildsRoleLists(t *testing.T) {
	pop, err := New(threeTiers(t))
	require.NoError(t, err)

	assert.Len(t, pop.Retailers(), 1)
	assert.Len(t, pop.Manufacturers(), 1)
	assert.Len(t, pop.Suppliers(), 1)

	a, ok := pop.ByID(2)
	require.True(t, ok)
	assert.Equal(t, agent.Manufacturer, a.Role)
}

func TestNewRejectsDuplicateID(t *testing.T) {
	list := threeTiers(t)
	list = append(list, mustAgent(t, 2, agent.Supplier))

	_, err := New(list)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate agent id")
}

func TestNewRejectsEmptyTier(t *testing.T) {
	list := []*agent.Agent{
		mustAgent(t, 1, agent.Retailer),
		mustAgent(t, 2, agent.Manufacturer),
	}
	_, err := New(list)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-empty")
}

func TestEvictRemovesFromRoleListOnce(t *testing.T) {
	list := threeTiers(t)
	list = append(list, mustAgent(t, 4, agent.Manufacturer))
	pop, err := New(list)
	require.NoError(t, err)

	victim := pop.Manufacturers()[0]
	pop.Evict(victim)
	assert.Len(t, pop.Manufacturers(), 1)

	// Second eviction is a no-op.
	pop.Evict(victim)
	assert.Len(t, pop.Manufacturers(), 1)

	// The agent stays addressable for reporting.
	_, ok := pop.ByID(victim.ID)
	assert.True(t, ok)
	assert.Len(t, pop.Agents(), 4)
}

func TestMustByIDPanicsOnUnknown(t *testing.T) {
	pop, err := New(threeTiers(t))
	require.NoError(t, err)
	assert.Panics(t, func() { pop.MustByID(99) })
}

func TestBuildFromSpecs(t *testing.T) {
	specs := []AgentSpec{
		{AgentID: 1, Role: "r", WorkingCapital: 120, MuSellingPrice: 6, Q: 0.9, ConsumerDemandMean: 50, OrderingPeriod: 7, DeliveryPeriod: 2},
		{AgentID: 2, Role: "m", WorkingCapital: 130, MuSellingPrice: 4, Q: 0.9, OrderingPeriod: 1, DeliveryPeriod: 2},
		{AgentID: 3, Role: "s", WorkingCapital: 140, MuSellingPrice: 3, Q: 0.9, OrderingPeriod: 1, DeliveryPeriod: 2},
	}
	pop, err := Build(specs)
	require.NoError(t, err)

	ret := pop.Retailers()[0]
	assert.Equal(t, 120.0, ret.WorkingCapital)
	assert.Equal(t, 50.0, ret.Retail.ConsumerDemandMean)

	specs[1].Role = "warehouse"
	_, err = Build(specs)
	assert.Error(t, err)
}

func TestGenerateSpecsIsDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	first := GenerateSpecs(cfg)
	second := GenerateSpecs(cfg)
	assert.Equal(t, first, second)

	pop, err := Build(first)
	require.NoError(t, err)
	assert.Len(t, pop.Agents(), cfg.Retailers+cfg.Manufacturers+cfg.Suppliers)
}
