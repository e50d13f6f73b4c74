package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesRole(t *testing.T) {
	_, err := New(1, Role(7), Defaults())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestNewRejectsReservedID(t *testing.T) {
	_, err := New(Outside, Retailer, Defaults())
	require.Error(t, err)
}

func TestParseRole(t *testing.T) {
	for tag, want := range map[string]Role{
		"r": Retailer, "retailer": Retailer,
		"m": Manufacturer, "manufacturer": Manufacturer,
		"s": Supplier, "supplier": Supplier,
	} {
		got, err := ParseRole(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, got, tag)
	}

	_, err := ParseRole("x")
	assert.Error(t, err)
}

func TestRolePayloads(t *testing.T) {
	cfg := Defaults()
	cfg.ConsumerDemandMean = 60

	ret, err := New(1, Retailer, cfg)
	require.NoError(t, err)
	require.NotNil(t, ret.Retail)
	assert.Nil(t, ret.Prod)
	assert.Equal(t, 60.0, ret.Retail.ConsumerDemandMean)

	man, err := New(2, Manufacturer, cfg)
	require.NoError(t, err)
	assert.Nil(t, man.Retail)
	require.NotNil(t, man.Prod)

	sup, err := New(3, Supplier, cfg)
	require.NoError(t, err)
	assert.Nil(t, sup.Retail)
	require.NotNil(t, sup.Prod)
}

func TestDefaults(t *testing.T) {
	a, err := New(1, Retailer, Defaults())
	require.NoError(t, err)
	assert.Equal(t, 100.0, a.WorkingCapital)
	assert.Equal(t, 0.9, a.Q)
	assert.Equal(t, a.MuSellingPrice, a.SellingPrice)
	assert.True(t, a.Active())
	assert.Empty(t, a.Receivables)
	assert.Empty(t, a.Payables)
	assert.Empty(t, a.Financing)
}

func TestBalanceSheetDerivation(t *testing.T) {
	cfg := Defaults()
	cfg.WorkingCapital = 100
	cfg.FixedAssets = 50
	a, err := New(1, Manufacturer, cfg)
	require.NoError(t, err)

	a.BookReceivable(30, 10, 2)
	a.BookPayable(20, 12, 3)
	a.BookInventory(15, 8)
	a.Liability = 5

	a.RecomputeLedgerValues()
	assert.Equal(t, 30.0, a.ReceivablesValue)
	assert.Equal(t, 20.0, a.PayablesValue)
	assert.Equal(t, 15.0, a.InventoryValue)

	a.RecomputeBalanceSheet()
	assert.InDelta(t, 100+50+15+30, a.TotalAssets, 1e-9)
	assert.InDelta(t, 5+20, a.TotalLiabilities, 1e-9)
	assert.InDelta(t, a.TotalAssets-a.TotalLiabilities, a.Equity, 1e-9)
	assert.Len(t, a.AssetHistory, 1)
}

func TestReleaseInventory(t *testing.T) {
	a, err := New(1, Manufacturer, Defaults())
	require.NoError(t, err)

	a.BookInventory(10, 3)
	a.BookInventory(5, 5)
	a.BookInventory(7, 9)

	released := a.ReleaseInventory(5)
	assert.InDelta(t, 15.0, released, 1e-9)
	require.Len(t, a.Inventory, 1)
	assert.Equal(t, 9, a.Inventory[0].DueStep)
}

func TestResetStepState(t *testing.T) {
	man, err := New(1, Manufacturer, Defaults())
	require.NoError(t, err)
	man.CustomerIDs = append(man.CustomerIDs, 4)
	man.Prod.ReceivedOrders = 12
	man.Prod.StepProduction = 8

	man.ResetStepState()
	assert.Empty(t, man.CustomerIDs)
	assert.Zero(t, man.Prod.ReceivedOrders)
	assert.Zero(t, man.Prod.StepProduction)
}
