package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitialState(t *testing.T) {
	one := New(1, 10, 5, 2, 6.5)
	two := New(2, 40, 4, 1, 7.0)

	assert.NotEqual(t, one.Number, two.Number)
	assert.Equal(t, 10.0, one.InitialAmount)
	assert.Equal(t, 40.0, two.InitialAmount)
	assert.EqualValues(t, 5, one.RetailerID)
	assert.Equal(t, 2, one.CreationStep)
	assert.Equal(t, 6.5, one.RetailerPrice)

	assert.False(t, one.OrderedToManufacturers)
	assert.False(t, one.OrderedToSuppliers)
	assert.False(t, one.PairsCreated)
	assert.False(t, one.DeliveredToManufacturers)
	assert.False(t, one.RetailerDeliveryPlanned)
	assert.False(t, one.Completed)
	assert.True(t, one.Feasible)

	assert.Empty(t, one.Manufacturers)
	assert.Empty(t, one.Suppliers)
	assert.Empty(t, one.Pairs)
	assert.Empty(t, one.DeliveryPlan)
	assert.Equal(t, -1, one.RetailerDeliveryStep)
	assert.Equal(t, -1, one.CompletionStep)
}

func TestStageFlagsOnlyMoveForward(t *testing.T) {
	o := New(1, 10, 5, 0, 6)

	o.MarkOrderedToManufacturers()
	assert.True(t, o.OrderedToManufacturers)
	assert.Panics(t, func() { o.MarkOrderedToManufacturers() })

	o.MarkOrderedToSuppliers()
	o.MarkPairsCreated()
	o.MarkDeliveredToManufacturers()
	o.MarkRetailerDeliveryPlanned(12)
	assert.Equal(t, 12, o.RetailerDeliveryStep)

	o.MarkCompleted(14)
	assert.True(t, o.Completed)
	assert.Equal(t, 14, o.CompletionStep)
	assert.Panics(t, func() { o.MarkCompleted(15) })
}

func TestStagePredicates(t *testing.T) {
	o := New(1, 10, 5, 0, 6)
	assert.True(t, o.AwaitsManufacturerPass())
	assert.False(t, o.AwaitsSupplierPass())

	o.MarkOrderedToManufacturers()
	assert.False(t, o.AwaitsManufacturerPass())
	assert.True(t, o.AwaitsSupplierPass())

	o.MarkOrderedToSuppliers()
	assert.True(t, o.AwaitsPairing())

	o.MarkPairsCreated()
	assert.True(t, o.AwaitsSupplierDeliveries())
	assert.True(t, o.AwaitsRetailerPlanning())

	o.MarkDeliveredToManufacturers()
	o.MarkRetailerDeliveryPlanned(9)
	assert.True(t, o.AwaitsCompletion())

	o.MarkCompleted(9)
	assert.False(t, o.AwaitsCompletion())
}

func TestInfeasibleOrderStalls(t *testing.T) {
	o := New(1, 10, 5, 0, 6)
	o.MarkInfeasible()
	o.MarkOrderedToManufacturers()

	// The stage was attempted, but the order never progresses.
	assert.True(t, o.OrderedToManufacturers)
	assert.False(t, o.Feasible)
	assert.False(t, o.AwaitsSupplierPass())
	assert.False(t, o.AwaitsPairing())
}

func TestPairRegistry(t *testing.T) {
	o := New(1, 10, 5, 0, 6)
	o.RegisterPair(30, 20)

	assert.True(t, o.HasPair(30, 20))
	assert.False(t, o.HasPair(20, 30))
	assert.False(t, o.HasPair(31, 20))
}

func TestHasDispatchPlan(t *testing.T) {
	o := New(1, 10, 5, 0, 6)
	require.False(t, o.HasDispatchPlan(20))

	o.DeliveryPlan = append(o.DeliveryPlan, PlannedDelivery{ManufacturerID: 20, DeliveryStep: 4, Amount: 10})
	assert.True(t, o.HasDispatchPlan(20))
	assert.False(t, o.HasDispatchPlan(21))
}
