// Package order provides the per-demand-event tracking record that threads
// one unit of exogenous consumer demand upstream for sourcing and back
// downstream for delivery.
package order

import (
	"fmt"

	"github.com/talgya/chainflow/internal/agent"
)

// ManufacturerAllocation is one slice of an order placed with a
// manufacturer during the first matching pass.
type ManufacturerAllocation struct {
	AgentID        agent.ID `json:"agent_id"`
	ProductionTime int      `json:"production_time"` // steps from input arrival to dispatch
	Amount         float64  `json:"amount"`
	Price          float64  `json:"price"`
}

// SupplierAllocation is one slice of a manufacturer's input requirement
// placed with a supplier during the second matching pass.
type SupplierAllocation struct {
	AgentID         agent.ID `json:"agent_id"`
	Amount          float64  `json:"amount"`
	DeliveryStep    int      `json:"delivery_step"`
	ManufacturerID  agent.ID `json:"manufacturer_id"`
	Price           float64  `json:"price"`
	Delivered       bool     `json:"delivered"`
	DeliveredAmount float64  `json:"delivered_amount"`
}

// PlannedDelivery schedules a manufacturer's dispatch to the retailer.
type PlannedDelivery struct {
	ManufacturerID agent.ID `json:"manufacturer_id"`
	DeliveryStep   int      `json:"delivery_step"`
	Amount         float64  `json:"amount"`
	Delivered      bool     `json:"delivered"`
}

// Pair is a (supplier, manufacturer) edge actually used by an order.
type Pair struct {
	SupplierID     agent.ID `json:"supplier_id"`
	ManufacturerID agent.ID `json:"manufacturer_id"`
}

// Order tracks one consumer demand event across its whole lifecycle:
//
//	created → ordered to manufacturers → ordered to suppliers →
//	pairs computed → delivered to manufacturers →
//	retailer delivery planned → completed
//
// Stage flags only ever move forward. Orders are never deleted; a stalled
// infeasible order simply never progresses.
type Order struct {
	Number        uint64   `json:"number"`
	InitialAmount float64  `json:"initial_amount"`
	RetailerID    agent.ID `json:"retailer_id"`
	CreationStep  int      `json:"creation_step"`
	RetailerPrice float64  `json:"retailer_price"` // retailer's selling price at creation

	Manufacturers []ManufacturerAllocation `json:"manufacturers"`
	Suppliers     []SupplierAllocation     `json:"suppliers"`
	Pairs         map[Pair]struct{}        `json:"-"`
	Outstanding   map[agent.ID]int         `json:"-"` // manufacturer → undelivered suppliers
	DeliveryPlan  []PlannedDelivery        `json:"delivery_plan"`

	DeliveredToRetailer  float64 `json:"delivered_to_retailer"`
	RetailerDeliveryStep int     `json:"retailer_delivery_step"` // -1 until planned
	CompletionStep       int     `json:"completion_step"`        // -1 until completed

	OrderedToManufacturers   bool `json:"completed_ordering_to_manufacturers"`
	OrderedToSuppliers       bool `json:"completed_ordering_to_suppliers"`
	PairsCreated             bool `json:"created_pairs"`
	DeliveredToManufacturers bool `json:"completed_delivering_to_manufacturers"`
	RetailerDeliveryPlanned  bool `json:"planned_delivery_by_retailer"`
	Completed                bool `json:"order_completed"`
	Feasible                 bool `json:"order_feasibility"`
}

// New creates an order for a retailer's realized demand. The sequence
// number is issued by the owning engine, never by a shared global.
func New(number uint64, amount float64, retailerID agent.ID, step int, retailerPrice float64) *Order {
	return &Order{
		Number:               number,
		InitialAmount:        amount,
		RetailerID:           retailerID,
		CreationStep:         step,
		RetailerPrice:        retailerPrice,
		Pairs:                make(map[Pair]struct{}),
		Outstanding:          make(map[agent.ID]int),
		RetailerDeliveryStep: -1,
		CompletionStep:       -1,
		Feasible:             true,
	}
}

// Stage transitions. Each marks its flag exactly once; calling a
// transition twice is a programming error.

func (o *Order) MarkOrderedToManufacturers() {
	o.advance(&o.OrderedToManufacturers, "ordering to manufacturers")
}

func (o *Order) MarkOrderedToSuppliers() {
	o.advance(&o.OrderedToSuppliers, "ordering to suppliers")
}

func (o *Order) MarkPairsCreated() {
	o.advance(&o.PairsCreated, "pair creation")
}

func (o *Order) MarkDeliveredToManufacturers() {
	o.advance(&o.DeliveredToManufacturers, "delivery to manufacturers")
}

func (o *Order) MarkRetailerDeliveryPlanned(step int) {
	o.advance(&o.RetailerDeliveryPlanned, "retailer delivery planning")
	o.RetailerDeliveryStep = step
}

func (o *Order) MarkCompleted(step int) {
	o.advance(&o.Completed, "completion")
	o.CompletionStep = step
}

func (o *Order) advance(flag *bool, stage string) {
	if *flag {
		panic(fmt.Sprintf("order %d: %s already done", o.Number, stage))
	}
	*flag = true
}

// MarkInfeasible records that no eligible upstream partner existed at some
// stage. The order stalls permanently but remains in the order list.
func (o *Order) MarkInfeasible() {
	o.Feasible = false
}

// Stage predicates used by the engine's per-stage scans.

func (o *Order) AwaitsManufacturerPass() bool {
	return !o.OrderedToManufacturers
}

func (o *Order) AwaitsSupplierPass() bool {
	return o.OrderedToManufacturers && !o.OrderedToSuppliers && o.Feasible
}

func (o *Order) AwaitsPairing() bool {
	return o.OrderedToSuppliers && !o.PairsCreated && o.Feasible
}

func (o *Order) AwaitsSupplierDeliveries() bool {
	return o.PairsCreated && !o.DeliveredToManufacturers && o.Feasible
}

func (o *Order) AwaitsRetailerPlanning() bool {
	return o.PairsCreated && !o.RetailerDeliveryPlanned && o.Feasible
}

func (o *Order) AwaitsCompletion() bool {
	return o.RetailerDeliveryPlanned && !o.Completed
}

// RegisterPair records a used (supplier, manufacturer) edge.
func (o *Order) RegisterPair(supplierID, manufacturerID agent.ID) {
	o.Pairs[Pair{SupplierID: supplierID, ManufacturerID: manufacturerID}] = struct{}{}
}

// HasPair reports whether the edge was registered during pairing.
func (o *Order) HasPair(supplierID, manufacturerID agent.ID) bool {
	_, ok := o.Pairs[Pair{SupplierID: supplierID, ManufacturerID: manufacturerID}]
	return ok
}

// HasDispatchPlan reports whether the manufacturer's dispatch to the
// retailer has already been scheduled.
func (o *Order) HasDispatchPlan(manufacturerID agent.ID) bool {
	for _, pd := range o.DeliveryPlan {
		if pd.ManufacturerID == manufacturerID {
			return true
		}
	}
	return false
}
