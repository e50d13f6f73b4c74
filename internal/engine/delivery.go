// Downstream delivery propagation: supplier → manufacturer → retailer →
// consumer, with per-manufacturer gating on outstanding supplier
// deliveries.
package engine

import (
	"fmt"
	"math"

	"github.com/talgya/chainflow/internal/agent"
	"github.com/talgya/chainflow/internal/order"
	"github.com/talgya/chainflow/internal/params"
)

// deliverToManufacturers realizes every supplier delivery scheduled for
// this step. A disrupted or bankrupt supplier delivers nothing but still
// resolves its slot, so the manufacturer's outstanding counter always
// reaches zero. Delivering on an edge that pairing never registered is a
// programming error.
func (e *Evolve) deliverToManufacturers(step int) {
	for _, o := range e.ordersWhere((*order.Order).AwaitsSupplierDeliveries) {
		allDelivered := true

		for i := range o.Suppliers {
			sa := &o.Suppliers[i]
			if sa.Delivered {
				continue
			}
			if sa.DeliveryStep > step {
				allDelivered = false
				continue
			}
			if !o.HasPair(sa.AgentID, sa.ManufacturerID) {
				panic(fmt.Sprintf("order %d: delivery on unregistered pair (supplier %d, manufacturer %d)",
					o.Number, sa.AgentID, sa.ManufacturerID))
			}

			sup := e.pop.MustByID(sa.AgentID)
			amount := sa.Amount
			switch {
			case !sup.Active():
				amount = 0
			case e.disruption && !e.rng.Bernoulli(sup.PDelivery):
				amount = 0
			}

			sa.Delivered = true
			sa.DeliveredAmount = amount
			if amount > 0 {
				sup.Prod.StepProduction += amount
				sup.WorkingCapital += sup.InputMargin * amount
			}

			o.Outstanding[sa.ManufacturerID]--
			if o.Outstanding[sa.ManufacturerID] < 0 {
				panic(fmt.Sprintf("order %d: outstanding counter for manufacturer %d went negative",
					o.Number, sa.ManufacturerID))
			}
		}

		if allDelivered {
			o.MarkDeliveredToManufacturers()
		}
	}
}

// planDeliveryToRetailer schedules each manufacturer's dispatch once all of
// its chosen suppliers have resolved. The dispatched amount is what
// actually arrived, never more than was allocated.
func (e *Evolve) planDeliveryToRetailer(step int) {
	for _, o := range e.ordersWhere((*order.Order).AwaitsRetailerPlanning) {
		for _, ma := range o.Manufacturers {
			if o.HasDispatchPlan(ma.AgentID) || o.Outstanding[ma.AgentID] != 0 {
				continue
			}

			received := 0.0
			for _, sa := range o.Suppliers {
				if sa.ManufacturerID == ma.AgentID && sa.Delivered {
					received += sa.DeliveredAmount
				}
			}
			amount := math.Min(received, ma.Amount)

			o.DeliveryPlan = append(o.DeliveryPlan, order.PlannedDelivery{
				ManufacturerID: ma.AgentID,
				DeliveryStep:   step + ma.ProductionTime,
				Amount:         amount,
			})
		}
	}
}

// deliverToRetailer fires every planned manufacturer dispatch due this
// step, releasing the manufacturer's matured input inventory and
// accumulating the order's delivered amount. A manufacturer that went
// bankrupt before dispatch delivers nothing.
func (e *Evolve) deliverToRetailer(step int) {
	for _, o := range e.orders {
		if !o.PairsCreated || !o.Feasible || o.Completed {
			continue
		}

		for i := range o.DeliveryPlan {
			pd := &o.DeliveryPlan[i]
			if pd.Delivered || pd.DeliveryStep > step {
				continue
			}

			man := e.pop.MustByID(pd.ManufacturerID)
			if !man.Active() {
				pd.Amount = 0
			} else {
				man.ReleaseInventory(step)
				man.Prod.StepProduction += pd.Amount
			}

			pd.Delivered = true
			o.DeliveredToRetailer += pd.Amount
		}
	}
}

// planDeliveryByRetailer schedules the final delivery to the exogenous
// consumer once every manufacturer slice of the order has dispatched.
func (e *Evolve) planDeliveryByRetailer(step int) {
	for _, o := range e.orders {
		if o.RetailerDeliveryPlanned || !o.DeliveredToManufacturers || !o.Feasible {
			continue
		}
		if len(o.DeliveryPlan) != len(o.Manufacturers) || !allDispatched(o) {
			continue
		}

		ret := e.pop.MustByID(o.RetailerID)
		if !ret.Active() {
			// The retailer went under while goods were in transit; the
			// order stalls with the chain's costs already sunk.
			continue
		}
		o.MarkRetailerDeliveryPlanned(step + ret.DeliveryPeriod)
	}
}

// retailerDelivery completes the order: the retailer sells the delivered
// amount to the outside consumer on trade credit. Outside receivables
// always collect at maturity.
func (e *Evolve) retailerDelivery(step int) {
	for _, o := range e.ordersWhere((*order.Order).AwaitsCompletion) {
		if o.RetailerDeliveryStep > step {
			continue
		}

		ret := e.pop.MustByID(o.RetailerID)
		if !ret.Active() {
			continue
		}

		if revenue := o.DeliveredToRetailer * o.RetailerPrice; revenue > params.AbsTol {
			ret.BookReceivable(revenue, step+e.cfg.PaymentTerm, agent.Outside)
		}
		o.MarkCompleted(step)
		e.rec.OrdersCompleted++
	}
}

func allDispatched(o *order.Order) bool {
	for _, pd := range o.DeliveryPlan {
		if !pd.Delivered {
			return false
		}
	}
	return true
}
