// Pricing and capacity realization, consumer demand arrival, and the two
// structurally identical upstream matching passes with trade-credit
// booking.
package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/chainflow/internal/agent"
	"github.com/talgya/chainflow/internal/order"
	"github.com/talgya/chainflow/internal/params"
)

// redrawSellingPrices realizes the daily price noise for every live agent.
func (e *Evolve) redrawSellingPrices() {
	for _, a := range e.pop.Agents() {
		if !a.Active() {
			continue
		}
		a.SellingPrice = e.rng.SellingPrice(a.MuSellingPrice, a.SigmaSellingPrice)
	}
}

// determineCapacity derives the volume each live agent can commit this
// step: self-financed capacity from working capital, optionally inflated
// by discounted available credit and, under supply-chain financing, by the
// factorable value of its receivables.
func (e *Evolve) determineCapacity() {
	for _, a := range e.pop.Agents() {
		if !a.Active() {
			a.ProdCap = 0
			continue
		}

		cap := a.Q * math.Max(a.WorkingCapital, 0)

		if e.wcapFinancing && a.CreditAvailable {
			discount := 1 + a.InterestRate*float64(a.FinancingPeriod)/params.DaysPerYear
			cap += a.Q * a.CurrentCreditCapacity / discount
		}

		if e.scFinancing {
			cap += a.Q * e.factorableReceivables(a)
		}

		a.ProdCap = math.Max(0, cap)
	}
}

// factorableReceivables values the receivables an agent could sell early:
// each is discounted by the payer's default probability plus the factoring
// margin. Receivables against defaulted or bankrupt payers are worthless.
func (e *Evolve) factorableReceivables(a *agent.Agent) float64 {
	total := 0.0
	for _, entry := range a.Receivables {
		haircut := e.cfg.RateMargin
		if entry.Counterparty != agent.Outside {
			payer := e.pop.MustByID(entry.Counterparty)
			if !payer.Active() || payer.InDefault {
				continue
			}
			haircut += payer.DefaultProbability
		}
		if value := entry.Amount * (1 - haircut); value > 0 {
			total += value
		}
	}
	return total
}

// realizeConsumerDemand draws exogenous demand for every retailer whose
// ordering cadence fires this step and spawns one order per positive draw.
// Demand is clipped to the retailer's own capacity.
func (e *Evolve) realizeConsumerDemand(step int) {
	for _, ret := range e.pop.Retailers() {
		if step%ret.OrderingPeriod != 0 {
			continue
		}
		demand := math.Min(e.rng.Exponential(ret.Retail.ConsumerDemandMean), ret.ProdCap)
		ret.Retail.ConsumerDemand = demand
		if demand <= params.AbsTol {
			continue
		}

		e.orderSeq++
		e.orders = append(e.orders, order.New(e.orderSeq, demand, ret.ID, step, ret.SellingPrice))
		e.rec.OrdersCreated++
	}
}

// orderToManufacturers runs the first matching pass: every order awaiting
// it sources its full amount from the cheapest eligible manufacturers,
// greedily. Each allocation books a trade-credit pair (the retailer's
// payable against the manufacturer's receivable, maturing PaymentTerm
// steps out), so the immediate cash effect is zero.
func (e *Evolve) orderToManufacturers(step int) {
	open := e.ordersWhere((*order.Order).AwaitsManufacturerPass)
	if e.shuffle {
		e.rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })
	}

	for _, o := range open {
		ret := e.pop.MustByID(o.RetailerID)
		if !ret.Active() {
			o.MarkInfeasible()
			o.MarkOrderedToManufacturers()
			e.rec.OrdersInfeasible++
			continue
		}

		elig := eligiblePartners(e.pop.Manufacturers(), o.RetailerPrice)
		if len(elig) == 0 {
			o.MarkInfeasible()
			o.MarkOrderedToManufacturers()
			e.rec.OrdersInfeasible++
			continue
		}

		remaining := o.InitialAmount
		for _, m := range elig {
			if remaining <= params.AbsTol {
				break
			}
			alloc := math.Min(m.ProdCap, remaining)
			if alloc <= params.AbsTol {
				continue
			}
			m.ProdCap -= alloc
			remaining -= alloc
			if remaining < -params.AbsTol {
				panic(fmt.Sprintf("order %d: remaining demand went negative (%f)", o.Number, remaining))
			}

			o.Manufacturers = append(o.Manufacturers, order.ManufacturerAllocation{
				AgentID:        m.ID,
				ProductionTime: m.DeliveryPeriod,
				Amount:         alloc,
				Price:          m.SellingPrice,
			})

			value := alloc * m.SellingPrice
			ret.BookPayable(value, step+e.cfg.PaymentTerm, m.ID)
			m.BookReceivable(value, step+e.cfg.PaymentTerm, ret.ID)
			m.Prod.ReceivedOrders += alloc
			m.CustomerIDs = append(m.CustomerIDs, ret.ID)
		}

		o.MarkOrderedToManufacturers()
	}
}

// orderToSuppliers runs the second matching pass: each manufacturer slice
// of an order sources its input requirement from the cheapest eligible
// suppliers. Unlike the first pass, input purchases are paid out of pocket
// at ordering time, the asymmetric cash timing that drives the model's
// bankruptcy dynamics; any shortfall beyond self-financed capacity is
// borrowed short-term when financing is active.
func (e *Evolve) orderToSuppliers(step int) {
	open := e.ordersWhere((*order.Order).AwaitsSupplierPass)
	if e.shuffle {
		e.rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })
	}

	for _, o := range open {
		infeasible := false

		for i := range o.Manufacturers {
			ma := &o.Manufacturers[i]
			man := e.pop.MustByID(ma.AgentID)
			if !man.Active() {
				infeasible = true
				break
			}

			elig := eligiblePartners(e.pop.Suppliers(), man.SellingPrice)
			if len(elig) == 0 {
				infeasible = true
				break
			}

			remaining := ma.Amount
			for _, s := range elig {
				if remaining <= params.AbsTol {
					break
				}
				alloc := math.Min(s.ProdCap, remaining)
				if alloc <= params.AbsTol {
					continue
				}
				s.ProdCap -= alloc
				remaining -= alloc
				if remaining < -params.AbsTol {
					panic(fmt.Sprintf("order %d: remaining input demand went negative (%f)", o.Number, remaining))
				}

				deliveryStep := step + s.DeliveryPeriod
				o.Suppliers = append(o.Suppliers, order.SupplierAllocation{
					AgentID:        s.ID,
					Amount:         alloc,
					DeliveryStep:   deliveryStep,
					ManufacturerID: man.ID,
					Price:          s.SellingPrice,
				})

				cost := alloc * s.SellingPrice
				e.payInputCost(man, cost, step)
				s.WorkingCapital += cost
				s.Prod.ReceivedOrders += alloc
				s.CustomerIDs = append(s.CustomerIDs, man.ID)
				man.BookInventory(cost, deliveryStep)
			}
		}

		if infeasible {
			o.MarkInfeasible()
			e.rec.OrdersInfeasible++
		}
		o.MarkOrderedToSuppliers()
	}
}

// payInputCost settles a manufacturer's input purchase immediately,
// borrowing the part beyond its self-financed capacity when financing is
// active. Working capital may go negative; the bankruptcy check owns the
// consequence.
func (e *Evolve) payInputCost(buyer *agent.Agent, cost float64, step int) {
	if e.wcapFinancing {
		selfFinanced := buyer.Q * math.Max(buyer.WorkingCapital, 0)
		if shortfall := cost - selfFinanced; shortfall > params.AbsTol {
			e.shortTermFinancing(buyer, shortfall, step)
		}
	}
	buyer.WorkingCapital -= cost
}

// eligiblePartners filters live upstream agents that have capacity and
// undercut the buyer's price, sorted ascending by price. The sort is
// stable: equal prices resolve by list position, with no further
// tie-breaking.
func eligiblePartners(upstream []*agent.Agent, buyerPrice float64) []*agent.Agent {
	elig := make([]*agent.Agent, 0, len(upstream))
	for _, u := range upstream {
		if u.Active() && u.ProdCap > params.AbsTol && u.SellingPrice < buyerPrice {
			elig = append(elig, u)
		}
	}
	sort.SliceStable(elig, func(i, j int) bool { return elig[i].SellingPrice < elig[j].SellingPrice })
	return elig
}

// calculateOrderPartners computes the (supplier, manufacturer) edges an
// order actually uses and the per-manufacturer outstanding-delivery
// counter that gates downstream dispatch.
func (e *Evolve) calculateOrderPartners() {
	for _, o := range e.ordersWhere((*order.Order).AwaitsPairing) {
		for _, sa := range o.Suppliers {
			o.RegisterPair(sa.AgentID, sa.ManufacturerID)
			o.Outstanding[sa.ManufacturerID]++
		}
		o.MarkPairsCreated()
	}
}

// ordersWhere returns the orders satisfying a stage predicate.
func (e *Evolve) ordersWhere(pred func(*order.Order) bool) []*order.Order {
	matched := make([]*order.Order, 0, len(e.orders))
	for _, o := range e.orders {
		if pred(o) {
			matched = append(matched, o)
		}
	}
	return matched
}
