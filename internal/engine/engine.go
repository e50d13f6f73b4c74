// Package engine provides the step procedure that evolves the supply chain
// model: ledger maturation, valuation, carrying costs, bankruptcy, credit
// risk, financing, pricing, capacity, order matching, and delivery
// propagation, executed once per simulated day, strictly in that order.
package engine

import (
	"log/slog"

	"github.com/talgya/chainflow/internal/agent"
	"github.com/talgya/chainflow/internal/order"
	"github.com/talgya/chainflow/internal/params"
	"github.com/talgya/chainflow/internal/population"
	"github.com/talgya/chainflow/internal/recorder"
)

// Config holds per-run engine parameters. DefaultConfig supplies the model
// defaults; zero values in a caller-built Config are replaced by them.
type Config struct {
	Seed         int64
	PaymentTerm  int     // trade-credit maturity, steps
	RiskFreeRate float64 // annual
	RateMargin   float64 // lender margin over risk-free rate or PD
	CreditWindow int     // trailing wcap window for credit sizing
	CreditRatio  float64 // trailing mean wcap → total credit capacity
	AssetWindow  int     // rolling asset window for volatility estimation
}

// DefaultConfig returns the documented model defaults.
func DefaultConfig() Config {
	return Config{
		PaymentTerm:  params.PaymentTerm,
		RiskFreeRate: params.RiskFreeRate,
		RateMargin:   params.RateMargin,
		CreditWindow: params.CreditWindow,
		CreditRatio:  params.CreditRatio,
		AssetWindow:  params.AssetWindow,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.PaymentTerm <= 0 {
		c.PaymentTerm = def.PaymentTerm
	}
	if c.RiskFreeRate == 0 {
		c.RiskFreeRate = def.RiskFreeRate
	}
	if c.RateMargin == 0 {
		c.RateMargin = def.RateMargin
	}
	if c.CreditWindow <= 0 {
		c.CreditWindow = def.CreditWindow
	}
	if c.CreditRatio == 0 {
		c.CreditRatio = def.CreditRatio
	}
	if c.AssetWindow <= 0 {
		c.AssetWindow = def.AssetWindow
	}
	return c
}

// Evolve owns the mutable run state: the population, the growing order
// list, the per-run order sequence, and the recorder. Single-threaded by
// design; a step is a sequential pipeline over shared mutable state.
type Evolve struct {
	pop *population.Population
	rec *recorder.Recorder
	cfg Config
	rng *rng

	currentStep int
	orders      []*order.Order
	orderSeq    uint64

	wcapFinancing bool
	scFinancing   bool
	shuffle       bool
	disruption    bool

	// Financing drawn in the current step, keyed by borrower.
	stepFinancing map[agent.ID]float64
}

// New creates an engine over a validated population.
func New(pop *population.Population, cfg Config) *Evolve {
	return &Evolve{
		pop: pop,
		rec: recorder.New(pop.Agents()),
		cfg: cfg.withDefaults(),
		rng: newRNG(cfg.Seed),
	}
}

// Model returns the population for read-only reporting.
func (e *Evolve) Model() *population.Population { return e.pop }

// Recorder returns the run's time-series log.
func (e *Evolve) Recorder() *recorder.Recorder { return e.rec }

// CurrentStep returns the most recently completed step.
func (e *Evolve) CurrentStep() int { return e.currentStep }

// Orders returns the full order list, stalled and completed orders
// included.
func (e *Evolve) Orders() []*order.Order { return e.orders }

// Feature toggles, callable between Proceed invocations.

// ActivateWcapFinancing enables short-term working-capital financing.
func (e *Evolve) ActivateWcapFinancing() { e.wcapFinancing = true }

// DeactivateWcapFinancing disables short-term working-capital financing.
func (e *Evolve) DeactivateWcapFinancing() { e.wcapFinancing = false }

// ActivateSCFinancing enables reverse factoring of sellable receivables
// into production capacity.
func (e *Evolve) ActivateSCFinancing() { e.scFinancing = true }

// DeactivateSCFinancing disables reverse factoring.
func (e *Evolve) DeactivateSCFinancing() { e.scFinancing = false }

// AlwaysShuffle randomizes order-processing sequence before each matching
// pass so no order has a systematic first-mover advantage.
func (e *Evolve) AlwaysShuffle() { e.shuffle = true }

// NeverShuffle processes orders in creation sequence.
func (e *Evolve) NeverShuffle() { e.shuffle = false }

// ActivateRandomNodeLevelDisruption makes each supplier delivery succeed
// only with probability p_delivery.
func (e *Evolve) ActivateRandomNodeLevelDisruption() { e.disruption = true }

// DeactivateRandomNodeLevelDisruption disables delivery disruption.
func (e *Evolve) DeactivateRandomNodeLevelDisruption() { e.disruption = false }

// Proceed advances the model by the given number of steps, synchronously.
func (e *Evolve) Proceed(steps int) {
	for i := 0; i < steps; i++ {
		e.step()
	}
	slog.Info("run advanced",
		"steps", steps,
		"current_step", e.currentStep,
		"orders", len(e.orders),
		"orders_completed", e.rec.OrdersCompleted,
		"orders_infeasible", e.rec.OrdersInfeasible,
		"bankruptcies", e.rec.Bankruptcies,
	)
}

// step runs the per-step procedure. Sub-steps are total: any invariant
// violation panics instead of leaving partially-applied state behind a
// swallowed error.
func (e *Evolve) step() {
	e.currentStep++
	step := e.currentStep
	e.stepFinancing = make(map[agent.ID]float64)

	for _, a := range e.pop.Agents() {
		if a.Active() {
			a.ResetStepState()
		}
	}

	// Financial upkeep before any new business is written.
	e.checkReceivablesAndPayables(step)
	e.calculateLedgerValues()
	e.fixedCostAndCostOfCapital()
	e.checkForBankruptcy(step)
	e.estimateCreditRisk(step)
	if e.wcapFinancing {
		e.repayDebt(step)
		e.checkCreditAvailability(step)
	}

	// Price and capacity realization.
	e.redrawSellingPrices()
	e.determineCapacity()

	// Ordering: demand arrival, then the two upstream matching passes and
	// pair computation.
	e.realizeConsumerDemand(step)
	e.orderToManufacturers(step)
	e.orderToSuppliers(step)
	e.calculateOrderPartners()

	// Delivery propagation back down the chain.
	e.deliverToManufacturers(step)
	e.planDeliveryToRetailer(step)
	e.deliverToRetailer(step)
	e.planDeliveryByRetailer(step)
	e.retailerDelivery(step)

	e.rec.Append(step, e.pop.Agents(), e.stepFinancing)
}
