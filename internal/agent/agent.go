// Package agent provides the per-entity economic state of the supply chain
// model. An Agent is a pure state container: every piece of business logic
// lives in the engine, which mutates agents in place each step.
package agent

import (
	"fmt"

	"github.com/talgya/chainflow/internal/params"
)

// ID is a unique identifier for an agent. IDs must be non-zero; zero is
// reserved for the exogenous consumer counterparty.
type ID uint64

// Outside is the counterparty ID used on receivables booked against the
// exogenous consumer. Outside receivables always collect at maturity.
const Outside ID = 0

// Role places an agent in one of the three supply chain tiers.
type Role uint8

const (
	Retailer     Role = 0
	Manufacturer Role = 1
	Supplier     Role = 2
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case Retailer:
		return "retailer"
	case Manufacturer:
		return "manufacturer"
	case Supplier:
		return "supplier"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole converts a role tag to a Role. It accepts the full name or the
// single-letter tags used in population sheets ("r", "m", "s").
func ParseRole(tag string) (Role, error) {
	switch tag {
	case "r", "retailer":
		return Retailer, nil
	case "m", "manufacturer":
		return Manufacturer, nil
	case "s", "supplier":
		return Supplier, nil
	}
	return 0, fmt.Errorf("parse role: %q is not one of retailer, manufacturer, supplier", tag)
}

// RetailerState carries the fields only retailers have: the exogenous
// consumer demand channel.
type RetailerState struct {
	ConsumerDemand     float64 `json:"consumer_demand"`
	ConsumerDemandMean float64 `json:"consumer_demand_mean"`
}

// ProducerState carries the fields only manufacturers and suppliers have:
// upstream order intake and per-step production.
type ProducerState struct {
	ReceivedOrders float64 `json:"received_orders"`
	StepProduction float64 `json:"step_production"`
}

// Agent is one economic entity with a fixed role. All monetary fields are
// in the same currency unit; WorkingCapital may go negative before the
// bankruptcy check catches it.
type Agent struct {
	ID   ID   `json:"id"`
	Role Role `json:"role"`

	// Balance sheet. The aggregate values are derived once per step from
	// the ledgers below.
	WorkingCapital   float64 `json:"working_capital"`
	FixedAssets      float64 `json:"fixed_assets"`
	InventoryValue   float64 `json:"inventory_value"`
	ReceivablesValue float64 `json:"receivables_value"`
	PayablesValue    float64 `json:"payables_value"`
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	Equity           float64 `json:"equity"`

	// Pricing. SellingPrice is redrawn each step from a lognormal
	// parameterized by MuSellingPrice and SigmaSellingPrice. Q converts
	// capital into production capacity.
	MuSellingPrice    float64 `json:"mu_selling_price"`
	SigmaSellingPrice float64 `json:"sigma_selling_price"`
	SellingPrice      float64 `json:"selling_price"`
	Q                 float64 `json:"q"`

	// Capacity committed for the current step, never negative.
	ProdCap float64 `json:"prod_cap"`

	// Operating parameters.
	PDelivery   float64 `json:"p_delivery"`   // delivery success probability under disruption
	InputMargin float64 `json:"input_margin"` // supplier margin on raw material production
	FixedCost   float64 `json:"fixed_cost"`   // per-step overhead

	// Ledgers, ordered by booking time; removed on maturity.
	Receivables []LedgerEntry    `json:"receivables"`
	Payables    []LedgerEntry    `json:"payables"`
	Inventory   []InventoryEntry `json:"inventory"`
	Financing   []FinancingEntry `json:"financing"`

	// Credit state.
	Liability             float64 `json:"liability"` // outstanding principal+interest
	TotalCreditCapacity   float64 `json:"total_credit_capacity"`
	CurrentCreditCapacity float64 `json:"current_credit_capacity"`
	CreditAvailable       bool    `json:"credit_available"`
	NextFinancingStep     int     `json:"next_financing_step"`
	InterestRate          float64 `json:"interest_rate"` // risk-adjusted, annual
	DefaultProbability    float64 `json:"default_probability"`
	DistanceToDefault     float64 `json:"distance_to_default"`
	InDefault             bool    `json:"in_default"` // missed a financing repayment
	Bankrupt              bool    `json:"bankrupt"`   // terminal, set once

	// Timing parameters, in steps.
	DaysBetweenFinancing int `json:"days_between_financing"`
	FinancingPeriod      int `json:"financing_period"`
	OrderingPeriod       int `json:"ordering_period"`
	DeliveryPeriod       int `json:"delivery_period"`

	// Histories used for volatility estimation and credit sizing.
	AssetHistory []float64 `json:"-"`
	WcapHistory  []float64 `json:"-"`

	// Downstream counterparties served this step; cleared and rebuilt by
	// the matching passes.
	CustomerIDs []ID `json:"-"`

	// Role payload: exactly one of these is non-nil.
	Retail *RetailerState `json:"retail,omitempty"`
	Prod   *ProducerState `json:"prod,omitempty"`
}

// Config holds the named construction values for one agent. Zero-valued
// fields fall back to the documented defaults via Defaults().
type Config struct {
	WorkingCapital       float64
	MuSellingPrice       float64
	SigmaSellingPrice    float64
	Q                    float64
	ConsumerDemandMean   float64 // retailers only
	PDelivery            float64
	InputMargin          float64
	InterestRate         float64
	FixedCost            float64
	DaysBetweenFinancing int
	FinancingPeriod      int
	OrderingPeriod       int
	DeliveryPeriod       int
	FixedAssets          float64
}

// Defaults returns the documented default configuration.
func Defaults() Config {
	return Config{
		WorkingCapital:       100.0,
		MuSellingPrice:       5.0,
		SigmaSellingPrice:    0.1,
		Q:                    0.9,
		ConsumerDemandMean:   60.0,
		PDelivery:            0.8,
		InputMargin:          0.01,
		InterestRate:         params.RiskFreeRate,
		FixedCost:            1.0,
		DaysBetweenFinancing: 30,
		FinancingPeriod:      90,
		OrderingPeriod:       7,
		DeliveryPeriod:       2,
		FixedAssets:          50.0,
	}
}

// New constructs an agent with the given role and configuration. It returns
// an error for an unknown role or a non-positive ordering cadence.
func New(id ID, role Role, cfg Config) (*Agent, error) {
	if role != Retailer && role != Manufacturer && role != Supplier {
		return nil, fmt.Errorf("agent %d: invalid role %d", id, uint8(role))
	}
	if id == Outside {
		return nil, fmt.Errorf("agent id 0 is reserved for the outside consumer")
	}
	if cfg.OrderingPeriod <= 0 {
		cfg.OrderingPeriod = 1
	}
	if cfg.DeliveryPeriod <= 0 {
		cfg.DeliveryPeriod = 1
	}

	a := &Agent{
		ID:                   id,
		Role:                 role,
		WorkingCapital:       cfg.WorkingCapital,
		FixedAssets:          cfg.FixedAssets,
		MuSellingPrice:       cfg.MuSellingPrice,
		SigmaSellingPrice:    cfg.SigmaSellingPrice,
		SellingPrice:         cfg.MuSellingPrice,
		Q:                    cfg.Q,
		PDelivery:            cfg.PDelivery,
		InputMargin:          cfg.InputMargin,
		FixedCost:            cfg.FixedCost,
		InterestRate:         cfg.InterestRate,
		DaysBetweenFinancing: cfg.DaysBetweenFinancing,
		FinancingPeriod:      cfg.FinancingPeriod,
		OrderingPeriod:       cfg.OrderingPeriod,
		DeliveryPeriod:       cfg.DeliveryPeriod,
	}

	switch role {
	case Retailer:
		a.Retail = &RetailerState{ConsumerDemandMean: cfg.ConsumerDemandMean}
	default:
		a.Prod = &ProducerState{}
	}

	return a, nil
}

// Active reports whether the agent still participates in the model.
func (a *Agent) Active() bool {
	return !a.Bankrupt
}

// ResetStepState clears the per-step collaboration sets and production
// counters before a new matching round.
func (a *Agent) ResetStepState() {
	a.CustomerIDs = a.CustomerIDs[:0]
	if a.Prod != nil {
		a.Prod.ReceivedOrders = 0
		a.Prod.StepProduction = 0
	}
	if a.Retail != nil {
		a.Retail.ConsumerDemand = 0
	}
}
