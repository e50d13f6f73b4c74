// Record-based population construction. Any tabular source (spreadsheet,
// CSV, database) satisfies the import contract as long as it supplies one
// AgentSpec per agent; parsing that source is the caller's concern.
package population

import (
	"fmt"

	"github.com/talgya/chainflow/internal/agent"
)

// AgentSpec is one per-agent input record, mirroring the column set of the
// population sheet.
type AgentSpec struct {
	AgentID              uint64  `json:"agent_id"`
	Role                 string  `json:"role"`
	WorkingCapital       float64 `json:"working_capital"`
	MuSellingPrice       float64 `json:"mu_selling_price"`
	SigmaSellingPrice    float64 `json:"sigma_selling_price"`
	Q                    float64 `json:"q"`
	ConsumerDemandMean   float64 `json:"consumer_demand_mean"`
	PDelivery            float64 `json:"p_delivery"`
	InputMargin          float64 `json:"input_margin"`
	InterestRate         float64 `json:"interest_rate"`
	FixedCost            float64 `json:"fixed_cost"`
	DaysBetweenFinancing int     `json:"days_between_financing"`
	FinancingPeriod      int     `json:"financing_period"`
	OrderingPeriod       int     `json:"ordering_period"`
	DeliveryPeriod       int     `json:"delivery_period"`
	FixedAssets          float64 `json:"fixed_assets"`
}

// Build constructs a validated population from spec records.
func Build(specs []AgentSpec) (*Population, error) {
	agents := make([]*agent.Agent, 0, len(specs))
	for i, s := range specs {
		role, err := agent.ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("spec %d: %w", i, err)
		}
		a, err := agent.New(agent.ID(s.AgentID), role, agent.Config{
			WorkingCapital:       s.WorkingCapital,
			MuSellingPrice:       s.MuSellingPrice,
			SigmaSellingPrice:    s.SigmaSellingPrice,
			Q:                    s.Q,
			ConsumerDemandMean:   s.ConsumerDemandMean,
			PDelivery:            s.PDelivery,
			InputMargin:          s.InputMargin,
			InterestRate:         s.InterestRate,
			FixedCost:            s.FixedCost,
			DaysBetweenFinancing: s.DaysBetweenFinancing,
			FinancingPeriod:      s.FinancingPeriod,
			OrderingPeriod:       s.OrderingPeriod,
			DeliveryPeriod:       s.DeliveryPeriod,
			FixedAssets:          s.FixedAssets,
		})
		if err != nil {
			return nil, fmt.Errorf("spec %d: %w", i, err)
		}
		agents = append(agents, a)
	}
	return New(agents)
}
