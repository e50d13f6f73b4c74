// Package recorder keeps the per-step time series of the model: working
// capital, financing draws, default probability, and balance-sheet
// aggregates, each addressable by (agent, step), plus run-level order and
// bankruptcy counters. The recorder is a read-only consumer of agent
// state; it never mutates the model.
package recorder

import (
	"github.com/talgya/chainflow/internal/agent"
)

// Series holds one agent's recorded paths. Index 0 is the pre-run
// snapshot; index n is the state after step n.
type Series struct {
	AgentID            agent.ID  `json:"agent_id"`
	Role               string    `json:"role"`
	WorkingCapital     []float64 `json:"working_capital"`
	Financing          []float64 `json:"financing"`
	DefaultProbability []float64 `json:"default_probability"`
	TotalAssets        []float64 `json:"total_assets"`
	TotalLiabilities   []float64 `json:"total_liabilities"`
	Equity             []float64 `json:"equity"`
}

// Recorder accumulates series for every agent in a run.
type Recorder struct {
	ids    []agent.ID
	series map[agent.ID]*Series
	steps  int

	OrdersCreated    int `json:"orders_created"`
	OrdersCompleted  int `json:"orders_completed"`
	OrdersInfeasible int `json:"orders_infeasible"`
	Bankruptcies     int `json:"bankruptcies"`
}

// New creates a recorder with the step-0 snapshot of every agent.
func New(agents []*agent.Agent) *Recorder {
	r := &Recorder{
		series: make(map[agent.ID]*Series, len(agents)),
	}
	for _, a := range agents {
		s := &Series{AgentID: a.ID, Role: a.Role.String()}
		s.WorkingCapital = append(s.WorkingCapital, a.WorkingCapital)
		s.Financing = append(s.Financing, 0)
		s.DefaultProbability = append(s.DefaultProbability, 0)
		s.TotalAssets = append(s.TotalAssets, a.WorkingCapital+a.FixedAssets)
		s.TotalLiabilities = append(s.TotalLiabilities, 0)
		s.Equity = append(s.Equity, a.WorkingCapital+a.FixedAssets)
		r.series[a.ID] = s
		r.ids = append(r.ids, a.ID)
	}
	return r
}

// Append records the end-of-step state of every agent. Bankrupt agents
// keep appending their frozen state so all series stay the same length.
func (r *Recorder) Append(step int, agents []*agent.Agent, financing map[agent.ID]float64) {
	for _, a := range agents {
		s, ok := r.series[a.ID]
		if !ok {
			continue
		}
		s.WorkingCapital = append(s.WorkingCapital, a.WorkingCapital)
		s.Financing = append(s.Financing, financing[a.ID])
		s.DefaultProbability = append(s.DefaultProbability, a.DefaultProbability)
		s.TotalAssets = append(s.TotalAssets, a.TotalAssets)
		s.TotalLiabilities = append(s.TotalLiabilities, a.TotalLiabilities)
		s.Equity = append(s.Equity, a.Equity)
	}
	r.steps = step
}

// Steps returns the number of recorded steps (excluding the snapshot).
func (r *Recorder) Steps() int { return r.steps }

// AgentIDs returns the recorded agents in registration order.
func (r *Recorder) AgentIDs() []agent.ID { return r.ids }

// SeriesFor returns one agent's series.
func (r *Recorder) SeriesFor(id agent.ID) (*Series, bool) {
	s, ok := r.series[id]
	return s, ok
}

// StepProfit returns the first difference of an agent's working-capital
// path: profit (or loss) realized in each step.
func (r *Recorder) StepProfit(id agent.ID) []float64 {
	s, ok := r.series[id]
	if !ok || len(s.WorkingCapital) < 2 {
		return nil
	}
	profit := make([]float64, len(s.WorkingCapital)-1)
	for i := 1; i < len(s.WorkingCapital); i++ {
		profit[i-1] = s.WorkingCapital[i] - s.WorkingCapital[i-1]
	}
	return profit
}

// AverageProfit returns an agent's mean profit per step.
func (r *Recorder) AverageProfit(id agent.ID) float64 {
	profit := r.StepProfit(id)
	if len(profit) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range profit {
		sum += p
	}
	return sum / float64(len(profit))
}
