// Credit-risk estimation (KMV-style distance to default) and short-term
// financing: repayment, availability, and drawdown.
package engine

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/talgya/chainflow/internal/agent"
	"github.com/talgya/chainflow/internal/params"
)

// maxDistanceToDefault caps DD so a near-zero volatility estimate maps to
// PD ≈ 0 instead of an infinity that poisons downstream sinks.
const maxDistanceToDefault = 8.0

// estimateCreditRisk updates distance to default, default probability, and
// the risk-adjusted interest rate for every live agent with enough asset
// history. Asset volatility is the annualized standard deviation of daily
// log returns over a rolling window.
func (e *Evolve) estimateCreditRisk(step int) {
	if step <= e.cfg.AssetWindow {
		return
	}
	for _, a := range e.pop.Agents() {
		if !a.Active() || len(a.AssetHistory) <= e.cfg.AssetWindow {
			continue
		}

		window := a.AssetHistory[len(a.AssetHistory)-e.cfg.AssetWindow-1:]
		returns := make([]float64, 0, len(window)-1)
		usable := true
		for i := 1; i < len(window); i++ {
			if window[i-1] <= 0 || window[i] <= 0 {
				usable = false
				break
			}
			returns = append(returns, math.Log(window[i]/window[i-1]))
		}
		if !usable || a.TotalAssets <= 0 {
			// An agent whose assets touched zero is at the default
			// boundary already.
			a.DistanceToDefault = 0
			a.DefaultProbability = normalCDF(0)
			a.InterestRate = math.Max(e.cfg.RiskFreeRate+e.cfg.RateMargin, a.DefaultProbability+e.cfg.RateMargin)
			continue
		}

		sigma := stat.StdDev(returns, nil) * math.Sqrt(params.DaysPerYear)
		var dd float64
		if sigma < 1e-12 {
			dd = maxDistanceToDefault
		} else {
			dd = (a.TotalAssets - a.TotalLiabilities) / (a.TotalAssets * sigma)
			dd = math.Max(math.Min(dd, maxDistanceToDefault), -maxDistanceToDefault)
		}

		a.DistanceToDefault = dd
		a.DefaultProbability = normalCDF(-dd)
		a.InterestRate = math.Max(e.cfg.RiskFreeRate+e.cfg.RateMargin, a.DefaultProbability+e.cfg.RateMargin)
	}
}

// repayDebt settles every financing entry due this step. The subtraction
// is forced even when working capital is insufficient; failing to cover a
// repayment flags the borrower in default, which is distinct from (and
// softer than) bankruptcy.
func (e *Evolve) repayDebt(step int) {
	for _, a := range e.pop.Agents() {
		if !a.Active() || len(a.Financing) == 0 {
			continue
		}

		kept := a.Financing[:0]
		for _, entry := range a.Financing {
			if entry.DueStep > step {
				kept = append(kept, entry)
				continue
			}
			shortfall := entry.Repayment > a.WorkingCapital
			a.WorkingCapital -= entry.Repayment
			a.Liability -= entry.Repayment
			if a.Liability < 0 {
				a.Liability = 0
			}
			if shortfall {
				a.InDefault = true
				slog.Info("financing repayment missed",
					"agent", a.ID, "step", step,
					"repayment", entry.Repayment,
					"working_capital", a.WorkingCapital,
				)
			}
		}
		a.Financing = kept

		// A defaulted borrower is rehabilitated once it has cleared all
		// outstanding financing and holds positive capital again.
		if a.InDefault && len(a.Financing) == 0 && a.Liability < params.AbsTol && a.WorkingCapital > 0 {
			a.InDefault = false
		}
	}
}

// checkCreditAvailability sizes each live agent's credit line from the
// trailing mean of its working capital, gated by outstanding liability and
// the borrowing cooldown.
func (e *Evolve) checkCreditAvailability(step int) {
	for _, a := range e.pop.Agents() {
		if !a.Active() {
			continue
		}

		window := a.WcapHistory
		if len(window) > e.cfg.CreditWindow {
			window = window[len(window)-e.cfg.CreditWindow:]
		}
		mean := stat.Mean(window, nil)

		a.TotalCreditCapacity = math.Max(0, e.cfg.CreditRatio*mean)
		a.CurrentCreditCapacity = math.Max(0, a.TotalCreditCapacity-a.Liability)
		a.CreditAvailable = a.Liability < a.TotalCreditCapacity &&
			step >= a.NextFinancingStep &&
			!a.InDefault
	}
}

// shortTermFinancing draws up to amount against the agent's current credit
// capacity: cash in now, a compounded repayment scheduled FinancingPeriod
// steps out, and the borrowing cooldown re-armed. Returns the amount
// actually drawn.
func (e *Evolve) shortTermFinancing(a *agent.Agent, amount float64, step int) float64 {
	if !e.wcapFinancing || !a.CreditAvailable || amount <= params.AbsTol {
		return 0
	}

	draw := math.Min(amount, a.CurrentCreditCapacity)
	if draw <= params.AbsTol {
		return 0
	}

	dailyRate := a.InterestRate / params.DaysPerYear
	repayment := draw * math.Pow(1+dailyRate, float64(a.FinancingPeriod))

	a.WorkingCapital += draw
	a.Liability += repayment
	a.Financing = append(a.Financing, agent.FinancingEntry{
		Repayment: repayment,
		DrawStep:  step,
		DueStep:   step + a.FinancingPeriod,
	})
	a.CurrentCreditCapacity -= draw
	a.NextFinancingStep = step + a.DaysBetweenFinancing
	a.CreditAvailable = false

	e.stepFinancing[a.ID] += draw
	slog.Debug("short-term financing drawn",
		"agent", a.ID, "step", step, "draw", draw, "repayment", repayment)
	return draw
}
