// Ledger maturation, valuation, carrying costs, and the bankruptcy check:
// the financial upkeep that opens every step.
package engine

import (
	"log/slog"

	"github.com/talgya/chainflow/internal/agent"
	"github.com/talgya/chainflow/internal/params"
)

// checkReceivablesAndPayables matures every ledger entry due this step.
// Receivables against the outside consumer always collect; receivables
// against a counterparty that is bankrupt or in default are written off
// silently; the holder absorbs the loss. Payables are paid
// unconditionally, working capital going negative if it must.
func (e *Evolve) checkReceivablesAndPayables(step int) {
	for _, a := range e.pop.Agents() {
		if !a.Active() {
			continue
		}

		kept := a.Receivables[:0]
		for _, entry := range a.Receivables {
			if entry.DueStep > step {
				kept = append(kept, entry)
				continue
			}
			if e.collectible(entry.Counterparty) {
				a.WorkingCapital += entry.Amount
			} else {
				slog.Debug("receivable written off",
					"holder", a.ID, "counterparty", entry.Counterparty, "amount", entry.Amount)
			}
		}
		a.Receivables = kept

		keptPay := a.Payables[:0]
		for _, entry := range a.Payables {
			if entry.DueStep > step {
				keptPay = append(keptPay, entry)
				continue
			}
			a.WorkingCapital -= entry.Amount
		}
		a.Payables = keptPay
	}
}

// collectible reports whether a receivable against the given counterparty
// pays out at maturity.
func (e *Evolve) collectible(counterparty agent.ID) bool {
	if counterparty == agent.Outside {
		return true
	}
	payer := e.pop.MustByID(counterparty)
	return payer.Active() && !payer.InDefault
}

// calculateLedgerValues recomputes the ledger aggregates and the derived
// balance sheet for every live agent, and extends the histories used for
// volatility estimation and credit sizing.
func (e *Evolve) calculateLedgerValues() {
	for _, a := range e.pop.Agents() {
		if !a.Active() {
			continue
		}
		a.RecomputeLedgerValues()
		a.RecomputeBalanceSheet()
		a.WcapHistory = append(a.WcapHistory, a.WorkingCapital)
	}
}

// fixedCostAndCostOfCapital charges every live agent its per-step overhead
// plus a daily carrying cost on working capital.
func (e *Evolve) fixedCostAndCostOfCapital() {
	dailyRate := e.cfg.RiskFreeRate / params.DaysPerYear
	for _, a := range e.pop.Agents() {
		if !a.Active() {
			continue
		}
		a.WorkingCapital -= a.FixedCost + dailyRate*a.WorkingCapital
	}
}

// checkForBankruptcy flags any live agent whose equity has gone
// non-positive and evicts it from its role list exactly once. Bankruptcy
// is terminal: the agent never orders, delivers, finances, or appears in
// risk computation again.
func (e *Evolve) checkForBankruptcy(step int) {
	for _, a := range e.pop.Agents() {
		if a.Bankrupt || a.Equity > 0 {
			continue
		}
		a.Bankrupt = true
		e.pop.Evict(a)
		e.rec.Bankruptcies++
		slog.Info("agent bankrupt",
			"agent", a.ID,
			"role", a.Role.String(),
			"step", step,
			"equity", a.Equity,
			"working_capital", a.WorkingCapital,
			"liability", a.Liability,
		)
	}
}
