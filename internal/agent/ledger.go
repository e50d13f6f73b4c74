// Ledger entry types and the maturity bookkeeping shared by the balance
// sheet aggregates.
package agent

// LedgerEntry is one receivable or payable: an amount due at a step against
// a counterparty. Counterparty is a weak reference by ID, never an
// ownership edge; Outside marks the exogenous consumer.
type LedgerEntry struct {
	Amount       float64 `json:"amount"`
	DueStep      int     `json:"due_step"`
	Counterparty ID      `json:"counterparty"`
}

// InventoryEntry is input stock booked at cost, held until the step the
// finished goods leave the agent.
type InventoryEntry struct {
	Amount  float64 `json:"amount"` // monetary value at cost
	DueStep int     `json:"due_step"`
}

// FinancingEntry is one short-term financing draw: the compounded repayment
// owed, when it was drawn, and when it falls due.
type FinancingEntry struct {
	Repayment float64 `json:"repayment"`
	DrawStep  int     `json:"draw_step"`
	DueStep   int     `json:"due_step"`
}

// BookReceivable appends a receivable maturing at dueStep.
func (a *Agent) BookReceivable(amount float64, dueStep int, counterparty ID) {
	a.Receivables = append(a.Receivables, LedgerEntry{Amount: amount, DueStep: dueStep, Counterparty: counterparty})
}

// BookPayable appends a payable maturing at dueStep.
func (a *Agent) BookPayable(amount float64, dueStep int, counterparty ID) {
	a.Payables = append(a.Payables, LedgerEntry{Amount: amount, DueStep: dueStep, Counterparty: counterparty})
}

// BookInventory appends input stock at cost, released at dueStep.
func (a *Agent) BookInventory(value float64, dueStep int) {
	a.Inventory = append(a.Inventory, InventoryEntry{Amount: value, DueStep: dueStep})
}

// ReleaseInventory removes every inventory entry due at or before step and
// returns the total value released.
func (a *Agent) ReleaseInventory(step int) float64 {
	released := 0.0
	kept := a.Inventory[:0]
	for _, entry := range a.Inventory {
		if entry.DueStep <= step {
			released += entry.Amount
		} else {
			kept = append(kept, entry)
		}
	}
	a.Inventory = kept
	return released
}

// RecomputeLedgerValues refreshes the inventory, receivables and payables
// aggregates from the ledgers.
func (a *Agent) RecomputeLedgerValues() {
	inv, recv, pay := 0.0, 0.0, 0.0
	for _, e := range a.Inventory {
		inv += e.Amount
	}
	for _, e := range a.Receivables {
		recv += e.Amount
	}
	for _, e := range a.Payables {
		pay += e.Amount
	}
	a.InventoryValue = inv
	a.ReceivablesValue = recv
	a.PayablesValue = pay
}

// RecomputeBalanceSheet derives total assets, total liabilities and equity
// from the refreshed ledger aggregates and appends the asset observation to
// the volatility history.
func (a *Agent) RecomputeBalanceSheet() {
	a.TotalAssets = a.WorkingCapital + a.FixedAssets + a.InventoryValue + a.ReceivablesValue
	a.TotalLiabilities = a.Liability + a.PayablesValue
	a.Equity = a.TotalAssets - a.TotalLiabilities
	a.AssetHistory = append(a.AssetHistory, a.TotalAssets)
}
