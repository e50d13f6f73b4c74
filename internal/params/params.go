// Package params holds the static model constants shared across the
// simulation: comparison tolerance, day-count convention, and the default
// financing and credit-risk parameters.
package params

// AbsTol is the absolute tolerance used when comparing quantities or cash
// amounts against zero. Allocations below this threshold are treated as
// zero.
const AbsTol = 1e-4

// DaysPerYear is the day-count convention for converting annual rates to
// daily carrying costs.
const DaysPerYear = 365.0

// Default financing and credit-risk parameters. Each can be overridden per
// run through engine.Config.
const (
	// RiskFreeRate is the annual risk-free rate applied as a daily
	// carrying cost on working capital.
	RiskFreeRate = 0.02

	// RateMargin is the lender's margin added on top of either the
	// risk-free rate or the borrower's default probability, whichever
	// yields the higher risk-adjusted rate.
	RateMargin = 0.005

	// PaymentTerm is the trade-credit maturity in steps: a receivable/
	// payable pair booked at step t matures at t+PaymentTerm.
	PaymentTerm = 30

	// CreditWindow is the trailing window, in steps, of working-capital
	// history used to size an agent's total credit capacity.
	CreditWindow = 30

	// CreditRatio converts the trailing mean working capital into total
	// credit capacity.
	CreditRatio = 0.5

	// AssetWindow is the rolling window of total-asset history used to
	// estimate asset volatility. Credit risk is not computed before
	// AssetWindow+1 observations exist.
	AssetWindow = 30
)
