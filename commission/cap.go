/*
cap.go - Annual OTE cap and rate deceleration

PURPOSE:
  Tracks an AE's running total of base commission for the calendar year
  and decelerates the rate past the On-Target-Earnings ceiling.

WHICH COMMISSIONS COUNT:
  The running total is taken from persisted commissions whose status
  matches the config's CapPolicy:
    realized  (default) - approved + paid only; pending and rejected
                          records do not consume headroom
    committed           - pending + approved + paid, preventing
                          over-promising before approvals land

BRANCHES:
  total + proposed <= cap   full amount, no deceleration
  total >= cap              entire amount decelerated
  cap crossed mid-invoice   split: headroom at full rate, remainder
                            at DecelerationRate

  A cap of zero (or negative) means uncapped: never decelerate.

CONCURRENCY:
  The read-then-write across SumBaseCommission and the subsequent
  commission insert is a check-then-act race for concurrent invoices of
  the same AE/year. The engine serializes it with a per-AE-per-year
  lock; see engine.go.
*/
package commission

import "context"

// CapResult is the outcome of applying the cap to a proposed base amount.
type CapResult struct {
	// Adjusted is the base amount after any deceleration, rounded to cents.
	Adjusted Money

	// OTEApplied is true when deceleration affected the amount.
	OTEApplied bool

	// RunningTotal is the realized/committed total the decision was
	// based on, useful for summaries and logs.
	RunningTotal Money
}

// CapTracker applies the annual cap using the store's YTD totals.
type CapTracker struct {
	Commissions CommissionStore
}

// Apply determines the effective base amount for a proposed commission
// given the AE's running total for the year.
func (ct *CapTracker) Apply(ctx context.Context, aeID AEID, year int, proposed Money, cfg CommissionConfig) (CapResult, error) {
	if !cfg.Capped() {
		return CapResult{Adjusted: proposed.Round()}, nil
	}

	total, err := ct.Commissions.SumBaseCommission(ctx, aeID, year, cfg.CapStatuses())
	if err != nil {
		return CapResult{}, err
	}

	return applyCap(total, proposed, cfg), nil
}

// applyCap is the pure cap math, separated for direct testing.
func applyCap(runningTotal, proposed Money, cfg CommissionConfig) CapResult {
	cap := cfg.AnnualCap

	// Fits entirely under the cap.
	if runningTotal.Add(proposed).LessThan(cap) || runningTotal.Add(proposed).Equal(cap) {
		return CapResult{Adjusted: proposed.Round(), RunningTotal: runningTotal}
	}

	// Already at or past the cap: everything decelerates.
	if runningTotal.GreaterThanOrEqual(cap) {
		return CapResult{
			Adjusted:     proposed.Mul(cfg.DecelerationRate).Round(),
			OTEApplied:   true,
			RunningTotal: runningTotal,
		}
	}

	// Cap crossed mid-invoice: headroom at full rate, remainder decelerated.
	headroom := cap.Sub(runningTotal)
	overflow := proposed.Sub(headroom)
	adjusted := headroom.Add(overflow.Mul(cfg.DecelerationRate)).Round()
	return CapResult{Adjusted: adjusted, OTEApplied: true, RunningTotal: runningTotal}
}
