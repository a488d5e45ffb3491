/*
bonus.go - Bonus computation rules

PURPOSE:
  Computes the three bonus components for an invoice. Rules are
  evaluated independently, never compounded on each other, and all can
  co-occur on one invoice. Each amount rounds to cents half up.

RULES:
  Pilot:      invoice.Amount * PilotBonusRate     iff contract.IsPilot
  Multi-year: invoice.Amount * MultiYearBonusRate iff LengthYears > 1
              (flat by default; per-year basis multiplies by the years
              beyond the first)
  Upfront:    invoice.Amount * UpfrontBonusRate   iff upfront terms

Bonuses are not subject to the OTE cap; only base commission is.
*/
package commission

import "github.com/shopspring/decimal"

// BonusBreakdown holds the independently computed bonus amounts.
type BonusBreakdown struct {
	Pilot     Money
	MultiYear Money
	Upfront   Money
}

// Total sums the three components.
func (b BonusBreakdown) Total() Money {
	return b.Pilot.Add(b.MultiYear).Add(b.Upfront)
}

// BonusCalculator evaluates bonus rules against a resolved config.
type BonusCalculator struct{}

// ComputeBonuses evaluates all bonus rules for the invoice.
func (bc *BonusCalculator) ComputeBonuses(contract Contract, invoice Invoice, cfg CommissionConfig) BonusBreakdown {
	return BonusBreakdown{
		Pilot:     bc.pilot(contract, invoice, cfg),
		MultiYear: bc.multiYear(contract, invoice, cfg),
		Upfront:   bc.upfront(contract, invoice, cfg),
	}
}

func (bc *BonusCalculator) pilot(contract Contract, invoice Invoice, cfg CommissionConfig) Money {
	if !contract.IsPilot || cfg.PilotBonusRate.IsZero() {
		return ZeroMoney()
	}
	return invoice.Amount.Mul(cfg.PilotBonusRate).Round()
}

func (bc *BonusCalculator) multiYear(contract Contract, invoice Invoice, cfg CommissionConfig) Money {
	if contract.LengthYears <= 1 || cfg.MultiYearBonusRate.IsZero() {
		return ZeroMoney()
	}
	rate := cfg.MultiYearBonusRate
	if cfg.MultiYearBasis == MultiYearPerYear {
		extraYears := decimal.NewFromInt(int64(contract.LengthYears - 1))
		rate = rate.Mul(extraYears)
	}
	return invoice.Amount.Mul(rate).Round()
}

func (bc *BonusCalculator) upfront(contract Contract, invoice Invoice, cfg CommissionConfig) Money {
	if !contract.PaymentTerms.IsUpfront() || cfg.UpfrontBonusRate.IsZero() {
		return ZeroMoney()
	}
	return invoice.Amount.Mul(cfg.UpfrontBonusRate).Round()
}
