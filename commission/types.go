/*
Package commission implements the commission calculation engine.

PURPOSE:
  This package contains the domain types and algorithms that turn an
  invoice plus an account executive's active commission plan into a
  priced, bonus-adjusted, cap-aware commission record, and drives that
  record through the approval-to-payout workflow.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A currency amount with 2-decimal precision
  - CommissionConfig: A named, versioned commission plan (rate, bonuses, cap)
  - Assignment: Links an AE to a config for a half-open date interval
  - Contract/Invoice: Read-only inputs to the calculation
  - Commission: The output record, one per invoice

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Immutability: Configs referenced by commissions are never edited,
     only superseded by a new version
  3. Type Safety: Strong typing for IDs prevents mixing AE/config/invoice IDs
  4. One commission per invoice, enforced down to the storage layer

SEE ALSO:
  - resolver.go: Which config applies to an AE on a date
  - bonus.go: Pilot, multi-year and upfront bonus rules
  - cap.go: Annual OTE cap and rate deceleration
  - engine.go: Orchestration and the status workflow
*/
package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency amount with 2-decimal precision
// =============================================================================

// Money is a non-negative currency amount. All arithmetic stays in
// decimal space; rounding to cents happens at computation boundaries
// via Round, never implicitly.
type Money struct {
	value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int64) Money {
	return Money{value: decimal.NewFromInt(value)}
}

func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{value: d}
}

// MustParseMoney parses a decimal string, returning zero on failure.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return Money{value: d}
}

func ZeroMoney() Money { return Money{} }

func (m Money) Decimal() decimal.Decimal    { return m.value }
func (m Money) Add(o Money) Money           { return Money{value: m.value.Add(o.value)} }
func (m Money) Sub(o Money) Money           { return Money{value: m.value.Sub(o.value)} }
func (m Money) Mul(rate decimal.Decimal) Money { return Money{value: m.value.Mul(rate)} }
func (m Money) IsZero() bool                { return m.value.IsZero() }
func (m Money) IsNegative() bool            { return m.value.IsNegative() }
func (m Money) IsPositive() bool            { return m.value.IsPositive() }
func (m Money) Equal(o Money) bool          { return m.value.Equal(o.value) }
func (m Money) LessThan(o Money) bool       { return m.value.LessThan(o.value) }
func (m Money) GreaterThan(o Money) bool    { return m.value.GreaterThan(o.value) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.value.GreaterThanOrEqual(o.value) }

// Round rounds to cents, half up.
func (m Money) Round() Money { return Money{value: m.value.Round(2)} }

// String renders with exactly two decimal places ("1234.50").
// This is the only external representation of currency values.
func (m Money) String() string { return m.value.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.value = d
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AEID string
type ConfigID string
type AssignmentID string
type ContractID string
type InvoiceID string
type CommissionID string

// =============================================================================
// COMMISSION CONFIG - A versioned commission plan
// =============================================================================

type ConfigStatus string

const (
	ConfigActive   ConfigStatus = "active"
	ConfigInactive ConfigStatus = "inactive"
)

// MultiYearBasis selects how the multi-year bonus rate is applied.
type MultiYearBasis string

const (
	// MultiYearFlat: one flat multiplier whenever the contract runs
	// longer than a year. 3-year contract, rate 0.02 -> bonus 2%.
	MultiYearFlat MultiYearBasis = "flat"

	// MultiYearPerYear: multiplier scales with each year beyond the
	// first. 3-year contract, rate 0.02 -> bonus 4%.
	MultiYearPerYear MultiYearBasis = "per-year"
)

// CapPolicy selects which commission statuses count toward the
// annual cap's running total.
type CapPolicy string

const (
	// CapRealized counts only approved and paid base commission.
	// Pending and rejected records do not consume cap headroom.
	CapRealized CapPolicy = "realized"

	// CapCommitted additionally counts pending base commission,
	// preventing over-promising before approvals land.
	CapCommitted CapPolicy = "committed"
)

// CommissionConfig is a commission plan. Once any persisted commission
// references a config, the config is immutable: edits create a new row
// with Version+1 and SupersedesID pointing back.
type CommissionConfig struct {
	ID     ConfigID
	Name   string
	Status ConfigStatus

	// BaseRate is a fraction of invoice amount, e.g. 0.10 for 10%.
	BaseRate decimal.Decimal

	// Bonus rates. Zero disables the bonus.
	PilotBonusRate     decimal.Decimal
	MultiYearBonusRate decimal.Decimal
	MultiYearBasis     MultiYearBasis
	UpfrontBonusRate   decimal.Decimal

	// AnnualCap is the OTE ceiling for base commission in a calendar
	// year. Zero means uncapped.
	AnnualCap Money

	// DecelerationRate multiplies base commission earned past the cap,
	// e.g. 0.5 halves the effective rate.
	DecelerationRate decimal.Decimal

	CapPolicy CapPolicy

	// Versioning
	Version      int
	SupersedesID ConfigID
	CreatedAt    time.Time
}

// Capped reports whether this config enforces an annual cap.
func (c CommissionConfig) Capped() bool {
	return c.AnnualCap.IsPositive()
}

// Statuses that count toward the cap under this config's policy.
func (c CommissionConfig) CapStatuses() []CommissionStatus {
	if c.CapPolicy == CapCommitted {
		return []CommissionStatus{StatusPending, StatusApproved, StatusPaid}
	}
	return []CommissionStatus{StatusApproved, StatusPaid}
}

// =============================================================================
// ASSIGNMENT - AE to config, half-open date interval
// =============================================================================

// Assignment links an AE to exactly one config for [EffectiveDate, EndDate).
// EndDate nil means open-ended. Intervals for one AE must not overlap;
// a new assignment supersedes the old one by truncating its EndDate.
type Assignment struct {
	ID            AssignmentID
	AEID          AEID
	ConfigID      ConfigID
	EffectiveDate time.Time
	EndDate       *time.Time
	CreatedAt     time.Time
}

// Covers reports whether the interval contains the given date:
// EffectiveDate <= on < EndDate (or no end).
func (a Assignment) Covers(on time.Time) bool {
	if on.Before(a.EffectiveDate) {
		return false
	}
	if a.EndDate != nil && !on.Before(*a.EndDate) {
		return false
	}
	return true
}

// Overlaps reports whether two intervals share any instant.
func (a Assignment) Overlaps(b Assignment) bool {
	aEndsBeforeB := a.EndDate != nil && !b.EffectiveDate.Before(*a.EndDate)
	bEndsBeforeA := b.EndDate != nil && !a.EffectiveDate.Before(*b.EndDate)
	return !aEndsBeforeB && !bEndsBeforeA
}

// Date builds a UTC calendar date. All effective/invoice dates in this
// package are day-granular UTC times.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// CONTRACT & INVOICE - Read-only calculation inputs
// =============================================================================

type ContractType string

const (
	ContractNew     ContractType = "new"
	ContractRenewal ContractType = "renewal"
	ContractUpsell  ContractType = "upsell"
)

type PaymentTerms string

const (
	TermsAnnual      PaymentTerms = "annual"
	TermsQuarterly   PaymentTerms = "quarterly"
	TermsMonthly     PaymentTerms = "monthly"
	TermsUpfront     PaymentTerms = "upfront"
	TermsFullUpfront PaymentTerms = "full-upfront"
)

// IsUpfront reports whether the terms qualify for the upfront bonus.
func (t PaymentTerms) IsUpfront() bool {
	return t == TermsUpfront || t == TermsFullUpfront
}

// Contract is created once by an admin and read-only for commission
// purposes afterward. Pilot and multi-year are attributes, not
// contract types; they can co-occur with any ContractType.
type Contract struct {
	ID           ContractID
	ClientName   string
	AEID         AEID
	TotalValue   Money
	ACV          Money
	Type         ContractType
	LengthYears  int
	PaymentTerms PaymentTerms
	IsPilot      bool
	CreatedAt    time.Time
}

// Invoice belongs to exactly one contract. Creating an invoice triggers
// exactly one commission calculation. ExternalRef carries the billing
// system's identifier when the invoice arrived via sync.
type Invoice struct {
	ID          InvoiceID
	ContractID  ContractID
	Amount      Money
	InvoiceDate time.Time
	RevenueType string
	ExternalRef string
	CreatedAt   time.Time
}

// =============================================================================
// COMMISSION - The calculated record
// =============================================================================

// Commission is created exactly once per invoice and mutated only
// through the status workflow. AEID is denormalized from the contract
// for query efficiency.
type Commission struct {
	ID        CommissionID
	InvoiceID InvoiceID
	AEID      AEID

	// ConfigID records which plan priced this commission, making the
	// calculation auditable and the referenced config immutable.
	ConfigID ConfigID

	BaseCommission  Money
	PilotBonus      Money
	MultiYearBonus  Money
	UpfrontBonus    Money
	TotalCommission Money

	// OTEApplied is true when deceleration affected the base amount.
	OTEApplied bool

	Status          CommissionStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sum recomputes base + bonuses. Invariant: equals TotalCommission.
func (c Commission) Sum() Money {
	return c.BaseCommission.Add(c.PilotBonus).Add(c.MultiYearBonus).Add(c.UpfrontBonus)
}

// Finalized reports whether the record may no longer be recomputed.
func (c Commission) Finalized() bool {
	return c.Status == StatusApproved || c.Status == StatusPaid
}
