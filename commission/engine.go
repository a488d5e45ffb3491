/*
engine.go - Commission calculation engine (orchestrator)

PURPOSE:
  Composes the resolver, bonus calculator and cap tracker into the one
  operation that matters: invoice in, priced commission record out. Also
  owns the approval/payout workflow and the assignment supersede rule.

CALCULATION FLOW:

  invoice ──▶ existing commission?  ──▶ yes: no-op / refuse if finalized
                      │ no
                      ▼
              resolve contract
                      ▼
              resolve config (AE, invoice date)
                      ▼
              base = amount * BaseRate
                      ▼
              apply OTE cap to base        (bonuses are never capped)
                      ▼
              compute bonuses
                      ▼
              persist Commission{pending}

IDEMPOTENCY:
  Calculating twice for one invoice never creates a second record: an
  existing pending/rejected commission is returned unchanged, a
  finalized one is refused with FinalizedError, and the loser of a
  concurrent race observes DuplicateCommissionError from the store's
  unique constraint.

CONCURRENCY:
  Calls are safe for different invoices. The cap's read-then-write for
  the same AE/year is serialized with a per-AE-per-year mutex held
  across the sum, the cap decision and the insert.

DEPENDENCIES:
  Everything is injected (store, notifier, logger, clock). There is no
  package-level singleton; request handlers receive an *Engine.
*/
package commission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine orchestrates commission calculation and the status workflow.
type Engine struct {
	store    Store
	resolver *ConfigResolver
	bonuses  *BonusCalculator
	cap      *CapTracker
	notifier Notifier
	logger   *log.Logger

	// now and newID are injectable for deterministic tests.
	now   func() time.Time
	newID func() string

	// aeYearLocks serializes the cap's check-then-act per AE and year.
	aeYearLocks keyedMutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides commission/assignment ID minting.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine wires an engine from its collaborators. A nil notifier
// disables notifications; a nil logger uses the process default.
func NewEngine(store Store, notifier Notifier, logger *log.Logger, opts ...Option) *Engine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	e := &Engine{
		store:    store,
		resolver: &ConfigResolver{Assignments: store, Configs: store, Logger: logger},
		bonuses:  &BonusCalculator{},
		cap:      &CapTracker{Commissions: store},
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// =============================================================================
// CALCULATION
// =============================================================================

// Calculate produces the commission for an invoice. The invoice must
// already be persisted. Exactly one commission ever exists per invoice:
// repeat calls return the existing record (or refuse when finalized).
func (e *Engine) Calculate(ctx context.Context, invoice Invoice) (*Commission, error) {
	existing, err := e.store.GetCommissionByInvoice(ctx, invoice.ID)
	switch {
	case err == nil:
		if existing.Finalized() {
			return nil, &FinalizedError{InvoiceID: invoice.ID, CommissionID: existing.ID, Status: existing.Status}
		}
		return existing, nil
	case errors.Is(err, ErrCommissionNotFound):
		// No commission yet, proceed.
	default:
		return nil, err
	}

	contract, err := e.store.GetContract(ctx, invoice.ContractID)
	if err != nil {
		return nil, err
	}

	cfg, err := e.resolver.Resolve(ctx, contract.AEID, invoice.InvoiceDate)
	if err != nil {
		return nil, err
	}

	year := invoice.InvoiceDate.Year()
	unlock := e.aeYearLocks.lock(fmt.Sprintf("%s/%d", contract.AEID, year))
	defer unlock()

	proposedBase := invoice.Amount.Mul(cfg.BaseRate).Round()
	capped, err := e.cap.Apply(ctx, contract.AEID, year, proposedBase, *cfg)
	if err != nil {
		return nil, err
	}

	bonuses := e.bonuses.ComputeBonuses(*contract, invoice, *cfg)

	now := e.now()
	c := Commission{
		ID:              CommissionID(e.newID()),
		InvoiceID:       invoice.ID,
		AEID:            contract.AEID,
		ConfigID:        cfg.ID,
		BaseCommission:  capped.Adjusted,
		PilotBonus:      bonuses.Pilot,
		MultiYearBonus:  bonuses.MultiYear,
		UpfrontBonus:    bonuses.Upfront,
		TotalCommission: capped.Adjusted.Add(bonuses.Total()),
		OTEApplied:      capped.OTEApplied,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := e.store.CreateCommission(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCommission) {
			// Lost a create race; the winner's record stands.
			return nil, err
		}
		return nil, err
	}
	return &c, nil
}

// =============================================================================
// STATUS WORKFLOW
// =============================================================================

// Approve moves a pending commission to approved, recording the
// approver, and fires the approval notification best-effort.
func (e *Engine) Approve(ctx context.Context, id CommissionID, approver string) (*Commission, error) {
	c, err := e.transition(ctx, id, StatusApproved, StatusMeta{Actor: approver, At: e.now()})
	if err != nil {
		return nil, err
	}
	e.fireApprovalNotice(*c, approver)
	return c, nil
}

// Reject moves a pending commission to rejected. A reason is required.
func (e *Engine) Reject(ctx context.Context, id CommissionID, rejecter, reason string) (*Commission, error) {
	return e.transition(ctx, id, StatusRejected, StatusMeta{Actor: rejecter, At: e.now(), RejectionReason: reason})
}

// MarkPaid moves an approved commission to paid.
func (e *Engine) MarkPaid(ctx context.Context, id CommissionID, actor string) (*Commission, error) {
	return e.transition(ctx, id, StatusPaid, StatusMeta{Actor: actor, At: e.now()})
}

func (e *Engine) transition(ctx context.Context, id CommissionID, to CommissionStatus, meta StatusMeta) (*Commission, error) {
	c, err := e.store.GetCommission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Transition(to, meta); err != nil {
		return nil, err
	}
	if err := e.store.UpdateCommissionStatus(ctx, id, to, meta); err != nil {
		return nil, err
	}
	return c, nil
}

// fireApprovalNotice delivers the notification without blocking the
// caller. Failures are logged and swallowed: approval already happened.
func (e *Engine) fireApprovalNotice(c Commission, approver string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		clientName := ""
		if inv, err := e.store.GetInvoice(ctx, c.InvoiceID); err == nil {
			if contract, err := e.store.GetContract(ctx, inv.ContractID); err == nil {
				clientName = contract.ClientName
			}
		}

		notice := ApprovalNotice{
			CommissionID: c.ID,
			AEID:         c.AEID,
			Amount:       c.TotalCommission,
			ClientName:   clientName,
			ApprovedBy:   approver,
		}
		if err := e.notifier.NotifyApproval(ctx, notice); err != nil {
			e.logf("approval notification failed for commission %s: %v", c.ID, err)
		}
	}()
}

// =============================================================================
// ASSIGNMENT MANAGEMENT
// =============================================================================

// AssignConfig links an AE to a config from effective onward. An
// existing open-ended assignment is superseded: its EndDate becomes the
// new assignment's EffectiveDate. A true overlap with a bounded
// assignment is rejected.
func (e *Engine) AssignConfig(ctx context.Context, aeID AEID, configID ConfigID, effective time.Time, end *time.Time) (*Assignment, error) {
	if _, err := e.store.GetConfig(ctx, configID); err != nil {
		return nil, err
	}

	next := Assignment{
		ID:            AssignmentID(e.newID()),
		AEID:          aeID,
		ConfigID:      configID,
		EffectiveDate: effective,
		EndDate:       end,
		CreatedAt:     e.now(),
	}

	existing, err := e.store.AssignmentsByAE(ctx, aeID)
	if err != nil {
		return nil, err
	}

	for i := range existing {
		old := existing[i]
		if !old.Overlaps(next) {
			continue
		}
		if old.EndDate == nil && old.EffectiveDate.Before(effective) {
			// Supersede: close the open-ended assignment at the new start.
			endAt := effective
			old.EndDate = &endAt
			if err := e.store.SaveAssignment(ctx, old); err != nil {
				return nil, err
			}
			continue
		}
		return nil, ErrOverlappingAssignment
	}

	if err := e.store.SaveAssignment(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// =============================================================================
// AE SUMMARY - Dashboard read model
// =============================================================================

// AESummary aggregates an AE's commissions for a calendar year.
type AESummary struct {
	AEID AEID
	Year int

	// RealizedBase is approved+paid base commission, the cap's default
	// running total.
	RealizedBase Money
	PendingBase  Money

	// TotalEarned is approved+paid total commission including bonuses.
	TotalEarned Money

	// Cap state from the AE's config as of now. CapRemaining is zero
	// when uncapped or exhausted.
	CapAmount    Money
	CapRemaining Money

	// Decelerated is true when any commission this year had OTE
	// deceleration applied.
	Decelerated bool

	Commissions int
}

// Summary computes the dashboard aggregate for an AE and year.
func (e *Engine) Summary(ctx context.Context, aeID AEID, year int) (*AESummary, error) {
	records, err := e.store.ListCommissions(ctx, CommissionFilter{AEID: aeID, Year: year})
	if err != nil {
		return nil, err
	}

	s := &AESummary{AEID: aeID, Year: year}
	for _, c := range records {
		s.Commissions++
		switch c.Status {
		case StatusApproved, StatusPaid:
			s.RealizedBase = s.RealizedBase.Add(c.BaseCommission)
			s.TotalEarned = s.TotalEarned.Add(c.TotalCommission)
		case StatusPending:
			s.PendingBase = s.PendingBase.Add(c.BaseCommission)
		}
		if c.OTEApplied {
			s.Decelerated = true
		}
	}

	cfg, err := e.resolver.Resolve(ctx, aeID, e.now())
	if err != nil {
		return nil, err
	}
	if cfg.Capped() {
		s.CapAmount = cfg.AnnualCap
		if remaining := cfg.AnnualCap.Sub(s.RealizedBase); remaining.IsPositive() {
			s.CapRemaining = remaining
		}
	}
	return s, nil
}

// =============================================================================
// KEYED MUTEX - Per-AE-per-year serialization
// =============================================================================

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (km *keyedMutex) lock(key string) (unlock func()) {
	km.mu.Lock()
	if km.locks == nil {
		km.locks = make(map[string]*sync.Mutex)
	}
	l, ok := km.locks[key]
	if !ok {
		l = &sync.Mutex{}
		km.locks[key] = l
	}
	km.mu.Unlock()

	l.Lock()
	return l.Unlock
}
