/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  All domain errors in one place. Every failure callers are expected to
  branch on is a typed error, never a bare fmt.Errorf, so the HTTP layer
  can map errors to precise status codes.

ERROR CATEGORIES:
  1. Resolution errors  - No usable config for an AE/date
  2. Invariant errors   - Duplicate commission, illegal transition
  3. Immutability errors - Editing referenced configs or finalized records
  4. Store errors       - Propagated unchanged from persistence

USAGE:
  if errors.Is(err, commission.ErrDuplicateCommission) {
      existing, _ := store.GetCommissionByInvoice(ctx, invoiceID)
      ...
  }
*/
package commission

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfigNotFound is returned when an assignment references a
	// config that does not exist. Retriable once configuration is fixed.
	ErrConfigNotFound = errors.New("commission config not found")

	// ErrDuplicateCommission is returned when a commission already
	// exists for the invoice. Recoverable: fetch the existing record.
	ErrDuplicateCommission = errors.New("commission already exists for invoice")

	// ErrInvalidTransition is returned on an illegal status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCommissionFinalized is returned when recomputation is attempted
	// for an invoice whose commission is already approved or paid.
	ErrCommissionFinalized = errors.New("commission is finalized")

	// ErrConfigImmutable is returned when editing a config that is
	// referenced by a persisted commission.
	ErrConfigImmutable = errors.New("config referenced by commissions is immutable")

	// ErrOverlappingAssignment is returned when a new assignment would
	// overlap an existing bounded one.
	ErrOverlappingAssignment = errors.New("assignment interval overlaps existing assignment")

	// ErrContractFrozen is returned when mutating a contract or invoice
	// whose commission is approved or paid.
	ErrContractFrozen = errors.New("contract has finalized commissions")

	ErrContractNotFound   = errors.New("contract not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrCommissionNotFound = errors.New("commission not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigNotFoundError identifies the resolution that failed.
type ConfigNotFoundError struct {
	AEID     AEID
	ConfigID ConfigID
	OnDate   time.Time
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config %s for AE %s on %s not found",
		e.ConfigID, e.AEID, e.OnDate.Format("2006-01-02"))
}

func (e *ConfigNotFoundError) Unwrap() error { return ErrConfigNotFound }

// DuplicateCommissionError identifies the existing record.
type DuplicateCommissionError struct {
	InvoiceID  InvoiceID
	ExistingID CommissionID
}

func (e *DuplicateCommissionError) Error() string {
	return fmt.Sprintf("invoice %s already has commission %s", e.InvoiceID, e.ExistingID)
}

func (e *DuplicateCommissionError) Unwrap() error { return ErrDuplicateCommission }

// InvalidTransitionError identifies the rejected status change.
type InvalidTransitionError struct {
	CommissionID CommissionID
	From         CommissionStatus
	To           CommissionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("commission %s: cannot transition %s -> %s", e.CommissionID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// MissingReasonError is returned when a rejection carries no reason.
type MissingReasonError struct {
	CommissionID CommissionID
}

func (e *MissingReasonError) Error() string {
	return fmt.Sprintf("commission %s: rejection requires a reason", e.CommissionID)
}

func (e *MissingReasonError) Unwrap() error { return ErrInvalidTransition }

// FinalizedError identifies a refused recomputation.
type FinalizedError struct {
	InvoiceID    InvoiceID
	CommissionID CommissionID
	Status       CommissionStatus
}

func (e *FinalizedError) Error() string {
	return fmt.Sprintf("invoice %s: commission %s is %s and cannot be recomputed",
		e.InvoiceID, e.CommissionID, e.Status)
}

func (e *FinalizedError) Unwrap() error { return ErrCommissionFinalized }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the operation might succeed on retry,
// possibly after configuration is fixed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrOverlappingAssignment) ||
		errors.Is(err, ErrConfigImmutable) ||
		errors.Is(err, ErrContractFrozen) ||
		errors.Is(err, ErrCommissionFinalized)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrCommissionNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}

// IsConflict returns true for races and duplicates callers can recover
// from by fetching the existing record.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateCommission)
}
