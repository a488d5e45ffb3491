/*
store.go - Persistence interfaces for the commission engine

PURPOSE:
  Defines the interface between domain logic and the database. The
  engine only ever talks to these interfaces; SQLite and the in-memory
  store both implement them.

KEY INTERFACES:
  ConfigStore:     Commission plans (versioned, immutable once referenced)
  AssignmentStore: AE-to-config date intervals
  ContractStore:   Contracts and invoices (frozen once commissions finalize)
  CommissionStore: Commission records and the YTD base-commission sum

ATOMICITY CONTRACT:
  CreateCommission must be atomic with respect to the one-commission-
  per-invoice invariant: concurrent creates for the same invoice must
  leave exactly one record, with the loser observing
  ErrDuplicateCommission. SQLite enforces this with a unique index on
  invoice_id; the memory store with a map check under lock.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:    Production SQLite
  - commission/store/memory.go: In-memory for tests
*/
package commission

import (
	"context"
	"time"
)

// =============================================================================
// CONFIG STORE
// =============================================================================

type ConfigStore interface {
	// SaveConfig inserts or updates a config. Updating a config that is
	// referenced by any persisted commission fails with ErrConfigImmutable;
	// callers create a new version instead (see NewConfigVersion).
	SaveConfig(ctx context.Context, cfg CommissionConfig) error

	GetConfig(ctx context.Context, id ConfigID) (*CommissionConfig, error)

	ListConfigs(ctx context.Context) ([]CommissionConfig, error)
}

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

type AssignmentStore interface {
	// SaveAssignment persists an assignment. Callers are responsible for
	// supersede/overlap handling (see Engine.AssignConfig).
	SaveAssignment(ctx context.Context, a Assignment) error

	// AssignmentsByAE returns all assignments for an AE, ordered by
	// EffectiveDate ascending.
	AssignmentsByAE(ctx context.Context, aeID AEID) ([]Assignment, error)
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

type ContractStore interface {
	// SaveContract inserts or updates a contract. Mutating a contract
	// with finalized commissions fails with ErrContractFrozen.
	SaveContract(ctx context.Context, c Contract) error

	GetContract(ctx context.Context, id ContractID) (*Contract, error)

	// SaveInvoice inserts or updates an invoice, same freeze rule.
	SaveInvoice(ctx context.Context, inv Invoice) error

	GetInvoice(ctx context.Context, id InvoiceID) (*Invoice, error)

	// GetInvoiceByExternalRef looks up an invoice by the billing
	// system's identifier. Returns ErrInvoiceNotFound when unmapped.
	GetInvoiceByExternalRef(ctx context.Context, ref string) (*Invoice, error)
}

// =============================================================================
// COMMISSION STORE
// =============================================================================

// CommissionFilter narrows ListCommissions. Zero fields match everything.
type CommissionFilter struct {
	AEID   AEID
	Status CommissionStatus
	Year   int
}

type CommissionStore interface {
	// CreateCommission persists a new record. Fails with
	// ErrDuplicateCommission if the invoice already has one.
	CreateCommission(ctx context.Context, c Commission) error

	GetCommission(ctx context.Context, id CommissionID) (*Commission, error)

	// GetCommissionByInvoice returns ErrCommissionNotFound when the
	// invoice has no commission yet.
	GetCommissionByInvoice(ctx context.Context, invoiceID InvoiceID) (*Commission, error)

	// UpdateCommissionStatus applies an already-validated transition.
	// The store only writes; transition legality lives in status.go.
	UpdateCommissionStatus(ctx context.Context, id CommissionID, status CommissionStatus, meta StatusMeta) error

	// SumBaseCommission totals base commission for an AE across
	// commissions in the given calendar year whose status is in
	// statuses. This is the OTE cap's running total.
	SumBaseCommission(ctx context.Context, aeID AEID, year int, statuses []CommissionStatus) (Money, error)

	ListCommissions(ctx context.Context, filter CommissionFilter) ([]Commission, error)
}

// =============================================================================
// AGGREGATE STORE
// =============================================================================

// Store is the full persistence surface the engine is constructed with.
type Store interface {
	ConfigStore
	AssignmentStore
	ContractStore
	CommissionStore
}

// =============================================================================
// CONFIG VERSIONING HELPER
// =============================================================================

// NewConfigVersion derives the successor of cfg with updated fields
// applied by mutate. The successor gets a fresh identity, Version+1 and
// SupersedesID set; the original row is left untouched.
func NewConfigVersion(cfg CommissionConfig, id ConfigID, now time.Time, mutate func(*CommissionConfig)) CommissionConfig {
	next := cfg
	next.ID = id
	next.Version = cfg.Version + 1
	next.SupersedesID = cfg.ID
	next.CreatedAt = now
	if mutate != nil {
		mutate(&next)
	}
	return next
}
