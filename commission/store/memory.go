// Package store provides an in-memory commission.Store implementation
// for tests and development. Semantics match the SQLite store: unique
// commission per invoice, immutable referenced configs, frozen
// contracts once commissions finalize.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/charlesifrah/HubPay-sub001/commission"
)

type Memory struct {
	mu sync.RWMutex

	configs     map[commission.ConfigID]commission.CommissionConfig
	assignments map[commission.AssignmentID]commission.Assignment
	contracts   map[commission.ContractID]commission.Contract
	invoices    map[commission.InvoiceID]commission.Invoice
	byExtRef    map[string]commission.InvoiceID

	commissions map[commission.CommissionID]commission.Commission
	byInvoice   map[commission.InvoiceID]commission.CommissionID
}

func NewMemory() *Memory {
	return &Memory{
		configs:     make(map[commission.ConfigID]commission.CommissionConfig),
		assignments: make(map[commission.AssignmentID]commission.Assignment),
		contracts:   make(map[commission.ContractID]commission.Contract),
		invoices:    make(map[commission.InvoiceID]commission.Invoice),
		byExtRef:    make(map[string]commission.InvoiceID),
		commissions: make(map[commission.CommissionID]commission.Commission),
		byInvoice:   make(map[commission.InvoiceID]commission.CommissionID),
	}
}

// =============================================================================
// CONFIG STORE
// =============================================================================

func (m *Memory) SaveConfig(_ context.Context, cfg commission.CommissionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.configs[cfg.ID]; exists && m.configReferencedLocked(cfg.ID) {
		return commission.ErrConfigImmutable
	}
	m.configs[cfg.ID] = cfg
	return nil
}

func (m *Memory) configReferencedLocked(id commission.ConfigID) bool {
	for _, c := range m.commissions {
		if c.ConfigID == id {
			return true
		}
	}
	return false
}

func (m *Memory) GetConfig(_ context.Context, id commission.ConfigID) (*commission.CommissionConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[id]
	if !ok {
		return nil, commission.ErrConfigNotFound
	}
	return &cfg, nil
}

func (m *Memory) ListConfigs(_ context.Context) ([]commission.CommissionConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]commission.CommissionConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

func (m *Memory) SaveAssignment(_ context.Context, a commission.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.assignments[a.ID] = a
	return nil
}

func (m *Memory) AssignmentsByAE(_ context.Context, aeID commission.AEID) ([]commission.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []commission.Assignment
	for _, a := range m.assignments {
		if a.AEID == aeID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate.Before(out[j].EffectiveDate) })
	return out, nil
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

func (m *Memory) SaveContract(_ context.Context, c commission.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.contracts[c.ID]; exists && m.contractFrozenLocked(c.ID) {
		return commission.ErrContractFrozen
	}
	m.contracts[c.ID] = c
	return nil
}

// contractFrozenLocked reports whether any invoice of the contract has
// an approved or paid commission.
func (m *Memory) contractFrozenLocked(id commission.ContractID) bool {
	for _, inv := range m.invoices {
		if inv.ContractID != id {
			continue
		}
		if cid, ok := m.byInvoice[inv.ID]; ok && m.commissions[cid].Finalized() {
			return true
		}
	}
	return false
}

func (m *Memory) GetContract(_ context.Context, id commission.ContractID) (*commission.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contracts[id]
	if !ok {
		return nil, commission.ErrContractNotFound
	}
	return &c, nil
}

func (m *Memory) SaveInvoice(_ context.Context, inv commission.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.invoices[inv.ID]; exists {
		if cid, ok := m.byInvoice[inv.ID]; ok && m.commissions[cid].Finalized() {
			return commission.ErrContractFrozen
		}
	}
	m.invoices[inv.ID] = inv
	if inv.ExternalRef != "" {
		m.byExtRef[inv.ExternalRef] = inv.ID
	}
	return nil
}

func (m *Memory) GetInvoice(_ context.Context, id commission.InvoiceID) (*commission.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inv, ok := m.invoices[id]
	if !ok {
		return nil, commission.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (m *Memory) GetInvoiceByExternalRef(_ context.Context, ref string) (*commission.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byExtRef[ref]
	if !ok {
		return nil, commission.ErrInvoiceNotFound
	}
	inv := m.invoices[id]
	return &inv, nil
}

// =============================================================================
// COMMISSION STORE
// =============================================================================

func (m *Memory) CreateCommission(_ context.Context, c commission.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID, ok := m.byInvoice[c.InvoiceID]; ok {
		return &commission.DuplicateCommissionError{InvoiceID: c.InvoiceID, ExistingID: existingID}
	}
	m.commissions[c.ID] = c
	m.byInvoice[c.InvoiceID] = c.ID
	return nil
}

func (m *Memory) GetCommission(_ context.Context, id commission.CommissionID) (*commission.Commission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.commissions[id]
	if !ok {
		return nil, commission.ErrCommissionNotFound
	}
	return &c, nil
}

func (m *Memory) GetCommissionByInvoice(_ context.Context, invoiceID commission.InvoiceID) (*commission.Commission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byInvoice[invoiceID]
	if !ok {
		return nil, commission.ErrCommissionNotFound
	}
	c := m.commissions[id]
	return &c, nil
}

func (m *Memory) UpdateCommissionStatus(_ context.Context, id commission.CommissionID, status commission.CommissionStatus, meta commission.StatusMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.commissions[id]
	if !ok {
		return commission.ErrCommissionNotFound
	}

	c.Status = status
	c.UpdatedAt = meta.At
	switch status {
	case commission.StatusApproved:
		actor, at := meta.Actor, meta.At
		c.ApprovedBy = &actor
		c.ApprovedAt = &at
	case commission.StatusRejected:
		reason := meta.RejectionReason
		c.RejectionReason = &reason
	}
	m.commissions[id] = c
	return nil
}

func (m *Memory) SumBaseCommission(_ context.Context, aeID commission.AEID, year int, statuses []commission.CommissionStatus) (commission.Money, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[commission.CommissionStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	total := commission.ZeroMoney()
	for _, c := range m.commissions {
		if c.AEID != aeID || !wanted[c.Status] {
			continue
		}
		inv, ok := m.invoices[c.InvoiceID]
		if !ok || inv.InvoiceDate.Year() != year {
			continue
		}
		total = total.Add(c.BaseCommission)
	}
	return total, nil
}

func (m *Memory) ListCommissions(_ context.Context, filter commission.CommissionFilter) ([]commission.Commission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []commission.Commission
	for _, c := range m.commissions {
		if filter.AEID != "" && c.AEID != filter.AEID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Year != 0 {
			inv, ok := m.invoices[c.InvoiceID]
			if !ok || inv.InvoiceDate.Year() != filter.Year {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Reset clears all records. Mirrors the SQLite store's Reset used by
// the demo scenario loader.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs = make(map[commission.ConfigID]commission.CommissionConfig)
	m.assignments = make(map[commission.AssignmentID]commission.Assignment)
	m.contracts = make(map[commission.ContractID]commission.Contract)
	m.invoices = make(map[commission.InvoiceID]commission.Invoice)
	m.byExtRef = make(map[string]commission.InvoiceID)
	m.commissions = make(map[commission.CommissionID]commission.Commission)
	m.byInvoice = make(map[commission.InvoiceID]commission.CommissionID)
	return nil
}

var _ commission.Store = (*Memory)(nil)
