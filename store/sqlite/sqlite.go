/*
Package sqlite provides the SQLite-backed implementation of the
commission storage interfaces.

PURPOSE:
  Implements commission.Store (configs, assignments, contracts,
  invoices, commissions) on SQLite. The same patterns apply to
  PostgreSQL with minor dialect changes.

INVARIANTS ENFORCED HERE:
  - One commission per invoice: UNIQUE index on commissions.invoice_id.
    The loser of a concurrent create observes ErrDuplicateCommission.
  - Config immutability: UPDATE of a config referenced by any
    commission row is refused with ErrConfigImmutable.
  - Contract/invoice freeze: mutation is refused once a linked
    commission is approved or paid.
  - External sync mapping: UNIQUE index on invoices.external_ref keeps
    re-synced billing records from duplicating invoices.

KEY QUERIES:
  SumBaseCommission: base_commission rows joined to invoices for the
  calendar year - the OTE cap's running total. Decimal columns are
  stored as TEXT and summed in Go to avoid float drift.

WAL MODE:
  Opened with WAL for better read concurrency. A sync.RWMutex guards
  writes; with PostgreSQL, database-level concurrency control replaces
  it.

SEE ALSO:
  - commission/store.go: Interface definitions
  - commission/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/charlesifrah/HubPay-sub001/commission"
)

// Store implements commission.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commission_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		base_rate TEXT NOT NULL,
		pilot_bonus_rate TEXT NOT NULL DEFAULT '0',
		multi_year_bonus_rate TEXT NOT NULL DEFAULT '0',
		multi_year_basis TEXT NOT NULL DEFAULT 'flat',
		upfront_bonus_rate TEXT NOT NULL DEFAULT '0',
		annual_cap TEXT NOT NULL DEFAULT '0',
		deceleration_rate TEXT NOT NULL DEFAULT '0',
		cap_policy TEXT NOT NULL DEFAULT 'realized',
		version INTEGER NOT NULL DEFAULT 1,
		supersedes_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		ae_id TEXT NOT NULL,
		config_id TEXT NOT NULL REFERENCES commission_configs(id),
		effective_date TEXT NOT NULL,
		end_date TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assignments_ae ON assignments(ae_id, effective_date);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		client_name TEXT NOT NULL,
		ae_id TEXT NOT NULL,
		total_value TEXT NOT NULL DEFAULT '0',
		acv TEXT NOT NULL DEFAULT '0',
		contract_type TEXT NOT NULL,
		length_years INTEGER NOT NULL DEFAULT 1,
		payment_terms TEXT NOT NULL,
		is_pilot INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_ae ON contracts(ae_id);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES contracts(id),
		amount TEXT NOT NULL,
		invoice_date TEXT NOT NULL,
		revenue_type TEXT,
		external_ref TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_invoices_contract ON invoices(contract_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_external_ref
		ON invoices(external_ref) WHERE external_ref IS NOT NULL;

	CREATE TABLE IF NOT EXISTS commissions (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices(id),
		ae_id TEXT NOT NULL,
		config_id TEXT NOT NULL,
		base_commission TEXT NOT NULL,
		pilot_bonus TEXT NOT NULL DEFAULT '0',
		multi_year_bonus TEXT NOT NULL DEFAULT '0',
		upfront_bonus TEXT NOT NULL DEFAULT '0',
		total_commission TEXT NOT NULL,
		ote_applied INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		approved_by TEXT,
		approved_at TEXT,
		rejection_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	-- The one-commission-per-invoice invariant lives here.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_commissions_invoice ON commissions(invoice_id);
	CREATE INDEX IF NOT EXISTS idx_commissions_ae_status ON commissions(ae_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONFIG STORE
// =============================================================================

func (s *Store) SaveConfig(ctx context.Context, cfg commission.CommissionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM commission_configs WHERE id = ?)", cfg.ID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check config: %w", err)
	}

	if exists {
		var referenced bool
		err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM commissions WHERE config_id = ?)", cfg.ID,
		).Scan(&referenced)
		if err != nil {
			return fmt.Errorf("failed to check config references: %w", err)
		}
		if referenced {
			return commission.ErrConfigImmutable
		}
	}

	query := `
		INSERT INTO commission_configs
		(id, name, status, base_rate, pilot_bonus_rate, multi_year_bonus_rate, multi_year_basis,
		 upfront_bonus_rate, annual_cap, deceleration_rate, cap_policy, version, supersedes_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			base_rate = excluded.base_rate,
			pilot_bonus_rate = excluded.pilot_bonus_rate,
			multi_year_bonus_rate = excluded.multi_year_bonus_rate,
			multi_year_basis = excluded.multi_year_basis,
			upfront_bonus_rate = excluded.upfront_bonus_rate,
			annual_cap = excluded.annual_cap,
			deceleration_rate = excluded.deceleration_rate,
			cap_policy = excluded.cap_policy,
			version = excluded.version,
			supersedes_id = excluded.supersedes_id
	`
	_, err = s.db.ExecContext(ctx, query,
		cfg.ID, cfg.Name, cfg.Status,
		cfg.BaseRate.String(), cfg.PilotBonusRate.String(), cfg.MultiYearBonusRate.String(),
		string(cfg.MultiYearBasis), cfg.UpfrontBonusRate.String(),
		cfg.AnnualCap.Decimal().String(), cfg.DecelerationRate.String(), string(cfg.CapPolicy),
		cfg.Version, nullString(string(cfg.SupersedesID)),
		cfg.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context, id commission.ConfigID) (*commission.CommissionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, base_rate, pilot_bonus_rate, multi_year_bonus_rate, multi_year_basis,
		       upfront_bonus_rate, annual_cap, deceleration_rate, cap_policy, version, supersedes_id, created_at
		FROM commission_configs WHERE id = ?
	`, id)

	cfg, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, commission.ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Store) ListConfigs(ctx context.Context) ([]commission.CommissionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, base_rate, pilot_bonus_rate, multi_year_bonus_rate, multi_year_basis,
		       upfront_bonus_rate, annual_cap, deceleration_rate, cap_policy, version, supersedes_id, created_at
		FROM commission_configs ORDER BY name, version
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	var configs []commission.CommissionConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*commission.CommissionConfig, error) {
	var (
		cfg          commission.CommissionConfig
		baseRate     string
		pilotRate    string
		multiRate    string
		basis        string
		upfrontRate  string
		annualCap    string
		decelRate    string
		capPolicy    string
		supersedesID sql.NullString
		createdAt    string
	)
	err := row.Scan(&cfg.ID, &cfg.Name, &cfg.Status, &baseRate, &pilotRate, &multiRate, &basis,
		&upfrontRate, &annualCap, &decelRate, &capPolicy, &cfg.Version, &supersedesID, &createdAt)
	if err != nil {
		return nil, err
	}

	cfg.BaseRate = mustDecimal(baseRate)
	cfg.PilotBonusRate = mustDecimal(pilotRate)
	cfg.MultiYearBonusRate = mustDecimal(multiRate)
	cfg.MultiYearBasis = commission.MultiYearBasis(basis)
	cfg.UpfrontBonusRate = mustDecimal(upfrontRate)
	cfg.AnnualCap = commission.MustParseMoney(annualCap)
	cfg.DecelerationRate = mustDecimal(decelRate)
	cfg.CapPolicy = commission.CapPolicy(capPolicy)
	cfg.SupersedesID = commission.ConfigID(supersedesID.String)
	cfg.CreatedAt = parseTime(createdAt)
	return &cfg, nil
}

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

func (s *Store) SaveAssignment(ctx context.Context, a commission.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate sql.NullString
	if a.EndDate != nil {
		endDate = sql.NullString{String: a.EndDate.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `
		INSERT INTO assignments (id, ae_id, config_id, effective_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET end_date = excluded.end_date
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.AEID, a.ConfigID,
		a.EffectiveDate.UTC().Format(time.RFC3339), endDate,
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func (s *Store) AssignmentsByAE(ctx context.Context, aeID commission.AEID) ([]commission.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ae_id, config_id, effective_date, end_date, created_at
		FROM assignments WHERE ae_id = ? ORDER BY effective_date ASC
	`, aeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []commission.Assignment
	for rows.Next() {
		var (
			a         commission.Assignment
			effective string
			end       sql.NullString
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.AEID, &a.ConfigID, &effective, &end, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.EffectiveDate = parseTime(effective)
		if end.Valid {
			t := parseTime(end.String)
			a.EndDate = &t
		}
		a.CreatedAt = parseTime(createdAt)
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

func (s *Store) SaveContract(ctx context.Context, c commission.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frozen, err := s.contractFrozen(ctx, c.ID)
	if err != nil {
		return err
	}
	if frozen {
		return commission.ErrContractFrozen
	}

	query := `
		INSERT INTO contracts
		(id, client_name, ae_id, total_value, acv, contract_type, length_years, payment_terms, is_pilot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_name = excluded.client_name,
			ae_id = excluded.ae_id,
			total_value = excluded.total_value,
			acv = excluded.acv,
			contract_type = excluded.contract_type,
			length_years = excluded.length_years,
			payment_terms = excluded.payment_terms,
			is_pilot = excluded.is_pilot
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.ClientName, c.AEID,
		c.TotalValue.Decimal().String(), c.ACV.Decimal().String(),
		c.Type, c.LengthYears, c.PaymentTerms, boolToInt(c.IsPilot),
		c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

// contractFrozen reports whether any commission under the contract is
// approved or paid. Such contracts (and their invoices) are read-only.
func (s *Store) contractFrozen(ctx context.Context, id commission.ContractID) (bool, error) {
	var frozen bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM commissions c
			JOIN invoices i ON i.id = c.invoice_id
			WHERE i.contract_id = ? AND c.status IN ('approved', 'paid')
		)
	`, id).Scan(&frozen)
	if err != nil {
		return false, fmt.Errorf("failed to check contract freeze: %w", err)
	}
	return frozen, nil
}

func (s *Store) GetContract(ctx context.Context, id commission.ContractID) (*commission.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		c          commission.Contract
		totalValue string
		acv        string
		isPilot    int
		createdAt  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_name, ae_id, total_value, acv, contract_type, length_years, payment_terms, is_pilot, created_at
		FROM contracts WHERE id = ?
	`, id).Scan(&c.ID, &c.ClientName, &c.AEID, &totalValue, &acv, &c.Type, &c.LengthYears, &c.PaymentTerms, &isPilot, &createdAt)
	if err == sql.ErrNoRows {
		return nil, commission.ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}

	c.TotalValue = commission.MustParseMoney(totalValue)
	c.ACV = commission.MustParseMoney(acv)
	c.IsPilot = isPilot != 0
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func (s *Store) SaveInvoice(ctx context.Context, inv commission.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var frozen bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM commissions WHERE invoice_id = ? AND status IN ('approved', 'paid')
		)
	`, inv.ID).Scan(&frozen)
	if err != nil {
		return fmt.Errorf("failed to check invoice freeze: %w", err)
	}
	if frozen {
		return commission.ErrContractFrozen
	}

	query := `
		INSERT INTO invoices (id, contract_id, amount, invoice_date, revenue_type, external_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			invoice_date = excluded.invoice_date,
			revenue_type = excluded.revenue_type,
			external_ref = excluded.external_ref
	`
	_, err = s.db.ExecContext(ctx, query,
		inv.ID, inv.ContractID, inv.Amount.Decimal().String(),
		inv.InvoiceDate.UTC().Format(time.RFC3339),
		nullString(inv.RevenueType), nullString(inv.ExternalRef),
		inv.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id commission.InvoiceID) (*commission.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getInvoiceWhere(ctx, "id = ?", string(id))
}

func (s *Store) GetInvoiceByExternalRef(ctx context.Context, ref string) (*commission.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getInvoiceWhere(ctx, "external_ref = ?", ref)
}

func (s *Store) getInvoiceWhere(ctx context.Context, where string, arg string) (*commission.Invoice, error) {
	var (
		inv         commission.Invoice
		amount      string
		invoiceDate string
		revenueType sql.NullString
		externalRef sql.NullString
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, contract_id, amount, invoice_date, revenue_type, external_ref, created_at
		FROM invoices WHERE `+where, arg,
	).Scan(&inv.ID, &inv.ContractID, &amount, &invoiceDate, &revenueType, &externalRef, &createdAt)
	if err == sql.ErrNoRows {
		return nil, commission.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	inv.Amount = commission.MustParseMoney(amount)
	inv.InvoiceDate = parseTime(invoiceDate)
	inv.RevenueType = revenueType.String
	inv.ExternalRef = externalRef.String
	inv.CreatedAt = parseTime(createdAt)
	return &inv, nil
}

// =============================================================================
// COMMISSION STORE
// =============================================================================

func (s *Store) CreateCommission(ctx context.Context, c commission.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO commissions
		(id, invoice_id, ae_id, config_id, base_commission, pilot_bonus, multi_year_bonus, upfront_bonus,
		 total_commission, ote_applied, status, approved_by, approved_at, rejection_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.InvoiceID, c.AEID, c.ConfigID,
		c.BaseCommission.Decimal().String(), c.PilotBonus.Decimal().String(),
		c.MultiYearBonus.Decimal().String(), c.UpfrontBonus.Decimal().String(),
		c.TotalCommission.Decimal().String(), boolToInt(c.OTEApplied),
		c.Status, nullStringPtr(c.ApprovedBy), nullTimePtr(c.ApprovedAt), nullStringPtr(c.RejectionReason),
		c.CreatedAt.UTC().Format(time.RFC3339), c.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			existing, lookupErr := s.getCommissionWhere(ctx, "invoice_id = ?", string(c.InvoiceID))
			if lookupErr == nil {
				return &commission.DuplicateCommissionError{InvoiceID: c.InvoiceID, ExistingID: existing.ID}
			}
			return commission.ErrDuplicateCommission
		}
		return fmt.Errorf("failed to create commission: %w", err)
	}
	return nil
}

func (s *Store) GetCommission(ctx context.Context, id commission.CommissionID) (*commission.Commission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCommissionWhere(ctx, "id = ?", string(id))
}

func (s *Store) GetCommissionByInvoice(ctx context.Context, invoiceID commission.InvoiceID) (*commission.Commission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCommissionWhere(ctx, "invoice_id = ?", string(invoiceID))
}

func (s *Store) getCommissionWhere(ctx context.Context, where string, arg string) (*commission.Commission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, invoice_id, ae_id, config_id, base_commission, pilot_bonus, multi_year_bonus, upfront_bonus,
		       total_commission, ote_applied, status, approved_by, approved_at, rejection_reason, created_at, updated_at
		FROM commissions WHERE `+where, arg)

	c, err := scanCommission(row)
	if err == sql.ErrNoRows {
		return nil, commission.ErrCommissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateCommissionStatus(ctx context.Context, id commission.CommissionID, status commission.CommissionStatus, meta commission.StatusMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		approvedBy      sql.NullString
		approvedAt      sql.NullString
		rejectionReason sql.NullString
	)
	switch status {
	case commission.StatusApproved:
		approvedBy = sql.NullString{String: meta.Actor, Valid: true}
		approvedAt = sql.NullString{String: meta.At.UTC().Format(time.RFC3339), Valid: true}
	case commission.StatusRejected:
		rejectionReason = sql.NullString{String: meta.RejectionReason, Valid: true}
	}

	query := `
		UPDATE commissions SET
			status = ?,
			approved_by = COALESCE(?, approved_by),
			approved_at = COALESCE(?, approved_at),
			rejection_reason = COALESCE(?, rejection_reason),
			updated_at = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		status, approvedBy, approvedAt, rejectionReason,
		meta.At.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update commission status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return commission.ErrCommissionNotFound
	}
	return nil
}

func (s *Store) SumBaseCommission(ctx context.Context, aeID commission.AEID, year int, statuses []commission.CommissionStatus) (commission.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(statuses) == 0 {
		return commission.ZeroMoney(), nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := []any{string(aeID)}
	for _, st := range statuses {
		args = append(args, string(st))
	}
	args = append(args, fmt.Sprintf("%d", year))

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.base_commission
		FROM commissions c
		JOIN invoices i ON i.id = c.invoice_id
		WHERE c.ae_id = ? AND c.status IN (`+placeholders+`)
		  AND strftime('%Y', i.invoice_date) = ?
	`, args...)
	if err != nil {
		return commission.ZeroMoney(), fmt.Errorf("failed to sum base commission: %w", err)
	}
	defer rows.Close()

	total := commission.ZeroMoney()
	for rows.Next() {
		var base string
		if err := rows.Scan(&base); err != nil {
			return commission.ZeroMoney(), err
		}
		total = total.Add(commission.MustParseMoney(base))
	}
	return total, rows.Err()
}

func (s *Store) ListCommissions(ctx context.Context, filter commission.CommissionFilter) ([]commission.Commission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT c.id, c.invoice_id, c.ae_id, c.config_id, c.base_commission, c.pilot_bonus, c.multi_year_bonus,
		       c.upfront_bonus, c.total_commission, c.ote_applied, c.status, c.approved_by, c.approved_at,
		       c.rejection_reason, c.created_at, c.updated_at
		FROM commissions c
	`
	var (
		where []string
		args  []any
	)
	if filter.Year != 0 {
		query += " JOIN invoices i ON i.id = c.invoice_id"
		where = append(where, "strftime('%Y', i.invoice_date) = ?")
		args = append(args, fmt.Sprintf("%d", filter.Year))
	}
	if filter.AEID != "" {
		where = append(where, "c.ae_id = ?")
		args = append(args, string(filter.AEID))
	}
	if filter.Status != "" {
		where = append(where, "c.status = ?")
		args = append(args, string(filter.Status))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	defer rows.Close()

	var commissions []commission.Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		commissions = append(commissions, *c)
	}
	return commissions, rows.Err()
}

func scanCommission(row rowScanner) (*commission.Commission, error) {
	var (
		c               commission.Commission
		base            string
		pilot           string
		multiYear       string
		upfront         string
		total           string
		oteApplied      int
		approvedBy      sql.NullString
		approvedAt      sql.NullString
		rejectionReason sql.NullString
		createdAt       string
		updatedAt       string
	)
	err := row.Scan(&c.ID, &c.InvoiceID, &c.AEID, &c.ConfigID, &base, &pilot, &multiYear, &upfront,
		&total, &oteApplied, &c.Status, &approvedBy, &approvedAt, &rejectionReason, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	c.BaseCommission = commission.MustParseMoney(base)
	c.PilotBonus = commission.MustParseMoney(pilot)
	c.MultiYearBonus = commission.MustParseMoney(multiYear)
	c.UpfrontBonus = commission.MustParseMoney(upfront)
	c.TotalCommission = commission.MustParseMoney(total)
	c.OTEApplied = oteApplied != 0
	if approvedBy.Valid {
		c.ApprovedBy = &approvedBy.String
	}
	if approvedAt.Valid {
		t := parseTime(approvedAt.String)
		c.ApprovedAt = &t
	}
	if rejectionReason.Valid {
		c.RejectionReason = &rejectionReason.String
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// =============================================================================
// RESET - For demo scenarios and tests
// =============================================================================

// Reset drops all data. Dev/demo only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"commissions", "invoices", "contracts", "assignments", "commission_configs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var _ commission.Store = (*Store)(nil)
