package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlesifrah/HubPay-sub001/commission"
	"github.com/charlesifrah/HubPay-sub001/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testConfig(id commission.ConfigID) commission.CommissionConfig {
	return commission.CommissionConfig{
		ID:                 id,
		Name:               "Standard Plan",
		Status:             commission.ConfigActive,
		BaseRate:           decimal.NewFromFloat(0.10),
		PilotBonusRate:     decimal.NewFromFloat(0.05),
		MultiYearBonusRate: decimal.NewFromFloat(0.02),
		MultiYearBasis:     commission.MultiYearFlat,
		UpfrontBonusRate:   decimal.NewFromFloat(0.01),
		AnnualCap:          commission.NewMoney(100000),
		DecelerationRate:   decimal.NewFromFloat(0.5),
		CapPolicy:          commission.CapRealized,
		Version:            1,
		CreatedAt:          time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// seedDeal creates config, contract and invoice rows so commission
// foreign keys resolve.
func seedDeal(t *testing.T, s *sqlite.Store, aeID commission.AEID, contractID commission.ContractID, invoiceID commission.InvoiceID, invoiceDate time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveContract(ctx, commission.Contract{
		ID: contractID, ClientName: "Acme Corp", AEID: aeID,
		TotalValue: commission.NewMoney(120000), ACV: commission.NewMoney(120000),
		Type: commission.ContractNew, LengthYears: 1,
		PaymentTerms: commission.TermsQuarterly,
		CreatedAt:    invoiceDate,
	}))
	require.NoError(t, s.SaveInvoice(ctx, commission.Invoice{
		ID: invoiceID, ContractID: contractID,
		Amount: commission.NewMoney(30000), InvoiceDate: invoiceDate,
		CreatedAt: invoiceDate,
	}))
}

func testCommission(id commission.CommissionID, invoiceID commission.InvoiceID, aeID commission.AEID, base float64, status commission.CommissionStatus) commission.Commission {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	b := commission.NewMoney(base)
	return commission.Commission{
		ID: id, InvoiceID: invoiceID, AEID: aeID, ConfigID: "cfg-1",
		BaseCommission: b, TotalCommission: b,
		Status: status, CreatedAt: now, UpdatedAt: now,
	}
}

// =============================================================================
// CONFIG PERSISTENCE & IMMUTABILITY
// =============================================================================

func TestSQLite_ConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := testConfig("cfg-1")
	in.SupersedesID = "cfg-0"
	require.NoError(t, s.SaveConfig(ctx, in))

	out, err := s.GetConfig(ctx, "cfg-1")
	require.NoError(t, err)

	assert.Equal(t, in.Name, out.Name)
	assert.True(t, in.BaseRate.Equal(out.BaseRate))
	assert.True(t, in.AnnualCap.Equal(out.AnnualCap))
	assert.True(t, in.DecelerationRate.Equal(out.DecelerationRate))
	assert.Equal(t, commission.MultiYearFlat, out.MultiYearBasis)
	assert.Equal(t, commission.CapRealized, out.CapPolicy)
	assert.Equal(t, commission.ConfigID("cfg-0"), out.SupersedesID)
	assert.Equal(t, 1, out.Version)
}

func TestSQLite_GetConfig_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetConfig(context.Background(), "cfg-ghost")
	assert.ErrorIs(t, err, commission.ErrConfigNotFound)
}

func TestSQLite_ConfigImmutableOnceReferenced(t *testing.T) {
	// GIVEN: A config referenced by a persisted commission
	// WHEN: Saving the config again with a changed rate
	// THEN: ErrConfigImmutable; the stored rate is unchanged

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))
	seedDeal(t, s, "ae-1", "con-1", "inv-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-1", "inv-1", "ae-1", 3000, commission.StatusPending)))

	edited := testConfig("cfg-1")
	edited.BaseRate = decimal.NewFromFloat(0.15)
	err := s.SaveConfig(ctx, edited)
	assert.ErrorIs(t, err, commission.ErrConfigImmutable)

	stored, err := s.GetConfig(ctx, "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, "0.1", stored.BaseRate.String())

	// A new version under a fresh ID is how edits happen.
	next := commission.NewConfigVersion(*stored, "cfg-2", time.Now().UTC(), func(c *commission.CommissionConfig) {
		c.BaseRate = decimal.NewFromFloat(0.15)
	})
	require.NoError(t, s.SaveConfig(ctx, next))

	v2, err := s.GetConfig(ctx, "cfg-2")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, commission.ConfigID("cfg-1"), v2.SupersedesID)
}

func TestSQLite_UnreferencedConfig_Updatable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))

	edited := testConfig("cfg-1")
	edited.Name = "Renamed Plan"
	require.NoError(t, s.SaveConfig(ctx, edited))

	stored, err := s.GetConfig(ctx, "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Plan", stored.Name)
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func TestSQLite_AssignmentsOrderedAndTruncatable(t *testing.T) {
	// GIVEN: Two assignments saved out of order, the first later truncated
	// WHEN: Listing by AE
	// THEN: Ordered by effective date; the updated end date round-trips

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))

	jul := commission.Date(2026, time.July, 1)
	require.NoError(t, s.SaveAssignment(ctx, commission.Assignment{
		ID: "as-2", AEID: "ae-1", ConfigID: "cfg-1", EffectiveDate: jul, CreatedAt: jul,
	}))
	jan := commission.Date(2026, time.January, 1)
	require.NoError(t, s.SaveAssignment(ctx, commission.Assignment{
		ID: "as-1", AEID: "ae-1", ConfigID: "cfg-1", EffectiveDate: jan, CreatedAt: jan,
	}))

	// Truncate the first era at July.
	require.NoError(t, s.SaveAssignment(ctx, commission.Assignment{
		ID: "as-1", AEID: "ae-1", ConfigID: "cfg-1", EffectiveDate: jan, EndDate: &jul, CreatedAt: jan,
	}))

	assignments, err := s.AssignmentsByAE(ctx, "ae-1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, commission.AssignmentID("as-1"), assignments[0].ID)
	require.NotNil(t, assignments[0].EndDate)
	assert.True(t, assignments[0].EndDate.Equal(jul))
	assert.Nil(t, assignments[1].EndDate)
}

// =============================================================================
// ONE COMMISSION PER INVOICE
// =============================================================================

func TestSQLite_DuplicateCommission_Rejected(t *testing.T) {
	// GIVEN: An invoice that already has a commission
	// WHEN: Creating a second commission for it
	// THEN: DuplicateCommissionError naming the existing record

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))
	seedDeal(t, s, "ae-1", "con-1", "inv-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-1", "inv-1", "ae-1", 3000, commission.StatusPending)))

	err := s.CreateCommission(ctx, testCommission("comm-2", "inv-1", "ae-1", 3000, commission.StatusPending))
	require.Error(t, err)
	assert.ErrorIs(t, err, commission.ErrDuplicateCommission)

	var dup *commission.DuplicateCommissionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, commission.CommissionID("comm-1"), dup.ExistingID)
}

// =============================================================================
// STATUS UPDATES
// =============================================================================

func TestSQLite_UpdateStatus_PersistsAuditFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))
	seedDeal(t, s, "ae-1", "con-1", "inv-1", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-1", "inv-1", "ae-1", 3000, commission.StatusPending)))

	at := time.Date(2026, time.April, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.UpdateCommissionStatus(ctx, "comm-1", commission.StatusApproved,
		commission.StatusMeta{Actor: "admin-1", At: at}))

	c, err := s.GetCommission(ctx, "comm-1")
	require.NoError(t, err)
	assert.Equal(t, commission.StatusApproved, c.Status)
	require.NotNil(t, c.ApprovedBy)
	assert.Equal(t, "admin-1", *c.ApprovedBy)
	require.NotNil(t, c.ApprovedAt)
	assert.True(t, c.ApprovedAt.Equal(at))
	assert.True(t, c.UpdatedAt.Equal(at))
}

func TestSQLite_UpdateStatus_UnknownCommission(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateCommissionStatus(context.Background(), "comm-ghost", commission.StatusApproved,
		commission.StatusMeta{Actor: "admin-1", At: time.Now()})
	assert.ErrorIs(t, err, commission.ErrCommissionNotFound)
}

// =============================================================================
// YTD SUM - the cap's running total
// =============================================================================

func TestSQLite_SumBaseCommission_FiltersStatusAndYear(t *testing.T) {
	// GIVEN: Commissions across statuses and years for one AE
	// WHEN: Summing approved+paid base for 2026
	// THEN: Pending, rejected and other-year rows are excluded

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))

	rows := []struct {
		invoice commission.InvoiceID
		date    time.Time
		base    float64
		status  commission.CommissionStatus
	}{
		{"inv-1", commission.Date(2026, time.February, 1), 1000, commission.StatusApproved},
		{"inv-2", commission.Date(2026, time.March, 1), 2000, commission.StatusPaid},
		{"inv-3", commission.Date(2026, time.April, 1), 4000, commission.StatusPending},
		{"inv-4", commission.Date(2026, time.May, 1), 8000, commission.StatusRejected},
		{"inv-5", commission.Date(2025, time.December, 1), 16000, commission.StatusPaid},
	}
	for i, r := range rows {
		contractID := commission.ContractID("con-" + string(r.invoice))
		seedDeal(t, s, "ae-1", contractID, r.invoice, r.date)
		c := testCommission(commission.CommissionID("comm-"+string(rune('a'+i))), r.invoice, "ae-1", r.base, r.status)
		require.NoError(t, s.CreateCommission(ctx, c))
	}

	total, err := s.SumBaseCommission(ctx, "ae-1", 2026,
		[]commission.CommissionStatus{commission.StatusApproved, commission.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, "3000.00", total.String())

	// Committed policy additionally counts pending.
	total, err = s.SumBaseCommission(ctx, "ae-1", 2026,
		[]commission.CommissionStatus{commission.StatusPending, commission.StatusApproved, commission.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, "7000.00", total.String())

	// No statuses, no total.
	total, err = s.SumBaseCommission(ctx, "ae-1", 2026, nil)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

// =============================================================================
// FREEZE RULES
// =============================================================================

func TestSQLite_ContractFrozenAfterFinalizedCommission(t *testing.T) {
	// GIVEN: A contract whose commission is approved
	// WHEN: Saving the contract or its invoice again
	// THEN: ErrContractFrozen for both

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))
	invoiceDate := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedDeal(t, s, "ae-1", "con-1", "inv-1", invoiceDate)
	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-1", "inv-1", "ae-1", 3000, commission.StatusApproved)))

	err := s.SaveContract(ctx, commission.Contract{
		ID: "con-1", ClientName: "Acme Corp Renamed", AEID: "ae-1",
		Type: commission.ContractNew, LengthYears: 1,
		PaymentTerms: commission.TermsQuarterly, CreatedAt: invoiceDate,
	})
	assert.ErrorIs(t, err, commission.ErrContractFrozen)

	err = s.SaveInvoice(ctx, commission.Invoice{
		ID: "inv-1", ContractID: "con-1",
		Amount: commission.NewMoney(99999), InvoiceDate: invoiceDate, CreatedAt: invoiceDate,
	})
	assert.ErrorIs(t, err, commission.ErrContractFrozen)
}

func TestSQLite_PendingCommission_DoesNotFreeze(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))
	invoiceDate := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedDeal(t, s, "ae-1", "con-1", "inv-1", invoiceDate)
	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-1", "inv-1", "ae-1", 3000, commission.StatusPending)))

	err := s.SaveInvoice(ctx, commission.Invoice{
		ID: "inv-1", ContractID: "con-1",
		Amount: commission.NewMoney(35000), InvoiceDate: invoiceDate, CreatedAt: invoiceDate,
	})
	assert.NoError(t, err)
}

// =============================================================================
// EXTERNAL REF MAPPING
// =============================================================================

func TestSQLite_InvoiceByExternalRef(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))
	invoiceDate := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	seedDeal(t, s, "ae-1", "con-1", "inv-seed", invoiceDate)

	require.NoError(t, s.SaveInvoice(ctx, commission.Invoice{
		ID: "inv-1", ContractID: "con-1",
		Amount: commission.NewMoney(5000), InvoiceDate: invoiceDate,
		ExternalRef: "BILL-42", CreatedAt: invoiceDate,
	}))

	inv, err := s.GetInvoiceByExternalRef(ctx, "BILL-42")
	require.NoError(t, err)
	assert.Equal(t, commission.InvoiceID("inv-1"), inv.ID)

	_, err = s.GetInvoiceByExternalRef(ctx, "BILL-404")
	assert.ErrorIs(t, err, commission.ErrInvoiceNotFound)
}

// =============================================================================
// LIST FILTERS & RESET
// =============================================================================

func TestSQLite_ListCommissions_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))

	seedDeal(t, s, "ae-1", "con-1", "inv-1", commission.Date(2026, time.February, 1))
	seedDeal(t, s, "ae-2", "con-2", "inv-2", commission.Date(2026, time.March, 1))
	seedDeal(t, s, "ae-1", "con-3", "inv-3", commission.Date(2025, time.March, 1))

	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-1", "inv-1", "ae-1", 1000, commission.StatusPending)))
	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-2", "inv-2", "ae-2", 2000, commission.StatusApproved)))
	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-3", "inv-3", "ae-1", 3000, commission.StatusPending)))

	all, err := s.ListCommissions(ctx, commission.CommissionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byAE, err := s.ListCommissions(ctx, commission.CommissionFilter{AEID: "ae-1"})
	require.NoError(t, err)
	assert.Len(t, byAE, 2)

	byStatus, err := s.ListCommissions(ctx, commission.CommissionFilter{Status: commission.StatusApproved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, commission.CommissionID("comm-2"), byStatus[0].ID)

	byYear, err := s.ListCommissions(ctx, commission.CommissionFilter{AEID: "ae-1", Year: 2026})
	require.NoError(t, err)
	require.Len(t, byYear, 1)
	assert.Equal(t, commission.CommissionID("comm-1"), byYear[0].ID)
}

func TestSQLite_Reset_ClearsEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveConfig(ctx, testConfig("cfg-1")))
	seedDeal(t, s, "ae-1", "con-1", "inv-1", commission.Date(2026, time.February, 1))
	require.NoError(t, s.CreateCommission(ctx, testCommission("comm-1", "inv-1", "ae-1", 1000, commission.StatusPending)))

	require.NoError(t, s.Reset(ctx))

	_, err := s.GetConfig(ctx, "cfg-1")
	assert.ErrorIs(t, err, commission.ErrConfigNotFound)
	_, err = s.GetContract(ctx, "con-1")
	assert.ErrorIs(t, err, commission.ErrContractNotFound)
	all, err := s.ListCommissions(ctx, commission.CommissionFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
