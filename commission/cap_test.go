package commission

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func cappedConfig(cap float64, decel float64, policy CapPolicy) CommissionConfig {
	return CommissionConfig{
		ID:               "cfg-cap",
		BaseRate:         decimal.NewFromFloat(0.10),
		AnnualCap:        NewMoney(cap),
		DecelerationRate: decimal.NewFromFloat(decel),
		CapPolicy:        policy,
		Version:          1,
	}
}

// =============================================================================
// PURE CAP MATH
// =============================================================================

func TestApplyCap_UnderCap_FullAmount(t *testing.T) {
	// GIVEN: Running total $40,000 against a $100,000 cap
	// WHEN: Proposing $50,000 more
	// THEN: Full amount, no deceleration

	cfg := cappedConfig(100000, 0.5, CapRealized)

	res := applyCap(NewMoney(40000), NewMoney(50000), cfg)

	assert.Equal(t, "50000.00", res.Adjusted.String())
	assert.False(t, res.OTEApplied)
}

func TestApplyCap_ExactlyReachesCap_NoDeceleration(t *testing.T) {
	// GIVEN: Running total $95,000 against a $100,000 cap
	// WHEN: Proposing exactly the $5,000 of headroom
	// THEN: Boundary counts as under: full amount, no deceleration

	cfg := cappedConfig(100000, 0.5, CapRealized)

	res := applyCap(NewMoney(95000), NewMoney(5000), cfg)

	assert.Equal(t, "5000.00", res.Adjusted.String())
	assert.False(t, res.OTEApplied)
}

func TestApplyCap_PastCap_EverythingDecelerated(t *testing.T) {
	// GIVEN: Running total already at the $100,000 cap
	// WHEN: Proposing $10,000 more at deceleration 0.5
	// THEN: The entire amount halves

	cfg := cappedConfig(100000, 0.5, CapRealized)

	res := applyCap(NewMoney(100000), NewMoney(10000), cfg)

	assert.Equal(t, "5000.00", res.Adjusted.String())
	assert.True(t, res.OTEApplied)
}

func TestApplyCap_CrossedMidInvoice_Split(t *testing.T) {
	// GIVEN: AE at $95,000 of a $100,000 cap, deceleration 0.5
	// WHEN: Proposing a $1,000,000 base-eligible amount
	// THEN: $5,000 to the cap at full rate, $995,000 halved:
	//       5,000 + 497,500 = 502,500

	cfg := cappedConfig(100000, 0.5, CapRealized)

	res := applyCap(NewMoney(95000), NewMoney(1000000), cfg)

	assert.Equal(t, "502500.00", res.Adjusted.String())
	assert.True(t, res.OTEApplied)
	assert.Equal(t, "95000.00", res.RunningTotal.String())
}

func TestApplyCap_ZeroDeceleration_HardCap(t *testing.T) {
	// GIVEN: Deceleration rate 0 (nothing earned past the cap)
	// WHEN: Crossing the cap mid-invoice
	// THEN: Only the headroom is paid

	cfg := cappedConfig(100000, 0, CapRealized)

	res := applyCap(NewMoney(95000), NewMoney(20000), cfg)

	assert.Equal(t, "5000.00", res.Adjusted.String())
	assert.True(t, res.OTEApplied)
}

// =============================================================================
// UNCAPPED CONFIGS
// =============================================================================

func TestCapTracker_ZeroCap_Uncapped(t *testing.T) {
	// GIVEN: A config with cap 0
	// WHEN: Applying any proposed amount
	// THEN: Never decelerated, and the store is not even consulted

	cfg := cappedConfig(0, 0.5, CapRealized)
	tracker := &CapTracker{Commissions: nil} // would panic if consulted

	res, err := tracker.Apply(context.Background(), "ae-1", 2026, NewMoney(1000000), cfg)
	require.NoError(t, err)

	assert.Equal(t, "1000000.00", res.Adjusted.String())
	assert.False(t, res.OTEApplied)
}

// =============================================================================
// CAP POLICY - which statuses consume headroom
// =============================================================================

func TestCapStatuses_RealizedVsCommitted(t *testing.T) {
	realized := cappedConfig(100000, 0.5, CapRealized)
	assert.ElementsMatch(t,
		[]CommissionStatus{StatusApproved, StatusPaid},
		realized.CapStatuses())

	committed := cappedConfig(100000, 0.5, CapCommitted)
	assert.ElementsMatch(t,
		[]CommissionStatus{StatusPending, StatusApproved, StatusPaid},
		committed.CapStatuses())
}

func TestCapTracker_PolicyDirections(t *testing.T) {
	// GIVEN: $95,000 of pending base and $95,000 of approved base both
	//        recorded for the same AE/year in a fake store
	// WHEN: Applying a $10,000 proposal under each policy
	// THEN: realized counts only the approved total; committed counts both

	store := &fakeSums{totals: map[CommissionStatus]Money{
		StatusPending:  NewMoney(95000),
		StatusApproved: NewMoney(95000),
	}}

	// Realized: running total 95,000, headroom 5,000, overflow halved.
	res, err := (&CapTracker{Commissions: store}).Apply(
		context.Background(), "ae-1", 2026, NewMoney(10000), cappedConfig(100000, 0.5, CapRealized))
	require.NoError(t, err)
	assert.Equal(t, "7500.00", res.Adjusted.String())
	assert.True(t, res.OTEApplied)

	// Committed: running total 190,000, already past the cap.
	res, err = (&CapTracker{Commissions: store}).Apply(
		context.Background(), "ae-1", 2026, NewMoney(10000), cappedConfig(100000, 0.5, CapCommitted))
	require.NoError(t, err)
	assert.Equal(t, "5000.00", res.Adjusted.String())
	assert.True(t, res.OTEApplied)
}

// fakeSums serves SumBaseCommission from a status->total map.
type fakeSums struct {
	CommissionStore
	totals map[CommissionStatus]Money
}

func (f *fakeSums) SumBaseCommission(_ context.Context, _ AEID, _ int, statuses []CommissionStatus) (Money, error) {
	total := ZeroMoney()
	for _, s := range statuses {
		total = total.Add(f.totals[s])
	}
	return total, nil
}
