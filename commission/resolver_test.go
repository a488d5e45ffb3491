package commission_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlesifrah/HubPay-sub001/commission"
	"github.com/charlesifrah/HubPay-sub001/commission/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newResolver(t *testing.T) (*commission.ConfigResolver, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return &commission.ConfigResolver{Assignments: mem, Configs: mem}, mem
}

func saveConfig(t *testing.T, mem *store.Memory, id commission.ConfigID) commission.CommissionConfig {
	t.Helper()
	cfg := standardTestConfig()
	cfg.ID = id
	require.NoError(t, mem.SaveConfig(context.Background(), cfg))
	return cfg
}

func saveAssignment(t *testing.T, mem *store.Memory, id commission.AssignmentID, aeID commission.AEID, cfgID commission.ConfigID, from time.Time, to *time.Time) {
	t.Helper()
	require.NoError(t, mem.SaveAssignment(context.Background(), commission.Assignment{
		ID: id, AEID: aeID, ConfigID: cfgID, EffectiveDate: from, EndDate: to,
	}))
}

// =============================================================================
// DATE-CORRECT RESOLUTION
// =============================================================================

func TestResolve_BoundedAssignment_DateCorrect(t *testing.T) {
	// GIVEN: An assignment effective 2025-01-01 through 2025-06-01
	// WHEN: Resolving for dates inside and outside the interval
	// THEN: 2025-03-01 resolves to the assigned config;
	//       2025-07-01 falls back to the system default

	resolver, mem := newResolver(t)
	saveConfig(t, mem, "cfg-q1")
	end := commission.Date(2025, time.June, 1)
	saveAssignment(t, mem, "as-1", "ae-1", "cfg-q1", commission.Date(2025, time.January, 1), &end)

	cfg, err := resolver.Resolve(context.Background(), "ae-1", commission.Date(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, commission.ConfigID("cfg-q1"), cfg.ID)

	cfg, err = resolver.Resolve(context.Background(), "ae-1", commission.Date(2025, time.July, 1))
	require.NoError(t, err)
	assert.Equal(t, commission.DefaultConfigID, cfg.ID)
}

func TestResolve_EndDateExclusive(t *testing.T) {
	// GIVEN: An assignment ending 2025-06-01 (half-open interval)
	// WHEN: Resolving exactly on the end date
	// THEN: The assignment does not cover it

	resolver, mem := newResolver(t)
	saveConfig(t, mem, "cfg-q1")
	end := commission.Date(2025, time.June, 1)
	saveAssignment(t, mem, "as-1", "ae-1", "cfg-q1", commission.Date(2025, time.January, 1), &end)

	cfg, err := resolver.Resolve(context.Background(), "ae-1", end)
	require.NoError(t, err)
	assert.Equal(t, commission.DefaultConfigID, cfg.ID)

	// The effective date itself is covered.
	cfg, err = resolver.Resolve(context.Background(), "ae-1", commission.Date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, commission.ConfigID("cfg-q1"), cfg.ID)
}

func TestResolve_OpenEndedAssignment(t *testing.T) {
	resolver, mem := newResolver(t)
	saveConfig(t, mem, "cfg-std")
	saveAssignment(t, mem, "as-1", "ae-1", "cfg-std", commission.Date(2025, time.January, 1), nil)

	cfg, err := resolver.Resolve(context.Background(), "ae-1", commission.Date(2030, time.December, 31))
	require.NoError(t, err)
	assert.Equal(t, commission.ConfigID("cfg-std"), cfg.ID)
}

// =============================================================================
// FALLBACK & FAILURE
// =============================================================================

func TestResolve_NoAssignments_SystemDefault(t *testing.T) {
	// GIVEN: An AE with no assignments at all
	// WHEN: Resolving any date
	// THEN: The system default plan (10%, no bonuses, no cap) applies

	resolver, _ := newResolver(t)

	cfg, err := resolver.Resolve(context.Background(), "ae-unknown", commission.Date(2026, time.May, 1))
	require.NoError(t, err)

	assert.Equal(t, commission.DefaultConfigID, cfg.ID)
	assert.Equal(t, "0.1", cfg.BaseRate.String())
	assert.False(t, cfg.Capped())
	assert.True(t, cfg.PilotBonusRate.IsZero())
}

func TestResolve_AssignmentToMissingConfig_Fails(t *testing.T) {
	// GIVEN: An assignment pointing at a config that was never saved
	// WHEN: Resolving a covered date
	// THEN: ConfigNotFoundError identifying the AE, config and date

	resolver, mem := newResolver(t)
	saveAssignment(t, mem, "as-1", "ae-1", "cfg-ghost", commission.Date(2025, time.January, 1), nil)

	_, err := resolver.Resolve(context.Background(), "ae-1", commission.Date(2025, time.March, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, commission.ErrConfigNotFound)

	var cnf *commission.ConfigNotFoundError
	require.ErrorAs(t, err, &cnf)
	assert.Equal(t, commission.AEID("ae-1"), cnf.AEID)
	assert.Equal(t, commission.ConfigID("cfg-ghost"), cnf.ConfigID)
}

// =============================================================================
// OVERLAP TIE-BREAK
// =============================================================================

func TestResolve_OverlappingAssignments_LatestEffectiveWins(t *testing.T) {
	// GIVEN: Two assignments covering the same date (corrupt data)
	// WHEN: Resolving
	// THEN: The one with the later effective date wins; no error

	resolver, mem := newResolver(t)
	saveConfig(t, mem, "cfg-old")
	saveConfig(t, mem, "cfg-new")
	saveAssignment(t, mem, "as-old", "ae-1", "cfg-old", commission.Date(2025, time.January, 1), nil)
	saveAssignment(t, mem, "as-new", "ae-1", "cfg-new", commission.Date(2025, time.March, 1), nil)

	cfg, err := resolver.Resolve(context.Background(), "ae-1", commission.Date(2025, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, commission.ConfigID("cfg-new"), cfg.ID)
}
