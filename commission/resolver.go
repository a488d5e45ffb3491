/*
resolver.go - Temporal config resolution

PURPOSE:
  Answers "which commission plan applies to this AE on this date?".
  Scans the AE's assignments for the interval containing the date.

FALLBACK:
  When no assignment covers the date, resolution falls back to a
  system-default plan (10% base rate, no bonuses, no cap). The fallback
  is explicit and logged, never silent, so missing configuration is
  visible in operations.

OVERLAP:
  Overlapping assignments are data corruption, not a sanctioned state.
  The resolver picks the one with the latest effective date and logs an
  integrity warning so the bad data gets fixed.
*/
package commission

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultConfigID identifies the built-in fallback plan.
const DefaultConfigID ConfigID = "system-default"

// DefaultConfig is the system fallback: 10% base rate, no bonuses,
// no cap.
func DefaultConfig() CommissionConfig {
	return CommissionConfig{
		ID:             DefaultConfigID,
		Name:           "System Default",
		Status:         ConfigActive,
		BaseRate:       decimal.NewFromFloat(0.10),
		MultiYearBasis: MultiYearFlat,
		CapPolicy:      CapRealized,
		Version:        1,
	}
}

// ConfigResolver selects the single applicable config for an AE and date.
type ConfigResolver struct {
	Assignments AssignmentStore
	Configs     ConfigStore

	// Logger receives fallback and integrity messages. Nil uses the
	// process default logger.
	Logger *log.Logger
}

func (r *ConfigResolver) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Resolve returns the config assigned to the AE on the given date, the
// system default when none is assigned, or ConfigNotFoundError when an
// assignment points at a config that does not exist.
func (r *ConfigResolver) Resolve(ctx context.Context, aeID AEID, on time.Time) (*CommissionConfig, error) {
	assignments, err := r.Assignments.AssignmentsByAE(ctx, aeID)
	if err != nil {
		return nil, err
	}

	var match *Assignment
	matches := 0
	for i := range assignments {
		a := assignments[i]
		if !a.Covers(on) {
			continue
		}
		matches++
		// Tie-break on overlap: latest effective date wins.
		if match == nil || a.EffectiveDate.After(match.EffectiveDate) {
			match = &assignments[i]
		}
	}

	if matches > 1 {
		r.logf("INTEGRITY: AE %s has %d overlapping assignments on %s, using %s (effective %s)",
			aeID, matches, on.Format("2006-01-02"), match.ID, match.EffectiveDate.Format("2006-01-02"))
	}

	if match == nil {
		r.logf("config fallback: AE %s has no assignment on %s, using system default",
			aeID, on.Format("2006-01-02"))
		cfg := DefaultConfig()
		return &cfg, nil
	}

	cfg, err := r.Configs.GetConfig(ctx, match.ConfigID)
	if err != nil {
		if IsNotFound(err) {
			return nil, &ConfigNotFoundError{AEID: aeID, ConfigID: match.ConfigID, OnDate: on}
		}
		return nil, err
	}
	return cfg, nil
}
