/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates configs, assignments,
	contracts, and invoices that demonstrate specific engine features.

AVAILABLE SCENARIOS:

	fresh-ae:        One AE on the standard plan, one pending commission
	layered-bonuses: Pilot + multi-year + upfront bonuses on one deal
	near-cap:        AE at $95k of a $100k cap; next big invoice decelerates
	config-change:   Mid-year rate change, invoices under both configs
	approval-queue:  Several pending commissions awaiting review

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create configs and assignments
 3. Create contracts and invoices
 4. Run the engine for each invoice
 5. Optionally approve some commissions to build YTD totals

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "near-cap"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - commission/engine.go: Calculation pipeline the loaders exercise
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/charlesifrah/HubPay-sub001/commission"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-ae",
		Name:        "Fresh AE",
		Description: "One AE on the standard 10% plan with a single pending commission",
		Category:    "basics",
	},
	{
		ID:          "layered-bonuses",
		Name:        "Layered Bonuses",
		Description: "Pilot + multi-year + upfront bonuses stacking on one deal",
		Category:    "bonuses",
	},
	{
		ID:          "near-cap",
		Name:        "Near Cap",
		Description: "AE at $95k of a $100k cap; the next large invoice decelerates",
		Category:    "cap",
	},
	{
		ID:          "config-change",
		Name:        "Mid-Year Config Change",
		Description: "Rate change mid-year; invoices resolve against the config in force on their date",
		Category:    "configs",
	},
	{
		ID:          "approval-queue",
		Name:        "Approval Queue",
		Description: "Several pending commissions across AEs awaiting review",
		Category:    "workflow",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// ResetDatabase clears all records.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if h.Resetter == nil {
		writeError(w, http.StatusInternalServerError, "Reset not supported by this store", nil)
		return
	}
	if err := h.Resetter.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if h.Resetter == nil {
		writeError(w, http.StatusInternalServerError, "Scenario loading not supported by this store", nil)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Resetter.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "fresh-ae":
		err = h.loadFreshAEScenario(ctx)
	case "layered-bonuses":
		err = h.loadLayeredBonusesScenario(ctx)
	case "near-cap":
		err = h.loadNearCapScenario(ctx)
	case "config-change":
		err = h.loadConfigChangeScenario(ctx)
	case "approval-queue":
		err = h.loadApprovalQueueScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO BUILDING BLOCKS
// =============================================================================

// standardConfig is the 10% base plan most scenarios start from.
func standardConfig(id, name string) commission.CommissionConfig {
	return commission.CommissionConfig{
		ID:                 commission.ConfigID(id),
		Name:               name,
		Status:             commission.ConfigActive,
		BaseRate:           decimal.NewFromFloat(0.10),
		PilotBonusRate:     decimal.NewFromFloat(0.05),
		MultiYearBonusRate: decimal.NewFromFloat(0.02),
		MultiYearBasis:     commission.MultiYearFlat,
		UpfrontBonusRate:   decimal.NewFromFloat(0.01),
		CapPolicy:          commission.CapRealized,
		Version:            1,
		CreatedAt:          time.Now().UTC(),
	}
}

func (h *Handler) seedAE(ctx context.Context, aeID string, cfg commission.CommissionConfig, from time.Time) error {
	if err := h.Store.SaveConfig(ctx, cfg); err != nil {
		return err
	}
	_, err := h.Engine.AssignConfig(ctx, commission.AEID(aeID), cfg.ID, from, nil)
	return err
}

// seedDeal creates a contract and one invoice for it, then runs the
// engine. Returns the resulting pending commission.
func (h *Handler) seedDeal(ctx context.Context, contract commission.Contract, invoiceID string, amount float64, invoiceDate time.Time) (*commission.Commission, error) {
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = time.Now().UTC()
	}
	if err := h.Store.SaveContract(ctx, contract); err != nil {
		return nil, err
	}
	invoice := commission.Invoice{
		ID:          commission.InvoiceID(invoiceID),
		ContractID:  contract.ID,
		Amount:      commission.NewMoney(amount),
		InvoiceDate: invoiceDate,
		RevenueType: "recurring",
	}
	if err := h.Store.SaveInvoice(ctx, invoice); err != nil {
		return nil, err
	}
	return h.Engine.Calculate(ctx, invoice)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFreshAEScenario(ctx context.Context) error {
	year := time.Now().UTC().Year()
	start := commission.Date(year, time.January, 1)

	if err := h.seedAE(ctx, "ae-alice", standardConfig("cfg-standard", "Standard Plan"), start); err != nil {
		return err
	}

	contract := commission.Contract{
		ID:           "con-001",
		ClientName:   "Acme Corp",
		AEID:         "ae-alice",
		TotalValue:   commission.NewMoney(120000),
		ACV:          commission.NewMoney(120000),
		Type:         commission.ContractNew,
		LengthYears:  1,
		PaymentTerms: commission.TermsQuarterly,
	}
	_, err := h.seedDeal(ctx, contract, "inv-001", 30000, commission.Date(year, time.February, 1))
	return err
}

func (h *Handler) loadLayeredBonusesScenario(ctx context.Context) error {
	year := time.Now().UTC().Year()
	start := commission.Date(year, time.January, 1)

	if err := h.seedAE(ctx, "ae-bob", standardConfig("cfg-standard", "Standard Plan"), start); err != nil {
		return err
	}

	// Pilot, 3-year, paid fully upfront: all three bonuses stack.
	contract := commission.Contract{
		ID:           "con-010",
		ClientName:   "Globex Industries",
		AEID:         "ae-bob",
		TotalValue:   commission.NewMoney(500000),
		ACV:          commission.NewMoney(166667),
		Type:         commission.ContractNew,
		LengthYears:  3,
		PaymentTerms: commission.TermsFullUpfront,
		IsPilot:      true,
	}
	_, err := h.seedDeal(ctx, contract, "inv-010", 500000, commission.Date(year, time.March, 15))
	return err
}

func (h *Handler) loadNearCapScenario(ctx context.Context) error {
	year := time.Now().UTC().Year()
	start := commission.Date(year, time.January, 1)

	cfg := standardConfig("cfg-capped", "Capped Plan")
	cfg.AnnualCap = commission.NewMoney(100000)
	cfg.DecelerationRate = decimal.NewFromFloat(0.5)
	if err := h.seedAE(ctx, "ae-carol", cfg, start); err != nil {
		return err
	}

	// $950k invoiced at 10% puts Carol at $95k realized, $5k of headroom.
	contract := commission.Contract{
		ID:           "con-020",
		ClientName:   "Initech",
		AEID:         "ae-carol",
		TotalValue:   commission.NewMoney(950000),
		ACV:          commission.NewMoney(950000),
		Type:         commission.ContractNew,
		LengthYears:  1,
		PaymentTerms: commission.TermsAnnual,
	}
	comm, err := h.seedDeal(ctx, contract, "inv-020", 950000, commission.Date(year, time.January, 20))
	if err != nil {
		return err
	}
	if _, err := h.Engine.Approve(ctx, comm.ID, "demo-loader"); err != nil {
		return err
	}

	// Leave a big contract in place so a demo invoice can straddle the cap.
	whale := commission.Contract{
		ID:           "con-021",
		ClientName:   "Umbrella Holdings",
		AEID:         "ae-carol",
		TotalValue:   commission.NewMoney(1000000),
		ACV:          commission.NewMoney(1000000),
		Type:         commission.ContractNew,
		LengthYears:  1,
		PaymentTerms: commission.TermsAnnual,
		CreatedAt:    time.Now().UTC(),
	}
	return h.Store.SaveContract(ctx, whale)
}

func (h *Handler) loadConfigChangeScenario(ctx context.Context) error {
	year := time.Now().UTC().Year()
	start := commission.Date(year, time.January, 1)

	if err := h.seedAE(ctx, "ae-dana", standardConfig("cfg-v1", "Standard Plan"), start); err != nil {
		return err
	}

	// Rate bump effective July 1; the old assignment is truncated.
	v2 := commission.NewConfigVersion(standardConfig("cfg-v1", "Standard Plan"),
		"cfg-v2", time.Now().UTC(), func(c *commission.CommissionConfig) {
			c.BaseRate = decimal.NewFromFloat(0.12)
		})
	if err := h.Store.SaveConfig(ctx, v2); err != nil {
		return err
	}
	if _, err := h.Engine.AssignConfig(ctx, "ae-dana", v2.ID, commission.Date(year, time.July, 1), nil); err != nil {
		return err
	}

	contract := commission.Contract{
		ID:           "con-030",
		ClientName:   "Stark Logistics",
		AEID:         "ae-dana",
		TotalValue:   commission.NewMoney(200000),
		ACV:          commission.NewMoney(200000),
		Type:         commission.ContractRenewal,
		LengthYears:  1,
		PaymentTerms: commission.TermsQuarterly,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Store.SaveContract(ctx, contract); err != nil {
		return err
	}

	// One invoice under each config version.
	for i, d := range []time.Time{
		commission.Date(year, time.April, 1),
		commission.Date(year, time.October, 1),
	} {
		invoice := commission.Invoice{
			ID:          commission.InvoiceID(fmt.Sprintf("inv-03%d", i)),
			ContractID:  contract.ID,
			Amount:      commission.NewMoney(50000),
			InvoiceDate: d,
			RevenueType: "recurring",
		}
		if err := h.Store.SaveInvoice(ctx, invoice); err != nil {
			return err
		}
		if _, err := h.Engine.Calculate(ctx, invoice); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadApprovalQueueScenario(ctx context.Context) error {
	year := time.Now().UTC().Year()
	start := commission.Date(year, time.January, 1)

	cfg := standardConfig("cfg-standard", "Standard Plan")
	if err := h.Store.SaveConfig(ctx, cfg); err != nil {
		return err
	}

	deals := []struct {
		ae     string
		client string
		amount float64
		month  time.Month
	}{
		{"ae-alice", "Acme Corp", 40000, time.February},
		{"ae-alice", "Hooli", 25000, time.March},
		{"ae-bob", "Vandelay Industries", 60000, time.March},
		{"ae-carol", "Wonka Foods", 15000, time.April},
	}

	seen := map[string]bool{}
	for i, d := range deals {
		if !seen[d.ae] {
			if _, err := h.Engine.AssignConfig(ctx, commission.AEID(d.ae), cfg.ID, start, nil); err != nil {
				return err
			}
			seen[d.ae] = true
		}
		contract := commission.Contract{
			ID:           commission.ContractID(fmt.Sprintf("con-04%d", i)),
			ClientName:   d.client,
			AEID:         commission.AEID(d.ae),
			TotalValue:   commission.NewMoney(d.amount),
			ACV:          commission.NewMoney(d.amount),
			Type:         commission.ContractNew,
			LengthYears:  1,
			PaymentTerms: commission.TermsAnnual,
		}
		if _, err := h.seedDeal(ctx, contract,
			fmt.Sprintf("inv-04%d", i), d.amount, commission.Date(year, d.month, 10)); err != nil {
			return err
		}
	}
	return nil
}
