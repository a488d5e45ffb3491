/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the commission calculation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Configs:
    GET    /api/configs                    List all config versions
    POST   /api/configs                    Create config
    GET    /api/configs/{id}               Get config details
    POST   /api/configs/{id}/versions      Create new version of a config

  Assignments:
    POST   /api/assignments                Assign config to an AE
    GET    /api/aes/{id}/assignments       Assignment history for an AE

  Contracts & Invoices:
    POST   /api/contracts                  Create contract
    GET    /api/contracts/{id}             Get contract details
    POST   /api/invoices                   Record invoice (triggers calculation)

  Commissions:
    GET    /api/commissions                List (filter: ae, status, year)
    GET    /api/commissions/{id}           Get commission details
    POST   /api/commissions/{id}/approve   Approve pending commission
    POST   /api/commissions/{id}/reject    Reject pending commission
    POST   /api/commissions/{id}/pay       Mark approved commission paid

  Dashboard:
    GET    /api/aes/{id}/summary           YTD earnings and cap state

  Sync:
    POST   /api/sync/invoices              Ingest invoices from billing export

  Scenarios:
    GET    /api/scenarios                  List demo scenarios
    POST   /api/scenarios/load             Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, validation errors
  - 404: Record not found
  - 409: Conflict (duplicate commission, finalized record)
  - 422: Domain rule violation (illegal transition, overlap, frozen)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Approver identity is taken from the request body on trust.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/charlesifrah/HubPay-sub001/billingsync"
	"github.com/charlesifrah/HubPay-sub001/commission"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter wipes all records. Implemented by the sqlite store; used by
// the scenario loader only.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *commission.Engine
	Store  commission.Store
	Logger *log.Logger

	// Resetter is optional. Scenario endpoints return an error when nil.
	Resetter Resetter

	validate *validator.Validate
	newID    func() string
	now      func() time.Time

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given engine and store.
func NewHandler(engine *commission.Engine, store commission.Store, logger *log.Logger) *Handler {
	return &Handler{
		Engine:   engine,
		Store:    store,
		Logger:   logger,
		validate: validator.New(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// decodeValid decodes the request body and runs struct validation.
// Writes the error response itself; callers bail on false.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// CONFIG HANDLERS
// =============================================================================

// ListConfigs returns all config versions, newest first.
func (h *Handler) ListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Store.ListConfigs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list configs", err)
		return
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].CreatedAt.After(configs[j].CreatedAt)
	})

	dtos := make([]ConfigDTO, len(configs))
	for i, cfg := range configs {
		dtos[i] = toConfigDTO(cfg)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConfig returns a single config version.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	id := commission.ConfigID(chi.URLParam(r, "id"))

	cfg, err := h.Store.GetConfig(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get config", err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigDTO(*cfg))
}

// CreateConfig creates a new commission config at version 1.
func (h *Handler) CreateConfig(w http.ResponseWriter, r *http.Request) {
	var req CreateConfigRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	cfg := req.toConfig(commission.ConfigID(h.newID()), h.now().UTC())
	if err := h.Store.SaveConfig(r.Context(), cfg); err != nil {
		writeDomainError(w, "Failed to create config", err)
		return
	}
	writeJSON(w, http.StatusCreated, toConfigDTO(cfg))
}

// CreateConfigVersion creates a successor version of an existing config.
// The prior version keeps its historical calculations; new assignments
// should point at the returned ID.
func (h *Handler) CreateConfigVersion(w http.ResponseWriter, r *http.Request) {
	id := commission.ConfigID(chi.URLParam(r, "id"))

	var req CreateConfigRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	prior, err := h.Store.GetConfig(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get config", err)
		return
	}

	template := req.toConfig(commission.ConfigID(h.newID()), h.now().UTC())
	next := commission.NewConfigVersion(*prior, template.ID, template.CreatedAt, func(c *commission.CommissionConfig) {
		c.Name = template.Name
		c.BaseRate = template.BaseRate
		c.PilotBonusRate = template.PilotBonusRate
		c.MultiYearBonusRate = template.MultiYearBonusRate
		c.MultiYearBasis = template.MultiYearBasis
		c.UpfrontBonusRate = template.UpfrontBonusRate
		c.AnnualCap = template.AnnualCap
		c.DecelerationRate = template.DecelerationRate
		c.CapPolicy = template.CapPolicy
	})

	if err := h.Store.SaveConfig(r.Context(), next); err != nil {
		writeDomainError(w, "Failed to create config version", err)
		return
	}
	writeJSON(w, http.StatusCreated, toConfigDTO(next))
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// CreateAssignment assigns a config to an AE from an effective date.
// An open-ended prior assignment is truncated at the new effective date.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	effective, err := time.Parse(dateLayout, req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date format (use YYYY-MM-DD)", err)
		return
	}
	var end *time.Time
	if req.EndDate != "" {
		e, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		if !e.After(effective) {
			writeError(w, http.StatusBadRequest, "end_date must be after effective_date", nil)
			return
		}
		end = &e
	}

	assignment, err := h.Engine.AssignConfig(r.Context(),
		commission.AEID(req.AEID), commission.ConfigID(req.ConfigID), effective, end)
	if err != nil {
		writeDomainError(w, "Failed to create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(*assignment))
}

// ListAssignments returns the assignment history for an AE.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	aeID := commission.AEID(chi.URLParam(r, "id"))

	assignments, err := h.Store.AssignmentsByAE(r.Context(), aeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CONTRACT & INVOICE HANDLERS
// =============================================================================

// CreateContract records a closed deal.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	contract := commission.Contract{
		ID:           commission.ContractID(h.newID()),
		ClientName:   req.ClientName,
		AEID:         commission.AEID(req.AEID),
		TotalValue:   commission.NewMoney(req.TotalValue),
		ACV:          commission.NewMoney(req.ACV),
		Type:         commission.ContractType(req.ContractType),
		LengthYears:  req.LengthYears,
		PaymentTerms: commission.PaymentTerms(req.PaymentTerms),
		IsPilot:      req.IsPilot,
		CreatedAt:    h.now().UTC(),
	}

	if err := h.Store.SaveContract(r.Context(), contract); err != nil {
		writeDomainError(w, "Failed to create contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, toContractDTO(contract))
}

// GetContract returns a single contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := commission.ContractID(chi.URLParam(r, "id"))

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(*contract))
}

// InvoiceResultDTO pairs a recorded invoice with the commission the
// engine produced for it.
type InvoiceResultDTO struct {
	Invoice    InvoiceDTO    `json:"invoice"`
	Commission CommissionDTO `json:"commission"`
}

// CreateInvoice records a paid invoice and runs the commission
// calculation synchronously. The commission comes back pending.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	invoiceDate, err := time.Parse(dateLayout, req.InvoiceDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invoice_date format (use YYYY-MM-DD)", err)
		return
	}

	invoice := commission.Invoice{
		ID:          commission.InvoiceID(h.newID()),
		ContractID:  commission.ContractID(req.ContractID),
		Amount:      commission.NewMoney(req.Amount),
		InvoiceDate: invoiceDate,
		RevenueType: req.RevenueType,
	}

	if err := h.Store.SaveInvoice(r.Context(), invoice); err != nil {
		writeDomainError(w, "Failed to record invoice", err)
		return
	}

	comm, err := h.Engine.Calculate(r.Context(), invoice)
	if err != nil {
		writeDomainError(w, "Failed to calculate commission", err)
		return
	}

	writeJSON(w, http.StatusCreated, InvoiceResultDTO{
		Invoice:    toInvoiceDTO(invoice),
		Commission: toCommissionDTO(*comm),
	})
}

// =============================================================================
// COMMISSION HANDLERS
// =============================================================================

// ListCommissions returns commissions, optionally filtered by
// ?ae=, ?status= and ?year=. Newest first.
func (h *Handler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	filter := commission.CommissionFilter{
		AEID:   commission.AEID(r.URL.Query().Get("ae")),
		Status: commission.CommissionStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown status filter", nil)
		return
	}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year filter", err)
			return
		}
		filter.Year = year
	}

	records, err := h.Store.ListCommissions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list commissions", err)
		return
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	dtos := make([]CommissionDTO, len(records))
	for i, c := range records {
		dtos[i] = toCommissionDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCommission returns a single commission record.
func (h *Handler) GetCommission(w http.ResponseWriter, r *http.Request) {
	id := commission.CommissionID(chi.URLParam(r, "id"))

	comm, err := h.Store.GetCommission(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get commission", err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionDTO(*comm))
}

// ApproveCommission moves a pending commission to approved and fires
// the AE notification in the background.
func (h *Handler) ApproveCommission(w http.ResponseWriter, r *http.Request) {
	id := commission.CommissionID(chi.URLParam(r, "id"))

	var req ApproveRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	comm, err := h.Engine.Approve(r.Context(), id, req.ApprovedBy)
	if err != nil {
		writeDomainError(w, "Failed to approve commission", err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionDTO(*comm))
}

// RejectCommission moves a pending commission to rejected. A reason is
// mandatory.
func (h *Handler) RejectCommission(w http.ResponseWriter, r *http.Request) {
	id := commission.CommissionID(chi.URLParam(r, "id"))

	var req RejectRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	comm, err := h.Engine.Reject(r.Context(), id, req.RejectedBy, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject commission", err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionDTO(*comm))
}

// PayCommission moves an approved commission to paid.
func (h *Handler) PayCommission(w http.ResponseWriter, r *http.Request) {
	id := commission.CommissionID(chi.URLParam(r, "id"))

	var req PayRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	comm, err := h.Engine.MarkPaid(r.Context(), id, req.PaidBy)
	if err != nil {
		writeDomainError(w, "Failed to mark commission paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionDTO(*comm))
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetSummary returns YTD earnings and cap state for an AE. Year
// defaults to the current year.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	aeID := commission.AEID(chi.URLParam(r, "id"))

	year := h.now().UTC().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	summary, err := h.Engine.Summary(r.Context(), aeID, year)
	if err != nil {
		writeDomainError(w, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(*summary))
}

// =============================================================================
// SYNC HANDLERS
// =============================================================================

// staticSource feeds a request payload through the billing sync
// pipeline, so manual exports and automated pulls share one ingest path.
type staticSource []billingsync.ExternalInvoice

func (s staticSource) FetchInvoices(_ context.Context, _ time.Time) ([]billingsync.ExternalInvoice, error) {
	return s, nil
}

// SyncInvoices ingests a batch of invoices from a billing system
// export. Already-seen references are skipped; per-record failures are
// counted, not fatal.
func (h *Handler) SyncInvoices(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	records := make(staticSource, 0, len(req.Invoices))
	for _, rec := range req.Invoices {
		invoiceDate, err := time.Parse(dateLayout, rec.InvoiceDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid invoice_date format (use YYYY-MM-DD)", err)
			return
		}
		records = append(records, billingsync.ExternalInvoice{
			Ref:         rec.Ref,
			ContractID:  commission.ContractID(rec.ContractID),
			Amount:      commission.NewMoney(rec.Amount),
			InvoiceDate: invoiceDate,
			RevenueType: rec.RevenueType,
		})
	}

	syncer := &billingsync.Syncer{
		Source: records,
		Store:  h.Store,
		Engine: h.Engine,
		Logger: h.Logger,
	}
	report, err := syncer.Sync(r.Context(), time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sync failed", err)
		return
	}

	writeJSON(w, http.StatusOK, SyncReportDTO{
		Fetched: report.Fetched,
		Created: report.Created,
		Skipped: report.Skipped,
		Failed:  report.Failed,
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case commission.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case commission.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case commission.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
