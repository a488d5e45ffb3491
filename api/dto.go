/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model
  from the external contract. Currency fields are strings with two
  decimal places in responses; rates are fractions (0.10 = 10%).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator tags; handlers run the
  shared validator before touching domain logic.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/charlesifrah/HubPay-sub001/commission"
)

const dateLayout = "2006-01-02"

// =============================================================================
// CONFIG TYPES
// =============================================================================

type CreateConfigRequest struct {
	Name               string  `json:"name" validate:"required"`
	BaseRate           float64 `json:"base_rate" validate:"gte=0,lte=1"`
	PilotBonusRate     float64 `json:"pilot_bonus_rate" validate:"gte=0,lte=1"`
	MultiYearBonusRate float64 `json:"multi_year_bonus_rate" validate:"gte=0,lte=1"`
	MultiYearBasis     string  `json:"multi_year_basis" validate:"omitempty,oneof=flat per-year"`
	UpfrontBonusRate   float64 `json:"upfront_bonus_rate" validate:"gte=0,lte=1"`
	AnnualCap          float64 `json:"annual_cap" validate:"gte=0"`
	DecelerationRate   float64 `json:"deceleration_rate" validate:"gte=0,lte=1"`
	CapPolicy          string  `json:"cap_policy" validate:"omitempty,oneof=realized committed"`
}

type ConfigDTO struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Status             string `json:"status"`
	BaseRate           string `json:"base_rate"`
	PilotBonusRate     string `json:"pilot_bonus_rate"`
	MultiYearBonusRate string `json:"multi_year_bonus_rate"`
	MultiYearBasis     string `json:"multi_year_basis"`
	UpfrontBonusRate   string `json:"upfront_bonus_rate"`
	AnnualCap          string `json:"annual_cap"`
	DecelerationRate   string `json:"deceleration_rate"`
	CapPolicy          string `json:"cap_policy"`
	Version            int    `json:"version"`
	SupersedesID       string `json:"supersedes_id,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
}

func toConfigDTO(cfg commission.CommissionConfig) ConfigDTO {
	return ConfigDTO{
		ID:                 string(cfg.ID),
		Name:               cfg.Name,
		Status:             string(cfg.Status),
		BaseRate:           cfg.BaseRate.String(),
		PilotBonusRate:     cfg.PilotBonusRate.String(),
		MultiYearBonusRate: cfg.MultiYearBonusRate.String(),
		MultiYearBasis:     string(cfg.MultiYearBasis),
		UpfrontBonusRate:   cfg.UpfrontBonusRate.String(),
		AnnualCap:          cfg.AnnualCap.String(),
		DecelerationRate:   cfg.DecelerationRate.String(),
		CapPolicy:          string(cfg.CapPolicy),
		Version:            cfg.Version,
		SupersedesID:       string(cfg.SupersedesID),
		CreatedAt:          formatTime(cfg.CreatedAt),
	}
}

// toConfig builds the domain config from a request. Defaults: flat
// multi-year basis, realized cap policy.
func (r CreateConfigRequest) toConfig(id commission.ConfigID, now time.Time) commission.CommissionConfig {
	basis := commission.MultiYearBasis(r.MultiYearBasis)
	if basis == "" {
		basis = commission.MultiYearFlat
	}
	policy := commission.CapPolicy(r.CapPolicy)
	if policy == "" {
		policy = commission.CapRealized
	}
	return commission.CommissionConfig{
		ID:                 id,
		Name:               r.Name,
		Status:             commission.ConfigActive,
		BaseRate:           decimal.NewFromFloat(r.BaseRate),
		PilotBonusRate:     decimal.NewFromFloat(r.PilotBonusRate),
		MultiYearBonusRate: decimal.NewFromFloat(r.MultiYearBonusRate),
		MultiYearBasis:     basis,
		UpfrontBonusRate:   decimal.NewFromFloat(r.UpfrontBonusRate),
		AnnualCap:          commission.NewMoney(r.AnnualCap),
		DecelerationRate:   decimal.NewFromFloat(r.DecelerationRate),
		CapPolicy:          policy,
		Version:            1,
		CreatedAt:          now,
	}
}

// =============================================================================
// ASSIGNMENT TYPES
// =============================================================================

type CreateAssignmentRequest struct {
	AEID          string `json:"ae_id" validate:"required"`
	ConfigID      string `json:"config_id" validate:"required"`
	EffectiveDate string `json:"effective_date" validate:"required"`
	EndDate       string `json:"end_date,omitempty"`
}

type AssignmentDTO struct {
	ID            string `json:"id"`
	AEID          string `json:"ae_id"`
	ConfigID      string `json:"config_id"`
	EffectiveDate string `json:"effective_date"`
	EndDate       string `json:"end_date,omitempty"`
}

func toAssignmentDTO(a commission.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:            string(a.ID),
		AEID:          string(a.AEID),
		ConfigID:      string(a.ConfigID),
		EffectiveDate: a.EffectiveDate.Format(dateLayout),
	}
	if a.EndDate != nil {
		dto.EndDate = a.EndDate.Format(dateLayout)
	}
	return dto
}

// =============================================================================
// CONTRACT & INVOICE TYPES
// =============================================================================

type CreateContractRequest struct {
	ClientName   string  `json:"client_name" validate:"required"`
	AEID         string  `json:"ae_id" validate:"required"`
	TotalValue   float64 `json:"total_value" validate:"gte=0"`
	ACV          float64 `json:"acv" validate:"gte=0"`
	ContractType string  `json:"contract_type" validate:"required,oneof=new renewal upsell"`
	LengthYears  int     `json:"length_years" validate:"gte=1"`
	PaymentTerms string  `json:"payment_terms" validate:"required,oneof=annual quarterly monthly upfront full-upfront"`
	IsPilot      bool    `json:"is_pilot"`
}

type ContractDTO struct {
	ID           string `json:"id"`
	ClientName   string `json:"client_name"`
	AEID         string `json:"ae_id"`
	TotalValue   string `json:"total_value"`
	ACV          string `json:"acv"`
	ContractType string `json:"contract_type"`
	LengthYears  int    `json:"length_years"`
	PaymentTerms string `json:"payment_terms"`
	IsPilot      bool   `json:"is_pilot"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func toContractDTO(c commission.Contract) ContractDTO {
	return ContractDTO{
		ID:           string(c.ID),
		ClientName:   c.ClientName,
		AEID:         string(c.AEID),
		TotalValue:   c.TotalValue.String(),
		ACV:          c.ACV.String(),
		ContractType: string(c.Type),
		LengthYears:  c.LengthYears,
		PaymentTerms: string(c.PaymentTerms),
		IsPilot:      c.IsPilot,
		CreatedAt:    formatTime(c.CreatedAt),
	}
}

type CreateInvoiceRequest struct {
	ContractID  string  `json:"contract_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	InvoiceDate string  `json:"invoice_date" validate:"required"`
	RevenueType string  `json:"revenue_type,omitempty"`
}

type InvoiceDTO struct {
	ID          string `json:"id"`
	ContractID  string `json:"contract_id"`
	Amount      string `json:"amount"`
	InvoiceDate string `json:"invoice_date"`
	RevenueType string `json:"revenue_type,omitempty"`
	ExternalRef string `json:"external_ref,omitempty"`
}

func toInvoiceDTO(inv commission.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:          string(inv.ID),
		ContractID:  string(inv.ContractID),
		Amount:      inv.Amount.String(),
		InvoiceDate: inv.InvoiceDate.Format(dateLayout),
		RevenueType: inv.RevenueType,
		ExternalRef: inv.ExternalRef,
	}
}

// =============================================================================
// COMMISSION TYPES
// =============================================================================

type CommissionDTO struct {
	ID              string `json:"id"`
	InvoiceID       string `json:"invoice_id"`
	AEID            string `json:"ae_id"`
	ConfigID        string `json:"config_id"`
	BaseCommission  string `json:"base_commission"`
	PilotBonus      string `json:"pilot_bonus"`
	MultiYearBonus  string `json:"multi_year_bonus"`
	UpfrontBonus    string `json:"upfront_bonus"`
	TotalCommission string `json:"total_commission"`
	OTEApplied      bool   `json:"ote_applied"`
	Status          string `json:"status"`
	ApprovedBy      string `json:"approved_by,omitempty"`
	ApprovedAt      string `json:"approved_at,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

func toCommissionDTO(c commission.Commission) CommissionDTO {
	dto := CommissionDTO{
		ID:              string(c.ID),
		InvoiceID:       string(c.InvoiceID),
		AEID:            string(c.AEID),
		ConfigID:        string(c.ConfigID),
		BaseCommission:  c.BaseCommission.String(),
		PilotBonus:      c.PilotBonus.String(),
		MultiYearBonus:  c.MultiYearBonus.String(),
		UpfrontBonus:    c.UpfrontBonus.String(),
		TotalCommission: c.TotalCommission.String(),
		OTEApplied:      c.OTEApplied,
		Status:          string(c.Status),
		CreatedAt:       formatTime(c.CreatedAt),
	}
	if c.ApprovedBy != nil {
		dto.ApprovedBy = *c.ApprovedBy
	}
	if c.ApprovedAt != nil {
		dto.ApprovedAt = formatTime(*c.ApprovedAt)
	}
	if c.RejectionReason != nil {
		dto.RejectionReason = *c.RejectionReason
	}
	return dto
}

type ApproveRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required"`
}

type RejectRequest struct {
	RejectedBy string `json:"rejected_by" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

type PayRequest struct {
	PaidBy string `json:"paid_by" validate:"required"`
}

// =============================================================================
// SUMMARY TYPES
// =============================================================================

type SummaryDTO struct {
	AEID         string `json:"ae_id"`
	Year         int    `json:"year"`
	RealizedBase string `json:"realized_base"`
	PendingBase  string `json:"pending_base"`
	TotalEarned  string `json:"total_earned"`
	CapAmount    string `json:"cap_amount,omitempty"`
	CapRemaining string `json:"cap_remaining,omitempty"`
	Decelerated  bool   `json:"decelerated"`
	Commissions  int    `json:"commissions"`
}

func toSummaryDTO(s commission.AESummary) SummaryDTO {
	dto := SummaryDTO{
		AEID:         string(s.AEID),
		Year:         s.Year,
		RealizedBase: s.RealizedBase.String(),
		PendingBase:  s.PendingBase.String(),
		TotalEarned:  s.TotalEarned.String(),
		Decelerated:  s.Decelerated,
		Commissions:  s.Commissions,
	}
	if s.CapAmount.IsPositive() {
		dto.CapAmount = s.CapAmount.String()
		dto.CapRemaining = s.CapRemaining.String()
	}
	return dto
}

// =============================================================================
// SYNC TYPES
// =============================================================================

type SyncInvoiceRecord struct {
	Ref         string  `json:"ref" validate:"required"`
	ContractID  string  `json:"contract_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	InvoiceDate string  `json:"invoice_date" validate:"required"`
	RevenueType string  `json:"revenue_type,omitempty"`
}

type SyncRequest struct {
	Invoices []SyncInvoiceRecord `json:"invoices" validate:"required,dive"`
}

type SyncReportDTO struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// =============================================================================
// COMMON
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
