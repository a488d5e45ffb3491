/*
Package billingsync ingests invoices from an external billing system.

PURPOSE:
  Third-party billing platforms (Stripe-style) emit invoice records
  that must flow through the same commission pipeline as locally
  created invoices. The syncer maps external records onto invoices and
  triggers calculation, without ever bypassing the one-commission-per-
  invoice invariant.

IDEMPOTENCY:
  Each external record carries a stable reference. Before creating an
  invoice, the syncer checks the external_ref mapping; an already-
  mapped record is skipped, so re-running a sync (cron, webhook retry,
  manual backfill) is safe.
*/
package billingsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/charlesifrah/HubPay-sub001/commission"
)

// ExternalInvoice is the shape billing systems deliver.
type ExternalInvoice struct {
	Ref         string
	ContractID  commission.ContractID
	Amount      commission.Money
	InvoiceDate time.Time
	RevenueType string
}

// Source supplies external invoice records, e.g. a billing API client.
type Source interface {
	FetchInvoices(ctx context.Context, since time.Time) ([]ExternalInvoice, error)
}

// Report summarizes one sync run.
type Report struct {
	Fetched  int
	Created  int
	Skipped  int
	Failed   int
}

// Syncer pulls external invoices into the store and prices them.
type Syncer struct {
	Source Source
	Store  commission.Store
	Engine *commission.Engine
	Logger *log.Logger

	// Now is injectable for tests.
	Now func() time.Time
}

func (s *Syncer) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Sync fetches external invoices since the given time and ingests each
// one. Individual record failures are logged and counted, not fatal:
// a bad record must not block the rest of the batch.
func (s *Syncer) Sync(ctx context.Context, since time.Time) (Report, error) {
	records, err := s.Source.FetchInvoices(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("failed to fetch external invoices: %w", err)
	}

	report := Report{Fetched: len(records)}
	for _, rec := range records {
		created, err := s.ingest(ctx, rec)
		switch {
		case err != nil:
			report.Failed++
			s.logf("sync: failed to ingest %s: %v", rec.Ref, err)
		case created:
			report.Created++
		default:
			report.Skipped++
		}
	}
	return report, nil
}

// ingest maps one external record to an invoice and calculates its
// commission. Returns false when the record was already mapped.
func (s *Syncer) ingest(ctx context.Context, rec ExternalInvoice) (bool, error) {
	if rec.Ref == "" {
		return false, errors.New("external invoice has no reference")
	}

	_, err := s.Store.GetInvoiceByExternalRef(ctx, rec.Ref)
	switch {
	case err == nil:
		// Already mapped; the existing commission stands.
		return false, nil
	case errors.Is(err, commission.ErrInvoiceNotFound):
		// New record, proceed.
	default:
		return false, err
	}

	if _, err := s.Store.GetContract(ctx, rec.ContractID); err != nil {
		return false, fmt.Errorf("contract %s: %w", rec.ContractID, err)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	inv := commission.Invoice{
		ID:          commission.InvoiceID(uuid.NewString()),
		ContractID:  rec.ContractID,
		Amount:      rec.Amount,
		InvoiceDate: rec.InvoiceDate,
		RevenueType: rec.RevenueType,
		ExternalRef: rec.Ref,
		CreatedAt:   now(),
	}
	if err := s.Store.SaveInvoice(ctx, inv); err != nil {
		return false, err
	}

	if _, err := s.Engine.Calculate(ctx, inv); err != nil {
		// Duplicate means a concurrent path already priced it; the
		// invariant held, so the record is ingested either way.
		if errors.Is(err, commission.ErrDuplicateCommission) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}
