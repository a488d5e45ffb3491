// Package notify delivers approval notifications to account executives.
//
// Notification is best-effort by contract: the engine approves first
// and notifies after, so implementations report errors for logging but
// must never be load-bearing for the workflow.
package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/charlesifrah/HubPay-sub001/commission"
)

// SMTPConfig carries the mail server settings.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string

	// Recipient resolves an AE ID to an email address. Kept as a
	// callback because user records live outside this core.
	Recipient func(aeID commission.AEID) (string, error)
}

// Email sends approval notices over SMTP using gomail.
type Email struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewEmail(cfg SMTPConfig) *Email {
	return &Email{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
	}
}

// NotifyApproval emails the AE that their commission was approved.
func (e *Email) NotifyApproval(ctx context.Context, notice commission.ApprovalNotice) error {
	to, err := e.cfg.Recipient(notice.AEID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient for AE %s: %w", notice.AEID, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Commission approved: $%s", notice.Amount))
	m.SetBody("text/plain", fmt.Sprintf(
		"Your commission of $%s for %s has been approved by %s.\n\nCommission ID: %s\n",
		notice.Amount, notice.ClientName, notice.ApprovedBy, notice.CommissionID,
	))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send approval email: %w", err)
	}
	return nil
}

var _ commission.Notifier = (*Email)(nil)
