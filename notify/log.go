package notify

import (
	"context"
	"log"

	"github.com/charlesifrah/HubPay-sub001/commission"
)

// Log writes approval notices to a logger instead of sending email.
// Used in development and when SMTP is not configured.
type Log struct {
	Logger *log.Logger
}

func (l *Log) NotifyApproval(_ context.Context, notice commission.ApprovalNotice) error {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("approval notice: commission %s for AE %s, $%s (%s), approved by %s",
		notice.CommissionID, notice.AEID, notice.Amount, notice.ClientName, notice.ApprovedBy)
	return nil
}

var _ commission.Notifier = (*Log)(nil)
