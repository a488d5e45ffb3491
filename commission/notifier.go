// notifier.go - External notification collaborator contract.
//
// Approval is the business-critical event; notification is best-effort.
// The engine fires the notifier in a goroutine and logs failures; a
// failing notifier can never roll back or fail the transition.
package commission

import "context"

// ApprovalNotice is the payload sent when a commission is approved.
type ApprovalNotice struct {
	CommissionID CommissionID
	AEID         AEID
	Amount       Money
	ClientName   string
	ApprovedBy   string
}

// Notifier delivers approval notices to an external channel (email).
type Notifier interface {
	NotifyApproval(ctx context.Context, notice ApprovalNotice) error
}

// NopNotifier discards notices. Used when notification is disabled.
type NopNotifier struct{}

func (NopNotifier) NotifyApproval(context.Context, ApprovalNotice) error { return nil }
