/*
status.go - Commission status workflow

PURPOSE:
  A closed status enum with a single central transition table. Every
  status change in the system goes through Transition(); there are no
  scattered status conditionals.

WORKFLOW:
  pending ──▶ approved ──▶ paid (terminal)
     │
     └─────▶ rejected (terminal)

  pending -> approved   admin action, records approver and timestamp
  pending -> rejected   admin action, requires a rejection reason
  approved -> paid      admin action, marks payout complete

  Everything else (paid -> anything, rejected -> approved, ...) fails
  with InvalidTransitionError and changes nothing.
*/
package commission

import "time"

type CommissionStatus string

const (
	StatusPending  CommissionStatus = "pending"
	StatusApproved CommissionStatus = "approved"
	StatusRejected CommissionStatus = "rejected"
	StatusPaid     CommissionStatus = "paid"
)

// AllStatuses, in workflow order. Used by transition tests and DTO validation.
var AllStatuses = []CommissionStatus{StatusPending, StatusApproved, StatusRejected, StatusPaid}

func (s CommissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s CommissionStatus) Terminal() bool {
	return s == StatusPaid || s == StatusRejected
}

// transitions is the complete legal transition table.
var transitions = map[CommissionStatus][]CommissionStatus{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusPaid},
	StatusRejected: {},
	StatusPaid:     {},
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to CommissionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusMeta carries the audit fields recorded alongside a transition.
type StatusMeta struct {
	Actor           string
	At              time.Time
	RejectionReason string
}

// Transition validates and applies a status change to the commission,
// recording audit fields. Returns InvalidTransitionError on an illegal
// change; the commission is untouched in that case.
func (c *Commission) Transition(to CommissionStatus, meta StatusMeta) error {
	if !CanTransition(c.Status, to) {
		return &InvalidTransitionError{CommissionID: c.ID, From: c.Status, To: to}
	}
	if to == StatusRejected && meta.RejectionReason == "" {
		return &MissingReasonError{CommissionID: c.ID}
	}

	switch to {
	case StatusApproved:
		actor := meta.Actor
		at := meta.At
		c.ApprovedBy = &actor
		c.ApprovedAt = &at
	case StatusRejected:
		reason := meta.RejectionReason
		c.RejectionReason = &reason
	}

	c.Status = to
	c.UpdatedAt = meta.At
	return nil
}
