// Package sink defines the outbound action contract: the external
// capability that actually delivers direct messages and group invites.
// Expected delivery failures (flood-wait, privacy restrictions) are
// returned as typed results, never as errors or panics.
package sink

import (
	"context"
	"fmt"
)

// Status is the closed set of delivery outcomes a sink can report.
type Status int

const (
	StatusOK Status = iota
	StatusFloodWait
	StatusPrivacyRestricted
	StatusNotMutualContact
	StatusWriteForbidden
	StatusAlreadyMember
	StatusTransportError
)

// String returns a short operator-facing name for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFloodWait:
		return "flood_wait"
	case StatusPrivacyRestricted:
		return "privacy_restricted"
	case StatusNotMutualContact:
		return "not_mutual_contact"
	case StatusWriteForbidden:
		return "write_forbidden"
	case StatusAlreadyMember:
		return "already_member"
	case StatusTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result reports the outcome of one sink call. RetryAfter carries the
// server-imposed wait in seconds for flood-wait; the caller decides
// whether to wait, the sink never sleeps.
type Result struct {
	Status     Status
	RetryAfter int
	Detail     string
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Status == StatusOK }

// Target identifies the peer an action is addressed to.
type Target struct {
	UserID int64
	Handle string
}

// GroupRef identifies a group for invite actions. Either ChatID or
// Handle may be set; the sink resolves whichever it is given.
type GroupRef struct {
	ChatID int64
	Handle string
}

// Sink delivers outbound actions on behalf of a monitoring account.
type Sink interface {
	SendMessage(ctx context.Context, accountID string, to Target, text string) Result
	InviteToGroup(ctx context.Context, accountID string, to Target, group GroupRef) Result
}
