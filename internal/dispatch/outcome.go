package dispatch

import (
	"fmt"
	"time"
)

// Code classifies the result of one outbound action attempt.
type Code int

const (
	OutcomeOK Code = iota
	OutcomeNotFound
	OutcomeThrottled
	OutcomeFloodWait
	OutcomePrivacyRestricted
	OutcomeNotMutualContact
	OutcomeWriteForbidden
	OutcomeAlreadyMember
	OutcomeTransportError
)

func (c Code) String() string {
	switch c {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeFloodWait:
		return "flood_wait"
	case OutcomePrivacyRestricted:
		return "privacy_restricted"
	case OutcomeNotMutualContact:
		return "not_mutual_contact"
	case OutcomeWriteForbidden:
		return "write_forbidden"
	case OutcomeAlreadyMember:
		return "already_member"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Outcome is the operator-facing result of one dispatch operation.
// Limit and Wait are set for throttle denials and flood waits; Detail
// carries transport error text.
type Outcome struct {
	Code   Code
	LeadID string
	Limit  string
	Wait   time.Duration
	Detail string
}

// OK reports whether the action was performed.
func (o Outcome) OK() bool { return o.Code == OutcomeOK }

// String renders a one-line summary suitable for an operator reply.
func (o Outcome) String() string {
	switch o.Code {
	case OutcomeOK:
		return fmt.Sprintf("✅ done (lead %s)", o.LeadID)
	case OutcomeNotFound:
		return fmt.Sprintf("❌ lead %s not found", o.LeadID)
	case OutcomeThrottled:
		return fmt.Sprintf("⏳ throttled by %s limit, retry in %s (lead %s)", o.Limit, o.Wait.Round(time.Second), o.LeadID)
	case OutcomeFloodWait:
		return fmt.Sprintf("⏳ flood wait %s (lead %s)", o.Wait.Round(time.Second), o.LeadID)
	case OutcomePrivacyRestricted:
		return fmt.Sprintf("🔒 user restricts messages from strangers (lead %s)", o.LeadID)
	case OutcomeNotMutualContact:
		return fmt.Sprintf("🔒 user accepts messages from contacts only (lead %s)", o.LeadID)
	case OutcomeWriteForbidden:
		return fmt.Sprintf("🚫 writing to this user is forbidden (lead %s)", o.LeadID)
	case OutcomeAlreadyMember:
		return fmt.Sprintf("ℹ️ user is already in the group (lead %s)", o.LeadID)
	case OutcomeTransportError:
		return fmt.Sprintf("❌ send failed: %s (lead %s)", o.Detail, o.LeadID)
	default:
		return fmt.Sprintf("❓ %s (lead %s)", o.Code, o.LeadID)
	}
}
