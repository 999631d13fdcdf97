// Package leads owns the durable lead records and their lifecycle.
// A lead is created when classification clears the action threshold and
// is only ever mutated through Store operations.
package leads

import (
	"time"

	"github.com/ostapv/leadwatch/internal/classifier"
)

// Status is the lead lifecycle state. A lead starts as StatusNew and
// moves through explicit operator commands; it may receive several
// sequential actions, each independently authorized and throttled.
type Status string

const (
	StatusNew       Status = "new"
	StatusDMSent    Status = "dm_sent"
	StatusPitchSent Status = "pitch_sent"
	StatusInvited   Status = "invited"
	StatusFav       Status = "fav"
	StatusIgnored   Status = "ignored"
)

// Lead is one actionable inbound message and its resolution state.
type Lead struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccountID  string `json:"account_id"`
	ChatID     int64  `json:"chat_id"`
	ChatTitle  string `json:"chat_title"`
	ChatLink   string `json:"chat_link,omitempty"`
	MessageID  int64  `json:"message_id"`

	SenderID     int64  `json:"sender_id"`
	SenderHandle string `json:"sender_handle,omitempty"`
	SenderName   string `json:"sender_name,omitempty"`

	Text           string            `json:"text"`
	Classification classifier.Result `json:"classification"`

	Status  Status               `json:"status"`
	Actions map[string]time.Time `json:"actions,omitempty"`
}

// clone returns a deep copy so callers can never mutate store-owned
// state directly.
func (l *Lead) clone() *Lead {
	cp := *l
	if l.Classification.Reasons != nil {
		cp.Classification.Reasons = append([]string(nil), l.Classification.Reasons...)
	}
	if l.Actions != nil {
		cp.Actions = make(map[string]time.Time, len(l.Actions))
		for k, v := range l.Actions {
			cp.Actions[k] = v
		}
	}
	return &cp
}
