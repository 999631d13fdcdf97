// Package source defines the inbound message contract consumed by the
// lead processing pipeline. The transport layer (Telegram or anything
// else) produces Message values; the core never inspects transport types.
package source

import (
	"context"
	"time"
)

// Message is one inbound chat message as seen by a monitoring account.
// It is immutable once received.
type Message struct {
	AccountID    string
	ChatID       int64
	ChatTitle    string
	ChatHandle   string
	MessageID    int64
	Text         string
	SenderID     int64
	SenderHandle string
	SenderName   string
	Timestamp    time.Time
}

// ChatRef identifies a resolved chat, used for startup cache warm-up.
type ChatRef struct {
	ID     int64
	Handle string
	Title  string
}

// Source is a lazy, unbounded, non-restartable stream of messages per
// monitoring account. The channel is closed when the stream ends.
type Source interface {
	// Events returns the message channel for the named account.
	Events(accountID string) <-chan Message

	// ResolveChat resolves a chat handle through the given account.
	ResolveChat(ctx context.Context, accountID, handle string) (ChatRef, error)
}
