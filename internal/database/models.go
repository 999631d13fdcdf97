package database

import "time"

// ArchivedMessage is the durable record of one admitted group message
// together with its classification verdict. The archive backs the stats
// command and keeps an audit trail independent of the mutable lead
// store.
type ArchivedMessage struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	AccountID    string    `db:"account_id"`
	ChatID       int64     `db:"chat_id"`
	ChatTitle    string    `db:"chat_title"`
	MessageID    int64     `db:"message_id"`
	SenderID     int64     `db:"sender_id"`
	SenderHandle string    `db:"sender_handle"`
	Content      string    `db:"content"`
	Timestamp    time.Time `db:"timestamp"`

	Category string `db:"category"`
	Score    int    `db:"score"`
	LeadID   string `db:"lead_id"`
}

// CategoryCount is one row of the per-category archive breakdown.
type CategoryCount struct {
	Category string `db:"category"`
	Count    int    `db:"count"`
}
