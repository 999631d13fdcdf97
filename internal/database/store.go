package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Archive defines the interface for the message archive.
// Methods accept context.Context for cancellation and timeouts.
type Archive interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts one admitted message with its classification verdict.
	SaveMessage(ctx context.Context, msg *ArchivedMessage) error

	// SetLeadID attaches a lead ID to an already archived message.
	SetLeadID(ctx context.Context, chatID, messageID int64, leadID string) error

	// CategoryCounts returns the per-category message totals since the cutoff.
	CategoryCounts(ctx context.Context, since time.Time) ([]CategoryCount, error)

	// RecentByChat retrieves the most recent 'limit' archived messages for a chat.
	RecentByChat(ctx context.Context, chatID int64, limit int) ([]ArchivedMessage, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxArchive implements Archive using sqlx.
type sqlxArchive struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewArchive creates an Archive implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewArchive(db *sqlx.DB, logger *slog.Logger) Archive {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxArchive{
		db:     db,
		logger: logger.With("component", "archive"),
	}
}

func (s *sqlxArchive) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage inserts one admitted message. Duplicate (chat_id, message_id)
// pairs are rejected by the unique index; the dedup gate upstream should
// make that impossible, so a conflict is surfaced as an error.
func (s *sqlxArchive) SaveMessage(ctx context.Context, msg *ArchivedMessage) error {
	if msg == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if msg.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if msg.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}
	if msg.Timestamp.IsZero() {
		return fmt.Errorf("message must have a non-zero timestamp")
	}

	msg.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (created_at, account_id, chat_id, chat_title, message_id,
                              sender_id, sender_handle, content, timestamp, category, score, lead_id)
        VALUES (:created_at, :account_id, :chat_id, :chat_title, :message_id,
                :sender_id, :sender_handle, :content, :timestamp, :category, :score, :lead_id);
    `

	result, err := s.db.NamedExecContext(ctx, query, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error archiving message",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
		return fmt.Errorf("failed to archive message (chat %d, msg %d): %w", msg.ChatID, msg.MessageID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		msg.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after archiving message",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
	}

	s.logger.DebugContext(ctx, "Message archived",
		"chat_id", msg.ChatID, "message_id", msg.MessageID, "category", msg.Category)
	return nil
}

// SetLeadID attaches a lead ID to an archived message once the lead is created.
func (s *sqlxArchive) SetLeadID(ctx context.Context, chatID, messageID int64, leadID string) error {
	if leadID == "" {
		return fmt.Errorf("lead_id cannot be empty")
	}

	query := `UPDATE messages SET lead_id = ? WHERE chat_id = ? AND message_id = ?`
	result, err := s.db.ExecContext(ctx, query, leadID, chatID, messageID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error linking archived message to lead",
			"chat_id", chatID, "message_id", messageID, "lead_id", leadID, "error", err)
		return fmt.Errorf("failed to link message (chat %d, msg %d) to lead: %w", chatID, messageID, err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when linking lead",
			"chat_id", chatID, "message_id", messageID, "affected", affected)
	}
	return nil
}

// CategoryCounts returns per-category totals for messages archived since the cutoff.
func (s *sqlxArchive) CategoryCounts(ctx context.Context, since time.Time) ([]CategoryCount, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var counts []CategoryCount
	query := `
        SELECT category, COUNT(*) AS count
        FROM messages
        WHERE timestamp >= ?
        GROUP BY category
        ORDER BY count DESC;
    `

	err := s.db.SelectContext(ctx, &counts, query, since)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while counting categories", "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error counting archived messages by category", "error", err)
		return nil, fmt.Errorf("failed to count messages by category: %w", err)
	}
	return counts, nil
}

// RecentByChat retrieves the most recent 'limit' archived messages for a chat.
func (s *sqlxArchive) RecentByChat(ctx context.Context, chatID int64, limit int) ([]ArchivedMessage, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []ArchivedMessage
	query := `
        SELECT id, created_at, account_id, chat_id, chat_title, message_id,
               sender_id, sender_handle, content, timestamp, category, score, lead_id
        FROM messages
        WHERE chat_id = ?
        ORDER BY timestamp DESC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &messages, query, chatID, limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching archived messages",
			"chat_id", chatID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting archived messages", "chat_id", chatID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get archived messages for chat %d: %w", chatID, err)
	}
	return messages, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxArchive) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
