package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/ostapv/leadwatch/internal/database"
)

func newTestArchive(t *testing.T) database.Archive {
	t.Helper()

	db, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewArchive(db, nil)
}

func testMessage(chatID, messageID int64, category string) *database.ArchivedMessage {
	return &database.ArchivedMessage{
		AccountID:    "acc1",
		ChatID:       chatID,
		ChatTitle:    "Украинцы в Берлине",
		MessageID:    messageID,
		SenderID:     1001,
		SenderHandle: "someone",
		Content:      "ищу адвоката в Берлине",
		Timestamp:    time.Now().UTC(),
		Category:     category,
		Score:        60,
	}
}

func TestArchiveSaveAndFetch(t *testing.T) {
	t.Parallel()
	archive := newTestArchive(t)
	ctx := context.Background()

	msg := testMessage(-100, 1, "LEAD_SEARCH")
	if err := archive.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if msg.ID == 0 {
		t.Error("SaveMessage() did not set ID")
	}

	got, err := archive.RecentByChat(ctx, -100, 10)
	if err != nil {
		t.Fatalf("RecentByChat() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("RecentByChat() returned %d messages, want 1", len(got))
	}
	if got[0].Content != msg.Content || got[0].Category != "LEAD_SEARCH" {
		t.Errorf("RecentByChat() = %+v, want saved message", got[0])
	}
}

func TestArchiveSaveValidation(t *testing.T) {
	t.Parallel()
	archive := newTestArchive(t)
	ctx := context.Background()

	if err := archive.SaveMessage(ctx, nil); err == nil {
		t.Error("SaveMessage(nil) error = nil, want error")
	}

	msg := testMessage(-100, 1, "OTHER")
	msg.Content = ""
	if err := archive.SaveMessage(ctx, msg); err == nil {
		t.Error("SaveMessage() with empty content error = nil, want error")
	}
}

func TestArchiveRejectsDuplicateMessage(t *testing.T) {
	t.Parallel()
	archive := newTestArchive(t)
	ctx := context.Background()

	if err := archive.SaveMessage(ctx, testMessage(-100, 7, "OTHER")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if err := archive.SaveMessage(ctx, testMessage(-100, 7, "OTHER")); err == nil {
		t.Error("SaveMessage() with duplicate (chat, message) error = nil, want unique violation")
	}
}

func TestArchiveSetLeadID(t *testing.T) {
	t.Parallel()
	archive := newTestArchive(t)
	ctx := context.Background()

	if err := archive.SaveMessage(ctx, testMessage(-100, 3, "LEAD_SEARCH")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if err := archive.SetLeadID(ctx, -100, 3, "01HXYZ"); err != nil {
		t.Fatalf("SetLeadID() error = %v", err)
	}

	got, err := archive.RecentByChat(ctx, -100, 1)
	if err != nil {
		t.Fatalf("RecentByChat() error = %v", err)
	}
	if got[0].LeadID != "01HXYZ" {
		t.Errorf("LeadID = %q, want %q", got[0].LeadID, "01HXYZ")
	}

	if err := archive.SetLeadID(ctx, -100, 3, ""); err == nil {
		t.Error("SetLeadID() with empty lead id error = nil, want error")
	}
}

func TestArchiveCategoryCounts(t *testing.T) {
	t.Parallel()
	archive := newTestArchive(t)
	ctx := context.Background()

	for i, cat := range []string{"LEAD_SEARCH", "LEAD_SEARCH", "SPAM"} {
		if err := archive.SaveMessage(ctx, testMessage(-100, int64(i+1), cat)); err != nil {
			t.Fatalf("SaveMessage() error = %v", err)
		}
	}

	counts, err := archive.CategoryCounts(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CategoryCounts() error = %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("CategoryCounts() returned %d rows, want 2", len(counts))
	}
	if counts[0].Category != "LEAD_SEARCH" || counts[0].Count != 2 {
		t.Errorf("top category = %+v, want LEAD_SEARCH x2", counts[0])
	}

	// A cutoff in the future matches nothing.
	counts, err = archive.CategoryCounts(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CategoryCounts() error = %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("CategoryCounts() with future cutoff returned %d rows, want 0", len(counts))
	}
}

func TestArchiveMaintenance(t *testing.T) {
	t.Parallel()
	archive := newTestArchive(t)

	if err := archive.RunSQLMaintenance(context.Background()); err != nil {
		t.Errorf("RunSQLMaintenance() error = %v", err)
	}
}
