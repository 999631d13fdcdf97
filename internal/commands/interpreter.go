package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ostapv/leadwatch/internal/analytics"
	"github.com/ostapv/leadwatch/internal/database"
	"github.com/ostapv/leadwatch/internal/dispatch"
	"github.com/ostapv/leadwatch/internal/leads"
	"github.com/ostapv/leadwatch/internal/source"
)

// Interpreter authorizes operator messages, parses them, and delegates
// actions to the Dispatcher. Unauthorized senders and unknown text are
// silently ignored so the bot never reacts to ordinary conversation.
type Interpreter struct {
	log          *slog.Logger
	dispatcher   *dispatch.Dispatcher
	store        *leads.Store
	stats        *analytics.Aggregator
	archive      database.Archive
	adminIDs     map[int64]bool
	adminHandles map[string]bool
}

// NewInterpreter creates an Interpreter. Archive may be nil; stats then
// report from the analytics aggregator alone.
func NewInterpreter(dispatcher *dispatch.Dispatcher, store *leads.Store, stats *analytics.Aggregator, archive database.Archive, adminIDs []int64, adminHandles []string, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}

	ids := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = true
	}
	handles := make(map[string]bool, len(adminHandles))
	for _, h := range adminHandles {
		handles[normalizeHandle(h)] = true
	}

	return &Interpreter{
		log:          logger.With("component", "interpreter"),
		dispatcher:   dispatcher,
		store:        store,
		stats:        stats,
		archive:      archive,
		adminIDs:     ids,
		adminHandles: handles,
	}
}

// Handle processes one operator-chat message. The returned reply is
// empty when the message should be ignored (unauthorized sender or
// unrecognized text).
func (i *Interpreter) Handle(ctx context.Context, msg source.Message) string {
	if !i.authorized(msg) {
		i.log.DebugContext(ctx, "Ignoring message from unauthorized sender",
			"sender_id", msg.SenderID, "sender_handle", msg.SenderHandle)
		return ""
	}

	cmd := Parse(msg.Text)
	if cmd.Kind == KindUnknown {
		return ""
	}
	if needsLead(cmd.Kind) && cmd.LeadID == "" {
		return fmt.Sprintf("usage: %s <lead-id>", cmd.Kind)
	}

	i.log.InfoContext(ctx, "Executing operator command",
		"command", cmd.Kind.String(), "lead_id", cmd.LeadID, "sender_id", msg.SenderID)

	switch cmd.Kind {
	case KindHelp:
		return helpText
	case KindShow:
		return i.show(cmd.LeadID)
	case KindRecent:
		return i.recent(ctx, cmd.LeadID)
	case KindRegen:
		return i.dispatcher.SendDM(ctx, cmd.LeadID, true).String()
	case KindDM:
		return i.dispatcher.SendDM(ctx, cmd.LeadID, false).String()
	case KindPitch:
		return i.dispatcher.SendPitch(ctx, cmd.LeadID).String()
	case KindInvite:
		return i.dispatcher.Invite(ctx, cmd.LeadID).String()
	case KindFav:
		return i.dispatcher.Favorite(ctx, cmd.LeadID).String()
	case KindIgnore:
		return i.dispatcher.Ignore(ctx, cmd.LeadID).String()
	case KindStats:
		return i.renderStats(ctx)
	default:
		return ""
	}
}

func (i *Interpreter) authorized(msg source.Message) bool {
	if i.adminIDs[msg.SenderID] {
		return true
	}
	return i.adminHandles[normalizeHandle(msg.SenderHandle)]
}

func (i *Interpreter) show(leadID string) string {
	lead, err := i.store.Get(leadID)
	if errors.Is(err, leads.ErrNotFound) {
		return fmt.Sprintf("❌ lead %s not found", leadID)
	}
	if err != nil {
		return fmt.Sprintf("❌ failed to load lead %s: %v", leadID, err)
	}
	return RenderLeadCard(lead)
}

const recentLimit = 10

// recent shows the newest archived messages from the lead's chat, for
// context before acting on the lead.
func (i *Interpreter) recent(ctx context.Context, leadID string) string {
	lead, err := i.store.Get(leadID)
	if errors.Is(err, leads.ErrNotFound) {
		return fmt.Sprintf("❌ lead %s not found", leadID)
	}
	if err != nil {
		return fmt.Sprintf("❌ failed to load lead %s: %v", leadID, err)
	}
	if i.archive == nil {
		return "❌ message archive is not configured"
	}

	msgs, err := i.archive.RecentByChat(ctx, lead.ChatID, recentLimit)
	if err != nil {
		i.log.WarnContext(ctx, "Failed to read recent archived messages",
			"chat_id", lead.ChatID, "error", err)
		return fmt.Sprintf("❌ failed to load recent messages for %s", lead.ChatTitle)
	}
	return RenderRecent(lead.ChatTitle, msgs)
}

func (i *Interpreter) renderStats(ctx context.Context) string {
	var counts []database.CategoryCount
	if i.archive != nil {
		var err error
		counts, err = i.archive.CategoryCounts(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			i.log.WarnContext(ctx, "Failed to read archive stats", "error", err)
		}
	}
	return RenderStats(i.stats, counts)
}

func normalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}
