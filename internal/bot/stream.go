package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ostapv/leadwatch/internal/analytics"
	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/commands"
	"github.com/ostapv/leadwatch/internal/database"
	"github.com/ostapv/leadwatch/internal/dedup"
	"github.com/ostapv/leadwatch/internal/leads"
	"github.com/ostapv/leadwatch/internal/source"
)

// Analyzer produces a classification for a message text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) classifier.Result
}

// CommandHandler processes operator-chat messages and returns a reply,
// or an empty string when the message should be ignored.
type CommandHandler interface {
	Handle(ctx context.Context, msg source.Message) string
}

// Notifier delivers text to a chat through a specific account.
type Notifier interface {
	SendToChat(ctx context.Context, accountID string, chatID int64, text string) error
}

// PipelineDeps bundles everything one processing stream needs.
// Archive may be nil.
type PipelineDeps struct {
	Logger          *slog.Logger
	OperatorChatID  int64
	ActionThreshold int
	Actionable      []classifier.Category
	Gate            *dedup.Gate
	Analyzer        Analyzer
	Leads           *leads.Store
	Analytics       *analytics.Aggregator
	Archive         database.Archive
	Commands        CommandHandler
	Notifier        Notifier
}

// Pipeline is the per-account message processing stream: dedup admits
// each wire event exactly once across all streams, then operator
// commands are interpreted and everything else runs classify →
// archive → lead creation → operator notification.
type Pipeline struct {
	log             *slog.Logger
	operatorChatID  int64
	actionThreshold int
	actionable      map[classifier.Category]bool
	gate            *dedup.Gate
	analyzer        Analyzer
	leads           *leads.Store
	analytics       *analytics.Aggregator
	archive         database.Archive
	commands        CommandHandler
	notifier        Notifier
}

// NewPipeline creates a Pipeline from its dependencies.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	actionable := make(map[classifier.Category]bool, len(deps.Actionable))
	for _, c := range deps.Actionable {
		actionable[c] = true
	}
	return &Pipeline{
		log:             logger.With("component", "pipeline"),
		operatorChatID:  deps.OperatorChatID,
		actionThreshold: deps.ActionThreshold,
		actionable:      actionable,
		gate:            deps.Gate,
		analyzer:        deps.Analyzer,
		leads:           deps.Leads,
		analytics:       deps.Analytics,
		archive:         deps.Archive,
		commands:        deps.Commands,
		notifier:        deps.Notifier,
	}
}

// Run consumes one account's event stream until the context is
// cancelled or the stream closes. Messages from one stream are handled
// strictly in arrival order.
func (p *Pipeline) Run(ctx context.Context, accountID string, events <-chan source.Message) error {
	p.log.InfoContext(ctx, "Pipeline stream started", "account_id", accountID)
	for {
		select {
		case <-ctx.Done():
			p.log.InfoContext(ctx, "Pipeline stream stopping", "account_id", accountID)
			return nil
		case msg, ok := <-events:
			if !ok {
				p.log.InfoContext(ctx, "Pipeline stream closed", "account_id", accountID)
				return nil
			}
			p.Process(ctx, msg)
		}
	}
}

// Process handles one message end to end.
func (p *Pipeline) Process(ctx context.Context, msg source.Message) {
	// Every account's bot sits in the operator chat, so one wire event
	// arrives on several streams. The gate key is account-independent:
	// whichever stream gets there first wins, the rest drop out here.
	if !p.gate.AdmitMessage(msg.ChatID, msg.MessageID) {
		return
	}

	if msg.ChatID == p.operatorChatID {
		p.handleCommand(ctx, msg)
		return
	}

	norm := classifier.Normalize(msg.Text)
	if norm == "" {
		return
	}
	if !p.gate.AdmitFingerprint(msg.SenderID, norm) {
		p.log.DebugContext(ctx, "Duplicate content suppressed",
			"chat_id", msg.ChatID, "sender_id", msg.SenderID)
		return
	}

	result := p.analyzer.Analyze(ctx, msg.Text)
	p.log.DebugContext(ctx, "Message classified",
		"chat_id", msg.ChatID, "message_id", msg.MessageID,
		"category", result.Category, "score", result.Score, "provenance", result.Provenance)

	p.archiveMessage(ctx, msg, result)
	p.analytics.Record(groupTitle(msg), result.Category, msg.Text)

	if result.Score < p.actionThreshold || !p.actionable[result.Category] {
		return
	}
	p.createLead(ctx, msg, result)
}

func (p *Pipeline) handleCommand(ctx context.Context, msg source.Message) {
	reply := p.commands.Handle(ctx, msg)
	if reply == "" {
		return
	}
	if err := p.notifier.SendToChat(ctx, msg.AccountID, p.operatorChatID, reply); err != nil {
		p.log.ErrorContext(ctx, "Failed to deliver command reply", "error", err)
	}
}

// archiveMessage records the admitted message. Archive failures are
// logged and swallowed: losing an audit row must not lose the lead.
func (p *Pipeline) archiveMessage(ctx context.Context, msg source.Message, result classifier.Result) {
	if p.archive == nil {
		return
	}
	err := p.archive.SaveMessage(ctx, &database.ArchivedMessage{
		AccountID:    msg.AccountID,
		ChatID:       msg.ChatID,
		ChatTitle:    msg.ChatTitle,
		MessageID:    msg.MessageID,
		SenderID:     msg.SenderID,
		SenderHandle: msg.SenderHandle,
		Content:      msg.Text,
		Timestamp:    msg.Timestamp,
		Category:     string(result.Category),
		Score:        result.Score,
	})
	if err != nil {
		p.log.WarnContext(ctx, "Failed to archive message",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
	}
}

func (p *Pipeline) createLead(ctx context.Context, msg source.Message, result classifier.Result) {
	id, err := p.leads.Create(&leads.Lead{
		AccountID:      msg.AccountID,
		ChatID:         msg.ChatID,
		ChatTitle:      groupTitle(msg),
		ChatLink:       messageLink(msg),
		MessageID:      msg.MessageID,
		SenderID:       msg.SenderID,
		SenderHandle:   msg.SenderHandle,
		SenderName:     msg.SenderName,
		Text:           msg.Text,
		Classification: result,
	})
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to create lead",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
		return
	}

	p.log.InfoContext(ctx, "Lead created",
		"lead_id", id, "category", result.Category, "score", result.Score, "chat_title", groupTitle(msg))

	if p.archive != nil {
		if err := p.archive.SetLeadID(ctx, msg.ChatID, msg.MessageID, id); err != nil {
			p.log.WarnContext(ctx, "Failed to link archived message to lead", "lead_id", id, "error", err)
		}
	}

	lead, err := p.leads.Get(id)
	if err != nil {
		p.log.ErrorContext(ctx, "Failed to load created lead for notification", "lead_id", id, "error", err)
		return
	}
	card := "🆕 New lead\n\n" + commands.RenderLeadCard(lead)
	if err := p.notifier.SendToChat(ctx, msg.AccountID, p.operatorChatID, card); err != nil {
		p.log.ErrorContext(ctx, "Failed to notify operator about lead", "lead_id", id, "error", err)
	}
}

func groupTitle(msg source.Message) string {
	if msg.ChatTitle != "" {
		return msg.ChatTitle
	}
	if msg.ChatHandle != "" {
		return "@" + msg.ChatHandle
	}
	return fmt.Sprintf("chat %d", msg.ChatID)
}

func messageLink(msg source.Message) string {
	if msg.ChatHandle == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%d", msg.ChatHandle, msg.MessageID)
}
