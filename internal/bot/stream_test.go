package bot_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ostapv/leadwatch/internal/analytics"
	"github.com/ostapv/leadwatch/internal/bot"
	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/dedup"
	"github.com/ostapv/leadwatch/internal/leads"
	"github.com/ostapv/leadwatch/internal/source"
)

type ruleAnalyzer struct {
	cls *classifier.Classifier
}

func (a *ruleAnalyzer) Analyze(_ context.Context, text string) classifier.Result {
	return a.cls.Classify(text)
}

type notification struct {
	accountID string
	chatID    int64
	text      string
}

type fakeNotifier struct {
	sent []notification
}

func (f *fakeNotifier) SendToChat(_ context.Context, accountID string, chatID int64, text string) error {
	f.sent = append(f.sent, notification{accountID: accountID, chatID: chatID, text: text})
	return nil
}

type fakeCommands struct {
	reply string
	seen  []source.Message
}

func (f *fakeCommands) Handle(_ context.Context, msg source.Message) string {
	f.seen = append(f.seen, msg)
	return f.reply
}

const operatorChat = int64(-999)

type pipeFixture struct {
	pipeline *bot.Pipeline
	store    *leads.Store
	agg      *analytics.Aggregator
	notifier *fakeNotifier
	commands *fakeCommands
}

func newPipeFixture(t *testing.T) *pipeFixture {
	t.Helper()
	dir := t.TempDir()

	store := leads.NewStore(filepath.Join(dir, "leads.json"), nil)
	agg := analytics.New(filepath.Join(dir, "analytics.json"), nil)
	gate := dedup.New(filepath.Join(dir, "seen.json"), dedup.Options{}, nil)
	notifier := &fakeNotifier{}
	cmds := &fakeCommands{}

	pipeline := bot.NewPipeline(bot.PipelineDeps{
		OperatorChatID:  operatorChat,
		ActionThreshold: 60,
		Actionable:      []classifier.Category{classifier.CategoryLeadSearch, classifier.CategoryLeadQuestion},
		Gate:            gate,
		Analyzer:        &ruleAnalyzer{cls: classifier.New(nil)},
		Leads:           store,
		Analytics:       agg,
		Commands:        cmds,
		Notifier:        notifier,
	})

	return &pipeFixture{pipeline: pipeline, store: store, agg: agg, notifier: notifier, commands: cmds}
}

func groupMsg(messageID int64, text string) source.Message {
	return source.Message{
		AccountID:    "acc1",
		ChatID:       -100,
		ChatTitle:    "Украинцы в Берлине",
		ChatHandle:   "ua_berlin",
		MessageID:    messageID,
		SenderID:     1001,
		SenderHandle: "author",
		Text:         text,
		Timestamp:    time.Now().UTC(),
	}
}

func TestProcessCreatesLeadAndNotifies(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)

	f.pipeline.Process(context.Background(), groupMsg(1, "ищу адвоката в Берлине, подскажите"))

	if f.store.Len() != 1 {
		t.Fatalf("leads = %d, want 1", f.store.Len())
	}
	if len(f.notifier.sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(f.notifier.sent))
	}
	n := f.notifier.sent[0]
	if n.chatID != operatorChat || n.accountID != "acc1" {
		t.Errorf("notification routed to %+v, want operator chat via acc1", n)
	}
	for _, want := range []string{"New lead", "LEAD_SEARCH", "ищу адвоката", "https://t.me/ua_berlin/1"} {
		if !strings.Contains(n.text, want) {
			t.Errorf("notification missing %q in:\n%s", want, n.text)
		}
	}
}

func TestProcessDuplicateMessageHandledOnce(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)
	msg := groupMsg(1, "ищу адвоката в Берлине, подскажите")

	f.pipeline.Process(context.Background(), msg)
	f.pipeline.Process(context.Background(), msg)

	if f.store.Len() != 1 {
		t.Errorf("leads = %d, want 1 after duplicate delivery", f.store.Len())
	}
	if len(f.notifier.sent) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.notifier.sent))
	}
}

func TestProcessSameTextFromSameSenderSuppressed(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)

	f.pipeline.Process(context.Background(), groupMsg(1, "ищу адвоката в Берлине, подскажите"))
	// Same author reposts the same text in another message.
	f.pipeline.Process(context.Background(), groupMsg(2, "ищу адвоката в Берлине, подскажите"))

	if f.store.Len() != 1 {
		t.Errorf("leads = %d, want 1 after cross-post", f.store.Len())
	}
}

func TestProcessNonActionableRecordsAnalyticsOnly(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)

	f.pipeline.Process(context.Background(), groupMsg(1, "casino промокод vip бонус"))

	if f.store.Len() != 0 {
		t.Errorf("leads = %d, want 0 for spam", f.store.Len())
	}
	if len(f.notifier.sent) != 0 {
		t.Errorf("notifications = %d, want 0", len(f.notifier.sent))
	}
	snapshot := f.agg.Snapshot()
	gs, ok := snapshot["Украинцы в Берлине"]
	if !ok || gs.Total != 1 {
		t.Errorf("analytics = %+v, want 1 recorded message for group", snapshot)
	}
}

func TestProcessOperatorChatGoesToCommands(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)
	f.commands.reply = "✅ done"

	msg := source.Message{AccountID: "acc1", ChatID: operatorChat, MessageID: 7, SenderID: 42, Text: "dm 01HXYZ"}
	f.pipeline.Process(context.Background(), msg)

	if len(f.commands.seen) != 1 {
		t.Fatalf("command handler calls = %d, want 1", len(f.commands.seen))
	}
	if len(f.notifier.sent) != 1 || f.notifier.sent[0].text != "✅ done" {
		t.Errorf("notifications = %+v, want single command reply", f.notifier.sent)
	}
	if f.store.Len() != 0 {
		t.Errorf("leads = %d, want 0 (operator chat is never classified)", f.store.Len())
	}
}

func TestProcessOperatorCommandRunsOncePerWireEvent(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)
	f.commands.reply = "✅ done"

	// The same operator message is delivered on every account's stream.
	msg := source.Message{AccountID: "acc1", ChatID: operatorChat, MessageID: 7, SenderID: 42, Text: "dm 01HXYZ"}
	f.pipeline.Process(context.Background(), msg)
	msg.AccountID = "acc2"
	f.pipeline.Process(context.Background(), msg)

	if len(f.commands.seen) != 1 {
		t.Fatalf("command handler calls = %d, want 1 across streams", len(f.commands.seen))
	}
	if len(f.notifier.sent) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.notifier.sent))
	}
}

func TestProcessOperatorSilenceSendsNothing(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)

	msg := source.Message{AccountID: "acc1", ChatID: operatorChat, MessageID: 8, SenderID: 999, Text: "привет"}
	f.pipeline.Process(context.Background(), msg)

	if len(f.notifier.sent) != 0 {
		t.Errorf("notifications = %+v, want none for ignored message", f.notifier.sent)
	}
}

func TestRunDrainsStreamUntilClosed(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)

	events := make(chan source.Message, 2)
	events <- groupMsg(1, "ищу адвоката в Берлине, подскажите")
	events <- groupMsg(2, "нужен юрист срочно")
	close(events)

	if err := f.pipeline.Run(context.Background(), "acc1", events); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if f.store.Len() == 0 {
		t.Error("Run() processed no messages before stream close")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	f := newPipeFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := make(chan source.Message)
	done := make(chan error, 1)
	go func() { done <- f.pipeline.Run(ctx, "acc1", events) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop on context cancellation")
	}
}
