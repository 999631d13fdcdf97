package commands_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ostapv/leadwatch/internal/analytics"
	"github.com/ostapv/leadwatch/internal/database"
	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/commands"
	"github.com/ostapv/leadwatch/internal/dispatch"
	"github.com/ostapv/leadwatch/internal/leads"
	"github.com/ostapv/leadwatch/internal/sink"
	"github.com/ostapv/leadwatch/internal/source"
	"github.com/ostapv/leadwatch/internal/throttle"
)

type recordingSink struct {
	sends   int
	invites int
}

func (r *recordingSink) SendMessage(context.Context, string, sink.Target, string) sink.Result {
	r.sends++
	return sink.Result{Status: sink.StatusOK}
}

func (r *recordingSink) InviteToGroup(context.Context, string, sink.Target, sink.GroupRef) sink.Result {
	r.invites++
	return sink.Result{Status: sink.StatusOK}
}

type interpFixture struct {
	interp *commands.Interpreter
	store  *leads.Store
	agg    *analytics.Aggregator
	sink   *recordingSink
}

func newInterpFixture(t *testing.T) *interpFixture {
	return newInterpFixtureWithArchive(t, nil)
}

func newInterpFixtureWithArchive(t *testing.T, archive database.Archive) *interpFixture {
	t.Helper()
	dir := t.TempDir()

	store := leads.NewStore(filepath.Join(dir, "leads.json"), nil)
	favs := leads.NewFavorites(filepath.Join(dir, "favorites.json"), nil)
	thr := throttle.New(filepath.Join(dir, "counters.json"), throttle.Limits{}, nil)
	agg := analytics.New(filepath.Join(dir, "analytics.json"), nil)
	snk := &recordingSink{}

	dispatcher := dispatch.New(store, favs, thr, snk, nil, sink.GroupRef{Handle: "client_group"}, nil)
	interp := commands.NewInterpreter(dispatcher, store, agg, archive, []int64{42}, []string{"@Boss"}, nil)

	return &interpFixture{interp: interp, store: store, agg: agg, sink: snk}
}

func adminMsg(text string) source.Message {
	return source.Message{SenderID: 42, SenderHandle: "admin", Text: text}
}

func (f *interpFixture) createLead(t *testing.T) string {
	t.Helper()
	id, err := f.store.Create(&leads.Lead{
		AccountID:    "acc1",
		ChatID:       -100,
		ChatTitle:    "Украинцы в Берлине",
		MessageID:    1,
		SenderID:     1001,
		SenderHandle: "author",
		Text:         "ищу адвоката в Берлине",
		Classification: classifier.Result{
			Category: classifier.CategoryLeadSearch,
			Score:    60,
			Reasons:  []string{"lead_search"},
			Draft:    "Здравствуйте!",
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return id
}

func TestHandleIgnoresUnauthorizedSender(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)
	id := f.createLead(t)

	reply := f.interp.Handle(context.Background(), source.Message{SenderID: 999, Text: "dm " + id})
	if reply != "" {
		t.Errorf("Handle() from stranger = %q, want silence", reply)
	}
	if f.sink.sends != 0 {
		t.Errorf("sink sends = %d, want 0", f.sink.sends)
	}
}

func TestHandleAuthorizesByHandle(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)

	reply := f.interp.Handle(context.Background(), source.Message{SenderID: 7, SenderHandle: "boss", Text: "help"})
	if !strings.Contains(reply, "show <id>") {
		t.Errorf("Handle(help) = %q, want help text", reply)
	}
}

func TestHandleIgnoresOrdinaryConversation(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)

	reply := f.interp.Handle(context.Background(), adminMsg("ну что, как успехи?"))
	if reply != "" {
		t.Errorf("Handle() on conversation = %q, want silence", reply)
	}
}

func TestHandleUsageForMissingLeadID(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)

	reply := f.interp.Handle(context.Background(), adminMsg("dm"))
	if !strings.Contains(reply, "usage: dm") {
		t.Errorf("Handle(dm) = %q, want usage line", reply)
	}
}

func TestHandleDMUnknownLead(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)

	reply := f.interp.Handle(context.Background(), adminMsg("/dm 01NOPE"))
	if !strings.Contains(reply, "not found") {
		t.Errorf("Handle(/dm unknown) = %q, want not found", reply)
	}
	if f.sink.sends != 0 {
		t.Errorf("sink sends = %d, want 0", f.sink.sends)
	}
	if f.store.Len() != 0 {
		t.Errorf("store length = %d, want 0 (no state mutated)", f.store.Len())
	}
}

func TestHandleDMSendsAndUpdatesStatus(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)
	id := f.createLead(t)

	reply := f.interp.Handle(context.Background(), adminMsg("dm "+id))
	if !strings.Contains(reply, "done") {
		t.Errorf("Handle(dm) = %q, want done", reply)
	}
	if f.sink.sends != 1 {
		t.Errorf("sink sends = %d, want 1", f.sink.sends)
	}

	lead, err := f.store.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if lead.Status != leads.StatusDMSent {
		t.Errorf("Status = %s, want %s", lead.Status, leads.StatusDMSent)
	}
}

func TestHandleShowRendersCard(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)
	id := f.createLead(t)

	reply := f.interp.Handle(context.Background(), adminMsg("show "+id))
	for _, want := range []string{id, "LEAD_SEARCH", "score 60", "ищу адвоката", "Здравствуйте!", "Украинцы в Берлине"} {
		if !strings.Contains(reply, want) {
			t.Errorf("Handle(show) missing %q in:\n%s", want, reply)
		}
	}
}

func TestHandleRecentShowsArchivedChatMessages(t *testing.T) {
	t.Parallel()

	db, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	archive := database.NewArchive(db, nil)

	f := newInterpFixtureWithArchive(t, archive)
	id := f.createLead(t)

	ctx := context.Background()
	base := time.Now().UTC()
	for i, text := range []string{"кто знает хорошего юриста?", "ищу адвоката в Берлине"} {
		err := archive.SaveMessage(ctx, &database.ArchivedMessage{
			AccountID:    "acc1",
			ChatID:       -100,
			ChatTitle:    "Украинцы в Берлине",
			MessageID:    int64(i + 1),
			SenderID:     1001,
			SenderHandle: "author",
			Content:      text,
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			Category:     "LEAD_SEARCH",
			Score:        60,
		})
		if err != nil {
			t.Fatalf("SaveMessage() error = %v", err)
		}
	}

	reply := f.interp.Handle(ctx, adminMsg("recent "+id))
	for _, want := range []string{"Украинцы в Берлине", "@author", "кто знает хорошего юриста?", "ищу адвоката в Берлине"} {
		if !strings.Contains(reply, want) {
			t.Errorf("Handle(recent) missing %q in:\n%s", want, reply)
		}
	}
}

func TestHandleRecentWithoutArchive(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)
	id := f.createLead(t)

	reply := f.interp.Handle(context.Background(), adminMsg("recent "+id))
	if !strings.Contains(reply, "archive is not configured") {
		t.Errorf("Handle(recent) = %q, want archive unavailable notice", reply)
	}
}

func TestHandleStats(t *testing.T) {
	t.Parallel()
	f := newInterpFixture(t)
	f.agg.Record("Украинцы в Берлине", classifier.CategoryLeadSearch, "ищу адвоката")
	f.agg.Record("Украинцы в Берлине", classifier.CategorySpam, "casino")

	reply := f.interp.Handle(context.Background(), adminMsg("stats"))
	if !strings.Contains(reply, "Украинцы в Берлине — 2 messages") {
		t.Errorf("Handle(stats) = %q, want group total", reply)
	}
	if !strings.Contains(reply, "LEAD_SEARCH 1") {
		t.Errorf("Handle(stats) = %q, want category breakdown", reply)
	}
}
