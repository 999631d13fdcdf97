// Package dispatch executes operator-triggered outbound actions against
// leads: first-contact DMs, pitch messages, group invites, and status
// changes. Every send passes the rate throttle first; a denial leaves
// the lead, the counters, and the transport untouched.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/enrich"
	"github.com/ostapv/leadwatch/internal/leads"
	"github.com/ostapv/leadwatch/internal/sink"
	"github.com/ostapv/leadwatch/internal/throttle"
)

// Analyzer produces a classification (and possibly a draft reply) for a
// message text. Satisfied by *enrich.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, text string) classifier.Result
}

// Dispatcher wires the lead store, the throttle, and the outbound sink
// together. One instance serves all accounts; per-account fairness is
// the throttle's concern.
type Dispatcher struct {
	log         *slog.Logger
	leads       *leads.Store
	favs        *leads.Favorites
	throttle    *throttle.Throttle
	sink        sink.Sink
	analyzer    Analyzer
	inviteGroup sink.GroupRef
}

// New creates a Dispatcher. Analyzer may be nil; drafts then fall back
// to language templates.
func New(store *leads.Store, favs *leads.Favorites, thr *throttle.Throttle, snk sink.Sink, analyzer Analyzer, inviteGroup sink.GroupRef, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		log:         logger.With("component", "dispatcher"),
		leads:       store,
		favs:        favs,
		throttle:    thr,
		sink:        snk,
		analyzer:    analyzer,
		inviteGroup: inviteGroup,
	}
}

// SendDM sends the first-contact draft to the lead's author. With
// regenerate set, a fresh draft is produced even if one is stored.
func (d *Dispatcher) SendDM(ctx context.Context, leadID string, regenerate bool) Outcome {
	lead, err := d.leads.Get(leadID)
	if err != nil {
		return d.missing(ctx, leadID, err)
	}

	if denial := d.throttle.CanSendDM(lead.AccountID); denial != nil {
		d.log.InfoContext(ctx, "DM denied by throttle",
			"lead_id", leadID, "account_id", lead.AccountID, "limit", denial.Limit, "wait", denial.Wait)
		return Outcome{Code: OutcomeThrottled, LeadID: leadID, Limit: denial.Limit, Wait: denial.Wait}
	}

	text := d.resolveDraft(ctx, lead, regenerate)
	res := d.sink.SendMessage(ctx, lead.AccountID, sink.Target{UserID: lead.SenderID, Handle: lead.SenderHandle}, text)
	if !res.OK() {
		return d.sendFailure(ctx, leadID, res)
	}

	d.throttle.MarkDMSent(lead.AccountID)
	if err := d.leads.SetStatus(leadID, leads.StatusDMSent); err != nil {
		d.log.ErrorContext(ctx, "Failed to record DM status", "lead_id", leadID, "error", err)
	}
	d.log.InfoContext(ctx, "DM sent", "lead_id", leadID, "account_id", lead.AccountID)
	return Outcome{Code: OutcomeOK, LeadID: leadID}
}

// SendPitch sends the service pitch template in the lead's language.
// Pitches share the DM throttle budget.
func (d *Dispatcher) SendPitch(ctx context.Context, leadID string) Outcome {
	lead, err := d.leads.Get(leadID)
	if err != nil {
		return d.missing(ctx, leadID, err)
	}

	if denial := d.throttle.CanSendDM(lead.AccountID); denial != nil {
		d.log.InfoContext(ctx, "Pitch denied by throttle",
			"lead_id", leadID, "account_id", lead.AccountID, "limit", denial.Limit, "wait", denial.Wait)
		return Outcome{Code: OutcomeThrottled, LeadID: leadID, Limit: denial.Limit, Wait: denial.Wait}
	}

	text := enrich.PitchReply(enrich.DetectLang(lead.Text))
	res := d.sink.SendMessage(ctx, lead.AccountID, sink.Target{UserID: lead.SenderID, Handle: lead.SenderHandle}, text)
	if !res.OK() {
		return d.sendFailure(ctx, leadID, res)
	}

	d.throttle.MarkDMSent(lead.AccountID)
	if err := d.leads.SetStatus(leadID, leads.StatusPitchSent); err != nil {
		d.log.ErrorContext(ctx, "Failed to record pitch status", "lead_id", leadID, "error", err)
	}
	d.log.InfoContext(ctx, "Pitch sent", "lead_id", leadID, "account_id", lead.AccountID)
	return Outcome{Code: OutcomeOK, LeadID: leadID}
}

// Invite invites the lead's author into the configured group.
func (d *Dispatcher) Invite(ctx context.Context, leadID string) Outcome {
	lead, err := d.leads.Get(leadID)
	if err != nil {
		return d.missing(ctx, leadID, err)
	}

	if denial := d.throttle.CanInvite(lead.AccountID); denial != nil {
		d.log.InfoContext(ctx, "Invite denied by throttle",
			"lead_id", leadID, "account_id", lead.AccountID, "limit", denial.Limit, "wait", denial.Wait)
		return Outcome{Code: OutcomeThrottled, LeadID: leadID, Limit: denial.Limit, Wait: denial.Wait}
	}

	res := d.sink.InviteToGroup(ctx, lead.AccountID, sink.Target{UserID: lead.SenderID, Handle: lead.SenderHandle}, d.inviteGroup)
	if res.Status == sink.StatusAlreadyMember {
		if err := d.leads.SetStatus(leadID, leads.StatusInvited); err != nil {
			d.log.ErrorContext(ctx, "Failed to record invite status", "lead_id", leadID, "error", err)
		}
		return Outcome{Code: OutcomeAlreadyMember, LeadID: leadID}
	}
	if !res.OK() {
		return d.sendFailure(ctx, leadID, res)
	}

	d.throttle.MarkInvite(lead.AccountID)
	if err := d.leads.SetStatus(leadID, leads.StatusInvited); err != nil {
		d.log.ErrorContext(ctx, "Failed to record invite status", "lead_id", leadID, "error", err)
	}
	d.log.InfoContext(ctx, "Invite sent", "lead_id", leadID, "account_id", lead.AccountID)
	return Outcome{Code: OutcomeOK, LeadID: leadID}
}

// Favorite marks a lead as favorite. Idempotent.
func (d *Dispatcher) Favorite(ctx context.Context, leadID string) Outcome {
	if _, err := d.leads.Get(leadID); err != nil {
		return d.missing(ctx, leadID, err)
	}
	if err := d.favs.Add(leadID); err != nil {
		d.log.ErrorContext(ctx, "Failed to persist favorite", "lead_id", leadID, "error", err)
		return Outcome{Code: OutcomeTransportError, LeadID: leadID, Detail: err.Error()}
	}
	if err := d.leads.SetStatus(leadID, leads.StatusFav); err != nil {
		d.log.ErrorContext(ctx, "Failed to record favorite status", "lead_id", leadID, "error", err)
	}
	return Outcome{Code: OutcomeOK, LeadID: leadID}
}

// Ignore marks a lead as ignored, removing it from the operator's queue.
func (d *Dispatcher) Ignore(ctx context.Context, leadID string) Outcome {
	if _, err := d.leads.Get(leadID); err != nil {
		return d.missing(ctx, leadID, err)
	}
	if err := d.leads.SetStatus(leadID, leads.StatusIgnored); err != nil {
		d.log.ErrorContext(ctx, "Failed to record ignored status", "lead_id", leadID, "error", err)
		return Outcome{Code: OutcomeTransportError, LeadID: leadID, Detail: err.Error()}
	}
	return Outcome{Code: OutcomeOK, LeadID: leadID}
}

// resolveDraft returns the outbound text for a DM: the stored draft
// unless regeneration is requested or no draft exists, in which case a
// new one is produced and persisted. The result is never empty.
func (d *Dispatcher) resolveDraft(ctx context.Context, lead *leads.Lead, regenerate bool) string {
	if !regenerate && lead.Classification.Draft != "" {
		return lead.Classification.Draft
	}

	var draft string
	if d.analyzer != nil {
		draft = d.analyzer.Analyze(ctx, lead.Text).Draft
	}
	if draft == "" {
		draft = enrich.FallbackReply(enrich.DetectLang(lead.Text))
	}

	if err := d.leads.SetDraft(lead.ID, draft); err != nil {
		d.log.WarnContext(ctx, "Failed to persist regenerated draft", "lead_id", lead.ID, "error", err)
	}
	return draft
}

func (d *Dispatcher) missing(ctx context.Context, leadID string, err error) Outcome {
	if errors.Is(err, leads.ErrNotFound) {
		return Outcome{Code: OutcomeNotFound, LeadID: leadID}
	}
	d.log.ErrorContext(ctx, "Failed to load lead", "lead_id", leadID, "error", err)
	return Outcome{Code: OutcomeTransportError, LeadID: leadID, Detail: err.Error()}
}

// sendFailure maps a sink result to an outcome. Failed sends never
// consume throttle budget and never advance the lead's status.
func (d *Dispatcher) sendFailure(ctx context.Context, leadID string, res sink.Result) Outcome {
	d.log.WarnContext(ctx, "Outbound action failed",
		"lead_id", leadID, "status", res.Status, "retry_after", res.RetryAfter, "detail", res.Detail)

	out := Outcome{LeadID: leadID, Detail: res.Detail}
	switch res.Status {
	case sink.StatusFloodWait:
		out.Code = OutcomeFloodWait
		out.Wait = time.Duration(res.RetryAfter) * time.Second
	case sink.StatusPrivacyRestricted:
		out.Code = OutcomePrivacyRestricted
	case sink.StatusNotMutualContact:
		out.Code = OutcomeNotMutualContact
	case sink.StatusWriteForbidden:
		out.Code = OutcomeWriteForbidden
	case sink.StatusAlreadyMember:
		out.Code = OutcomeAlreadyMember
	default:
		out.Code = OutcomeTransportError
	}
	return out
}
