// Package telegram adapts the go-telegram/bot library to the message
// source and action sink interfaces, one bot instance per configured
// account.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/ostapv/leadwatch/internal/config"
	"github.com/ostapv/leadwatch/internal/sink"
	"github.com/ostapv/leadwatch/internal/source"
)

const eventBuffer = 256

type account struct {
	name   string
	bot    *tgbot.Bot
	events chan source.Message
}

// Adapter runs one Telegram bot per account and exposes their update
// streams as per-account event channels. It also implements the action
// sink for outbound DMs and invites.
type Adapter struct {
	log      *slog.Logger
	accounts map[string]*account
}

// New creates bot instances for all configured accounts. It fails fast
// if any token is rejected by the library.
func New(accounts []config.AccountConfig, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		log:      logger.With("component", "telegram"),
		accounts: make(map[string]*account, len(accounts)),
	}

	for _, ac := range accounts {
		if ac.Token == "" {
			return nil, fmt.Errorf("account %q has an empty token", ac.Name)
		}
		acc := &account{
			name:   ac.Name,
			events: make(chan source.Message, eventBuffer),
		}

		b, err := tgbot.New(ac.Token, tgbot.WithDefaultHandler(a.updateHandler(acc)))
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot for account %q: %w", ac.Name, err)
		}
		acc.bot = b
		a.accounts[ac.Name] = acc
		a.log.Info("Telegram bot instance created", "account_id", ac.Name)
	}

	return a, nil
}

// Run starts long polling for all accounts and blocks until the
// context is cancelled. Event channels are closed on return so
// consumers can drain and exit.
func (a *Adapter) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, acc := range a.accounts {
		acc := acc
		g.Go(func() error {
			a.log.InfoContext(gCtx, "Starting Telegram polling", "account_id", acc.name)
			acc.bot.Start(gCtx)
			a.log.InfoContext(gCtx, "Telegram polling stopped", "account_id", acc.name)
			return nil
		})
	}
	err := g.Wait()
	for _, acc := range a.accounts {
		close(acc.events)
	}
	return err
}

// Events returns the message stream for one account. Returns nil for
// unknown account IDs.
func (a *Adapter) Events(accountID string) <-chan source.Message {
	acc, ok := a.accounts[accountID]
	if !ok {
		return nil
	}
	return acc.events
}

// updateHandler converts raw updates into source messages. Events are
// dropped with a warning if the consumer falls behind the buffer;
// losing one group message is preferable to stalling the poller.
func (a *Adapter) updateHandler(acc *account) tgbot.HandlerFunc {
	return func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
		m := update.Message
		if m == nil || m.Text == "" {
			return
		}

		msg := source.Message{
			AccountID:  acc.name,
			ChatID:     m.Chat.ID,
			ChatTitle:  m.Chat.Title,
			ChatHandle: m.Chat.Username,
			MessageID:  int64(m.ID),
			Text:       m.Text,
			Timestamp:  time.Unix(int64(m.Date), 0).UTC(),
		}
		if m.From != nil {
			msg.SenderID = m.From.ID
			msg.SenderHandle = m.From.Username
			msg.SenderName = strings.TrimSpace(m.From.FirstName + " " + m.From.LastName)
		}

		select {
		case acc.events <- msg:
		default:
			a.log.WarnContext(ctx, "Event buffer full, dropping message",
				"account_id", acc.name, "chat_id", msg.ChatID, "message_id", msg.MessageID)
		}
	}
}

// ResolveChat looks up a chat by public handle.
func (a *Adapter) ResolveChat(ctx context.Context, accountID, handle string) (source.ChatRef, error) {
	acc, ok := a.accounts[accountID]
	if !ok {
		return source.ChatRef{}, fmt.Errorf("unknown account %q", accountID)
	}

	handle = strings.TrimPrefix(handle, "@")
	chat, err := acc.bot.GetChat(ctx, &tgbot.GetChatParams{ChatID: "@" + handle})
	if err != nil {
		return source.ChatRef{}, fmt.Errorf("failed to resolve chat @%s: %w", handle, err)
	}
	return source.ChatRef{ID: chat.ID, Handle: handle, Title: chat.Title}, nil
}

// SendMessage delivers a DM through the account's bot.
func (a *Adapter) SendMessage(ctx context.Context, accountID string, to sink.Target, text string) sink.Result {
	acc, ok := a.accounts[accountID]
	if !ok {
		return sink.Result{Status: sink.StatusTransportError, Detail: "unknown account " + accountID}
	}

	_, err := acc.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: to.UserID,
		Text:   text,
	})
	return mapSendError(err)
}

// InviteToGroup checks the target's membership and, when absent, DMs a
// fresh single-use invite link for the group. The bot API cannot add
// members directly, so the link is the invite.
func (a *Adapter) InviteToGroup(ctx context.Context, accountID string, to sink.Target, group sink.GroupRef) sink.Result {
	acc, ok := a.accounts[accountID]
	if !ok {
		return sink.Result{Status: sink.StatusTransportError, Detail: "unknown account " + accountID}
	}

	member, err := acc.bot.GetChatMember(ctx, &tgbot.GetChatMemberParams{
		ChatID: group.ChatID,
		UserID: to.UserID,
	})
	if err == nil && member != nil && isMember(member) {
		return sink.Result{Status: sink.StatusAlreadyMember}
	}

	link, err := acc.bot.CreateChatInviteLink(ctx, &tgbot.CreateChatInviteLinkParams{
		ChatID:      group.ChatID,
		MemberLimit: 1,
	})
	if err != nil {
		return mapSendError(err)
	}

	_, err = acc.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: to.UserID,
		Text:   link.InviteLink,
	})
	return mapSendError(err)
}

// SendToChat posts to an arbitrary chat (operator notifications and
// command replies).
func (a *Adapter) SendToChat(ctx context.Context, accountID string, chatID int64, text string) error {
	acc, ok := a.accounts[accountID]
	if !ok {
		return fmt.Errorf("unknown account %q", accountID)
	}
	_, err := acc.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send to chat %d: %w", chatID, err)
	}
	return nil
}

func isMember(m *models.ChatMember) bool {
	switch {
	case m.Owner != nil, m.Administrator != nil, m.Member != nil:
		return true
	case m.Restricted != nil:
		return m.Restricted.IsMember
	default:
		return false
	}
}

// mapSendError folds library errors into the closed sink result set so
// the dispatcher can surface them to the operator verbatim.
func mapSendError(err error) sink.Result {
	if err == nil {
		return sink.Result{Status: sink.StatusOK}
	}

	var tooMany *tgbot.TooManyRequestsError
	if errors.As(err, &tooMany) {
		return sink.Result{Status: sink.StatusFloodWait, RetryAfter: tooMany.RetryAfter, Detail: err.Error()}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "user_already_participant"):
		return sink.Result{Status: sink.StatusAlreadyMember, Detail: err.Error()}
	case strings.Contains(lower, "not a mutual contact"):
		return sink.Result{Status: sink.StatusNotMutualContact, Detail: err.Error()}
	case strings.Contains(lower, "privacy"), strings.Contains(lower, "can't initiate conversation"):
		return sink.Result{Status: sink.StatusPrivacyRestricted, Detail: err.Error()}
	}

	if errors.Is(err, tgbot.ErrorForbidden) {
		return sink.Result{Status: sink.StatusWriteForbidden, Detail: err.Error()}
	}
	return sink.Result{Status: sink.StatusTransportError, Detail: err.Error()}
}
