package telegram

import (
	"errors"
	"fmt"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ostapv/leadwatch/internal/sink"
)

func TestMapSendError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus sink.Status
		wantRetry  int
	}{
		{name: "nil is ok", err: nil, wantStatus: sink.StatusOK},
		{
			name:       "flood wait carries retry seconds",
			err:        &tgbot.TooManyRequestsError{Message: "Too Many Requests: retry after 30", RetryAfter: 30},
			wantStatus: sink.StatusFloodWait,
			wantRetry:  30,
		},
		{
			name:       "forbidden",
			err:        fmt.Errorf("send: %w", tgbot.ErrorForbidden),
			wantStatus: sink.StatusWriteForbidden,
		},
		{
			name:       "already participant",
			err:        errors.New("bad request: USER_ALREADY_PARTICIPANT"),
			wantStatus: sink.StatusAlreadyMember,
		},
		{
			name:       "not mutual contact",
			err:        errors.New("bad request: user is not a mutual contact"),
			wantStatus: sink.StatusNotMutualContact,
		},
		{
			name:       "privacy restricted",
			err:        errors.New("forbidden: bot can't initiate conversation with a user"),
			wantStatus: sink.StatusPrivacyRestricted,
		},
		{
			name:       "anything else is transport",
			err:        errors.New("connection reset"),
			wantStatus: sink.StatusTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := mapSendError(tt.err)
			if got.Status != tt.wantStatus {
				t.Errorf("mapSendError() status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.RetryAfter != tt.wantRetry {
				t.Errorf("mapSendError() retry = %d, want %d", got.RetryAfter, tt.wantRetry)
			}
		})
	}
}

func TestIsMember(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		member models.ChatMember
		want   bool
	}{
		{name: "member", member: models.ChatMember{Member: &models.ChatMemberMember{}}, want: true},
		{name: "owner", member: models.ChatMember{Owner: &models.ChatMemberOwner{}}, want: true},
		{name: "restricted but in group", member: models.ChatMember{Restricted: &models.ChatMemberRestricted{IsMember: true}}, want: true},
		{name: "restricted and out", member: models.ChatMember{Restricted: &models.ChatMemberRestricted{}}, want: false},
		{name: "left", member: models.ChatMember{Left: &models.ChatMemberLeft{}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isMember(&tt.member); got != tt.want {
				t.Errorf("isMember() = %v, want %v", got, tt.want)
			}
		})
	}
}
