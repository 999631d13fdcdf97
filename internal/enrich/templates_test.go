package enrich_test

import (
	"testing"

	"github.com/ostapv/leadwatch/internal/enrich"
)

func TestDetectLang(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "russian", text: "ищу адвоката, подскажите пожалуйста", want: "ru"},
		{name: "ukrainian", text: "шукаю адвоката, підкажіть будь ласка", want: "uk"},
		{name: "german", text: "ich suche einen Anwalt in Berlin", want: "de"},
		{name: "empty", text: "", want: "de"},
		{name: "mixed prefers ukrainian letters", text: "привіт, ищу юриста", want: "uk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := enrich.DetectLang(tt.text); got != tt.want {
				t.Errorf("DetectLang(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestReplyTemplatesNeverEmpty(t *testing.T) {
	t.Parallel()

	for _, lang := range []string{"ru", "uk", "de", "fr", ""} {
		if enrich.FallbackReply(lang) == "" {
			t.Errorf("FallbackReply(%q) is empty", lang)
		}
		if enrich.PitchReply(lang) == "" {
			t.Errorf("PitchReply(%q) is empty", lang)
		}
	}
}
