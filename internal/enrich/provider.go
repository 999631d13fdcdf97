// Package enrich layers an optional external text-analysis provider on
// top of the deterministic rule classifier. The provider may time out,
// fail, or be absent entirely; in every such case the rule-based result
// is used unchanged and nothing is surfaced as an error.
package enrich

import (
	"context"

	"github.com/ostapv/leadwatch/internal/classifier"
)

// Analysis is the structured result requested from a provider.
type Analysis struct {
	Category    string   `json:"category"`
	Score       int      `json:"score"`
	Reasons     []string `json:"reasons"`
	ShouldReply bool     `json:"should_reply"`
	DraftReply  string   `json:"draft_reply"`
}

// Provider is an interchangeable external enrichment capability. The
// rule-based pre-analysis is passed as context so the provider refines
// rather than starts from scratch.
type Provider interface {
	Name() string
	Enrich(ctx context.Context, text string, pre classifier.Result) (*Analysis, error)
}
