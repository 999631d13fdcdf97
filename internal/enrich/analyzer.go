package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/ostapv/leadwatch/internal/classifier"
)

// Analyzer layers an optional enrichment provider over the rule-based
// classifier. The rule result is always computed first and remains the
// answer whenever the provider is absent, skipped, or fails: enrichment
// can only improve a classification, never lose a message.
type Analyzer struct {
	log        *slog.Logger
	cls        *classifier.Classifier
	provider   Provider
	timeout    time.Duration
	gate       int
	actionable map[classifier.Category]bool
}

const defaultEnrichTimeout = 20 * time.Second

// NewAnalyzer wires the classifier and provider together. Provider may
// be nil for rule-only operation. Gate is the minimum rule score that
// makes a provider call worthwhile; actionable lists the categories
// whose provider verdicts are trusted enough to replace the rule
// result.
func NewAnalyzer(cls *classifier.Classifier, provider Provider, gate int, timeout time.Duration, actionable []classifier.Category, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultEnrichTimeout
	}
	actionSet := make(map[classifier.Category]bool, len(actionable))
	for _, c := range actionable {
		actionSet[c] = true
	}
	return &Analyzer{
		log:        logger.With("component", "analyzer"),
		cls:        cls,
		provider:   provider,
		timeout:    timeout,
		gate:       gate,
		actionable: actionSet,
	}
}

// Analyze classifies text with the rule engine and, when the rule
// score clears the gate, refines the verdict through the provider.
func (a *Analyzer) Analyze(ctx context.Context, text string) classifier.Result {
	pre := a.cls.Classify(text)

	if a.provider == nil {
		return pre
	}
	if pre.Score < a.gate {
		return pre
	}
	// Hard blocks are final; no provider can rehabilitate spam.
	if pre.Category == classifier.CategorySpam || pre.Category == classifier.CategoryOfftop {
		return pre
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	analysis, err := a.provider.Enrich(callCtx, text, pre)
	if err != nil {
		a.log.WarnContext(ctx, "Enrichment failed, using rule result",
			"provider", a.provider.Name(),
			"error", err,
			"rule_category", pre.Category)
		return pre
	}

	return a.merge(ctx, text, pre, analysis)
}

// merge folds a provider verdict into the rule result. Category, score
// and reasons are replaced only when the provider names a known,
// actionable category; a draft is attached whenever the provider asked
// for a reply, with a template standing in for an empty draft.
func (a *Analyzer) merge(ctx context.Context, text string, pre classifier.Result, analysis *Analysis) classifier.Result {
	out := pre

	category, ok := classifier.ParseCategory(analysis.Category)
	if !ok {
		a.log.WarnContext(ctx, "Provider returned unknown category, keeping rule result",
			"provider", a.provider.Name(),
			"category", analysis.Category)
		return pre
	}

	if a.actionable[category] {
		out.Category = category
		out.Score = clampScore(analysis.Score)
		if len(analysis.Reasons) > 0 {
			out.Reasons = analysis.Reasons
		}
		out.Provenance = classifier.ProvenanceEnriched
	}

	if analysis.ShouldReply {
		draft := analysis.DraftReply
		if draft == "" {
			draft = FallbackReply(DetectLang(text))
		}
		out.Draft = draft
	}

	return out
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
