// Package classifier implements the deterministic rule engine that
// scores inbound chat messages into lead categories. Classification is
// a pure function of the normalized text and the static rule table:
// no I/O, no state, same input always yields the same result.
package classifier

import (
	"regexp"
	"strings"
	"unicode"
)

// Classifier evaluates the rule table with a configurable tie-break
// priority ordering.
type Classifier struct {
	priority []Category
}

// New returns a classifier with the given tie-break ordering. Unknown
// or empty orderings fall back to DefaultPriority; categories missing
// from a partial ordering rank after the listed ones.
func New(priority []Category) *Classifier {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	return &Classifier{priority: priority}
}

// Normalize lowercases text, replaces punctuation with single spaces
// and collapses runs of whitespace. All rule patterns operate on this
// form.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Classify scores the given raw text and returns the winning category
// with its clamped score and contributing reason tags.
func (c *Classifier) Classify(text string) Result {
	norm := Normalize(text)
	if norm == "" {
		return Result{Category: CategoryOther, Score: 0, Provenance: ProvenanceRules}
	}

	// Hard blocks short-circuit: spam can never leak into a lead
	// category no matter how many lead patterns also match.
	for _, hb := range hardBlocks {
		for _, p := range hb.patterns {
			if p.MatchString(norm) {
				return Result{
					Category:   hb.category,
					Score:      hardBlockScore,
					Reasons:    []string{hb.tag},
					Provenance: ProvenanceRules,
				}
			}
		}
	}

	scores := make(map[Category]int)
	reasons := make(map[Category][]string)

	for _, rule := range rules {
		matches := countMatches(rule.patterns, norm)
		if matches == 0 {
			continue
		}
		extra := matches - 1
		if extra > extraMatchCap {
			extra = extraMatchCap
		}
		scores[rule.category] += rule.base + stepBonus*extra
		reasons[rule.category] = append(reasons[rule.category], rule.tag)
	}

	// A question about a relevant topic needs both a question marker
	// and a topic mention; either alone is noise.
	qm := countMatches(questionMarkers, norm)
	tm := countMatches(questionTopics, norm)
	if qm > 0 && tm > 0 {
		extra := tm - 1
		if extra > extraMatchCap {
			extra = extraMatchCap
		}
		scores[CategoryLeadQuestion] += leadQuestionBase + stepBonus*extra
		reasons[CategoryLeadQuestion] = append(reasons[CategoryLeadQuestion], "lead_question")
	}

	var negTags []string
	penalty := 0
	for _, neg := range negatives {
		if countMatches(neg.patterns, norm) > 0 {
			penalty += neg.penalty
			negTags = append(negTags, "-"+neg.tag)
		}
	}
	for cat := range scores {
		scores[cat] -= penalty
	}

	winner := c.pick(scores)
	if winner == CategoryOther {
		return Result{Category: CategoryOther, Score: 0, Reasons: truncateReasons(negTags), Provenance: ProvenanceRules}
	}

	tags := append(reasons[winner], negTags...)
	return Result{
		Category:   winner,
		Score:      clampScore(scores[winner]),
		Reasons:    truncateReasons(tags),
		Provenance: ProvenanceRules,
	}
}

// pick selects the highest-scoring category, breaking exact ties by the
// configured priority ordering. Non-positive scores never win.
func (c *Classifier) pick(scores map[Category]int) Category {
	best := CategoryOther
	bestScore := 0
	for _, cat := range c.orderedCategories() {
		s, ok := scores[cat]
		if !ok || s <= 0 {
			continue
		}
		if s > bestScore {
			best = cat
			bestScore = s
		}
	}
	return best
}

// orderedCategories returns the configured priority followed by any
// scoreable categories the configuration omitted.
func (c *Classifier) orderedCategories() []Category {
	seen := make(map[Category]bool, len(c.priority))
	out := make([]Category, 0, len(DefaultPriority))
	for _, cat := range c.priority {
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	for _, cat := range DefaultPriority {
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

func countMatches(patterns []*regexp.Regexp, norm string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(norm) {
			n++
		}
	}
	return n
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func truncateReasons(tags []string) []string {
	if len(tags) > maxReasons {
		return tags[:maxReasons]
	}
	return tags
}
