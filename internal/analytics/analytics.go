// Package analytics rolls up per-group category counts. It is a purely
// additive derived view: recorded for every admitted message, spam and
// noise included, consulted only by the stats report, never by
// processing decisions.
package analytics

import (
	"log/slog"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ostapv/leadwatch/internal/classifier"
	"github.com/ostapv/leadwatch/internal/statefile"
)

const previewLimit = 80

// GroupStats accumulates counters for one monitored group.
type GroupStats struct {
	Total       int            `json:"total"`
	ByCategory  map[string]int `json:"by_category"`
	LastSeen    time.Time      `json:"last_seen"`
	LastPreview string         `json:"last_preview,omitempty"`
}

// Aggregator is the shared, persisted analytics store.
type Aggregator struct {
	mu     sync.Mutex
	log    *slog.Logger
	path   string
	groups map[string]*GroupStats
	now    func() time.Time
}

// New loads persisted analytics from path.
func New(path string, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "analytics")

	groups := statefile.Load[map[string]*GroupStats](path, log)
	if groups == nil {
		groups = make(map[string]*GroupStats)
	}

	return &Aggregator{
		log:    log,
		path:   path,
		groups: groups,
		now:    time.Now,
	}
}

// Record increments the total and per-category counters for the group
// and refreshes the last-seen timestamp and message preview.
func (a *Aggregator) Record(groupTitle string, category classifier.Category, preview string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.groups[groupTitle]
	if !ok {
		g = &GroupStats{ByCategory: make(map[string]int)}
		a.groups[groupTitle] = g
	}
	if g.ByCategory == nil {
		g.ByCategory = make(map[string]int)
	}

	g.Total++
	g.ByCategory[string(category)]++
	g.LastSeen = a.now().UTC()
	g.LastPreview = truncatePreview(preview)

	if err := statefile.Save(a.path, a.groups); err != nil {
		a.log.Error("Failed to persist analytics", "path", a.path, "error", err)
	}
}

// Snapshot returns a copy of all group stats for reporting.
func (a *Aggregator) Snapshot() map[string]GroupStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]GroupStats, len(a.groups))
	for title, g := range a.groups {
		cp := *g
		cp.ByCategory = make(map[string]int, len(g.ByCategory))
		for k, v := range g.ByCategory {
			cp.ByCategory[k] = v
		}
		out[title] = cp
	}
	return out
}

// Titles returns the group titles sorted by total descending.
func (a *Aggregator) Titles() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	titles := make([]string, 0, len(a.groups))
	for t := range a.groups {
		titles = append(titles, t)
	}
	sort.Slice(titles, func(i, j int) bool {
		if a.groups[titles[i]].Total != a.groups[titles[j]].Total {
			return a.groups[titles[i]].Total > a.groups[titles[j]].Total
		}
		return titles[i] < titles[j]
	})
	return titles
}

// truncatePreview bounds the stored preview to previewLimit runes.
func truncatePreview(s string) string {
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewLimit-1]) + "…"
}
