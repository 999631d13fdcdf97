package analytics_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ostapv/leadwatch/internal/analytics"
	"github.com/ostapv/leadwatch/internal/classifier"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordAccumulates(t *testing.T) {
	t.Parallel()

	agg := analytics.New(filepath.Join(t.TempDir(), "analytics.json"), discard())

	agg.Record("berlin_ukrainians", classifier.CategoryLeadSearch, "ищу адвоката")
	agg.Record("berlin_ukrainians", classifier.CategoryLeadSearch, "нужен юрист")
	agg.Record("berlin_ukrainians", classifier.CategoryLeadQuestion, "подскажите про штраф")
	agg.Record("cologne_help", classifier.CategorySpam, "casino")

	snap := agg.Snapshot()
	berlin := snap["berlin_ukrainians"]
	if berlin.Total != 3 {
		t.Errorf("Total = %d, want 3", berlin.Total)
	}
	if berlin.ByCategory["LEAD_SEARCH"] != 2 {
		t.Errorf("LEAD_SEARCH count = %d, want 2", berlin.ByCategory["LEAD_SEARCH"])
	}
	if berlin.LastPreview != "подскажите про штраф" {
		t.Errorf("LastPreview = %q", berlin.LastPreview)
	}
	if berlin.LastSeen.IsZero() {
		t.Error("LastSeen not stamped")
	}
	if snap["cologne_help"].Total != 1 {
		t.Errorf("cologne total = %d, want 1", snap["cologne_help"].Total)
	}
}

func TestPreviewTruncated(t *testing.T) {
	t.Parallel()

	agg := analytics.New(filepath.Join(t.TempDir(), "analytics.json"), discard())
	agg.Record("g", classifier.CategoryOther, strings.Repeat("ы", 500))

	got := agg.Snapshot()["g"].LastPreview
	if utf8.RuneCountInString(got) > 80 {
		t.Errorf("preview length = %d runes, want <= 80", utf8.RuneCountInString(got))
	}
}

func TestTitlesOrderedByTotal(t *testing.T) {
	t.Parallel()

	agg := analytics.New(filepath.Join(t.TempDir(), "analytics.json"), discard())
	agg.Record("small", classifier.CategoryOther, "x")
	agg.Record("big", classifier.CategoryOther, "x")
	agg.Record("big", classifier.CategoryOther, "x")

	titles := agg.Titles()
	if len(titles) != 2 || titles[0] != "big" {
		t.Errorf("Titles() = %v, want [big small]", titles)
	}
}

func TestAnalyticsPersistAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "analytics.json")
	agg := analytics.New(path, discard())
	agg.Record("g", classifier.CategoryLeadSearch, "text")

	reloaded := analytics.New(path, discard())
	if reloaded.Snapshot()["g"].Total != 1 {
		t.Error("analytics not persisted across reload")
	}
}
