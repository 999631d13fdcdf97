package throttle

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func newTestThrottle(t *testing.T, limits Limits) *Throttle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counters.json")
	return New(path, limits, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIntervalDenialCarriesRemainingWait(t *testing.T) {
	t.Parallel()

	th := newTestThrottle(t, Limits{MinDMInterval: 180 * time.Second})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return base }

	if d := th.CanSendDM("acc1"); d != nil {
		t.Fatalf("first DM denied: %v", d)
	}
	th.MarkDMSent("acc1")

	// 10 seconds later with a 180s minimum interval.
	th.now = func() time.Time { return base.Add(10 * time.Second) }
	d := th.CanSendDM("acc1")
	if d == nil {
		t.Fatal("second DM allowed inside the minimum interval")
	}
	if d.Limit != LimitInterval {
		t.Errorf("Limit = %q, want %q", d.Limit, LimitInterval)
	}
	if d.Wait != 170*time.Second {
		t.Errorf("Wait = %s, want 170s", d.Wait)
	}

	th.now = func() time.Time { return base.Add(181 * time.Second) }
	if d := th.CanSendDM("acc1"); d != nil {
		t.Errorf("DM denied after the interval elapsed: %v", d)
	}
}

func TestHourCapIndependentOfDayCap(t *testing.T) {
	t.Parallel()

	th := newTestThrottle(t, Limits{HourlyDMCap: 3, DailyDMCap: 100})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	th.now = func() time.Time { return clock }

	for i := range 3 {
		if d := th.CanSendDM("acc1"); d != nil {
			t.Fatalf("DM %d denied: %v", i+1, d)
		}
		th.MarkDMSent("acc1")
		clock = clock.Add(time.Minute)
	}

	d := th.CanSendDM("acc1")
	if d == nil || d.Limit != LimitHour {
		t.Fatalf("denial = %v, want hour limit", d)
	}

	// The cap clears as the clock rolls into a new hour bucket.
	clock = time.Date(2025, 6, 1, 13, 0, 1, 0, time.UTC)
	if d := th.CanSendDM("acc1"); d != nil {
		t.Errorf("DM denied after hour rollover: %v", d)
	}
}

func TestDayCap(t *testing.T) {
	t.Parallel()

	th := newTestThrottle(t, Limits{DailyDMCap: 2})

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := base
	th.now = func() time.Time { return clock }

	th.MarkDMSent("acc1")
	clock = clock.Add(2 * time.Hour) // crosses hour buckets, same day
	th.MarkDMSent("acc1")
	clock = clock.Add(2 * time.Hour)

	d := th.CanSendDM("acc1")
	if d == nil || d.Limit != LimitDay {
		t.Fatalf("denial = %v, want day limit", d)
	}

	clock = time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC)
	if d := th.CanSendDM("acc1"); d != nil {
		t.Errorf("DM denied after day rollover: %v", d)
	}
}

func TestAccountsAreIndependent(t *testing.T) {
	t.Parallel()

	th := newTestThrottle(t, Limits{HourlyDMCap: 1})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return base }

	th.MarkDMSent("acc1")
	if d := th.CanSendDM("acc1"); d == nil {
		t.Error("acc1 should be at its hour cap")
	}
	if d := th.CanSendDM("acc2"); d != nil {
		t.Errorf("acc2 denied by acc1 counters: %v", d)
	}
}

func TestInviteCapIndependentOfDMCaps(t *testing.T) {
	t.Parallel()

	th := newTestThrottle(t, Limits{DailyDMCap: 1, DailyInviteCap: 2})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return base }

	th.MarkDMSent("acc1")
	if d := th.CanSendDM("acc1"); d == nil {
		t.Fatal("DM cap should be reached")
	}

	// Invites use their own ceiling.
	if d := th.CanInvite("acc1"); d != nil {
		t.Fatalf("first invite denied: %v", d)
	}
	th.MarkInvite("acc1")
	th.MarkInvite("acc1")

	d := th.CanInvite("acc1")
	if d == nil || d.Limit != LimitInviteDay {
		t.Fatalf("denial = %v, want invite_day limit", d)
	}
}

func TestCountersPersistAcrossRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counters.json")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	th1 := New(path, Limits{DailyDMCap: 1}, log)
	th1.now = func() time.Time { return base }
	th1.MarkDMSent("acc1")

	th2 := New(path, Limits{DailyDMCap: 1}, log)
	th2.now = func() time.Time { return base.Add(time.Minute) }
	d := th2.CanSendDM("acc1")
	if d == nil || d.Limit != LimitDay {
		t.Fatalf("denial after reload = %v, want day limit", d)
	}
}

func TestPruneStaleDropsIdleAccounts(t *testing.T) {
	t.Parallel()

	th := newTestThrottle(t, Limits{DailyDMCap: 10})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return base }
	th.MarkDMSent("old")

	th.now = func() time.Time { return base.AddDate(0, 2, 0) }
	th.MarkDMSent("fresh")

	dropped := th.PruneStale()
	if dropped != 1 {
		t.Errorf("PruneStale() = %d, want 1", dropped)
	}
	if _, ok := th.accounts["fresh"]; !ok {
		t.Error("fresh account was pruned")
	}
}
