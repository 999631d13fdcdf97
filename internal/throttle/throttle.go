// Package throttle enforces per-account outbound ceilings: a minimum
// wall-clock interval between DMs, a rolling-hour DM cap, a rolling-day
// DM cap, and an independent daily invite cap. Buckets are keyed by
// local date/hour strings, so a bucket resets implicitly the moment the
// clock rolls into a new date or hour.
package throttle

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ostapv/leadwatch/internal/statefile"
)

// Limit names reported in denials.
const (
	LimitInterval  = "interval"
	LimitHour      = "hour"
	LimitDay       = "day"
	LimitInviteDay = "invite_day"
)

const (
	dayKeyLayout  = "2006-01-02"
	hourKeyLayout = "2006-01-02T15"
)

// Limits configures the per-account ceilings. Zero caps disable the
// corresponding check.
type Limits struct {
	MinDMInterval  time.Duration
	HourlyDMCap    int
	DailyDMCap     int
	DailyInviteCap int
}

// Denial names the ceiling that blocked an action and how long the
// caller should wait before the ceiling clears.
type Denial struct {
	Limit string
	Wait  time.Duration
}

func (d *Denial) String() string {
	return fmt.Sprintf("%s (retry in %s)", d.Limit, d.Wait.Round(time.Second))
}

// Counters is the persisted per-account state. Counts for a bucket key
// never decrease within its validity window; rollover happens by key
// comparison, not by a cleanup job.
type Counters struct {
	DayKey         string `json:"day_key"`
	DayCount       int    `json:"day_count"`
	HourKey        string `json:"hour_key"`
	HourCount      int    `json:"hour_count"`
	InviteDayKey   string `json:"invite_day_key"`
	InviteDayCount int    `json:"invite_day_count"`
	LastDMUnix     int64  `json:"last_dm_unix"`
}

// Throttle is the shared outbound limiter. Checks and marks for one
// account are atomic with respect to concurrent callers.
type Throttle struct {
	mu       sync.Mutex
	log      *slog.Logger
	path     string
	limits   Limits
	accounts map[string]*Counters
	now      func() time.Time
}

// New loads persisted counters from path and returns a ready throttle.
func New(path string, limits Limits, logger *slog.Logger) *Throttle {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "throttle")

	accounts := statefile.Load[map[string]*Counters](path, log)
	if accounts == nil {
		accounts = make(map[string]*Counters)
	}
	log.Info("Throttle counters loaded", "accounts", len(accounts), "path", path)

	return &Throttle{
		log:      log,
		path:     path,
		limits:   limits,
		accounts: accounts,
		now:      time.Now,
	}
}

// CanSendDM reports whether a DM may be sent for the account right now.
// A nil return means allowed; otherwise the denial names the specific
// ceiling. Checks run in order: interval, hour cap, day cap.
func (t *Throttle) CanSendDM(accountID string) *Denial {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	c := t.counters(accountID)

	if t.limits.MinDMInterval > 0 && c.LastDMUnix > 0 {
		since := now.Sub(time.Unix(c.LastDMUnix, 0))
		if since < t.limits.MinDMInterval {
			return &Denial{Limit: LimitInterval, Wait: t.limits.MinDMInterval - since}
		}
	}

	if t.limits.HourlyDMCap > 0 && c.HourKey == now.Format(hourKeyLayout) && c.HourCount >= t.limits.HourlyDMCap {
		return &Denial{Limit: LimitHour, Wait: untilNextHour(now)}
	}

	if t.limits.DailyDMCap > 0 && c.DayKey == now.Format(dayKeyLayout) && c.DayCount >= t.limits.DailyDMCap {
		return &Denial{Limit: LimitDay, Wait: untilNextDay(now)}
	}

	return nil
}

// MarkDMSent records a successful DM send for the account.
func (t *Throttle) MarkDMSent(accountID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	c := t.counters(accountID)

	rollBucket(&c.DayKey, &c.DayCount, now.Format(dayKeyLayout))
	rollBucket(&c.HourKey, &c.HourCount, now.Format(hourKeyLayout))
	c.DayCount++
	c.HourCount++
	c.LastDMUnix = now.Unix()

	t.persistLocked()
}

// CanInvite reports whether a group invite may be sent for the account.
func (t *Throttle) CanInvite(accountID string) *Denial {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	c := t.counters(accountID)

	if t.limits.DailyInviteCap > 0 && c.InviteDayKey == now.Format(dayKeyLayout) && c.InviteDayCount >= t.limits.DailyInviteCap {
		return &Denial{Limit: LimitInviteDay, Wait: untilNextDay(now)}
	}
	return nil
}

// MarkInvite records a successful invite for the account.
func (t *Throttle) MarkInvite(accountID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	c := t.counters(accountID)

	rollBucket(&c.InviteDayKey, &c.InviteDayCount, now.Format(dayKeyLayout))
	c.InviteDayCount++

	t.persistLocked()
}

// PruneStale zeroes buckets whose keys have rolled over and drops
// accounts idle for more than 30 days, bounding the persisted state.
// It returns the number of dropped accounts.
func (t *Throttle) PruneStale() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	dayKey := now.Format(dayKeyLayout)
	hourKey := now.Format(hourKeyLayout)

	dropped := 0
	for id, c := range t.accounts {
		if c.DayKey != dayKey {
			c.DayKey, c.DayCount = "", 0
		}
		if c.HourKey != hourKey {
			c.HourKey, c.HourCount = "", 0
		}
		if c.InviteDayKey != dayKey {
			c.InviteDayKey, c.InviteDayCount = "", 0
		}
		idle := c.LastDMUnix == 0 || now.Sub(time.Unix(c.LastDMUnix, 0)) > 30*24*time.Hour
		if idle && c.DayCount == 0 && c.HourCount == 0 && c.InviteDayCount == 0 {
			delete(t.accounts, id)
			dropped++
		}
	}
	t.persistLocked()
	t.log.Debug("Throttle counters pruned", "dropped_accounts", dropped, "remaining", len(t.accounts))
	return dropped
}

// counters returns the account entry, creating it if needed. Called
// with the lock held.
func (t *Throttle) counters(accountID string) *Counters {
	c, ok := t.accounts[accountID]
	if !ok {
		c = &Counters{}
		t.accounts[accountID] = c
	}
	return c
}

// rollBucket resets the count when the bucket key has changed.
func rollBucket(key *string, count *int, current string) {
	if *key != current {
		*key = current
		*count = 0
	}
}

func untilNextHour(now time.Time) time.Duration {
	next := now.Truncate(time.Hour).Add(time.Hour)
	return next.Sub(now)
}

func untilNextDay(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}

func (t *Throttle) persistLocked() {
	if err := statefile.Save(t.path, t.accounts); err != nil {
		t.log.Error("Failed to persist throttle counters", "path", t.path, "error", err)
	}
}
