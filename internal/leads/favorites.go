package leads

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ostapv/leadwatch/internal/statefile"
)

// Favorites is the persisted set of favorited leads, keyed by lead id.
// It is a derived view: never consulted for lifecycle decisions.
type Favorites struct {
	mu      sync.Mutex
	log     *slog.Logger
	path    string
	entries map[string]time.Time
	now     func() time.Time
}

// NewFavorites loads the favorites set from path.
func NewFavorites(path string, logger *slog.Logger) *Favorites {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "favorites")

	entries := statefile.Load[map[string]time.Time](path, log)
	if entries == nil {
		entries = make(map[string]time.Time)
	}

	return &Favorites{
		log:     log,
		path:    path,
		entries: entries,
		now:     time.Now,
	}
}

// Add records the lead as favorited. Adding twice keeps the original
// timestamp.
func (f *Favorites) Add(leadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[leadID]; ok {
		return nil
	}
	f.entries[leadID] = f.now().UTC()
	if err := statefile.Save(f.path, f.entries); err != nil {
		delete(f.entries, leadID)
		return err
	}
	return nil
}

// Contains reports whether the lead is favorited.
func (f *Favorites) Contains(leadID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[leadID]
	return ok
}

// Len reports the number of favorited leads.
func (f *Favorites) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
