// Package dedup implements the seen/dedup gate: a bounded, persisted
// idempotency cache that admits each key only once per retention
// window. Two keyspaces are used per message: the exact chat:message
// key stops reprocessing of the same wire event (e.g. after a
// reconnect), and a content fingerprint stops cross-posts of the same
// text by the same sender across many monitored chats from producing
// multiple leads.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ostapv/leadwatch/internal/statefile"
)

const (
	messagePrefix     = "msg:"
	fingerprintPrefix = "fp:"
)

// Options configures gate capacity and retention horizons.
type Options struct {
	MaxEntries     int
	MessageTTL     time.Duration
	FingerprintTTL time.Duration
}

// Gate is the concurrent check-and-insert cache. All methods are safe
// for use from multiple account streams.
type Gate struct {
	mu      sync.Mutex
	log     *slog.Logger
	path    string
	opts    Options
	entries map[string]time.Time
	now     func() time.Time
}

// New loads the persisted seen set from path (an empty or corrupt file
// yields an empty set) and returns a ready gate.
func New(path string, opts Options, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "dedup_gate")

	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 50000
	}
	if opts.MessageTTL <= 0 {
		opts.MessageTTL = 72 * time.Hour
	}
	if opts.FingerprintTTL <= 0 {
		opts.FingerprintTTL = 12 * time.Hour
	}

	entries := statefile.Load[map[string]time.Time](path, log)
	if entries == nil {
		entries = make(map[string]time.Time)
	}
	log.Info("Seen set loaded", "entries", len(entries), "path", path)

	return &Gate{
		log:     log,
		path:    path,
		opts:    opts,
		entries: entries,
		now:     time.Now,
	}
}

// MessageKey builds the exact wire-event key for a chat message.
func MessageKey(chatID, messageID int64) string {
	return fmt.Sprintf("%s%d:%d", messagePrefix, chatID, messageID)
}

// Fingerprint builds the content key for normalized text from one
// sender. The text is hashed so the seen set stays compact regardless
// of message length.
func Fingerprint(senderID int64, normText string) string {
	sum := sha256.Sum256([]byte(normText))
	return fmt.Sprintf("%s%d:%s", fingerprintPrefix, senderID, hex.EncodeToString(sum[:8]))
}

// AdmitMessage admits the exact (chat, message) key. It returns true
// only the first time the key is seen within the message retention
// window.
func (g *Gate) AdmitMessage(chatID, messageID int64) bool {
	return g.admit(MessageKey(chatID, messageID), g.opts.MessageTTL)
}

// AdmitFingerprint admits the content fingerprint of normalized text
// from the given sender.
func (g *Gate) AdmitFingerprint(senderID int64, normText string) bool {
	return g.admit(Fingerprint(senderID, normText), g.opts.FingerprintTTL)
}

// admit performs the atomic check-and-insert for one key.
func (g *Gate) admit(key string, ttl time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if ts, ok := g.entries[key]; ok && now.Sub(ts) < ttl {
		return false
	}

	g.entries[key] = now
	if len(g.entries) > g.opts.MaxEntries {
		g.evictOldestLocked()
	}
	g.persistLocked()
	return true
}

// evictOldestLocked drops oldest-timestamp entries until the set fits
// the capacity again. Called with the lock held.
func (g *Gate) evictOldestLocked() {
	for len(g.entries) > g.opts.MaxEntries {
		var oldestKey string
		var oldest time.Time
		for k, ts := range g.entries {
			if oldestKey == "" || ts.Before(oldest) {
				oldestKey = k
				oldest = ts
			}
		}
		delete(g.entries, oldestKey)
	}
}

// Sweep removes entries past their retention horizon and persists the
// shrunken set. It returns the number of evicted entries.
func (g *Gate) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for k, ts := range g.entries {
		ttl := g.opts.MessageTTL
		if len(k) >= len(fingerprintPrefix) && k[:len(fingerprintPrefix)] == fingerprintPrefix {
			ttl = g.opts.FingerprintTTL
		}
		if now.Sub(ts) >= ttl {
			delete(g.entries, k)
			removed++
		}
	}
	if removed > 0 {
		g.persistLocked()
	}
	g.log.Debug("Seen set swept", "removed", removed, "remaining", len(g.entries))
	return removed
}

// Len reports the current number of entries.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Gate) persistLocked() {
	if err := statefile.Save(g.path, g.entries); err != nil {
		g.log.Error("Failed to persist seen set", "path", g.path, "error", err)
	}
}
