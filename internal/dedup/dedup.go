// Package dedup is the alert-cooldown ledger. The same opportunity key is
// alerted at most once per cooldown window; expired entries are evicted
// lazily on the next check rather than by a background sweeper.
package dedup

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/calebwyatt/dealscout/internal/models"
)

// DefaultCooldown is the re-alert suppression window.
const DefaultCooldown = 24 * time.Hour

const keyTitleLen = 80

// Key builds the dedup key from a listing title and price. The title is
// truncated, case-folded, and stripped of transport encoding so the same
// item arriving through either source produces the same key; the price is
// rounded to cents so float jitter does not split keys.
func Key(title string, price float64) string {
	if runes := []rune(title); len(runes) > keyTitleLen {
		title = string(runes[:keyTitleLen])
	}
	normalized := strings.ToLower(strings.TrimSpace(title))
	normalized = strings.ReplaceAll(normalized, "+", " ")
	normalized = strings.ReplaceAll(normalized, "%20", " ")
	return fmt.Sprintf("%s_%.2f", normalized, price)
}

// KeyForListing derives the dedup key for a canonical listing, falling back
// to the item id when the title is empty.
func KeyForListing(l *models.CanonicalListing) string {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Sprintf("item_%s_%.2f", l.ItemID, l.Price)
	}
	return Key(l.Title, l.Price)
}

// Ledger tracks when each opportunity key last alerted. Safe for concurrent
// use.
type Ledger struct {
	mu       sync.Mutex
	cooldown time.Duration
	alerted  map[string]time.Time
}

// NewLedger creates a ledger with the given cooldown. Zero or negative
// falls back to the default.
func NewLedger(cooldown time.Duration) *Ledger {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Ledger{
		cooldown: cooldown,
		alerted:  make(map[string]time.Time),
	}
}

// ShouldAlert reports whether the key is clear to alert at the given time.
// Entries older than the cooldown are evicted on the way through.
func (l *Ledger) ShouldAlert(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.evictLocked(now)

	_, suppressed := l.alerted[key]
	return !suppressed
}

// MarkAlerted records that the key alerted at the given time, restarting
// its cooldown.
func (l *Ledger) MarkAlerted(key string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerted[key] = now
}

// Len reports how many keys are currently suppressed, evicting stale ones
// first.
func (l *Ledger) Len(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evictLocked(now)
	return len(l.alerted)
}

// Snapshot returns a copy of the ledger state for persistence.
func (l *Ledger) Snapshot() map[string]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]time.Time, len(l.alerted))
	for k, t := range l.alerted {
		out[k] = t
	}
	return out
}

// Restore replaces the ledger state from a persisted snapshot.
func (l *Ledger) Restore(entries map[string]time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.alerted = make(map[string]time.Time, len(entries))
	for k, t := range entries {
		l.alerted[k] = t
	}
}

func (l *Ledger) evictLocked(now time.Time) {
	for k, t := range l.alerted {
		if now.Sub(t) > l.cooldown {
			delete(l.alerted, k)
		}
	}
}
