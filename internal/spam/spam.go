// Package spam tracks seller posting velocity and maintains the persistent
// seller block-list. Sellers who post faster than the threshold inside the
// rolling window are auto-blocked; every block-list mutation triggers a
// save through the injected store hook.
package spam

import (
	"strings"
	"sync"
	"time"

	"github.com/calebwyatt/dealscout/internal/logger"
)

// SaveFunc persists the current block-list snapshot. The set semantics live
// here; durability lives with the caller.
type SaveFunc func(sellers []string) error

// Filter flags sellers who post too many listings inside a rolling window.
// All methods are safe for concurrent use.
type Filter struct {
	mu          sync.Mutex
	window      time.Duration
	threshold   int
	appearances map[string][]time.Time
	blocked     *BlockedSet
}

// NewFilter creates a spam filter over the given block-list. A seller whose
// appearance count inside the window exceeds the threshold is added to the
// block-list.
func NewFilter(window time.Duration, threshold int, blocked *BlockedSet) *Filter {
	return &Filter{
		window:      window,
		threshold:   threshold,
		appearances: make(map[string][]time.Time),
		blocked:     blocked,
	}
}

// RecordAndCheck records one seller appearance at the given time and reports
// (isBlocked, newlyBlocked). Already-blocked sellers short-circuit without
// recording. An empty seller id never blocks.
func (f *Filter) RecordAndCheck(sellerID string, at time.Time) (bool, bool) {
	key := sellerKey(sellerID)
	if key == "" {
		return false, false
	}

	if f.blocked.IsBlocked(key) {
		return true, false
	}

	f.mu.Lock()
	kept := f.appearances[key][:0]
	for _, t := range f.appearances[key] {
		if at.Sub(t) < f.window {
			kept = append(kept, t)
		}
	}
	kept = append(kept, at)
	f.appearances[key] = kept
	count := len(kept)
	f.mu.Unlock()

	if count > f.threshold {
		if _, err := f.blocked.Add(key); err != nil {
			logger.Error("Failed to persist blocked seller %q: %v", key, err)
		}
		return true, true
	}
	return false, false
}

func sellerKey(sellerID string) string {
	return strings.ToLower(strings.TrimSpace(sellerID))
}

// BlockedSet is the persistent seller block-list. Membership is by
// lowercased trimmed seller id. Every mutation saves through the hook, so
// the on-disk set never lags the in-memory one by more than one write.
type BlockedSet struct {
	mu      sync.RWMutex
	sellers map[string]struct{}
	save    SaveFunc
}

// NewBlockedSet builds a block-list from a loaded snapshot. A nil save hook
// makes the set memory-only.
func NewBlockedSet(initial []string, save SaveFunc) *BlockedSet {
	s := &BlockedSet{
		sellers: make(map[string]struct{}, len(initial)),
		save:    save,
	}
	for _, id := range initial {
		if key := sellerKey(id); key != "" {
			s.sellers[key] = struct{}{}
		}
	}
	return s
}

// IsBlocked reports whether a seller is on the block-list.
func (s *BlockedSet) IsBlocked(sellerID string) bool {
	key := sellerKey(sellerID)
	s.mu.RLock()
	_, ok := s.sellers[key]
	s.mu.RUnlock()
	return ok
}

// Add puts a seller on the block-list. Returns false when the seller was
// already present; the save still runs on actual additions only.
func (s *BlockedSet) Add(sellerID string) (bool, error) {
	key := sellerKey(sellerID)
	if key == "" {
		return false, nil
	}

	s.mu.Lock()
	if _, ok := s.sellers[key]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.sellers[key] = struct{}{}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return true, s.persist(snapshot)
}

// Remove takes a seller off the block-list.
func (s *BlockedSet) Remove(sellerID string) (bool, error) {
	key := sellerKey(sellerID)

	s.mu.Lock()
	if _, ok := s.sellers[key]; !ok {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.sellers, key)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return true, s.persist(snapshot)
}

// Clear empties the block-list and returns how many sellers it removed.
func (s *BlockedSet) Clear() (int, error) {
	s.mu.Lock()
	count := len(s.sellers)
	s.sellers = make(map[string]struct{})
	s.mu.Unlock()

	return count, s.persist(nil)
}

// Import bulk-adds sellers, returning (added, skipped). One save covers the
// whole batch.
func (s *BlockedSet) Import(sellerIDs []string) (int, int, error) {
	var added, skipped int

	s.mu.Lock()
	for _, id := range sellerIDs {
		key := sellerKey(id)
		if key == "" {
			skipped++
			continue
		}
		if _, ok := s.sellers[key]; ok {
			skipped++
			continue
		}
		s.sellers[key] = struct{}{}
		added++
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	return added, skipped, s.persist(snapshot)
}

// All returns a copy of the current block-list.
func (s *BlockedSet) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Count returns the block-list size.
func (s *BlockedSet) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sellers)
}

func (s *BlockedSet) snapshotLocked() []string {
	out := make([]string, 0, len(s.sellers))
	for id := range s.sellers {
		out = append(out, id)
	}
	return out
}

func (s *BlockedSet) persist(snapshot []string) error {
	if s.save == nil {
		return nil
	}
	return s.save(snapshot)
}
