// Jellyboxd - Jellyfin to Letterboxd Watch Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jellyboxd

package tracker

import (
	"sync"
	"time"

	"github.com/tomtom215/jellyboxd/internal/models"
)

// EvictReason explains why a handled session left the state without being re-armed.
type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictExpired  EvictReason = "expired"
)

// sessionEntry is a node in the recency list.
type sessionEntry struct {
	key       models.SessionKey
	lastSeen  time.Time
	prev      *sessionEntry
	next      *sessionEntry
}

// SessionState is the set of viewing sessions whose mark-watched action has
// already been dispatched.
//
// It is bounded: entries are ordered by last-seen time in a doubly-linked list
// with a map for O(1) lookup. When capacity is exceeded the least recently seen
// session is evicted, and sessions idle longer than the TTL expire lazily on
// access or eagerly via CleanupExpired. Evicting an entry is equivalent to
// re-arming it.
//
// All methods are safe for concurrent use; each is a single critical section,
// so MarkHandled is an atomic check-and-insert.
type SessionState struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[models.SessionKey]*sessionEntry

	// head.next is the most recently seen, tail.prev the least
	head *sessionEntry
	tail *sessionEntry

	onEvict func(EvictReason)
}

// NewSessionState creates an empty state holding at most capacity sessions,
// each expiring after ttl without events.
func NewSessionState(capacity int, ttl time.Duration) *SessionState {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &SessionState{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[models.SessionKey]*sessionEntry),
		head:     &sessionEntry{},
		tail:     &sessionEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// OnEvict registers a callback invoked (with the lock held) for every
// capacity or expiry eviction. It must not call back into the state.
func (s *SessionState) OnEvict(fn func(EvictReason)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// MarkHandled inserts key if it is not already handled and reports whether
// it did. An existing entry is refreshed instead.
func (s *SessionState) MarkHandled(key models.SessionKey, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry := s.live(key, now); entry != nil {
		entry.lastSeen = now
		s.moveToFront(entry)
		return false
	}

	entry := &sessionEntry{key: key, lastSeen: now}
	s.addToFront(entry)
	s.items[key] = entry

	for len(s.items) > s.capacity {
		s.evict(s.tail.prev, EvictCapacity)
	}
	return true
}

// Touch refreshes the last-seen time of a handled session.
// It reports whether the key was handled.
func (s *SessionState) Touch(key models.SessionKey, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(key, now)
	if entry == nil {
		return false
	}
	entry.lastSeen = now
	s.moveToFront(entry)
	return true
}

// Rearm removes key so the next crossing of the fire threshold fires again.
// It reports whether the key was handled.
func (s *SessionState) Rearm(key models.SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	if !ok {
		return false
	}
	s.remove(entry)
	return true
}

// IsHandled reports whether key is handled, without refreshing it.
func (s *SessionState) IsHandled(key models.SessionKey, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[key]
	return ok && !s.expired(entry, now)
}

// Len returns the number of handled sessions, including any not yet pruned.
func (s *SessionState) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// CleanupExpired removes every session idle longer than the TTL and returns
// how many were removed.
func (s *SessionState) CleanupExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	// Walk from tail (least recently seen) and stop at the first live entry;
	// the list is ordered by lastSeen so everything ahead of it is live too.
	for entry := s.tail.prev; entry != s.head; {
		if !s.expired(entry, now) {
			break
		}
		prev := entry.prev
		s.evict(entry, EvictExpired)
		removed++
		entry = prev
	}
	return removed
}

// Clear drops every session. Called when the process stops.
func (s *SessionState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[models.SessionKey]*sessionEntry)
	s.head.next = s.tail
	s.tail.prev = s.head
}

// Internal methods (must be called with lock held)

// live returns the entry for key, evicting it first if it has expired.
func (s *SessionState) live(key models.SessionKey, now time.Time) *sessionEntry {
	entry, ok := s.items[key]
	if !ok {
		return nil
	}
	if s.expired(entry, now) {
		s.evict(entry, EvictExpired)
		return nil
	}
	return entry
}

func (s *SessionState) expired(entry *sessionEntry, now time.Time) bool {
	return now.Sub(entry.lastSeen) > s.ttl
}

func (s *SessionState) evict(entry *sessionEntry, reason EvictReason) {
	if entry == s.head || entry == s.tail {
		return
	}
	s.remove(entry)
	if s.onEvict != nil {
		s.onEvict(reason)
	}
}

func (s *SessionState) addToFront(entry *sessionEntry) {
	entry.prev = s.head
	entry.next = s.head.next
	s.head.next.prev = entry
	s.head.next = entry
}

func (s *SessionState) moveToFront(entry *sessionEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	s.addToFront(entry)
}

func (s *SessionState) remove(entry *sessionEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	entry.prev, entry.next = nil, nil
	delete(s.items, entry.key)
}
