// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package notify

import (
	"sync"

	"github.com/platewatch/platewatch/internal/metrics"
)

// Store is the bounded, deduplicating notification list a console
// session keeps in memory. Newest entries sit at the front. The list is
// capped at MaxItems; the all-time counter keeps counting past the cap.
//
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	list     []*Notification
	countAll int64
}

func NewStore() *Store {
	return &Store{}
}

// Insert adds a notification at the front of the list. A messageId
// already present makes the call a no-op, so replayed or echoed events
// cannot duplicate entries. Returns whether the notification was added.
func (s *Store) Insert(n *Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.list {
		if existing.MessageID == n.MessageID {
			metrics.NotificationsDeduplicated.Inc()
			return false
		}
	}

	s.list = append([]*Notification{n}, s.list...)
	s.countAll++
	metrics.NotificationsInserted.WithLabelValues(n.Type).Inc()

	if len(s.list) > MaxItems {
		evicted := len(s.list) - MaxItems
		s.list = s.list[:MaxItems]
		metrics.NotificationsEvicted.Add(float64(evicted))
	}
	metrics.NotificationsPending.Set(float64(len(s.list)))
	return true
}

// ReplaceAll swaps the entire list for a reconciled backlog, truncated
// to the capacity bound, and resets the all-time counter to the given
// value.
func (s *Store) ReplaceAll(list []*Notification, countAll int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(list) > MaxItems {
		list = list[:MaxItems]
	}
	s.list = append([]*Notification(nil), list...)
	s.countAll = countAll
	metrics.NotificationsPending.Set(float64(len(s.list)))
}

// Remove deletes the entry with the given messageId. Removing an absent
// messageId is a no-op, so close commands echoed across tabs stay
// idempotent.
func (s *Store) Remove(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.list {
		if n.MessageID == messageID {
			s.list = append(s.list[:i], s.list[i+1:]...)
			metrics.NotificationsPending.Set(float64(len(s.list)))
			return true
		}
	}
	return false
}

// Get returns the entry with the given messageId, or nil.
func (s *Store) Get(messageID string) *Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.list {
		if n.MessageID == messageID {
			return n
		}
	}
	return nil
}

// ClearByUser drops every entry owned by the given user.
func (s *Store) ClearByUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.list[:0]
	for _, n := range s.list {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	s.list = kept
	metrics.NotificationsPending.Set(float64(len(s.list)))
}

// Clear empties the visible list without touching the all-time counter.
// Applied when a clear-all command arrives from another tab.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.list = nil
	metrics.NotificationsPending.Set(0)
}

// Reset empties the store when a session ends.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.list = nil
	s.countAll = 0
	metrics.NotificationsPending.Set(0)
}

// List returns a snapshot copy of the current entries, newest first.
func (s *Store) List() []*Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Notification, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the current number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// CountAll returns the all-time insert count, which keeps growing after
// the list hits its capacity bound.
func (s *Store) CountAll() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countAll
}
