// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package acksync propagates operator acknowledgments: the entry leaves
// the local list immediately, every other tab gets a close command, and
// the center is told best-effort. A failed confirmation is never rolled
// back; the row simply resurfaces on the next backlog reconcile.
package acksync

import (
	"context"
	"errors"

	"github.com/platewatch/platewatch/internal/broadcast"
	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
	"github.com/platewatch/platewatch/internal/notify"
)

// ErrUnknownNotification is returned when the messageId is not in the
// local list, which usually means another tab acknowledged it first.
var ErrUnknownNotification = errors.New("acksync: unknown notification")

// Confirmer marks a backlog row acknowledged on the center.
// Implemented by *center.Client and *center.CircuitBreakerClient.
type Confirmer interface {
	ConfirmNotification(ctx context.Context, id int64) error
}

// Publisher fans acknowledgment commands out to the other tabs.
// Implemented by *broadcast.Bus.
type Publisher interface {
	PublishClose(ctx context.Context, n *notify.Notification) error
	PublishClearAll(ctx context.Context) error
}

// Reconciler refetches the backlog after a bulk clear.
// Implemented by *backlog.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context)
}

// Manager runs the acknowledgment flows for one session.
type Manager struct {
	store      *notify.Store
	publisher  Publisher
	confirmer  Confirmer
	reconciler Reconciler
}

func NewManager(store *notify.Store, publisher Publisher, confirmer Confirmer, reconciler Reconciler) *Manager {
	return &Manager{
		store:      store,
		publisher:  publisher,
		confirmer:  confirmer,
		reconciler: reconciler,
	}
}

// Acknowledge dismisses one notification. The local removal and the
// cross-tab close happen unconditionally; the center confirmation is
// best-effort.
func (m *Manager) Acknowledge(ctx context.Context, messageID string) error {
	n := m.store.Get(messageID)
	if n == nil {
		return ErrUnknownNotification
	}

	m.store.Remove(messageID)

	if err := m.publisher.PublishClose(ctx, n); err != nil {
		logging.Warn().Err(err).Str("message_id", messageID).Msg("close broadcast failed")
	}

	m.confirm(ctx, n)
	return nil
}

// ClearAll acknowledges every entry in the list: each row gets its own
// close command and confirmation, then a single clear-all goes out, and
// finally the backlog is refetched so the list converges on what the
// center still holds.
func (m *Manager) ClearAll(ctx context.Context) {
	list := m.store.List()
	for _, n := range list {
		if err := m.publisher.PublishClose(ctx, n); err != nil {
			logging.Warn().Err(err).Str("message_id", n.MessageID).Msg("close broadcast failed")
		}
		m.confirm(ctx, n)
	}

	if err := m.publisher.PublishClearAll(ctx); err != nil {
		logging.Warn().Err(err).Msg("clear-all broadcast failed")
	}
	m.store.Clear()

	if m.reconciler != nil {
		m.reconciler.Reconcile(ctx)
	}
}

func (m *Manager) confirm(ctx context.Context, n *notify.Notification) {
	if err := m.confirmer.ConfirmNotification(ctx, n.ID); err != nil {
		// No rollback; the next reconcile restores the row.
		logging.Warn().Err(err).Int64("id", n.ID).Msg("center confirmation failed")
		metrics.AckFailures.Inc()
		return
	}
	metrics.AcksConfirmed.Inc()
}

// compile-time interface check against the bus
var _ Publisher = (*broadcast.Bus)(nil)
