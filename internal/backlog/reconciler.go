// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package backlog reconciles the in-memory notification list against the
// center's persisted rows, so notifications raised while no session was
// attached still reach the operator.
package backlog

import (
	"context"
	"sync"
	"time"

	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
	"github.com/platewatch/platewatch/internal/notify"
)

// Fetcher loads unacknowledged rows from the center.
// Implemented by *center.Client and *center.CircuitBreakerClient.
type Fetcher interface {
	FetchBacklog(ctx context.Context, since time.Time) ([]notify.BacklogRow, int64, error)
}

// SnapshotPusher pushes the reconciled list to attached tabs.
// Implemented by the WebSocket hub bridge.
type SnapshotPusher interface {
	PushSnapshot(list []*notify.Notification, countAll int64)
}

// Reconciler swaps the session's notification list for the center's
// persisted unacknowledged rows.
type Reconciler struct {
	fetcher Fetcher
	store   *notify.Store
	pusher  SnapshotPusher

	// mu guards the operator identity, which is bound when a session
	// starts and read on every reconcile.
	mu sync.RWMutex

	// userID stamps rebuilt notifications; since floors the fetch at
	// the operator account's creation time.
	userID string
	since  time.Time
}

func NewReconciler(fetcher Fetcher, store *notify.Store, pusher SnapshotPusher) *Reconciler {
	return &Reconciler{
		fetcher: fetcher,
		store:   store,
		pusher:  pusher,
	}
}

// Bind sets the operator identity the next reconciles run under.
func (r *Reconciler) Bind(userID string, since time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userID = userID
	r.since = since
}

// Reconcile fetches the backlog and replaces the local list with it.
// A fetch failure leaves the list untouched and is not propagated: the
// session keeps running on live events alone. Rows that fail to rebuild
// are skipped individually.
func (r *Reconciler) Reconcile(ctx context.Context) {
	r.mu.RLock()
	userID, since := r.userID, r.since
	r.mu.RUnlock()

	rows, total, err := r.fetcher.FetchBacklog(ctx, since)
	if err != nil {
		logging.Warn().Err(err).Msg("backlog reconcile failed, keeping current list")
		metrics.BacklogReconciles.WithLabelValues("error").Inc()
		return
	}

	list := make([]*notify.Notification, 0, len(rows))
	for i := range rows {
		n, err := notify.FromBacklogRow(&rows[i], userID)
		if err != nil {
			logging.Warn().Err(err).Int64("row_id", rows[i].ID).Msg("skipping malformed backlog row")
			continue
		}
		list = append(list, n)
	}

	r.store.ReplaceAll(list, total)
	metrics.BacklogReconciles.WithLabelValues("ok").Inc()
	logging.Info().
		Int("rows", len(list)).
		Int64("count_all", total).
		Msg("backlog reconciled")

	if r.pusher != nil {
		r.pusher.PushSnapshot(r.store.List(), r.store.CountAll())
	}
}
