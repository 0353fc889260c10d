// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package metrics registers the Prometheus collectors for the notification
// core: ingest throughput, store churn, broadcast fan-out, and center API
// sync health. All collectors are package-level and auto-registered on the
// default registry; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest Metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of live events delivered to handlers",
		},
		[]string{"event_type", "transport"}, // transport: "sse", "nats"
	)

	EventDecodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_decode_failures_total",
			Help: "Total number of frames dropped because they failed to decode",
		},
		[]string{"event_type", "transport"},
	)

	IngestConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_connection_up",
			Help: "Whether the shared live connection for a channel family is up (1) or down (0)",
		},
		[]string{"channel"},
	)

	// Notification Store Metrics
	NotificationsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_inserted_total",
			Help: "Total number of notifications inserted into the store",
		},
		[]string{"type"},
	)

	NotificationsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_deduplicated_total",
			Help: "Total number of inserts skipped because the messageId was already present",
		},
	)

	NotificationsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_evicted_total",
			Help: "Total number of notifications truncated by the capacity bound",
		},
	)

	NotificationsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifications_pending",
			Help: "Current number of notifications in the store",
		},
	)

	// Detection Metrics
	DetectionsCorrelated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detections_correlated_total",
			Help: "Total number of plate detections that matched a watchlist entry",
		},
	)

	DetectionsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detections_suppressed_total",
			Help: "Total number of watchlist matches suppressed by plate-class rules",
		},
	)

	// Broadcast Bus Metrics
	BroadcastsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_published_total",
			Help: "Total number of messages published to the cross-tab bus",
		},
		[]string{"kind"},
	)

	BroadcastsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_applied_total",
			Help: "Total number of bus messages applied by the local reducer",
		},
		[]string{"kind"},
	)

	// Center API Sync Metrics
	BacklogReconciles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backlog_reconciles_total",
			Help: "Total number of backlog reconcile attempts",
		},
		[]string{"result"}, // "ok", "error"
	)

	AcksConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "acks_confirmed_total",
			Help: "Total number of acknowledgments confirmed server-side",
		},
	)

	AckFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ack_failures_total",
			Help: "Total number of acknowledgment PATCHes that failed (best-effort, not retried)",
		},
	)

	RefdataReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refdata_reloads_total",
			Help: "Total number of reference-data reloads",
		},
		[]string{"result"},
	)

	// WebSocket Metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Current number of attached console tabs",
		},
	)
)
