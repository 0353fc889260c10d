// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package session runs one operator session: it loads reference data,
// reconciles the backlog, then attaches to the live event channels and
// keeps the notification list and every attached tab current.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/platewatch/platewatch/internal/event"
	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
	"github.com/platewatch/platewatch/internal/notify"
	"github.com/platewatch/platewatch/internal/refdata"
)

// Subscriber attaches handlers to named live event channels.
// Implemented by *ingest.Manager.
type Subscriber interface {
	Subscribe(ctx context.Context, name string, cdc bool, fn func(record json.RawMessage)) (func(), error)
}

// Reconciler refetches the persisted backlog.
// Implemented by *backlog.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context)
}

// identityBinder is satisfied by reconcilers that scope their fetch to
// an operator. *backlog.Reconciler implements it.
type identityBinder interface {
	Bind(userID string, since time.Time)
}

// Pusher delivers session output to attached tabs.
// Implemented by *websocket.Hub.
type Pusher interface {
	BroadcastNotification(n *notify.Notification)
	BroadcastLiveFeed(record any)
	BroadcastDetectionAlert(alert *notify.DetectionAlert)
}

// channelBinding declares one live channel: its wire name, whether its
// frames are CDC envelopes, and the decoder type.
type channelBinding struct {
	name string
	typ  event.Type
	cdc  bool
}

// liveChannels lists every channel a session attaches to. The plate
// channel is the only CDC one.
var liveChannels = []channelBinding{
	{name: string(event.TypeCameraStatus), typ: event.TypeCameraStatus, cdc: false},
	{name: string(event.TypePlateDetection), typ: event.TypePlateDetection, cdc: true},
	{name: string(event.TypeCheckpointUpdate), typ: event.TypeCheckpointUpdate, cdc: false},
	{name: string(event.TypeCameraAdded), typ: event.TypeCameraAdded, cdc: false},
	{name: string(event.TypeDeleteCameraRequest), typ: event.TypeDeleteCameraRequest, cdc: false},
}

// Session is the per-operator reconciliation loop.
type Session struct {
	subscriber Subscriber
	reconciler Reconciler
	catalog    *refdata.Catalog
	store      *notify.Store
	pusher     Pusher

	// jwtSecret verifies console tokens; empty means decode-only.
	jwtSecret string

	mu      sync.Mutex
	claims  *Claims
	unsubs  []func()
	started bool
}

// Config carries the session settings.
type Config struct {
	JWTSecret string `koanf:"jwt_secret"`
}

func New(cfg Config, subscriber Subscriber, reconciler Reconciler, catalog *refdata.Catalog, store *notify.Store, pusher Pusher) *Session {
	return &Session{
		subscriber: subscriber,
		reconciler: reconciler,
		catalog:    catalog,
		store:      store,
		pusher:     pusher,
		jwtSecret:  cfg.JWTSecret,
	}
}

// Start brings the session up for the operator identified by the token.
// Reference data loads first, then the backlog reconciles, and only then
// do live subscriptions attach, so a backlog row can never race its own
// live duplicate into the list.
func (s *Session) Start(ctx context.Context, token string) error {
	claims, err := ParseClaims(token, s.jwtSecret)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("session: already started")
	}
	s.started = true
	s.claims = claims
	s.mu.Unlock()

	if err := s.catalog.Reload(ctx); err != nil {
		// The snapshot stays empty; detections pass through unenriched
		// until a reload signal arrives.
		logging.Warn().Err(err).Msg("initial reference data load failed")
		metrics.RefdataReloads.WithLabelValues("error").Inc()
	} else {
		metrics.RefdataReloads.WithLabelValues("ok").Inc()
	}

	if binder, ok := s.reconciler.(identityBinder); ok {
		binder.Bind(claims.UserID, claims.AccountCreatedAt())
	}
	s.reconciler.Reconcile(ctx)

	for _, ch := range liveChannels {
		binding := ch
		unsub, err := s.subscriber.Subscribe(ctx, binding.name, binding.cdc, func(record json.RawMessage) {
			s.handleRecord(binding.typ, record)
		})
		if err != nil {
			s.detach()
			return fmt.Errorf("attach %s: %w", binding.name, err)
		}
		s.mu.Lock()
		s.unsubs = append(s.unsubs, unsub)
		s.mu.Unlock()
	}

	logging.Info().
		Str("user_id", claims.UserID).
		Time("backlog_floor", claims.AccountCreatedAt()).
		Msg("session started")
	return nil
}

// Stop detaches from the live channels and wipes the session state.
func (s *Session) Stop() {
	s.detach()

	s.mu.Lock()
	s.claims = nil
	s.started = false
	s.mu.Unlock()

	s.store.Reset()
	logging.Info().Msg("session stopped")
}

func (s *Session) detach() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}

// UserID returns the operator id of the running session, or "".
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claims == nil {
		return ""
	}
	return s.claims.UserID
}

func (s *Session) handleRecord(typ event.Type, record json.RawMessage) {
	ev, err := event.Decode(typ, record)
	if err != nil {
		logging.Warn().Err(err).Str("event_type", string(typ)).Msg("dropping undecodable event")
		return
	}

	switch typed := ev.(type) {
	case *event.CameraStatusEvent:
		s.insert(notify.FromCameraStatus(typed, s.UserID()))
	case *event.CheckpointUpdateEvent:
		s.insert(notify.FromCheckpointUpdate(typed, s.UserID()))
	case *event.CameraAddedEvent:
		s.insert(notify.FromCameraAdded(typed, s.UserID()))
	case *event.DeleteCameraRequestEvent:
		s.insert(notify.FromDeleteRequest(typed, s.UserID()))
	case *event.PlateDetectionEvent:
		s.handleDetection(typed)
	}
}

// insert adds a notification and pushes it to tabs unless it was a
// duplicate.
func (s *Session) insert(n *notify.Notification) {
	if !s.store.Insert(n) {
		return
	}
	s.pusher.BroadcastNotification(n)
}

// handleDetection feeds the live feed unconditionally, then raises an
// alert only for watchlist hits whose plate class warrants one.
func (s *Session) handleDetection(ev *event.PlateDetectionEvent) {
	s.pusher.BroadcastLiveFeed(ev)

	snap := s.catalog.Snapshot()
	entry := notify.Correlate(ev, snap)
	if entry == nil {
		return
	}
	metrics.DetectionsCorrelated.Inc()

	alert := notify.EnrichDetection(ev, snap)
	if alert == nil {
		metrics.DetectionsSuppressed.Inc()
		return
	}
	s.pusher.BroadcastDetectionAlert(alert)
}
