// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/platewatch/platewatch/internal/event"
	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
)

// Handler receives the extracted record of one event. A handler must not
// block; slow work belongs on the handler's own goroutine. The alias
// keeps Subscribe assignable to interfaces declared with the literal
// func type.
type Handler = func(record json.RawMessage)

// subscription binds one handler to a named event. The cdc flag selects
// change-data-capture extraction for that subscriber's frames.
type subscription struct {
	id   int
	name string
	cdc  bool
	fn   Handler
}

// Manager multiplexes one shared SSE connection across subscribers. The
// connection is dialed lazily on the first subscription and torn down
// when the last one leaves. A dropped stream is reported through the
// error callback and never redialed here; the supervising service
// decides whether to restart.
type Manager struct {
	cfg     SSEConfig
	onError func(error)

	// errLog throttles decode-failure logging on a noisy channel.
	errLog *rate.Limiter

	mu     sync.Mutex
	subs   map[string][]*subscription
	nextID int
	conn   *SSEConnection
	cancel context.CancelFunc
}

// NewManager creates a manager. onError may be nil.
func NewManager(cfg SSEConfig, onError func(error)) *Manager {
	return &Manager{
		cfg:     cfg,
		onError: onError,
		errLog:  rate.NewLimiter(rate.Limit(1), 5),
		subs:    make(map[string][]*subscription),
	}
}

// Subscribe registers a handler for a named event, dialing the shared
// connection if this is the first subscriber. The returned function
// removes the subscription; removing the last one closes the stream.
func (m *Manager) Subscribe(ctx context.Context, name string, cdc bool, fn Handler) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		if err := m.dialLocked(ctx); err != nil {
			return nil, err
		}
	}

	m.nextID++
	sub := &subscription{id: m.nextID, name: name, cdc: cdc, fn: fn}
	m.subs[name] = append(m.subs[name], sub)

	return func() { m.unsubscribe(sub) }, nil
}

// dialLocked opens the shared connection and starts its pump. Caller
// holds the lock.
func (m *Manager) dialLocked(ctx context.Context) error {
	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	conn, err := DialSSE(connCtx, m.cfg)
	if err != nil {
		cancel()
		return fmt.Errorf("dial event stream: %w", err)
	}
	m.conn = conn
	m.cancel = cancel
	metrics.IngestConnectionState.WithLabelValues("sse").Set(1)
	go m.pump(conn)
	logging.Info().Str("url", m.cfg.URL).Msg("event stream connected")
	return nil
}

// Redial reopens the shared stream after a drop. It is a no-op when the
// stream is up or nothing is subscribed.
func (m *Manager) Redial(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil || len(m.subs) == 0 {
		return nil
	}
	return m.dialLocked(ctx)
}

func (m *Manager) unsubscribe(sub *subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.subs[sub.name]
	for i, s := range list {
		if s.id == sub.id {
			m.subs[sub.name] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(m.subs[sub.name]) == 0 {
		delete(m.subs, sub.name)
	}

	if len(m.subs) == 0 && m.conn != nil {
		m.closeLocked()
	}
}

// Close tears down the shared connection and drops every subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = make(map[string][]*subscription)
	if m.conn != nil {
		m.closeLocked()
	}
}

func (m *Manager) closeLocked() {
	m.cancel()
	_ = m.conn.Close()
	m.conn = nil
	m.cancel = nil
	metrics.IngestConnectionState.WithLabelValues("sse").Set(0)
	logging.Info().Msg("event stream closed")
}

// pump fans events from the connection out to matching subscribers.
// Extraction failures are isolated per frame: one malformed payload is
// counted, logged, and skipped without touching the stream.
func (m *Manager) pump(conn *SSEConnection) {
	for ev := range conn.Events() {
		m.dispatch(ev)
	}

	if err, ok := <-conn.Errors(); ok && err != nil {
		logging.Error().Err(err).Msg("event stream terminated")
		if m.onError != nil {
			m.onError(err)
		}
	}

	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		metrics.IngestConnectionState.WithLabelValues("sse").Set(0)
	}
	m.mu.Unlock()
}

func (m *Manager) dispatch(ev SSEEvent) {
	m.mu.Lock()
	list := append([]*subscription(nil), m.subs[ev.Name]...)
	m.mu.Unlock()

	if len(list) == 0 {
		return
	}
	metrics.EventsIngested.WithLabelValues(ev.Name, "sse").Inc()

	for _, sub := range list {
		record, err := event.ExtractRecord(ev.Data, sub.cdc)
		if err != nil {
			metrics.EventDecodeFailures.WithLabelValues(ev.Name, "sse").Inc()
			if m.errLog.Allow() {
				logging.Warn().Err(err).Str("event", ev.Name).Msg("failed to extract event record")
			}
			continue
		}
		sub.fn(record)
	}
}
