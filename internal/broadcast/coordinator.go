// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package broadcast

import (
	"context"

	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
	"github.com/platewatch/platewatch/internal/notify"
)

// Reloader refreshes the reference-data snapshot.
// Implemented by *refdata.Catalog.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Forwarder pushes an applied command on to locally attached tabs.
// Implemented by the WebSocket hub bridge.
type Forwarder interface {
	ForwardCommand(m Message)
	ForwardReload()
}

// Coordinator applies inbound bus commands to the local session state.
// Every application is idempotent: a close for an absent messageId and a
// repeated clear-all both leave the store unchanged.
type Coordinator struct {
	store    *notify.Store
	reloader Reloader
	forward  Forwarder
}

func NewCoordinator(store *notify.Store, reloader Reloader, forward Forwarder) *Coordinator {
	return &Coordinator{
		store:    store,
		reloader: reloader,
		forward:  forward,
	}
}

// Apply reduces one toast-channel command into the local store and
// forwards it to attached tabs.
func (c *Coordinator) Apply(ctx context.Context, m Message) {
	switch m.Action {
	case ActionClearAll:
		c.store.Clear()
	default:
		if m.MessageID == "" {
			logging.Warn().Str("action", m.Action).Msg("close command without messageId")
			return
		}
		removed := c.store.Remove(m.MessageID)
		logging.Debug().
			Str("action", m.Action).
			Str("message_id", m.MessageID).
			Bool("removed", removed).
			Msg("applied close command")
	}

	metrics.BroadcastsApplied.WithLabelValues(m.Action).Inc()
	if c.forward != nil {
		c.forward.ForwardCommand(m)
	}
}

// ApplyReload handles one reference-data channel frame. Anything other
// than the bare reload signal is ignored.
func (c *Coordinator) ApplyReload(ctx context.Context, payload []byte) {
	if string(payload) != ReloadPayload {
		logging.Warn().Str("payload", string(payload)).Msg("unexpected refdata signal")
		return
	}

	if c.reloader != nil {
		if err := c.reloader.Reload(ctx); err != nil {
			logging.Error().Err(err).Msg("reference data reload failed")
			metrics.RefdataReloads.WithLabelValues("error").Inc()
		} else {
			metrics.RefdataReloads.WithLabelValues("ok").Inc()
		}
	}

	metrics.BroadcastsApplied.WithLabelValues("reload").Inc()
	if c.forward != nil {
		c.forward.ForwardReload()
	}
}
