// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/platewatch/platewatch/internal/acksync"
	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/models"
	"github.com/platewatch/platewatch/internal/notify"
	ws "github.com/platewatch/platewatch/internal/websocket"
)

// Handler carries the dependencies of every HTTP endpoint.
type Handler struct {
	store     *notify.Store
	acks      *acksync.Manager
	session   SessionController
	hub       *ws.Hub
	upgrader  websocket.Upgrader
	startTime time.Time
}

// SessionController is the operator session lifecycle.
// Implemented by *session.Session.
type SessionController interface {
	Start(ctx context.Context, token string) error
	Stop()
	UserID() string
}

// NewHandler creates the API handler.
func NewHandler(store *notify.Store, acks *acksync.Manager, sess SessionController, hub *ws.Hub) *Handler {
	return &Handler{
		store:   store,
		acks:    acks,
		session: sess,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware;
			// the upgrade itself accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
}

// Health reports liveness and basic runtime state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"session_user":   h.session.UserID(),
		"tabs":           h.hub.ClientCount(),
		"notifications":  h.store.Len(),
	})
}

// Notifications returns the bounded notification list and the running
// total of everything that entered it.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, &models.NotificationListResponse{
		List:     h.store.List(),
		CountAll: h.store.CountAll(),
	})
}

// Ack acknowledges one notification by its messageId.
func (h *Handler) Ack(w http.ResponseWriter, r *http.Request) {
	var req models.AckRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.acks.Acknowledge(r.Context(), req.MessageID); err != nil {
		if errors.Is(err, acksync.ErrUnknownNotification) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "No notification with that messageId", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "ACK_FAILED", "Failed to acknowledge notification", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]any{"messageId": req.MessageID})
}

// ClearAll acknowledges every listed notification and clears the list.
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.acks.ClearAll(r.Context())
	respondSuccess(w, http.StatusOK, map[string]any{"cleared": true})
}

// SessionStart opens the operator session for a console token.
func (h *Handler) SessionStart(w http.ResponseWriter, r *http.Request) {
	var req models.SessionStartRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.session.Start(r.Context(), req.Token); err != nil {
		respondError(w, http.StatusConflict, "SESSION_START_FAILED", err.Error(), err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]any{"userId": h.session.UserID()})
}

// SessionStop closes the operator session.
func (h *Handler) SessionStop(w http.ResponseWriter, r *http.Request) {
	h.session.Stop()
	respondSuccess(w, http.StatusOK, map[string]any{"stopped": true})
}

// WebSocket upgrades the connection and attaches the tab to the hub.
// The tab immediately receives a notification snapshot.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
