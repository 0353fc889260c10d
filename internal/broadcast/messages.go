// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package broadcast keeps every attached console tab converged. Close and
// clear commands fan out over a NATS-backed bus; a second channel carries
// reference-data reload signals. Applying a command is idempotent, and the
// echo a publisher receives of its own message is how its own other tabs
// learn of the close.
package broadcast

import (
	"github.com/goccy/go-json"
)

// Actions carried on the toast channel.
const (
	ActionCloseCameraStatus = "closeCameraStatusAlert"
	ActionCloseGeneral      = "closeGeneralAlert"
	ActionClearAll          = "clear-all"
)

// ReloadPayload is the bare signal carried on the reference-data channel.
const ReloadPayload = "reload"

// Message is one cross-tab command. Close commands carry the popup
// identity and the render payload the receiving tab updates the popup
// with; clear-all carries only the action.
type Message struct {
	Action    string          `json:"action"`
	ToastID   string          `json:"toastId,omitempty"`
	ID        int64           `json:"id,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	// Origin identifies the publishing gateway instance, for tracing.
	Origin string `json:"origin,omitempty"`
}

// ClosePayload is the render state a close command carries so the
// receiving tab can flip the popup to its dismissed form.
type ClosePayload struct {
	UpdateVisible bool     `json:"updateVisible"`
	IsSuccess     bool     `json:"isSuccess"`
	Theme         string   `json:"theme,omitempty"`
	Style         any      `json:"style,omitempty"`
	Type          string   `json:"type,omitempty"`
	Title         string   `json:"title,omitempty"`
	Content       []string `json:"content,omitempty"`
	Variables     any      `json:"variables,omitempty"`
	IsOnline      bool     `json:"isOnline"`
}
