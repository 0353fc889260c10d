// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package models

import "github.com/platewatch/platewatch/internal/notify"

// AckRequest asks the gateway to acknowledge one notification.
type AckRequest struct {
	MessageID string `json:"messageId" validate:"required"`
}

// SessionStartRequest opens the operator session for a console token.
type SessionStartRequest struct {
	Token string `json:"token" validate:"required"`
}

// NotificationListResponse is the payload of the notification list
// endpoint: the bounded list plus the running total of everything seen
// since the session started.
type NotificationListResponse struct {
	List     []*notify.Notification `json:"list"`
	CountAll int64                  `json:"countAll"`
}
