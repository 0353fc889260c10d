// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package notify holds the notification domain model, the enrichment rules
// that turn raw events into display-ready notifications, and the bounded
// deduplicating store each console session keeps in memory.
package notify

import (
	"fmt"
	"strconv"

	"github.com/platewatch/platewatch/internal/event"
)

// MaxItems bounds the in-memory notification list. Inserts beyond the
// bound truncate the oldest tail entries; CountAll keeps counting.
const MaxItems = 100

// Theme is applied uniformly to every popup.
const Theme = "dark"

// ToastIDPrefix prefixes the center-assigned row id to form the popup
// toast identity used by cross-tab close commands.
const ToastIDPrefix = "notification-list-toast-"

// Notification types.
const (
	TypeNewCheckpoint = "newCheckpoint"
	TypeNewCamera     = "newCamera"
	TypeRequestDelete = "requestDelete"
	TypeCameraOnline  = "cameraOnline"
	TypeCameraOffline = "cameraOffline"
)

// i18n keys rendered by attached tabs. The gateway never interpolates;
// variables travel alongside the keys.
const (
	TitleCameraOnline  = "alert.camera-online"
	TitleCameraOffline = "alert.camera-offline"
	TitleNewCheckpoint = "alert.new-checkpoint"
	TitleNewCamera     = "alert.new-camera"
	TitleRequestDelete = "alert.request-delete"

	// Offline popups lead with this attention line before the camera details.
	ContentCameraOffline = "alert.camera-offline-content-2"

	ContentNewCheckpoint = "alert.new-checkpoint-content"
	ContentNewCamera     = "alert.new-camera-content"
	ContentRequestDelete = "alert.request-delete-content"
)

// Close actions dispatched by a tab when the operator dismisses a popup.
const (
	CloseActionCameraStatus = "closeCameraStatusAlert"
	CloseActionGeneral      = "closeGeneralAlert"
)

// PopupStyle carries the presentation hints each popup renders with.
// Camera-offline popups are taller to fit the extra leading line.
type PopupStyle struct {
	Height string `json:"height"`
}

var (
	StyleOnline  = PopupStyle{Height: "220px"}
	StyleOffline = PopupStyle{Height: "250px"}
)

// Notification is one entry in a session's notification list. Content is
// an ordered mix of i18n keys and literal values; Variables holds values
// some keys interpolate. MessageID is the dedup identity and forms the
// popup toast id; ID is the row identity used for acknowledgment.
type Notification struct {
	ID          int64             `json:"id"`
	UserID      string            `json:"userId"`
	Type        string            `json:"type"`
	MessageID   string            `json:"messageId"`
	Title       string            `json:"title"`
	Content     []string          `json:"content"`
	Variables   map[string]string `json:"variables,omitempty"`
	IsOnline    bool              `json:"isOnline"`
	Theme       string            `json:"theme"`
	Style       PopupStyle        `json:"style"`
	CloseAction string            `json:"closeAction"`
	Timestamp   string            `json:"timestamp,omitempty"`
}

// ToastID returns the popup identity for cross-tab close commands.
func (n *Notification) ToastID() string {
	return ToastIDPrefix + n.MessageID
}

// FromCameraStatus builds the notification for a camera status transition.
// Offline popups lead with an extra attention line and render taller.
func FromCameraStatus(ev *event.CameraStatusEvent, userID string) *Notification {
	n := &Notification{
		ID:          ev.EventID,
		UserID:      userID,
		MessageID:   ev.CorrelationKey(),
		Theme:       Theme,
		Timestamp:   ev.Timestamp,
		CloseAction: CloseActionCameraStatus,
	}
	if ev.IsOnline() {
		n.Type = TypeCameraOnline
		n.IsOnline = true
		n.Title = TitleCameraOnline
		n.Content = []string{ev.CameraName, ev.CameraIP}
		n.Style = StyleOnline
	} else {
		n.Type = TypeCameraOffline
		n.IsOnline = false
		n.Title = TitleCameraOffline
		n.Content = []string{ContentCameraOffline, ev.CameraName, ev.CameraIP}
		n.Style = StyleOffline
	}
	return n
}

// FromCheckpointUpdate builds the notification for a checkpoint
// configuration change. A missing checkpoint name renders as "-".
func FromCheckpointUpdate(ev *event.CheckpointUpdateEvent, userID string) *Notification {
	name := ev.CheckpointName
	if name == "" {
		name = "-"
	}
	return &Notification{
		UserID:    userID,
		Type:      TypeNewCheckpoint,
		MessageID: ev.CorrelationKey(),
		Title:     TitleNewCheckpoint,
		Content:   []string{ContentNewCheckpoint},
		Variables: map[string]string{
			"checkpointName": name,
		},
		IsOnline:    true,
		Theme:       Theme,
		Style:       StyleOnline,
		CloseAction: CloseActionGeneral,
		Timestamp:   ev.CreatedAt,
	}
}

// FromCameraAdded builds the notification for a camera registration.
func FromCameraAdded(ev *event.CameraAddedEvent, userID string) *Notification {
	name := ev.CameraName
	if name == "" {
		name = "-"
	}
	return &Notification{
		UserID:    userID,
		Type:      TypeNewCamera,
		MessageID: ev.CorrelationKey(),
		Title:     TitleNewCamera,
		Content:   []string{ContentNewCamera},
		Variables: map[string]string{
			"cameraName": name,
		},
		IsOnline:    true,
		Theme:       Theme,
		Style:       StyleOnline,
		CloseAction: CloseActionGeneral,
		Timestamp:   ev.TimestampUTC,
	}
}

// FromDeleteRequest builds the notification for a camera deletion request.
// The displayed count is the event's running total plus the request that
// raised the event itself.
func FromDeleteRequest(ev *event.DeleteCameraRequestEvent, userID string) *Notification {
	return &Notification{
		UserID:    userID,
		Type:      TypeRequestDelete,
		MessageID: ev.CorrelationKey(),
		Title:     TitleRequestDelete,
		Content:   []string{ContentRequestDelete},
		Variables: map[string]string{
			"requestCount": strconv.Itoa(ev.AllRequestCount + 1),
		},
		IsOnline:    true,
		Theme:       Theme,
		Style:       StyleOnline,
		CloseAction: CloseActionGeneral,
		Timestamp:   ev.TimestampUTC,
	}
}

// FromBacklogRow rebuilds a notification from a persisted center row so a
// reconciled backlog entry renders identically to its live counterpart.
// Backlog rows key their dedup identity on the row id rather than the
// originating event id.
func FromBacklogRow(row *BacklogRow, userID string) (*Notification, error) {
	ev := &event.CameraStatusEvent{
		EventID:       row.EventID,
		CameraID:      row.CameraID,
		CameraName:    row.CameraName,
		CameraIP:      row.CameraIP,
		CurrentStatus: row.Status,
		Timestamp:     row.EventTimestamp,
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("backlog row %d: %w", row.ID, err)
	}
	n := FromCameraStatus(ev, userID)
	n.ID = row.ID
	n.MessageID = strconv.FormatInt(row.ID, 10) + "_" + row.EventTimestamp
	return n, nil
}

// BacklogRow is one unacknowledged notification row as persisted by the
// center service.
type BacklogRow struct {
	ID             int64  `json:"id"`
	EventID        int64  `json:"event_id"`
	CameraID       string `json:"camera_id"`
	CameraName     string `json:"camera_name"`
	CameraIP       string `json:"camera_ip"`
	Status         string `json:"current_status"`
	EventTimestamp string `json:"event_timestamp"`
	IsConfirm      bool   `json:"is_confirm"`
}
