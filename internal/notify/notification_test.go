// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewatch/platewatch/internal/event"
)

func TestFromCameraStatusOnline(t *testing.T) {
	ev := &event.CameraStatusEvent{
		EventID:       4021,
		CameraID:      "cam-17",
		CameraName:    "Gate Cam 3",
		CameraIP:      "10.0.40.13",
		CurrentStatus: "Online",
		Timestamp:     "2026-01-05T08:00:00Z",
	}

	n := FromCameraStatus(ev, "operator-a")

	assert.Equal(t, int64(4021), n.ID)
	assert.Equal(t, TypeCameraOnline, n.Type)
	assert.Equal(t, "4021_2026-01-05T08:00:00Z", n.MessageID)
	assert.Equal(t, TitleCameraOnline, n.Title)
	assert.Equal(t, []string{"Gate Cam 3", "10.0.40.13"}, n.Content)
	assert.True(t, n.IsOnline)
	assert.Equal(t, StyleOnline, n.Style)
	assert.Equal(t, CloseActionCameraStatus, n.CloseAction)
	assert.Equal(t, Theme, n.Theme)
	assert.Equal(t, ToastIDPrefix+"4021_2026-01-05T08:00:00Z", n.ToastID())
}

func TestFromCameraStatusOffline(t *testing.T) {
	ev := &event.CameraStatusEvent{
		EventID:       4022,
		CameraID:      "cam-17",
		CameraName:    "Gate Cam 3",
		CameraIP:      "10.0.40.13",
		CurrentStatus: "offline",
		Timestamp:     "2026-01-05T08:05:00Z",
	}

	n := FromCameraStatus(ev, "operator-a")

	assert.Equal(t, TypeCameraOffline, n.Type)
	assert.Equal(t, TitleCameraOffline, n.Title)
	// Offline popups lead with the attention line before the camera details.
	assert.Equal(t, []string{ContentCameraOffline, "Gate Cam 3", "10.0.40.13"}, n.Content)
	assert.False(t, n.IsOnline)
	assert.Equal(t, StyleOffline, n.Style)
}

func TestFromBacklogRowKeysOnRowID(t *testing.T) {
	row := &BacklogRow{
		ID:             910,
		EventID:        4022,
		CameraID:       "cam-17",
		CameraName:     "Gate Cam 3",
		CameraIP:       "10.0.40.13",
		Status:         "offline",
		EventTimestamp: "2026-01-05T08:05:00Z",
	}

	n, err := FromBacklogRow(row, "operator-a")
	require.NoError(t, err)

	assert.Equal(t, int64(910), n.ID)
	assert.Equal(t, "910_2026-01-05T08:05:00Z", n.MessageID)
	assert.Equal(t, TypeCameraOffline, n.Type)
	assert.Equal(t, []string{ContentCameraOffline, "Gate Cam 3", "10.0.40.13"}, n.Content)
}

func TestFromBacklogRowInvalid(t *testing.T) {
	row := &BacklogRow{ID: 911}

	_, err := FromBacklogRow(row, "operator-a")
	require.Error(t, err)
}

func TestFromCheckpointUpdateDefaultsName(t *testing.T) {
	n := FromCheckpointUpdate(&event.CheckpointUpdateEvent{CreatedAt: "2026-01-05T09:00:00Z"}, "operator-a")

	assert.Equal(t, TypeNewCheckpoint, n.Type)
	assert.Equal(t, TitleNewCheckpoint, n.Title)
	assert.Equal(t, []string{ContentNewCheckpoint}, n.Content)
	assert.Equal(t, "-", n.Variables["checkpointName"])
	assert.Equal(t, CloseActionGeneral, n.CloseAction)

	named := FromCheckpointUpdate(&event.CheckpointUpdateEvent{CheckpointName: "North Gate", CreatedAt: "2026-01-05T09:00:00Z"}, "operator-a")
	assert.Equal(t, "North Gate", named.Variables["checkpointName"])
}

func TestFromCameraAdded(t *testing.T) {
	n := FromCameraAdded(&event.CameraAddedEvent{CameraName: "Gate Cam 9", TimestampUTC: "2026-01-05T09:30:00Z"}, "operator-a")

	assert.Equal(t, TypeNewCamera, n.Type)
	assert.Equal(t, TitleNewCamera, n.Title)
	assert.Equal(t, "Gate Cam 9", n.Variables["cameraName"])
}

func TestFromDeleteRequestCountsRaisingRequest(t *testing.T) {
	n := FromDeleteRequest(&event.DeleteCameraRequestEvent{AllRequestCount: 3, TimestampUTC: "2026-01-05T10:00:00Z"}, "operator-a")

	assert.Equal(t, TypeRequestDelete, n.Type)
	// The running total predates the raising request, so display adds one.
	assert.Equal(t, "4", n.Variables["requestCount"])
}
