// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package notify

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func camNotification(id int64, messageID string) *Notification {
	return &Notification{
		ID:          id,
		Type:        TypeCameraOffline,
		MessageID:   messageID,
		Title:       TitleCameraOffline,
		Content:     []string{ContentCameraOffline, "Gate Cam 3", "10.0.40.13"},
		Theme:       Theme,
		Style:       StyleOffline,
		CloseAction: CloseActionCameraStatus,
	}
}

func TestStoreInsertDeduplicates(t *testing.T) {
	s := NewStore()

	require.True(t, s.Insert(camNotification(1, "101_2026-01-05T08:00:00Z")))
	require.False(t, s.Insert(camNotification(1, "101_2026-01-05T08:00:00Z")))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(1), s.CountAll())
}

func TestStoreInsertNewestFirst(t *testing.T) {
	s := NewStore()

	for i := 1; i <= 3; i++ {
		require.True(t, s.Insert(camNotification(int64(i), fmt.Sprintf("msg-%d", i))))
	}

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "msg-3", list[0].MessageID)
	assert.Equal(t, "msg-2", list[1].MessageID)
	assert.Equal(t, "msg-1", list[2].MessageID)
}

func TestStoreCapacityBound(t *testing.T) {
	s := NewStore()

	for i := 0; i < MaxItems+25; i++ {
		s.Insert(camNotification(int64(i), fmt.Sprintf("msg-%d", i)))
	}

	assert.Equal(t, MaxItems, s.Len())
	// The counter keeps growing past the cap.
	assert.Equal(t, int64(MaxItems+25), s.CountAll())

	// Oldest entries fell off the tail; the newest survive.
	list := s.List()
	assert.Equal(t, fmt.Sprintf("msg-%d", MaxItems+24), list[0].MessageID)
	assert.Equal(t, "msg-25", list[len(list)-1].MessageID)
	assert.Nil(t, s.Get("msg-0"))
}

func TestStoreReplaceAll(t *testing.T) {
	s := NewStore()
	s.Insert(camNotification(1, "live-1"))

	backlog := make([]*Notification, 0, MaxItems+10)
	for i := 0; i < MaxItems+10; i++ {
		backlog = append(backlog, camNotification(int64(i), fmt.Sprintf("row-%d", i)))
	}
	s.ReplaceAll(backlog, int64(len(backlog)))

	assert.Equal(t, MaxItems, s.Len())
	assert.Equal(t, int64(MaxItems+10), s.CountAll())
	assert.Nil(t, s.Get("live-1"))
	assert.NotNil(t, s.Get("row-0"))
}

func TestStoreRemoveIdempotent(t *testing.T) {
	s := NewStore()
	s.Insert(camNotification(1, "msg-1"))
	s.Insert(camNotification(2, "msg-2"))

	require.True(t, s.Remove("msg-1"))
	// A close command echoed from another tab removes nothing the
	// second time and must not disturb the rest of the list.
	require.False(t, s.Remove("msg-1"))

	assert.Equal(t, 1, s.Len())
	assert.NotNil(t, s.Get("msg-2"))
}

func TestStoreClearByUser(t *testing.T) {
	s := NewStore()
	a := camNotification(1, "msg-1")
	a.UserID = "operator-a"
	b := camNotification(2, "msg-2")
	b.UserID = "operator-b"
	s.Insert(a)
	s.Insert(b)

	s.ClearByUser("operator-a")

	assert.Equal(t, 1, s.Len())
	assert.Nil(t, s.Get("msg-1"))
	assert.NotNil(t, s.Get("msg-2"))
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	s.Insert(camNotification(1, "msg-1"))

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int64(0), s.CountAll())
}

func TestStoreConcurrentInsert(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Insert(camNotification(int64(i), fmt.Sprintf("g%d-msg-%d", g, i)))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, MaxItems, s.Len())
	assert.Equal(t, int64(400), s.CountAll())
}
