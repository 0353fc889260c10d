// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package broadcast

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewatch/platewatch/internal/notify"
)

type recordingForwarder struct {
	mu       sync.Mutex
	commands []Message
	reloads  int
}

func (f *recordingForwarder) ForwardCommand(m Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, m)
}

func (f *recordingForwarder) ForwardReload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
}

func (f *recordingForwarder) commandCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commands)
}

type countingReloader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingReloader) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func seedStore(t *testing.T) *notify.Store {
	t.Helper()
	s := notify.NewStore()
	for _, msgID := range []string{"101_a", "102_b", "103_c"} {
		require.True(t, s.Insert(&notify.Notification{
			Type:      notify.TypeCameraOffline,
			MessageID: msgID,
		}))
	}
	return s
}

func TestCoordinatorAppliesClose(t *testing.T) {
	store := seedStore(t)
	fwd := &recordingForwarder{}
	coord := NewCoordinator(store, nil, fwd)

	coord.Apply(context.Background(), Message{
		Action:    ActionCloseCameraStatus,
		MessageID: "102_b",
	})

	assert.Equal(t, 2, store.Len())
	assert.Nil(t, store.Get("102_b"))
	assert.Equal(t, 1, fwd.commandCount())
}

func TestCoordinatorCloseIsIdempotent(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil, nil)

	msg := Message{Action: ActionCloseCameraStatus, MessageID: "101_a"}
	coord.Apply(context.Background(), msg)
	// The same command relayed through another tab arrives again.
	coord.Apply(context.Background(), msg)

	assert.Equal(t, 2, store.Len())
	assert.NotNil(t, store.Get("102_b"))
	assert.NotNil(t, store.Get("103_c"))
}

func TestCoordinatorClearAll(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil, nil)

	coord.Apply(context.Background(), Message{Action: ActionClearAll})
	coord.Apply(context.Background(), Message{Action: ActionClearAll})

	assert.Equal(t, 0, store.Len())
	// Clearing the visible list leaves the all-time counter alone.
	assert.Equal(t, int64(3), store.CountAll())
}

func TestCoordinatorIgnoresCloseWithoutMessageID(t *testing.T) {
	store := seedStore(t)
	fwd := &recordingForwarder{}
	coord := NewCoordinator(store, nil, fwd)

	coord.Apply(context.Background(), Message{Action: ActionCloseGeneral})

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, 0, fwd.commandCount())
}

func TestCoordinatorReload(t *testing.T) {
	reloader := &countingReloader{}
	fwd := &recordingForwarder{}
	coord := NewCoordinator(notify.NewStore(), reloader, fwd)

	coord.ApplyReload(context.Background(), []byte(ReloadPayload))

	assert.Equal(t, 1, reloader.calls)
	assert.Equal(t, 1, fwd.reloads)
}

func TestCoordinatorReloadIgnoresUnknownSignal(t *testing.T) {
	reloader := &countingReloader{}
	coord := NewCoordinator(notify.NewStore(), reloader, nil)

	coord.ApplyReload(context.Background(), []byte("restart"))

	assert.Equal(t, 0, reloader.calls)
}
