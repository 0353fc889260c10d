// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewatch/platewatch/internal/notify"
)

// twoBuses returns two bus instances sharing one in-process transport,
// standing in for two gateway instances on the same NATS subjects.
func twoBuses(t *testing.T) (*Bus, *Bus) {
	t.Helper()
	// Persistent delivery hands earlier messages to late subscribers,
	// which keeps the tests free of subscribe/publish races.
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	a := NewBus(pubSub, pubSub, DefaultTopics())
	b := NewBus(pubSub, pubSub, DefaultTopics())
	return a, b
}

func TestBusCloseReachesPeer(t *testing.T) {
	busA, busB := twoBuses(t)

	storeB := notify.NewStore()
	n := &notify.Notification{
		ID:          910,
		Type:        notify.TypeCameraOffline,
		MessageID:   "910_2026-01-05T08:05:00Z",
		Title:       notify.TitleCameraOffline,
		CloseAction: notify.CloseActionCameraStatus,
	}
	require.True(t, storeB.Insert(n))

	fwd := &recordingForwarder{}
	coord := NewCoordinator(storeB, nil, fwd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = busB.Run(ctx, coord)
	}()

	require.NoError(t, busA.PublishClose(context.Background(), n))

	require.Eventually(t, func() bool {
		return storeB.Get(n.MessageID) == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return fwd.commandCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	fwd.mu.Lock()
	got := fwd.commands[0]
	fwd.mu.Unlock()
	assert.Equal(t, ActionCloseCameraStatus, got.Action)
	assert.Equal(t, notify.ToastIDPrefix+n.MessageID, got.ToastID)
	assert.Equal(t, int64(910), got.ID)

	cancel()
	<-done
}

func TestBusOwnEchoReachesLocalTabs(t *testing.T) {
	busA, _ := twoBuses(t)

	storeA := notify.NewStore()
	n := &notify.Notification{
		ID:        1,
		Type:      notify.TypeCameraOnline,
		MessageID: "1_echo",
	}
	require.True(t, storeA.Insert(n))

	fwd := &recordingForwarder{}
	coord := NewCoordinator(storeA, nil, fwd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = busA.Run(ctx, coord) }()

	// The publisher consumes its own topic too. Without the echo, a
	// single-gateway deployment would never forward close commands to
	// its own other tabs.
	require.NoError(t, busA.PublishClose(context.Background(), n))

	require.Eventually(t, func() bool {
		return fwd.commandCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Nil(t, storeA.Get(n.MessageID))
}

func TestBusClearAllReachesPeer(t *testing.T) {
	busA, busB := twoBuses(t)

	storeB := seedStore(t)
	coord := NewCoordinator(storeB, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = busB.Run(ctx, coord) }()

	require.NoError(t, busA.PublishClearAll(context.Background()))

	require.Eventually(t, func() bool {
		return storeB.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBusReloadReachesPeer(t *testing.T) {
	busA, busB := twoBuses(t)

	reloader := &countingReloader{}
	coord := NewCoordinator(notify.NewStore(), reloader, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = busB.Run(ctx, coord) }()

	require.NoError(t, busA.PublishReload(context.Background()))

	require.Eventually(t, func() bool {
		reloader.mu.Lock()
		defer reloader.mu.Unlock()
		return reloader.calls == 1
	}, 2*time.Second, 10*time.Millisecond)
}
