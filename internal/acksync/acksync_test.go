// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package acksync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewatch/platewatch/internal/broadcast"
	"github.com/platewatch/platewatch/internal/notify"
)

type fakePublisher struct {
	mu        sync.Mutex
	closes    []string
	clearAlls int
	err       error
}

func (p *fakePublisher) PublishClose(ctx context.Context, n *notify.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes = append(p.closes, n.MessageID)
	return p.err
}

func (p *fakePublisher) PublishClearAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearAlls++
	return p.err
}

type fakeConfirmer struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (c *fakeConfirmer) ConfirmNotification(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	return c.err
}

type fakeReconciler struct {
	calls int
}

func (r *fakeReconciler) Reconcile(ctx context.Context) { r.calls++ }

func seededStore(t *testing.T) *notify.Store {
	t.Helper()
	s := notify.NewStore()
	for i, msgID := range []string{"910_a", "911_b", "912_c"} {
		require.True(t, s.Insert(&notify.Notification{
			ID:          int64(910 + i),
			Type:        notify.TypeCameraOffline,
			MessageID:   msgID,
			CloseAction: notify.CloseActionCameraStatus,
		}))
	}
	return s
}

func TestAcknowledge(t *testing.T) {
	store := seededStore(t)
	pub := &fakePublisher{}
	conf := &fakeConfirmer{}
	m := NewManager(store, pub, conf, nil)

	require.NoError(t, m.Acknowledge(context.Background(), "911_b"))

	assert.Equal(t, 2, store.Len())
	assert.Nil(t, store.Get("911_b"))
	assert.Equal(t, []string{"911_b"}, pub.closes)
	assert.Equal(t, []int64{911}, conf.ids)
}

func TestAcknowledgeUnknown(t *testing.T) {
	m := NewManager(notify.NewStore(), &fakePublisher{}, &fakeConfirmer{}, nil)

	err := m.Acknowledge(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownNotification)
}

func TestAcknowledgeConfirmFailureIsNotRolledBack(t *testing.T) {
	store := seededStore(t)
	conf := &fakeConfirmer{err: errors.New("center unreachable")}
	m := NewManager(store, &fakePublisher{}, conf, nil)

	require.NoError(t, m.Acknowledge(context.Background(), "910_a"))

	// The entry stays removed even though the confirmation failed.
	assert.Nil(t, store.Get("910_a"))
	assert.Equal(t, 2, store.Len())
}

func TestAcknowledgeBroadcastFailureStillConfirms(t *testing.T) {
	store := seededStore(t)
	pub := &fakePublisher{err: errors.New("bus down")}
	conf := &fakeConfirmer{}
	m := NewManager(store, pub, conf, nil)

	require.NoError(t, m.Acknowledge(context.Background(), "910_a"))

	assert.Nil(t, store.Get("910_a"))
	assert.Equal(t, []int64{910}, conf.ids)
}

func TestClearAll(t *testing.T) {
	store := seededStore(t)
	pub := &fakePublisher{}
	conf := &fakeConfirmer{}
	rec := &fakeReconciler{}
	m := NewManager(store, pub, conf, rec)

	m.ClearAll(context.Background())

	// One close per row, newest first, then a single clear-all.
	assert.Equal(t, []string{"912_c", "911_b", "910_a"}, pub.closes)
	assert.Equal(t, 1, pub.clearAlls)
	assert.ElementsMatch(t, []int64{910, 911, 912}, conf.ids)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 1, rec.calls)
}

func TestClearAllEmptyList(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeReconciler{}
	m := NewManager(notify.NewStore(), pub, &fakeConfirmer{}, rec)

	m.ClearAll(context.Background())

	assert.Empty(t, pub.closes)
	assert.Equal(t, 1, pub.clearAlls)
	assert.Equal(t, 1, rec.calls)
}

type countingForwarder struct {
	mu       sync.Mutex
	commands []broadcast.Message
}

func (f *countingForwarder) ForwardCommand(m broadcast.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, m)
}

func (f *countingForwarder) ForwardReload() {}

// A single gateway publishes and consumes the same subjects. The
// acknowledging tab's close must come back around the bus and reach the
// other locally attached tabs as a toast command.
func TestAcknowledgeReachesLocalTabsOverBus(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	bus := broadcast.NewBus(pubSub, pubSub, broadcast.DefaultTopics())

	store := seededStore(t)
	fwd := &countingForwarder{}
	coord := broadcast.NewCoordinator(store, nil, fwd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx, coord)
	}()

	m := NewManager(store, bus, &fakeConfirmer{}, nil)
	require.NoError(t, m.Acknowledge(context.Background(), "911_b"))

	require.Eventually(t, func() bool {
		fwd.mu.Lock()
		defer fwd.mu.Unlock()
		return len(fwd.commands) == 1
	}, 2*time.Second, 10*time.Millisecond)

	fwd.mu.Lock()
	got := fwd.commands[0]
	fwd.mu.Unlock()
	assert.Equal(t, broadcast.ActionCloseCameraStatus, got.Action)
	assert.Equal(t, "911_b", got.MessageID)
	assert.Nil(t, store.Get("911_b"))

	cancel()
	<-done
}
