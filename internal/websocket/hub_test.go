// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewatch/platewatch/internal/broadcast"
	"github.com/platewatch/platewatch/internal/notify"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// testHarness runs a hub behind an upgrading test server.
type testHarness struct {
	hub    *Hub
	srv    *httptest.Server
	cancel context.CancelFunc
}

func newHarness(t *testing.T, store *notify.Store) *testHarness {
	t.Helper()

	hub := NewHub(store)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		client := NewClient(hub, conn)
		hub.Register <- client
		client.Start()
	}))

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testHarness{hub: hub, srv: srv, cancel: cancel}
}

func (h *testHarness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubSeedsSnapshotOnAttach(t *testing.T) {
	store := notify.NewStore()
	store.Insert(&notify.Notification{ID: 910, MessageID: "910_a", Type: notify.TypeCameraOffline})
	h := newHarness(t, store)

	conn := h.dial(t)
	msg := readMessage(t, conn)

	assert.Equal(t, MessageTypeNotificationSnapshot, msg.Type)
	data, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	var snap SnapshotData
	require.NoError(t, json.Unmarshal(data, &snap))
	require.Len(t, snap.List, 1)
	assert.Equal(t, "910_a", snap.List[0].MessageID)
	assert.Equal(t, int64(1), snap.CountAll)
}

func TestHubBroadcastsToAllTabs(t *testing.T) {
	h := newHarness(t, notify.NewStore())

	conn1 := h.dial(t)
	conn2 := h.dial(t)
	readMessage(t, conn1) // initial snapshots
	readMessage(t, conn2)

	require.Eventually(t, func() bool { return h.hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	h.hub.BroadcastNotification(&notify.Notification{ID: 911, MessageID: "911_b", Type: notify.TypeCameraOnline})

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeNotificationAlert, msg.Type)
	}
}

func TestHubForwardsToastCommands(t *testing.T) {
	h := newHarness(t, notify.NewStore())
	conn := h.dial(t)
	readMessage(t, conn)

	h.hub.ForwardCommand(broadcast.Message{
		Action:    broadcast.ActionCloseCameraStatus,
		ToastID:   notify.ToastIDPrefix + "911_b",
		MessageID: "911_b",
	})

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeToastCommand, msg.Type)

	data, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	var cmd broadcast.Message
	require.NoError(t, json.Unmarshal(data, &cmd))
	assert.Equal(t, broadcast.ActionCloseCameraStatus, cmd.Action)
	assert.Equal(t, "911_b", cmd.MessageID)
}

type recordedCommands struct {
	mu        sync.Mutex
	acks      []string
	clearAlls int
}

func (c *recordedCommands) Acknowledge(ctx context.Context, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acks = append(c.acks, messageID)
	return nil
}

func (c *recordedCommands) ClearAll(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearAlls++
}

func TestHubRoutesInboundAck(t *testing.T) {
	h := newHarness(t, notify.NewStore())
	commands := &recordedCommands{}
	h.hub.SetCommands(commands)

	conn := h.dial(t)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{
		Type: MessageTypeAck,
		Data: map[string]any{"messageId": "911_b"},
	}))

	require.Eventually(t, func() bool {
		commands.mu.Lock()
		defer commands.mu.Unlock()
		return len(commands.acks) == 1 && commands.acks[0] == "911_b"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubRoutesInboundClearAll(t *testing.T) {
	h := newHarness(t, notify.NewStore())
	commands := &recordedCommands{}
	h.hub.SetCommands(commands)

	conn := h.dial(t)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeClearAll}))

	require.Eventually(t, func() bool {
		commands.mu.Lock()
		defer commands.mu.Unlock()
		return commands.clearAlls == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClientDetachAfterHubStops(t *testing.T) {
	hub := NewHub(notify.NewStore())

	// Before the hub ever runs, detach must not block either.
	idle := NewClient(hub, nil)
	idleDone := make(chan struct{})
	go func() {
		idle.detach()
		close(idleDone)
	}()
	select {
	case <-idleDone:
	case <-time.After(2 * time.Second):
		t.Fatal("detach blocked on a hub that never ran")
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = hub.RunWithContext(ctx)
	}()

	client := NewClient(hub, nil)
	hub.Register <- client
	cancel()
	<-runDone

	// The read pump of a tab that noticed the drop late hands itself
	// back after the hub stopped draining Unregister.
	detached := make(chan struct{})
	go func() {
		client.detach()
		close(detached)
	}()
	select {
	case <-detached:
	case <-time.After(2 * time.Second):
		t.Fatal("detach blocked after hub shutdown")
	}
}

func TestHubShutdownClosesTabs(t *testing.T) {
	h := newHarness(t, notify.NewStore())
	conn := h.dial(t)
	readMessage(t, conn)

	require.Eventually(t, func() bool { return h.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	h.cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			// Either a close frame or a dropped connection ends the read.
			return
		}
	}
}
