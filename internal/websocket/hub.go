// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/platewatch/platewatch/internal/broadcast"
	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
	"github.com/platewatch/platewatch/internal/notify"
)

// Message types pushed to attached tabs.
const (
	MessageTypeNotificationAlert    = "notification_alert"
	MessageTypeNotificationSnapshot = "notification_snapshot"
	MessageTypeToastCommand         = "toast_command"
	MessageTypeLiveFeed             = "live_feed"
	MessageTypeDetectionAlert       = "detection_alert"
	MessageTypeRefdataReload        = "refdata_reload"
	MessageTypePing                 = "ping"
	MessageTypePong                 = "pong"
)

// Inbound message types from tabs.
const (
	MessageTypeAck      = "ack"
	MessageTypeClearAll = "clear_all"
)

// Message is one frame on a tab connection, in either direction.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Commands handles operator actions arriving from a tab.
// Implemented by *acksync.Manager.
type Commands interface {
	Acknowledge(ctx context.Context, messageID string) error
	ClearAll(ctx context.Context)
}

// Hub fans session state out to every attached tab and routes tab
// actions into the acknowledgment flow.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	broadcast chan Message
	commands  Commands

	mu      sync.RWMutex
	clients map[*Client]bool

	// done is closed when the current run ends, so read pumps that
	// outlive the hub can detach without blocking on Unregister.
	done chan struct{}

	// snapshot source for newly attached tabs
	store *notify.Store
}

// NewHub creates a hub. The store seeds the snapshot a tab receives on
// attach; commands may be nil until SetCommands is called.
func NewHub(store *notify.Store) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan Message, 256),
		clients:    make(map[*Client]bool),
		store:      store,
	}
}

// SetCommands wires the handler for inbound tab actions.
func (h *Hub) SetCommands(c Commands) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = c
}

func (h *Hub) getCommands() Commands {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.commands
}

// closedChan stands in for the done channel of a hub that never ran.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// stopped reports the end of the current run.
func (h *Hub) stopped() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.done == nil {
		return closedChan
	}
	return h.done
}

// RunWithContext runs the hub until the context is canceled, then closes
// every attached tab. Lifecycle events take priority over broadcasts so
// client state settles before messages flow.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_tabs", total).Msg("console tab attached")

	// Seed the new tab so it renders the current list without waiting
	// for the next event.
	if h.store != nil {
		client.trySend(Message{
			Type: MessageTypeNotificationSnapshot,
			Data: SnapshotData{List: h.store.List(), CountAll: h.store.CountAll()},
		})
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_tabs", total).Msg("console tab detached")
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("tabs_closed", len(clients)).
		Msg("websocket hub stopped")
}

// broadcastToClients delivers one message to every tab in id order. Tabs
// whose send buffer is full are dropped; their read pump re-registers on
// reconnect.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// SnapshotData carries the full list state for snapshot pushes.
type SnapshotData struct {
	List     []*notify.Notification `json:"list"`
	CountAll int64                  `json:"countAll"`
}

// BroadcastNotification pushes one new notification to every tab.
func (h *Hub) BroadcastNotification(n *notify.Notification) {
	h.enqueue(Message{Type: MessageTypeNotificationAlert, Data: n})
}

// PushSnapshot pushes the whole reconciled list.
// Implements backlog.SnapshotPusher.
func (h *Hub) PushSnapshot(list []*notify.Notification, countAll int64) {
	h.enqueue(Message{Type: MessageTypeNotificationSnapshot, Data: SnapshotData{List: list, CountAll: countAll}})
}

// ForwardCommand relays a cross-tab close or clear command.
// Implements broadcast.Forwarder.
func (h *Hub) ForwardCommand(m broadcast.Message) {
	h.enqueue(Message{Type: MessageTypeToastCommand, Data: m})
}

// ForwardReload tells tabs to drop cached reference data.
// Implements broadcast.Forwarder.
func (h *Hub) ForwardReload() {
	h.enqueue(Message{Type: MessageTypeRefdataReload, Data: nil})
}

// BroadcastLiveFeed pushes a raw detection record for the live feed pane.
func (h *Hub) BroadcastLiveFeed(record any) {
	h.enqueue(Message{Type: MessageTypeLiveFeed, Data: record})
}

// BroadcastDetectionAlert pushes an enriched watchlist hit.
func (h *Hub) BroadcastDetectionAlert(alert *notify.DetectionAlert) {
	h.enqueue(Message{Type: MessageTypeDetectionAlert, Data: alert})
}

// ClientCount returns the number of attached tabs.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ broadcast.Forwarder = (*Hub)(nil)
