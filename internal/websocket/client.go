// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/platewatch/platewatch/internal/acksync"
	"github.com/platewatch/platewatch/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// clientIDCounter assigns ids so broadcast order is stable.
var clientIDCounter atomic.Uint64

// Client is one attached console tab.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

func (c *Client) ID() uint64 {
	return c.id
}

// detach hands the client back to the hub. A hub that has already
// stopped no longer drains Unregister, so the send is abandoned then.
func (c *Client) detach() {
	select {
	case c.hub.Unregister <- c:
	case <-c.hub.stopped():
	}
}

// trySend queues a message directly to this client, dropping it if the
// buffer is full.
func (c *Client) trySend(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// readPump consumes frames from the tab: acknowledgments, bulk clears,
// and pings. It unregisters the client when the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.detach()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		c.handleInbound(msg)
	}
}

func (c *Client) handleInbound(msg Message) {
	switch msg.Type {
	case MessageTypePing:
		c.trySend(Message{Type: MessageTypePong})

	case MessageTypeAck:
		commands := c.hub.getCommands()
		if commands == nil {
			return
		}
		messageID := extractMessageID(msg.Data)
		if messageID == "" {
			logging.Warn().Msg("ack frame without messageId")
			return
		}
		if err := commands.Acknowledge(context.Background(), messageID); err != nil {
			if !errors.Is(err, acksync.ErrUnknownNotification) {
				logging.Warn().Err(err).Str("message_id", messageID).Msg("acknowledge failed")
			}
		}

	case MessageTypeClearAll:
		if commands := c.hub.getCommands(); commands != nil {
			commands.ClearAll(context.Background())
		}
	}
}

// extractMessageID digs the messageId out of a decoded ack payload.
func extractMessageID(data any) string {
	obj, ok := data.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := obj["messageId"].(string)
	return id
}

// writePump delivers hub messages and keepalive pings to the tab.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
