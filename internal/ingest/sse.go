// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package ingest delivers live center events to the session. One shared
// SSE connection per gateway fans named events out to subscribers; an
// alternative NATS source serves deployments where the center publishes
// to a broker instead.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultHandshakeTimeout bounds the wait for response headers when no
// timeout is configured, so a silent endpoint cannot hang the dial.
const defaultHandshakeTimeout = 15 * time.Second

// SSEEvent is one named server-sent event.
type SSEEvent struct {
	Name string
	Data []byte
}

// SSEConfig holds the stream connection settings. The token travels as a
// query parameter, matching what the center's stream endpoint expects.
type SSEConfig struct {
	URL   string `koanf:"url"`
	Token string `koanf:"token"`

	// HandshakeTimeout bounds the initial connect; the established
	// stream itself has no read deadline.
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
}

// SSEConnection is a single live event stream. The connection does not
// reconnect on its own; the supervisor restarts the owning service when
// the stream drops.
type SSEConnection struct {
	resp   *http.Response
	events chan SSEEvent
	errs   chan error
}

// DialSSE opens the stream and starts the read loop. The stream ends
// when ctx is canceled or the server closes the connection; either way
// the events channel is closed and the terminal error is delivered on
// Errors.
func DialSSE(ctx context.Context, cfg SSEConfig) (*SSEConnection, error) {
	endpoint := cfg.URL
	if cfg.Token != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + "token=" + url.QueryEscape(cfg.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	handshake := cfg.HandshakeTimeout
	if handshake <= 0 {
		handshake = defaultHandshakeTimeout
	}
	client := &http.Client{
		Timeout: 0, // the stream stays open indefinitely
		Transport: &http.Transport{
			ResponseHeaderTimeout: handshake,
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("stream endpoint returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("stream endpoint returned content type %q", ct)
	}

	c := &SSEConnection{
		resp:   resp,
		events: make(chan SSEEvent, 64),
		errs:   make(chan error, 1),
	}
	go c.readLoop()
	return c, nil
}

// Events yields parsed events until the stream ends.
func (c *SSEConnection) Events() <-chan SSEEvent { return c.events }

// Errors delivers the terminal stream error, if any.
func (c *SSEConnection) Errors() <-chan error { return c.errs }

// Close tears the stream down.
func (c *SSEConnection) Close() error {
	return c.resp.Body.Close()
}

// readLoop parses the text/event-stream wire format: "event:" and
// "data:" fields accumulate until a blank line dispatches the event.
// Comment lines (leading colon) and unknown fields are skipped.
func (c *SSEConnection) readLoop() {
	defer close(c.events)

	scanner := bufio.NewScanner(c.resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		name string
		data strings.Builder
	)

	flush := func() {
		if data.Len() == 0 {
			name = ""
			return
		}
		c.events <- SSEEvent{Name: name, Data: []byte(data.String())}
		name = ""
		data.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		c.errs <- err
	}
	close(c.errs)
}
