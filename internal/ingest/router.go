// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package ingest

import (
	"context"
)

// ChannelSource attaches a handler to one named live channel.
// Implemented by *Manager and *NATSSource.
type ChannelSource interface {
	Subscribe(ctx context.Context, name string, cdc bool, fn Handler) (func(), error)
}

// SourceRouter picks a source per channel: names listed as broker
// channels subscribe through the broker source, everything else through
// the stream. The session sees one subscriber either way.
type SourceRouter struct {
	stream ChannelSource
	broker ChannelSource

	brokerChannels map[string]bool
}

// NewSourceRouter creates a router. With a nil broker source every
// channel goes to the stream regardless of the channel list.
func NewSourceRouter(stream, broker ChannelSource, brokerChannels []string) *SourceRouter {
	set := make(map[string]bool, len(brokerChannels))
	for _, name := range brokerChannels {
		set[name] = true
	}
	return &SourceRouter{
		stream:         stream,
		broker:         broker,
		brokerChannels: set,
	}
}

// Subscribe routes the channel to its source.
func (r *SourceRouter) Subscribe(ctx context.Context, name string, cdc bool, fn Handler) (func(), error) {
	if r.broker != nil && r.brokerChannels[name] {
		return r.broker.Subscribe(ctx, name, cdc, fn)
	}
	return r.stream.Subscribe(ctx, name, cdc, fn)
}
