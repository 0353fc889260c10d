// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package ingest

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/platewatch/platewatch/internal/event"
	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
)

// NATSSource consumes center events from broker topics instead of the
// SSE stream, for deployments where the center publishes to NATS. Frames
// carry the same wire shape as their SSE counterparts, so extraction and
// decoding are shared. Channel names map to topics as prefix + name.
type NATSSource struct {
	subscriber  message.Subscriber
	topicPrefix string
}

func NewNATSSource(sub message.Subscriber, topicPrefix string) *NATSSource {
	return &NATSSource{subscriber: sub, topicPrefix: topicPrefix}
}

// Subscribe attaches a handler to one named channel, consuming its topic
// on a background goroutine. The returned function stops the consumer.
// The signature matches Manager.Subscribe so a session can mix broker
// and stream channels behind one router.
func (s *NATSSource) Subscribe(ctx context.Context, name string, cdc bool, fn Handler) (func(), error) {
	topic := s.topicPrefix + name
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ch, err := s.subscriber.Subscribe(runCtx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	go func() { _ = s.consume(runCtx, topic, ch, cdc, fn) }()
	return cancel, nil
}

// Run consumes one topic until the context is canceled, handing each
// extracted record to the handler. The blocking form for supervised use.
func (s *NATSSource) Run(ctx context.Context, topic string, cdc bool, fn Handler) error {
	ch, err := s.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return s.consume(ctx, topic, ch, cdc, fn)
}

// consume drains one topic channel. Malformed frames are acked and
// skipped so they cannot wedge the consumer.
func (s *NATSSource) consume(ctx context.Context, topic string, ch <-chan *message.Message, cdc bool, fn Handler) error {
	metrics.IngestConnectionState.WithLabelValues("nats").Set(1)
	defer metrics.IngestConnectionState.WithLabelValues("nats").Set(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			metrics.EventsIngested.WithLabelValues(topic, "nats").Inc()

			record, err := event.ExtractRecord(msg.Payload, cdc)
			if err != nil {
				metrics.EventDecodeFailures.WithLabelValues(topic, "nats").Inc()
				logging.Warn().Err(err).Str("topic", topic).Str("message_uuid", msg.UUID).Msg("failed to extract event record")
				msg.Ack()
				continue
			}
			fn(record)
			msg.Ack()
		}
	}
}
