// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/google/uuid"

	"github.com/goccy/go-json"

	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/metrics"
	"github.com/platewatch/platewatch/internal/notify"
)

// Topics names the bus channels. Toast carries close and clear-all
// commands; Refdata carries bare reload signals.
type Topics struct {
	Toast   string
	Refdata string
}

// DefaultTopics returns the production channel names.
func DefaultTopics() Topics {
	return Topics{
		Toast:   "console.toast",
		Refdata: "console.refdata",
	}
}

// NATSConfig holds the connection settings for the NATS-backed bus.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	CloseTimeout  time.Duration
}

// Bus publishes and consumes cross-tab commands. The transport is any
// watermill publisher/subscriber pair; production wires NATS, tests wire
// an in-process channel.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topics     Topics

	// origin tags outgoing messages with the publishing instance, for
	// tracing across gateways. Echoes are consumed like any other
	// message; applying a command twice is a no-op.
	origin string
}

// NewBus wraps an existing publisher/subscriber pair.
func NewBus(pub message.Publisher, sub message.Subscriber, topics Topics) *Bus {
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		topics:     topics,
		origin:     uuid.NewString(),
	}
}

// NewNATSBus connects a bus over core NATS. Commands are ephemeral tab
// coordination, so the channels run without JetStream persistence.
func NewNATSBus(cfg NATSConfig, topics Topics, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	natsOpts := natsOptions(cfg, logger)

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create bus publisher: %w", err)
	}

	sub, err := newNATSSubscriber(cfg, natsOpts, logger)
	if err != nil {
		if cerr := pub.Close(); cerr != nil {
			logger.Error("close bus publisher", cerr, nil)
		}
		return nil, err
	}

	return NewBus(pub, sub, topics), nil
}

// NewNATSSubscriber opens a standalone core-NATS subscriber with the
// same connection settings as the bus. The ingest layer uses it for
// event topics that the center publishes to a broker.
func NewNATSSubscriber(cfg NATSConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	return newNATSSubscriber(cfg, natsOptions(cfg, logger), logger)
}

func newNATSSubscriber(cfg NATSConfig, natsOpts []natsgo.Option, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:          cfg.URL,
		CloseTimeout: cfg.CloseTimeout,
		NatsOptions:  natsOpts,
		Unmarshaler:  &wmNats.NATSMarshaler{},
		JetStream:    wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create bus subscriber: %w", err)
	}
	return sub, nil
}

func natsOptions(cfg NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("bus disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("bus reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}
}

// Origin returns this instance's echo tag.
func (b *Bus) Origin() string {
	return b.origin
}

// PublishClose broadcasts a popup dismissal so every attached tab drops
// the entry and flips the popup to its dismissed form.
func (b *Bus) PublishClose(ctx context.Context, n *notify.Notification) error {
	payload, err := json.Marshal(ClosePayload{
		IsSuccess: true,
		Theme:     n.Theme,
		Style:     n.Style,
		Type:      n.Type,
		Title:     n.Title,
		Content:   n.Content,
		Variables: n.Variables,
		IsOnline:  n.IsOnline,
	})
	if err != nil {
		return fmt.Errorf("marshal close payload: %w", err)
	}

	action := n.CloseAction
	if action == "" {
		action = ActionCloseGeneral
	}
	return b.publish(ctx, b.topics.Toast, Message{
		Action:    action,
		ToastID:   n.ToastID(),
		ID:        n.ID,
		MessageID: n.MessageID,
		Data:      payload,
	})
}

// PublishClearAll broadcasts a list-wide clear.
func (b *Bus) PublishClearAll(ctx context.Context) error {
	return b.publish(ctx, b.topics.Toast, Message{Action: ActionClearAll})
}

// PublishReload signals every tab to refetch its reference data.
func (b *Bus) PublishReload(ctx context.Context) error {
	msg := message.NewMessage(uuid.NewString(), []byte(ReloadPayload))
	if err := b.publisher.Publish(b.topics.Refdata, msg); err != nil {
		return fmt.Errorf("publish reload: %w", err)
	}
	metrics.BroadcastsPublished.WithLabelValues("reload").Inc()
	return nil
}

func (b *Bus) publish(ctx context.Context, topic string, m Message) error {
	m.Origin = b.origin
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal bus message: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", m.Action, err)
	}
	metrics.BroadcastsPublished.WithLabelValues(m.Action).Inc()
	return nil
}

// Run consumes both channels and hands each message to the coordinator
// until the context is canceled. Malformed messages are logged, acked,
// and skipped so one bad frame cannot stall the channel.
func (b *Bus) Run(ctx context.Context, coord *Coordinator) error {
	toastCh, err := b.subscriber.Subscribe(ctx, b.topics.Toast)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.topics.Toast, err)
	}
	reloadCh, err := b.subscriber.Subscribe(ctx, b.topics.Refdata)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.topics.Refdata, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-toastCh:
			if !ok {
				return nil
			}
			b.handleToast(ctx, coord, msg)
			msg.Ack()
		case msg, ok := <-reloadCh:
			if !ok {
				return nil
			}
			coord.ApplyReload(ctx, msg.Payload)
			msg.Ack()
		}
	}
}

func (b *Bus) handleToast(ctx context.Context, coord *Coordinator, msg *message.Message) {
	var m Message
	if err := json.Unmarshal(msg.Payload, &m); err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed bus message")
		return
	}
	// Own-origin echoes are applied too: the store operation is
	// idempotent, and the forward is what closes the popup on the
	// publishing gateway's other tabs.
	coord.Apply(ctx, m)
}

// Close releases the transport.
func (b *Bus) Close() error {
	perr := b.publisher.Close()
	serr := b.subscriber.Close()
	if perr != nil {
		return perr
	}
	return serr
}
