// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package services

import (
	"context"
	"fmt"
	"time"
)

// EmbeddedBroker matches *broadcast.EmbeddedServer's lifecycle.
type EmbeddedBroker interface {
	IsRunning() bool
	Shutdown(ctx context.Context) error
}

// EmbeddedBrokerService supervises the in-process NATS server. The
// broker starts in its constructor, so Serve only monitors health and
// handles shutdown.
type EmbeddedBrokerService struct {
	broker          EmbeddedBroker
	shutdownTimeout time.Duration
	name            string
}

// NewEmbeddedBrokerService creates the broker service wrapper.
func NewEmbeddedBrokerService(broker EmbeddedBroker, shutdownTimeout time.Duration) *EmbeddedBrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EmbeddedBrokerService{
		broker:          broker,
		shutdownTimeout: shutdownTimeout,
		name:            "embedded-broker",
	}
}

// Serve implements suture.Service. A broker that stops running is a
// service failure.
func (s *EmbeddedBrokerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.broker.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("broker shutdown failed: %w", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if !s.broker.IsRunning() {
				return fmt.Errorf("embedded broker stopped running")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (s *EmbeddedBrokerService) String() string {
	return s.name
}
