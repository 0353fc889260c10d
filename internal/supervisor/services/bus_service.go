// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package services

import (
	"context"
)

// CommandBus matches the bus consume loop bound to its coordinator.
type CommandBus interface {
	Run(ctx context.Context) error
}

// CommandBusService supervises the cross-tab command bus. If the consume
// loop dies (broker connection lost, subscription torn down), suture
// restarts it with backoff and every tab resubscribes transparently.
type CommandBusService struct {
	bus  CommandBus
	name string
}

// NewCommandBusService creates the bus service wrapper.
func NewCommandBusService(bus CommandBus) *CommandBusService {
	return &CommandBusService{
		bus:  bus,
		name: "command-bus",
	}
}

// Serve implements suture.Service.
func (s *CommandBusService) Serve(ctx context.Context) error {
	return s.bus.Run(ctx)
}

// String identifies the service in supervisor logs.
func (s *CommandBusService) String() string {
	return s.name
}
