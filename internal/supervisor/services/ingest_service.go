// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package services

import (
	"context"
)

// StreamManager matches *ingest.Manager's reconnect entry point.
type StreamManager interface {
	Redial(ctx context.Context) error
}

// IngestStreamService is the watchdog for the shared event stream. The
// manager never redials on its own; a dropped stream surfaces here as a
// service failure, and suture's restart redials with backoff while the
// session's subscriptions stay registered.
type IngestStreamService struct {
	manager StreamManager
	errs    chan error
	name    string
}

// NewIngestStreamService creates the stream watchdog.
func NewIngestStreamService(manager StreamManager) *IngestStreamService {
	return &IngestStreamService{
		manager: manager,
		errs:    make(chan error, 1),
		name:    "ingest-stream",
	}
}

// OnStreamError is the manager's error callback. Pass it to
// ingest.NewManager.
func (s *IngestStreamService) OnStreamError(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Serve implements suture.Service: reopen the stream if it is down, then
// block until shutdown or the next stream failure.
func (s *IngestStreamService) Serve(ctx context.Context) error {
	if err := s.manager.Redial(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-s.errs:
		return err
	}
}

// String identifies the service in supervisor logs.
func (s *IngestStreamService) String() string {
	return s.name
}
