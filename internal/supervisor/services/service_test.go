// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

type fakeHub struct {
	ran atomic.Bool
}

func (f *fakeHub) RunWithContext(ctx context.Context) error {
	f.ran.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubServiceDelegates(t *testing.T) {
	hub := &fakeHub{}
	svc := NewWebSocketHubService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if !hub.ran.Load() {
		t.Error("hub was not run")
	}
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q", svc.String())
	}
}

type fakeHTTPServer struct {
	listenErr error
	stop      chan struct{}
	shutdowns atomic.Int64
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(ctx context.Context) error {
	f.shutdowns.Add(1)
	close(f.stop)
	return nil
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := &fakeHTTPServer{stop: make(chan struct{})}
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop")
	}
	if server.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", server.shutdowns.Load())
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	server := &fakeHTTPServer{listenErr: errors.New("bind: address in use")}
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
}

type fakeBus struct{}

func (fakeBus) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCommandBusService(t *testing.T) {
	svc := NewCommandBusService(fakeBus{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}

type fakeStream struct {
	redialErr error
	redials   atomic.Int64
}

func (f *fakeStream) Redial(ctx context.Context) error {
	f.redials.Add(1)
	return f.redialErr
}

func TestIngestStreamServiceReturnsStreamError(t *testing.T) {
	stream := &fakeStream{}
	svc := NewIngestStreamService(stream)

	done := make(chan error, 1)
	go func() { done <- svc.Serve(context.Background()) }()

	streamErr := errors.New("stream dropped")
	svc.OnStreamError(streamErr)

	select {
	case err := <-done:
		if !errors.Is(err, streamErr) {
			t.Errorf("Serve() = %v, want stream error", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("service did not surface stream error")
	}
	if stream.redials.Load() != 1 {
		t.Errorf("redials = %d, want 1", stream.redials.Load())
	}
}

func TestIngestStreamServiceRedialFailure(t *testing.T) {
	stream := &fakeStream{redialErr: errors.New("dial refused")}
	svc := NewIngestStreamService(stream)

	if err := svc.Serve(context.Background()); !errors.Is(err, stream.redialErr) {
		t.Errorf("Serve() = %v, want redial error", err)
	}
}

type fakeBroker struct {
	running   atomic.Bool
	shutdowns atomic.Int64
}

func (f *fakeBroker) IsRunning() bool { return f.running.Load() }

func (f *fakeBroker) Shutdown(ctx context.Context) error {
	f.shutdowns.Add(1)
	f.running.Store(false)
	return nil
}

func TestEmbeddedBrokerServiceShutdown(t *testing.T) {
	broker := &fakeBroker{}
	broker.running.Store(true)
	svc := NewEmbeddedBrokerService(broker, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop")
	}
	if broker.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", broker.shutdowns.Load())
	}
}
