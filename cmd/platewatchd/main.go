// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package main is the entry point for the platewatchd gateway.
//
// Platewatchd is the headless notification core of the Platewatch LPR
// surveillance console. It holds one operator session against the
// center: it loads the plate watchlist and class reference data,
// reconciles the persisted notification backlog, subscribes to the live
// event stream, and fans the resulting notification list, live plate
// feed, and watchlist alerts out to every attached console tab over
// WebSocket.
//
// # Application Architecture
//
// The gateway initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config file, and
//     environment variables (Koanf v2)
//  2. Center client: REST access to the backlog, watchlist, and plate
//     class endpoints, wrapped in a circuit breaker
//  3. Notification store and WebSocket hub
//  4. Command bus: cross-tab close and clear-all commands over NATS
//     (optionally an embedded in-process server) or an in-process
//     channel when NATS is disabled
//  5. Ingest manager: the shared live event stream
//  6. Session: the per-operator reconciliation loop
//  7. HTTP server: REST API, WebSocket endpoint, and Prometheus metrics
//
// Everything long-running is owned by a suture supervisor tree with
// separate ingest, messaging, and API layers, so a dropped stream or a
// crashed hub restarts without taking the API down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then the config file, then
// built-in defaults. CENTER_URL is the only required setting.
//
// # Signal Handling
//
// The gateway handles graceful shutdown on SIGINT and SIGTERM: the
// HTTP server drains in-flight requests, the hub closes every tab
// connection, and the bus and stream connections are torn down.
//
// # Example Usage
//
//	export CENTER_URL=https://center.example.com
//	export CENTER_TOKEN=your-api-token
//	export SSE_URL=https://center.example.com/api/stream
//	./platewatchd
//
// Multi-instance deployments share tab commands over an external NATS
// server:
//
//	export NATS_EMBEDDED=false
//	export NATS_URL=nats://nats.internal:4222
//	./platewatchd
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/platewatch/platewatch/internal/acksync"
	"github.com/platewatch/platewatch/internal/api"
	"github.com/platewatch/platewatch/internal/backlog"
	"github.com/platewatch/platewatch/internal/broadcast"
	"github.com/platewatch/platewatch/internal/center"
	"github.com/platewatch/platewatch/internal/config"
	"github.com/platewatch/platewatch/internal/ingest"
	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/notify"
	"github.com/platewatch/platewatch/internal/refdata"
	"github.com/platewatch/platewatch/internal/session"
	"github.com/platewatch/platewatch/internal/supervisor"
	"github.com/platewatch/platewatch/internal/supervisor/services"
	ws "github.com/platewatch/platewatch/internal/websocket"
)

// commandBus binds the bus consume loop to its coordinator so the
// supervisor can run it as a plain service.
type commandBus struct {
	bus   *broadcast.Bus
	coord *broadcast.Coordinator
}

func (c *commandBus) Run(ctx context.Context) error {
	return c.bus.Run(ctx, c.coord)
}

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().Msg("Starting platewatchd with supervisor tree")
	logging.Info().
		Str("center_url", cfg.Center.BaseURL).
		Str("sse_url", cfg.SSE.URL).
		Bool("bus_enabled", cfg.Bus.Enabled).
		Msg("Configuration loaded")

	// Center client behind a circuit breaker so a flapping center does
	// not stall every backlog fetch and ack confirmation.
	centerClient := center.NewCircuitBreakerClient(center.NewClient(cfg.Center))

	store := notify.NewStore()
	hub := ws.NewHub(store)
	catalog := refdata.NewCatalog(centerClient)
	reconciler := backlog.NewReconciler(centerClient, store, hub)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topics := broadcast.Topics{
		Toast:   cfg.Bus.ToastTopic,
		Refdata: cfg.Bus.RefdataTopic,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Cross-tab command bus. With NATS disabled the commands flow over
	// an in-process channel, which is enough for a single instance.
	var bus *broadcast.Bus
	if cfg.Bus.Enabled {
		if cfg.Bus.EmbeddedServer {
			broker, err := broadcast.NewEmbeddedServer(cfg.Bus.URL)
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
			}
			tree.AddMessagingService(services.NewEmbeddedBrokerService(broker, 10*time.Second))
			logging.Info().Str("url", broker.ClientURL()).Msg("Embedded NATS server started")
		}

		bus, err = broadcast.NewNATSBus(broadcast.NATSConfig{
			URL:           cfg.Bus.URL,
			MaxReconnects: cfg.Bus.MaxReconnects,
			ReconnectWait: cfg.Bus.ReconnectWait,
			CloseTimeout:  cfg.Bus.CloseTimeout,
		}, topics, watermill.NewStdLogger(false, false))
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect command bus")
		}
		logging.Info().Str("url", cfg.Bus.URL).Msg("Command bus connected over NATS")
	} else {
		pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: false}, watermill.NopLogger{})
		bus = broadcast.NewBus(pubSub, pubSub, topics)
		logging.Info().Msg("Command bus running in-process (NATS disabled)")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing command bus")
		}
	}()

	coordinator := broadcast.NewCoordinator(store, catalog, hub)
	tree.AddMessagingService(services.NewCommandBusService(&commandBus{bus: bus, coord: coordinator}))

	// The stream service owns redials; the manager only reports drops.
	var streamService *services.IngestStreamService
	streamManager := ingest.NewManager(cfg.SSE, func(err error) {
		streamService.OnStreamError(err)
	})
	streamService = services.NewIngestStreamService(streamManager)
	defer streamManager.Close()
	tree.AddIngestService(streamService)

	// Channels listed under INGEST_BROKER_CHANNELS arrive as NATS topics
	// instead of SSE events; everything else stays on the shared stream.
	var source ingest.ChannelSource = streamManager
	if cfg.Bus.Enabled && len(cfg.Ingest.BrokerChannels) > 0 {
		sub, err := broadcast.NewNATSSubscriber(broadcast.NATSConfig{
			URL:           cfg.Bus.URL,
			MaxReconnects: cfg.Bus.MaxReconnects,
			ReconnectWait: cfg.Bus.ReconnectWait,
			CloseTimeout:  cfg.Bus.CloseTimeout,
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect broker ingest subscriber")
		}
		defer func() {
			if err := sub.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing broker ingest subscriber")
			}
		}()
		brokerSource := ingest.NewNATSSource(sub, cfg.Ingest.TopicPrefix)
		source = ingest.NewSourceRouter(streamManager, brokerSource, cfg.Ingest.BrokerChannels)
		logging.Info().
			Strs("channels", cfg.Ingest.BrokerChannels).
			Str("topic_prefix", cfg.Ingest.TopicPrefix).
			Msg("Broker ingest channels routed over NATS")
	}

	acks := acksync.NewManager(store, bus, centerClient, reconciler)
	hub.SetCommands(acks)
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

	sess := session.New(session.Config{JWTSecret: cfg.Security.JWTSecret},
		source, reconciler, catalog, store, hub)

	handler := api.NewHandler(store, acks, sess, hub)
	router := api.NewRouter(handler, &api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Server.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitRequests:    cfg.Server.RateLimitReqs,
		RateLimitWindow:      cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	sess.Stop()

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Gateway stopped gracefully")
}
