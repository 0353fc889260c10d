// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package api provides HTTP routing for the gateway using the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router assembles the HTTP surface: session lifecycle, the notification
// list with its acknowledgment actions, the tab WebSocket, health, and
// Prometheus metrics.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware config uses the defaults.
func NewRouter(handler *Handler, mwConfig *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:    handler,
		middleware: NewChiMiddleware(mwConfig),
	}
}

// Setup wires all routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	// CORS must be global to handle OPTIONS preflight.
	r.Use(router.middleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())

		r.Post("/session", router.handler.SessionStart)
		r.Delete("/session", router.handler.SessionStop)

		r.Get("/notifications", router.handler.Notifications)
		r.Post("/notifications/ack", router.handler.Ack)
		r.Post("/notifications/clear-all", router.handler.ClearAll)

		r.Get("/ws", router.handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
