// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package services adapts the gateway's long-running components to
// suture's Serve(ctx) lifecycle. Each wrapper declares a minimal
// interface for the component it supervises so the package stays free of
// dependency cycles.
package services
