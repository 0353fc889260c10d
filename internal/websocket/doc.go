// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package websocket attaches console tabs to the session gateway. The
// hub pushes notification state, live detections, and cross-tab commands
// to every tab, and routes acknowledgments coming back from a tab into
// the acknowledgment flow. A newly attached tab is seeded with a full
// snapshot of the current list before any incremental message.
package websocket
