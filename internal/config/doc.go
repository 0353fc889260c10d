// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package config loads the gateway configuration from layered sources:
// built-in defaults, an optional YAML file, and environment variables,
// with environment variables taking the highest precedence.
package config
