// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package config

import (
	"time"

	"github.com/platewatch/platewatch/internal/center"
	"github.com/platewatch/platewatch/internal/ingest"
)

// Config is the complete gateway configuration.
type Config struct {
	Center   center.Config    `koanf:"center"`
	SSE      ingest.SSEConfig `koanf:"sse"`
	Ingest   IngestConfig     `koanf:"ingest"`
	Bus      BusConfig        `koanf:"bus"`
	Server   ServerConfig     `koanf:"server"`
	Security SecurityConfig   `koanf:"security"`
	Logging  LoggingConfig    `koanf:"logging"`
}

// IngestConfig selects the source per live channel. Channels listed in
// BrokerChannels subscribe to NATS topics (prefix + channel name) over
// the bus connection; everything else rides the SSE stream.
type IngestConfig struct {
	BrokerChannels []string `koanf:"broker_channels"`
	TopicPrefix    string   `koanf:"topic_prefix"`
}

// BusConfig holds the NATS settings for the cross-tab command bus.
type BusConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server instead of
	// connecting to an external one.
	EmbeddedServer bool `koanf:"embedded_server"`

	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	CloseTimeout  time.Duration `koanf:"close_timeout"`

	ToastTopic   string `koanf:"toast_topic"`
	RefdataTopic string `koanf:"refdata_topic"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// SecurityConfig holds the token verification settings.
type SecurityConfig struct {
	// JWTSecret verifies console session tokens. Empty disables
	// signature verification and trusts the token payload as-is.
	JWTSecret string `koanf:"jwt_secret"`
}

// LoggingConfig holds the log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Center: center.Config{
			BaseURL:        "",
			Token:          "",
			RequestTimeout: center.DefaultRequestTimeout,
		},
		SSE: ingest.SSEConfig{
			URL:              "",
			Token:            "",
			HandshakeTimeout: 15 * time.Second,
		},
		Ingest: IngestConfig{
			BrokerChannels: nil,
			TopicPrefix:    "center.",
		},
		Bus: BusConfig{
			Enabled:        true,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			MaxReconnects:  -1, // Reconnect forever
			ReconnectWait:  2 * time.Second,
			CloseTimeout:   30 * time.Second,
			ToastTopic:     "console.toast",
			RefdataTopic:   "console.refdata",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8460,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Security: SecurityConfig{
			JWTSecret: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
