// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package config

import (
	"strings"
	"testing"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Center.BaseURL = "http://center.local:8080"
	cfg.SSE.URL = "http://center.local:8080/events"
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing center url",
			mutate:  func(c *Config) { c.Center.BaseURL = "" },
			wantMsg: "CENTER_URL",
		},
		{
			name:    "center url bad scheme",
			mutate:  func(c *Config) { c.Center.BaseURL = "ftp://center.local" },
			wantMsg: "scheme",
		},
		{
			name:    "missing sse url",
			mutate:  func(c *Config) { c.SSE.URL = "" },
			wantMsg: "SSE_URL",
		},
		{
			name:    "zero center timeout",
			mutate:  func(c *Config) { c.Center.RequestTimeout = 0 },
			wantMsg: "CENTER_REQUEST_TIMEOUT",
		},
		{
			name:    "bad nats scheme",
			mutate:  func(c *Config) { c.Bus.URL = "http://127.0.0.1:4222" },
			wantMsg: "nats://",
		},
		{
			name: "identical bus topics",
			mutate: func(c *Config) {
				c.Bus.ToastTopic = "console.shared"
				c.Bus.RefdataTopic = "console.shared"
			},
			wantMsg: "differ",
		},
		{
			name: "broker channels without bus",
			mutate: func(c *Config) {
				c.Bus.Enabled = false
				c.Ingest.BrokerChannels = []string{"checkpoint_update_event"}
			},
			wantMsg: "NATS_ENABLED",
		},
		{
			name: "broker channels with empty topic prefix",
			mutate: func(c *Config) {
				c.Ingest.BrokerChannels = []string{"checkpoint_update_event"}
				c.Ingest.TopicPrefix = ""
			},
			wantMsg: "INGEST_TOPIC_PREFIX",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantMsg: "HTTP_PORT",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantMsg: "LOG_LEVEL",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "logfmt" },
			wantMsg: "LOG_FORMAT",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestValidateSkipsBusWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Bus.Enabled = false
	cfg.Bus.URL = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}
