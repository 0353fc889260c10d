// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateCenter(); err != nil {
		return err
	}

	if err := c.validateSSE(); err != nil {
		return err
	}

	if err := c.validateIngest(); err != nil {
		return err
	}

	if err := c.validateBus(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateCenter() error {
	if c.Center.BaseURL == "" {
		return fmt.Errorf("CENTER_URL is required")
	}
	if err := validateHTTPURL(c.Center.BaseURL); err != nil {
		return fmt.Errorf("CENTER_URL: %w", err)
	}
	if c.Center.RequestTimeout <= 0 {
		return fmt.Errorf("CENTER_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSSE() error {
	if c.SSE.URL == "" {
		return fmt.Errorf("SSE_URL is required")
	}
	if err := validateHTTPURL(c.SSE.URL); err != nil {
		return fmt.Errorf("SSE_URL: %w", err)
	}
	return nil
}

func (c *Config) validateBus() error {
	if !c.Bus.Enabled {
		return nil
	}
	if c.Bus.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	if !strings.HasPrefix(c.Bus.URL, "nats://") && !strings.HasPrefix(c.Bus.URL, "tls://") {
		return fmt.Errorf("NATS_URL must start with nats:// or tls://")
	}
	if c.Bus.ToastTopic == "" || c.Bus.RefdataTopic == "" {
		return fmt.Errorf("bus topics must not be empty")
	}
	if c.Bus.ToastTopic == c.Bus.RefdataTopic {
		return fmt.Errorf("bus toast and refdata topics must differ")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if len(c.Ingest.BrokerChannels) == 0 {
		return nil
	}
	if !c.Bus.Enabled {
		return fmt.Errorf("INGEST_BROKER_CHANNELS requires NATS_ENABLED=true")
	}
	if c.Ingest.TopicPrefix == "" {
		return fmt.Errorf("INGEST_TOPIC_PREFIX must not be empty when broker channels are set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQS must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal; got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
