// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package center

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/platewatch/platewatch/internal/logging"
	"github.com/platewatch/platewatch/internal/notify"
	"github.com/platewatch/platewatch/internal/refdata"
)

// CircuitBreakerClient wraps Client so a center outage stops generating
// request load instead of stacking timeouts. Sessions degrade to live
// events while the circuit is open.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
}

var _ refdata.Fetcher = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps a center client with a breaker that
// opens after a 60% failure rate over at least 10 requests and probes
// recovery after 2 minutes.
func NewCircuitBreakerClient(client *Client) *CircuitBreakerClient {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "center-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb}
}

func (c *CircuitBreakerClient) FetchBacklog(ctx context.Context, since time.Time) ([]notify.BacklogRow, int64, error) {
	type result struct {
		rows  []notify.BacklogRow
		total int64
	}
	out, err := c.cb.Execute(func() (any, error) {
		rows, total, err := c.client.FetchBacklog(ctx, since)
		if err != nil {
			return nil, err
		}
		return result{rows: rows, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	r := out.(result)
	return r.rows, r.total, nil
}

func (c *CircuitBreakerClient) ConfirmNotification(ctx context.Context, id int64) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.client.ConfirmNotification(ctx, id)
	})
	return err
}

func (c *CircuitBreakerClient) FetchWatchlist(ctx context.Context) ([]refdata.WatchlistEntry, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return c.client.FetchWatchlist(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]refdata.WatchlistEntry), nil
}

func (c *CircuitBreakerClient) FetchPlateClasses(ctx context.Context) ([]refdata.PlateClass, error) {
	out, err := c.cb.Execute(func() (any, error) {
		return c.client.FetchPlateClasses(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]refdata.PlateClass), nil
}
