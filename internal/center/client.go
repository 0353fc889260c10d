// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package center is the REST client for the center service, which owns
// the persisted notification backlog, the special-plate watchlist, and
// the plate-class catalog.
package center

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/platewatch/platewatch/internal/notify"
	"github.com/platewatch/platewatch/internal/refdata"
)

// DefaultRequestTimeout bounds every center API call. Backlog fetches
// that outlive it are abandoned silently; the session keeps running on
// live events alone.
const DefaultRequestTimeout = 10 * time.Second

// backlogPageLimit matches the store capacity: one page of the newest
// unacknowledged rows is all a session can display.
const backlogPageLimit = 100

// watchlistLimit bounds the reference fetch.
const watchlistLimit = 1000

// Config holds the center API connection settings.
type Config struct {
	BaseURL        string        `koanf:"base_url"`
	Token          string        `koanf:"token"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// Client calls the center REST API. All methods honor the configured
// per-request timeout on top of the caller's context.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

// Ensure Client satisfies the reference-data fetcher.
var _ refdata.Fetcher = (*Client)(nil)

// NewClient creates a center API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiResponse is the center's uniform response envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
	Total   int64           `json:"total,omitempty"`
}

// FetchBacklog returns the newest unacknowledged notification rows with
// an event timestamp at or after the given floor, newest row first.
// Also returns the server-side total when the center reports one.
func (c *Client) FetchBacklog(ctx context.Context, since time.Time) ([]notify.BacklogRow, int64, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", fmt.Sprintf("%d", backlogPageLimit))
	q.Set("filter", "is_confirm=false,event_timestamp>="+since.UTC().Format(time.RFC3339))
	q.Set("orderBy", "id.desc")

	resp, err := c.get(ctx, "/event-notify/get", q)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch backlog: %w", err)
	}

	var rows []notify.BacklogRow
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		return nil, 0, fmt.Errorf("decode backlog rows: %w", err)
	}

	total := resp.Total
	if total == 0 {
		total = int64(len(rows))
	}
	return rows, total, nil
}

// ConfirmNotification marks one backlog row acknowledged. Callers treat
// failure as best-effort: the local removal is never rolled back.
func (c *Client) ConfirmNotification(ctx context.Context, id int64) error {
	body := map[string]any{
		"id":         id,
		"is_confirm": true,
	}
	if _, err := c.patch(ctx, "/event-notify/update", body); err != nil {
		return fmt.Errorf("confirm notification %d: %w", id, err)
	}
	return nil
}

// FetchWatchlist returns the active special-plate entries. Soft-deleted
// rows are filtered server-side; inactive rows still come back and are
// excluded at correlation time.
func (c *Client) FetchWatchlist(ctx context.Context) ([]refdata.WatchlistEntry, error) {
	q := url.Values{}
	q.Set("filter", "deleted=0")
	q.Set("limit", fmt.Sprintf("%d", watchlistLimit))

	resp, err := c.get(ctx, "/special-plates/get", q)
	if err != nil {
		return nil, fmt.Errorf("fetch watchlist: %w", err)
	}

	var entries []refdata.WatchlistEntry
	if err := json.Unmarshal(resp.Data, &entries); err != nil {
		return nil, fmt.Errorf("decode watchlist: %w", err)
	}
	return entries, nil
}

// FetchPlateClasses returns the plate-class catalog.
func (c *Client) FetchPlateClasses(ctx context.Context) ([]refdata.PlateClass, error) {
	resp, err := c.get(ctx, "/plate-classes/get", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch plate classes: %w", err)
	}

	var classes []refdata.PlateClass
	if err := json.Unmarshal(resp.Data, &classes); err != nil {
		return nil, fmt.Errorf("decode plate classes: %w", err)
	}
	return classes, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (*apiResponse, error) {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) patch(ctx context.Context, path string, body any) (*apiResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	defer cancel()
	req = req.WithContext(ctx)

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, rerr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if rerr != nil {
			return nil, fmt.Errorf("center returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("center returned status %d: %s", resp.StatusCode, string(body))
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("center rejected request: %s", out.Message)
	}
	return &out, nil
}
