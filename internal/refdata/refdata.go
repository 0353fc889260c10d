// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package refdata holds the reference data the enrichment pipeline reads:
// the special-plate watchlist and the plate-class lookup table.
//
// The data is fetched once per session and refreshed when a reload signal
// arrives on the reference-data broadcast channel. The enrichment pipeline
// only ever reads an immutable snapshot, so a refresh never races a lookup.
package refdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/platewatch/platewatch/internal/logging"
)

// WatchlistEntry is a special-plate record from the center.
// A detection correlates to an entry only when the plate triple matches
// exactly and the entry is neither deleted nor inactive.
type WatchlistEntry struct {
	ID              int64  `json:"id"`
	PlatePrefix     string `json:"plate_prefix"`
	PlateNumber     string `json:"plate_number"`
	RegionCode      string `json:"region_code"`
	PlateClassID    int    `json:"plate_class_id"`
	Deleted         int    `json:"deleted"`
	Active          int    `json:"active"`
	Behavior        string `json:"behavior"`
	CaseOwnerName   string `json:"case_owner_name"`
	CaseOwnerAgency string `json:"case_owner_agency"`
}

// PlateClass is a row of the plate-class lookup table.
type PlateClass struct {
	ID      int    `json:"id"`
	TitleEN string `json:"title_en"`
	TitleTH string `json:"title_th"`
}

// Fetcher loads reference data from the center API.
// Implemented by *center.Client.
type Fetcher interface {
	FetchWatchlist(ctx context.Context) ([]WatchlistEntry, error)
	FetchPlateClasses(ctx context.Context) ([]PlateClass, error)
}

// Snapshot is an immutable view of the reference data.
type Snapshot struct {
	Watchlist    []WatchlistEntry
	plateClasses map[int]PlateClass
}

// NewSnapshot builds a snapshot with the plate-class lookup table indexed
// by id.
func NewSnapshot(watchlist []WatchlistEntry, classes []PlateClass) *Snapshot {
	byID := make(map[int]PlateClass, len(classes))
	for _, pc := range classes {
		byID[pc.ID] = pc
	}
	return &Snapshot{Watchlist: watchlist, plateClasses: byID}
}

// PlateClassName returns the English title for a plate class id, or "-"
// when the id is not in the lookup table.
func (s *Snapshot) PlateClassName(classID int) string {
	if s == nil {
		return "-"
	}
	if pc, ok := s.plateClasses[classID]; ok && pc.TitleEN != "" {
		return pc.TitleEN
	}
	return "-"
}

// Catalog owns the current reference-data snapshot.
type Catalog struct {
	fetcher Fetcher

	mu   sync.RWMutex
	snap *Snapshot
}

// NewCatalog creates an empty catalog backed by the given fetcher.
func NewCatalog(fetcher Fetcher) *Catalog {
	return &Catalog{
		fetcher: fetcher,
		snap:    &Snapshot{plateClasses: map[int]PlateClass{}},
	}
}

// Snapshot returns the current snapshot. Never nil.
func (c *Catalog) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Reload fetches both reference sets and swaps in a fresh snapshot.
// On failure the previous snapshot stays in place.
func (c *Catalog) Reload(ctx context.Context) error {
	watchlist, err := c.fetcher.FetchWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("fetch watchlist: %w", err)
	}

	classes, err := c.fetcher.FetchPlateClasses(ctx)
	if err != nil {
		return fmt.Errorf("fetch plate classes: %w", err)
	}

	c.mu.Lock()
	c.snap = NewSnapshot(watchlist, classes)
	c.mu.Unlock()

	logging.Info().
		Int("watchlist_entries", len(watchlist)).
		Int("plate_classes", len(classes)).
		Msg("reference data reloaded")
	return nil
}

// SetSnapshot replaces the snapshot directly. Test hook.
func (c *Catalog) SetSnapshot(watchlist []WatchlistEntry, classes []PlateClass) {
	snap := NewSnapshot(watchlist, classes)
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}
