// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewatch/platewatch/internal/event"
	"github.com/platewatch/platewatch/internal/refdata"
)

func testSnapshot() *refdata.Snapshot {
	return refdata.NewSnapshot(
		[]refdata.WatchlistEntry{
			{
				ID: 1, PlatePrefix: "กข", PlateNumber: "1234", RegionCode: "10",
				PlateClassID: PlateClassBlackList, Deleted: 0, Active: 1,
				Behavior:      "armed robbery suspect",
				CaseOwnerName: "Insp. Somchai", CaseOwnerAgency: "Region 1",
			},
			{
				ID: 2, PlatePrefix: "งจ", PlateNumber: "5678", RegionCode: "50",
				PlateClassID: PlateClassGuest, Deleted: 0, Active: 1,
			},
			{
				ID: 3, PlatePrefix: "ฉช", PlateNumber: "9012", RegionCode: "10",
				PlateClassID: PlateClassVIP, Deleted: 1, Active: 1,
			},
			{
				ID: 4, PlatePrefix: "ฌญ", PlateNumber: "3456", RegionCode: "10",
				PlateClassID: PlateClassMember, Deleted: 0, Active: 0,
			},
		},
		[]refdata.PlateClass{
			{ID: PlateClassBlackList, TitleEN: "Blacklisted Vehicle"},
			{ID: PlateClassGuest, TitleEN: "Guest Vehicle"},
		},
	)
}

func detection(prefix, number, region string) *event.PlateDetectionEvent {
	return &event.PlateDetectionEvent{
		PlatePrefix: prefix,
		PlateNumber: number,
		RegionCode:  region,
	}
}

func TestCorrelateExactTriple(t *testing.T) {
	snap := testSnapshot()

	entry := Correlate(detection("กข", "1234", "10"), snap)
	require.NotNil(t, entry)
	assert.Equal(t, int64(1), entry.ID)

	// Any differing component of the triple misses.
	assert.Nil(t, Correlate(detection("กข", "1234", "50"), snap))
	assert.Nil(t, Correlate(detection("กข", "123", "10"), snap))
	assert.Nil(t, Correlate(detection("ขข", "1234", "10"), snap))
}

func TestCorrelateSkipsDeletedAndInactive(t *testing.T) {
	snap := testSnapshot()

	assert.Nil(t, Correlate(detection("ฉช", "9012", "10"), snap), "soft-deleted entry must not match")
	assert.Nil(t, Correlate(detection("ฌญ", "3456", "10"), snap), "inactive entry must not match")
}

func TestClassifyPlate(t *testing.T) {
	tests := []struct {
		name       string
		classID    int
		wantTitle  string
		wantColor  string
		wantAlert  bool
		wantShadow bool
	}{
		{"normal", PlateClassNormal, "Normal", "white", false, false},
		{"guest", PlateClassGuest, "Guest", "white", false, false},
		{"member", PlateClassMember, "Member", "#0099ff", true, false},
		{"vip", PlateClassVIP, "VIP", "#009900", true, false},
		{"blacklist", PlateClassBlackList, "BlackList", "#FF0000", true, true},
		{"watchlist", PlateClassWatchList, "WatchList", "#FDB600", true, false},
		{"unknown", 99, "", "white", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ClassifyPlate(tt.classID)
			assert.Equal(t, tt.wantTitle, a.Title)
			assert.Equal(t, tt.wantColor, a.BackgroundColor)
			assert.Equal(t, tt.wantAlert, a.ShowAlert)
			if tt.wantShadow {
				assert.NotEmpty(t, a.TextShadow)
			} else {
				assert.Empty(t, a.TextShadow)
			}
		})
	}
}

func TestEnrichDetectionBlacklist(t *testing.T) {
	snap := testSnapshot()

	alert := EnrichDetection(detection("กข", "1234", "10"), snap)
	require.NotNil(t, alert)

	assert.Equal(t, "Blacklisted Vehicle", alert.PlateClassName)
	assert.Equal(t, "armed robbery suspect", alert.SpecialPlateRemark)
	assert.Equal(t, "Insp. Somchai", alert.SpecialPlateOwnerName)
	assert.Equal(t, "Region 1", alert.SpecialPlateOwnerAgency)
	assert.Equal(t, "BlackList", alert.TitleName)
	assert.Equal(t, "#FF0000", alert.Color)
	assert.Equal(t, "#FF0000", alert.PinBackgroundColor)
	assert.NotEmpty(t, alert.TextShadow)
}

func TestEnrichDetectionGuestSuppressed(t *testing.T) {
	snap := testSnapshot()

	// Guest plates are on the list but never raise popups.
	assert.Nil(t, EnrichDetection(detection("งจ", "5678", "50"), snap))
}

func TestEnrichDetectionUnlisted(t *testing.T) {
	snap := testSnapshot()

	assert.Nil(t, EnrichDetection(detection("นน", "7777", "10"), snap))
}

func TestEnrichDetectionUnknownClassName(t *testing.T) {
	snap := refdata.NewSnapshot(
		[]refdata.WatchlistEntry{
			{
				ID: 1, PlatePrefix: "กก", PlateNumber: "1", RegionCode: "10",
				PlateClassID: PlateClassWatchList, Deleted: 0, Active: 1,
			},
		},
		nil,
	)

	alert := EnrichDetection(detection("กก", "1", "10"), snap)
	require.NotNil(t, alert)
	// No class catalog loaded: the display name falls back to "-".
	assert.Equal(t, "-", alert.PlateClassName)
}
