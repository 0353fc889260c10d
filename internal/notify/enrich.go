// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package notify

import (
	"github.com/platewatch/platewatch/internal/event"
	"github.com/platewatch/platewatch/internal/refdata"
)

// Plate class ids as assigned by the center service.
const (
	PlateClassNormal    = 1
	PlateClassGuest     = 2
	PlateClassMember    = 3
	PlateClassVIP       = 4
	PlateClassBlackList = 6
	PlateClassWatchList = 7
)

// blacklistTextShadow outlines the plate text in white so it stays
// readable on the red blacklist background.
const blacklistTextShadow = "2px 0 #fff, -2px 0 #fff, 0 2px #fff, 0 -2px #fff, 1px 1px #fff, -1px -1px #fff, 1px -1px #fff, -1px 1px #fff"

// Appearance is the presentation profile for a plate class. ShowAlert
// gates whether a correlated detection raises a popup at all.
type Appearance struct {
	Color               string `json:"color"`
	BackgroundColor     string `json:"backgroundColor"`
	PinBackgroundColor  string `json:"pinBackgroundColor"`
	FeedBackgroundColor string `json:"feedBackgroundColor"`
	TextShadow          string `json:"textShadow"`
	Title               string `json:"title"`
	ShowAlert           bool   `json:"showAlert"`
}

// ClassifyPlate maps a plate class id to its appearance. Unknown ids get
// the neutral profile with alerts suppressed.
func ClassifyPlate(classID int) Appearance {
	a := Appearance{
		Color:               "white",
		BackgroundColor:     "white",
		PinBackgroundColor:  "black",
		FeedBackgroundColor: "#161817",
	}
	switch classID {
	case PlateClassNormal:
		a.Title = "Normal"
	case PlateClassGuest:
		a.Title = "Guest"
	case PlateClassMember:
		a.BackgroundColor = "#0099ff"
		a.PinBackgroundColor = "#0099ff"
		a.FeedBackgroundColor = "#0099ff"
		a.Title = "Member"
		a.ShowAlert = true
	case PlateClassVIP:
		a.BackgroundColor = "#009900"
		a.PinBackgroundColor = "#009900"
		a.FeedBackgroundColor = "#009900"
		a.Title = "VIP"
		a.ShowAlert = true
	case PlateClassBlackList:
		a.BackgroundColor = "#FF0000"
		a.PinBackgroundColor = "#FF0000"
		a.FeedBackgroundColor = "#FF0000"
		a.Title = "BlackList"
		a.TextShadow = blacklistTextShadow
		a.ShowAlert = true
	case PlateClassWatchList:
		a.BackgroundColor = "#FDB600"
		a.PinBackgroundColor = "#FDB600"
		a.FeedBackgroundColor = "#FDB600"
		a.Title = "WatchList"
		a.ShowAlert = true
	}
	return a
}

// Correlate finds the watchlist entry matching a detection. The match is
// an exact triple on prefix, number, and region, restricted to rows that
// are neither soft-deleted nor inactive. Returns nil when no entry
// matches.
func Correlate(ev *event.PlateDetectionEvent, snap *refdata.Snapshot) *refdata.WatchlistEntry {
	for i := range snap.Watchlist {
		e := &snap.Watchlist[i]
		if e.PlatePrefix == ev.PlatePrefix &&
			e.PlateNumber == ev.PlateNumber &&
			e.RegionCode == ev.RegionCode &&
			e.Deleted == 0 && e.Active == 1 {
			return e
		}
	}
	return nil
}

// DetectionAlert is the enriched payload pushed to attached tabs when a
// correlated detection clears the plate-class gate. It carries the raw
// detection plus the watchlist and appearance fields the popup renders.
type DetectionAlert struct {
	event.PlateDetectionEvent

	PlateClassName          string `json:"plate_class_name"`
	SpecialPlateRemark      string `json:"special_plate_remark"`
	SpecialPlateOwnerName   string `json:"special_plate_owner_name"`
	SpecialPlateOwnerAgency string `json:"special_plate_owner_agency"`
	TitleName               string `json:"title_name"`
	Color                   string `json:"color"`
	PinBackgroundColor      string `json:"pin_background_color"`
	TextShadow              string `json:"text_shadow"`
}

// EnrichDetection correlates a detection against the reference snapshot
// and builds the alert payload. Returns nil when the plate is not on the
// watchlist or its class does not raise alerts.
func EnrichDetection(ev *event.PlateDetectionEvent, snap *refdata.Snapshot) *DetectionAlert {
	entry := Correlate(ev, snap)
	if entry == nil {
		return nil
	}
	appearance := ClassifyPlate(entry.PlateClassID)
	if !appearance.ShowAlert {
		return nil
	}
	return &DetectionAlert{
		PlateDetectionEvent:     *ev,
		PlateClassName:          snap.PlateClassName(entry.PlateClassID),
		SpecialPlateRemark:      entry.Behavior,
		SpecialPlateOwnerName:   entry.CaseOwnerName,
		SpecialPlateOwnerAgency: entry.CaseOwnerAgency,
		TitleName:               appearance.Title,
		Color:                   appearance.BackgroundColor,
		PinBackgroundColor:      appearance.PinBackgroundColor,
		TextShadow:              appearance.TextShadow,
	}
}
