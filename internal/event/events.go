// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

// Package event defines the raw event shapes delivered by the live
// transports and the validating decode step that turns wire frames into
// typed events.
//
// Five event kinds exist: camera status changes and plate detections arrive
// on the server-sent-events channel; checkpoint updates, new cameras, and
// delete-camera requests arrive on broker topics. Every event carries a
// correlation key that downstream components use as the sole deduplication
// identity.
package event

import (
	"strconv"
	"strings"
)

// Type discriminates raw event payloads. SSE channels and broker topics are
// both mapped onto these values at the ingest boundary.
type Type string

const (
	// TypeCameraStatus is a camera going online or offline.
	TypeCameraStatus Type = "camera_status_event"
	// TypePlateDetection is a live LPR read.
	TypePlateDetection Type = "lpr_data_event"
	// TypeCheckpointUpdate is a checkpoint created or renamed upstream.
	TypeCheckpointUpdate Type = "checkpoint_update_event"
	// TypeCameraAdded is a camera registered upstream.
	TypeCameraAdded Type = "new_camera_event"
	// TypeDeleteCameraRequest is a pending delete-camera approval request.
	TypeDeleteCameraRequest Type = "delete_camera_request_event"
)

// CameraStatus values as they appear on the wire. Comparison is
// case-insensitive (the center emits both "Online" and "online").
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// CameraStatusEvent reports a camera transitioning online or offline.
type CameraStatusEvent struct {
	EventID       int64  `json:"event_id"`
	CameraID      string `json:"camera_id,omitempty"`
	CameraName    string `json:"camera_name"`
	CameraIP      string `json:"camera_ip"`
	CurrentStatus string `json:"current_status"`
	// Timestamp is kept as the raw wire string: it is part of the
	// correlation key and must round-trip byte for byte.
	Timestamp string `json:"timestamp"`
}

// IsOnline reports whether the event marks the camera online.
func (e *CameraStatusEvent) IsOnline() bool {
	return strings.EqualFold(e.CurrentStatus, StatusOnline)
}

// CorrelationKey returns the deduplication identity: "<event_id>_<timestamp>".
func (e *CameraStatusEvent) CorrelationKey() string {
	return strconv.FormatInt(e.EventID, 10) + "_" + e.Timestamp
}

// Validate checks required fields.
func (e *CameraStatusEvent) Validate() error {
	if e.EventID == 0 {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.CurrentStatus == "" {
		return &ValidationError{Field: "current_status", Message: "required"}
	}
	if e.Timestamp == "" {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	return nil
}

// CheckpointUpdateEvent announces a checkpoint change from the center.
type CheckpointUpdateEvent struct {
	CheckpointName string `json:"checkpoint_name"`
	CreatedAt      string `json:"created_at"`
}

// CorrelationKey keys checkpoint updates by their creation timestamp.
func (e *CheckpointUpdateEvent) CorrelationKey() string {
	return e.CreatedAt
}

// Validate checks required fields.
func (e *CheckpointUpdateEvent) Validate() error {
	if e.CreatedAt == "" {
		return &ValidationError{Field: "created_at", Message: "required"}
	}
	return nil
}

// CameraAddedEvent announces a camera registered upstream.
type CameraAddedEvent struct {
	CameraName   string `json:"camera_name"`
	TimestampUTC string `json:"timestamp_utc"`
}

// CorrelationKey keys camera-added events by their UTC timestamp.
func (e *CameraAddedEvent) CorrelationKey() string {
	return e.TimestampUTC
}

// Validate checks required fields.
func (e *CameraAddedEvent) Validate() error {
	if e.TimestampUTC == "" {
		return &ValidationError{Field: "timestamp_utc", Message: "required"}
	}
	return nil
}

// DeleteCameraRequestEvent reports a pending delete-camera approval.
// AllRequestCount is the number of requests BEFORE this one; consumers
// display the cumulative count (AllRequestCount+1).
type DeleteCameraRequestEvent struct {
	AllRequestCount int    `json:"all_request_count"`
	TimestampUTC    string `json:"timestamp_utc"`
}

// CorrelationKey keys delete requests by their UTC timestamp.
func (e *DeleteCameraRequestEvent) CorrelationKey() string {
	return e.TimestampUTC
}

// Validate checks required fields.
func (e *DeleteCameraRequestEvent) Validate() error {
	if e.TimestampUTC == "" {
		return &ValidationError{Field: "timestamp_utc", Message: "required"}
	}
	return nil
}

// PlateDetectionEvent is a live LPR read from a checkpoint camera.
type PlateDetectionEvent struct {
	PlatePrefix string `json:"plate_prefix"`
	PlateNumber string `json:"plate_number"`
	RegionCode  string `json:"region_code"`

	// Vehicle attributes resolved by the recognizer.
	VehicleMake     string `json:"vehicle_make,omitempty"`
	VehicleModel    string `json:"vehicle_model,omitempty"`
	VehicleColor    string `json:"vehicle_color,omitempty"`
	VehicleBodyType string `json:"vehicle_body_type,omitempty"`

	// Capture context.
	CameraName     string  `json:"camera_name,omitempty"`
	CheckpointName string  `json:"checkpoint_name,omitempty"`
	Latitude       float64 `json:"latitude,omitempty"`
	Longitude      float64 `json:"longitude,omitempty"`
	EventTime      string  `json:"event_time,omitempty"`

	// Evidence image URLs.
	PlateImageURL   string `json:"plate_image_url,omitempty"`
	VehicleImageURL string `json:"vehicle_image_url,omitempty"`
}

// CorrelationKey returns the detection identity triple joined with
// underscores: "<prefix>_<number>_<region>".
func (e *PlateDetectionEvent) CorrelationKey() string {
	return e.PlatePrefix + "_" + e.PlateNumber + "_" + e.RegionCode
}

// Validate checks required fields.
func (e *PlateDetectionEvent) Validate() error {
	if e.PlateNumber == "" {
		return &ValidationError{Field: "plate_number", Message: "required"}
	}
	if e.RegionCode == "" {
		return &ValidationError{Field: "region_code", Message: "required"}
	}
	return nil
}

// ValidationError reports a missing or malformed field on a decoded event.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
