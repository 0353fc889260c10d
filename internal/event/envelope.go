// Platewatch - LPR Surveillance Console Notification Core
// Copyright 2026 Platewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/platewatch/platewatch

package event

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Envelope is the change-data-capture frame the center emits on its SSE
// channel. DELETE operations carry the pre-image in Old; every other
// operation carries the post-image in New.
type Envelope struct {
	Operation string          `json:"operation"`
	Data      EnvelopeData    `json:"data"`
	Raw       json.RawMessage `json:"-"`
}

// EnvelopeData holds the old/new record pair of a CDC frame.
type EnvelopeData struct {
	Old json.RawMessage `json:"old,omitempty"`
	New json.RawMessage `json:"new,omitempty"`
}

// plainFrame is the non-CDC frame shape: the record sits directly under
// "data" with no operation tag.
type plainFrame struct {
	Data json.RawMessage `json:"data"`
}

// OperationDelete is the CDC operation whose payload is the old record.
const OperationDelete = "DELETE"

// ErrUnknownType is returned when a frame's event type has no decoder.
var ErrUnknownType = errors.New("event: unknown event type")

// DecodeError wraps a payload that could not be parsed into its event type.
// A DecodeError on one frame never terminates the connection; the ingest
// layer logs it and moves to the next frame.
type DecodeError struct {
	Type Type
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("event: decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ExtractRecord pulls the relevant sub-object out of a wire frame.
//
// CDC frames ({"operation": ..., "data": {"old": ..., "new": ...}}) yield
// the old record for DELETE and the new record otherwise. Plain frames
// ({"data": {...}}) yield the data object as-is.
func ExtractRecord(payload []byte, cdc bool) (json.RawMessage, error) {
	if !cdc {
		var frame plainFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			return nil, err
		}
		if len(frame.Data) == 0 {
			return nil, errors.New("frame has no data object")
		}
		return frame.Data, nil
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	record := env.Data.New
	if env.Operation == OperationDelete {
		record = env.Data.Old
	}
	if len(record) == 0 {
		return nil, fmt.Errorf("cdc frame (%s) has no record", env.Operation)
	}
	return record, nil
}

// Decode parses a record into the typed event for the given Type and
// validates required fields. Malformed payloads return a *DecodeError.
func Decode(typ Type, record []byte) (any, error) {
	var (
		ev  validator
		err error
	)

	switch typ {
	case TypeCameraStatus:
		ev = &CameraStatusEvent{}
	case TypePlateDetection:
		ev = &PlateDetectionEvent{}
	case TypeCheckpointUpdate:
		ev = &CheckpointUpdateEvent{}
	case TypeCameraAdded:
		ev = &CameraAddedEvent{}
	case TypeDeleteCameraRequest:
		ev = &DeleteCameraRequestEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}

	if err = json.Unmarshal(record, ev); err != nil {
		return nil, &DecodeError{Type: typ, Err: err}
	}
	if err = ev.Validate(); err != nil {
		return nil, &DecodeError{Type: typ, Err: err}
	}
	return ev, nil
}

// DecodeFrame extracts the record from a raw wire frame and decodes it.
// The cdc flag selects CDC envelope handling (SSE plate channel) versus the
// plain data frame (SSE camera-status channel and broker topics).
func DecodeFrame(typ Type, payload []byte, cdc bool) (any, error) {
	record, err := ExtractRecord(payload, cdc)
	if err != nil {
		return nil, &DecodeError{Type: typ, Err: err}
	}
	return Decode(typ, record)
}

type validator interface {
	Validate() error
}
