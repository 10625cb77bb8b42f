// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sinks holds the persistence targets a fix is fanned out to. Every
// sink makes exactly one write attempt per record; retrying is not its job.
package sinks

import (
	"context"
	"time"

	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/telemetry"
)

// Record is one fix as handed to a sink.
type Record struct {
	DeviceID string            `json:"device"`
	TrackID  telemetry.TrackID `json:"track_id"`
	Cell     string            `json:"s2_cell_id"`
	Fix      gps.Fix           `json:"fix"`
}

// Sink durably persists single records.
type Sink interface {
	Name() string
	Write(ctx context.Context, rec Record) error
	Close() error
}

// TrackStarter is implemented by sinks that keep a row per track and need
// it created before the first point of the run is written.
type TrackStarter interface {
	StartTrack(ctx context.Context, track telemetry.TrackID) error
}

// fixTime parses the receiver timestamp. ok is false when the fix carries
// no usable time.
func fixTime(s string) (t time.Time, ok bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// timestampOrNow is used by sinks that need a time on every point.
func timestampOrNow(s string) time.Time {
	if t, ok := fixTime(s); ok {
		return t
	}
	return time.Now().UTC()
}
