// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"fmt"
)

// FixMode is the coarse quality of a position solution. Values follow the
// gpsd TPV "mode" field so they can be shown and stored as-is.
type FixMode int

const (
	ModeUnknown FixMode = 0
	ModeNoFix   FixMode = 1
	Mode2D      FixMode = 2
	Mode3D      FixMode = 3
)

func (m FixMode) String() string {
	switch m {
	case ModeNoFix:
		return "nofix"
	case Mode2D:
		return "2d"
	case Mode3D:
		return "3d"
	default:
		return "unknown"
	}
}

// Fix is one decoded position/velocity/time sample. Fields the source did
// not report keep their zero value; Time is "" when absent.
type Fix struct {
	Mode           FixMode `json:"mode"`
	Latitude       float64 `json:"lat"`   // decimal degrees
	Longitude      float64 `json:"lon"`   // decimal degrees
	Speed          float64 `json:"speed"` // m/s
	Altitude       float64 `json:"alt"`   // m (MSL)
	Heading        float64 `json:"track"` // degrees from true north
	EstimatedError float64 `json:"sep"`   // m, spherical position error
	Time           string  `json:"time"`  // ISO-8601 / RFC3339
}

var (
	// ErrMalformed marks a report that could not be decoded or lacks a
	// required field. The stream drops it and keeps reading.
	ErrMalformed = errors.New("gps: malformed report")

	// ErrIrrelevant marks a well-formed report of a class the agent does
	// not consume. The stream drops it and keeps reading.
	ErrIrrelevant = errors.New("gps: irrelevant report")
)

// IsDroppable reports whether err only concerns a single report and the
// connection that produced it is still healthy.
func IsDroppable(err error) bool {
	return errors.Is(err, ErrMalformed) || errors.Is(err, ErrIrrelevant)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}
