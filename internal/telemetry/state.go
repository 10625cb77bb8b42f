// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry holds the live record shared by the agent's loops: the
// latest fix, the run's track id and the latest battery level.
package telemetry

import (
	"sync/atomic"

	"github.com/lithammer/shortuuid/v4"

	"github.com/relabs-tech/motracker/internal/gps"
)

// TrackID groups every fix persisted during one agent run.
type TrackID string

// NewTrackID mints a short unique track id.
func NewTrackID() TrackID {
	return TrackID(shortuuid.New())
}

// Snapshot is an immutable copy of the shared record.
type Snapshot struct {
	Fix     gps.Fix `json:"fix"`
	HaveFix bool    `json:"have_fix"`
	TrackID TrackID `json:"track_id"`
	Battery float64 `json:"battery"` // percent
	// HaveBattery is false until the first successful gauge read.
	HaveBattery bool `json:"have_battery"`
}

// State is the shared telemetry record. Each update publishes a whole new
// Snapshot, so readers never see a fix from one write mixed with a
// half-applied other write.
//
// Ownership: SetFix is called only by the stream loop and SetBattery only
// by the safety governor. The compare-and-swap keeps the two writers from
// losing each other's field when they publish at the same instant.
type State struct {
	current atomic.Pointer[Snapshot]
}

// NewState returns a State with zero fix and battery for the given track.
func NewState(track TrackID) *State {
	s := &State{}
	s.current.Store(&Snapshot{TrackID: track})
	return s
}

// Snapshot returns the latest record.
func (s *State) Snapshot() Snapshot {
	return *s.current.Load()
}

// SetFix replaces the fix fields.
func (s *State) SetFix(fix gps.Fix) {
	s.update(func(next *Snapshot) {
		next.Fix = fix
		next.HaveFix = true
	})
}

// SetBattery replaces the battery level.
func (s *State) SetBattery(percent float64) {
	s.update(func(next *Snapshot) {
		next.Battery = percent
		next.HaveBattery = true
	})
}

func (s *State) update(apply func(*Snapshot)) {
	for {
		old := s.current.Load()
		next := *old
		apply(&next)
		if s.current.CompareAndSwap(old, &next) {
			return
		}
	}
}
