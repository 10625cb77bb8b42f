// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"

	"github.com/relabs-tech/motracker/internal/telemetry"
)

// Frame is everything one refresh draws.
type Frame struct {
	Snapshot telemetry.Snapshot
	Load     [3]float64 // 1, 5 and 15 minute load averages
	HaveLoad bool
}

// Renderer pushes frames to a panel.
type Renderer interface {
	Render(f Frame) error
}

// Lines lays a frame out as the text rows of the status screen:
//
//	BAT: 85.00    FIX: 3
//	LAT: 45.000000000
//	LON: 7.000000000
//	24-01-01T00:00:00Z
//	0.42 0.31 0.20
func Lines(f Frame, showLoad bool) []string {
	s := f.Snapshot

	bat := "--"
	if s.HaveBattery {
		bat = fmt.Sprintf("%.2f", s.Battery)
	}

	// drop the century so the timestamp fits the panel width
	ts := s.Fix.Time
	if len(ts) > 2 {
		ts = ts[2:]
	}

	lines := []string{
		fmt.Sprintf("BAT: %s    FIX: %d", bat, int(s.Fix.Mode)),
		fmt.Sprintf("LAT: %.9f", s.Fix.Latitude),
		fmt.Sprintf("LON: %.9f", s.Fix.Longitude),
		ts,
	}
	if showLoad && f.HaveLoad {
		lines = append(lines, fmt.Sprintf("%.2f %.2f %.2f", f.Load[0], f.Load[1], f.Load[2]))
	}
	return lines
}
