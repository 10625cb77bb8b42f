// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

const earthRadiusMeters = 6371000.0

// SimSource generates a 3D fix moving around a circle, for bench runs
// without a receiver attached.
type SimSource struct {
	Latitude  float64 // circle centre, degrees
	Longitude float64
	Radius    float64 // meters
	Speed     float64 // m/s along the circle
	Interval  time.Duration
}

func (s *SimSource) String() string {
	return fmt.Sprintf("sim://%.6f,%.6f", s.Latitude, s.Longitude)
}

// Connect starts a new simulated run at angle zero.
func (s *SimSource) Connect(_ context.Context) (Reader, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	return &simReader{
		src:    s,
		start:  time.Now(),
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}, nil
}

type simReader struct {
	src    *SimSource
	start  time.Time
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// ReadFix waits one interval and returns the position at that time.
func (r *simReader) ReadFix() (Fix, error) {
	select {
	case now := <-r.ticker.C:
		return r.src.at(now.Sub(r.start), now), nil
	case <-r.done:
		return Fix{}, fmt.Errorf("sim source closed")
	}
}

func (r *simReader) Close() error {
	r.once.Do(func() {
		r.ticker.Stop()
		close(r.done)
	})
	return nil
}

// at returns the simulated fix after elapsed time on the circle.
func (s *SimSource) at(elapsed time.Duration, now time.Time) Fix {
	var angle float64
	if s.Radius > 0 {
		angle = s.Speed * elapsed.Seconds() / s.Radius
	}

	// small-circle offsets, fine for radii of a few kilometers
	dLat := s.Radius * math.Cos(angle) / earthRadiusMeters
	dLon := s.Radius * math.Sin(angle) / (earthRadiusMeters * math.Cos(s.Latitude*math.Pi/180))

	// north, east, south, west: clockwise, so the heading leads the angle by 90°
	heading := math.Mod(90+angle*180/math.Pi, 360)

	return Fix{
		Mode:           Mode3D,
		Latitude:       s.Latitude + dLat*180/math.Pi,
		Longitude:      s.Longitude + dLon*180/math.Pi,
		Speed:          s.Speed,
		Altitude:       100 + 5*math.Sin(angle),
		Heading:        heading,
		EstimatedError: 3,
		Time:           now.UTC().Format(time.RFC3339Nano),
	}
}
