// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/motracker/internal/display"
	"github.com/relabs-tech/motracker/internal/telemetry"
)

// RefreshLoop redraws the status panel. It renders at most once per
// MinInterval, at least once per MaxInterval, and promptly after a
// notification otherwise.
type RefreshLoop struct {
	Renderer    display.Renderer
	State       *telemetry.State
	Notify      *telemetry.Notifier
	MinInterval time.Duration
	MaxInterval time.Duration
	// LoadAvg, when set, supplies the host load line.
	LoadAvg func() ([3]float64, error)
	Logger  *log.Logger

	failures int
}

// Run redraws until ctx is cancelled. Render errors are logged and the
// next cycle tries again.
func (l *RefreshLoop) Run(ctx context.Context) error {
	for {
		l.render()
		last := time.Now()

		if !sleep(ctx, l.MinInterval) {
			return nil
		}

		wait := l.MaxInterval - time.Since(last)
		if wait <= 0 {
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-l.Notify.C():
		case <-t.C:
		}
		t.Stop()
	}
}

func (l *RefreshLoop) render() {
	logger := loggerOrDefault(l.Logger)

	// the snapshot below covers anything signalled so far; a signal landing
	// after it stays pending for the next cycle
	l.Notify.Clear()
	f := display.Frame{Snapshot: l.State.Snapshot()}
	if l.LoadAvg != nil {
		if load, err := l.LoadAvg(); err == nil {
			f.Load, f.HaveLoad = load, true
		}
	}

	if err := l.Renderer.Render(f); err != nil {
		// a missing panel fails every frame; log the first one only
		if l.failures == 0 {
			logger.Printf("display: %v", &TransientError{Component: "display", Op: "render", Err: err})
		}
		l.failures++
		return
	}
	if l.failures > 0 {
		logger.Printf("display: recovered after %d failed frames", l.failures)
		l.failures = 0
	}
}
