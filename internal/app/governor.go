// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/motracker/internal/battery"
	"github.com/relabs-tech/motracker/internal/telemetry"
)

// ShutdownAction powers the host off.
type ShutdownAction interface {
	Execute() error
}

// Governor polls the battery gauge, publishes the level and powers the
// host off once capacity falls below Threshold.
//
// Only successful reads are compared with the threshold: a gauge that
// cannot be read never triggers a shutdown. The shutdown action runs at
// most once per Governor; polling and publishing carry on afterwards.
type Governor struct {
	Gauge    battery.Gauge
	State    *telemetry.State
	Notify   *telemetry.Notifier
	Shutdown ShutdownAction
	// Threshold is the critical capacity in percent.
	Threshold        float64
	PollInterval     time.Duration
	FallbackInterval time.Duration
	Logger           *log.Logger

	triggered atomic.Bool
}

// Triggered reports whether the shutdown action has been invoked.
func (g *Governor) Triggered() bool {
	return g.triggered.Load()
}

// Run polls until ctx is cancelled.
func (g *Governor) Run(ctx context.Context) error {
	logger := loggerOrDefault(g.Logger)

	if err := g.Gauge.Reinit(); err != nil {
		logger.Printf("battery: %v", &TransientError{Component: "battery", Op: "init", Err: err})
	}

	for {
		capacity, err := g.Gauge.ReadCapacity(ctx)
		if err != nil {
			if IsCancellation(ctx, err) {
				return nil
			}
			logger.Printf("battery: %v; reinitialising in %s",
				&TransientError{Component: "battery", Op: "read", Err: err}, g.FallbackInterval)
			if !sleep(ctx, g.FallbackInterval) {
				return nil
			}
			if err := g.Gauge.Reinit(); err != nil {
				logger.Printf("battery: %v", &TransientError{Component: "battery", Op: "reinit", Err: err})
			}
			if !sleep(ctx, g.PollInterval) {
				return nil
			}
			continue
		}

		g.State.SetBattery(capacity)
		g.Notify.Signal()

		if capacity < g.Threshold {
			g.trigger(logger, capacity)
		}

		if !sleep(ctx, g.PollInterval) {
			return nil
		}
	}
}

func (g *Governor) trigger(logger *log.Logger, capacity float64) {
	if !g.triggered.CompareAndSwap(false, true) {
		return
	}
	logger.Printf("battery: SHUTDOWN: %v", fmt.Errorf("%w: %.2f%% < %.2f%%", ErrCriticalBattery, capacity, g.Threshold))
	if g.Shutdown == nil {
		return
	}
	if err := g.Shutdown.Execute(); err != nil {
		logger.Printf("battery: shutdown failed: %v", err)
	}
}
