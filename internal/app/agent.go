// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/motracker/internal/battery"
	"github.com/relabs-tech/motracker/internal/config"
	"github.com/relabs-tech/motracker/internal/display"
	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/sinks"
	"github.com/relabs-tech/motracker/internal/spatial"
	"github.com/relabs-tech/motracker/internal/telemetry"
)

// Parts are the devices and clients an Agent drives. A nil Renderer or
// Gauge leaves the corresponding loop out.
type Parts struct {
	Source   gps.Source
	Sinks    []sinks.Sink
	Renderer display.Renderer
	Gauge    battery.Gauge
	Shutdown ShutdownAction
	LoadAvg  func() ([3]float64, error)
}

// Agent owns the shared telemetry record and runs the concurrent
// activities around it until its context is cancelled.
type Agent struct {
	DeviceID string
	TrackID  telemetry.TrackID
	State    *telemetry.State
	Notify   *telemetry.Notifier

	Stream     *Stream
	Dispatcher *Dispatcher
	Refresh    *RefreshLoop
	Governor   *Governor
	Status     *StatusServer

	Sinks []sinks.Sink
	// RestartDelay is the wait before an activity that failed is started
	// again.
	RestartDelay time.Duration
	Logger       *log.Logger
}

// NewAgent wires the activities for one run: a fresh track id, one
// shared state and notifier, and the loops configured by cfg.
func NewAgent(cfg *config.Config, parts Parts, logger *log.Logger) (*Agent, error) {
	logger = loggerOrDefault(logger)

	indexer, err := spatial.NewIndexer(cfg.CellLevel)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	track := telemetry.NewTrackID()
	state := telemetry.NewState(track)
	notify := telemetry.NewNotifier()

	a := &Agent{
		DeviceID:     cfg.DeviceName,
		TrackID:      track,
		State:        state,
		Notify:       notify,
		Sinks:        parts.Sinks,
		RestartDelay: cfg.ReconnectDelay,
		Logger:       logger,
	}

	a.Dispatcher = &Dispatcher{
		Sinks:        parts.Sinks,
		Indexer:      indexer,
		DeviceID:     cfg.DeviceName,
		TrackID:      track,
		WriteTimeout: cfg.SinkWriteTimeout,
		Logger:       logger,
	}
	a.Stream = &Stream{
		Source:         parts.Source,
		State:          state,
		Notify:         notify,
		Dispatcher:     a.Dispatcher,
		ReconnectDelay: cfg.ReconnectDelay,
		Logger:         logger,
	}

	if parts.Renderer != nil {
		a.Refresh = &RefreshLoop{
			Renderer:    parts.Renderer,
			State:       state,
			Notify:      notify,
			MinInterval: cfg.DisplayMinInterval,
			MaxInterval: cfg.DisplayMaxInterval,
			LoadAvg:     parts.LoadAvg,
			Logger:      logger,
		}
	}
	if parts.Gauge != nil {
		a.Governor = &Governor{
			Gauge:            parts.Gauge,
			State:            state,
			Notify:           notify,
			Shutdown:         parts.Shutdown,
			Threshold:        cfg.BatteryCriticalPercent,
			PollInterval:     cfg.BatteryPollInterval,
			FallbackInterval: cfg.BatteryFallbackInterval,
			Logger:           logger,
		}
	}
	if cfg.StatusAddr != "" {
		a.Status = &StatusServer{
			Addr:         cfg.StatusAddr,
			State:        state,
			Stream:       a.Stream,
			Governor:     a.Governor,
			PushInterval: cfg.DisplayMaxInterval,
			Logger:       logger,
		}
	}
	return a, nil
}

// Run starts every configured activity and blocks until ctx is cancelled
// and all of them have unwound. In-flight sink writes are waited for and
// the sinks closed before Run returns.
func (a *Agent) Run(ctx context.Context) error {
	logger := loggerOrDefault(a.Logger)
	logger.Printf("agent: device %s, track %s, %d sink(s)", a.DeviceID, a.TrackID, len(a.Sinks))

	a.startTrack(ctx)

	var g errgroup.Group
	start := func(name string, run func(context.Context) error) {
		g.Go(func() error {
			return supervise(ctx, logger, name, a.RestartDelay, run)
		})
	}

	start("stream", a.Stream.Run)
	if a.Refresh != nil {
		start("display", a.Refresh.Run)
	}
	if a.Governor != nil {
		start("battery", a.Governor.Run)
	}
	if a.Status != nil {
		start("status", a.Status.Run)
	}

	err := g.Wait()

	a.Dispatcher.Wait()
	for _, s := range a.Sinks {
		if cerr := s.Close(); cerr != nil {
			logger.Printf("agent: closing %s sink: %v", s.Name(), cerr)
		}
	}
	logger.Printf("agent: stopped")
	return err
}

// startTrack creates the run's track row in the sinks that keep one.
func (a *Agent) startTrack(ctx context.Context) {
	logger := loggerOrDefault(a.Logger)
	for _, s := range a.Sinks {
		ts, ok := s.(sinks.TrackStarter)
		if !ok {
			continue
		}
		if err := ts.StartTrack(ctx, a.TrackID); err != nil {
			logger.Printf("agent: %v", &TransientError{Component: s.Name(), Op: "start track", Err: err})
		}
	}
}
