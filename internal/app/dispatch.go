// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/sinks"
	"github.com/relabs-tech/motracker/internal/spatial"
	"github.com/relabs-tech/motracker/internal/telemetry"
)

// Dispatcher hands every fix to each sink on its own goroutine. A sink that
// hangs or fails delays nothing but its own write; the stream loop returns
// from Dispatch immediately.
type Dispatcher struct {
	Sinks    []sinks.Sink
	Indexer  spatial.Indexer
	DeviceID string
	TrackID  telemetry.TrackID
	// WriteTimeout bounds one write attempt. Writes outlive agent
	// cancellation up to this bound so a fix already in flight is not cut
	// short by shutdown. 0 means writes are cancelled with the agent.
	WriteTimeout time.Duration
	Logger       *log.Logger

	inflight sync.WaitGroup
}

// Dispatch starts one write per sink for fix and returns.
func (d *Dispatcher) Dispatch(ctx context.Context, fix gps.Fix) {
	if len(d.Sinks) == 0 {
		return
	}
	rec := sinks.Record{
		DeviceID: d.DeviceID,
		TrackID:  d.TrackID,
		Cell:     d.Indexer.Token(fix.Latitude, fix.Longitude),
		Fix:      fix,
	}
	for _, s := range d.Sinks {
		d.inflight.Go(func() { d.write(ctx, s, rec) })
	}
}

// Wait blocks until every started write has finished or timed out.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) write(ctx context.Context, s sinks.Sink, rec sinks.Record) {
	logger := loggerOrDefault(d.Logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("dispatch: %s write panicked: %v", s.Name(), r)
		}
	}()

	wctx := ctx
	if d.WriteTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), d.WriteTimeout)
		defer cancel()
	}

	if err := s.Write(wctx, rec); err != nil {
		if d.WriteTimeout <= 0 && IsCancellation(ctx, err) {
			return
		}
		logger.Printf("dispatch: %v", &TransientError{Component: s.Name(), Op: "write", Err: err})
	}
}
