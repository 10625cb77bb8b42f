// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/relabs-tech/motracker/internal/display"
	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/sinks"
	"github.com/relabs-tech/motracker/internal/telemetry"
	"github.com/relabs-tech/motracker/internal/testutil"
)

func testLogger() (*log.Logger, *testutil.LogBuffer) {
	buf := &testutil.LogBuffer{}
	return log.New(buf, "", 0), buf
}

type readResult struct {
	fix gps.Fix
	err error
}

// fakeReader returns whatever the test pushes on items and blocks
// otherwise, like a receiver with nothing to say.
type fakeReader struct {
	items  chan readResult
	closed chan struct{}
	once   sync.Once
}

func newFakeReader() *fakeReader {
	return &fakeReader{items: make(chan readResult, 16), closed: make(chan struct{})}
}

func (r *fakeReader) push(fix gps.Fix) { r.items <- readResult{fix: fix} }
func (r *fakeReader) fail(err error) { r.items <- readResult{err: err} }
func (r *fakeReader) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

func (r *fakeReader) ReadFix() (gps.Fix, error) {
	select {
	case <-r.closed:
		return gps.Fix{}, net.ErrClosed
	default:
	}
	select {
	case it := <-r.items:
		return it.fix, it.err
	case <-r.closed:
		return gps.Fix{}, net.ErrClosed
	}
}

func (r *fakeReader) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

// fakeSource hands out the readers queued on conns, one per Connect.
type fakeSource struct {
	conns    chan *fakeReader
	connects atomic.Int32
}

func newFakeSource(readers ...*fakeReader) *fakeSource {
	s := &fakeSource{conns: make(chan *fakeReader, 16)}
	for _, r := range readers {
		s.conns <- r
	}
	return s
}

func (s *fakeSource) String() string { return "fake" }

func (s *fakeSource) Connect(ctx context.Context) (gps.Reader, error) {
	s.connects.Add(1)
	select {
	case r := <-s.conns:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordingDispatcher reports every dispatched fix.
type recordingDispatcher struct {
	fixes chan gps.Fix
}

func (d *recordingDispatcher) Dispatch(_ context.Context, fix gps.Fix) {
	d.fixes <- fix
}

// recordingSink reports every record it is asked to write.
type recordingSink struct {
	name    string
	records chan sinks.Record
	tracks  chan telemetry.TrackID
	closed  atomic.Bool
}

func newRecordingSink(name string) *recordingSink {
	return &recordingSink{
		name:    name,
		records: make(chan sinks.Record, 16),
		tracks:  make(chan telemetry.TrackID, 1),
	}
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Write(_ context.Context, rec sinks.Record) error {
	s.records <- rec
	return nil
}

func (s *recordingSink) StartTrack(_ context.Context, track telemetry.TrackID) error {
	s.tracks <- track
	return nil
}

func (s *recordingSink) Close() error {
	s.closed.Store(true)
	return nil
}

// hangingSink blocks every write until its context ends or release is
// closed.
type hangingSink struct {
	started chan struct{}
	release chan struct{}
}

func newHangingSink() *hangingSink {
	return &hangingSink{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *hangingSink) Name() string { return "hanging" }

func (s *hangingSink) Write(ctx context.Context, _ sinks.Record) error {
	s.started <- struct{}{}
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *hangingSink) Close() error { return nil }

type panickingSink struct{}

func (panickingSink) Name() string { return "panicking" }
func (panickingSink) Write(context.Context, sinks.Record) error { panic("boom") }
func (panickingSink) Close() error { return nil }

// fakeRenderer reports every frame; the first failFirst renders fail.
type fakeRenderer struct {
	frames    chan display.Frame
	failFirst int32
	calls     atomic.Int32
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{frames: make(chan display.Frame, 1024)}
}

func (r *fakeRenderer) Render(f display.Frame) error {
	if r.calls.Add(1) <= r.failFirst {
		return errors.New("panel not responding")
	}
	select {
	case r.frames <- f:
	default:
	}
	return nil
}

// fakeGauge replays readings; after the script runs out the last entry
// repeats.
type fakeGauge struct {
	mu      sync.Mutex
	script  []gaugeReading
	reads   atomic.Int32
	reinits atomic.Int32
}

type gaugeReading struct {
	capacity float64
	err      error
}

func (g *fakeGauge) ReadCapacity(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reads.Add(1)
	next := g.script[0]
	if len(g.script) > 1 {
		g.script = g.script[1:]
	}
	return next.capacity, next.err
}

func (g *fakeGauge) Reinit() error {
	g.reinits.Add(1)
	return nil
}

// countingShutdown counts Execute calls and records the log as it was at
// the first call.
type countingShutdown struct {
	calls    atomic.Int32
	log      *testutil.LogBuffer
	logAtRun atomic.Value
}

func (s *countingShutdown) Execute() error {
	if s.calls.Add(1) == 1 && s.log != nil {
		s.logAtRun.Store(s.log.String())
	}
	return nil
}
