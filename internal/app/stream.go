// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/telemetry"
)

// StreamState is the connection state of the position stream.
type StreamState int32

const (
	StreamDisconnected StreamState = iota
	StreamConnecting
	StreamStreaming
	StreamTerminated
)

func (s StreamState) String() string {
	switch s {
	case StreamDisconnected:
		return "disconnected"
	case StreamConnecting:
		return "connecting"
	case StreamStreaming:
		return "streaming"
	case StreamTerminated:
		return "terminated"
	}
	return "unknown"
}

// FixDispatcher fans a fix out to the persistence sinks without blocking.
type FixDispatcher interface {
	Dispatch(ctx context.Context, fix gps.Fix)
}

// Stream keeps a connection to the position source open and turns every
// valid report into a shared-state update, a display wakeup and a dispatch.
// Connection faults never escape Run: the stream reconnects after
// ReconnectDelay, forever, until ctx is cancelled.
type Stream struct {
	Source         gps.Source
	State          *telemetry.State
	Notify         *telemetry.Notifier
	Dispatcher     FixDispatcher
	ReconnectDelay time.Duration
	Logger         *log.Logger

	state atomic.Int32
}

// ConnState returns the current connection state.
func (s *Stream) ConnState() StreamState {
	return StreamState(s.state.Load())
}

func (s *Stream) setState(st StreamState) {
	s.state.Store(int32(st))
}

// Run streams until ctx is cancelled. It returns nil on cancellation.
func (s *Stream) Run(ctx context.Context) error {
	logger := loggerOrDefault(s.Logger)
	defer s.setState(StreamTerminated)

	for {
		err := s.session(ctx)
		s.setState(StreamDisconnected)
		if IsCancellation(ctx, err) {
			logger.Printf("stream: stopped")
			return nil
		}
		logger.Printf("stream: %v; reconnecting in %s", err, s.ReconnectDelay)
		if !sleep(ctx, s.ReconnectDelay) {
			logger.Printf("stream: stopped")
			return nil
		}
	}
}

// session runs one connection from connect to failure. It always returns
// a non-nil error.
func (s *Stream) session(ctx context.Context) error {
	s.setState(StreamConnecting)
	reader, err := s.Source.Connect(ctx)
	if err != nil {
		return &TransientError{Component: "stream", Op: "connect " + s.Source.String(), Err: err}
	}
	defer reader.Close()

	// ReadFix blocks on the device; closing it is the only way to wake it.
	stop := context.AfterFunc(ctx, func() { reader.Close() })
	defer stop()

	loggerOrDefault(s.Logger).Printf("stream: connected to %s", s.Source)
	s.setState(StreamStreaming)

	for {
		fix, err := reader.ReadFix()
		if err != nil {
			if gps.IsDroppable(err) {
				continue
			}
			return &TransientError{Component: "stream", Op: "read", Err: err}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.handle(ctx, fix)
	}
}

func (s *Stream) handle(ctx context.Context, fix gps.Fix) {
	s.State.SetFix(fix)
	s.Notify.Signal()
	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(ctx, fix)
	}
}
