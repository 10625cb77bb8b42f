// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Error kinds the loops decide on:
//
//   - gps.ErrMalformed / gps.ErrIrrelevant: one bad report, dropped silently.
//   - *TransientError: an I/O fault of a stream, sink, panel or gauge;
//     logged and retried by the component that hit it.
//   - ErrCriticalBattery: the safety policy fired; logged, then the host
//     is powered off.
//   - cancellation of the agent context: clean unwind, never logged as an
//     error.

// ErrCriticalBattery is logged when capacity drops below the threshold.
var ErrCriticalBattery = errors.New("battery critically low")

// TransientError is an I/O fault local to one component.
type TransientError struct {
	Component string
	Op        string
	Err       error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Component, e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsCancellation reports whether err is the result of ctx being cancelled
// rather than a fault. Once ctx is done every error counts: closing a
// reader to unblock it surfaces as "use of closed connection" and the like.
func IsCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// sleep waits d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func loggerOrDefault(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.Default()
}
