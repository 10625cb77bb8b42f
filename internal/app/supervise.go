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

// errStoppedEarly is reported when an activity returns before cancellation
// without an error of its own.
var errStoppedEarly = errors.New("returned before shutdown")

// errPermanent marks a failure a restart cannot fix, such as a listen
// address already in use. supervise logs it once and lets the activity go.
var errPermanent = errors.New("permanent failure")

func permanent(err error) error {
	return fmt.Errorf("%w: %w", errPermanent, err)
}

// supervise runs an activity until ctx is cancelled. Errors and panics
// escaping the activity are logged and it is restarted after delay, so a
// fault in one loop never takes down the others. An activity failing with
// errPermanent is logged once and not restarted.
func supervise(ctx context.Context, logger *log.Logger, name string, delay time.Duration, run func(context.Context) error) error {
	for {
		err := guarded(ctx, run)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errStoppedEarly
		}
		if errors.Is(err, errPermanent) {
			logger.Printf("agent: %s %v; not restarting", name, err)
			return nil
		}
		logger.Printf("agent: %s %v; restarting in %s", name, err, delay)
		if !sleep(ctx, delay) {
			return nil
		}
	}
}

func guarded(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
	}()
	return run(ctx)
}
