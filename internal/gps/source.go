// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import "context"

// Reader yields decoded fixes from one open connection to a fix source.
//
// ReadFix returns an error matching ErrMalformed or ErrIrrelevant for a
// single bad report; any other error means the connection is unusable.
type Reader interface {
	ReadFix() (Fix, error)
	Close() error
}

// Source opens connections to a producer of fix reports (gpsd, a serial
// NMEA receiver, ...).
type Source interface {
	Connect(ctx context.Context) (Reader, error)
	String() string
}
