// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

const knotsToMetersPerSecond = 0.514444

// NMEASource reads NMEA 0183 sentences straight from a receiver on a
// serial port, for setups without gpsd.
type NMEASource struct {
	PortName string // /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, ...
	BaudRate int
}

func (s *NMEASource) String() string {
	return fmt.Sprintf("nmea://%s@%d", s.PortName, s.BaudRate)
}

// Connect opens the serial port. The context only matters for the
// caller's cancellation; opening a tty does not block.
func (s *NMEASource) Connect(_ context.Context) (Reader, error) {
	opts := serial.OpenOptions{
		PortName:              s.PortName,
		BaudRate:              uint(s.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.PortName, err)
	}
	return newNMEAReader(port), nil
}

// nmeaReader folds GSA/GGA state into the fix emitted for each RMC.
type nmeaReader struct {
	port   io.ReadCloser
	reader *bufio.Reader

	mode     FixMode
	haveMode bool
	altitude float64
}

func newNMEAReader(port io.ReadCloser) *nmeaReader {
	return &nmeaReader{port: port, reader: bufio.NewReader(port)}
}

func (r *nmeaReader) ReadFix() (Fix, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return Fix{}, fmt.Errorf("nmea read: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return Fix{}, fmt.Errorf("%w: not a sentence", ErrIrrelevant)
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy receivers emit partial sentences on open
		return Fix{}, malformed("%v", err)
	}

	switch sentence.DataType() {
	case nmea.TypeGSA:
		m := sentence.(nmea.GSA)
		switch m.FixType {
		case nmea.Fix3D:
			r.mode = Mode3D
		case nmea.Fix2D:
			r.mode = Mode2D
		default:
			r.mode = ModeNoFix
		}
		r.haveMode = true
		return Fix{}, fmt.Errorf("%w: GSA folded", ErrIrrelevant)

	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		r.altitude = m.Altitude
		return Fix{}, fmt.Errorf("%w: GGA folded", ErrIrrelevant)

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		fix := Fix{
			Mode:      r.mode,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
			Speed:     m.Speed * knotsToMetersPerSecond,
			Altitude:  r.altitude,
			Heading:   m.Course,
			Time:      rmcTime(m),
		}
		if m.Validity != nmea.ValidRMC {
			fix.Mode = ModeNoFix
		} else if !r.haveMode {
			fix.Mode = ModeUnknown
		}
		return fix, nil

	default:
		return Fix{}, fmt.Errorf("%w: %s", ErrIrrelevant, sentence.DataType())
	}
}

func (r *nmeaReader) Close() error {
	return r.port.Close()
}

// rmcTime renders the RMC date and time as RFC3339 in UTC, or "" when the
// receiver has not reported both yet.
func rmcTime(m nmea.RMC) string {
	if !m.Date.Valid || !m.Time.Valid {
		return ""
	}
	year := 2000 + m.Date.YY
	if m.Date.YY >= 80 {
		year = 1900 + m.Date.YY
	}
	t := time.Date(year, time.Month(m.Date.MM), m.Date.DD,
		m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
	return t.Format(time.RFC3339Nano)
}
