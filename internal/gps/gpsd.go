// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"
)

// watchCommand asks gpsd to stream JSON reports on the connection.
const watchCommand = "?WATCH={\"enable\":true,\"json\":true}\n"

// tpvReport is the subset of a gpsd report the agent consumes.
// https://gpsd.io/gpsd_json.html
type tpvReport struct {
	Class  string  `json:"class"`
	Mode   *int    `json:"mode"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Speed  float64 `json:"speed"`
	AltMSL float64 `json:"altMSL"`
	Track  float64 `json:"track"`
	Sep    float64 `json:"sep"`
	Time   string  `json:"time"`
}

// DecodeReport decodes one gpsd JSON line. Only TPV reports carrying a
// mode produce a Fix; every other class returns ErrIrrelevant.
func DecodeReport(line []byte) (Fix, error) {
	var r tpvReport
	if err := json.Unmarshal(line, &r); err != nil {
		return Fix{}, malformed("decode: %v", err)
	}
	if r.Class != "TPV" {
		return Fix{}, fmt.Errorf("%w: class %q", ErrIrrelevant, r.Class)
	}
	if r.Mode == nil {
		return Fix{}, malformed("TPV without mode")
	}

	return Fix{
		Mode:           FixMode(*r.Mode),
		Latitude:       r.Lat,
		Longitude:      r.Lon,
		Speed:          r.Speed,
		Altitude:       r.AltMSL,
		Heading:        r.Track,
		EstimatedError: r.Sep,
		Time:           r.Time,
	}, nil
}

// GpsdSource connects to a gpsd daemon over TCP.
type GpsdSource struct {
	Addr           string
	ConnectTimeout time.Duration
	// RxTimeout bounds the wait for the next line. gpsd emits at least one
	// report per second while a receiver is attached, so silence longer
	// than this means the daemon or the device is gone.
	RxTimeout time.Duration
}

func (s *GpsdSource) String() string {
	return "gpsd://" + s.Addr
}

// Connect dials gpsd and enables the JSON watcher.
func (s *GpsdSource) Connect(ctx context.Context) (Reader, error) {
	d := net.Dialer{Timeout: s.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", s.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial gpsd %s: %w", s.Addr, err)
	}

	if s.ConnectTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.ConnectTimeout))
	}
	if _, err := io.WriteString(conn, watchCommand); err != nil {
		conn.Close()
		return nil, fmt.Errorf("gpsd watch: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	scanner := bufio.NewScanner(conn)
	// SKY reports with many satellites exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	return &gpsdReader{conn: conn, scanner: scanner, rxTimeout: s.RxTimeout}, nil
}

type gpsdReader struct {
	conn      net.Conn
	scanner   *bufio.Scanner
	rxTimeout time.Duration
}

func (r *gpsdReader) ReadFix() (Fix, error) {
	if r.rxTimeout > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.rxTimeout)); err != nil {
			return Fix{}, err
		}
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Fix{}, fmt.Errorf("gpsd read: %w", err)
		}
		return Fix{}, fmt.Errorf("gpsd read: %w", io.EOF)
	}
	line := r.scanner.Bytes()
	if len(line) == 0 {
		return Fix{}, fmt.Errorf("%w: empty line", ErrIrrelevant)
	}
	return DecodeReport(line)
}

func (r *gpsdReader) Close() error {
	return r.conn.Close()
}
