// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sinks

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxSink writes each fix as one point tagged with the device id and
// its S2 cell.
type InfluxSink struct {
	client      influxdb2.Client
	writer      api.WriteAPIBlocking
	measurement string
}

// InfluxOptions are the connection parameters of an InfluxSink.
type InfluxOptions struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

func NewInfluxSink(opts InfluxOptions) *InfluxSink {
	client := influxdb2.NewClient(opts.URL, opts.Token)
	measurement := opts.Measurement
	if measurement == "" {
		measurement = "moto"
	}
	return &InfluxSink{
		client:      client,
		writer:      client.WriteAPIBlocking(opts.Org, opts.Bucket),
		measurement: measurement,
	}
}

func (s *InfluxSink) Name() string { return "influx" }

func (s *InfluxSink) Write(ctx context.Context, rec Record) error {
	f := rec.Fix
	p := influxdb2.NewPoint(s.measurement,
		map[string]string{
			"id":         rec.DeviceID,
			"s2_cell_id": rec.Cell,
		},
		map[string]interface{}{
			"fix":   int(f.Mode),
			"lat":   f.Latitude,
			"lon":   f.Longitude,
			"speed": f.Speed,
			"alt":   f.Altitude,
			"track": f.Heading,
			"sep":   f.EstimatedError,
			"tid":   string(rec.TrackID),
		},
		timestampOrNow(f.Time),
	)
	if err := s.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
