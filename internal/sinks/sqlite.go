// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sinks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/relabs-tech/motracker/internal/telemetry"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS track (
	id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS point (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	trkid TEXT REFERENCES track(id),
	fix   INTEGER,
	lat   REAL,
	lon   REAL,
	speed REAL,
	alt   REAL,
	track REAL,
	sep   REAL,
	time  TIMESTAMP
);
CREATE INDEX IF NOT EXISTS point_trkid ON point(trkid);
`

// SQLSink appends one point row per fix to a SQLite database, under the
// track row created at agent start. A track whose row could not be created
// then is inserted again before its first point.
type SQLSink struct {
	db *sql.DB

	mu      sync.Mutex
	started map[telemetry.TrackID]bool
}

// OpenSQLSink opens (creating if needed) the database at path and makes
// sure the schema exists.
func OpenSQLSink(ctx context.Context, path string) (*SQLSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// One connection: SQLite serialises writers anyway, and PRAGMAs are
	// per connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.Printf("sql: database ready at %s", path)
	return &SQLSink{db: db, started: make(map[telemetry.TrackID]bool)}, nil
}

func (s *SQLSink) Name() string { return "sql" }

// StartTrack inserts the track row. Calling it again for the same id is a
// no-op.
func (s *SQLSink) StartTrack(ctx context.Context, track telemetry.TrackID) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO track (id) VALUES (?)`, string(track)); err != nil {
		return fmt.Errorf("insert track %s: %w", track, err)
	}
	s.mu.Lock()
	s.started[track] = true
	s.mu.Unlock()
	return nil
}

func (s *SQLSink) trackStarted(track telemetry.TrackID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started[track]
}

func (s *SQLSink) Write(ctx context.Context, rec Record) error {
	if !s.trackStarted(rec.TrackID) {
		if err := s.StartTrack(ctx, rec.TrackID); err != nil {
			return err
		}
	}

	f := rec.Fix
	var ts sql.NullTime
	if t, ok := fixTime(f.Time); ok {
		ts = sql.NullTime{Time: t, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO point (trkid, fix, lat, lon, speed, alt, track, sep, time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.TrackID), int(f.Mode), f.Latitude, f.Longitude, f.Speed,
		f.Altitude, f.Heading, f.EstimatedError, ts,
	)
	if err != nil {
		return fmt.Errorf("insert point: %w", err)
	}
	return nil
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}
