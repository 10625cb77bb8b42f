// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/sinks"
	"github.com/relabs-tech/motracker/internal/spatial"
	"github.com/relabs-tech/motracker/internal/testutil"
)

func newTestDispatcher(t *testing.T, timeout time.Duration, ss ...sinks.Sink) (*Dispatcher, *testutil.LogBuffer) {
	t.Helper()
	ix, err := spatial.NewIndexer(spatial.DefaultLevel)
	if err != nil {
		t.Fatal(err)
	}
	logger, buf := testLogger()
	return &Dispatcher{
		Sinks:        ss,
		Indexer:      ix,
		DeviceID:     "moto-1",
		TrackID:      "trk",
		WriteTimeout: timeout,
		Logger:       logger,
	}, buf
}

func TestDispatchBuildsRecord(t *testing.T) {
	sink := newRecordingSink("rec")
	d, _ := newTestDispatcher(t, time.Second, sink)

	fix := gps.Fix{Mode: gps.Mode3D, Latitude: 45, Longitude: 7}
	d.Dispatch(context.Background(), fix)
	d.Wait()

	rec := testutil.RequireReceive(t, sink.records, time.Second, "record")
	if rec.DeviceID != "moto-1" || rec.TrackID != "trk" || rec.Fix != fix {
		t.Fatalf("record = %+v", rec)
	}
	if want := spatial.CellToken(45, 7, spatial.DefaultLevel); rec.Cell != want {
		t.Fatalf("cell = %q, want %q", rec.Cell, want)
	}
}

func TestDispatchHangingSinkDoesNotBlockOthers(t *testing.T) {
	hanging := newHangingSink()
	fast := newRecordingSink("fast")
	d, _ := newTestDispatcher(t, time.Minute, hanging, fast)

	returned := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), gps.Fix{Latitude: 1})
		d.Dispatch(context.Background(), gps.Fix{Latitude: 2})
		close(returned)
	}()
	testutil.RequireReceive(t, returned, time.Second, "Dispatch blocked on a hanging sink")

	seen := map[float64]bool{}
	for range 2 {
		rec := testutil.RequireReceive(t, fast.records, time.Second, "fast sink write")
		seen[rec.Fix.Latitude] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("fast sink saw %v, want both fixes", seen)
	}

	testutil.RequireReceive(t, hanging.started, time.Second, "hanging write 1")
	testutil.RequireReceive(t, hanging.started, time.Second, "hanging write 2")
	close(hanging.release)

	waited := make(chan struct{})
	go func() { d.Wait(); close(waited) }()
	testutil.RequireReceive(t, waited, time.Second, "Wait after release")
}

func TestDispatchWriteTimeout(t *testing.T) {
	hanging := newHangingSink()
	d, logs := newTestDispatcher(t, 20*time.Millisecond, hanging)

	d.Dispatch(context.Background(), gps.Fix{})

	waited := make(chan struct{})
	go func() { d.Wait(); close(waited) }()
	testutil.RequireReceive(t, waited, time.Second, "write not bounded by the timeout")

	if !strings.Contains(logs.String(), "hanging write") {
		t.Fatalf("timed out write not logged:\n%s", logs)
	}
}

func TestDispatchWritesOutliveCancellation(t *testing.T) {
	hanging := newHangingSink()
	d, _ := newTestDispatcher(t, time.Minute, hanging)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, gps.Fix{})
	testutil.RequireReceive(t, hanging.started, time.Second, "write started")
	cancel()

	waited := make(chan struct{})
	go func() { d.Wait(); close(waited) }()
	testutil.RequireNoReceive(t, waited, 50*time.Millisecond, "in-flight write cut short by cancellation")

	close(hanging.release)
	testutil.RequireReceive(t, waited, time.Second, "Wait after release")
}

func TestDispatchSurvivesPanickingSink(t *testing.T) {
	fast := newRecordingSink("fast")
	d, logs := newTestDispatcher(t, time.Second, panickingSink{}, fast)

	d.Dispatch(context.Background(), gps.Fix{Latitude: 3})
	d.Wait()

	testutil.RequireReceive(t, fast.records, time.Second, "fast sink write")
	if !strings.Contains(logs.String(), "panicking write panicked") {
		t.Fatalf("panic not logged:\n%s", logs)
	}
}

func TestDispatchWithoutSinks(t *testing.T) {
	d, _ := newTestDispatcher(t, time.Second)
	d.Dispatch(context.Background(), gps.Fix{})
	d.Wait()
}
