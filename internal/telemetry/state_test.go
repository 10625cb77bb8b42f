// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"sync"
	"testing"

	"github.com/relabs-tech/motracker/internal/gps"
)

func TestNewStateDefaults(t *testing.T) {
	s := NewState("trk1")
	snap := s.Snapshot()
	if snap.TrackID != "trk1" {
		t.Fatalf("TrackID = %q", snap.TrackID)
	}
	if snap.HaveFix || snap.HaveBattery || snap.Fix != (gps.Fix{}) || snap.Battery != 0 {
		t.Fatalf("fresh snapshot not zero: %+v", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewState("trk")
	snap := s.Snapshot()
	snap.Battery = 99
	if got := s.Snapshot().Battery; got != 0 {
		t.Fatalf("mutating a snapshot leaked into state: battery = %v", got)
	}
}

// Both writers hammer the record concurrently; neither may lose the
// other's field and every fix a reader sees must be one that was written
// whole.
func TestConcurrentWritersDoNotTear(t *testing.T) {
	s := NewState("trk")
	const n = 2000

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			v := float64(i)
			s.SetFix(gps.Fix{Mode: gps.Mode3D, Latitude: v, Longitude: v, Speed: v})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			s.SetBattery(float64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			f := s.Snapshot().Fix
			if f.Latitude != f.Longitude || f.Latitude != f.Speed {
				t.Errorf("torn fix: %+v", f)
				return
			}
		}
	}()
	wg.Wait()

	snap := s.Snapshot()
	if snap.Fix.Latitude != n || snap.Battery != n {
		t.Fatalf("final snapshot lost an update: %+v", snap)
	}
}

func TestNewTrackIDUnique(t *testing.T) {
	seen := map[TrackID]bool{}
	for i := 0; i < 100; i++ {
		id := NewTrackID()
		if id == "" || seen[id] {
			t.Fatalf("duplicate or empty track id %q", id)
		}
		seen[id] = true
	}
}

func TestNotifierCoalesces(t *testing.T) {
	n := NewNotifier()
	for i := 0; i < 10; i++ {
		n.Signal()
	}

	select {
	case <-n.C():
	default:
		t.Fatal("no pending signal after Signal")
	}
	select {
	case <-n.C():
		t.Fatal("ten signals produced more than one wakeup")
	default:
	}

	// a signal after the consumer took the slot is kept
	n.Signal()
	select {
	case <-n.C():
	default:
		t.Fatal("signal after clear was dropped")
	}

	n.Signal()
	n.Clear()
	select {
	case <-n.C():
		t.Fatal("Clear left the flag set")
	default:
	}
}
