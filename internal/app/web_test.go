// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/motracker/internal/gps"
	"github.com/relabs-tech/motracker/internal/telemetry"
	"github.com/relabs-tech/motracker/internal/testutil"
)

func newTestStatus(t *testing.T) (*StatusServer, *httptest.Server) {
	t.Helper()
	logger, _ := testLogger()
	s := &StatusServer{
		State:        telemetry.NewState("trk-1"),
		Stream:       &Stream{},
		PushInterval: 10 * time.Millisecond,
		Logger:       logger,
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func TestStatusStateBeforeData(t *testing.T) {
	_, srv := newTestStatus(t)

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

func TestStatusState(t *testing.T) {
	s, srv := newTestStatus(t)
	s.State.SetFix(gps.Fix{Mode: gps.Mode3D, Latitude: 45, Longitude: 7})
	s.State.SetBattery(77)

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var v StatusView
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Fix.Latitude != 45 || v.Fix.Mode != gps.Mode3D || v.Battery != 77 {
		t.Fatalf("view = %+v", v)
	}
	if v.TrackID != "trk-1" || v.Stream != "disconnected" || v.ShutdownTriggered {
		t.Fatalf("view = %+v", v)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	_, srv := newTestStatus(t)
	resp, err := http.Post(srv.URL+"/api/state", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestStatusWebSocketPushes(t *testing.T) {
	s, srv := newTestStatus(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var v StatusView
	if err := conn.ReadJSON(&v); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if v.HaveFix {
		t.Fatal("fix before any update")
	}

	s.State.SetFix(gps.Fix{Mode: gps.Mode2D, Latitude: -33.5})
	testutil.Eventually(t, time.Second, func() bool {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if err := conn.ReadJSON(&v); err != nil {
			t.Fatalf("push: %v", err)
		}
		return v.HaveFix
	}, "push with the fix")
	if v.Fix.Latitude != -33.5 {
		t.Fatalf("pushed latitude = %v", v.Fix.Latitude)
	}
}

func TestStatusRunStopsOnCancel(t *testing.T) {
	logger, _ := testLogger()
	s := &StatusServer{Addr: "127.0.0.1:0", State: telemetry.NewState("t"), Logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := testutil.RequireReceive(t, done, 3*time.Second, "status server stop"); err != nil {
		t.Fatalf("Run = %v", err)
	}
}

func TestStatusListenFailureIsNotRetried(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer taken.Close()

	logger, logs := testLogger()
	s := &StatusServer{Addr: taken.Addr().String(), State: telemetry.NewState("trk-1"), Logger: logger}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- supervise(ctx, logger, "status", time.Millisecond, s.Run) }()

	// gives up on its own, without waiting for cancellation
	if err := testutil.RequireReceive(t, done, time.Second, "status giving up"); err != nil {
		t.Fatalf("supervise = %v, want nil", err)
	}
	out := logs.String()
	if n := strings.Count(out, "status listen"); n != 1 {
		t.Fatalf("listen failure logged %d times, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, "not restarting") || strings.Contains(out, "restarting in") {
		t.Fatalf("unexpected restart log:\n%s", out)
	}
}
