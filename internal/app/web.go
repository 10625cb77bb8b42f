// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/motracker/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusServer exposes the live telemetry record on the local network:
// GET /api/state returns one JSON snapshot, /ws pushes one every
// PushInterval.
type StatusServer struct {
	Addr         string
	State        *telemetry.State
	Stream       *Stream
	Governor     *Governor
	PushInterval time.Duration
	Logger       *log.Logger
}

// StatusView is the JSON document served by the status endpoints.
type StatusView struct {
	telemetry.Snapshot
	Stream            string `json:"stream"`
	ShutdownTriggered bool   `json:"shutdown_triggered"`
}

func (s *StatusServer) view() StatusView {
	v := StatusView{Snapshot: s.State.Snapshot(), Stream: StreamDisconnected.String()}
	if s.Stream != nil {
		v.Stream = s.Stream.ConnState().String()
	}
	if s.Governor != nil {
		v.ShutdownTriggered = s.Governor.Triggered()
	}
	return v
}

// Handler returns the HTTP routes of the status server.
func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run serves until ctx is cancelled.
func (s *StatusServer) Run(ctx context.Context) error {
	logger := loggerOrDefault(s.Logger)

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return permanent(&TransientError{Component: "status", Op: "listen", Err: err})
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// websocket handlers outlive Shutdown; tie them to the agent instead
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	stop := context.AfterFunc(ctx, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	})
	defer stop()

	logger.Printf("status: listening on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return &TransientError{Component: "status", Op: "serve", Err: err}
	}
	return nil
}

func (s *StatusServer) handleState(w http.ResponseWriter, r *http.Request) {
	v := s.view()
	if !v.HaveFix && !v.HaveBattery {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerOrDefault(s.Logger).Printf("status: json encode error: %v", err)
	}
}

func (s *StatusServer) handleWS(w http.ResponseWriter, r *http.Request) {
	logger := loggerOrDefault(s.Logger)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Printf("status: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// drain client frames so close messages are seen
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Printf("status: websocket error: %v", err)
				}
				return
			}
		}
	}()

	interval := s.PushInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(s.view()); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "agent stopping"),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
		}
	}
}
