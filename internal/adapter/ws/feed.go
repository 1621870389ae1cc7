// Package ws streams wave state snapshots to websocket subscribers so map
// clients can render progression and swept geometry live.
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wavecrest/wave-engine/internal/engine"
	"github.com/wavecrest/wave-engine/internal/observability"
)

const writeTimeout = 5 * time.Second

// StateProvider computes the current wave state on demand.
type StateProvider interface {
	Snapshot() engine.Snapshot
}

// Feed pushes state snapshots to each connected subscriber on a fixed
// interval.
type Feed struct {
	state    StateProvider
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// NewFeed creates a Feed pushing snapshots every interval.
func NewFeed(state StateProvider, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Feed {
	return &Feed{
		state:    state,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler upgrades the request and serves the subscriber until it
// disconnects or a write fails.
func (f *Feed) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			f.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
			return
		}
		f.serve(conn)
	}
}

func (f *Feed) serve(conn *websocket.Conn) {
	defer conn.Close()

	id := uuid.NewString()
	f.logger.Info("live subscriber connected", "subscriber_id", id, "remote", conn.RemoteAddr().String())
	f.metrics.LiveSubscribers.Inc()
	defer f.metrics.LiveSubscribers.Dec()

	// Drain incoming frames so close messages are processed; the feed is
	// push-only.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	// Send the current state immediately so subscribers never wait a full
	// interval for their first frame.
	if !f.push(conn, id) {
		return
	}

	for {
		select {
		case <-done:
			f.logger.Info("live subscriber disconnected", "subscriber_id", id)
			return
		case <-ticker.C:
			if !f.push(conn, id) {
				return
			}
		}
	}
}

func (f *Feed) push(conn *websocket.Conn, id string) bool {
	snapshot := f.state.Snapshot()
	f.metrics.WaveProgression.Set(snapshot.Progression)

	conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck // deadline on live conn
	if err := conn.WriteJSON(snapshot); err != nil {
		f.logger.Info("live subscriber write failed, dropping", "subscriber_id", id, "error", err)
		return false
	}
	return true
}
