package ws

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecrest/wave-engine/internal/engine"
	"github.com/wavecrest/wave-engine/internal/observability"
)

type stubState struct {
	calls atomic.Int64
}

func (s *stubState) Snapshot() engine.Snapshot {
	n := s.calls.Add(1)
	return engine.Snapshot{
		EventID:     "lisbon-2025",
		Progression: float64(n) / 10,
	}
}

func dialFeed(t *testing.T, feed *Feed) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(feed.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestFeed_PushesSnapshots(t *testing.T) {
	state := &stubState{}
	feed := NewFeed(state, 10*time.Millisecond, slog.Default(), observability.NewMetricsForTesting())

	conn := dialFeed(t, feed)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	// The first frame arrives immediately, before any tick.
	var first engine.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "lisbon-2025", first.EventID)
	assert.InDelta(t, 0.1, first.Progression, 1e-9)

	var second engine.Snapshot
	require.NoError(t, conn.ReadJSON(&second))
	assert.Greater(t, second.Progression, first.Progression)
}

func TestFeed_SubscriberGauge(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	feed := NewFeed(&stubState{}, 10*time.Millisecond, slog.Default(), metrics)

	conn := dialFeed(t, feed)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var snap engine.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))

	// After the first frame the subscriber is definitely registered.
	assert.Equal(t, 1.0, gaugeValue(t, metrics))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return gaugeValue(t, metrics) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFeed_UpgradeRequired(t *testing.T) {
	feed := NewFeed(&stubState{}, time.Second, slog.Default(), observability.NewMetricsForTesting())

	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	// A plain HTTP request without the upgrade handshake is rejected.
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}

func gaugeValue(t *testing.T, m *observability.Metrics) float64 {
	t.Helper()
	return testutil.ToFloat64(m.LiveSubscribers)
}
