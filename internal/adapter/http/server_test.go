package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecrest/wave-engine/internal/clip"
	"github.com/wavecrest/wave-engine/internal/engine"
	"github.com/wavecrest/wave-engine/internal/geo"
)

type stubReady struct {
	err error
}

func (s *stubReady) CheckReadiness(context.Context) error {
	return s.err
}

type stubState struct {
	snapshot engine.Snapshot
}

func (s *stubState) Snapshot() engine.Snapshot {
	return s.snapshot
}

func newTestServer(ready error) *Server {
	state := &stubState{snapshot: engine.Snapshot{
		EventID:        "lisbon-2025",
		Progression:    0.5,
		FrontLongitude: -9.2,
		SweptPolygons: []clip.SweptPolygon{{
			Polygon: geo.Polygon{{Lat: 38.7, Lon: -9.3}, {Lat: 38.7, Lon: -9.2}, {Lat: 38.8, Lon: -9.2}},
			CutIDs:  []int{0, 2},
		}},
		ServerTime: time.Date(2025, 6, 21, 18, 30, 0, 0, time.UTC),
	}}
	return NewServer(":0", &stubReady{err: ready}, state, nil, slog.Default())
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestServer(nil), http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := doRequest(t, newTestServer(nil), http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		rec := doRequest(t, newTestServer(errors.New("no batches yet")), http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "no batches yet")
	})
}

func TestState(t *testing.T) {
	rec := doRequest(t, newTestServer(nil), http.MethodGet, "/v1/state")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "lisbon-2025", snap.EventID)
	assert.Equal(t, 0.5, snap.Progression)
	assert.Equal(t, -9.2, snap.FrontLongitude)
	require.Len(t, snap.SweptPolygons, 1)
	assert.Equal(t, []int{0, 2}, snap.SweptPolygons[0].CutIDs)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(nil), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLive_NotMountedWhenNil(t *testing.T) {
	rec := doRequest(t, newTestServer(nil), http.MethodGet, "/v1/live")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLive_MountedHandler(t *testing.T) {
	live := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusSwitchingProtocols)
	})
	srv := NewServer(":0", &stubReady{}, &stubState{}, live, slog.Default())

	rec := doRequest(t, srv, http.MethodGet, "/v1/live")
	assert.Equal(t, http.StatusSwitchingProtocols, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := doRequest(t, newTestServer(nil), http.MethodPost, "/v1/state")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
