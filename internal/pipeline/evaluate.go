package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wavecrest/wave-engine/internal/geo"
	"github.com/wavecrest/wave-engine/internal/sim"
)

// PositionUpdate is the JSON body published by location clients.
type PositionUpdate struct {
	UserID string    `json:"user_id"`
	Lat    float64   `json:"lat"`
	Lon    float64   `json:"lon"`
	SentAt time.Time `json:"sent_at"`
}

// WaveNotification is the JSON body published for each evaluated position:
// a full snapshot of the position's relationship to the wave, so consumers
// never need to track state themselves.
type WaveNotification struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	State         string     `json:"state"`
	Progression   float64    `json:"progression"`
	PositionRatio float64    `json:"position_ratio"`
	NearEvent     bool       `json:"near_event"`
	HitAt         *time.Time `json:"hit_at,omitempty"`
	WarmingAt     *time.Time `json:"warming_at,omitempty"`
	SecondsToHit  *float64   `json:"seconds_to_hit,omitempty"`
	EvaluatedAt   time.Time  `json:"evaluated_at"`
}

// PositionEvaluator turns raw position updates into wave notifications by
// querying the simulation. It implements Evaluator.
type PositionEvaluator struct {
	sim        *sim.Simulation
	nearWindow time.Duration
	logger     *slog.Logger
}

// NewEvaluator creates a PositionEvaluator for one event's simulation.
func NewEvaluator(s *sim.Simulation, nearWindow time.Duration, logger *slog.Logger) *PositionEvaluator {
	return &PositionEvaluator{sim: s, nearWindow: nearWindow, logger: logger}
}

// Evaluate parses a raw position update and computes its wave state.
func (e *PositionEvaluator) Evaluate(_ context.Context, raw RawUpdate) (Notification, error) {
	var update PositionUpdate
	if err := json.Unmarshal(raw.Value, &update); err != nil {
		return Notification{}, fmt.Errorf("parse position update: %w", err)
	}
	if update.UserID == "" {
		return Notification{}, fmt.Errorf("position update missing user_id")
	}
	// Clamp degenerate coordinates before they reach the geometry layer.
	if math.IsNaN(update.Lat) || math.IsNaN(update.Lon) ||
		update.Lat < -90 || update.Lat > 90 || update.Lon < -180 || update.Lon > 180 {
		return Notification{}, fmt.Errorf("position update for %s has out-of-range coordinates (%g, %g)",
			update.UserID, update.Lat, update.Lon)
	}

	pos := geo.Position{Lat: update.Lat, Lon: update.Lon}
	note := WaveNotification{
		ID:            uuid.NewString(),
		UserID:        update.UserID,
		State:         e.sim.StateAt(pos).String(),
		Progression:   e.sim.Progression(),
		PositionRatio: e.sim.PositionRatio(pos),
		NearEvent:     e.sim.NearEvent(e.nearWindow),
		EvaluatedAt:   e.sim.Now(),
	}

	if hit, ok := e.sim.HitTime(pos); ok {
		note.HitAt = &hit
		if warming, ok := e.sim.WarmingStart(pos); ok {
			note.WarmingAt = &warming
		}
		seconds := e.sim.TimeBeforeHit(pos).Seconds()
		note.SecondsToHit = &seconds
	}

	value, err := json.Marshal(note)
	if err != nil {
		return Notification{}, fmt.Errorf("serialize notification: %w", err)
	}

	return Notification{
		Key:   []byte(update.UserID),
		Value: value,
		Headers: map[string]string{
			"state":        note.State,
			"evaluated_at": note.EvaluatedAt.Format(time.RFC3339),
		},
	}, nil
}
