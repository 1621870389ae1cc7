// Package engine ties the simulation and the polygon cutter together into
// the live per-event state consumed by the HTTP and websocket adapters.
package engine

import (
	"time"

	"github.com/wavecrest/wave-engine/internal/clip"
	"github.com/wavecrest/wave-engine/internal/geo"
	"github.com/wavecrest/wave-engine/internal/sim"
)

// Snapshot is one observation of the wave's state, computed on demand from
// the simulation clock.
type Snapshot struct {
	EventID        string              `json:"event_id"`
	Progression    float64             `json:"progression"`
	FrontLongitude float64             `json:"front_longitude"`
	SweptPolygons  []clip.SweptPolygon `json:"swept_polygons"`
	ServerTime     time.Time           `json:"server_time"`
}

// Engine owns one event's simulation and its cumulative swept-geometry
// accumulator. Safe for concurrent use.
type Engine struct {
	eventID string
	sim     *sim.Simulation
	cutter  *clip.Cutter
	areas   []geo.Polygon
}

// New builds an Engine for one event. The cutter accumulates swept polygons
// in ModeAdd so snapshots render flicker-free cumulative coverage.
func New(eventID string, s *sim.Simulation) *Engine {
	return &Engine{
		eventID: eventID,
		sim:     s,
		cutter:  clip.New(s.Parameters().Direction.SweptSide()),
		areas:   s.Areas(),
	}
}

// Simulation returns the underlying simulation.
func (e *Engine) Simulation() *sim.Simulation {
	return e.sim
}

// Progression returns the current progression ratio.
func (e *Engine) Progression() float64 {
	return e.sim.Progression()
}

// Snapshot computes the current state: progression, front position, and the
// accumulated swept polygons clipped against the current front line.
func (e *Engine) Snapshot() Snapshot {
	line := e.sim.FrontLine()
	return Snapshot{
		EventID:        e.eventID,
		Progression:    e.sim.Progression(),
		FrontLongitude: e.sim.FrontLongitude(),
		SweptPolygons:  e.cutter.TraversedPolygons(e.areas, line, clip.ModeAdd),
		ServerTime:     e.sim.Now(),
	}
}
