// Package sim converts wall-clock or simulated time and wave parameters into
// progression ratios, hit predictions, and warming windows.
//
// A Simulation holds only immutable inputs; every output is recomputed from
// (now, parameters), so seeking the clock to an arbitrary instant always
// reproduces the same answers. Tests and the offline simulator exploit this
// with clockwork fake clocks.
package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wavecrest/wave-engine/internal/front"
	"github.com/wavecrest/wave-engine/internal/geo"
)

// Never is the sentinel duration for a position the wave will never reach.
const Never = time.Duration(math.MaxInt64)

// Direction is the axis along which the wave front travels.
type Direction int

const (
	DirectionEast Direction = iota
	DirectionWest
)

func (d Direction) String() string {
	if d == DirectionWest {
		return "west"
	}
	return "east"
}

// ParseDirection parses "east" or "west".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "east":
		return DirectionEast, nil
	case "west":
		return DirectionWest, nil
	default:
		return DirectionEast, fmt.Errorf("sim: unknown direction %q", s)
	}
}

// SweptSide returns the side of the front line that the wave has already
// passed: a wave travelling east leaves the west side behind it.
func (d Direction) SweptSide() front.Side {
	if d == DirectionWest {
		return front.SideEast
	}
	return front.SideWest
}

// State is the lifecycle of one tracked position with respect to the wave.
type State int

const (
	StateNotStarted State = iota
	StateApproaching
	StateWarming
	StateHit
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateApproaching:
		return "approaching"
	case StateWarming:
		return "warming"
	case StateHit:
		return "hit"
	default:
		return "unknown"
	}
}

// Parameters are the immutable wave settings for one event.
type Parameters struct {
	// Speed is the front's travel speed in meters per second.
	Speed float64
	// Direction is the travel axis of the front.
	Direction Direction
	// Start is the event start time; the front sits on the near edge of the
	// bounding box at Start.
	Start time.Time
	// WarmingDuration is the length of the pre-alert choreography window.
	WarmingDuration time.Duration
	// WarnBeforeHit is the extra margin between the end of warming and the
	// hit itself.
	WarnBeforeHit time.Duration
}

// Simulation answers progression and hit queries for one event. It is safe
// for concurrent use: all fields are immutable after construction.
type Simulation struct {
	params Parameters
	areas  []geo.Polygon
	bounds geo.BoundingBox
	clock  clockwork.Clock

	width  float64 // sweep distance across the bounding box, meters
	midLat float64
}

// New validates the inputs and builds a Simulation. A nil clock selects the
// real clock.
func New(params Parameters, areas []geo.Polygon, bounds geo.BoundingBox, clock clockwork.Clock) (*Simulation, error) {
	if params.Speed <= 0 {
		return nil, errors.New("sim: speed must be positive")
	}
	if params.Start.IsZero() {
		return nil, errors.New("sim: start time is required")
	}
	width := bounds.WidthMeters()
	if width <= 0 {
		return nil, errors.New("sim: bounding box has no east-west extent")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	copied := make([]geo.Polygon, len(areas))
	for i, a := range areas {
		copied[i] = append(geo.Polygon(nil), a...)
	}

	return &Simulation{
		params: params,
		areas:  copied,
		bounds: bounds,
		clock:  clock,
		width:  width,
		midLat: bounds.MidLatitude(),
	}, nil
}

// Parameters returns the wave parameters.
func (s *Simulation) Parameters() Parameters {
	return s.params
}

// Areas returns the event's area polygons.
func (s *Simulation) Areas() []geo.Polygon {
	out := make([]geo.Polygon, len(s.areas))
	for i, a := range s.areas {
		out[i] = append(geo.Polygon(nil), a...)
	}
	return out
}

// Bounds returns the event's bounding box.
func (s *Simulation) Bounds() geo.BoundingBox {
	return s.bounds
}

// Progression returns the fraction of the bounding geometry the wave has
// crossed at the current clock time, clamped to [0, 1]. It is monotonic
// non-decreasing in time for fixed parameters.
func (s *Simulation) Progression() float64 {
	return s.ProgressionAt(s.clock.Now())
}

// ProgressionAt returns the progression at an arbitrary instant.
func (s *Simulation) ProgressionAt(t time.Time) float64 {
	elapsed := t.Sub(s.params.Start)
	if elapsed <= 0 {
		return 0
	}
	return clamp01(elapsed.Seconds() * s.params.Speed / s.width)
}

// FrontLongitude returns the meridian the front occupies at the current
// clock time.
func (s *Simulation) FrontLongitude() float64 {
	startLon, endLon := s.sweepEdges()
	return startLon + s.Progression()*(endLon-startLon)
}

// FrontLine returns the current front as a fixed-meridian line, ready for
// polygon clipping and side tests.
func (s *Simulation) FrontLine() front.Line {
	return front.FromLongitude(s.FrontLongitude())
}

// PositionRatio projects p onto the wave's travel axis relative to the
// current front: negative means the front has not reached p yet, zero means
// p sits on the front, positive means the wave already passed it.
func (s *Simulation) PositionRatio(p geo.Position) float64 {
	return s.Progression() - s.positionFraction(p)
}

// HitTime returns the instant the front reaches p, or false when the wave
// never will. Positions behind the sweep's start edge are hit at Start.
func (s *Simulation) HitTime(p geo.Position) (time.Time, bool) {
	if s.neverReached(p) {
		return time.Time{}, false
	}
	frac := s.positionFraction(p)
	if frac < 0 {
		frac = 0
	}
	offset := time.Duration(frac * s.width / s.params.Speed * float64(time.Second))
	return s.params.Start.Add(offset), true
}

// TimeBeforeHit returns how long until the front reaches p: zero when the
// position is on the front or already hit, Never when the position lies
// outside the advancing half-plane and will not be reached.
func (s *Simulation) TimeBeforeHit(p geo.Position) time.Duration {
	hit, ok := s.HitTime(p)
	if !ok {
		return Never
	}
	remaining := hit.Sub(s.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsHit reports whether the front has reached p. Once true for a given
// instant, it stays true at every later instant.
func (s *Simulation) IsHit(p geo.Position) bool {
	hit, ok := s.HitTime(p)
	if !ok {
		return false
	}
	return !s.clock.Now().Before(hit)
}

// NearEvent reports whether the current time falls within the symmetric
// window around the event start. Purely temporal; it gates warming work.
func (s *Simulation) NearEvent(window time.Duration) bool {
	diff := s.clock.Now().Sub(s.params.Start)
	if diff < 0 {
		diff = -diff
	}
	return diff <= window
}

// WarmingStart returns when the pre-alert window opens for p: the hit time
// minus the warming duration and the warn-before-hit margin. False when p is
// never hit.
func (s *Simulation) WarmingStart(p geo.Position) (time.Time, bool) {
	hit, ok := s.HitTime(p)
	if !ok {
		return time.Time{}, false
	}
	return hit.Add(-s.params.WarmingDuration - s.params.WarnBeforeHit), true
}

// IsWarmingStarted reports whether p's warming window has opened.
func (s *Simulation) IsWarmingStarted(p geo.Position) bool {
	ws, ok := s.WarmingStart(p)
	if !ok {
		return false
	}
	return !s.clock.Now().Before(ws)
}

// StateAt returns p's lifecycle state at the current clock time. The state
// is a pure function of (now, parameters): seeking time backward or forward
// and asking again yields the matching earlier or later state.
func (s *Simulation) StateAt(p geo.Position) State {
	now := s.clock.Now()
	switch {
	case now.Before(s.params.Start):
		return StateNotStarted
	case s.IsHit(p):
		return StateHit
	case s.IsWarmingStarted(p):
		return StateWarming
	default:
		return StateApproaching
	}
}

// Now exposes the simulation clock's current time.
func (s *Simulation) Now() time.Time {
	return s.clock.Now()
}

// sweepEdges returns the longitudes the front starts from and finishes at.
func (s *Simulation) sweepEdges() (startLon, endLon float64) {
	if s.params.Direction == DirectionWest {
		return s.bounds.NorthEast.Lon, s.bounds.SouthWest.Lon
	}
	return s.bounds.SouthWest.Lon, s.bounds.NorthEast.Lon
}

// positionFraction returns p's signed offset along the sweep axis as a
// fraction of the full sweep width: 0 at the start edge, 1 at the far edge,
// negative behind the start edge.
func (s *Simulation) positionFraction(p geo.Position) float64 {
	startLon, _ := s.sweepEdges()
	meters := geo.DistanceFast(startLon, p.Lon, s.midLat)
	frac := meters / s.width

	ahead := p.Lon >= startLon
	if s.params.Direction == DirectionWest {
		ahead = p.Lon <= startLon
	}
	if !ahead {
		frac = -frac
	}
	if math.IsNaN(frac) {
		return 0
	}
	return frac
}

// neverReached tests p against the far edge of the sweep with a front-line
// side test: a position beyond the meridian where the wave stops is outside
// the advancing half-plane.
func (s *Simulation) neverReached(p geo.Position) bool {
	_, endLon := s.sweepEdges()
	farEdge := front.FromLongitude(endLon)
	if s.params.Direction == DirectionWest {
		return farEdge.Side(p) == front.SideWest
	}
	return farEdge.Side(p) == front.SideEast
}

// clamp01 clamps v into [0, 1], mapping NaN to 0 so numeric degeneracy never
// escapes to callers.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
