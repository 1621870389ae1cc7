// Package front models the wave front line: the validated poly-line marking
// the leading edge of the wave at an instant.
//
// A Line is an immutable snapshot. Appending returns either a new snapshot
// or an error; the receiver is never mutated, so a rejected batch leaves the
// caller's line exactly as it was and snapshots can be shared across
// goroutines freely.
package front

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/wavecrest/wave-engine/internal/geo"
)

// ErrInvalidArc is returned when an append would make the line oscillate
// beyond the tolerated bound and stop being usable as a wave front.
var ErrInvalidArc = errors.New("front: invalid arc")

// maxReversalSlope bounds how steeply the longitude may swing back at a
// direction reversal, as a ratio of longitude change to latitude change on
// each adjoining segment. A vertex where the longitude direction flips and
// BOTH adjoining segments exceed this slope is a chaotic oscillation and is
// rejected; isolated bends with moderate slopes remain valid.
const maxReversalSlope = 3.0

// Side classifies a point's longitude relative to the line at the point's
// latitude.
type Side int

const (
	SideOn Side = iota
	SideEast
	SideWest
)

func (s Side) String() string {
	switch s {
	case SideOn:
		return "on"
	case SideEast:
		return "east"
	case SideWest:
		return "west"
	default:
		return "unknown"
	}
}

// Orientation is derived from the first and last point once the line has at
// least two points, independent of intermediate wiggle. It never changes for
// a given snapshot.
type Orientation int

const (
	OrientationNone Orientation = iota
	OrientationNorth
	OrientationSouth
)

func (o Orientation) String() string {
	switch o {
	case OrientationNorth:
		return "north"
	case OrientationSouth:
		return "south"
	default:
		return "none"
	}
}

// CutPosition is an intersection between the front line and a polygon edge,
// tagged with the caller-supplied cut id so that multiple simultaneous cuts
// of the same polygon can be correlated downstream.
type CutPosition struct {
	geo.Position
	CutID int
}

// Line is an immutable wave front snapshot: either a poly-line built point
// by point, or a fixed meridian built with FromLongitude.
type Line struct {
	pts         []geo.Position
	orientation Orientation
	fixedLon    float64
	fixed       bool
}

// New returns an empty line.
func New() Line {
	return Line{}
}

// FromLongitude returns a fixed-meridian line: side tests degenerate to a
// direct longitude comparison against lon, and the line has no stored
// positions.
func FromLongitude(lon float64) Line {
	return Line{fixedLon: lon, fixed: true}
}

// Add returns a new snapshot with p appended, or the receiver unchanged and
// an error when the append would break the valid-arc invariant.
func (l Line) Add(p geo.Position) (Line, error) {
	if l.fixed {
		return l, errors.New("front: cannot append to a fixed-meridian line")
	}

	pts := make([]geo.Position, len(l.pts), len(l.pts)+1)
	copy(pts, l.pts)
	pts = append(pts, p)

	if !validArc(pts) {
		return l, fmt.Errorf("%w: appending (%g, %g) makes the line oscillate beyond the tolerated bound",
			ErrInvalidArc, p.Lat, p.Lon)
	}

	next := Line{pts: pts}
	if len(pts) >= 2 {
		next.orientation = deriveOrientation(pts)
	}
	return next, nil
}

// AddAll appends the batch atomically: if any point invalidates the arc, the
// receiver is returned unchanged and none of the batch is retained, even
// points that would individually have been valid.
func (l Line) AddAll(ps []geo.Position) (Line, error) {
	next := l
	for _, p := range ps {
		var err error
		next, err = next.Add(p)
		if err != nil {
			return l, err
		}
	}
	return next, nil
}

// Positions returns the stored points in insertion order. The returned slice
// is a copy; mutating it does not affect the snapshot.
func (l Line) Positions() []geo.Position {
	out := make([]geo.Position, len(l.pts))
	copy(out, l.pts)
	return out
}

// Len returns the number of stored points. Fixed-meridian lines store none.
func (l Line) Len() int {
	return len(l.pts)
}

// Orientation returns the derived orientation, or OrientationNone while the
// line has fewer than two points.
func (l Line) Orientation() Orientation {
	return l.orientation
}

// IsValidArc reports whether the stored sequence satisfies the valid-arc
// invariant. Snapshots produced by Add/AddAll always do; the predicate is
// exposed so callers can assert it independently.
func (l Line) IsValidArc() bool {
	return validArc(l.pts)
}

// Iterator yields the stored points in insertion order. The sequence is
// restartable: ranging over it again walks the line from the start.
func (l Line) Iterator() iter.Seq[geo.Position] {
	return func(yield func(geo.Position) bool) {
		for _, p := range l.pts {
			if !yield(p) {
				return
			}
		}
	}
}

// ReverseIterator yields the stored points in reverse insertion order.
func (l Line) ReverseIterator() iter.Seq[geo.Position] {
	return func(yield func(geo.Position) bool) {
		for i := len(l.pts) - 1; i >= 0; i-- {
			if !yield(l.pts[i]) {
				return
			}
		}
	}
}

// Side classifies p against the line: SideOn within geo.Epsilon of the
// line's longitude at p's latitude, SideEast or SideWest otherwise.
// Latitudes beyond the line's span are compared against the nearest
// endpoint's longitude.
func (l Line) Side(p geo.Position) Side {
	lon, ok := l.longitudeAt(p.Lat)
	if !ok {
		return SideOn
	}
	diff := p.Lon - lon
	switch {
	case math.Abs(diff) < geo.Epsilon:
		return SideOn
	case diff > 0:
		return SideEast
	default:
		return SideWest
	}
}

// LongitudeAt returns the line's longitude at the given latitude, with the
// same out-of-span clamping as Side. ok is false when the line holds no
// point at all.
func (l Line) LongitudeAt(lat float64) (lon float64, ok bool) {
	return l.longitudeAt(lat)
}

// IntersectSegment intersects the line with the given edge and returns the
// intersection tagged with cutID, or false when the edge does not cross the
// line. Composed lines are tested as their consecutive sub-segments in
// insertion order; the first crossing wins.
func (l Line) IntersectSegment(cutID int, s geo.Segment) (CutPosition, bool) {
	if l.fixed {
		return l.intersectMeridian(cutID, s)
	}

	for i := 0; i+1 < len(l.pts); i++ {
		sub := geo.Segment{Start: l.pts[i], End: l.pts[i+1]}
		if p, ok := intersectSegments(sub, s); ok {
			return CutPosition{Position: p, CutID: cutID}, true
		}
	}
	return CutPosition{}, false
}

// longitudeAt returns the line's longitude at the given latitude. For fixed
// lines this is the meridian itself. For composed lines the latitude is
// located on a sub-segment and interpolated; outside the line's latitude
// span the nearest endpoint's longitude is used. Returns false only when the
// line holds no point at all.
func (l Line) longitudeAt(lat float64) (float64, bool) {
	if l.fixed {
		return l.fixedLon, true
	}
	if len(l.pts) == 0 {
		return 0, false
	}
	if len(l.pts) == 1 {
		return l.pts[0].Lon, true
	}

	for i := 0; i+1 < len(l.pts); i++ {
		a, b := l.pts[i], l.pts[i+1]
		if !geo.IsLatitudeInRange(lat, a.Lat, b.Lat) {
			continue
		}
		dLat := b.Lat - a.Lat
		if math.Abs(dLat) < geo.Epsilon {
			return a.Lon, true
		}
		t := (lat - a.Lat) / dLat
		return a.Lon + t*(b.Lon-a.Lon), true
	}

	// Latitude outside the line's span: clamp to the nearest end.
	first, last := l.pts[0], l.pts[len(l.pts)-1]
	if math.Abs(lat-first.Lat) <= math.Abs(lat-last.Lat) {
		return first.Lon, true
	}
	return last.Lon, true
}

// intersectMeridian intersects an edge with the fixed meridian.
func (l Line) intersectMeridian(cutID int, s geo.Segment) (CutPosition, bool) {
	dLon := s.End.Lon - s.Start.Lon
	if math.Abs(dLon) < geo.Epsilon {
		// Edge parallel to the meridian; an overlapping edge is degenerate
		// and reported as no crossing.
		return CutPosition{}, false
	}
	t := (l.fixedLon - s.Start.Lon) / dLon
	if t < -geo.Epsilon || t > 1+geo.Epsilon {
		return CutPosition{}, false
	}
	lat := s.Start.Lat + t*(s.End.Lat-s.Start.Lat)
	return CutPosition{Position: geo.Position{Lat: lat, Lon: l.fixedLon}, CutID: cutID}, true
}

// intersectSegments returns the intersection point of two segments, if the
// point lies on both within tolerance.
func intersectSegments(a, b geo.Segment) (geo.Position, bool) {
	x1, y1 := a.Start.Lon, a.Start.Lat
	x2, y2 := a.End.Lon, a.End.Lat
	x3, y3 := b.Start.Lon, b.Start.Lat
	x4, y4 := b.End.Lon, b.End.Lat

	d := (x2-x1)*(y4-y3) - (y2-y1)*(x4-x3)
	if math.Abs(d) < 1e-12 {
		return geo.Position{}, false
	}

	t := ((x3-x1)*(y4-y3) - (y3-y1)*(x4-x3)) / d
	u := ((x3-x1)*(y2-y1) - (y3-y1)*(x2-x1)) / d
	if t < -geo.Epsilon || t > 1+geo.Epsilon || u < -geo.Epsilon || u > 1+geo.Epsilon {
		return geo.Position{}, false
	}

	return geo.Position{
		Lat: y1 + t*(y2-y1),
		Lon: x1 + t*(x2-x1),
	}, true
}

func deriveOrientation(pts []geo.Position) Orientation {
	if pts[len(pts)-1].Lat > pts[0].Lat {
		return OrientationNorth
	}
	return OrientationSouth
}

// validArc rejects chaotic oscillation: a vertex where the longitude
// direction reverses and both adjoining segments swing wider than
// maxReversalSlope times their latitude extent. Gentle bends and isolated
// reversals stay valid; a front may bend, it may not zig-zag wildly.
func validArc(pts []geo.Position) bool {
	for i := 1; i+1 < len(pts); i++ {
		d1 := pts[i].Lon - pts[i-1].Lon
		d2 := pts[i+1].Lon - pts[i].Lon
		if d1*d2 >= 0 {
			continue
		}
		slope1 := math.Abs(d1) / math.Max(math.Abs(pts[i].Lat-pts[i-1].Lat), geo.Epsilon)
		slope2 := math.Abs(d2) / math.Max(math.Abs(pts[i+1].Lat-pts[i].Lat), geo.Epsilon)
		if slope1 > maxReversalSlope && slope2 > maxReversalSlope {
			return false
		}
	}
	return true
}
