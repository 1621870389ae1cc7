// Package clip splits event-area polygons against a wave front line into
// swept and unswept geometry for rendering and hit detection.
package clip

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"sync"

	"github.com/mohae/deepcopy"

	"github.com/wavecrest/wave-engine/internal/front"
	"github.com/wavecrest/wave-engine/internal/geo"
)

// Mode selects how successive calls combine their results.
type Mode int

const (
	// ModeReplace recomputes the swept set from scratch on every call.
	ModeReplace Mode = iota
	// ModeAdd accumulates swept polygons across calls on the same Cutter,
	// producing a monotonic union for flicker-free cumulative rendering.
	ModeAdd
)

// SweptPolygon is one piece of area geometry on the swept side of the front,
// tagged with the front-line cut ids that bound it. Uncut polygons carry no
// ids.
type SweptPolygon struct {
	Polygon geo.Polygon `json:"polygon"`
	CutIDs  []int       `json:"cut_ids,omitempty"`
}

// Cutter clips polygons against front lines. The zero value is not usable;
// construct with New. A single Cutter is safe for concurrent use.
type Cutter struct {
	sweptSide front.Side

	mu    sync.Mutex
	accum map[string]SweptPolygon
	order []string
}

// New returns a Cutter that treats the given side of the front line as
// already swept. A wave travelling east sweeps the west side, and vice
// versa.
func New(sweptSide front.Side) *Cutter {
	return &Cutter{
		sweptSide: sweptSide,
		accum:     make(map[string]SweptPolygon),
	}
}

// northwardWalker maps an orientation to the iterator that yields the line's
// positions in south-to-north order. A north-oriented line is stored
// south-to-north, so its forward iterator already walks northward; a
// south-oriented line needs the reverse walk. This is the explicit
// orientation-to-iterator coupling used when stitching cut polygons.
var northwardWalker = map[front.Orientation]func(front.Line) iter.Seq[geo.Position]{
	front.OrientationNorth: front.Line.Iterator,
	front.OrientationSouth: front.Line.ReverseIterator,
}

// southwardWalker is the inverse of northwardWalker.
var southwardWalker = map[front.Orientation]func(front.Line) iter.Seq[geo.Position]{
	front.OrientationNorth: front.Line.ReverseIterator,
	front.OrientationSouth: front.Line.Iterator,
}

// TraversedPolygons clips every area polygon against the front line and
// returns the pieces on the swept side. In ModeAdd the returned set is the
// accumulated union over all previous ModeAdd calls; pieces replace earlier
// pieces with the same area index and cut ids rather than duplicating them.
// The returned slice and its polygons are deep copies owned by the caller.
func (c *Cutter) TraversedPolygons(areas []geo.Polygon, line front.Line, mode Mode) []SweptPolygon {
	var fresh []SweptPolygon
	var keys []string
	for areaIdx, poly := range areas {
		for _, piece := range c.cutPolygon(poly, line) {
			fresh = append(fresh, piece)
			keys = append(keys, pieceKey(areaIdx, piece.CutIDs))
		}
	}

	if mode != ModeAdd {
		return fresh
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, piece := range fresh {
		key := keys[i]
		if _, seen := c.accum[key]; !seen {
			c.order = append(c.order, key)
		}
		c.accum[key] = piece
	}

	out := make([]SweptPolygon, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.accum[key])
	}
	return deepcopy.Copy(out).([]SweptPolygon)
}

// cutPolygon splits one polygon against the line and returns its swept
// pieces.
func (c *Cutter) cutPolygon(poly geo.Polygon, line front.Line) []SweptPolygon {
	if len(poly) < 3 {
		return nil
	}

	r := buildRing(poly, line)

	if pieces, crossed := stitchSweptPieces(r, poly, line, c.sweptSide); crossed {
		return pieces
	}

	// Fewer than two crossings: the polygon lies on one side, at most
	// touching the line at tangent vertices. The first off-line vertex
	// decides; a polygon collapsed onto the line counts as swept.
	side := front.SideOn
	for _, n := range r {
		if n.side != front.SideOn {
			side = n.side
			break
		}
	}
	if side == c.sweptSide || side == front.SideOn {
		piece := make(geo.Polygon, len(poly))
		copy(piece, poly)
		return []SweptPolygon{{Polygon: piece}}
	}
	return nil
}

// node is one entry of the augmented polygon ring: an original vertex or a
// cut inserted on an edge.
type node struct {
	pos    geo.Position
	side   front.Side
	cutIDs []int // non-empty marks a cut node
}

type ring []node

// nearestSide returns the side of the closest node to i in the step
// direction, skipping nodes that sit on the line. SideOn means every node is
// on the line.
func (r ring) nearestSide(i, step int) front.Side {
	for k := 1; k < len(r); k++ {
		if s := r[mod(i+step*k, len(r))].side; s != front.SideOn {
			return s
		}
	}
	return front.SideOn
}

// isCrossing reports whether the cut node at i is a true crossing, meaning
// the boundary changes sides there. A tangent touch, where the boundary
// bounces off the line, keeps the same side on both neighbors and is not a
// crossing.
func (r ring) isCrossing(i int) bool {
	before := r.nearestSide(i, -1)
	after := r.nearestSide(i, 1)
	return before != front.SideOn && after != front.SideOn && before != after
}

// buildRing walks the polygon's edges, classifying each vertex against the
// line and inserting a cut node wherever an edge crosses it. A cut landing on
// a vertex (within epsilon) becomes a single cut node attributed to both
// adjoining edges, so vertex-aligned cuts produce neither duplicate nor
// missing slivers.
func buildRing(poly geo.Polygon, line front.Line) ring {
	n := len(poly)
	r := make(ring, 0, 2*n)

	for i := range poly {
		v := poly[i]
		side := line.Side(v)
		vertex := node{pos: v, side: side}
		if side == front.SideOn {
			vertex.cutIDs = []int{mod(i-1, n), i}
		}
		r = append(r, vertex)

		seg := geo.Segment{Start: v, End: poly[(i+1)%n]}
		cp, ok := line.IntersectSegment(i, seg)
		if !ok {
			continue
		}
		if samePosition(cp.Position, seg.Start) || samePosition(cp.Position, seg.End) {
			// Vertex-aligned: already represented by the vertex's own node.
			continue
		}
		r = append(r, node{pos: cp.Position, side: front.SideOn, cutIDs: []int{cp.CutID}})
	}
	return r
}

// offLineNudge shifts interior test points off the front line so the
// containment test never sits exactly on a polygon edge.
const offLineNudge = 1e-7

// stitchSweptPieces traces the closed boundaries of the polygon's swept
// pieces. Crossings are paired twice over: along the ring they delimit
// boundary runs, and along the front line they delimit the line segments
// whose swept side is polygon interior. Each crossing bounds exactly one
// swept run and one interior line segment, so following runs and segments
// alternately from an unvisited crossing walks one closed piece. crossed is
// false when fewer than two true crossings exist and the caller must fall
// back to the whole-polygon side decision.
func stitchSweptPieces(r ring, poly geo.Polygon, line front.Line, sweptSide front.Side) (pieces []SweptPolygon, crossed bool) {
	crossing := make(map[int]bool)
	var cross []int
	for i, n := range r {
		if len(n.cutIDs) > 0 && r.isCrossing(i) {
			crossing[i] = true
			cross = append(cross, i)
		}
	}
	if len(cross) < 2 {
		return nil, false
	}

	mates := lineMates(r, cross, poly, line, sweptSide)
	visited := make(map[int]bool, len(cross))

	for _, start := range cross {
		if visited[start] {
			continue
		}
		if _, _, _, swept := runAfter(r, crossing, start, sweptSide); !swept {
			continue
		}

		piece := geo.Polygon{r[start].pos}
		ids := append([]int(nil), r[start].cutIDs...)
		visited[start] = true

		cur, ok := start, true
		for {
			pos, runIDs, to, swept := runAfter(r, crossing, cur, sweptSide)
			if !swept {
				ok = false
				break
			}
			piece = append(piece, pos...)
			piece = append(piece, r[to].pos)
			ids = append(ids, runIDs...)
			ids = append(ids, r[to].cutIDs...)
			visited[to] = true

			m, has := mates[to]
			if !has {
				ok = false
				break
			}
			piece = append(piece, arcBetween(line, r[to].pos.Lat, r[m].pos.Lat)...)
			if m == start {
				break
			}
			piece = append(piece, r[m].pos)
			ids = append(ids, r[m].cutIDs...)
			visited[m] = true
			cur = m
		}

		if !ok || len(piece) < 3 {
			continue
		}
		pieces = append(pieces, SweptPolygon{Polygon: piece, CutIDs: dedupeCutIDs(ids)})
	}
	return pieces, true
}

// runAfter collects the ring nodes strictly between the crossing at from and
// the next crossing in ring order. Tangent touch nodes contribute their
// positions and cut ids to the run. swept reports whether the run holds at
// least one swept-side vertex; empty runs and runs collapsed onto the line
// are not swept.
func runAfter(r ring, crossing map[int]bool, from int, sweptSide front.Side) (pos []geo.Position, ids []int, to int, swept bool) {
	for i := mod(from+1, len(r)); ; i = mod(i+1, len(r)) {
		if crossing[i] {
			return pos, ids, i, swept
		}
		n := r[i]
		if n.side == sweptSide {
			swept = true
		}
		pos = append(pos, n.pos)
		ids = append(ids, n.cutIDs...)
	}
}

// lineMates pairs crossings along the front line. Sorted by latitude,
// consecutive crossings delimit a segment of the line; the segment belongs to
// a swept piece's boundary exactly when a point just off its midpoint toward
// the swept side is polygon interior. Segments over exterior ground, like the
// mouth of a concave notch, pair nothing.
func lineMates(r ring, cross []int, poly geo.Polygon, line front.Line, sweptSide front.Side) map[int]int {
	order := append([]int(nil), cross...)
	sort.Slice(order, func(a, b int) bool {
		return r[order[a]].pos.Lat < r[order[b]].pos.Lat
	})

	nudge := -offLineNudge
	if sweptSide == front.SideEast {
		nudge = offLineNudge
	}

	mates := make(map[int]int, len(cross))
	for k := 0; k+1 < len(order); k++ {
		a, b := order[k], order[k+1]
		midLat := (r[a].pos.Lat + r[b].pos.Lat) / 2
		lon, ok := line.LongitudeAt(midLat)
		if !ok {
			continue
		}
		if poly.Contains(geo.Position{Lat: midLat, Lon: lon + nudge}) {
			mates[a] = b
			mates[b] = a
		}
	}
	return mates
}

// arcBetween returns the front line's positions with latitudes strictly
// between fromLat and toLat, ordered walking from fromLat toward toLat. The
// walker is selected from the orientation lookup so the stitched boundary
// keeps a consistent winding. Fixed-meridian lines contribute no arc points.
func arcBetween(line front.Line, fromLat, toLat float64) []geo.Position {
	if line.Len() < 2 {
		return nil
	}

	walkers := southwardWalker
	if toLat > fromLat {
		walkers = northwardWalker
	}
	walk := walkers[line.Orientation()]

	lo := math.Min(fromLat, toLat) + geo.Epsilon
	hi := math.Max(fromLat, toLat) - geo.Epsilon

	var arc []geo.Position
	for p := range walk(line) {
		if p.Lat > lo && p.Lat < hi {
			arc = append(arc, p)
		}
	}
	return arc
}

func dedupeCutIDs(ids []int) []int {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func pieceKey(areaIdx int, cutIDs []int) string {
	return fmt.Sprintf("%d:%v", areaIdx, cutIDs)
}

func samePosition(a, b geo.Position) bool {
	return math.Abs(a.Lat-b.Lat) < geo.Epsilon && math.Abs(a.Lon-b.Lon) < geo.Epsilon
}

func mod(i, n int) int {
	return ((i % n) + n) % n
}
