package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecrest/wave-engine/internal/front"
	"github.com/wavecrest/wave-engine/internal/geo"
)

// square is a unit test area: a 2x2 degree square with its west edge on the
// prime meridian, vertices in ring order.
func square() geo.Polygon {
	return geo.Polygon{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 2},
		{Lat: 2, Lon: 2},
		{Lat: 2, Lon: 0},
	}
}

func TestTraversedPolygons_MeridianCut(t *testing.T) {
	cutter := New(front.SideWest)
	line := front.FromLongitude(1)

	pieces := cutter.TraversedPolygons([]geo.Polygon{square()}, line, ModeReplace)
	require.Len(t, pieces, 1)

	piece := pieces[0]
	assert.Equal(t, geo.Polygon{
		{Lat: 2, Lon: 1},
		{Lat: 2, Lon: 0},
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
	}, piece.Polygon)
	assert.Equal(t, []int{0, 2}, piece.CutIDs)
}

func TestTraversedPolygons_EastSweptMirror(t *testing.T) {
	cutter := New(front.SideEast)
	line := front.FromLongitude(1)

	pieces := cutter.TraversedPolygons([]geo.Polygon{square()}, line, ModeReplace)
	require.Len(t, pieces, 1)

	piece := pieces[0]
	assert.Equal(t, geo.Polygon{
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 2},
		{Lat: 2, Lon: 2},
		{Lat: 2, Lon: 1},
	}, piece.Polygon)
	assert.Equal(t, []int{0, 2}, piece.CutIDs)
}

func TestTraversedPolygons_NoCuts(t *testing.T) {
	t.Run("entirely swept", func(t *testing.T) {
		cutter := New(front.SideWest)
		pieces := cutter.TraversedPolygons([]geo.Polygon{square()}, front.FromLongitude(5), ModeReplace)

		require.Len(t, pieces, 1)
		assert.Equal(t, square(), pieces[0].Polygon)
		assert.Empty(t, pieces[0].CutIDs)
	})

	t.Run("entirely unswept", func(t *testing.T) {
		cutter := New(front.SideWest)
		pieces := cutter.TraversedPolygons([]geo.Polygon{square()}, front.FromLongitude(-1), ModeReplace)
		assert.Empty(t, pieces)
	})

	t.Run("degenerate polygon is skipped", func(t *testing.T) {
		cutter := New(front.SideWest)
		tiny := geo.Polygon{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}
		pieces := cutter.TraversedPolygons([]geo.Polygon{tiny}, front.FromLongitude(5), ModeReplace)
		assert.Empty(t, pieces)
	})
}

func TestTraversedPolygons_ComposedLineArc(t *testing.T) {
	// A bent front line through the square contributes its interior bend
	// point to the stitched boundary.
	line, err := front.New().AddAll([]geo.Position{
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 1.2},
		{Lat: 2, Lon: 1},
	})
	require.NoError(t, err)
	require.Equal(t, front.OrientationNorth, line.Orientation())

	cutter := New(front.SideWest)
	pieces := cutter.TraversedPolygons([]geo.Polygon{square()}, line, ModeReplace)
	require.Len(t, pieces, 1)

	piece := pieces[0]
	assert.Equal(t, geo.Polygon{
		{Lat: 2, Lon: 1},
		{Lat: 2, Lon: 0},
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 1.2},
	}, piece.Polygon)
	assert.Equal(t, []int{0, 2}, piece.CutIDs)
}

func TestTraversedPolygons_VertexAlignedCut(t *testing.T) {
	// A diamond whose north and south vertices sit exactly on the meridian:
	// the cut is attributed to both adjoining edges of each vertex and
	// exactly one swept piece comes out, with no slivers.
	diamond := geo.Polygon{
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 2},
		{Lat: 2, Lon: 1},
		{Lat: 1, Lon: 0},
	}

	cutter := New(front.SideWest)
	pieces := cutter.TraversedPolygons([]geo.Polygon{diamond}, front.FromLongitude(1), ModeReplace)
	require.Len(t, pieces, 1)

	piece := pieces[0]
	assert.Equal(t, geo.Polygon{
		{Lat: 2, Lon: 1},
		{Lat: 1, Lon: 0},
		{Lat: 0, Lon: 1},
	}, piece.Polygon)
	assert.Equal(t, []int{0, 1, 2, 3}, piece.CutIDs)
}

// uShape is a concave area opening east: two arms reaching lon 3 joined by a
// spine at lon 0..1, with an exterior notch between lat 1 and 2.
func uShape() geo.Polygon {
	return geo.Polygon{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 3},
		{Lat: 1, Lon: 3},
		{Lat: 1, Lon: 1},
		{Lat: 2, Lon: 1},
		{Lat: 2, Lon: 3},
		{Lat: 3, Lon: 3},
		{Lat: 3, Lon: 0},
	}
}

func TestTraversedPolygons_ConcaveAreaMultipleCuts(t *testing.T) {
	// A meridian through both arms of the U crosses the boundary four times.
	// The crossings pair up along the front line, not around the ring, so the
	// notch mouth (exterior ground between the arms) never joins a piece.
	line := front.FromLongitude(2)

	t.Run("west swept keeps the connected body", func(t *testing.T) {
		cutter := New(front.SideWest)
		pieces := cutter.TraversedPolygons([]geo.Polygon{uShape()}, line, ModeReplace)
		require.Len(t, pieces, 1)

		piece := pieces[0]
		assert.Equal(t, geo.Polygon{
			{Lat: 1, Lon: 2},
			{Lat: 1, Lon: 1},
			{Lat: 2, Lon: 1},
			{Lat: 2, Lon: 2},
			{Lat: 3, Lon: 2},
			{Lat: 3, Lon: 0},
			{Lat: 0, Lon: 0},
			{Lat: 0, Lon: 2},
		}, piece.Polygon)
		assert.Equal(t, []int{0, 2, 4, 6}, piece.CutIDs)

		// The notch interior stays uncovered.
		assert.False(t, piece.Polygon.Contains(geo.Position{Lat: 1.5, Lon: 1.5}))
	})

	t.Run("east swept yields the two arm tips", func(t *testing.T) {
		cutter := New(front.SideEast)
		pieces := cutter.TraversedPolygons([]geo.Polygon{uShape()}, line, ModeReplace)
		require.Len(t, pieces, 2)

		assert.Equal(t, geo.Polygon{
			{Lat: 0, Lon: 2},
			{Lat: 0, Lon: 3},
			{Lat: 1, Lon: 3},
			{Lat: 1, Lon: 2},
		}, pieces[0].Polygon)
		assert.Equal(t, []int{0, 2}, pieces[0].CutIDs)

		assert.Equal(t, geo.Polygon{
			{Lat: 2, Lon: 2},
			{Lat: 2, Lon: 3},
			{Lat: 3, Lon: 3},
			{Lat: 3, Lon: 2},
		}, pieces[1].Polygon)
		assert.Equal(t, []int{4, 6}, pieces[1].CutIDs)

		for _, piece := range pieces {
			assert.False(t, piece.Polygon.Contains(geo.Position{Lat: 1.5, Lon: 1.5}))
		}
	})
}

func TestTraversedPolygons_TangentVertex(t *testing.T) {
	// A triangle touching the meridian at its apex only: the touch is not a
	// crossing, so the polygon is decided as a whole like an uncut one.
	triangle := geo.Polygon{
		{Lat: 0, Lon: 0},
		{Lat: 1, Lon: 1},
		{Lat: 2, Lon: 0},
	}
	line := front.FromLongitude(1)

	t.Run("swept side keeps the whole polygon", func(t *testing.T) {
		cutter := New(front.SideWest)
		pieces := cutter.TraversedPolygons([]geo.Polygon{triangle}, line, ModeReplace)

		require.Len(t, pieces, 1)
		assert.Equal(t, triangle, pieces[0].Polygon)
		assert.Empty(t, pieces[0].CutIDs)
	})

	t.Run("unswept side yields nothing", func(t *testing.T) {
		cutter := New(front.SideEast)
		pieces := cutter.TraversedPolygons([]geo.Polygon{triangle}, line, ModeReplace)
		assert.Empty(t, pieces)
	})
}

func TestTraversedPolygons_ModeAdd(t *testing.T) {
	t.Run("accumulates across calls", func(t *testing.T) {
		cutter := New(front.SideWest)
		areas := []geo.Polygon{square()}

		first := cutter.TraversedPolygons(areas, front.FromLongitude(1), ModeAdd)
		require.Len(t, first, 1)

		// The front has moved past the whole square; the full polygon joins
		// the accumulated set alongside the earlier partial piece.
		second := cutter.TraversedPolygons(areas, front.FromLongitude(5), ModeAdd)
		require.Len(t, second, 2)
		assert.Equal(t, first[0].CutIDs, second[0].CutIDs)
		assert.Empty(t, second[1].CutIDs)
		assert.Equal(t, square(), second[1].Polygon)
	})

	t.Run("same cut pair replaces rather than duplicates", func(t *testing.T) {
		cutter := New(front.SideWest)
		areas := []geo.Polygon{square()}

		cutter.TraversedPolygons(areas, front.FromLongitude(0.5), ModeAdd)
		pieces := cutter.TraversedPolygons(areas, front.FromLongitude(1.5), ModeAdd)

		// Both fronts cut the same pair of edges, so the accumulated set still
		// holds a single piece, now reflecting the farther front.
		require.Len(t, pieces, 1)
		assert.Equal(t, []int{0, 2}, pieces[0].CutIDs)
		assert.InDelta(t, 1.5, pieces[0].Polygon[0].Lon, 1e-9)
	})

	t.Run("returned pieces are caller-owned copies", func(t *testing.T) {
		cutter := New(front.SideWest)
		areas := []geo.Polygon{square()}

		pieces := cutter.TraversedPolygons(areas, front.FromLongitude(1), ModeAdd)
		require.Len(t, pieces, 1)
		pieces[0].Polygon[0] = geo.Position{Lat: 99, Lon: 99}

		again := cutter.TraversedPolygons(areas, front.FromLongitude(1), ModeAdd)
		require.Len(t, again, 1)
		assert.Equal(t, geo.Position{Lat: 2, Lon: 1}, again[0].Polygon[0])
	})

	t.Run("replace mode does not touch the accumulator", func(t *testing.T) {
		cutter := New(front.SideWest)
		areas := []geo.Polygon{square()}

		cutter.TraversedPolygons(areas, front.FromLongitude(1), ModeReplace)
		pieces := cutter.TraversedPolygons(areas, front.FromLongitude(5), ModeAdd)

		require.Len(t, pieces, 1)
		assert.Empty(t, pieces[0].CutIDs)
	})
}

func TestTraversedPolygons_MultipleAreas(t *testing.T) {
	west := square()
	east := geo.Polygon{
		{Lat: 0, Lon: 10},
		{Lat: 0, Lon: 12},
		{Lat: 2, Lon: 12},
		{Lat: 2, Lon: 10},
	}

	cutter := New(front.SideWest)
	pieces := cutter.TraversedPolygons([]geo.Polygon{west, east}, front.FromLongitude(5), ModeReplace)

	// The west square is fully swept, the east one untouched.
	require.Len(t, pieces, 1)
	assert.Equal(t, west, pieces[0].Polygon)
}
