// Package geo provides the geodesic primitives shared by the wave engine:
// positions, segments, polygons, bounding boxes, and the distance and
// membership functions built on them.
//
// All functions are total over valid numeric inputs. Degenerate geometry
// (zero-length segments, coincident points) is absorbed by epsilon-guarded
// special cases rather than reported as errors, so the per-tick evaluation
// path stays error-free. Callers are responsible for clamping NaN inputs
// before invoking these primitives.
package geo

import "math"

const (
	// EquatorialRadiusMeters is the WGS-84 equatorial radius.
	EquatorialRadiusMeters = 6_378_137.0

	// Epsilon is the positional tolerance for geodetic equality tests.
	// At equatorial scale 1e-9 degrees is roughly 0.11 mm, well below any
	// position accuracy the engine will ever see.
	Epsilon = 1e-9
)

// Position is a WGS-84 coordinate pair in degrees. It is an immutable value.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Segment is an ordered pair of positions, typically a polygon edge.
type Segment struct {
	Start Position
	End   Position
}

// Polygon is a closed ordered sequence of positions. The closing edge from
// the last vertex back to the first is implicit.
type Polygon []Position

// BoundingBox is the axis-aligned box between its southwest and northeast
// corners.
type BoundingBox struct {
	SouthWest Position `json:"south_west"`
	NorthEast Position `json:"north_east"`
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DistanceFast returns the planar approximation of the distance in meters
// between two longitudes at the given latitude: |R * dLon * cos(lat)|.
// Accurate to sub-100 km scales; one cosine, no further transcendentals.
func DistanceFast(lon1, lon2, lat float64) float64 {
	return math.Abs(EquatorialRadiusMeters * ToRadians(lon2-lon1) * math.Cos(ToRadians(lat)))
}

// DistanceAccurate returns the haversine great-circle distance in meters
// between two longitudes at the same latitude. Use it where the planar
// approximation's error is unacceptable.
func DistanceAccurate(lon1, lon2, lat float64) float64 {
	latRad := ToRadians(lat)
	dLon := ToRadians(lon2 - lon1)

	sinHalf := math.Sin(dLon / 2)
	a := math.Cos(latRad) * math.Cos(latRad) * sinHalf * sinHalf
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EquatorialRadiusMeters * c
}

// IsPointOnSegment reports whether p lies on s within Epsilon.
// Horizontal and vertical segments are handled explicitly; the general case
// solves the parametric t along both axes and requires them to agree.
func (s Segment) IsPointOnSegment(p Position) bool {
	dLat := s.End.Lat - s.Start.Lat
	dLon := s.End.Lon - s.Start.Lon

	// Degenerate segment: a single point.
	if math.Abs(dLat) < Epsilon && math.Abs(dLon) < Epsilon {
		return math.Abs(p.Lat-s.Start.Lat) < Epsilon && math.Abs(p.Lon-s.Start.Lon) < Epsilon
	}

	// Horizontal segment: constant latitude.
	if math.Abs(dLat) < Epsilon {
		if math.Abs(p.Lat-s.Start.Lat) >= Epsilon {
			return false
		}
		return inClosedRange(p.Lon, s.Start.Lon, s.End.Lon)
	}

	// Vertical segment: constant longitude.
	if math.Abs(dLon) < Epsilon {
		if math.Abs(p.Lon-s.Start.Lon) >= Epsilon {
			return false
		}
		return inClosedRange(p.Lat, s.Start.Lat, s.End.Lat)
	}

	tLat := (p.Lat - s.Start.Lat) / dLat
	tLon := (p.Lon - s.Start.Lon) / dLon
	if math.Abs(tLat-tLon) >= Epsilon {
		return false
	}
	return tLat >= -Epsilon && tLat <= 1+Epsilon
}

// IsLongitudeInRange reports whether lon lies in [west, east], handling
// ranges that wrap across the antimeridian (west > east).
func IsLongitudeInRange(lon, west, east float64) bool {
	if west <= east {
		return lon >= west-Epsilon && lon <= east+Epsilon
	}
	// Wrapped range, e.g. west=170 east=-170 covers the antimeridian.
	return lon >= west-Epsilon || lon <= east+Epsilon
}

// IsLatitudeInRange reports whether lat lies in [south, north].
func IsLatitudeInRange(lat, south, north float64) bool {
	if south > north {
		south, north = north, south
	}
	return lat >= south-Epsilon && lat <= north+Epsilon
}

// MidLatitude returns the latitude midway between the box corners.
func (b BoundingBox) MidLatitude() float64 {
	return (b.SouthWest.Lat + b.NorthEast.Lat) / 2
}

// Contains reports whether p lies inside the box.
func (b BoundingBox) Contains(p Position) bool {
	return IsLatitudeInRange(p.Lat, b.SouthWest.Lat, b.NorthEast.Lat) &&
		IsLongitudeInRange(p.Lon, b.SouthWest.Lon, b.NorthEast.Lon)
}

// WidthMeters returns the east-west extent of the box in meters, measured
// with the fast planar approximation at the box's mid-latitude.
func (b BoundingBox) WidthMeters() float64 {
	return DistanceFast(b.SouthWest.Lon, b.NorthEast.Lon, b.MidLatitude())
}

// Contains reports whether pt lies inside the polygon, using even-odd ray
// casting. Points exactly on the boundary may classify either way; callers
// that care about boundary contact should test the edges with
// IsPointOnSegment.
func (p Polygon) Contains(pt Position) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Lat > pt.Lat) == (b.Lat > pt.Lat) {
			continue
		}
		crossLon := a.Lon + (pt.Lat-a.Lat)/(b.Lat-a.Lat)*(b.Lon-a.Lon)
		if pt.Lon < crossLon {
			inside = !inside
		}
	}
	return inside
}

// Segments returns the polygon's edges in vertex order, including the
// implicit closing edge.
func (p Polygon) Segments() []Segment {
	if len(p) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(p))
	for i := range p {
		segs = append(segs, Segment{Start: p[i], End: p[(i+1)%len(p)]})
	}
	return segs
}

func inClosedRange(v, a, b float64) bool {
	if a > b {
		a, b = b, a
	}
	return v >= a-Epsilon && v <= b+Epsilon
}
