package geo

import (
	"errors"
	"math"
)

// ErrEmptyRoute is returned by Along when the waypoint list is empty.
// Routes built by Waypoints always contain at least one point.
var ErrEmptyRoute = errors.New("geo: empty route")

const earthRadiusKm = 6371.0

// Point is a geographic coordinate, longitude first (GeoJSON order).
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Waypoints builds a small ordered control-point sequence approximating a
// curved road-like path from origin to dest.
//
// The midpoint of the chord is displaced perpendicular to the chord by
// curvature × chord length. Arcs longer than longArcDeg degrees get two
// asymmetric offset waypoints instead of one, which reads better on a map
// for long hauls. Coincident endpoints degenerate to a single-point route.
func Waypoints(origin, dest Point, curvature, longArcDeg float64) []Point {
	dLon := dest.Lon - origin.Lon
	dLat := dest.Lat - origin.Lat
	chord := math.Hypot(dLon, dLat)
	if chord == 0 {
		return []Point{origin}
	}

	// Unit perpendicular to the chord.
	perpLon := -dLat / chord
	perpLat := dLon / chord

	if chord > longArcDeg {
		// Two offsets, second one smaller and on the same side, so the
		// curve bows out and eases back in.
		a := Point{
			Lon: origin.Lon + dLon/3 + perpLon*curvature*chord,
			Lat: origin.Lat + dLat/3 + perpLat*curvature*chord,
		}
		b := Point{
			Lon: origin.Lon + 2*dLon/3 + perpLon*curvature*chord*0.6,
			Lat: origin.Lat + 2*dLat/3 + perpLat*curvature*chord*0.6,
		}
		return []Point{origin, a, b, dest}
	}

	mid := Point{
		Lon: origin.Lon + dLon/2 + perpLon*curvature*chord,
		Lat: origin.Lat + dLat/2 + perpLat*curvature*chord,
	}
	return []Point{origin, mid, dest}
}

// Along maps a progress fraction p in [0,1] to a point on the route.
//
// The route is treated as a piecewise cubic: progress selects the segment
// ⌊p·(n-1)⌋ with local parameter t, and the segment is evaluated as a
// Bézier whose interior controls are derived from the neighbouring
// waypoints (clamped at the boundaries), so the curve passes through
// every waypoint. p ≤ 0 and p ≥ 1 return the endpoints exactly.
func Along(route []Point, p float64) (Point, error) {
	n := len(route)
	switch {
	case n == 0:
		return Point{}, ErrEmptyRoute
	case n == 1:
		return route[0], nil
	case p <= 0:
		return route[0], nil
	case p >= 1:
		return route[n-1], nil
	}

	scaled := p * float64(n-1)
	i := int(scaled)
	if i > n-2 {
		i = n - 2
	}
	t := scaled - float64(i)

	p0 := route[i]
	p3 := route[i+1]
	prev := route[max(i-1, 0)]
	next := route[min(i+2, n-1)]

	// Catmull-Rom tangents converted to Bézier interior controls.
	p1 := Point{
		Lon: p0.Lon + (p3.Lon-prev.Lon)/6,
		Lat: p0.Lat + (p3.Lat-prev.Lat)/6,
	}
	p2 := Point{
		Lon: p3.Lon - (next.Lon-p0.Lon)/6,
		Lat: p3.Lat - (next.Lat-p0.Lat)/6,
	}

	u := 1 - t
	w0 := u * u * u
	w1 := 3 * u * u * t
	w2 := 3 * u * t * t
	w3 := t * t * t
	return Point{
		Lon: w0*p0.Lon + w1*p1.Lon + w2*p2.Lon + w3*p3.Lon,
		Lat: w0*p0.Lat + w1*p1.Lat + w2*p2.Lat + w3*p3.Lat,
	}, nil
}

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}
