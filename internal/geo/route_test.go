package geo

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestWaypoints_ShortChord(t *testing.T) {
	wps := Waypoints(Point{Lon: 0, Lat: 0}, Point{Lon: 2, Lat: 0}, 0.15, 5.0)
	if len(wps) != 3 {
		t.Fatalf("expected 3 waypoints for short chord, got %d", len(wps))
	}
	mid := wps[1]
	if !almostEqual(mid.Lon, 1, 1e-9) {
		t.Errorf("midpoint lon = %g, want 1", mid.Lon)
	}
	// Perpendicular displacement: 0.15 × chord length 2.
	if !almostEqual(math.Abs(mid.Lat), 0.3, 1e-9) {
		t.Errorf("midpoint lat offset = %g, want 0.3", mid.Lat)
	}
}

func TestWaypoints_LongChord(t *testing.T) {
	wps := Waypoints(Point{Lon: 0, Lat: 0}, Point{Lon: 10, Lat: 0}, 0.15, 5.0)
	if len(wps) != 4 {
		t.Fatalf("expected 4 waypoints for long chord, got %d", len(wps))
	}
	if wps[0] != (Point{Lon: 0, Lat: 0}) || wps[3] != (Point{Lon: 10, Lat: 0}) {
		t.Errorf("endpoints not preserved: %v", wps)
	}
	// Asymmetric offsets, same side.
	if wps[1].Lat == 0 || wps[2].Lat == 0 {
		t.Errorf("offset waypoints not displaced: %v", wps)
	}
	if almostEqual(wps[1].Lat, wps[2].Lat, 1e-12) {
		t.Errorf("offsets should be asymmetric, got %g and %g", wps[1].Lat, wps[2].Lat)
	}
}

func TestWaypoints_CoincidentEndpoints(t *testing.T) {
	p := Point{Lon: 36.8, Lat: -1.3}
	wps := Waypoints(p, p, 0.15, 5.0)
	if len(wps) != 1 || wps[0] != p {
		t.Fatalf("expected single-point route, got %v", wps)
	}
	for _, prog := range []float64{0, 0.5, 1} {
		got, err := Along(wps, prog)
		if err != nil {
			t.Fatalf("Along(%g): %v", prog, err)
		}
		if got != p {
			t.Errorf("Along(%g) = %v, want %v", prog, got, p)
		}
	}
}

func TestAlong_Endpoints(t *testing.T) {
	wps := Waypoints(Point{Lon: 35.27, Lat: 0.52}, Point{Lon: 36.08, Lat: -0.28}, 0.15, 5.0)

	first, err := Along(wps, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first != wps[0] {
		t.Errorf("Along(0) = %v, want %v", first, wps[0])
	}

	last, err := Along(wps, 1)
	if err != nil {
		t.Fatal(err)
	}
	if last != wps[len(wps)-1] {
		t.Errorf("Along(1) = %v, want %v", last, wps[len(wps)-1])
	}

	// Out-of-range progress clamps to the endpoints.
	if got, _ := Along(wps, -0.5); got != wps[0] {
		t.Errorf("Along(-0.5) = %v, want first waypoint", got)
	}
	if got, _ := Along(wps, 1.7); got != wps[len(wps)-1] {
		t.Errorf("Along(1.7) = %v, want last waypoint", got)
	}
}

func TestAlong_EmptyRoute(t *testing.T) {
	if _, err := Along(nil, 0.5); err != ErrEmptyRoute {
		t.Fatalf("expected ErrEmptyRoute, got %v", err)
	}
}

// A three-waypoint route (0,0)→(10,0) with the middle control displaced
// by the 0.15 curvature fraction: halfway along, the point sits on the
// middle waypoint — longitude near 5, latitude near 1.5.
func TestAlong_MidpointScenario(t *testing.T) {
	wps := []Point{
		{Lon: 0, Lat: 0},
		{Lon: 5, Lat: 1.5},
		{Lon: 10, Lat: 0},
	}
	got, err := Along(wps, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got.Lon, 5, 1e-9) {
		t.Errorf("lon = %g, want 5", got.Lon)
	}
	if !almostEqual(got.Lat, 1.5, 1e-9) {
		t.Errorf("lat = %g, want 1.5 (0.15 × chord)", got.Lat)
	}
}

// Walking the route with increasing progress should approach the
// destination without oscillating beyond the curve amplitude.
func TestAlong_ApproachesDestination(t *testing.T) {
	origin := Point{Lon: 0, Lat: 0}
	dest := Point{Lon: 10, Lat: 0}
	wps := Waypoints(origin, dest, 0.15, 5.0)

	amplitude := 0.15 * 10
	prev := math.Inf(1)
	for k := 0; k <= 20; k++ {
		p := float64(k) / 20
		pt, err := Along(wps, p)
		if err != nil {
			t.Fatal(err)
		}
		d := math.Hypot(dest.Lon-pt.Lon, dest.Lat-pt.Lat)
		if d > prev+amplitude {
			t.Errorf("p=%.2f: distance to destination jumped from %g to %g", p, prev, d)
		}
		prev = d
	}
	if !almostEqual(prev, 0, 1e-9) {
		t.Errorf("final distance to destination = %g, want 0", prev)
	}
}

func TestHaversine(t *testing.T) {
	// Nairobi to Mombasa is roughly 440 km great-circle.
	nairobi := Point{Lon: 36.82, Lat: -1.29}
	mombasa := Point{Lon: 39.67, Lat: -4.04}
	d := Haversine(nairobi, mombasa)
	if d < 400 || d > 500 {
		t.Errorf("Haversine(nairobi, mombasa) = %g km, want ~440", d)
	}
	if Haversine(nairobi, nairobi) != 0 {
		t.Errorf("distance to self should be 0")
	}
}
