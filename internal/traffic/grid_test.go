package traffic

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGridDimensionsAndCorners(t *testing.T) {
	sw := LatLon{Lat: 39.93, Lon: -83.055}
	ne := LatLon{Lat: 40.03, Lon: -82.965}

	points := Grid(sw, ne, 3, 4)
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}

	first := points[0]
	if first.Lat != sw.Lat || first.Lon != sw.Lon {
		t.Errorf("point(0,0) = %v,%v, want sw corner %v,%v", first.Lat, first.Lon, sw.Lat, sw.Lon)
	}
	if first.Name != "grid_r0_c0" {
		t.Errorf("point(0,0) name = %q, want grid_r0_c0", first.Name)
	}

	last := points[len(points)-1]
	if !approxEqual(last.Lat, ne.Lat) || !approxEqual(last.Lon, ne.Lon) {
		t.Errorf("point(R-1,C-1) = %v,%v, want ne corner %v,%v", last.Lat, last.Lon, ne.Lat, ne.Lon)
	}
	if last.Name != "grid_r2_c3" {
		t.Errorf("point(R-1,C-1) name = %q, want grid_r2_c3", last.Name)
	}
}

func TestGridSingleRowCollapsesLatitude(t *testing.T) {
	sw := LatLon{Lat: 10, Lon: 20}
	ne := LatLon{Lat: 11, Lon: 22}

	points := Grid(sw, ne, 1, 3)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for _, p := range points {
		if p.Lat != sw.Lat {
			t.Errorf("single-row grid should stay on sw latitude, got %v", p.Lat)
		}
	}
	if !approxEqual(points[2].Lon, ne.Lon) {
		t.Errorf("last column lon = %v, want %v", points[2].Lon, ne.Lon)
	}
}

func TestGridDeterministic(t *testing.T) {
	sw := LatLon{Lat: 1, Lon: 2}
	ne := LatLon{Lat: 3, Lon: 4}

	a := Grid(sw, ne, 4, 4)
	b := Grid(sw, ne, 4, 4)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
