package geo

import (
	"math"
	"testing"
)

func TestHaversineIdenticalPoints(t *testing.T) {
	p := Point{Lat: 51.1694, Lng: 71.4491}
	if d := HaversineKm(p, p); d != 0 {
		t.Fatalf("expected 0 for identical points, got %f", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := Point{Lat: 43.238949, Lng: 76.889709}
	b := Point{Lat: 51.1694, Lng: 71.4491}
	if ab, ba := HaversineKm(a, b), HaversineKm(b, a); ab != ba {
		t.Fatalf("expected symmetry, got %f vs %f", ab, ba)
	}
}

func TestHaversineOneDegree(t *testing.T) {
	// One degree of latitude is about 111.19 km.
	d := HaversineKm(Point{0, 0}, Point{1, 0})
	if math.Abs(d-111.19) > 0.2 {
		t.Fatalf("expected ~111.19 km, got %f", d)
	}
}

func TestBearingCardinalDirections(t *testing.T) {
	origin := Point{0, 0}
	cases := []struct {
		to   Point
		want float64
	}{
		{Point{1, 0}, 0},
		{Point{0, 1}, 90},
		{Point{-1, 0}, 180},
		{Point{0, -1}, 270},
	}
	for _, c := range cases {
		got := BearingDeg(origin, c.to)
		if math.Abs(got-c.want) > 1e-6 {
			t.Fatalf("bearing to %+v: expected %f, got %f", c.to, c.want, got)
		}
	}
}

func TestBearingRange(t *testing.T) {
	a := Point{Lat: 48.8566, Lng: 2.3522}
	b := Point{Lat: 51.5074, Lng: -0.1278}
	got := BearingDeg(a, b)
	if got < 0 || got >= 360 {
		t.Fatalf("bearing out of [0,360): %f", got)
	}
}

func TestTravelTimeLinearModel(t *testing.T) {
	if got := TravelTimeMinutes(40, 40); got != 60 {
		t.Fatalf("expected 60 minutes for 40 km at 40 km/h, got %f", got)
	}
}

func TestTravelTimeFloor(t *testing.T) {
	if got := TravelTimeMinutes(1, 40); got != MinDispatchMinutes {
		t.Fatalf("expected floor of %f minutes, got %f", MinDispatchMinutes, got)
	}
	if got := TravelTimeMinutes(0, 40); got != MinDispatchMinutes {
		t.Fatalf("expected floor for zero distance, got %f", got)
	}
}

func TestTravelTimeSpeedFallback(t *testing.T) {
	if got := TravelTimeMinutes(80, 0); got != 120 {
		t.Fatalf("expected default speed fallback to yield 120 minutes, got %f", got)
	}
	if got := TravelTimeMinutes(80, -10); got != 120 {
		t.Fatalf("expected default speed fallback for negative speed, got %f", got)
	}
}
