package route

import (
	"math"
	"reflect"
	"testing"

	"github.com/fieldforge/backend/internal/geo"
)

func TestSequenceRouteNearestNeighbor(t *testing.T) {
	start := geo.Point{Lat: 0, Lng: 0}
	stops := []Stop{
		{ID: 1, Point: geo.Point{Lat: 0, Lng: 1}},
		{ID: 2, Point: geo.Point{Lat: 0, Lng: 5}},
		{ID: 3, Point: geo.Point{Lat: 0, Lng: 2}},
	}

	r := SequenceRoute(start, stops, 40)
	if len(r.Stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(r.Stops))
	}
	// Greedy nearest-first: lng 1, then 2, then 5.
	wantIDs := []int64{1, 3, 2}
	for i, want := range wantIDs {
		if r.Stops[i].ID != want {
			t.Fatalf("expected stop %d at position %d, got %d", want, i, r.Stops[i].ID)
		}
		if r.Stops[i].Order != i+1 {
			t.Fatalf("expected 1-based order %d, got %d", i+1, r.Stops[i].Order)
		}
	}
}

func TestSequenceRouteDistanceTieLowerID(t *testing.T) {
	start := geo.Point{Lat: 0, Lng: 0}
	stops := []Stop{
		{ID: 7, Point: geo.Point{Lat: 0, Lng: 1}},
		{ID: 3, Point: geo.Point{Lat: 0, Lng: -1}},
	}

	r := SequenceRoute(start, stops, 40)
	if r.Stops[0].ID != 3 {
		t.Fatalf("expected distance tie to go to lower stop ID, got %d first", r.Stops[0].ID)
	}
}

func TestSequenceRouteCumulativeETA(t *testing.T) {
	start := geo.Point{Lat: 0, Lng: 0}
	stops := []Stop{
		{ID: 1, Point: geo.Point{Lat: 0, Lng: 0.5}},
		{ID: 2, Point: geo.Point{Lat: 0, Lng: 1.0}},
	}

	r := SequenceRoute(start, stops, 40)
	if r.Stops[0].ETAMinutes >= r.Stops[1].ETAMinutes {
		t.Fatalf("expected cumulative ETA to increase, got %f then %f",
			r.Stops[0].ETAMinutes, r.Stops[1].ETAMinutes)
	}
	if r.TotalMinutes != r.Stops[1].ETAMinutes {
		t.Fatalf("expected route total to equal last stop ETA")
	}
	wantKm := r.Stops[0].DistanceFromPrevKm + r.Stops[1].DistanceFromPrevKm
	if math.Abs(r.TotalKm-wantKm) > 1e-9 {
		t.Fatalf("expected total %f km, got %f", wantKm, r.TotalKm)
	}
}

func TestSequenceRouteLegFloor(t *testing.T) {
	start := geo.Point{Lat: 0, Lng: 0}
	stops := []Stop{
		{ID: 1, Point: geo.Point{Lat: 0, Lng: 0.001}},
		{ID: 2, Point: geo.Point{Lat: 0, Lng: 0.002}},
	}

	r := SequenceRoute(start, stops, 40)
	// Each tiny leg is floored at the dispatch overhead.
	if r.Stops[0].ETAMinutes != geo.MinDispatchMinutes {
		t.Fatalf("expected first ETA at floor, got %f", r.Stops[0].ETAMinutes)
	}
	if r.Stops[1].ETAMinutes != 2*geo.MinDispatchMinutes {
		t.Fatalf("expected second ETA at twice the floor, got %f", r.Stops[1].ETAMinutes)
	}
}

func TestSequenceRouteEmpty(t *testing.T) {
	r := SequenceRoute(geo.Point{Lat: 10, Lng: 10}, nil, 40)
	if len(r.Stops) != 0 || r.TotalKm != 0 || r.TotalMinutes != 0 {
		t.Fatalf("expected empty route, got %+v", r)
	}
}

func TestSequenceRouteDoesNotMutateInput(t *testing.T) {
	stops := []Stop{
		{ID: 2, Point: geo.Point{Lat: 0, Lng: 2}},
		{ID: 1, Point: geo.Point{Lat: 0, Lng: 1}},
	}
	snapshot := make([]Stop, len(stops))
	copy(snapshot, stops)

	SequenceRoute(geo.Point{}, stops, 40)
	if !reflect.DeepEqual(stops, snapshot) {
		t.Fatalf("expected input slice to stay untouched")
	}
}

func TestPlanFleetAssignsEveryStopOnce(t *testing.T) {
	workers := []FleetWorker{
		{ID: 1, Start: geo.Point{Lat: 0, Lng: 0}},
		{ID: 2, Start: geo.Point{Lat: 10, Lng: 10}},
	}
	stops := []Stop{
		{ID: 1, Point: geo.Point{Lat: 0.1, Lng: 0.1}},
		{ID: 2, Point: geo.Point{Lat: 0.2, Lng: 0}},
		{ID: 3, Point: geo.Point{Lat: 10.1, Lng: 10}},
		{ID: 4, Point: geo.Point{Lat: 9.9, Lng: 10.2}},
	}

	routes := PlanFleet(workers, stops, 40)
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}

	seen := map[int64]int{}
	for _, r := range routes {
		for _, s := range r.Stops {
			seen[s.ID]++
		}
	}
	for _, s := range stops {
		if seen[s.ID] != 1 {
			t.Fatalf("expected stop %d in exactly one route, got %d", s.ID, seen[s.ID])
		}
	}

	for _, r := range routes {
		for _, s := range r.Stops {
			if r.WorkerID == 1 && s.ID > 2 || r.WorkerID == 2 && s.ID <= 2 {
				t.Fatalf("stop %d bucketed to wrong worker %d", s.ID, r.WorkerID)
			}
		}
	}
}

func TestPlanFleetOmitsIdleWorkers(t *testing.T) {
	workers := []FleetWorker{
		{ID: 1, Start: geo.Point{Lat: 0, Lng: 0}},
		{ID: 2, Start: geo.Point{Lat: 50, Lng: 50}},
	}
	stops := []Stop{
		{ID: 1, Point: geo.Point{Lat: 0.1, Lng: 0}},
	}

	routes := PlanFleet(workers, stops, 40)
	if len(routes) != 1 || routes[0].WorkerID != 1 {
		t.Fatalf("expected a single route for worker 1, got %+v", routes)
	}
}

func TestPlanFleetEmptyInputs(t *testing.T) {
	if routes := PlanFleet(nil, []Stop{{ID: 1}}, 40); routes != nil {
		t.Fatalf("expected nil routes without workers, got %+v", routes)
	}
	if routes := PlanFleet([]FleetWorker{{ID: 1}}, nil, 40); routes != nil {
		t.Fatalf("expected nil routes without stops, got %+v", routes)
	}
}

func TestETASingleLeg(t *testing.T) {
	from := geo.Point{Lat: 0, Lng: 0}
	to := geo.Point{Lat: 0, Lng: 0.5}

	km, minutes := ETA(from, to, 40)
	if math.Abs(km-55.6) > 0.2 {
		t.Fatalf("expected ~55.6 km, got %f", km)
	}
	if want := km / 40 * 60; math.Abs(minutes-want) > 1e-9 {
		t.Fatalf("expected %f minutes, got %f", want, minutes)
	}

	km, minutes = ETA(from, from, 40)
	if km != 0 || minutes != geo.MinDispatchMinutes {
		t.Fatalf("expected floored ETA for zero distance, got %f km %f min", km, minutes)
	}
}
