package route

import (
	"github.com/fieldforge/backend/internal/geo"
)

// Stop is a single location to visit, typically one assigned ticket.
type Stop struct {
	ID    int64     `json:"id"`
	Point geo.Point `json:"point"`
	Label string    `json:"label,omitempty"`
}

// RouteStop is a stop placed in visiting order. ETAMinutes is cumulative
// travel time from the route start.
type RouteStop struct {
	Stop
	Order              int     `json:"order"`
	DistanceFromPrevKm float64 `json:"distance_from_prev_km"`
	ETAMinutes         float64 `json:"eta_minutes"`
}

// Route is the sequenced visiting plan for one worker.
type Route struct {
	WorkerID     int64       `json:"worker_id,omitempty"`
	Stops        []RouteStop `json:"stops"`
	TotalKm      float64     `json:"total_km"`
	TotalMinutes float64     `json:"total_minutes"`
}

// FleetWorker is the minimal worker snapshot fleet planning needs.
type FleetWorker struct {
	ID    int64     `json:"id"`
	Start geo.Point `json:"start"`
}

// SequenceRoute orders stops by repeatedly visiting the nearest unvisited
// stop from the current position, starting at start. Distance ties go to the
// lower stop ID, so identical inputs always produce identical routes. The
// heuristic is O(n²) and non-optimal, which is fine for the stop counts a
// single worker carries in a day.
func SequenceRoute(start geo.Point, stops []Stop, speedKmh float64) Route {
	route := Route{Stops: make([]RouteStop, 0, len(stops))}
	remaining := make([]Stop, len(stops))
	copy(remaining, stops)

	current := start
	var cumulativeMinutes float64
	for len(remaining) > 0 {
		best := 0
		bestDist := geo.HaversineKm(current, remaining[0].Point)
		for i := 1; i < len(remaining); i++ {
			d := geo.HaversineKm(current, remaining[i].Point)
			if d < bestDist || (d == bestDist && remaining[i].ID < remaining[best].ID) {
				best, bestDist = i, d
			}
		}

		cumulativeMinutes += geo.TravelTimeMinutes(bestDist, speedKmh)
		route.Stops = append(route.Stops, RouteStop{
			Stop:               remaining[best],
			Order:              len(route.Stops) + 1,
			DistanceFromPrevKm: bestDist,
			ETAMinutes:         cumulativeMinutes,
		})
		route.TotalKm += bestDist

		current = remaining[best].Point
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	route.TotalMinutes = cumulativeMinutes
	return route
}

// PlanFleet buckets every stop to its nearest worker, then sequences each
// worker's bucket. Distance ties go to the lower worker ID. Workers that
// receive no stops are omitted from the result.
func PlanFleet(workers []FleetWorker, stops []Stop, speedKmh float64) []Route {
	if len(workers) == 0 || len(stops) == 0 {
		return nil
	}

	buckets := make(map[int64][]Stop, len(workers))
	for _, s := range stops {
		best := 0
		bestDist := geo.HaversineKm(s.Point, workers[0].Start)
		for i := 1; i < len(workers); i++ {
			d := geo.HaversineKm(s.Point, workers[i].Start)
			if d < bestDist || (d == bestDist && workers[i].ID < workers[best].ID) {
				best, bestDist = i, d
			}
		}
		buckets[workers[best].ID] = append(buckets[workers[best].ID], s)
	}

	routes := make([]Route, 0, len(buckets))
	for _, w := range workers {
		bucket, ok := buckets[w.ID]
		if !ok {
			continue
		}
		r := SequenceRoute(w.Start, bucket, speedKmh)
		r.WorkerID = w.ID
		routes = append(routes, r)
	}
	return routes
}

// ETA computes the single-leg travel estimate between two points.
func ETA(from, to geo.Point, speedKmh float64) (distanceKm, minutes float64) {
	distanceKm = geo.HaversineKm(from, to)
	minutes = geo.TravelTimeMinutes(distanceKm, speedKmh)
	return distanceKm, minutes
}
