package route

import (
	"reflect"
	"testing"

	"github.com/fieldforge/backend/internal/geo"
)

func clusterStops() []Stop {
	return []Stop{
		{ID: 1, Point: geo.Point{Lat: 0.0, Lng: 0.1}},
		{ID: 2, Point: geo.Point{Lat: 0.1, Lng: 0.0}},
		{ID: 3, Point: geo.Point{Lat: 0.1, Lng: 0.1}},
		{ID: 4, Point: geo.Point{Lat: 10.0, Lng: 10.1}},
		{ID: 5, Point: geo.Point{Lat: 10.1, Lng: 10.0}},
		{ID: 6, Point: geo.Point{Lat: 10.1, Lng: 10.1}},
	}
}

func TestClusterTicketsPartition(t *testing.T) {
	clusters := ClusterTickets(clusterStops(), 2)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}

	seen := map[int64]int{}
	for _, c := range clusters {
		for _, s := range c.Stops {
			seen[s.ID]++
		}
	}
	for _, s := range clusterStops() {
		if seen[s.ID] != 1 {
			t.Fatalf("expected stop %d in exactly one cluster, got %d", s.ID, seen[s.ID])
		}
	}

	// The two geographic groups must not be split across clusters.
	for _, c := range clusters {
		for _, s := range c.Stops {
			if (c.Stops[0].ID <= 3) != (s.ID <= 3) {
				t.Fatalf("groups mixed within one cluster: %+v", c.Stops)
			}
		}
	}
}

func TestClusterTicketsCoherence(t *testing.T) {
	clusters := ClusterTickets(clusterStops(), 2)
	for i, c := range clusters {
		for _, s := range c.Stops {
			own := geo.HaversineKm(s.Point, c.Centroid)
			for j, other := range clusters {
				if i == j {
					continue
				}
				if foreign := geo.HaversineKm(s.Point, other.Centroid); foreign < own {
					t.Fatalf("stop %d closer to foreign centroid: %f < %f", s.ID, foreign, own)
				}
			}
		}
	}
}

func TestClusterTicketsDeterministic(t *testing.T) {
	first := ClusterTickets(clusterStops(), 3)
	second := ClusterTickets(clusterStops(), 3)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical clustering on repeated calls")
	}
}

func TestClusterTicketsBounds(t *testing.T) {
	if clusters := ClusterTickets(nil, 3); clusters != nil {
		t.Fatalf("expected nil for no stops, got %+v", clusters)
	}

	stops := clusterStops()[:2]
	clusters := ClusterTickets(stops, 10)
	if len(clusters) != 2 {
		t.Fatalf("expected k capped at stop count, got %d clusters", len(clusters))
	}

	clusters = ClusterTickets(clusterStops(), 0)
	if len(clusters) != 1 {
		t.Fatalf("expected a single cluster for k<1, got %d", len(clusters))
	}
	if len(clusters[0].Stops) != 6 {
		t.Fatalf("expected all stops in the single cluster, got %d", len(clusters[0].Stops))
	}
}
