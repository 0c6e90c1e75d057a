package route

import (
	"github.com/fieldforge/backend/internal/geo"
)

const maxClusterIterations = 25

// Cluster is a spatially coherent group of stops around a centroid.
type Cluster struct {
	Centroid geo.Point `json:"centroid"`
	Stops    []Stop    `json:"stops"`
}

// ClusterTickets partitions stops into at most k proximity groups using
// Lloyd's algorithm with farthest-point seeding. Seeding starts from the
// lowest stop ID and all tie-breaks prefer the lowest index, so the result
// is deterministic with no RNG involved. Every stop lands in exactly one
// cluster; empty clusters are dropped.
func ClusterTickets(stops []Stop, k int) []Cluster {
	if len(stops) == 0 {
		return nil
	}
	if k < 1 {
		k = 1
	}
	if k > len(stops) {
		k = len(stops)
	}

	centroids := initialCentroids(stops, k)
	assign := make([]int, len(stops))

	for iter := 0; iter < maxClusterIterations; iter++ {
		changed := iter == 0
		for i, s := range stops {
			c := nearestCentroid(s.Point, centroids)
			if assign[i] != c {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		// Recompute each centroid as the mean of its members; a centroid
		// that lost all members keeps its previous position.
		sums := make([]geo.Point, k)
		counts := make([]int, k)
		for i, s := range stops {
			sums[assign[i]].Lat += s.Point.Lat
			sums[assign[i]].Lng += s.Point.Lng
			counts[assign[i]]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			centroids[c] = geo.Point{
				Lat: sums[c].Lat / float64(counts[c]),
				Lng: sums[c].Lng / float64(counts[c]),
			}
		}
	}

	clusters := make([]Cluster, k)
	for c := 0; c < k; c++ {
		clusters[c].Centroid = centroids[c]
	}
	for i, s := range stops {
		clusters[assign[i]].Stops = append(clusters[assign[i]].Stops, s)
	}

	out := make([]Cluster, 0, k)
	for _, c := range clusters {
		if len(c.Stops) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// initialCentroids seeds k centroids: the lowest-ID stop first, then
// repeatedly the stop farthest from all chosen centroids.
func initialCentroids(stops []Stop, k int) []geo.Point {
	seed := 0
	for i := 1; i < len(stops); i++ {
		if stops[i].ID < stops[seed].ID {
			seed = i
		}
	}

	centroids := make([]geo.Point, 0, k)
	centroids = append(centroids, stops[seed].Point)
	for len(centroids) < k {
		next, nextDist := 0, -1.0
		for i, s := range stops {
			d := minDistance(s.Point, centroids)
			if d > nextDist {
				next, nextDist = i, d
			}
		}
		centroids = append(centroids, stops[next].Point)
	}
	return centroids
}

func minDistance(p geo.Point, centroids []geo.Point) float64 {
	min := geo.HaversineKm(p, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := geo.HaversineKm(p, centroids[i]); d < min {
			min = d
		}
	}
	return min
}

func nearestCentroid(p geo.Point, centroids []geo.Point) int {
	best := 0
	bestDist := geo.HaversineKm(p, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := geo.HaversineKm(p, centroids[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
