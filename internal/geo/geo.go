package geo

import "math"

const earthRadiusKm = 6371.0

// Defaults for the linear travel-time model.
const (
	DefaultSpeedKmh    = 40.0
	MinDispatchMinutes = 5.0
)

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two points in
// kilometres. Coordinates are assumed to be valid lat/lng; range checking is
// the caller's contract.
func HaversineKm(a, b Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	latA := degreesToRadians(a.Lat)
	latB := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(latA)*math.Cos(latB)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// BearingDeg returns the initial great-circle bearing from a to b in degrees,
// normalized to [0, 360).
func BearingDeg(a, b Point) float64 {
	latA := degreesToRadians(a.Lat)
	latB := degreesToRadians(b.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(latB)
	x := math.Cos(latA)*math.Sin(latB) - math.Sin(latA)*math.Cos(latB)*math.Cos(dLng)
	deg := radiansToDegrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// TravelTimeMinutes estimates driving time over a distance at a flat average
// speed. Non-positive speeds fall back to DefaultSpeedKmh and the result is
// floored at MinDispatchMinutes.
func TravelTimeMinutes(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	minutes := distanceKm / speedKmh * 60
	if minutes < MinDispatchMinutes {
		return MinDispatchMinutes
	}
	return minutes
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

func radiansToDegrees(r float64) float64 {
	return r * 180 / math.Pi
}
