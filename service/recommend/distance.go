package recommend

import (
	"math"

	"github.com/peergram/go-suggest/service/persist"
)

const earthRadiusMeters = 6371000

// HaversineMeters returns the great-circle distance between two coordinate
// pairs in meters. Identical coordinates return 0; antipodal points return
// half the Earth's circumference.
func HaversineMeters(a, b persist.LatLong) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	// Clamp to guard against floating-point drift pushing h past 1 for
	// antipodal points.
	if h > 1 {
		h = 1
	}

	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
