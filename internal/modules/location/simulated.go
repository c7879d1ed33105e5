// README: Simulated nearby-driver markers shown around the pickup. Decorative only:
// positions are random and do not come from any driver.
package location

import (
	"math/rand/v2"

	"transporter/internal/types"
)

const (
	minSimulatedDrivers = 3
	maxSimulatedDrivers = 5
	// ~0.006 degrees is roughly 600 m across, so markers land within ~300 m of the pickup.
	simulatedSpreadDeg = 0.006
)

// SimulatedDriver is a placeholder marker, not a tracked vehicle.
type SimulatedDriver struct {
	ID         int         `json:"id"`
	Position   types.Point `json:"position"`
	Heading    float64     `json:"heading"`
	DistanceKm float64     `json:"distance_km"`
	Simulated  bool        `json:"simulated"`
}

// SimulateNearbyDrivers scatters 3 to 5 markers around origin, closest first.
func SimulateNearbyDrivers(origin types.Point, rng *rand.Rand) []SimulatedDriver {
	n := minSimulatedDrivers + rng.IntN(maxSimulatedDrivers-minSimulatedDrivers+1)
	out := make([]SimulatedDriver, 0, n)
	for i := 0; i < n; i++ {
		pos := types.Point{
			Lat: origin.Lat + (rng.Float64()-0.5)*simulatedSpreadDeg,
			Lng: origin.Lng + (rng.Float64()-0.5)*simulatedSpreadDeg,
		}
		out = append(out, SimulatedDriver{
			ID:         i,
			Position:   pos,
			Heading:    rng.Float64() * 360,
			DistanceKm: haversineKm(origin.Lat, origin.Lng, pos.Lat, pos.Lng),
			Simulated:  true,
		})
	}
	sortByDistance(out, func(d SimulatedDriver) float64 { return d.DistanceKm })
	return out
}
