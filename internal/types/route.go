// README: Route lookup inputs and results shared by maps, pricing and quote.
package types

import "strings"

// RoutePoint is either a free-text address or a coordinate pair. When Coords is set it
// takes precedence over Address.
type RoutePoint struct {
	Address string `json:"address,omitempty"`
	Coords  *Point `json:"coords,omitempty"`
}

// AddressPoint wraps free text typed into a pickup or drop field.
func AddressPoint(s string) RoutePoint {
	return RoutePoint{Address: s}
}

func (p RoutePoint) Empty() bool {
	return p.Coords == nil && strings.TrimSpace(p.Address) == ""
}

// Query renders the point the way routing and geocoding APIs accept it.
func (p RoutePoint) Query() string {
	if p.Coords != nil {
		return p.Coords.String()
	}
	return strings.TrimSpace(p.Address)
}

// RouteGeometry is display-only data for drawing the route on a map.
type RouteGeometry struct {
	Polyline     string `json:"polyline"`
	Start        Point  `json:"start"`
	End          Point  `json:"end"`
	StartAddress string `json:"start_address,omitempty"`
	EndAddress   string `json:"end_address,omitempty"`
}

// RouteResult is produced once per successful lookup and never mutated afterwards.
type RouteResult struct {
	DistanceMeters  float64       `json:"distance_meters"`
	DurationSeconds float64       `json:"duration_seconds"`
	Geometry        RouteGeometry `json:"geometry"`
}
