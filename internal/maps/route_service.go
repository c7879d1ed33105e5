package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"transporter/internal/types"
)

// ErrRouteUnavailable covers transport failures and "no route found".
var ErrRouteUnavailable = errors.New("route unavailable")

// Router resolves a driving route between two points.
type Router interface {
	Lookup(ctx context.Context, origin, destination types.RoutePoint) (types.RouteResult, error)
}

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client   *maps.Client
	region   string
	language string
}

// NewRouteService creates a new RouteService with the given API Key.
// region and language bias address resolution (e.g. "in", "en").
func NewRouteService(apiKey, region, language string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client, region: region, language: language}, nil
}

// Lookup returns distance, duration and display geometry for a driving trip.
func (s *RouteService) Lookup(ctx context.Context, origin, destination types.RoutePoint) (types.RouteResult, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin.Query(),
		Destination: destination.Query(),
		Mode:        maps.TravelModeDriving,
		Language:    s.language,
		Region:      s.region,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return types.RouteResult{}, fmt.Errorf("%w: maps api error: %v", ErrRouteUnavailable, err)
	}
	return routeFromDirections(routes)
}

// routeFromDirections sums the legs of the first route.
func routeFromDirections(routes []maps.Route) (types.RouteResult, error) {
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return types.RouteResult{}, fmt.Errorf("%w: no route found", ErrRouteUnavailable)
	}
	rt := routes[0]
	first := rt.Legs[0]
	last := rt.Legs[len(rt.Legs)-1]

	var res types.RouteResult
	for _, leg := range rt.Legs {
		res.DistanceMeters += float64(leg.Distance.Meters)
		res.DurationSeconds += leg.Duration.Seconds()
	}
	res.Geometry = types.RouteGeometry{
		Polyline:     rt.OverviewPolyline.Points,
		Start:        types.Point{Lat: first.StartLocation.Lat, Lng: first.StartLocation.Lng},
		End:          types.Point{Lat: last.EndLocation.Lat, Lng: last.EndLocation.Lng},
		StartAddress: first.StartAddress,
		EndAddress:   last.EndAddress,
	}
	return res, nil
}
