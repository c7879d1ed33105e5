package maps

import (
	"errors"
	"testing"
	"time"

	"googlemaps.github.io/maps"

	"transporter/internal/types"
)

func TestRouteFromDirections(t *testing.T) {
	routes := []maps.Route{{
		OverviewPolyline: maps.Polyline{Points: "a~l~Fjk~uOwHJy@P"},
		Legs: []*maps.Leg{
			{
				Distance:      maps.Distance{Meters: 6200},
				Duration:      11 * time.Minute,
				StartLocation: maps.LatLng{Lat: 19.1364, Lng: 72.8296},
				EndLocation:   maps.LatLng{Lat: 19.10, Lng: 72.85},
				StartAddress:  "Andheri West, Mumbai",
			},
			{
				Distance:      maps.Distance{Meters: 3800},
				Duration:      9 * time.Minute,
				StartLocation: maps.LatLng{Lat: 19.10, Lng: 72.85},
				EndLocation:   maps.LatLng{Lat: 19.0596, Lng: 72.8656},
				EndAddress:    "Bandra Kurla Complex, Mumbai",
			},
		},
	}}

	got, err := routeFromDirections(routes)
	if err != nil {
		t.Fatalf("routeFromDirections() error = %v", err)
	}
	if got.DistanceMeters != 10000 || got.DurationSeconds != 1200 {
		t.Errorf("totals = %v m / %v s, want 10000 / 1200", got.DistanceMeters, got.DurationSeconds)
	}
	g := got.Geometry
	if g.Polyline == "" || g.StartAddress != "Andheri West, Mumbai" || g.EndAddress != "Bandra Kurla Complex, Mumbai" {
		t.Errorf("unexpected geometry %+v", g)
	}
	if g.Start != (types.Point{Lat: 19.1364, Lng: 72.8296}) || g.End != (types.Point{Lat: 19.0596, Lng: 72.8656}) {
		t.Errorf("endpoints = %v -> %v", g.Start, g.End)
	}
}

func TestRouteFromDirections_NoRoute(t *testing.T) {
	for _, routes := range [][]maps.Route{nil, {{}}} {
		if _, err := routeFromDirections(routes); !errors.Is(err, ErrRouteUnavailable) {
			t.Errorf("expected ErrRouteUnavailable, got %v", err)
		}
	}
}

func TestRouteKey(t *testing.T) {
	a := routeKey(types.AddressPoint("  Andheri West "), types.AddressPoint("BANDRA"))
	b := routeKey(types.AddressPoint("andheri west"), types.AddressPoint("bandra"))
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	p := types.Point{Lat: 19.1, Lng: 72.8}
	if got := routeKey(types.RoutePoint{Address: "ignored", Coords: &p}, types.AddressPoint("x")); got != "maps:route:19.100000,72.800000|x" {
		t.Errorf("coordinate key = %q", got)
	}
}
