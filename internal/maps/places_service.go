package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"transporter/internal/types"
)

var ErrNoPlace = errors.New("no place found")

// Suggestion is one autocomplete prediction for a pickup or drop field.
type Suggestion struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// PlacesService handles interactions with Google Places and Geocoding APIs.
type PlacesService struct {
	client   *maps.Client
	country  string
	language string
}

// NewPlacesService creates a new PlacesService with the given API Key.
// country restricts suggestions (ISO 3166-1 alpha-2); empty means unrestricted.
func NewPlacesService(apiKey, country, language string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client, country: country, language: language}, nil
}

// Autocomplete returns suggestions for partially typed address text.
func (s *PlacesService) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	r := &maps.PlaceAutocompleteRequest{
		Input:    input,
		Language: s.language,
	}
	if s.country != "" {
		r.Components = map[maps.Component][]string{maps.ComponentCountry: {s.country}}
	}

	resp, err := s.client.PlaceAutocomplete(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	out := make([]Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, Suggestion{Description: p.Description, PlaceID: p.PlaceID})
	}
	return out, nil
}

// ReverseGeocode resolves coordinates to a display address for "use current location".
func (s *PlacesService) ReverseGeocode(ctx context.Context, p types.Point) (string, error) {
	resp, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
		Language: s.language,
	})
	if err != nil {
		return "", fmt.Errorf("geocoding api error: %w", err)
	}
	if len(resp) == 0 {
		return "", ErrNoPlace
	}
	return resp[0].FormattedAddress, nil
}
