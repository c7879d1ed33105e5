// README: Place autocomplete and reverse-geocode handlers.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"transporter/internal/maps"
	"transporter/internal/types"
)

// PlaceFinder is implemented by maps.PlacesService.
type PlaceFinder interface {
	Autocomplete(ctx context.Context, input string) ([]maps.Suggestion, error)
	ReverseGeocode(ctx context.Context, p types.Point) (string, error)
}

type PlacesHandler struct {
	places PlaceFinder
}

func NewPlacesHandler(places PlaceFinder) *PlacesHandler {
	return &PlacesHandler{places: places}
}

func (h *PlacesHandler) Autocomplete(c *gin.Context) {
	suggestions, err := h.places.Autocomplete(c.Request.Context(), c.Query("input"))
	if err != nil {
		slog.WarnContext(c.Request.Context(), "autocomplete failed", "error", err)
		writeError(c, http.StatusBadGateway, "suggestions unavailable")
		return
	}
	if suggestions == nil {
		suggestions = []maps.Suggestion{}
	}
	writeJSON(c, http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h *PlacesHandler) Reverse(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	p := types.Point{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !p.Valid() {
		writeError(c, http.StatusBadRequest, "invalid coordinates")
		return
	}
	address, err := h.places.ReverseGeocode(c.Request.Context(), p)
	switch {
	case errors.Is(err, maps.ErrNoPlace):
		writeError(c, http.StatusNotFound, err.Error())
	case err != nil:
		slog.WarnContext(c.Request.Context(), "reverse geocode failed", "error", err)
		writeError(c, http.StatusBadGateway, "address lookup unavailable")
	default:
		writeJSON(c, http.StatusOK, gin.H{"address": address, "location": p})
	}
}
