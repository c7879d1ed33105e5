// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"transporter/internal/maps"
	"transporter/internal/modules/auth"
	"transporter/internal/modules/pricing"
	"transporter/internal/modules/quote"
	"transporter/internal/types"
)

// errorResponse is the error slot rendered next to the input named by Field.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Retry bool   `json:"retry,omitempty"`
}

type routePointReq struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
}

func (r routePointReq) point() types.RoutePoint {
	if r.Lat != nil && r.Lng != nil {
		p := types.Point{Lat: *r.Lat, Lng: *r.Lng}
		if p.Valid() {
			return types.RoutePoint{Address: r.Address, Coords: &p}
		}
	}
	return types.AddressPoint(r.Address)
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeFieldError(c *gin.Context, status int, msg, field string) {
	writeJSON(c, status, errorResponse{Error: msg, Field: field})
}

func writeQuoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrInputIncomplete):
		writeFieldError(c, http.StatusBadRequest, "Please enter both pickup and drop locations.", "route")
	case errors.Is(err, pricing.ErrUnknownCategory):
		writeFieldError(c, http.StatusBadRequest, err.Error(), "category")
	case errors.Is(err, maps.ErrRouteUnavailable):
		writeFieldError(c, http.StatusBadGateway, quote.RouteUnavailableMessage, "route")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeAuthError(c *gin.Context, err error) {
	resp := errorResponse{Error: auth.UserMessage(err)}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrChallengeFailed):
		status, resp.Retry = http.StatusPreconditionRequired, true
	case errors.Is(err, auth.ErrInvalidPhone):
		status, resp.Field = http.StatusBadRequest, "phone"
	case errors.Is(err, auth.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
	case errors.Is(err, auth.ErrCodeInvalid):
		status, resp.Field = http.StatusUnauthorized, "code"
	case errors.Is(err, auth.ErrMissingFields):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrWeakPassword):
		status, resp.Field = http.StatusBadRequest, "password"
	case errors.Is(err, auth.ErrInvalidEmail):
		status, resp.Field = http.StatusBadRequest, "email"
	case errors.Is(err, auth.ErrEmailInUse):
		status, resp.Field = http.StatusConflict, "email"
	case errors.Is(err, auth.ErrWrongPassword):
		status, resp.Field = http.StatusUnauthorized, "password"
	case errors.Is(err, auth.ErrUserNotFound):
		status, resp.Field = http.StatusNotFound, "email"
	case errors.Is(err, auth.ErrSessionNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrAuthExchangeFailed):
		status = http.StatusBadGateway
	}
	writeJSON(c, status, resp)
}
