// README: One-shot quote handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transporter/internal/modules/pricing"
)

type QuoteHandler struct {
	pricing *pricing.Service
}

func NewQuoteHandler(svc *pricing.Service) *QuoteHandler {
	return &QuoteHandler{pricing: svc}
}

type createQuoteReq struct {
	Pickup   routePointReq `json:"pickup"`
	Drop     routePointReq `json:"drop"`
	Category string        `json:"category"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req createQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	var category pricing.Category
	if req.Category != "" {
		var err error
		if category, err = pricing.ParseCategory(req.Category); err != nil {
			writeQuoteError(c, err)
			return
		}
	}

	q, err := h.pricing.Quote(c.Request.Context(), req.Pickup.point(), req.Drop.point())
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	options := q.Options
	if category != "" {
		options = pricing.Filter(options, category)
	}
	writeJSON(c, http.StatusOK, gin.H{
		"quote_id":     q.ID,
		"currency":     q.Currency,
		"distance_km":  q.Trip.DistanceKm,
		"duration_min": q.Trip.DurationMin,
		"route":        q.Route.Geometry,
		"options":      options,
	})
}
