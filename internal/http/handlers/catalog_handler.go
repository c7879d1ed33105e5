// README: Catalog handler lists vehicle classes without prices.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transporter/internal/modules/pricing"
)

type CatalogHandler struct {
	pricing *pricing.Service
}

func NewCatalogHandler(svc *pricing.Service) *CatalogHandler {
	return &CatalogHandler{pricing: svc}
}

type catalogEntry struct {
	ID          string           `json:"id"`
	Category    pricing.Category `json:"category"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Capacity    string           `json:"capacity"`
	MinimumFare int64            `json:"minimum_fare"`
}

func (h *CatalogHandler) List(c *gin.Context) {
	catalog := h.pricing.Catalog()
	options := catalog.Build(nil)
	if v := c.Query("category"); v != "" {
		category, err := pricing.ParseCategory(v)
		if err != nil {
			writeQuoteError(c, err)
			return
		}
		options = pricing.Filter(options, category)
	}

	entries := make([]catalogEntry, 0, len(options))
	for _, o := range options {
		min, _ := catalog.MinimumFor(o.ClassID)
		entries = append(entries, catalogEntry{
			ID:          o.ClassID,
			Category:    o.Category,
			Name:        o.Name,
			Description: o.Description,
			Capacity:    o.Capacity,
			MinimumFare: min,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"currency": h.pricing.Currency(), "classes": entries})
}
