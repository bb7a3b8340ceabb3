package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/cchderek/Property-Search-v1/internal/errors"
	"github.com/cchderek/Property-Search-v1/internal/middleware"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/services"
	"github.com/gin-gonic/gin"
)

// PriceHandler handles house price index HTTP requests.
type PriceHandler struct {
	service services.PriceService
}

// NewPriceHandler creates a new PriceHandler instance.
func NewPriceHandler(service services.PriceService) *PriceHandler {
	return &PriceHandler{
		service: service,
	}
}

// PriceHistoryResponse represents the response for the price history endpoint.
type PriceHistoryResponse struct {
	Prices *models.PriceSummary `json:"prices"`
}

// History handles GET /api/v1/prices/:area. The area is usually an outcode
// (e.g. SW1A) or a district name.
func (h *PriceHandler) History(c *gin.Context) {
	log := middleware.GetLogger(c)

	area := c.Param("area")

	if log != nil {
		log.Info("Processing price history request", map[string]interface{}{
			"area": area,
		})
	}

	summary, err := h.service.GetPriceHistory(c.Request.Context(), area)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAreaCode) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		if errors.Is(err, services.ErrNoPriceData) {
			apierrors.NotFound(c, "No house price data found for this area")
			return
		}
		apierrors.BadGateway(c, "Failed to query house price index", err)
		return
	}

	c.JSON(http.StatusOK, PriceHistoryResponse{Prices: summary})
}
