package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/cchderek/Property-Search-v1/internal/errors"
	"github.com/cchderek/Property-Search-v1/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// DefaultFloodRadiusKm is applied when the query omits a radius.
const DefaultFloodRadiusKm = 2.0

// FloodHandler handles flood-risk HTTP requests.
type FloodHandler struct {
	service services.FloodService
}

// NewFloodHandler creates a new FloodHandler instance.
func NewFloodHandler(service services.FloodService) *FloodHandler {
	return &FloodHandler{
		service: service,
	}
}

// FloodRequest represents the query parameters for the flood endpoint.
type FloodRequest struct {
	Lat      float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng      float64 `form:"lng" binding:"required,min=-180,max=180"`
	RadiusKm float64 `form:"radius_km" binding:"omitempty,gte=0.1,max=10"`
}

// Risk handles GET /api/v1/flood. It returns the full flood bundle for a
// coordinate: zone polygons, the point risk assessment, active warnings, and
// nearby monitoring stations.
func (h *FloodHandler) Risk(c *gin.Context) {
	var req FloodRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}
	if req.RadiusKm == 0 {
		req.RadiusKm = DefaultFloodRadiusKm
	}

	bundle, err := h.service.GetFloodData(c.Request.Context(), req.Lat, req.Lng, req.RadiusKm)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) || errors.Is(err, services.ErrInvalidFloodRadius) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.BadGateway(c, "Failed to fetch flood data", err)
		return
	}

	c.JSON(http.StatusOK, bundle)
}
