package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/cchderek/Property-Search-v1/internal/errors"
	"github.com/cchderek/Property-Search-v1/internal/middleware"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// LocationHandler handles postcode resolution HTTP requests.
type LocationHandler struct {
	service services.LocationService
}

// NewLocationHandler creates a new LocationHandler instance.
func NewLocationHandler(service services.LocationService) *LocationHandler {
	return &LocationHandler{
		service: service,
	}
}

// NearbyRequest represents the query parameters for the nearby endpoint.
type NearbyRequest struct {
	Lat    float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng    float64 `form:"lng" binding:"required,min=-180,max=180"`
	Radius int     `form:"radius" binding:"omitempty,min=1,max=2000"`
	Limit  int     `form:"limit" binding:"omitempty,min=1,max=100"`
}

// LocationResponse represents the response for the lookup endpoint.
type LocationResponse struct {
	Location *models.LocationRecord `json:"location"`
}

// NearbyLocationsResponse represents the response for the nearby endpoint.
type NearbyLocationsResponse struct {
	Locations []models.LocationRecord `json:"locations"`
	Count     int                     `json:"count"`
}

// Lookup handles GET /api/v1/locations/:postcode.
func (h *LocationHandler) Lookup(c *gin.Context) {
	log := middleware.GetLogger(c)

	postcode := c.Param("postcode")

	if log != nil {
		log.Info("Processing postcode lookup", map[string]interface{}{
			"postcode": postcode,
		})
	}

	record, err := h.service.Resolve(c.Request.Context(), postcode)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPostcode) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		if errors.Is(err, services.ErrPostcodeNotFound) {
			apierrors.NotFound(c, "Postcode not found")
			return
		}
		apierrors.BadGateway(c, "Failed to resolve postcode", err)
		return
	}

	c.JSON(http.StatusOK, LocationResponse{Location: record})
}

// Nearby handles GET /api/v1/locations/nearby.
func (h *LocationHandler) Nearby(c *gin.Context) {
	var req NearbyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	if req.Radius == 0 {
		req.Radius = services.DefaultNearbyRadius
	}
	if req.Limit == 0 {
		req.Limit = services.DefaultNearbyLimit
	}

	records, err := h.service.Nearby(c.Request.Context(), req.Lat, req.Lng, req.Radius, req.Limit)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) ||
			errors.Is(err, services.ErrInvalidRadius) ||
			errors.Is(err, services.ErrInvalidLimit) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.BadGateway(c, "Failed to query nearby postcodes", err)
		return
	}

	c.JSON(http.StatusOK, NearbyLocationsResponse{
		Locations: records,
		Count:     len(records),
	})
}
