package handlers

import (
	"errors"
	"net/http"
	"sort"

	apierrors "github.com/cchderek/Property-Search-v1/internal/errors"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// DefaultCrimeRadiusKm is applied when the query omits a radius.
const DefaultCrimeRadiusKm = 1.0

// CrimeHandler handles street-crime HTTP requests.
type CrimeHandler struct {
	service services.CrimeService
}

// NewCrimeHandler creates a new CrimeHandler instance.
func NewCrimeHandler(service services.CrimeService) *CrimeHandler {
	return &CrimeHandler{
		service: service,
	}
}

// CrimeRequest represents the query parameters for the crime endpoints.
// Month is optional; when present only that calendar month is fetched.
type CrimeRequest struct {
	Lat      float64 `form:"lat" binding:"required,min=-90,max=90"`
	Lng      float64 `form:"lng" binding:"required,min=-180,max=180"`
	RadiusKm float64 `form:"radius_km" binding:"omitempty,gt=0,max=10"`
	Month    string  `form:"month" binding:"omitempty,datetime=2006-01"`
}

// CrimeIncidentData is the display form of an incident.
type CrimeIncidentData struct {
	Category        string            `json:"category"`
	CategoryDisplay string            `json:"category_display"`
	Month           string            `json:"month"`
	Street          string            `json:"street,omitempty"`
	Latitude        *float64          `json:"latitude,omitempty"`
	Longitude       *float64          `json:"longitude,omitempty"`
	Outcome         *CrimeOutcomeData `json:"outcome,omitempty"`
}

// CrimeOutcomeData is the display form of an incident outcome.
type CrimeOutcomeData struct {
	Category        string `json:"category"`
	CategoryDisplay string `json:"category_display"`
	Date            string `json:"date,omitempty"`
}

// CrimeListResponse represents the combined incident list response.
type CrimeListResponse struct {
	Incidents []CrimeIncidentData `json:"incidents"`
	Count     int                 `json:"count"`
}

// MonthCrimeData is one month's bucket in the breakdown response.
type MonthCrimeData struct {
	Month     string              `json:"month"`
	Incidents []CrimeIncidentData `json:"incidents"`
	Count     int                 `json:"count"`
}

// CrimeBreakdownResponse represents the month-keyed breakdown response,
// ordered by calendar month, most recent first.
type CrimeBreakdownResponse struct {
	Months []MonthCrimeData `json:"months"`
}

// CrimeCategoriesResponse represents the category list response.
type CrimeCategoriesResponse struct {
	Categories []models.CrimeCategory `json:"categories"`
}

// List handles GET /api/v1/crime. Without a month parameter it returns the
// combined list for the 12 most recent calendar months; with one it returns
// that single month.
func (h *CrimeHandler) List(c *gin.Context) {
	var req CrimeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}
	if req.RadiusKm == 0 {
		req.RadiusKm = DefaultCrimeRadiusKm
	}

	var incidents []models.CrimeIncident
	var err error
	if req.Month != "" {
		incidents, err = h.service.SingleMonth(c.Request.Context(), req.Lat, req.Lng, req.RadiusKm, req.Month)
	} else {
		incidents, err = h.service.Recent(c.Request.Context(), req.Lat, req.Lng, req.RadiusKm)
	}
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) || errors.Is(err, services.ErrInvalidMonth) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.BadGateway(c, "Failed to fetch crime data", err)
		return
	}

	c.JSON(http.StatusOK, CrimeListResponse{
		Incidents: mapIncidents(incidents),
		Count:     len(incidents),
	})
}

// Monthly handles GET /api/v1/crime/monthly.
func (h *CrimeHandler) Monthly(c *gin.Context) {
	var req CrimeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}
	if req.RadiusKm == 0 {
		req.RadiusKm = DefaultCrimeRadiusKm
	}

	breakdown, err := h.service.MonthlyBreakdown(c.Request.Context(), req.Lat, req.Lng, req.RadiusKm)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.BadGateway(c, "Failed to fetch crime data", err)
		return
	}

	// Calendar-month ordering, most recent first, regardless of the order
	// the months were fetched in.
	months := make([]string, 0, len(breakdown))
	for month := range breakdown {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	response := CrimeBreakdownResponse{Months: make([]MonthCrimeData, 0, len(months))}
	for _, month := range months {
		incidents := breakdown[month]
		response.Months = append(response.Months, MonthCrimeData{
			Month:     month,
			Incidents: mapIncidents(incidents),
			Count:     len(incidents),
		})
	}

	c.JSON(http.StatusOK, response)
}

// Categories handles GET /api/v1/crime/categories.
func (h *CrimeHandler) Categories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		apierrors.BadGateway(c, "Failed to fetch crime categories", err)
		return
	}

	c.JSON(http.StatusOK, CrimeCategoriesResponse{Categories: categories})
}

// mapIncidents converts incidents to their display DTOs.
func mapIncidents(incidents []models.CrimeIncident) []CrimeIncidentData {
	data := make([]CrimeIncidentData, 0, len(incidents))
	for _, incident := range incidents {
		item := CrimeIncidentData{
			Category:        incident.Category,
			CategoryDisplay: models.Humanize(incident.Category),
			Month:           incident.Month,
			Street:          incident.Street,
			Latitude:        incident.Latitude,
			Longitude:       incident.Longitude,
		}
		if incident.Outcome != nil {
			item.Outcome = &CrimeOutcomeData{
				Category:        incident.Outcome.Category,
				CategoryDisplay: models.Humanize(incident.Outcome.Category),
				Date:            incident.Outcome.Date,
			}
		}
		data = append(data, item)
	}
	return data
}
