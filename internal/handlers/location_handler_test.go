package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/cchderek/Property-Search-v1/internal/errors"
	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/cchderek/Property-Search-v1/internal/middleware"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLocationService is a mock implementation of services.LocationService.
type MockLocationService struct {
	mock.Mock
}

func (m *MockLocationService) Resolve(ctx context.Context, postcode string) (*models.LocationRecord, error) {
	args := m.Called(ctx, postcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LocationRecord), args.Error(1)
}

func (m *MockLocationService) Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]models.LocationRecord, error) {
	args := m.Called(ctx, lat, lon, radiusMeters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LocationRecord), args.Error(1)
}

// setupLocationTestRouter creates a test router with middleware and the
// location routes registered the way main does.
func setupLocationTestRouter(handler *LocationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	log := logger.New("test")
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	v1 := router.Group("/api/v1")
	{
		locations := v1.Group("/locations")
		{
			locations.GET("/nearby", handler.Nearby)
			locations.GET("/:postcode", handler.Lookup)
		}
	}

	return router
}

// parseErrorBody decodes the standard error envelope.
func parseErrorBody(t *testing.T, body []byte) apierrors.ErrorResponse {
	t.Helper()
	var response apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &response))
	return response
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestLocationHandler_Lookup_Success(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	record := &models.LocationRecord{
		Postcode:      "SW1A 1AA",
		Outcode:       "SW1A",
		Latitude:      floatPtr(51.501),
		Longitude:     floatPtr(-0.1415),
		Region:        "London",
		Country:       "England",
		AdminDistrict: "Westminster",
	}
	mockService.On("Resolve", mock.Anything, "SW1A 1AA").Return(record, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/SW1A%201AA", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response LocationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Location)
	assert.Equal(t, "SW1A 1AA", response.Location.Postcode)
	assert.Equal(t, "SW1A", response.Location.Outcode)
	assert.Equal(t, 51.501, *response.Location.Latitude)
	mockService.AssertExpectations(t)
}

func TestLocationHandler_Lookup_InvalidPostcode(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	mockService.On("Resolve", mock.Anything, "bad").
		Return(nil, fmt.Errorf("%w: empty", services.ErrInvalidPostcode))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/bad", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorBody(t, w.Body.Bytes())
	assert.Equal(t, apierrors.ErrBadRequest, response.Error.Code)
	assert.NotEmpty(t, response.Error.RequestID)
}

func TestLocationHandler_Lookup_NotFound(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	mockService.On("Resolve", mock.Anything, "ZZ99 9ZZ").
		Return(nil, services.ErrPostcodeNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/ZZ99%209ZZ", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorBody(t, w.Body.Bytes())
	assert.Equal(t, apierrors.ErrNotFound, response.Error.Code)
	assert.Equal(t, "Postcode not found", response.Error.Message)
}

func TestLocationHandler_Lookup_UpstreamFailure(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	mockService.On("Resolve", mock.Anything, "SW1A 1AA").
		Return(nil, fmt.Errorf("provider unreachable"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/SW1A%201AA", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	response := parseErrorBody(t, w.Body.Bytes())
	assert.Equal(t, apierrors.ErrUpstream, response.Error.Code)
	// Internal error detail stays out of the response body
	assert.NotContains(t, response.Error.Message, "unreachable")
}

func TestLocationHandler_Nearby_Success(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	records := []models.LocationRecord{
		{Postcode: "SW1A 1AA", Outcode: "SW1A"},
		{Postcode: "SW1A 2AA", Outcode: "SW1A"},
	}
	mockService.On("Nearby", mock.Anything, 51.501, -0.1415, 500, 25).Return(records, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/nearby?lat=51.501&lng=-0.1415&radius=500&limit=25", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response NearbyLocationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
	assert.Len(t, response.Locations, 2)
	mockService.AssertExpectations(t)
}

func TestLocationHandler_Nearby_AppliesDefaults(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	mockService.On("Nearby", mock.Anything, 51.501, -0.1415,
		services.DefaultNearbyRadius, services.DefaultNearbyLimit).
		Return([]models.LocationRecord{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/nearby?lat=51.501&lng=-0.1415", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestLocationHandler_Nearby_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing lat", query: "lng=-0.1415"},
		{name: "missing lng", query: "lat=51.501"},
		{name: "latitude out of range", query: "lat=91&lng=-0.1415"},
		{name: "radius above cap", query: "lat=51.501&lng=-0.1415&radius=2001"},
		{name: "limit above cap", query: "lat=51.501&lng=-0.1415&limit=101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockLocationService)
			handler := NewLocationHandler(mockService)
			router := setupLocationTestRouter(handler)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/nearby?"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			response := parseErrorBody(t, w.Body.Bytes())
			assert.Equal(t, apierrors.ErrValidation, response.Error.Code)
			mockService.AssertNotCalled(t, "Nearby")
		})
	}
}

func TestLocationHandler_Nearby_NonNumericParams(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/nearby?lat=abc&lng=-0.1415", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorBody(t, w.Body.Bytes())
	assert.Equal(t, apierrors.ErrBadRequest, response.Error.Code)
	assert.Equal(t, "Invalid query parameters", response.Error.Message)
}

func TestLocationHandler_Nearby_UpstreamFailure(t *testing.T) {
	mockService := new(MockLocationService)
	handler := NewLocationHandler(mockService)
	router := setupLocationTestRouter(handler)

	mockService.On("Nearby", mock.Anything, 51.501, -0.1415,
		services.DefaultNearbyRadius, services.DefaultNearbyLimit).
		Return(nil, fmt.Errorf("provider unreachable"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/nearby?lat=51.501&lng=-0.1415", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	response := parseErrorBody(t, w.Body.Bytes())
	assert.Equal(t, apierrors.ErrUpstream, response.Error.Code)
}
