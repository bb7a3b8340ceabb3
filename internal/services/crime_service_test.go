package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCrimeAPI is a mock implementation of upstream.CrimeAPI for testing
type MockCrimeAPI struct {
	mock.Mock
}

func (m *MockCrimeAPI) StreetCrimes(ctx context.Context, lat, lng, radiusMiles float64, month string) ([]models.CrimeIncident, error) {
	args := m.Called(ctx, lat, lng, radiusMiles, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CrimeIncident), args.Error(1)
}

func (m *MockCrimeAPI) Categories(ctx context.Context) ([]models.CrimeCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CrimeCategory), args.Error(1)
}

// newCrimeService builds a service frozen at now with the inter-request
// pause disabled so tests do not wait on the clock.
func newCrimeService(police *MockCrimeAPI, now time.Time) *crimeService {
	return &crimeService{
		police: police,
		clock:  clockwork.NewFakeClockAt(now),
		pause:  0,
		log:    logger.New("test"),
	}
}

func incident(category, month string) models.CrimeIncident {
	return models.CrimeIncident{Category: category, Month: month}
}

func TestSingleMonth_Success(t *testing.T) {
	// Arrange
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	expected := []models.CrimeIncident{incident("burglary", "2024-02")}
	// 1 km converts to ~0.62 miles
	mockAPI.On("StreetCrimes", ctx, 51.501, -0.1415, 0.621371, "2024-02").Return(expected, nil)

	// Act
	incidents, err := service.SingleMonth(ctx, 51.501, -0.1415, 1.0, "2024-02")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, expected, incidents)
	mockAPI.AssertExpectations(t)
}

func TestSingleMonth_InvalidMonth(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	for _, month := range []string{"2024-13", "2024-00", "03-2024", "2024/03", "202403", "2024-3"} {
		incidents, err := service.SingleMonth(context.Background(), 51.5, -0.14, 1.0, month)

		assert.Error(t, err, "month %q should be rejected", month)
		assert.Nil(t, incidents)
		assert.ErrorIs(t, err, ErrInvalidMonth)
	}
	mockAPI.AssertNotCalled(t, "StreetCrimes")
}

func TestSingleMonth_InvalidCoordinates(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	incidents, err := service.SingleMonth(context.Background(), 95.0, -0.14, 1.0, "2024-02")

	assert.Error(t, err)
	assert.Nil(t, incidents)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	mockAPI.AssertNotCalled(t, "StreetCrimes")
}

func TestRecent_TwelveMonths(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	expectedMonths := []string{
		"2024-03", "2024-02", "2024-01",
		"2023-12", "2023-11", "2023-10", "2023-09", "2023-08",
		"2023-07", "2023-06", "2023-05", "2023-04",
	}
	for _, month := range expectedMonths {
		mockAPI.On("StreetCrimes", ctx, 51.5, -0.14, mock.Anything, month).
			Return([]models.CrimeIncident{incident("burglary", month)}, nil).Once()
	}

	incidents, err := service.Recent(ctx, 51.5, -0.14, 1.0)

	require.NoError(t, err)
	require.Len(t, incidents, 12)
	// Combined list preserves the newest-first fetch order
	assert.Equal(t, "2024-03", incidents[0].Month)
	assert.Equal(t, "2023-04", incidents[11].Month)
	mockAPI.AssertExpectations(t)
}

func TestRecent_DropsErroredMonths(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	mockAPI.On("StreetCrimes", ctx, 51.5, -0.14, mock.Anything, "2024-02").
		Return(nil, errors.New("upstream 500")).Once()
	mockAPI.On("StreetCrimes", ctx, 51.5, -0.14, mock.Anything, mock.Anything).
		Return([]models.CrimeIncident{incident("burglary", "x")}, nil)

	incidents, err := service.Recent(ctx, 51.5, -0.14, 1.0)

	// The errored month is skipped silently, never retried
	require.NoError(t, err)
	assert.Len(t, incidents, 11)
	mockAPI.AssertNumberOfCalls(t, "StreetCrimes", 12)
}

func TestRecentMonths_YearRollover(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC))

	months := service.recentMonths()

	require.Len(t, months, 12)
	assert.Equal(t, "2023-01", months[0])
	assert.Equal(t, "2022-12", months[1])
	assert.Equal(t, "2022-02", months[11])
}

func TestMonthlyBreakdown_KeyedByMonth(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	mockAPI.On("StreetCrimes", ctx, 51.5, -0.14, mock.Anything, "2024-03").
		Return([]models.CrimeIncident{incident("burglary", "2024-03"), incident("robbery", "2024-03")}, nil).Once()
	mockAPI.On("StreetCrimes", ctx, 51.5, -0.14, mock.Anything, "2023-06").
		Return(nil, errors.New("upstream 500")).Once()
	mockAPI.On("StreetCrimes", ctx, 51.5, -0.14, mock.Anything, mock.Anything).
		Return([]models.CrimeIncident{}, nil)

	breakdown, err := service.MonthlyBreakdown(ctx, 51.5, -0.14, 1.0)

	require.NoError(t, err)
	// Errored months are omitted from the mapping entirely
	assert.Len(t, breakdown, 11)
	assert.NotContains(t, breakdown, "2023-06")
	assert.Len(t, breakdown["2024-03"], 2)
	assert.Empty(t, breakdown["2024-01"])
}

func TestCategories_Passthrough(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	expected := []models.CrimeCategory{{URL: "all-crime", Name: "All crime"}}
	mockAPI.On("Categories", ctx).Return(expected, nil)

	categories, err := service.Categories(ctx)

	require.NoError(t, err)
	assert.Equal(t, expected, categories)
	mockAPI.AssertExpectations(t)
}

func TestCategories_ProviderError(t *testing.T) {
	mockAPI := new(MockCrimeAPI)
	service := newCrimeService(mockAPI, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	ctx := context.Background()
	providerErr := errors.New("connection reset")
	mockAPI.On("Categories", ctx).Return(nil, providerErr)

	categories, err := service.Categories(ctx)

	assert.Error(t, err)
	assert.Nil(t, categories)
	assert.ErrorIs(t, err, providerErr)
}

func TestClampRadius(t *testing.T) {
	tests := []struct {
		name     string
		radiusKm float64
		expect   float64
	}{
		{
			name:     "one km converts to miles",
			radiusKm: 1.0,
			expect:   0.621371,
		},
		{
			name:     "small radius unchanged",
			radiusKm: 0.5,
			expect:   0.3106855,
		},
		{
			name:     "large radius clamped to provider cap",
			radiusKm: 10.0,
			expect:   1.0,
		},
		{
			name:     "just over the cap",
			radiusKm: 1.7,
			expect:   1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expect, clampRadius(tt.radiusKm), 1e-9)
		})
	}
}
