package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cchderek/Property-Search-v1/internal/fetch"
	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/upstream"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// Nearby search validation constants
const (
	MinNearbyRadiusMeters = 1
	MaxNearbyRadiusMeters = 2000
	MaxNearbyLimit        = 100
	DefaultNearbyRadius   = 1000
	DefaultNearbyLimit    = 10
)

// Service-level errors
var (
	ErrInvalidPostcode    = errors.New("invalid postcode")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidRadius      = errors.New("invalid radius")
	ErrInvalidLimit       = errors.New("invalid limit")
	ErrPostcodeNotFound   = errors.New("postcode not found")
)

// LocationService defines the postcode resolution operations.
type LocationService interface {
	// Resolve geocodes a postcode into a LocationRecord.
	// Returns ErrInvalidPostcode for empty input, ErrPostcodeNotFound when
	// the provider does not know the postcode, and provider errors otherwise.
	Resolve(ctx context.Context, postcode string) (*models.LocationRecord, error)

	// Nearby returns postcodes within radiusMeters of a point, closest first.
	Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]models.LocationRecord, error)
}

type locationService struct {
	postcodes upstream.PostcodeAPI
	log       *logger.Logger
}

// NewLocationService creates a new instance of LocationService.
func NewLocationService(postcodes upstream.PostcodeAPI, log *logger.Logger) LocationService {
	return &locationService{
		postcodes: postcodes,
		log:       log,
	}
}

// Resolve geocodes the given postcode via the lookup provider.
func (s *locationService) Resolve(ctx context.Context, postcode string) (*models.LocationRecord, error) {
	trimmed := strings.TrimSpace(postcode)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: postcode must not be empty", ErrInvalidPostcode)
	}

	s.log.Info("Resolving postcode", map[string]interface{}{
		"postcode": trimmed,
	})

	record, err := s.postcodes.Lookup(ctx, trimmed)
	if err != nil {
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			s.log.Debug("Postcode unknown to provider", map[string]interface{}{
				"postcode": trimmed,
			})
			return nil, ErrPostcodeNotFound
		}
		s.log.Error("Failed to resolve postcode", err, map[string]interface{}{
			"postcode": trimmed,
		})
		return nil, fmt.Errorf("failed to resolve postcode: %w", err)
	}

	s.log.Info("Postcode resolved", map[string]interface{}{
		"postcode":        record.Postcode,
		"outcode":         record.Outcode,
		"has_coordinates": record.HasCoordinates(),
	})

	return record, nil
}

// Nearby returns postcodes around the given point.
func (s *locationService) Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]models.LocationRecord, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		s.log.Warn("Invalid coordinates provided", map[string]interface{}{
			"lat": lat,
			"lon": lon,
		})
		return nil, err
	}
	if radiusMeters < MinNearbyRadiusMeters || radiusMeters > MaxNearbyRadiusMeters {
		return nil, fmt.Errorf("%w: radius must be between %d and %d meters, got %d",
			ErrInvalidRadius, MinNearbyRadiusMeters, MaxNearbyRadiusMeters, radiusMeters)
	}
	if limit < 1 || limit > MaxNearbyLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d",
			ErrInvalidLimit, MaxNearbyLimit, limit)
	}

	s.log.Info("Querying nearby postcodes", map[string]interface{}{
		"lat":    lat,
		"lon":    lon,
		"radius": radiusMeters,
		"limit":  limit,
	})

	records, err := s.postcodes.Nearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		s.log.Error("Failed to query nearby postcodes", err, map[string]interface{}{
			"lat": lat,
			"lon": lon,
		})
		return nil, fmt.Errorf("failed to query nearby postcodes: %w", err)
	}

	return records, nil
}

// validateCoordinates checks that a lat/lon pair is within valid WGS84 range.
func validateCoordinates(lat, lon float64) error {
	if lat < MinLatitude || lat > MaxLatitude {
		return fmt.Errorf("%w: latitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLatitude, MaxLatitude, lat)
	}
	if lon < MinLongitude || lon > MaxLongitude {
		return fmt.Errorf("%w: longitude must be between %f and %f, got %f",
			ErrInvalidCoordinates, MinLongitude, MaxLongitude, lon)
	}
	return nil
}
