package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/upstream"
	"github.com/jonboulle/clockwork"
)

const (
	// The street-crime provider accepts at most a 1 mile radius.
	maxRadiusMiles = 1.0
	kmToMiles      = 0.621371

	// Number of calendar months covered by the trend operations.
	trendMonths = 12

	// Pause between consecutive monthly requests to respect the provider's
	// rate limits.
	interRequestPause = 200 * time.Millisecond
)

// ErrInvalidMonth is returned for months not in YYYY-MM form.
var ErrInvalidMonth = errors.New("invalid month")

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CrimeService defines the street-crime aggregation operations.
type CrimeService interface {
	// SingleMonth returns all incidents around a point for one calendar
	// month (YYYY-MM). Radius is in km, clamped to the provider's 1 mile cap.
	SingleMonth(ctx context.Context, lat, lng, radiusKm float64, month string) ([]models.CrimeIncident, error)

	// Recent returns the combined incident list for the 12 most recent
	// calendar months ending at the current month. Months whose request
	// failed are silently skipped, never retried.
	Recent(ctx context.Context, lat, lng, radiusKm float64) ([]models.CrimeIncident, error)

	// MonthlyBreakdown returns the same 12-month window keyed by month.
	// Errored months are omitted from the mapping.
	MonthlyBreakdown(ctx context.Context, lat, lng, radiusKm float64) (map[string][]models.CrimeIncident, error)

	// Categories returns the provider's published crime categories.
	Categories(ctx context.Context) ([]models.CrimeCategory, error)
}

type crimeService struct {
	police upstream.CrimeAPI
	clock  clockwork.Clock
	pause  time.Duration
	log    *logger.Logger
}

// NewCrimeService creates a new instance of CrimeService.
func NewCrimeService(police upstream.CrimeAPI, clock clockwork.Clock, log *logger.Logger) CrimeService {
	return &crimeService{
		police: police,
		clock:  clock,
		pause:  interRequestPause,
		log:    log,
	}
}

// SingleMonth fetches one month of incidents.
func (s *crimeService) SingleMonth(ctx context.Context, lat, lng, radiusKm float64, month string) ([]models.CrimeIncident, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if !monthPattern.MatchString(month) {
		return nil, fmt.Errorf("%w: %q is not in YYYY-MM form", ErrInvalidMonth, month)
	}

	incidents, err := s.police.StreetCrimes(ctx, lat, lng, clampRadius(radiusKm), month)
	if err != nil {
		s.log.Error("Failed to fetch crime data", err, map[string]interface{}{
			"lat":   lat,
			"lng":   lng,
			"month": month,
		})
		return nil, fmt.Errorf("failed to fetch crime data: %w", err)
	}
	return incidents, nil
}

// Recent fetches and flattens the last 12 calendar months.
func (s *crimeService) Recent(ctx context.Context, lat, lng, radiusKm float64) ([]models.CrimeIncident, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	radiusMiles := clampRadius(radiusKm)
	combined := make([]models.CrimeIncident, 0)

	for _, month := range s.recentMonths() {
		incidents, err := s.police.StreetCrimes(ctx, lat, lng, radiusMiles, month)
		if err != nil {
			// Failed months are dropped, not retried.
			s.log.Warn("Skipping errored crime month", map[string]interface{}{
				"month": month,
				"error": err.Error(),
			})
		} else {
			combined = append(combined, incidents...)
		}
		if s.pause > 0 {
			s.clock.Sleep(s.pause)
		}
	}

	s.log.Info("Crime trend fetched", map[string]interface{}{
		"lat":       lat,
		"lng":       lng,
		"incidents": len(combined),
	})

	return combined, nil
}

// MonthlyBreakdown fetches the last 12 calendar months keyed by month.
func (s *crimeService) MonthlyBreakdown(ctx context.Context, lat, lng, radiusKm float64) (map[string][]models.CrimeIncident, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	radiusMiles := clampRadius(radiusKm)
	breakdown := make(map[string][]models.CrimeIncident)

	for _, month := range s.recentMonths() {
		incidents, err := s.police.StreetCrimes(ctx, lat, lng, radiusMiles, month)
		if err != nil {
			s.log.Warn("Omitting errored crime month from breakdown", map[string]interface{}{
				"month": month,
				"error": err.Error(),
			})
		} else {
			breakdown[month] = incidents
		}
		if s.pause > 0 {
			s.clock.Sleep(s.pause)
		}
	}

	return breakdown, nil
}

// Categories returns the provider's crime category list.
func (s *crimeService) Categories(ctx context.Context) ([]models.CrimeCategory, error) {
	categories, err := s.police.Categories(ctx)
	if err != nil {
		s.log.Error("Failed to fetch crime categories", err, nil)
		return nil, fmt.Errorf("failed to fetch crime categories: %w", err)
	}
	return categories, nil
}

// recentMonths lists the 12 most recent calendar months in YYYY-MM form,
// newest first, ending at the current month, with year rollover handled.
func (s *crimeService) recentMonths() []string {
	now := s.clock.Now()
	months := make([]string, 0, trendMonths)

	for i := 0; i < trendMonths; i++ {
		month := int(now.Month()) - i
		year := now.Year()
		for month <= 0 {
			month += 12
			year--
		}
		months = append(months, fmt.Sprintf("%04d-%02d", year, month))
	}

	return months
}

// clampRadius converts km to miles and clamps to the provider's cap.
func clampRadius(radiusKm float64) float64 {
	radiusMiles := radiusKm * kmToMiles
	if radiusMiles > maxRadiusMiles {
		return maxRadiusMiles
	}
	return radiusMiles
}
