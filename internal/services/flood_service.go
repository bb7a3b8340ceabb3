package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cchderek/Property-Search-v1/internal/geo"
	"github.com/cchderek/Property-Search-v1/internal/logger"
	"github.com/cchderek/Property-Search-v1/internal/models"
	"github.com/cchderek/Property-Search-v1/internal/upstream"
)

const (
	// Page size for the zone feature collection cursor.
	zonePageLimit = 10000

	// Number of monitoring stations fetched per query.
	stationLimit = 5

	// Flood radius bounds in km. The flat-earth bounding box degrades at
	// large radii, so the cap stays small.
	MinFloodRadiusKm = 0.1
	MaxFloodRadiusKm = 10.0
)

// ErrInvalidFloodRadius is returned for out-of-range flood search radii.
var ErrInvalidFloodRadius = errors.New("invalid flood search radius")

// zoneTiers maps the provider's zone-code property values to risk tiers.
// Features with any other code are discarded.
var zoneTiers = map[string]int{
	"FZ2": 2,
	"2":   2,
	"FZ3": 3,
	"3":   3,
}

// FloodService defines the flood-risk aggregation operation.
type FloodService interface {
	// GetFloodData assembles flood zones, the point risk assessment, active
	// warnings, and nearby monitoring stations for a coordinate. The first
	// terminal sub-call failure fails the whole bundle.
	GetFloodData(ctx context.Context, lat, lng, radiusKm float64) (*models.FloodBundle, error)
}

type floodService struct {
	flood upstream.FloodAPI
	log   *logger.Logger
}

// NewFloodService creates a new instance of FloodService.
func NewFloodService(flood upstream.FloodAPI, log *logger.Logger) FloodService {
	return &floodService{
		flood: flood,
		log:   log,
	}
}

// GetFloodData builds the flood bundle for the given point and radius.
func (s *floodService) GetFloodData(ctx context.Context, lat, lng, radiusKm float64) (*models.FloodBundle, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusKm < MinFloodRadiusKm || radiusKm > MaxFloodRadiusKm {
		return nil, fmt.Errorf("%w: radius must be between %.1f and %.1f km, got %f",
			ErrInvalidFloodRadius, MinFloodRadiusKm, MaxFloodRadiusKm, radiusKm)
	}

	box := geo.Bounds(lat, lng, radiusKm)

	features, err := s.fetchAllZones(ctx, box)
	if err != nil {
		s.log.Error("Failed to fetch flood zones", err, map[string]interface{}{
			"lat": lat,
			"lng": lng,
		})
		return nil, fmt.Errorf("failed to fetch flood zones: %w", err)
	}

	zoneTwo, zoneThree := partitionZones(features)
	s.log.Info("Flood zones fetched", map[string]interface{}{
		"lat":        lat,
		"lng":        lng,
		"zone_two":   len(zoneTwo),
		"zone_three": len(zoneThree),
	})

	// The warnings feed has no location parameter; results are nationwide
	// and deliberately left unfiltered.
	warnings, err := s.flood.Warnings(ctx)
	if err != nil {
		s.log.Error("Failed to fetch flood warnings", err, nil)
		return nil, fmt.Errorf("failed to fetch flood warnings: %w", err)
	}

	stations, err := s.flood.Stations(ctx, lat, lng, radiusKm, stationLimit)
	if err != nil {
		s.log.Error("Failed to fetch monitoring stations", err, nil)
		return nil, fmt.Errorf("failed to fetch monitoring stations: %w", err)
	}

	return &models.FloodBundle{
		ZoneTwo:   zoneTwo,
		ZoneThree: zoneThree,
		Warnings:  warnings,
		Stations:  stations,
		Risk:      s.assessRisk(lat, lng, zoneThree, zoneTwo),
		Center:    models.Coordinate{Latitude: lat, Longitude: lng},
		RadiusKm:  radiusKm,
	}, nil
}

// fetchAllZones pages through the zone feature collection with an
// offset/limit cursor. Pagination stops on an empty page or a page shorter
// than the limit. A failure on the first page is fatal; a failure on a
// later page just terminates pagination with what was accumulated.
func (s *floodService) fetchAllZones(ctx context.Context, box geo.BoundingBox) ([]upstream.ZoneFeature, error) {
	var all []upstream.ZoneFeature
	offset := 0

	for {
		page, err := s.flood.ZonePage(ctx, box, zonePageLimit, offset)
		if err != nil {
			if offset == 0 {
				return nil, err
			}
			s.log.Warn("Zone pagination terminated early", map[string]interface{}{
				"offset": offset,
				"error":  err.Error(),
			})
			break
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		if len(page) < zonePageLimit {
			break
		}
		offset += len(page)
	}

	return all, nil
}

// partitionZones splits raw features into the Zone 2 and Zone 3 buckets.
// Features without geometry or with an unrecognized zone code are dropped
// silently.
func partitionZones(features []upstream.ZoneFeature) (zoneTwo, zoneThree []models.FloodZoneFeature) {
	zoneTwo = make([]models.FloodZoneFeature, 0)
	zoneThree = make([]models.FloodZoneFeature, 0)

	for _, feature := range features {
		if feature.Geometry == nil {
			continue
		}
		zoned := models.FloodZoneFeature{
			ZoneCode: feature.ZoneCode,
			Geometry: *feature.Geometry,
		}
		switch zoneTiers[feature.ZoneCode] {
		case 2:
			zoneTwo = append(zoneTwo, zoned)
		case 3:
			zoneThree = append(zoneThree, zoned)
		}
	}

	return zoneTwo, zoneThree
}

// assessRisk classifies the exact query point. Zone 3 features are tested
// first with a short-circuit on the first containing geometry, then Zone 2;
// a point inside both tiers is always high, never medium. Malformed
// geometries are skipped, not fatal.
func (s *floodService) assessRisk(lat, lng float64, zoneThree, zoneTwo []models.FloodZoneFeature) models.FloodRiskAssessment {
	if s.pointInZones(lng, lat, zoneThree) {
		return models.FloodRiskAssessment{
			Level: models.FloodRiskHigh,
			Title: "High Flood Risk (Flood Zone 3)",
			Description: "This location is within a high flood risk area (1% or greater annual probability " +
				"of river flooding, or 0.5% or greater annual probability of sea flooding). " +
				"Properties at this location have a high probability of flooding.",
		}
	}
	if s.pointInZones(lng, lat, zoneTwo) {
		return models.FloodRiskAssessment{
			Level: models.FloodRiskMedium,
			Title: "Medium Flood Risk (Flood Zone 2)",
			Description: "This area has a medium probability of flooding (between 0.1% and 1% annual probability " +
				"of river flooding, or between 0.1% and 0.5% annual probability of sea flooding). " +
				"Properties in this zone have a medium probability of flooding.",
		}
	}
	return models.FloodRiskAssessment{
		Level: models.FloodRiskLow,
		Title: "Low Flood Risk (Flood Zone 1)",
		Description: "This area has a low probability of flooding (less than 0.1% annual probability). " +
			"Properties in this zone have a low probability of flooding.",
	}
}

// pointInZones reports whether (x, y) falls inside any feature's geometry.
func (s *floodService) pointInZones(x, y float64, zones []models.FloodZoneFeature) bool {
	for _, zone := range zones {
		inside, err := geo.GeometryContains(x, y, zone.Geometry)
		if err != nil {
			s.log.Debug("Skipping malformed zone geometry", map[string]interface{}{
				"zone":  zone.ZoneCode,
				"error": err.Error(),
			})
			continue
		}
		if inside {
			return true
		}
	}
	return false
}
