package upstream

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/cchderek/Property-Search-v1/internal/fetch"
	"github.com/cchderek/Property-Search-v1/internal/geo"
	"github.com/cchderek/Property-Search-v1/internal/models"
)

// FloodAPI is the Environment Agency provider contract consumed by the
// flood service. Zone geometry, warnings, and monitoring stations live on
// separate endpoints but form one logical provider.
type FloodAPI interface {
	// ZonePage fetches one page of flood-zone features for a bounding box
	// using an offset/limit cursor.
	ZonePage(ctx context.Context, box geo.BoundingBox, limit, offset int) ([]ZoneFeature, error)

	// Warnings returns all active flood warnings. The endpoint has no
	// location parameter, so results are nationwide.
	Warnings(ctx context.Context) ([]models.FloodWarning, error)

	// Stations returns up to limit monitoring stations within distKm of the
	// point, each with its latest reading when one exists.
	Stations(ctx context.Context, lat, lon, distKm float64, limit int) ([]models.MonitoringStation, error)
}

// ZoneFeature is a raw flood-zone feature: the geometry (possibly absent)
// and the provider's zone-code property.
type ZoneFeature struct {
	Geometry *models.Geometry
	ZoneCode string
}

// FloodClient implements FloodAPI against the Environment Agency APIs.
type FloodClient struct {
	zonesURL   string
	monitorURL string
	fetcher    *fetch.Client
}

// NewFloodClient creates an Environment Agency client. zonesURL is the
// flood-map-for-planning feature collection; monitorURL is the
// flood-monitoring API root.
func NewFloodClient(zonesURL, monitorURL string, fetcher *fetch.Client) *FloodClient {
	return &FloodClient{
		zonesURL:   zonesURL,
		monitorURL: strings.TrimRight(monitorURL, "/"),
		fetcher:    fetcher,
	}
}

// ZonePage fetches one page of the zone feature collection.
func (c *FloodClient) ZonePage(ctx context.Context, box geo.BoundingBox, limit, offset int) ([]ZoneFeature, error) {
	bbox := strings.Join([]string{
		strconv.FormatFloat(box.MinLon, 'f', -1, 64),
		strconv.FormatFloat(box.MinLat, 'f', -1, 64),
		strconv.FormatFloat(box.MaxLon, 'f', -1, 64),
		strconv.FormatFloat(box.MaxLat, 'f', -1, 64),
	}, ",")

	params := url.Values{
		"bbox":   {bbox},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}

	var collection struct {
		Features []struct {
			Geometry   *models.Geometry `json:"geometry"`
			Properties struct {
				FloodZone string `json:"flood_zone"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := c.fetcher.GetJSON(ctx, c.zonesURL, params, nil, &collection); err != nil {
		return nil, err
	}

	features := make([]ZoneFeature, 0, len(collection.Features))
	for _, feature := range collection.Features {
		features = append(features, ZoneFeature{
			Geometry: feature.Geometry,
			ZoneCode: feature.Properties.FloodZone,
		})
	}
	return features, nil
}

// floodWarningItem is the provider's warning payload.
type floodWarningItem struct {
	Severity      string `json:"severity"`
	SeverityLevel int    `json:"severityLevel"`
	Description   string `json:"description"`
	EAAreaName    string `json:"eaAreaName"`
	Message       string `json:"message"`
	TimeRaised    string `json:"timeRaised"`
	TimeChanged   string `json:"timeMessageChanged"`
	FloodArea     *struct {
		County string `json:"county"`
	} `json:"floodArea"`
}

// Warnings fetches GET /id/floods.
func (c *FloodClient) Warnings(ctx context.Context) ([]models.FloodWarning, error) {
	var envelope struct {
		Items []floodWarningItem `json:"items"`
	}
	endpoint := c.monitorURL + "/id/floods"
	if err := c.fetcher.GetJSON(ctx, endpoint, nil, nil, &envelope); err != nil {
		return nil, err
	}

	warnings := make([]models.FloodWarning, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		warning := models.FloodWarning{
			Severity:      item.Severity,
			SeverityLevel: item.SeverityLevel,
			Description:   item.Description,
			Area:          item.EAAreaName,
			Message:       item.Message,
			TimeRaised:    item.TimeRaised,
			TimeUpdated:   item.TimeChanged,
		}
		if warning.Severity == "" {
			warning.Severity = "Unknown"
		}
		if warning.Area == "" {
			warning.Area = "Unknown area"
		}
		if item.FloodArea != nil {
			warning.County = item.FloodArea.County
		}
		warnings = append(warnings, warning)
	}
	return warnings, nil
}

// stationItem is the provider's monitoring station payload.
type stationItem struct {
	Label       string  `json:"label"`
	RiverName   string  `json:"riverName"`
	StationType string  `json:"stationType"`
	Status      string  `json:"status"`
	Distance    float64 `json:"distance"`
	Measures    []struct {
		ParameterName string `json:"parameterName"`
		LatestReading *struct {
			Value    float64 `json:"value"`
			DateTime string  `json:"dateTime"`
		} `json:"latestReading"`
	} `json:"measures"`
}

// Stations fetches GET /id/stations?lat&long&dist&_limit. For each station
// the first measure carrying a latestReading wins, which is not necessarily
// the most relevant parameter.
func (c *FloodClient) Stations(ctx context.Context, lat, lon, distKm float64, limit int) ([]models.MonitoringStation, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"long":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"dist":   {strconv.FormatFloat(distKm, 'f', -1, 64)},
		"_limit": {strconv.Itoa(limit)},
	}

	var envelope struct {
		Items []stationItem `json:"items"`
	}
	endpoint := c.monitorURL + "/id/stations"
	if err := c.fetcher.GetJSON(ctx, endpoint, params, nil, &envelope); err != nil {
		return nil, err
	}

	stations := make([]models.MonitoringStation, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		station := models.MonitoringStation{
			Name:       item.Label,
			River:      item.RiverName,
			Type:       item.StationType,
			Status:     item.Status,
			DistanceKm: item.Distance,
		}
		if station.Name == "" {
			station.Name = "Unknown station"
		}
		for _, measure := range item.Measures {
			if measure.LatestReading != nil {
				station.LatestReading = &models.StationReading{
					Value:     measure.LatestReading.Value,
					Parameter: measure.ParameterName,
					DateTime:  measure.LatestReading.DateTime,
				}
				break
			}
		}
		stations = append(stations, station)
	}
	return stations, nil
}
