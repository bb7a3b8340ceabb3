package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cchderek/Property-Search-v1/internal/fetch"
	"github.com/cchderek/Property-Search-v1/internal/models"
)

// CrimeAPI is the street-crime provider contract consumed by the crime service.
type CrimeAPI interface {
	// StreetCrimes returns all street-level crimes around a point for one
	// calendar month (YYYY-MM). Radius is in miles, capped by the provider
	// at 1 mile.
	StreetCrimes(ctx context.Context, lat, lng, radiusMiles float64, month string) ([]models.CrimeIncident, error)

	// Categories returns the provider's published crime categories.
	Categories(ctx context.Context) ([]models.CrimeCategory, error)
}

// PoliceClient implements CrimeAPI against the data.police.uk API.
type PoliceClient struct {
	baseURL string
	fetcher *fetch.Client
}

// NewPoliceClient creates a data.police.uk client.
func NewPoliceClient(baseURL string, fetcher *fetch.Client) *PoliceClient {
	return &PoliceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

// crimeRecord is the provider's incident payload. Coordinates arrive as
// strings and may be missing or unparseable.
type crimeRecord struct {
	Category string `json:"category"`
	Month    string `json:"month"`
	Location *struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
		Street    *struct {
			Name string `json:"name"`
		} `json:"street"`
	} `json:"location"`
	OutcomeStatus *struct {
		Category string `json:"category"`
		Date     string `json:"date"`
	} `json:"outcome_status"`
}

// StreetCrimes fetches GET /crimes-street/all-crime?lat&lng&date[&radius].
// The provider answers with either a bare incident list or an object
// carrying an error key, so the two shapes are distinguished here.
func (c *PoliceClient) StreetCrimes(ctx context.Context, lat, lng, radiusMiles float64, month string) ([]models.CrimeIncident, error) {
	params := url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng":  {strconv.FormatFloat(lng, 'f', -1, 64)},
		"date": {month},
	}
	if radiusMiles > 0 && radiusMiles <= 1.0 {
		params.Set("radius", strconv.FormatFloat(radiusMiles, 'f', -1, 64))
	}

	var raw json.RawMessage
	endpoint := c.baseURL + "/crimes-street/all-crime"
	if err := c.fetcher.GetJSON(ctx, endpoint, params, nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		var errBody struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &errBody); err == nil && errBody.Error != "" {
			return nil, fmt.Errorf("crime provider error: %s", errBody.Error)
		}
		return nil, &fetch.ShapeError{Reason: "expected incident list"}
	}

	var records []crimeRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, &fetch.ShapeError{Reason: fmt.Sprintf("decode incident list: %v", err)}
	}

	incidents := make([]models.CrimeIncident, 0, len(records))
	for _, record := range records {
		incidents = append(incidents, mapCrimeRecord(record))
	}
	return incidents, nil
}

// Categories fetches GET /crime-categories.
func (c *PoliceClient) Categories(ctx context.Context) ([]models.CrimeCategory, error) {
	var categories []models.CrimeCategory
	endpoint := c.baseURL + "/crime-categories"
	if err := c.fetcher.GetJSON(ctx, endpoint, nil, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// mapCrimeRecord converts a provider incident to the internal shape.
// Incidents with unparseable coordinates keep nil lat/lon but are retained.
func mapCrimeRecord(record crimeRecord) models.CrimeIncident {
	incident := models.CrimeIncident{
		Category: record.Category,
		Month:    record.Month,
	}

	if record.Location != nil {
		if record.Location.Street != nil {
			incident.Street = record.Location.Street.Name
		}
		lat, latErr := strconv.ParseFloat(record.Location.Latitude, 64)
		lng, lngErr := strconv.ParseFloat(record.Location.Longitude, 64)
		if latErr == nil && lngErr == nil {
			incident.Latitude = &lat
			incident.Longitude = &lng
		}
	}

	if record.OutcomeStatus != nil {
		incident.Outcome = &models.CrimeOutcome{
			Category: record.OutcomeStatus.Category,
			Date:     record.OutcomeStatus.Date,
		}
	}

	return incident
}
