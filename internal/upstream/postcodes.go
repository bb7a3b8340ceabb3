// Package upstream contains the provider clients for the external open-data
// APIs this service aggregates. Each client wraps the shared retrying fetch
// helper and reduces the provider's response shape to the internal models.
package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cchderek/Property-Search-v1/internal/fetch"
	"github.com/cchderek/Property-Search-v1/internal/models"
)

// PostcodeAPI is the geocoding provider contract consumed by the location service.
type PostcodeAPI interface {
	// Lookup resolves a single postcode to a LocationRecord.
	Lookup(ctx context.Context, postcode string) (*models.LocationRecord, error)

	// Nearby returns postcodes within radiusMeters of the given point.
	Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]models.LocationRecord, error)
}

// PostcodesClient implements PostcodeAPI against the postcodes.io API.
type PostcodesClient struct {
	baseURL string
	fetcher *fetch.Client
}

// NewPostcodesClient creates a postcodes.io client.
func NewPostcodesClient(baseURL string, fetcher *fetch.Client) *PostcodesClient {
	return &PostcodesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
	}
}

// postcodeResult is the provider's per-postcode payload. Latitude and
// longitude are nullable for postcodes without a geocode (e.g. GIR 0AA).
type postcodeResult struct {
	Postcode                  string                 `json:"postcode"`
	Latitude                  *float64               `json:"latitude"`
	Longitude                 *float64               `json:"longitude"`
	Region                    string                 `json:"region"`
	Country                   string                 `json:"country"`
	AdminDistrict             string                 `json:"admin_district"`
	AdminWard                 string                 `json:"admin_ward"`
	ParliamentaryConstituency string                 `json:"parliamentary_constituency"`
	EuropeanElectoralRegion   string                 `json:"european_electoral_region"`
	PrimaryCareTrust          string                 `json:"primary_care_trust"`
	NUTS                      string                 `json:"nuts"`
	Codes                     map[string]interface{} `json:"codes"`
}

// Lookup resolves a postcode via GET /postcodes/{postcode-no-space}.
// Internal whitespace is stripped before the call; the outcode is derived
// from the original spaced input (first token, or the whole string when
// unspaced). A response envelope without a result key is a shape error.
func (c *PostcodesClient) Lookup(ctx context.Context, postcode string) (*models.LocationRecord, error) {
	compact := strings.ReplaceAll(postcode, " ", "")

	var envelope struct {
		Result *postcodeResult `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/postcodes/%s", c.baseURL, url.PathEscape(compact))
	if err := c.fetcher.GetJSON(ctx, endpoint, nil, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Result == nil {
		return nil, &fetch.ShapeError{Reason: `missing "result" key`}
	}

	record := mapPostcodeResult(envelope.Result)
	record.Outcode = outcodeOf(postcode)
	if record.Postcode == "" {
		record.Postcode = postcode
	}
	return record, nil
}

// Nearby performs a reverse geocode via GET /postcodes?lat&lon&radius&limit.
func (c *PostcodesClient) Nearby(ctx context.Context, lat, lon float64, radiusMeters, limit int) ([]models.LocationRecord, error) {
	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"radius": {strconv.Itoa(radiusMeters)},
		"limit":  {strconv.Itoa(limit)},
	}

	var envelope struct {
		Result *[]postcodeResult `json:"result"`
	}
	endpoint := c.baseURL + "/postcodes"
	if err := c.fetcher.GetJSON(ctx, endpoint, params, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Result == nil {
		return nil, &fetch.ShapeError{Reason: `missing "result" key`}
	}

	records := make([]models.LocationRecord, 0, len(*envelope.Result))
	for i := range *envelope.Result {
		record := mapPostcodeResult(&(*envelope.Result)[i])
		record.Outcode = outcodeOf(record.Postcode)
		records = append(records, *record)
	}
	return records, nil
}

// mapPostcodeResult converts the provider payload to a LocationRecord,
// enforcing the both-or-neither coordinate invariant.
func mapPostcodeResult(result *postcodeResult) *models.LocationRecord {
	record := &models.LocationRecord{
		Postcode:                  result.Postcode,
		Region:                    result.Region,
		Country:                   result.Country,
		AdminDistrict:             result.AdminDistrict,
		AdminWard:                 result.AdminWard,
		ParliamentaryConstituency: result.ParliamentaryConstituency,
		EuropeanElectoralRegion:   result.EuropeanElectoralRegion,
		PrimaryCareTrust:          result.PrimaryCareTrust,
		NUTS:                      result.NUTS,
		Codes:                     result.Codes,
	}

	// Never expose a partial coordinate.
	if result.Latitude != nil && result.Longitude != nil {
		record.Latitude = result.Latitude
		record.Longitude = result.Longitude
	}

	return record
}

// outcodeOf extracts the coarse area identifier: the first space-delimited
// token, or the whole string when unspaced.
func outcodeOf(postcode string) string {
	if idx := strings.IndexByte(postcode, ' '); idx > 0 {
		return postcode[:idx]
	}
	return postcode
}
