package models

// LocationRecord holds the geocoded and administrative metadata for a UK
// postcode. All nullable provider fields use pointers to distinguish between
// zero values and absent data. Records are created per lookup and never
// persisted.
//
// Invariant: Latitude and Longitude are present together or both absent.
type LocationRecord struct {
	Postcode                  string                 `json:"postcode"`
	Outcode                   string                 `json:"outcode"`
	Latitude                  *float64               `json:"latitude"`
	Longitude                 *float64               `json:"longitude"`
	Region                    string                 `json:"region,omitempty"`
	Country                   string                 `json:"country,omitempty"`
	AdminDistrict             string                 `json:"admin_district,omitempty"`
	AdminWard                 string                 `json:"admin_ward,omitempty"`
	ParliamentaryConstituency string                 `json:"parliamentary_constituency,omitempty"`
	EuropeanElectoralRegion   string                 `json:"european_electoral_region,omitempty"`
	PrimaryCareTrust          string                 `json:"primary_care_trust,omitempty"`
	NUTS                      string                 `json:"nuts,omitempty"`
	Codes                     map[string]interface{} `json:"codes,omitempty"`
}

// HasCoordinates reports whether the record carries a usable coordinate pair.
func (r *LocationRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}
