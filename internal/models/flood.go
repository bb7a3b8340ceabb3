package models

// FloodRiskLevel is the derived risk tier for an exact coordinate.
// Precedence is strict: high > medium > low.
type FloodRiskLevel string

const (
	FloodRiskHigh   FloodRiskLevel = "high"
	FloodRiskMedium FloodRiskLevel = "medium"
	FloodRiskLow    FloodRiskLevel = "low"
)

// FloodZoneFeature is a flood-zone geometry tagged with its provider zone code.
type FloodZoneFeature struct {
	ZoneCode string   `json:"flood_zone"`
	Geometry Geometry `json:"geometry"`
}

// FloodRiskAssessment classifies the query point against the fetched zone
// geometries. It is derived, never fetched.
type FloodRiskAssessment struct {
	Level       FloodRiskLevel `json:"risk_level"`
	Title       string         `json:"title"`
	Description string         `json:"text"`
}

// FloodWarning is an active flood warning or alert. The provider offers no
// spatial filter, so warnings are nationwide.
type FloodWarning struct {
	Severity      string `json:"severity"`
	SeverityLevel int    `json:"severity_level"`
	Description   string `json:"description"`
	Area          string `json:"area"`
	County        string `json:"county,omitempty"`
	Message       string `json:"message,omitempty"`
	TimeRaised    string `json:"time_raised,omitempty"`
	TimeUpdated   string `json:"time_updated,omitempty"`
}

// StationReading is the latest reading reported by a monitoring station.
type StationReading struct {
	Value     float64 `json:"value"`
	Parameter string  `json:"parameter"`
	DateTime  string  `json:"date"`
}

// MonitoringStation is a read-only snapshot of a flood monitoring station
// near the query point.
type MonitoringStation struct {
	Name          string          `json:"name"`
	River         string          `json:"river,omitempty"`
	Type          string          `json:"type,omitempty"`
	Status        string          `json:"status,omitempty"`
	DistanceKm    float64         `json:"distance_km"`
	LatestReading *StationReading `json:"latest_reading,omitempty"`
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FloodBundle is everything the flood aggregator returns for one query:
// partitioned zone features, the point risk assessment, active warnings,
// and nearby monitoring stations.
type FloodBundle struct {
	ZoneTwo   []FloodZoneFeature  `json:"flood_zone_2"`
	ZoneThree []FloodZoneFeature  `json:"flood_zone_3"`
	Warnings  []FloodWarning      `json:"flood_warnings"`
	Stations  []MonitoringStation `json:"flood_stations"`
	Risk      FloodRiskAssessment `json:"flood_risk"`
	Center    Coordinate          `json:"center"`
	RadiusKm  float64             `json:"radius_km"`
}
