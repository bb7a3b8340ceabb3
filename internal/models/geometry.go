package models

import (
	"encoding/json"
	"fmt"
)

// Geometry type names as used in GeoJSON.
const (
	GeometryPolygon      = "Polygon"
	GeometryMultiPolygon = "MultiPolygon"
)

// Ring is a closed linestring of [lon, lat] positions.
type Ring [][2]float64

// Geometry is a GeoJSON geometry whose coordinates are decoded lazily
// according to the declared type. Flood-zone features carry either Polygon
// or MultiPolygon geometries; anything else is unsupported.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Polygon represents a GeoJSON Polygon: [rings][points][lon,lat].
// The first ring is the outer boundary; subsequent rings are holes.
type Polygon struct {
	Coordinates []Ring
}

// MultiPolygon represents a GeoJSON MultiPolygon: [polygons][rings][points][lon,lat].
type MultiPolygon struct {
	Coordinates [][]Ring
}

// MarshalJSON implements json.Marshaler, producing GeoJSON-compliant output.
func (p Polygon) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string `json:"type"`
		Coordinates []Ring `json:"coordinates"`
	}{
		Type:        GeometryPolygon,
		Coordinates: p.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (p *Polygon) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string `json:"type"`
		Coordinates []Ring `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal polygon: %w", err)
	}

	if geom.Type != "" && geom.Type != GeometryPolygon {
		return fmt.Errorf("expected Polygon type, got %s", geom.Type)
	}

	p.Coordinates = geom.Coordinates
	return nil
}

// MarshalJSON implements json.Marshaler, producing GeoJSON-compliant output.
func (mp MultiPolygon) MarshalJSON() ([]byte, error) {
	geom := struct {
		Type        string   `json:"type"`
		Coordinates [][]Ring `json:"coordinates"`
	}{
		Type:        GeometryMultiPolygon,
		Coordinates: mp.Coordinates,
	}
	return json.Marshal(geom)
}

// UnmarshalJSON implements json.Unmarshaler for parsing GeoJSON input.
func (mp *MultiPolygon) UnmarshalJSON(data []byte) error {
	var geom struct {
		Type        string   `json:"type"`
		Coordinates [][]Ring `json:"coordinates"`
	}

	if err := json.Unmarshal(data, &geom); err != nil {
		return fmt.Errorf("failed to unmarshal multipolygon: %w", err)
	}

	if geom.Type != "" && geom.Type != GeometryMultiPolygon {
		return fmt.Errorf("expected MultiPolygon type, got %s", geom.Type)
	}

	mp.Coordinates = geom.Coordinates
	return nil
}

// Rings flattens the geometry into its full list of coordinate rings.
// Containment tests treat every ring independently, so callers do not need
// to distinguish outer boundaries from holes. Returns an error for geometry
// types other than Polygon and MultiPolygon.
func (g Geometry) Rings() ([]Ring, error) {
	switch g.Type {
	case GeometryPolygon:
		var rings []Ring
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("failed to decode polygon coordinates: %w", err)
		}
		return rings, nil
	case GeometryMultiPolygon:
		var polygons [][]Ring
		if err := json.Unmarshal(g.Coordinates, &polygons); err != nil {
			return nil, fmt.Errorf("failed to decode multipolygon coordinates: %w", err)
		}
		var rings []Ring
		for _, polygon := range polygons {
			rings = append(rings, polygon...)
		}
		return rings, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type: %q", g.Type)
	}
}
