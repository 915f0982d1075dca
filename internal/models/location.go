package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GeoPoint is a geocoded address (court, hearing venue) stored as jsonb.
type GeoPoint struct {
	PlaceID          string  `json:"place_id,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Value implements driver.Valuer for jsonb storage
func (g GeoPoint) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner for jsonb retrieval
func (g *GeoPoint) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal GeoPoint: %v", value)
	}
	return json.Unmarshal(bytes, g)
}

// GeoPointFrom returns nil unless both coordinates are given.
func GeoPointFrom(lat, lng *float64) *GeoPoint {
	if lat == nil || lng == nil {
		return nil
	}
	return &GeoPoint{Latitude: *lat, Longitude: *lng}
}
