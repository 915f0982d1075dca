package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recoverydesk/internal/models"

	"googlemaps.github.io/maps"
)

var (
	ErrNoAPIKey        = errors.New("GOOGLE_MAPS_API_KEY not set")
	ErrAddressNotFound = errors.New("address not found")
)

// Geocoder turns a free-text address or a Place ID into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.GeoPoint, error)
	ValidatePlace(ctx context.Context, placeID string) (*models.GeoPoint, error)
}

// MapsService geocodes court and hearing addresses with the Google Maps API.
type MapsService struct {
	client  *maps.Client
	timeout time.Duration
}

func NewMapsService(apiKey string) (*MapsService, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &MapsService{client: client, timeout: 5 * time.Second}, nil
}

func (s *MapsService) Geocode(ctx context.Context, address string) (*models.GeoPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return nil, ErrAddressNotFound
	}
	return geoPointFromResult(results[0]), nil
}

// ValidatePlace resolves a Google Place ID picked in the UI.
func (s *MapsService) ValidatePlace(ctx context.Context, placeID string) (*models.GeoPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	details, err := s.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskPlaceID,
		},
	})
	if err != nil {
		return nil, err
	}
	return &models.GeoPoint{
		PlaceID:          details.PlaceID,
		FormattedAddress: details.FormattedAddress,
		Latitude:         details.Geometry.Location.Lat,
		Longitude:        details.Geometry.Location.Lng,
	}, nil
}

func geoPointFromResult(r maps.GeocodingResult) *models.GeoPoint {
	return &models.GeoPoint{
		PlaceID:          r.PlaceID,
		FormattedAddress: r.FormattedAddress,
		Latitude:         r.Geometry.Location.Lat,
		Longitude:        r.Geometry.Location.Lng,
	}
}
