package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), time.Time(d))

	_, err = ParseDate("09/03/2025")
	assert.Error(t, err)

	empty, err := ParseOptionalDate("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestParseClock(t *testing.T) {
	clock, err := ParseClock("09:30")
	require.NoError(t, err)
	require.NotNil(t, clock)
	assert.Equal(t, "09:30:00", clock.String())

	none, err := ParseClock("")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ParseClock("9h30")
	assert.Error(t, err)
}

func TestEventTypeFrom(t *testing.T) {
	assert.Equal(t, EventHearing, EventTypeFrom("hearing"))
	assert.Equal(t, EventDeadline, EventTypeFrom("deadline"))
	assert.Equal(t, EventOther, EventTypeFrom(""))
	assert.Equal(t, EventOther, EventTypeFrom("party"))
}

func TestGeoPointScan(t *testing.T) {
	var g GeoPoint
	require.NoError(t, g.Scan([]byte(`{"place_id":"abc","latitude":36.8,"longitude":10.18}`)))
	assert.Equal(t, "abc", g.PlaceID)
	assert.InDelta(t, 36.8, g.Latitude, 1e-9)

	require.NoError(t, g.Scan(nil))
	assert.Error(t, g.Scan(42))

	lat, lng := 1.5, 2.5
	assert.Nil(t, GeoPointFrom(&lat, nil))
	assert.Equal(t, &GeoPoint{Latitude: 1.5, Longitude: 2.5}, GeoPointFrom(&lat, &lng))
}

func TestUpdateCaseRequestUpdatesOnlyProvidedFields(t *testing.T) {
	title := "Appeal"
	lat, lng := 36.8, 10.2
	req := UpdateCaseRequest{Title: &title, CourtLat: &lat, CourtLng: &lng}

	updates := req.Updates()
	assert.Len(t, updates, 2)
	assert.Equal(t, "Appeal", updates["title"])
	assert.Equal(t, GeoPoint{Latitude: 36.8, Longitude: 10.2}, updates["court_geo"])

	assert.Empty(t, UpdateCaseRequest{}.Updates())
}

func TestValidateStructNotification(t *testing.T) {
	err := ValidateStruct(Notification{Title: "x", Message: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UserID")

	assert.NoError(t, ValidateStruct(Notification{UserID: 1, Title: "x", Message: "y"}))
}
