package handlers

import (
	"errors"
	"net/http"
	"strings"

	"recoverydesk/internal/services"

	"github.com/gin-gonic/gin"
)

// ValidateLocation resolves a Google Place ID picked in the UI into the
// stored GeoPoint shape.
func (h *Handler) ValidateLocation(c *gin.Context) {
	if h.geocoder == nil {
		h.handleError(c, http.StatusServiceUnavailable, "location lookup is not configured", nil)
		return
	}
	placeID := strings.TrimSpace(c.Query("place_id"))
	if placeID == "" {
		h.handleError(c, http.StatusBadRequest, "place_id parameter is required", nil)
		return
	}

	geo, err := h.geocoder.ValidatePlace(c.Request.Context(), placeID)
	if err != nil {
		h.handleError(c, http.StatusBadGateway, "failed to validate location", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": geo})
}

// GeocodeAddress previews what a court or hearing address resolves to.
func (h *Handler) GeocodeAddress(c *gin.Context) {
	if h.geocoder == nil {
		h.handleError(c, http.StatusServiceUnavailable, "location lookup is not configured", nil)
		return
	}
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		h.handleError(c, http.StatusBadRequest, "address parameter is required", nil)
		return
	}

	geo, err := h.geocoder.Geocode(c.Request.Context(), address)
	if errors.Is(err, services.ErrAddressNotFound) {
		h.handleError(c, http.StatusNotFound, "address not found", err)
		return
	}
	if err != nil {
		h.handleError(c, http.StatusBadGateway, "failed to geocode address", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": geo})
}
