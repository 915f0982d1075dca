package handlers

import (
	"context"
	"net/http"
	"strings"

	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// geocode resolves an address when Maps is configured. Failures are logged
// and yield nil so that the caller can store the record without coordinates.
func (h *Handler) geocode(ctx context.Context, address string) *models.GeoPoint {
	address = strings.TrimSpace(address)
	if h.geocoder == nil || address == "" {
		return nil
	}
	geo, err := h.geocoder.Geocode(ctx, address)
	if err != nil {
		h.log.Warn("geocoding failed", zap.String("address", address), zap.Error(err))
		return nil
	}
	return geo
}

func (h *Handler) ClientCases(c *gin.Context) {
	clientID, ok := h.pathID(c, "clientId")
	if !ok {
		return
	}
	if !h.canAccessClient(c, clientID) {
		return
	}

	var cases []models.CaseView
	err := h.db.WithContext(c.Request.Context()).
		Table("cases c").
		Select("c.*, ct.name AS case_type_name, f.debtor AS file_debtor, u.name AS created_by_name").
		Joins("LEFT JOIN case_types ct ON c.case_type_id = ct.id").
		Joins("LEFT JOIN files f ON c.file_id = f.id").
		Joins("LEFT JOIN users u ON c.created_by = u.id").
		Where("c.client_id = ?", clientID).
		Order("c.created_at DESC").
		Scan(&cases).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching cases", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cases})
}

func (h *Handler) CreateCase(c *gin.Context) {
	var req models.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	geo := models.GeoPointFrom(req.CourtLat, req.CourtLng)
	if geo == nil {
		geo = h.geocode(ctx, req.CourtAddress)
	}
	status := req.Status
	if status == "" {
		status = "open"
	}
	priority := req.Priority
	if priority == "" {
		priority = string(models.PriorityMedium)
	}
	createdBy := h.principal(c).ID

	kase := models.Case{
		ClientID:     req.ClientID,
		FileID:       req.FileID,
		CaseTypeID:   req.CaseTypeID,
		CaseNumber:   req.CaseNumber,
		Title:        req.Title,
		Description:  req.Description,
		CourtName:    req.CourtName,
		CourtAddress: req.CourtAddress,
		CourtGeo:     geo,
		Status:       status,
		Priority:     priority,
		CreatedBy:    &createdBy,
	}
	if err := h.db.WithContext(ctx).Create(&kase).Error; err != nil {
		h.respondServiceError(c, "error creating case", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "case created successfully", "data": kase})
}

// UpdateCase applies only the fields present in the body.
func (h *Handler) UpdateCase(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	updates := req.Updates()
	if len(updates) == 0 {
		h.handleError(c, http.StatusBadRequest, "no fields to update", nil)
		return
	}
	ctx := c.Request.Context()
	if _, hasGeo := updates["court_geo"]; !hasGeo && req.CourtAddress != nil {
		if geo := h.geocode(ctx, *req.CourtAddress); geo != nil {
			updates["court_geo"] = *geo
		}
	}

	result := h.db.WithContext(ctx).Model(&models.Case{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		h.respondServiceError(c, "error updating case", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "case not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "case updated successfully"})
}
