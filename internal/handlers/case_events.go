package handlers

import (
	"net/http"

	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
)

// CaseEvents lists a case's timeline in date order.
func (h *Handler) CaseEvents(c *gin.Context) {
	caseID, ok := h.pathID(c, "caseId")
	if !ok {
		return
	}
	if !h.canAccessOwned(c, "cases", caseID) {
		return
	}

	var events []models.CaseEventView
	err := h.db.WithContext(c.Request.Context()).
		Table("case_events ce").
		Select("ce.*, u.name AS created_by_name").
		Joins("LEFT JOIN users u ON ce.created_by = u.id").
		Where("ce.case_id = ?", caseID).
		Order("ce.event_date ASC, ce.event_time ASC NULLS FIRST").
		Scan(&events).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching case events", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

func (h *Handler) CreateCaseEvent(c *gin.Context) {
	var req models.CreateCaseEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	eventDate, err := models.ParseDate(req.EventDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	eventTime, err := models.ParseClock(req.EventTime)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	reminderDays := models.DefaultEventReminderDays
	if req.ReminderDays != nil {
		reminderDays = *req.ReminderDays
	}
	geo := models.GeoPointFrom(req.Lat, req.Lng)
	if geo == nil {
		geo = h.geocode(ctx, req.Address)
	}

	event := models.CaseEvent{
		CaseID:       req.CaseID,
		EventType:    models.EventTypeFrom(req.EventType),
		Title:        req.Title,
		Description:  req.Description,
		EventDate:    eventDate,
		EventTime:    eventTime,
		Location:     req.Location,
		Address:      req.Address,
		Geo:          geo,
		ReminderDays: reminderDays,
		CreatedBy:    h.principal(c).ID,
	}
	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		h.respondServiceError(c, "error creating case event", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "case event created successfully", "data": event})
}

func (h *Handler) DeleteCaseEvent(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.CaseEvent{}, id)
	if result.Error != nil {
		h.handleError(c, http.StatusInternalServerError, "error deleting case event", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "case event not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "case event deleted successfully"})
}
