package handlers

import (
	"net/http"
	"strings"

	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListCaseTypes(c *gin.Context) {
	var types []models.CaseTypeView
	err := h.db.WithContext(c.Request.Context()).
		Table("case_types ct").
		Select("ct.*, u.name AS created_by_name").
		Joins("LEFT JOIN users u ON ct.created_by = u.id").
		Order("ct.name").
		Scan(&types).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching case types", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": types})
}

func (h *Handler) CreateCaseType(c *gin.Context) {
	var req models.CreateCaseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.handleError(c, http.StatusBadRequest, "case type name is required", nil)
		return
	}

	createdBy := h.principal(c).ID
	caseType := models.CaseType{Name: name, Description: req.Description, CreatedBy: &createdBy}
	if err := h.db.WithContext(c.Request.Context()).Create(&caseType).Error; err != nil {
		h.respondServiceError(c, errorMessage(err, "case type not found", "case type name already exists", "error creating case type"), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "case type created successfully", "data": caseType})
}

// DeleteCaseType refuses while any case still uses the type.
func (h *Handler) DeleteCaseType(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var inUse int64
	if err := db.Model(&models.Case{}).Where("case_type_id = ?", id).Count(&inUse).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error deleting case type", err)
		return
	}
	if inUse > 0 {
		h.handleError(c, http.StatusConflict, "cannot delete case type that has associated cases", nil)
		return
	}

	result := db.Delete(&models.CaseType{}, id)
	if result.Error != nil {
		h.handleError(c, http.StatusInternalServerError, "error deleting case type", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "case type not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "case type deleted successfully"})
}
