package handlers

import (
	"net/http"

	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListExpenseTypes(c *gin.Context) {
	var types []models.ExpenseType
	if err := h.db.WithContext(c.Request.Context()).Order("name").Find(&types).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching expense types", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": types})
}

// FileExpenses lists a file's expenses, newest first, with their sum.
func (h *Handler) FileExpenses(c *gin.Context) {
	fileID, ok := h.pathID(c, "fileId")
	if !ok {
		return
	}
	if !h.canAccessOwned(c, "files", fileID) {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var expenses []models.FileExpenseView
	err := db.Table("file_expenses fe").
		Select("fe.*, et.name AS expense_type_name, u.name AS created_by_name").
		Joins("LEFT JOIN expense_types et ON fe.expense_type_id = et.id").
		Joins("LEFT JOIN users u ON fe.created_by = u.id").
		Where("fe.file_id = ?", fileID).
		Order("fe.expense_date DESC NULLS LAST, fe.id DESC").
		Scan(&expenses).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching file expenses", err)
		return
	}

	var total float64
	if err := db.Model(&models.FileExpense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("file_id = ?", fileID).
		Scan(&total).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching file expenses", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"expenses": expenses, "total": total}})
}

func (h *Handler) CreateExpense(c *gin.Context) {
	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	expenseDate, err := models.ParseOptionalDate(req.ExpenseDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	createdBy := h.principal(c).ID
	expense := models.FileExpense{
		FileID:        req.FileID,
		ExpenseTypeID: req.ExpenseTypeID,
		Amount:        req.Amount,
		ExpenseDate:   expenseDate,
		Notes:         req.Notes,
		CreatedBy:     &createdBy,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&expense).Error; err != nil {
		h.respondServiceError(c, "error adding expense", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "expense added successfully", "data": expense})
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.FileExpense{}, id)
	if result.Error != nil {
		h.handleError(c, http.StatusInternalServerError, "error deleting expense", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "expense not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "expense deleted successfully"})
}
