package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"recoverydesk/internal/models"
	"recoverydesk/internal/services"
	"recoverydesk/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const fileListSelect = `f.*,
	COALESCE(c.name, '') AS client_name,
	pf.recovered_amount,
	CASE WHEN pf.recovered_amount IS NOT NULL AND f.total_amount > 0
	     THEN pf.recovered_amount / f.total_amount * 100
	     ELSE 0 END AS recovery_percentage,
	COALESCE((SELECT SUM(amount) FROM file_expenses e WHERE e.file_id = f.id), 0) AS total_expenses`

// ListFiles returns files with their recovery figures, filtered by status and client.
func (h *Handler) ListFiles(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).
		Table("files f").
		Select(fileListSelect).
		Joins("LEFT JOIN clients c ON f.client_id = c.id").
		Joins("LEFT JOIN paid_files pf ON f.id = pf.file_id")

	if status := c.Query("status"); status != "" {
		query = query.Where("f.status = ?", status)
	}
	clientID, err := utils.ParseOptionalUintQuery(c, "client_id")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "invalid client_id", err)
		return
	}
	if clientID != nil {
		query = query.Where("f.client_id = ?", *clientID)
	}

	var files []models.FileWithRecovery
	if err := query.Order("f.created_at DESC").Scan(&files).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching files", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": files})
}

func (h *Handler) GetFile(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var file models.File
	if err := h.db.WithContext(c.Request.Context()).Preload("Client").First(&file, id).Error; err != nil {
		h.respondServiceError(c, "file not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": file})
}

func (h *Handler) CreateFile(c *gin.Context) {
	var req models.CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	depositDate, err := models.ParseDate(req.DepositDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	if err := h.db.WithContext(ctx).Select("id").First(&models.Client{}, req.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.handleError(c, http.StatusBadRequest, "client does not exist", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "error creating file", err)
		return
	}

	createdBy := h.principal(c).ID
	file := models.File{
		DepositDate: depositDate,
		ClientID:    req.ClientID,
		Debtor:      req.Debtor,
		DebtProof:   req.DebtProof,
		TotalAmount: req.TotalAmount,
		Commission:  req.Commission,
		Notes:       req.Notes,
		Status:      models.FileNew,
		CreatedBy:   &createdBy,
	}
	if err := h.db.WithContext(ctx).Create(&file).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error creating file", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "file created successfully", "data": file})
}

func (h *Handler) UpdateFile(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	depositDate, err := models.ParseDate(req.DepositDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.File{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deposit_date": depositDate,
		"client_id":    req.ClientID,
		"debtor":       req.Debtor,
		"debt_proof":   req.DebtProof,
		"total_amount": req.TotalAmount,
		"commission":   req.Commission,
		"notes":        req.Notes,
		"status":       req.Status,
	})
	if result.Error != nil {
		h.respondServiceError(c, "error updating file", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "file not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file updated successfully"})
}

// MoveToPaid snapshots the file into paid_files with the settlement figures
// and closes it, atomically.
func (h *Handler) MoveToPaid(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.MoveToPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	lastActionDate, err := models.ParseOptionalDate(req.LastActionDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	balanceDate, err := models.ParseOptionalDate(req.BalanceDate)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var file models.File
		if err := tx.First(&file, id).Error; err != nil {
			return err
		}

		paid := models.PaidFile{
			FileID:          file.ID,
			DepositDate:     file.DepositDate,
			ClientID:        file.ClientID,
			Debtor:          file.Debtor,
			DebtProof:       file.DebtProof,
			TotalAmount:     file.TotalAmount,
			LastAction:      req.LastAction,
			LastActionDate:  lastActionDate,
			RecoveredAmount: req.RecoveredAmount,
			ClientRights:    req.ClientRights,
			Notes:           req.Notes,
			ClientBalance:   req.ClientBalance,
			BalanceDate:     balanceDate,
			Expenses:        req.Expenses,
			Reference:       req.Reference,
			NetCommission:   req.NetCommission,
			DueBalance:      req.DueBalance,
		}
		if err := tx.Create(&paid).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: file %d was already moved to paid", services.ErrConflict, file.ID)
			}
			return err
		}
		return tx.Model(&file).Update("status", models.FileClosed).Error
	})
	if err != nil {
		h.respondServiceError(c, errorMessage(err, "file not found", "file already moved to paid", "error moving file to paid"), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file moved to paid successfully"})
}

// errorMessage picks the user-facing message for not found, conflict and anything else.
func errorMessage(err error, notFound, conflict, other string) string {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, services.ErrNotFound):
		return notFound
	case errors.Is(err, services.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return conflict
	default:
		return other
	}
}
