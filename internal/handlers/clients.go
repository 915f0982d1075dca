package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"recoverydesk/internal/auth"
	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const newClientTitle = "New client credentials"

type clientFileRow struct {
	models.File
	TotalExpenses float64 `json:"total_expenses"`
}

func (h *Handler) ListClients(c *gin.Context) {
	var clients []models.Client
	if err := h.db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&clients).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching clients", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

// ClientFiles lists a client's files with their total expenses.
func (h *Handler) ClientFiles(c *gin.Context) {
	clientID, ok := h.pathID(c, "clientId")
	if !ok || !h.canAccessClient(c, clientID) {
		return
	}

	var files []clientFileRow
	err := h.db.WithContext(c.Request.Context()).
		Table("files f").
		Select("f.*, COALESCE((SELECT SUM(amount) FROM file_expenses e WHERE e.file_id = f.id), 0) AS total_expenses").
		Where("f.client_id = ?", clientID).
		Order("f.created_at DESC").
		Scan(&files).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching client files", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": files})
}

func (h *Handler) ClientStats(c *gin.Context) {
	clientID, ok := h.pathID(c, "clientId")
	if !ok || !h.canAccessClient(c, clientID) {
		return
	}

	stats, err := h.stats.Client(c.Request.Context(), clientID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching client statistics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// CreateClient stores the client with the given or generated credentials and
// tells every staff member what they are.
func (h *Handler) CreateClient(c *gin.Context) {
	var req models.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.handleError(c, http.StatusBadRequest, "client name is required", nil)
		return
	}
	ctx := c.Request.Context()

	login := strings.TrimSpace(req.Login)
	if login == "" {
		generated, err := auth.GenerateLogin(name)
		if err != nil {
			h.handleError(c, http.StatusInternalServerError, "error creating client", err)
			return
		}
		login = generated
	}
	password := req.Password
	if password == "" {
		generated, err := auth.GeneratePassword(0)
		if err != nil {
			h.handleError(c, http.StatusInternalServerError, "error creating client", err)
			return
		}
		password = generated
	}

	var existing int64
	if err := h.db.WithContext(ctx).Model(&models.Client{}).Where("login = ? OR name = ?", login, name).Count(&existing).Error; err != nil {
		h.handleError(c, http.StatusInternalServerError, "error creating client", err)
		return
	}
	if existing > 0 {
		h.handleError(c, http.StatusConflict, "this client already exists", nil)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error creating client", err)
		return
	}
	client := models.Client{
		Name:     name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		CIN:      req.CIN,
		Login:    login,
		Password: hash,
	}
	if err := h.db.WithContext(ctx).Create(&client).Error; err != nil {
		h.respondServiceError(c, "login or client name already exists", err)
		return
	}

	message := fmt.Sprintf("A client account was created:\nName: %s\nLogin: %s\nPassword: %s\nPlease send these credentials to the client.",
		client.Name, login, password)
	sent, err := h.notifications.NotifyRoles(ctx, []string{models.RoleAdmin, models.RoleEmployee},
		newClientTitle, message, fmt.Sprintf("/clients/%d", client.ID))
	if err != nil {
		h.log.Warn("failed to notify staff about new client", zap.Uint("client_id", client.ID), zap.Int("sent", sent), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"message": "client created successfully", "data": client})
}

func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result := h.db.WithContext(c.Request.Context()).Model(&models.Client{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":    strings.TrimSpace(req.Name),
		"email":   req.Email,
		"phone":   req.Phone,
		"address": req.Address,
		"cin":     req.CIN,
	})
	if result.Error != nil {
		h.respondServiceError(c, "error updating client", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "client not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "client updated successfully"})
}
