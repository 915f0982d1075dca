package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"recoverydesk/internal/auth"
	"recoverydesk/internal/models"
	"recoverydesk/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type userRow struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Login     string `json:"login"`
	Phone     string `json:"phone,omitempty"`
	Active    bool   `json:"active"`
	RoleName  string `json:"role_name"`
	CreatedAt string `json:"created_at"`
}

// ListUsers returns every staff account, newest first.
func (h *Handler) ListUsers(c *gin.Context) {
	var users []userRow
	err := h.db.WithContext(c.Request.Context()).
		Table("users u").
		Select("u.id, u.name, u.email, u.login, u.phone, u.active, COALESCE(r.name, '') AS role_name, to_char(u.created_at, 'YYYY-MM-DD\"T\"HH24:MI:SS') AS created_at").
		Joins("LEFT JOIN roles r ON u.role_id = r.id").
		Order("u.created_at DESC").
		Scan(&users).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

// CreateUser creates a staff account with generated credentials. The plain
// password is only ever returned here.
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	roleID, err := h.roleID(ctx, req.Role)
	if err != nil {
		h.respondServiceError(c, "unknown role", err)
		return
	}
	login, err := auth.GenerateLogin(req.Name)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error creating user", err)
		return
	}
	password, err := auth.GeneratePassword(0)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error creating user", err)
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error creating user", err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Login:    login,
		Password: hash,
		Phone:    req.Phone,
		RoleID:   roleID,
		Active:   true,
	}
	if err := h.db.WithContext(ctx).Omit("Role").Create(&user).Error; err != nil {
		h.respondServiceError(c, "email or login already exists", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user created successfully",
		"data": gin.H{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"login":    user.Login,
			"password": password,
			"phone":    user.Phone,
			"role":     req.Role,
		},
	})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	if p := h.principal(c); p != nil && p.ID == id && !*req.Active {
		h.handleError(c, http.StatusBadRequest, "you cannot deactivate your own account", nil)
		return
	}

	roleID, err := h.roleID(ctx, req.Role)
	if err != nil {
		h.respondServiceError(c, "unknown role", err)
		return
	}

	result := h.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":    req.Name,
		"email":   req.Email,
		"phone":   req.Phone,
		"role_id": roleID,
		"active":  *req.Active,
	})
	if result.Error != nil {
		h.respondServiceError(c, "error updating user", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "user not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated successfully"})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if p := h.principal(c); p != nil && p.ID == id {
		h.handleError(c, http.StatusBadRequest, "you cannot delete your own account", nil)
		return
	}

	result := h.db.WithContext(c.Request.Context()).Delete(&models.User{}, id)
	if result.Error != nil {
		h.handleError(c, http.StatusInternalServerError, "error deleting user", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.handleError(c, http.StatusNotFound, "user not found", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}

func (h *Handler) roleID(ctx context.Context, name string) (uint, error) {
	var role models.Role
	if err := h.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: role %q", services.ErrInvalidInput, name)
		}
		return 0, err
	}
	return role.ID, nil
}
