package handlers

import (
	"errors"
	"net/http"

	"recoverydesk/internal/auth"
	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type loginResponse struct {
	Token string          `json:"token"`
	User  *auth.Principal `json:"user"`
}

// Login authenticates staff with login and password.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Preload("Role").
		Where("login = ? AND active = ?", req.Login, true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.handleError(c, http.StatusUnauthorized, "invalid credentials", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "database error", err)
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		h.handleError(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	h.issueToken(c, &auth.Principal{
		ID:    user.ID,
		Kind:  auth.KindUser,
		Role:  user.Role.Name,
		Name:  user.Name,
		Email: user.Email,
		Login: user.Login,
	})
}

// ClientLogin authenticates a client with the credentials the office gave it.
func (h *Handler) ClientLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	var client models.Client
	if err := h.db.WithContext(c.Request.Context()).Where("login = ?", req.Login).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.handleError(c, http.StatusUnauthorized, "invalid credentials", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "database error", err)
		return
	}
	if client.Password == "" || !auth.CheckPassword(client.Password, req.Password) {
		h.handleError(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	h.issueToken(c, &auth.Principal{
		ID:    client.ID,
		Kind:  auth.KindClient,
		Role:  models.RoleClient,
		Name:  client.Name,
		Email: client.Email,
		Login: client.Login,
	})
}

func (h *Handler) issueToken(c *gin.Context, p *auth.Principal) {
	token, err := h.tokens.Issue(p.Kind, p.ID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to generate token", err)
		return
	}
	h.log.Info("login succeeded", zap.String("kind", p.Kind), zap.Uint("id", p.ID))
	c.JSON(http.StatusOK, gin.H{"data": loginResponse{Token: token, User: p}})
}

// Me returns the authenticated principal.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.principal(c)})
}

// GoogleLogin redirects to the Google consent screen.
func (h *Handler) GoogleLogin(c *gin.Context) {
	url, err := h.google.LoginURL(c)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "failed to generate login URL", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback signs in the active staff account matching the Google email.
func (h *Handler) GoogleCallback(c *gin.Context) {
	identity, err := h.google.Identify(c)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidOAuthState) {
			h.handleError(c, http.StatusBadRequest, "invalid oauth state", err)
			return
		}
		h.handleError(c, http.StatusUnauthorized, "google sign-in failed", err)
		return
	}
	if !identity.EmailVerified {
		h.handleError(c, http.StatusForbidden, "google account email is not verified", nil)
		return
	}

	p, err := h.principals.FindActiveUserByEmail(c.Request.Context(), identity.Email)
	if err != nil {
		if errors.Is(err, auth.ErrPrincipalNotFound) {
			h.handleError(c, http.StatusForbidden, "no active account for this google address", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "database error", err)
		return
	}
	h.issueToken(c, p)
}
