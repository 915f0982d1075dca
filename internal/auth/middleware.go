package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"recoverydesk/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// ErrPrincipalNotFound is returned by loaders for unknown or deactivated accounts.
var ErrPrincipalNotFound = errors.New("principal not found")

// Principal is the authenticated actor attached to a request.
type Principal struct {
	ID    uint   `json:"id"`
	Kind  string `json:"kind"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Login string `json:"login"`
}

// IsStaff reports whether the principal is an admin or employee.
func (p *Principal) IsStaff() bool {
	return p.Kind == KindUser && (p.Role == models.RoleAdmin || p.Role == models.RoleEmployee)
}

// CanAccessClient allows staff everywhere and clients only on their own records.
func (p *Principal) CanAccessClient(clientID uint) bool {
	if p.IsStaff() {
		return true
	}
	return p.Kind == KindClient && p.ID == clientID
}

// PrincipalLoader resolves a token subject to a live account.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, kind string, id uint) (*Principal, error)
}

// AuthMiddleware validates the bearer token and reloads the account so that
// deactivated users lose access immediately.
func AuthMiddleware(tokens *TokenService, loader PrincipalLoader, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token, authorization denied"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			msg := "token is not valid"
			if errors.Is(err, ErrExpiredToken) {
				msg = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		id, err := claims.PrincipalID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is not valid"})
			return
		}

		principal, err := loader.LoadPrincipal(c.Request.Context(), claims.Kind, id)
		if err != nil {
			if !errors.Is(err, ErrPrincipalNotFound) {
				log.Error("failed to load principal", zap.String("kind", claims.Kind), zap.Uint("id", id), zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is not valid"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRoles rejects principals whose role is not listed.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied: insufficient permissions"})
	}
}

// CurrentPrincipal returns the principal stored by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

// SetPrincipal is used by tests and by handlers that authenticate inline.
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}
