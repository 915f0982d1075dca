package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recoverydesk/internal/auth"
	"recoverydesk/internal/services"
	"recoverydesk/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PrincipalDirectory resolves token subjects and Google identities to accounts.
type PrincipalDirectory interface {
	auth.PrincipalLoader
	FindActiveUserByEmail(ctx context.Context, email string) (*auth.Principal, error)
}

// Handler holds what the HTTP layer needs. Optional integrations are nil
// when not configured.
type Handler struct {
	db            *gorm.DB
	tokens        *auth.TokenService
	principals    PrincipalDirectory
	google        *auth.GoogleSignIn
	notifications *services.NotificationService
	documents     services.DocumentStore
	geocoder      services.Geocoder
	stats         *services.StatsService
	search        *services.SearchService
	loc           *time.Location
	now           func() time.Time
	log           *zap.Logger
}

type Deps struct {
	DB            *gorm.DB
	Tokens        *auth.TokenService
	Principals    PrincipalDirectory
	Google        *auth.GoogleSignIn
	Notifications *services.NotificationService
	Documents     services.DocumentStore
	Geocoder      services.Geocoder
	Stats         *services.StatsService
	Search        *services.SearchService
	Location      *time.Location
	Logger        *zap.Logger
}

func New(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		db:            d.DB,
		tokens:        d.Tokens,
		principals:    d.Principals,
		google:        d.Google,
		notifications: d.Notifications,
		documents:     d.Documents,
		geocoder:      d.Geocoder,
		stats:         d.Stats,
		search:        d.Search,
		loc:           loc,
		now:           time.Now,
		log:           d.Logger,
	}
}

// handleError provides a consistent way to handle and log errors
func (h *Handler) handleError(c *gin.Context, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	} else if err != nil {
		h.log.Debug(message, zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": message})
}

// respondServiceError maps domain and gorm errors onto HTTP statuses.
func (h *Handler) respondServiceError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		h.handleError(c, http.StatusNotFound, message, err)
	case errors.Is(err, services.ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		h.handleError(c, http.StatusConflict, message, err)
	case errors.Is(err, services.ErrForbidden):
		h.handleError(c, http.StatusForbidden, "access denied", err)
	case errors.Is(err, services.ErrInvalidInput):
		h.handleError(c, http.StatusBadRequest, err.Error(), err)
	default:
		h.handleError(c, http.StatusInternalServerError, message, err)
	}
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.handleError(c, http.StatusBadRequest, "invalid input: "+err.Error(), err)
}

// pathID reads a numeric path parameter and answers 400 when it is not one.
func (h *Handler) pathID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseIDParam(c, name)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

// principal returns the authenticated caller. Routes using it sit behind
// AuthMiddleware.
func (h *Handler) principal(c *gin.Context) *auth.Principal {
	p, _ := auth.CurrentPrincipal(c)
	return p
}

// canAccessClient answers 403 and returns false when the caller may not see
// that client's records.
func (h *Handler) canAccessClient(c *gin.Context, clientID uint) bool {
	p := h.principal(c)
	if p == nil || !p.CanAccessClient(clientID) {
		h.handleError(c, http.StatusForbidden, "access denied", nil)
		return false
	}
	return true
}

// canAccessOwned resolves the client owning a record and applies
// canAccessClient. Staff skip the lookup.
func (h *Handler) canAccessOwned(c *gin.Context, table string, id uint) bool {
	p := h.principal(c)
	if p != nil && p.IsStaff() {
		return true
	}
	var clientID uint
	err := h.db.WithContext(c.Request.Context()).Table(table).Select("client_id").Where("id = ?", id).Scan(&clientID).Error
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error checking access", err)
		return false
	}
	return h.canAccessClient(c, clientID)
}

// today is the office's current calendar date as YYYY-MM-DD.
func (h *Handler) today() string {
	return h.now().In(h.loc).Format("2006-01-02")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
