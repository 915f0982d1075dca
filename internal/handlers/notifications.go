package handlers

import (
	"net/http"

	"recoverydesk/internal/auth"
	"recoverydesk/internal/models"
	"recoverydesk/internal/utils"

	"github.com/gin-gonic/gin"
)

// inboxOwner returns the caller's user id. Client principals have no inbox.
func (h *Handler) inboxOwner(c *gin.Context) (uint, bool) {
	p := h.principal(c)
	if p == nil || p.Kind != auth.KindUser {
		h.handleError(c, http.StatusForbidden, "access denied", nil)
		return 0, false
	}
	return p.ID, true
}

func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := h.inboxOwner(c)
	if !ok {
		return
	}
	limit, offset := utils.Pagination(c, 20, 100)

	list, err := h.notifications.List(c.Request.Context(), userID, models.NotificationQuery{
		Limit:      limit,
		Offset:     offset,
		UnreadOnly: c.Query("unread_only") == "true",
	})
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	userID, ok := h.inboxOwner(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error counting notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"count": count}})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID, ok := h.inboxOwner(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), userID, id); err != nil {
		h.respondServiceError(c, "notification not found", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := h.inboxOwner(c)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error updating notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read", "data": gin.H{"updated": updated}})
}
