package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) DashboardStats(c *gin.Context) {
	dashboard, err := h.stats.Dashboard(c.Request.Context(), h.today())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching dashboard statistics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}

func (h *Handler) ClientStatistics(c *gin.Context) {
	rows, err := h.stats.Clients(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching client statistics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// MonthlyStats aggregates per month for the :year parameter, the current
// year when it is absent.
func (h *Handler) MonthlyStats(c *gin.Context) {
	year := h.now().In(h.loc).Year()
	if raw := c.Param("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 9999 {
			h.handleError(c, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = parsed
	}

	rows, err := h.stats.Monthly(c.Request.Context(), year)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "error fetching monthly statistics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}
