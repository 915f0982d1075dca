package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Search(c *gin.Context) {
	results := h.search.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"data": results})
}
