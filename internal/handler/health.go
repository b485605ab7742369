package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": now.UTC().Format(time.RFC3339),
		"uptime":    now.Sub(h.started).Seconds(),
	})
}
