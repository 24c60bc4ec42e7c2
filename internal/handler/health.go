package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"manualexec/internal/db"
	"manualexec/internal/docstore"
	"manualexec/internal/models"
)

type HealthHandler struct {
	// DB is nil unless the postgres store driver is in use.
	DB    *db.DB
	Store docstore.Store
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store_missing"})
		return
	}
	if err := db.Ping(c.Request.Context(), h.DB); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
		return
	}
	if _, err := h.Store.ListSnapshots(c.Request.Context(), models.DocOpsSummary, 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store_unreadable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "store": h.Store.Driver()})
}
