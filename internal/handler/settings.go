package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"manualexec/internal/audit"
	"manualexec/internal/auth"
	"manualexec/internal/service"
)

type SettingsHandler struct {
	Settings *service.SettingsService
}

type putSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/settings")
	g.GET("", h.list)
	g.GET("/:key", h.get)
	g.PUT("/:key", h.put)
}

// @Summary List runtime settings
// @Tags settings
// @Success 200 {array} models.SystemSetting
// @Router /api/settings [get]
func (h *SettingsHandler) list(c *gin.Context) {
	items, err := h.Settings.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Get a runtime setting
// @Tags settings
// @Param key path string true "setting key"
// @Success 200 {object} models.SystemSetting
// @Failure 404 {object} map[string]any
// @Router /api/settings/{key} [get]
func (h *SettingsHandler) get(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	item, err := h.Settings.Get(c.Request.Context(), key)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Update a runtime setting
// @Tags settings
// @Param key path string true "setting key"
// @Param confirm query string true "must be true"
// @Param body body putSettingRequest true "new value"
// @Success 200 {object} models.SystemSetting
// @Failure 400 {object} map[string]any
// @Router /api/settings/{key} [put]
func (h *SettingsHandler) put(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Fail(c, service.Validation("invalid key"))
		return
	}
	confirm := confirmOf(c)
	var req putSettingRequest
	if confirm.IsSet() {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
		if err != nil || json.Unmarshal(body, &req) != nil || len(req.Value) == 0 {
			Fail(c, service.Validation(`body must be {"value": ...}`))
			return
		}
	}
	by := auth.OperatorFromContext(c)
	if by == "" {
		by = "api"
	}
	item, err := h.Settings.Set(c.Request.Context(), confirm, key, req.Value, by)
	if err != nil {
		Fail(c, err)
		return
	}
	c.Set(audit.DecisionKey, "UPDATED")
	Ok(c, item, nil)
}
