package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/services/index"
)

// StatusHandler handles application status and health HTTP requests
type StatusHandler struct {
	indexes *index.Manager
	llm     interfaces.LLMService
	logger  arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(indexes *index.Manager, llm interfaces.LLMService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		indexes: indexes,
		llm:     llm,
		logger:  logger,
	}
}

// HealthHandler handles GET /api/health requests
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"pipeline_ready":     h.indexes.Ready(),
		"vectorstores_ready": h.indexes.Ready(),
	})
}

// GetStatusHandler handles GET /api/status requests
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":  common.GetVersion(),
		"provider": string(h.llm.GetProvider()),
		"ready":    h.indexes.Ready(),
		"indexes":  h.indexes.Status(),
	})
}

// VersionHandler handles GET /api/version requests
func (h *StatusHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.Build,
	})
}
