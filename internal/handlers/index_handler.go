package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/services/index"
)

// buildTimeout bounds a background build triggered over HTTP
const buildTimeout = 30 * time.Minute

// IndexHandler handles index build HTTP requests
type IndexHandler struct {
	indexes *index.Manager
	logger  arbor.ILogger
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(indexes *index.Manager, logger arbor.ILogger) *IndexHandler {
	return &IndexHandler{
		indexes: indexes,
		logger:  logger,
	}
}

// BuildHandler handles POST /api/index/build. The build runs in the
// background; the manager serializes concurrent triggers and skips kinds
// that are already ready.
func (h *IndexHandler) BuildHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
		defer cancel()

		if err := h.indexes.Build(ctx); err != nil {
			h.logger.Error().Err(err).Msg("Index build failed")
		}
	}()

	WriteStarted(w, "Index build started")
}

// StatusHandler handles GET /api/index/status
func (h *IndexHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ready":   h.indexes.Ready(),
		"indexes": h.indexes.Status(),
	})
}
