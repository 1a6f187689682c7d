package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/ternarybob/responsa/internal/services/pipeline"
)

// AskHandler handles question-answering HTTP requests
type AskHandler struct {
	pipeline *pipeline.Orchestrator
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(orchestrator *pipeline.Orchestrator, logger arbor.ILogger) *AskHandler {
	return &AskHandler{
		pipeline: orchestrator,
		validate: validator.New(),
		logger:   logger,
	}
}

// AskHandler handles POST /api/ask requests. Refusals and caught
// pipeline errors are still HTTP 200 with an answer-shaped body; only a
// malformed payload gets a 400.
func (h *AskHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode ask request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Question field is required")
		return
	}

	response := h.pipeline.Ask(r.Context(), req.Question)
	WriteJSON(w, http.StatusOK, response)
}
