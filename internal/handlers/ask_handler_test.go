package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/ternarybob/responsa/internal/services/guardrails"
	"github.com/ternarybob/responsa/internal/services/index"
	"github.com/ternarybob/responsa/internal/services/ingest"
	"github.com/ternarybob/responsa/internal/services/pipeline"
)

// stubLLM satisfies interfaces.LLMService without reaching any provider
type stubLLM struct{}

func (s *stubLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return "answer", nil
}

func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }

func (s *stubLLM) GetProvider() interfaces.ProviderType { return "stub" }

func (s *stubLLM) Close() error { return nil }

// newUnbuiltHandler wires an ask handler whose indexes were never built,
// so every valid question terminates in not_ready
func newUnbuiltHandler(t *testing.T) *AskHandler {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.CacheDir = t.TempDir()

	logger := common.GetLogger()
	llm := &stubLLM{}
	loader := ingest.NewLoader(&cfg.Processing, logger)
	manager := index.NewManager(cfg, loader, llm, logger)
	engine := guardrails.NewEngine(&cfg.Guardrails, logger)
	orch := pipeline.NewOrchestrator(manager, engine, llm, &cfg.Processing, logger)

	return NewAskHandler(orch, logger)
}

func TestAskHandlerMethodNotAllowed(t *testing.T) {
	handler := newUnbuiltHandler(t)

	req := httptest.NewRequest("GET", "/api/ask", nil)
	rec := httptest.NewRecorder()
	handler.AskHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAskHandlerMalformedBody(t *testing.T) {
	handler := newUnbuiltHandler(t)

	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.AskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskHandlerMissingQuestion(t *testing.T) {
	handler := newUnbuiltHandler(t)

	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader(`{"question": ""}`))
	rec := httptest.NewRecorder()
	handler.AskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskHandlerNotReady(t *testing.T) {
	// A valid question against unbuilt indexes is still HTTP 200 with an
	// answer-shaped body
	handler := newUnbuiltHandler(t)

	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader(`{"question": "What colors?"}`))
	rec := httptest.NewRecorder()
	handler.AskHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AnswerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusNotReady, resp.Status)
	assert.NotNil(t, resp.Citations)
	assert.Empty(t, resp.Citations)
}
