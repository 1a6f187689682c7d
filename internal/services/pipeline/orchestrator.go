package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/models"
	"github.com/ternarybob/responsa/internal/services/guardrails"
	"github.com/ternarybob/responsa/internal/services/index"
)

// strongCoverageLength is the trimmed passage length above which
// authoritative retrieval counts as strong coverage, suppressing the
// supplemental lookup.
const strongCoverageLength = 50

// answerPromptTemplate instructs the model to answer strictly from the
// provided passages, with inline citations.
const answerPromptTemplate = `You are a helpful assistant answering questions about the product.

STRICT RULES:
1. Only use the provided context to answer
2. Never make up or hallucinate information
3. If context doesn't contain the answer, say so
4. Cite sources for each claim using [source:doc_id:chunk_id] format
5. Be concise and accurate

Context:
%s

Question: %s

Answer:`

// Orchestrator runs each question through the fixed stage sequence:
// retrieve authoritative, check sensitivity, retrieve supplemental,
// generate and validate. Every question terminates in exactly one
// answer-shaped response; provider failures are absorbed into the
// error status rather than propagated.
type Orchestrator struct {
	indexes    *index.Manager
	guardrails *guardrails.Engine
	generator  interfaces.LLMService
	topK       int
	logger     arbor.ILogger
}

// NewOrchestrator wires the pipeline against its collaborators
func NewOrchestrator(indexes *index.Manager, engine *guardrails.Engine, generator interfaces.LLMService, cfg *common.ProcessingConfig, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		indexes:    indexes,
		guardrails: engine,
		generator:  generator,
		topK:       cfg.TopK,
		logger:     logger,
	}
}

// Ask answers one question. When the authoritative index is not Ready
// the pipeline is bypassed entirely and the caller gets not_ready.
func (o *Orchestrator) Ask(ctx context.Context, question string) models.AnswerResponse {
	if !o.indexes.Ready() {
		return models.AnswerResponse{
			Answer:    "Indexes are not built yet. Trigger a build via the index endpoint first.",
			Status:    models.StatusNotReady,
			Citations: []models.Citation{},
		}
	}

	pc := &models.PipelineContext{
		ID:       common.NewRequestID(),
		Question: question,
	}

	o.logger.Info().Str("request_id", pc.ID).Msg("Question received")

	o.retrieveAuthoritative(ctx, pc)
	o.checkSensitivity(pc)
	o.retrieveSupplemental(ctx, pc)
	o.generateAnswer(ctx, pc)

	o.logger.Info().
		Str("request_id", pc.ID).
		Str("status", string(pc.Status)).
		Int("citations", len(pc.Citations)).
		Msg("Question answered")

	return pc.Response()
}

// retrieveAuthoritative queries the curated index and decides whether
// supplemental retrieval is warranted. Coverage is strong only when at
// least one returned passage has meaningful length.
func (o *Orchestrator) retrieveAuthoritative(ctx context.Context, pc *models.PipelineContext) {
	passages, err := o.indexes.Search(ctx, models.IndexAuthoritative, pc.Question, o.topK)
	if err != nil {
		o.logger.Warn().Err(err).Str("request_id", pc.ID).Msg("Authoritative retrieval failed")
	}
	pc.RetrievedAuthoritative = passages

	pc.NeedsSupplemental = true
	for _, p := range passages {
		if len(strings.TrimSpace(p.Content)) > strongCoverageLength {
			pc.NeedsSupplemental = false
			break
		}
	}
}

func (o *Orchestrator) checkSensitivity(pc *models.PipelineContext) {
	pc.IsSensitive = o.guardrails.IsSensitive(pc.Question)
}

// retrieveSupplemental queries the looser index only when authoritative
// coverage is weak and the question is not sensitive. Sensitive
// questions must never be answered from supplemental material.
func (o *Orchestrator) retrieveSupplemental(ctx context.Context, pc *models.PipelineContext) {
	if !pc.NeedsSupplemental || pc.IsSensitive {
		return
	}

	passages, err := o.indexes.Search(ctx, models.IndexSupplemental, pc.Question, o.topK)
	if err != nil {
		o.logger.Warn().Err(err).Str("request_id", pc.ID).Msg("Supplemental retrieval failed")
	}
	pc.RetrievedSupplemental = passages
}

// generateAnswer applies the decision tree in strict order: sensitive
// refusal, no sources, generation, validation. The sensitive check runs
// first because a sensitive question never retrieves supplemental
// passages, so an empty-source check alone would mask the refusal.
func (o *Orchestrator) generateAnswer(ctx context.Context, pc *models.PipelineContext) {
	sources := pc.CombinedPassages()

	if o.guardrails.ShouldRefuseSensitive(pc.IsSensitive, len(pc.RetrievedAuthoritative) > 0) {
		pc.Answer = o.guardrails.RefusalMessage(guardrails.RefusalSensitive)
		pc.Status = models.StatusRefusedSensitive
		o.guardrails.LogAction("refuse", pc.Question, "sensitive_no_facts")
		return
	}

	if len(sources) == 0 {
		pc.Answer = o.guardrails.RefusalMessage(guardrails.RefusalInsufficientInfo)
		pc.Status = models.StatusInsufficientInfo
		o.guardrails.LogAction("refuse", pc.Question, "no_sources")
		return
	}

	answer, err := o.generator.Generate(ctx, o.buildPrompt(pc.Question, sources))
	if err != nil {
		o.logger.Error().Err(err).Str("request_id", pc.ID).Msg("Answer generation failed")
		pc.Answer = "I encountered an error while processing your question."
		pc.Status = models.StatusError
		return
	}

	if !o.guardrails.ValidateAnswer(answer, sources) {
		pc.Answer = o.guardrails.RefusalMessage(guardrails.RefusalValidationFailed)
		pc.Status = models.StatusValidationFailed
		o.guardrails.LogAction("refuse", pc.Question, "validation_failed")
		return
	}

	pc.Answer = answer
	pc.Status = models.StatusAnswered
	pc.Citations = make([]models.Citation, 0, len(sources))
	for _, src := range sources {
		pc.Citations = append(pc.Citations, models.NewCitation(src))
	}
}

// buildPrompt renders every passage with its citation triple so the
// model can cite what it uses
func (o *Orchestrator) buildPrompt(question string, sources []models.Passage) string {
	blocks := make([]string, 0, len(sources))
	for _, src := range sources {
		blocks = append(blocks, fmt.Sprintf("Source: %s | Doc: %s | Chunk: %s\n%s",
			src.SourceKind, src.DocID, src.ChunkID, src.Content))
	}
	return fmt.Sprintf(answerPromptTemplate, strings.Join(blocks, "\n\n"), question)
}
