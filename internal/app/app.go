package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/handlers"
	"github.com/ternarybob/responsa/internal/interfaces"
	"github.com/ternarybob/responsa/internal/services/guardrails"
	"github.com/ternarybob/responsa/internal/services/index"
	"github.com/ternarybob/responsa/internal/services/ingest"
	"github.com/ternarybob/responsa/internal/services/llm"
	"github.com/ternarybob/responsa/internal/services/pipeline"
	"github.com/ternarybob/responsa/internal/services/scheduler"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Services
	LLMService   interfaces.LLMService
	Loader       *ingest.Loader
	IndexManager *index.Manager
	Guardrails   *guardrails.Engine
	Pipeline     *pipeline.Orchestrator
	Scheduler    *scheduler.Scheduler

	// HTTP handlers
	AskHandler    *handlers.AskHandler
	IndexHandler  *handlers.IndexHandler
	StatusHandler *handlers.StatusHandler
}

// New wires the application: provider client, ingestion, index manager,
// guardrails, pipeline, handlers, and the optional build scheduler.
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	llmService, err := llm.NewService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService

	a.Loader = ingest.NewLoader(&cfg.Processing, logger)
	a.IndexManager = index.NewManager(cfg, a.Loader, llmService, logger)
	a.Guardrails = guardrails.NewEngine(&cfg.Guardrails, logger)
	a.Pipeline = pipeline.NewOrchestrator(a.IndexManager, a.Guardrails, llmService, &cfg.Processing, logger)

	a.AskHandler = handlers.NewAskHandler(a.Pipeline, logger)
	a.IndexHandler = handlers.NewIndexHandler(a.IndexManager, logger)
	a.StatusHandler = handlers.NewStatusHandler(a.IndexManager, llmService, logger)

	if cfg.Processing.BuildOnStart {
		logger.Info().Msg("Building indexes on startup")
		if err := a.IndexManager.Build(ctx); err != nil {
			return nil, fmt.Errorf("startup index build failed: %w", err)
		}
	}

	if cfg.Processing.Schedule != "" {
		a.Scheduler = scheduler.NewScheduler(a.IndexManager, logger)
		if err := a.Scheduler.Start(cfg.Processing.Schedule); err != nil {
			return nil, fmt.Errorf("failed to start build scheduler: %w", err)
		}
	}

	return a, nil
}

// Close releases application resources in reverse wiring order
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
