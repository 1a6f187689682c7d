package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Service implements interfaces.LLMService. The generation provider is
// chosen once in NewService from configuration; Gemini serves embeddings
// in both modes because Anthropic exposes no embeddings endpoint.
type Service struct {
	provider interfaces.ProviderType

	geminiClient *genai.Client
	claudeClient anthropic.Client

	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig

	// One limiter per upstream so Claude generation never starves
	// Gemini embeddings of quota headroom.
	geminiLimiter *rate.Limiter
	claudeLimiter *rate.Limiter

	retry  *RetryConfig
	logger arbor.ILogger
}

// NewService creates the LLM service for the configured provider
func NewService(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := interfaces.ProviderType(cfg.ResolveProvider())

	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini api_key is required (embeddings always use Gemini)")
	}

	geminiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s := &Service{
		provider:      provider,
		geminiClient:  geminiClient,
		geminiConfig:  &cfg.Gemini,
		claudeConfig:  &cfg.Claude,
		geminiLimiter: newLimiter(cfg.Gemini.RateLimit),
		claudeLimiter: newLimiter(cfg.Claude.RateLimit),
		retry:         NewRetryConfig(cfg.Processing.MaxRetries, cfg.Processing.RetryDelay),
		logger:        logger,
	}

	if provider == interfaces.ProviderClaude {
		if cfg.Claude.APIKey == "" {
			return nil, fmt.Errorf("claude api_key is required when default_provider is claude")
		}
		s.claudeClient = anthropic.NewClient(option.WithAPIKey(cfg.Claude.APIKey))
	}

	logger.Info().
		Str("provider", string(provider)).
		Str("embedding_model", cfg.Gemini.EmbeddingModel).
		Msg("LLM service initialized")

	return s, nil
}

// newLimiter builds a limiter that spaces calls by the given interval.
// A zero interval disables pacing.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Embed generates a vector embedding via the Gemini embeddings API
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var embedding []float32
	err := s.withRetry(ctx, s.geminiLimiter, "embed", func() error {
		result, apiErr := s.geminiClient.Models.EmbedContent(ctx,
			s.geminiConfig.EmbeddingModel,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
			nil)
		if apiErr != nil {
			return apiErr
		}
		if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
			return fmt.Errorf("no embedding returned from API")
		}
		embedding = result.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	return embedding, nil
}

// Generate produces a completion using the configured provider
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	switch s.provider {
	case interfaces.ProviderClaude:
		return s.generateWithClaude(ctx, prompt)
	default:
		return s.generateWithGemini(ctx, prompt)
	}
}

func (s *Service) generateWithGemini(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.geminiConfig.Temperature),
	}

	var text string
	err := s.withRetry(ctx, s.geminiLimiter, "generate", func() error {
		resp, apiErr := s.geminiClient.Models.GenerateContent(ctx,
			s.geminiConfig.Model, genai.Text(prompt), config)
		if apiErr != nil {
			return apiErr
		}
		if resp == nil || len(resp.Candidates) == 0 {
			return fmt.Errorf("empty response from Gemini API")
		}
		text = resp.Text()
		if text == "" {
			return fmt.Errorf("empty text in Gemini response")
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Gemini generation failed after %d retries: %w", s.retry.MaxRetries, err)
	}

	return text, nil
}

func (s *Service) generateWithClaude(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.claudeConfig.Model),
		MaxTokens: int64(s.claudeConfig.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if s.claudeConfig.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.claudeConfig.Temperature))
	}

	var text string
	err := s.withRetry(ctx, s.claudeLimiter, "generate", func() error {
		resp, apiErr := s.claudeClient.Messages.New(ctx, params)
		if apiErr != nil {
			return apiErr
		}

		var builder strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				builder.WriteString(block.Text)
			}
		}
		if builder.Len() == 0 {
			return fmt.Errorf("empty response from Claude API")
		}
		text = builder.String()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Claude generation failed after %d retries: %w", s.retry.MaxRetries, err)
	}

	return text, nil
}

// withRetry paces the call through the limiter and retries with backoff.
// Rate-limit errors honor the API-suggested delay when present.
func (s *Service) withRetry(ctx context.Context, limiter *rate.Limiter, op string, call func() error) error {
	var lastErr error

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = call()
		if lastErr == nil {
			return nil
		}

		if attempt == s.retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(lastErr) {
			backoff = s.retry.CalculateBackoff(attempt, ExtractRetryDelay(lastErr))
		} else {
			backoff = time.Duration(attempt+1) * s.retry.InitialBackoff
		}

		s.logger.Warn().
			Str("operation", op).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Retrying provider API call")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return lastErr
}

// HealthCheck verifies the provider clients are configured
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.geminiClient == nil {
		return fmt.Errorf("Gemini client not initialized")
	}
	return nil
}

// GetProvider returns the configured generation provider
func (s *Service) GetProvider() interfaces.ProviderType {
	return s.provider
}

// Close releases provider clients
func (s *Service) Close() error {
	s.geminiClient = nil
	s.claudeClient = anthropic.Client{}
	return nil
}
