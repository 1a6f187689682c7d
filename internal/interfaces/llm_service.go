package interfaces

import "context"

// ProviderType identifies the backing AI provider
type ProviderType string

const (
	// ProviderGemini uses the Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses the Anthropic Claude API (generation only;
	// embeddings always go through Gemini)
	ProviderClaude ProviderType = "claude"
)

// LLMService is the capability boundary to the embedding and generation
// models. Implementations retry a bounded number of times internally;
// a returned error means retries are exhausted. The provider is selected
// once at startup from configuration and never branched on at call sites.
type LLMService interface {
	// Embed generates a vector embedding for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Generate produces a completion for the given prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// HealthCheck verifies the provider is reachable and configured
	HealthCheck(ctx context.Context) error

	// GetProvider returns the configured provider type
	GetProvider() ProviderType

	// Close releases provider clients
	Close() error
}
