package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration. Loaded once at process
// start with priority: defaults -> config file(s) -> environment -> CLI.
// Read-only after startup.
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Sources     SourcesConfig    `toml:"sources"`
	Processing  ProcessingConfig `toml:"processing"`
	Guardrails  GuardrailsConfig `toml:"guardrails"`
	Logging     LoggingConfig    `toml:"logging"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

// StorageConfig controls where built vector indexes are cached on disk.
// Each index kind persists to {cache_dir}/{kind}_vectorstore.
type StorageConfig struct {
	CacheDir string `toml:"cache_dir" validate:"required"`
}

// SourcesConfig points at the two ingestion inputs
type SourcesConfig struct {
	FactsFile    string `toml:"facts_file" validate:"required"` // authoritative text/markdown
	ExternalFile string `toml:"external_file"`                  // supplemental JSON records; optional
}

// ProcessingConfig controls chunking, index construction, and retrieval
type ProcessingConfig struct {
	ChunkSize    int           `toml:"chunk_size" validate:"gt=0"`    // max passage length before splitting
	ChunkOverlap int           `toml:"chunk_overlap" validate:"gte=0"`
	BatchSize    int           `toml:"batch_size" validate:"gt=0"` // passages per index-insert batch
	TopK         int           `toml:"top_k" validate:"gt=0"`      // retrieval fan-out
	RetryDelay   time.Duration `toml:"retry_delay"`                // pause between insert batches
	MaxRetries   int           `toml:"max_retries" validate:"gte=0"`
	BuildOnStart bool          `toml:"build_on_start"` // build indexes during startup instead of waiting for the API trigger
	Schedule     string        `toml:"schedule"`       // optional cron schedule for periodic builds ("" = disabled)
}

// GuardrailsConfig controls the sensitivity and anti-fabrication checks
type GuardrailsConfig struct {
	SensitiveTopics    []string `toml:"sensitive_topics"`
	FabricationPhrases []string `toml:"fabrication_phrases"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration. Gemini serves
// embeddings even when Claude is the generation provider.
type GeminiConfig struct {
	APIKey         string        `toml:"api_key"`
	Model          string        `toml:"model"`           // generation model
	EmbeddingModel string        `toml:"embedding_model"` // embedding model
	Temperature    float32       `toml:"temperature"`
	RateLimit      time.Duration `toml:"rate_limit"` // minimum spacing between API calls
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string        `toml:"api_key"`
	Model       string        `toml:"model"`
	MaxTokens   int           `toml:"max_tokens" validate:"gt=0"`
	Temperature float32       `toml:"temperature"`
	RateLimit   time.Duration `toml:"rate_limit"`
}

// LLMConfig selects the generation provider once at startup
type LLMConfig struct {
	DefaultProvider string `toml:"default_provider" validate:"omitempty,oneof=gemini claude"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters mirror the original product deployment; only
// user-facing settings belong in responsa.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			CacheDir: "./cache",
		},
		Sources: SourcesConfig{
			FactsFile:    "./data/product_facts.md",
			ExternalFile: "./data/product_external.json",
		},
		Processing: ProcessingConfig{
			ChunkSize:    800,
			ChunkOverlap: 100,
			BatchSize:    20,
			TopK:         3,
			RetryDelay:   2 * time.Second,
			MaxRetries:   3,
			BuildOnStart: false,
			Schedule:     "", // disabled by default; builds are triggered via the API
		},
		Guardrails: GuardrailsConfig{
			SensitiveTopics: []string{
				"price", "pricing", "cost", "warranty", "guarantee",
				"availability", "stock", "delivery", "shipping",
				"technical specifications", "performance numbers",
			},
			FabricationPhrases: []string{
				"approximately", "around", "roughly", "about $",
				"starting from", "priced at", "costs", "estimated",
				"likely", "probably", "might be", "could be",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			APIKey:         "",
			Model:          "gemini-2.5-flash",
			EmbeddingModel: "gemini-embedding-001",
			Temperature:    0.0, // deterministic answers for grounding checks
			RateLimit:      4 * time.Second,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Temperature: 0.0,
			RateLimit:   1 * time.Second,
		},
		LLM: LLMConfig{
			DefaultProvider: "", // auto-detect from available API keys
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier
// files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RESPONSA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("RESPONSA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RESPONSA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage and sources
	if cacheDir := os.Getenv("RESPONSA_CACHE_DIR"); cacheDir != "" {
		config.Storage.CacheDir = cacheDir
	}
	if factsFile := os.Getenv("RESPONSA_FACTS_FILE"); factsFile != "" {
		config.Sources.FactsFile = factsFile
	}
	if externalFile := os.Getenv("RESPONSA_EXTERNAL_FILE"); externalFile != "" {
		config.Sources.ExternalFile = externalFile
	}

	// Logging configuration
	if level := os.Getenv("RESPONSA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RESPONSA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider API keys. GOOGLE_API_KEY is accepted as a legacy alias.
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if provider := os.Getenv("RESPONSA_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = provider
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveProvider returns the generation provider to use. An explicit
// configuration wins; otherwise the provider is detected from which API
// keys are present, defaulting to Gemini.
func (c *Config) ResolveProvider() string {
	if c.LLM.DefaultProvider != "" {
		return c.LLM.DefaultProvider
	}
	if c.Gemini.APIKey != "" {
		return "gemini"
	}
	if c.Claude.APIKey != "" {
		return "claude"
	}
	return "gemini"
}

// Validate checks structural constraints on the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Processing.ChunkOverlap >= c.Processing.ChunkSize {
		return fmt.Errorf("invalid configuration: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Processing.ChunkOverlap, c.Processing.ChunkSize)
	}
	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
