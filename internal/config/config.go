// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.corvid/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, embedder model
//   - Retrieval: chunking sizes, candidate counts, reranking service
//   - Agent: step ceiling, history window
//   - Storage: PostgreSQL connection
//   - Web: Tavily search credentials, crawler politeness
//
// Security: secrets are never logged; MarshalJSON and String mask them.
// Validation: range checks with sentinel errors for errors.Is checking.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidChunking indicates chunk size or overlap is out of range.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidRetrieval indicates candidate counts are out of range.
	ErrInvalidRetrieval = errors.New("invalid retrieval configuration")

	// ErrInvalidAgent indicates agent loop limits are out of range.
	ErrInvalidAgent = errors.New("invalid agent configuration")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

// DefaultEmbedderModel is the default Gemini embedder model.
// gemini-embedding-001 supports truncation to 768 dimensions, matching the
// pgvector schema in db/migrations.
const DefaultEmbedderModel = "gemini-embedding-001"

// RerankConfig holds the optional reranking service settings. Reranking is
// enabled when BaseURL is non-empty.
type RerankConfig struct {
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	Model   string `mapstructure:"model" json:"model"`
	APIKey  string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
}

// TavilyConfig holds web search settings. Search tools are enabled when
// APIKey is non-empty.
type TavilyConfig struct {
	APIKey  string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in MarshalJSON
	BaseURL string `mapstructure:"base_url" json:"base_url"`
}

// WebScraperConfig holds crawler politeness settings.
type WebScraperConfig struct {
	// Parallelism is max concurrent requests per domain (default: 2)
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`
	// DelayMs is delay between requests in milliseconds (default: 1000)
	DelayMs int `mapstructure:"delay_ms" json:"delay_ms"`
	// TimeoutMs is request timeout in milliseconds (default: 30000)
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Chunking configuration
	ChunkSize    int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval configuration
	BaseK int `mapstructure:"base_k" json:"base_k"`
	TopN  int `mapstructure:"top_n" json:"top_n"`

	// Agent loop configuration
	MaxSteps   int `mapstructure:"max_steps" json:"max_steps"`
	MaxHistory int `mapstructure:"max_history" json:"max_history"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Service configuration
	Rerank     RerankConfig     `mapstructure:"rerank" json:"rerank"`
	Tavily     TavilyConfig     `mapstructure:"tavily" json:"tavily"`
	WebScraper WebScraperConfig `mapstructure:"web_scraper" json:"web_scraper"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".corvid")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, when set, overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	viper.SetDefault("chunk_size", 400)
	viper.SetDefault("chunk_overlap", 75)

	viper.SetDefault("base_k", 20)
	viper.SetDefault("top_n", 5)

	viper.SetDefault("max_steps", 10)
	viper.SetDefault("max_history", 20)

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "corvid")
	viper.SetDefault("postgres_password", "corvid_dev_password")
	viper.SetDefault("postgres_db_name", "corvid")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("rerank.model", "ms-marco-MiniLM-L-12-v2")
	viper.SetDefault("tavily.base_url", "https://api.tavily.com")

	viper.SetDefault("web_scraper.parallelism", 2)
	viper.SetDefault("web_scraper.delay_ms", 1000)
	viper.SetDefault("web_scraper.timeout_ms", 30000)
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "CORVID_PROVIDER")
	mustBind("model_name", "CORVID_MODEL_NAME")
	mustBind("embedder_model", "CORVID_EMBEDDER_MODEL")

	mustBind("tavily.api_key", "TAVILY_API_KEY")
	mustBind("rerank.api_key", "RERANK_API_KEY")
	mustBind("rerank.base_url", "CORVID_RERANK_URL")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid substring matches against the real secret.
const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked; longer ones keep two characters at each end for debug utility.
// This defends against accidental logging, not compromised logs.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.Tavily.APIKey = maskSecret(a.Tavily.APIKey)
	a.Rerank.APIKey = maskSecret(a.Rerank.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit, e.g.
// "googleai/gemini-2.5-flash". A name already containing "/" passes through.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
