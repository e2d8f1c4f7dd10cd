package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the PostgreSQL sslmode values pgx accepts.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration for out-of-range values. It fails fast:
// the first violation is returned.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
	default:
		return fmt.Errorf("%w: %q (supported: %s, %s)",
			ErrInvalidProvider, c.Provider, ProviderGemini, ProviderGoogleAI)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be non-negative and smaller than chunk_size %d",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	if c.BaseK <= 0 {
		return fmt.Errorf("%w: base_k must be positive, got %d", ErrInvalidRetrieval, c.BaseK)
	}
	if c.TopN <= 0 || c.TopN > c.BaseK {
		return fmt.Errorf("%w: top_n %d must be positive and at most base_k %d",
			ErrInvalidRetrieval, c.TopN, c.BaseK)
	}

	if c.MaxSteps <= 0 || c.MaxSteps > 100 {
		return fmt.Errorf("%w: max_steps must be in 1..100, got %d", ErrInvalidAgent, c.MaxSteps)
	}
	if c.MaxHistory <= 0 {
		return fmt.Errorf("%w: max_history must be positive, got %d", ErrInvalidAgent, c.MaxHistory)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port must be in 1..65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}
