package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvid0/corvid/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// NewVersionCmd creates the version command (factory pattern).
func NewVersionCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and configuration information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cfg)
		},
	}
}

func runVersion(cfg *config.Config) error {
	fmt.Printf("Corvid %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", cfg.FullModelName())
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Chunking: %d chars, %d overlap\n", cfg.ChunkSize, cfg.ChunkOverlap)
	fmt.Printf("  Retrieval: base_k=%d, top_n=%d\n", cfg.BaseK, cfg.TopN)
	fmt.Printf("  Database: %s:%d/%s\n", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
	if cfg.Rerank.BaseURL != "" {
		fmt.Printf("  Rerank: %s (%s)\n", cfg.Rerank.BaseURL, cfg.Rerank.Model)
	} else {
		fmt.Println("  Rerank: disabled")
	}

	// Check API keys from environment (never print full values)
	printKeyStatus("GEMINI_API_KEY")
	printKeyStatus("TAVILY_API_KEY")

	return nil
}

func printKeyStatus(name string) {
	key := os.Getenv(name)
	if key == "" {
		fmt.Printf("  %s: Not set\n", name)
		return
	}
	if len(key) < 8 {
		fmt.Printf("  %s: (configured)\n", name)
		return
	}
	fmt.Printf("  %s: %s...%s (configured)\n", name, key[:4], key[len(key)-4:])
}
