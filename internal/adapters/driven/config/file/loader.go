// Package file loads pipeline configuration from a TOML file, with
// defaults applied for anything the file leaves unset. Secrets such as
// API keys stay out of the file and come from the environment, with .env
// files honoured for local development.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// fileConfig mirrors the TOML layout. Pointer fields distinguish "unset"
// from zero so the file only needs to name what it overrides.
type fileConfig struct {
	Embedding struct {
		Provider          *string  `toml:"provider"`
		Model             *string  `toml:"model"`
		Dimensions        *int     `toml:"dimensions"`
		BatchSize         *int     `toml:"batch_size"`
		MaxRetries        *int     `toml:"max_retries"`
		TimeoutSeconds    *int     `toml:"timeout_seconds"`
		RequestsPerSecond *float64 `toml:"requests_per_second"`
	} `toml:"embedding"`

	Chunking struct {
		Size    *int `toml:"size"`
		Overlap *int `toml:"overlap"`
	} `toml:"chunking"`

	Retrieval struct {
		MaxResults    *int     `toml:"max_results"`
		MinSimilarity *float64 `toml:"min_similarity"`
		GraphDamping  *float64 `toml:"graph_damping"`
	} `toml:"retrieval"`

	Storage struct {
		VectorBackend *string `toml:"vector_backend"`
		DataDir       *string `toml:"data_dir"`
	} `toml:"storage"`
}

// Load reads configuration from configPath and returns a validated
// domain.Config. If configPath is empty, ~/.corpus/config.toml is used; a
// missing file yields the defaults. A .env file in the working directory
// is loaded into the environment if present.
func Load(configPath string) (domain.Config, error) {
	// Missing .env is fine; explicit files are the exception.
	_ = godotenv.Load()

	cfg := domain.DefaultConfig()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return domain.Config{}, fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".corpus", "config.toml")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Validate(); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return domain.Config{}, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, configPath, err)
	}

	apply(&cfg, fc)

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// apply copies set fields from the file over the defaults.
func apply(cfg *domain.Config, fc fileConfig) {
	if fc.Embedding.Provider != nil {
		cfg.EmbeddingProvider = *fc.Embedding.Provider
	}
	if fc.Embedding.Model != nil {
		cfg.EmbeddingModel = *fc.Embedding.Model
	}
	if fc.Embedding.Dimensions != nil {
		cfg.Dimensions = *fc.Embedding.Dimensions
	}
	if fc.Embedding.BatchSize != nil {
		cfg.BatchSize = *fc.Embedding.BatchSize
	}
	if fc.Embedding.MaxRetries != nil {
		cfg.MaxRetries = *fc.Embedding.MaxRetries
	}
	if fc.Embedding.TimeoutSeconds != nil {
		cfg.EmbedTimeout = time.Duration(*fc.Embedding.TimeoutSeconds) * time.Second
	}
	if fc.Embedding.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *fc.Embedding.RequestsPerSecond
	}
	if fc.Chunking.Size != nil {
		cfg.ChunkSize = *fc.Chunking.Size
	}
	if fc.Chunking.Overlap != nil {
		cfg.ChunkOverlap = *fc.Chunking.Overlap
	}
	if fc.Retrieval.MaxResults != nil {
		cfg.MaxResults = *fc.Retrieval.MaxResults
	}
	if fc.Retrieval.MinSimilarity != nil {
		cfg.MinSimilarity = *fc.Retrieval.MinSimilarity
	}
	if fc.Retrieval.GraphDamping != nil {
		cfg.GraphDamping = *fc.Retrieval.GraphDamping
	}
	if fc.Storage.VectorBackend != nil {
		cfg.VectorBackend = *fc.Storage.VectorBackend
	}
	if fc.Storage.DataDir != nil {
		cfg.DataDir = *fc.Storage.DataDir
	}
}

// APIKey returns the OpenAI API key from the environment.
func APIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
