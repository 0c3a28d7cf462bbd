// Package cli implements the corpus command-line interface. Commands are
// thin adapters: they parse flags, call the driving ports and render the
// results. All wiring happens once in the root command's PersistentPreRunE.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/corpus/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/corpus/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/corpus/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/corpus/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/corpus/internal/adapters/driven/llm/openai"
	memstorage "github.com/custodia-labs/corpus/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpus/internal/adapters/driven/storage/sqlite"
	chromemvec "github.com/custodia-labs/corpus/internal/adapters/driven/vectorstore/chromem"
	memvec "github.com/custodia-labs/corpus/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/corpus/internal/chunker"
	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/core/services"
	"github.com/custodia-labs/corpus/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	verboseFlag bool
	configFlag  string
	backendFlag string
	userFlag    string
)

// Wired services, shared by all commands. Tests swap these for mocks.
var (
	cfg               domain.Config
	documentService   driving.DocumentService
	collectionService driving.CollectionService
	retrievalService  driving.Retriever
	chatService       driving.ChatService
	docStore          driven.DocumentStore
	relationshipStore driven.RelationshipStore
)

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Local document knowledge base with semantic retrieval",
	Long: `Corpus ingests documents into an embedded knowledge base and serves
semantic retrieval and grounded chat over them.

Documents are split into overlapping chunks, embedded, and stored in a
vector store. Queries are embedded the same way and answered from the
most similar chunks, with citations back to the source documents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file path (default ~/.corpus/config.toml)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "vector backend override: memory, sqlite or chromem")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "scope operations to this user id")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices loads config and wires the adapter stack into the core
// services. Called once per invocation.
func initServices() error {
	if documentService != nil {
		// Already wired (or swapped in by a test).
		return nil
	}

	loaded, err := configfile.Load(configFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if backendFlag != "" {
		loaded.VectorBackend = backendFlag
		if err := loaded.Validate(); err != nil {
			return err
		}
	}
	cfg = loaded

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	stores, err := buildStores(cfg)
	if err != nil {
		return err
	}
	docStore = stores.documents
	relationshipStore = stores.relationships

	splitter, err := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)
	if err != nil {
		return err
	}

	ingestor := services.NewIngestionService(stores.documents, stores.vectors, embedder, splitter, cfg)
	retrievalService = services.NewRetrievalService(
		stores.documents, stores.collections, stores.vectors, embedder, stores.relationships, cfg)
	documentService = services.NewDocumentService(stores.documents, stores.vectors, ingestor)
	collectionService = services.NewCollectionService(stores.collections, stores.documents)
	chatService = services.NewChatAnswerer(retrievalService, buildLLM(cfg))

	return nil
}

// storeSet bundles the driven storage ports for one backend choice.
type storeSet struct {
	documents     driven.DocumentStore
	collections   driven.CollectionStore
	relationships driven.RelationshipStore
	vectors       driven.VectorStore
}

// buildStores selects the storage backend. The chromem backend keeps
// relational data in SQLite and only moves the vectors.
func buildStores(cfg domain.Config) (storeSet, error) {
	switch cfg.VectorBackend {
	case "memory":
		vectors, err := memvec.NewStore(cfg.Dimensions)
		if err != nil {
			return storeSet{}, err
		}
		return storeSet{
			documents:     memstorage.NewDocumentStore(),
			collections:   memstorage.NewCollectionStore(),
			relationships: memstorage.NewRelationshipStore(),
			vectors:       vectors,
		}, nil

	case "sqlite":
		store, err := sqlite.NewStore(cfg.DataDir, cfg.Dimensions)
		if err != nil {
			return storeSet{}, err
		}
		return storeSet{
			documents:     store.DocumentStore(),
			collections:   store.CollectionStore(),
			relationships: store.RelationshipStore(),
			vectors:       store.VectorStore(),
		}, nil

	case "chromem":
		store, err := sqlite.NewStore(cfg.DataDir, cfg.Dimensions)
		if err != nil {
			return storeSet{}, err
		}
		vectors, err := chromemvec.NewStore(chromemPath(cfg.DataDir), cfg.Dimensions)
		if err != nil {
			return storeSet{}, err
		}
		return storeSet{
			documents:     store.DocumentStore(),
			collections:   store.CollectionStore(),
			relationships: store.RelationshipStore(),
			vectors:       vectors,
		}, nil

	default:
		return storeSet{}, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidConfig, cfg.VectorBackend)
	}
}

// chromemPath places the chromem files next to the SQLite database.
func chromemPath(dataDir string) string {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "chromem"
		}
		dataDir = filepath.Join(home, ".corpus", "data")
	}
	return filepath.Join(dataDir, "chromem")
}

// buildEmbedder selects the embedding provider.
func buildEmbedder(cfg domain.Config) (driven.EmbeddingService, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            configfile.APIKey(),
			Model:             cfg.EmbeddingModel,
			Timeout:           cfg.EmbedTimeout,
			Dimensions:        cfg.Dimensions,
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			Model:      cfg.EmbeddingModel,
			Timeout:    cfg.EmbedTimeout,
			Dimensions: cfg.Dimensions,
			MaxRetries: cfg.MaxRetries,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidConfig, cfg.EmbeddingProvider)
	}
}

// buildLLM returns the chat model for the configured provider, or nil when
// none is available. Chat degrades to returning passages without one.
func buildLLM(cfg domain.Config) driven.LLMService {
	switch cfg.EmbeddingProvider {
	case "openai":
		apiKey := configfile.APIKey()
		if apiKey == "" {
			return nil
		}
		llm, err := openaillm.NewLLMService(openaillm.LLMConfig{APIKey: apiKey})
		if err != nil {
			logger.Warn("LLM unavailable: %v", err)
			return nil
		}
		return llm
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.LLMConfig{})
	default:
		return nil
	}
}
