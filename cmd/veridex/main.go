// Command veridex indexes a local document corpus and answers semantic
// search queries against it.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/veridex-labs/veridex-cli/internal/adapters/driven/config/file"
	"github.com/veridex-labs/veridex-cli/internal/adapters/driven/embedding/ollama"
	"github.com/veridex-labs/veridex-cli/internal/adapters/driven/embedding/openai"
	"github.com/veridex-labs/veridex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/veridex-labs/veridex-cli/internal/adapters/driving/cli"
	"github.com/veridex-labs/veridex-cli/internal/core/domain"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driven"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driving"
	"github.com/veridex-labs/veridex-cli/internal/core/services"
	"github.com/veridex-labs/veridex-cli/internal/corpus"
	"github.com/veridex-labs/veridex-cli/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := configStore.Config()

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	defer embedder.Close()

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening index store: %w", err)
	}
	defer store.Close()

	newService := func(dir string) *services.IndexService {
		return services.NewIndexService(
			corpus.NewDirSource(dir),
			embedder,
			services.WithStore(store),
			services.WithWorkers(cfg.Workers),
			services.WithRateLimit(cfg.RateLimit),
		)
	}

	indexService := newService(cfg.CorpusDir)
	if err := indexService.LoadPersisted(context.Background()); err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			logger.Warn("persisted index does not match the configured embedding model, run \"veridex build\"")
		} else {
			logger.Warn("could not load persisted index: %v", err)
		}
	}

	cli.SetVersion(version)
	cli.SetConfigStore(configStore)
	cli.Configure(cli.Services{
		Index:     indexService,
		CorpusDir: cfg.CorpusDir,
		Chunking: domain.ChunkingConfig{
			ChunkSize: cfg.ChunkSize,
			Overlap:   cfg.Overlap,
		},
		NewIndexForDir: func(dir string) (driving.IndexService, error) {
			return newService(dir), nil
		},
	})

	return cli.Execute()
}

// newEmbedder selects the embedding backend from configuration.
func newEmbedder(cfg file.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	case "openai":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embeddings: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}
