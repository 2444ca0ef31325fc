package driving

import (
	"context"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// IndexService exposes the document index to external actors.
type IndexService interface {
	// Build ingests the corpus, chunks and embeds every document, and
	// atomically publishes the resulting index. A second Build while one
	// is running fails with domain.ErrBuildInProgress.
	Build(ctx context.Context, cfg domain.ChunkingConfig) (*domain.BuildReport, error)

	// Search returns the top-k chunks most similar to the query, best
	// match first. Fails with domain.ErrNotInitialized before the first
	// completed build.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Status reports the manifest of the currently published index.
	// Fails with domain.ErrNotInitialized when no index is published.
	Status(ctx context.Context) (*domain.IndexManifest, error)
}
