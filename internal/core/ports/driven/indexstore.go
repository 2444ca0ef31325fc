package driven

import (
	"context"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// IndexStore persists a built index across process restarts.
// Backed by SQLite.
type IndexStore interface {
	// SaveIndex replaces all persisted contents with the given documents,
	// chunks and manifest in a single transaction.
	SaveIndex(ctx context.Context, manifest domain.IndexManifest, docs []domain.Document, chunks []domain.Chunk) error

	// LoadIndex reads the persisted manifest, documents and chunks.
	// Returns domain.ErrNotFound when nothing has been persisted yet.
	LoadIndex(ctx context.Context) (*domain.IndexManifest, []domain.Document, []domain.Chunk, error)

	// Close releases resources.
	Close() error
}
