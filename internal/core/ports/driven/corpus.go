package driven

import (
	"context"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// DocumentSource loads raw documents from a corpus location.
// Backed by the filesystem loader; the index never reads files itself.
type DocumentSource interface {
	// Load reads all documents from the source. An empty slice with a nil
	// error means the location exists but contains no documents.
	Load(ctx context.Context) ([]domain.Document, error)

	// Location describes where documents come from, for reporting.
	Location() string
}
