package domain

import "time"

// ChunkingConfig holds the parameters used to split documents.
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// Overlap is the number of characters shared between consecutive
	// chunks of the same document. Must be smaller than ChunkSize.
	Overlap int
}

// Validate checks the chunking parameters before any work starts.
func (c ChunkingConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return ErrInvalidInput
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return ErrInvalidInput
	}
	return nil
}

// IndexManifest describes a built index: what was indexed, with which
// embedding model, and when. It is persisted alongside the chunks and
// checked on load.
type IndexManifest struct {
	// Dimension is the embedding vector length.
	Dimension int

	// Model is the embedding model name recorded at build time.
	Model string

	// Chunking is the configuration the chunks were produced with.
	Chunking ChunkingConfig

	// DocumentCount is the number of documents in the index.
	DocumentCount int

	// ChunkCount is the number of chunks in the index.
	ChunkCount int

	// BuiltAt is when the build completed.
	BuiltAt time.Time
}

// ChunkFailure records a single chunk that could not be embedded during a
// build. Failures do not abort the build unless every chunk fails.
type ChunkFailure struct {
	// ChunkID identifies the failed chunk.
	ChunkID string

	// DocumentID identifies the chunk's parent document.
	DocumentID string

	// Position is the chunk's ordinal position within the document.
	Position int

	// Reason is the embedding error message.
	Reason string
}

// BuildReport summarises a completed build.
type BuildReport struct {
	// DocumentCount is the number of documents loaded from the corpus.
	DocumentCount int

	// ChunksIndexed is the number of chunks successfully embedded and
	// added to the index.
	ChunksIndexed int

	// Failures lists chunks that were skipped because embedding failed.
	Failures []ChunkFailure

	// Duration is the wall-clock build time.
	Duration time.Duration
}
