package domain

import "time"

// Document represents a single source of raw text, typically a file from
// the corpus directory. Documents are immutable once ingested; rebuilding
// the index replaces all chunks derived from them.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title, usually the file name.
	Title string

	// Content is the full raw text before chunking.
	Content string

	// IngestedAt is when the document was read from its source.
	IngestedAt time.Time
}

// Chunk is a bounded-length substring of a document and the unit of
// retrieval. Consecutive chunks from the same document overlap by the
// configured overlap length.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// StartOffset is the chunk's starting character offset in the
	// document content.
	StartOffset int

	// EndOffset is the exclusive end offset, so that
	// Content == document.Content[StartOffset:EndOffset].
	EndOffset int

	// Embedding is the vector representation used for similarity search.
	// It is populated during the build and never mutated afterwards.
	Embedding []float32
}
