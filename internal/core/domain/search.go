package domain

// DefaultTopK is the number of results returned when the caller does not
// specify one.
const DefaultTopK = 3

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// TopK is the maximum number of results. Zero means DefaultTopK;
	// negative values are rejected.
	TopK int
}

// SearchResult is a single ranked hit against the index.
type SearchResult struct {
	// Chunk is the matched chunk, including its text and offsets.
	Chunk Chunk

	// DocumentURI is the origin of the chunk's parent document.
	DocumentURI string

	// DocumentTitle is the parent document's title.
	DocumentTitle string

	// Score is the cosine similarity between the query vector and the
	// chunk's embedding, in [-1, 1] with 1 meaning identical direction.
	Score float64
}
