package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, such as a
	// chunk overlap that is not smaller than the chunk size, or a
	// non-positive top-k.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized indicates that search was attempted before any
	// build has completed. It is distinct from an empty corpus, which is
	// a valid queryable state that simply returns no results.
	ErrNotInitialized = errors.New("index not initialized")

	// ErrBuildInProgress indicates a build is already running.
	// The caller may retry once the running build finishes.
	ErrBuildInProgress = errors.New("build in progress")

	// ErrNoDocuments indicates the corpus contained no loadable documents,
	// so there is nothing to build an index from.
	ErrNoDocuments = errors.New("no documents found")

	// ErrAllChunksFailed indicates every chunk failed embedding during a
	// build. A build with zero successful chunks is not published.
	ErrAllChunksFailed = errors.New("all chunks failed embedding")

	// ErrDimensionMismatch indicates a persisted index was produced with
	// an embedding dimension that disagrees with the active embedding
	// service. The index must be rebuilt.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
