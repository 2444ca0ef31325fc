package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/veridex-labs/veridex-cli/internal/chunker"
	"github.com/veridex-labs/veridex-cli/internal/core/domain"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driven"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driving"
	"github.com/veridex-labs/veridex-cli/internal/index"
	"github.com/veridex-labs/veridex-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// DefaultBuildWorkers bounds how many embedding requests run concurrently
// during a build.
const DefaultBuildWorkers = 4

// IndexService owns the active index snapshot and implements build and
// search. The snapshot is replaced wholesale with an atomic pointer swap,
// so queries always observe either the entirely-old or the entirely-new
// index.
type IndexService struct {
	source   driven.DocumentSource
	embedder driven.EmbeddingService
	store    driven.IndexStore // optional; nil disables persistence
	workers  int
	limiter  *rate.Limiter // optional embedding throttle

	active  atomic.Pointer[index.Snapshot]
	buildMu sync.Mutex
}

// IndexOption configures the index service.
type IndexOption func(*IndexService)

// WithStore enables persistence of built indexes.
func WithStore(store driven.IndexStore) IndexOption {
	return func(s *IndexService) {
		s.store = store
	}
}

// WithWorkers sets the embedding concurrency during builds.
func WithWorkers(n int) IndexOption {
	return func(s *IndexService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRateLimit throttles embedding calls to at most rps requests per
// second, for embedding backends with rate limits.
func WithRateLimit(rps float64) IndexOption {
	return func(s *IndexService) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewIndexService creates an index service over the given corpus source
// and embedding service.
func NewIndexService(source driven.DocumentSource, embedder driven.EmbeddingService, opts ...IndexOption) *IndexService {
	s := &IndexService{
		source:   source,
		embedder: embedder,
		workers:  DefaultBuildWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadPersisted restores the last persisted index, if any, and publishes
// it. Returns domain.ErrDimensionMismatch when the persisted embedding
// dimension disagrees with the active embedding service; the index must
// then be rebuilt. Without a store, or with nothing persisted, this is a
// no-op.
func (s *IndexService) LoadPersisted(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	manifest, docs, chunks, err := s.store.LoadIndex(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("No persisted index found")
			return nil
		}
		return fmt.Errorf("load persisted index: %w", err)
	}

	if manifest.Dimension != s.embedder.Dimensions() {
		return fmt.Errorf("%w: persisted dimension %d, embedding service %q produces %d",
			domain.ErrDimensionMismatch, manifest.Dimension, s.embedder.ModelName(), s.embedder.Dimensions())
	}

	snap := index.NewSnapshot(manifest.Dimension, manifest.Model, manifest.Chunking)
	for _, doc := range docs {
		snap.AddDocument(doc)
	}
	for _, chunk := range chunks {
		snap.Add(chunk)
	}
	snap.Seal(manifest.BuiltAt)
	s.active.Store(snap)

	logger.Info("Restored persisted index: %d chunks from %d documents", snap.Len(), manifest.DocumentCount)
	return nil
}

// Build ingests the corpus and publishes a fresh index. Chunks whose
// embedding fails are skipped and recorded in the report; the build fails
// outright only when the corpus is missing or every chunk fails. Only one
// build runs at a time.
func (s *IndexService) Build(ctx context.Context, cfg domain.ChunkingConfig) (*domain.BuildReport, error) {
	splitter, err := chunker.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("chunking config: %w", err)
	}

	if !s.buildMu.TryLock() {
		return nil, domain.ErrBuildInProgress
	}
	defer s.buildMu.Unlock()

	logger.Section("Index Build")
	start := time.Now()

	docs, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	logger.Info("Corpus: %d documents from %s", len(docs), s.source.Location())

	snap := index.NewSnapshot(s.embedder.Dimensions(), s.embedder.ModelName(), cfg)
	var pending []domain.Chunk
	for i := range docs {
		snap.AddDocument(docs[i])
		chunks := splitter.Split(&docs[i])
		logger.Debug("Document %s: %d chunks", docs[i].ID, len(chunks))
		pending = append(pending, chunks...)
	}

	embedded, failures, err := s.embedAll(ctx, pending)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 && len(embedded) == 0 {
		return nil, fmt.Errorf("%w: %d chunks", domain.ErrAllChunksFailed, len(pending))
	}

	for _, chunk := range embedded {
		snap.Add(chunk)
	}
	snap.Seal(time.Now().UTC())

	if s.store != nil {
		if err := s.store.SaveIndex(ctx, snap.Manifest(), snap.Documents(), snap.Chunks()); err != nil {
			logger.Warn("Persisting index failed: %v", err)
		}
	}

	s.active.Store(snap)

	report := &domain.BuildReport{
		DocumentCount: len(docs),
		ChunksIndexed: snap.Len(),
		Failures:      failures,
		Duration:      time.Since(start),
	}
	logger.Info("Build complete: %d chunks indexed, %d failed, took %s",
		report.ChunksIndexed, len(report.Failures), report.Duration.Round(time.Millisecond))
	return report, nil
}

// embedAll embeds chunks with a bounded worker pool. A failed chunk is
// dropped and recorded; a cancelled context aborts the whole build.
func (s *IndexService) embedAll(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, []domain.ChunkFailure, error) {
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	workers := s.workers
	if workers > len(chunks) {
		workers = len(chunks)
	}

	var (
		mu       sync.Mutex
		failures []domain.ChunkFailure
	)
	embedded := make([]*domain.Chunk, len(chunks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				chunk := chunks[i]
				if s.limiter != nil {
					if err := s.limiter.Wait(ctx); err != nil {
						return
					}
				}
				vec, err := s.embedder.Embed(ctx, chunk.Content)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logger.Warn("Embedding chunk %s (doc %s, position %d) failed: %v",
						chunk.ID, chunk.DocumentID, chunk.Position, err)
					mu.Lock()
					failures = append(failures, domain.ChunkFailure{
						ChunkID:    chunk.ID,
						DocumentID: chunk.DocumentID,
						Position:   chunk.Position,
						Reason:     err.Error(),
					})
					mu.Unlock()
					continue
				}
				chunk.Embedding = vec
				embedded[i] = &chunk
			}
		}()
	}

	for i := range chunks {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		// An abandoned build publishes nothing.
		return nil, nil, err
	}

	result := make([]domain.Chunk, 0, len(chunks))
	for _, c := range embedded {
		if c != nil {
			result = append(result, *c)
		}
	}
	return result, failures, nil
}

// Search embeds the query and ranks every indexed chunk by cosine
// similarity against it.
func (s *IndexService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	k := opts.TopK
	if k == 0 {
		k = domain.DefaultTopK
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	snap := s.active.Load()
	if snap == nil {
		return nil, domain.ErrNotInitialized
	}

	logger.Section("Search Execution")
	logger.Debug("Query: %q, k=%d, index size=%d", query, k, snap.Len())

	// An empty index answers without touching the embedding service.
	if snap.Len() == 0 {
		return []domain.SearchResult{}, nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results := snap.Search(vec, k)
	logger.Info("Search returned %d results", len(results))
	return results, nil
}

// Status reports the manifest of the published index.
func (s *IndexService) Status(_ context.Context) (*domain.IndexManifest, error) {
	snap := s.active.Load()
	if snap == nil {
		return nil, domain.ErrNotInitialized
	}
	manifest := snap.Manifest()
	return &manifest, nil
}
