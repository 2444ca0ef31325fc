package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// --- Mock implementations ---

// mockSource implements driven.DocumentSource over an in-memory corpus.
type mockSource struct {
	docs    []domain.Document
	loadErr error
}

func (m *mockSource) Load(_ context.Context) ([]domain.Document, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.docs, nil
}

func (m *mockSource) Location() string {
	return "mock://corpus"
}

// mockEmbedder implements driven.EmbeddingService deterministically:
// identical text always produces the identical vector.
type mockEmbedder struct {
	dim      int
	failText string // texts containing this substring fail
	delay    time.Duration

	mu    sync.Mutex
	calls int
}

func newMockEmbedder(dim int) *mockEmbedder {
	return &mockEmbedder{dim: dim}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failText != "" && strings.Contains(text, m.failText) {
		return nil, errors.New("embedding backend rejected text")
	}

	vec := make([]float32, m.dim)
	for i, r := range text {
		vec[i%m.dim] += float32(r)
	}
	return vec, nil
}

func (m *mockEmbedder) Dimensions() int        { return m.dim }
func (m *mockEmbedder) ModelName() string      { return "mock-embedder" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error           { return nil }

// mockStore implements driven.IndexStore in memory.
type mockStore struct {
	mu       sync.Mutex
	manifest *domain.IndexManifest
	docs     []domain.Document
	chunks   []domain.Chunk
	saveErr  error
}

func (m *mockStore) SaveIndex(_ context.Context, manifest domain.IndexManifest, docs []domain.Document, chunks []domain.Chunk) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifest = &manifest
	m.docs = docs
	m.chunks = chunks
	return nil
}

func (m *mockStore) LoadIndex(_ context.Context) (*domain.IndexManifest, []domain.Document, []domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.manifest == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	return m.manifest, m.docs, m.chunks, nil
}

func (m *mockStore) Close() error { return nil }

// --- Tests ---

var testChunking = domain.ChunkingConfig{ChunkSize: 40, Overlap: 10}

func TestIndexService_SearchBeforeBuild(t *testing.T) {
	svc := NewIndexService(&mockSource{}, newMockEmbedder(8))

	_, err := svc.Search(context.Background(), "anything", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)

	_, err = svc.Status(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestIndexService_BuildAndSearch(t *testing.T) {
	source := &mockSource{docs: []domain.Document{
		{ID: "animals.txt", URI: "/corpus/animals.txt", Title: "animals.txt",
			Content: "The quick brown fox jumps over the lazy dog. Cats sleep most of the day away."},
		{ID: "weather.txt", URI: "/corpus/weather.txt", Title: "weather.txt",
			Content: "Rain is expected tomorrow across the coast. Winds will stay light until evening."},
	}}
	svc := NewIndexService(source, newMockEmbedder(16))

	report, err := svc.Build(context.Background(), testChunking)
	require.NoError(t, err)
	assert.Equal(t, 2, report.DocumentCount)
	assert.Greater(t, report.ChunksIndexed, 2)
	assert.Empty(t, report.Failures)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.ChunksIndexed, status.ChunkCount)
	assert.Equal(t, 16, status.Dimension)
	assert.Equal(t, "mock-embedder", status.Model)

	t.Run("at most k results", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "fox", domain.SearchOptions{TopK: 2})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), 2)
	})

	t.Run("default k", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "fox", domain.SearchOptions{})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), domain.DefaultTopK)
	})

	t.Run("exact chunk text is the top hit", func(t *testing.T) {
		first, err := svc.Search(context.Background(), "rain", domain.SearchOptions{TopK: 1})
		require.NoError(t, err)
		require.Len(t, first, 1)

		results, err := svc.Search(context.Background(), first[0].Chunk.Content, domain.SearchOptions{TopK: 3})
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, first[0].Chunk.DocumentID, results[0].Chunk.DocumentID)
		assert.Equal(t, first[0].Chunk.Position, results[0].Chunk.Position)
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})

	t.Run("negative k rejected", func(t *testing.T) {
		_, err := svc.Search(context.Background(), "fox", domain.SearchOptions{TopK: -1})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestIndexService_BuildIdempotence(t *testing.T) {
	source := &mockSource{docs: []domain.Document{
		{ID: "a.txt", Content: strings.Repeat("alpha beta gamma delta epsilon zeta. ", 5)},
		{ID: "b.txt", Content: strings.Repeat("one two three four five six seven. ", 5)},
	}}

	run := func() []domain.SearchResult {
		svc := NewIndexService(source, newMockEmbedder(16))
		_, err := svc.Build(context.Background(), testChunking)
		require.NoError(t, err)
		results, err := svc.Search(context.Background(), "three four", domain.SearchOptions{TopK: 5})
		require.NoError(t, err)
		return results
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Chunk.DocumentID, second[i].Chunk.DocumentID)
		assert.Equal(t, first[i].Chunk.Position, second[i].Chunk.Position)
		assert.InDelta(t, first[i].Score, second[i].Score, 1e-9)
	}
}

func TestIndexService_EmptyCorpus(t *testing.T) {
	svc := NewIndexService(&mockSource{}, newMockEmbedder(8))

	report, err := svc.Build(context.Background(), testChunking)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ChunksIndexed)

	results, err := svc.Search(context.Background(), "anything", domain.SearchOptions{TopK: 3})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexService_MissingCorpus(t *testing.T) {
	svc := NewIndexService(&mockSource{loadErr: domain.ErrNoDocuments}, newMockEmbedder(8))

	_, err := svc.Build(context.Background(), testChunking)
	assert.ErrorIs(t, err, domain.ErrNoDocuments)

	// A failed build publishes nothing.
	_, err = svc.Search(context.Background(), "anything", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestIndexService_InvalidChunkingConfig(t *testing.T) {
	svc := NewIndexService(&mockSource{}, newMockEmbedder(8))

	_, err := svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexService_PartialEmbeddingFailure(t *testing.T) {
	source := &mockSource{docs: []domain.Document{
		{ID: "good.txt", Content: "short and harmless"},
		{ID: "bad.txt", Content: "POISON text the backend refuses"},
	}}
	embedder := newMockEmbedder(8)
	embedder.failText = "POISON"
	svc := NewIndexService(source, embedder)

	report, err := svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, report.ChunksIndexed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "bad.txt", report.Failures[0].DocumentID)
	assert.Contains(t, report.Failures[0].Reason, "rejected")
}

func TestIndexService_AllChunksFailed(t *testing.T) {
	source := &mockSource{docs: []domain.Document{
		{ID: "bad.txt", Content: "POISON everywhere in this corpus"},
	}}
	embedder := newMockEmbedder(8)
	embedder.failText = "POISON"
	svc := NewIndexService(source, embedder)

	_, err := svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	assert.ErrorIs(t, err, domain.ErrAllChunksFailed)
}

func TestIndexService_ConcurrentBuildRejected(t *testing.T) {
	source := &mockSource{docs: []domain.Document{
		{ID: "a.txt", Content: strings.Repeat("slow corpus text. ", 20)},
	}}
	embedder := newMockEmbedder(8)
	embedder.delay = 50 * time.Millisecond
	svc := NewIndexService(source, embedder, WithWorkers(1))

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := svc.Build(context.Background(), testChunking)
		done <- err
	}()

	<-started
	time.Sleep(10 * time.Millisecond)

	_, err := svc.Build(context.Background(), testChunking)
	assert.ErrorIs(t, err, domain.ErrBuildInProgress)

	require.NoError(t, <-done)

	// Once the first build finishes, a rebuild is accepted again.
	_, err = svc.Build(context.Background(), testChunking)
	assert.NoError(t, err)
}

func TestIndexService_CancelledBuildPublishesNothing(t *testing.T) {
	source := &mockSource{docs: []domain.Document{
		{ID: "a.txt", Content: strings.Repeat("text that takes a while to embed. ", 20)},
	}}
	embedder := newMockEmbedder(8)
	embedder.delay = 20 * time.Millisecond
	svc := NewIndexService(source, embedder, WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Build(ctx, testChunking)
	require.Error(t, err)

	_, err = svc.Search(context.Background(), "anything", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestIndexService_RebuildSwapsAtomically(t *testing.T) {
	first := &mockSource{docs: []domain.Document{{ID: "a.txt", Content: "original corpus content here"}}}
	svc := NewIndexService(first, newMockEmbedder(8))
	_, err := svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)

	// Readers hammer the index while it is rebuilt; every observation
	// must be internally consistent (never a partially-built index).
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				status, err := svc.Status(context.Background())
				if err != nil {
					t.Errorf("status during rebuild: %v", err)
					return
				}
				if status.ChunkCount != 1 && status.ChunkCount != 2 {
					t.Errorf("observed inconsistent chunk count %d", status.ChunkCount)
					return
				}
			}
		}()
	}

	first.docs = append(first.docs, domain.Document{ID: "b.txt", Content: "a second document for the rebuild"})
	_, err = svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)

	close(stop)
	wg.Wait()

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, status.ChunkCount)
}

func TestIndexService_Persistence(t *testing.T) {
	store := &mockStore{}
	source := &mockSource{docs: []domain.Document{
		{ID: "a.txt", URI: "/corpus/a.txt", Title: "a.txt", Content: "persist me across restarts please"},
	}}

	svc := NewIndexService(source, newMockEmbedder(8), WithStore(store))
	report, err := svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)

	t.Run("restore into a fresh service", func(t *testing.T) {
		restored := NewIndexService(source, newMockEmbedder(8), WithStore(store))
		require.NoError(t, restored.LoadPersisted(context.Background()))

		status, err := restored.Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, report.ChunksIndexed, status.ChunkCount)

		results, err := restored.Search(context.Background(), "persist me", domain.SearchOptions{TopK: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a.txt", results[0].Chunk.DocumentID)
	})

	t.Run("dimension mismatch is fatal on load", func(t *testing.T) {
		mismatched := NewIndexService(source, newMockEmbedder(16), WithStore(store))
		err := mismatched.LoadPersisted(context.Background())
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

		_, err = mismatched.Search(context.Background(), "anything", domain.SearchOptions{})
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})

	t.Run("no persisted index is a no-op", func(t *testing.T) {
		fresh := NewIndexService(source, newMockEmbedder(8), WithStore(&mockStore{}))
		require.NoError(t, fresh.LoadPersisted(context.Background()))
		_, err := fresh.Status(context.Background())
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})
}

func TestIndexService_SupersetCorpusKeepsPriorResults(t *testing.T) {
	base := []domain.Document{
		{ID: "a.txt", Content: "alpha bravo charlie delta echo"},
		{ID: "b.txt", Content: "foxtrot golf hotel india juliett"},
	}
	source := &mockSource{docs: base}
	svc := NewIndexService(source, newMockEmbedder(16))
	_, err := svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)

	before, err := svc.Search(context.Background(), "charlie delta", domain.SearchOptions{TopK: 2})
	require.NoError(t, err)

	source.docs = append(base, domain.Document{ID: "c.txt", Content: "kilo lima mike november oscar"})
	_, err = svc.Build(context.Background(), domain.ChunkingConfig{ChunkSize: 100, Overlap: 10})
	require.NoError(t, err)

	after, err := svc.Search(context.Background(), "charlie delta", domain.SearchOptions{TopK: 3})
	require.NoError(t, err)

	// Every chunk returned before is still returned from the superset.
	for _, prev := range before {
		found := false
		for _, cur := range after {
			if cur.Chunk.DocumentID == prev.Chunk.DocumentID && cur.Chunk.Position == prev.Chunk.Position {
				found = true
				break
			}
		}
		assert.True(t, found, "prior result %s/%d missing after superset rebuild", prev.Chunk.DocumentID, prev.Chunk.Position)
	}
}
