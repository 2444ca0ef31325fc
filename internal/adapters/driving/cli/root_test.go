package cli

import (
	"context"
	"time"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	report   *domain.BuildReport
	results  []domain.SearchResult
	manifest *domain.IndexManifest
	err      error

	lastCfg   domain.ChunkingConfig
	lastQuery string
	lastOpts  domain.SearchOptions
}

func (m *mockIndexService) Build(_ context.Context, cfg domain.ChunkingConfig) (*domain.BuildReport, error) {
	m.lastCfg = cfg
	return m.report, m.err
}

func (m *mockIndexService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockIndexService) Status(_ context.Context) (*domain.IndexManifest, error) {
	return m.manifest, m.err
}

// setupTestServices wires mock services and returns a cleanup func.
func setupTestServices() func() {
	old := services
	services = Services{
		Index:     defaultMockIndex(),
		CorpusDir: "/tmp/corpus",
	}
	return func() { services = old }
}

func defaultMockIndex() *mockIndexService {
	return &mockIndexService{
		report: &domain.BuildReport{
			DocumentCount: 2,
			ChunksIndexed: 8,
			Duration:      120 * time.Millisecond,
		},
		results: []domain.SearchResult{
			{
				Chunk:         domain.Chunk{DocumentID: "a.md", Position: 0, Content: "alpha chunk text"},
				DocumentTitle: "a.md",
				DocumentURI:   "/corpus/a.md",
				Score:         0.91,
			},
		},
		manifest: &domain.IndexManifest{
			Dimension:     768,
			Model:         "nomic-embed-text",
			Chunking:      domain.ChunkingConfig{ChunkSize: 1000, Overlap: 150},
			DocumentCount: 2,
			ChunkCount:    8,
			BuiltAt:       time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		},
	}
}
