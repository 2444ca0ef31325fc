package mcp

import (
	"context"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	report   *domain.BuildReport
	results  []domain.SearchResult
	manifest *domain.IndexManifest
	err      error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastCfg   domain.ChunkingConfig
}

func (m *mockIndexService) Build(_ context.Context, cfg domain.ChunkingConfig) (*domain.BuildReport, error) {
	m.lastCfg = cfg
	return m.report, m.err
}

func (m *mockIndexService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockIndexService) Status(_ context.Context) (*domain.IndexManifest, error) {
	return m.manifest, m.err
}
