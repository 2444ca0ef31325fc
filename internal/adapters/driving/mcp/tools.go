package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/veridex-labs/veridex-cli/internal/chunker"
	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query to match against indexed chunks"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 3)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	URI        string  `json:"uri"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// BuildInput is the input schema for the build_index tool.
type BuildInput struct {
	ChunkSize int `json:"chunk_size,omitempty" jsonschema:"maximum chunk length in bytes (default 1000)"`
	Overlap   int `json:"overlap,omitempty" jsonschema:"bytes shared between adjacent chunks (default 150)"`
}

// BuildOutput is the output schema for the build_index tool.
type BuildOutput struct {
	Documents     int    `json:"documents"`
	ChunksIndexed int    `json:"chunks_indexed"`
	ChunksFailed  int    `json:"chunks_failed"`
	Duration      string `json:"duration"`
}

// StatusOutput is the output schema for the index_status tool.
type StatusOutput struct {
	Initialized bool   `json:"initialized"`
	Documents   int    `json:"documents,omitempty"`
	Chunks      int    `json:"chunks,omitempty"`
	Dimension   int    `json:"dimension,omitempty"`
	Model       string `json:"model,omitempty"`
	BuiltAt     string `json:"built_at,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the document index for chunks similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_index",
		Description: "Rebuild the document index from the configured corpus",
	}, s.handleBuild)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the state of the document index",
	}, s.handleStatus)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{TopK: input.TopK}
	results, err := s.ports.Index.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID: results[i].Chunk.DocumentID,
			Title:      results[i].DocumentTitle,
			URI:        results[i].DocumentURI,
			Position:   results[i].Chunk.Position,
			Score:      results[i].Score,
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleBuild handles the build_index tool invocation.
func (s *Server) handleBuild(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildInput,
) (*mcp.CallToolResult, BuildOutput, error) {
	cfg := domain.ChunkingConfig{
		ChunkSize: input.ChunkSize,
		Overlap:   input.Overlap,
	}
	if input.ChunkSize == 0 && input.Overlap == 0 {
		cfg = domain.ChunkingConfig{
			ChunkSize: chunker.DefaultChunkSize,
			Overlap:   chunker.DefaultOverlap,
		}
	} else if cfg.ChunkSize == 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
	}

	report, err := s.ports.Index.Build(ctx, cfg)
	if err != nil {
		return nil, BuildOutput{}, err
	}

	return nil, BuildOutput{
		Documents:     report.DocumentCount,
		ChunksIndexed: report.ChunksIndexed,
		ChunksFailed:  len(report.Failures),
		Duration:      report.Duration.Round(time.Millisecond).String(),
	}, nil
}

// handleStatus handles the index_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatusOutput, error) {
	manifest, err := s.ports.Index.Status(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotInitialized) {
			return nil, StatusOutput{Initialized: false}, nil
		}
		return nil, StatusOutput{}, err
	}

	return nil, StatusOutput{
		Initialized: true,
		Documents:   manifest.DocumentCount,
		Chunks:      manifest.ChunkCount,
		Dimension:   manifest.Dimension,
		Model:       manifest.Model,
		BuiltAt:     manifest.BuiltAt.Format(time.RFC3339),
	}, nil
}
