// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// StatusLoaded carries the index manifest back to the model.
type StatusLoaded struct {
	Manifest *domain.IndexManifest
	Err      error
}
