// Package chunker splits document text into bounded, overlapping chunks.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters between
// consecutive chunks.
const DefaultOverlap = 150

// Splitter splits document content into overlapping chunks.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a splitter for the given chunking configuration.
// The configuration is validated before any splitting happens: a
// non-positive chunk size or an overlap that is not smaller than the
// chunk size is rejected with domain.ErrInvalidInput.
func New(cfg domain.ChunkingConfig) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.Overlap,
	}, nil
}

// Config returns the splitter's chunking configuration.
func (s *Splitter) Config() domain.ChunkingConfig {
	return domain.ChunkingConfig{ChunkSize: s.chunkSize, Overlap: s.overlap}
}

// Split chunks the document content in order. Every chunk is at most
// chunkSize characters long, consecutive chunks of the same document share
// an overlap-sized region, and the chunks cover the entire content.
// Empty content produces no chunks. Offsets are byte offsets into the
// content.
func (s *Splitter) Split(doc *domain.Document) []domain.Chunk {
	content := doc.Content
	if content == "" {
		return nil
	}

	contentLen := len(content)
	estimated := contentLen/(s.chunkSize-s.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	start := 0

	for start < contentLen {
		end := start + s.chunkSize
		if end >= contentLen {
			end = contentLen
		} else {
			end = s.snapToBoundary(content, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			Content:     content[start:end],
			Position:    position,
			StartOffset: start,
			EndOffset:   end,
		})
		position++

		if end >= contentLen {
			break
		}

		// Step back by the overlap so adjacent chunks share a region.
		next := end - s.overlap
		if next <= start {
			// A boundary-shortened chunk can be smaller than the
			// overlap; forfeit the overlap to guarantee progress.
			next = end
		}
		start = next
	}

	return chunks
}

// snapToBoundary moves a hard cut backwards to the nearest natural break:
// paragraph first, then sentence, then word. A candidate break is only
// accepted in the second half of the chunk so chunks never collapse to a
// few characters. Falls back to the hard cut when no break qualifies.
func (s *Splitter) snapToBoundary(content string, start, end int) int {
	window := content[start:end]
	min := len(window) / 2

	if i := strings.LastIndex(window, "\n\n"); i > min {
		return start + i + 2
	}
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(window, sep); i > min {
			return start + i + len(sep)
		}
	}
	// Hard cut already lands between words.
	if window[len(window)-1] == ' ' || content[end] == ' ' {
		return end
	}
	if i := strings.LastIndexByte(window, ' '); i > min {
		return start + i + 1
	}
	return end
}
