// Package index implements the in-memory vector index: an immutable
// snapshot of chunks and their embeddings with exact cosine top-k search.
package index

import (
	"math"
	"sort"
	"time"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

// entry pairs a chunk with its parent document metadata so search results
// never need a second lookup.
type entry struct {
	chunk domain.Chunk
	doc   docRef
}

// docRef is the subset of document fields a search result carries.
type docRef struct {
	uri   string
	title string
}

// Snapshot is an immutable, fully-built index. It is published with an
// atomic pointer swap and read concurrently without locking; nothing is
// mutated after Seal.
type Snapshot struct {
	entries   []entry
	docs      map[string]docRef
	dimension int
	model     string
	chunking  domain.ChunkingConfig
	builtAt   time.Time
}

// NewSnapshot creates an empty snapshot under construction. The embedding
// dimension and model come from the embedding service used for the build.
func NewSnapshot(dimension int, model string, chunking domain.ChunkingConfig) *Snapshot {
	return &Snapshot{
		docs:      make(map[string]docRef),
		dimension: dimension,
		model:     model,
		chunking:  chunking,
	}
}

// AddDocument registers a document so its chunks can reference it.
func (s *Snapshot) AddDocument(doc domain.Document) {
	s.docs[doc.ID] = docRef{uri: doc.URI, title: doc.Title}
}

// Add inserts an embedded chunk. Only called during a build, before the
// snapshot is published.
func (s *Snapshot) Add(chunk domain.Chunk) {
	s.entries = append(s.entries, entry{chunk: chunk, doc: s.docs[chunk.DocumentID]})
}

// Seal fixes the build timestamp and orders entries by (document id,
// position) so that equal-similarity results rank deterministically.
func (s *Snapshot) Seal(builtAt time.Time) {
	sort.Slice(s.entries, func(i, j int) bool {
		a, b := s.entries[i].chunk, s.entries[j].chunk
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.Position < b.Position
	})
	s.builtAt = builtAt
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Manifest describes the snapshot.
func (s *Snapshot) Manifest() domain.IndexManifest {
	return domain.IndexManifest{
		Dimension:     s.dimension,
		Model:         s.model,
		Chunking:      s.chunking,
		DocumentCount: len(s.docs),
		ChunkCount:    len(s.entries),
		BuiltAt:       s.builtAt,
	}
}

// Dimension returns the embedding vector length for this snapshot.
func (s *Snapshot) Dimension() int {
	return s.dimension
}

// Documents returns the documents referenced by the snapshot.
func (s *Snapshot) Documents() []domain.Document {
	docs := make([]domain.Document, 0, len(s.docs))
	for id, ref := range s.docs {
		docs = append(docs, domain.Document{ID: id, URI: ref.uri, Title: ref.title})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// Chunks returns the indexed chunks in (document id, position) order.
func (s *Snapshot) Chunks() []domain.Chunk {
	chunks := make([]domain.Chunk, len(s.entries))
	for i := range s.entries {
		chunks[i] = s.entries[i].chunk
	}
	return chunks
}

// Search scans every stored vector, ranks by cosine similarity against
// the query vector, and returns the best k results. Equal scores break
// ties on the lower (document id, position) pair; entries are already in
// that order, and the sort is stable, so ties keep it. An empty snapshot
// returns an empty slice.
func (s *Snapshot) Search(query []float32, k int) []domain.SearchResult {
	if k <= 0 || len(s.entries) == 0 {
		return []domain.SearchResult{}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.entries))
	for i := range s.entries {
		scores[i] = scored{idx: i, score: CosineSimilarity(query, s.entries[i].chunk.Embedding)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]domain.SearchResult, k)
	for i := 0; i < k; i++ {
		e := s.entries[scores[i].idx]
		results[i] = domain.SearchResult{
			Chunk:         e.chunk,
			DocumentURI:   e.doc.uri,
			DocumentTitle: e.doc.title,
			Score:         scores[i].score,
		}
	}
	return results
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value in [-1, 1], where 1 means identical direction. Vectors
// of different lengths or zero magnitude score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
