// Package corpus loads documents from a local directory and watches it
// for changes.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driven"
	"github.com/veridex-labs/veridex-cli/internal/logger"
)

// Ensure DirSource implements the interface.
var _ driven.DocumentSource = (*DirSource)(nil)

// DefaultExtensions are the file extensions loaded when none are
// configured.
var DefaultExtensions = []string{".txt", ".md"}

// DirSource loads every matching file under a root directory as a
// document. Document IDs are the slash-separated path relative to the
// root, which keeps IDs stable across rebuilds of the same corpus.
type DirSource struct {
	root       string
	extensions map[string]bool
}

// NewDirSource creates a loader for the given directory.
// If extensions is empty, DefaultExtensions is used.
func NewDirSource(root string, extensions ...string) *DirSource {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}
	return &DirSource{root: root, extensions: extSet}
}

// Location describes where documents come from.
func (s *DirSource) Location() string {
	return s.root
}

// Load walks the corpus directory and reads every matching file.
// A missing directory yields domain.ErrNoDocuments wrapped with the
// location. A directory that exists but holds no matching files loads
// successfully as an empty corpus.
func (s *DirSource) Load(ctx context.Context) ([]domain.Document, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoDocuments, s.root)
		}
		return nil, fmt.Errorf("stat corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, s.root)
	}

	var docs []domain.Document
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Skip hidden directories such as .git.
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		docs = append(docs, domain.Document{
			ID:         rel,
			URI:        path,
			Title:      filepath.Base(path),
			Content:    string(content),
			IngestedAt: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus directory: %w", err)
	}

	logger.Debug("Loaded %d documents from %s", len(docs), s.root)
	return docs, nil
}
