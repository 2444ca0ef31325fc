// Package file provides TOML-backed configuration stored in the veridex
// config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// EmbeddingConfig selects and configures the embedding backend.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai" (default: ollama).
	Provider string `toml:"provider"`

	// Model is the embedding model name. Empty means the provider default.
	Model string `toml:"model,omitempty"`

	// BaseURL overrides the provider API endpoint.
	BaseURL string `toml:"base_url,omitempty"`

	// APIKey authenticates against hosted providers. The
	// VERIDEX_API_KEY environment variable takes precedence.
	APIKey string `toml:"api_key,omitempty"`

	// Dimensions overrides the embedding vector size.
	Dimensions int `toml:"dimensions,omitempty"`
}

// Config holds all veridex settings.
type Config struct {
	// CorpusDir is the directory of documents to index.
	CorpusDir string `toml:"corpus_dir,omitempty"`

	// ChunkSize is the maximum chunk length in bytes.
	ChunkSize int `toml:"chunk_size,omitempty"`

	// Overlap is the number of bytes shared between adjacent chunks.
	Overlap int `toml:"overlap,omitempty"`

	// DataDir is where the index database lives (default: ~/.veridex/data).
	DataDir string `toml:"data_dir,omitempty"`

	// Workers bounds concurrent embedding requests during a build.
	Workers int `toml:"workers,omitempty"`

	// RateLimit caps embedding requests per second. Zero disables the cap.
	RateLimit float64 `toml:"rate_limit,omitempty"`

	Embedding EmbeddingConfig `toml:"embedding"`
}

// Store persists a Config as TOML under the veridex config directory.
type Store struct {
	mu       sync.RWMutex
	filePath string
	config   Config
}

// NewStore creates a config store rooted at configDir.
// If configDir is empty, defaults to ~/.veridex.
func NewStore(configDir string) (*Store, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".veridex")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &Store{
		filePath: filepath.Join(configDir, "config.toml"),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.filePath
}

// Config returns a copy of the current configuration with environment
// overrides applied.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.config
	if key := os.Getenv("VERIDEX_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
	}
	return cfg
}

// Update replaces the stored configuration and persists it immediately.
func (s *Store) Update(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = cfg
	return s.save()
}

// Load reads configuration from the TOML file. A missing file is not an
// error; the store starts with zero values and provider defaults apply.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.config = Config{}
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	var loaded Config
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	s.config = loaded
	return nil
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *Store) save() error {
	data, err := toml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	// Restricted permissions, the file may hold an API key.
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
