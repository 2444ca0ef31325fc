package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridex-labs/veridex-cli/internal/chunker"
	"github.com/veridex-labs/veridex-cli/internal/core/domain"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driving"
	"github.com/veridex-labs/veridex-cli/internal/corpus"
	"github.com/veridex-labs/veridex-cli/internal/logger"
)

var (
	buildChunkSize int
	buildOverlap   int
	buildWatch     bool
)

var buildCmd = &cobra.Command{
	Use:   "build [corpus-dir]",
	Short: "Build the search index from a document corpus",
	Long: `Chunks every document in the corpus directory, embeds the chunks and
publishes the index. The previous index stays queryable until the new
one is complete.

Without an argument the configured corpus directory is used.
With --watch the index is rebuilt whenever the corpus changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildChunkSize, "chunk-size", chunker.DefaultChunkSize, "maximum chunk length in bytes")
	buildCmd.Flags().IntVar(&buildOverlap, "overlap", chunker.DefaultOverlap, "bytes shared between adjacent chunks")
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false, "rebuild whenever the corpus changes")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	svc := services.Index
	dir := services.CorpusDir

	if len(args) > 0 {
		if services.NewIndexForDir == nil {
			return errors.New("index service not configured")
		}
		dir = args[0]
		var err error
		svc, err = services.NewIndexForDir(dir)
		if err != nil {
			return fmt.Errorf("opening corpus %s: %w", dir, err)
		}
	}

	if svc == nil {
		return errors.New("index service not configured")
	}

	cfg := resolveChunking(cmd)

	ctx := context.Background()
	if err := buildOnce(ctx, cmd, svc, cfg); err != nil {
		return err
	}

	if !buildWatch {
		return nil
	}
	return watchAndRebuild(cmd, svc, dir, cfg)
}

// resolveChunking layers flag overrides on top of the configured defaults.
func resolveChunking(cmd *cobra.Command) domain.ChunkingConfig {
	cfg := domain.ChunkingConfig{
		ChunkSize: chunker.DefaultChunkSize,
		Overlap:   chunker.DefaultOverlap,
	}
	if services.Chunking.ChunkSize > 0 {
		cfg = services.Chunking
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = buildChunkSize
	}
	if cmd.Flags().Changed("overlap") {
		cfg.Overlap = buildOverlap
	}
	return cfg
}

func buildOnce(ctx context.Context, cmd *cobra.Command, svc driving.IndexService, cfg domain.ChunkingConfig) error {
	report, err := svc.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks from %d documents in %s.\n",
		report.ChunksIndexed, report.DocumentCount, report.Duration.Round(time.Millisecond))

	if len(report.Failures) > 0 {
		cmd.Printf("%d chunks failed to embed:\n", len(report.Failures))
		for _, f := range report.Failures {
			cmd.Printf("  %s (chunk %d): %s\n", f.DocumentID, f.Position, f.Reason)
		}
	}
	return nil
}

// watchAndRebuild blocks, rebuilding the index each time the corpus
// directory changes, until interrupted.
func watchAndRebuild(cmd *cobra.Command, svc driving.IndexService, dir string, cfg domain.ChunkingConfig) error {
	if dir == "" {
		return errors.New("no corpus directory configured to watch")
	}

	watcher, err := corpus.NewWatcher(dir, corpus.DefaultDebounce)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	defer watcher.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)...\n", dir)
	err = watcher.Watch(ctx, func() {
		logger.Info("corpus changed, rebuilding")
		if err := buildOnce(ctx, cmd, svc, cfg); err != nil {
			// Keep watching; a rebuild failure leaves the prior index live.
			logger.Warn("rebuild failed: %v", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
