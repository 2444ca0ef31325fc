package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the document index",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if services.Index == nil {
		return errors.New("index service not configured")
	}

	manifest, err := services.Index.Status(context.Background())
	if err != nil {
		if errors.Is(err, domain.ErrNotInitialized) {
			cmd.Println("Index not initialized. Run \"veridex build\" first.")
			return nil
		}
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Documents:  %d\n", manifest.DocumentCount)
	cmd.Printf("Chunks:     %d\n", manifest.ChunkCount)
	cmd.Printf("Dimension:  %d\n", manifest.Dimension)
	cmd.Printf("Model:      %s\n", manifest.Model)
	cmd.Printf("Chunking:   %d bytes, %d overlap\n", manifest.Chunking.ChunkSize, manifest.Chunking.Overlap)
	cmd.Printf("Built at:   %s\n", manifest.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
