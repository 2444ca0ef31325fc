package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the document index",
	Long: `Embeds the query and returns the chunks most similar to it,
ranked by cosine similarity. Run "veridex build" first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if services.Index == nil {
		return errors.New("index service not configured")
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		TopK: searchTopK,
	}

	results, err := services.Index.Search(ctx, query, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNotInitialized) {
			return errors.New("no index built yet, run \"veridex build\" first")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}

	return outputSearchText(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].DocumentTitle
		if title == "" {
			title = results[i].Chunk.DocumentID
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, results[i].Score)
		if results[i].DocumentURI != "" {
			cmd.Printf("      %s\n", results[i].DocumentURI)
		}
		cmd.Printf("      %s\n", snippet(results[i].Chunk.Content))
		cmd.Println()
	}

	return nil
}

// snippet trims a chunk down to a single display line.
func snippet(content string) string {
	const maxLen = 160
	for i, r := range content {
		if r == '\n' {
			content = content[:i]
			break
		}
	}
	if len(content) > maxLen {
		return content[:maxLen] + "..."
	}
	return content
}
