// Package cli implements the veridex command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/veridex-labs/veridex-cli/internal/core/domain"
	"github.com/veridex-labs/veridex-cli/internal/core/ports/driving"
	"github.com/veridex-labs/veridex-cli/internal/logger"
)

// version is overridden at build time via ldflags.
var version = "dev"

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Services holds the wired driving services used by the commands.
type Services struct {
	// Index answers build, search and status requests.
	Index driving.IndexService

	// CorpusDir is the configured corpus location, shown in output and
	// watched by build --watch.
	CorpusDir string

	// Chunking is the configured chunking default. Flags override it.
	Chunking domain.ChunkingConfig

	// NewIndexForDir wires an index service over an alternate corpus
	// directory, used when build is given a positional argument.
	NewIndexForDir func(dir string) (driving.IndexService, error)
}

var services Services

// Configure injects the wired services. Must be called before Execute.
func Configure(s Services) {
	services = s
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "veridex",
	Short: "Semantic search over a local document corpus",
	Long: `Veridex chunks a directory of documents, embeds every chunk and
answers similarity queries against the resulting index.

Run "veridex build" to index a corpus, then "veridex search" to query it.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
