package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/veridex-labs/veridex-cli/internal/adapters/driven/config/file"
)

// configStore is injected from main alongside the services.
var configStore *file.Store

// SetConfigStore injects the config store used by the config commands.
func SetConfigStore(store *file.Store) {
	configStore = store
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Store the embedding provider API key",
	Long: `Prompts for an API key and stores it in the config file.
The key is read without echoing when run in a terminal.`,
	RunE: runConfigSetKey,
}

var configSetCorpusCmd = &cobra.Command{
	Use:   "set-corpus [dir]",
	Short: "Set the corpus directory to index",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetCorpus,
}

func init() {
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configSetCorpusCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cfg := configStore.Config()
	cmd.Printf("Config file: %s\n", configStore.Path())
	cmd.Printf("Corpus dir:  %s\n", orUnset(cfg.CorpusDir))
	cmd.Printf("Data dir:    %s\n", orUnset(cfg.DataDir))
	cmd.Printf("Chunking:    %s\n", chunkingSummary(cfg.ChunkSize, cfg.Overlap))
	cmd.Printf("Provider:    %s\n", orUnset(cfg.Embedding.Provider))
	cmd.Printf("Model:       %s\n", orUnset(cfg.Embedding.Model))
	cmd.Printf("API key:     %s\n", maskKey(cfg.Embedding.APIKey))
	return nil
}

func runConfigSetKey(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Print("API key: ")
	key := readSecret()
	cmd.Println()

	if key == "" {
		return errors.New("no key entered")
	}

	cfg := configStore.Config()
	cfg.Embedding.APIKey = key
	if err := configStore.Update(cfg); err != nil {
		return err
	}

	cmd.Println("API key saved.")
	return nil
}

func runConfigSetCorpus(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cfg := configStore.Config()
	cfg.CorpusDir = args[0]
	if err := configStore.Update(cfg); err != nil {
		return err
	}

	cmd.Printf("Corpus directory set to %s.\n", args[0])
	return nil
}

// readSecret reads a line from stdin without echo when possible.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func chunkingSummary(size, overlap int) string {
	if size == 0 {
		return "(defaults)"
	}
	return fmt.Sprintf("%d bytes, %d overlap", size, overlap)
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
