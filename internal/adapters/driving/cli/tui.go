package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/veridex-labs/veridex-cli/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for veridex.

Type a query and press enter to search the index.

Controls:
  enter   - Search
  ↑/↓     - Navigate results
  esc     - Clear query and results
  ctrl+c  - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if services.Index == nil {
		return errors.New("index service not configured")
	}

	// Panic recovery keeps a stack trace visible after the alt screen closes.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := tui.Run(cmd.Context(), services.Index); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
