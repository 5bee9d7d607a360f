package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docdrift/docdrift/internal/snapshot"
)

var cleanQuietFlag bool
var cleanAllFlag bool

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the stored baseline to force a fresh capture",
	Long: `Clean deletes the baseline snapshot so the next 'docdrift sync' run
captures a fresh one instead of diffing.

By default only the baseline is deleted. Use --all to also delete the
knowledge graph and its backups.

The configuration file (.docdrift/config.yml) is preserved.

Use cases:
  - Intentional large refactor that should become the new baseline
  - Corrupted state after an interrupted run
  - Debugging drift detection

Examples:
  # Reset the baseline
  docdrift clean

  # Reset everything including the graph
  docdrift clean --all
`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanQuietFlag, "quiet", "q", false, "Suppress output messages")
	cleanCmd.Flags().BoolVarP(&cleanAllFlag, "all", "a", false, "Also delete the knowledge graph and backups")
}

func runClean(cmd *cobra.Command, args []string) error {
	rootDir, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}
	stateDir := cfg.StateDir(rootDir)

	baselinePath := filepath.Join(stateDir, snapshot.BaselineFileName)
	if err := os.Remove(baselinePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove baseline: %w", err)
	}
	if !cleanQuietFlag {
		fmt.Println("✓ Baseline removed")
	}

	if cleanAllFlag {
		graphDir := filepath.Join(stateDir, graphDirName)
		if err := os.RemoveAll(graphDir); err != nil {
			return fmt.Errorf("failed to remove knowledge graph: %w", err)
		}
		if !cleanQuietFlag {
			fmt.Println("✓ Knowledge graph removed")
		}
	}

	if !cleanQuietFlag {
		fmt.Println("  Next 'docdrift sync' will capture a fresh baseline.")
	}
	return nil
}
