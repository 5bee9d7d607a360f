package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docdrift/docdrift/internal/syncer"
)

var (
	syncModeFlag  string
	syncQuietFlag bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Detect documentation drift and optionally update docs",
	Long: `Sync captures the project structure, diffs it against the stored
baseline, and scores every structural change by documentation urgency.

Modes:
  detect   record drift, change nothing (default)
  preview  additionally render suggested documentation edits
  apply    stamp auto-applicable, high-confidence suggestions into docs
  auto     stamp every suggestion

The first run has no baseline to diff against: it captures one and exits.

Examples:
  # Detect drift in the current directory
  docdrift sync

  # Show what would be changed
  docdrift sync --mode preview

  # Apply safe updates
  docdrift sync --mode apply
`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVarP(&syncModeFlag, "mode", "m", "", "run mode: detect, preview, apply or auto (overrides config)")
	syncCmd.Flags().BoolVarP(&syncQuietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling sync...")
		cancel()
	}()

	rootDir, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}
	if syncModeFlag != "" {
		cfg.Sync.Mode = syncModeFlag
	}

	progress := NewCaptureProgressReporter(syncQuietFlag)
	s, cleanup, err := buildSyncer(rootDir, cfg, progress)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := s.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("sync cancelled")
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	printResult(result, syncQuietFlag)
	return nil
}

func printResult(result *syncer.Result, quiet bool) {
	if result.Baseline {
		fmt.Printf("✓ Baseline captured: %d files (snapshot %s)\n",
			result.Stats.FilesAnalyzed, result.SnapshotID)
		fmt.Println("  Run sync again after code changes to detect drift.")
		return
	}

	fmt.Printf("✓ Sync complete: %d files analyzed, %d drifts detected\n",
		result.Stats.FilesAnalyzed, result.Stats.DriftsDetected)
	if result.Stats.BreakingChanges > 0 {
		fmt.Printf("  Breaking changes: %d\n", result.Stats.BreakingChanges)
	}
	if result.Stats.ChangesApplied > 0 {
		fmt.Printf("  Documentation updates applied: %d\n", result.Stats.ChangesApplied)
	}
	if result.Stats.ChangesPending > 0 {
		fmt.Printf("  Pending manual updates: %d (est. %s)\n",
			result.Stats.ChangesPending, result.Stats.EstimatedUpdateTime)
	}

	if quiet {
		return
	}
	for _, change := range result.PendingChanges {
		fmt.Printf("  - [%s] %s: %s\n", change.Diff.Impact, change.DocPath, change.Description)
		if verbose && change.Reason != "" {
			fmt.Printf("    reason: %s\n", change.Reason)
		}
	}
}
