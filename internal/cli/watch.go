package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docdrift/docdrift/internal/syncer"
)

var watchQuietFlag bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for file changes and sync continuously",
	Long: `Watch monitors the project for source and documentation changes and
runs a sync after each burst of changes settles. The run mode comes from
configuration (sync.mode), so detect, preview, apply and auto all work
continuously.

Examples:
  # Watch and record drift
  docdrift watch

  # Watch and stamp safe updates as they happen
  DOCDRIFT_SYNC_MODE=apply docdrift watch
`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVarP(&watchQuietFlag, "quiet", "q", false, "Suppress per-run output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	rootDir, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}

	s, cleanup, err := buildSyncer(rootDir, cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	w, err := syncer.NewWatcher(rootDir, s, watchedExtensions(), nil)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	err = w.Start(ctx, func(result *syncer.Result, err error) {
		if err != nil {
			log.Printf("sync run failed: %v", err)
			return
		}
		if !watchQuietFlag {
			printResult(result, true)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if !watchQuietFlag {
		log.Println("Watching for changes (Ctrl+C to stop)...")
	}
	<-sigChan
	fmt.Println("\nStopping watch...")
	cancel()
	return nil
}

// watchedExtensions lists the file suffixes that trigger sync runs.
func watchedExtensions() []string {
	return []string{
		".go", ".ts", ".tsx", ".js", ".jsx", ".mjs",
		".py", ".java", ".rs", ".rb", ".php", ".c", ".h",
		".md",
	}
}
