package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docdrift/docdrift/internal/config"
)

var (
	rootDirFlag string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docdrift",
	Short: "Keep documentation in sync with the code it describes",
	Long: `Docdrift snapshots your project's code structure, diffs it against the
previous snapshot, and scores each structural change by how urgently its
documentation needs attention. In apply mode it stamps affected
documentation sections with validated-against markers.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDirFlag, "root", "", "project root (default is the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// projectRoot resolves the --root flag, defaulting to the working directory.
func projectRoot() (string, error) {
	if rootDirFlag != "" {
		return rootDirFlag, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}

// loadConfig loads and validates configuration for the project root.
func loadConfig(rootDir string) (*config.Config, error) {
	cfg, err := config.NewLoader(rootDir).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
