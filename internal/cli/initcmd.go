package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/docdrift/docdrift/internal/config"
)

var initForceFlag bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .docdrift directory with a starter config",
	Long: `Init creates the .docdrift state directory and writes a config.yml
populated with defaults. Edit it to tune analyzed paths, the sync mode,
priority weights and storage behavior.

Examples:
  # Initialize the current directory
  docdrift init

  # Overwrite an existing config
  docdrift init --force
`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	rootDir, err := projectRoot()
	if err != nil {
		return err
	}

	stateDir := filepath.Join(rootDir, config.StateDirName)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", stateDir, err)
	}

	configPath := filepath.Join(stateDir, "config.yml")
	if _, err := os.Stat(configPath); err == nil && !initForceFlag {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", configPath)
	fmt.Println("  Run 'docdrift sync' to capture a baseline.")
	return nil
}
