package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// StateDirName is the project-local state directory.
const StateDirName = ".docdrift"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (DOCDRIFT_*)
// 2. Config file (.docdrift/config.yml or .docdrift/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, StateDirName)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Enable environment variable overrides
	v.SetEnvPrefix("DOCDRIFT")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., DOCDRIFT_SYNC_MODE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	v.BindEnv("sync.mode")
	v.BindEnv("sync.auto_apply_threshold")
	v.BindEnv("sync.create_snapshot")
	v.BindEnv("sync.workers")
	v.BindEnv("sync.staleness_cap_days")

	v.BindEnv("storage.state_dir")
	v.BindEnv("storage.backup_limit")
	v.BindEnv("storage.integrity_policy")
	v.BindEnv("storage.stale_node_days")

	setDefaults(v)

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.docs", defaults.Paths.Docs)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("sync.mode", defaults.Sync.Mode)
	v.SetDefault("sync.auto_apply_threshold", defaults.Sync.AutoApplyThreshold)
	v.SetDefault("sync.create_snapshot", defaults.Sync.CreateSnapshot)
	v.SetDefault("sync.workers", defaults.Sync.Workers)
	v.SetDefault("sync.staleness_cap_days", defaults.Sync.StalenessCapDays)

	v.SetDefault("weights.code_complexity", defaults.Weights.CodeComplexity)
	v.SetDefault("weights.usage_frequency", defaults.Weights.UsageFrequency)
	v.SetDefault("weights.change_magnitude", defaults.Weights.ChangeMagnitude)
	v.SetDefault("weights.documentation_coverage", defaults.Weights.DocumentationCoverage)
	v.SetDefault("weights.staleness", defaults.Weights.Staleness)
	v.SetDefault("weights.user_feedback", defaults.Weights.UserFeedback)

	v.SetDefault("storage.state_dir", defaults.Storage.StateDir)
	v.SetDefault("storage.backup_limit", defaults.Storage.BackupLimit)
	v.SetDefault("storage.integrity_policy", defaults.Storage.IntegrityPolicy)
	v.SetDefault("storage.stale_node_days", defaults.Storage.StaleNodeDays)
}

// StateDir resolves the state directory for a project root, honoring the
// configured override.
func (c *Config) StateDir(rootDir string) string {
	if c.Storage.StateDir != "" {
		if filepath.IsAbs(c.Storage.StateDir) {
			return c.Storage.StateDir
		}
		return filepath.Join(rootDir, c.Storage.StateDir)
	}
	return filepath.Join(rootDir, StateDirName)
}

// EnsureStateDir creates the state directory if needed and returns it.
func (c *Config) EnsureStateDir(rootDir string) (string, error) {
	dir := c.StateDir(rootDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}
