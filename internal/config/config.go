// Package config loads docdrift configuration from .docdrift/config.yml
// with environment variable overrides.
package config

import (
	"github.com/docdrift/docdrift/internal/score"
)

// Config represents the complete docdrift configuration.
// It can be loaded from .docdrift/config.yml with environment variable overrides.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Sync    SyncConfig    `yaml:"sync" mapstructure:"sync"`
	Weights score.Weights `yaml:"weights" mapstructure:"weights"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
}

// PathsConfig defines which files to analyze and which to ignore.
type PathsConfig struct {
	Code   []string `yaml:"code" mapstructure:"code"`     // glob patterns for code files
	Docs   []string `yaml:"docs" mapstructure:"docs"`     // glob patterns for documentation
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// SyncConfig controls sync run behavior.
type SyncConfig struct {
	Mode               string  `yaml:"mode" mapstructure:"mode"`                                 // "detect", "preview", "apply" or "auto"
	AutoApplyThreshold float64 `yaml:"auto_apply_threshold" mapstructure:"auto_apply_threshold"` // confidence gate for apply mode
	CreateSnapshot     bool    `yaml:"create_snapshot" mapstructure:"create_snapshot"`           // persist a new baseline after the run
	Workers            int     `yaml:"workers" mapstructure:"workers"`                           // extraction concurrency, 0 = GOMAXPROCS
	StalenessCapDays   float64 `yaml:"staleness_cap_days" mapstructure:"staleness_cap_days"`     // days until doc staleness saturates
}

// StorageConfig defines where and how the knowledge graph persists.
type StorageConfig struct {
	StateDir        string `yaml:"state_dir" mapstructure:"state_dir"`               // override the default .docdrift state directory
	BackupLimit     int    `yaml:"backup_limit" mapstructure:"backup_limit"`         // rotating backups to retain
	IntegrityPolicy string `yaml:"integrity_policy" mapstructure:"integrity_policy"` // "reject" or "admit"
	StaleNodeDays   int    `yaml:"stale_node_days" mapstructure:"stale_node_days"`   // days until integrity checks flag an untouched node
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Code: []string{
				"**/*.go",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
				"**/*.mjs",
				"**/*.py",
				"**/*.java",
				"**/*.rs",
				"**/*.rb",
				"**/*.php",
				"**/*.c",
				"**/*.h",
			},
			Docs: []string{
				"**/*.md",
			},
			Ignore: []string{
				"node_modules/**",
				".git/**",
				"vendor/**",
				"dist/**",
				"build/**",
				"target/**",
			},
		},
		Sync: SyncConfig{
			Mode:               "detect",
			AutoApplyThreshold: 0.8,
			CreateSnapshot:     true,
			StalenessCapDays:   score.DefaultStalenessCapDays,
		},
		Weights: score.DefaultWeights(),
		Storage: StorageConfig{
			BackupLimit:     10,
			IntegrityPolicy: "reject",
			StaleNodeDays:   90,
		},
	}
}
