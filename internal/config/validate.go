package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMode indicates an unsupported sync mode
	ErrInvalidMode = errors.New("invalid sync mode")

	// ErrInvalidThreshold indicates an out-of-range auto-apply threshold
	ErrInvalidThreshold = errors.New("invalid auto-apply threshold")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrEmptyPaths indicates no code patterns are configured
	ErrEmptyPaths = errors.New("empty code path patterns")

	// ErrInvalidBackupLimit indicates a non-positive backup retention
	ErrInvalidBackupLimit = errors.New("invalid backup limit")

	// ErrInvalidIntegrityPolicy indicates an unknown integrity policy
	ErrInvalidIntegrityPolicy = errors.New("invalid integrity policy")

	// ErrInvalidStaleNodeDays indicates a non-positive staleness window
	ErrInvalidStaleNodeDays = errors.New("invalid stale node days")
)

var validModes = []string{"detect", "preview", "apply", "auto"}

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateSync(&cfg.Sync); err != nil {
		errs = append(errs, err)
	}
	if len(cfg.Paths.Code) == 0 {
		errs = append(errs, ErrEmptyPaths)
	}
	if err := cfg.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validateSync(sc *SyncConfig) error {
	modeOK := false
	for _, mode := range validModes {
		if sc.Mode == mode {
			modeOK = true
			break
		}
	}
	if !modeOK {
		return fmt.Errorf("%w: %q (valid: %s)", ErrInvalidMode, sc.Mode, strings.Join(validModes, ", "))
	}
	if sc.AutoApplyThreshold < 0 || sc.AutoApplyThreshold > 1 {
		return fmt.Errorf("%w: %.2f (must be within [0,1])", ErrInvalidThreshold, sc.AutoApplyThreshold)
	}
	if sc.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, sc.Workers)
	}
	return nil
}

func validateStorage(sc *StorageConfig) error {
	if sc.BackupLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBackupLimit, sc.BackupLimit)
	}
	if sc.IntegrityPolicy != "reject" && sc.IntegrityPolicy != "admit" {
		return fmt.Errorf("%w: %q (valid: reject, admit)", ErrInvalidIntegrityPolicy, sc.IntegrityPolicy)
	}
	if sc.StaleNodeDays <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStaleNodeDays, sc.StaleNodeDays)
	}
	return nil
}
