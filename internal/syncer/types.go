// Package syncer sequences snapshot capture, drift detection, priority
// scoring, persistence, and documentation updates into one run. It is a
// small state machine: idle -> baseline (first run) -> detect/preview/
// apply/auto -> done.
package syncer

import (
	"time"

	"github.com/docdrift/docdrift/internal/drift"
	"github.com/docdrift/docdrift/internal/score"
)

// Mode fixes the behavior of a whole run.
type Mode string

const (
	// ModeDetect computes and persists diffs; nothing is mutated.
	ModeDetect Mode = "detect"

	// ModePreview additionally renders suggested documentation edits,
	// still without mutating any file.
	ModePreview Mode = "preview"

	// ModeApply mutates only suggestions that are auto-applicable and
	// meet the confidence threshold; the rest become pending.
	ModeApply Mode = "apply"

	// ModeAuto mutates all suggestions regardless of threshold.
	ModeAuto Mode = "auto"
)

// DefaultAutoApplyThreshold gates unattended edits in apply mode.
const DefaultAutoApplyThreshold = 0.8

// Options configures a run.
type Options struct {
	Mode               Mode
	AutoApplyThreshold float64
	CreateSnapshot     bool
	Workers            int
	StalenessCapDays   float64
	Weights            score.Weights
}

// DefaultOptions returns the standard run configuration.
func DefaultOptions() Options {
	return Options{
		Mode:               ModeDetect,
		AutoApplyThreshold: DefaultAutoApplyThreshold,
		CreateSnapshot:     true,
		StalenessCapDays:   score.DefaultStalenessCapDays,
		Weights:            score.DefaultWeights(),
	}
}

// ChangeStatus is the outcome of one suggested documentation change.
type ChangeStatus string

const (
	ChangeApplied ChangeStatus = "applied"
	ChangePending ChangeStatus = "pending"
)

// Change is one suggested (and possibly applied) documentation edit,
// linking a drift diff to the documentation section it affects.
type Change struct {
	DocPath      string `json:"doc_path"`
	SectionTitle string `json:"section_title"`
	Symbol       string `json:"symbol"`

	// Description is the rendered suggestion text.
	Description string `json:"description"`

	Diff     drift.CodeDiff      `json:"diff"`
	Priority score.PriorityScore `json:"priority"`

	Status ChangeStatus `json:"status"`

	// Reason explains why a change is pending: below threshold, not
	// auto-applicable, or an application failure.
	Reason string `json:"reason,omitempty"`
}

// Stats summarizes one run.
type Stats struct {
	FilesAnalyzed   int `json:"files_analyzed"`
	DriftsDetected  int `json:"drifts_detected"`
	ChangesApplied  int `json:"changes_applied"`
	ChangesPending  int `json:"changes_pending"`
	BreakingChanges int `json:"breaking_changes"`

	// EstimatedUpdateTime is a rough manual effort estimate for the
	// remaining pending changes.
	EstimatedUpdateTime time.Duration `json:"estimated_update_time"`
}

// Result is the output of one run.
type Result struct {
	DriftDetections []drift.CodeDiff `json:"drift_detections"`
	AppliedChanges  []Change         `json:"applied_changes"`
	PendingChanges  []Change         `json:"pending_changes"`
	Stats           Stats            `json:"stats"`
	SnapshotID      string           `json:"snapshot_id"`

	// Baseline reports that this was a first run: a baseline snapshot
	// was captured and no diffing happened.
	Baseline bool `json:"baseline"`
}

// effortFor estimates manual update effort for one change.
func effortFor(impact drift.Impact) time.Duration {
	switch impact {
	case drift.ImpactBreaking:
		return 30 * time.Minute
	case drift.ImpactMajor:
		return 15 * time.Minute
	case drift.ImpactMinor:
		return 5 * time.Minute
	default:
		return 2 * time.Minute
	}
}
