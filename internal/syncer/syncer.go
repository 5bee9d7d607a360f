package syncer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/docdrift/docdrift/internal/drift"
	"github.com/docdrift/docdrift/internal/git"
	"github.com/docdrift/docdrift/internal/kgraph"
	"github.com/docdrift/docdrift/internal/score"
	"github.com/docdrift/docdrift/internal/snapshot"
)

// state tracks run progress through the machine.
type state string

const (
	stateIdle     state = "idle"
	stateBaseline state = "baseline"
	stateDetect   state = "detect"
	statePreview  state = "preview"
	stateApply    state = "apply"
	stateAuto     state = "auto"
	stateDone     state = "done"
)

// Syncer sequences one full drift-detection run. The store and capturer
// are owned by the caller and injected; the syncer holds no global state.
type Syncer struct {
	rootDir  string
	stateDir string
	capturer *snapshot.Capturer
	store    kgraph.Store
	revs     git.RevisionReader
	opts     Options

	state state
}

// New creates a Syncer. The store may be nil when graph persistence is not
// wanted (e.g., one-shot previews).
func New(rootDir, stateDir string, capturer *snapshot.Capturer, store kgraph.Store, revs git.RevisionReader, opts Options) (*Syncer, error) {
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if opts.AutoApplyThreshold < 0 || opts.AutoApplyThreshold > 1 {
		return nil, fmt.Errorf("auto-apply threshold %.2f out of range [0,1]", opts.AutoApplyThreshold)
	}
	switch opts.Mode {
	case ModeDetect, ModePreview, ModeApply, ModeAuto:
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if revs == nil {
		revs = git.NewRevisionReader()
	}
	return &Syncer{
		rootDir:  rootDir,
		stateDir: stateDir,
		capturer: capturer,
		store:    store,
		revs:     revs,
		opts:     opts,
		state:    stateIdle,
	}, nil
}

// Run executes one pass: load baseline, capture, diff, score, persist, and
// (in mutating modes) apply documentation edits. A failure applying one
// suggestion demotes only that suggestion; the run continues.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	baseline, err := snapshot.LoadBaseline(s.stateDir)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	current, err := s.capturer.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture snapshot: %w", err)
	}

	if baseline == nil {
		return s.runBaseline(current)
	}

	s.state = state(s.opts.Mode)

	diffs := drift.DetectProject(baseline.Files, current.Files)
	priorities, err := s.scoreAll(ctx, diffs, current)
	if err != nil {
		return nil, err
	}

	result := &Result{
		DriftDetections: diffs,
		SnapshotID:      current.ID,
	}
	result.Stats.FilesAnalyzed = len(current.Files)
	result.Stats.DriftsDetected = len(diffs)
	for _, d := range diffs {
		if d.Impact == drift.ImpactBreaking {
			result.Stats.BreakingChanges++
		}
	}

	if s.opts.Mode != ModeDetect {
		changes := buildChanges(diffs, priorities, current)
		s.resolveChanges(ctx, changes, result)
	}

	if err := s.persistRun(current, diffs, priorities); err != nil {
		return nil, err
	}

	// A mutating run re-captures so edited documentation freshness lands
	// in the next baseline.
	next := current
	if result.Stats.ChangesApplied > 0 {
		if recaptured, err := s.capturer.Capture(ctx); err == nil {
			next = recaptured
			result.SnapshotID = recaptured.ID
		} else {
			log.Printf("warning: post-apply capture failed, keeping pre-apply snapshot: %v", err)
		}
	}
	if s.opts.CreateSnapshot {
		if err := snapshot.SaveBaseline(s.stateDir, next); err != nil {
			return nil, fmt.Errorf("save baseline: %w", err)
		}
	}

	s.state = stateDone
	return result, nil
}

// runBaseline handles the first run: no prior snapshot, so structure is
// captured and persisted without diffing.
func (s *Syncer) runBaseline(current *snapshot.Snapshot) (*Result, error) {
	s.state = stateBaseline

	if err := s.persistRun(current, nil, nil); err != nil {
		return nil, err
	}
	if err := snapshot.SaveBaseline(s.stateDir, current); err != nil {
		return nil, fmt.Errorf("save baseline: %w", err)
	}

	s.state = stateDone
	return &Result{
		SnapshotID: current.ID,
		Baseline:   true,
		Stats:      Stats{FilesAnalyzed: len(current.Files)},
	}, nil
}

func (s *Syncer) scoreAll(ctx context.Context, diffs []drift.CodeDiff, current *snapshot.Snapshot) ([]score.PriorityScore, error) {
	idx := buildUsageIndex(current)
	priorities := make([]score.PriorityScore, len(diffs))
	for i, diff := range diffs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta := idx.metadataFor(diff, current, s.opts.StalenessCapDays)
		priority, err := score.Score(diff, meta, s.opts.Weights)
		if err != nil {
			return nil, fmt.Errorf("score %s %q: %w", diff.Category, diff.Name, err)
		}
		priorities[i] = priority
	}
	return priorities, nil
}

// resolveChanges decides and (in mutating modes) applies each suggestion.
func (s *Syncer) resolveChanges(ctx context.Context, changes []Change, result *Result) {
	revision := s.revs.CurrentRevision(s.rootDir)
	now := time.Now()

	for i := range changes {
		change := changes[i]
		if err := ctx.Err(); err != nil {
			change.Status = ChangePending
			change.Reason = "run cancelled before application"
			result.PendingChanges = append(result.PendingChanges, change)
			continue
		}

		switch s.opts.Mode {
		case ModePreview:
			change.Status = ChangePending
			change.Reason = "preview mode"
		case ModeApply:
			switch {
			case !change.Diff.AutoApplicable:
				change.Status = ChangePending
				change.Reason = "not auto-applicable: requires manual review"
			case change.Priority.Confidence < s.opts.AutoApplyThreshold:
				change.Status = ChangePending
				change.Reason = fmt.Sprintf("confidence %.2f below threshold %.2f",
					change.Priority.Confidence, s.opts.AutoApplyThreshold)
			default:
				s.apply(&change, revision, now)
			}
		case ModeAuto:
			s.apply(&change, revision, now)
		}

		if change.Status == ChangeApplied {
			result.AppliedChanges = append(result.AppliedChanges, change)
			result.Stats.ChangesApplied++
		} else {
			result.PendingChanges = append(result.PendingChanges, change)
			result.Stats.ChangesPending++
			result.Stats.EstimatedUpdateTime += effortFor(change.Diff.Impact)
		}
	}
}

// apply mutates the documentation file; a failure demotes the single
// suggestion to pending with the reason attached.
func (s *Syncer) apply(change *Change, revision string, now time.Time) {
	if err := applyChange(s.rootDir, change, revision, now); err != nil {
		log.Printf("warning: apply %s: %v", change.DocPath, err)
		change.Status = ChangePending
		change.Reason = fmt.Sprintf("requires manual review: %v", err)
		return
	}
	change.Status = ChangeApplied
}

// persistRun records the run in the knowledge graph: code files, doc
// sections and their documents edges, plus a drift event and priority
// score per diff. Single-item failures are logged, not fatal.
func (s *Syncer) persistRun(snap *snapshot.Snapshot, diffs []drift.CodeDiff, priorities []score.PriorityScore) error {
	if s.store == nil {
		return nil
	}

	for path, cf := range snap.Files {
		node := &kgraph.Node{
			ID:    "code:" + path,
			Type:  kgraph.NodeCodeFile,
			Label: path,
			Properties: map[string]any{
				"path":          path,
				"language":      cf.Language,
				"content_hash":  cf.ContentHash,
				"lines_of_code": cf.LinesOfCode,
				"complexity":    cf.Complexity,
			},
		}
		if err := s.store.AddNode(node); err != nil {
			log.Printf("warning: persist code node %s: %v", path, err)
		}
	}

	for docPath, sections := range snap.Docs {
		for _, section := range sections {
			sectionID := "doc:" + docPath + "#" + section.SectionTitle
			node := &kgraph.Node{
				ID:    sectionID,
				Type:  kgraph.NodeDocumentationSection,
				Label: section.SectionTitle,
				Properties: map[string]any{
					"file_path":         docPath,
					"section_title":     section.SectionTitle,
					"category":          string(section.Category),
					"content_hash":      section.ContentHash,
					"has_code_examples": section.HasCodeExamples,
				},
				Weight: section.EffectivenessScore,
			}
			if err := s.store.AddNode(node); err != nil {
				log.Printf("warning: persist doc node %s: %v", sectionID, err)
				continue
			}
			for _, ref := range section.ReferencedCodeFiles {
				if _, ok := snap.Files[ref]; !ok {
					continue
				}
				edge := &kgraph.Edge{
					ID:         sectionID + "->code:" + ref,
					Source:     sectionID,
					Target:     "code:" + ref,
					Type:       kgraph.EdgeDocuments,
					Confidence: 1,
				}
				if err := s.store.AddEdge(edge); err != nil {
					log.Printf("warning: persist documents edge %s: %v", edge.ID, err)
				}
			}
		}
	}

	for i, diff := range diffs {
		eventID := "drift:" + uuid.NewString()
		event := &kgraph.Node{
			ID:    eventID,
			Type:  kgraph.NodeDriftEvent,
			Label: fmt.Sprintf("%s %s %s", diff.Type, diff.Category, diff.Name),
			Properties: map[string]any{
				"category":     string(diff.Category),
				"impact_level": string(diff.Impact),
				"entity_name":  diff.Name,
				"details":      diff.Details,
				"file_path":    diff.FilePath,
			},
		}
		if err := s.store.AddNode(event); err != nil {
			log.Printf("warning: persist drift event %s: %v", eventID, err)
			continue
		}
		if _, ok := snap.Files[diff.FilePath]; ok {
			edge := &kgraph.Edge{
				ID:         eventID + "->code:" + diff.FilePath,
				Source:     eventID,
				Target:     "code:" + diff.FilePath,
				Type:       kgraph.EdgeDrifted,
				Confidence: 1,
			}
			if err := s.store.AddEdge(edge); err != nil {
				log.Printf("warning: persist drifted edge %s: %v", edge.ID, err)
			}
		}

		if i >= len(priorities) {
			continue
		}
		scoreID := "score:" + uuid.NewString()
		scoreNode := &kgraph.Node{
			ID:     scoreID,
			Type:   kgraph.NodePriorityScore,
			Label:  string(priorities[i].Recommendation),
			Weight: priorities[i].Overall,
			Properties: map[string]any{
				"overall":          priorities[i].Overall,
				"recommendation":   string(priorities[i].Recommendation),
				"suggested_action": priorities[i].SuggestedAction,
				"confidence":       priorities[i].Confidence,
			},
		}
		if err := s.store.AddNode(scoreNode); err != nil {
			log.Printf("warning: persist score node %s: %v", scoreID, err)
			continue
		}
		edge := &kgraph.Edge{
			ID:         scoreID + "->" + eventID,
			Source:     scoreID,
			Target:     eventID,
			Type:       kgraph.EdgeScored,
			Confidence: priorities[i].Confidence,
		}
		if err := s.store.AddEdge(edge); err != nil {
			log.Printf("warning: persist scored edge %s: %v", edge.ID, err)
		}
	}
	return nil
}
