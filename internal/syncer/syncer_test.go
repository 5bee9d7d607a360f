package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdrift/docdrift/internal/docs"
	"github.com/docdrift/docdrift/internal/drift"
	"github.com/docdrift/docdrift/internal/git"
	"github.com/docdrift/docdrift/internal/kgraph"
	"github.com/docdrift/docdrift/internal/score"
	"github.com/docdrift/docdrift/internal/snapshot"
)

// TEST PLAN for syncer:
//
// 1. First run with no baseline captures one, persists structure to the
//    graph, and reports Baseline without diffing.
// 2. A second run after a source change detects drift, counts breaking
//    changes, and leaves documentation untouched in detect mode.
// 3. Preview mode renders suggestions as pending with an effort estimate
//    and mutates nothing.
// 4. Apply mode applies only auto-applicable suggestions above the
//    confidence threshold; the rest stay pending with a reason.
// 5. Auto mode applies every suggestion.
// 6. applyChange inserts a freshness notice under the section header and
//    refreshes it in place on a second application.
// 7. applyChange fails for a missing section.
// 8. buildChanges yields nothing for a diff no section mentions.
// 9. A cancelled context aborts the run.

const apiV1 = `export function fetchUser(id: string): Promise<User> {
  return client.get(id);
}
`

const apiV2 = `export function fetchUser(id: string, opts: Options): Promise<User> {
  return client.get(id, opts);
}

export function deleteUser(id: string): Promise<void> {
  return client.delete(id);
}
`

const guideDoc = `# User API

Fetch a user with ` + "`fetchUser()`" + ` from [src/api.ts](src/api.ts).
Removal via ` + "`deleteUser()`" + ` is planned.
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newTestSyncer builds a syncer over a fresh project tree with one code
// file and one documentation file.
func newTestSyncer(t *testing.T, opts Options) (*Syncer, string, kgraph.Store) {
	t.Helper()

	root := t.TempDir()
	writeFile(t, root, "src/api.ts", apiV1)
	writeFile(t, root, "docs/guide.md", guideDoc)

	stateDir := filepath.Join(root, ".docdrift")
	require.NoError(t, os.MkdirAll(stateDir, 0755))

	capturer, err := snapshot.NewCapturer(root, snapshot.CapturerOptions{})
	require.NoError(t, err)
	t.Cleanup(capturer.Close)

	store, err := kgraph.Open(filepath.Join(stateDir, "graph"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := New(root, stateDir, capturer, store, git.NewMockRevisionReader(), opts)
	require.NoError(t, err)
	return s, root, store
}

func runBaselineThen(t *testing.T, s *Syncer, root string) {
	t.Helper()
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, result.Baseline)
	writeFile(t, root, "src/api.ts", apiV2)
}

func TestRunBaseline(t *testing.T) {
	t.Parallel()

	s, root, store := newTestSyncer(t, DefaultOptions())

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Baseline)
	assert.Empty(t, result.DriftDetections)
	assert.Equal(t, 1, result.Stats.FilesAnalyzed)
	assert.NotEmpty(t, result.SnapshotID)

	baseline, err := snapshot.LoadBaseline(filepath.Join(root, ".docdrift"))
	require.NoError(t, err)
	require.NotNil(t, baseline)
	assert.Equal(t, result.SnapshotID, baseline.ID)

	node, ok := store.FindNode(kgraph.NodeCriteria{ID: "code:src/api.ts"})
	require.True(t, ok)
	assert.Equal(t, kgraph.NodeCodeFile, node.Type)

	_, ok = store.FindNode(kgraph.NodeCriteria{ID: "doc:docs/guide.md#User API"})
	assert.True(t, ok)
}

func TestRunDetect(t *testing.T) {
	t.Parallel()

	s, root, store := newTestSyncer(t, DefaultOptions())
	runBaselineThen(t, s, root)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Baseline)
	require.NotEmpty(t, result.DriftDetections)
	assert.GreaterOrEqual(t, result.Stats.BreakingChanges, 1)
	assert.Empty(t, result.AppliedChanges)
	assert.Empty(t, result.PendingChanges, "detect mode builds no suggestions")

	events := store.FindNodes(kgraph.NodeCriteria{Type: kgraph.NodeDriftEvent})
	assert.Len(t, events, len(result.DriftDetections))

	data, err := os.ReadFile(filepath.Join(root, "docs/guide.md"))
	require.NoError(t, err)
	assert.Equal(t, guideDoc, string(data), "detect mode must not edit documentation")
}

func TestRunPreview(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Mode = ModePreview
	s, root, _ := newTestSyncer(t, opts)
	runBaselineThen(t, s, root)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.AppliedChanges)
	require.NotEmpty(t, result.PendingChanges)
	for _, change := range result.PendingChanges {
		assert.Equal(t, ChangePending, change.Status)
		assert.Equal(t, "preview mode", change.Reason)
		assert.NotEmpty(t, change.Description)
	}
	assert.Greater(t, result.Stats.EstimatedUpdateTime, time.Duration(0))

	data, err := os.ReadFile(filepath.Join(root, "docs/guide.md"))
	require.NoError(t, err)
	assert.Equal(t, guideDoc, string(data))
}

func TestRunApplyGatesOnConfidence(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Mode = ModeApply
	s, root, _ := newTestSyncer(t, opts)
	runBaselineThen(t, s, root)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	// The added deleteUser is a patch-level, auto-applicable change and
	// clears the 0.8 threshold; the breaking fetchUser signature change
	// must not.
	var appliedSymbols, pendingSymbols []string
	for _, change := range result.AppliedChanges {
		appliedSymbols = append(appliedSymbols, change.Symbol)
	}
	for _, change := range result.PendingChanges {
		pendingSymbols = append(pendingSymbols, change.Symbol)
		assert.NotEmpty(t, change.Reason)
	}
	assert.Contains(t, appliedSymbols, "deleteUser")
	assert.Contains(t, pendingSymbols, "fetchUser")
	assert.NotContains(t, appliedSymbols, "fetchUser")

	data, err := os.ReadFile(filepath.Join(root, "docs/guide.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), noticeMarker)
}

func TestRunAutoAppliesEverything(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Mode = ModeAuto
	s, root, _ := newTestSyncer(t, opts)
	runBaselineThen(t, s, root)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, result.AppliedChanges)
	assert.Empty(t, result.PendingChanges)
	assert.Equal(t, 0, result.Stats.ChangesPending)

	data, err := os.ReadFile(filepath.Join(root, "docs/guide.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), noticeMarker)
}

func TestApplyChangeInsertsAndRefreshesNotice(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "docs/guide.md", guideDoc)

	change := &Change{
		DocPath:      "docs/guide.md",
		SectionTitle: "User API",
		Description:  "document new function \"deleteUser\"",
	}
	rev := "0123456789abcdef0123456789abcdef01234567"

	require.NoError(t, applyChange(root, change, rev, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)))

	data, err := os.ReadFile(filepath.Join(root, "docs/guide.md"))
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[1], noticeMarker), "notice sits under the header")
	assert.Contains(t, lines[1], "rev="+rev)

	// Second application refreshes the line instead of stacking markers.
	require.NoError(t, applyChange(root, change, rev, time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC)))

	data, err = os.ReadFile(filepath.Join(root, "docs/guide.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), noticeMarker))
	assert.Contains(t, string(data), "13:00:00Z")
}

func TestApplyChangeMissingSection(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "docs/guide.md", guideDoc)

	change := &Change{DocPath: "docs/guide.md", SectionTitle: "No Such Section"}
	err := applyChange(root, change, "abc", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestBuildChangesSkipsUnmentionedDiffs(t *testing.T) {
	t.Parallel()

	snap := &snapshot.Snapshot{
		Docs: map[string][]docs.DocumentationSection{
			"docs/other.md": {{
				FilePath:            "docs/other.md",
				SectionTitle:        "Deployment",
				ReferencedFunctions: []string{"deploy"},
			}},
		},
	}
	diffs := []drift.CodeDiff{{
		Type:     drift.DiffRemoved,
		Category: drift.CategoryFunction,
		FilePath: "src/api.ts",
		Name:     "fetchUser",
		Impact:   drift.ImpactBreaking,
	}}
	priorities := []score.PriorityScore{{}}

	changes := buildChanges(diffs, priorities, snap)
	assert.Empty(t, changes, "a diff nothing documents yields no suggestion")
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSyncer(t, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	require.Error(t, err)
}

func TestNewRejectsBadOptions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	capturer, err := snapshot.NewCapturer(root, snapshot.CapturerOptions{})
	require.NoError(t, err)
	t.Cleanup(capturer.Close)

	t.Run("threshold out of range", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AutoApplyThreshold = 1.5
		_, err := New(root, root, capturer, nil, git.NewMockRevisionReader(), opts)
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Mode = Mode("rampage")
		_, err := New(root, root, capturer, nil, git.NewMockRevisionReader(), opts)
		assert.Error(t, err)
	})

	t.Run("unbalanced weights", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Weights.Staleness = 0.9
		_, err := New(root, root, capturer, nil, git.NewMockRevisionReader(), opts)
		assert.Error(t, err)
	})
}
