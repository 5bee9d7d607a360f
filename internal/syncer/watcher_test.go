package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdrift/docdrift/internal/git"
	"github.com/docdrift/docdrift/internal/snapshot"
)

// TEST PLAN for watcher:
//
// 1. A write to a watched extension triggers exactly one run after the
//    debounce window, even for a burst of writes.
// 2. Files under skipped directories never trigger runs.
// 3. Stop is idempotent and safe before Start.

func newWatchedSyncer(t *testing.T) (*Syncer, string) {
	t.Helper()

	root := t.TempDir()
	writeFile(t, root, "src/api.ts", apiV1)

	stateDir := filepath.Join(root, ".docdrift")
	require.NoError(t, os.MkdirAll(stateDir, 0755))

	capturer, err := snapshot.NewCapturer(root, snapshot.CapturerOptions{})
	require.NoError(t, err)
	t.Cleanup(capturer.Close)

	s, err := New(root, stateDir, capturer, nil, git.NewMockRevisionReader(), DefaultOptions())
	require.NoError(t, err)
	return s, root
}

func TestWatcherDebouncesBurst(t *testing.T) {
	t.Parallel()

	s, root := newWatchedSyncer(t)

	w, err := NewWatcher(root, s, []string{".ts"}, []string{"node_modules"})
	require.NoError(t, err)
	defer w.Stop()

	runs := make(chan *Result, 4)
	require.NoError(t, w.Start(context.Background(), func(result *Result, err error) {
		require.NoError(t, err)
		runs <- result
	}))

	// Burst of writes inside one debounce window.
	for i := 0; i < 3; i++ {
		writeFile(t, root, "src/api.ts", apiV1+"\n// rev")
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case result := <-runs:
		assert.True(t, result.Baseline)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a sync run after the debounce window")
	}

	// The burst must have collapsed into a single run.
	select {
	case <-runs:
		t.Fatal("burst triggered more than one run")
	case <-time.After(2 * DefaultDebounce):
	}
}

func TestWatcherIgnoresSkippedDirs(t *testing.T) {
	t.Parallel()

	s, root := newWatchedSyncer(t)
	writeFile(t, root, "node_modules/dep/index.ts", "export const x = 1;\n")

	w, err := NewWatcher(root, s, []string{".ts"}, []string{"node_modules"})
	require.NoError(t, err)
	defer w.Stop()

	runs := make(chan struct{}, 1)
	require.NoError(t, w.Start(context.Background(), func(*Result, error) {
		runs <- struct{}{}
	}))

	writeFile(t, root, "node_modules/dep/index.ts", "export const x = 2;\n")

	select {
	case <-runs:
		t.Fatal("write under a skipped directory triggered a run")
	case <-time.After(3 * DefaultDebounce):
	}
}

func TestWatcherStopBeforeStart(t *testing.T) {
	t.Parallel()

	s, root := newWatchedSyncer(t)

	w, err := NewWatcher(root, s, []string{".ts"}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
