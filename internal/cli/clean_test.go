package cli

// Test Plan for Clean and Init Commands:
// - runInit creates the state directory and a loadable config file
// - runInit refuses to overwrite an existing config without --force
// - runInit with --force overwrites the config
// - runClean deletes the baseline snapshot
// - runClean handles a missing baseline gracefully
// - runClean with --all also deletes the knowledge graph directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdrift/docdrift/internal/config"
	"github.com/docdrift/docdrift/internal/snapshot"
)

// useRoot points the CLI at a temp project root for one test.
func useRoot(t *testing.T, dir string) {
	t.Helper()
	prev := rootDirFlag
	rootDirFlag = dir
	t.Cleanup(func() { rootDirFlag = prev })
}

func TestRunInit_CreatesLoadableConfig(t *testing.T) {
	root := t.TempDir()
	useRoot(t, root)

	require.NoError(t, runInit(initCmd, nil))

	configPath := filepath.Join(root, config.StateDirName, "config.yml")
	_, err := os.Stat(configPath)
	require.NoError(t, err)

	cfg, err := config.NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, "detect", cfg.Sync.Mode)
}

func TestRunInit_RefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	useRoot(t, root)

	require.NoError(t, runInit(initCmd, nil))

	err := runInit(initCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	initForceFlag = true
	defer func() { initForceFlag = false }()
	require.NoError(t, runInit(initCmd, nil))
}

func TestRunClean_DeletesBaseline(t *testing.T) {
	root := t.TempDir()
	useRoot(t, root)

	stateDir := filepath.Join(root, config.StateDirName)
	require.NoError(t, os.MkdirAll(stateDir, 0755))
	baselinePath := filepath.Join(stateDir, snapshot.BaselineFileName)
	require.NoError(t, os.WriteFile(baselinePath, []byte("{}"), 0644))

	cleanQuietFlag = true
	defer func() { cleanQuietFlag = false }()

	require.NoError(t, runClean(cleanCmd, nil))

	_, err := os.Stat(baselinePath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunClean_MissingBaseline(t *testing.T) {
	root := t.TempDir()
	useRoot(t, root)

	cleanQuietFlag = true
	defer func() { cleanQuietFlag = false }()

	require.NoError(t, runClean(cleanCmd, nil))
}

func TestRunClean_AllDeletesGraph(t *testing.T) {
	root := t.TempDir()
	useRoot(t, root)

	graphDir := filepath.Join(root, config.StateDirName, graphDirName)
	require.NoError(t, os.MkdirAll(graphDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(graphDir, "entities.jsonl"), []byte(""), 0644))

	cleanQuietFlag = true
	cleanAllFlag = true
	defer func() {
		cleanQuietFlag = false
		cleanAllFlag = false
	}()

	require.NoError(t, runClean(cleanCmd, nil))

	_, err := os.Stat(graphDir)
	assert.True(t, os.IsNotExist(err))
}
